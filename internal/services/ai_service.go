// File: internal/services/ai_service.go
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/iyunix/go-yasmin/internal/config"
	"github.com/iyunix/go-yasmin/internal/services/ai"
)

// AIService owns the provider adapters built from configuration.
type AIService struct {
	providers  []ai.ChatProvider
	maxRetries int
}

// ProviderConfigs maps the loaded configuration onto adapter configs.
func ProviderConfigs(cfg *config.Config) map[string]*ai.Config {
	build := func(name string, pc config.ProviderConfig) *ai.Config {
		c := ai.DefaultConfig(name)
		c.APIKey = pc.APIKey
		if pc.BaseURL != "" {
			c.BaseURL = pc.BaseURL
		}
		if pc.Model != "" {
			c.Model = pc.Model
		}
		if pc.Timeout > 0 {
			c.Timeout = pc.Timeout
		}
		return c
	}

	openRouter := build(ai.ProviderOpenRouter, cfg.OpenRouter)
	openRouter.Referer = cfg.AppURL

	return map[string]*ai.Config{
		ai.ProviderGemini:      build(ai.ProviderGemini, cfg.Gemini),
		ai.ProviderHuggingFace: build(ai.ProviderHuggingFace, cfg.HuggingFace),
		ai.ProviderDeepseek:    build(ai.ProviderDeepseek, cfg.Deepseek),
		ai.ProviderOpenRouter:  openRouter,
	}
}

func NewAIService(cfg *config.Config) (*AIService, error) {
	providers, err := ai.NewProviders(cfg.ProviderOrder, ProviderConfigs(cfg))
	if err != nil {
		return nil, fmt.Errorf("build providers: %w", err)
	}
	return &AIService{providers: providers, maxRetries: 2}, nil
}

// NewAIServiceWithProviders wraps already built adapters.
func NewAIServiceWithProviders(providers []ai.ChatProvider) *AIService {
	return &AIService{providers: providers, maxRetries: 2}
}

// Providers returns the adapters in priority order.
func (s *AIService) Providers() []ai.ChatProvider { return s.providers }

func (s *AIService) Status() []ai.ProviderStatus { return ai.Statuses(s.providers) }

// ConfiguredCount is the number of providers holding a credential.
func (s *AIService) ConfiguredCount() int {
	n := 0
	for _, p := range s.providers {
		if p.Configured() {
			n++
		}
	}
	return n
}

// ProbeResult is the outcome of one diagnostic round trip.
type ProbeResult struct {
	Provider string
	Model    string
	Reply    string
	Latency  time.Duration
	Err      error
	Skipped  bool
}

// Probe sends prompt to every configured provider, retrying transient failures.
// Unlike chat turns, probes never stop at the first success.
func (s *AIService) Probe(ctx context.Context, prompt string) []ProbeResult {
	results := make([]ProbeResult, 0, len(s.providers))
	for _, p := range s.providers {
		res := ProbeResult{Provider: p.Name(), Model: p.DefaultModel()}
		if !p.Configured() {
			res.Skipped = true
			results = append(results, res)
			continue
		}
		start := time.Now()
		res.Err = s.retryWithTimeout(ctx, p.Timeout(), func(ctx context.Context) error {
			reply, err := p.Complete(ctx, ai.CompletionRequest{
				Transcript:  []ai.Turn{{Role: ai.RoleUser, Content: prompt}},
				Temperature: 0.2,
				MaxTokens:   64,
			})
			res.Reply = reply
			return err
		})
		res.Latency = time.Since(start)
		results = append(results, res)
	}
	return results
}

func (s *AIService) retryWithTimeout(ctx context.Context, timeout time.Duration, call func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		err := call(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(err) {
			return err
		}
		log.Printf("[AIService] Retry %d/%d failed: %v", attempt, s.maxRetries, err)
		if attempt < s.maxRetries {
			select {
			case <-time.After(time.Duration(attempt) * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}

func retryable(err error) bool {
	switch ai.TypeOf(err) {
	case ai.ErrTypeNetwork, ai.ErrTypeTimeout, ai.ErrTypeRateLimit, ai.ErrTypeModel:
		return true
	default:
		return false
	}
}
