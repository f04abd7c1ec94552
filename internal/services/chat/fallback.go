// File: internal/services/chat/fallback.go
package chat

import (
	"context"
	"strings"
	"time"

	"github.com/iyunix/go-yasmin/internal/services/ai"
)

// providerChain tries providers sequentially in priority order.
type providerChain struct {
	providers []ai.ChatProvider
	recorder  Recorder
	logger    Logger
}

type chainResult struct {
	reply    string
	source   string
	model    string
	attempts []Attempt
}

func (r chainResult) ok() bool { return r.reply != "" }

// modelFor resolves the model override. A "provider:model" value targets that
// provider only; a bare value targets the first provider actually attempted.
func (c *providerChain) modelFor(p ai.ChatProvider, override string, first bool) string {
	if override == "" {
		return p.DefaultModel()
	}
	if name, model, found := strings.Cut(override, ":"); found && c.isProvider(name) {
		if name == p.Name() {
			return model
		}
		return p.DefaultModel()
	}
	if first {
		return override
	}
	return p.DefaultModel()
}

func (c *providerChain) isProvider(name string) bool {
	for _, p := range c.providers {
		if p.Name() == name {
			return true
		}
	}
	return false
}

func (c *providerChain) run(ctx context.Context, transcript []ai.Turn, systemPrompt string, prm params) chainResult {
	var result chainResult
	attempted := false

	for _, p := range c.providers {
		if ctx.Err() != nil {
			c.logger.Warn("request cancelled, stopping provider chain", "error", ctx.Err())
			break
		}
		if !p.Configured() {
			c.logger.Debug("skipping unconfigured provider", "provider", p.Name())
			c.recorder.ProviderAttempt(p.Name(), OutcomeSkipped, 0)
			continue
		}

		model := c.modelFor(p, prm.model, !attempted)
		attempted = true

		attemptCtx, cancel := context.WithTimeout(ctx, p.Timeout())
		start := time.Now()
		text, err := p.Complete(attemptCtx, ai.CompletionRequest{
			Transcript:   transcript,
			SystemPrompt: systemPrompt,
			Model:        model,
			Temperature:  prm.temperature,
			MaxTokens:    prm.maxTokens,
		})
		cancel()
		elapsed := time.Since(start)

		text = strings.TrimSpace(text)
		if err == nil && text == "" {
			err = ai.NewEmptyResponseError(p.Name(), model)
		}
		if err != nil {
			c.recorder.ProviderAttempt(p.Name(), OutcomeError, elapsed)
			c.logger.Warn("provider attempt failed",
				"provider", p.Name(), "model", model, "error_type", ai.TypeOf(err),
				"error", err, "elapsed_ms", elapsed.Milliseconds())
			result.attempts = append(result.attempts, Attempt{
				Provider:  p.Name(),
				Model:     model,
				ErrorType: string(ai.TypeOf(err)),
				Error:     err.Error(),
			})
			continue
		}

		c.recorder.ProviderAttempt(p.Name(), OutcomeSuccess, elapsed)
		c.logger.Info("provider answered",
			"provider", p.Name(), "model", model, "elapsed_ms", elapsed.Milliseconds(),
			"failed_before", len(result.attempts))
		result.reply = text
		result.source = p.DisplayName()
		result.model = model
		return result
	}
	return result
}

// describeAttempts renders recorded provider failures for the client and the error marker.
func describeAttempts(attempts []Attempt) string {
	if len(attempts) == 0 {
		return noProviderErrorDetail
	}
	parts := make([]string, 0, len(attempts))
	for _, a := range attempts {
		parts = append(parts, a.Error)
	}
	return strings.Join(parts, " | ")
}
