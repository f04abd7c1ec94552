// File: internal/services/ai/openai_provider.go
package ai

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider serves OpenAI-compatible chat-completion APIs (Deepseek, OpenRouter).
type OpenAIProvider struct {
	config    *Config
	llmClient *openai.Client
}

func NewOpenAIProvider(config *Config) *OpenAIProvider {
	llmConfig := openai.DefaultConfig(config.APIKey)
	llmConfig.BaseURL = strings.TrimRight(config.BaseURL, "/")
	llmConfig.HTTPClient = withHeaders(config.httpClient(), attributionHeaders(config))

	return &OpenAIProvider{
		config:    config,
		llmClient: openai.NewClientWithConfig(llmConfig),
	}
}

func (p *OpenAIProvider) Name() string           { return p.config.Name }
func (p *OpenAIProvider) DisplayName() string    { return p.config.DisplayName() }
func (p *OpenAIProvider) Configured() bool       { return p.config.Configured() }
func (p *OpenAIProvider) DefaultModel() string   { return p.config.Model }
func (p *OpenAIProvider) Timeout() time.Duration { return p.config.Timeout }

func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if !p.Configured() {
		return "", NewConfigError(p.Name(), "API key is not set")
	}
	model := req.Model
	if model == "" {
		model = p.config.Model
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Transcript)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	for _, turn := range req.Transcript {
		role := openai.ChatMessageRoleUser
		if turn.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Content})
	}

	// go-openai omits a zero temperature; the smallest positive value keeps it on the wire.
	temperature := req.Temperature
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	resp, err := p.llmClient.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", p.classify(model, err)
	}

	if len(resp.Choices) == 0 {
		return "", NewEmptyResponseError(p.Name(), model)
	}
	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonContentFilter {
		return "", NewSafetyError(p.Name(), model, string(choice.FinishReason))
	}
	text := strings.TrimSpace(choice.Message.Content)
	if text == "" {
		return "", NewEmptyResponseError(p.Name(), model)
	}
	return text, nil
}

func (p *OpenAIProvider) classify(model string, err error) *AIError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		aiErr := NewStatusError(p.Name(), model, apiErr.HTTPStatusCode, apiErr.Message)
		aiErr.Cause = err
		return aiErr
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		aiErr := NewStatusError(p.Name(), model, reqErr.HTTPStatusCode, http.StatusText(reqErr.HTTPStatusCode))
		aiErr.Cause = err
		return aiErr
	}
	return NewTransportError(p.Name(), model, err)
}

func attributionHeaders(config *Config) map[string]string {
	headers := map[string]string{}
	if config.Referer != "" {
		headers["HTTP-Referer"] = config.Referer
	}
	if config.AppTitle != "" {
		headers["X-Title"] = config.AppTitle
	}
	return headers
}

// headerTransport adds fixed headers to every outgoing request.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	for k, v := range t.headers {
		clone.Header.Set(k, v)
	}
	return t.base.RoundTrip(clone)
}

func withHeaders(client *http.Client, headers map[string]string) *http.Client {
	if len(headers) == 0 {
		return client
	}
	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	wrapped := *client
	wrapped.Transport = &headerTransport{base: base, headers: headers}
	return &wrapped
}
