// File: internal/services/ai/gemini_provider.go
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// GeminiProvider calls the Generative Language generateContent endpoint.
type GeminiProvider struct {
	config *Config
	client *http.Client
}

func NewGeminiProvider(config *Config) *GeminiProvider {
	return &GeminiProvider{config: config, client: config.httpClient()}
}

func (p *GeminiProvider) Name() string           { return p.config.Name }
func (p *GeminiProvider) DisplayName() string    { return p.config.DisplayName() }
func (p *GeminiProvider) Configured() bool       { return p.config.Configured() }
func (p *GeminiProvider) DefaultModel() string   { return p.config.Model }
func (p *GeminiProvider) Timeout() time.Duration { return p.config.Timeout }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiSafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type geminiGenerationConfig struct {
	Temperature     float32 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
	SafetySettings    []geminiSafetySetting  `json:"safetySettings"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

var geminiSafetySettings = []geminiSafetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
}

func (p *GeminiProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if !p.Configured() {
		return "", NewConfigError(p.Name(), "API key is not set")
	}
	model := req.Model
	if model == "" {
		model = p.config.Model
	}

	payload := geminiRequest{
		Contents:         geminiContents(req.Transcript),
		GenerationConfig: geminiGenerationConfig{Temperature: req.Temperature, MaxOutputTokens: req.MaxTokens},
		SafetySettings:   geminiSafetySettings,
	}
	if req.SystemPrompt != "" {
		payload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.SystemPrompt}}}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", NewProviderError(p.Name(), "completion", "failed to encode request", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent",
		strings.TrimRight(p.config.BaseURL, "/"), url.PathEscape(model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", NewProviderError(p.Name(), "completion", "failed to build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.config.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", NewTransportError(p.Name(), model, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", NewTransportError(p.Name(), model, err)
	}

	var out geminiResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode != http.StatusOK {
		msg := string(raw)
		if decodeErr == nil && out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return "", NewStatusError(p.Name(), model, resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return "", &AIError{Type: ErrTypeMalformed, Provider: p.Name(), Model: model, Operation: "completion",
			Message: "could not decode response", Cause: decodeErr}
	}

	if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
		return "", NewSafetyError(p.Name(), model, out.PromptFeedback.BlockReason)
	}
	if len(out.Candidates) == 0 {
		return "", NewEmptyResponseError(p.Name(), model)
	}
	candidate := out.Candidates[0]
	if candidate.FinishReason == "SAFETY" || candidate.FinishReason == "PROHIBITED_CONTENT" {
		return "", NewSafetyError(p.Name(), model, candidate.FinishReason)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		sb.WriteString(part.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", NewEmptyResponseError(p.Name(), model)
	}
	return text, nil
}

// geminiContents maps the transcript onto user/model turns, merging consecutive
// turns of the same role since the API expects them to alternate.
func geminiContents(transcript []Turn) []geminiContent {
	contents := make([]geminiContent, 0, len(transcript))
	for _, turn := range transcript {
		role := "user"
		if turn.Role == RoleAssistant {
			role = "model"
		}
		// Gemini requires the conversation to open with a user turn.
		if len(contents) == 0 && role == "model" {
			continue
		}
		if n := len(contents); n > 0 && contents[n-1].Role == role {
			contents[n-1].Parts = append(contents[n-1].Parts, geminiPart{Text: turn.Content})
			continue
		}
		contents = append(contents, geminiContent{Role: role, Parts: []geminiPart{{Text: turn.Content}}})
	}
	return contents
}
