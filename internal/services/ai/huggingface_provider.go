// File: internal/services/ai/huggingface_provider.go
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HuggingFaceProvider calls the hosted Inference API text-generation task.
type HuggingFaceProvider struct {
	config *Config
	client *http.Client
}

func NewHuggingFaceProvider(config *Config) *HuggingFaceProvider {
	return &HuggingFaceProvider{config: config, client: config.httpClient()}
}

func (p *HuggingFaceProvider) Name() string           { return p.config.Name }
func (p *HuggingFaceProvider) DisplayName() string    { return p.config.DisplayName() }
func (p *HuggingFaceProvider) Configured() bool       { return p.config.Configured() }
func (p *HuggingFaceProvider) DefaultModel() string   { return p.config.Model }
func (p *HuggingFaceProvider) Timeout() time.Duration { return p.config.Timeout }

type hfParameters struct {
	MaxNewTokens      int      `json:"max_new_tokens,omitempty"`
	// Temperature is left out for greedy decoding; the endpoint rejects 0.
	Temperature       *float32 `json:"temperature,omitempty"`
	TopP              float32  `json:"top_p"`
	RepetitionPenalty float32  `json:"repetition_penalty"`
	DoSample          bool     `json:"do_sample"`
	ReturnFullText    bool     `json:"return_full_text"`
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfGeneration struct {
	GeneratedText string `json:"generated_text"`
}

type hfError struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time"`
}

func (p *HuggingFaceProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if !p.Configured() {
		return "", NewConfigError(p.Name(), "API token is not set")
	}
	model := req.Model
	if model == "" {
		model = p.config.Model
	}

	payload := hfRequest{
		Inputs: InstructPrompt(req.SystemPrompt, req.Transcript),
		Parameters: hfParameters{
			MaxNewTokens:      req.MaxTokens,
			TopP:              0.95,
			RepetitionPenalty: 1.1,
			DoSample:          req.Temperature > 0,
			ReturnFullText:    false,
		},
	}
	if req.Temperature > 0 {
		t := req.Temperature
		payload.Parameters.Temperature = &t
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", NewProviderError(p.Name(), "completion", "failed to encode request", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s", strings.TrimRight(p.config.BaseURL, "/"), model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", NewProviderError(p.Name(), "completion", "failed to build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", NewTransportError(p.Name(), model, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", NewTransportError(p.Name(), model, err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr hfError
		msg := string(raw)
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
			if apiErr.EstimatedTime > 0 {
				msg = fmt.Sprintf("%s (estimated time %.0fs)", msg, apiErr.EstimatedTime)
			}
		}
		return "", NewStatusError(p.Name(), model, resp.StatusCode, msg)
	}

	var generations []hfGeneration
	if err := json.Unmarshal(raw, &generations); err != nil {
		return "", &AIError{Type: ErrTypeMalformed, Provider: p.Name(), Model: model, Operation: "completion",
			Message: "could not decode response", Cause: err}
	}
	if len(generations) == 0 {
		return "", NewEmptyResponseError(p.Name(), model)
	}
	text := strings.TrimSpace(generations[0].GeneratedText)
	if text == "" {
		return "", NewEmptyResponseError(p.Name(), model)
	}
	return text, nil
}

// InstructPrompt renders a transcript in the [INST] chat format used by
// Mistral and Llama-2 instruct models. The result ends with an open
// "[/INST]" so the model continues as the assistant.
func InstructPrompt(system string, transcript []Turn) string {
	var b strings.Builder
	b.WriteString("<s>[INST] ")
	if system != "" {
		b.WriteString("<<SYS>>\n")
		b.WriteString(system)
		b.WriteString("\n<</SYS>>\n\n")
	}

	open := true
	awaitingReply := false
	for _, turn := range transcript {
		switch turn.Role {
		case RoleUser:
			if !open {
				b.WriteString("<s>[INST] ")
			}
			b.WriteString(turn.Content)
			b.WriteString(" [/INST]")
			open = false
			awaitingReply = true
		case RoleAssistant:
			// an assistant turn with no preceding user turn has nothing to answer
			if !awaitingReply {
				continue
			}
			b.WriteString(" ")
			b.WriteString(turn.Content)
			b.WriteString("</s>")
			awaitingReply = false
		}
	}
	return b.String()
}
