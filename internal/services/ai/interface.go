// File: internal/services/ai/interface.go
package ai

import (
	"context"
	"time"
)

// Turn is one transcript entry sent to a provider. Role is "user" or "assistant".
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// CompletionRequest carries the transcript (oldest first) and generation settings.
type CompletionRequest struct {
	Transcript   []Turn
	SystemPrompt string
	Model        string
	Temperature  float32
	MaxTokens    int
}

// ChatProvider is the single contract every backend adapter satisfies.
// Complete returns non-empty text or an *AIError; never both.
type ChatProvider interface {
	// Name is the stable identifier used in PROVIDER_ORDER and model qualifiers.
	Name() string
	// DisplayName is reported to clients as the api_source of a reply.
	DisplayName() string
	Configured() bool
	DefaultModel() string
	Timeout() time.Duration
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// ProviderStatus is the public view of one configured backend.
type ProviderStatus struct {
	Name         string `json:"name"`
	DisplayName  string `json:"display_name"`
	Configured   bool   `json:"configured"`
	DefaultModel string `json:"default_model"`
}

// Statuses describes providers in their priority order.
func Statuses(providers []ChatProvider) []ProviderStatus {
	out := make([]ProviderStatus, 0, len(providers))
	for _, p := range providers {
		out = append(out, ProviderStatus{
			Name:         p.Name(),
			DisplayName:  p.DisplayName(),
			Configured:   p.Configured(),
			DefaultModel: p.DefaultModel(),
		})
	}
	return out
}
