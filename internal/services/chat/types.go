// File: internal/services/chat/types.go
package chat

import (
	"context"
	"time"

	"github.com/iyunix/go-yasmin/internal/domain"
)

// Logger defines the logging interface used across chat services
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// ConversationStore is the persistence the resolvers need. *repository.Store implements it.
type ConversationStore interface {
	Create(ctx context.Context, title string) (*domain.Conversation, error)
	Get(ctx context.Context, id string) (*domain.Conversation, error)
	AppendMessage(ctx context.Context, conversationID string, role domain.Role, content string) (*domain.Message, error)
	ReplaceMessageContent(ctx context.Context, msg *domain.Message, content string) (*domain.Message, error)
	ListMessages(ctx context.Context, conversationID string, limit int) ([]domain.Message, error)
}

// Recorder receives turn and provider-attempt observations.
type Recorder interface {
	ProviderAttempt(provider, outcome string, elapsed time.Duration)
	TurnCompleted(kind, outcome string)
}

type noopRecorder struct{}

func (noopRecorder) ProviderAttempt(string, string, time.Duration) {}
func (noopRecorder) TurnCompleted(string, string)                  {}

// Attempt outcomes and turn outcomes reported to the Recorder.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
	OutcomeOffline = "offline"

	KindChat       = "chat"
	KindRegenerate = "regenerate"
)

// GenerationParams are optional per-request overrides; nil means the configured default.
type GenerationParams struct {
	Model       string
	Temperature *float32
	MaxTokens   *int
}

// TurnRequest is one user chat turn.
type TurnRequest struct {
	Message        string
	ConversationID string
	Params         GenerationParams
}

// RegenerateRequest asks for a new reply to the latest user message.
// Transcript, when set, replaces the stored history as the provider input.
type RegenerateRequest struct {
	ConversationID string
	Transcript     []TranscriptEntry
	Params         GenerationParams
}

// TranscriptEntry is a caller-supplied history item.
type TranscriptEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Attempt records one failed provider call.
type Attempt struct {
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	ErrorType string `json:"error_type"`
	Error     string `json:"error"`
}

// TurnResult is what a chat or regenerate turn produced.
type TurnResult struct {
	ConversationID string
	Title          string
	Reply          string
	// Source is the display name of the answering provider, or "offline".
	Source    string
	Model     string
	Offline   bool
	Error     string
	Attempts  []Attempt
	MessageID uint
	// Persisted is false when the reply could not be stored; Warning says why.
	Persisted bool
	Warning   string
}

type params struct {
	model       string
	temperature float32
	maxTokens   int
}
