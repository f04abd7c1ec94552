// File: internal/services/chat_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iyunix/go-yasmin/internal/domain"
	"github.com/iyunix/go-yasmin/internal/repository"
	chatservice "github.com/iyunix/go-yasmin/internal/services/chat"
)

// ChatService is what the HTTP handlers call.
type ChatService struct {
	store    *repository.Store
	resolver *chatservice.Resolver
	ai       *AIService
	logger   Logger
}

func NewChatService(
	store *repository.Store,
	aiService *AIService,
	config *chatservice.Config,
	offline *chatservice.OfflineReplies,
	recorder chatservice.Recorder,
	logger Logger,
) (*ChatService, error) {
	// Validate dependencies
	if store == nil {
		return nil, chatservice.NewValidationError("constructor", "conversation store is required")
	}
	if aiService == nil {
		return nil, chatservice.NewValidationError("constructor", "AI service is required")
	}
	if config == nil {
		config = chatservice.DefaultConfig()
	}
	if logger == nil {
		logger = &NoOpLogger{}
	}

	resolver, err := chatservice.NewResolver(config, store, aiService.Providers(), offline, recorder, logger)
	if err != nil {
		return nil, chatservice.NewValidationError("config", err.Error())
	}

	return &ChatService{
		store:    store,
		resolver: resolver,
		ai:       aiService,
		logger:   logger,
	}, nil
}

// SendMessage runs one chat turn.
func (s *ChatService) SendMessage(ctx context.Context, req chatservice.TurnRequest) (*chatservice.TurnResult, error) {
	return s.resolver.Resolve(ctx, req)
}

// Regenerate replaces or adds the reply to the latest user message.
func (s *ChatService) Regenerate(ctx context.Context, req chatservice.RegenerateRequest) (*chatservice.TurnResult, error) {
	return s.resolver.Regenerate(ctx, req)
}

func (s *ChatService) ListConversations(ctx context.Context) ([]domain.Conversation, error) {
	convs, err := s.store.ListConversations(ctx)
	if err != nil {
		return nil, chatservice.NewStorageError("list_conversations", "", err)
	}
	return convs, nil
}

// MaxPageSize bounds one page of the conversation list.
const MaxPageSize = 1000

// ListConversationsPage returns one page of conversations and the total count.
func (s *ChatService) ListConversationsPage(ctx context.Context, limit, offset int) ([]domain.Conversation, int64, error) {
	if limit <= 0 || limit > MaxPageSize {
		return nil, 0, chatservice.NewValidationError("list_conversations", fmt.Sprintf("limit must be between 1 and %d", MaxPageSize))
	}
	if offset < 0 {
		return nil, 0, chatservice.NewValidationError("list_conversations", "offset must not be negative")
	}
	convs, total, err := s.store.ListConversationsPage(ctx, limit, offset)
	if err != nil {
		return nil, 0, chatservice.NewStorageError("list_conversations", "", err)
	}
	return convs, total, nil
}

// GetConversation returns the conversation with its full message history.
func (s *ChatService) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	id = strings.TrimSpace(id)
	conv, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, s.mapStoreError("get_conversation", id, err)
	}
	msgs, err := s.store.ListMessages(ctx, id, 0)
	if err != nil {
		return nil, chatservice.NewStorageError("get_conversation", id, err)
	}
	conv.Messages = msgs
	return conv, nil
}

func (s *ChatService) DeleteConversation(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if err := s.store.Delete(ctx, id); err != nil {
		return s.mapStoreError("delete_conversation", id, err)
	}
	s.logger.Info("conversation deleted", "conversation_id", id)
	return nil
}

// RecentErrors returns the newest provider error markers across all conversations.
func (s *ChatService) RecentErrors(ctx context.Context, limit int) ([]domain.Message, error) {
	msgs, err := s.store.ListMessagesByRole(ctx, domain.RoleError, limit)
	if err != nil {
		return nil, chatservice.NewStorageError("recent_errors", "", err)
	}
	return msgs, nil
}

// ServiceStatus describes which providers are usable.
type ServiceStatus struct {
	Providers       []ProviderState `json:"providers"`
	ConfiguredCount int             `json:"configured_count"`
	// OfflineOnly is true when no provider has a credential.
	OfflineOnly bool `json:"offline_only"`
}

type ProviderState struct {
	Name         string `json:"name"`
	DisplayName  string `json:"display_name"`
	Configured   bool   `json:"configured"`
	DefaultModel string `json:"default_model"`
}

func (s *ChatService) Status() ServiceStatus {
	statuses := s.ai.Status()
	out := ServiceStatus{Providers: make([]ProviderState, 0, len(statuses))}
	for _, st := range statuses {
		out.Providers = append(out.Providers, ProviderState(st))
	}
	out.ConfiguredCount = s.ai.ConfiguredCount()
	out.OfflineOnly = out.ConfiguredCount == 0
	return out
}

func (s *ChatService) mapStoreError(op, id string, err error) error {
	if errors.Is(err, repository.ErrConversationNotFound) {
		return chatservice.NewNotFoundError(op, id)
	}
	s.logger.Error("store failure", "operation", op, "conversation_id", id, "error", err)
	return chatservice.NewStorageError(op, id, err)
}
