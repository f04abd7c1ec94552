// File: internal/repository/store.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/iyunix/go-yasmin/internal/domain"
	"github.com/iyunix/go-yasmin/internal/repository/conversation"
	"github.com/iyunix/go-yasmin/internal/repository/message"
)

var (
	ErrConversationNotFound = conversation.ErrConversationNotFound
	ErrMessageNotFound      = message.ErrMessageNotFound
)

// Store is the conversation store consumed by the chat services. Every method
// is atomic on its own; writes that touch two rows run in one transaction.
type Store struct {
	db            *gorm.DB
	conversations conversation.ConversationRepository
	messages      message.MessageRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		conversations: conversation.NewConversationRepository(db),
		messages:      message.NewMessageRepository(db),
	}
}

// Create starts an empty conversation with a fresh UUID.
func (s *Store) Create(ctx context.Context, title string) (*domain.Conversation, error) {
	if strings.TrimSpace(title) == "" {
		title = domain.DefaultConversationTitle
	}
	now := time.Now()
	return s.conversations.Create(ctx, &domain.Conversation{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Conversation, error) {
	return s.conversations.FindByID(ctx, id)
}

// AppendMessage inserts a message and bumps the conversation's updated_at.
func (s *Store) AppendMessage(ctx context.Context, conversationID string, role domain.Role, content string) (*domain.Message, error) {
	var created *domain.Message
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conversations := conversation.NewConversationRepository(tx)
		if _, err := conversations.FindByID(ctx, conversationID); err != nil {
			return err
		}
		msg, err := message.NewMessageRepository(tx).Create(ctx, &domain.Message{
			ConversationID: conversationID,
			Role:           role,
			Content:        content,
		})
		if err != nil {
			return err
		}
		if err := conversations.TouchUpdatedAt(ctx, conversationID); err != nil {
			return err
		}
		created = msg
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("append %s message: %w", role, err)
	}
	return created, nil
}

// ReplaceMessageContent overwrites a message's content and timestamp in place.
func (s *Store) ReplaceMessageContent(ctx context.Context, msg *domain.Message, content string) (*domain.Message, error) {
	if msg == nil {
		return nil, errors.New("message cannot be nil")
	}
	updated := *msg
	updated.Content = content
	updated.CreatedAt = time.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := message.NewMessageRepository(tx).Update(ctx, &updated); err != nil {
			return err
		}
		return conversation.NewConversationRepository(tx).TouchUpdatedAt(ctx, updated.ConversationID)
	})
	if err != nil {
		return nil, fmt.Errorf("replace message %d: %w", msg.ID, err)
	}
	return &updated, nil
}

// ListMessages returns messages oldest first; limit > 0 keeps only the newest limit.
func (s *Store) ListMessages(ctx context.Context, conversationID string, limit int) ([]domain.Message, error) {
	return s.messages.FindRecentMessages(ctx, conversationID, limit)
}

func (s *Store) ListConversations(ctx context.Context) ([]domain.Conversation, error) {
	return s.conversations.FindAll(ctx)
}

// ListConversationsPage returns one page of conversations and the total count.
func (s *Store) ListConversationsPage(ctx context.Context, limit, offset int) ([]domain.Conversation, int64, error) {
	return s.conversations.FindAllWithPagination(ctx, limit, offset)
}

func (s *Store) ListMessagesByRole(ctx context.Context, role domain.Role, limit int) ([]domain.Message, error) {
	return s.messages.FindMessagesByRole(ctx, role, limit)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.conversations.Delete(ctx, id)
}
