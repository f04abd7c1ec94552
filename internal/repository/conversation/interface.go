package conversation

import (
	"context"

	"github.com/iyunix/go-yasmin/internal/domain"
)

// ConversationRepository handles conversation data operations.
type ConversationRepository interface {
	Create(ctx context.Context, conversation *domain.Conversation) (*domain.Conversation, error)
	FindByID(ctx context.Context, id string) (*domain.Conversation, error)
	FindAll(ctx context.Context) ([]domain.Conversation, error)
	FindAllWithPagination(ctx context.Context, limit, offset int) ([]domain.Conversation, int64, error)
	// Delete removes the conversation and all of its messages.
	Delete(ctx context.Context, id string) error
	TouchUpdatedAt(ctx context.Context, id string) error
}
