// File: internal/repository/message/interface.go
package message

import (
	"context"

	"github.com/iyunix/go-yasmin/internal/domain"
)

type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) (*domain.Message, error)
	Update(ctx context.Context, message *domain.Message) error
	FindByConversationID(ctx context.Context, conversationID string) ([]domain.Message, error)
	// FindRecentMessages returns the newest limit messages in chronological order.
	FindRecentMessages(ctx context.Context, conversationID string, limit int) ([]domain.Message, error)
	FindMessagesByRole(ctx context.Context, role domain.Role, limit int) ([]domain.Message, error)
}
