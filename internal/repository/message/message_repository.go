// File: internal/repository/message/message_repository.go
package message

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/iyunix/go-yasmin/internal/domain"
	"gorm.io/gorm"
)

var ErrMessageNotFound = errors.New("message not found")

// Message order is created_at, with the insert sequence breaking ties.
const chronological = "created_at ASC, id ASC"
const reverseChronological = "created_at DESC, id DESC"

type gormMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &gormMessageRepository{db: db}
}

// Create - validated insert; message content is never logged.
func (r *gormMessageRepository) Create(ctx context.Context, message *domain.Message) (*domain.Message, error) {
	if err := r.validateMessageInput(message); err != nil {
		log.Printf("[MessageRepository] Validation failed: %v", err)
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		log.Printf("[MessageRepository] Database error during message creation for conversation %s: %v", message.ConversationID, err)
		return nil, fmt.Errorf("database error creating message: %w", err)
	}

	log.Printf("[MessageRepository] Message created successfully with ID: %d for conversation: %s", message.ID, message.ConversationID)
	return message, nil
}

// Update - full-row save of an existing message
func (r *gormMessageRepository) Update(ctx context.Context, message *domain.Message) error {
	if message == nil || message.ID == 0 {
		return errors.New("invalid message ID")
	}
	if err := r.validateMessageInput(message); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	result := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id = ? AND conversation_id = ?", message.ID, message.ConversationID).
		Updates(map[string]interface{}{
			"role":       message.Role,
			"content":    message.Content,
			"created_at": message.CreatedAt,
		})
	if result.Error != nil {
		log.Printf("[MessageRepository] Database error updating message ID %d: %v", message.ID, result.Error)
		return fmt.Errorf("database error updating message: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrMessageNotFound
	}

	log.Printf("[MessageRepository] Message updated successfully with ID: %d", message.ID)
	return nil
}

func (r *gormMessageRepository) FindByConversationID(ctx context.Context, conversationID string) ([]domain.Message, error) {
	var messages []domain.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order(chronological).
		Find(&messages).Error
	if err != nil {
		log.Printf("[MessageRepository] Database error finding messages for conversation %s: %v", conversationID, err)
		return nil, fmt.Errorf("database error fetching messages: %w", err)
	}
	return messages, nil
}

func (r *gormMessageRepository) FindRecentMessages(ctx context.Context, conversationID string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		return r.FindByConversationID(ctx, conversationID)
	}

	var messages []domain.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order(reverseChronological).
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		log.Printf("[MessageRepository] Database error finding recent messages for conversation %s: %v", conversationID, err)
		return nil, fmt.Errorf("database error finding recent messages: %w", err)
	}

	// Reverse to chronological order (oldest → newest)
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// FindMessagesByRole lists the newest messages of one role across all conversations.
func (r *gormMessageRepository) FindMessagesByRole(ctx context.Context, role domain.Role, limit int) ([]domain.Message, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("invalid role %q", role)
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	var messages []domain.Message
	err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Order(reverseChronological).
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		log.Printf("[MessageRepository] Database error finding %s messages: %v", role, err)
		return nil, fmt.Errorf("database error finding messages by role: %w", err)
	}
	return messages, nil
}

// ===== VALIDATION HELPERS =====

func (r *gormMessageRepository) validateMessageInput(message *domain.Message) error {
	if message == nil {
		return errors.New("message cannot be nil")
	}
	if strings.TrimSpace(message.ConversationID) == "" {
		return errors.New("conversation ID is required")
	}
	if !message.Role.Valid() {
		return fmt.Errorf("invalid role %q", message.Role)
	}
	if strings.TrimSpace(message.Content) == "" {
		return errors.New("message content cannot be empty")
	}
	return nil
}
