// File: internal/repository/conversation/conversation_repository.go
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/iyunix/go-yasmin/internal/domain"
	"gorm.io/gorm"
)

var ErrConversationNotFound = errors.New("conversation not found")

const maxTitleRunes = 100

type gormConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &gormConversationRepository{db: db}
}

// Create - Enhanced with input validation and secure logging
func (r *gormConversationRepository) Create(ctx context.Context, conversation *domain.Conversation) (*domain.Conversation, error) {
	if err := r.validateConversationInput(conversation); err != nil {
		log.Printf("[ConversationRepository] Validation failed: %v", err)
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(conversation).Error; err != nil {
		log.Printf("[ConversationRepository] Database error during conversation creation %s: %v", conversation.ID, err)
		return nil, fmt.Errorf("database error creating conversation: %w", err)
	}

	log.Printf("[ConversationRepository] Conversation created successfully with ID: %s", conversation.ID)
	return conversation, nil
}

func (r *gormConversationRepository) FindByID(ctx context.Context, id string) (*domain.Conversation, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrConversationNotFound
	}

	var conversation domain.Conversation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&conversation).Error
	return r.handleFindError(err, &conversation, "FindByID")
}

// FindAll returns every conversation, most recently active first.
func (r *gormConversationRepository) FindAll(ctx context.Context) ([]domain.Conversation, error) {
	var conversations []domain.Conversation
	err := r.db.WithContext(ctx).
		Order("updated_at DESC, created_at DESC").
		Find(&conversations).Error
	if err != nil {
		log.Printf("[ConversationRepository] Database error listing conversations: %v", err)
		return nil, fmt.Errorf("database error fetching conversations: %w", err)
	}
	return conversations, nil
}

// FindAllWithPagination returns one page in FindAll order plus the total count.
func (r *gormConversationRepository) FindAllWithPagination(ctx context.Context, limit, offset int) ([]domain.Conversation, int64, error) {
	if limit <= 0 || limit > 1000 {
		return nil, 0, errors.New("invalid limit: must be between 1 and 1000")
	}
	if offset < 0 {
		return nil, 0, errors.New("invalid offset: must be >= 0")
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.Conversation{}).Count(&total).Error; err != nil {
		log.Printf("[ConversationRepository] Database error counting conversations: %v", err)
		return nil, 0, fmt.Errorf("database error counting conversations: %w", err)
	}

	var conversations []domain.Conversation
	err := r.db.WithContext(ctx).
		Order("updated_at DESC, created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&conversations).Error
	if err != nil {
		log.Printf("[ConversationRepository] Database error in paginated query: %v", err)
		return nil, 0, fmt.Errorf("database error retrieving paginated conversations: %w", err)
	}

	return conversations, total, nil
}

// Delete removes messages and the conversation in one transaction, so the
// cascade holds even on SQLite connections without foreign key enforcement.
func (r *gormConversationRepository) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrConversationNotFound
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", id).Delete(&domain.Message{}).Error; err != nil {
			return fmt.Errorf("database error deleting messages: %w", err)
		}
		result := tx.Where("id = ?", id).Delete(&domain.Conversation{})
		if result.Error != nil {
			return fmt.Errorf("database error deleting conversation: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrConversationNotFound
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrConversationNotFound) {
			log.Printf("[ConversationRepository] Delete failed for ID %s: %v", id, err)
		}
		return err
	}

	log.Printf("[ConversationRepository] Conversation deleted successfully: ID %s", id)
	return nil
}

// TouchUpdatedAt bumps updated_at to now.
func (r *gormConversationRepository) TouchUpdatedAt(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", id).
		Update("updated_at", time.Now())

	if result.Error != nil {
		log.Printf("[ConversationRepository] Database error updating timestamp for ID %s: %v", id, result.Error)
		return fmt.Errorf("database error updating conversation timestamp: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrConversationNotFound
	}
	return nil
}

// ===== VALIDATION HELPERS =====

func (r *gormConversationRepository) validateConversationInput(conversation *domain.Conversation) error {
	if conversation == nil {
		return errors.New("conversation cannot be nil")
	}
	if strings.TrimSpace(conversation.ID) == "" {
		return errors.New("conversation ID is required")
	}
	if utf8.RuneCountInString(conversation.Title) > maxTitleRunes {
		return fmt.Errorf("title must be %d characters or less", maxTitleRunes)
	}
	return nil
}

func (r *gormConversationRepository) handleFindError(err error, conversation *domain.Conversation, operation string) (*domain.Conversation, error) {
	if err == nil {
		return conversation, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConversationNotFound
	}
	log.Printf("[ConversationRepository] %s database error: %v", operation, err)
	return nil, fmt.Errorf("database query failed: %w", err)
}
