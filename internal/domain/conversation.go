// File: internal/domain/conversation.go
package domain

import "time"

// DefaultConversationTitle is used when the first message yields no usable title.
const DefaultConversationTitle = "محادثة جديدة"

// Conversation represents a single chat thread. Deleting it removes its messages.
type Conversation struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Title     string    `json:"title" gorm:"size:100;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"index"`
	Messages  []Message `json:"messages,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}
