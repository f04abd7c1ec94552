// File: internal/domain/message.go
package domain

import "time"

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleError marks a stored record of provider failures. It is never sent to a provider.
	RoleError Role = "error"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleError:
		return true
	}
	return false
}

// Message represents a single message within a conversation.
type Message struct {
	ID             uint      `json:"id" gorm:"primarykey"`
	ConversationID string    `json:"conversation_id" gorm:"size:36;not null;index"`
	Role           Role      `json:"role" gorm:"size:20;not null"`
	Content        string    `json:"content" gorm:"type:text;not null"`
	CreatedAt      time.Time `json:"created_at" gorm:"index"`
}
