package models

import (
	"time"
)

// Chat message role constants
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

type ChatMessage struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	SessionID uint        `gorm:"not null;index:idx_chat_messages_session_id" json:"session_id"`
	Session   ChatSession `gorm:"foreignKey:SessionID;references:ID" json:"session,omitempty"`
	Role      string      `gorm:"size:20;not null" json:"role"`
	Content   string      `gorm:"type:text;not null" json:"content"`

	// Query holds the structured filter/GraphQL string the assistant derived
	// from the user's message, when one was returned.
	Query *string `gorm:"type:text" json:"query,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_chat_messages_created_at" json:"created_at"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

// ChatMessageFilter represents filter criteria for chat message queries
type ChatMessageFilter struct {
	ID            *uint
	SessionID     *uint
	Role          *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (m *ChatMessage) IsUser() bool {
	return m.Role == ChatRoleUser
}

func (m *ChatMessage) IsAssistant() bool {
	return m.Role == ChatRoleAssistant
}
