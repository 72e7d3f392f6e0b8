package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatSession groups the messages of one AI search conversation. Sessions are
// created lazily on the first user message that references their UUID.
type ChatSession struct {
	ID     uint      `gorm:"primaryKey" json:"id"`
	UUID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_chat_sessions_uuid" json:"uuid"`
	ShopID uint      `gorm:"not null;index:idx_chat_sessions_shop_id" json:"shop_id"`
	Shop   Shop      `gorm:"foreignKey:ShopID;references:ID" json:"shop,omitempty"`
	Title  *string   `gorm:"size:255" json:"title,omitempty"`

	CreatedAt     time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_chat_sessions_created_at" json:"created_at"`
	LastMessageAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_chat_sessions_last_message_at" json:"last_message_at"`

	Messages []ChatMessage `gorm:"foreignKey:SessionID" json:"-"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}

// ChatSessionFilter represents filter criteria for chat session queries
type ChatSessionFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	ShopID        *uint
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
