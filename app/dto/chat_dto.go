package dto

import "encoding/json"

// SendChatMessageRequest represents an incoming chat message from the merchant
type SendChatMessageRequest struct {
	ShopID      uint    `json:"-"`
	SessionUUID *string `json:"session_uuid,omitempty" validate:"omitempty,uuid4"`
	Message     string  `json:"message" validate:"required,min=1,max=2000"`
}

// SendChatMessageResponse represents the assistant reply
type SendChatMessageResponse struct {
	SessionUUID        string          `json:"session_uuid"`
	Reply              string          `json:"reply"`
	Query              json.RawMessage `json:"query,omitempty"`
	NeedsClarification bool            `json:"needs_clarification"`
}

// ChatSessionDTO represents a chat session in listings
type ChatSessionDTO struct {
	UUID          string `json:"uuid"`
	Title         string `json:"title"`
	CreatedAt     string `json:"created_at"`
	LastMessageAt string `json:"last_message_at"`
}

// ListChatSessionsResponse represents a shop's chat session history
type ListChatSessionsResponse struct {
	Sessions []ChatSessionDTO `json:"sessions"`
}

// ChatMessageDTO represents a single message within a session
type ChatMessageDTO struct {
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	Query     json.RawMessage `json:"query,omitempty"`
	CreatedAt string          `json:"created_at"`
}

// ListChatMessagesResponse represents the messages of a session oldest-first
type ListChatMessagesResponse struct {
	SessionUUID string           `json:"session_uuid"`
	Messages    []ChatMessageDTO `json:"messages"`
}

// RunChatQueryRequest represents the request to execute an AI-extracted structured query
type RunChatQueryRequest struct {
	ShopID uint            `json:"-"`
	Query  json.RawMessage `json:"query" validate:"required"`
}

// RunChatQueryResponse represents the realized segment for an extracted query
type RunChatQueryResponse struct {
	MatchCount  int                  `json:"match_count"`
	Customers   []SegmentCustomerDTO `json:"customers,omitempty"`
	Description string               `json:"description"`
}
