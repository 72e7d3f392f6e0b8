package models

import (
	"encoding/json"
	"time"
)

type AuditLog struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	ShopID       *uint           `gorm:"index:idx_audit_shop_id" json:"shop_id,omitempty"`
	Shop         *Shop           `gorm:"foreignKey:ShopID;references:ID" json:"shop,omitempty"`
	Action       string          `gorm:"size:60;not null;index:idx_audit_action" json:"action"`
	Description  *string         `gorm:"type:text" json:"description,omitempty"`
	IPAddress    *string         `gorm:"type:inet;index:idx_audit_ip_address" json:"ip_address,omitempty"`
	UserAgent    *string         `gorm:"type:text" json:"user_agent,omitempty"`
	RequestID    *string         `gorm:"size:255;index:idx_audit_request_id" json:"request_id,omitempty"`
	Metadata     json.RawMessage `gorm:"type:jsonb" json:"metadata,omitempty"`
	Success      *bool           `gorm:"default:true;index:idx_audit_success" json:"success"`
	ErrorMessage *string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time       `gorm:"default:CURRENT_TIMESTAMP;index:idx_audit_created_at" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}

// Audit action constants
const (
	AuditActionSavedListCreated    = "saved_list_created"
	AuditActionSavedListUpdated    = "saved_list_updated"
	AuditActionSavedListArchived   = "saved_list_archived"
	AuditActionSavedListUnarchived = "saved_list_unarchived"
	AuditActionSavedListDeleted    = "saved_list_deleted"
	AuditActionSegmentPreviewed    = "segment_previewed"
	AuditActionChatMessageSent     = "chat_message_sent"
	AuditActionChatQueryExecuted   = "chat_query_executed"
	AuditActionListExported        = "list_exported"
	AuditActionProtectedDataDenied = "protected_data_denied"
)

// AuditLogFilter represents filter criteria for audit log queries
type AuditLogFilter struct {
	ID            *uint
	ShopID        *uint
	Action        *string
	Success       *bool
	IPAddress     *string
	RequestID     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (a *AuditLog) IsFailed() bool {
	return a.Success != nil && !*a.Success
}
