package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Saved list source constants
const (
	SavedListSourceAISearch       = "ai-search"
	SavedListSourceFilterAudience = "filter-audience"
	SavedListSourceManual         = "manual"
)

// Saved list status constants
const (
	SavedListStatusActive   = "active"
	SavedListStatusArchived = "archived"
)

// SavedList is a named customer segment a merchant chose to keep. Membership
// is re-derived from the store at view time; only the defining criteria and
// the match count observed at save time are persisted.
type SavedList struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UUID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_saved_lists_uuid" json:"uuid"`
	ShopID        uint      `gorm:"not null;index:idx_saved_lists_shop_id" json:"shop_id"`
	Shop          Shop      `gorm:"foreignKey:ShopID;references:ID" json:"shop,omitempty"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	Description   *string   `gorm:"type:text" json:"description,omitempty"`
	CustomerCount int       `gorm:"not null;default:0" json:"customer_count"`

	// Source is one of the SavedListSource constants. "manual" exists in the
	// model but currently has no creation path.
	Source string `gorm:"size:30;not null;index:idx_saved_lists_source" json:"source"`

	// Criteria is the serialized filter selection (filter-audience) or the
	// structured query extracted by the AI search (ai-search).
	Criteria     json.RawMessage `gorm:"type:jsonb" json:"criteria,omitempty"`
	CriteriaText *string         `gorm:"type:text" json:"criteria_text,omitempty"`

	Tags   pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"tags"`
	Status string         `gorm:"size:20;not null;default:'active';index:idx_saved_lists_status" json:"status"`

	CreatedAt   time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_saved_lists_created_at" json:"created_at"`
	LastUpdated time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"last_updated"`
}

func (SavedList) TableName() string {
	return "saved_lists"
}

// SavedListFilter represents filter criteria for saved list queries
type SavedListFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	ShopID        *uint
	Name          *string
	Source        *string
	Status        *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (l *SavedList) IsActive() bool {
	return l.Status == SavedListStatusActive
}

func (l *SavedList) IsArchived() bool {
	return l.Status == SavedListStatusArchived
}
