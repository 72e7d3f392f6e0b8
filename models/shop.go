// Package models contains domain entities and business models for the merchant insights system
package models

import (
	"time"

	"github.com/google/uuid"
)

type Shop struct {
	ID     uint      `gorm:"primaryKey" json:"id"`
	UUID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_shops_uuid" json:"uuid"`
	Domain string    `gorm:"size:255;not null;uniqueIndex:uk_shops_domain" json:"domain"`
	Name   string    `gorm:"size:255;not null" json:"name"`

	// Admin API credentials granted during install
	AccessToken string `gorm:"size:255;not null" json:"-"` // Never serialize access token
	Scopes      string `gorm:"type:text" json:"scopes"`

	// Plan and locale metadata reported by the platform
	PlanName string  `gorm:"size:60" json:"plan_name,omitempty"`
	Timezone *string `gorm:"size:60" json:"timezone,omitempty"`
	Currency *string `gorm:"size:10" json:"currency,omitempty"`

	IsActive *bool `gorm:"default:true;index:idx_shops_is_active" json:"is_active"`

	CreatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_shops_created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
	LastSeenAt  *time.Time `json:"last_seen_at,omitempty"`
	Uninstalled *time.Time `json:"uninstalled_at,omitempty"`

	// Relations
	SavedLists   []SavedList   `gorm:"foreignKey:ShopID" json:"-"`
	ChatSessions []ChatSession `gorm:"foreignKey:ShopID" json:"-"`
	AuditLogs    []AuditLog    `gorm:"foreignKey:ShopID" json:"-"`
}

func (Shop) TableName() string {
	return "shops"
}

// ShopFilter represents filter criteria for shop queries
type ShopFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	Domain        *string
	IsActive      *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
