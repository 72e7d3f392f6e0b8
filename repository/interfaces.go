// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/storepulse/storepulse/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// ShopRepository defines operations for installed shops
type ShopRepository interface {
	Repository[models.Shop, models.ShopFilter]
	ByDomain(ctx context.Context, domain string) (*models.Shop, error)
	ByUUID(ctx context.Context, uuid string) (*models.Shop, error)
	TouchLastSeen(ctx context.Context, shopID uint) error
}

// SavedListRepository defines operations for saved customer lists
type SavedListRepository interface {
	Repository[models.SavedList, models.SavedListFilter]
	ByUUID(ctx context.Context, shopID uint, uuid string) (*models.SavedList, error)
	ListByShop(ctx context.Context, shopID uint, status, source *string, limit, offset int) ([]*models.SavedList, error)
	Update(ctx context.Context, list *models.SavedList) error
	UpdateStatus(ctx context.Context, listID uint, status string) error
	UpdateCustomerCount(ctx context.Context, listID uint, count int) error
	Delete(ctx context.Context, listID uint) error
}

// ChatSessionRepository defines operations for chat sessions
type ChatSessionRepository interface {
	Repository[models.ChatSession, models.ChatSessionFilter]
	ByUUID(ctx context.Context, shopID uint, uuid string) (*models.ChatSession, error)
	ListByShop(ctx context.Context, shopID uint, limit, offset int) ([]*models.ChatSession, error)
	TouchLastMessage(ctx context.Context, sessionID uint) error
}

// ChatMessageRepository defines operations for chat messages
type ChatMessageRepository interface {
	Repository[models.ChatMessage, models.ChatMessageFilter]
	ListBySession(ctx context.Context, sessionID uint, limit, offset int) ([]*models.ChatMessage, error)
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByShop(ctx context.Context, shopID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
	ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}
