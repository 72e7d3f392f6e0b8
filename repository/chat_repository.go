// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"

	"github.com/storepulse/storepulse/models"
	"github.com/storepulse/storepulse/utils"
	"gorm.io/gorm"
)

// ChatSessionRepositoryImpl implements ChatSessionRepository interface
type ChatSessionRepositoryImpl struct {
	*BaseRepository[models.ChatSession, models.ChatSessionFilter]
}

// NewChatSessionRepository creates a new chat session repository
func NewChatSessionRepository(db *gorm.DB) ChatSessionRepository {
	return &ChatSessionRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ChatSession, models.ChatSessionFilter](db),
	}
}

// ByUUID retrieves a chat session by UUID scoped to a shop
func (r *ChatSessionRepositoryImpl) ByUUID(ctx context.Context, shopID uint, uuidStr string) (*models.ChatSession, error) {
	parsed, err := utils.ParseUUID(uuidStr)
	if err != nil {
		return nil, err
	}

	filter := models.ChatSessionFilter{ShopID: &shopID, UUID: &parsed}
	items, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// ListByShop retrieves a shop's chat sessions newest-first
func (r *ChatSessionRepositoryImpl) ListByShop(ctx context.Context, shopID uint, limit, offset int) ([]*models.ChatSession, error) {
	filter := models.ChatSessionFilter{ShopID: &shopID}
	return r.ByFilter(ctx, filter, "last_message_at DESC", limit, offset)
}

// TouchLastMessage bumps a session's last message timestamp
func (r *ChatSessionRepositoryImpl) TouchLastMessage(ctx context.Context, sessionID uint) error {
	if sessionID == 0 {
		return errors.New("session ID is required")
	}
	db := r.getDB(ctx)
	return db.Model(&models.ChatSession{}).
		Where("id = ?", sessionID).
		Update("last_message_at", utils.UTCNow()).Error
}

// applyFilter applies filter criteria to a GORM query
func (r *ChatSessionRepositoryImpl) applyFilter(query *gorm.DB, filter models.ChatSessionFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.ShopID != nil {
		query = query.Where("shop_id = ?", *filter.ShopID)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves chat sessions based on filter criteria
func (r *ChatSessionRepositoryImpl) ByFilter(ctx context.Context, filter models.ChatSessionFilter, orderBy string, limit, offset int) ([]*models.ChatSession, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.ChatSession{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var sessions []*models.ChatSession
	if err := query.Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// Count returns the number of chat sessions matching the filter
func (r *ChatSessionRepositoryImpl) Count(ctx context.Context, filter models.ChatSessionFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.ChatSession{})
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any chat session matching the filter exists
func (r *ChatSessionRepositoryImpl) Exists(ctx context.Context, filter models.ChatSessionFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ChatMessageRepositoryImpl implements ChatMessageRepository interface
type ChatMessageRepositoryImpl struct {
	*BaseRepository[models.ChatMessage, models.ChatMessageFilter]
}

// NewChatMessageRepository creates a new chat message repository
func NewChatMessageRepository(db *gorm.DB) ChatMessageRepository {
	return &ChatMessageRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ChatMessage, models.ChatMessageFilter](db),
	}
}

// ListBySession retrieves a session's messages oldest-first
func (r *ChatMessageRepositoryImpl) ListBySession(ctx context.Context, sessionID uint, limit, offset int) ([]*models.ChatMessage, error) {
	filter := models.ChatMessageFilter{SessionID: &sessionID}
	return r.ByFilter(ctx, filter, "created_at ASC", limit, offset)
}

// applyFilter applies filter criteria to a GORM query
func (r *ChatMessageRepositoryImpl) applyFilter(query *gorm.DB, filter models.ChatMessageFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.SessionID != nil {
		query = query.Where("session_id = ?", *filter.SessionID)
	}
	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves chat messages based on filter criteria
func (r *ChatMessageRepositoryImpl) ByFilter(ctx context.Context, filter models.ChatMessageFilter, orderBy string, limit, offset int) ([]*models.ChatMessage, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.ChatMessage{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "id ASC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var messages []*models.ChatMessage
	if err := query.Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

// Count returns the number of chat messages matching the filter
func (r *ChatMessageRepositoryImpl) Count(ctx context.Context, filter models.ChatMessageFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.ChatMessage{})
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any chat message matching the filter exists
func (r *ChatMessageRepositoryImpl) Exists(ctx context.Context, filter models.ChatMessageFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
