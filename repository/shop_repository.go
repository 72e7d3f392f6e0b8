// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"

	"github.com/storepulse/storepulse/models"
	"github.com/storepulse/storepulse/utils"
	"gorm.io/gorm"
)

// ShopRepositoryImpl implements ShopRepository interface
type ShopRepositoryImpl struct {
	*BaseRepository[models.Shop, models.ShopFilter]
}

// NewShopRepository creates a new shop repository
func NewShopRepository(db *gorm.DB) ShopRepository {
	return &ShopRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Shop, models.ShopFilter](db),
	}
}

// ByDomain retrieves a shop by its myshopify domain
func (r *ShopRepositoryImpl) ByDomain(ctx context.Context, domain string) (*models.Shop, error) {
	filter := models.ShopFilter{Domain: &domain}
	items, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// ByUUID retrieves a shop by UUID (string)
func (r *ShopRepositoryImpl) ByUUID(ctx context.Context, uuidStr string) (*models.Shop, error) {
	parsed, err := utils.ParseUUID(uuidStr)
	if err != nil {
		return nil, err
	}

	filter := models.ShopFilter{UUID: &parsed}
	items, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// TouchLastSeen records the latest authenticated request from a shop
func (r *ShopRepositoryImpl) TouchLastSeen(ctx context.Context, shopID uint) error {
	if shopID == 0 {
		return errors.New("shop ID is required")
	}
	db := r.getDB(ctx)
	return db.Model(&models.Shop{}).
		Where("id = ?", shopID).
		Update("last_seen_at", utils.UTCNow()).Error
}

// applyFilter applies filter criteria to a GORM query
func (r *ShopRepositoryImpl) applyFilter(query *gorm.DB, filter models.ShopFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.Domain != nil {
		query = query.Where("domain = ?", *filter.Domain)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves shops based on filter criteria
func (r *ShopRepositoryImpl) ByFilter(ctx context.Context, filter models.ShopFilter, orderBy string, limit, offset int) ([]*models.Shop, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Shop{})

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

	var shops []*models.Shop
	if err := query.Find(&shops).Error; err != nil {
		return nil, err
	}
	return shops, nil
}

// Count returns the number of shops matching the filter
func (r *ShopRepositoryImpl) Count(ctx context.Context, filter models.ShopFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Shop{})
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any shop matching the filter exists
func (r *ShopRepositoryImpl) Exists(ctx context.Context, filter models.ShopFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
