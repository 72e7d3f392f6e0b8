// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/storepulse/storepulse/models"
	"github.com/storepulse/storepulse/utils"
	"gorm.io/gorm"
)

// SavedListRepositoryImpl implements SavedListRepository interface
type SavedListRepositoryImpl struct {
	*BaseRepository[models.SavedList, models.SavedListFilter]
}

// NewSavedListRepository creates a new saved list repository
func NewSavedListRepository(db *gorm.DB) SavedListRepository {
	return &SavedListRepositoryImpl{
		BaseRepository: NewBaseRepository[models.SavedList, models.SavedListFilter](db),
	}
}

// ByUUID retrieves a saved list by UUID scoped to a shop
func (r *SavedListRepositoryImpl) ByUUID(ctx context.Context, shopID uint, uuidStr string) (*models.SavedList, error) {
	parsed, err := utils.ParseUUID(uuidStr)
	if err != nil {
		return nil, err
	}

	filter := models.SavedListFilter{ShopID: &shopID, UUID: &parsed}
	items, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// ListByShop retrieves a shop's saved lists, optionally filtered by status and source
func (r *SavedListRepositoryImpl) ListByShop(ctx context.Context, shopID uint, status, source *string, limit, offset int) ([]*models.SavedList, error) {
	filter := models.SavedListFilter{ShopID: &shopID, Status: status, Source: source}
	return r.ByFilter(ctx, filter, "created_at DESC", limit, offset)
}

// applyFilter applies filter criteria to a GORM query
func (r *SavedListRepositoryImpl) applyFilter(query *gorm.DB, filter models.SavedListFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.ShopID != nil {
		query = query.Where("shop_id = ?", *filter.ShopID)
	}
	if filter.Name != nil {
		query = query.Where("name = ?", *filter.Name)
	}
	if filter.Source != nil {
		query = query.Where("source = ?", *filter.Source)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves saved lists based on filter criteria
func (r *SavedListRepositoryImpl) ByFilter(ctx context.Context, filter models.SavedListFilter, orderBy string, limit, offset int) ([]*models.SavedList, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.SavedList{})

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

	var lists []*models.SavedList
	if err := query.Find(&lists).Error; err != nil {
		return nil, err
	}
	return lists, nil
}

// Count returns the number of saved lists matching the filter
func (r *SavedListRepositoryImpl) Count(ctx context.Context, filter models.SavedListFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.SavedList{})
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any saved list matching the filter exists
func (r *SavedListRepositoryImpl) Exists(ctx context.Context, filter models.SavedListFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update updates mutable fields for a saved list by ID
func (r *SavedListRepositoryImpl) Update(ctx context.Context, list *models.SavedList) error {
	if list == nil {
		return errors.New("saved list payload is nil")
	}
	if list.ID == 0 {
		return errors.New("saved list ID is required for update")
	}

	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}
	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	updates := map[string]any{
		"last_updated": utils.UTCNow(),
	}
	if list.Name != "" {
		updates["name"] = list.Name
	}
	if list.Description != nil {
		updates["description"] = *list.Description
	}
	if list.CustomerCount > 0 {
		updates["customer_count"] = list.CustomerCount
	}
	if list.Tags != nil {
		updates["tags"] = list.Tags
	}
	if list.CriteriaText != nil {
		updates["criteria_text"] = *list.CriteriaText
	}

	result := db.Model(&models.SavedList{}).
		Where("id = ?", list.ID).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("saved list not found with ID: " + strconv.Itoa(int(list.ID)))
	}
	return nil
}

// UpdateStatus transitions a saved list's status
func (r *SavedListRepositoryImpl) UpdateStatus(ctx context.Context, listID uint, status string) error {
	if listID == 0 {
		return errors.New("saved list ID is required")
	}

	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}
	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	result := db.Model(&models.SavedList{}).
		Where("id = ?", listID).
		Updates(map[string]any{
			"status":       status,
			"last_updated": utils.UTCNow(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("saved list not found with ID: " + strconv.Itoa(int(listID)))
	}
	return nil
}

// UpdateCustomerCount refreshes the stored match count for a saved list
func (r *SavedListRepositoryImpl) UpdateCustomerCount(ctx context.Context, listID uint, count int) error {
	if listID == 0 {
		return errors.New("saved list ID is required")
	}

	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}
	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	result := db.Model(&models.SavedList{}).
		Where("id = ?", listID).
		Updates(map[string]any{
			"customer_count": count,
			"last_updated":   utils.UTCNow(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("saved list not found with ID: " + strconv.Itoa(int(listID)))
	}
	return nil
}

// Delete removes a saved list permanently
func (r *SavedListRepositoryImpl) Delete(ctx context.Context, listID uint) error {
	if listID == 0 {
		return errors.New("saved list ID is required")
	}

	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}
	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	result := db.Delete(&models.SavedList{}, listID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("saved list not found with ID: " + strconv.Itoa(int(listID)))
	}
	return nil
}
