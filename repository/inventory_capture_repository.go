// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/inventory-asn/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InventoryCaptureRepositoryImpl implements InventoryCaptureRepository interface
type InventoryCaptureRepositoryImpl struct {
	*BaseRepository[models.InventoryCapture, models.InventoryCaptureFilter]
}

// NewInventoryCaptureRepository creates a new source record repository
func NewInventoryCaptureRepository(db *gorm.DB) InventoryCaptureRepository {
	return &InventoryCaptureRepositoryImpl{
		BaseRepository: NewBaseRepository[models.InventoryCapture, models.InventoryCaptureFilter](db),
	}
}

// ListByStatusForUpdate locks the records of a status in capture order
func (r *InventoryCaptureRepositoryImpl) ListByStatusForUpdate(ctx context.Context, status int) ([]*models.InventoryCapture, error) {
	db := r.getDB(ctx)

	var records []*models.InventoryCapture
	err := db.Model(&models.InventoryCapture{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("status = ?", status).
		Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list captures with status %d: %w", status, err)
	}
	return records, nil
}

// UpdateStatus sets the processing status of the given records
func (r *InventoryCaptureRepositoryImpl) UpdateStatus(ctx context.Context, ids []uint, status int) (err error) {
	if len(ids) == 0 {
		return nil
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
				err = db.Commit().Error
			}
		}()
	}

	if err = db.Model(&models.InventoryCapture{}).
		Where("id IN ?", ids).
		Update("status", status).Error; err != nil {
		return fmt.Errorf("failed to update capture status: %w", err)
	}
	return nil
}

// applyFilter applies filter criteria to a GORM query
func (r *InventoryCaptureRepositoryImpl) applyFilter(query *gorm.DB, filter models.InventoryCaptureFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.Owner != nil {
		query = query.Where("owner = ?", *filter.Owner)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Username != nil {
		query = query.Where("username = ?", *filter.Username)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves source records based on filter criteria
func (r *InventoryCaptureRepositoryImpl) ByFilter(ctx context.Context, filter models.InventoryCaptureFilter, orderBy string, limit, offset int) ([]*models.InventoryCapture, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.InventoryCapture{})

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

	var records []*models.InventoryCapture
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Count returns the number of source records matching the filter
func (r *InventoryCaptureRepositoryImpl) Count(ctx context.Context, filter models.InventoryCaptureFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.InventoryCapture{})
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any source record matching the filter exists
func (r *InventoryCaptureRepositoryImpl) Exists(ctx context.Context, filter models.InventoryCaptureFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
