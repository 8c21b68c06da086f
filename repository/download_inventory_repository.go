// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/inventory-asn/models"
	"github.com/amirphl/inventory-asn/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DownloadInventoryRepositoryImpl implements DownloadInventoryRepository interface
type DownloadInventoryRepositoryImpl struct {
	*BaseRepository[models.DownloadInventory, models.DownloadInventoryFilter]
}

// NewDownloadInventoryRepository creates a new placed record repository
func NewDownloadInventoryRepository(db *gorm.DB) DownloadInventoryRepository {
	return &DownloadInventoryRepositoryImpl{
		BaseRepository: NewBaseRepository[models.DownloadInventory, models.DownloadInventoryFilter](db),
	}
}

// LastLineInBucket returns the highest-line record of a bucket.
// Line numbers share one padded width, so ordering by the stored string is numeric.
func (r *DownloadInventoryRepositoryImpl) LastLineInBucket(ctx context.Context, asnNumber string) (*models.DownloadInventory, error) {
	db := r.getDB(ctx)

	var records []*models.DownloadInventory
	err := db.Model(&models.DownloadInventory{}).
		Where("asn_number = ?", asnNumber).
		Order("line_number DESC").
		Limit(1).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find last line of bucket %s: %w", asnNumber, err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// ListByASN returns all lines of a bucket in line order
func (r *DownloadInventoryRepositoryImpl) ListByASN(ctx context.Context, asnNumber string) ([]*models.DownloadInventory, error) {
	filter := models.DownloadInventoryFilter{ASNNumber: &asnNumber}
	return r.ByFilter(ctx, filter, "line_number ASC", 0, 0)
}

// ListNotDownloadedForUpdate locks every record still waiting for export
func (r *DownloadInventoryRepositoryImpl) ListNotDownloadedForUpdate(ctx context.Context) ([]*models.DownloadInventory, error) {
	db := r.getDB(ctx)

	var records []*models.DownloadInventory
	err := db.Model(&models.DownloadInventory{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("download_status = ?", models.DownloadStatusNo).
		Order("asn_number ASC, line_number ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list records pending download: %w", err)
	}
	return records, nil
}

// MarkDownloaded flips the download status of the given records to yes
func (r *DownloadInventoryRepositoryImpl) MarkDownloaded(ctx context.Context, ids []uint, username string) (err error) {
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

	result := db.Model(&models.DownloadInventory{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"download_status":  models.DownloadStatusYes,
			"updated_username": username,
			"updated_at":       utils.UTCNow(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark records downloaded: %w", result.Error)
	}
	if result.RowsAffected != int64(len(ids)) {
		return errors.New("some records to mark downloaded were not found")
	}
	return nil
}

// applyFilter applies filter criteria to a GORM query
func (r *DownloadInventoryRepositoryImpl) applyFilter(query *gorm.DB, filter models.DownloadInventoryFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.Owner != nil {
		query = query.Where("owner = ?", *filter.Owner)
	}
	if filter.ASNNumber != nil {
		query = query.Where("asn_number = ?", *filter.ASNNumber)
	}
	if filter.DownloadStatus != nil {
		query = query.Where("download_status = ?", *filter.DownloadStatus)
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

// ByFilter retrieves placed records based on filter criteria
func (r *DownloadInventoryRepositoryImpl) ByFilter(ctx context.Context, filter models.DownloadInventoryFilter, orderBy string, limit, offset int) ([]*models.DownloadInventory, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.DownloadInventory{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "asn_number ASC, line_number ASC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var records []*models.DownloadInventory
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Count returns the number of placed records matching the filter
func (r *DownloadInventoryRepositoryImpl) Count(ctx context.Context, filter models.DownloadInventoryFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.DownloadInventory{})
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any placed record matching the filter exists
func (r *DownloadInventoryRepositoryImpl) Exists(ctx context.Context, filter models.DownloadInventoryFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
