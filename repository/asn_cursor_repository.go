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

// ASNCursorRepositoryImpl implements ASNCursorRepository interface
type ASNCursorRepositoryImpl struct {
	*BaseRepository[models.ASNCursor, struct{}]
}

// NewASNCursorRepository creates a new cursor repository
func NewASNCursorRepository(db *gorm.DB) ASNCursorRepository {
	return &ASNCursorRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ASNCursor, struct{}](db),
	}
}

// ByType retrieves the cursor of a type without locking
func (r *ASNCursorRepositoryImpl) ByType(ctx context.Context, cursorType string) (*models.ASNCursor, error) {
	return r.byType(r.getDB(ctx), cursorType)
}

// ByTypeForUpdate retrieves the cursor of a type under SELECT ... FOR UPDATE.
// Outside of a transaction the lock is released immediately, so callers must pass a
// transactional context.
func (r *ASNCursorRepositoryImpl) ByTypeForUpdate(ctx context.Context, cursorType string) (*models.ASNCursor, error) {
	db := r.getDB(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
	return r.byType(db, cursorType)
}

func (r *ASNCursorRepositoryImpl) byType(db *gorm.DB, cursorType string) (*models.ASNCursor, error) {
	var cursor models.ASNCursor
	err := db.Where("type = ?", cursorType).Order("id ASC").Take(&cursor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find %s cursor: %w", cursorType, err)
	}
	return &cursor, nil
}

// CreateIfAbsent inserts the cursor; a concurrent creator winning the race is not an error
func (r *ASNCursorRepositoryImpl) CreateIfAbsent(ctx context.Context, cursor *models.ASNCursor) (err error) {
	if cursor == nil {
		return errors.New("cursor payload is nil")
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

	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "type"}},
		DoNothing: true,
	}).Create(cursor).Error
	if err != nil {
		return fmt.Errorf("failed to create %s cursor: %w", cursor.Type, err)
	}
	return nil
}

// Update persists the numbering state and audit fields of a cursor by ID
func (r *ASNCursorRepositoryImpl) Update(ctx context.Context, cursor *models.ASNCursor) (err error) {
	if cursor == nil {
		return errors.New("cursor payload is nil")
	}
	if cursor.ID == 0 {
		return errors.New("cursor ID is required for update")
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

	if cursor.UpdatedAt.IsZero() {
		cursor.UpdatedAt = utils.UTCNow()
	}
	updates := map[string]any{
		"prefix":           cursor.Prefix,
		"current_number":   cursor.CurrentNumber,
		"next_number":      cursor.NextNumber,
		"updated_username": cursor.UpdatedUsername,
		"updated_at":       cursor.UpdatedAt,
	}

	result := db.Model(&models.ASNCursor{}).
		Where("id = ?", cursor.ID).
		Updates(updates)
	if result.Error != nil {
		err = fmt.Errorf("failed to update cursor %d: %w", cursor.ID, result.Error)
		return err
	}
	if result.RowsAffected == 0 {
		err = fmt.Errorf("cursor not found with ID: %d", cursor.ID)
		return err
	}
	return nil
}
