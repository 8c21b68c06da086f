// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/amirphl/inventory-asn/models"
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

// TxManager runs a unit of work atomically; repositories called with the ctx handed to fn
// take part in the same transaction
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(context.Context) error) error
}

// ASNCursorRepository defines operations for the numbering cursor rows
type ASNCursorRepository interface {
	// ByType reads the cursor without locking it
	ByType(ctx context.Context, cursorType string) (*models.ASNCursor, error)
	// ByTypeForUpdate reads the cursor and holds a row lock until the transaction ends
	ByTypeForUpdate(ctx context.Context, cursorType string) (*models.ASNCursor, error)
	// CreateIfAbsent inserts the cursor unless a row of the same type already exists
	CreateIfAbsent(ctx context.Context, cursor *models.ASNCursor) error
	Update(ctx context.Context, cursor *models.ASNCursor) error
}

// DownloadInventoryRepository defines operations for placed records
type DownloadInventoryRepository interface {
	Repository[models.DownloadInventory, models.DownloadInventoryFilter]
	// LastLineInBucket returns the record with the highest line number of a bucket, or nil
	LastLineInBucket(ctx context.Context, asnNumber string) (*models.DownloadInventory, error)
	ListByASN(ctx context.Context, asnNumber string) ([]*models.DownloadInventory, error)
	// ListNotDownloadedForUpdate locks every record not yet exported
	ListNotDownloadedForUpdate(ctx context.Context) ([]*models.DownloadInventory, error)
	MarkDownloaded(ctx context.Context, ids []uint, username string) error
}

// InventoryCaptureRepository defines operations for captured source records
type InventoryCaptureRepository interface {
	Repository[models.InventoryCapture, models.InventoryCaptureFilter]
	// ListByStatusForUpdate locks the records of a status in capture order
	ListByStatusForUpdate(ctx context.Context, status int) ([]*models.InventoryCapture, error)
	UpdateStatus(ctx context.Context, ids []uint, status int) error
}
