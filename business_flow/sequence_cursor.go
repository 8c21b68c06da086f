package businessflow

import (
	"context"
	"fmt"

	"github.com/amirphl/inventory-asn/app/dto"
	"github.com/amirphl/inventory-asn/config"
	"github.com/amirphl/inventory-asn/models"
	"github.com/amirphl/inventory-asn/repository"
	"github.com/amirphl/inventory-asn/utils"
)

// SequenceCursorManager owns the numbering cursor of one identifier type.
// Every method that mutates expects ctx to carry the caller's transaction; the row lock taken
// by LoadOrInit is what serializes concurrent allocations.
type SequenceCursorManager struct {
	cursorRepo repository.ASNCursorRepository
	cfg        config.ASNConfig
}

// NewSequenceCursorManager creates a cursor manager for the configured identifier type
func NewSequenceCursorManager(cursorRepo repository.ASNCursorRepository, cfg config.ASNConfig) *SequenceCursorManager {
	return &SequenceCursorManager{
		cursorRepo: cursorRepo,
		cfg:        cfg,
	}
}

// LoadOrInit returns the locked cursor of cursorType, creating it first when absent
func (m *SequenceCursorManager) LoadOrInit(ctx context.Context, cursorType, username string) (*models.ASNCursor, error) {
	cursor, err := m.cursorRepo.ByTypeForUpdate(ctx, cursorType)
	if err != nil {
		return nil, newPersistenceError("ASN_CURSOR_LOAD_FAILED", "Failed to load ASN cursor", err)
	}
	if cursor != nil {
		return cursor, nil
	}

	if err := m.cursorRepo.CreateIfAbsent(ctx, m.seed(cursorType, username)); err != nil {
		return nil, NewBusinessError("ASN_CURSOR_INIT_FAILED", "Failed to create ASN cursor", fmt.Errorf("%w: %w", ErrCursorInitialization, err))
	}

	// Re-read under lock: a concurrent creator may have inserted the row first
	cursor, err = m.cursorRepo.ByTypeForUpdate(ctx, cursorType)
	if err != nil {
		return nil, newPersistenceError("ASN_CURSOR_LOAD_FAILED", "Failed to load ASN cursor", err)
	}
	if cursor == nil {
		return nil, NewBusinessError("ASN_CURSOR_INIT_FAILED", "ASN cursor missing after creation", ErrCursorInitialization)
	}

	return cursor, nil
}

func (m *SequenceCursorManager) seed(cursorType, username string) *models.ASNCursor {
	now := utils.UTCNow()
	first := models.NewASNNumber(m.cfg.Prefix, 1)
	return &models.ASNCursor{
		Type:            cursorType,
		Prefix:          m.cfg.Prefix,
		StartingNumber:  first.String(),
		EndingNumber:    models.NewASNNumber(m.cfg.Prefix, m.cfg.EndingNumber).String(),
		CurrentNumber:   first.String(),
		NextNumber:      first.Next().String(),
		NumberOfLines:   m.cfg.NumberOfLines,
		CreatedAt:       now,
		UpdatedAt:       now,
		CreatedUsername: utils.ToPtr(username),
		UpdatedUsername: utils.ToPtr(username),
	}
}

// Resolve parses the bucket the cursor points at.
// A cursor whose prefix no longer matches the configured one is stale: the returned number is
// bumped by one and carries the configured prefix, and the caller must persist it.
func (m *SequenceCursorManager) Resolve(cursor *models.ASNCursor) (models.ASNNumber, bool, error) {
	current, err := models.ParseASNNumber(cursor.CurrentNumber)
	if err != nil {
		return models.ASNNumber{}, false, NewBusinessError("ASN_CURSOR_CORRUPTED", "ASN cursor current number is invalid", fmt.Errorf("%w: %w", ErrCursorCorrupted, err))
	}

	if cursor.Prefix != m.cfg.Prefix || current.Prefix != cursor.Prefix {
		return models.NewASNNumber(m.cfg.Prefix, current.Number+1), true, nil
	}

	return current, false, nil
}

// Advance moves the cursor to toBucket under the cursor's prefix and persists it
func (m *SequenceCursorManager) Advance(ctx context.Context, cursor *models.ASNCursor, toBucket int64, username string) error {
	if toBucket > models.MaxASNNumber {
		return NewBusinessErrorf("ASN_CURSOR_RANGE_EXHAUSTED", "Bucket %d exceeds the 7-digit range", ErrCursorRangeExhausted, toBucket)
	}
	// An unparsable ending bound leaves the range open
	if ending, err := models.ParseASNNumber(cursor.EndingNumber); err == nil && toBucket > ending.Number {
		return NewBusinessErrorf("ASN_CURSOR_RANGE_EXHAUSTED", "Bucket %d exceeds ending number %s", ErrCursorRangeExhausted, toBucket, cursor.EndingNumber)
	}

	current := models.NewASNNumber(cursor.Prefix, toBucket)
	cursor.CurrentNumber = current.String()
	cursor.NextNumber = current.Next().String()
	cursor.UpdatedUsername = utils.ToPtr(username)
	cursor.UpdatedAt = utils.UTCNow()

	if err := m.cursorRepo.Update(ctx, cursor); err != nil {
		return newPersistenceError("ASN_CURSOR_UPDATE_FAILED", "Failed to advance ASN cursor", err)
	}

	return nil
}

// Status reads the cursor without locking or mutating it
func (m *SequenceCursorManager) Status(ctx context.Context, cursorType string) (*dto.ASNCursorStatusDTO, error) {
	cursor, err := m.cursorRepo.ByType(ctx, cursorType)
	if err != nil {
		return nil, newPersistenceError("ASN_CURSOR_LOAD_FAILED", "Failed to load ASN cursor", err)
	}
	if cursor == nil {
		return nil, NewBusinessErrorf("ASN_CURSOR_NOT_FOUND", "No %s cursor has been created yet", ErrCursorNotFound, cursorType)
	}

	status := ToASNCursorStatusDTO(*cursor)
	return &status, nil
}
