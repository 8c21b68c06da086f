package businessflow

import (
	"context"
	"log"

	"github.com/amirphl/inventory-asn/repository"
	"github.com/amirphl/inventory-asn/utils"
)

// ASNExportFlow materializes placed records into a receipt workbook
type ASNExportFlow interface {
	// Export returns the workbook of every record not yet downloaded, marks them downloaded and
	// moves the cursor past the current bucket, all in one transaction
	Export(ctx context.Context, metadata *ClientMetadata) (string, []byte, error)
}

// ASNExportFlowImpl implements ASNExportFlow
type ASNExportFlowImpl struct {
	cursors    *SequenceCursorManager
	recordRepo repository.DownloadInventoryRepository
	txManager  repository.TxManager
	cursorType string
	timeZone   string
}

// NewASNExportFlow creates a new export flow instance
func NewASNExportFlow(
	cursors *SequenceCursorManager,
	recordRepo repository.DownloadInventoryRepository,
	txManager repository.TxManager,
	cursorType string,
	timeZone string,
) ASNExportFlow {
	return &ASNExportFlowImpl{
		cursors:    cursors,
		recordRepo: recordRepo,
		txManager:  txManager,
		cursorType: cursorType,
		timeZone:   timeZone,
	}
}

// Export implements ASNExportFlow
func (f *ASNExportFlowImpl) Export(ctx context.Context, metadata *ClientMetadata) (filename string, content []byte, err error) {
	defer func() {
		asnExportsTotal.WithLabelValues(outcome(err)).Inc()
	}()

	username := metadata.actor()
	var exported int

	err = f.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		// Cursor first, then records: the same lock order as allocation
		cursor, err := f.cursors.LoadOrInit(txCtx, f.cursorType, username)
		if err != nil {
			return err
		}

		records, err := f.recordRepo.ListNotDownloadedForUpdate(txCtx)
		if err != nil {
			return newPersistenceError("ASN_EXPORT_LOAD_FAILED", "Failed to load records pending download", err)
		}
		if len(records) == 0 {
			return NewBusinessError("ASN_NOTHING_TO_EXPORT", "Sorry, no data found to export", ErrNothingToExport)
		}

		content, err = buildASNWorkbook(records, f.timeZone)
		if err != nil {
			return err
		}

		ids := make([]uint, 0, len(records))
		for _, r := range records {
			ids = append(ids, r.ID)
		}
		if err := f.recordRepo.MarkDownloaded(txCtx, ids, username); err != nil {
			return newPersistenceError("ASN_EXPORT_MARK_FAILED", "Failed to mark records downloaded", err)
		}

		// The exported bucket is never reopened; a stale cursor is already moved past it
		bucket, stale, err := f.cursors.Resolve(cursor)
		if err != nil {
			return err
		}
		next := bucket.Number + 1
		if stale {
			cursor.Prefix = bucket.Prefix
			next = bucket.Number
		}
		if err := f.cursors.Advance(txCtx, cursor, next, username); err != nil {
			return err
		}

		exported = len(records)
		return nil
	})
	if err != nil {
		return "", nil, err
	}

	filename = exportFilename(utils.UTCNow())
	log.Printf("asn export: records=%d file=%s user=%s", exported, filename, username)

	return filename, content, nil
}
