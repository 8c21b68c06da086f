package businessflow

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/amirphl/inventory-asn/app/dto"
	"github.com/amirphl/inventory-asn/models"
	"github.com/amirphl/inventory-asn/repository"
)

// ASNGenerationFlow allocates a line for every newly captured record
type ASNGenerationFlow interface {
	Generate(ctx context.Context, req *dto.GenerateASNRequest, metadata *ClientMetadata) (*dto.GenerateASNResponse, error)
}

// ASNGenerationFlowImpl implements ASNGenerationFlow
type ASNGenerationFlowImpl struct {
	allocator   *BucketAllocator
	captureRepo repository.InventoryCaptureRepository
	txManager   repository.TxManager
	guard       BatchGuard
}

// NewASNGenerationFlow creates a new generation flow instance; guard may be nil
func NewASNGenerationFlow(
	allocator *BucketAllocator,
	captureRepo repository.InventoryCaptureRepository,
	txManager repository.TxManager,
	guard BatchGuard,
) ASNGenerationFlow {
	return &ASNGenerationFlowImpl{
		allocator:   allocator,
		captureRepo: captureRepo,
		txManager:   txManager,
		guard:       guard,
	}
}

// Generate places every NEW source record with one line each and flips them to PROCESSED.
// Allocation and the status flip share one transaction, so a failure leaves every record NEW.
func (f *ASNGenerationFlowImpl) Generate(ctx context.Context, req *dto.GenerateASNRequest, metadata *ClientMetadata) (resp *dto.GenerateASNResponse, err error) {
	defer func() {
		asnGenerationsTotal.WithLabelValues(outcome(err)).Inc()
	}()

	username := metadata.actor()

	batchKey := strings.TrimSpace(req.IdempotencyKey)
	if batchKey != "" && f.guard != nil {
		reserved, gerr := f.guard.Reserve(ctx, batchKey)
		switch {
		case gerr != nil:
			// The row locks still serialize generation; only replay detection is lost
			log.Printf("asn generation: batch guard unavailable key=%s error=%v", batchKey, gerr)
			batchKey = ""
		case !reserved:
			return nil, NewBusinessErrorf("ASN_DUPLICATE_BATCH", "Batch %s was already submitted", ErrDuplicateBatch, batchKey)
		}
	}
	if batchKey != "" && f.guard != nil {
		defer func() {
			if err == nil {
				return
			}
			if rerr := f.guard.Release(context.WithoutCancel(ctx), batchKey); rerr != nil {
				log.Printf("asn generation: failed to release batch key=%s error=%v", batchKey, rerr)
			}
		}()
	}

	resp = &dto.GenerateASNResponse{
		Records: []dto.PlacedRecordDTO{},
		Buckets: []string{},
	}
	seenBuckets := make(map[string]bool)

	err = f.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		captures, err := f.captureRepo.ListByStatusForUpdate(txCtx, models.InventoryStatusNew)
		if err != nil {
			return newPersistenceError("ASN_CAPTURES_LOAD_FAILED", "Failed to load new records", err)
		}
		if len(captures) == 0 {
			return NewBusinessError("ASN_NO_NEW_RECORDS", "No new records to generate ASN", ErrNoNewRecords)
		}

		ids := make([]uint, 0, len(captures))
		for _, c := range captures {
			result, err := f.allocator.Allocate(txCtx, &AllocationRequest{
				Owner:       c.Owner,
				Location:    c.Location,
				Case:        c.CaseNumber,
				SKU:         c.SKU,
				UOM:         c.UOM,
				Quantity:    c.Quantity,
				RecordCount: 1,
				Status:      models.InventoryStatusPending,
				Username:    username,
			})
			if err != nil {
				return NewBusinessErrorf("ASN_GENERATION_FAILED", "Error generating ASN for record %d", err, c.ID)
			}

			resp.Records = append(resp.Records, toPlacedRecordDTOs(result.Records)...)
			for _, b := range result.Buckets {
				if !seenBuckets[b] {
					seenBuckets[b] = true
					resp.Buckets = append(resp.Buckets, b)
				}
			}
			resp.CursorAfter = result.CursorAfter
			ids = append(ids, c.ID)
		}

		if err := f.captureRepo.UpdateStatus(txCtx, ids, models.InventoryStatusProcessed); err != nil {
			return newPersistenceError("ASN_CAPTURES_UPDATE_FAILED", "Failed to mark records processed", err)
		}

		resp.ProcessedCount = len(ids)
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp.Message = fmt.Sprintf("Generated ASN for %d records", resp.ProcessedCount)
	log.Printf("asn generation: processed=%d buckets=%v cursor=%s user=%s", resp.ProcessedCount, resp.Buckets, resp.CursorAfter, username)

	return resp, nil
}
