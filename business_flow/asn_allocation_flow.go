package businessflow

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/amirphl/inventory-asn/app/dto"
	"github.com/amirphl/inventory-asn/models"
	"github.com/amirphl/inventory-asn/repository"
	"github.com/amirphl/inventory-asn/utils"
	"github.com/google/uuid"
)

const (
	defaultRecordsPageSize = 50
	maxRecordsPageSize     = 500
)

// AllocationRequest asks for RecordCount line slots of one inventory tuple
type AllocationRequest struct {
	Owner    string
	Location string
	Case     string
	SKU      string
	UOM      string
	Quantity int

	RecordCount int
	Status      int
	Username    string

	// IsExportReservation also reserves the bucket after the last one used,
	// so records captured later never share a bucket with this batch
	IsExportReservation bool
}

// AllocationResult describes what one committed allocation placed
type AllocationResult struct {
	Records      []*models.DownloadInventory
	Buckets      []string
	CursorBefore string
	CursorAfter  string
}

// BucketAllocator places records into capacity-bounded, single-owner buckets under the cursor
type BucketAllocator struct {
	cursors    *SequenceCursorManager
	recordRepo repository.DownloadInventoryRepository
	txManager  repository.TxManager
	cursorType string
}

// NewBucketAllocator creates an allocator working on the cursor of cursorType
func NewBucketAllocator(
	cursors *SequenceCursorManager,
	recordRepo repository.DownloadInventoryRepository,
	txManager repository.TxManager,
	cursorType string,
) *BucketAllocator {
	return &BucketAllocator{
		cursors:    cursors,
		recordRepo: recordRepo,
		txManager:  txManager,
		cursorType: cursorType,
	}
}

// Allocate places the requested records and advances the cursor atomically.
// When ctx already carries a transaction the allocation joins it, and nothing is visible
// until the outer unit commits. On error nothing was placed and the cursor is unchanged.
// Calls are not idempotent: every call consumes cursor state.
func (a *BucketAllocator) Allocate(ctx context.Context, req *AllocationRequest) (result *AllocationResult, err error) {
	start := time.Now()
	defer func() {
		asnAllocationsTotal.WithLabelValues(outcome(err)).Inc()
		asnAllocationDuration.Observe(time.Since(start).Seconds())
	}()

	if err := validateAllocationRequest(req); err != nil {
		return nil, err
	}

	username := req.Username
	if username == "" {
		username = utils.DefaultUsername
	}

	err = a.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		result, err = a.allocate(txCtx, req, username)
		return err
	})
	if err != nil {
		log.Printf("asn allocation failed: owner=%s records=%d reservation=%t error=%v", req.Owner, req.RecordCount, req.IsExportReservation, err)
		return nil, err
	}

	asnRecordsPlacedTotal.Add(float64(len(result.Records)))
	log.Printf("asn allocation: owner=%s records=%d buckets=%v cursor=%s->%s", req.Owner, len(result.Records), result.Buckets, result.CursorBefore, result.CursorAfter)

	return result, nil
}

func validateAllocationRequest(req *AllocationRequest) error {
	if req == nil || strings.TrimSpace(req.Owner) == "" {
		return NewBusinessError("ASN_ALLOCATION_VALIDATION_FAILED", "Owner is required", ErrOwnerRequired)
	}
	if req.RecordCount < 0 {
		return NewBusinessErrorf("ASN_ALLOCATION_VALIDATION_FAILED", "Record count %d is negative", ErrInvalidRecordCount, req.RecordCount)
	}
	if req.Status < models.InventoryStatusNew || req.Status > models.InventoryStatusProcessed {
		return NewBusinessErrorf("ASN_ALLOCATION_VALIDATION_FAILED", "Status %d is invalid", ErrInvalidStatus, req.Status)
	}
	return nil
}

func (a *BucketAllocator) allocate(ctx context.Context, req *AllocationRequest, username string) (*AllocationResult, error) {
	cursor, err := a.cursors.LoadOrInit(ctx, a.cursorType, username)
	if err != nil {
		return nil, err
	}

	// A non-positive capacity would never fill a bucket
	capacity := cursor.NumberOfLines
	if capacity <= 0 || capacity > models.MaxASNNumberOfLines {
		return nil, NewBusinessErrorf("ASN_CAPACITY_INVALID", "Bucket capacity %d is out of range", ErrCapacityConfiguration, capacity)
	}

	result := &AllocationResult{CursorBefore: cursor.CurrentNumber}

	bucket, stale, err := a.cursors.Resolve(cursor)
	if err != nil {
		return nil, err
	}
	if stale {
		cursor.Prefix = bucket.Prefix
		if err := a.cursors.Advance(ctx, cursor, bucket.Number, username); err != nil {
			return nil, err
		}
	}

	lastLine, closed, err := a.fillState(ctx, bucket, req.Owner, capacity)
	if err != nil {
		return nil, err
	}
	if closed {
		bucket = bucket.Next()
		lastLine = 0
	}

	remaining := req.RecordCount
	for remaining > 0 {
		if lastLine >= capacity {
			bucket = bucket.Next()
			lastLine = 0
		}

		toPlace := min(remaining, capacity-lastLine)
		lines := buildBucketLines(req, bucket, lastLine, toPlace, username)
		if err := a.recordRepo.SaveBatch(ctx, lines); err != nil {
			return nil, newPersistenceError("ASN_RECORDS_SAVE_FAILED", fmt.Sprintf("Failed to place records in %s", bucket), err)
		}

		result.Records = append(result.Records, lines...)
		result.Buckets = append(result.Buckets, bucket.String())
		lastLine += toPlace
		remaining -= toPlace
	}

	if req.IsExportReservation {
		bucket = bucket.Next()
	}

	if err := a.cursors.Advance(ctx, cursor, bucket.Number, username); err != nil {
		return nil, err
	}
	result.CursorAfter = cursor.CurrentNumber

	return result, nil
}

// fillState reports the last used line of bucket and whether the bucket is closed to owner
func (a *BucketAllocator) fillState(ctx context.Context, bucket models.ASNNumber, owner string, capacity int) (int, bool, error) {
	last, err := a.recordRepo.LastLineInBucket(ctx, bucket.String())
	if err != nil {
		return 0, false, newPersistenceError("ASN_BUCKET_LOAD_FAILED", fmt.Sprintf("Failed to read bucket %s", bucket), err)
	}
	if last == nil {
		return 0, false, nil
	}

	line, err := models.ParseLineNumber(last.LineNumber)
	if err != nil {
		return 0, false, newPersistenceError("ASN_BUCKET_LOAD_FAILED", fmt.Sprintf("Bucket %s holds an invalid line number %q", bucket, last.LineNumber), err)
	}

	if last.Owner != owner || line >= capacity {
		return 0, true, nil
	}

	return line, false, nil
}

func buildBucketLines(req *AllocationRequest, bucket models.ASNNumber, lastLine, count int, username string) []*models.DownloadInventory {
	now := utils.UTCNow()
	asn := bucket.String()

	lines := make([]*models.DownloadInventory, 0, count)
	for i := 1; i <= count; i++ {
		lines = append(lines, &models.DownloadInventory{
			UUID:            uuid.New(),
			Owner:           req.Owner,
			Location:        req.Location,
			CaseNumber:      req.Case,
			SKU:             req.SKU,
			UOM:             req.UOM,
			Quantity:        req.Quantity,
			ASNNumber:       asn,
			LineNumber:      models.FormatLineNumber(lastLine + i),
			Status:          req.Status,
			DownloadStatus:  models.DownloadStatusNo,
			UpdatedUsername: utils.ToPtr(username),
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}
	return lines
}

// ASNFlow exposes allocation and placed-record queries to the transport layer
type ASNFlow interface {
	Allocate(ctx context.Context, req *dto.AllocateASNRequest, metadata *ClientMetadata) (*dto.AllocateASNResponse, error)
	GetCursorStatus(ctx context.Context) (*dto.ASNCursorStatusDTO, error)
	ListBucket(ctx context.Context, asnNumber string) (*dto.ListPlacedRecordsResponse, error)
	ListRecords(ctx context.Context, req *dto.ListPlacedRecordsRequest) (*dto.ListPlacedRecordsResponse, error)
}

// ASNFlowImpl implements ASNFlow
type ASNFlowImpl struct {
	allocator  *BucketAllocator
	cursors    *SequenceCursorManager
	recordRepo repository.DownloadInventoryRepository
	cursorType string
}

// NewASNFlow creates a new ASN flow instance
func NewASNFlow(
	allocator *BucketAllocator,
	cursors *SequenceCursorManager,
	recordRepo repository.DownloadInventoryRepository,
	cursorType string,
) ASNFlow {
	return &ASNFlowImpl{
		allocator:  allocator,
		cursors:    cursors,
		recordRepo: recordRepo,
		cursorType: cursorType,
	}
}

// Allocate runs one direct allocation
func (f *ASNFlowImpl) Allocate(ctx context.Context, req *dto.AllocateASNRequest, metadata *ClientMetadata) (*dto.AllocateASNResponse, error) {
	status := models.InventoryStatusPending
	if req.Status != nil {
		status = *req.Status
	}

	result, err := f.allocator.Allocate(ctx, &AllocationRequest{
		Owner:               req.Owner,
		Location:            req.Location,
		Case:                req.Case,
		SKU:                 req.SKU,
		UOM:                 req.UOM,
		Quantity:            req.Quantity,
		RecordCount:         req.RecordCount,
		Status:              status,
		Username:            metadata.actor(),
		IsExportReservation: req.IsExportReservation,
	})
	if err != nil {
		return nil, err
	}

	buckets := result.Buckets
	if buckets == nil {
		buckets = []string{}
	}

	return &dto.AllocateASNResponse{
		Message:      fmt.Sprintf("Placed %d records", len(result.Records)),
		Records:      toPlacedRecordDTOs(result.Records),
		Buckets:      buckets,
		CursorBefore: result.CursorBefore,
		CursorAfter:  result.CursorAfter,
	}, nil
}

// GetCursorStatus returns the read-only cursor view
func (f *ASNFlowImpl) GetCursorStatus(ctx context.Context) (*dto.ASNCursorStatusDTO, error) {
	return f.cursors.Status(ctx, f.cursorType)
}

// ListBucket returns the records of one bucket in line order.
// Unpadded identifiers such as ASN42 are normalized to the stored form.
func (f *ASNFlowImpl) ListBucket(ctx context.Context, asnNumber string) (*dto.ListPlacedRecordsResponse, error) {
	asnNumber = strings.TrimSpace(asnNumber)
	if asnNumber == "" {
		return nil, NewBusinessError("ASN_BUCKET_ID_REQUIRED", "Bucket identifier is required", ErrBucketIDRequired)
	}
	if parsed, err := models.ParseASNNumber(asnNumber); err == nil {
		asnNumber = parsed.String()
	}

	records, err := f.recordRepo.ListByASN(ctx, asnNumber)
	if err != nil {
		return nil, newPersistenceError("ASN_BUCKET_LOAD_FAILED", "Failed to list bucket records", err)
	}

	return &dto.ListPlacedRecordsResponse{
		Items: toPlacedRecordDTOs(records),
		Total: int64(len(records)),
	}, nil
}

// ListRecords returns a page of placed records
func (f *ASNFlowImpl) ListRecords(ctx context.Context, req *dto.ListPlacedRecordsRequest) (*dto.ListPlacedRecordsResponse, error) {
	page, pageSize, err := normalizePage(req.Page, req.PageSize)
	if err != nil {
		return nil, err
	}

	filter := models.DownloadInventoryFilter{}
	if req.Owner != "" {
		filter.Owner = utils.ToPtr(req.Owner)
	}
	if req.ASNNumber != "" {
		asn := req.ASNNumber
		if parsed, err := models.ParseASNNumber(asn); err == nil {
			asn = parsed.String()
		}
		filter.ASNNumber = utils.ToPtr(asn)
	}
	if req.DownloadStatus != "" {
		filter.DownloadStatus = utils.ToPtr(req.DownloadStatus)
	}

	total, err := f.recordRepo.Count(ctx, filter)
	if err != nil {
		return nil, newPersistenceError("ASN_RECORDS_COUNT_FAILED", "Failed to count placed records", err)
	}

	records, err := f.recordRepo.ByFilter(ctx, filter, "", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, newPersistenceError("ASN_RECORDS_LIST_FAILED", "Failed to list placed records", err)
	}

	return &dto.ListPlacedRecordsResponse{
		Items:    toPlacedRecordDTOs(records),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func normalizePage(page, pageSize int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = defaultRecordsPageSize
	}
	if page < 1 {
		return 0, 0, NewBusinessError("PAGINATION_INVALID", "Page must be at least 1", ErrInvalidPage)
	}
	if pageSize < 1 || pageSize > maxRecordsPageSize {
		return 0, 0, NewBusinessError("PAGINATION_INVALID", "Page size must be between 1 and 500", ErrInvalidPageSize)
	}
	return page, pageSize, nil
}
