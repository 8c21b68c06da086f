package businessflow

import (
	"context"
	"strings"

	"github.com/amirphl/inventory-asn/app/dto"
	"github.com/amirphl/inventory-asn/models"
	"github.com/amirphl/inventory-asn/repository"
	"github.com/amirphl/inventory-asn/utils"
	"github.com/google/uuid"
)

// InventoryCaptureFlow records source records waiting for ASN generation
type InventoryCaptureFlow interface {
	Capture(ctx context.Context, req *dto.CaptureInventoryRequest, metadata *ClientMetadata) (*dto.InventoryCaptureDTO, error)
	List(ctx context.Context, req *dto.ListInventoryCapturesRequest) (*dto.ListInventoryCapturesResponse, error)
}

// InventoryCaptureFlowImpl implements InventoryCaptureFlow
type InventoryCaptureFlowImpl struct {
	captureRepo repository.InventoryCaptureRepository
}

// NewInventoryCaptureFlow creates a new capture flow instance
func NewInventoryCaptureFlow(captureRepo repository.InventoryCaptureRepository) InventoryCaptureFlow {
	return &InventoryCaptureFlowImpl{captureRepo: captureRepo}
}

// Capture stores one source record, NEW unless the request says otherwise
func (f *InventoryCaptureFlowImpl) Capture(ctx context.Context, req *dto.CaptureInventoryRequest, metadata *ClientMetadata) (*dto.InventoryCaptureDTO, error) {
	if err := validateCaptureRequest(req); err != nil {
		return nil, err
	}

	status := models.InventoryStatusNew
	if req.Status != nil {
		status = *req.Status
	}

	capture := &models.InventoryCapture{
		UUID:       uuid.New(),
		Owner:      strings.TrimSpace(req.Owner),
		Location:   strings.TrimSpace(req.Location),
		CaseNumber: strings.TrimSpace(req.Case),
		SKU:        strings.TrimSpace(req.SKU),
		UOM:        strings.TrimSpace(req.UOM),
		Quantity:   req.Quantity,
		Username:   metadata.actor(),
		Status:     status,
		CreatedAt:  utils.UTCNow(),
	}

	if err := f.captureRepo.Save(ctx, capture); err != nil {
		return nil, newPersistenceError("INVENTORY_CAPTURE_FAILED", "Failed to save captured record", err)
	}

	out := ToInventoryCaptureDTO(*capture)
	return &out, nil
}

func validateCaptureRequest(req *dto.CaptureInventoryRequest) error {
	if req == nil {
		return NewBusinessError("INVENTORY_CAPTURE_VALIDATION_FAILED", "Capture payload is required", ErrCaptureRequired)
	}
	if strings.TrimSpace(req.Owner) == "" {
		return NewBusinessError("INVENTORY_CAPTURE_VALIDATION_FAILED", "Owner is required", ErrOwnerRequired)
	}
	if req.Quantity <= 0 {
		return NewBusinessErrorf("INVENTORY_CAPTURE_VALIDATION_FAILED", "Quantity %d is not positive", ErrInvalidQuantity, req.Quantity)
	}
	if req.Status != nil && (*req.Status < models.InventoryStatusNew || *req.Status > models.InventoryStatusProcessed) {
		return NewBusinessErrorf("INVENTORY_CAPTURE_VALIDATION_FAILED", "Status %d is invalid", ErrInvalidStatus, *req.Status)
	}
	return nil
}

// List returns a page of source records, newest first
func (f *InventoryCaptureFlowImpl) List(ctx context.Context, req *dto.ListInventoryCapturesRequest) (*dto.ListInventoryCapturesResponse, error) {
	page, pageSize, err := normalizePage(req.Page, req.PageSize)
	if err != nil {
		return nil, err
	}

	filter := models.InventoryCaptureFilter{Status: req.Status}

	total, err := f.captureRepo.Count(ctx, filter)
	if err != nil {
		return nil, newPersistenceError("INVENTORY_CAPTURE_COUNT_FAILED", "Failed to count captured records", err)
	}

	captures, err := f.captureRepo.ByFilter(ctx, filter, "", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, newPersistenceError("INVENTORY_CAPTURE_LIST_FAILED", "Failed to list captured records", err)
	}

	items := make([]dto.InventoryCaptureDTO, 0, len(captures))
	for _, c := range captures {
		items = append(items, ToInventoryCaptureDTO(*c))
	}

	return &dto.ListInventoryCapturesResponse{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}
