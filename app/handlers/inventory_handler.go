package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/amirphl/inventory-asn/app/dto"
	businessflow "github.com/amirphl/inventory-asn/business_flow"
	"github.com/gofiber/fiber/v3"
)

// InventoryHandlerInterface defines the contract for source record capture handlers
type InventoryHandlerInterface interface {
	CaptureInventory(c fiber.Ctx) error
	ListCaptures(c fiber.Ctx) error
}

// InventoryHandler handles inventory capture HTTP requests
type InventoryHandler struct {
	baseHandler
	captureFlow businessflow.InventoryCaptureFlow
}

// NewInventoryHandler creates a new inventory capture handler
func NewInventoryHandler(captureFlow businessflow.InventoryCaptureFlow, requestTimeout time.Duration) InventoryHandlerInterface {
	return &InventoryHandler{
		baseHandler: newBaseHandler(requestTimeout),
		captureFlow: captureFlow,
	}
}

// CaptureInventory stores one captured inventory line waiting for ASN generation
// @Summary Capture Inventory
// @Description Store a source record with status NEW unless another status is given
// @Tags Inventory
// @Accept json
// @Produce json
// @Param X-Username header string false "Acting username"
// @Param request body dto.CaptureInventoryRequest true "Captured inventory line"
// @Success 201 {object} dto.APIResponse{data=dto.InventoryCaptureDTO} "Record captured"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/inventory/captures [post]
func (h *InventoryHandler) CaptureInventory(c fiber.Ctx) error {
	var req dto.CaptureInventoryRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/inventory/captures")
	defer cancel()

	result, err := h.captureFlow.Capture(ctx, &req, h.metadata(c))
	if err != nil {
		return h.flowErrorResponse(c, err, "Inventory capture", "INVENTORY_CAPTURE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Inventory captured successfully", result)
}

// ListCaptures lists captured source records
// @Summary List Captured Inventory
// @Tags Inventory
// @Produce json
// @Param status query int false "Status filter (0 new, 1 pending, 2 processed)"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 50, max 500)"
// @Success 200 {object} dto.APIResponse{data=dto.ListInventoryCapturesResponse} "Records retrieved"
// @Failure 400 {object} dto.APIResponse "Invalid query"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/inventory/captures [get]
func (h *InventoryHandler) ListCaptures(c fiber.Ctx) error {
	var req dto.ListInventoryCapturesRequest

	if statusStr := c.Query("status"); statusStr != "" {
		status, err := strconv.Atoi(statusStr)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "status must be an integer", "INVALID_QUERY", nil)
		}
		req.Status = &status
	}
	page, pageSize, err := parsePagination(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), "INVALID_QUERY", nil)
	}
	req.Page = page
	req.PageSize = pageSize

	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/inventory/captures")
	defer cancel()

	result, err := h.captureFlow.List(ctx, &req)
	if err != nil {
		return h.flowErrorResponse(c, err, "Listing captured inventory", "INVENTORY_CAPTURE_LIST_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Captured inventory retrieved successfully", result)
}

// parsePagination reads page and page_size; absent values stay zero so the flow applies defaults
func parsePagination(c fiber.Ctx) (int, int, error) {
	var page, pageSize int
	if v := c.Query("page"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, errors.New("page must be an integer")
		}
		page = parsed
	}
	if v := c.Query("page_size"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, errors.New("page_size must be an integer")
		}
		pageSize = parsed
	}
	return page, pageSize, nil
}
