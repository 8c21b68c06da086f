package handlers

import (
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/amirphl/inventory-asn/app/dto"
	businessflow "github.com/amirphl/inventory-asn/business_flow"
	"github.com/amirphl/inventory-asn/utils"
	"github.com/gofiber/fiber/v3"
)

// ASNHandlerInterface defines the contract for ASN allocation handlers
type ASNHandlerInterface interface {
	Allocate(c fiber.Ctx) error
	Generate(c fiber.Ctx) error
	Export(c fiber.Ctx) error
	GetCursor(c fiber.Ctx) error
	ListBucket(c fiber.Ctx) error
	ListRecords(c fiber.Ctx) error
}

// ASNHandler handles ASN allocation, generation and export HTTP requests
type ASNHandler struct {
	baseHandler
	asnFlow        businessflow.ASNFlow
	generationFlow businessflow.ASNGenerationFlow
	exportFlow     businessflow.ASNExportFlow
}

// NewASNHandler creates a new ASN handler
func NewASNHandler(
	asnFlow businessflow.ASNFlow,
	generationFlow businessflow.ASNGenerationFlow,
	exportFlow businessflow.ASNExportFlow,
	requestTimeout time.Duration,
) ASNHandlerInterface {
	return &ASNHandler{
		baseHandler:    newBaseHandler(requestTimeout),
		asnFlow:        asnFlow,
		generationFlow: generationFlow,
		exportFlow:     exportFlow,
	}
}

// Allocate places record_count lines of one inventory tuple
// @Summary Allocate ASN Lines
// @Description Place records into single-owner buckets and advance the ASN cursor atomically. Not idempotent.
// @Tags ASN
// @Accept json
// @Produce json
// @Param X-Username header string false "Acting username"
// @Param request body dto.AllocateASNRequest true "Allocation request"
// @Success 201 {object} dto.APIResponse{data=dto.AllocateASNResponse} "Records placed"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 409 {object} dto.APIResponse "Cursor range exhausted"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/asn/allocations [post]
func (h *ASNHandler) Allocate(c fiber.Ctx) error {
	var req dto.AllocateASNRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/asn/allocations")
	defer cancel()

	result, err := h.asnFlow.Allocate(ctx, &req, h.metadata(c))
	if err != nil {
		return h.flowErrorResponse(c, err, "ASN allocation", "ASN_ALLOCATION_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusCreated, result.Message, result)
}

// Generate allocates one line for every NEW captured record
// @Summary Generate ASN
// @Description Allocate every NEW source record and mark them processed. With export=true the pending records are returned as a workbook.
// @Tags ASN
// @Accept json
// @Produce json
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param X-Username header string false "Acting username"
// @Param Idempotency-Key header string false "Batch key; a replay within the TTL is rejected"
// @Param export query bool false "Return the export workbook"
// @Param request body dto.GenerateASNRequest false "Generation options"
// @Success 200 {object} dto.APIResponse{data=dto.GenerateASNResponse} "ASN generated"
// @Failure 404 {object} dto.APIResponse "No new records"
// @Failure 409 {object} dto.APIResponse "Duplicate batch"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/asn/generate [post]
func (h *ASNHandler) Generate(c fiber.Ctx) error {
	var req dto.GenerateASNRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
		}
	}
	if key := strings.TrimSpace(c.Get(utils.IdempotencyKeyHeader)); key != "" {
		req.IdempotencyKey = key
	}
	if v := c.Query("export"); v != "" {
		export, err := strconv.ParseBool(v)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "export must be a boolean", "INVALID_QUERY", nil)
		}
		req.Export = export
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/asn/generate")
	defer cancel()

	metadata := h.metadata(c)
	result, err := h.generationFlow.Generate(ctx, &req, metadata)
	if err != nil {
		return h.flowErrorResponse(c, err, "ASN generation", "ASN_GENERATION_FAILED")
	}

	if !req.Export {
		return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
	}

	// Generation is already committed; an export failure only loses the download
	filename, content, err := h.exportFlow.Export(ctx, metadata)
	if err != nil {
		log.Printf("ASN export after generation failed: %v", err)
		return h.SuccessResponse(c, fiber.StatusOK, result.Message+"; export failed, retry the export", result)
	}

	c.Set("X-ASN-Processed-Count", strconv.Itoa(result.ProcessedCount))
	return h.sendWorkbook(c, filename, content)
}

// Export downloads every placed record not yet exported
// @Summary Export ASN Workbook
// @Description Build the receipt workbook of all records not yet downloaded, mark them downloaded and move the cursor to a fresh bucket
// @Tags ASN
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param X-Username header string false "Acting username"
// @Success 200 {file} file "Workbook"
// @Failure 404 {object} dto.APIResponse "Nothing to export"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/asn/export [post]
func (h *ASNHandler) Export(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/asn/export")
	defer cancel()

	filename, content, err := h.exportFlow.Export(ctx, h.metadata(c))
	if err != nil {
		return h.flowErrorResponse(c, err, "ASN export", "ASN_EXPORT_FAILED")
	}

	return h.sendWorkbook(c, filename, content)
}

func (h *ASNHandler) sendWorkbook(c fiber.Ctx, filename string, content []byte) error {
	c.Set("Content-Type", utils.ExcelContentType)
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Status(fiber.StatusOK).Send(content)
}

// GetCursor returns the numbering cursor for status surfaces
// @Summary Get ASN Cursor
// @Tags ASN
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ASNCursorStatusDTO} "Cursor retrieved"
// @Failure 404 {object} dto.APIResponse "Cursor not created yet"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/asn/cursor [get]
func (h *ASNHandler) GetCursor(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/asn/cursor")
	defer cancel()

	result, err := h.asnFlow.GetCursorStatus(ctx)
	if err != nil {
		return h.flowErrorResponse(c, err, "Reading ASN cursor", "ASN_CURSOR_LOAD_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "ASN cursor retrieved successfully", result)
}

// ListBucket returns the lines of one bucket
// @Summary List Bucket Lines
// @Tags ASN
// @Produce json
// @Param asn path string true "Bucket identifier, e.g. ASN0000001"
// @Success 200 {object} dto.APIResponse{data=dto.ListPlacedRecordsResponse} "Bucket retrieved"
// @Failure 400 {object} dto.APIResponse "Missing identifier"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/asn/buckets/{asn} [get]
func (h *ASNHandler) ListBucket(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/asn/buckets")
	defer cancel()

	result, err := h.asnFlow.ListBucket(ctx, c.Params("asn"))
	if err != nil {
		return h.flowErrorResponse(c, err, "Listing bucket", "ASN_BUCKET_LOAD_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Bucket retrieved successfully", result)
}

// ListRecords returns placed records
// @Summary List Placed Records
// @Tags ASN
// @Produce json
// @Param owner query string false "Owner filter"
// @Param asn_number query string false "Bucket filter"
// @Param download_status query string false "Download status filter (yes, no)"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 50, max 500)"
// @Success 200 {object} dto.APIResponse{data=dto.ListPlacedRecordsResponse} "Records retrieved"
// @Failure 400 {object} dto.APIResponse "Invalid query"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/asn/records [get]
func (h *ASNHandler) ListRecords(c fiber.Ctx) error {
	page, pageSize, err := parsePagination(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), "INVALID_QUERY", nil)
	}

	req := dto.ListPlacedRecordsRequest{
		Owner:          strings.TrimSpace(c.Query("owner")),
		ASNNumber:      strings.TrimSpace(c.Query("asn_number")),
		DownloadStatus: strings.TrimSpace(c.Query("download_status")),
		Page:           page,
		PageSize:       pageSize,
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/asn/records")
	defer cancel()

	result, err := h.asnFlow.ListRecords(ctx, &req)
	if err != nil {
		return h.flowErrorResponse(c, err, "Listing placed records", "ASN_RECORDS_LIST_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Placed records retrieved successfully", result)
}
