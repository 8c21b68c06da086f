// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/amirphl/inventory-asn/app/dto"
	businessflow "github.com/amirphl/inventory-asn/business_flow"
	"github.com/amirphl/inventory-asn/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/requestid"
)

const defaultRequestTimeout = 30 * time.Second

// baseHandler carries the response envelope and request plumbing shared by every handler
type baseHandler struct {
	validator      *validator.Validate
	requestTimeout time.Duration
}

func newBaseHandler(requestTimeout time.Duration) baseHandler {
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	return baseHandler{
		validator:      validator.New(),
		requestTimeout: requestTimeout,
	}
}

func (h *baseHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *baseHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// validate runs struct validation and writes the 400 response when it fails
func (h *baseHandler) validate(c fiber.Ctx, req any) (bool, error) {
	err := h.validator.Struct(req)
	if err == nil {
		return true, nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return false, h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err.Error())
	}

	validationErrors := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		validationErrors = append(validationErrors, getValidationErrorMessage(fe))
	}
	return false, h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
}

// metadata collects the client information and acting username of the request
func (h *baseHandler) metadata(c fiber.Ctx) *businessflow.ClientMetadata {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(requestid.FromContext(c))

	username := strings.TrimSpace(c.Get(utils.UsernameHeader))
	if username == "" {
		username = utils.DefaultUsername
	}
	metadata.SetUsername(username)

	return metadata
}

// createRequestContext creates a context with request-scoped values and the request timeout.
// The caller must invoke the returned cancel function.
func (h *baseHandler) createRequestContext(c fiber.Ctx, endpoint string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(c.Context(), h.requestTimeout)

	ctx = context.WithValue(ctx, utils.RequestIDKey, requestid.FromContext(c))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, h.requestTimeout)

	username := strings.TrimSpace(c.Get(utils.UsernameHeader))
	if username != "" {
		ctx = context.WithValue(ctx, utils.UsernameKey, username)
	}

	return ctx, cancel
}

// flowErrorResponse maps a business flow failure onto the response envelope
func (h *baseHandler) flowErrorResponse(c fiber.Ctx, err error, operation, fallbackCode string) error {
	code := fallbackCode
	message := operation + " failed"
	var be *businessflow.BusinessError
	if errors.As(err, &be) {
		code = be.Code
		message = be.Message
	}

	switch {
	case businessflow.IsOwnerRequired(err),
		businessflow.IsInvalidRecordCount(err),
		businessflow.IsInvalidStatus(err),
		businessflow.IsInvalidQuantity(err),
		businessflow.IsCaptureRequired(err),
		businessflow.IsBucketIDRequired(err),
		businessflow.IsInvalidPage(err),
		businessflow.IsInvalidPageSize(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, message, code, nil)
	case businessflow.IsCursorNotFound(err),
		businessflow.IsNoNewRecords(err),
		businessflow.IsNothingToExport(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, message, code, nil)
	case businessflow.IsDuplicateBatch(err),
		businessflow.IsCursorRangeExhausted(err):
		return h.ErrorResponse(c, fiber.StatusConflict, message, code, nil)
	case errors.Is(err, context.DeadlineExceeded):
		log.Printf("%s timed out: %v", operation, err)
		return h.ErrorResponse(c, fiber.StatusGatewayTimeout, operation+" timed out", "REQUEST_TIMEOUT", nil)
	case businessflow.IsCapacityConfiguration(err),
		businessflow.IsCursorInitialization(err),
		businessflow.IsCursorCorrupted(err):
		log.Printf("%s failed on cursor state: %v", operation, err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, message, code, nil)
	}

	log.Printf("%s failed: %v", operation, err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, operation+" failed", code, nil)
}

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "min":
		return err.Field() + " must be at least " + err.Param() + " characters"
	case "max":
		return err.Field() + " must be at most " + err.Param() + " characters"
	case "oneof":
		return err.Field() + " must be one of: " + err.Param()
	case "numeric":
		return err.Field() + " must contain only numbers"
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
	default:
		return err.Field() + " is invalid"
	}
}
