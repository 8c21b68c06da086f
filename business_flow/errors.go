// Package businessflow contains the core business logic and use cases for ASN allocation workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Store and cursor errors
	ErrPersistence           = errors.New("persistence failure")
	ErrCursorInitialization  = errors.New("cursor initialization failed")
	ErrCapacityConfiguration = errors.New("bucket capacity must be between 1 and 99999")
	ErrCursorRangeExhausted  = errors.New("cursor range exhausted")
	ErrCursorNotFound        = errors.New("cursor not found")
	ErrCursorCorrupted       = errors.New("cursor holds an unparsable number")

	// Allocation request errors
	ErrOwnerRequired      = errors.New("owner is required")
	ErrInvalidRecordCount = errors.New("record count must not be negative")
	ErrBucketIDRequired   = errors.New("bucket identifier is required")

	// Generation and export errors
	ErrNoNewRecords     = errors.New("no new records to generate ASN")
	ErrNothingToExport  = errors.New("no data found to export")
	ErrDuplicateBatch   = errors.New("batch already submitted")
	ErrCaptureRequired  = errors.New("capture payload is required")
	ErrInvalidQuantity  = errors.New("quantity must be a positive number")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrInvalidPage      = errors.New("page must be at least 1")
	ErrInvalidPageSize  = errors.New("page size must be between 1 and 500")
	ErrExportBuildError = errors.New("failed to build export workbook")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

// newPersistenceError tags a store failure so callers can match ErrPersistence
// while the driver error stays reachable through errors.As
func newPersistenceError(code, message string, err error) *BusinessError {
	return NewBusinessError(code, message, fmt.Errorf("%w: %w", ErrPersistence, err))
}

func IsPersistence(err error) bool {
	return errors.Is(err, ErrPersistence)
}

func IsCursorInitialization(err error) bool {
	return errors.Is(err, ErrCursorInitialization)
}

func IsCapacityConfiguration(err error) bool {
	return errors.Is(err, ErrCapacityConfiguration)
}

func IsCursorRangeExhausted(err error) bool {
	return errors.Is(err, ErrCursorRangeExhausted)
}

func IsCursorNotFound(err error) bool {
	return errors.Is(err, ErrCursorNotFound)
}

func IsCursorCorrupted(err error) bool {
	return errors.Is(err, ErrCursorCorrupted)
}

func IsOwnerRequired(err error) bool {
	return errors.Is(err, ErrOwnerRequired)
}

func IsInvalidRecordCount(err error) bool {
	return errors.Is(err, ErrInvalidRecordCount)
}

func IsBucketIDRequired(err error) bool {
	return errors.Is(err, ErrBucketIDRequired)
}

func IsNoNewRecords(err error) bool {
	return errors.Is(err, ErrNoNewRecords)
}

func IsNothingToExport(err error) bool {
	return errors.Is(err, ErrNothingToExport)
}

func IsDuplicateBatch(err error) bool {
	return errors.Is(err, ErrDuplicateBatch)
}

func IsCaptureRequired(err error) bool {
	return errors.Is(err, ErrCaptureRequired)
}

func IsInvalidQuantity(err error) bool {
	return errors.Is(err, ErrInvalidQuantity)
}

func IsInvalidStatus(err error) bool {
	return errors.Is(err, ErrInvalidStatus)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}

func IsExportBuildError(err error) bool {
	return errors.Is(err, ErrExportBuildError)
}
