package dto

import (
	"net/http"
	"strings"
)

// Wire error codes, ERR_<CATEGORY>_<DESCRIPTION>. Clients switch on these;
// renaming one is a breaking API change.

// General and input codes.
const (
	ErrCodeUnknown      = "ERR_UNKNOWN"
	ErrCodeInternal     = "ERR_INTERNAL"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
)

// Validation codes. ErrCodeValidation carries per-field details in the
// response envelope; the others qualify single-field failures.
const (
	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	ErrCodeValidationFormat   = "ERR_VALIDATION_FORMAT"
	ErrCodeValidationRange    = "ERR_VALIDATION_RANGE"
)

// Authentication and authorization codes.
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource lifecycle codes.
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Billing business-rule codes.
const (
	ErrCodeInvalidState     = "ERR_INVALID_STATE"
	ErrCodeBusinessRule     = "ERR_BUSINESS_RULE"
	ErrCodeExceedsRemaining = "ERR_EXCEEDS_REMAINING" // payment larger than the invoice balance
	ErrCodeHasPayments      = "ERR_HAS_PAYMENTS"      // invoice still has recorded payments
	ErrCodeInUse            = "ERR_IN_USE"            // resource referenced by other records
	ErrCodeTotalBelowPaid   = "ERR_TOTAL_BELOW_PAID"  // new total below what was already paid
	ErrCodeSupplierInactive = "ERR_SUPPLIER_INACTIVE"
)

// Attachment codes.
const (
	ErrCodeFileTooLarge        = "ERR_FILE_TOO_LARGE"
	ErrCodeUnsupportedFileType = "ERR_UNSUPPORTED_FILE_TYPE"
	ErrCodeStorageFailure      = "ERR_STORAGE_FAILURE"
)

// ErrorCodeHTTPStatus is the wire code to HTTP status mapping.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:      http.StatusInternalServerError,
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// State violations answer 422, data races over shared rows answer 409.
	ErrCodeInvalidState:     http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:     http.StatusUnprocessableEntity,
	ErrCodeSupplierInactive: http.StatusUnprocessableEntity,
	ErrCodeExceedsRemaining: http.StatusConflict,
	ErrCodeHasPayments:      http.StatusConflict,
	ErrCodeInUse:            http.StatusConflict,
	ErrCodeTotalBelowPaid:   http.StatusConflict,

	ErrCodeFileTooLarge:        http.StatusRequestEntityTooLarge,
	ErrCodeUnsupportedFileType: http.StatusUnsupportedMediaType,
	ErrCodeStorageFailure:      http.StatusBadGateway,
}

// GetHTTPStatus resolves the status for a wire code, defaulting to 500
// for anything unmapped.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping translates domain error codes to wire codes.
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":             ErrCodeNotFound,
	"ALREADY_EXISTS":        ErrCodeAlreadyExists,
	"INVALID_INPUT":         ErrCodeInvalidInput,
	"INVALID_STATE":         ErrCodeInvalidState,
	"UNAUTHORIZED":          ErrCodeUnauthorized,
	"FORBIDDEN":             ErrCodeForbidden,
	"CONCURRENCY_CONFLICT":  ErrCodeConcurrencyConflict,
	"EXCEEDS_REMAINING":     ErrCodeExceedsRemaining,
	"HAS_PAYMENTS":          ErrCodeHasPayments,
	"IN_USE":                ErrCodeInUse,
	"TOTAL_BELOW_PAID":      ErrCodeTotalBelowPaid,
	"SUPPLIER_INACTIVE":     ErrCodeSupplierInactive,
	"FILE_TOO_LARGE":        ErrCodeFileTooLarge,
	"UNSUPPORTED_FILE_TYPE": ErrCodeUnsupportedFileType,
	"STORAGE_FAILURE":       ErrCodeStorageFailure,
	"VALIDATION_ERROR":      ErrCodeValidation,
	"BAD_REQUEST":           ErrCodeBadRequest,
	"INTERNAL_ERROR":        ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the wire format.
// Field-level codes the domain mints ad hoc (INVALID_NAME, INVALID_DUE_DATE)
// collapse to the generic invalid-input code; ALREADY_* state codes collapse
// to invalid-state. Everything else passes through unchanged.
func NormalizeErrorCode(code string) string {
	if wire, ok := DomainErrorCodeMapping[code]; ok {
		return wire
	}
	if strings.HasPrefix(code, "INVALID_") {
		return ErrCodeInvalidInput
	}
	if strings.HasPrefix(code, "ALREADY_") {
		return ErrCodeInvalidState
	}
	return code
}
