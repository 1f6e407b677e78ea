package dto

import (
	"net/http"
	"strings"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
)

// Transport error codes. Domain errors keep their shared.Code* value on the
// wire so clients see one vocabulary.
const (
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeValidation       = "VALIDATION_FAILED"
	ErrCodeInvalidSignature = "INVALID_SIGNATURE"
	ErrCodeTenantRequired   = "TENANT_REQUIRED"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeRequestTooLarge  = "REQUEST_TOO_LARGE"
	ErrCodeStaleVersion     = "STALE_SERVER_VERSION"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	// Input -> 400
	ErrCodeBadRequest:           http.StatusBadRequest,
	ErrCodeValidation:           http.StatusBadRequest,
	shared.CodeInvalidInput:     http.StatusBadRequest,
	shared.CodeCurrencyMismatch: http.StatusBadRequest,
	shared.CodeMoneyOverflow:    http.StatusBadRequest,
	shared.CodeMoneyPrecision:   http.StatusBadRequest,

	// Auth
	shared.CodeUnauthorized:         http.StatusUnauthorized,
	ErrCodeInvalidSignature:         http.StatusUnauthorized,
	shared.CodeForbidden:            http.StatusForbidden,
	shared.CodeCrossTenantViolation: http.StatusForbidden,
	ErrCodeTenantRequired:           http.StatusForbidden,

	// Resources
	shared.CodeNotFound:                  http.StatusNotFound,
	shared.CodeAlreadyExists:             http.StatusConflict,
	shared.CodeSubscriptionExists:        http.StatusConflict,
	shared.CodeConcurrencyConflict:       http.StatusConflict,
	shared.CodeDuplicatePaymentReference: http.StatusConflict,
	ErrCodeStaleVersion:                  http.StatusConflict,

	// Business rules -> 422
	shared.CodeInvalidStateTransition: http.StatusUnprocessableEntity,
	shared.CodeOverpaymentRejected:    http.StatusUnprocessableEntity,

	ErrCodeRequestTooLarge:            http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:                http.StatusTooManyRequests,
	shared.CodePersistenceUnavailable: http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code. Field-level
// codes (INVALID_NAME, INVALID_PRICE ...) are input errors; anything else
// unknown is a 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
