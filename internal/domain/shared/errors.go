package shared

import (
	"errors"
	"fmt"
)

// Error codes shared by every bounded context
const (
	CodeNotFound                  = "NOT_FOUND"
	CodeAlreadyExists             = "ALREADY_EXISTS"
	CodeInvalidInput              = "INVALID_INPUT"
	CodeUnauthorized              = "UNAUTHORIZED"
	CodeForbidden                 = "FORBIDDEN"
	CodeCrossTenantViolation      = "CROSS_TENANT_VIOLATION"
	CodeInvalidStateTransition    = "INVALID_STATE_TRANSITION"
	CodeDuplicatePaymentReference = "DUPLICATE_PAYMENT_REFERENCE"
	CodeOverpaymentRejected       = "OVERPAYMENT_REJECTED"
	CodeConcurrencyConflict       = "CONCURRENCY_CONFLICT"
	CodePersistenceUnavailable    = "PERSISTENCE_UNAVAILABLE"
	CodeSubscriptionExists        = "SUBSCRIPTION_EXISTS"
	CodeCurrencyMismatch          = "CURRENCY_MISMATCH"
	CodeMoneyOverflow             = "MONEY_OVERFLOW"
	CodeMoneyPrecision            = "MONEY_PRECISION"
)

// DomainError represents a domain-level error.
// State carries the authoritative state of the affected aggregate when an
// operation is rejected, so callers can reconcile without re-fetching.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	State   any    `json:"state,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is matches any DomainError with the same code
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithState returns a copy of the error carrying the given aggregate state
func (e *DomainError) WithState(state any) *DomainError {
	cp := *e
	cp.State = state
	return &cp
}

// WithCause returns a copy of the error wrapping cause
func (e *DomainError) WithCause(cause error) *DomainError {
	cp := *e
	cp.cause = cause
	return &cp
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound                  = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists             = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput              = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrUnauthorized              = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrForbidden                 = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
	ErrCrossTenantViolation      = NewDomainError(CodeCrossTenantViolation, "Entities belong to different tenants")
	ErrInvalidStateTransition    = NewDomainError(CodeInvalidStateTransition, "Operation not allowed in current state")
	ErrDuplicatePaymentReference = NewDomainError(CodeDuplicatePaymentReference, "Payment reference already applied")
	ErrOverpaymentRejected       = NewDomainError(CodeOverpaymentRejected, "Payment would exceed invoice total")
	ErrConcurrencyConflict       = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrPersistenceUnavailable    = NewDomainError(CodePersistenceUnavailable, "Persistence layer unavailable")
	ErrSubscriptionExists        = NewDomainError(CodeSubscriptionExists, "Tenant already has an active subscription")
)

// ErrorCode returns the DomainError code of err, or "" when err is not a DomainError
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsRetryable reports whether the logical operation may be retried as a whole
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}
