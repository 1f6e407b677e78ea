package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"gorm.io/gorm"
)

// translateError maps driver and gorm errors onto domain errors.
// Not-found and unique violations become NOT_FOUND and ALREADY_EXISTS;
// domain errors and context cancellation pass through; anything else is
// treated as a transient storage failure.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var de *shared.DomainError
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case isUniqueViolation(err):
		return shared.ErrAlreadyExists.WithCause(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return shared.ErrPersistenceUnavailable.WithCause(err)
	}
}

// isUniqueViolation also inspects the message for drivers that do not
// implement gorm's error translation.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "SQLSTATE 23505")
}
