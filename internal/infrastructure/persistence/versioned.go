package persistence

import (
	"context"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// advanceVersion returns the version the stored row must still carry and
// makes sure the aggregate's version moves past it, so two writers that
// loaded the same row can never both succeed.
func advanceVersion(a *shared.BaseAggregateRoot) int {
	expected := a.StoredVersion
	if a.Version <= expected {
		a.Version = expected + 1
	}
	return expected
}

// updateVersioned writes every column of model where the row still has
// the expected version. Zero affected rows means another writer won.
func updateVersioned(ctx context.Context, db *gorm.DB, model any, expected int, scopes ...func(*gorm.DB) *gorm.DB) error {
	res := db.WithContext(ctx).
		Model(model).
		Scopes(scopes...).
		Where("version = ?", expected).
		Select("*").
		Omit("created_at", clause.Associations).
		Updates(model)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}
