package persistence_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/catalog"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/persistence"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormItemRepository_FindByID_ConnectionError(t *testing.T) {
	mdb := testutil.NewMockDB(t)
	mdb.Mock.ExpectQuery(`SELECT \* FROM "items" WHERE .*tenant_id = \$\d`).
		WillReturnError(errors.New("connection reset by peer"))

	_, err := persistence.NewGormItemRepository(mdb.DB).FindByID(context.Background(), uuid.New(), uuid.New())

	assert.ErrorIs(t, err, shared.ErrPersistenceUnavailable)
	assert.Equal(t, shared.CodePersistenceUnavailable, shared.ErrorCode(err))
}

func TestGormItemRepository_Save_StaleVersion(t *testing.T) {
	mdb := testutil.NewMockDB(t)
	item, err := catalog.NewItem(uuid.New(), "SKU-9", "Widget", testutil.Money("3.00"), decimal.NewFromInt(1))
	require.NoError(t, err)
	item.MarkStored()

	mdb.Mock.ExpectExec(`UPDATE "items" SET .* WHERE .*version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = persistence.NewGormItemRepository(mdb.DB).Save(context.Background(), item)

	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.Equal(t, 1, item.Version, "version is restored after a failed write")
}

func TestGormItemRepository_ExistsBySKU_NormalizesBeforeQuerying(t *testing.T) {
	mdb := testutil.NewMockDB(t)
	tenantID := uuid.New()
	mdb.Mock.ExpectQuery(`SELECT count\(\*\) FROM "items"`).
		WithArgs(sqlmock.AnyArg(), "SKU-9").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := persistence.NewGormItemRepository(mdb.DB).ExistsBySKU(context.Background(), tenantID, " sku-9 ")

	require.NoError(t, err)
	assert.True(t, exists)
}
