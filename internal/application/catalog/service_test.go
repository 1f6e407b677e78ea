package catalog

import (
	"context"
	"testing"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/catalog"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/syncstate"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/persistence"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, uuid.UUID, uuid.UUID) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	acme := testutil.SeedTenant(t, db, "acme", "0.08")
	other := testutil.SeedTenant(t, db, "other", "0")
	return NewService(persistence.NewGormTransactionScope(db), persistence.NewRepositories(db)), acme.ID, other.ID
}

func ptr[T any](v T) *T { return &v }

func TestCreateItem(t *testing.T) {
	svc, tenantID, otherID := newService(t)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, tenantID, CreateItemRequest{
		SKU:       " cons-1 ",
		Name:      "Consulting hour",
		UnitPrice: decimal.RequireFromString("40"),
		Quantity:  ptr(decimal.RequireFromString("1.5")),
	})
	require.NoError(t, err)
	assert.Equal(t, "CONS-1", item.SKU)
	assert.Equal(t, "40.00", item.UnitPrice)
	assert.Equal(t, "USD", item.Currency)
	assert.Equal(t, "1.5", item.Quantity)
	assert.Equal(t, syncstate.StatusPending, item.Sync.Status)

	t.Run("duplicate sku in same tenant", func(t *testing.T) {
		_, err := svc.CreateItem(ctx, tenantID, CreateItemRequest{SKU: "CONS-1", Name: "Again", UnitPrice: decimal.NewFromInt(1)})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("duplicate sku differing only in case", func(t *testing.T) {
		_, err := svc.CreateItem(ctx, tenantID, CreateItemRequest{SKU: " cons-1", Name: "Again", UnitPrice: decimal.NewFromInt(1)})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("price beyond storage precision", func(t *testing.T) {
		_, err := svc.CreateItem(ctx, tenantID, CreateItemRequest{Name: "Fine", UnitPrice: decimal.RequireFromString("10.123456")})
		assert.Equal(t, shared.CodeMoneyPrecision, shared.ErrorCode(err))
	})

	t.Run("same sku in another tenant", func(t *testing.T) {
		_, err := svc.CreateItem(ctx, otherID, CreateItemRequest{SKU: "CONS-1", Name: "Theirs", UnitPrice: decimal.NewFromInt(1)})
		assert.NoError(t, err)
	})

	t.Run("items without sku do not collide", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			_, err := svc.CreateItem(ctx, tenantID, CreateItemRequest{Name: "Misc", UnitPrice: decimal.NewFromInt(5)})
			require.NoError(t, err)
		}
	})

	t.Run("negative price", func(t *testing.T) {
		_, err := svc.CreateItem(ctx, tenantID, CreateItemRequest{Name: "Bad", UnitPrice: decimal.NewFromInt(-1)})
		assert.Equal(t, "INVALID_PRICE", shared.ErrorCode(err))
	})

	t.Run("unknown currency", func(t *testing.T) {
		_, err := svc.CreateItem(ctx, tenantID, CreateItemRequest{Name: "Bad", UnitPrice: decimal.NewFromInt(1), Currency: "XXZ"})
		assert.Equal(t, shared.CodeInvalidInput, shared.ErrorCode(err))
	})
}

func TestItemIsolation(t *testing.T) {
	svc, tenantID, otherID := newService(t)
	ctx := context.Background()
	item, err := svc.CreateItem(ctx, tenantID, CreateItemRequest{Name: "Widget", UnitPrice: decimal.NewFromInt(3)})
	require.NoError(t, err)

	_, err = svc.GetItem(ctx, otherID, item.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.UpdateItem(ctx, otherID, item.ID, UpdateItemRequest{Name: ptr("Stolen")})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	list, err := svc.ListItems(ctx, otherID, ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list.Items)
}

func TestUpdateItem_MarksPendingAndBumpsVersion(t *testing.T) {
	svc, tenantID, _ := newService(t)
	ctx := context.Background()
	item, err := svc.CreateItem(ctx, tenantID, CreateItemRequest{Name: "Widget", UnitPrice: decimal.NewFromInt(3)})
	require.NoError(t, err)

	updated, err := svc.UpdateItem(ctx, tenantID, item.ID, UpdateItemRequest{
		UnitPrice: ptr(decimal.RequireFromString("3.25")),
		Quantity:  ptr(decimal.RequireFromString("0.5")),
	})
	require.NoError(t, err)

	assert.Equal(t, "3.25", updated.UnitPrice)
	assert.Equal(t, "Widget", updated.Name)
	assert.Greater(t, updated.Version, item.Version)
	assert.Greater(t, updated.Sync.LocalVersion, item.Sync.LocalVersion)

	same, err := svc.UpdateItem(ctx, tenantID, item.ID, UpdateItemRequest{})
	require.NoError(t, err)
	assert.Equal(t, updated.Version, same.Version)
}

func TestCustomersAndVendors(t *testing.T) {
	svc, tenantID, otherID := newService(t)
	ctx := context.Background()

	c, err := svc.CreateCustomer(ctx, tenantID, ContactRequest{Name: "Globex", Email: "AP@Globex.Example"})
	require.NoError(t, err)
	assert.Equal(t, "ap@globex.example", c.Email)

	c, err = svc.UpdateCustomer(ctx, tenantID, c.ID, ContactRequest{Name: "Globex Corp", Phone: "555-0100"})
	require.NoError(t, err)
	assert.Equal(t, "Globex Corp", c.Name)

	_, err = svc.GetCustomer(ctx, otherID, c.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	v, err := svc.CreateVendor(ctx, tenantID, ContactRequest{Name: "Initech"})
	require.NoError(t, err)
	got, err := svc.GetVendor(ctx, tenantID, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Initech", got.Name)

	vendors, err := svc.ListVendors(ctx, tenantID, ListFilter{Search: "init"})
	require.NoError(t, err)
	assert.Len(t, vendors.Items, 1)

	_, err = svc.CreateVendor(ctx, tenantID, ContactRequest{Name: "  "})
	assert.Equal(t, "INVALID_NAME", shared.ErrorCode(err))
}

func TestPackages(t *testing.T) {
	svc, tenantID, otherID := newService(t)
	ctx := context.Background()

	pro, err := svc.CreatePackage(ctx, tenantID, CreatePackageRequest{
		Tier: catalog.TierPro, Name: "Pro monthly", Price: decimal.NewFromInt(49), DurationDays: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, "49.00", pro.Price)
	assert.Contains(t, pro.Capabilities, catalog.CapVendors)
	assert.Contains(t, pro.Capabilities, catalog.CapPaymentGateway)
	assert.NotContains(t, pro.Capabilities, catalog.CapSSO)

	tests := []struct {
		name string
		req  CreatePackageRequest
		code string
	}{
		{"same tier", CreatePackageRequest{Tier: catalog.TierPro, Name: "Pro yearly", Price: decimal.NewFromInt(490), DurationDays: 365}, shared.CodeAlreadyExists},
		{"same name", CreatePackageRequest{Tier: catalog.TierBasic, Name: "Pro monthly", Price: decimal.NewFromInt(9), DurationDays: 30}, shared.CodeAlreadyExists},
		{"zero duration", CreatePackageRequest{Tier: catalog.TierFree, Name: "Free", Price: decimal.Zero, DurationDays: 0}, "INVALID_DURATION"},
		{"unknown tier", CreatePackageRequest{Tier: "Gold", Name: "Gold", Price: decimal.NewFromInt(1), DurationDays: 30}, "INVALID_TIER"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePackage(ctx, tenantID, tt.req)
			assert.Equal(t, tt.code, shared.ErrorCode(err))
		})
	}

	_, err = svc.CreatePackage(ctx, otherID, CreatePackageRequest{
		Tier: catalog.TierPro, Name: "Pro monthly", Price: decimal.NewFromInt(49), DurationDays: 30,
	})
	assert.NoError(t, err)

	repriced, err := svc.RepricePackage(ctx, tenantID, pro.ID, RepriceRequest{Price: decimal.NewFromInt(59)})
	require.NoError(t, err)
	assert.Equal(t, "59.00", repriced.Price)
}

func TestCapabilities(t *testing.T) {
	svc, _, _ := newService(t)

	free, err := svc.Capabilities(catalog.TierFree)
	require.NoError(t, err)
	enterprise, err := svc.Capabilities(catalog.TierEnterprise)
	require.NoError(t, err)
	assert.Subset(t, enterprise, free)

	_, err = svc.Capabilities("Gold")
	assert.Equal(t, shared.CodeInvalidInput, shared.ErrorCode(err))
}
