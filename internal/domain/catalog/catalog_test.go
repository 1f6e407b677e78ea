package catalog

import (
	"testing"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared/valueobject"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/syncstate"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==================== Item ====================

func TestNewItem(t *testing.T) {
	tenantID := uuid.New()
	price := valueobject.MustMoney("19.99", valueobject.USD)

	t.Run("valid item with fractional quantity", func(t *testing.T) {
		item, err := NewItem(tenantID, " ab-1 ", "Consulting", price, decimal.RequireFromString("1.5"))
		require.NoError(t, err)
		assert.Equal(t, "AB-1", item.SKU)
		assert.True(t, item.HasSKU())
		assert.Equal(t, tenantID, item.GetTenantID())
		assert.Equal(t, syncstate.StatusPending, item.Sync.Status)
	})

	t.Run("sku is optional", func(t *testing.T) {
		item, err := NewItem(tenantID, "", "Hours", price, decimal.NewFromInt(1))
		require.NoError(t, err)
		assert.False(t, item.HasSKU())
	})

	t.Run("validation", func(t *testing.T) {
		_, err := NewItem(tenantID, "", "", price, decimal.NewFromInt(1))
		assert.Error(t, err)
		_, err = NewItem(tenantID, "", "X", price.Negate(), decimal.NewFromInt(1))
		assert.Error(t, err)
		_, err = NewItem(tenantID, "", "X", price, decimal.NewFromInt(-1))
		assert.Error(t, err)
	})

	t.Run("quantity beyond four decimals", func(t *testing.T) {
		_, err := NewItem(tenantID, "", "X", price, decimal.RequireFromString("1.23456789"))
		assert.ErrorIs(t, err, valueobject.ErrMoneyPrecision)
	})
}

func TestNormalizeSKU(t *testing.T) {
	assert.Equal(t, "ABC-1", NormalizeSKU("  abc-1 "))
	assert.Equal(t, "", NormalizeSKU("   "))
}

func TestItemMutationsMarkPending(t *testing.T) {
	item, err := NewItem(uuid.New(), "", "Widget", valueobject.MustMoney("5.00", valueobject.USD), decimal.NewFromInt(1))
	require.NoError(t, err)
	require.NoError(t, item.Sync.MarkSynced(1, item.CreatedAt))

	require.NoError(t, item.SetUnitPrice(valueobject.MustMoney("6.00", valueobject.USD)))
	assert.Equal(t, syncstate.StatusPending, item.Sync.Status)
	assert.Equal(t, 2, item.GetVersion())
	assert.True(t, item.UnitPrice.Equals(valueobject.MustMoney("6", valueobject.USD)))

	require.NoError(t, item.Update("Widget XL", "bigger"))
	require.NoError(t, item.SetQuantity(decimal.NewFromInt(3)))
	assert.Equal(t, 4, item.GetVersion())
	assert.Error(t, item.SetQuantity(decimal.NewFromInt(-3)))
	assert.ErrorIs(t, item.SetQuantity(decimal.RequireFromString("0.00001")), valueobject.ErrMoneyPrecision)
	assert.Equal(t, 4, item.GetVersion())
}

// ==================== Customer / Vendor ====================

func TestCustomerAndVendor(t *testing.T) {
	tenantID := uuid.New()

	c, err := NewCustomer(tenantID, Contact{Name: " Globex ", Email: "Billing@Globex.com"})
	require.NoError(t, err)
	assert.Equal(t, "Globex", c.Name)
	assert.Equal(t, "billing@globex.com", c.Email)

	_, err = NewCustomer(tenantID, Contact{Name: "X", Email: "nope"})
	assert.Error(t, err)

	v, err := NewVendor(tenantID, Contact{Name: "Initech"})
	require.NoError(t, err)
	require.NoError(t, v.Update(Contact{Name: "Initech LLC", Phone: "555"}))
	assert.Equal(t, "Initech LLC", v.Name)
	assert.Equal(t, 2, v.GetVersion())
	assert.Error(t, v.Update(Contact{}))
}

// ==================== Package & capabilities ====================

func TestNewPackage(t *testing.T) {
	tenantID := uuid.New()
	price := valueobject.MustMoney("29.00", valueobject.USD)

	p, err := NewPackage(tenantID, TierPro, "Pro Monthly", price, 30)
	require.NoError(t, err)
	assert.Equal(t, 30, p.DurationDays)
	assert.True(t, p.HasCapability(CapAuditLog))
	assert.False(t, p.HasCapability(CapSSO))

	_, err = NewPackage(tenantID, Tier("Gold"), "Gold", price, 30)
	assert.Error(t, err)
	_, err = NewPackage(tenantID, TierPro, "Pro", price, 0)
	assert.Error(t, err)
}

func TestCapabilitiesAreCumulative(t *testing.T) {
	ordered := []Tier{TierFree, TierBasic, TierPro, TierEnterprise}
	for i := 1; i < len(ordered); i++ {
		lower, higher := ordered[i-1], ordered[i]
		for _, c := range Capabilities(lower) {
			assert.True(t, HasCapability(higher, c), "%s should include %s from %s", higher, c, lower)
		}
		assert.Greater(t, len(Capabilities(higher)), len(Capabilities(lower)))
		assert.Greater(t, higher.Rank(), lower.Rank())
	}

	assert.True(t, HasCapability(TierFree, CapInvoicing))
	assert.False(t, HasCapability(TierFree, CapVendors))
	assert.True(t, HasCapability(TierEnterprise, CapInvoicing))
	assert.False(t, HasCapability(Tier("Unknown"), CapInvoicing))
}
