package identity

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==================== Tenant ====================

func TestNewTenant(t *testing.T) {
	t.Run("normalizes slug", func(t *testing.T) {
		tenant, err := NewTenant("  Acme-Co ", "Acme Co")
		require.NoError(t, err)
		assert.Equal(t, "acme-co", tenant.Slug)
		assert.Equal(t, tenant.ID, tenant.GetTenantID())
		assert.JSONEq(t, "{}", string(tenant.Settings))
		require.Len(t, tenant.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeTenantCreated, tenant.GetDomainEvents()[0].EventType())
	})

	t.Run("rejects invalid slug", func(t *testing.T) {
		_, err := NewTenant("a b", "Acme")
		assert.Error(t, err)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewTenant("acme", " ")
		assert.Error(t, err)
	})
}

func TestTenantSettings(t *testing.T) {
	tenant, err := NewTenant("acme", "Acme")
	require.NoError(t, err)
	assert.Equal(t, valueobject.DefaultCurrency, tenant.BillingCurrency())

	require.NoError(t, tenant.UpdateSettings(json.RawMessage(`{"currency":"EUR","tax_rate":"0.08","theme":"dark"}`)))
	b, err := tenant.Billing()
	require.NoError(t, err)
	assert.Equal(t, "EUR", b.Currency)
	assert.Equal(t, "0.08", b.TaxRate.String())
	assert.Equal(t, valueobject.EUR, tenant.BillingCurrency())

	assert.Error(t, tenant.UpdateSettings(json.RawMessage(`[1,2]`)))
	assert.Error(t, tenant.UpdateSettings(json.RawMessage(`{"currency":"NOPE"}`)))
	assert.Error(t, tenant.UpdateSettings(json.RawMessage(`{"tax_rate":"-1"}`)))
}

func TestTenantSoftDelete(t *testing.T) {
	tenant, err := NewTenant("acme", "Acme")
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, tenant.SoftDelete(now))
	assert.True(t, tenant.IsDeleted())
	assert.Equal(t, 2, tenant.GetVersion())

	err = tenant.SoftDelete(now)
	assert.True(t, errors.Is(err, shared.ErrInvalidStateTransition))
	assert.Error(t, tenant.UpdateSettings(json.RawMessage(`{}`)))
}

// ==================== User ====================

func TestNewUser(t *testing.T) {
	tenantID := uuid.New()

	t.Run("tenant user", func(t *testing.T) {
		u, err := NewUser(&tenantID, "Jane@Example.com", "Jane", RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, "jane@example.com", u.Email)
		assert.True(t, u.IsActive)
		assert.True(t, u.CanAccessTenant(tenantID))
		assert.False(t, u.CanAccessTenant(uuid.New()))
	})

	t.Run("platform admin without tenant", func(t *testing.T) {
		u, err := NewUser(nil, "root@example.com", "Root", RoleSuperAdmin)
		require.NoError(t, err)
		assert.True(t, u.CanAccessTenant(uuid.New()))
	})

	t.Run("regular user requires tenant", func(t *testing.T) {
		_, err := NewUser(nil, "u@example.com", "U", RoleUser)
		assert.Error(t, err)
	})

	t.Run("invalid role and email", func(t *testing.T) {
		_, err := NewUser(&tenantID, "u@example.com", "U", Role("Owner"))
		assert.Error(t, err)
		_, err = NewUser(&tenantID, "not-an-email", "U", RoleUser)
		assert.Error(t, err)
	})

	t.Run("inactive user has no access", func(t *testing.T) {
		u, err := NewUser(&tenantID, "u@example.com", "U", RoleUser)
		require.NoError(t, err)
		u.Deactivate()
		assert.False(t, u.CanAccessTenant(tenantID))
		u.Activate()
		assert.True(t, u.CanAccessTenant(tenantID))
	})
}

func TestUserPassword(t *testing.T) {
	tenantID := uuid.New()
	u, err := NewUser(&tenantID, "u@example.com", "U", RoleUser)
	require.NoError(t, err)

	assert.False(t, u.CheckPassword("anything"))
	assert.Error(t, u.SetPassword("short"))

	require.NoError(t, u.SetPassword("correct horse"))
	assert.NotEqual(t, "correct horse", u.PasswordHash)
	assert.True(t, u.CheckPassword("correct horse"))
	assert.False(t, u.CheckPassword("wrong horse"))
}

// ==================== Session ====================

func TestSession(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s, err := NewSession(uuid.New(), uuid.New(), time.Hour, now)
	require.NoError(t, err)

	assert.False(t, s.IsExpired(now))
	assert.False(t, s.IsExpired(now.Add(59*time.Minute)))
	assert.True(t, s.IsExpired(now.Add(time.Hour)))

	_, err = NewSession(uuid.New(), uuid.New(), 0, now)
	assert.Error(t, err)
}
