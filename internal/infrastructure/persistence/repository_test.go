package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/tx"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/audit"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/catalog"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/identity"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/ledger"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared/valueobject"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/subscription"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/syncstate"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB opens a single-connection in-memory sqlite database so every
// statement, including those in transactions, sees the same schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), GormConfig(nil))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	require.NoError(t, tenant.Guard(db))
	return db
}

func usd(s string) valueobject.Money {
	return valueobject.MustMoney(s, valueobject.USD)
}

func saveCustomer(t *testing.T, db *gorm.DB, tenantID uuid.UUID) *catalog.Customer {
	t.Helper()
	c, err := catalog.NewCustomer(tenantID, catalog.Contact{Name: "Globex", Email: "billing@globex.test"})
	require.NoError(t, err)
	require.NoError(t, NewGormCustomerRepository(db).Save(context.Background(), c))
	return c
}

func saveItem(t *testing.T, db *gorm.DB, tenantID uuid.UUID, sku, price string) *catalog.Item {
	t.Helper()
	item, err := catalog.NewItem(tenantID, sku, "Consulting "+sku, usd(price), decimal.NewFromInt(10))
	require.NoError(t, err)
	require.NoError(t, NewGormItemRepository(db).Save(context.Background(), item))
	return item
}

func newDraftInvoice(t *testing.T, db *gorm.DB, tenantID uuid.UUID, seq int64) *ledger.Invoice {
	t.Helper()
	customer := saveCustomer(t, db, tenantID)
	inv, err := ledger.NewInvoice(tenantID, customer, ledger.FormatInvoiceNumber("INV", seq), seq, valueobject.USD, time.Now().UTC())
	require.NoError(t, err)
	_, err = inv.AddItem(saveItem(t, db, tenantID, "", "40.00"), decimal.NewFromInt(2))
	require.NoError(t, err)
	_, err = inv.AddItem(saveItem(t, db, tenantID, "", "20.00"), decimal.NewFromInt(1))
	require.NoError(t, err)
	require.NoError(t, inv.ApplyTax(usd("8.00")))
	return inv
}

// ==================== Catalog ====================

func TestGormItemRepository_SaveAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormItemRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	item := saveItem(t, db, tenantID, "SKU-1", "12.50")
	assert.Equal(t, item.Version, item.StoredVersion)

	found, err := repo.FindByID(ctx, tenantID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "SKU-1", found.SKU)
	assert.True(t, found.UnitPrice.Equals(usd("12.50")))
	assert.True(t, found.Quantity.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, syncstate.StatusPending, found.Sync.Status)

	exists, err := repo.ExistsBySKU(ctx, tenantID, "SKU-1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsBySKU(ctx, tenantID, " sku-1 ")
	require.NoError(t, err)
	assert.True(t, exists, "lookups use the stored SKU form")

	t.Run("other tenants cannot see it", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New(), item.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormItemRepository_SKUUniquePerTenant(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	tenantID := uuid.New()
	saveItem(t, db, tenantID, "SKU-1", "1.00")

	dup, err := catalog.NewItem(tenantID, "SKU-1", "Other", usd("2.00"), decimal.Zero)
	require.NoError(t, err)
	err = NewGormItemRepository(db).Save(ctx, dup)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	t.Run("same sku in another tenant is fine", func(t *testing.T) {
		saveItem(t, db, uuid.New(), "SKU-1", "1.00")
	})
	t.Run("items without sku never collide", func(t *testing.T) {
		saveItem(t, db, tenantID, "", "1.00")
		saveItem(t, db, tenantID, "", "1.00")
	})
}

func TestGormItemRepository_OptimisticLock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormItemRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	item := saveItem(t, db, tenantID, "", "5.00")

	first, err := repo.FindByID(ctx, tenantID, item.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, tenantID, item.ID)
	require.NoError(t, err)

	require.NoError(t, first.SetUnitPrice(usd("6.00")))
	require.NoError(t, repo.Save(ctx, first))

	require.NoError(t, second.SetUnitPrice(usd("7.00")))
	err = repo.Save(ctx, second)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

	stored, err := repo.FindByID(ctx, tenantID, item.ID)
	require.NoError(t, err)
	assert.True(t, stored.UnitPrice.Equals(usd("6.00")))
}

func TestGormItemRepository_FindAllAndSyncStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormItemRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	saveItem(t, db, tenantID, "A-1", "1.00")
	saveItem(t, db, tenantID, "B-1", "1.00")
	synced := saveItem(t, db, tenantID, "B-2", "1.00")
	saveItem(t, db, uuid.New(), "B-3", "1.00")

	items, total, err := repo.FindAll(ctx, tenantID, shared.Filter{Search: "b-", PageSize: 1, OrderBy: "sku", OrderDir: "asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 1)
	assert.Equal(t, "B-1", items[0].SKU)

	require.NoError(t, synced.Sync.MarkSynced(1, time.Now().UTC()))
	require.NoError(t, repo.Save(ctx, synced))

	pending, err := repo.FindBySyncStatus(ctx, tenantID, syncstate.StatusPending, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestGormPackageRepository_Uniqueness(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPackageRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	pkg, err := catalog.NewPackage(tenantID, catalog.TierPro, "Pro", usd("49.00"), 30)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, pkg))

	exists, err := repo.ExistsByTier(ctx, tenantID, catalog.TierPro)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.ExistsByName(ctx, tenantID, "Basic")
	require.NoError(t, err)
	assert.False(t, exists)

	dup, err := catalog.NewPackage(tenantID, catalog.TierPro, "Pro Plus", usd("59.00"), 30)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Save(ctx, dup), shared.ErrAlreadyExists)
}

// ==================== Invoices ====================

func TestGormInvoiceRepository_CreateAndLoad(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	seq, err := repo.NextSequence(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	inv := newDraftInvoice(t, db, tenantID, seq)
	require.NoError(t, repo.Create(ctx, inv))

	seq, err = repo.NextSequence(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq)

	loaded, err := repo.FindByID(ctx, tenantID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "INV-000001", loaded.InvoiceNumber)
	assert.Equal(t, ledger.InvoiceStatusDraft, loaded.Status)
	require.Len(t, loaded.Items, 2)
	assert.Equal(t, 1, loaded.Items[0].Position)
	assert.True(t, loaded.Items[0].LineTotal.Equals(usd("80.00")))
	assert.True(t, loaded.Total.Equals(usd("108.00")))
	assert.True(t, loaded.BalanceDue.Equals(usd("108.00")))
	assert.Equal(t, inv.Version, loaded.StoredVersion)
	require.NoError(t, loaded.CheckInvariants())
}

func TestGormInvoiceRepository_NumberTaken(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	require.NoError(t, repo.Create(ctx, newDraftInvoice(t, db, tenantID, 1)))
	err := repo.Create(ctx, newDraftInvoice(t, db, tenantID, 1))
	assert.ErrorIs(t, err, ledger.ErrInvoiceNumberTaken)

	require.NoError(t, repo.Create(ctx, newDraftInvoice(t, db, uuid.New(), 1)))
}

func TestGormInvoiceRepository_PaymentsAndLock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	now := time.Now().UTC()

	inv := newDraftInvoice(t, db, tenantID, 1)
	require.NoError(t, inv.Send(now))
	require.NoError(t, repo.Create(ctx, inv))

	a, err := repo.FindByID(ctx, tenantID, inv.ID)
	require.NoError(t, err)
	b, err := repo.FindByID(ctx, tenantID, inv.ID)
	require.NoError(t, err)

	payment, _, err := a.RecordPayment(usd("50.00"), ledger.PaymentMethodCash, "R1", ledger.AllowOverpayment, now)
	require.NoError(t, err)
	require.NoError(t, repo.SaveWithLock(ctx, a))

	_, _, err = b.RecordPayment(usd("10.00"), ledger.PaymentMethodCash, "R2", ledger.AllowOverpayment, now)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.SaveWithLock(ctx, b), shared.ErrConcurrencyConflict)

	loaded, err := repo.FindByPaymentID(ctx, tenantID, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.InvoiceStatusPartiallyPaid, loaded.Status)
	require.Len(t, loaded.Payments, 1)
	assert.Equal(t, "R1", loaded.Payments[0].Reference)
	assert.True(t, loaded.BalanceDue.Equals(usd("58.00")))

	t.Run("void updates the stored payment", func(t *testing.T) {
		changed, err := loaded.VoidPayment(payment.ID, "chargeback", now)
		require.NoError(t, err)
		require.True(t, changed)
		require.NoError(t, repo.SaveWithLock(ctx, loaded))

		again, err := repo.FindByID(ctx, tenantID, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, ledger.PaymentStatusRefunded, again.Payments[0].Status)
		assert.Equal(t, ledger.InvoiceStatusSent, again.Status)
	})

	t.Run("reference unique per invoice in storage", func(t *testing.T) {
		current, err := repo.FindByID(ctx, tenantID, inv.ID)
		require.NoError(t, err)
		dup := current.Payments[0]
		dup.TenantEntity = shared.NewTenantEntity(tenantID)
		current.Payments = append(current.Payments, dup)
		assert.ErrorIs(t, repo.SaveWithLock(ctx, current), shared.ErrDuplicatePaymentReference)
	})

	t.Run("unknown payment", func(t *testing.T) {
		_, err := repo.FindByPaymentID(ctx, tenantID, uuid.New())
		assert.ErrorIs(t, err, ledger.ErrPaymentNotFound)
	})
}

func TestGormInvoiceRepository_FindAllAndDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	draft := newDraftInvoice(t, db, tenantID, 1)
	require.NoError(t, repo.Create(ctx, draft))
	sent := newDraftInvoice(t, db, tenantID, 2)
	require.NoError(t, sent.Send(time.Now().UTC()))
	require.NoError(t, repo.Create(ctx, sent))

	list, total, err := repo.FindAll(ctx, tenantID, ledger.InvoiceFilter{Filter: shared.DefaultFilter(), Status: ledger.InvoiceStatusSent})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, sent.ID, list[0].ID)
	assert.Len(t, list[0].Items, 2)

	require.NoError(t, repo.Delete(ctx, tenantID, draft.ID))
	_, err = repo.FindByID(ctx, tenantID, draft.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, tenantID, draft.ID), shared.ErrNotFound)
}

// ==================== Subscriptions ====================

func TestGormSubscriptionRepository_OneCurrentPerTenant(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSubscriptionRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	now := time.Now().UTC()

	pkg, err := catalog.NewPackage(tenantID, catalog.TierBasic, "Basic", usd("10.00"), 30)
	require.NoError(t, err)

	first, err := subscription.Start(tenantID, pkg, 1, 0, true, now)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, first))

	second, err := subscription.Start(tenantID, pkg, 1, 0, true, now)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Create(ctx, second), shared.ErrSubscriptionExists)

	current, err := repo.FindCurrent(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, current.ID)

	require.NoError(t, current.Cancel("downgrade", now))
	require.NoError(t, repo.SaveWithLock(ctx, current))
	require.NoError(t, repo.Create(ctx, second))

	history, err := repo.FindByTenant(ctx, tenantID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestGormSubscriptionRepository_FindDue(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSubscriptionRepository(db)
	ctx := context.Background()
	start := time.Now().UTC().Add(-40 * 24 * time.Hour)

	for i := 0; i < 2; i++ {
		tenantID := uuid.New()
		pkg, err := catalog.NewPackage(tenantID, catalog.TierBasic, "Basic", usd("10.00"), 30)
		require.NoError(t, err)
		s, err := subscription.Start(tenantID, pkg, 1, 0, false, start)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, s))
	}
	freshTenant := uuid.New()
	pkg, err := catalog.NewPackage(freshTenant, catalog.TierBasic, "Basic", usd("10.00"), 30)
	require.NoError(t, err)
	fresh, err := subscription.Start(freshTenant, pkg, 1, 0, false, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, fresh))

	due, err := repo.FindDue(ctx, time.Now().UTC(), 10)
	require.NoError(t, err)
	assert.Len(t, due, 2)
}

// ==================== Identity & audit ====================

func TestGormTenantRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormTenantRepository(db)
	ctx := context.Background()

	tn, err := identity.NewTenant("acme", "Acme Inc")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, tn))

	locked, err := repo.LockForUpdate(ctx, tn.ID)
	require.NoError(t, err)
	assert.Equal(t, "acme", locked.Slug)

	require.NoError(t, locked.SoftDelete(time.Now().UTC()))
	require.NoError(t, repo.Save(ctx, locked))

	_, err = repo.FindBySlug(ctx, "acme")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	exists, err := repo.ExistsBySlug(ctx, "ACME")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestGormSessionRepository_DeleteExpired(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSessionRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	old, err := identity.NewSession(uuid.New(), uuid.New(), time.Minute, now.Add(-time.Hour))
	require.NoError(t, err)
	live, err := identity.NewSession(uuid.New(), uuid.New(), time.Hour, now)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, old))
	require.NoError(t, repo.Save(ctx, live))

	n, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.FindByID(ctx, live.ID)
	assert.NoError(t, err)
}

func TestGormAuditRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormAuditRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	entityID := uuid.New()

	first, err := audit.NewLog(&tenantID, nil, "", "InvoiceSent", map[string]string{"number": "INV-000001"}, "10.0.0.1", time.Now().UTC())
	require.NoError(t, err)
	first.ForEntity("invoice", entityID)
	second, err := audit.NewLog(&tenantID, nil, "", "PaymentRecorded", nil, "", time.Now().UTC())
	require.NoError(t, err)
	system, err := audit.NewLog(nil, nil, "", "SweepFinished", nil, "", time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, first, second, system))

	logs, total, err := repo.FindByTenant(ctx, tenantID, audit.Filter{Filter: shared.DefaultFilter(), EntityID: &entityID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, logs, 1)
	assert.Equal(t, audit.SystemActor, logs[0].Actor)
	assert.JSONEq(t, `{"number":"INV-000001"}`, string(logs[0].Meta))
}

// ==================== Transaction scope ====================

func TestGormTransactionScope_RollsBack(t *testing.T) {
	db := setupTestDB(t)
	scope := NewGormTransactionScope(db)
	ctx := context.Background()
	tenantID := uuid.New()

	var itemID uuid.UUID
	err := scope.Execute(ctx, func(repos tx.Repositories) error {
		item, err := catalog.NewItem(tenantID, "TX-1", "Widget", usd("1.00"), decimal.Zero)
		require.NoError(t, err)
		itemID = item.ID
		if err := repos.Items().Save(ctx, item); err != nil {
			return err
		}
		return shared.ErrInvalidStateTransition
	})
	assert.ErrorIs(t, err, shared.ErrInvalidStateTransition)

	_, err = NewGormItemRepository(db).FindByID(ctx, tenantID, itemID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormTransactionScope_Commits(t *testing.T) {
	db := setupTestDB(t)
	scope := NewGormTransactionScope(db)
	ctx := context.Background()
	tenantID := uuid.New()

	var invoiceID uuid.UUID
	err := scope.Execute(ctx, func(repos tx.Repositories) error {
		inv := newDraftInvoiceIn(t, ctx, repos, tenantID)
		invoiceID = inv.ID
		return repos.Invoices().Create(ctx, inv)
	})
	require.NoError(t, err)

	_, err = NewGormInvoiceRepository(db).FindByID(ctx, tenantID, invoiceID)
	assert.NoError(t, err)
}

func newDraftInvoiceIn(t *testing.T, ctx context.Context, repos tx.Repositories, tenantID uuid.UUID) *ledger.Invoice {
	t.Helper()
	customer, err := catalog.NewCustomer(tenantID, catalog.Contact{Name: "Initech"})
	require.NoError(t, err)
	require.NoError(t, repos.Customers().Save(ctx, customer))
	inv, err := ledger.NewInvoice(tenantID, customer, "INV-000001", 1, valueobject.USD, time.Now().UTC())
	require.NoError(t, err)
	return inv
}
