package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	appaudit "github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/audit"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/tx"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/audit"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/catalog"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/identity"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/ledger"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/cache"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/lock"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/persistence"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/tax"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	ctx      context.Context
	db       *gorm.DB
	svc      *Service
	clock    *testutil.Clock
	tenant   *identity.Tenant
	customer *catalog.Customer
	consult  *catalog.Item
	support  *catalog.Item
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	tn := testutil.SeedTenant(t, db, "acme", "0.08")
	calc, err := tax.NewFlatRateCalculator(nil)
	require.NoError(t, err)

	clock := testutil.NewClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	recorder := appaudit.NewRecorder(persistence.NewGormAuditRepository(db), false, nil, zap.NewNop())
	svc := NewService(
		persistence.NewGormTransactionScope(db),
		persistence.NewRepositories(db),
		lock.NewMemoryLocker(),
		calc,
		recorder,
		nil,
		cfg,
	)
	svc.SetClock(clock.Now)

	return &fixture{
		ctx:      context.Background(),
		db:       db,
		svc:      svc,
		clock:    clock,
		tenant:   tn,
		customer: testutil.SeedCustomer(t, db, tn.ID, "Globex"),
		consult:  testutil.SeedItem(t, db, tn.ID, "CONSULT", "40.00"),
		support:  testutil.SeedItem(t, db, tn.ID, "SUPPORT", "20.00"),
	}
}

// sentInvoice drafts 2 x 40.00 + 1 x 20.00 with 8% tax (total 108.00) and sends it
func (f *fixture) sentInvoice(t *testing.T) *InvoiceResponse {
	t.Helper()
	inv, err := f.svc.Create(f.ctx, f.tenant.ID, CreateInvoiceRequest{
		CustomerID: f.customer.ID,
		Lines: []LineRequest{
			{ItemID: f.consult.ID, Quantity: decimal.NewFromInt(2)},
			{ItemID: f.support.ID, Quantity: decimal.NewFromInt(1)},
		},
	})
	require.NoError(t, err)
	sent, err := f.svc.Send(f.ctx, f.tenant.ID, inv.ID)
	require.NoError(t, err)
	return sent
}

func (f *fixture) pay(t *testing.T, invoiceID uuid.UUID, amount, method, reference string) *PaymentResult {
	t.Helper()
	res, err := f.svc.RecordPayment(f.ctx, f.tenant.ID, invoiceID, RecordPaymentRequest{
		Amount:    decimal.RequireFromString(amount),
		Method:    method,
		Reference: reference,
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) auditActions(t *testing.T) []string {
	t.Helper()
	logs, _, err := persistence.NewGormAuditRepository(f.db).FindByTenant(f.ctx, f.tenant.ID, audit.Filter{
		Filter: shared.Filter{Page: 1, PageSize: 100, OrderBy: "created_at", OrderDir: "asc"},
	})
	require.NoError(t, err)
	actions := make([]string, len(logs))
	for i := range logs {
		actions[i] = logs[i].Action
	}
	return actions
}

func TestCreate_NumbersTotalsAndTax(t *testing.T) {
	f := newFixture(t, Config{MaxConflictRetries: 2})

	first := f.sentInvoice(t)
	second, err := f.svc.Create(f.ctx, f.tenant.ID, CreateInvoiceRequest{CustomerID: f.customer.ID})
	require.NoError(t, err)

	assert.Equal(t, "INV-000001", first.InvoiceNumber)
	assert.Equal(t, "INV-000002", second.InvoiceNumber)
	assert.Equal(t, "100.00", first.Subtotal)
	assert.Equal(t, "8.00", first.Tax)
	assert.Equal(t, "108.00", first.Total)
	assert.Equal(t, "108.00", first.BalanceDue)
	assert.Equal(t, ledger.InvoiceStatusSent, first.Status)
	assert.Len(t, first.Lines, 2)
	assert.Equal(t, "0.00", second.Total)
}

func TestCreate_UnknownCustomerOrItem(t *testing.T) {
	f := newFixture(t, Config{})

	_, err := f.svc.Create(f.ctx, f.tenant.ID, CreateInvoiceRequest{CustomerID: uuid.New()})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = f.svc.Create(f.ctx, f.tenant.ID, CreateInvoiceRequest{
		CustomerID: f.customer.ID,
		Lines:      []LineRequest{{ItemID: uuid.New(), Quantity: decimal.NewFromInt(1)}},
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreate_OtherTenantsCustomerIsNotVisible(t *testing.T) {
	f := newFixture(t, Config{})
	other := testutil.SeedTenant(t, f.db, "other", "0")
	foreign := testutil.SeedCustomer(t, f.db, other.ID, "Initech")

	_, err := f.svc.Create(f.ctx, f.tenant.ID, CreateInvoiceRequest{CustomerID: foreign.ID})

	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDraftEditing_RecomputesTax(t *testing.T) {
	f := newFixture(t, Config{})
	inv, err := f.svc.Create(f.ctx, f.tenant.ID, CreateInvoiceRequest{CustomerID: f.customer.ID})
	require.NoError(t, err)

	inv, err = f.svc.AddItem(f.ctx, f.tenant.ID, inv.ID, LineRequest{ItemID: f.consult.ID, Quantity: decimal.NewFromInt(1)})
	require.NoError(t, err)
	assert.Equal(t, "43.20", inv.Total)

	inv, err = f.svc.RemoveItem(f.ctx, f.tenant.ID, inv.ID, inv.Lines[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "0.00", inv.Total)
	assert.Empty(t, inv.Lines)
}

func TestPayments_PartialThenFull(t *testing.T) {
	f := newFixture(t, Config{MaxConflictRetries: 2})
	inv := f.sentInvoice(t)

	res := f.pay(t, inv.ID, "50.00", "cash", "R-1")
	assert.False(t, res.Duplicate)
	assert.Equal(t, ledger.InvoiceStatusPartiallyPaid, res.Invoice.Status)
	assert.Equal(t, "58.00", res.Invoice.BalanceDue)

	res = f.pay(t, inv.ID, "58.00", "CARD", "R-2")
	assert.Equal(t, ledger.InvoiceStatusPaid, res.Invoice.Status)
	assert.Equal(t, "0.00", res.Invoice.BalanceDue)
	assert.Equal(t, "108.00", res.Invoice.AmountPaid)

	assert.Contains(t, f.auditActions(t), ledger.EventTypePaymentRecorded)
}

func TestRecordPayment_DuplicateReferenceIsReplay(t *testing.T) {
	f := newFixture(t, Config{})
	inv := f.sentInvoice(t)

	first := f.pay(t, inv.ID, "50.00", "CASH", "R-1")
	again := f.pay(t, inv.ID, "50.00", "CASH", "R-1")

	assert.True(t, again.Duplicate)
	assert.Equal(t, first.Payment.ID, again.Payment.ID)
	assert.Equal(t, "58.00", again.Invoice.BalanceDue)
	assert.Len(t, again.Invoice.Payments, 1)
}

func TestRecordPayment_OverpaymentPolicy(t *testing.T) {
	t.Run("allowed by default", func(t *testing.T) {
		f := newFixture(t, Config{})
		inv := f.sentInvoice(t)

		res := f.pay(t, inv.ID, "120.00", "CASH", "")

		assert.Equal(t, ledger.InvoiceStatusPaid, res.Invoice.Status)
		assert.Equal(t, "-12.00", res.Invoice.BalanceDue)
	})

	t.Run("rejected in strict mode with state", func(t *testing.T) {
		f := newFixture(t, Config{StrictOverpayment: true})
		inv := f.sentInvoice(t)

		_, err := f.svc.RecordPayment(f.ctx, f.tenant.ID, inv.ID, RecordPaymentRequest{
			Amount: decimal.RequireFromString("120.00"),
			Method: "CASH",
		})

		require.ErrorIs(t, err, shared.ErrOverpaymentRejected)
		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		snap, ok := de.State.(ledger.InvoiceSnapshot)
		require.True(t, ok)
		assert.Equal(t, "108.00", snap.BalanceDue)
	})
}

func TestRecordPayment_DraftIsRejected(t *testing.T) {
	f := newFixture(t, Config{})
	inv, err := f.svc.Create(f.ctx, f.tenant.ID, CreateInvoiceRequest{CustomerID: f.customer.ID})
	require.NoError(t, err)

	_, err = f.svc.RecordPayment(f.ctx, f.tenant.ID, inv.ID, RecordPaymentRequest{
		Amount: decimal.NewFromInt(10),
		Method: "CASH",
	})

	assert.ErrorIs(t, err, shared.ErrInvalidStateTransition)
}

func TestRecordPayment_CurrencyMismatch(t *testing.T) {
	f := newFixture(t, Config{})
	inv := f.sentInvoice(t)

	_, err := f.svc.RecordPayment(f.ctx, f.tenant.ID, inv.ID, RecordPaymentRequest{
		Amount:   decimal.NewFromInt(10),
		Currency: "EUR",
		Method:   "CASH",
	})

	assert.Equal(t, shared.CodeCurrencyMismatch, shared.ErrorCode(err))
}

func TestRecordPayment_ConcurrentWritersAllApply(t *testing.T) {
	f := newFixture(t, Config{MaxConflictRetries: 3})
	inv := f.sentInvoice(t)

	const writers = 6
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.RecordPayment(f.ctx, f.tenant.ID, inv.ID, RecordPaymentRequest{
				Amount:    decimal.RequireFromString("10.00"),
				Method:    "CASH",
				Reference: "C-" + string(rune('a'+i)),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	got, err := f.svc.Get(f.ctx, f.tenant.ID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "60.00", got.AmountPaid)
	assert.Equal(t, "48.00", got.BalanceDue)
	assert.Len(t, got.Payments, writers)
}

func TestConfirmPayment_GatewayFlow(t *testing.T) {
	f := newFixture(t, Config{})
	inv := f.sentInvoice(t)

	pending := f.pay(t, inv.ID, "108.00", "CARD_GATEWAY", "G-1")
	require.Equal(t, ledger.PaymentStatusPending, pending.Payment.Status)
	assert.Equal(t, ledger.InvoiceStatusSent, pending.Invoice.Status)

	confirmed, err := f.svc.ConfirmPayment(f.ctx, f.tenant.ID, pending.Payment.ID, ConfirmPaymentRequest{Outcome: "COMPLETED"})
	require.NoError(t, err)
	assert.False(t, confirmed.Duplicate)
	assert.Equal(t, ledger.InvoiceStatusPaid, confirmed.Invoice.Status)

	replay, err := f.svc.ConfirmPayment(f.ctx, f.tenant.ID, pending.Payment.ID, ConfirmPaymentRequest{Outcome: "COMPLETED"})
	require.NoError(t, err)
	assert.True(t, replay.Duplicate)
	assert.Equal(t, confirmed.Invoice.Version, replay.Invoice.Version)

	_, err = f.svc.ConfirmPayment(f.ctx, f.tenant.ID, pending.Payment.ID, ConfirmPaymentRequest{Outcome: "FAILED"})
	assert.ErrorIs(t, err, shared.ErrInvalidStateTransition)
}

func TestRecordPayment_RetryAfterDeclinedGatewayCharge(t *testing.T) {
	f := newFixture(t, Config{})
	inv := f.sentInvoice(t)

	pending := f.pay(t, inv.ID, "108.00", "CARD_GATEWAY", "GW-1")
	declined, err := f.svc.ConfirmPayment(f.ctx, f.tenant.ID, pending.Payment.ID, ConfirmPaymentRequest{Outcome: "FAILED", Reason: "card declined"})
	require.NoError(t, err)
	require.Equal(t, ledger.PaymentStatusFailed, declined.Payment.Status)

	retry := f.pay(t, inv.ID, "108.00", "CARD", "GW-1")
	assert.False(t, retry.Duplicate)
	assert.Equal(t, ledger.PaymentStatusCompleted, retry.Payment.Status)
	assert.Equal(t, ledger.InvoiceStatusPaid, retry.Invoice.Status)

	got, err := f.svc.Get(f.ctx, f.tenant.ID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "108.00", got.AmountPaid)
	assert.Len(t, got.Payments, 2)
}

func TestConfirmPayment_UnknownPayment(t *testing.T) {
	f := newFixture(t, Config{})

	_, err := f.svc.ConfirmPayment(f.ctx, f.tenant.ID, uuid.New(), ConfirmPaymentRequest{Outcome: "COMPLETED"})

	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestVoidPayment_ReopensInvoice(t *testing.T) {
	f := newFixture(t, Config{})
	inv := f.sentInvoice(t)
	paid := f.pay(t, inv.ID, "108.00", "CASH", "R-1")
	require.Equal(t, ledger.InvoiceStatusPaid, paid.Invoice.Status)

	voided, err := f.svc.VoidPayment(f.ctx, f.tenant.ID, paid.Payment.ID, "chargeback")
	require.NoError(t, err)

	assert.Equal(t, ledger.PaymentStatusRefunded, voided.Payment.Status)
	assert.Equal(t, ledger.InvoiceStatusSent, voided.Invoice.Status)
	assert.Equal(t, "108.00", voided.Invoice.BalanceDue)

	again, err := f.svc.VoidPayment(f.ctx, f.tenant.ID, paid.Payment.ID, "chargeback")
	require.NoError(t, err)
	assert.True(t, again.Duplicate)
}

func TestCancel(t *testing.T) {
	t.Run("with payments is rejected", func(t *testing.T) {
		f := newFixture(t, Config{})
		inv := f.sentInvoice(t)
		f.pay(t, inv.ID, "10.00", "CASH", "")

		_, err := f.svc.Cancel(f.ctx, f.tenant.ID, inv.ID, "customer left")

		require.ErrorIs(t, err, shared.ErrInvalidStateTransition)
		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.NotNil(t, de.State)
	})

	t.Run("unpaid invoice freezes", func(t *testing.T) {
		f := newFixture(t, Config{})
		inv := f.sentInvoice(t)

		cancelled, err := f.svc.Cancel(f.ctx, f.tenant.ID, inv.ID, "duplicate")
		require.NoError(t, err)
		assert.Equal(t, ledger.InvoiceStatusCancelled, cancelled.Status)

		_, err = f.svc.RecordPayment(f.ctx, f.tenant.ID, inv.ID, RecordPaymentRequest{Amount: decimal.NewFromInt(1), Method: "CASH"})
		assert.ErrorIs(t, err, shared.ErrInvalidStateTransition)
	})
}

func TestDelete(t *testing.T) {
	f := newFixture(t, Config{})
	draft, err := f.svc.Create(f.ctx, f.tenant.ID, CreateInvoiceRequest{CustomerID: f.customer.ID})
	require.NoError(t, err)
	sent := f.sentInvoice(t)

	require.NoError(t, f.svc.Delete(f.ctx, f.tenant.ID, draft.ID))
	_, err = f.svc.Get(f.ctx, f.tenant.ID, draft.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	assert.ErrorIs(t, f.svc.Delete(f.ctx, f.tenant.ID, sent.ID), shared.ErrInvalidStateTransition)
	assert.Contains(t, f.auditActions(t), ledger.EventTypeInvoiceDeleted)
}

func TestList_FiltersByStatus(t *testing.T) {
	f := newFixture(t, Config{})
	f.sentInvoice(t)
	_, err := f.svc.Create(f.ctx, f.tenant.ID, CreateInvoiceRequest{CustomerID: f.customer.ID})
	require.NoError(t, err)

	all, err := f.svc.List(f.ctx, f.tenant.ID, ListInvoicesFilter{})
	require.NoError(t, err)
	drafts, err := f.svc.List(f.ctx, f.tenant.ID, ListInvoicesFilter{Status: "DRAFT"})
	require.NoError(t, err)

	assert.Equal(t, int64(2), all.Total)
	assert.Equal(t, int64(1), drafts.Total)
	assert.Equal(t, ledger.InvoiceStatusDraft, drafts.Items[0].Status)
}

// flakyScope makes the first N invoice saves lose the optimistic lock
type flakyScope struct {
	inner    tx.Scope
	failures int
	attempts int
}

func (s *flakyScope) Execute(ctx context.Context, fn func(repos tx.Repositories) error) error {
	return s.inner.Execute(ctx, func(repos tx.Repositories) error {
		return fn(flakyRepos{Repositories: repos, scope: s})
	})
}

type flakyRepos struct {
	tx.Repositories
	scope *flakyScope
}

func (r flakyRepos) Invoices() ledger.InvoiceRepository {
	return flakyInvoices{InvoiceRepository: r.Repositories.Invoices(), scope: r.scope}
}

type flakyInvoices struct {
	ledger.InvoiceRepository
	scope *flakyScope
}

func (r flakyInvoices) SaveWithLock(ctx context.Context, inv *ledger.Invoice) error {
	r.scope.attempts++
	if r.scope.attempts <= r.scope.failures {
		return shared.ErrConcurrencyConflict
	}
	return r.InvoiceRepository.SaveWithLock(ctx, inv)
}

func TestMutate_RetriesVersionConflicts(t *testing.T) {
	f := newFixture(t, Config{MaxConflictRetries: 2})
	inv := f.sentInvoice(t)
	flaky := &flakyScope{inner: f.svc.scope, failures: 2}
	f.svc.scope = flaky

	res := f.pay(t, inv.ID, "8.00", "CASH", "")

	assert.Equal(t, 3, flaky.attempts)
	assert.Equal(t, "100.00", res.Invoice.BalanceDue)
}

func TestMutate_ConflictAfterRetriesCarriesState(t *testing.T) {
	f := newFixture(t, Config{MaxConflictRetries: 1})
	inv := f.sentInvoice(t)
	flaky := &flakyScope{inner: f.svc.scope, failures: 5}
	f.svc.scope = flaky

	_, err := f.svc.RecordPayment(f.ctx, f.tenant.ID, inv.ID, RecordPaymentRequest{Amount: decimal.NewFromInt(8), Method: "CASH"})

	require.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.Equal(t, 2, flaky.attempts)
	var de *shared.DomainError
	require.True(t, errors.As(err, &de))
	snap, ok := de.State.(ledger.InvoiceSnapshot)
	require.True(t, ok)
	assert.Equal(t, "108.00", snap.BalanceDue)

	got, err := f.svc.Get(f.ctx, f.tenant.ID, inv.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Payments)
}

func TestWebhook_ProcessesEachEventOnce(t *testing.T) {
	f := newFixture(t, Config{})
	inv := f.sentInvoice(t)
	pending := f.pay(t, inv.ID, "108.00", "BANK_TRANSFER", "WIRE-1")
	store := cache.NewMemoryIdempotencyStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })
	hooks := NewWebhookProcessor(f.svc, store, time.Hour, nil)

	ev := GatewayEvent{EventID: "evt_1", TenantID: f.tenant.ID, PaymentID: pending.Payment.ID, Outcome: "COMPLETED"}
	res, err := hooks.Process(f.ctx, ev)
	require.NoError(t, err)
	assert.Equal(t, ledger.InvoiceStatusPaid, res.Invoice.Status)

	res, err = hooks.Process(f.ctx, ev)
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.Nil(t, res.Invoice)

	_, err = hooks.Process(f.ctx, GatewayEvent{EventID: "evt_2", TenantID: f.tenant.ID, PaymentID: pending.Payment.ID, Outcome: "FAILED"})
	assert.ErrorIs(t, err, shared.ErrInvalidStateTransition)
	processed, err := store.IsProcessed(f.ctx, webhookKeyPrefix+"evt_2")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestTransient(t *testing.T) {
	assert.True(t, transient(errors.New("connection reset")))
	assert.True(t, transient(shared.ErrConcurrencyConflict))
	assert.True(t, transient(shared.ErrPersistenceUnavailable))
	assert.False(t, transient(shared.ErrInvalidStateTransition))
	assert.False(t, transient(shared.ErrNotFound))
}
