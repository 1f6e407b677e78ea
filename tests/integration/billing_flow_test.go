package integration

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/audit"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/ledger"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/subscription"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/catalog"
	domainledger "github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/ledger"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/lock"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/persistence"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/tax"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type services struct {
	ledger       *ledger.Service
	subscription *subscription.Service
}

// newServices wires the services the way the server does, with a
// process-local locker so row versions do the real arbitration.
func newServices(t *testing.T, tdb *TestDB) services {
	t.Helper()
	scope := persistence.NewGormTransactionScope(tdb.DB)
	repos := persistence.NewRepositories(tdb.DB)
	recorder := audit.NewRecorder(persistence.NewGormAuditRepository(tdb.DB), true, nil, zap.NewNop())
	calc, err := tax.NewFlatRateCalculator(nil)
	require.NoError(t, err)
	locker := lock.NewMemoryLocker()
	return services{
		ledger:       ledger.NewService(scope, repos, locker, calc, recorder, nil, ledger.Config{MaxConflictRetries: 5}),
		subscription: subscription.NewService(scope, repos, locker, nil, recorder, nil, 5),
	}
}

func TestPostgres_ConcurrentPaymentsAllApply(t *testing.T) {
	tdb := NewTestDB(t)
	svc := newServices(t, tdb)
	ctx := context.Background()

	tn := testutil.SeedTenant(t, tdb.DB, "acme", "0.08")
	cust := testutil.SeedCustomer(t, tdb.DB, tn.ID, "Globex")
	item := testutil.SeedItem(t, tdb.DB, tn.ID, "CONSULT", "100.00")

	inv, err := svc.ledger.Create(ctx, tn.ID, ledger.CreateInvoiceRequest{
		CustomerID: cust.ID,
		Lines:      []ledger.LineRequest{{ItemID: item.ID, Quantity: decimal.NewFromInt(1)}},
	})
	require.NoError(t, err)
	_, err = svc.ledger.Send(ctx, tn.ID, inv.ID)
	require.NoError(t, err)

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.ledger.RecordPayment(ctx, tn.ID, inv.ID, ledger.RecordPaymentRequest{
				Amount:    decimal.RequireFromString("13.50"),
				Method:    "CASH",
				Reference: fmt.Sprintf("R-%d", i),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	got, err := svc.ledger.Get(ctx, tn.ID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "108.00", got.AmountPaid)
	assert.Equal(t, "0.00", got.BalanceDue)
	assert.Equal(t, domainledger.InvoiceStatusPaid, got.Status)
	assert.Len(t, got.Payments, writers)
}

func TestPostgres_InvoiceNumbersAreUniquePerTenant(t *testing.T) {
	tdb := NewTestDB(t)
	svc := newServices(t, tdb)
	ctx := context.Background()

	tn := testutil.SeedTenant(t, tdb.DB, "acme", "0")
	cust := testutil.SeedCustomer(t, tdb.DB, tn.ID, "Globex")

	const drafts = 6
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = map[string]bool{}
	)
	for i := 0; i < drafts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inv, err := svc.ledger.Create(ctx, tn.ID, ledger.CreateInvoiceRequest{CustomerID: cust.ID})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			numbers[inv.InvoiceNumber] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, numbers, drafts)
}

func TestPostgres_TenantIsolation(t *testing.T) {
	tdb := NewTestDB(t)
	svc := newServices(t, tdb)
	ctx := context.Background()

	acme := testutil.SeedTenant(t, tdb.DB, "acme", "0")
	globex := testutil.SeedTenant(t, tdb.DB, "globex", "0")
	cust := testutil.SeedCustomer(t, tdb.DB, acme.ID, "Initech")

	inv, err := svc.ledger.Create(ctx, acme.ID, ledger.CreateInvoiceRequest{CustomerID: cust.ID})
	require.NoError(t, err)

	_, err = svc.ledger.Get(ctx, globex.ID, inv.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.ledger.Create(ctx, globex.ID, ledger.CreateInvoiceRequest{CustomerID: cust.ID})
	assert.Error(t, err, "a customer of another tenant cannot be billed")

	list, err := svc.ledger.List(ctx, globex.ID, ledger.ListInvoicesFilter{})
	require.NoError(t, err)
	assert.Zero(t, list.Total)
}

func TestPostgres_SingleCurrentSubscription(t *testing.T) {
	tdb := NewTestDB(t)
	svc := newServices(t, tdb)
	ctx := context.Background()

	tn := testutil.SeedTenant(t, tdb.DB, "acme", "0")
	pkg := testutil.SeedPackage(t, tdb.DB, tn.ID, catalog.TierPro, "49.00", 30)

	const starters = 4
	var wg sync.WaitGroup
	errs := make(chan error, starters)
	for i := 0; i < starters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.subscription.Start(ctx, tn.ID, subscription.StartRequest{PackageID: pkg.ID, Seats: 5})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, exists int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case shared.ErrorCode(err) == shared.CodeSubscriptionExists:
			exists++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, starters-1, exists)

	current, err := svc.subscription.Current(ctx, tn.ID)
	require.NoError(t, err)
	assert.Equal(t, catalog.TierPro, current.Tier)

	grant, err := svc.subscription.HasCapability(ctx, tn.ID, catalog.CapVendors)
	require.NoError(t, err)
	assert.True(t, grant.Granted)
}
