// Package ledger runs the invoice and payment use cases. Every mutation of
// an invoice happens under its lock key, inside one transaction, and is
// written with the optimistic version check; version conflicts are retried
// a bounded number of times.
package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	appaudit "github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/audit"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/tx"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/catalog"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/identity"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/ledger"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared/valueobject"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/logger"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Config holds the ledger policies
type Config struct {
	StrictOverpayment  bool
	MaxConflictRetries int
	NumberPrefix       string
}

// Service handles invoice and payment operations
type Service struct {
	scope   tx.Scope
	repos   tx.Repositories
	locker  tx.Locker
	tax     ledger.TaxCalculator
	audit   *appaudit.Recorder
	metrics *telemetry.BillingMetrics
	cfg     Config
	now     func() time.Time
}

// NewService creates a new ledger Service. repos is used for reads outside
// a transaction.
func NewService(
	scope tx.Scope,
	repos tx.Repositories,
	locker tx.Locker,
	tax ledger.TaxCalculator,
	recorder *appaudit.Recorder,
	metrics *telemetry.BillingMetrics,
	cfg Config,
) *Service {
	if cfg.MaxConflictRetries < 0 {
		cfg.MaxConflictRetries = 0
	}
	return &Service{
		scope:   scope,
		repos:   repos,
		locker:  locker,
		tax:     tax,
		audit:   recorder,
		metrics: metrics,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) policy() ledger.OverpaymentPolicy {
	if s.cfg.StrictOverpayment {
		return ledger.RejectOverpayment
	}
	return ledger.AllowOverpayment
}

// Create drafts an invoice with the next number of the tenant's sequence.
// Lines snapshot the current item prices and tax is computed from the
// tenant's billing settings.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	var created *ledger.Invoice
	err := s.retry(ctx, "create_invoice", isNumberTaken, func() error {
		created = nil
		return s.scope.Execute(ctx, func(repos tx.Repositories) error {
			tenant, err := repos.Tenants().FindByID(ctx, tenantID)
			if err != nil {
				return err
			}
			customer, err := repos.Customers().FindByID(ctx, tenantID, req.CustomerID)
			if err != nil {
				return err
			}
			items, err := loadItems(ctx, repos, tenantID, req.Lines)
			if err != nil {
				return err
			}
			billing, err := tenant.Billing()
			if err != nil {
				return err
			}

			currency := tenant.BillingCurrency()
			if req.Currency != "" {
				if currency, err = valueobject.ParseCurrency(req.Currency); err != nil {
					return err
				}
			}
			seq, err := repos.Invoices().NextSequence(ctx, tenantID)
			if err != nil {
				return err
			}
			inv, err := ledger.NewInvoice(tenantID, customer, ledger.FormatInvoiceNumber(s.cfg.NumberPrefix, seq), seq, currency, s.now())
			if err != nil {
				return err
			}
			if userID, ok := logger.GetUserID(ctx); ok {
				inv.SetCreatedBy(userID)
			}
			if req.CurrencyRate != nil || req.BaseCurrency != "" {
				if err := setExchange(inv, req.BaseCurrency, req.CurrencyRate); err != nil {
					return err
				}
			}
			jurisdiction := req.Jurisdiction
			if jurisdiction == "" {
				jurisdiction = billing.Jurisdiction
			}
			if err := inv.SetTerms(req.DueDate, jurisdiction, req.Notes); err != nil {
				return err
			}
			for i, line := range req.Lines {
				if _, err := inv.AddItem(items[i], line.Quantity); err != nil {
					return err
				}
			}
			if err := s.applyTax(ctx, inv, billing); err != nil {
				return err
			}
			if err := repos.Invoices().Create(ctx, inv); err != nil {
				return err
			}
			created = inv
			return s.audit.InTx(ctx, repos.Audit(), inv.GetDomainEvents())
		})
	})
	if err != nil {
		return nil, err
	}
	s.audit.AfterCommit(ctx, created.GetDomainEvents())
	logger.L(ctx).Info("Invoice created",
		zap.String("invoice_id", created.ID.String()),
		zap.String("invoice_number", created.InvoiceNumber),
		zap.String("total", created.Total.String()),
	)
	return ToInvoiceResponse(created), nil
}

// Get returns one invoice with its lines and payments
func (s *Service) Get(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.repos.Invoices().FindByID(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	return ToInvoiceResponse(inv), nil
}

// List returns a page of the tenant's invoices
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, f ListInvoicesFilter) (shared.Paginated[InvoiceListItem], error) {
	filter := ledger.InvoiceFilter{
		Filter: shared.Filter{
			Page:     f.Page,
			PageSize: f.PageSize,
			OrderBy:  f.OrderBy,
			OrderDir: f.OrderDir,
			Search:   f.Search,
		},
		Status:     ledger.InvoiceStatus(f.Status),
		CustomerID: f.CustomerID,
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	invoices, total, err := s.repos.Invoices().FindAll(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[InvoiceListItem]{}, err
	}
	items := make([]InvoiceListItem, len(invoices))
	for i := range invoices {
		items[i] = ToInvoiceListItem(&invoices[i])
	}
	return shared.NewPaginated(items, total, filter.Page, filter.Limit()), nil
}

// AddItem appends a line to a draft invoice and recomputes tax
func (s *Service) AddItem(ctx context.Context, tenantID, invoiceID uuid.UUID, req LineRequest) (*InvoiceResponse, error) {
	inv, err := s.mutate(ctx, "add_item", tenantID, invoiceID, func(repos tx.Repositories, inv *ledger.Invoice) error {
		item, err := repos.Items().FindByID(ctx, tenantID, req.ItemID)
		if err != nil {
			return err
		}
		if _, err := inv.AddItem(item, req.Quantity); err != nil {
			return err
		}
		return s.retax(ctx, repos, inv)
	})
	if err != nil {
		return nil, err
	}
	return ToInvoiceResponse(inv), nil
}

// RemoveItem drops a line from a draft invoice and recomputes tax
func (s *Service) RemoveItem(ctx context.Context, tenantID, invoiceID, lineID uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.mutate(ctx, "remove_item", tenantID, invoiceID, func(repos tx.Repositories, inv *ledger.Invoice) error {
		if err := inv.RemoveItem(lineID); err != nil {
			return err
		}
		return s.retax(ctx, repos, inv)
	})
	if err != nil {
		return nil, err
	}
	return ToInvoiceResponse(inv), nil
}

// Send issues a draft invoice to the customer
func (s *Service) Send(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.mutate(ctx, "send_invoice", tenantID, invoiceID, func(_ tx.Repositories, inv *ledger.Invoice) error {
		return inv.Send(s.now())
	})
	if err != nil {
		return nil, err
	}
	return ToInvoiceResponse(inv), nil
}

// Cancel freezes an invoice that has nothing paid and nothing pending
func (s *Service) Cancel(ctx context.Context, tenantID, invoiceID uuid.UUID, reason string) (*InvoiceResponse, error) {
	inv, err := s.mutate(ctx, "cancel_invoice", tenantID, invoiceID, func(_ tx.Repositories, inv *ledger.Invoice) error {
		if inv.Status == ledger.InvoiceStatusCancelled {
			return nil
		}
		return inv.Cancel(reason, s.now())
	})
	if err != nil {
		return nil, err
	}
	return ToInvoiceResponse(inv), nil
}

// Delete removes a draft invoice without payments
func (s *Service) Delete(ctx context.Context, tenantID, invoiceID uuid.UUID) error {
	unlock, err := s.locker.Lock(ctx, tx.InvoiceKey(tenantID.String(), invoiceID.String()))
	if err != nil {
		return err
	}
	defer unlock()

	var events []shared.DomainEvent
	err = s.scope.Execute(ctx, func(repos tx.Repositories) error {
		inv, err := repos.Invoices().FindByID(ctx, tenantID, invoiceID)
		if err != nil {
			return err
		}
		if err := inv.MarkDeleted(); err != nil {
			return err
		}
		if err := repos.Invoices().Delete(ctx, tenantID, invoiceID); err != nil {
			return err
		}
		events = inv.GetDomainEvents()
		return s.audit.InTx(ctx, repos.Audit(), events)
	})
	if err != nil {
		return err
	}
	s.audit.AfterCommit(ctx, events)
	return nil
}

// RecordPayment applies a payment to a sent invoice. A reference that was
// already applied to this invoice returns the original payment with
// Duplicate set instead of failing.
func (s *Service) RecordPayment(ctx context.Context, tenantID, invoiceID uuid.UUID, req RecordPaymentRequest) (*PaymentResult, error) {
	method := ledger.PaymentMethod(strings.ToUpper(strings.TrimSpace(req.Method)))
	var (
		payment   *ledger.Payment
		duplicate bool
	)
	inv, err := s.mutate(ctx, "record_payment", tenantID, invoiceID, func(_ tx.Repositories, inv *ledger.Invoice) error {
		currency := inv.Currency
		if req.Currency != "" {
			c, err := valueobject.ParseCurrency(req.Currency)
			if err != nil {
				return err
			}
			currency = c
		}
		amount, err := valueobject.NewMoney(req.Amount, currency)
		if err != nil {
			return err
		}
		p, dup, err := inv.RecordPayment(amount, method, req.Reference, s.policy(), s.now())
		if err != nil {
			return err
		}
		payment, duplicate = p, dup
		return nil
	})
	if errors.Is(err, shared.ErrDuplicatePaymentReference) && strings.TrimSpace(req.Reference) != "" {
		// A concurrent writer stored the same reference first.
		inv, payment, err = s.replayByReference(ctx, tenantID, invoiceID, req.Reference, err)
		duplicate = true
	}
	if err != nil {
		return nil, err
	}

	log := logger.L(ctx).With(
		zap.String("invoice_id", inv.ID.String()),
		zap.String("payment_id", payment.ID.String()),
	)
	if duplicate {
		log.Info("Duplicate payment reference, returning existing payment", zap.String("reference", payment.Reference))
	} else {
		s.metrics.PaymentRecorded(ctx, tenantID, string(payment.Method))
		log.Info("Payment recorded",
			zap.String("amount", payment.Amount.String()),
			zap.String("status", string(payment.Status)),
			zap.String("invoice_status", string(inv.Status)),
		)
	}
	return &PaymentResult{
		Payment:   ToPaymentResponse(payment),
		Invoice:   ToInvoiceResponse(inv),
		Duplicate: duplicate,
	}, nil
}

func (s *Service) replayByReference(ctx context.Context, tenantID, invoiceID uuid.UUID, reference string, cause error) (*ledger.Invoice, *ledger.Payment, error) {
	inv, err := s.repos.Invoices().FindByID(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, nil, err
	}
	p := inv.PaymentByReference(strings.TrimSpace(reference))
	if p == nil {
		return nil, nil, cause
	}
	return inv, p, nil
}

// ConfirmPayment applies a gateway outcome to a pending payment. Repeating
// an outcome that was already applied is reported as a duplicate.
func (s *Service) ConfirmPayment(ctx context.Context, tenantID, paymentID uuid.UUID, req ConfirmPaymentRequest) (*PaymentResult, error) {
	return s.paymentTransition(ctx, "confirm_payment", tenantID, paymentID, func(inv *ledger.Invoice) (bool, error) {
		return inv.ConfirmPayment(paymentID, ledger.PaymentOutcome(strings.ToUpper(req.Outcome)), req.Reason, s.now())
	})
}

// VoidPayment refunds a completed payment
func (s *Service) VoidPayment(ctx context.Context, tenantID, paymentID uuid.UUID, reason string) (*PaymentResult, error) {
	return s.paymentTransition(ctx, "void_payment", tenantID, paymentID, func(inv *ledger.Invoice) (bool, error) {
		return inv.VoidPayment(paymentID, reason, s.now())
	})
}

func (s *Service) paymentTransition(ctx context.Context, op string, tenantID, paymentID uuid.UUID, fn func(inv *ledger.Invoice) (bool, error)) (*PaymentResult, error) {
	owner, err := s.repos.Invoices().FindByPaymentID(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}
	var changed bool
	inv, err := s.mutate(ctx, op, tenantID, owner.ID, func(_ tx.Repositories, inv *ledger.Invoice) error {
		c, err := fn(inv)
		changed = c
		return err
	})
	if err != nil {
		return nil, err
	}
	p := inv.PaymentByID(paymentID)
	logger.L(ctx).Info("Payment transition applied",
		zap.String("operation", op),
		zap.String("payment_id", paymentID.String()),
		zap.String("payment_status", string(p.Status)),
		zap.Bool("changed", changed),
	)
	return &PaymentResult{
		Payment:   ToPaymentResponse(p),
		Invoice:   ToInvoiceResponse(inv),
		Duplicate: !changed,
	}, nil
}

type mutation func(repos tx.Repositories, inv *ledger.Invoice) error

// mutate loads the invoice under its lock key, applies fn and saves it with
// the version check, retrying the whole unit on a version conflict. An
// invoice fn leaves untouched is not written.
func (s *Service) mutate(ctx context.Context, op string, tenantID, invoiceID uuid.UUID, fn mutation) (*ledger.Invoice, error) {
	unlock, err := s.locker.Lock(ctx, tx.InvoiceKey(tenantID.String(), invoiceID.String()))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var (
		result *ledger.Invoice
		events []shared.DomainEvent
	)
	err = s.retry(ctx, op, shared.IsRetryable, func() error {
		result, events = nil, nil
		return s.scope.Execute(ctx, func(repos tx.Repositories) error {
			inv, err := repos.Invoices().FindByID(ctx, tenantID, invoiceID)
			if err != nil {
				return err
			}
			if err := fn(repos, inv); err != nil {
				return err
			}
			result = inv
			if inv.GetVersion() == inv.StoredVersion {
				return nil
			}
			if err := inv.CheckInvariants(); err != nil {
				return err
			}
			if err := repos.Invoices().SaveWithLock(ctx, inv); err != nil {
				return err
			}
			events = inv.GetDomainEvents()
			return s.audit.InTx(ctx, repos.Audit(), events)
		})
	})
	if err != nil {
		return nil, s.attachState(ctx, tenantID, invoiceID, err)
	}
	s.audit.AfterCommit(ctx, events)
	return result, nil
}

// retry runs fn until it succeeds, fails with an error retryable rejects,
// or the attempts are used up.
func (s *Service) retry(ctx context.Context, op string, retryable func(error) bool, fn func() error) error {
	attempts := s.cfg.MaxConflictRetries + 1
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil || !retryable(err) {
			return err
		}
		if attempt == attempts || ctx.Err() != nil {
			break
		}
		s.metrics.ConflictRetried(ctx, op)
		logger.L(ctx).Warn("Retrying after conflict",
			zap.String("operation", op),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
	return err
}

// attachState adds the stored invoice to a rejection that does not carry
// state yet, so the caller can reconcile without another read.
func (s *Service) attachState(ctx context.Context, tenantID, invoiceID uuid.UUID, err error) error {
	var de *shared.DomainError
	if !errors.As(err, &de) || de.State != nil {
		return err
	}
	switch de.Code {
	case shared.CodeConcurrencyConflict, shared.CodeInvalidStateTransition, shared.CodeOverpaymentRejected,
		shared.CodeDuplicatePaymentReference, shared.CodeCurrencyMismatch:
	default:
		return err
	}
	inv, ferr := s.repos.Invoices().FindByID(ctx, tenantID, invoiceID)
	if ferr != nil {
		return err
	}
	return de.WithState(inv.Snapshot())
}

func (s *Service) retax(ctx context.Context, repos tx.Repositories, inv *ledger.Invoice) error {
	tenant, err := repos.Tenants().FindByID(ctx, inv.TenantID)
	if err != nil {
		return err
	}
	billing, err := tenant.Billing()
	if err != nil {
		return err
	}
	return s.applyTax(ctx, inv, billing)
}

func (s *Service) applyTax(ctx context.Context, inv *ledger.Invoice, billing identity.BillingSettings) error {
	jurisdiction := inv.Jurisdiction
	if jurisdiction == "" {
		jurisdiction = billing.Jurisdiction
	}
	tax, err := s.tax.Calculate(ctx, ledger.TaxRequest{
		TenantID:     inv.TenantID,
		Subtotal:     inv.Subtotal,
		Jurisdiction: jurisdiction,
		DefaultRate:  billing.TaxRate,
		IssueDate:    inv.IssueDate,
	})
	if err != nil {
		return err
	}
	return inv.ApplyTax(tax)
}

func loadItems(ctx context.Context, repos tx.Repositories, tenantID uuid.UUID, lines []LineRequest) ([]*catalog.Item, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ItemID)
	}
	found, err := repos.Items().FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Item, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}
	items := make([]*catalog.Item, len(lines))
	for i, l := range lines {
		item, ok := byID[l.ItemID]
		if !ok {
			return nil, shared.ErrNotFound.WithCause(errors.New("item " + l.ItemID.String()))
		}
		items[i] = item
	}
	return items, nil
}

func setExchange(inv *ledger.Invoice, base string, rate *decimal.Decimal) error {
	baseCurrency := inv.Currency
	if base != "" {
		c, err := valueobject.ParseCurrency(base)
		if err != nil {
			return err
		}
		baseCurrency = c
	}
	r := decimal.NewFromInt(1)
	if rate != nil {
		r = *rate
	}
	return inv.SetExchange(baseCurrency, r)
}

func isNumberTaken(err error) bool {
	return errors.Is(err, ledger.ErrInvoiceNumberTaken)
}
