package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/catalog"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared/valueobject"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/syncstate"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger errors
var (
	ErrInvalidAmount        = shared.NewDomainError(shared.CodeInvalidInput, "Payment amount must be positive")
	ErrInvalidQuantity      = shared.NewDomainError(shared.CodeInvalidInput, "Quantity must be positive")
	ErrPaymentNotFound      = shared.NewDomainError(shared.CodeNotFound, "Payment not found on invoice")
	ErrLineNotFound         = shared.NewDomainError(shared.CodeNotFound, "Invoice line not found")
	ErrEmptyInvoice         = shared.NewDomainError(shared.CodeInvalidStateTransition, "Invoice has no lines")
	ErrInvoiceNotDeletable  = shared.NewDomainError(shared.CodeInvalidStateTransition, "Only draft invoices without payments can be deleted")
	ErrInvoiceNumberTaken   = shared.NewDomainError(shared.CodeAlreadyExists, "Invoice number already exists for tenant")
	ErrInvalidCurrencyRate  = shared.NewDomainError(shared.CodeInvalidInput, "Currency rate must be positive")
	ErrInvalidInvoiceNumber = shared.NewDomainError(shared.CodeInvalidInput, "Invoice number cannot be empty")
)

// Invoice is the accounting aggregate; it owns its lines and payments.
//
// After every mutation:
//   - Total == round(Subtotal + Tax)
//   - BalanceDue == Total - AmountPaid
//   - AmountPaid == sum of COMPLETED payments
//   - Status is derived from the above (see recompute)
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber string
	Sequence      int64
	CustomerID    uuid.UUID
	Status        InvoiceStatus
	Currency      valueobject.Currency
	// CurrencyRate converts one unit of Currency into BaseCurrency
	CurrencyRate decimal.Decimal
	BaseCurrency valueobject.Currency
	Subtotal     valueobject.Money
	Tax          valueobject.Money
	Total        valueobject.Money
	AmountPaid   valueobject.Money
	BalanceDue   valueobject.Money
	Jurisdiction string
	Notes        string
	IssueDate    time.Time
	DueDate      *time.Time
	SentAt       *time.Time
	CancelledAt  *time.Time
	Items        []InvoiceItem
	Payments     []Payment
	Sync         syncstate.State
}

// NewInvoice creates a DRAFT invoice for customer with no lines.
// The customer must belong to tenantID.
func NewInvoice(tenantID uuid.UUID, customer *catalog.Customer, number string, sequence int64, currency valueobject.Currency, issueDate time.Time) (*Invoice, error) {
	if customer == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Customer is required")
	}
	if err := shared.AssertSameTenant(shared.TenantRef(tenantID), customer); err != nil {
		return nil, err
	}
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, ErrInvalidInvoiceNumber
	}
	if _, err := currency.Scale(); err != nil {
		return nil, err
	}

	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceNumber:       number,
		Sequence:            sequence,
		CustomerID:          customer.ID,
		Status:              InvoiceStatusDraft,
		Currency:            currency,
		CurrencyRate:        decimal.NewFromInt(1),
		BaseCurrency:        currency,
		Subtotal:            valueobject.Zero(currency),
		Tax:                 valueobject.Zero(currency),
		Total:               valueobject.Zero(currency),
		AmountPaid:          valueobject.Zero(currency),
		BalanceDue:          valueobject.Zero(currency),
		IssueDate:           issueDate,
		Items:               make([]InvoiceItem, 0),
		Payments:            make([]Payment, 0),
		Sync:                syncstate.NewState(),
	}
	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))
	return inv, nil
}

// FormatInvoiceNumber renders a per-tenant sequence as e.g. INV-000042
func FormatInvoiceNumber(prefix string, sequence int64) string {
	if prefix == "" {
		prefix = "INV"
	}
	return fmt.Sprintf("%s-%06d", prefix, sequence)
}

// SetExchange records the rate used to express the invoice in the tenant's base currency
func (inv *Invoice) SetExchange(base valueobject.Currency, rate decimal.Decimal) error {
	if err := inv.requireDraft(); err != nil {
		return err
	}
	if !rate.IsPositive() {
		return ErrInvalidCurrencyRate
	}
	if _, err := base.Scale(); err != nil {
		return err
	}
	if base == inv.Currency && !rate.Equal(decimal.NewFromInt(1)) {
		return ErrInvalidCurrencyRate
	}
	inv.BaseCurrency = base
	inv.CurrencyRate = rate
	return nil
}

// SetTerms sets due date, jurisdiction and notes while the invoice is a draft
func (inv *Invoice) SetTerms(dueDate *time.Time, jurisdiction, notes string) error {
	if err := inv.requireDraft(); err != nil {
		return err
	}
	if dueDate != nil && dueDate.Before(inv.IssueDate) {
		return shared.NewDomainError(shared.CodeInvalidInput, "Due date cannot precede issue date")
	}
	inv.DueDate = dueDate
	inv.Jurisdiction = jurisdiction
	inv.Notes = notes
	return nil
}

// AddItem snapshots item's current price into a new line.
// The item must belong to the invoice's tenant and be priced in its currency.
func (inv *Invoice) AddItem(item *catalog.Item, quantity decimal.Decimal) (*InvoiceItem, error) {
	if item == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Item is required")
	}
	if err := shared.AssertSameTenant(inv, item); err != nil {
		return nil, err
	}
	if err := inv.requireDraft(); err != nil {
		return nil, err
	}
	if !quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}
	if err := valueobject.CheckStorable(quantity); err != nil {
		return nil, err
	}
	if item.UnitPrice.Currency() != inv.Currency {
		return nil, valueobject.ErrCurrencyMismatch.WithCause(
			fmt.Errorf("item %s is priced in %s, invoice is %s", item.ID, item.UnitPrice.Currency(), inv.Currency))
	}
	raw, err := item.UnitPrice.Multiply(quantity)
	if err != nil {
		return nil, err
	}

	itemID := item.ID
	line := InvoiceItem{
		TenantEntity: shared.NewTenantEntity(inv.TenantID),
		InvoiceID:    inv.ID,
		ItemID:       &itemID,
		SKU:          item.SKU,
		Description:  item.Name,
		UnitPrice:    item.UnitPrice,
		Quantity:     quantity,
		LineTotal:    raw.Round(),
		Position:     len(inv.Items) + 1,
	}
	// validate the new subtotal before mutating
	if _, err := inv.sumLines(append(inv.Items[:len(inv.Items):len(inv.Items)], line)); err != nil {
		return nil, err
	}
	inv.Items = append(inv.Items, line)
	if err := inv.recompute(); err != nil {
		return nil, err
	}
	inv.changed()
	return &inv.Items[len(inv.Items)-1], nil
}

// RemoveItem drops a line while the invoice is a draft
func (inv *Invoice) RemoveItem(lineID uuid.UUID) error {
	if err := inv.requireDraft(); err != nil {
		return err
	}
	idx := -1
	for i := range inv.Items {
		if inv.Items[i].ID == lineID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrLineNotFound
	}
	inv.Items = append(inv.Items[:idx], inv.Items[idx+1:]...)
	for i := range inv.Items {
		inv.Items[i].Position = i + 1
	}
	if err := inv.recompute(); err != nil {
		return err
	}
	inv.changed()
	return nil
}

// ApplyTax sets the tax computed by the tax collaborator for the current subtotal
func (inv *Invoice) ApplyTax(tax valueobject.Money) error {
	if err := inv.requireDraft(); err != nil {
		return err
	}
	if tax.Currency() != inv.Currency {
		return valueobject.ErrCurrencyMismatch.WithCause(fmt.Errorf("tax in %s, invoice is %s", tax.Currency(), inv.Currency))
	}
	if tax.IsNegative() {
		return shared.NewDomainError(shared.CodeInvalidInput, "Tax cannot be negative")
	}
	prev := inv.Tax
	inv.Tax = tax.Round()
	if err := inv.recompute(); err != nil {
		inv.Tax = prev
		return err
	}
	inv.changed()
	return nil
}

// Send moves a DRAFT invoice to SENT; lines are frozen from here on
func (inv *Invoice) Send(now time.Time) error {
	if inv.Status != InvoiceStatusDraft {
		return shared.ErrInvalidStateTransition.WithCause(
			fmt.Errorf("cannot send invoice in %s status", inv.Status)).WithState(inv.Snapshot())
	}
	if len(inv.Items) == 0 {
		return ErrEmptyInvoice.WithState(inv.Snapshot())
	}
	inv.SentAt = &now
	if err := inv.recompute(); err != nil {
		inv.SentAt = nil
		return err
	}
	inv.changed()
	inv.AddDomainEvent(NewInvoiceSentEvent(inv))
	return nil
}

// RecordPayment registers a settlement attempt.
//
// Synchronous methods are COMPLETED immediately; asynchronous ones stay
// PENDING until ConfirmPayment. A non-empty reference already held by a
// payment that was not declined is an idempotent replay: the existing payment is returned with
// duplicate=true and nothing changes.
func (inv *Invoice) RecordPayment(amount valueobject.Money, method PaymentMethod, reference string, policy OverpaymentPolicy, now time.Time) (payment *Payment, duplicate bool, err error) {
	reference = strings.TrimSpace(reference)
	if reference != "" {
		if existing := inv.PaymentByReference(reference); existing != nil {
			return existing, true, nil
		}
	}
	if !inv.Status.CanAcceptPayment() {
		return nil, false, shared.ErrInvalidStateTransition.WithCause(
			fmt.Errorf("cannot record payment on invoice in %s status", inv.Status)).WithState(inv.Snapshot())
	}
	if !method.IsValid() {
		return nil, false, shared.NewDomainError(shared.CodeInvalidInput, "Unknown payment method")
	}
	if amount.Currency() != inv.Currency {
		return nil, false, valueobject.ErrCurrencyMismatch.WithCause(
			fmt.Errorf("payment in %s, invoice is %s", amount.Currency(), inv.Currency)).WithState(inv.Snapshot())
	}
	if !amount.IsPositive() {
		return nil, false, ErrInvalidAmount
	}
	amount = amount.Round()
	if !amount.IsPositive() {
		return nil, false, ErrInvalidAmount
	}

	if policy == RejectOverpayment {
		committed, err := inv.AmountPaid.Add(inv.pendingAmount())
		if err != nil {
			return nil, false, err
		}
		after, err := committed.Add(amount)
		if err != nil {
			return nil, false, err
		}
		if cmp, _ := after.Compare(inv.Total); cmp > 0 {
			return nil, false, shared.ErrOverpaymentRejected.WithCause(
				fmt.Errorf("payment %s would bring committed amount to %s, total is %s", amount, after, inv.Total)).WithState(inv.Snapshot())
		}
	}

	p := Payment{
		TenantEntity: shared.NewTenantEntity(inv.TenantID),
		InvoiceID:    inv.ID,
		Amount:       amount,
		Method:       method,
		Status:       PaymentStatusPending,
		Reference:    reference,
	}
	if !method.IsAsynchronous() {
		p.Status = PaymentStatusCompleted
		p.PaidDate = &now
	}
	inv.Payments = append(inv.Payments, p)
	if err := inv.recompute(); err != nil {
		inv.Payments = inv.Payments[:len(inv.Payments)-1]
		return nil, false, err
	}
	inv.changed()
	recorded := &inv.Payments[len(inv.Payments)-1]
	inv.AddDomainEvent(NewPaymentRecordedEvent(inv, recorded))
	return recorded, false, nil
}

// ConfirmPayment applies a gateway outcome to a PENDING payment. Replaying
// the outcome already applied is a no-op (changed=false); a contradicting
// outcome is an invalid transition.
func (inv *Invoice) ConfirmPayment(paymentID uuid.UUID, outcome PaymentOutcome, reason string, now time.Time) (changed bool, err error) {
	if !outcome.IsValid() {
		return false, shared.NewDomainError(shared.CodeInvalidInput, "Unknown payment outcome")
	}
	p := inv.PaymentByID(paymentID)
	if p == nil {
		return false, ErrPaymentNotFound
	}
	target := outcome.status()
	switch {
	case p.Status == target:
		return false, nil
	case p.Status != PaymentStatusPending:
		return false, shared.ErrInvalidStateTransition.WithCause(
			fmt.Errorf("payment %s is %s, cannot become %s", p.ID, p.Status, target)).WithState(inv.Snapshot())
	case inv.Status.IsTerminal():
		return false, shared.ErrInvalidStateTransition.WithState(inv.Snapshot())
	}

	prev := *p
	p.Status = target
	p.Touch()
	if target == PaymentStatusCompleted {
		p.PaidDate = &now
	} else {
		p.FailureReason = reason
	}
	if err := inv.recompute(); err != nil {
		*p = prev
		return false, err
	}
	inv.changed()
	inv.AddDomainEvent(NewPaymentConfirmedEvent(inv, p))
	return true, nil
}

// VoidPayment refunds a COMPLETED payment. The row is kept as REFUNDED and the
// invoice status may move back (PAID -> PARTIALLY_PAID -> SENT). Voiding an
// already refunded payment is a no-op.
func (inv *Invoice) VoidPayment(paymentID uuid.UUID, reason string, now time.Time) (changed bool, err error) {
	p := inv.PaymentByID(paymentID)
	if p == nil {
		return false, ErrPaymentNotFound
	}
	switch p.Status {
	case PaymentStatusRefunded:
		return false, nil
	case PaymentStatusCompleted:
	default:
		return false, shared.ErrInvalidStateTransition.WithCause(
			fmt.Errorf("cannot void payment in %s status", p.Status)).WithState(inv.Snapshot())
	}

	prev := *p
	p.Status = PaymentStatusRefunded
	p.RefundedAt = &now
	if reason != "" {
		p.Notes = reason
	}
	p.Touch()
	if err := inv.recompute(); err != nil {
		*p = prev
		return false, err
	}
	inv.changed()
	inv.AddDomainEvent(NewPaymentVoidedEvent(inv, p, reason))
	return true, nil
}

// Cancel freezes the invoice. Allowed from DRAFT or SENT with nothing paid
// and nothing pending; a partially paid invoice needs refunds first.
func (inv *Invoice) Cancel(reason string, now time.Time) error {
	if !inv.Status.CanCancel() || !inv.AmountPaid.IsZero() || inv.hasPending() {
		return shared.ErrInvalidStateTransition.WithCause(
			fmt.Errorf("cannot cancel invoice in %s status with %s paid", inv.Status, inv.AmountPaid)).WithState(inv.Snapshot())
	}
	inv.CancelledAt = &now
	inv.Status = InvoiceStatusCancelled
	inv.changed()
	inv.AddDomainEvent(NewInvoiceCancelledEvent(inv, reason))
	return nil
}

// MarkDeleted checks the invoice may be removed and records the event
func (inv *Invoice) MarkDeleted() error {
	if inv.Status != InvoiceStatusDraft || len(inv.Payments) > 0 {
		return ErrInvoiceNotDeletable.WithState(inv.Snapshot())
	}
	inv.AddDomainEvent(NewInvoiceDeletedEvent(inv))
	return nil
}

// PaymentByID returns the payment with id, or nil
func (inv *Invoice) PaymentByID(id uuid.UUID) *Payment {
	for i := range inv.Payments {
		if inv.Payments[i].ID == id {
			return &inv.Payments[i]
		}
	}
	return nil
}

// PaymentByReference returns the payment holding reference, or nil.
// A declined payment releases its reference so the charge can be retried.
func (inv *Invoice) PaymentByReference(reference string) *Payment {
	if reference == "" {
		return nil
	}
	for i := range inv.Payments {
		if inv.Payments[i].Reference == reference && inv.Payments[i].Status != PaymentStatusFailed {
			return &inv.Payments[i]
		}
	}
	return nil
}

// IsOverpaid reports a customer credit (negative balance)
func (inv *Invoice) IsOverpaid() bool {
	return inv.BalanceDue.IsNegative()
}

// BaseTotal expresses Total in the tenant's base currency
func (inv *Invoice) BaseTotal() (valueobject.Money, error) {
	if inv.BaseCurrency == inv.Currency {
		return inv.Total, nil
	}
	return inv.Total.ConvertTo(inv.BaseCurrency, inv.CurrencyRate)
}

// SyncState exposes the sync state
func (inv *Invoice) SyncState() *syncstate.State {
	return &inv.Sync
}

// CheckInvariants verifies the accounting invariants hold
func (inv *Invoice) CheckInvariants() error {
	subtotal, err := inv.sumLines(inv.Items)
	if err != nil {
		return err
	}
	paid, err := inv.sumPayments(PaymentStatusCompleted)
	if err != nil {
		return err
	}
	sum, err := inv.Subtotal.Add(inv.Tax)
	if err != nil {
		return err
	}
	balance, err := inv.Total.Subtract(inv.AmountPaid)
	if err != nil {
		return err
	}
	switch {
	case !subtotal.Equals(inv.Subtotal):
		return fmt.Errorf("subtotal %s != sum of lines %s", inv.Subtotal, subtotal)
	case !sum.Round().Equals(inv.Total):
		return fmt.Errorf("total %s != subtotal + tax %s", inv.Total, sum.Round())
	case !paid.Equals(inv.AmountPaid):
		return fmt.Errorf("amountPaid %s != completed payments %s", inv.AmountPaid, paid)
	case !balance.Equals(inv.BalanceDue):
		return fmt.Errorf("balanceDue %s != total - amountPaid %s", inv.BalanceDue, balance)
	case inv.Status != inv.deriveStatus():
		return fmt.Errorf("status %s != derived %s", inv.Status, inv.deriveStatus())
	}
	return nil
}

// recompute re-derives every amount and the status from lines and payments
func (inv *Invoice) recompute() error {
	subtotal, err := inv.sumLines(inv.Items)
	if err != nil {
		return err
	}
	total, err := subtotal.Add(inv.Tax)
	if err != nil {
		return err
	}
	total = total.Round()
	paid, err := inv.sumPayments(PaymentStatusCompleted)
	if err != nil {
		return err
	}
	balance, err := total.Subtract(paid)
	if err != nil {
		return err
	}
	inv.Subtotal = subtotal
	inv.Total = total
	inv.AmountPaid = paid
	inv.BalanceDue = balance
	inv.Status = inv.deriveStatus()
	return nil
}

func (inv *Invoice) deriveStatus() InvoiceStatus {
	switch {
	case inv.CancelledAt != nil:
		return InvoiceStatusCancelled
	case inv.SentAt == nil:
		return InvoiceStatusDraft
	case inv.AmountPaid.IsZero() && inv.Total.IsPositive():
		return InvoiceStatusSent
	}
	if cmp, _ := inv.AmountPaid.Compare(inv.Total); cmp < 0 {
		return InvoiceStatusPartiallyPaid
	}
	return InvoiceStatusPaid
}

func (inv *Invoice) sumLines(lines []InvoiceItem) (valueobject.Money, error) {
	sum := valueobject.Zero(inv.Currency)
	for i := range lines {
		var err error
		if sum, err = sum.Add(lines[i].LineTotal); err != nil {
			return valueobject.Money{}, err
		}
	}
	return sum, nil
}

func (inv *Invoice) sumPayments(status PaymentStatus) (valueobject.Money, error) {
	sum := valueobject.Zero(inv.Currency)
	for i := range inv.Payments {
		if inv.Payments[i].Status != status {
			continue
		}
		var err error
		if sum, err = sum.Add(inv.Payments[i].Amount); err != nil {
			return valueobject.Money{}, err
		}
	}
	return sum, nil
}

func (inv *Invoice) pendingAmount() valueobject.Money {
	pending, err := inv.sumPayments(PaymentStatusPending)
	if err != nil {
		return valueobject.Zero(inv.Currency)
	}
	return pending
}

func (inv *Invoice) hasPending() bool {
	for i := range inv.Payments {
		if inv.Payments[i].Status == PaymentStatusPending {
			return true
		}
	}
	return false
}

func (inv *Invoice) requireDraft() error {
	if inv.Status != InvoiceStatusDraft {
		return shared.ErrInvalidStateTransition.WithCause(
			fmt.Errorf("invoice lines are frozen in %s status", inv.Status)).WithState(inv.Snapshot())
	}
	return nil
}

func (inv *Invoice) changed() {
	inv.Touch()
	inv.IncrementVersion()
	inv.Sync.MarkPending()
}
