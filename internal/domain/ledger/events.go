package ledger

import (
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateTypeInvoice is the aggregate type for invoice events
const AggregateTypeInvoice = "Invoice"

// Event type constants
const (
	EventTypeInvoiceCreated   = "InvoiceCreated"
	EventTypeInvoiceSent      = "InvoiceSent"
	EventTypePaymentRecorded  = "PaymentRecorded"
	EventTypePaymentConfirmed = "PaymentConfirmed"
	EventTypePaymentVoided    = "PaymentVoided"
	EventTypeInvoiceCancelled = "InvoiceCancelled"
	EventTypeInvoiceDeleted   = "InvoiceDeleted"
)

// InvoiceCreatedEvent is raised when a draft invoice is created
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string    `json:"invoice_number"`
	CustomerID    uuid.UUID `json:"customer_id"`
	Currency      string    `json:"currency"`
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCreated, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceNumber:   inv.InvoiceNumber,
		CustomerID:      inv.CustomerID,
		Currency:        inv.Currency.String(),
	}
}

// InvoiceSentEvent is raised on DRAFT -> SENT
type InvoiceSentEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string `json:"invoice_number"`
	Total         string `json:"total"`
}

// NewInvoiceSentEvent creates a new InvoiceSentEvent
func NewInvoiceSentEvent(inv *Invoice) *InvoiceSentEvent {
	return &InvoiceSentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceSent, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceNumber:   inv.InvoiceNumber,
		Total:           inv.Total.String(),
	}
}

// PaymentEvent carries the payment and the resulting invoice balances
type PaymentEvent struct {
	shared.BaseDomainEvent
	PaymentID     uuid.UUID     `json:"payment_id"`
	Amount        string        `json:"amount"`
	Method        PaymentMethod `json:"method"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Reference     string        `json:"reference,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	InvoiceStatus InvoiceStatus `json:"invoice_status"`
	AmountPaid    string        `json:"amount_paid"`
	BalanceDue    string        `json:"balance_due"`
}

func newPaymentEvent(eventType string, inv *Invoice, p *Payment, reason string) *PaymentEvent {
	return &PaymentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeInvoice, inv.ID, inv.TenantID),
		PaymentID:       p.ID,
		Amount:          p.Amount.String(),
		Method:          p.Method,
		PaymentStatus:   p.Status,
		Reference:       p.Reference,
		Reason:          reason,
		InvoiceStatus:   inv.Status,
		AmountPaid:      inv.AmountPaid.String(),
		BalanceDue:      inv.BalanceDue.String(),
	}
}

// NewPaymentRecordedEvent creates the event for a new payment
func NewPaymentRecordedEvent(inv *Invoice, p *Payment) *PaymentEvent {
	return newPaymentEvent(EventTypePaymentRecorded, inv, p, "")
}

// NewPaymentConfirmedEvent creates the event for a gateway outcome
func NewPaymentConfirmedEvent(inv *Invoice, p *Payment) *PaymentEvent {
	return newPaymentEvent(EventTypePaymentConfirmed, inv, p, p.FailureReason)
}

// NewPaymentVoidedEvent creates the event for a refund
func NewPaymentVoidedEvent(inv *Invoice, p *Payment, reason string) *PaymentEvent {
	return newPaymentEvent(EventTypePaymentVoided, inv, p, reason)
}

// InvoiceCancelledEvent is raised when the invoice is frozen
type InvoiceCancelledEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string `json:"invoice_number"`
	Reason        string `json:"reason,omitempty"`
}

// NewInvoiceCancelledEvent creates a new InvoiceCancelledEvent
func NewInvoiceCancelledEvent(inv *Invoice, reason string) *InvoiceCancelledEvent {
	return &InvoiceCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCancelled, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceNumber:   inv.InvoiceNumber,
		Reason:          reason,
	}
}

// InvoiceDeletedEvent is raised when a draft invoice is removed
type InvoiceDeletedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string `json:"invoice_number"`
}

// NewInvoiceDeletedEvent creates a new InvoiceDeletedEvent
func NewInvoiceDeletedEvent(inv *Invoice) *InvoiceDeletedEvent {
	return &InvoiceDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceDeleted, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceNumber:   inv.InvoiceNumber,
	}
}
