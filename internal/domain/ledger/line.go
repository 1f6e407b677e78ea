package ledger

import (
	"time"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceItem is a line snapshotted from a catalog Item when it was added.
// Later changes to the Item never affect it.
type InvoiceItem struct {
	shared.TenantEntity
	InvoiceID   uuid.UUID
	ItemID      *uuid.UUID
	SKU         string
	Description string
	UnitPrice   valueobject.Money
	Quantity    decimal.Decimal
	LineTotal   valueobject.Money
	Position    int
}

// Payment is one settlement attempt against an invoice. Rows are never deleted.
type Payment struct {
	shared.TenantEntity
	InvoiceID     uuid.UUID
	Amount        valueobject.Money
	Method        PaymentMethod
	Status        PaymentStatus
	Reference     string
	PaidDate      *time.Time
	FailureReason string
	RefundedAt    *time.Time
	Notes         string
}

// Counts reports whether the payment counts toward amountPaid
func (p *Payment) Counts() bool {
	return p.Status == PaymentStatusCompleted
}
