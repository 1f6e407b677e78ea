package ledger

import (
	"context"
	"time"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared/valueobject"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/syncstate"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceFilter narrows invoice listings
type InvoiceFilter struct {
	shared.Filter
	Status     InvoiceStatus
	CustomerID *uuid.UUID
}

// InvoiceRepository persists the Invoice aggregate with its lines and payments.
// Every method is scoped by an explicit tenant ID.
type InvoiceRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	FindByPaymentID(ctx context.Context, tenantID, paymentID uuid.UUID) (*Invoice, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) ([]Invoice, int64, error)
	FindBySyncStatus(ctx context.Context, tenantID uuid.UUID, status syncstate.Status, filter shared.Filter) ([]Invoice, error)

	// NextSequence returns the next unused invoice sequence for the tenant.
	// Concurrent callers may receive the same value; Create then fails with ErrInvoiceNumberTaken.
	NextSequence(ctx context.Context, tenantID uuid.UUID) (int64, error)

	// Create inserts a new invoice. A taken number yields ErrInvoiceNumberTaken.
	Create(ctx context.Context, invoice *Invoice) error

	// SaveWithLock persists changes if the row still carries StoredVersion,
	// otherwise it fails with CONCURRENCY_CONFLICT.
	SaveWithLock(ctx context.Context, invoice *Invoice) error

	// Delete removes a draft invoice and its lines
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// TaxRequest is the input of a tax calculation
type TaxRequest struct {
	TenantID     uuid.UUID
	Subtotal     valueobject.Money
	Jurisdiction string
	// DefaultRate is the tenant's configured rate, used when the
	// calculator has nothing more specific for Jurisdiction
	DefaultRate  decimal.Decimal
	IssueDate    time.Time
}

// TaxCalculator is the external tax collaborator; it is treated as a pure function
type TaxCalculator interface {
	Calculate(ctx context.Context, req TaxRequest) (valueobject.Money, error)
}
