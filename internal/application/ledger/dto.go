package ledger

import (
	"time"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/ledger"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineRequest adds one catalog item to a draft invoice
type LineRequest struct {
	ItemID   uuid.UUID       `json:"item_id" binding:"required"`
	Quantity decimal.Decimal `json:"quantity"`
}

// CreateInvoiceRequest represents a request to draft an invoice
type CreateInvoiceRequest struct {
	CustomerID   uuid.UUID        `json:"customer_id" binding:"required"`
	Currency     string           `json:"currency" binding:"omitempty,len=3"`
	Lines        []LineRequest    `json:"lines" binding:"omitempty,max=500,dive"`
	DueDate      *time.Time       `json:"due_date"`
	Jurisdiction string           `json:"jurisdiction" binding:"max=50"`
	Notes        string           `json:"notes" binding:"max=2000"`
	BaseCurrency string           `json:"base_currency" binding:"omitempty,len=3"`
	CurrencyRate *decimal.Decimal `json:"currency_rate"`
}

// RecordPaymentRequest represents a payment against an invoice. Currency
// defaults to the invoice currency.
type RecordPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency" binding:"omitempty,len=3"`
	Method    string          `json:"method" binding:"required,max=20"`
	Reference string          `json:"reference" binding:"max=128"`
}

// ConfirmPaymentRequest carries a gateway outcome
type ConfirmPaymentRequest struct {
	Outcome string `json:"outcome" binding:"required,oneof=COMPLETED FAILED"`
	Reason  string `json:"reason" binding:"max=500"`
}

// ReasonRequest is the body of void and cancel
type ReasonRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// ListInvoicesFilter is the query accepted by List
type ListInvoicesFilter struct {
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by" binding:"omitempty,oneof=issue_date invoice_number total created_at"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search     string     `form:"search" binding:"max=100"`
	Status     string     `form:"status" binding:"omitempty,oneof=DRAFT SENT PARTIALLY_PAID PAID CANCELLED"`
	CustomerID *uuid.UUID `form:"customer_id"`
}

// LineResponse is an invoice line in API responses
type LineResponse struct {
	ID          uuid.UUID  `json:"id"`
	ItemID      *uuid.UUID `json:"item_id,omitempty"`
	SKU         string     `json:"sku,omitempty"`
	Description string     `json:"description"`
	UnitPrice   string     `json:"unit_price"`
	Quantity    string     `json:"quantity"`
	LineTotal   string     `json:"line_total"`
}

// PaymentResponse is a payment in API responses
type PaymentResponse struct {
	ID            uuid.UUID            `json:"id"`
	InvoiceID     uuid.UUID            `json:"invoice_id"`
	Amount        string               `json:"amount"`
	Currency      string               `json:"currency"`
	Method        ledger.PaymentMethod `json:"method"`
	Status        ledger.PaymentStatus `json:"status"`
	Reference     string               `json:"reference,omitempty"`
	PaidDate      *time.Time           `json:"paid_date,omitempty"`
	FailureReason string               `json:"failure_reason,omitempty"`
	RefundedAt    *time.Time           `json:"refunded_at,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID            uuid.UUID            `json:"id"`
	TenantID      uuid.UUID            `json:"tenant_id"`
	InvoiceNumber string               `json:"invoice_number"`
	CustomerID    uuid.UUID            `json:"customer_id"`
	Status        ledger.InvoiceStatus `json:"status"`
	Currency      string               `json:"currency"`
	BaseCurrency  string               `json:"base_currency,omitempty"`
	CurrencyRate  string               `json:"currency_rate,omitempty"`
	Subtotal      string               `json:"subtotal"`
	Tax           string               `json:"tax"`
	Total         string               `json:"total"`
	AmountPaid    string               `json:"amount_paid"`
	BalanceDue    string               `json:"balance_due"`
	Jurisdiction  string               `json:"jurisdiction,omitempty"`
	Notes         string               `json:"notes,omitempty"`
	IssueDate     time.Time            `json:"issue_date"`
	DueDate       *time.Time           `json:"due_date,omitempty"`
	SentAt        *time.Time           `json:"sent_at,omitempty"`
	CancelledAt   *time.Time           `json:"cancelled_at,omitempty"`
	SyncStatus    string               `json:"sync_status"`
	Version       int                  `json:"version"`
	Lines         []LineResponse       `json:"lines"`
	Payments      []PaymentResponse    `json:"payments"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// InvoiceListItem is the compact form used in listings
type InvoiceListItem struct {
	ID            uuid.UUID            `json:"id"`
	InvoiceNumber string               `json:"invoice_number"`
	CustomerID    uuid.UUID            `json:"customer_id"`
	Status        ledger.InvoiceStatus `json:"status"`
	Currency      string               `json:"currency"`
	Total         string               `json:"total"`
	BalanceDue    string               `json:"balance_due"`
	IssueDate     time.Time            `json:"issue_date"`
	Version       int                  `json:"version"`
}

// PaymentResult is returned by every payment operation. Duplicate is set
// when the call was an idempotent replay and changed nothing.
type PaymentResult struct {
	Payment   *PaymentResponse `json:"payment,omitempty"`
	Invoice   *InvoiceResponse `json:"invoice,omitempty"`
	Duplicate bool             `json:"duplicate"`
}

func fixed(m valueobject.Money) string {
	return m.Amount().StringFixed(m.Scale())
}

// ToInvoiceResponse converts a domain Invoice to InvoiceResponse
func ToInvoiceResponse(inv *ledger.Invoice) *InvoiceResponse {
	resp := &InvoiceResponse{
		ID:            inv.ID,
		TenantID:      inv.TenantID,
		InvoiceNumber: inv.InvoiceNumber,
		CustomerID:    inv.CustomerID,
		Status:        inv.Status,
		Currency:      inv.Currency.String(),
		Subtotal:      fixed(inv.Subtotal),
		Tax:           fixed(inv.Tax),
		Total:         fixed(inv.Total),
		AmountPaid:    fixed(inv.AmountPaid),
		BalanceDue:    fixed(inv.BalanceDue),
		Jurisdiction:  inv.Jurisdiction,
		Notes:         inv.Notes,
		IssueDate:     inv.IssueDate,
		DueDate:       inv.DueDate,
		SentAt:        inv.SentAt,
		CancelledAt:   inv.CancelledAt,
		SyncStatus:    string(inv.Sync.Status),
		Version:       inv.Version,
		Lines:         make([]LineResponse, 0, len(inv.Items)),
		Payments:      make([]PaymentResponse, 0, len(inv.Payments)),
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
	if inv.BaseCurrency != "" && inv.BaseCurrency != inv.Currency {
		resp.BaseCurrency = inv.BaseCurrency.String()
		resp.CurrencyRate = inv.CurrencyRate.String()
	}
	for i := range inv.Items {
		line := &inv.Items[i]
		resp.Lines = append(resp.Lines, LineResponse{
			ID:          line.ID,
			ItemID:      line.ItemID,
			SKU:         line.SKU,
			Description: line.Description,
			UnitPrice:   fixed(line.UnitPrice),
			Quantity:    line.Quantity.String(),
			LineTotal:   fixed(line.LineTotal),
		})
	}
	for i := range inv.Payments {
		resp.Payments = append(resp.Payments, *ToPaymentResponse(&inv.Payments[i]))
	}
	return resp
}

// ToPaymentResponse converts a domain Payment to PaymentResponse
func ToPaymentResponse(p *ledger.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:            p.ID,
		InvoiceID:     p.InvoiceID,
		Amount:        fixed(p.Amount),
		Currency:      p.Amount.Currency().String(),
		Method:        p.Method,
		Status:        p.Status,
		Reference:     p.Reference,
		PaidDate:      p.PaidDate,
		FailureReason: p.FailureReason,
		RefundedAt:    p.RefundedAt,
		CreatedAt:     p.CreatedAt,
	}
}

// ToInvoiceListItem converts a domain Invoice to InvoiceListItem
func ToInvoiceListItem(inv *ledger.Invoice) InvoiceListItem {
	return InvoiceListItem{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		CustomerID:    inv.CustomerID,
		Status:        inv.Status,
		Currency:      inv.Currency.String(),
		Total:         fixed(inv.Total),
		BalanceDue:    fixed(inv.BalanceDue),
		IssueDate:     inv.IssueDate,
		Version:       inv.Version,
	}
}
