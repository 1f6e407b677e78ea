package ledger

import (
	"time"

	"github.com/google/uuid"
)

// InvoiceSnapshot is the authoritative state attached to rejected operations
type InvoiceSnapshot struct {
	ID            uuid.UUID         `json:"id"`
	TenantID      uuid.UUID         `json:"tenant_id"`
	InvoiceNumber string            `json:"invoice_number"`
	Status        InvoiceStatus     `json:"status"`
	Currency      string            `json:"currency"`
	Subtotal      string            `json:"subtotal"`
	Tax           string            `json:"tax"`
	Total         string            `json:"total"`
	AmountPaid    string            `json:"amount_paid"`
	BalanceDue    string            `json:"balance_due"`
	Version       int               `json:"version"`
	UpdatedAt     time.Time         `json:"updated_at"`
	Payments      []PaymentSnapshot `json:"payments"`
}

// PaymentSnapshot is a payment as seen in an InvoiceSnapshot
type PaymentSnapshot struct {
	ID        uuid.UUID     `json:"id"`
	Amount    string        `json:"amount"`
	Status    PaymentStatus `json:"status"`
	Method    PaymentMethod `json:"method"`
	Reference string        `json:"reference,omitempty"`
}

// Snapshot captures the invoice's current state
func (inv *Invoice) Snapshot() InvoiceSnapshot {
	scale := inv.Total.Scale()
	s := InvoiceSnapshot{
		ID:            inv.ID,
		TenantID:      inv.TenantID,
		InvoiceNumber: inv.InvoiceNumber,
		Status:        inv.Status,
		Currency:      inv.Currency.String(),
		Subtotal:      inv.Subtotal.Amount().StringFixed(scale),
		Tax:           inv.Tax.Amount().StringFixed(scale),
		Total:         inv.Total.Amount().StringFixed(scale),
		AmountPaid:    inv.AmountPaid.Amount().StringFixed(scale),
		BalanceDue:    inv.BalanceDue.Amount().StringFixed(scale),
		Version:       inv.Version,
		UpdatedAt:     inv.UpdatedAt,
		Payments:      make([]PaymentSnapshot, 0, len(inv.Payments)),
	}
	for i := range inv.Payments {
		p := &inv.Payments[i]
		s.Payments = append(s.Payments, PaymentSnapshot{
			ID:        p.ID,
			Amount:    p.Amount.Amount().StringFixed(scale),
			Status:    p.Status,
			Method:    p.Method,
			Reference: p.Reference,
		})
	}
	return s
}
