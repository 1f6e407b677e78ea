package models

import (
	"time"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/ledger"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the invoices row. Lines and payments are separate tables
// written explicitly by the repository.
type InvoiceModel struct {
	TenantAggregateModel
	InvoiceNumber string          `gorm:"type:varchar(50);not null"`
	Sequence      int64           `gorm:"not null"`
	CustomerID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Status        string          `gorm:"type:varchar(20);not null;index"`
	Currency      string          `gorm:"type:varchar(3);not null"`
	CurrencyRate  decimal.Decimal `gorm:"type:decimal(18,8);not null;default:1"`
	BaseCurrency  string          `gorm:"type:varchar(3);not null"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Tax           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Total         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	AmountPaid    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BalanceDue    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Jurisdiction  string          `gorm:"type:varchar(50)"`
	Notes         string          `gorm:"type:text"`
	IssueDate     time.Time       `gorm:"not null"`
	DueDate       *time.Time
	SentAt        *time.Time
	CancelledAt   *time.Time
	SyncColumns
	Items    []InvoiceItemModel `gorm:"foreignKey:InvoiceID"`
	Payments []PaymentModel     `gorm:"foreignKey:InvoiceID"`
}

func (InvoiceModel) TableName() string { return "invoices" }

// InvoiceItemModel is the invoice_items row.
type InvoiceItemModel struct {
	TenantEntityModel
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemID      *uuid.UUID      `gorm:"type:uuid"`
	SKU         string          `gorm:"type:varchar(64)"`
	Description string          `gorm:"type:text;not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency    string          `gorm:"type:varchar(3);not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Position    int             `gorm:"not null"`
}

func (InvoiceItemModel) TableName() string { return "invoice_items" }

// PaymentModel is the payments row. Rows are never deleted.
type PaymentModel struct {
	TenantEntityModel
	InvoiceID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency      string          `gorm:"type:varchar(3);not null"`
	Method        string          `gorm:"type:varchar(20);not null"`
	Status        string          `gorm:"type:varchar(20);not null"`
	Reference     string          `gorm:"type:varchar(100)"`
	PaidDate      *time.Time
	FailureReason string `gorm:"type:text"`
	RefundedAt    *time.Time
	Notes         string `gorm:"type:text"`
}

func (PaymentModel) TableName() string { return "payments" }

func (m *InvoiceModel) ToDomain() (*ledger.Invoice, error) {
	cur := m.Currency
	amounts := []decimal.Decimal{m.Subtotal, m.Tax, m.Total, m.AmountPaid, m.BalanceDue}
	money := make([]valueobject.Money, len(amounts))
	for i, a := range amounts {
		v, err := toMoney(a, cur)
		if err != nil {
			return nil, err
		}
		money[i] = v
	}

	inv := &ledger.Invoice{
		InvoiceNumber: m.InvoiceNumber,
		Sequence:      m.Sequence,
		CustomerID:    m.CustomerID,
		Status:        ledger.InvoiceStatus(m.Status),
		Currency:      valueobject.Currency(cur),
		CurrencyRate:  m.CurrencyRate,
		BaseCurrency:  valueobject.Currency(m.BaseCurrency),
		Subtotal:      money[0],
		Tax:           money[1],
		Total:         money[2],
		AmountPaid:    money[3],
		BalanceDue:    money[4],
		Jurisdiction:  m.Jurisdiction,
		Notes:         m.Notes,
		IssueDate:     m.IssueDate,
		DueDate:       m.DueDate,
		SentAt:        m.SentAt,
		CancelledAt:   m.CancelledAt,
		Sync:          m.ToState(),
	}
	m.PopulateTenantAggregateRoot(&inv.TenantAggregateRoot)

	inv.Items = make([]ledger.InvoiceItem, 0, len(m.Items))
	for i := range m.Items {
		line, err := m.Items[i].ToDomain()
		if err != nil {
			return nil, err
		}
		inv.Items = append(inv.Items, *line)
	}
	inv.Payments = make([]ledger.Payment, 0, len(m.Payments))
	for i := range m.Payments {
		p, err := m.Payments[i].ToDomain()
		if err != nil {
			return nil, err
		}
		inv.Payments = append(inv.Payments, *p)
	}
	return inv, nil
}

// InvoiceModelFromDomain converts the aggregate header; children are
// converted separately.
func InvoiceModelFromDomain(inv *ledger.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		InvoiceNumber: inv.InvoiceNumber,
		Sequence:      inv.Sequence,
		CustomerID:    inv.CustomerID,
		Status:        string(inv.Status),
		Currency:      inv.Currency.String(),
		CurrencyRate:  inv.CurrencyRate,
		BaseCurrency:  inv.BaseCurrency.String(),
		Subtotal:      inv.Subtotal.Amount(),
		Tax:           inv.Tax.Amount(),
		Total:         inv.Total.Amount(),
		AmountPaid:    inv.AmountPaid.Amount(),
		BalanceDue:    inv.BalanceDue.Amount(),
		Jurisdiction:  inv.Jurisdiction,
		Notes:         inv.Notes,
		IssueDate:     inv.IssueDate,
		DueDate:       inv.DueDate,
		SentAt:        inv.SentAt,
		CancelledAt:   inv.CancelledAt,
	}
	m.FromDomainTenantAggregateRoot(inv.TenantAggregateRoot)
	m.FromState(inv.Sync)
	return m
}

func (m *InvoiceItemModel) ToDomain() (*ledger.InvoiceItem, error) {
	price, err := toMoney(m.UnitPrice, m.Currency)
	if err != nil {
		return nil, err
	}
	total, err := toMoney(m.LineTotal, m.Currency)
	if err != nil {
		return nil, err
	}
	return &ledger.InvoiceItem{
		TenantEntity: m.ToTenantEntity(),
		InvoiceID:    m.InvoiceID,
		ItemID:       m.ItemID,
		SKU:          m.SKU,
		Description:  m.Description,
		UnitPrice:    price,
		Quantity:     m.Quantity,
		LineTotal:    total,
		Position:     m.Position,
	}, nil
}

func InvoiceItemModelFromDomain(l *ledger.InvoiceItem) *InvoiceItemModel {
	m := &InvoiceItemModel{
		InvoiceID:   l.InvoiceID,
		ItemID:      l.ItemID,
		SKU:         l.SKU,
		Description: l.Description,
		UnitPrice:   l.UnitPrice.Amount(),
		Currency:    l.UnitPrice.Currency().String(),
		Quantity:    l.Quantity,
		LineTotal:   l.LineTotal.Amount(),
		Position:    l.Position,
	}
	m.FromDomainTenantEntity(l.TenantEntity)
	return m
}

func (m *PaymentModel) ToDomain() (*ledger.Payment, error) {
	amount, err := toMoney(m.Amount, m.Currency)
	if err != nil {
		return nil, err
	}
	return &ledger.Payment{
		TenantEntity:  m.ToTenantEntity(),
		InvoiceID:     m.InvoiceID,
		Amount:        amount,
		Method:        ledger.PaymentMethod(m.Method),
		Status:        ledger.PaymentStatus(m.Status),
		Reference:     m.Reference,
		PaidDate:      m.PaidDate,
		FailureReason: m.FailureReason,
		RefundedAt:    m.RefundedAt,
		Notes:         m.Notes,
	}, nil
}

func PaymentModelFromDomain(p *ledger.Payment) *PaymentModel {
	m := &PaymentModel{
		InvoiceID:     p.InvoiceID,
		Amount:        p.Amount.Amount(),
		Currency:      p.Amount.Currency().String(),
		Method:        string(p.Method),
		Status:        string(p.Status),
		Reference:     p.Reference,
		PaidDate:      p.PaidDate,
		FailureReason: p.FailureReason,
		RefundedAt:    p.RefundedAt,
		Notes:         p.Notes,
	}
	m.FromDomainTenantEntity(p.TenantEntity)
	return m
}
