package ledger

// InvoiceStatus is derived from the invoice's payments; it is never written directly
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "DRAFT"
	InvoiceStatusSent          InvoiceStatus = "SENT"
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoiceStatusPaid          InvoiceStatus = "PAID"
	InvoiceStatusCancelled     InvoiceStatus = "CANCELLED"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPartiallyPaid,
		InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the invoice is frozen
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusCancelled
}

// CanAcceptPayment returns true once the invoice was sent and not cancelled.
// PAID still accepts payments; the surplus becomes customer credit.
func (s InvoiceStatus) CanAcceptPayment() bool {
	return s == InvoiceStatusSent || s == InvoiceStatusPartiallyPaid || s == InvoiceStatusPaid
}

// CanCancel returns true for the statuses cancellation may start from
func (s InvoiceStatus) CanCancel() bool {
	return s == InvoiceStatusDraft || s == InvoiceStatusSent
}

// PaymentStatus is the status of one settlement attempt
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// PaymentMethod is how a payment was made
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodCheck        PaymentMethod = "CHECK"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodCardGateway  PaymentMethod = "CARD_GATEWAY"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodWallet       PaymentMethod = "WALLET"
	PaymentMethodOther        PaymentMethod = "OTHER"
)

// IsValid checks if the method is a valid PaymentMethod
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCheck, PaymentMethodCard, PaymentMethodCardGateway,
		PaymentMethodBankTransfer, PaymentMethodWallet, PaymentMethodOther:
		return true
	}
	return false
}

// IsAsynchronous returns true for methods confirmed later by a gateway callback
func (m PaymentMethod) IsAsynchronous() bool {
	return m == PaymentMethodCardGateway || m == PaymentMethodBankTransfer
}

// PaymentOutcome is the result reported by a payment gateway
type PaymentOutcome string

const (
	PaymentOutcomeCompleted PaymentOutcome = "COMPLETED"
	PaymentOutcomeFailed    PaymentOutcome = "FAILED"
)

// IsValid checks if the outcome is known
func (o PaymentOutcome) IsValid() bool {
	return o == PaymentOutcomeCompleted || o == PaymentOutcomeFailed
}

func (o PaymentOutcome) status() PaymentStatus {
	if o == PaymentOutcomeCompleted {
		return PaymentStatusCompleted
	}
	return PaymentStatusFailed
}

// OverpaymentPolicy decides what happens when a payment exceeds the balance
type OverpaymentPolicy int

const (
	// AllowOverpayment lets balanceDue go negative; the surplus is customer credit
	AllowOverpayment OverpaymentPolicy = iota
	// RejectOverpayment fails with OVERPAYMENT_REJECTED
	RejectOverpayment
)
