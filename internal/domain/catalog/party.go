package catalog

import (
	"net/mail"
	"strings"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/syncstate"
	"github.com/google/uuid"
)

// Contact holds the counterparty details shared by customers and vendors
type Contact struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

func (c Contact) normalized() (Contact, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" || len(c.Name) > 200 {
		return c, shared.NewDomainError("INVALID_NAME", "Name must be 1-200 characters")
	}
	c.Email = strings.TrimSpace(c.Email)
	if c.Email != "" {
		addr, err := mail.ParseAddress(c.Email)
		if err != nil {
			return c, shared.NewDomainError("INVALID_EMAIL", "Invalid email address")
		}
		c.Email = strings.ToLower(addr.Address)
	}
	return c, nil
}

// Customer is the billable party on invoices
type Customer struct {
	shared.TenantAggregateRoot
	Contact
	Sync syncstate.State
}

// NewCustomer creates a new customer
func NewCustomer(tenantID uuid.UUID, contact Contact) (*Customer, error) {
	c, err := contact.normalized()
	if err != nil {
		return nil, err
	}
	return &Customer{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Contact:             c,
		Sync:                syncstate.NewState(),
	}, nil
}

// Update replaces the contact details
func (c *Customer) Update(contact Contact) error {
	n, err := contact.normalized()
	if err != nil {
		return err
	}
	c.Contact = n
	c.Touch()
	c.IncrementVersion()
	c.Sync.MarkPending()
	return nil
}

// SyncState exposes the sync state
func (c *Customer) SyncState() *syncstate.State {
	return &c.Sync
}

// Vendor is a supplier counterparty
type Vendor struct {
	shared.TenantAggregateRoot
	Contact
	Sync syncstate.State
}

// NewVendor creates a new vendor
func NewVendor(tenantID uuid.UUID, contact Contact) (*Vendor, error) {
	c, err := contact.normalized()
	if err != nil {
		return nil, err
	}
	return &Vendor{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Contact:             c,
		Sync:                syncstate.NewState(),
	}, nil
}

// Update replaces the contact details
func (v *Vendor) Update(contact Contact) error {
	n, err := contact.normalized()
	if err != nil {
		return err
	}
	v.Contact = n
	v.Touch()
	v.IncrementVersion()
	v.Sync.MarkPending()
	return nil
}

// SyncState exposes the sync state
func (v *Vendor) SyncState() *syncstate.State {
	return &v.Sync
}
