package models

import (
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ItemModel is the items row. SKU is NULL when absent so the per-tenant
// unique index only covers items that carry one.
type ItemModel struct {
	TenantAggregateModel
	SKU         *string         `gorm:"type:varchar(64)"`
	Name        string          `gorm:"type:varchar(200);not null"`
	Description string          `gorm:"type:text"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency    string          `gorm:"type:varchar(3);not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	SyncColumns
}

func (ItemModel) TableName() string { return "items" }

func (m *ItemModel) ToDomain() (*catalog.Item, error) {
	price, err := toMoney(m.UnitPrice, m.Currency)
	if err != nil {
		return nil, err
	}
	item := &catalog.Item{
		SKU:         deref(m.SKU),
		Name:        m.Name,
		Description: m.Description,
		UnitPrice:   price,
		Quantity:    m.Quantity,
		Sync:        m.ToState(),
	}
	m.PopulateTenantAggregateRoot(&item.TenantAggregateRoot)
	return item, nil
}

func ItemModelFromDomain(i *catalog.Item) *ItemModel {
	m := &ItemModel{
		SKU:         nullable(i.SKU),
		Name:        i.Name,
		Description: i.Description,
		UnitPrice:   i.UnitPrice.Amount(),
		Currency:    i.UnitPrice.Currency().String(),
		Quantity:    i.Quantity,
	}
	m.FromDomainTenantAggregateRoot(i.TenantAggregateRoot)
	m.FromState(i.Sync)
	return m
}

// ContactColumns persists catalog.Contact.
type ContactColumns struct {
	Name    string `gorm:"type:varchar(200);not null"`
	Email   string `gorm:"type:varchar(320)"`
	Phone   string `gorm:"type:varchar(50)"`
	Address string `gorm:"type:text"`
}

func contactColumns(c catalog.Contact) ContactColumns {
	return ContactColumns{Name: c.Name, Email: c.Email, Phone: c.Phone, Address: c.Address}
}

func (c ContactColumns) contact() catalog.Contact {
	return catalog.Contact{Name: c.Name, Email: c.Email, Phone: c.Phone, Address: c.Address}
}

// CustomerModel is the customers row.
type CustomerModel struct {
	TenantAggregateModel
	ContactColumns
	SyncColumns
}

func (CustomerModel) TableName() string { return "customers" }

func (m *CustomerModel) ToDomain() *catalog.Customer {
	c := &catalog.Customer{Contact: m.contact(), Sync: m.ToState()}
	m.PopulateTenantAggregateRoot(&c.TenantAggregateRoot)
	return c
}

func CustomerModelFromDomain(c *catalog.Customer) *CustomerModel {
	m := &CustomerModel{ContactColumns: contactColumns(c.Contact)}
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	m.FromState(c.Sync)
	return m
}

// VendorModel is the vendors row.
type VendorModel struct {
	TenantAggregateModel
	ContactColumns
	SyncColumns
}

func (VendorModel) TableName() string { return "vendors" }

func (m *VendorModel) ToDomain() *catalog.Vendor {
	v := &catalog.Vendor{Contact: m.contact(), Sync: m.ToState()}
	m.PopulateTenantAggregateRoot(&v.TenantAggregateRoot)
	return v
}

func VendorModelFromDomain(v *catalog.Vendor) *VendorModel {
	m := &VendorModel{ContactColumns: contactColumns(v.Contact)}
	m.FromDomainTenantAggregateRoot(v.TenantAggregateRoot)
	m.FromState(v.Sync)
	return m
}

// PackageModel is the packages row.
type PackageModel struct {
	TenantAggregateModel
	Tier         string          `gorm:"type:varchar(20);not null"`
	Name         string          `gorm:"type:varchar(100);not null"`
	Price        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency     string          `gorm:"type:varchar(3);not null"`
	DurationDays int             `gorm:"not null"`
	SyncColumns
}

func (PackageModel) TableName() string { return "packages" }

func (m *PackageModel) ToDomain() (*catalog.Package, error) {
	price, err := toMoney(m.Price, m.Currency)
	if err != nil {
		return nil, err
	}
	p := &catalog.Package{
		Tier:         catalog.Tier(m.Tier),
		Name:         m.Name,
		Price:        price,
		DurationDays: m.DurationDays,
		Sync:         m.ToState(),
	}
	m.PopulateTenantAggregateRoot(&p.TenantAggregateRoot)
	return p, nil
}

func PackageModelFromDomain(p *catalog.Package) *PackageModel {
	m := &PackageModel{
		Tier:         string(p.Tier),
		Name:         p.Name,
		Price:        p.Price.Amount(),
		Currency:     p.Price.Currency().String(),
		DurationDays: p.DurationDays,
	}
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	m.FromState(p.Sync)
	return m
}
