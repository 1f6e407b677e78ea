package models

// All returns every model in dependency order, for AutoMigrate in tests and
// local development. Production schemas come from the SQL migrations.
func All() []any {
	return []any{
		&TenantModel{},
		&UserModel{},
		&SessionModel{},
		&ItemModel{},
		&CustomerModel{},
		&VendorModel{},
		&PackageModel{},
		&InvoiceModel{},
		&InvoiceItemModel{},
		&PaymentModel{},
		&PackageSubscriptionModel{},
		&AuditLogModel{},
	}
}

// Indexes are the composite and partial unique indexes gorm tags cannot
// express on embedded columns. The statements run on postgres and sqlite.
var Indexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_items_tenant_sku ON items (tenant_id, sku) WHERE sku IS NOT NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_packages_tenant_tier ON packages (tenant_id, tier)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_packages_tenant_name ON packages (tenant_id, name)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_invoices_tenant_number ON invoices (tenant_id, invoice_number)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_invoice_reference ON payments (invoice_id, reference) WHERE reference <> '' AND status <> 'FAILED'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_subscriptions_tenant_current ON package_subscriptions (tenant_id) WHERE status IN ('TRIAL', 'ACTIVE')`,
}
