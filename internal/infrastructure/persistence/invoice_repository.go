package persistence

import (
	"context"
	"errors"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/ledger"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/syncstate"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/persistence/models"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements ledger.InvoiceRepository using GORM.
// The invoice row, its lines and its payments are written together.
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID loads the invoice aggregate with lines and payments
func (r *GormInvoiceRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	rows := []models.InvoiceModel{model}
	if err := r.loadChildren(ctx, tenantID, rows); err != nil {
		return nil, err
	}
	return rows[0].ToDomain()
}

// FindByPaymentID loads the invoice owning the payment
func (r *GormInvoiceRepository) FindByPaymentID(ctx context.Context, tenantID, paymentID uuid.UUID) (*ledger.Invoice, error) {
	var payment models.PaymentModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Select("invoice_id").
		First(&payment, "id = ?", paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrPaymentNotFound
		}
		return nil, translateError(err)
	}
	return r.FindByID(ctx, tenantID, payment.InvoiceID)
}

// FindAll lists invoices; search matches the invoice number
func (r *GormInvoiceRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter ledger.InvoiceFilter) ([]ledger.Invoice, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Scopes(tenant.Scope(tenantID))
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	query = applySearch(query, filter.Search, "invoice_number").Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}
	var rows []models.InvoiceModel
	if err := applyPage(applyOrder(query, filter.Filter, invoiceSortFields), filter.Filter).Find(&rows).Error; err != nil {
		return nil, 0, translateError(err)
	}
	invoices, err := r.toDomain(ctx, tenantID, rows)
	return invoices, total, err
}

func (r *GormInvoiceRepository) FindBySyncStatus(ctx context.Context, tenantID uuid.UUID, status syncstate.Status, filter shared.Filter) ([]ledger.Invoice, error) {
	var rows []models.InvoiceModel
	if err := bySyncStatus(r.db.WithContext(ctx), tenantID, status, filter).Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return r.toDomain(ctx, tenantID, rows)
}

// NextSequence returns MAX(sequence)+1 for the tenant
func (r *GormInvoiceRepository) NextSequence(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var maxSeq int64
	if err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Scopes(tenant.Scope(tenantID)).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&maxSeq).Error; err != nil {
		return 0, translateError(err)
	}
	return maxSeq + 1, nil
}

// Create inserts the invoice with its lines and payments
func (r *GormInvoiceRepository) Create(ctx context.Context, inv *ledger.Invoice) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(models.InvoiceModelFromDomain(inv)).Error; err != nil {
			if errors.Is(translateError(err), shared.ErrAlreadyExists) {
				return ledger.ErrInvoiceNumberTaken.WithCause(err)
			}
			return translateError(err)
		}
		if err := insertLines(tx, inv); err != nil {
			return err
		}
		return upsertPayments(tx, inv)
	})
	if err != nil {
		return err
	}
	inv.MarkStored()
	return nil
}

// SaveWithLock updates the invoice row under the optimistic lock, replaces
// its lines and upserts its payments.
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, inv *ledger.Invoice) error {
	prev := inv.Version
	expected := advanceVersion(&inv.BaseAggregateRoot)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateVersioned(ctx, tx, models.InvoiceModelFromDomain(inv), expected, tenant.Scope(inv.TenantID)); err != nil {
			return err
		}
		if err := tx.Scopes(tenant.Scope(inv.TenantID)).
			Where("invoice_id = ?", inv.ID).
			Delete(&models.InvoiceItemModel{}).Error; err != nil {
			return translateError(err)
		}
		if err := insertLines(tx, inv); err != nil {
			return err
		}
		return upsertPayments(tx, inv)
	})
	if err != nil {
		inv.Version = prev
		return err
	}
	inv.MarkStored()
	return nil
}

// Delete removes the invoice and its lines. Payments are never deleted, so
// an invoice that has any cannot be removed.
func (r *GormInvoiceRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payments int64
		if err := tx.Model(&models.PaymentModel{}).
			Scopes(tenant.Scope(tenantID)).
			Where("invoice_id = ?", id).
			Count(&payments).Error; err != nil {
			return translateError(err)
		}
		if payments > 0 {
			return ledger.ErrInvoiceNotDeletable
		}
		if err := tx.Scopes(tenant.Scope(tenantID)).
			Where("invoice_id = ?", id).
			Delete(&models.InvoiceItemModel{}).Error; err != nil {
			return translateError(err)
		}
		res := tx.Scopes(tenant.Scope(tenantID)).
			Where("id = ?", id).
			Delete(&models.InvoiceModel{})
		if res.Error != nil {
			return translateError(res.Error)
		}
		if res.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func insertLines(tx *gorm.DB, inv *ledger.Invoice) error {
	if len(inv.Items) == 0 {
		return nil
	}
	rows := make([]*models.InvoiceItemModel, len(inv.Items))
	for i := range inv.Items {
		rows[i] = models.InvoiceItemModelFromDomain(&inv.Items[i])
	}
	return translateError(tx.Create(rows).Error)
}

// upsertPayments inserts new payments and updates the mutable columns of
// existing ones. A reference already used on the invoice surfaces as
// DUPLICATE_PAYMENT_REFERENCE.
func upsertPayments(tx *gorm.DB, inv *ledger.Invoice) error {
	if len(inv.Payments) == 0 {
		return nil
	}
	rows := make([]*models.PaymentModel, len(inv.Payments))
	for i := range inv.Payments {
		rows[i] = models.PaymentModelFromDomain(&inv.Payments[i])
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "paid_date", "failure_reason", "refunded_at", "notes", "updated_at"}),
	}).Create(rows).Error
	if err != nil && isUniqueViolation(err) {
		return shared.ErrDuplicatePaymentReference.WithCause(err)
	}
	return translateError(err)
}

// loadChildren fills Items and Payments of rows with two IN queries
func (r *GormInvoiceRepository) loadChildren(ctx context.Context, tenantID uuid.UUID, rows []models.InvoiceModel) error {
	if len(rows) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(rows))
	index := make(map[uuid.UUID]int, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
		index[rows[i].ID] = i
	}

	var items []models.InvoiceItemModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("invoice_id IN ?", ids).
		Order("position ASC").
		Find(&items).Error; err != nil {
		return translateError(err)
	}
	var payments []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("invoice_id IN ?", ids).
		Order("created_at ASC").
		Find(&payments).Error; err != nil {
		return translateError(err)
	}

	for _, it := range items {
		i := index[it.InvoiceID]
		rows[i].Items = append(rows[i].Items, it)
	}
	for _, p := range payments {
		i := index[p.InvoiceID]
		rows[i].Payments = append(rows[i].Payments, p)
	}
	return nil
}

func (r *GormInvoiceRepository) toDomain(ctx context.Context, tenantID uuid.UUID, rows []models.InvoiceModel) ([]ledger.Invoice, error) {
	if err := r.loadChildren(ctx, tenantID, rows); err != nil {
		return nil, err
	}
	invoices := make([]ledger.Invoice, 0, len(rows))
	for i := range rows {
		inv, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, nil
}

var _ ledger.InvoiceRepository = (*GormInvoiceRepository)(nil)
