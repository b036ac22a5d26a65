package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/paytrack/backend/internal/domain/billing"
	"github.com/paytrack/backend/internal/domain/shared"
	"github.com/paytrack/backend/internal/infrastructure/persistence/models"
)

// GormInvoiceRepository implements billing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByIDForTenant finds an invoice by ID within a tenant
func (r *GormInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindForTenant finds every invoice of the tenant matching the query.
// Pagination is deliberately absent: callers filter on the derived
// payment status first and page afterwards.
func (r *GormInvoiceRepository) FindForTenant(ctx context.Context, tenantID uuid.UUID, query billing.InvoiceQuery) ([]billing.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	q := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("tenant_id = ?", tenantID)
	q = r.applyQuery(q, query)

	if err := q.Order("due_date ASC, id ASC").Find(&invoiceModels).Error; err != nil {
		return nil, err
	}

	invoices := make([]billing.Invoice, len(invoiceModels))
	for i := range invoiceModels {
		invoices[i] = *invoiceModels[i].ToDomain()
	}
	return invoices, nil
}

// ExistsByIdentity checks whether another invoice with the same supplier,
// series and number exists in the tenant
func (r *GormInvoiceRepository) ExistsByIdentity(ctx context.Context, tenantID, supplierID uuid.UUID, series, number string, excludeID uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("tenant_id = ? AND supplier_id = ? AND series = ? AND number = ?",
			tenantID, supplierID, series, number)
	if excludeID != uuid.Nil {
		q = q.Where("id != ?", excludeID)
	}

	var count int64
	if err := q.Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates an invoice
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	var model models.InvoiceModel
	model.FromDomain(invoice)
	return r.db.WithContext(ctx).Save(&model).Error
}

// DeleteForTenant deletes an invoice within a tenant
func (r *GormInvoiceRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.InvoiceModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormInvoiceRepository) applyQuery(q *gorm.DB, query billing.InvoiceQuery) *gorm.DB {
	if query.Search != "" {
		pattern := "%" + query.Search + "%"
		q = q.Where("series LIKE ? OR number LIKE ? OR description LIKE ?",
			pattern, pattern, pattern)
	}
	if query.SupplierID != nil {
		q = q.Where("supplier_id = ?", *query.SupplierID)
	}
	if query.CreatedFrom != nil {
		q = q.Where("created_at >= ?", *query.CreatedFrom)
	}
	if query.CreatedTo != nil {
		q = q.Where("created_at < ?", *query.CreatedTo)
	}
	if query.DueDateFrom != nil {
		q = q.Where("due_date >= ?", *query.DueDateFrom)
	}
	if query.DueDateTo != nil {
		q = q.Where("due_date < ?", *query.DueDateTo)
	}
	return q
}
