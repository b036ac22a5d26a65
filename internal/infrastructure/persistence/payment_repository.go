package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/paytrack/backend/internal/domain/billing"
	"github.com/paytrack/backend/internal/domain/shared"
	"github.com/paytrack/backend/internal/infrastructure/persistence/models"
)

// GormPaymentRepository implements billing.PaymentRepository using GORM.
//
// The guarded writes take a FOR UPDATE lock on the invoice row for the
// duration of check-plus-write, so two concurrent submissions against the
// same invoice serialize and the second one sees the first one's amount.
type GormPaymentRepository struct {
	db *gorm.DB
}

var _ billing.PaymentRepository = (*GormPaymentRepository)(nil)

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByIDForTenant finds a payment by ID within a tenant
func (r *GormPaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Payment, error) {
	var model models.PaymentModel
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

// FindByInvoice finds all payments of one invoice within a tenant
func (r *GormPaymentRepository) FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]billing.Payment, error) {
	var paymentModels []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND invoice_id = ?", tenantID, invoiceID).
		Order("payment_date ASC, created_at ASC").
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}
	return toDomainPayments(paymentModels), nil
}

// FindByInvoiceIDs finds all payments whose invoice is in the given set.
// The tenant condition applies to the payment rows themselves: a guessed
// invoice id from another tenant returns nothing.
func (r *GormPaymentRepository) FindByInvoiceIDs(ctx context.Context, tenantID uuid.UUID, invoiceIDs []uuid.UUID) ([]billing.Payment, error) {
	if len(invoiceIDs) == 0 {
		return nil, nil
	}
	var paymentModels []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND invoice_id IN ?", tenantID, invoiceIDs).
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}
	return toDomainPayments(paymentModels), nil
}

// CreateGuarded inserts the payment if it fits the invoice headroom
func (r *GormPaymentRepository) CreateGuarded(ctx context.Context, payment *billing.Payment) error {
	return r.guardedWrite(ctx, payment, uuid.Nil, func(tx *gorm.DB, model *models.PaymentModel) error {
		return tx.Create(model).Error
	})
}

// UpdateGuarded updates the payment if the new amount fits, excluding the
// payment's own previous amount from the check
func (r *GormPaymentRepository) UpdateGuarded(ctx context.Context, payment *billing.Payment) error {
	return r.guardedWrite(ctx, payment, payment.ID, func(tx *gorm.DB, model *models.PaymentModel) error {
		result := tx.Model(&models.PaymentModel{}).
			Where("tenant_id = ? AND id = ?", payment.TenantID, payment.ID).
			Updates(map[string]interface{}{
				"payment_method_id": model.PaymentMethodID,
				"amount_cents":      model.AmountCents,
				"payment_date":      model.PaymentDate,
				"attachment_key":    model.AttachmentKey,
				"note":              model.Note,
				"updated_at":        model.UpdatedAt,
				"version":           model.Version,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func (r *GormPaymentRepository) guardedWrite(ctx context.Context, payment *billing.Payment, excludeID uuid.UUID, write func(tx *gorm.DB, model *models.PaymentModel) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoiceQuery := tx.Where("tenant_id = ? AND id = ?", payment.TenantID, payment.InvoiceID)
		// SQLite rejects FOR UPDATE and serializes writers on its own.
		if tx.Dialector.Name() == "postgres" {
			invoiceQuery = invoiceQuery.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var invoiceModel models.InvoiceModel
		if err := invoiceQuery.First(&invoiceModel).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		var siblingModels []models.PaymentModel
		if err := tx.
			Where("tenant_id = ? AND invoice_id = ?", payment.TenantID, payment.InvoiceID).
			Find(&siblingModels).Error; err != nil {
			return err
		}

		siblings := make([]*billing.Payment, len(siblingModels))
		for i := range siblingModels {
			siblings[i] = siblingModels[i].ToDomain()
		}

		if err := billing.CheckPaymentFits(invoiceModel.ToDomain(), siblings, payment.Amount, excludeID); err != nil {
			return err
		}

		var model models.PaymentModel
		model.FromDomain(payment)
		return write(tx, &model)
	})
}

// DeleteForTenant deletes a payment within a tenant
func (r *GormPaymentRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.PaymentModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ExistsForInvoice checks whether the invoice has any payment
func (r *GormPaymentRepository) ExistsForInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.PaymentModel{}).
		Where("tenant_id = ? AND invoice_id = ?", tenantID, invoiceID).
		Limit(1).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ExistsForMethod checks whether any payment references the method
func (r *GormPaymentRepository) ExistsForMethod(ctx context.Context, methodID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.PaymentModel{}).
		Where("payment_method_id = ?", methodID).
		Limit(1).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func toDomainPayments(paymentModels []models.PaymentModel) []billing.Payment {
	payments := make([]billing.Payment, len(paymentModels))
	for i := range paymentModels {
		payments[i] = *paymentModels[i].ToDomain()
	}
	return payments
}
