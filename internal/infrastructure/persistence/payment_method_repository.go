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

// GormPaymentMethodRepository implements billing.PaymentMethodRepository
// using GORM
type GormPaymentMethodRepository struct {
	db *gorm.DB
}

var _ billing.PaymentMethodRepository = (*GormPaymentMethodRepository)(nil)

// NewGormPaymentMethodRepository creates a new GormPaymentMethodRepository
func NewGormPaymentMethodRepository(db *gorm.DB) *GormPaymentMethodRepository {
	return &GormPaymentMethodRepository{db: db}
}

// FindByIDVisibleTo finds a method the tenant may use: either its own or
// a system default
func (r *GormPaymentMethodRepository) FindByIDVisibleTo(ctx context.Context, tenantID, id uuid.UUID) (*billing.PaymentMethod, error) {
	var model models.PaymentMethodModel
	if err := r.db.WithContext(ctx).
		Where("id = ? AND (tenant_id = ? OR tenant_id IS NULL)", id, tenantID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindVisibleTo lists the tenant's methods plus system defaults
func (r *GormPaymentMethodRepository) FindVisibleTo(ctx context.Context, tenantID uuid.UUID) ([]billing.PaymentMethod, error) {
	var methodModels []models.PaymentMethodModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? OR tenant_id IS NULL", tenantID).
		Order("name ASC").
		Find(&methodModels).Error; err != nil {
		return nil, err
	}

	methods := make([]billing.PaymentMethod, len(methodModels))
	for i := range methodModels {
		methods[i] = *methodModels[i].ToDomain()
	}
	return methods, nil
}

// Save creates or updates a payment method
func (r *GormPaymentMethodRepository) Save(ctx context.Context, method *billing.PaymentMethod) error {
	var model models.PaymentMethodModel
	model.FromDomain(method)
	return r.db.WithContext(ctx).Save(&model).Error
}

// Delete deletes a payment method
func (r *GormPaymentMethodRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.PaymentMethodModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
