package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/paytrack/backend/internal/domain/billing"
	"github.com/paytrack/backend/internal/domain/shared"
)

// PaymentMethodService handles payment method operations. Tenants see
// their own methods plus the global system defaults; system defaults
// are read-only for tenants.
type PaymentMethodService struct {
	methodRepo  billing.PaymentMethodRepository
	paymentRepo billing.PaymentRepository
}

// NewPaymentMethodService creates a new PaymentMethodService
func NewPaymentMethodService(methodRepo billing.PaymentMethodRepository, paymentRepo billing.PaymentRepository) *PaymentMethodService {
	return &PaymentMethodService{
		methodRepo:  methodRepo,
		paymentRepo: paymentRepo,
	}
}

// List retrieves the payment methods visible to one tenant
func (s *PaymentMethodService) List(ctx context.Context, tenantID uuid.UUID) ([]PaymentMethodResponse, error) {
	methods, err := s.methodRepo.FindVisibleTo(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return ToPaymentMethodResponses(methods), nil
}

// Create creates a tenant-scoped payment method
func (s *PaymentMethodService) Create(ctx context.Context, tenantID uuid.UUID, req CreatePaymentMethodRequest) (*PaymentMethodResponse, error) {
	method, err := billing.NewPaymentMethod(tenantID, req.Name)
	if err != nil {
		return nil, err
	}

	if err := s.methodRepo.Save(ctx, method); err != nil {
		return nil, err
	}

	response := ToPaymentMethodResponse(method)
	return &response, nil
}

// Update renames a tenant-scoped payment method. System defaults cannot
// be renamed.
func (s *PaymentMethodService) Update(ctx context.Context, tenantID, methodID uuid.UUID, req UpdatePaymentMethodRequest) (*PaymentMethodResponse, error) {
	method, err := s.methodRepo.FindByIDVisibleTo(ctx, tenantID, methodID)
	if err != nil {
		return nil, err
	}

	if err := method.Rename(req.Name); err != nil {
		return nil, err
	}

	if err := s.methodRepo.Save(ctx, method); err != nil {
		return nil, err
	}

	response := ToPaymentMethodResponse(method)
	return &response, nil
}

// Delete removes a tenant-scoped payment method. System defaults and
// methods still referenced by payments are not deletable.
func (s *PaymentMethodService) Delete(ctx context.Context, tenantID, methodID uuid.UUID) error {
	method, err := s.methodRepo.FindByIDVisibleTo(ctx, tenantID, methodID)
	if err != nil {
		return err
	}

	if method.IsSystemDefault() {
		return shared.NewDomainError("FORBIDDEN", "System default payment methods cannot be deleted")
	}

	referenced, err := s.paymentRepo.ExistsForMethod(ctx, methodID)
	if err != nil {
		return err
	}
	if referenced {
		return shared.NewDomainError("IN_USE", "Payment method is referenced by existing payments")
	}

	return s.methodRepo.Delete(ctx, methodID)
}
