package billing

import (
	"context"

	"github.com/google/uuid"
)

// PaymentMethodRepository defines the interface for payment method
// persistence. Visibility always means the union of the tenant's own
// methods and the system defaults.
type PaymentMethodRepository interface {
	// FindByIDVisibleTo finds a method the tenant may use
	FindByIDVisibleTo(ctx context.Context, tenantID, id uuid.UUID) (*PaymentMethod, error)

	// FindVisibleTo lists the tenant's methods plus system defaults
	FindVisibleTo(ctx context.Context, tenantID uuid.UUID) ([]PaymentMethod, error)

	// Save creates or updates a payment method
	Save(ctx context.Context, method *PaymentMethod) error

	// Delete deletes a payment method
	Delete(ctx context.Context, id uuid.UUID) error
}
