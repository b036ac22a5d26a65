package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paytrack/backend/internal/domain/shared"
)

// PaymentMethod is a named way of settling an invoice. A method either
// belongs to one tenant or, with a nil tenant id, is a system default
// visible to every tenant. System defaults cannot be modified or removed.
type PaymentMethod struct {
	shared.BaseAggregateRoot
	TenantID *uuid.UUID `gorm:"type:uuid;index"` // nil = system default
	Name     string     `gorm:"type:varchar(100);not null"`
}

// TableName returns the table name for GORM
func (PaymentMethod) TableName() string {
	return "payment_methods"
}

// NewPaymentMethod creates a tenant-owned payment method
func NewPaymentMethod(tenantID uuid.UUID, name string) (*PaymentMethod, error) {
	if err := validateMethodName(name); err != nil {
		return nil, err
	}

	return &PaymentMethod{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		TenantID:          &tenantID,
		Name:              strings.TrimSpace(name),
	}, nil
}

// NewSystemPaymentMethod creates a global default method with no tenant
func NewSystemPaymentMethod(name string) (*PaymentMethod, error) {
	if err := validateMethodName(name); err != nil {
		return nil, err
	}

	return &PaymentMethod{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              strings.TrimSpace(name),
	}, nil
}

// IsSystemDefault returns true when the method is visible to all tenants
func (m *PaymentMethod) IsSystemDefault() bool {
	return m.TenantID == nil
}

// VisibleTo reports whether the given tenant may use this method
func (m *PaymentMethod) VisibleTo(tenantID uuid.UUID) bool {
	return m.TenantID == nil || *m.TenantID == tenantID
}

// Rename changes the method name. System defaults are immutable.
func (m *PaymentMethod) Rename(name string) error {
	if m.IsSystemDefault() {
		return shared.NewDomainError("FORBIDDEN", "System payment methods cannot be modified")
	}
	if err := validateMethodName(name); err != nil {
		return err
	}

	m.Name = strings.TrimSpace(name)
	m.UpdatedAt = time.Now()
	m.IncrementVersion()

	return nil
}

func validateMethodName(name string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Payment method name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Payment method name cannot exceed 100 characters")
	}
	return nil
}
