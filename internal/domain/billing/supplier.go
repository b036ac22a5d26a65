package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paytrack/backend/internal/domain/shared"
)

// Supplier represents a party that issues invoices to the tenant.
// It is the aggregate root for supplier-related operations.
type Supplier struct {
	shared.TenantAggregateRoot
	Name        string `gorm:"type:varchar(200);not null"`
	TaxDocument string `gorm:"type:varchar(50)"` // Opaque identifier, format not validated
	Email       string `gorm:"type:varchar(200);index"`
	Phone       string `gorm:"type:varchar(50)"`
	Active      bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Supplier) TableName() string {
	return "suppliers"
}

// NewSupplier creates a new active supplier with required fields
func NewSupplier(tenantID uuid.UUID, name, taxDocument, email, phone string) (*Supplier, error) {
	if err := validateSupplierName(name); err != nil {
		return nil, err
	}
	if email != "" {
		if err := validateEmail(email); err != nil {
			return nil, err
		}
	}

	return &Supplier{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		TaxDocument:         strings.TrimSpace(taxDocument),
		Email:               email,
		Phone:               phone,
		Active:              true,
	}, nil
}

// Update updates the supplier's basic information
func (s *Supplier) Update(name, taxDocument, email, phone string) error {
	if err := validateSupplierName(name); err != nil {
		return err
	}
	if email != "" {
		if err := validateEmail(email); err != nil {
			return err
		}
	}

	s.Name = name
	s.TaxDocument = strings.TrimSpace(taxDocument)
	s.Email = email
	s.Phone = phone
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}

// Activate reactivates the supplier
func (s *Supplier) Activate() error {
	if s.Active {
		return shared.NewDomainError("ALREADY_ACTIVE", "Supplier is already active")
	}

	s.Active = true
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}

// Deactivate deactivates the supplier. Deactivated suppliers stay
// referenced by their invoices but cannot receive new ones.
func (s *Supplier) Deactivate() error {
	if !s.Active {
		return shared.NewDomainError("ALREADY_INACTIVE", "Supplier is already inactive")
	}

	s.Active = false
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}

// IsActive returns true if the supplier is active
func (s *Supplier) IsActive() bool {
	return s.Active
}

func validateSupplierName(name string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Supplier name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Supplier name cannot exceed 200 characters")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}
