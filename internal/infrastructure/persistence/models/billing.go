package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/paytrack/backend/internal/domain/billing"
	"github.com/paytrack/backend/internal/domain/shared/valueobject"
)

// SupplierModel is the persistence model for the Supplier aggregate.
type SupplierModel struct {
	TenantAggregateModel
	Name        string `gorm:"type:varchar(200);not null"`
	TaxDocument string `gorm:"type:varchar(50)"`
	Email       string `gorm:"type:varchar(200);index"`
	Phone       string `gorm:"type:varchar(50)"`
	// No gorm default tag: with one, GORM omits false on INSERT and the
	// column default would resurrect a deactivated supplier.
	Active bool `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SupplierModel) TableName() string {
	return "suppliers"
}

// ToDomain converts the persistence model to a domain Supplier.
func (m *SupplierModel) ToDomain() *billing.Supplier {
	return &billing.Supplier{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Name:                m.Name,
		TaxDocument:         m.TaxDocument,
		Email:               m.Email,
		Phone:               m.Phone,
		Active:              m.Active,
	}
}

// FromDomain populates the persistence model from a domain Supplier.
func (m *SupplierModel) FromDomain(s *billing.Supplier) {
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	m.Name = s.Name
	m.TaxDocument = s.TaxDocument
	m.Email = s.Email
	m.Phone = s.Phone
	m.Active = s.Active
}

// PaymentMethodModel is the persistence model for PaymentMethod.
// TenantID is nullable: rows without one are system defaults shared by
// every tenant.
type PaymentMethodModel struct {
	AggregateModel
	TenantID *uuid.UUID `gorm:"type:uuid;index"`
	Name     string     `gorm:"type:varchar(100);not null"`
}

// TableName returns the table name for GORM
func (PaymentMethodModel) TableName() string {
	return "payment_methods"
}

// ToDomain converts the persistence model to a domain PaymentMethod.
func (m *PaymentMethodModel) ToDomain() *billing.PaymentMethod {
	return &billing.PaymentMethod{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		TenantID:          m.TenantID,
		Name:              m.Name,
	}
}

// FromDomain populates the persistence model from a domain PaymentMethod.
func (m *PaymentMethodModel) FromDomain(p *billing.PaymentMethod) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.TenantID = p.TenantID
	m.Name = p.Name
}

// InvoiceModel is the persistence model for the Invoice aggregate.
// Amounts are stored as integer cents in bigint columns.
type InvoiceModel struct {
	TenantAggregateModel
	SupplierID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_invoice_identity,priority:2"`
	Series           string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_invoice_identity,priority:3"`
	Number           string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoice_identity,priority:4"`
	DueDate          time.Time `gorm:"type:date;not null;index"`
	TotalAmountCents int64     `gorm:"type:bigint;not null"`
	AttachmentKey    string    `gorm:"type:varchar(500)"`
	Description      string    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice.
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	return &billing.Invoice{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		SupplierID:          m.SupplierID,
		Series:              m.Series,
		Number:              m.Number,
		DueDate:             m.DueDate,
		TotalAmount:         valueobject.NewMoney(m.TotalAmountCents),
		AttachmentKey:       m.AttachmentKey,
		Description:         m.Description,
	}
}

// FromDomain populates the persistence model from a domain Invoice.
func (m *InvoiceModel) FromDomain(i *billing.Invoice) {
	m.FromDomainTenantAggregateRoot(i.TenantAggregateRoot)
	m.SupplierID = i.SupplierID
	m.Series = i.Series
	m.Number = i.Number
	m.DueDate = i.DueDate
	m.TotalAmountCents = i.TotalAmount.Cents()
	m.AttachmentKey = i.AttachmentKey
	m.Description = i.Description
}

// PaymentModel is the persistence model for the Payment aggregate.
type PaymentModel struct {
	TenantAggregateModel
	InvoiceID       uuid.UUID `gorm:"type:uuid;not null;index"`
	PaymentMethodID uuid.UUID `gorm:"type:uuid;not null;index"`
	AmountCents     int64     `gorm:"type:bigint;not null"`
	PaymentDate     time.Time `gorm:"type:date;not null"`
	AttachmentKey   string    `gorm:"type:varchar(500)"`
	Note            string    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *PaymentModel) ToDomain() *billing.Payment {
	return &billing.Payment{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		InvoiceID:           m.InvoiceID,
		PaymentMethodID:     m.PaymentMethodID,
		Amount:              valueobject.NewMoney(m.AmountCents),
		PaymentDate:         m.PaymentDate,
		AttachmentKey:       m.AttachmentKey,
		Note:                m.Note,
	}
}

// FromDomain populates the persistence model from a domain Payment.
func (m *PaymentModel) FromDomain(p *billing.Payment) {
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	m.InvoiceID = p.InvoiceID
	m.PaymentMethodID = p.PaymentMethodID
	m.AmountCents = p.Amount.Cents()
	m.PaymentDate = p.PaymentDate
	m.AttachmentKey = p.AttachmentKey
	m.Note = p.Note
}
