package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paytrack/backend/internal/domain/shared"
	"github.com/paytrack/backend/internal/domain/shared/valueobject"
)

// Invoice is an obligation to pay a supplier. Paid status is never stored
// on the invoice; it is derived from the invoice and its payments on read.
type Invoice struct {
	shared.TenantAggregateRoot
	SupplierID    uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_invoice_identity,priority:1"`
	Series        string            `gorm:"type:varchar(20);not null;uniqueIndex:idx_invoice_identity,priority:2"`
	Number        string            `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoice_identity,priority:3"`
	DueDate       time.Time         `gorm:"type:date;not null;index"`
	TotalAmount   valueobject.Money `gorm:"type:bigint;not null"`
	AttachmentKey string            `gorm:"type:varchar(500)"` // Object storage key, opaque to the domain
	Description   string            `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Invoice) TableName() string {
	return "invoices"
}

// NewInvoice creates a new invoice. The face value must be positive; the
// series plus number pair identifies the document within its supplier.
func NewInvoice(tenantID, supplierID uuid.UUID, series, number string, dueDate time.Time, total valueobject.Money) (*Invoice, error) {
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Invoice requires a supplier")
	}
	if err := validateInvoiceIdentity(series, number); err != nil {
		return nil, err
	}
	if !total.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Invoice total must be greater than zero")
	}
	if dueDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DUE_DATE", "Invoice requires a due date")
	}

	return &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SupplierID:          supplierID,
		Series:              strings.ToUpper(strings.TrimSpace(series)),
		Number:              strings.TrimSpace(number),
		DueDate:             dueDate,
		TotalAmount:         total,
	}, nil
}

// Update changes the invoice identity, due date and face value. Callers
// must re-run the overpayment check when the total shrinks below the sum
// of recorded payments.
func (i *Invoice) Update(supplierID uuid.UUID, series, number string, dueDate time.Time, total valueobject.Money) error {
	if supplierID == uuid.Nil {
		return shared.NewDomainError("INVALID_SUPPLIER", "Invoice requires a supplier")
	}
	if err := validateInvoiceIdentity(series, number); err != nil {
		return err
	}
	if !total.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Invoice total must be greater than zero")
	}
	if dueDate.IsZero() {
		return shared.NewDomainError("INVALID_DUE_DATE", "Invoice requires a due date")
	}

	i.SupplierID = supplierID
	i.Series = strings.ToUpper(strings.TrimSpace(series))
	i.Number = strings.TrimSpace(number)
	i.DueDate = dueDate
	i.TotalAmount = total
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	return nil
}

// SetDescription sets the free-form description
func (i *Invoice) SetDescription(description string) {
	i.Description = description
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
}

// AttachDocument records the object storage key of the scanned document
func (i *Invoice) AttachDocument(key string) {
	i.AttachmentKey = key
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
}

// HasAttachment returns true when a document is stored for this invoice
func (i *Invoice) HasAttachment() bool {
	return i.AttachmentKey != ""
}

func validateInvoiceIdentity(series, number string) error {
	if strings.TrimSpace(series) == "" {
		return shared.NewDomainError("INVALID_SERIES", "Invoice series cannot be empty")
	}
	if len(series) > 20 {
		return shared.NewDomainError("INVALID_SERIES", "Invoice series cannot exceed 20 characters")
	}
	if strings.TrimSpace(number) == "" {
		return shared.NewDomainError("INVALID_NUMBER", "Invoice number cannot be empty")
	}
	if len(number) > 50 {
		return shared.NewDomainError("INVALID_NUMBER", "Invoice number cannot exceed 50 characters")
	}
	return nil
}
