package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/paytrack/backend/internal/domain/shared"
	"github.com/paytrack/backend/internal/domain/shared/valueobject"
)

// Payment date bounds. The floor tolerates imported history; the ceiling
// rejects far-future typos while allowing scheduled settlements a few
// days out.
var paymentDateFloor = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

const paymentDateMaxFuture = 7 * 24 * time.Hour

// Payment is a partial or full settlement recorded against one invoice.
// The sum of an invoice's payments never exceeds its face value; that
// invariant is enforced by CheckPaymentFits under a row lock, not here.
type Payment struct {
	shared.TenantAggregateRoot
	InvoiceID       uuid.UUID         `gorm:"type:uuid;not null;index"`
	PaymentMethodID uuid.UUID         `gorm:"type:uuid;not null;index"`
	Amount          valueobject.Money `gorm:"type:bigint;not null"`
	PaymentDate     time.Time         `gorm:"type:date;not null"`
	AttachmentKey   string            `gorm:"type:varchar(500)"` // Receipt object key
	Note            string            `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Payment) TableName() string {
	return "payments"
}

// NewPayment creates a payment record for an invoice
func NewPayment(tenantID, invoiceID, methodID uuid.UUID, amount valueobject.Money, paymentDate time.Time) (*Payment, error) {
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Payment requires an invoice")
	}
	if methodID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_METHOD", "Payment requires a payment method")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be greater than zero")
	}
	if err := validatePaymentDate(paymentDate); err != nil {
		return nil, err
	}

	return &Payment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceID:           invoiceID,
		PaymentMethodID:     methodID,
		Amount:              amount,
		PaymentDate:         paymentDate,
	}, nil
}

// Update changes the payment's amount, method and date
func (p *Payment) Update(methodID uuid.UUID, amount valueobject.Money, paymentDate time.Time) error {
	if methodID == uuid.Nil {
		return shared.NewDomainError("INVALID_METHOD", "Payment requires a payment method")
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be greater than zero")
	}
	if err := validatePaymentDate(paymentDate); err != nil {
		return err
	}

	p.PaymentMethodID = methodID
	p.Amount = amount
	p.PaymentDate = paymentDate
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// SetNote sets the free-form note
func (p *Payment) SetNote(note string) {
	p.Note = note
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// AttachReceipt records the object storage key of the payment receipt
func (p *Payment) AttachReceipt(key string) {
	p.AttachmentKey = key
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

func validatePaymentDate(d time.Time) error {
	if d.IsZero() {
		return shared.NewDomainError("INVALID_PAYMENT_DATE", "Payment requires a payment date")
	}
	if d.Before(paymentDateFloor) {
		return shared.NewDomainError("INVALID_PAYMENT_DATE", "Payment date is too far in the past")
	}
	if d.After(time.Now().UTC().Add(paymentDateMaxFuture)) {
		return shared.NewDomainError("INVALID_PAYMENT_DATE", "Payment date is too far in the future")
	}
	return nil
}
