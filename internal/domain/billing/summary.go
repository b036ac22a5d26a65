package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/paytrack/backend/internal/domain/shared/valueobject"
)

// InvoiceSummary is an invoice enriched with everything derived from its
// payments. Summaries are rebuilt on every read and never persisted, so
// a stored status can never go stale.
type InvoiceSummary struct {
	Invoice     *Invoice
	Payments    []*Payment
	PaidAmount  valueobject.Money
	Remaining   valueobject.Money
	Status      PaymentStatus
	Overdue     bool
	PaidPercent decimal.Decimal
}

// NewInvoiceSummary derives the summary of one invoice from its payments
// at the given instant. Payments passed in must belong to the invoice;
// the caller does the grouping.
func NewInvoiceSummary(invoice *Invoice, payments []*Payment, now time.Time) *InvoiceSummary {
	paid := valueobject.Zero
	for _, p := range payments {
		paid = paid.Add(p.Amount)
	}
	remaining := invoice.TotalAmount.Sub(paid)
	if remaining.IsNegative() {
		remaining = valueobject.Zero
	}

	return &InvoiceSummary{
		Invoice:     invoice,
		Payments:    payments,
		PaidAmount:  paid,
		Remaining:   remaining,
		Status:      DerivePaymentStatus(invoice.TotalAmount, paid, invoice.DueDate, now),
		Overdue:     IsOverdue(remaining, invoice.DueDate, now),
		PaidPercent: paid.PercentageOf(invoice.TotalAmount),
	}
}

// IsFullyPaid reports whether nothing remains to settle
func (s *InvoiceSummary) IsFullyPaid() bool {
	return s.Status == StatusPaid
}

// EarliestPaymentDate returns the date of the first recorded settlement,
// or the zero time when there are no payments.
func (s *InvoiceSummary) EarliestPaymentDate() time.Time {
	var earliest time.Time
	for _, p := range s.Payments {
		if earliest.IsZero() || p.PaymentDate.Before(earliest) {
			earliest = p.PaymentDate
		}
	}
	return earliest
}
