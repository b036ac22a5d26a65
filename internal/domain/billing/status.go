package billing

import (
	"time"

	"github.com/paytrack/backend/internal/domain/shared/valueobject"
)

// PaymentStatus is the derived settlement state of an invoice. It is a
// pure function of face value, paid amount and due date; it is never
// stored.
type PaymentStatus string

const (
	StatusPending       PaymentStatus = "pending"
	StatusOverdue       PaymentStatus = "overdue"
	StatusPartiallyPaid PaymentStatus = "partially_paid"
	StatusPaid          PaymentStatus = "paid"
)

// calendarDate truncates a timestamp to its UTC calendar date.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// pastDue reports whether the due date is strictly before today's
// calendar date. An invoice due today is not overdue.
func pastDue(dueDate, now time.Time) bool {
	return calendarDate(dueDate).Before(calendarDate(now))
}

// DerivePaymentStatus computes the settlement state of an invoice.
// Full settlement always wins, even past the due date. The overdue
// label applies only to untouched invoices; once anything is paid the
// invoice reads partially_paid and the separate IsOverdue flag carries
// the lateness signal.
func DerivePaymentStatus(total, paid valueobject.Money, dueDate, now time.Time) PaymentStatus {
	if paid.GreaterThanOrEqual(total) {
		return StatusPaid
	}
	if paid.IsPositive() {
		return StatusPartiallyPaid
	}
	if pastDue(dueDate, now) {
		return StatusOverdue
	}
	return StatusPending
}

// IsOverdue reports whether an invoice with the given remaining balance
// is past due. Fully settled invoices are never overdue.
func IsOverdue(remaining valueobject.Money, dueDate, now time.Time) bool {
	return remaining.IsPositive() && pastDue(dueDate, now)
}
