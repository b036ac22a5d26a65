package billing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/paytrack/backend/internal/domain/shared"
	"github.com/paytrack/backend/internal/domain/shared/valueobject"
)

// ErrCodeExceedsRemaining is raised when a payment would push the paid
// total past the invoice face value.
const ErrCodeExceedsRemaining = "EXCEEDS_REMAINING"

// CheckPaymentFits verifies that recording amount against the invoice
// keeps the paid total within the face value. When editing an existing
// payment its previous amount is excluded via excludePaymentID, so the
// check is against the sum of the OTHER payments plus the new amount.
//
// The check itself is pure. Write paths must run it inside the same
// transaction that inserts or updates the payment, with the invoice row
// locked, so no concurrent writer can slip past it.
func CheckPaymentFits(invoice *Invoice, payments []*Payment, amount valueobject.Money, excludePaymentID uuid.UUID) error {
	otherPaid := valueobject.Zero
	for _, p := range payments {
		if excludePaymentID != uuid.Nil && p.ID == excludePaymentID {
			continue
		}
		otherPaid = otherPaid.Add(p.Amount)
	}

	remaining := invoice.TotalAmount.Sub(otherPaid)
	if remaining.IsNegative() {
		remaining = valueobject.Zero
	}
	if amount.GreaterThan(remaining) {
		return shared.NewDomainError(ErrCodeExceedsRemaining,
			fmt.Sprintf("amount exceeds remaining balance: %d", remaining.Cents()))
	}
	return nil
}
