package billing

import (
	"context"

	"github.com/google/uuid"
)

// PaymentRepository defines the interface for payment persistence.
//
// CreateGuarded and UpdateGuarded run the overpayment check and the
// write as one atomic unit: the implementation locks the invoice row,
// loads the sibling payments, applies CheckPaymentFits and performs the
// write only when the amount fits. Concurrent submissions against the
// same invoice serialize on the lock instead of both passing the check.
type PaymentRepository interface {
	// FindByIDForTenant finds a payment by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)

	// FindByInvoice finds all payments of one invoice within a tenant
	FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]Payment, error)

	// FindByInvoiceIDs finds all payments whose invoice is in the given
	// set. Tenant scope applies to the payment rows themselves, not just
	// the invoice ids.
	FindByInvoiceIDs(ctx context.Context, tenantID uuid.UUID, invoiceIDs []uuid.UUID) ([]Payment, error)

	// CreateGuarded inserts the payment if it fits the invoice headroom
	CreateGuarded(ctx context.Context, payment *Payment) error

	// UpdateGuarded updates the payment if the new amount fits, the
	// check excluding the payment's own previous amount
	UpdateGuarded(ctx context.Context, payment *Payment) error

	// DeleteForTenant deletes a payment within a tenant
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error

	// ExistsForInvoice checks whether the invoice has any payment
	ExistsForInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (bool, error)

	// ExistsForMethod checks whether any payment references the method
	ExistsForMethod(ctx context.Context, methodID uuid.UUID) (bool, error)
}
