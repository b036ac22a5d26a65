package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// InvoiceQuery narrows invoice reads beyond the tenant scope. All
// bounds on time ranges are half-open on the upper side.
type InvoiceQuery struct {
	Search      string
	SupplierID  *uuid.UUID
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	DueDateFrom *time.Time
	DueDateTo   *time.Time
}

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// FindByIDForTenant finds an invoice by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)

	// FindForTenant finds every invoice of the tenant matching the query,
	// ordered by due date ascending. Derived-status filtering and
	// pagination happen after this read, so no paging here.
	FindForTenant(ctx context.Context, tenantID uuid.UUID, query InvoiceQuery) ([]Invoice, error)

	// ExistsByIdentity checks whether another invoice with the same
	// supplier, series and number exists in the tenant
	ExistsByIdentity(ctx context.Context, tenantID, supplierID uuid.UUID, series, number string, excludeID uuid.UUID) (bool, error)

	// Save creates or updates an invoice
	Save(ctx context.Context, invoice *Invoice) error

	// DeleteForTenant deletes an invoice within a tenant
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}
