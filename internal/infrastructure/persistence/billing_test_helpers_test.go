package persistence

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/paytrack/backend/internal/domain/billing"
	"github.com/paytrack/backend/internal/domain/shared/valueobject"
	"github.com/paytrack/backend/internal/infrastructure/persistence/models"
)

// setupBillingTestDB opens an in-memory SQLite database with the billing
// schema migrated.
func setupBillingTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.SupplierModel{},
		&models.PaymentMethodModel{},
		&models.InvoiceModel{},
		&models.PaymentModel{},
	)
	require.NoError(t, err)

	return db
}

func mustSupplier(t *testing.T, tenantID uuid.UUID, name string) *billing.Supplier {
	t.Helper()
	s, err := billing.NewSupplier(tenantID, name, "", "", "")
	require.NoError(t, err)
	return s
}

func mustInvoice(t *testing.T, tenantID, supplierID uuid.UUID, series, number string, totalCents int64, due time.Time) *billing.Invoice {
	t.Helper()
	inv, err := billing.NewInvoice(tenantID, supplierID, series, number, due, valueobject.NewMoney(totalCents))
	require.NoError(t, err)
	return inv
}

func mustPayment(t *testing.T, tenantID, invoiceID, methodID uuid.UUID, amountCents int64, date time.Time) *billing.Payment {
	t.Helper()
	p, err := billing.NewPayment(tenantID, invoiceID, methodID, valueobject.NewMoney(amountCents), date)
	require.NoError(t, err)
	return p
}
