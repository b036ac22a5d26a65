package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/paytrack/backend/internal/domain/billing"
)

// buildSummaries groups payments under their invoice and derives one
// summary per invoice. Invoice order is preserved.
func buildSummaries(invoices []billing.Invoice, payments []billing.Payment, now time.Time) []*billing.InvoiceSummary {
	grouped := make(map[uuid.UUID][]*billing.Payment, len(invoices))
	for i := range payments {
		grouped[payments[i].InvoiceID] = append(grouped[payments[i].InvoiceID], &payments[i])
	}

	summaries := make([]*billing.InvoiceSummary, len(invoices))
	for i := range invoices {
		summaries[i] = billing.NewInvoiceSummary(&invoices[i], grouped[invoices[i].ID], now)
	}
	return summaries
}

func paymentPointers(payments []billing.Payment) []*billing.Payment {
	pointers := make([]*billing.Payment, len(payments))
	for i := range payments {
		pointers[i] = &payments[i]
	}
	return pointers
}

func invoiceIDs(invoices []billing.Invoice) []uuid.UUID {
	ids := make([]uuid.UUID, len(invoices))
	for i := range invoices {
		ids[i] = invoices[i].ID
	}
	return ids
}
