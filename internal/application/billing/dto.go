package billing

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/paytrack/backend/internal/domain/billing"
	"github.com/paytrack/backend/internal/domain/shared/valueobject"
)

// =============================================================================
// Supplier DTOs
// =============================================================================

// CreateSupplierRequest represents a request to create a new supplier
type CreateSupplierRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=200"`
	TaxDocument string `json:"tax_document" binding:"max=50"`
	Email       string `json:"email" binding:"omitempty,email,max=200"`
	Phone       string `json:"phone" binding:"max=50"`
}

// UpdateSupplierRequest represents a request to update a supplier
type UpdateSupplierRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=200"`
	TaxDocument *string `json:"tax_document" binding:"omitempty,max=50"`
	Email       *string `json:"email" binding:"omitempty,email,max=200"`
	Phone       *string `json:"phone" binding:"omitempty,max=50"`
}

// SupplierResponse represents a supplier in API responses
type SupplierResponse struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	Name        string    `json:"name"`
	TaxDocument string    `json:"tax_document"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SupplierListFilter represents filtering options for supplier listing
type SupplierListFilter struct {
	Search   string `form:"search"`
	Active   *bool  `form:"active"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// DeleteSupplierResponse reports how a supplier delete was resolved:
// suppliers referenced by invoices are deactivated instead of removed.
type DeleteSupplierResponse struct {
	Deleted     bool `json:"deleted"`
	Deactivated bool `json:"deactivated"`
}

// ToSupplierResponse converts a supplier domain object to a response DTO
func ToSupplierResponse(s *billing.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:          s.ID,
		TenantID:    s.TenantID,
		Name:        s.Name,
		TaxDocument: s.TaxDocument,
		Email:       s.Email,
		Phone:       s.Phone,
		Active:      s.Active,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// ToSupplierResponses converts a slice of suppliers to response DTOs
func ToSupplierResponses(suppliers []billing.Supplier) []SupplierResponse {
	responses := make([]SupplierResponse, len(suppliers))
	for i := range suppliers {
		responses[i] = ToSupplierResponse(&suppliers[i])
	}
	return responses
}

// =============================================================================
// Payment method DTOs
// =============================================================================

// CreatePaymentMethodRequest represents a request to create a payment method
type CreatePaymentMethodRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// UpdatePaymentMethodRequest represents a request to rename a payment method
type UpdatePaymentMethodRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// PaymentMethodResponse represents a payment method in API responses
type PaymentMethodResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	SystemDefault bool      `json:"system_default"`
	CreatedAt     time.Time `json:"created_at"`
}

// ToPaymentMethodResponse converts a payment method to a response DTO
func ToPaymentMethodResponse(m *billing.PaymentMethod) PaymentMethodResponse {
	return PaymentMethodResponse{
		ID:            m.ID,
		Name:          m.Name,
		SystemDefault: m.IsSystemDefault(),
		CreatedAt:     m.CreatedAt,
	}
}

// ToPaymentMethodResponses converts a slice of methods to response DTOs
func ToPaymentMethodResponses(methods []billing.PaymentMethod) []PaymentMethodResponse {
	responses := make([]PaymentMethodResponse, len(methods))
	for i := range methods {
		responses[i] = ToPaymentMethodResponse(&methods[i])
	}
	return responses
}

// =============================================================================
// Invoice DTOs
// =============================================================================

// CreateInvoiceRequest represents a request to create a new invoice
type CreateInvoiceRequest struct {
	SupplierID       uuid.UUID `json:"supplier_id" binding:"required"`
	Series           string    `json:"series" binding:"required,min=1,max=20"`
	Number           string    `json:"number" binding:"required,min=1,max=50"`
	DueDate          time.Time `json:"due_date" binding:"required"`
	TotalAmountCents int64     `json:"total_amount_cents" binding:"required,gt=0"`
	Description      string    `json:"description"`
}

// UpdateInvoiceRequest represents a request to update an invoice
type UpdateInvoiceRequest struct {
	SupplierID       *uuid.UUID `json:"supplier_id"`
	Series           *string    `json:"series" binding:"omitempty,min=1,max=20"`
	Number           *string    `json:"number" binding:"omitempty,min=1,max=50"`
	DueDate          *time.Time `json:"due_date"`
	TotalAmountCents *int64     `json:"total_amount_cents" binding:"omitempty,gt=0"`
	Description      *string    `json:"description"`
}

// ListInvoicesQuery represents filtering options for invoice listing.
// Status filters on the derived payment status, so it is applied after
// derivation, not in the database query.
type ListInvoicesQuery struct {
	Search      string     `form:"search"`
	SupplierID  *uuid.UUID `form:"supplier_id"`
	Status      string     `form:"status"`
	CreatedFrom *time.Time `form:"created_from" time_format:"2006-01-02"`
	CreatedTo   *time.Time `form:"created_to" time_format:"2006-01-02"`
	DueDateFrom *time.Time `form:"due_date_from" time_format:"2006-01-02"`
	DueDateTo   *time.Time `form:"due_date_to" time_format:"2006-01-02"`
	Page        int        `form:"page"`
	PageSize    int        `form:"per_page"`
}

// InvoiceSummaryResponse represents an invoice plus its derived payment
// position in API responses
type InvoiceSummaryResponse struct {
	ID             uuid.UUID         `json:"id"`
	TenantID       uuid.UUID         `json:"tenant_id"`
	SupplierID     uuid.UUID         `json:"supplier_id"`
	Series         string            `json:"series"`
	Number         string            `json:"number"`
	DueDate        time.Time         `json:"due_date"`
	TotalAmount    valueobject.Money `json:"total_amount_cents"`
	PaidAmount     valueobject.Money `json:"paid_amount_cents"`
	Remaining      valueobject.Money `json:"remaining_amount_cents"`
	Status         string            `json:"status"`
	IsOverdue      bool              `json:"is_overdue"`
	PaidPercent    string            `json:"paid_percent"`
	Description    string            `json:"description"`
	HasAttachment  bool              `json:"has_attachment"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	Payments       []PaymentResponse `json:"payments,omitempty"`
}

// ToInvoiceSummaryResponse converts a derived summary to a response DTO
func ToInvoiceSummaryResponse(s *billing.InvoiceSummary) InvoiceSummaryResponse {
	return InvoiceSummaryResponse{
		ID:            s.Invoice.ID,
		TenantID:      s.Invoice.TenantID,
		SupplierID:    s.Invoice.SupplierID,
		Series:        s.Invoice.Series,
		Number:        s.Invoice.Number,
		DueDate:       s.Invoice.DueDate,
		TotalAmount:   s.Invoice.TotalAmount,
		PaidAmount:    s.PaidAmount,
		Remaining:     s.Remaining,
		Status:        string(s.Status),
		IsOverdue:     s.Overdue,
		PaidPercent:   s.PaidPercent.StringFixed(2),
		Description:   s.Invoice.Description,
		HasAttachment: s.Invoice.HasAttachment(),
		CreatedAt:     s.Invoice.CreatedAt,
		UpdatedAt:     s.Invoice.UpdatedAt,
		Payments:      ToPaymentResponsesFromPointers(s.Payments),
	}
}

// ToInvoiceSummaryResponses converts a slice of summaries to response DTOs
func ToInvoiceSummaryResponses(summaries []*billing.InvoiceSummary) []InvoiceSummaryResponse {
	responses := make([]InvoiceSummaryResponse, len(summaries))
	for i, s := range summaries {
		responses[i] = ToInvoiceSummaryResponse(s)
	}
	return responses
}

// AttachmentUpload carries one uploaded file through the service layer
type AttachmentUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// AttachmentURLResponse carries a presigned download URL
type AttachmentURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// =============================================================================
// Payment DTOs
// =============================================================================

// CreatePaymentRequest represents a request to record a payment
type CreatePaymentRequest struct {
	PaymentMethodID uuid.UUID `json:"payment_method_id" binding:"required"`
	AmountCents     int64     `json:"amount_cents" binding:"required,gt=0"`
	PaymentDate     time.Time `json:"payment_date" binding:"required"`
	Note            string    `json:"note"`
}

// UpdatePaymentRequest represents a request to edit a payment
type UpdatePaymentRequest struct {
	PaymentMethodID *uuid.UUID `json:"payment_method_id"`
	AmountCents     *int64     `json:"amount_cents" binding:"omitempty,gt=0"`
	PaymentDate     *time.Time `json:"payment_date"`
	Note            *string    `json:"note"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID              uuid.UUID         `json:"id"`
	InvoiceID       uuid.UUID         `json:"invoice_id"`
	PaymentMethodID uuid.UUID         `json:"payment_method_id"`
	Amount          valueobject.Money `json:"amount_cents"`
	PaymentDate     time.Time         `json:"payment_date"`
	Note            string            `json:"note"`
	HasAttachment   bool              `json:"has_attachment"`
	CreatedAt       time.Time         `json:"created_at"`
}

// ToPaymentResponse converts a payment domain object to a response DTO
func ToPaymentResponse(p *billing.Payment) PaymentResponse {
	return PaymentResponse{
		ID:              p.ID,
		InvoiceID:       p.InvoiceID,
		PaymentMethodID: p.PaymentMethodID,
		Amount:          p.Amount,
		PaymentDate:     p.PaymentDate,
		Note:            p.Note,
		HasAttachment:   p.AttachmentKey != "",
		CreatedAt:       p.CreatedAt,
	}
}

// ToPaymentResponses converts a slice of payments to response DTOs
func ToPaymentResponses(payments []billing.Payment) []PaymentResponse {
	responses := make([]PaymentResponse, len(payments))
	for i := range payments {
		responses[i] = ToPaymentResponse(&payments[i])
	}
	return responses
}

// ToPaymentResponsesFromPointers converts grouped payments to response DTOs
func ToPaymentResponsesFromPointers(payments []*billing.Payment) []PaymentResponse {
	if len(payments) == 0 {
		return nil
	}
	responses := make([]PaymentResponse, len(payments))
	for i, p := range payments {
		responses[i] = ToPaymentResponse(p)
	}
	return responses
}

// =============================================================================
// Dashboard DTOs
// =============================================================================

// DashboardRequest represents the dashboard query parameters
type DashboardRequest struct {
	Period        string     `form:"period"`
	StartDate     *time.Time `form:"start_date" time_format:"2006-01-02"`
	EndDate       *time.Time `form:"end_date" time_format:"2006-01-02"`
	UpcomingLimit int        `form:"upcoming_limit"`
}

// DashboardResponse bundles the aggregated metrics with the next
// invoices coming due
type DashboardResponse struct {
	Metrics  billing.DashboardMetrics `json:"metrics"`
	Upcoming []InvoiceSummaryResponse `json:"upcoming_invoices"`
}
