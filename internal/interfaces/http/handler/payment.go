package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appbilling "github.com/paytrack/backend/internal/application/billing"
)

// PaymentHandler handles payment-related API endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *appbilling.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *appbilling.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// Create godoc
// @Summary      Record a payment against an invoice
// @Description  Record a payment from multipart form fields with an optional receipt file. The amount may not exceed the invoice's remaining balance.
// @Tags         payments
// @Accept       multipart/form-data
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        payment_method_id formData string true "Payment method ID" format(uuid)
// @Param        amount_cents formData int true "Payment amount in cents"
// @Param        payment_date formData string true "Payment date (YYYY-MM-DD)"
// @Param        note formData string false "Free-form note"
// @Param        receipt formData file false "Payment receipt (pdf, png, jpeg)"
// @Success      201 {object} APIResponse[appbilling.PaymentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse "Amount exceeds remaining balance"
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/invoices/{id}/payments [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	req, err := bindCreatePaymentForm(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var upload *appbilling.AttachmentUpload
	if fileHeader, err := c.FormFile("receipt"); err == nil {
		var closeFn func()
		upload, closeFn, err = openUpload(fileHeader)
		if err != nil {
			h.BadRequest(c, "Unable to read receipt")
			return
		}
		defer closeFn()
	}

	payment, err := h.paymentService.Create(c.Request.Context(), tenantID, invoiceID, *req, upload)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, payment)
}

func bindCreatePaymentForm(c *gin.Context) (*appbilling.CreatePaymentRequest, error) {
	methodID, err := uuid.Parse(c.PostForm("payment_method_id"))
	if err != nil {
		return nil, errInvalidField("payment_method_id")
	}
	amountCents, err := strconv.ParseInt(c.PostForm("amount_cents"), 10, 64)
	if err != nil || amountCents <= 0 {
		return nil, errInvalidField("amount_cents")
	}
	paymentDate, err := time.Parse(dateLayout, c.PostForm("payment_date"))
	if err != nil {
		return nil, errInvalidField("payment_date")
	}

	return &appbilling.CreatePaymentRequest{
		PaymentMethodID: methodID,
		AmountCents:     amountCents,
		PaymentDate:     paymentDate,
		Note:            c.PostForm("note"),
	}, nil
}

// ListByInvoice godoc
// @Summary      List payments for an invoice
// @Description  Retrieve all payments recorded against an invoice, newest first
// @Tags         payments
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[[]appbilling.PaymentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/invoices/{id}/payments [get]
func (h *PaymentHandler) ListByInvoice(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	payments, err := h.paymentService.ListByInvoice(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, payments)
}

// Update godoc
// @Summary      Edit a payment
// @Description  Edit a recorded payment. A raised amount is re-checked against the invoice's remaining balance.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Payment ID" format(uuid)
// @Param        request body appbilling.UpdatePaymentRequest true "Payment update request"
// @Success      200 {object} APIResponse[appbilling.PaymentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse "Amount exceeds remaining balance"
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/payments/{id} [put]
func (h *PaymentHandler) Update(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	var req appbilling.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	payment, err := h.paymentService.Update(c.Request.Context(), tenantID, paymentID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, payment)
}

// Delete godoc
// @Summary      Delete a payment
// @Description  Delete a recorded payment; the invoice position is re-derived on the next read
// @Tags         payments
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Payment ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/payments/{id} [delete]
func (h *PaymentHandler) Delete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	if err := h.paymentService.Delete(c.Request.Context(), tenantID, paymentID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// GetReceiptURL godoc
// @Summary      Get payment receipt download URL
// @Description  Returns a presigned, time-limited download URL for the payment receipt
// @Tags         payments
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Payment ID" format(uuid)
// @Success      200 {object} APIResponse[appbilling.AttachmentURLResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/payments/{id}/receipt [get]
func (h *PaymentHandler) GetReceiptURL(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	result, err := h.paymentService.ReceiptURL(c.Request.Context(), tenantID, paymentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}
