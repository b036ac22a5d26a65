package handler

import (
	"fmt"
	"mime/multipart"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appbilling "github.com/paytrack/backend/internal/application/billing"
)

const dateLayout = "2006-01-02"

// errMissingField and errInvalidField name the offending multipart form
// field in the 400 message.
func errMissingField(field string) error {
	return fmt.Errorf("missing required field: %s", field)
}

func errInvalidField(field string) error {
	return fmt.Errorf("invalid value for field: %s", field)
}

// InvoiceHandler handles invoice-related API endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *appbilling.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *appbilling.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
	}
}

// openUpload converts a multipart file header into an attachment upload.
// The caller must invoke the returned close function after the service call.
func openUpload(fileHeader *multipart.FileHeader) (*appbilling.AttachmentUpload, func(), error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, nil, err
	}
	upload := &appbilling.AttachmentUpload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Content:     file,
	}
	return upload, func() { _ = file.Close() }, nil
}

// Create godoc
// @Summary      Create a new invoice
// @Description  Create an invoice from multipart form fields with an optional attachment file
// @Tags         invoices
// @Accept       multipart/form-data
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        supplier_id formData string true "Supplier ID" format(uuid)
// @Param        series formData string true "Invoice series"
// @Param        number formData string true "Invoice number"
// @Param        due_date formData string true "Due date (YYYY-MM-DD)"
// @Param        total_amount_cents formData int true "Total amount in cents"
// @Param        description formData string false "Description"
// @Param        attachment formData file false "Invoice document (pdf, png, jpeg)"
// @Success      201 {object} APIResponse[appbilling.InvoiceSummaryResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Failure      415 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	req, err := bindCreateInvoiceForm(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var upload *appbilling.AttachmentUpload
	if fileHeader, err := c.FormFile("attachment"); err == nil {
		var closeFn func()
		upload, closeFn, err = openUpload(fileHeader)
		if err != nil {
			h.BadRequest(c, "Unable to read attachment")
			return
		}
		defer closeFn()
	}

	invoice, err := h.invoiceService.Create(c.Request.Context(), tenantID, *req, upload)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, invoice)
}

func bindCreateInvoiceForm(c *gin.Context) (*appbilling.CreateInvoiceRequest, error) {
	supplierID, err := uuid.Parse(c.PostForm("supplier_id"))
	if err != nil {
		return nil, errInvalidField("supplier_id")
	}
	series := c.PostForm("series")
	if series == "" {
		return nil, errMissingField("series")
	}
	number := c.PostForm("number")
	if number == "" {
		return nil, errMissingField("number")
	}
	dueDate, err := time.Parse(dateLayout, c.PostForm("due_date"))
	if err != nil {
		return nil, errInvalidField("due_date")
	}
	totalCents, err := strconv.ParseInt(c.PostForm("total_amount_cents"), 10, 64)
	if err != nil || totalCents <= 0 {
		return nil, errInvalidField("total_amount_cents")
	}

	return &appbilling.CreateInvoiceRequest{
		SupplierID:       supplierID,
		Series:           series,
		Number:           number,
		DueDate:          dueDate,
		TotalAmountCents: totalCents,
		Description:      c.PostForm("description"),
	}, nil
}

// GetByID godoc
// @Summary      Get invoice by ID
// @Description  Retrieve an invoice with its derived payment position and payment history
// @Tags         invoices
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[appbilling.InvoiceSummaryResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *gin.Context) {
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

	invoice, err := h.invoiceService.GetByID(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, invoice)
}

// List godoc
// @Summary      List invoices
// @Description  Retrieve a paginated list of invoices with derived payment status. The status filter applies to the derived status.
// @Tags         invoices
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        search query string false "Search term (series, number, description)"
// @Param        supplier_id query string false "Filter by supplier" format(uuid)
// @Param        status query string false "Derived status" Enums(pending, partially_paid, paid, overdue)
// @Param        created_from query string false "Created on or after (YYYY-MM-DD)"
// @Param        created_to query string false "Created before (YYYY-MM-DD)"
// @Param        due_date_from query string false "Due on or after (YYYY-MM-DD)"
// @Param        due_date_to query string false "Due before (YYYY-MM-DD)"
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]appbilling.InvoiceSummaryResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var query appbilling.ListInvoicesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if query.Page <= 0 {
		query.Page = 1
	}
	if query.PageSize <= 0 {
		query.PageSize = 20
	}

	invoices, total, err := h.invoiceService.List(c.Request.Context(), tenantID, query)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, invoices, total, query.Page, query.PageSize)
}

// Update godoc
// @Summary      Update an invoice
// @Description  Update an existing invoice's details
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body appbilling.UpdateInvoiceRequest true "Invoice update request"
// @Success      200 {object} APIResponse[appbilling.InvoiceSummaryResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/invoices/{id} [put]
func (h *InvoiceHandler) Update(c *gin.Context) {
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

	var req appbilling.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoiceService.Update(c.Request.Context(), tenantID, invoiceID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, invoice)
}

// Delete godoc
// @Summary      Delete an invoice
// @Description  Delete an invoice that has no recorded payments
// @Tags         invoices
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse "Invoice has associated payments"
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *gin.Context) {
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

	if err := h.invoiceService.Delete(c.Request.Context(), tenantID, invoiceID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// GetAttachmentURL godoc
// @Summary      Get invoice attachment download URL
// @Description  Returns a presigned, time-limited download URL for the invoice attachment
// @Tags         invoices
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[appbilling.AttachmentURLResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/invoices/{id}/attachment [get]
func (h *InvoiceHandler) GetAttachmentURL(c *gin.Context) {
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

	result, err := h.invoiceService.AttachmentURL(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// ReplaceAttachment godoc
// @Summary      Replace invoice attachment
// @Description  Upload a new attachment for the invoice; the previous blob is released best-effort
// @Tags         invoices
// @Accept       multipart/form-data
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        attachment formData file true "Invoice document (pdf, png, jpeg)"
// @Success      200 {object} APIResponse[appbilling.InvoiceSummaryResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Failure      415 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/invoices/{id}/attachment [put]
func (h *InvoiceHandler) ReplaceAttachment(c *gin.Context) {
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

	fileHeader, err := c.FormFile("attachment")
	if err != nil {
		h.BadRequest(c, "Attachment file is required")
		return
	}

	upload, closeFn, err := openUpload(fileHeader)
	if err != nil {
		h.BadRequest(c, "Unable to read attachment")
		return
	}
	defer closeFn()

	invoice, err := h.invoiceService.ReplaceAttachment(c.Request.Context(), tenantID, invoiceID, *upload)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, invoice)
}
