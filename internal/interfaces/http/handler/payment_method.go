package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appbilling "github.com/paytrack/backend/internal/application/billing"
)

// PaymentMethodHandler handles payment method API endpoints
type PaymentMethodHandler struct {
	BaseHandler
	methodService *appbilling.PaymentMethodService
}

// NewPaymentMethodHandler creates a new PaymentMethodHandler
func NewPaymentMethodHandler(methodService *appbilling.PaymentMethodService) *PaymentMethodHandler {
	return &PaymentMethodHandler{
		methodService: methodService,
	}
}

// List godoc
// @Summary      List payment methods
// @Description  Retrieve the tenant's payment methods plus the system defaults
// @Tags         payment-methods
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Success      200 {object} APIResponse[[]appbilling.PaymentMethodResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/payment-methods [get]
func (h *PaymentMethodHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	methods, err := h.methodService.List(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, methods)
}

// Create godoc
// @Summary      Create a payment method
// @Description  Create a tenant-scoped payment method
// @Tags         payment-methods
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        request body appbilling.CreatePaymentMethodRequest true "Payment method creation request"
// @Success      201 {object} APIResponse[appbilling.PaymentMethodResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/payment-methods [post]
func (h *PaymentMethodHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req appbilling.CreatePaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	method, err := h.methodService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, method)
}

// Update godoc
// @Summary      Rename a payment method
// @Description  Rename a tenant-scoped payment method; system defaults are immutable
// @Tags         payment-methods
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Payment method ID" format(uuid)
// @Param        request body appbilling.UpdatePaymentMethodRequest true "Payment method update request"
// @Success      200 {object} APIResponse[appbilling.PaymentMethodResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse "System default methods are immutable"
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/payment-methods/{id} [put]
func (h *PaymentMethodHandler) Update(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	methodID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment method ID format")
		return
	}

	var req appbilling.UpdatePaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	method, err := h.methodService.Update(c.Request.Context(), tenantID, methodID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, method)
}

// Delete godoc
// @Summary      Delete a payment method
// @Description  Delete a tenant-scoped payment method that no payment references
// @Tags         payment-methods
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Payment method ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse "System default methods are immutable"
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse "Method is referenced by payments"
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/payment-methods/{id} [delete]
func (h *PaymentMethodHandler) Delete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	methodID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment method ID format")
		return
	}

	if err := h.methodService.Delete(c.Request.Context(), tenantID, methodID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}
