package handler

import (
	"github.com/gin-gonic/gin"

	appbilling "github.com/paytrack/backend/internal/application/billing"
)

// DashboardHandler handles dashboard API endpoints
type DashboardHandler struct {
	BaseHandler
	dashboardService *appbilling.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboardService *appbilling.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// Get godoc
// @Summary      Get dashboard metrics
// @Description  Returns aggregated invoice and payment metrics for the requested period, plus the invoices coming due next
// @Tags         dashboard
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        period query string false "Period token" Enums(all, week, month, quarter, year, custom) default(all)
// @Param        start_date query string false "Custom period start (YYYY-MM-DD), required for period=custom"
// @Param        end_date query string false "Custom period end (YYYY-MM-DD), required for period=custom"
// @Param        upcoming_limit query int false "Maximum upcoming invoices to return" default(5)
// @Success      200 {object} APIResponse[appbilling.DashboardResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req appbilling.DashboardRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	dashboard, err := h.dashboardService.GetDashboard(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, dashboard)
}
