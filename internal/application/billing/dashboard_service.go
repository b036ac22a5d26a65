package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/paytrack/backend/internal/domain/billing"
)

// DashboardCache is an advisory read-through cache for dashboard
// responses. Implementations swallow their own errors: a broken cache
// degrades to a miss, never to a failed request.
type DashboardCache interface {
	// Get returns the cached response for the key, if present
	Get(ctx context.Context, key string) (*DashboardResponse, bool)

	// Set stores the response under the key for the given TTL
	Set(ctx context.Context, key string, response *DashboardResponse, ttl time.Duration)

	// InvalidateTenant drops every cached dashboard of one tenant
	InvalidateTenant(ctx context.Context, tenantID uuid.UUID)
}

// DashboardServiceConfig holds configuration for the dashboard service
type DashboardServiceConfig struct {
	CacheTTL         time.Duration
	UpcomingLimit    int
	MaxUpcomingLimit int
}

// DefaultDashboardServiceConfig returns default configuration
func DefaultDashboardServiceConfig() DashboardServiceConfig {
	return DashboardServiceConfig{
		CacheTTL:         60 * time.Second,
		UpcomingLimit:    5,
		MaxUpcomingLimit: 20,
	}
}

// DashboardService aggregates a tenant's invoices and payments into the
// dashboard metrics. Invoices and payments are loaded by two
// independently tenant-scoped queries, grouped in memory and derived in
// a single pass.
type DashboardService struct {
	invoiceRepo billing.InvoiceRepository
	paymentRepo billing.PaymentRepository
	cache       DashboardCache
	config      DashboardServiceConfig
	now         func() time.Time
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(invoiceRepo billing.InvoiceRepository, paymentRepo billing.PaymentRepository, cache DashboardCache) *DashboardService {
	return &DashboardService{
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		cache:       cache,
		config:      DefaultDashboardServiceConfig(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// GetDashboard computes the dashboard for one tenant and period
func (s *DashboardService) GetDashboard(ctx context.Context, tenantID uuid.UUID, req DashboardRequest) (*DashboardResponse, error) {
	limit := req.UpcomingLimit
	if limit <= 0 {
		limit = s.config.UpcomingLimit
	}
	if limit > s.config.MaxUpcomingLimit {
		limit = s.config.MaxUpcomingLimit
	}

	now := s.now()
	period := billing.ResolvePeriod(req.Period, req.StartDate, req.EndDate, now)

	key := dashboardCacheKey(tenantID, period, limit)
	if cached, ok := s.cache.Get(ctx, key); ok {
		return cached, nil
	}

	invoices, err := s.invoiceRepo.FindForTenant(ctx, tenantID, billing.InvoiceQuery{
		CreatedFrom: period.From,
		CreatedTo:   period.To,
	})
	if err != nil {
		return nil, err
	}

	payments, err := s.paymentRepo.FindByInvoiceIDs(ctx, tenantID, invoiceIDs(invoices))
	if err != nil {
		return nil, err
	}

	summaries := buildSummaries(invoices, payments, now)

	response := &DashboardResponse{
		Metrics:  billing.ComputeDashboardMetrics(summaries, now),
		Upcoming: ToInvoiceSummaryResponses(billing.SelectUpcoming(summaries, limit)),
	}

	s.cache.Set(ctx, key, response, s.config.CacheTTL)
	return response, nil
}

// dashboardCacheKey derives a stable key from the resolved period, not
// the raw request, so equivalent requests share one cache entry.
func dashboardCacheKey(tenantID uuid.UUID, period billing.Period, limit int) string {
	signature := fmt.Sprintf("%v|%v|%d", period.From, period.To, limit)
	digest := sha256.Sum256([]byte(signature))
	return fmt.Sprintf("dash:%s:%s", tenantID, hex.EncodeToString(digest[:8]))
}
