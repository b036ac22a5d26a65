package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	appbilling "github.com/paytrack/backend/internal/application/billing"
)

// InMemoryDashboardCache implements DashboardCache with a mutex-guarded
// map. Suitable for single-instance deployments and for development
// where no Redis is available.
type InMemoryDashboardCache struct {
	mu      sync.RWMutex
	entries map[string]dashboardEntry

	hits   int64
	misses int64
}

type dashboardEntry struct {
	response  *appbilling.DashboardResponse
	expiresAt time.Time
}

func (e dashboardEntry) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// NewInMemoryDashboardCache creates an in-memory dashboard cache
func NewInMemoryDashboardCache() *InMemoryDashboardCache {
	return &InMemoryDashboardCache{
		entries: make(map[string]dashboardEntry),
	}
}

// Get returns the cached dashboard response for the key, if present
func (c *InMemoryDashboardCache) Get(_ context.Context, key string) (*appbilling.DashboardResponse, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || entry.isExpired() {
		c.mu.Lock()
		if ok {
			delete(c.entries, key)
		}
		c.misses++
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	return entry.response, true
}

// Set stores the dashboard response under the key for the given TTL
func (c *InMemoryDashboardCache) Set(_ context.Context, key string, response *appbilling.DashboardResponse, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = dashboardEntry{
		response:  response,
		expiresAt: time.Now().Add(ttl),
	}
}

// InvalidateTenant drops every cached dashboard of one tenant
func (c *InMemoryDashboardCache) InvalidateTenant(_ context.Context, tenantID uuid.UUID) {
	prefix := "dash:" + tenantID.String() + ":"

	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
}

// Stats returns hit and miss counters
func (c *InMemoryDashboardCache) Stats() (hits, misses int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

var _ appbilling.DashboardCache = (*InMemoryDashboardCache)(nil)
