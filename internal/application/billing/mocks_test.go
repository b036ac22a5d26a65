package billing

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/paytrack/backend/internal/domain/billing"
	"github.com/paytrack/backend/internal/domain/shared"
	"github.com/paytrack/backend/internal/domain/shared/valueobject"
)

// =============================================================================
// Mock Repositories
// =============================================================================

// MockSupplierRepository is a mock implementation of SupplierRepository
type MockSupplierRepository struct {
	mock.Mock
}

func (m *MockSupplierRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Supplier, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Supplier), args.Error(1)
}

func (m *MockSupplierRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]billing.Supplier, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]billing.Supplier), args.Error(1)
}

func (m *MockSupplierRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSupplierRepository) Save(ctx context.Context, supplier *billing.Supplier) error {
	args := m.Called(ctx, supplier)
	return args.Error(0)
}

func (m *MockSupplierRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockSupplierRepository) HasInvoices(ctx context.Context, tenantID, supplierID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, supplierID)
	return args.Bool(0), args.Error(1)
}

// MockInvoiceRepository is a mock implementation of InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindForTenant(ctx context.Context, tenantID uuid.UUID, query billing.InvoiceQuery) ([]billing.Invoice, error) {
	args := m.Called(ctx, tenantID, query)
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) ExistsByIdentity(ctx context.Context, tenantID, supplierID uuid.UUID, series, number string, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, supplierID, series, number, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

// MockPaymentRepository is a mock implementation of PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Payment, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]billing.Payment, error) {
	args := m.Called(ctx, tenantID, invoiceID)
	return args.Get(0).([]billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByInvoiceIDs(ctx context.Context, tenantID uuid.UUID, invoiceIDs []uuid.UUID) ([]billing.Payment, error) {
	args := m.Called(ctx, tenantID, invoiceIDs)
	return args.Get(0).([]billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) CreateGuarded(ctx context.Context, payment *billing.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) UpdateGuarded(ctx context.Context, payment *billing.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockPaymentRepository) ExistsForInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, invoiceID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentRepository) ExistsForMethod(ctx context.Context, methodID uuid.UUID) (bool, error) {
	args := m.Called(ctx, methodID)
	return args.Bool(0), args.Error(1)
}

// MockPaymentMethodRepository is a mock implementation of PaymentMethodRepository
type MockPaymentMethodRepository struct {
	mock.Mock
}

func (m *MockPaymentMethodRepository) FindByIDVisibleTo(ctx context.Context, tenantID, id uuid.UUID) (*billing.PaymentMethod, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.PaymentMethod), args.Error(1)
}

func (m *MockPaymentMethodRepository) FindVisibleTo(ctx context.Context, tenantID uuid.UUID) ([]billing.PaymentMethod, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]billing.PaymentMethod), args.Error(1)
}

func (m *MockPaymentMethodRepository) Save(ctx context.Context, method *billing.PaymentMethod) error {
	args := m.Called(ctx, method)
	return args.Error(0)
}

func (m *MockPaymentMethodRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// =============================================================================
// Mock storage and cache
// =============================================================================

// MockObjectStorage is a mock implementation of ObjectStorageService
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) Upload(ctx context.Context, storageKey, contentType string, body io.Reader) error {
	args := m.Called(ctx, storageKey, contentType, body)
	return args.Error(0)
}

func (m *MockObjectStorage) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, storageKey, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockObjectStorage) DeleteObject(ctx context.Context, storageKey string) error {
	args := m.Called(ctx, storageKey)
	return args.Error(0)
}

func (m *MockObjectStorage) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	args := m.Called(ctx, storageKey)
	return args.Bool(0), args.Error(1)
}

// fakeDashboardCache is an in-memory DashboardCache that records its
// invalidations, which is all the service tests need to assert
type fakeDashboardCache struct {
	mu           sync.Mutex
	entries      map[string]*DashboardResponse
	invalidated  []uuid.UUID
	sets         int
	hits, misses int
}

func newFakeDashboardCache() *fakeDashboardCache {
	return &fakeDashboardCache{entries: make(map[string]*DashboardResponse)}
}

func (c *fakeDashboardCache) Get(_ context.Context, key string) (*DashboardResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	response, ok := c.entries[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return response, ok
}

func (c *fakeDashboardCache) Set(_ context.Context, key string, response *DashboardResponse, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = response
	c.sets++
}

func (c *fakeDashboardCache) InvalidateTenant(_ context.Context, tenantID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*DashboardResponse)
	c.invalidated = append(c.invalidated, tenantID)
}

// =============================================================================
// Fixtures
// =============================================================================

func createTestSupplier(t *testing.T, tenantID uuid.UUID) *billing.Supplier {
	t.Helper()
	supplier, err := billing.NewSupplier(tenantID, "Acme Paper Co", "12345678", "billing@acme.test", "555-0100")
	require.NoError(t, err)
	return supplier
}

func createTestInvoice(t *testing.T, tenantID, supplierID uuid.UUID, cents int64, dueDate time.Time) *billing.Invoice {
	t.Helper()
	invoice, err := billing.NewInvoice(tenantID, supplierID, "A", "1001", dueDate, valueobject.NewMoney(cents))
	require.NoError(t, err)
	return invoice
}

func createTestPayment(t *testing.T, tenantID, invoiceID, methodID uuid.UUID, cents int64, date time.Time) *billing.Payment {
	t.Helper()
	payment, err := billing.NewPayment(tenantID, invoiceID, methodID, valueobject.NewMoney(cents), date)
	require.NoError(t, err)
	return payment
}
