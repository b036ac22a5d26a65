package billing

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/paytrack/backend/internal/domain/billing"
	"github.com/paytrack/backend/internal/domain/shared"
)

type invoiceServiceFixture struct {
	invoiceRepo  *MockInvoiceRepository
	supplierRepo *MockSupplierRepository
	paymentRepo  *MockPaymentRepository
	storage      *MockObjectStorage
	cache        *fakeDashboardCache
	service      *InvoiceService
}

func newInvoiceServiceFixture() *invoiceServiceFixture {
	f := &invoiceServiceFixture{
		invoiceRepo:  new(MockInvoiceRepository),
		supplierRepo: new(MockSupplierRepository),
		paymentRepo:  new(MockPaymentRepository),
		storage:      new(MockObjectStorage),
		cache:        newFakeDashboardCache(),
	}
	f.service = NewInvoiceService(f.invoiceRepo, f.supplierRepo, f.paymentRepo, f.storage, f.cache, zap.NewNop())
	return f
}

func pdfUpload(content string) *AttachmentUpload {
	return &AttachmentUpload{
		Filename:    "invoice.pdf",
		ContentType: "application/pdf",
		Size:        int64(len(content)),
		Content:     bytes.NewReader([]byte(content)),
	}
}

func TestInvoiceService_Create_Success(t *testing.T) {
	f := newInvoiceServiceFixture()
	ctx := context.Background()
	tenantID := uuid.New()
	supplier := createTestSupplier(t, tenantID)
	dueDate := time.Now().UTC().AddDate(0, 1, 0)

	f.supplierRepo.On("FindByIDForTenant", ctx, tenantID, supplier.ID).Return(supplier, nil)
	f.invoiceRepo.On("ExistsByIdentity", ctx, tenantID, supplier.ID, "A", "1001", uuid.Nil).Return(false, nil)
	f.invoiceRepo.On("Save", ctx, mock.AnythingOfType("*billing.Invoice")).Return(nil)

	response, err := f.service.Create(ctx, tenantID, CreateInvoiceRequest{
		SupplierID:       supplier.ID,
		Series:           "a", // normalized to upper case
		Number:           "1001",
		DueDate:          dueDate,
		TotalAmountCents: 25000,
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "A", response.Series)
	assert.Equal(t, int64(25000), response.TotalAmount.Cents())
	assert.Equal(t, string(billing.StatusPending), response.Status)
	assert.Len(t, f.cache.invalidated, 1)
	f.invoiceRepo.AssertExpectations(t)
}

func TestInvoiceService_Create_DuplicateIdentity(t *testing.T) {
	f := newInvoiceServiceFixture()
	ctx := context.Background()
	tenantID := uuid.New()
	supplier := createTestSupplier(t, tenantID)

	f.supplierRepo.On("FindByIDForTenant", ctx, tenantID, supplier.ID).Return(supplier, nil)
	f.invoiceRepo.On("ExistsByIdentity", ctx, tenantID, supplier.ID, "A", "1001", uuid.Nil).Return(true, nil)

	_, err := f.service.Create(ctx, tenantID, CreateInvoiceRequest{
		SupplierID:       supplier.ID,
		Series:           "A",
		Number:           "1001",
		DueDate:          time.Now().UTC().AddDate(0, 1, 0),
		TotalAmountCents: 25000,
	}, nil)

	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
	f.invoiceRepo.AssertNotCalled(t, "Save")
}

func TestInvoiceService_Create_InactiveSupplier(t *testing.T) {
	f := newInvoiceServiceFixture()
	ctx := context.Background()
	tenantID := uuid.New()
	supplier := createTestSupplier(t, tenantID)
	_ = supplier.Deactivate()

	f.supplierRepo.On("FindByIDForTenant", ctx, tenantID, supplier.ID).Return(supplier, nil)

	_, err := f.service.Create(ctx, tenantID, CreateInvoiceRequest{
		SupplierID:       supplier.ID,
		Series:           "A",
		Number:           "1001",
		DueDate:          time.Now().UTC().AddDate(0, 1, 0),
		TotalAmountCents: 25000,
	}, nil)

	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "SUPPLIER_INACTIVE", domainErr.Code)
}

func TestInvoiceService_Create_WithAttachment(t *testing.T) {
	f := newInvoiceServiceFixture()
	ctx := context.Background()
	tenantID := uuid.New()
	supplier := createTestSupplier(t, tenantID)

	f.supplierRepo.On("FindByIDForTenant", ctx, tenantID, supplier.ID).Return(supplier, nil)
	f.invoiceRepo.On("ExistsByIdentity", ctx, tenantID, supplier.ID, "A", "1001", uuid.Nil).Return(false, nil)
	f.storage.On("Upload", ctx, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "tenants/"+tenantID.String()+"/invoices/") && strings.HasSuffix(key, ".pdf")
	}), "application/pdf", mock.Anything).Return(nil)
	f.invoiceRepo.On("Save", ctx, mock.AnythingOfType("*billing.Invoice")).Return(nil)

	response, err := f.service.Create(ctx, tenantID, CreateInvoiceRequest{
		SupplierID:       supplier.ID,
		Series:           "A",
		Number:           "1001",
		DueDate:          time.Now().UTC().AddDate(0, 1, 0),
		TotalAmountCents: 25000,
	}, pdfUpload("%PDF-1.7"))

	require.NoError(t, err)
	assert.True(t, response.HasAttachment)
	f.storage.AssertExpectations(t)
}

func TestInvoiceService_Create_SaveFailureReleasesBlob(t *testing.T) {
	f := newInvoiceServiceFixture()
	ctx := context.Background()
	tenantID := uuid.New()
	supplier := createTestSupplier(t, tenantID)

	f.supplierRepo.On("FindByIDForTenant", ctx, tenantID, supplier.ID).Return(supplier, nil)
	f.invoiceRepo.On("ExistsByIdentity", ctx, tenantID, supplier.ID, "A", "1001", uuid.Nil).Return(false, nil)
	f.storage.On("Upload", ctx, mock.Anything, "application/pdf", mock.Anything).Return(nil)
	f.invoiceRepo.On("Save", ctx, mock.AnythingOfType("*billing.Invoice")).Return(errors.New("connection reset"))
	f.storage.On("DeleteObject", ctx, mock.Anything).Return(nil)

	_, err := f.service.Create(ctx, tenantID, CreateInvoiceRequest{
		SupplierID:       supplier.ID,
		Series:           "A",
		Number:           "1001",
		DueDate:          time.Now().UTC().AddDate(0, 1, 0),
		TotalAmountCents: 25000,
	}, pdfUpload("%PDF-1.7"))

	assert.Error(t, err)
	f.storage.AssertCalled(t, "DeleteObject", ctx, mock.Anything)
	assert.Empty(t, f.cache.invalidated)
}

func TestInvoiceService_Create_RejectsUnsupportedContentType(t *testing.T) {
	f := newInvoiceServiceFixture()
	ctx := context.Background()
	tenantID := uuid.New()
	supplier := createTestSupplier(t, tenantID)

	f.supplierRepo.On("FindByIDForTenant", ctx, tenantID, supplier.ID).Return(supplier, nil)
	f.invoiceRepo.On("ExistsByIdentity", ctx, tenantID, supplier.ID, "A", "1001", uuid.Nil).Return(false, nil)

	_, err := f.service.Create(ctx, tenantID, CreateInvoiceRequest{
		SupplierID:       supplier.ID,
		Series:           "A",
		Number:           "1001",
		DueDate:          time.Now().UTC().AddDate(0, 1, 0),
		TotalAmountCents: 25000,
	}, &AttachmentUpload{
		Filename:    "invoice.exe",
		ContentType: "application/octet-stream",
		Size:        128,
		Content:     bytes.NewReader([]byte("MZ")),
	})

	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "UNSUPPORTED_FILE_TYPE", domainErr.Code)
	f.storage.AssertNotCalled(t, "Upload")
}

func TestInvoiceService_GetByID_DerivesStatus(t *testing.T) {
	f := newInvoiceServiceFixture()
	ctx := context.Background()
	tenantID := uuid.New()
	invoice := createTestInvoice(t, tenantID, uuid.New(), 10000, time.Now().UTC().AddDate(0, 0, 10))
	payment := createTestPayment(t, tenantID, invoice.ID, uuid.New(), 4000, time.Now().UTC())

	f.invoiceRepo.On("FindByIDForTenant", ctx, tenantID, invoice.ID).Return(invoice, nil)
	f.paymentRepo.On("FindByInvoice", ctx, tenantID, invoice.ID).Return([]billing.Payment{*payment}, nil)

	response, err := f.service.GetByID(ctx, tenantID, invoice.ID)

	require.NoError(t, err)
	assert.Equal(t, string(billing.StatusPartiallyPaid), response.Status)
	assert.Equal(t, int64(4000), response.PaidAmount.Cents())
	assert.Equal(t, int64(6000), response.Remaining.Cents())
	assert.Equal(t, "40.00", response.PaidPercent)
	assert.Len(t, response.Payments, 1)
}

func TestInvoiceService_List_StatusFilterAfterDerivation(t *testing.T) {
	f := newInvoiceServiceFixture()
	ctx := context.Background()
	tenantID := uuid.New()
	supplierID := uuid.New()
	methodID := uuid.New()
	future := time.Now().UTC().AddDate(0, 0, 30)

	paidInvoice := createTestInvoice(t, tenantID, supplierID, 10000, future)
	openInvoice := createTestInvoice(t, tenantID, supplierID, 20000, future)
	payment := createTestPayment(t, tenantID, paidInvoice.ID, methodID, 10000, time.Now().UTC())

	f.invoiceRepo.On("FindForTenant", ctx, tenantID, mock.Anything).
		Return([]billing.Invoice{*paidInvoice, *openInvoice}, nil)
	f.paymentRepo.On("FindByInvoiceIDs", ctx, tenantID, mock.Anything).
		Return([]billing.Payment{*payment}, nil)

	responses, total, err := f.service.List(ctx, tenantID, ListInvoicesQuery{Status: "paid"})

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, responses, 1)
	assert.Equal(t, paidInvoice.ID, responses[0].ID)
	assert.Equal(t, string(billing.StatusPaid), responses[0].Status)
}

func TestInvoiceService_List_PaginatesAfterFiltering(t *testing.T) {
	f := newInvoiceServiceFixture()
	ctx := context.Background()
	tenantID := uuid.New()
	supplierID := uuid.New()
	future := time.Now().UTC().AddDate(0, 0, 30)

	invoices := make([]billing.Invoice, 0, 3)
	for i := 0; i < 3; i++ {
		invoices = append(invoices, *createTestInvoice(t, tenantID, supplierID, 10000, future))
	}

	f.invoiceRepo.On("FindForTenant", ctx, tenantID, mock.Anything).Return(invoices, nil)
	f.paymentRepo.On("FindByInvoiceIDs", ctx, tenantID, mock.Anything).Return([]billing.Payment{}, nil)

	page1, total, err := f.service.List(ctx, tenantID, ListInvoicesQuery{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page1, 2)

	page2, total, err := f.service.List(ctx, tenantID, ListInvoicesQuery{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page2, 1)

	page3, _, err := f.service.List(ctx, tenantID, ListInvoicesQuery{Page: 9, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, page3)
}

func TestInvoiceService_Update_TotalBelowPaidRejected(t *testing.T) {
	f := newInvoiceServiceFixture()
	ctx := context.Background()
	tenantID := uuid.New()
	invoice := createTestInvoice(t, tenantID, uuid.New(), 10000, time.Now().UTC().AddDate(0, 0, 10))
	payment := createTestPayment(t, tenantID, invoice.ID, uuid.New(), 6000, time.Now().UTC())

	f.invoiceRepo.On("FindByIDForTenant", ctx, tenantID, invoice.ID).Return(invoice, nil)
	f.paymentRepo.On("FindByInvoice", ctx, tenantID, invoice.ID).Return([]billing.Payment{*payment}, nil)

	lower := int64(5000)
	_, err := f.service.Update(ctx, tenantID, invoice.ID, UpdateInvoiceRequest{TotalAmountCents: &lower})

	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "TOTAL_BELOW_PAID", domainErr.Code)
	f.invoiceRepo.AssertNotCalled(t, "Save")
}

func TestInvoiceService_Update_IdentityCheckExcludesSelf(t *testing.T) {
	f := newInvoiceServiceFixture()
	ctx := context.Background()
	tenantID := uuid.New()
	invoice := createTestInvoice(t, tenantID, uuid.New(), 10000, time.Now().UTC().AddDate(0, 0, 10))

	f.invoiceRepo.On("FindByIDForTenant", ctx, tenantID, invoice.ID).Return(invoice, nil)
	f.paymentRepo.On("FindByInvoice", ctx, tenantID, invoice.ID).Return([]billing.Payment{}, nil)
	f.invoiceRepo.On("ExistsByIdentity", ctx, tenantID, invoice.SupplierID, "A", "2002", invoice.ID).Return(false, nil)
	f.invoiceRepo.On("Save", ctx, invoice).Return(nil)

	newNumber := "2002"
	response, err := f.service.Update(ctx, tenantID, invoice.ID, UpdateInvoiceRequest{Number: &newNumber})

	require.NoError(t, err)
	assert.Equal(t, "2002", response.Number)
	assert.Len(t, f.cache.invalidated, 1)
	f.invoiceRepo.AssertExpectations(t)
}

func TestInvoiceService_Delete_BlockedByPayments(t *testing.T) {
	f := newInvoiceServiceFixture()
	ctx := context.Background()
	tenantID := uuid.New()
	invoice := createTestInvoice(t, tenantID, uuid.New(), 10000, time.Now().UTC())

	f.invoiceRepo.On("FindByIDForTenant", ctx, tenantID, invoice.ID).Return(invoice, nil)
	f.paymentRepo.On("ExistsForInvoice", ctx, tenantID, invoice.ID).Return(true, nil)

	err := f.service.Delete(ctx, tenantID, invoice.ID)

	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "HAS_PAYMENTS", domainErr.Code)
	assert.Equal(t, "invoice has associated payments", domainErr.Message)
	f.invoiceRepo.AssertNotCalled(t, "DeleteForTenant")
}

func TestInvoiceService_Delete_ReleasesAttachmentBestEffort(t *testing.T) {
	f := newInvoiceServiceFixture()
	ctx := context.Background()
	tenantID := uuid.New()
	invoice := createTestInvoice(t, tenantID, uuid.New(), 10000, time.Now().UTC())
	invoice.AttachDocument("tenants/x/invoices/y/z.pdf")

	f.invoiceRepo.On("FindByIDForTenant", ctx, tenantID, invoice.ID).Return(invoice, nil)
	f.paymentRepo.On("ExistsForInvoice", ctx, tenantID, invoice.ID).Return(false, nil)
	f.invoiceRepo.On("DeleteForTenant", ctx, tenantID, invoice.ID).Return(nil)
	f.storage.On("DeleteObject", ctx, "tenants/x/invoices/y/z.pdf").Return(errors.New("503"))

	err := f.service.Delete(ctx, tenantID, invoice.ID)

	// Blob cleanup failure never fails the delete
	assert.NoError(t, err)
	assert.Len(t, f.cache.invalidated, 1)
	f.storage.AssertExpectations(t)
}

func TestInvoiceService_ReplaceAttachment(t *testing.T) {
	f := newInvoiceServiceFixture()
	ctx := context.Background()
	tenantID := uuid.New()
	invoice := createTestInvoice(t, tenantID, uuid.New(), 10000, time.Now().UTC().AddDate(0, 0, 10))
	invoice.AttachDocument("tenants/x/invoices/y/old.pdf")

	f.invoiceRepo.On("FindByIDForTenant", ctx, tenantID, invoice.ID).Return(invoice, nil)
	f.storage.On("Upload", ctx, mock.Anything, "application/pdf", mock.Anything).Return(nil)
	f.invoiceRepo.On("Save", ctx, invoice).Return(nil)
	f.storage.On("DeleteObject", ctx, "tenants/x/invoices/y/old.pdf").Return(nil)

	response, err := f.service.ReplaceAttachment(ctx, tenantID, invoice.ID, *pdfUpload("%PDF-1.7"))

	require.NoError(t, err)
	assert.True(t, response.HasAttachment)
	assert.Len(t, f.cache.invalidated, 1)
	f.storage.AssertCalled(t, "DeleteObject", ctx, "tenants/x/invoices/y/old.pdf")
}

func TestInvoiceService_AttachmentURL(t *testing.T) {
	f := newInvoiceServiceFixture()
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("no attachment", func(t *testing.T) {
		invoice := createTestInvoice(t, tenantID, uuid.New(), 10000, time.Now().UTC())
		f.invoiceRepo.On("FindByIDForTenant", ctx, tenantID, invoice.ID).Return(invoice, nil)

		_, err := f.service.AttachmentURL(ctx, tenantID, invoice.ID)

		var domainErr *shared.DomainError
		assert.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "NOT_FOUND", domainErr.Code)
	})

	t.Run("presigned url", func(t *testing.T) {
		invoice := createTestInvoice(t, tenantID, uuid.New(), 10000, time.Now().UTC())
		invoice.AttachDocument("tenants/a/invoices/b/c.pdf")
		expiresAt := time.Now().Add(15 * time.Minute)

		f.invoiceRepo.On("FindByIDForTenant", ctx, tenantID, invoice.ID).Return(invoice, nil)
		f.storage.On("GenerateDownloadURL", ctx, "tenants/a/invoices/b/c.pdf", 15*time.Minute).
			Return("https://cdn.test/signed", expiresAt, nil)

		response, err := f.service.AttachmentURL(ctx, tenantID, invoice.ID)

		require.NoError(t, err)
		assert.Equal(t, "https://cdn.test/signed", response.URL)
		assert.Equal(t, expiresAt, response.ExpiresAt)
	})
}
