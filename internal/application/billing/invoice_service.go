package billing

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/paytrack/backend/internal/domain/billing"
	"github.com/paytrack/backend/internal/domain/shared"
	"github.com/paytrack/backend/internal/domain/shared/valueobject"
)

// ObjectStorageService abstracts blob storage operations for invoice
// attachments and payment receipts
type ObjectStorageService interface {
	// Upload stores an object under the given key
	Upload(ctx context.Context, storageKey, contentType string, body io.Reader) error

	// GenerateDownloadURL creates a presigned URL for downloading
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)

	// DeleteObject removes an object from storage
	DeleteObject(ctx context.Context, storageKey string) error

	// ObjectExists checks if an object exists in storage
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}

// InvoiceServiceConfig holds configuration for the invoice service
type InvoiceServiceConfig struct {
	MaxAttachmentSize   int64
	AllowedContentTypes []string
	DownloadURLExpiry   time.Duration
}

// DefaultInvoiceServiceConfig returns default configuration
func DefaultInvoiceServiceConfig() InvoiceServiceConfig {
	return InvoiceServiceConfig{
		MaxAttachmentSize:   10 * 1024 * 1024, // 10MB
		AllowedContentTypes: []string{"application/pdf", "image/png", "image/jpeg"},
		DownloadURLExpiry:   15 * time.Minute,
	}
}

// InvoiceService handles invoice business operations
type InvoiceService struct {
	invoiceRepo    billing.InvoiceRepository
	supplierRepo   billing.SupplierRepository
	paymentRepo    billing.PaymentRepository
	storageService ObjectStorageService
	cache          DashboardCache
	config         InvoiceServiceConfig
	logger         *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo billing.InvoiceRepository,
	supplierRepo billing.SupplierRepository,
	paymentRepo billing.PaymentRepository,
	storageService ObjectStorageService,
	cache DashboardCache,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo:    invoiceRepo,
		supplierRepo:   supplierRepo,
		paymentRepo:    paymentRepo,
		storageService: storageService,
		cache:          cache,
		config:         DefaultInvoiceServiceConfig(),
		logger:         logger,
	}
}

// Create creates a new invoice, optionally storing an attached document.
// The blob upload happens before the record write; when the write fails
// the uploaded object is deleted again so no orphan blob survives.
func (s *InvoiceService) Create(ctx context.Context, tenantID uuid.UUID, req CreateInvoiceRequest, attachment *AttachmentUpload) (*InvoiceSummaryResponse, error) {
	supplier, err := s.supplierRepo.FindByIDForTenant(ctx, tenantID, req.SupplierID)
	if err != nil {
		return nil, err
	}
	if !supplier.IsActive() {
		return nil, shared.NewDomainError("SUPPLIER_INACTIVE", "Cannot create invoices for an inactive supplier")
	}

	total := valueobject.NewMoney(req.TotalAmountCents)

	invoice, err := billing.NewInvoice(tenantID, req.SupplierID, req.Series, req.Number, req.DueDate, total)
	if err != nil {
		return nil, err
	}
	invoice.SetDescription(req.Description)

	exists, err := s.invoiceRepo.ExistsByIdentity(ctx, tenantID, invoice.SupplierID, invoice.Series, invoice.Number, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Invoice with this series and number already exists for the supplier")
	}

	if attachment != nil {
		storageKey, err := s.uploadAttachment(ctx, tenantID, invoice.ID, attachment)
		if err != nil {
			return nil, err
		}
		invoice.AttachDocument(storageKey)
	}

	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		if invoice.HasAttachment() {
			s.releaseBlob(ctx, invoice.AttachmentKey)
		}
		return nil, err
	}

	s.cache.InvalidateTenant(ctx, tenantID)

	response := ToInvoiceSummaryResponse(billing.NewInvoiceSummary(invoice, nil, time.Now().UTC()))
	return &response, nil
}

// GetByID retrieves an invoice with its derived payment position
func (s *InvoiceService) GetByID(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceSummaryResponse, error) {
	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}

	payments, err := s.paymentRepo.FindByInvoice(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}

	summary := billing.NewInvoiceSummary(invoice, paymentPointers(payments), time.Now().UTC())
	response := ToInvoiceSummaryResponse(summary)
	return &response, nil
}

// List retrieves invoice summaries for a tenant. The status filter acts
// on the derived status, so filtering and pagination happen after every
// matching invoice has been summarized.
func (s *InvoiceService) List(ctx context.Context, tenantID uuid.UUID, query ListInvoicesQuery) ([]InvoiceSummaryResponse, int64, error) {
	filter := shared.Filter{Page: query.Page, PageSize: query.PageSize}
	filter.Normalize()

	invoices, err := s.invoiceRepo.FindForTenant(ctx, tenantID, billing.InvoiceQuery{
		Search:      query.Search,
		SupplierID:  query.SupplierID,
		CreatedFrom: query.CreatedFrom,
		CreatedTo:   query.CreatedTo,
		DueDateFrom: query.DueDateFrom,
		DueDateTo:   query.DueDateTo,
	})
	if err != nil {
		return nil, 0, err
	}

	payments, err := s.paymentRepo.FindByInvoiceIDs(ctx, tenantID, invoiceIDs(invoices))
	if err != nil {
		return nil, 0, err
	}

	summaries := buildSummaries(invoices, payments, time.Now().UTC())

	if query.Status != "" {
		wanted := billing.PaymentStatus(query.Status)
		filtered := summaries[:0]
		for _, summary := range summaries {
			if summary.Status == wanted {
				filtered = append(filtered, summary)
			}
		}
		summaries = filtered
	}

	total := int64(len(summaries))
	start := filter.Offset()
	if start > len(summaries) {
		start = len(summaries)
	}
	end := start + filter.PageSize
	if end > len(summaries) {
		end = len(summaries)
	}

	return ToInvoiceSummaryResponses(summaries[start:end]), total, nil
}

// Update updates an invoice. Changing the identity re-runs the
// uniqueness check, and the total can never drop below what has already
// been paid.
func (s *InvoiceService) Update(ctx context.Context, tenantID, invoiceID uuid.UUID, req UpdateInvoiceRequest) (*InvoiceSummaryResponse, error) {
	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}

	payments, err := s.paymentRepo.FindByInvoice(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}

	supplierID := invoice.SupplierID
	series := invoice.Series
	number := invoice.Number
	dueDate := invoice.DueDate
	total := invoice.TotalAmount

	if req.SupplierID != nil {
		supplierID = *req.SupplierID
	}
	if req.Series != nil {
		series = *req.Series
	}
	if req.Number != nil {
		number = *req.Number
	}
	if req.DueDate != nil {
		dueDate = *req.DueDate
	}
	if req.TotalAmountCents != nil {
		total = valueobject.NewMoney(*req.TotalAmountCents)

		paid := valueobject.Zero
		for i := range payments {
			paid = paid.Add(payments[i].Amount)
		}
		if total.LessThan(paid) {
			return nil, shared.NewDomainError("TOTAL_BELOW_PAID", "Total amount cannot be lower than the amount already paid")
		}
	}

	if supplierID != invoice.SupplierID {
		supplier, err := s.supplierRepo.FindByIDForTenant(ctx, tenantID, supplierID)
		if err != nil {
			return nil, err
		}
		if !supplier.IsActive() {
			return nil, shared.NewDomainError("SUPPLIER_INACTIVE", "Cannot move invoices to an inactive supplier")
		}
	}

	if err := invoice.Update(supplierID, series, number, dueDate, total); err != nil {
		return nil, err
	}
	if req.Description != nil {
		invoice.SetDescription(*req.Description)
	}

	exists, err := s.invoiceRepo.ExistsByIdentity(ctx, tenantID, invoice.SupplierID, invoice.Series, invoice.Number, invoice.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Invoice with this series and number already exists for the supplier")
	}

	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		return nil, err
	}

	s.cache.InvalidateTenant(ctx, tenantID)

	summary := billing.NewInvoiceSummary(invoice, paymentPointers(payments), time.Now().UTC())
	response := ToInvoiceSummaryResponse(summary)
	return &response, nil
}

// Delete removes an invoice. Invoices with payments are not deletable;
// the payments must be deleted first. The stored attachment is released
// best-effort after the record is gone.
func (s *InvoiceService) Delete(ctx context.Context, tenantID, invoiceID uuid.UUID) error {
	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return err
	}

	hasPayments, err := s.paymentRepo.ExistsForInvoice(ctx, tenantID, invoiceID)
	if err != nil {
		return err
	}
	if hasPayments {
		return shared.NewDomainError("HAS_PAYMENTS", "invoice has associated payments")
	}

	if err := s.invoiceRepo.DeleteForTenant(ctx, tenantID, invoiceID); err != nil {
		return err
	}

	if invoice.HasAttachment() {
		s.releaseBlob(ctx, invoice.AttachmentKey)
	}

	s.cache.InvalidateTenant(ctx, tenantID)
	return nil
}

// ReplaceAttachment stores a new document for the invoice and releases
// the previous one best-effort
func (s *InvoiceService) ReplaceAttachment(ctx context.Context, tenantID, invoiceID uuid.UUID, attachment AttachmentUpload) (*InvoiceSummaryResponse, error) {
	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}

	oldKey := invoice.AttachmentKey
	storageKey, err := s.uploadAttachment(ctx, tenantID, invoice.ID, &attachment)
	if err != nil {
		return nil, err
	}
	invoice.AttachDocument(storageKey)

	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		s.releaseBlob(ctx, storageKey)
		return nil, err
	}

	if oldKey != "" && oldKey != storageKey {
		s.releaseBlob(ctx, oldKey)
	}

	s.cache.InvalidateTenant(ctx, tenantID)

	response := ToInvoiceSummaryResponse(billing.NewInvoiceSummary(invoice, nil, time.Now().UTC()))
	return &response, nil
}

// AttachmentURL returns a presigned download URL for the invoice document
func (s *InvoiceService) AttachmentURL(ctx context.Context, tenantID, invoiceID uuid.UUID) (*AttachmentURLResponse, error) {
	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	if !invoice.HasAttachment() {
		return nil, shared.NewDomainError("NOT_FOUND", "Invoice has no attachment")
	}

	url, expiresAt, err := s.storageService.GenerateDownloadURL(ctx, invoice.AttachmentKey, s.config.DownloadURLExpiry)
	if err != nil {
		return nil, shared.ErrStorageFailure
	}

	return &AttachmentURLResponse{URL: url, ExpiresAt: expiresAt}, nil
}

func (s *InvoiceService) uploadAttachment(ctx context.Context, tenantID, invoiceID uuid.UUID, attachment *AttachmentUpload) (string, error) {
	if err := s.validateAttachment(attachment); err != nil {
		return "", err
	}

	storageKey := fmt.Sprintf("tenants/%s/invoices/%s/%s%s",
		tenantID, invoiceID, uuid.New(), strings.ToLower(path.Ext(attachment.Filename)))

	if err := s.storageService.Upload(ctx, storageKey, attachment.ContentType, attachment.Content); err != nil {
		s.logger.Error("attachment upload failed",
			zap.String("storage_key", storageKey),
			zap.Error(err))
		return "", shared.ErrStorageFailure
	}
	return storageKey, nil
}

func (s *InvoiceService) validateAttachment(attachment *AttachmentUpload) error {
	if attachment.Size > s.config.MaxAttachmentSize {
		return shared.NewDomainError("FILE_TOO_LARGE",
			fmt.Sprintf("File size exceeds the maximum of %d bytes", s.config.MaxAttachmentSize))
	}
	for _, allowed := range s.config.AllowedContentTypes {
		if attachment.ContentType == allowed {
			return nil
		}
	}
	return shared.NewDomainError("UNSUPPORTED_FILE_TYPE",
		fmt.Sprintf("Content type %s is not allowed", attachment.ContentType))
}

// releaseBlob deletes a stored object without failing the caller.
// Orphaned blobs are cheaper than lost records.
func (s *InvoiceService) releaseBlob(ctx context.Context, storageKey string) {
	if err := s.storageService.DeleteObject(ctx, storageKey); err != nil {
		s.logger.Warn("failed to release stored attachment",
			zap.String("storage_key", storageKey),
			zap.Error(err))
	}
}
