package billing

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/paytrack/backend/internal/domain/billing"
	"github.com/paytrack/backend/internal/domain/shared"
	"github.com/paytrack/backend/internal/domain/shared/valueobject"
)

// PaymentService handles payment business operations. Every write goes
// through the guarded repository paths, so the overpayment check and
// the row write stay atomic even under concurrent submissions.
type PaymentService struct {
	paymentRepo    billing.PaymentRepository
	invoiceRepo    billing.InvoiceRepository
	methodRepo     billing.PaymentMethodRepository
	storageService ObjectStorageService
	cache          DashboardCache
	config         InvoiceServiceConfig
	logger         *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	paymentRepo billing.PaymentRepository,
	invoiceRepo billing.InvoiceRepository,
	methodRepo billing.PaymentMethodRepository,
	storageService ObjectStorageService,
	cache DashboardCache,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		paymentRepo:    paymentRepo,
		invoiceRepo:    invoiceRepo,
		methodRepo:     methodRepo,
		storageService: storageService,
		cache:          cache,
		config:         DefaultInvoiceServiceConfig(),
		logger:         logger,
	}
}

// Create records a payment against an invoice, optionally storing a
// receipt. The receipt blob is uploaded before the guarded write and
// deleted again when the write is rejected.
func (s *PaymentService) Create(ctx context.Context, tenantID, invoiceID uuid.UUID, req CreatePaymentRequest, receipt *AttachmentUpload) (*PaymentResponse, error) {
	if _, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID); err != nil {
		return nil, err
	}
	if _, err := s.methodRepo.FindByIDVisibleTo(ctx, tenantID, req.PaymentMethodID); err != nil {
		return nil, err
	}

	amount := valueobject.NewMoney(req.AmountCents)

	payment, err := billing.NewPayment(tenantID, invoiceID, req.PaymentMethodID, amount, req.PaymentDate)
	if err != nil {
		return nil, err
	}
	payment.SetNote(req.Note)

	if receipt != nil {
		storageKey, err := s.uploadReceipt(ctx, tenantID, payment.ID, receipt)
		if err != nil {
			return nil, err
		}
		payment.AttachReceipt(storageKey)
	}

	if err := s.paymentRepo.CreateGuarded(ctx, payment); err != nil {
		if payment.AttachmentKey != "" {
			s.releaseReceipt(ctx, payment.AttachmentKey)
		}
		return nil, err
	}

	s.cache.InvalidateTenant(ctx, tenantID)

	response := ToPaymentResponse(payment)
	return &response, nil
}

// ListByInvoice retrieves all payments of one invoice
func (s *PaymentService) ListByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]PaymentResponse, error) {
	if _, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID); err != nil {
		return nil, err
	}

	payments, err := s.paymentRepo.FindByInvoice(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	return ToPaymentResponses(payments), nil
}

// Update edits a payment. The overpayment check runs against the other
// payments of the invoice, so an edit can reuse the headroom freed by
// the payment's own previous amount.
func (s *PaymentService) Update(ctx context.Context, tenantID, paymentID uuid.UUID, req UpdatePaymentRequest) (*PaymentResponse, error) {
	payment, err := s.paymentRepo.FindByIDForTenant(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}

	methodID := payment.PaymentMethodID
	amount := payment.Amount
	paymentDate := payment.PaymentDate

	if req.PaymentMethodID != nil {
		if _, err := s.methodRepo.FindByIDVisibleTo(ctx, tenantID, *req.PaymentMethodID); err != nil {
			return nil, err
		}
		methodID = *req.PaymentMethodID
	}
	if req.AmountCents != nil {
		amount = valueobject.NewMoney(*req.AmountCents)
	}
	if req.PaymentDate != nil {
		paymentDate = *req.PaymentDate
	}

	if err := payment.Update(methodID, amount, paymentDate); err != nil {
		return nil, err
	}
	if req.Note != nil {
		payment.SetNote(*req.Note)
	}

	if err := s.paymentRepo.UpdateGuarded(ctx, payment); err != nil {
		return nil, err
	}

	s.cache.InvalidateTenant(ctx, tenantID)

	response := ToPaymentResponse(payment)
	return &response, nil
}

// Delete removes a payment. The stored receipt is released best-effort
// after the record is gone.
func (s *PaymentService) Delete(ctx context.Context, tenantID, paymentID uuid.UUID) error {
	payment, err := s.paymentRepo.FindByIDForTenant(ctx, tenantID, paymentID)
	if err != nil {
		return err
	}

	if err := s.paymentRepo.DeleteForTenant(ctx, tenantID, paymentID); err != nil {
		return err
	}

	if payment.AttachmentKey != "" {
		s.releaseReceipt(ctx, payment.AttachmentKey)
	}

	s.cache.InvalidateTenant(ctx, tenantID)
	return nil
}

// ReceiptURL returns a presigned download URL for the payment receipt
func (s *PaymentService) ReceiptURL(ctx context.Context, tenantID, paymentID uuid.UUID) (*AttachmentURLResponse, error) {
	payment, err := s.paymentRepo.FindByIDForTenant(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.AttachmentKey == "" {
		return nil, shared.NewDomainError("NOT_FOUND", "Payment has no receipt")
	}

	url, expiresAt, err := s.storageService.GenerateDownloadURL(ctx, payment.AttachmentKey, s.config.DownloadURLExpiry)
	if err != nil {
		return nil, shared.ErrStorageFailure
	}

	return &AttachmentURLResponse{URL: url, ExpiresAt: expiresAt}, nil
}

func (s *PaymentService) uploadReceipt(ctx context.Context, tenantID, paymentID uuid.UUID, receipt *AttachmentUpload) (string, error) {
	if receipt.Size > s.config.MaxAttachmentSize {
		return "", shared.NewDomainError("FILE_TOO_LARGE",
			fmt.Sprintf("File size exceeds the maximum of %d bytes", s.config.MaxAttachmentSize))
	}
	allowed := false
	for _, contentType := range s.config.AllowedContentTypes {
		if receipt.ContentType == contentType {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", shared.NewDomainError("UNSUPPORTED_FILE_TYPE",
			fmt.Sprintf("Content type %s is not allowed", receipt.ContentType))
	}

	storageKey := fmt.Sprintf("tenants/%s/receipts/%s/%s%s",
		tenantID, paymentID, uuid.New(), strings.ToLower(path.Ext(receipt.Filename)))

	if err := s.storageService.Upload(ctx, storageKey, receipt.ContentType, receipt.Content); err != nil {
		s.logger.Error("receipt upload failed",
			zap.String("storage_key", storageKey),
			zap.Error(err))
		return "", shared.ErrStorageFailure
	}
	return storageKey, nil
}

func (s *PaymentService) releaseReceipt(ctx context.Context, storageKey string) {
	if err := s.storageService.DeleteObject(ctx, storageKey); err != nil {
		s.logger.Warn("failed to release stored receipt",
			zap.String("storage_key", storageKey),
			zap.Error(err))
	}
}
