package services

import (
	"context"
	"errors"
	"log"
	"time"

	"bizcore/internal/common"
	"bizcore/internal/models"
	"bizcore/internal/repositories"
	"bizcore/internal/tenancy"

	"github.com/google/uuid"
)

// InvoiceService is a thin consumer of the tenant-context API. It stamps
// the tenant from the bound scope on creation and otherwise issues ordinary
// queries; row security does the filtering.
type InvoiceService interface {
	Create(ctx context.Context, req *CreateInvoiceRequest) (*models.Invoice, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	MarkPaid(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*models.Invoice, error)
}

type invoiceService struct {
	invoiceRepo repositories.InvoiceRepository
	auditRepo   repositories.AuditLogsRepository
}

func NewInvoiceService(invoiceRepo repositories.InvoiceRepository, auditRepo repositories.AuditLogsRepository) InvoiceService {
	return &invoiceService{invoiceRepo: invoiceRepo, auditRepo: auditRepo}
}

type CreateInvoiceRequest struct {
	Number      string    `json:"number" validate:"required"`
	CustomerRef string    `json:"customer_ref"`
	Amount      float64   `json:"amount" validate:"required"`
	IssuedAt    time.Time `json:"issued_at"`
}

func (s *invoiceService) Create(ctx context.Context, req *CreateInvoiceRequest) (*models.Invoice, error) {
	tenantID, ok := tenancy.TenantID(ctx)
	if !ok {
		return nil, tenancy.ErrTenantNotResolved
	}
	if req.Number == "" {
		return nil, errors.New("invoice number is required")
	}
	if req.Amount <= 0 {
		return nil, errors.New("amount must be positive")
	}
	issuedAt := req.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = time.Now().UTC()
	}

	invoice := &models.Invoice{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Number:      req.Number,
		CustomerRef: req.CustomerRef,
		Amount:      req.Amount,
		Status:      "unpaid",
		IssuedAt:    issuedAt,
	}

	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, tenantID, "invoice.create", invoice.ID)

	return invoice, nil
}

func (s *invoiceService) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	return s.invoiceRepo.GetByID(ctx, id)
}

func (s *invoiceService) MarkPaid(ctx context.Context, id uuid.UUID) error {
	tenantID, ok := tenancy.TenantID(ctx)
	if !ok {
		return tenancy.ErrTenantNotResolved
	}

	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if invoice.Status == "paid" {
		return nil
	}
	now := time.Now().UTC()
	invoice.Status = "paid"
	invoice.PaidAt = &now

	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return err
	}
	s.recordAudit(ctx, tenantID, "invoice.mark_paid", invoice.ID)
	return nil
}

func (s *invoiceService) Delete(ctx context.Context, id uuid.UUID) error {
	tenantID, ok := tenancy.TenantID(ctx)
	if !ok {
		return tenancy.ErrTenantNotResolved
	}
	if err := s.invoiceRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, tenantID, "invoice.delete", id)
	return nil
}

func (s *invoiceService) List(ctx context.Context, limit, offset int) ([]*models.Invoice, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.invoiceRepo.List(ctx, limit, offset)
}

func (s *invoiceService) recordAudit(ctx context.Context, tenantID uuid.UUID, action string, entityID uuid.UUID) {
	if s.auditRepo == nil {
		return
	}
	entry := &models.AuditLog{
		ID:         uuid.New(),
		TenantID:   tenantID,
		Action:     action,
		EntityType: "invoice",
		EntityID:   entityID,
	}
	if userID, ok := common.GetUserIDFromContext(ctx); ok {
		entry.UserID = &userID
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		log.Printf("WARN: failed to write audit log for %s: %v", action, err)
	}
}
