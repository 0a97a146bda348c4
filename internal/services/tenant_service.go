package services

import (
	"context"
	"errors"
	"strings"

	"bizcore/internal/caching"
	"bizcore/internal/models"
	"bizcore/internal/repositories"

	"github.com/google/uuid"
)

// TenantService manages the tenant registry. Provisioning creates a tenant
// active with a fresh identifier; the identifier never changes afterwards.
// Tenants with business data are deactivated, never deleted.
type TenantService interface {
	Provision(ctx context.Context, req *ProvisionTenantRequest) (*models.Tenant, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error)
	Update(ctx context.Context, req *UpdateTenantRequest) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	Merge(ctx context.Context, winnerID, loserID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*models.Tenant, error)
}

type tenantService struct {
	tenantRepo repositories.TenantRepository
	cache      caching.CacheService
}

func NewTenantService(tenantRepo repositories.TenantRepository, cache caching.CacheService) TenantService {
	return &tenantService{tenantRepo: tenantRepo, cache: cache}
}

type ProvisionTenantRequest struct {
	Name      string     `json:"name" validate:"required"`
	Subdomain string     `json:"subdomain" validate:"required"`
	OwnerID   *uuid.UUID `json:"owner_id"`
}

type UpdateTenantRequest struct {
	ID        uuid.UUID
	Name      string `json:"name" validate:"required"`
	Subdomain string `json:"subdomain" validate:"required"`
	Status    string `json:"status" validate:"required"`
}

func (s *tenantService) Provision(ctx context.Context, req *ProvisionTenantRequest) (*models.Tenant, error) {
	if req.Name == "" || req.Subdomain == "" {
		return nil, errors.New("name and subdomain are required")
	}
	if strings.TrimSpace(req.Subdomain) != req.Subdomain {
		return nil, errors.New("subdomain cannot have spaces")
	}

	tenant := &models.Tenant{
		ID:        uuid.New(),
		Name:      req.Name,
		Subdomain: req.Subdomain,
		Status:    models.TenantStatusActive,
		OwnerID:   req.OwnerID,
	}

	if err := s.tenantRepo.Create(ctx, tenant); err != nil {
		return nil, err
	}

	return tenant, nil
}

func (s *tenantService) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return s.tenantRepo.GetByID(ctx, id)
}

func (s *tenantService) GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error) {
	if subdomain == "" {
		return nil, errors.New("subdomain is required")
	}
	if s.cache != nil {
		if tenant, err := s.cache.GetTenantBySubdomain(ctx, subdomain); err == nil && tenant != nil {
			return tenant, nil
		}
	}
	tenant, err := s.tenantRepo.GetBySubdomain(ctx, subdomain)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetTenant(ctx, tenant)
	}
	return tenant, nil
}

func (s *tenantService) Update(ctx context.Context, req *UpdateTenantRequest) error {
	existing, err := s.tenantRepo.GetByID(ctx, req.ID)
	if err != nil {
		return err
	}

	existing.Name = req.Name
	existing.Subdomain = req.Subdomain
	existing.Status = req.Status

	if err := s.tenantRepo.Update(ctx, existing); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.InvalidateTenant(ctx, existing.Subdomain)
	}
	return nil
}

// Deactivate flips the status flag. The registry row and all business data
// stay in place.
func (s *tenantService) Deactivate(ctx context.Context, id uuid.UUID) error {
	existing, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.Status == models.TenantStatusInactive {
		return nil
	}
	existing.Status = models.TenantStatusInactive
	if err := s.tenantRepo.Update(ctx, existing); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.InvalidateTenant(ctx, existing.Subdomain)
	}
	return nil
}

// Merge resolves a duplicated account: the loser is deactivated and keeps
// its rows. Moving rows between tenants is a data migration, not an
// application operation.
func (s *tenantService) Merge(ctx context.Context, winnerID, loserID uuid.UUID) error {
	if winnerID == loserID {
		return errors.New("cannot merge a tenant into itself")
	}
	winner, err := s.tenantRepo.GetByID(ctx, winnerID)
	if err != nil {
		return err
	}
	if !winner.Active() {
		return errors.New("merge target is not active")
	}
	return s.Deactivate(ctx, loserID)
}

// Delete removes a registry row. The repository refuses while any business
// row still references the tenant.
func (s *tenantService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tenantRepo.Delete(ctx, id)
}

func (s *tenantService) List(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	return s.tenantRepo.List(ctx, limit, offset)
}
