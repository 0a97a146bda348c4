package handlers

import (
	"errors"
	"net/http"

	"bizcore/internal/common"
	"bizcore/internal/repositories"
	"bizcore/internal/services"
	"bizcore/internal/tenancy"

	"github.com/labstack/echo/v4"
)

// TenantHandlers handles tenant registry HTTP requests. All routes are
// mounted behind AdminContext: registry management operates across tenants
// and therefore runs unrestricted.
type TenantHandlers struct {
	tenantService services.TenantService
}

// NewTenantHandlers creates a new tenant handlers instance
func NewTenantHandlers(tenantService services.TenantService) *TenantHandlers {
	return &TenantHandlers{tenantService: tenantService}
}

// ListTenantsRequest represents query parameters for listing tenants
type ListTenantsRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// ListTenants handles getting a list of tenants
func (h *TenantHandlers) ListTenants(c echo.Context) error {
	var req ListTenantsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}

	limit, offset := common.ValidatePaginationParams(req.Limit, req.Offset)

	tenants, err := h.tenantService.List(c.Request().Context(), limit, offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list tenants")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"tenants": tenants,
		"limit":   limit,
		"offset":  offset,
	})
}

// ProvisionTenant handles creating a new tenant
func (h *TenantHandlers) ProvisionTenant(c echo.Context) error {
	var req services.ProvisionTenantRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request payload")
	}
	if err := common.ValidateRequiredString(req.Name, "name"); err != nil {
		return common.SendValidationError(c, "name", err.Error())
	}
	if err := common.ValidateRequiredString(req.Subdomain, "subdomain"); err != nil {
		return common.SendValidationError(c, "subdomain", err.Error())
	}

	tenant, err := h.tenantService.Provision(c.Request().Context(), &req)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	return c.JSON(http.StatusCreated, tenant)
}

// ResolveTenant maps a subdomain to its tenant. This is the bootstrap
// lookup a client makes before authenticating, so it is mounted publicly
// and served through the registry cache.
func (h *TenantHandlers) ResolveTenant(c echo.Context) error {
	subdomain := c.Param("subdomain")
	if err := common.ValidateRequiredString(subdomain, "subdomain"); err != nil {
		return common.SendValidationError(c, "subdomain", err.Error())
	}

	tenant, err := h.tenantService.GetBySubdomain(c.Request().Context(), subdomain)
	if errors.Is(err, repositories.ErrNotFound) {
		return common.SendNotFoundError(c, "Tenant")
	}
	if err != nil {
		return common.SendServerError(c, "Failed to resolve tenant")
	}
	if !tenant.Active() {
		return common.SendNotFoundError(c, "Tenant")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":        tenant.ID,
		"name":      tenant.Name,
		"subdomain": tenant.Subdomain,
	})
}

// GetTenant handles getting a single tenant
func (h *TenantHandlers) GetTenant(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	tenant, err := h.tenantService.GetByID(c.Request().Context(), id)
	if errors.Is(err, repositories.ErrNotFound) {
		return common.SendNotFoundError(c, "Tenant")
	}
	if err != nil {
		return common.SendServerError(c, "Failed to get tenant")
	}

	return c.JSON(http.StatusOK, tenant)
}

// UpdateTenant handles updating tenant attributes
func (h *TenantHandlers) UpdateTenant(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req services.UpdateTenantRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request payload")
	}
	req.ID = id

	if err := h.tenantService.Update(c.Request().Context(), &req); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return common.SendNotFoundError(c, "Tenant")
		}
		return common.SendServerError(c, "Failed to update tenant")
	}

	return c.NoContent(http.StatusNoContent)
}

// DeactivateTenant handles flipping a tenant to inactive
func (h *TenantHandlers) DeactivateTenant(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.tenantService.Deactivate(c.Request().Context(), id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return common.SendNotFoundError(c, "Tenant")
		}
		return common.SendServerError(c, "Failed to deactivate tenant")
	}

	return c.NoContent(http.StatusNoContent)
}

// MergeTenantRequest represents a duplicate-account merge
type MergeTenantRequest struct {
	WinnerID string `json:"winner_id" validate:"required"`
	LoserID  string `json:"loser_id" validate:"required"`
}

// MergeTenants deactivates the duplicate tenant, keeping its data in place
func (h *TenantHandlers) MergeTenants(c echo.Context) error {
	var req MergeTenantRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request payload")
	}
	winnerID, err := common.ValidateUUID(req.WinnerID, "winner_id")
	if err != nil {
		return common.SendValidationError(c, "winner_id", err.Error())
	}
	loserID, err := common.ValidateUUID(req.LoserID, "loser_id")
	if err != nil {
		return common.SendValidationError(c, "loser_id", err.Error())
	}

	if err := h.tenantService.Merge(c.Request().Context(), winnerID, loserID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return common.SendNotFoundError(c, "Tenant")
		}
		return common.SendClientError(c, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}

// DeleteTenant removes a registry row, refusing while business data exists
func (h *TenantHandlers) DeleteTenant(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.tenantService.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, tenancy.ErrTenantHasData) {
			return common.SendClientError(c, "Tenant still owns business data; deactivate instead")
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return common.SendNotFoundError(c, "Tenant")
		}
		return common.SendServerError(c, "Failed to delete tenant")
	}

	return c.NoContent(http.StatusNoContent)
}
