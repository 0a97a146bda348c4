package handlers

import (
	"net/http"

	"bizcore/internal/common"
	"bizcore/internal/repositories"

	"github.com/labstack/echo/v4"
)

// AuditLogHandlers exposes the tenant's own activity trail. Mounted behind
// TenantContext: the query carries no tenant predicate, row security scopes
// the result to the bound tenant.
type AuditLogHandlers struct {
	auditLogRepo repositories.AuditLogsRepository
}

// NewAuditLogHandlers creates a new audit log handlers instance
func NewAuditLogHandlers(auditLogRepo repositories.AuditLogsRepository) *AuditLogHandlers {
	return &AuditLogHandlers{auditLogRepo: auditLogRepo}
}

// ListAuditLogsRequest represents query parameters for listing audit logs
type ListAuditLogsRequest struct {
	Limit int `query:"limit"`
}

// ListAuditLogs handles listing the current tenant's recent activity
func (h *AuditLogHandlers) ListAuditLogs(c echo.Context) error {
	var req ListAuditLogsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}

	limit, _ := common.ValidatePaginationParams(req.Limit, 0)

	entries, err := h.auditLogRepo.ListRecent(c.Request().Context(), limit)
	if err != nil {
		return common.SendServerError(c, "Failed to list audit logs")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"audit_logs": entries,
		"limit":      limit,
	})
}
