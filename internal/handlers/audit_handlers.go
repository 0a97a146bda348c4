package handlers

import (
	"net/http"

	"bizcore/internal/common"
	"bizcore/internal/services"

	"github.com/labstack/echo/v4"
)

// AuditHandlers exposes the isolation auditor to operators. Mounted behind
// AdminContext. Findings are reported, never auto-remediated: applying
// policies is its own endpoint so the operator stays aware of the gap.
type AuditHandlers struct {
	auditService services.AuditService
}

// NewAuditHandlers creates a new audit handlers instance
func NewAuditHandlers(auditService services.AuditService) *AuditHandlers {
	return &AuditHandlers{auditService: auditService}
}

// GetIsolationReport returns the latest cached audit report
func (h *AuditHandlers) GetIsolationReport(c echo.Context) error {
	report, err := h.auditService.Latest(c.Request().Context())
	if err != nil {
		return common.SendServerError(c, "Failed to load audit report")
	}
	if report == nil {
		return common.SendNotFoundError(c, "Audit report")
	}
	return c.JSON(http.StatusOK, report)
}

// RunIsolationAudit runs a full audit synchronously and returns the report
func (h *AuditHandlers) RunIsolationAudit(c echo.Context) error {
	report, err := h.auditService.Run(c.Request().Context())
	if err != nil {
		return common.SendServerError(c, "Isolation audit failed")
	}
	return c.JSON(http.StatusOK, report)
}

// GetReportDownloadURL returns a short-lived link to an archived report
func (h *AuditHandlers) GetReportDownloadURL(c echo.Context) error {
	objectName := c.QueryParam("object")
	if err := common.ValidateRequiredString(objectName, "object"); err != nil {
		return common.SendValidationError(c, "object", err.Error())
	}

	url, err := h.auditService.ReportURL(objectName)
	if err != nil {
		return common.SendServerError(c, "Failed to generate report URL")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"object": objectName,
		"url":    url,
	})
}

// ApplyPolicies re-applies the row security policy set
func (h *AuditHandlers) ApplyPolicies(c echo.Context) error {
	if err := h.auditService.ApplyPolicies(c.Request().Context()); err != nil {
		return common.SendServerError(c, "Failed to apply policies")
	}
	return c.NoContent(http.StatusNoContent)
}
