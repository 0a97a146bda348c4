package handlers

import (
	"errors"
	"net/http"

	"bizcore/internal/common"
	"bizcore/internal/repositories"
	"bizcore/internal/services"

	"github.com/labstack/echo/v4"
)

// InvoiceHandlers handles invoice HTTP requests. No handler mentions the
// tenant: the middleware binds it and row security scopes every query.
type InvoiceHandlers struct {
	invoiceService services.InvoiceService
}

// NewInvoiceHandlers creates a new invoice handlers instance
func NewInvoiceHandlers(invoiceService services.InvoiceService) *InvoiceHandlers {
	return &InvoiceHandlers{invoiceService: invoiceService}
}

// ListInvoicesRequest represents query parameters for listing invoices
type ListInvoicesRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// ListInvoices handles getting the current tenant's invoices
func (h *InvoiceHandlers) ListInvoices(c echo.Context) error {
	var req ListInvoicesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}

	limit, offset := common.ValidatePaginationParams(req.Limit, req.Offset)

	invoices, err := h.invoiceService.List(c.Request().Context(), limit, offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list invoices")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"invoices": invoices,
		"limit":    limit,
		"offset":   offset,
	})
}

// CreateInvoice handles creating an invoice for the current tenant
func (h *InvoiceHandlers) CreateInvoice(c echo.Context) error {
	var req services.CreateInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request payload")
	}

	invoice, err := h.invoiceService.Create(c.Request().Context(), &req)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	return c.JSON(http.StatusCreated, invoice)
}

// GetInvoice handles getting a single invoice
func (h *InvoiceHandlers) GetInvoice(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	invoice, err := h.invoiceService.GetByID(c.Request().Context(), id)
	if errors.Is(err, repositories.ErrNotFound) {
		// Another tenant's invoice is indistinguishable from a missing one.
		return common.SendNotFoundError(c, "Invoice")
	}
	if err != nil {
		return common.SendServerError(c, "Failed to get invoice")
	}

	return c.JSON(http.StatusOK, invoice)
}

// MarkInvoicePaid handles settling an invoice
func (h *InvoiceHandlers) MarkInvoicePaid(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.invoiceService.MarkPaid(c.Request().Context(), id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return common.SendNotFoundError(c, "Invoice")
		}
		return common.SendServerError(c, "Failed to update invoice")
	}

	return c.NoContent(http.StatusNoContent)
}

// DeleteInvoice handles deleting an invoice
func (h *InvoiceHandlers) DeleteInvoice(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.invoiceService.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return common.SendNotFoundError(c, "Invoice")
		}
		return common.SendServerError(c, "Failed to delete invoice")
	}

	return c.NoContent(http.StatusNoContent)
}
