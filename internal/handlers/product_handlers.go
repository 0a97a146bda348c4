package handlers

import (
	"errors"
	"net/http"
	"time"

	"bizcore/internal/common"
	"bizcore/internal/models"
	"bizcore/internal/repositories"
	"bizcore/internal/tenancy"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ProductHandlers handles product HTTP requests
type ProductHandlers struct {
	productRepo repositories.ProductRepository
}

// NewProductHandlers creates a new product handlers instance
func NewProductHandlers(productRepo repositories.ProductRepository) *ProductHandlers {
	return &ProductHandlers{productRepo: productRepo}
}

// CreateProductRequest represents the request payload for creating a product
type CreateProductRequest struct {
	SKU   string  `json:"sku"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

// CreateProduct handles creating a product for the current tenant
func (h *ProductHandlers) CreateProduct(c echo.Context) error {
	var req CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request payload")
	}
	if err := common.ValidateRequiredString(req.SKU, "sku"); err != nil {
		return common.SendValidationError(c, "sku", err.Error())
	}
	if err := common.ValidateRequiredString(req.Name, "name"); err != nil {
		return common.SendValidationError(c, "name", err.Error())
	}

	tenantID, ok := tenancy.TenantID(c.Request().Context())
	if !ok {
		return common.SendForbiddenError(c, "No tenant in scope")
	}

	product := &models.Product{
		ID:       uuid.New(),
		TenantID: tenantID,
		SKU:      req.SKU,
		Name:     req.Name,
		Price:    req.Price,
		Stock:    req.Stock,
	}
	if err := h.productRepo.Create(c.Request().Context(), product); err != nil {
		return common.SendServerError(c, "Failed to create product")
	}

	return c.JSON(http.StatusCreated, product)
}

// ListProductsRequest represents query parameters for listing products
type ListProductsRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// ListProducts handles listing the current tenant's products
func (h *ProductHandlers) ListProducts(c echo.Context) error {
	var req ListProductsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}

	limit, offset := common.ValidatePaginationParams(req.Limit, req.Offset)

	products, err := h.productRepo.List(c.Request().Context(), limit, offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list products")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"products": products,
		"limit":    limit,
		"offset":   offset,
	})
}

// GetProduct handles getting a single product
func (h *ProductHandlers) GetProduct(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	product, err := h.productRepo.GetByID(c.Request().Context(), id)
	if errors.Is(err, repositories.ErrNotFound) {
		return common.SendNotFoundError(c, "Product")
	}
	if err != nil {
		return common.SendServerError(c, "Failed to get product")
	}

	return c.JSON(http.StatusOK, product)
}

// UpdateProductRequest represents the request payload for updating a product
type UpdateProductRequest struct {
	SKU   string  `json:"sku"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

// UpdateProduct handles updating a product
func (h *ProductHandlers) UpdateProduct(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req UpdateProductRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request payload")
	}

	product, err := h.productRepo.GetByID(c.Request().Context(), id)
	if errors.Is(err, repositories.ErrNotFound) {
		return common.SendNotFoundError(c, "Product")
	}
	if err != nil {
		return common.SendServerError(c, "Failed to get product")
	}

	if req.SKU != "" {
		product.SKU = req.SKU
	}
	if req.Name != "" {
		product.Name = req.Name
	}
	if req.Price > 0 {
		product.Price = req.Price
	}
	if req.Stock >= 0 {
		product.Stock = req.Stock
	}
	product.UpdatedAt = time.Now()

	if err := h.productRepo.Update(c.Request().Context(), product); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return common.SendNotFoundError(c, "Product")
		}
		return common.SendServerError(c, "Failed to update product")
	}

	return c.JSON(http.StatusOK, product)
}

// DeleteProduct handles deleting a product
func (h *ProductHandlers) DeleteProduct(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.productRepo.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return common.SendNotFoundError(c, "Product")
		}
		return common.SendServerError(c, "Failed to delete product")
	}

	return c.NoContent(http.StatusNoContent)
}
