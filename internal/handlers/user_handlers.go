package handlers

import (
	"errors"
	"net/http"

	"bizcore/internal/common"
	"bizcore/internal/models"
	"bizcore/internal/repositories"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// UserHandlers handles user HTTP requests. CreateUser is mounted behind
// AdminContext (provisioning assigns the tenant explicitly); ListUsers is
// mounted behind TenantContext so row security scopes the result.
type UserHandlers struct {
	userRepo repositories.UserRepository
}

// NewUserHandlers creates a new user handlers instance
func NewUserHandlers(userRepo repositories.UserRepository) *UserHandlers {
	return &UserHandlers{userRepo: userRepo}
}

// CreateUserRequest represents the request payload for creating a user
type CreateUserRequest struct {
	TenantID string `json:"tenant_id" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Name     string `json:"name" validate:"required"`
	IsAdmin  bool   `json:"is_admin"`
}

// CreateUser handles provisioning a user into a tenant
func (h *UserHandlers) CreateUser(c echo.Context) error {
	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request payload")
	}
	tenantID, err := common.ValidateUUID(req.TenantID, "tenant_id")
	if err != nil {
		return common.SendValidationError(c, "tenant_id", err.Error())
	}
	if err := common.ValidateRequiredString(req.Email, "email"); err != nil {
		return common.SendValidationError(c, "email", err.Error())
	}
	if err := common.ValidateRequiredString(req.Name, "name"); err != nil {
		return common.SendValidationError(c, "name", err.Error())
	}

	if _, err := h.userRepo.GetByEmail(c.Request().Context(), req.Email); err == nil {
		return common.SendClientError(c, "Email already registered")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return common.SendServerError(c, "Failed to create user")
	}

	user := &models.User{
		ID:       uuid.New(),
		TenantID: tenantID,
		Email:    req.Email,
		Name:     req.Name,
		IsAdmin:  req.IsAdmin,
	}
	if err := h.userRepo.Create(c.Request().Context(), user); err != nil {
		return common.SendServerError(c, "Failed to create user")
	}

	return c.JSON(http.StatusCreated, user)
}

// ListUsersRequest represents query parameters for listing users
type ListUsersRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// ListUsers handles listing the current tenant's users
func (h *UserHandlers) ListUsers(c echo.Context) error {
	var req ListUsersRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}

	limit, offset := common.ValidatePaginationParams(req.Limit, req.Offset)

	users, err := h.userRepo.List(c.Request().Context(), limit, offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list users")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"users":  users,
		"limit":  limit,
		"offset": offset,
	})
}
