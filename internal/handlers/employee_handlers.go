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

// EmployeeHandlers handles employee HTTP requests
type EmployeeHandlers struct {
	employeeRepo repositories.EmployeeRepository
}

// NewEmployeeHandlers creates a new employee handlers instance
func NewEmployeeHandlers(employeeRepo repositories.EmployeeRepository) *EmployeeHandlers {
	return &EmployeeHandlers{employeeRepo: employeeRepo}
}

// CreateEmployeeRequest represents the request payload for creating an employee
type CreateEmployeeRequest struct {
	Name    string    `json:"name"`
	Role    string    `json:"role"`
	Salary  float64   `json:"salary"`
	HiredAt time.Time `json:"hired_at"`
}

// CreateEmployee handles creating an employee for the current tenant
func (h *EmployeeHandlers) CreateEmployee(c echo.Context) error {
	var req CreateEmployeeRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request payload")
	}
	if err := common.ValidateRequiredString(req.Name, "name"); err != nil {
		return common.SendValidationError(c, "name", err.Error())
	}

	tenantID, ok := tenancy.TenantID(c.Request().Context())
	if !ok {
		return common.SendForbiddenError(c, "No tenant in scope")
	}

	hiredAt := req.HiredAt
	if hiredAt.IsZero() {
		hiredAt = time.Now()
	}

	employee := &models.Employee{
		ID:       uuid.New(),
		TenantID: tenantID,
		Name:     req.Name,
		Role:     req.Role,
		Salary:   req.Salary,
		HiredAt:  hiredAt,
	}
	if err := h.employeeRepo.Create(c.Request().Context(), employee); err != nil {
		return common.SendServerError(c, "Failed to create employee")
	}

	return c.JSON(http.StatusCreated, employee)
}

// ListEmployeesRequest represents query parameters for listing employees
type ListEmployeesRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// ListEmployees handles listing the current tenant's employees
func (h *EmployeeHandlers) ListEmployees(c echo.Context) error {
	var req ListEmployeesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}

	limit, offset := common.ValidatePaginationParams(req.Limit, req.Offset)

	employees, err := h.employeeRepo.List(c.Request().Context(), limit, offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list employees")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"employees": employees,
		"limit":     limit,
		"offset":    offset,
	})
}

// GetEmployee handles getting a single employee
func (h *EmployeeHandlers) GetEmployee(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	employee, err := h.employeeRepo.GetByID(c.Request().Context(), id)
	if errors.Is(err, repositories.ErrNotFound) {
		return common.SendNotFoundError(c, "Employee")
	}
	if err != nil {
		return common.SendServerError(c, "Failed to get employee")
	}

	return c.JSON(http.StatusOK, employee)
}

// UpdateEmployeeRequest represents the request payload for updating an employee
type UpdateEmployeeRequest struct {
	Name   string  `json:"name"`
	Role   string  `json:"role"`
	Salary float64 `json:"salary"`
}

// UpdateEmployee handles updating an employee
func (h *EmployeeHandlers) UpdateEmployee(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req UpdateEmployeeRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request payload")
	}

	employee, err := h.employeeRepo.GetByID(c.Request().Context(), id)
	if errors.Is(err, repositories.ErrNotFound) {
		return common.SendNotFoundError(c, "Employee")
	}
	if err != nil {
		return common.SendServerError(c, "Failed to get employee")
	}

	if req.Name != "" {
		employee.Name = req.Name
	}
	if req.Role != "" {
		employee.Role = req.Role
	}
	if req.Salary > 0 {
		employee.Salary = req.Salary
	}
	employee.UpdatedAt = time.Now()

	if err := h.employeeRepo.Update(c.Request().Context(), employee); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return common.SendNotFoundError(c, "Employee")
		}
		return common.SendServerError(c, "Failed to update employee")
	}

	return c.JSON(http.StatusOK, employee)
}

// DeleteEmployee handles deleting an employee
func (h *EmployeeHandlers) DeleteEmployee(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.employeeRepo.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return common.SendNotFoundError(c, "Employee")
		}
		return common.SendServerError(c, "Failed to delete employee")
	}

	return c.NoContent(http.StatusNoContent)
}
