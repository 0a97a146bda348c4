package middleware

import (
	"bizcore/internal/common"
	"bizcore/internal/tenancy"

	"github.com/labstack/echo/v4"
)

// TenantContext is the single choke point that decides which tenant an
// inbound request may touch. It resolves the acting tenant from the
// authenticated principal (set by JWTMiddleware), binds it into a fresh
// per-request scope, and clears the scope on every exit path. The database
// session itself is bound by the pool's checkout hook when the handler
// first touches the database.
//
// A principal without an assigned tenant is rejected with an authorization
// failure; routes that legitimately run without a tenant are mounted behind
// AdminContext instead, which is the declared tenant-exempt path.
func TenantContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			scope := tenancy.NewScope()
			// Runs on panic as well; the terminal state of every request
			// is an unbound scope.
			defer scope.Clear()

			req := c.Request()
			tenantID, ok := common.GetTenantIDFromContext(req.Context())
			if !ok {
				return common.SendForbiddenError(c, "No tenant assigned to principal")
			}
			scope.Set(tenantID)

			c.SetRequest(req.WithContext(tenancy.WithScope(req.Context(), scope)))
			return next(c)
		}
	}
}

// AdminContext marks a request as running with no tenant restriction. Only
// platform administrators pass; everything mounted behind it is part of the
// short, auditable bypass list. An unrestricted session can read across all
// tenants but, by policy design, can never update or delete tenant rows.
func AdminContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !common.GetIsAdminFromContext(req.Context()) {
				return common.SendForbiddenError(c, "Administrator access required")
			}

			scope := tenancy.NewScope()
			defer scope.Clear()
			scope.SetUnrestricted()

			c.SetRequest(req.WithContext(tenancy.WithScope(req.Context(), scope)))
			return next(c)
		}
	}
}
