package tenancy

import "errors"

var (
	// ErrTenantNotResolved means the authenticated principal carries no
	// tenant and the route is not tenant-exempt. Surfaced as an
	// authorization failure, never a server error.
	ErrTenantNotResolved = errors.New("no tenant resolved for request")

	// ErrBindingFailure means the database rejected the session
	// configuration command. The unit of work must not issue business
	// queries on that connection.
	ErrBindingFailure = errors.New("tenant session binding failed")

	// ErrTenantHasData means a tenant registry row still owns business
	// data and cannot be deleted; deactivate instead.
	ErrTenantHasData = errors.New("tenant still owns business data")
)
