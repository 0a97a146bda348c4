package tenancy

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// SessionParam is the session-local configuration parameter read by the RLS
// policy predicates via current_tenant_id(). Renaming it requires a
// coordinated re-apply of every policy definition.
const SessionParam = "app.current_tenant_id"

const (
	bindSQL      = `SELECT set_config('` + SessionParam + `', $1, false)`
	bindLocalSQL = `SELECT set_config('` + SessionParam + `', $1, true)`
)

// Execer is the slice of a pgx connection, pool, or transaction the binder
// needs. *pgx.Conn, *pgxpool.Pool and pgx.Tx all satisfy it.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Binder synchronizes a tenant scope into the live database session so that
// the row-level security policies can read it. Binding must happen every
// time a connection is checked out of the pool: connections are not
// tenant-affine, and a stale binding left by a previous request is a
// security bug.
type Binder struct{}

// Bind sets the session parameter to the tenant's string form for the
// lifetime of the session (until the next Bind or Reset).
func (Binder) Bind(ctx context.Context, db Execer, tenantID uuid.UUID) error {
	if _, err := db.Exec(ctx, bindSQL, tenantID.String()); err != nil {
		return fmt.Errorf("%w: %v", ErrBindingFailure, err)
	}
	return nil
}

// Reset sets the session parameter to the unset sentinel (empty string),
// which current_tenant_id() reports as NULL.
func (Binder) Reset(ctx context.Context, db Execer) error {
	if _, err := db.Exec(ctx, bindSQL, ""); err != nil {
		return fmt.Errorf("%w: %v", ErrBindingFailure, err)
	}
	return nil
}

// BindTx sets the parameter transaction-locally; it reverts on commit or
// rollback, so background tasks that bind inside a transaction cannot leak
// the binding back into the pool.
func (Binder) BindTx(ctx context.Context, tx Execer, tenantID uuid.UUID) error {
	if _, err := tx.Exec(ctx, bindLocalSQL, tenantID.String()); err != nil {
		return fmt.Errorf("%w: %v", ErrBindingFailure, err)
	}
	return nil
}

// BindFromContext binds the connection according to the context's tenant
// scope: a bound scope binds its tenant, an unrestricted or absent scope
// resets to the unset sentinel. The reset case matters just as much as the
// bind case, because the connection may still carry the previous checkout's
// tenant.
func (b Binder) BindFromContext(ctx context.Context, db Execer) error {
	if tenantID, ok := TenantID(ctx); ok {
		return b.Bind(ctx, db, tenantID)
	}
	return b.Reset(ctx, db)
}
