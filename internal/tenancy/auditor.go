package tenancy

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type FindingKind string

const (
	FindingMissingPolicy FindingKind = "missing_policy"
	FindingCountMismatch FindingKind = "count_mismatch"
	FindingBypassRole    FindingKind = "bypass_role"
)

type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Finding is one isolation defect discovered by the auditor.
type Finding struct {
	Table    string      `json:"table"`
	Kind     FindingKind `json:"kind"`
	Severity Severity    `json:"severity"`
	Detail   string      `json:"detail,omitempty"`
}

// Report is the structured audit output handed to operators.
type Report struct {
	RanAt    time.Time `json:"ran_at"`
	Findings []Finding `json:"findings"`
}

// HasCritical reports whether any finding demands immediate remediation.
func (r *Report) HasCritical() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// AuditorDB is the database surface the auditor needs. *pgxpool.Pool
// satisfies it.
type AuditorDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Auditor detects drift between tables that need tenant isolation and
// tables that actually have it, and empirically validates that the policies
// are doing the restricting. It is read-only and advisory: it never applies
// or repairs policies itself.
type Auditor struct {
	db     AuditorDB
	binder Binder
	exempt map[string]struct{}
}

// NewAuditor creates an auditor. Tables in exempt carry a tenant_id column
// but are deliberately left unprotected; they are skipped by Diff.
func NewAuditor(db AuditorDB, exempt []string) *Auditor {
	ex := make(map[string]struct{}, len(exempt))
	for _, t := range exempt {
		ex[t] = struct{}{}
	}
	return &Auditor{db: db, exempt: ex}
}

// CheckSessionRole reports whether the connected role bypasses row
// security. FORCE ROW LEVEL SECURITY binds table owners, but superusers
// and roles with BYPASSRLS ignore policies entirely; an application
// deployed with such a role has no isolation at all, and every other check
// would report clean while reading through the bypass.
func (a *Auditor) CheckSessionRole(ctx context.Context) ([]Finding, error) {
	query := `
		SELECT rolname, rolsuper OR rolbypassrls
		FROM pg_roles
		WHERE rolname = session_user
	`
	var role string
	var bypasses bool
	rows, err := a.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("audit session role query: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&role, &bypasses); err != nil {
			return nil, fmt.Errorf("scan session role: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit session role query: %w", err)
	}

	if !bypasses {
		return nil, nil
	}
	return []Finding{{
		Kind:     FindingBypassRole,
		Severity: SeverityCritical,
		Detail:   fmt.Sprintf("session role %q is superuser or has BYPASSRLS; row security policies are not enforced for this connection", role),
	}}, nil
}

// ListTenantScopedTables returns every base table in the public schema that
// carries a tenant_id column.
func (a *Auditor) ListTenantScopedTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT c.table_name
		FROM information_schema.columns c
		JOIN information_schema.tables t
			ON t.table_schema = c.table_schema AND t.table_name = c.table_name
		WHERE c.table_schema = 'public'
			AND c.column_name = 'tenant_id'
			AND t.table_type = 'BASE TABLE'
		ORDER BY c.table_name
	`
	return a.queryTableNames(ctx, query)
}

// ListPolicyProtectedTables returns every public table with row-level
// security enabled and at least one policy attached.
func (a *Auditor) ListPolicyProtectedTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT t.tablename
		FROM pg_tables t
		WHERE t.schemaname = 'public'
			AND t.rowsecurity
			AND EXISTS (
				SELECT 1 FROM pg_policies p
				WHERE p.schemaname = t.schemaname AND p.tablename = t.tablename
			)
		ORDER BY t.tablename
	`
	return a.queryTableNames(ctx, query)
}

// Diff returns a missing_policy finding for every non-exempt tenant-scoped
// table without an active policy. These are isolation gaps.
func (a *Auditor) Diff(ctx context.Context) ([]Finding, error) {
	scoped, err := a.ListTenantScopedTables(ctx)
	if err != nil {
		return nil, err
	}
	protected, err := a.ListPolicyProtectedTables(ctx)
	if err != nil {
		return nil, err
	}

	protectedSet := make(map[string]struct{}, len(protected))
	for _, t := range protected {
		protectedSet[t] = struct{}{}
	}

	var findings []Finding
	for _, table := range scoped {
		if _, ok := a.exempt[table]; ok {
			continue
		}
		if _, ok := protectedSet[table]; !ok {
			findings = append(findings, Finding{
				Table:    table,
				Kind:     FindingMissingPolicy,
				Severity: SeverityWarning,
				Detail:   "table has a tenant_id column but no active row security policy",
			})
		}
	}
	return findings, nil
}

// EmpiricalCheck binds tenantID inside a read-only transaction and, for each
// given table, compares count(*) under the bound session against count(*)
// with an explicit tenant_id predicate. Equal counts prove the database
// policy, not the application filter, is doing the restricting; a mismatch
// means the policy is absent or semantically wrong and is reported as
// critical. Tables must come from the policy allow-list, never from input.
func (a *Auditor) EmpiricalCheck(ctx context.Context, tenantID uuid.UUID, tables []string) ([]Finding, error) {
	tx, err := a.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("empirical check begin: %w", err)
	}
	// The binding is transaction-local, so the rollback also unbinds.
	defer func() { _ = tx.Rollback(context.Background()) }()

	if err := a.binder.BindTx(ctx, tx, tenantID); err != nil {
		return nil, err
	}

	var findings []Finding
	for _, table := range tables {
		var boundCount, filteredCount int64
		if err := tx.QueryRow(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, table)).Scan(&boundCount); err != nil {
			return nil, fmt.Errorf("empirical check count %s: %w", table, err)
		}
		if err := tx.QueryRow(ctx,
			fmt.Sprintf(`SELECT count(*) FROM %s WHERE tenant_id = $1`, table),
			tenantID,
		).Scan(&filteredCount); err != nil {
			return nil, fmt.Errorf("empirical check filtered count %s: %w", table, err)
		}
		if boundCount != filteredCount {
			findings = append(findings, Finding{
				Table:    table,
				Kind:     FindingCountMismatch,
				Severity: SeverityCritical,
				Detail: fmt.Sprintf("bound session sees %d rows, tenant %s owns %d",
					boundCount, tenantID, filteredCount),
			})
		}
	}
	return findings, nil
}

func (a *Auditor) queryTableNames(ctx context.Context, query string) ([]string, error) {
	rows, err := a.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("audit catalog query: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}
