package tenancy

import (
	"context"
	"fmt"
)

// TenantScopedTables is the fixed allow-list of tables carrying a tenant_id
// column and protected by the policy set. Table names are never taken from
// input; adding a table means adding it here and re-applying.
var TenantScopedTables = []string{
	"users",
	"products",
	"employees",
	"invoices",
	"audit_logs",
}

// currentTenantFnSQL defines the server-side reader for the session
// parameter. current_setting(..., true) returns NULL instead of raising
// when the parameter was never set, and NULLIF maps the empty unset
// sentinel to NULL as well, so "no tenant bound" is a value the policy
// predicates can test cheaply.
const currentTenantFnSQL = `
CREATE OR REPLACE FUNCTION current_tenant_id() RETURNS uuid AS $$
	SELECT NULLIF(current_setting('` + SessionParam + `', true), '')::uuid
$$ LANGUAGE sql STABLE`

// PolicySet applies the per-table row-level security policies. Apply is
// idempotent: policies are dropped and recreated, never duplicated, so
// re-applying configuration is always safe.
type PolicySet struct {
	tables []string
}

func NewPolicySet(tables []string) *PolicySet {
	if len(tables) == 0 {
		tables = TenantScopedTables
	}
	return &PolicySet{tables: tables}
}

// Tables returns the allow-list this set protects.
func (p *PolicySet) Tables() []string {
	out := make([]string, len(p.tables))
	copy(out, p.tables)
	return out
}

// Statements returns every DDL statement Apply would execute, in order.
func (p *PolicySet) Statements() []string {
	stmts := []string{currentTenantFnSQL}
	for _, table := range p.tables {
		stmts = append(stmts, tablePolicyStatements(table)...)
	}
	return stmts
}

// Apply installs current_tenant_id() and the four per-operation policies on
// every allow-listed table.
func (p *PolicySet) Apply(ctx context.Context, db Execer) error {
	for _, stmt := range p.Statements() {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply row security policy: %w", err)
		}
	}
	return nil
}

// tablePolicyStatements builds the policy DDL for one table. Select and
// insert permit the unbound (NULL) session used by administrative and
// background paths; update and delete do not, so an unbound job can read
// across tenants but can never mutate or delete another tenant's rows.
func tablePolicyStatements(table string) []string {
	return []string{
		fmt.Sprintf(`ALTER TABLE %s ENABLE ROW LEVEL SECURITY`, table),
		fmt.Sprintf(`ALTER TABLE %s FORCE ROW LEVEL SECURITY`, table),
		fmt.Sprintf(`DROP POLICY IF EXISTS %s_tenant_select ON %s`, table, table),
		fmt.Sprintf(`CREATE POLICY %s_tenant_select ON %s FOR SELECT
	USING (tenant_id = current_tenant_id() OR current_tenant_id() IS NULL)`, table, table),
		fmt.Sprintf(`DROP POLICY IF EXISTS %s_tenant_insert ON %s`, table, table),
		fmt.Sprintf(`CREATE POLICY %s_tenant_insert ON %s FOR INSERT
	WITH CHECK (tenant_id = current_tenant_id() OR current_tenant_id() IS NULL)`, table, table),
		fmt.Sprintf(`DROP POLICY IF EXISTS %s_tenant_update ON %s`, table, table),
		fmt.Sprintf(`CREATE POLICY %s_tenant_update ON %s FOR UPDATE
	USING (tenant_id = current_tenant_id())
	WITH CHECK (tenant_id = current_tenant_id())`, table, table),
		fmt.Sprintf(`DROP POLICY IF EXISTS %s_tenant_delete ON %s`, table, table),
		fmt.Sprintf(`CREATE POLICY %s_tenant_delete ON %s FOR DELETE
	USING (tenant_id = current_tenant_id())`, table, table),
	}
}
