package tenancy

import (
	"context"
	"fmt"
	"strings"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicySet_DefaultsToAllowList(t *testing.T) {
	p := NewPolicySet(nil)
	assert.Equal(t, TenantScopedTables, p.Tables())
}

func TestPolicySet_TablesReturnsCopy(t *testing.T) {
	p := NewPolicySet([]string{"invoices"})
	tables := p.Tables()
	tables[0] = "mutated"
	assert.Equal(t, []string{"invoices"}, p.Tables())
}

func TestPolicySet_StatementsPerTable(t *testing.T) {
	p := NewPolicySet([]string{"invoices", "products"})
	stmts := p.Statements()

	// one function definition plus ten statements per table
	require.Len(t, stmts, 1+2*10)
	assert.Contains(t, stmts[0], "CREATE OR REPLACE FUNCTION current_tenant_id()")
	assert.Contains(t, stmts[0], "NULLIF(current_setting('app.current_tenant_id', true), '')")
}

func TestPolicySet_EnablesAndForcesRowSecurity(t *testing.T) {
	joined := strings.Join(NewPolicySet([]string{"invoices"}).Statements(), "\n")

	assert.Contains(t, joined, "ALTER TABLE invoices ENABLE ROW LEVEL SECURITY")
	assert.Contains(t, joined, "ALTER TABLE invoices FORCE ROW LEVEL SECURITY")
}

func TestPolicySet_DropBeforeCreate(t *testing.T) {
	stmts := NewPolicySet([]string{"invoices"}).Statements()

	for _, op := range []string{"select", "insert", "update", "delete"} {
		dropIdx, createIdx := -1, -1
		for i, s := range stmts {
			if strings.Contains(s, fmt.Sprintf("DROP POLICY IF EXISTS invoices_tenant_%s", op)) {
				dropIdx = i
			}
			if strings.Contains(s, fmt.Sprintf("CREATE POLICY invoices_tenant_%s", op)) {
				createIdx = i
			}
		}
		require.GreaterOrEqual(t, dropIdx, 0, "missing drop for %s", op)
		require.GreaterOrEqual(t, createIdx, 0, "missing create for %s", op)
		assert.Less(t, dropIdx, createIdx, "drop must precede create for %s", op)
	}
}

// Read and insert tolerate an unbound session; update and delete never do.
func TestPolicySet_NullBypassAsymmetry(t *testing.T) {
	stmts := NewPolicySet([]string{"invoices"}).Statements()

	find := func(op string) string {
		for _, s := range stmts {
			if strings.Contains(s, fmt.Sprintf("CREATE POLICY invoices_tenant_%s", op)) {
				return s
			}
		}
		t.Fatalf("no create statement for %s", op)
		return ""
	}

	assert.Contains(t, find("select"), "OR current_tenant_id() IS NULL")
	assert.Contains(t, find("insert"), "OR current_tenant_id() IS NULL")
	assert.NotContains(t, find("update"), "IS NULL")
	assert.NotContains(t, find("delete"), "IS NULL")
}

func TestPolicySet_ApplyExecutesEveryStatement(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	p := NewPolicySet([]string{"invoices"})
	for range p.Statements() {
		mock.ExpectExec(".*").WillReturnResult(pgxmock.NewResult("ALTER", 0))
	}

	assert.NoError(t, p.Apply(context.Background(), mock))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPolicySet_ApplyStopsOnFirstFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(".*").WillReturnError(fmt.Errorf("permission denied"))

	err = NewPolicySet([]string{"invoices"}).Apply(context.Background(), mock)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "apply row security policy")
}
