package tenancy

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type AuditorTestSuite struct {
	suite.Suite
	mock     pgxmock.PgxPoolIface
	tenantID uuid.UUID
	context  context.Context
}

func (suite *AuditorTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock
	suite.tenantID = uuid.New()
	suite.context = context.Background()
}

func (suite *AuditorTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestAuditorTestSuite(t *testing.T) {
	suite.Run(t, new(AuditorTestSuite))
}

func (suite *AuditorTestSuite) tableRows(names ...string) *pgxmock.Rows {
	rows := pgxmock.NewRows([]string{"table_name"})
	for _, n := range names {
		rows.AddRow(n)
	}
	return rows
}

func (suite *AuditorTestSuite) TestCheckSessionRole_NormalRole() {
	auditor := NewAuditor(suite.mock, nil)

	suite.mock.ExpectQuery(`FROM pg_roles\s+WHERE rolname = session_user`).
		WillReturnRows(pgxmock.NewRows([]string{"rolname", "bypasses"}).AddRow("app_user", false))

	findings, err := auditor.CheckSessionRole(suite.context)
	assert.NoError(suite.T(), err)
	assert.Empty(suite.T(), findings)
}

// A superuser or BYPASSRLS role reads straight through every policy; the
// audit must call that out before any other result can be trusted.
func (suite *AuditorTestSuite) TestCheckSessionRole_BypassRoleIsCritical() {
	auditor := NewAuditor(suite.mock, nil)

	suite.mock.ExpectQuery(`FROM pg_roles\s+WHERE rolname = session_user`).
		WillReturnRows(pgxmock.NewRows([]string{"rolname", "bypasses"}).AddRow("postgres", true))

	findings, err := auditor.CheckSessionRole(suite.context)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), findings, 1)
	assert.Equal(suite.T(), FindingBypassRole, findings[0].Kind)
	assert.Equal(suite.T(), SeverityCritical, findings[0].Severity)
	assert.Contains(suite.T(), findings[0].Detail, "postgres")
}

func (suite *AuditorTestSuite) TestListTenantScopedTables() {
	auditor := NewAuditor(suite.mock, nil)

	suite.mock.ExpectQuery(`SELECT c\.table_name`).
		WillReturnRows(suite.tableRows("invoices", "products", "users"))

	tables, err := auditor.ListTenantScopedTables(suite.context)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), []string{"invoices", "products", "users"}, tables)
}

func (suite *AuditorTestSuite) TestListPolicyProtectedTables() {
	auditor := NewAuditor(suite.mock, nil)

	suite.mock.ExpectQuery(`SELECT t\.tablename`).
		WillReturnRows(suite.tableRows("invoices", "users"))

	tables, err := auditor.ListPolicyProtectedTables(suite.context)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), []string{"invoices", "users"}, tables)
}

func (suite *AuditorTestSuite) TestDiff_FlagsUnprotectedTable() {
	auditor := NewAuditor(suite.mock, nil)

	suite.mock.ExpectQuery(`SELECT c\.table_name`).
		WillReturnRows(suite.tableRows("invoices", "products", "users"))
	suite.mock.ExpectQuery(`SELECT t\.tablename`).
		WillReturnRows(suite.tableRows("invoices", "users"))

	findings, err := auditor.Diff(suite.context)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), findings, 1)
	assert.Equal(suite.T(), "products", findings[0].Table)
	assert.Equal(suite.T(), FindingMissingPolicy, findings[0].Kind)
	assert.Equal(suite.T(), SeverityWarning, findings[0].Severity)
}

func (suite *AuditorTestSuite) TestDiff_CleanWhenEverythingProtected() {
	auditor := NewAuditor(suite.mock, nil)

	suite.mock.ExpectQuery(`SELECT c\.table_name`).
		WillReturnRows(suite.tableRows("invoices", "users"))
	suite.mock.ExpectQuery(`SELECT t\.tablename`).
		WillReturnRows(suite.tableRows("invoices", "users"))

	findings, err := auditor.Diff(suite.context)
	assert.NoError(suite.T(), err)
	assert.Empty(suite.T(), findings)
}

func (suite *AuditorTestSuite) TestDiff_SkipsExemptTables() {
	auditor := NewAuditor(suite.mock, []string{"staging_imports"})

	suite.mock.ExpectQuery(`SELECT c\.table_name`).
		WillReturnRows(suite.tableRows("invoices", "staging_imports"))
	suite.mock.ExpectQuery(`SELECT t\.tablename`).
		WillReturnRows(suite.tableRows("invoices"))

	findings, err := auditor.Diff(suite.context)
	assert.NoError(suite.T(), err)
	assert.Empty(suite.T(), findings)
}

func (suite *AuditorTestSuite) TestDiff_CatalogQueryFailure() {
	auditor := NewAuditor(suite.mock, nil)

	suite.mock.ExpectQuery(`SELECT c\.table_name`).
		WillReturnError(errors.New("permission denied"))

	_, err := auditor.Diff(suite.context)
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "audit catalog query")
}

func (suite *AuditorTestSuite) TestEmpiricalCheck_MatchingCounts() {
	auditor := NewAuditor(suite.mock, nil)

	suite.mock.ExpectBegin()
	suite.mock.ExpectExec(`SELECT set_config\('app\.current_tenant_id', \$1, true\)`).
		WithArgs(suite.tenantID.String()).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	suite.mock.ExpectQuery(`SELECT count\(\*\) FROM invoices`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(4)))
	suite.mock.ExpectQuery(`SELECT count\(\*\) FROM invoices WHERE tenant_id = \$1`).
		WithArgs(suite.tenantID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(4)))
	suite.mock.ExpectRollback()

	findings, err := auditor.EmpiricalCheck(suite.context, suite.tenantID, []string{"invoices"})
	assert.NoError(suite.T(), err)
	assert.Empty(suite.T(), findings)
}

func (suite *AuditorTestSuite) TestEmpiricalCheck_MismatchIsCritical() {
	auditor := NewAuditor(suite.mock, nil)

	// the bound session sees more rows than the tenant owns: leakage
	suite.mock.ExpectBegin()
	suite.mock.ExpectExec(`SELECT set_config\('app\.current_tenant_id', \$1, true\)`).
		WithArgs(suite.tenantID.String()).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	suite.mock.ExpectQuery(`SELECT count\(\*\) FROM invoices`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(9)))
	suite.mock.ExpectQuery(`SELECT count\(\*\) FROM invoices WHERE tenant_id = \$1`).
		WithArgs(suite.tenantID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(4)))
	suite.mock.ExpectRollback()

	findings, err := auditor.EmpiricalCheck(suite.context, suite.tenantID, []string{"invoices"})
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), findings, 1)
	assert.Equal(suite.T(), FindingCountMismatch, findings[0].Kind)
	assert.Equal(suite.T(), SeverityCritical, findings[0].Severity)
}

func (suite *AuditorTestSuite) TestEmpiricalCheck_RollsBackOnBindFailure() {
	auditor := NewAuditor(suite.mock, nil)

	suite.mock.ExpectBegin()
	suite.mock.ExpectExec(`SELECT set_config\('app\.current_tenant_id', \$1, true\)`).
		WithArgs(suite.tenantID.String()).
		WillReturnError(errors.New("connection gone"))
	suite.mock.ExpectRollback()

	_, err := auditor.EmpiricalCheck(suite.context, suite.tenantID, []string{"invoices"})
	assert.ErrorIs(suite.T(), err, ErrBindingFailure)
}
