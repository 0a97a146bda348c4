package repositories

import (
	"context"
	"testing"
	"time"

	"bizcore/internal/models"
	"bizcore/internal/tenancy"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type TenantRepoTestSuite struct {
	suite.Suite
	mock     pgxmock.PgxPoolIface
	repo     TenantRepository
	tenantID uuid.UUID
	context  context.Context
}

func (suite *TenantRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewTenantRepo(mock)
	suite.tenantID = uuid.New()
	suite.context = context.Background()
}

func (suite *TenantRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestTenantRepoTestSuite(t *testing.T) {
	suite.Run(t, new(TenantRepoTestSuite))
}

func (suite *TenantRepoTestSuite) tenantRow(tenant *models.Tenant) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "name", "subdomain", "status", "owner_id", "created_at", "updated_at"}).
		AddRow(tenant.ID, tenant.Name, tenant.Subdomain, tenant.Status, tenant.OwnerID, tenant.CreatedAt, tenant.UpdatedAt)
}

func (suite *TenantRepoTestSuite) TestCreate_Success() {
	tenant := &models.Tenant{
		ID:        suite.tenantID,
		Name:      "Acme Corp",
		Subdomain: "acme",
		Status:    models.TenantStatusActive,
	}

	suite.mock.ExpectExec(`INSERT INTO tenants`).
		WithArgs(tenant.ID, tenant.Name, tenant.Subdomain, tenant.Status, tenant.OwnerID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Create(suite.context, tenant)
	assert.NoError(suite.T(), err)
}

func (suite *TenantRepoTestSuite) TestGetByID_Success() {
	tenant := &models.Tenant{
		ID:        suite.tenantID,
		Name:      "Acme Corp",
		Subdomain: "acme",
		Status:    models.TenantStatusActive,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	suite.mock.ExpectQuery(`SELECT id, name, subdomain, status, owner_id, created_at, updated_at`).
		WithArgs(suite.tenantID).
		WillReturnRows(suite.tenantRow(tenant))

	got, err := suite.repo.GetByID(suite.context, suite.tenantID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), tenant.ID, got.ID)
	assert.Equal(suite.T(), "acme", got.Subdomain)
}

func (suite *TenantRepoTestSuite) TestGetByID_NotFound() {
	suite.mock.ExpectQuery(`SELECT id, name, subdomain, status, owner_id, created_at, updated_at`).
		WithArgs(suite.tenantID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "subdomain", "status", "owner_id", "created_at", "updated_at"}))

	_, err := suite.repo.GetByID(suite.context, suite.tenantID)
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *TenantRepoTestSuite) TestGetBySubdomain_Success() {
	tenant := &models.Tenant{
		ID:        suite.tenantID,
		Name:      "Acme Corp",
		Subdomain: "acme",
		Status:    models.TenantStatusActive,
	}

	suite.mock.ExpectQuery(`FROM tenants`).
		WithArgs("acme").
		WillReturnRows(suite.tenantRow(tenant))

	got, err := suite.repo.GetBySubdomain(suite.context, "acme")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.tenantID, got.ID)
}

func (suite *TenantRepoTestSuite) TestDelete_RefusedWhileDataRemains() {
	suite.mock.ExpectQuery(`SELECT`).
		WithArgs(suite.tenantID).
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(int64(42)))

	err := suite.repo.Delete(suite.context, suite.tenantID)
	assert.ErrorIs(suite.T(), err, tenancy.ErrTenantHasData)
}

func (suite *TenantRepoTestSuite) TestDelete_EmptyTenant() {
	suite.mock.ExpectQuery(`SELECT`).
		WithArgs(suite.tenantID).
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(int64(0)))
	suite.mock.ExpectExec(`DELETE FROM tenants WHERE id = \$1`).
		WithArgs(suite.tenantID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := suite.repo.Delete(suite.context, suite.tenantID)
	assert.NoError(suite.T(), err)
}

func (suite *TenantRepoTestSuite) TestListActiveIDs() {
	id1, id2 := uuid.New(), uuid.New()

	suite.mock.ExpectQuery(`WHERE status = 'active'`).
		WithArgs(10).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(id1).AddRow(id2))

	ids, err := suite.repo.ListActiveIDs(suite.context, 10)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), []uuid.UUID{id1, id2}, ids)
}

func (suite *TenantRepoTestSuite) TestCountOwnedRows() {
	suite.mock.ExpectQuery(`SELECT`).
		WithArgs(suite.tenantID).
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(int64(7)))

	total, err := suite.repo.CountOwnedRows(suite.context, suite.tenantID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(7), total)
}
