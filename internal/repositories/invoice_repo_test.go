package repositories

import (
	"context"
	"testing"
	"time"

	"bizcore/internal/models"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type InvoiceRepoTestSuite struct {
	suite.Suite
	mock     pgxmock.PgxPoolIface
	repo     InvoiceRepository
	tenantID uuid.UUID
	context  context.Context
}

func (suite *InvoiceRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewInvoiceRepo(mock)
	suite.tenantID = uuid.New()
	suite.context = context.Background()
}

func (suite *InvoiceRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestInvoiceRepoTestSuite(t *testing.T) {
	suite.Run(t, new(InvoiceRepoTestSuite))
}

func (suite *InvoiceRepoTestSuite) TestCreate_Success() {
	invoice := &models.Invoice{
		ID:       uuid.New(),
		TenantID: suite.tenantID,
		Number:   "INV-001",
		Amount:   199.99,
		Status:   "unpaid",
		IssuedAt: time.Now(),
	}

	suite.mock.ExpectExec(`INSERT INTO invoices`).
		WithArgs(invoice.ID, invoice.TenantID, invoice.Number, invoice.CustomerRef, invoice.Amount, invoice.Status, invoice.IssuedAt, invoice.PaidAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Create(suite.context, invoice)
	assert.NoError(suite.T(), err)
}

// Read queries carry no tenant predicate; the session binding restricts them.
func (suite *InvoiceRepoTestSuite) TestGetByID_QueriesByIDOnly() {
	invoiceID := uuid.New()
	now := time.Now()

	suite.mock.ExpectQuery(`SELECT id, tenant_id, number, customer_ref, amount, status, issued_at, paid_at, created_at, updated_at\s+FROM invoices\s+WHERE id = \$1`).
		WithArgs(invoiceID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "tenant_id", "number", "customer_ref", "amount", "status", "issued_at", "paid_at", "created_at", "updated_at"}).
			AddRow(invoiceID, suite.tenantID, "INV-001", "", 199.99, "unpaid", now, nil, now, now))

	invoice, err := suite.repo.GetByID(suite.context, invoiceID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), invoiceID, invoice.ID)
}

func (suite *InvoiceRepoTestSuite) TestGetByID_NotFound() {
	invoiceID := uuid.New()

	suite.mock.ExpectQuery(`FROM invoices`).
		WithArgs(invoiceID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "tenant_id", "number", "customer_ref", "amount", "status", "issued_at", "paid_at", "created_at", "updated_at"}))

	_, err := suite.repo.GetByID(suite.context, invoiceID)
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

// A row security policy swallowing the update looks like zero rows affected.
func (suite *InvoiceRepoTestSuite) TestUpdate_ZeroRowsIsNotFound() {
	invoice := &models.Invoice{
		ID:     uuid.New(),
		Number: "INV-001",
		Amount: 50,
		Status: "unpaid",
	}

	suite.mock.ExpectExec(`UPDATE invoices`).
		WithArgs(invoice.Number, invoice.CustomerRef, invoice.Amount, invoice.Status, invoice.PaidAt, invoice.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := suite.repo.Update(suite.context, invoice)
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *InvoiceRepoTestSuite) TestDelete_ZeroRowsIsNotFound() {
	invoiceID := uuid.New()

	suite.mock.ExpectExec(`DELETE FROM invoices WHERE id = \$1`).
		WithArgs(invoiceID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := suite.repo.Delete(suite.context, invoiceID)
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *InvoiceRepoTestSuite) TestList_NoTenantPredicate() {
	now := time.Now()

	suite.mock.ExpectQuery(`FROM invoices\s+ORDER BY issued_at DESC\s+LIMIT \$1 OFFSET \$2`).
		WithArgs(20, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "tenant_id", "number", "customer_ref", "amount", "status", "issued_at", "paid_at", "created_at", "updated_at"}).
			AddRow(uuid.New(), suite.tenantID, "INV-001", "", 10.0, "unpaid", now, nil, now, now).
			AddRow(uuid.New(), suite.tenantID, "INV-002", "", 20.0, "paid", now, &now, now, now))

	invoices, err := suite.repo.List(suite.context, 20, 0)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), invoices, 2)
}
