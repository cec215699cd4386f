package repositories

import (
	"context"
	"testing"
	"time"

	"leadrank/internal/ml"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type ThresholdRepoTestSuite struct {
	suite.Suite
	mock     pgxmock.PgxPoolIface
	repo     ThresholdRepository
	tenantID uuid.UUID
	context  context.Context
}

func (suite *ThresholdRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewThresholdRepository(mock)
	suite.tenantID = uuid.New()
	suite.context = context.Background()
}

func (suite *ThresholdRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestThresholdRepoTestSuite(t *testing.T) {
	suite.Run(t, new(ThresholdRepoTestSuite))
}

func (suite *ThresholdRepoTestSuite) TestGet_Persisted() {
	suite.mock.ExpectQuery(`SELECT threshold FROM thresholds`).
		WithArgs(suite.tenantID).
		WillReturnRows(pgxmock.NewRows([]string{"threshold"}).AddRow(0.55))

	threshold, err := suite.repo.Get(suite.context, suite.tenantID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0.55, threshold)
}

func (suite *ThresholdRepoTestSuite) TestGet_MissingReturnsDefault() {
	suite.mock.ExpectQuery(`SELECT threshold FROM thresholds`).
		WithArgs(suite.tenantID).
		WillReturnError(pgx.ErrNoRows)

	threshold, err := suite.repo.Get(suite.context, suite.tenantID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), ml.DefaultThreshold, threshold)
}

func (suite *ThresholdRepoTestSuite) TestGetRecord_Persisted() {
	calibratedAt := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	suite.mock.ExpectQuery(`SELECT threshold, updated_at FROM thresholds`).
		WithArgs(suite.tenantID).
		WillReturnRows(pgxmock.NewRows([]string{"threshold", "updated_at"}).AddRow(0.55, calibratedAt))

	record, err := suite.repo.GetRecord(suite.context, suite.tenantID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.tenantID, record.TenantID)
	assert.Equal(suite.T(), 0.55, record.Threshold)
	assert.Equal(suite.T(), calibratedAt, record.UpdatedAt)
}

func (suite *ThresholdRepoTestSuite) TestGetRecord_MissingReturnsDefault() {
	suite.mock.ExpectQuery(`SELECT threshold, updated_at FROM thresholds`).
		WithArgs(suite.tenantID).
		WillReturnError(pgx.ErrNoRows)

	record, err := suite.repo.GetRecord(suite.context, suite.tenantID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), ml.DefaultThreshold, record.Threshold)
	assert.True(suite.T(), record.UpdatedAt.IsZero())
}

func (suite *ThresholdRepoTestSuite) TestSet_Upserts() {
	suite.mock.ExpectExec(`INSERT INTO thresholds`).
		WithArgs(suite.tenantID, 0.50).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Set(suite.context, suite.tenantID, 0.50)
	assert.NoError(suite.T(), err)
}
