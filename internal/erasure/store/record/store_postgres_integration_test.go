//go:build integration

package record

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"minty/internal/erasure/models"
	"minty/internal/ledger"
	id "minty/pkg/domain"
	"minty/pkg/platform/sentinel"
)

type PostgresStoreSuite struct {
	suite.Suite
	db    *sql.DB
	store *PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("minty_test"),
		postgres.WithUsername("minty"),
		postgres.WithPassword("minty"),
		postgres.BasicWaitStrategies(),
	)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.db, err = sql.Open("pgx", dsn)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = s.db.Close() })

	s.store = NewPostgres(s.db)
	s.Require().NoError(s.store.Migrate(ctx))
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.db.ExecContext(context.Background(), "TRUNCATE erasure_records")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	record := models.Record{
		DeletionID:  id.NewDeletionID(),
		CompletedAt: time.Now().UTC().Truncate(time.Millisecond),
		Duration:    2300 * time.Millisecond,
		DomainCounts: map[ledger.Domain]int{
			ledger.DomainTransactions: 12,
			ledger.DomainAccounts:     2,
			ledger.DomainGoals:        0,
			ledger.DomainInvestments:  1,
			ledger.DomainBudgets:      0,
			ledger.DomainPreferences:  4,
		},
		Success: true,
	}

	s.Require().NoError(s.store.Append(ctx, record))

	found, err := s.store.FindByDeletionID(ctx, record.DeletionID)
	s.Require().NoError(err)
	s.Equal(record.DeletionID, found.DeletionID)
	s.Equal(record.Duration, found.Duration)
	s.Equal(record.DomainCounts, found.DomainCounts)
	s.True(found.CompletedAt.Equal(record.CompletedAt))
	s.True(found.Success)
}

func (s *PostgresStoreSuite) TestFindMissing() {
	_, err := s.store.FindByDeletionID(context.Background(), id.NewDeletionID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListOrderedByCompletion() {
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 3; i++ {
		record := models.Record{
			DeletionID:   id.NewDeletionID(),
			CompletedAt:  base.Add(time.Duration(i) * time.Minute),
			Duration:     time.Second,
			DomainCounts: map[ledger.Domain]int{},
			Success:      true,
		}
		s.Require().NoError(s.store.Append(ctx, record))
	}

	records, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(records, 3)
	s.True(records[0].CompletedAt.Before(records[2].CompletedAt))
}
