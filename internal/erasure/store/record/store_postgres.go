package record

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"minty/internal/erasure/models"
	"minty/internal/ledger"
	id "minty/pkg/domain"
	"minty/pkg/platform/sentinel"
)

// PostgresStore persists deletion records in PostgreSQL. The table holds only
// operational metadata; nothing in it identifies the erased subject.
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgres creates a PostgreSQL-backed record store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the erasure_records table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS erasure_records (
			deletion_id   UUID PRIMARY KEY,
			completed_at  TIMESTAMPTZ NOT NULL,
			duration_ms   BIGINT NOT NULL,
			domain_counts JSONB NOT NULL,
			success       BOOLEAN NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate erasure_records: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, record models.Record) error {
	counts, err := json.Marshal(record.DomainCounts)
	if err != nil {
		return fmt.Errorf("encode domain counts: %w", err)
	}
	query := `
		INSERT INTO erasure_records (deletion_id, completed_at, duration_ms, domain_counts, success)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(record.DeletionID),
		record.CompletedAt,
		record.Duration.Milliseconds(),
		counts,
		record.Success,
	)
	if err != nil {
		return fmt.Errorf("append erasure record: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByDeletionID(ctx context.Context, deletionID id.DeletionID) (models.Record, error) {
	query := `
		SELECT deletion_id, completed_at, duration_ms, domain_counts, success
		FROM erasure_records
		WHERE deletion_id = $1
	`
	record, err := scanRecord(s.db.QueryRowContext(ctx, query, uuid.UUID(deletionID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Record{}, sentinel.ErrNotFound
		}
		return models.Record{}, fmt.Errorf("find erasure record: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]models.Record, error) {
	query := `
		SELECT deletion_id, completed_at, duration_ms, domain_counts, success
		FROM erasure_records
		ORDER BY completed_at
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list erasure records: %w", err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan erasure record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list erasure records: %w", err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (models.Record, error) {
	var (
		deletionID uuid.UUID
		record     models.Record
		durationMs int64
		counts     []byte
	)
	if err := row.Scan(&deletionID, &record.CompletedAt, &durationMs, &counts, &record.Success); err != nil {
		return models.Record{}, err
	}
	record.DeletionID = id.DeletionID(deletionID)
	record.Duration = time.Duration(durationMs) * time.Millisecond
	record.DomainCounts = make(map[ledger.Domain]int)
	if err := json.Unmarshal(counts, &record.DomainCounts); err != nil {
		return models.Record{}, fmt.Errorf("decode domain counts: %w", err)
	}
	return record, nil
}
