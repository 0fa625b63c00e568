package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/raysh454/sitecheck/internal/logging"
	"github.com/raysh454/sitecheck/internal/model"
)

// DBPool abstracts *pgxpool.Pool so the store can be tested with a mock.
type DBPool interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore keeps records in PostgreSQL.
type PostgresStore struct {
	pool   DBPool
	logger logging.Logger
}

var _ RecordStore = (*PostgresStore)(nil)

// OpenPostgres connects to dsn and makes sure the schema exists.
func OpenPostgres(ctx context.Context, dsn string, logger logging.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s, err := NewPostgresStore(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore wraps pool and verifies the connection.
func NewPostgresStore(ctx context.Context, pool DBPool, logger logging.Logger) (*PostgresStore, error) {
	if logger == nil {
		return nil, errors.New("store: nil logger provided")
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{pool: pool, logger: logger}, nil
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	schemaSQL, err := schemaFS.ReadFile("postgres_schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read postgres_schema.sql: %w", err)
	}
	if _, err := s.pool.Exec(ctx, string(schemaSQL)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, rec *model.TestRecord) error {
	enc, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO tests (id, owner, url, test_type, parameters, status, results, score, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			owner = EXCLUDED.owner,
			url = EXCLUDED.url,
			test_type = EXCLUDED.test_type,
			parameters = EXCLUDED.parameters,
			status = EXCLUDED.status,
			results = EXCLUDED.results,
			score = EXCLUDED.score,
			error_message = EXCLUDED.error_message,
			updated_at = EXCLUDED.updated_at
	`, rec.ID, rec.Owner, rec.URL, string(rec.TestType), nullableBytes(enc.params), string(rec.Status),
		nullableBytes(enc.results), nullableInt(rec.Score), rec.ErrorMessage,
		rec.CreatedAt.UTC(), rec.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("save test %s: %w", rec.ID, err)
	}
	return nil
}

const pgRecordColumns = `id, owner, url, test_type, parameters, status, results, score, error_message, created_at, updated_at`

func scanPGRecord(row pgx.Row) (*model.TestRecord, error) {
	var (
		rec                  model.TestRecord
		testType, status     string
		params, results      sql.NullString
		score                sql.NullInt64
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&rec.ID, &rec.Owner, &rec.URL, &testType, &params, &status, &results, &score,
		&rec.ErrorMessage, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	rec.TestType = model.TestType(testType)
	rec.Status = model.Status(status)
	rec.CreatedAt = createdAt.UTC()
	rec.UpdatedAt = updatedAt.UTC()
	if score.Valid {
		v := int(score.Int64)
		rec.Score = &v
	}
	var err error
	if rec.Parameters, err = decodeParams([]byte(params.String)); err != nil {
		return nil, err
	}
	if rec.Results, err = decodeResults([]byte(results.String)); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *PostgresStore) Find(ctx context.Context, id string) (*model.TestRecord, error) {
	rec, err := scanPGRecord(s.pool.QueryRow(ctx, `SELECT `+pgRecordColumns+` FROM tests WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find test %s: %w", id, err)
	}
	return rec, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete test %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const pgScope = `($1 = '' OR owner = $1) AND ($2 = '' OR test_type = $2)`

func (s *PostgresStore) Count(ctx context.Context, owner string, f model.Filter) (int, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tests WHERE `+pgScope, owner, string(f.TestType)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tests: %w", err)
	}
	return int(n), nil
}

func (s *PostgresStore) List(ctx context.Context, owner string, f model.Filter, offset, limit int) ([]*model.TestRecord, error) {
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + pgRecordColumns + ` FROM tests WHERE ` + pgScope + ` ORDER BY created_at DESC, id DESC OFFSET $3`
	args := []any{owner, string(f.TestType), offset}
	if limit > 0 {
		query += ` LIMIT $4`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}
	defer rows.Close()

	out := []*model.TestRecord{}
	for rows.Next() {
		rec, err := scanPGRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("list tests: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) AppendRun(ctx context.Context, run *model.RunEntry) error {
	results, err := encodeResults(run.Results)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO test_runs (id, test_id, status, score, results, error_message, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, run.ID, run.TestID, string(run.Status), nullableInt(run.Score), nullableBytes(results), run.ErrorMessage,
		run.StartedAt.UTC(), run.FinishedAt.UTC())
	if err != nil {
		return fmt.Errorf("append run for %s: %w", run.TestID, err)
	}
	return nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, testID string, limit int) ([]*model.RunEntry, error) {
	query := `
		SELECT id, test_id, status, score, results, error_message, started_at, finished_at
		FROM test_runs WHERE test_id = $1
		ORDER BY finished_at DESC, id DESC`
	args := []any{testID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs for %s: %w", testID, err)
	}
	defer rows.Close()

	out := []*model.RunEntry{}
	for rows.Next() {
		var (
			run               model.RunEntry
			status            string
			score             sql.NullInt64
			results           sql.NullString
			started, finished time.Time
		)
		if err := rows.Scan(&run.ID, &run.TestID, &status, &score, &results, &run.ErrorMessage, &started, &finished); err != nil {
			return nil, fmt.Errorf("list runs for %s: %w", testID, err)
		}
		run.Status = model.Status(status)
		run.StartedAt = started.UTC()
		run.FinishedAt = finished.UTC()
		if score.Valid {
			v := int(score.Int64)
			run.Score = &v
		}
		if run.Results, err = decodeResults([]byte(results.String)); err != nil {
			return nil, err
		}
		out = append(out, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs for %s: %w", testID, err)
	}
	return out, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
