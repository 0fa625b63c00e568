package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/raysh454/sitecheck/internal/logging"
	"github.com/raysh454/sitecheck/internal/model"
)

//go:embed schema.sql postgres_schema.sql
var schemaFS embed.FS

// SQLiteStore keeps records in a single SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	logger logging.Logger
}

var _ RecordStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string, logger logging.Logger) (*SQLiteStore, error) {
	if logger == nil {
		return nil, errors.New("store: nil logger provided")
	}
	if path == "" {
		return nil, errors.New("store: empty sqlite path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger.Info("sqlite store initialized", logging.Field{Key: "path", Value: path})
	return &SQLiteStore{db: db, logger: logger}, nil
}

func applySchema(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
		"PRAGMA cache_size=-64000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Save(ctx context.Context, rec *model.TestRecord) error {
	enc, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tests (id, owner, url, test_type, parameters, status, results, score, error_message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			owner = excluded.owner,
			url = excluded.url,
			test_type = excluded.test_type,
			parameters = excluded.parameters,
			status = excluded.status,
			results = excluded.results,
			score = excluded.score,
			error_message = excluded.error_message,
			updated_at = excluded.updated_at
	`, rec.ID, rec.Owner, rec.URL, string(rec.TestType), nullableBytes(enc.params), string(rec.Status),
		nullableBytes(enc.results), nullableInt(rec.Score), rec.ErrorMessage,
		rec.CreatedAt.UnixNano(), rec.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("save test %s: %w", rec.ID, err)
	}
	return nil
}

const sqliteRecordColumns = `id, owner, url, test_type, parameters, status, results, score, error_message, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRecord(row rowScanner) (*model.TestRecord, error) {
	var (
		rec                  model.TestRecord
		testType, status     string
		params, results      sql.NullString
		score                sql.NullInt64
		createdAt, updatedAt int64
	)
	if err := row.Scan(&rec.ID, &rec.Owner, &rec.URL, &testType, &params, &status, &results, &score,
		&rec.ErrorMessage, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	rec.TestType = model.TestType(testType)
	rec.Status = model.Status(status)
	rec.CreatedAt = time.Unix(0, createdAt).UTC()
	rec.UpdatedAt = time.Unix(0, updatedAt).UTC()
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

func (s *SQLiteStore) Find(ctx context.Context, id string) (*model.TestRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteRecordColumns+` FROM tests WHERE id = ?`, id)
	rec, err := scanSQLiteRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find test %s: %w", id, err)
	}
	return rec, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tests WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete test %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete test %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const sqliteScope = `(? = '' OR owner = ?) AND (? = '' OR test_type = ?)`

func scopeArgs(owner string, f model.Filter) []any {
	return []any{owner, owner, string(f.TestType), string(f.TestType)}
}

func (s *SQLiteStore) Count(ctx context.Context, owner string, f model.Filter) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tests WHERE `+sqliteScope, scopeArgs(owner, f)...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tests: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) List(ctx context.Context, owner string, f model.Filter, offset, limit int) ([]*model.TestRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}
	args := append(scopeArgs(owner, f), limit, offset)
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sqliteRecordColumns+` FROM tests
		WHERE `+sqliteScope+`
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}
	defer rows.Close()

	out := []*model.TestRecord{}
	for rows.Next() {
		rec, err := scanSQLiteRecord(rows)
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

func (s *SQLiteStore) AppendRun(ctx context.Context, run *model.RunEntry) error {
	results, err := encodeResults(run.Results)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO test_runs (id, test_id, status, score, results, error_message, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.TestID, string(run.Status), nullableInt(run.Score), nullableBytes(results), run.ErrorMessage,
		run.StartedAt.UnixNano(), run.FinishedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("append run for %s: %w", run.TestID, err)
	}
	return nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, testID string, limit int) ([]*model.RunEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, test_id, status, score, results, error_message, started_at, finished_at
		FROM test_runs WHERE test_id = ?
		ORDER BY finished_at DESC, id DESC
		LIMIT ?`, testID, limit)
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
			started, finished int64
		)
		if err := rows.Scan(&run.ID, &run.TestID, &status, &score, &results, &run.ErrorMessage, &started, &finished); err != nil {
			return nil, fmt.Errorf("list runs for %s: %w", testID, err)
		}
		run.Status = model.Status(status)
		run.StartedAt = time.Unix(0, started).UTC()
		run.FinishedAt = time.Unix(0, finished).UTC()
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

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
