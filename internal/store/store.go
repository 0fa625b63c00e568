// Package store persists test records and their run history.
package store

import (
	"context"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/raysh454/sitecheck/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNotFound is returned when a record id is unknown.
var ErrNotFound = errors.New("store: record not found")

// RecordStore is the orchestrator's persistence collaborator.
//
// List and Count scope to owner; an empty owner matches every record.
// List orders most recent first by (CreatedAt, ID) and returns every match
// when limit <= 0.
type RecordStore interface {
	// Save inserts or replaces rec.
	Save(ctx context.Context, rec *model.TestRecord) error
	Find(ctx context.Context, id string) (*model.TestRecord, error)
	// Delete removes the record and its run history.
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, owner string, f model.Filter) (int, error)
	List(ctx context.Context, owner string, f model.Filter, offset, limit int) ([]*model.TestRecord, error)

	AppendRun(ctx context.Context, run *model.RunEntry) error
	// ListRuns returns a record's runs newest first, at most limit when
	// limit > 0.
	ListRuns(ctx context.Context, testID string, limit int) ([]*model.RunEntry, error)

	Close() error
}

// Backends accepted by Config.Driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Driver string `mapstructure:"driver"`
	// Path is the SQLite database file.
	Path string `mapstructure:"path"`
	// DSN is the Postgres connection string.
	DSN string `mapstructure:"dsn"`
}

func DefaultConfig() Config {
	return Config{Driver: DriverSQLite, Path: "sitecheck.db"}
}

// encoded is a record's JSON columns.
type encoded struct {
	params  []byte
	results []byte
}

func encodeRecord(rec *model.TestRecord) (encoded, error) {
	var e encoded
	var err error
	if len(rec.Parameters) > 0 {
		if e.params, err = json.Marshal(rec.Parameters); err != nil {
			return e, fmt.Errorf("encode parameters: %w", err)
		}
	}
	if e.results, err = encodeResults(rec.Results); err != nil {
		return e, err
	}
	return e, nil
}

func encodeResults(res *model.Results) ([]byte, error) {
	if res == nil {
		return nil, nil
	}
	b, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("encode results: %w", err)
	}
	return b, nil
}

func decodeParams(b []byte) (map[string]any, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var p map[string]any
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("decode parameters: %w", err)
	}
	return p, nil
}

func decodeResults(b []byte) (*model.Results, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var res model.Results
	if err := json.Unmarshal(b, &res); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	return &res, nil
}

func nullableBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}
