package store

import (
	"context"
	"fmt"

	"github.com/raysh454/sitecheck/internal/logging"
)

// Open builds the RecordStore selected by cfg.Driver.
func Open(ctx context.Context, cfg Config, logger logging.Logger) (RecordStore, error) {
	logger = logger.With(logging.Component("store"))
	switch cfg.Driver {
	case "", DriverSQLite:
		return NewSQLiteStore(cfg.Path, logger)
	case DriverPostgres:
		return OpenPostgres(ctx, cfg.DSN, logger)
	case DriverMemory:
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
}
