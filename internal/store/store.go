// Package store opens the configured ledger backend.
package store

import (
	"context"
	"fmt"

	"paypromise/internal/config"
	"paypromise/internal/ledger"
	"paypromise/internal/store/postgres"
	"paypromise/internal/store/sqlite"
	"paypromise/internal/store/xlsx"
)

// Open returns the backend selected by cfg.StoreDriver and a func that
// releases it.
func Open(ctx context.Context, cfg *config.Config) (ledger.Store, func() error, error) {
	switch cfg.StoreDriver {
	case config.DriverXLSX:
		return xlsx.New(cfg.StorePath), func() error { return nil }, nil
	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.StorePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.DriverPostgres:
		s, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
