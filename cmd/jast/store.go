package main

import (
	"context"
	"fmt"

	"github.com/FranksOps/jast/internal/config"
	"github.com/FranksOps/jast/internal/storage"
	"github.com/FranksOps/jast/internal/storage/csvbackend"
	"github.com/FranksOps/jast/internal/storage/jsonbackend"
	"github.com/FranksOps/jast/internal/storage/postgres"
	"github.com/FranksOps/jast/internal/storage/sqlite"
)

// openStore returns the key-value store that persists settings and history.
func openStore(ctx context.Context, cfg config.StoreConfig) (storage.Store, error) {
	var (
		s   storage.Store
		err error
	)
	switch cfg.Backend {
	case config.BackendJSON:
		s, err = jsonbackend.New(cfg.DSN)
	case config.BackendCSV:
		s, err = csvbackend.New(cfg.DSN)
	case config.BackendSQLite:
		s, err = sqlite.New(cfg.DSN)
	case config.BackendPostgres:
		s, err = postgres.New(ctx, cfg.DSN)
	case config.BackendMemory:
		s = storage.NewMemory()
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}
	return s, nil
}
