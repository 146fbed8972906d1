package main

import (
	"mercator-hq/relay/pkg/config"
	"mercator-hq/relay/pkg/ledger"
	"mercator-hq/relay/pkg/ledger/storage"
)

// openStore opens the configured ledger backend. The SQLite store is also
// returned on its own so the caller can schedule checkpoints; it is nil for
// the memory driver.
func openStore(cfg *config.LedgerConfig) (ledger.Store, *storage.SQLiteStore, error) {
	if cfg.Driver == "memory" {
		return storage.NewMemoryStore(), nil, nil
	}
	store, err := storage.NewSQLiteStore(&storage.SQLiteConfig{
		Driver:       cfg.Driver,
		Path:         cfg.Path,
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
		WALMode:      cfg.WALMode,
		BusyTimeout:  cfg.BusyTimeout,
	})
	if err != nil {
		return nil, nil, err
	}
	return store, store, nil
}
