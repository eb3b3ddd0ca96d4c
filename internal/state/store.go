// Package state records the run ledger for starload using SQLite.
// Every reset and load is a run; every statement it executes is a
// statement run with its own status, row count and timing.
package state

import (
	"log/slog"

	"github.com/leapstack-labs/starload/pkg/core"
)

// Open returns a migrated store for path.
// An empty path disables the ledger and returns a no-op store.
func Open(path string, logger *slog.Logger) (core.Store, error) {
	if path == "" {
		return NewNopStore(), nil
	}

	store := NewSQLiteStore(logger)
	if err := store.Open(path); err != nil {
		return nil, err
	}
	if err := store.InitSchema(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}
