// Package adapter provides the warehouse adapter contract for starload.
//
// This package contains the public contract that all warehouse adapters must
// implement, a database/sql based implementation that concrete adapters embed,
// and the registry adapters add themselves to from init().
// Concrete adapter implementations are in pkg/adapters/ subdirectories.
package adapter

import (
	"context"

	"github.com/leapstack-labs/starload/pkg/core"
)

// Config holds configuration for connecting to a warehouse.
type Config struct {
	// Type is the registered adapter name (e.g., "redshift", "duckdb")
	Type string

	// Path is the file path for file-based databases (DuckDB)
	Path string

	// Host, Port, Database, Username and Password locate a network warehouse.
	Host     string
	Port     int
	Database string
	Username string
	Password string

	// Options contains additional driver-specific options (e.g., sslmode)
	Options map[string]string
}

// Adapter defines the interface that all warehouse adapters must implement.
// An adapter owns exactly one connection; statements run one at a time and
// each commits on its own.
type Adapter interface {
	// Connect establishes the connection using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the connection and releases resources.
	Close() error

	// Exec executes a statement that doesn't return rows and reports rows affected.
	// Drivers that cannot report a count return -1.
	Exec(ctx context.Context, sql string) (int64, error)

	// Query executes a statement that returns rows.
	Query(ctx context.Context, sql string) (*core.Rows, error)

	// DialectName returns the statement dialect this adapter speaks.
	DialectName() string
}
