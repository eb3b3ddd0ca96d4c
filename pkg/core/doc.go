// Package core defines the shared language of starload.
//
// This package contains:
//   - Pipeline vocabulary (Phase, Statement records)
//   - The error taxonomy (Kind, Error)
//   - Run ledger entities and the Store interface
//   - The Rows wrapper returned by warehouse adapters
//
// The Golden Rule: pkg/core imports ONLY the standard library.
// All other packages depend on core, not the reverse.
package core
