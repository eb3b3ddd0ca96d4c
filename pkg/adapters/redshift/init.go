// Package redshift provides an Amazon Redshift warehouse adapter for starload.
//
// This file registers the Redshift adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/starload/pkg/adapters/redshift"
package redshift

import (
	"log/slog"

	"github.com/leapstack-labs/starload/pkg/adapter"
)

func init() {
	adapter.Register("redshift", func(l *slog.Logger) adapter.Adapter { return New(l) })
}
