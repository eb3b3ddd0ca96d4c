package adapter

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// Factory builds an unconnected adapter for one target.
type Factory func(*slog.Logger) Adapter

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
)

// targetName normalizes a target as written in config or on the command line.
func targetName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register makes a target available under name. Adapter packages call it
// from init; registering the same name again replaces the factory.
func Register(name string, factory Factory) {
	if factory == nil {
		panic("adapter: Register factory is nil for " + name)
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[targetName(name)] = factory
}

// Get returns the factory registered for target.
func Get(target string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := factories[targetName(target)]
	return f, ok
}

// NewAdapter builds the adapter for cfg.Type. A nil logger discards output.
func NewAdapter(cfg Config, logger *slog.Logger) (Adapter, error) {
	if targetName(cfg.Type) == "" {
		return nil, fmt.Errorf("no target selected")
	}

	factory, ok := Get(cfg.Type)
	if !ok {
		return nil, &UnknownAdapterError{Type: cfg.Type, Available: ListAdapters()}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return factory(logger), nil
}

// ListAdapters returns the registered targets in sorted order.
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered reports whether target has a registered adapter.
func IsRegistered(target string) bool {
	_, ok := Get(target)
	return ok
}

// UnknownAdapterError is returned for a target no adapter is registered for.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown target %q (available: %s)\nHint: set target in starload.yaml or pass --target",
		e.Type, strings.Join(e.Available, ", "))
}
