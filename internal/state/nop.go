package state

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/starload/pkg/core"
)

// NopStore is the store used when the run ledger is disabled.
// Writes succeed without persisting anything and reads find nothing.
type NopStore struct{}

var _ core.Store = NopStore{}

// NewNopStore returns a store that records nothing.
func NewNopStore() NopStore { return NopStore{} }

func (NopStore) Open(string) error { return nil }
func (NopStore) Close() error      { return nil }
func (NopStore) InitSchema() error { return nil }

func (NopStore) CreateRun(command, target string) (*core.Run, error) {
	return &core.Run{
		ID:        generateID(),
		Command:   command,
		Target:    target,
		Status:    core.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}, nil
}

func (NopStore) GetRun(id string) (*core.Run, error) {
	return nil, fmt.Errorf("run not found: %s (run ledger disabled)", id)
}

func (NopStore) CompleteRun(string, core.RunStatus, string) error { return nil }
func (NopStore) ListRuns(int) ([]*core.Run, error)                { return nil, nil }

func (NopStore) RecordStatementRun(sr *core.StatementRun) error {
	if sr.ID == "" {
		sr.ID = generateID()
	}
	return nil
}

func (NopStore) UpdateStatementRun(string, core.StatementStatus, int64, string, int64) error {
	return nil
}

func (NopStore) GetStatementRuns(string) ([]*core.StatementRun, error) { return nil, nil }
