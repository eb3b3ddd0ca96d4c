package core

import "time"

// Store defines the interface for run ledger operations.
type Store interface {
	Open(path string) error
	Close() error
	InitSchema() error

	// Run operations
	CreateRun(command, target string) (*Run, error)
	GetRun(id string) (*Run, error)
	CompleteRun(id string, status RunStatus, errMsg string) error
	ListRuns(limit int) ([]*Run, error)

	// Statement run operations
	RecordStatementRun(sr *StatementRun) error
	UpdateStatementRun(id string, status StatementStatus, rowsAffected int64, errMsg string, executionMS int64) error
	GetStatementRuns(runID string) ([]*StatementRun, error)
}

// RunStatus represents the status of a pipeline run.
type RunStatus string

// Run status constants.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run represents one invocation of reset or load.
type Run struct {
	ID          string
	Command     string
	Target      string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// StatementStatus represents the status of an individual statement execution.
type StatementStatus string

// Statement status constants.
const (
	StatementStatusPending StatementStatus = "pending"
	StatementStatusRunning StatementStatus = "running"
	StatementStatusSuccess StatementStatus = "success"
	StatementStatusFailed  StatementStatus = "failed"
	StatementStatusSkipped StatementStatus = "skipped"
)

// StatementRun represents a single statement execution within a run.
type StatementRun struct {
	ID           string
	RunID        string
	Phase        Phase
	Position     int
	Name         string
	Status       StatementStatus
	RowsAffected int64
	StartedAt    time.Time
	CompletedAt  *time.Time
	Error        string
	ExecutionMS  int64
}
