package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/starload/pkg/core"
)

// CreateRun creates a new run of command against target.
func (s *SQLiteStore) CreateRun(command, target string) (*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &core.Run{
		ID:        generateID(),
		Command:   command,
		Target:    target,
		Status:    core.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	s.logger.Debug("creating run", slog.String("id", run.ID), slog.String("command", command))

	_, err := s.db.Exec(
		`INSERT INTO runs (id, command, target, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Command, run.Target, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run, err := scanRun(s.db.QueryRow(
		`SELECT id, command, target, status, started_at, completed_at, error FROM runs WHERE id = ?`,
		id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run as finished with the given status.
func (s *SQLiteStore) CompleteRun(id string, status core.RunStatus, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	result, err := s.db.Exec(
		`UPDATE runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		string(status), time.Now().UTC(), nullString(errMsg), id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// ListRuns retrieves the most recent runs, newest first.
// A limit of zero or less returns every run.
func (s *SQLiteStore) ListRuns(limit int) ([]*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.Query(
		`SELECT id, command, target, status, started_at, completed_at, error
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*core.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// --- Statement run operations ---

// RecordStatementRun inserts a statement run, assigning an ID and start
// time when they are unset.
func (s *SQLiteStore) RecordStatementRun(sr *core.StatementRun) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	if sr.ID == "" {
		sr.ID = generateID()
	}
	if sr.StartedAt.IsZero() {
		sr.StartedAt = time.Now().UTC()
	}
	if sr.Status == "" {
		sr.Status = core.StatementStatusPending
	}

	_, err := s.db.Exec(
		`INSERT INTO statement_runs (id, run_id, phase, position, name, status, rows_affected, started_at, error, execution_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sr.ID, sr.RunID, string(sr.Phase), sr.Position, sr.Name, string(sr.Status),
		sr.RowsAffected, sr.StartedAt, nullString(sr.Error), sr.ExecutionMS,
	)
	if err != nil {
		return fmt.Errorf("failed to record statement run: %w", err)
	}
	return nil
}

// UpdateStatementRun moves a statement run to status. A running status
// resets the start time; any other status stamps the completion time.
func (s *SQLiteStore) UpdateStatementRun(id string, status core.StatementStatus, rowsAffected int64, errMsg string, executionMS int64) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	now := time.Now().UTC()
	var (
		result sql.Result
		err    error
	)
	if status == core.StatementStatusRunning {
		result, err = s.db.Exec(
			`UPDATE statement_runs SET status = ?, started_at = ? WHERE id = ?`,
			string(status), now, id,
		)
	} else {
		result, err = s.db.Exec(
			`UPDATE statement_runs
			 SET status = ?, rows_affected = ?, error = ?, execution_ms = ?, completed_at = ?
			 WHERE id = ?`,
			string(status), rowsAffected, nullString(errMsg), executionMS, now, id,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to update statement run: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("statement run not found: %s", id)
	}
	return nil
}

// GetStatementRuns retrieves the statement runs of a run in execution order.
func (s *SQLiteStore) GetStatementRuns(runID string) ([]*core.StatementRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, run_id, phase, position, name, status, rows_affected, started_at, completed_at, error, execution_ms
		 FROM statement_runs WHERE run_id = ? ORDER BY rowid`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get statement runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*core.StatementRun
	for rows.Next() {
		sr := &core.StatementRun{}
		var (
			phase, status string
			completedAt   sql.NullTime
			errMsg        sql.NullString
		)
		if err := rows.Scan(&sr.ID, &sr.RunID, &phase, &sr.Position, &sr.Name, &status,
			&sr.RowsAffected, &sr.StartedAt, &completedAt, &errMsg, &sr.ExecutionMS); err != nil {
			return nil, fmt.Errorf("failed to scan statement run: %w", err)
		}
		sr.Phase = core.Phase(phase)
		sr.Status = core.StatementStatus(status)
		if completedAt.Valid {
			t := completedAt.Time
			sr.CompletedAt = &t
		}
		sr.Error = errMsg.String
		runs = append(runs, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get statement runs: %w", err)
	}
	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*core.Run, error) {
	run := &core.Run{}
	var (
		status      string
		completedAt sql.NullTime
		errMsg      sql.NullString
	)
	if err := row.Scan(&run.ID, &run.Command, &run.Target, &status, &run.StartedAt, &completedAt, &errMsg); err != nil {
		return nil, err
	}
	run.Status = core.RunStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	run.Error = errMsg.String
	return run, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
