// Package pipeline runs the schema reset and the load against a warehouse.
//
// Both commands are a fixed, ordered list of statements executed one at a
// time on a single connection. Each statement commits on its own, so a
// failure leaves earlier statements applied; the remaining statements are
// skipped and the error is returned with its phase and position.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/leapstack-labs/starload/internal/report"
	"github.com/leapstack-labs/starload/internal/state"
	"github.com/leapstack-labs/starload/internal/statements"
	"github.com/leapstack-labs/starload/pkg/core"
)

// Messages printed once a load phase completes.
const (
	StagedMessage      = "staging tables are loaded"
	TransformedMessage = "dimension and fact tables are inserted"
)

// Warehouse executes statements on one connection.
type Warehouse interface {
	Exec(ctx context.Context, sql string) (int64, error)
	Query(ctx context.Context, sql string) (*core.Rows, error)
}

// Options configure a Runner.
type Options struct {
	Warehouse Warehouse
	Plan      *statements.Plan
	// Store records runs. Nil disables the ledger.
	Store core.Store
	// Out receives phase messages and verification tables. Nil discards them.
	Out    io.Writer
	Logger *slog.Logger
	// Preflight, when set, runs before the first load statement.
	Preflight func(ctx context.Context) error
	// Target names the warehouse in the ledger.
	Target string
}

// Runner executes reset and load plans.
type Runner struct {
	wh        Warehouse
	plan      *statements.Plan
	store     core.Store
	out       io.Writer
	logger    *slog.Logger
	preflight func(ctx context.Context) error
	target    string
}

// New creates a Runner.
func New(opts Options) (*Runner, error) {
	if opts.Warehouse == nil {
		return nil, errors.New("pipeline: warehouse is required")
	}
	if opts.Plan == nil {
		return nil, errors.New("pipeline: statement plan is required")
	}

	r := &Runner{
		wh:        opts.Warehouse,
		plan:      opts.Plan,
		store:     opts.Store,
		out:       opts.Out,
		logger:    opts.Logger,
		preflight: opts.Preflight,
		target:    opts.Target,
	}
	if r.store == nil {
		r.store = state.NewNopStore()
	}
	if r.out == nil {
		r.out = io.Discard
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	if r.target == "" {
		r.target = opts.Plan.Dialect
	}
	return r, nil
}

// step is a statement paired with its ledger record.
type step struct {
	stmt statements.Statement
	rec  *core.StatementRun
}

// ResetSchema drops and recreates every table.
func (r *Runner) ResetSchema(ctx context.Context) (*core.Run, error) {
	run, steps := r.begin("reset", r.plan.Reset())

	for i, s := range steps {
		if err := r.exec(ctx, s); err != nil {
			return r.abort(run, steps, i+1, err)
		}
	}
	return r.complete(run)
}

// Load stages the source JSON, populates the star schema and prints the
// verification counts.
func (r *Runner) Load(ctx context.Context) (*core.Run, error) {
	run, steps := r.begin("load", r.plan.Load())

	if r.preflight != nil {
		r.logger.Info("checking sources")
		if err := r.preflight(ctx); err != nil {
			return r.abort(run, steps, 0, err)
		}
	}

	i := 0
	for _, phase := range core.LoadPhases {
		r.logger.Info("phase started", slog.String("phase", phase.String()))
		for ; i < len(steps) && steps[i].stmt.Phase == phase; i++ {
			var err error
			if phase == core.PhaseVerify {
				err = r.verify(ctx, steps[i])
			} else {
				err = r.exec(ctx, steps[i])
			}
			if err != nil {
				return r.abort(run, steps, i+1, err)
			}
		}

		switch phase {
		case core.PhaseStage:
			_, _ = fmt.Fprintln(r.out, StagedMessage)
		case core.PhaseTransform:
			_, _ = fmt.Fprintln(r.out, TransformedMessage)
		}
	}
	return r.complete(run)
}

// begin opens a ledger run and records every statement as pending.
func (r *Runner) begin(command string, stmts []statements.Statement) (*core.Run, []*step) {
	r.logger.Info("starting run", slog.String("command", command), slog.String("target", r.target))

	run, err := r.store.CreateRun(command, r.target)
	if err != nil {
		r.logger.Warn("run ledger unavailable", slog.String("error", err.Error()))
		r.store = state.NewNopStore()
		run, _ = r.store.CreateRun(command, r.target)
	}

	steps := make([]*step, len(stmts))
	for i, stmt := range stmts {
		rec := &core.StatementRun{
			RunID:    run.ID,
			Phase:    stmt.Phase,
			Position: stmt.Position,
			Name:     stmt.Name,
			Status:   core.StatementStatusPending,
		}
		if err := r.store.RecordStatementRun(rec); err != nil {
			r.logger.Warn("failed to record statement", slog.String("statement", stmt.Name), slog.String("error", err.Error()))
		}
		steps[i] = &step{stmt: stmt, rec: rec}
	}
	return run, steps
}

// exec runs a statement that returns no rows.
func (r *Runner) exec(ctx context.Context, s *step) error {
	r.update(s, core.StatementStatusRunning, 0, "", 0)

	start := time.Now()
	rows, err := r.wh.Exec(ctx, s.stmt.SQL)
	executionMS := time.Since(start).Milliseconds()

	if err != nil {
		r.update(s, core.StatementStatusFailed, 0, err.Error(), executionMS)
		return core.StatementError(s.stmt.Phase, s.stmt.Position, s.stmt.Name, err)
	}

	r.logger.Debug("statement executed",
		slog.String("phase", s.stmt.Phase.String()),
		slog.Int("position", s.stmt.Position),
		slog.String("statement", s.stmt.Name),
		slog.Int64("rows", rows),
		slog.Int64("exec_ms", executionMS))
	r.update(s, core.StatementStatusSuccess, rows, "", executionMS)
	return nil
}

// verify runs a count query and renders its result. Only a failing query
// is fatal; a result that cannot be rendered is logged and skipped.
func (r *Runner) verify(ctx context.Context, s *step) error {
	r.update(s, core.StatementStatusRunning, 0, "", 0)

	start := time.Now()
	rows, err := r.wh.Query(ctx, s.stmt.SQL)
	if err != nil {
		r.update(s, core.StatementStatusFailed, 0, err.Error(), time.Since(start).Milliseconds())
		return core.StatementError(s.stmt.Phase, s.stmt.Position, s.stmt.Name, err)
	}
	defer func() { _ = rows.Close() }()

	res, err := report.Collect(rows.Rows)
	if err == nil {
		err = report.Render(r.out, res)
	}
	executionMS := time.Since(start).Milliseconds()

	if err != nil {
		rerr := core.ReportingError(s.stmt.Phase, s.stmt.Position, s.stmt.Name, err)
		r.logger.Warn("verification output skipped", slog.String("error", rerr.Error()))
		r.update(s, core.StatementStatusSuccess, 0, rerr.Error(), executionMS)
		return nil
	}

	r.logger.Debug("verification rendered",
		slog.String("statement", s.stmt.Name),
		slog.Int("rows", len(res.Rows)),
		slog.Int64("exec_ms", executionMS))
	r.update(s, core.StatementStatusSuccess, int64(len(res.Rows)), "", executionMS)
	return nil
}

// abort marks steps[from:] skipped, fails the run and returns err.
func (r *Runner) abort(run *core.Run, steps []*step, from int, err error) (*core.Run, error) {
	reason := "skipped: run aborted"
	var ce *core.Error
	if errors.As(err, &ce) && ce.Kind == core.KindStatement {
		reason = fmt.Sprintf("skipped: %s statement %d (%s) failed", ce.Phase, ce.Index, ce.Statement)
	}
	for _, s := range steps[from:] {
		r.update(s, core.StatementStatusSkipped, 0, reason, 0)
	}

	r.logger.Error("run failed", slog.String("run_id", run.ID), slog.String("error", err.Error()))
	if cerr := r.store.CompleteRun(run.ID, core.RunStatusFailed, err.Error()); cerr != nil {
		r.logger.Warn("failed to complete run", slog.String("error", cerr.Error()))
	}
	return r.reload(run, core.RunStatusFailed, err.Error()), err
}

func (r *Runner) complete(run *core.Run) (*core.Run, error) {
	r.logger.Info("run completed", slog.String("run_id", run.ID))
	if err := r.store.CompleteRun(run.ID, core.RunStatusCompleted, ""); err != nil {
		r.logger.Warn("failed to complete run", slog.String("error", err.Error()))
	}
	return r.reload(run, core.RunStatusCompleted, ""), nil
}

// reload returns the stored copy of a finished run, or run updated in
// place when the ledger cannot provide it.
func (r *Runner) reload(run *core.Run, status core.RunStatus, errMsg string) *core.Run {
	if stored, err := r.store.GetRun(run.ID); err == nil {
		return stored
	}
	now := time.Now().UTC()
	run.Status = status
	run.Error = errMsg
	run.CompletedAt = &now
	return run
}

func (r *Runner) update(s *step, status core.StatementStatus, rows int64, errMsg string, executionMS int64) {
	s.rec.Status = status
	if err := r.store.UpdateStatementRun(s.rec.ID, status, rows, errMsg, executionMS); err != nil {
		r.logger.Warn("failed to update statement",
			slog.String("statement", s.stmt.Name),
			slog.String("error", err.Error()))
	}
}
