package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/starload/internal/report"
	"github.com/leapstack-labs/starload/internal/state"
	"github.com/leapstack-labs/starload/pkg/core"
	"github.com/spf13/cobra"
)

const (
	timeLayout     = "2006-01-02 15:04:05"
	maxErrorLength = 60
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded reset and load runs",
		Long: `List recent runs from the run ledger, newest first.

With a run id, show every statement of that run with its status, rows
affected and execution time.`,
		Example: `  # Show the last 10 runs
  starload history

  # Show every recorded run
  starload history --limit 0

  # Show the statements of one run
  starload history 6f1c2a9e-3b7d-4e55-9a0c-0d5b8e1f2a33`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, args, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 10, "Maximum number of runs to show (0 for all)")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string, opts *HistoryOptions) error {
	cfg, logger, err := commandConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.StatePath == "" {
		return core.ConfigError(fmt.Errorf("run ledger is disabled: state_path is empty"))
	}

	store, err := state.Open(cfg.StatePath, logger)
	if err != nil {
		return fmt.Errorf("failed to open run ledger: %w", err)
	}
	defer func() { _ = store.Close() }()

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		return showRun(out, store, args[0])
	}
	return listRuns(out, store, opts.Limit)
}

func listRuns(w io.Writer, store core.Store, limit int) error {
	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	t := table.NewWriter()
	t.SetStyle(report.Style())
	t.AppendHeader(table.Row{"RUN ID", "COMMAND", "TARGET", "STATUS", "STARTED", "DURATION", "ERROR"})
	for _, run := range runs {
		t.AppendRow(table.Row{
			run.ID,
			run.Command,
			run.Target,
			string(run.Status),
			run.StartedAt.Local().Format(timeLayout),
			runDuration(run),
			truncate(run.Error, maxErrorLength),
		})
	}
	_, err = fmt.Fprintln(w, t.Render())
	return err
}

func showRun(w io.Writer, store core.Store, id string) error {
	run, err := store.GetRun(id)
	if err != nil {
		return err
	}
	stmts, err := store.GetStatementRuns(run.ID)
	if err != nil {
		return err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Run:      %s\n", run.ID)
	fmt.Fprintf(&sb, "Command:  %s\n", run.Command)
	fmt.Fprintf(&sb, "Target:   %s\n", run.Target)
	fmt.Fprintf(&sb, "Status:   %s\n", run.Status)
	fmt.Fprintf(&sb, "Started:  %s\n", run.StartedAt.Local().Format(timeLayout))
	fmt.Fprintf(&sb, "Duration: %s\n", runDuration(run))
	if run.Error != "" {
		fmt.Fprintf(&sb, "Error:    %s\n", run.Error)
	}

	t := table.NewWriter()
	t.SetStyle(report.Style())
	t.AppendHeader(table.Row{"PHASE", "#", "STATEMENT", "STATUS", "ROWS", "TIME (ms)", "ERROR"})
	for _, sr := range stmts {
		t.AppendRow(table.Row{
			sr.Phase.String(),
			sr.Position,
			sr.Name,
			string(sr.Status),
			rowsAffected(sr),
			sr.ExecutionMS,
			truncate(sr.Error, maxErrorLength),
		})
	}
	sb.WriteString(t.Render())
	sb.WriteString("\n")

	_, err = io.WriteString(w, sb.String())
	return err
}

// runDuration formats the elapsed time of a finished run, or "-".
func runDuration(run *core.Run) string {
	if run.CompletedAt == nil {
		return "-"
	}
	return run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
}

// rowsAffected shows counts only for statements that reported one.
func rowsAffected(sr *core.StatementRun) string {
	if sr.Status != core.StatementStatusSuccess || sr.RowsAffected < 0 {
		return ""
	}
	return strconv.FormatInt(sr.RowsAffected, 10)
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
