package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/starload/internal/report"
	"github.com/leapstack-labs/starload/internal/statements"
	"github.com/leapstack-labs/starload/pkg/adapter"
	"github.com/leapstack-labs/starload/pkg/core"
	"github.com/spf13/cobra"
)

// StatementsOptions holds options for the statements command.
type StatementsOptions struct {
	Phase string
	SQL   bool
}

// NewStatementsCommand creates the statements command.
func NewStatementsCommand() *cobra.Command {
	opts := &StatementsOptions{}

	cmd := &cobra.Command{
		Use:   "statements",
		Short: "List the statements reset and load execute",
		Long: `List every statement in execution order for the configured target,
rendered with the configured sources and role. No connection is made.`,
		Example: `  # List all statements
  starload statements

  # Print the rendered SQL of the stage phase
  starload statements --phase stage --sql`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatements(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Phase, "phase", "p", "", "Only show one phase (drop|create|stage|transform|verify)")
	cmd.Flags().BoolVar(&opts.SQL, "sql", false, "Print the rendered SQL instead of a summary table")

	_ = cmd.RegisterFlagCompletionFunc("phase", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		names := make([]string, len(core.AllPhases))
		for i, p := range core.AllPhases {
			names[i] = p.String()
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runStatements(cmd *cobra.Command, opts *StatementsOptions) error {
	cfg, logger, err := commandConfig(cmd)
	if err != nil {
		return err
	}

	adp, err := adapter.NewAdapter(cfg.AdapterConfig(), logger)
	if err != nil {
		return core.ConfigError(err)
	}
	plan, err := statements.Load(adp.DialectName(), cfg.StatementParams())
	if err != nil {
		return err
	}

	stmts := plan.All()
	if opts.Phase != "" {
		phase, ok := core.ParsePhase(opts.Phase)
		if !ok {
			return fmt.Errorf("unknown phase %q", opts.Phase)
		}
		stmts = plan.Phase(phase)
	}

	if opts.SQL {
		return printSQL(cmd.OutOrStdout(), stmts)
	}
	return printStatements(cmd.OutOrStdout(), stmts)
}

func printStatements(w io.Writer, stmts []statements.Statement) error {
	t := table.NewWriter()
	t.SetStyle(report.Style())
	t.AppendHeader(table.Row{"PHASE", "#", "STATEMENT", "SUMMARY"})
	for _, s := range stmts {
		t.AppendRow(table.Row{s.Phase.String(), s.Position, s.Name, summary(s.SQL)})
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func printSQL(w io.Writer, stmts []statements.Statement) error {
	var sb strings.Builder
	for _, s := range stmts {
		fmt.Fprintf(&sb, "-- %s %d: %s\n%s\n\n", s.Phase, s.Position, s.Name, s.SQL)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// summary returns the first line of sql that is not a comment.
func summary(sql string) string {
	for _, line := range strings.Split(sql, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		return truncate(line, maxErrorLength)
	}
	return ""
}
