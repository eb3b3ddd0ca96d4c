package commands

import (
	"log/slog"

	"github.com/spf13/cobra"
)

// NewResetCommand creates the reset command.
func NewResetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop and recreate the staging and star schema tables",
		Long: `Drop every staging, fact and dimension table if it exists, then create
them again empty.

Statements run one at a time and commit individually. The first failure
stops the reset; tables dropped or created before it stay that way.`,
		Example: `  # Recreate the tables on the configured cluster
  starload reset

  # Recreate a local DuckDB schema
  starload reset --target duckdb`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReset(cmd)
		},
	}
	return cmd
}

func runReset(cmd *cobra.Command) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	run, err := s.runner.ResetSchema(cmd.Context())
	if err != nil {
		return err
	}
	s.logger.Info("schema reset", slog.String("run_id", run.ID))
	return nil
}
