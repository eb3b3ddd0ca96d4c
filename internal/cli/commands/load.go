package commands

import (
	"log/slog"

	"github.com/spf13/cobra"
)

// NewLoadCommand creates the load command.
func NewLoadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Stage the source JSON and populate the star schema",
		Long: `Run the load pipeline against tables created by "starload reset":

  stage      bulk copy event logs and song metadata into the staging tables
  transform  insert the songplay fact and the users, song, artist and time dimensions
  verify     print the row count of every fact and dimension table

Phases run in order on one connection and the first failing statement ends
the run. Set s3.preflight to check that every source exists before staging.`,
		Example: `  # Load using starload.yaml in the current directory or a parent
  starload load

  # Load with an explicit config file and debug logging
  starload load --config prod.yaml -v`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLoad(cmd)
		},
	}
	return cmd
}

func runLoad(cmd *cobra.Command) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	run, err := s.runner.Load(cmd.Context())
	if err != nil {
		return err
	}
	s.logger.Info("load completed", slog.String("run_id", run.ID))
	return nil
}
