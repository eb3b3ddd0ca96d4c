package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/starload/internal/cli/config"
	"github.com/leapstack-labs/starload/internal/objectstore"
	"github.com/leapstack-labs/starload/internal/pipeline"
	"github.com/leapstack-labs/starload/internal/state"
	"github.com/leapstack-labs/starload/internal/statements"
	"github.com/leapstack-labs/starload/pkg/adapter"
	"github.com/leapstack-labs/starload/pkg/core"
	"github.com/spf13/cobra"
)

var errNoConfig = errors.New("configuration not loaded")

// session is an open warehouse connection with the run ledger and the
// statement plan for its dialect.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	adp    adapter.Adapter
	store  core.Store
	runner *pipeline.Runner
}

// Close releases the ledger and the warehouse connection.
func (s *session) Close() {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn("failed to close run ledger", slog.String("error", err.Error()))
		}
	}
	if s.adp != nil {
		if err := s.adp.Close(); err != nil {
			s.logger.Warn("failed to close warehouse connection", slog.String("error", err.Error()))
		}
	}
}

// commandConfig returns the loaded configuration and logger of cmd.
func commandConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, nil, core.ConfigError(errNoConfig)
	}
	cfg := config.GetConfig(ctx)
	if cfg == nil {
		return nil, nil, core.ConfigError(errNoConfig)
	}
	return cfg, config.GetLogger(ctx), nil
}

// openSession validates the configuration, connects to the warehouse and
// prepares a pipeline runner writing to the command's stdout.
func openSession(cmd *cobra.Command) (*session, error) {
	cfg, logger, err := commandConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ctx := cmd.Context()

	adapterCfg := cfg.AdapterConfig()
	adp, err := adapter.NewAdapter(adapterCfg, logger)
	if err != nil {
		return nil, core.ConfigError(err)
	}

	plan, err := statements.Load(adp.DialectName(), cfg.StatementParams())
	if err != nil {
		return nil, err
	}

	if err := adp.Connect(ctx, adapterCfg); err != nil {
		return nil, core.ConnectionError(err)
	}
	logger.Info("connected to warehouse", slog.String("target", cfg.Target))

	s := &session{cfg: cfg, logger: logger, adp: adp}

	store, err := state.Open(cfg.StatePath, logger)
	if err != nil {
		logger.Warn("run ledger unavailable", slog.String("path", cfg.StatePath), slog.String("error", err.Error()))
		store = state.NewNopStore()
	}
	s.store = store

	preflight, err := newPreflight(cfg, logger)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.runner, err = pipeline.New(pipeline.Options{
		Warehouse: adp,
		Plan:      plan,
		Store:     store,
		Out:       cmd.OutOrStdout(),
		Logger:    logger,
		Preflight: preflight,
		Target:    cfg.Target,
	})
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// newPreflight returns the source check run before a load, or nil when
// s3.preflight is off.
func newPreflight(cfg *config.Config, logger *slog.Logger) (func(ctx context.Context) error, error) {
	if !cfg.S3.Preflight {
		return nil, nil
	}

	checker := &objectstore.Checker{Logger: logger}
	src := cfg.Sources()
	for _, loc := range []string{src.LogData, src.SongData, src.LogJSONPath} {
		if !objectstore.IsS3(loc) {
			continue
		}
		client, err := objectstore.NewClient(cfg.S3.Region)
		if err != nil {
			return nil, core.ConfigError(fmt.Errorf("s3 client: %w", err))
		}
		checker.S3 = client
		break
	}

	return func(ctx context.Context) error {
		return checker.Preflight(ctx, src)
	}, nil
}
