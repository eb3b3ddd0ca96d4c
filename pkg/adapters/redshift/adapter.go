package redshift

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/leapstack-labs/starload/pkg/adapter"
)

// DefaultPort is the port Redshift clusters listen on unless configured otherwise.
const DefaultPort = 5439

// Adapter implements the adapter.Adapter interface for Redshift.
// Redshift speaks the PostgreSQL wire protocol, so the connection is a pgx
// connection exposed through database/sql.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new Redshift adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// DialectName returns the statement dialect for this adapter.
func (a *Adapter) DialectName() string {
	return "redshift"
}

// Connect opens a single connection to the cluster.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	connCfg, err := pgx.ParseConfig(buildDSN(cfg))
	if err != nil {
		return fmt.Errorf("failed to parse redshift connection settings: %w", err)
	}
	// Redshift rejects the extended protocol's describe round trips for
	// COPY, so every statement goes over the simple protocol.
	connCfg.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	a.Logger.Debug("connecting to redshift",
		slog.String("host", cfg.Host),
		slog.Int("port", cfg.Port),
		slog.String("database", cfg.Database))

	if cfg.Type == "" {
		cfg.Type = "redshift"
	}
	return a.Attach(ctx, stdlib.OpenDB(*connCfg), cfg)
}

// buildDSN constructs a libpq style connection string.
// Values are emitted in host, dbname, user, password, port order.
func buildDSN(cfg adapter.Config) string {
	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}

	sslmode := "require"
	if mode, ok := cfg.Options["sslmode"]; ok && mode != "" {
		sslmode = mode
	}

	parts := []string{
		"host=" + dsnValue(cfg.Host),
		"dbname=" + dsnValue(cfg.Database),
		"user=" + dsnValue(cfg.Username),
		"password=" + dsnValue(cfg.Password),
		fmt.Sprintf("port=%d", port),
		"sslmode=" + dsnValue(sslmode),
	}
	if timeout, ok := cfg.Options["connect_timeout"]; ok && timeout != "" {
		parts = append(parts, "connect_timeout="+dsnValue(timeout))
	}
	return strings.Join(parts, " ")
}

// dsnValue quotes a keyword/value connection string value when needed.
func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
