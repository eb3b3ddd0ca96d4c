// Package config provides configuration management for the starload CLI.
//
// Configuration is layered with koanf: built-in defaults, then starload.yaml,
// then STARLOAD_ environment variables, then explicitly set command-line flags.
// The loaded Config is translated into the adapter, statement and preflight
// inputs that each command needs.
package config

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/leapstack-labs/starload/internal/objectstore"
	"github.com/leapstack-labs/starload/internal/statements"
	"github.com/leapstack-labs/starload/pkg/adapter"
)

// Config holds all CLI configuration options.
type Config struct {
	Target    string        `koanf:"target"`
	Cluster   ClusterConfig `koanf:"cluster"`
	DuckDB    DuckDBConfig  `koanf:"duckdb"`
	S3        S3Config      `koanf:"s3"`
	IAM       IAMConfig     `koanf:"iam"`
	StatePath string        `koanf:"state_path"`
	Verbose   bool          `koanf:"verbose"`
	LogLevel  string        `koanf:"log_level"`
	LogFormat string        `koanf:"log_format"`
}

// ClusterConfig locates the Redshift cluster.
type ClusterConfig struct {
	Host     string `koanf:"host"`
	DB       string `koanf:"db"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Port     int    `koanf:"port"`
	SSLMode  string `koanf:"sslmode"`
	// ConnectTimeout is in seconds; 0 leaves the driver default.
	ConnectTimeout int `koanf:"connect_timeout"`
}

// DuckDBConfig configures the local target.
type DuckDBConfig struct {
	Path string `koanf:"path"`
	// Settings are applied with SET after connecting (e.g. threads: "4").
	Settings map[string]string `koanf:"settings"`
}

// S3Config holds the load sources.
type S3Config struct {
	LogData     string `koanf:"log_data"`
	SongData    string `koanf:"song_data"`
	LogJSONPath string `koanf:"log_jsonpath"`
	Region      string `koanf:"region"`
	Preflight   bool   `koanf:"preflight"`
}

// IAMConfig holds the role the warehouse assumes to read the sources.
type IAMConfig struct {
	RoleARN string `koanf:"role_arn"`
}

// Default configuration values.
const (
	DefaultTarget     = "redshift"
	DefaultPort       = 5439
	DefaultSSLMode    = "require"
	DefaultDuckDBPath = "starload.duckdb"
	DefaultStateFile  = ".starload/state.db"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "auto" // Auto-detect: TTY=text, non-TTY=json
)

// Log formats.
const (
	LogFormatAuto = "auto"
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// AdapterConfig returns the connection settings for the selected target.
func (c *Config) AdapterConfig() adapter.Config {
	if c.Target == "duckdb" {
		return adapter.Config{
			Type:    c.Target,
			Path:    c.DuckDB.Path,
			Options: c.DuckDB.Settings,
		}
	}

	opts := map[string]string{}
	if c.Cluster.SSLMode != "" {
		opts["sslmode"] = c.Cluster.SSLMode
	}
	if c.Cluster.ConnectTimeout > 0 {
		opts["connect_timeout"] = strconv.Itoa(c.Cluster.ConnectTimeout)
	}
	return adapter.Config{
		Type:     c.Target,
		Host:     c.Cluster.Host,
		Port:     c.Cluster.Port,
		Database: c.Cluster.DB,
		Username: c.Cluster.User,
		Password: c.Cluster.Password,
		Options:  opts,
	}
}

// StatementParams returns the values substituted into the load statements.
func (c *Config) StatementParams() statements.Params {
	return statements.Params{
		LogData:     c.S3.LogData,
		SongData:    c.S3.SongData,
		LogJSONPath: c.S3.LogJSONPath,
		RoleARN:     c.IAM.RoleARN,
		Region:      c.S3.Region,
	}
}

// Sources returns the locations checked by the load preflight.
func (c *Config) Sources() objectstore.Sources {
	return objectstore.Sources{
		LogData:     c.S3.LogData,
		SongData:    c.S3.SongData,
		LogJSONPath: c.S3.LogJSONPath,
	}
}

// Level returns the configured log level. Verbose forces debug.
func (c *Config) Level() slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
