package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/starload/pkg/adapter"
	"github.com/leapstack-labs/starload/pkg/core"
)

// Validate checks that every key the selected target needs is present.
// The target name is normalized to lower case first.
// All failures are configuration errors.
func (c *Config) Validate() error {
	c.Target = strings.ToLower(strings.TrimSpace(c.Target))
	if c.Target == "" {
		return core.ConfigError(fmt.Errorf("target is required"))
	}
	if !adapter.IsRegistered(c.Target) {
		return core.ConfigError(&adapter.UnknownAdapterError{
			Type:      c.Target,
			Available: adapter.ListAdapters(),
		})
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return core.ConfigError(fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel))
	}
	switch c.LogFormat {
	case "", LogFormatAuto, LogFormatText, LogFormatJSON:
	default:
		return core.ConfigError(fmt.Errorf("log_format %q is not one of auto, text, json", c.LogFormat))
	}

	var missing []string
	require := func(key, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}

	switch c.Target {
	case "duckdb":
		require("duckdb.path", c.DuckDB.Path)
		require("s3.log_data", c.S3.LogData)
		require("s3.song_data", c.S3.SongData)
	default:
		require("cluster.host", c.Cluster.Host)
		require("cluster.db", c.Cluster.DB)
		require("cluster.user", c.Cluster.User)
		require("cluster.password", c.Cluster.Password)
		require("s3.log_data", c.S3.LogData)
		require("s3.song_data", c.S3.SongData)
		require("s3.log_jsonpath", c.S3.LogJSONPath)
		require("iam.role_arn", c.IAM.RoleARN)
	}

	if len(missing) > 0 {
		return core.ConfigError(fmt.Errorf("missing required config: %s\nHint: set them in starload.yaml or as STARLOAD_ environment variables", strings.Join(missing, ", ")))
	}

	if c.Target != "duckdb" && c.Cluster.Port <= 0 {
		return core.ConfigError(fmt.Errorf("cluster.port must be positive, got %d", c.Cluster.Port))
	}
	return nil
}
