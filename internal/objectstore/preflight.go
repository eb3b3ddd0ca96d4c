package objectstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/starload/pkg/core"
)

// Sources are the locations a load reads from, keyed by their config names.
type Sources struct {
	LogData     string
	SongData    string
	LogJSONPath string
}

// Checker verifies that load sources exist.
type Checker struct {
	// S3 is used for s3:// sources. It may be nil when every source is local.
	S3     *Client
	Logger *slog.Logger
}

// Preflight checks every configured source: data prefixes must contain at
// least one object or file and the JSONPath file must exist. Every failure
// is a configuration error naming the config key and location.
func (c *Checker) Preflight(ctx context.Context, src Sources) error {
	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	checks := []struct {
		key    string
		value  string
		object bool
	}{
		{"s3.log_data", src.LogData, false},
		{"s3.song_data", src.SongData, false},
		{"s3.log_jsonpath", src.LogJSONPath, true},
	}

	for _, chk := range checks {
		if chk.value == "" || (chk.object && isAutoMapping(chk.value)) {
			continue
		}
		if err := c.check(ctx, chk.value, chk.object); err != nil {
			return core.ConfigError(fmt.Errorf("%s: %w", chk.key, err))
		}
		logger.Debug("source found", slog.String("key", chk.key), slog.String("location", chk.value))
	}
	return nil
}

func (c *Checker) check(ctx context.Context, location string, object bool) error {
	if !IsS3(location) {
		return checkLocal(location)
	}
	if c.S3 == nil {
		return fmt.Errorf("no S3 client configured for %s", location)
	}

	loc, err := ParseURL(location)
	if err != nil {
		return err
	}
	if object {
		ok, err := c.S3.Exists(ctx, loc)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("object %s: %w", loc, ErrKeyNotFound)
		}
		return nil
	}

	keys, err := c.S3.List(ctx, loc, 1)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return fmt.Errorf("no objects under %s", loc)
	}
	return nil
}

// checkLocal verifies a local file, directory, or glob pattern.
// Patterns using ** are checked up to their first wildcard directory.
func checkLocal(pattern string) error {
	if !strings.ContainsAny(pattern, "*?[") {
		if _, err := os.Stat(pattern); err != nil {
			return fmt.Errorf("%s does not exist", pattern)
		}
		return nil
	}

	if strings.Contains(pattern, "**") {
		dir := pattern[:strings.Index(pattern, "**")]
		if dir == "" {
			dir = "."
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return fmt.Errorf("directory %s does not exist", dir)
		}
		return nil
	}

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern %s: %w", pattern, err)
	}
	if len(matches) == 0 {
		return fmt.Errorf("no files match %s", pattern)
	}
	return nil
}

// isAutoMapping reports whether a JSON mapping value is one of the
// warehouse's built-in modes rather than a JSONPath file.
func isAutoMapping(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "auto", "auto ignorecase", "noshred":
		return true
	}
	return false
}
