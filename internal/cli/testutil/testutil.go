// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

// Sample source records: one NextSong event that matches the single song.
const (
	sampleEvent = `{"artist":"Y","auth":"Logged In","firstName":"Ann","gender":"F","itemInSession":0,"lastName":"Lee","length":200.5,"level":"free","location":"Here","method":"PUT","page":"NextSong","registration":1540919166796.0,"sessionId":11,"song":"X","status":200,"ts":1541121934796,"userAgent":"UA","userId":"7"}`
	sampleHome  = `{"artist":null,"auth":"Logged In","firstName":"Ann","gender":"F","itemInSession":1,"lastName":"Lee","length":null,"level":"paid","location":"Here","method":"GET","page":"Home","registration":1540919166796.0,"sessionId":11,"song":null,"status":200,"ts":1541121935796,"userAgent":"UA","userId":"7"}`
	sampleSong  = `{"num_songs":1,"artist_id":"def","artist_latitude":null,"artist_longitude":null,"artist_location":"","artist_name":"Y","song_id":"abc","title":"X","duration":200.5,"year":2000}`
)

// SetupTestProject creates a temporary project that loads sample JSON into a
// DuckDB file. It writes starload.yaml and returns the project directory.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()

	logDir := filepath.Join(tmpDir, "data", "log_data")
	songDir := filepath.Join(tmpDir, "data", "song_data", "A", "B")
	for _, dir := range []string{logDir, songDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create directory %s: %v", dir, err)
		}
	}

	events := sampleEvent + "\n" + sampleHome + "\n"
	if err := os.WriteFile(filepath.Join(logDir, "2018-11-02-events.json"), []byte(events), 0o600); err != nil {
		t.Fatalf("failed to create events file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(songDir, "TRABCXX.json"), []byte(sampleSong), 0o600); err != nil {
		t.Fatalf("failed to create song file: %v", err)
	}

	cfg := fmt.Sprintf(`target: duckdb

duckdb:
  path: warehouse.duckdb

s3:
  log_data: %s
  song_data: %s

state_path: .starload/state.db
`, filepath.Join(logDir, "*.json"), filepath.Join(tmpDir, "data", "song_data")+"/**/*.json")
	if err := os.WriteFile(filepath.Join(tmpDir, "starload.yaml"), []byte(cfg), 0o600); err != nil {
		t.Fatalf("failed to create starload.yaml: %v", err)
	}

	return tmpDir
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertContains checks that the string contains the expected substring.
func AssertContains(t *testing.T, s, expected string) {
	t.Helper()
	if !strings.Contains(s, expected) {
		t.Errorf("string %q does not contain expected %q", s, expected)
	}
}

// AssertNotContains checks that the string does not contain the substring.
func AssertNotContains(t *testing.T, s, unexpected string) {
	t.Helper()
	if strings.Contains(s, unexpected) {
		t.Errorf("string %q unexpectedly contains %q", s, unexpected)
	}
}
