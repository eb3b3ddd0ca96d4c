package pipeline

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/leapstack-labs/starload/internal/statements"
	"github.com/leapstack-labs/starload/internal/testutil"
	"github.com/leapstack-labs/starload/pkg/adapter"
	"github.com/leapstack-labs/starload/pkg/adapters/duckdb"
	"github.com/leapstack-labs/starload/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var starTables = []string{"staging_events", "staging_songs", "songplay", "users", "song", "artist", "time"}

// fixture writes newline-delimited event logs and one file per song under
// a temp directory laid out like the public song dataset.
type fixture struct {
	dir    string
	events []string
	songs  []string
}

func (f *fixture) write(t *testing.T) statements.Params {
	t.Helper()
	logDir := filepath.Join(f.dir, "log_data")
	require.NoError(t, os.MkdirAll(logDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(logDir, "2018-11-01-events.json"),
		[]byte(strings.Join(f.events, "\n")+"\n"), 0o600))

	for i, song := range f.songs {
		songDir := filepath.Join(f.dir, "song_data", "A", string(rune('A'+i)))
		require.NoError(t, os.MkdirAll(songDir, 0o750))
		require.NoError(t, os.WriteFile(filepath.Join(songDir, "song.json"), []byte(song), 0o600))
	}

	return statements.Params{
		LogData:  filepath.Join(logDir, "*.json"),
		SongData: filepath.Join(f.dir, "song_data") + "/**/*.json",
	}
}

func openDuckDB(t *testing.T) *duckdb.Adapter {
	t.Helper()
	adp := duckdb.New(testutil.NewTestLogger(t))
	require.NoError(t, adp.Connect(context.Background(), adapter.Config{Path: ":memory:"}))
	t.Cleanup(func() { _ = adp.Close() })
	return adp
}

func newDuckDBRunner(t *testing.T, adp *duckdb.Adapter, params statements.Params, out io.Writer) *Runner {
	t.Helper()
	plan, err := statements.Load("duckdb", params)
	require.NoError(t, err)

	r, err := New(Options{Warehouse: adp, Plan: plan, Out: out, Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)
	return r
}

func count(t *testing.T, adp *duckdb.Adapter, query string) int64 {
	t.Helper()
	rows, err := adp.Query(context.Background(), query)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	require.True(t, rows.Next())
	var n int64
	require.NoError(t, rows.Scan(&n))
	require.NoError(t, rows.Err())
	return n
}

func TestDuckDB_ResetSchemaTwice(t *testing.T) {
	adp := openDuckDB(t)
	r := newDuckDBRunner(t, adp, statements.Params{}, nil)
	ctx := context.Background()

	_, err := r.ResetSchema(ctx)
	require.NoError(t, err)
	_, err = r.ResetSchema(ctx)
	require.NoError(t, err)

	for _, table := range starTables {
		assert.Equal(t, int64(0), count(t, adp, "SELECT COUNT(*) FROM "+table), table)
	}
}

func TestDuckDB_VerifyEmptyTables(t *testing.T) {
	adp := openDuckDB(t)
	var out bytes.Buffer
	r := newDuckDBRunner(t, adp, statements.Params{}, &out)
	ctx := context.Background()

	_, err := r.ResetSchema(ctx)
	require.NoError(t, err)

	_, steps := r.begin("verify", r.plan.Phase(core.PhaseVerify))
	for _, s := range steps {
		require.NoError(t, r.verify(ctx, s))
	}

	text := out.String()
	for _, header := range []string{"songplay_num", "song_num", "artist_num", "user_num", "time_record"} {
		assert.Contains(t, text, "| "+header+" |")
	}
	assert.Equal(t, 5, strings.Count(text, "******************"))
}

func TestDuckDB_EndToEnd(t *testing.T) {
	f := &fixture{
		dir: t.TempDir(),
		events: []string{
			`{"artist":"Y","auth":"Logged In","firstName":"Ann","gender":"F","itemInSession":0,"lastName":"Lee","length":200.5,"level":"paid","location":"Here","method":"PUT","page":"NextSong","registration":1540919166796.0,"sessionId":11,"song":"X","status":200,"ts":1000,"userAgent":"UA","userId":"7"}`,
		},
		songs: []string{
			`{"num_songs":1,"artist_id":"def","artist_latitude":null,"artist_longitude":null,"artist_location":"","artist_name":"Y","song_id":"abc","title":"X","duration":200.5,"year":2000}`,
		},
	}
	params := f.write(t)

	adp := openDuckDB(t)
	var out bytes.Buffer
	r := newDuckDBRunner(t, adp, params, &out)
	ctx := context.Background()

	_, err := r.ResetSchema(ctx)
	require.NoError(t, err)
	run, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusCompleted, run.Status)

	rows, err := adp.Query(ctx, `SELECT songplay_id, song_id, artist_id, user_id, level, session_id FROM songplay`)
	require.NoError(t, err)
	require.True(t, rows.Next())
	var (
		songplayID, userID, sessionID int64
		songID, artistID, level       string
	)
	require.NoError(t, rows.Scan(&songplayID, &songID, &artistID, &userID, &level, &sessionID))
	assert.Equal(t, int64(0), songplayID)
	assert.Equal(t, "abc", songID)
	assert.Equal(t, "def", artistID)
	assert.Equal(t, int64(7), userID)
	assert.Equal(t, "paid", level)
	assert.Equal(t, int64(11), sessionID)
	assert.False(t, rows.Next())
	_ = rows.Close()

	assert.Equal(t, int64(1), count(t, adp, "SELECT COUNT(*) FROM users WHERE user_id = 7 AND level = 'paid'"))
	assert.Equal(t, int64(1), count(t, adp, "SELECT COUNT(*) FROM song WHERE song_id = 'abc'"))
	assert.Equal(t, int64(1), count(t, adp, "SELECT COUNT(*) FROM artist WHERE artist_id = 'def'"))
	assert.Equal(t, int64(1), count(t, adp, "SELECT COUNT(*) FROM time"))

	rows, err = adp.Query(ctx, `SELECT start_time, hour, day, week, month, year, weekday FROM time`)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()
	require.True(t, rows.Next())
	var (
		start                                 time.Time
		hour, day, week, month, year, weekday int64
	)
	require.NoError(t, rows.Scan(&start, &hour, &day, &week, &month, &year, &weekday))
	assert.True(t, start.Equal(time.Unix(1, 0)), "start_time is epoch + 1 second, got %s", start)
	assert.Equal(t, []int64{0, 1, 1, 1, 1970, 4}, []int64{hour, day, week, month, year, weekday})

	text := out.String()
	assert.Contains(t, text, StagedMessage)
	assert.Contains(t, text, TransformedMessage)
	assert.Contains(t, text, "| songplay_num |")
	assert.Contains(t, text, "| 1            |")
}

func TestDuckDB_TransformProperties(t *testing.T) {
	event := func(page, song, artist, length, userID, level, ts string) string {
		return `{"artist":"` + artist + `","auth":"Logged In","firstName":"F","gender":"M","itemInSession":1,` +
			`"lastName":"L","length":` + length + `,"level":"` + level + `","location":"Loc","method":"PUT",` +
			`"page":"` + page + `","registration":1540919166796.0,"sessionId":5,"song":"` + song + `",` +
			`"status":200,"ts":` + ts + `,"userAgent":"UA","userId":"` + userID + `"}`
	}
	song := func(songID, title, artistID, artistName, location string, duration string, year string) string {
		return `{"num_songs":1,"artist_id":"` + artistID + `","artist_latitude":null,"artist_longitude":null,` +
			`"artist_location":"` + location + `","artist_name":"` + artistName + `","song_id":"` + songID + `",` +
			`"title":"` + title + `","duration":` + duration + `,"year":` + year + `}`
	}

	f := &fixture{
		dir: t.TempDir(),
		events: []string{
			// user 7 is free then paid; two plays share a timestamp
			event("NextSong", "Song A", "Artist A", "100.0", "7", "free", "1541105830796"),
			event("NextSong", "Song B", "Artist B", "150.25", "7", "paid", "1541105830796"),
			// no matching song
			event("NextSong", "Unknown", "Nobody", "99.9", "8", "free", "1541106106796"),
			// not a play
			event("Home", "Song A", "Artist A", "100.0", "9", "free", "1541106132796"),
			// logged out events carry no user id
			event("Home", "", "", "0", "", "free", "1541106134796"),
		},
		songs: []string{
			song("SA", "Song A", "AR1", "Artist A", "Old Town", "100.0", "2000"),
			song("SA", "Song A", "AR1", "Artist A", "Old Town", "100.0", "2000"),
			song("SB", "Song B", "AR2", "Artist B", "B City", "150.25", "1999"),
			// AR1 renamed in a later release
			song("SC", "Song C", "AR1", "Artist A2", "New Town", "200.0", "2005"),
			// AR3 tie on year, smallest name wins
			song("SD", "Song D", "AR3", "Beta", "Beta Town", "10.0", "2010"),
			song("SE", "Song E", "AR3", "Alpha", "Alpha Town", "11.0", "2010"),
		},
	}
	params := f.write(t)

	adp := openDuckDB(t)
	r := newDuckDBRunner(t, adp, params, nil)
	ctx := context.Background()

	_, err := r.ResetSchema(ctx)
	require.NoError(t, err)
	_, err = r.Load(ctx)
	require.NoError(t, err)

	t.Run("one user row per id with max level", func(t *testing.T) {
		assert.Equal(t, int64(3), count(t, adp, "SELECT COUNT(*) FROM users"))
		assert.Equal(t, int64(3), count(t, adp, "SELECT COUNT(DISTINCT user_id) FROM users"))
		assert.Equal(t, int64(1), count(t, adp, "SELECT COUNT(*) FROM users WHERE user_id = 7 AND level = 'paid'"))
	})

	t.Run("one song row per id", func(t *testing.T) {
		assert.Equal(t, int64(5), count(t, adp, "SELECT COUNT(*) FROM song"))
		assert.Equal(t, int64(1), count(t, adp, "SELECT COUNT(*) FROM song WHERE song_id = 'SA'"))
	})

	t.Run("latest year wins for artists", func(t *testing.T) {
		assert.Equal(t, int64(3), count(t, adp, "SELECT COUNT(*) FROM artist"))
		assert.Equal(t, int64(1), count(t, adp, "SELECT COUNT(*) FROM artist WHERE artist_id = 'AR1' AND name = 'Artist A2' AND location = 'New Town'"))
		assert.Equal(t, int64(1), count(t, adp, "SELECT COUNT(*) FROM artist WHERE artist_id = 'AR3' AND name = 'Alpha'"))
	})

	t.Run("only matched plays become songplays", func(t *testing.T) {
		assert.Equal(t, int64(2), count(t, adp, "SELECT COUNT(*) FROM songplay"))
		assert.Equal(t, int64(0), count(t, adp, "SELECT COUNT(*) FROM songplay WHERE user_id IN (8, 9)"))
		assert.Equal(t, int64(1), count(t, adp, "SELECT COUNT(*) FROM songplay WHERE song_id = 'SB' AND artist_id = 'AR2'"))
	})

	t.Run("one time row per distinct start time", func(t *testing.T) {
		assert.Equal(t, int64(4), count(t, adp, "SELECT COUNT(*) FROM time"))
		assert.Equal(t, int64(0), count(t, adp, `
			SELECT COUNT(*) FROM time
			WHERE hour <> hour(start_time)
				OR day <> day(start_time)
				OR month <> month(start_time)
				OR year <> year(start_time)
				OR weekday <> dayofweek(start_time)`))
	})
}
