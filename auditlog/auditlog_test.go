package auditlog

import (
	"bufio"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &line))
		out = append(out, line)
	}
	require.NoError(t, sc.Err())
	return out
}

func TestRecordAppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "requests.log")
	l := New(path, 8)

	l.Record(Entry{Method: "POST", URL: "/api/data", Body: Body([]byte(`{"name":"Lab1"}`)), IP: "10.0.0.1"})
	l.Record(Entry{Method: "POST", URL: "/api/data/name=Lab2", Body: Body(nil), IP: "10.0.0.2"})
	require.NoError(t, l.Close())

	lines := readLines(t, path)
	require.Len(t, lines, 2)
	assert.Equal(t, "/api/data", lines[0]["url"])
	assert.Equal(t, map[string]any{"name": "Lab1"}, lines[0]["body"])
	assert.Equal(t, "10.0.0.1", lines[0]["ip"])
	assert.NotEmpty(t, lines[0]["timestamp"])
	assert.Equal(t, map[string]any{}, lines[1]["body"])
}

func TestBodyKeepsNonJSONAsString(t *testing.T) {
	assert.Equal(t, "name=Lab1&gas=2", Body([]byte("name=Lab1&gas=2")))
}

func TestWriteFailuresAreSwallowed(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	// the parent "directory" is a regular file, so every write fails
	l := New(filepath.Join(blocker, "requests.log"), 1)
	l.Record(Entry{Method: "POST", URL: "/api/data"})
	assert.NotPanics(t, func() { _ = l.Close() })
}

func TestNilAndClosedLoggerAreNoOps(t *testing.T) {
	var nilLogger *Logger
	nilLogger.Record(Entry{})
	assert.NoError(t, nilLogger.Close())

	l := New(filepath.Join(t.TempDir(), "requests.log"), 1)
	require.NoError(t, l.Close())
	assert.False(t, l.Record(Entry{URL: "/late"}))
	assert.NoError(t, l.Close())
}

func TestRecordRacingCloseKeepsAcceptedEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requests.log")
	l := New(path, 4096)
	require.True(t, l.Record(Entry{URL: "/first"}))

	var (
		accepted atomic.Int64
		wg       sync.WaitGroup
	)
	accepted.Add(1)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if l.Record(Entry{URL: "/api/data"}) {
					accepted.Add(1)
				}
			}
		}()
	}
	require.NoError(t, l.Close())
	wg.Wait()

	// every entry Record accepted made it to disk, even those racing Close
	assert.Len(t, readLines(t, path), int(accepted.Load()))
}
