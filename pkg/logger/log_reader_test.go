package logger

import (
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLog(t *testing.T, path string, lines ...string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))
}

func TestReadLogs_MissingFile(t *testing.T) {
	entries, err := NewLogReader(t.TempDir()).ReadTodayLogs(CategoryServer, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReadLogs_LimitAndPlainLines(t *testing.T) {
	reader := NewLogReader(t.TempDir())
	writeLog(t, reader.GetTodayLogPath(CategoryDownload),
		`{"level":"info","ts":"2026-01-01T00:00:00Z","msg":"first"}`,
		`not json at all`,
		`{"level":"warn","ts":"2026-01-01T00:00:01Z","msg":"third","link":"abc"}`,
	)

	entries, err := reader.ReadTodayLogs(CategoryDownload, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "not json at all", entries[0].Message)
	assert.Equal(t, "third", entries[1].Message)
	assert.Equal(t, "warn", entries[1].Level)
	assert.Equal(t, "abc", entries[1].Fields["link"])
}

func TestSearchLogs_MatchesFields(t *testing.T) {
	reader := NewLogReader(t.TempDir())
	writeLog(t, reader.GetTodayLogPath(CategoryError),
		`{"level":"error","ts":"t","msg":"Download failed","link":"https://www.youtube.com/watch?v=AAA"}`,
		`{"level":"error","ts":"t","msg":"Download failed","link":"https://www.youtube.com/watch?v=BBB"}`,
	)

	found, err := reader.SearchLogs(CategoryError, time.Now(), "bbb", 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Contains(t, found[0].Fields["link"], "BBB")
}

func TestTailLogs_StreamsAppendedLines(t *testing.T) {
	reader := NewLogReader(t.TempDir())
	reader.pollInterval = 10 * time.Millisecond
	path := reader.GetTodayLogPath(CategoryServer)
	writeLog(t, path, `{"level":"info","ts":"t","msg":"old"}`)

	entries := make(chan LogEntry, 4)
	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- reader.TailLogs(CategoryServer, entries, stop) }()

	assert.Eventually(t, func() bool {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return false
		}
		defer f.Close()
		f.WriteString(`{"level":"info","ts":"t","msg":"new"}` + "\n")
		select {
		case entry := <-entries:
			return entry.Message == "new"
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 2*time.Second, 20*time.Millisecond)

	close(stop)
	assert.NoError(t, <-done)
}

func TestTailLogs_StopsWhileWaitingForFile(t *testing.T) {
	reader := NewLogReader(t.TempDir())
	stop := make(chan struct{})
	close(stop)
	assert.NoError(t, reader.TailLogs(CategoryServer, make(chan LogEntry), stop))
}

func TestTailLogs_FollowsDateChange(t *testing.T) {
	reader := NewLogReader(t.TempDir())
	reader.pollInterval = 10 * time.Millisecond

	var mu sync.Mutex
	today := time.Now()
	clock := today
	reader.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return clock
	}
	todayPath := reader.GetLogPath(CategoryDownload, today)
	writeLog(t, todayPath, `{"level":"info","ts":"t","msg":"old"}`)

	entries := make(chan LogEntry, 4)
	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- reader.TailLogs(CategoryDownload, entries, stop) }()

	// wait until the tail is following today's file
	assert.Eventually(t, func() bool {
		f, err := os.OpenFile(todayPath, os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return false
		}
		defer f.Close()
		f.WriteString(`{"level":"info","ts":"t","msg":"today"}` + "\n")
		select {
		case entry := <-entries:
			return entry.Message == "today"
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 2*time.Second, 20*time.Millisecond)

	tomorrow := today.Add(24 * time.Hour)
	mu.Lock()
	clock = tomorrow
	mu.Unlock()
	writeLog(t, reader.GetLogPath(CategoryDownload, tomorrow), `{"level":"info","ts":"t","msg":"first of the day"}`)

	deadline := time.After(2 * time.Second)
	for received := false; !received; {
		select {
		case entry := <-entries:
			// late copies of the line appended while waiting above
			received = entry.Message == "first of the day"
		case <-deadline:
			t.Fatal("no entry from the new day's file")
		}
	}

	close(stop)
	assert.NoError(t, <-done)
}
