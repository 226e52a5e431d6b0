package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/filetube-go/internal/domain"
	"go.uber.org/zap"
)

type recordingTracker struct {
	mu       sync.Mutex
	total    int64
	started  bool
	chunks   []int
	finished bool
}

func (r *recordingTracker) Start(total int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = true
	r.total = total
}

func (r *recordingTracker) Add(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunks = append(r.chunks, n)
}

func (r *recordingTracker) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = true
}

func (r *recordingTracker) sum() int {
	total := 0
	for _, n := range r.chunks {
		total += n
	}
	return total
}

func newTestFetcher(keepPartial bool) *HTTPFetcher {
	config := domain.DefaultConfig().Download
	config.KeepPartial = keepPartial
	return NewHTTPFetcher(&config, zap.NewNop())
}

func TestHTTPFetcher_StreamsInChunks(t *testing.T) {
	payload := bytes.Repeat([]byte("0123456789abcdef"), 2000) // 32000 bytes
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		w.Write(payload)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "Title.mp4")
	tracker := &recordingTracker{}

	written, err := newTestFetcher(false).Fetch(context.Background(), domain.StreamVariant{Locator: server.URL}, dest, tracker)
	require.NoError(t, err)

	assert.Equal(t, int64(len(payload)), written)
	assert.True(t, tracker.started)
	assert.Equal(t, int64(len(payload)), tracker.total)
	assert.Equal(t, len(payload), tracker.sum())
	assert.True(t, tracker.finished)
	for _, n := range tracker.chunks {
		assert.LessOrEqual(t, n, domain.DefaultChunkSize)
		assert.Greater(t, n, 0)
	}

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
	assert.NoFileExists(t, dest+partSuffix)
}

func TestHTTPFetcher_PrefersDeclaredSize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	}))
	defer server.Close()

	tracker := &recordingTracker{}
	variant := domain.StreamVariant{Locator: server.URL, Size: 5}

	_, err := newTestFetcher(false).Fetch(context.Background(), variant, filepath.Join(t.TempDir(), "a.mp4"), tracker)
	require.NoError(t, err)
	assert.Equal(t, int64(5), tracker.total)
}

func TestHTTPFetcher_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "a.mp4")

	_, err := newTestFetcher(false).Fetch(context.Background(), domain.StreamVariant{Locator: server.URL}, dest, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTransport))
	assert.Contains(t, err.Error(), "403")
	assert.NoFileExists(t, dest)
	assert.NoFileExists(t, dest+partSuffix)
}

func abortingServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100000")
		w.Write(bytes.Repeat([]byte("x"), 10000))
		w.(http.Flusher).Flush()
		panic(http.ErrAbortHandler)
	}))
}

func TestHTTPFetcher_MidStreamFailureDiscardsPartial(t *testing.T) {
	server := abortingServer()
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "a.mp4")
	tracker := &recordingTracker{}

	_, err := newTestFetcher(false).Fetch(context.Background(), domain.StreamVariant{Locator: server.URL}, dest, tracker)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTransport))
	assert.True(t, tracker.finished)
	assert.NoFileExists(t, dest)
	assert.NoFileExists(t, dest+partSuffix)
}

func TestHTTPFetcher_KeepPartial(t *testing.T) {
	server := abortingServer()
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "a.mp4")

	_, err := newTestFetcher(true).Fetch(context.Background(), domain.StreamVariant{Locator: server.URL}, dest, nil)
	require.Error(t, err)
	assert.NoFileExists(t, dest)
	assert.FileExists(t, dest+partSuffix)
}

func TestHTTPFetcher_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := newTestFetcher(false).Fetch(context.Background(), domain.StreamVariant{Locator: url}, filepath.Join(t.TempDir(), "a.mp4"), nil)
	assert.True(t, errors.Is(err, domain.ErrTransport))
}

func TestTransferTotal(t *testing.T) {
	assert.Equal(t, int64(10), TransferTotal(domain.StreamVariant{Size: 10}, 20))
	assert.Equal(t, int64(20), TransferTotal(domain.StreamVariant{}, 20))
	assert.Equal(t, int64(-1), TransferTotal(domain.StreamVariant{}, -1))
}

func TestHTTPFetcher_CancellationKeepsContextError(t *testing.T) {
	sent := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1048576")
		w.Write(bytes.Repeat([]byte("x"), 1024))
		w.(http.Flusher).Flush()
		close(sent)
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-sent
		cancel()
	}()

	dest := filepath.Join(t.TempDir(), "clip.mp4")
	_, err := newTestFetcher(false).Fetch(ctx, domain.StreamVariant{Locator: server.URL, Size: -1}, dest, &recordingTracker{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Equal(t, "cancelled", domain.ErrorKind(err))
	assert.NoFileExists(t, dest+".part")

	_, err = newTestFetcher(false).Fetch(ctx, domain.StreamVariant{Locator: server.URL, Size: -1}, dest, nil)
	assert.Equal(t, "cancelled", domain.ErrorKind(err))
}
