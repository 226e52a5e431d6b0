package app

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/yourusername/filetube-go/internal/domain"
)

// fakeResolver serves canned media keyed by link
type fakeResolver struct {
	media     map[string]*domain.Media
	errs      map[string]error
	onResolve func(link string)
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{media: map[string]*domain.Media{}, errs: map[string]error{}}
}

// add registers a link with one progressive variant per resolution
func (r *fakeResolver) add(link, title string, resolutions ...string) {
	media := &domain.Media{ID: link, Title: title}
	for i, res := range resolutions {
		media.Variants = append(media.Variants, domain.StreamVariant{
			Resolution: res,
			Size:       4,
			Locator:    link + "#" + res,
			MimeType:   `video/mp4; codecs="avc1"`,
			Itag:       i,
			HasAudio:   true,
		})
	}
	r.media[link] = media
}

func (r *fakeResolver) Resolve(ctx context.Context, link string) (*domain.Media, error) {
	if r.onResolve != nil {
		r.onResolve(link)
	}
	if err, ok := r.errs[link]; ok {
		return nil, err
	}
	media, ok := r.media[link]
	if !ok {
		return nil, fmt.Errorf("%w: %s: video unavailable", domain.ErrResolve, link)
	}
	return media, nil
}

// fakeFetcher writes a small payload for each variant unless told to fail
type fakeFetcher struct {
	mu       sync.Mutex
	failures map[string][]error // per-locator errors returned before succeeding
	delays   map[string]time.Duration
	fetched  []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{failures: map[string][]error{}, delays: map[string]time.Duration{}}
}

func (f *fakeFetcher) Fetch(ctx context.Context, variant domain.StreamVariant, destPath string, tracker domain.ProgressTracker) (int64, error) {
	f.mu.Lock()
	delay := f.delays[variant.Locator]
	var failure error
	if queued := f.failures[variant.Locator]; len(queued) > 0 {
		failure = queued[0]
		f.failures[variant.Locator] = queued[1:]
	}
	f.fetched = append(f.fetched, variant.Locator)
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	tracker.Start(variant.Size)
	defer tracker.Finish()
	if failure != nil {
		tracker.Add(2)
		return 0, failure
	}

	payload := []byte("data")
	if err := os.WriteFile(destPath, payload, 0644); err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	tracker.Add(len(payload))
	return int64(len(payload)), nil
}

func (f *fakeFetcher) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fetched...)
}

// recordingReporter captures batch events as readable strings
type recordingReporter struct {
	mu        sync.Mutex
	events    []string
	outcomes  []domain.DownloadOutcome
	transfers []domain.ExtractedLink
	finished  *domain.BatchRun
	scopedTo  string
}

func (r *recordingReporter) ForRun(runID string) domain.Reporter {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scopedTo = runID
	return r
}

func (r *recordingReporter) add(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recordingReporter) FileStarted(doc domain.DocumentHandle) { r.add("start %s", doc.Name()) }
func (r *recordingReporter) FileSkipped(doc domain.DocumentHandle) { r.add("skip %s", doc.Name()) }
func (r *recordingReporter) NoLinks(doc domain.DocumentHandle) { r.add("nolinks %s", doc.Name()) }
func (r *recordingReporter) FileFailed(doc domain.DocumentHandle, err error) {
	r.add("fail %s", doc.Name())
}
func (r *recordingReporter) ResolutionFallback(link, requested, chosen string) {
	r.add("fallback %s %s->%s", link, requested, chosen)
}
func (r *recordingReporter) TransferStarted(link domain.ExtractedLink, variant domain.StreamVariant) domain.ProgressTracker {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transfers = append(r.transfers, link)
	return domain.NopTracker{}
}
func (r *recordingReporter) OutcomeRecorded(outcome domain.DownloadOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
	r.events = append(r.events, fmt.Sprintf("outcome %s", outcome.Status))
}
func (r *recordingReporter) RunFinished(run *domain.BatchRun, summary domain.RunSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = run
	r.events = append(r.events, "finished")
}

func (r *recordingReporter) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// memoryRepository is an in-memory RunRepository
type memoryRepository struct {
	mu       sync.Mutex
	runs     map[string]*domain.BatchRun
	outcomes []*domain.DownloadOutcome
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{runs: map[string]*domain.BatchRun{}}
}

func (m *memoryRepository) CreateRun(run *domain.BatchRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *run
	m.runs[run.ID] = &copied
	return nil
}

func (m *memoryRepository) UpdateRun(run *domain.BatchRun) error {
	return m.CreateRun(run)
}

func (m *memoryRepository) FindRun(id string) (*domain.BatchRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: run %s", domain.ErrNotFound, id)
	}
	copied := *run
	return &copied, nil
}

func (m *memoryRepository) ListRuns(limit int) ([]*domain.BatchRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	runs := make([]*domain.BatchRun, 0, len(m.runs))
	for _, run := range m.runs {
		runs = append(runs, run)
	}
	return runs, nil
}

func (m *memoryRepository) AppendOutcome(outcome *domain.DownloadOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *outcome
	m.outcomes = append(m.outcomes, &copied)
	return nil
}

func (m *memoryRepository) ListOutcomes(runID string, status domain.OutcomeStatus) ([]*domain.DownloadOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.DownloadOutcome
	for _, o := range m.outcomes {
		if o.RunID == runID && (status == "" || o.Status == status) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memoryRepository) GetStats() (*domain.HistoryStats, error) {
	return &domain.HistoryStats{}, nil
}
