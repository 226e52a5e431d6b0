package domain

import "context"

// LinkExtractor pulls video references out of one document format
type LinkExtractor interface {
	// Format returns the document format this extractor handles
	Format() DocumentFormat

	// Extract returns the links found in the document at path, in document order
	Extract(ctx context.Context, path string) ([]string, error)
}

// ProgressTracker receives byte counts for one transfer. Start is called once
// the total is known; a negative total means the size is unknown.
type ProgressTracker interface {
	Start(total int64)
	Add(n int)
	Finish()
}

// Fetcher streams a variant to a destination file
type Fetcher interface {
	Fetch(ctx context.Context, variant StreamVariant, destPath string, tracker ProgressTracker) (int64, error)
}

// Reporter receives batch events in processing order
type Reporter interface {
	FileStarted(doc DocumentHandle)
	FileSkipped(doc DocumentHandle)
	FileFailed(doc DocumentHandle, err error)
	NoLinks(doc DocumentHandle)
	ResolutionFallback(link, requested, chosen string)
	TransferStarted(link ExtractedLink, variant StreamVariant) ProgressTracker
	OutcomeRecorded(outcome DownloadOutcome)
	RunFinished(run *BatchRun, summary RunSummary)
}

// RunScopedReporter is implemented by reporters shared between runs. ForRun
// returns a reporter whose events are attributed to one run.
type RunScopedReporter interface {
	ForRun(runID string) Reporter
}

// NopTracker discards progress
type NopTracker struct{}

func (NopTracker) Start(int64) {}
func (NopTracker) Add(int) {}
func (NopTracker) Finish() {}

// NopReporter discards batch events
type NopReporter struct{}

func (NopReporter) FileStarted(DocumentHandle) {}
func (NopReporter) FileSkipped(DocumentHandle) {}
func (NopReporter) FileFailed(DocumentHandle, error) {}
func (NopReporter) NoLinks(DocumentHandle) {}
func (NopReporter) ResolutionFallback(string, string, string) {}
func (NopReporter) OutcomeRecorded(DownloadOutcome) {}
func (NopReporter) RunFinished(*BatchRun, RunSummary) {}
func (NopReporter) TransferStarted(ExtractedLink, StreamVariant) ProgressTracker {
	return NopTracker{}
}
