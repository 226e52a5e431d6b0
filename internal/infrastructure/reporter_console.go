package infrastructure

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"
	"github.com/yourusername/filetube-go/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// consoleStyles holds the styles of the console reporter
type consoleStyles struct {
	file    lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	err     lipgloss.Style
	muted   lipgloss.Style
	summary lipgloss.Style
}

func newConsoleStyles(r *lipgloss.Renderer) consoleStyles {
	return consoleStyles{
		file:    r.NewStyle().Foreground(lipgloss.Color("#06B6D4")).Bold(true), // Cyan
		success: r.NewStyle().Foreground(lipgloss.Color("#A6E3A1")),            // Green
		warning: r.NewStyle().Foreground(lipgloss.Color("#F9E2AF")),            // Yellow
		err:     r.NewStyle().Foreground(lipgloss.Color("#F38BA8")),            // Red
		muted:   r.NewStyle().Foreground(lipgloss.Color("#6C7086")),
		summary: r.NewStyle().Bold(true),
	}
}

// ConsoleReporter prints batch events for a human and mirrors them as JSON
// events into the audit logger
type ConsoleReporter struct {
	mu       *sync.Mutex
	out      io.Writer
	runID    string
	audit    *zap.Logger
	progress bool
	throttle time.Duration
	styles   consoleStyles
}

// defaultBarThrottle limits progress bar redraws
const defaultBarThrottle = 100 * time.Millisecond

// NewConsoleReporter creates a reporter writing to out. Progress bars are drawn
// only when progress is true; audit may be nil.
func NewConsoleReporter(out io.Writer, audit *zap.Logger, progress bool) *ConsoleReporter {
	if audit == nil {
		audit = zap.NewNop()
	}
	return &ConsoleReporter{
		mu:       &sync.Mutex{},
		out:      out,
		audit:    audit,
		progress: progress,
		throttle: defaultBarThrottle,
		styles:   newConsoleStyles(lipgloss.NewRenderer(out)),
	}
}

// IsTerminal reports whether w is an interactive terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ForRun returns a reporter sharing r's output whose audit events carry the
// run ID, so concurrent runs can be told apart in the audit log
func (r *ConsoleReporter) ForRun(runID string) domain.Reporter {
	scoped := *r
	scoped.runID = runID
	return &scoped
}

func (r *ConsoleReporter) event(name string, fields ...zap.Field) {
	r.runEvent(name, r.runID, fields...)
}

func (r *ConsoleReporter) runEvent(name, runID string, fields ...zap.Field) {
	if runID != "" {
		fields = append([]zap.Field{zap.String("run_id", runID)}, fields...)
	}
	r.audit.Info(name, fields...)
}

func (r *ConsoleReporter) println(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, line)
}

func (r *ConsoleReporter) FileStarted(doc domain.DocumentHandle) {
	r.println(r.styles.file.Render("Processing file: " + doc.Name()))
	r.event("file_started", zap.String("document", doc.Path), zap.String("format", string(doc.Format)))
}

func (r *ConsoleReporter) FileSkipped(doc domain.DocumentHandle) {
	r.println(r.styles.warning.Render("Unsupported file format: " + doc.Extension()))
	r.event("file_skipped", zap.String("document", doc.Path), zap.String("extension", doc.Extension()))
}

func (r *ConsoleReporter) FileFailed(doc domain.DocumentHandle, err error) {
	r.println(r.styles.err.Render(fmt.Sprintf("Error processing %s: %v", doc.Name(), err)))
	r.event("file_failed",
		zap.String("document", doc.Path),
		zap.String("kind", domain.ErrorKind(err)),
		zap.Error(err))
}

func (r *ConsoleReporter) NoLinks(doc domain.DocumentHandle) {
	r.println(r.styles.muted.Render("No video links found in " + doc.Name()))
	r.event("no_links", zap.String("document", doc.Path))
}

func (r *ConsoleReporter) ResolutionFallback(link, requested, chosen string) {
	r.println(r.styles.warning.Render(fmt.Sprintf("Video with resolution %s not available for %s", requested, link)))
	r.println(r.styles.muted.Render(fmt.Sprintf("Downloading highest resolution (%s) instead", chosen)))
	r.event("resolution_fallback",
		zap.String("link", link),
		zap.String("requested", requested),
		zap.String("chosen", chosen))
}

func (r *ConsoleReporter) TransferStarted(link domain.ExtractedLink, variant domain.StreamVariant) domain.ProgressTracker {
	r.event("transfer_started",
		zap.String("link", link.URL),
		zap.String("resolution", variant.Resolution),
		zap.Int64("size", variant.Size))
	if !r.progress {
		return domain.NopTracker{}
	}
	return &barTracker{reporter: r, description: fmt.Sprintf("%s [%s]", variant.Title, variant.Resolution)}
}

func (r *ConsoleReporter) OutcomeRecorded(outcome domain.DownloadOutcome) {
	fields := []zap.Field{
		zap.Int("sequence", outcome.Sequence),
		zap.String("status", string(outcome.Status)),
		zap.String("document", outcome.DocumentPath),
	}
	if outcome.Link != "" {
		fields = append(fields, zap.String("link", outcome.Link))
	}

	switch outcome.Status {
	case domain.OutcomeSuccess:
		r.println(r.styles.success.Render("Downloaded: " + outcome.Title))
		fields = append(fields,
			zap.String("title", outcome.Title),
			zap.String("resolution", outcome.Resolution),
			zap.String("file", outcome.FilePath),
			zap.Int64("bytes", outcome.Bytes))
	case domain.OutcomeFailed:
		// extraction failures were already printed by FileFailed
		if outcome.Link != "" {
			r.println(r.styles.err.Render(fmt.Sprintf("Error downloading %s: %s", outcome.Link, outcome.Reason)))
		}
		fields = append(fields, zap.String("kind", outcome.ErrorKind), zap.String("reason", outcome.Reason))
	case domain.OutcomeSkipped:
		fields = append(fields, zap.String("reason", outcome.Reason))
	}
	r.runEvent("outcome", outcome.RunID, fields...)
}

func (r *ConsoleReporter) RunFinished(run *domain.BatchRun, summary domain.RunSummary) {
	line := fmt.Sprintf("Finished: %d downloaded, %d failed, %d skipped in %s",
		summary.Succeeded, summary.Failed, summary.Skipped, run.Duration().Round(time.Millisecond))
	if run.Status == domain.RunAborted {
		line = "Aborted. " + line
	}
	r.println(r.styles.summary.Render(line))
	r.runEvent("run_finished", run.ID,
		zap.String("status", string(run.Status)),
		zap.Int("total", summary.Total),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped))
}

// barTracker draws one transfer as a progress bar, or a spinner when the
// size is unknown
type barTracker struct {
	reporter    *ConsoleReporter
	description string
	bar         *progressbar.ProgressBar
}

func (t *barTracker) Start(total int64) {
	t.bar = progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(t.reporter.out),
		progressbar.OptionSetDescription(t.description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(t.reporter.throttle),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)
}

func (t *barTracker) Add(n int) {
	if t.bar == nil {
		return
	}
	t.reporter.mu.Lock()
	defer t.reporter.mu.Unlock()
	t.bar.Add(n)
}

func (t *barTracker) Finish() {
	if t.bar == nil {
		return
	}
	t.reporter.mu.Lock()
	defer t.reporter.mu.Unlock()
	t.bar.Finish()
}
