package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yourusername/filetube-go/internal/domain"
	"github.com/yourusername/filetube-go/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const invalidInputMessage = "Invalid input. Please provide a valid folder or file path."

// BatchRunner walks an input folder, extracts links from each document and
// downloads them, producing exactly one outcome per link
type BatchRunner struct {
	extractors  *ExtractorRegistry
	downloads   *DownloadManager
	repo        domain.RunRepository
	config      *domain.DownloadConfig
	logger      *zap.Logger
	multiLogger *logger.MultiLogger
}

// NewBatchRunner creates a new batch runner. repo and multiLogger may be nil.
func NewBatchRunner(
	extractors *ExtractorRegistry,
	downloads *DownloadManager,
	repo domain.RunRepository,
	config *domain.DownloadConfig,
	logger *zap.Logger,
	multiLogger *logger.MultiLogger,
) *BatchRunner {
	return &BatchRunner{
		extractors:  extractors,
		downloads:   downloads,
		repo:        repo,
		config:      config,
		logger:      logger,
		multiLogger: multiLogger,
	}
}

// Validate checks the run parameters and parses the quality token
func (br *BatchRunner) Validate(params domain.RunParams) (domain.QualityRequest, error) {
	if strings.TrimSpace(params.InputPath) == "" {
		return domain.QualityRequest{}, fmt.Errorf("%w: %s", domain.ErrInvalidInput, invalidInputMessage)
	}
	if _, err := os.Stat(params.InputPath); err != nil {
		return domain.QualityRequest{}, fmt.Errorf("%w: %s", domain.ErrInvalidInput, invalidInputMessage)
	}
	if strings.TrimSpace(params.OutputDir) == "" {
		return domain.QualityRequest{}, fmt.Errorf("%w: output folder must not be empty", domain.ErrInvalidInput)
	}
	return domain.ParseQuality(params.Quality)
}

// Run validates the parameters and processes the batch to completion
func (br *BatchRunner) Run(ctx context.Context, params domain.RunParams, reporter domain.Reporter) (*domain.BatchResult, error) {
	run, err := br.Prepare(params)
	if err != nil {
		return nil, err
	}
	return br.Execute(ctx, run, reporter)
}

// Prepare validates the parameters and records a new running batch in the
// history, so the run can be looked up before processing starts
func (br *BatchRunner) Prepare(params domain.RunParams) (*domain.BatchRun, error) {
	if _, err := br.Validate(params); err != nil {
		return nil, err
	}

	run := domain.NewBatchRun(params)
	if br.repo != nil {
		if err := br.repo.CreateRun(run); err != nil {
			br.logPersistError("Failed to save run", run.ID, err)
		}
	}
	return run, nil
}

// Execute processes a run created by Prepare. Only invalid input is fatal;
// the run is then recorded as aborted. Every document and link failure
// becomes an outcome.
func (br *BatchRunner) Execute(ctx context.Context, run *domain.BatchRun, reporter domain.Reporter) (*domain.BatchResult, error) {
	if reporter == nil {
		reporter = domain.NopReporter{}
	}
	if scoped, ok := reporter.(domain.RunScopedReporter); ok {
		reporter = scoped.ForRun(run.ID)
	}

	request, docs, err := br.start(run)
	if err != nil {
		run.Finish(domain.RunAborted, domain.RunSummary{})
		br.saveRun(run)
		return nil, err
	}
	run.Documents = len(docs)
	br.saveRun(run)

	br.logger.Info("Batch started",
		zap.String("run_id", run.ID),
		zap.String("input", run.InputPath),
		zap.String("output", run.OutputDir),
		zap.String("quality", request.String()),
		zap.Int("documents", len(docs)))

	result := &domain.BatchResult{Run: run, Outcomes: []domain.DownloadOutcome{}}
	record := func(outcome domain.DownloadOutcome) {
		outcome.RunID = run.ID
		outcome.Sequence = len(result.Outcomes)
		result.Outcomes = append(result.Outcomes, outcome)
		result.Summary.Add(outcome)
		if br.repo != nil {
			if err := br.repo.AppendOutcome(&outcome); err != nil {
				br.logPersistError("Failed to save outcome", run.ID, err)
			}
		}
		reporter.OutcomeRecorded(outcome)
	}

	for _, doc := range docs {
		if ctx.Err() != nil {
			break
		}
		reporter.FileStarted(doc)

		links, err := br.extract(ctx, doc, run.Links)
		if err != nil {
			if errors.Is(err, domain.ErrUnsupportedFormat) {
				reporter.FileSkipped(doc)
				record(domain.NewSkippedOutcome(doc, fmt.Sprintf("Unsupported file format: %s", doc.Extension())))
				continue
			}
			br.logger.Error("Failed to extract links",
				zap.String("document", doc.Path),
				zap.String("kind", domain.ErrorKind(err)),
				zap.Error(err))
			reporter.FileFailed(doc, err)
			record(domain.NewFailedOutcome(doc, "", err))
			continue
		}
		if len(links) == 0 {
			reporter.NoLinks(doc)
			continue
		}

		run.Links += len(links)
		br.downloadLinks(ctx, links, request, run.OutputDir, reporter, record)
	}

	status := domain.RunCompleted
	if ctx.Err() != nil {
		status = domain.RunAborted
	}
	run.Finish(status, result.Summary)

	br.saveRun(run)

	br.logger.Info("Batch finished",
		zap.String("run_id", run.ID),
		zap.String("status", string(status)),
		zap.Int("succeeded", result.Summary.Succeeded),
		zap.Int("failed", result.Summary.Failed),
		zap.Int("skipped", result.Summary.Skipped),
		zap.Duration("duration", run.Duration()))

	reporter.RunFinished(run, result.Summary)
	return result, nil
}

// start re-validates the run and lists its documents
func (br *BatchRunner) start(run *domain.BatchRun) (domain.QualityRequest, []domain.DocumentHandle, error) {
	request, err := br.Validate(domain.RunParams{InputPath: run.InputPath, OutputDir: run.OutputDir, Quality: run.Quality})
	if err != nil {
		return request, nil, err
	}
	if err := os.MkdirAll(run.OutputDir, 0755); err != nil {
		return request, nil, fmt.Errorf("%w: cannot create output folder %s: %w", domain.ErrInvalidInput, run.OutputDir, err)
	}

	docs, err := discoverDocuments(run.InputPath)
	if err != nil {
		return request, nil, err
	}
	return request, docs, nil
}

func (br *BatchRunner) saveRun(run *domain.BatchRun) {
	if br.repo == nil {
		return
	}
	if err := br.repo.UpdateRun(run); err != nil {
		br.logPersistError("Failed to update run", run.ID, err)
	}
}

// extract classifies a document and runs its extractor. Link indexes start
// at offset, the number of links found earlier in the batch.
func (br *BatchRunner) extract(ctx context.Context, doc domain.DocumentHandle, offset int) ([]domain.ExtractedLink, error) {
	extractor, ok := br.extractors.For(doc.Format)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, doc.Extension())
	}

	urls, err := extractor.Extract(ctx, doc.Path)
	if err != nil {
		return nil, err
	}

	links := make([]domain.ExtractedLink, len(urls))
	for i, u := range urls {
		links[i] = domain.ExtractedLink{URL: u, Source: doc, Index: offset + i}
	}
	return links, nil
}

// downloadLinks processes links and emits their outcomes in link order.
// With a concurrency limit above one, downloads overlap but emission still
// waits for each earlier link.
func (br *BatchRunner) downloadLinks(ctx context.Context, links []domain.ExtractedLink, request domain.QualityRequest, outputDir string, reporter domain.Reporter, emit func(domain.DownloadOutcome)) {
	limit := br.config.ConcurrentLimit
	if limit <= 1 || len(links) == 1 {
		for _, link := range links {
			emit(br.downloads.Process(ctx, link, request, outputDir, reporter))
		}
		return
	}

	slots := make([]domain.DownloadOutcome, len(links))
	ready := make([]chan struct{}, len(links))
	for i := range ready {
		ready[i] = make(chan struct{})
	}

	var g errgroup.Group
	g.SetLimit(limit)
	go func() {
		for i, link := range links {
			i, link := i, link
			g.Go(func() error {
				defer close(ready[i])
				slots[i] = br.downloads.Process(ctx, link, request, outputDir, reporter)
				return nil
			})
		}
	}()

	for i := range links {
		<-ready[i]
		emit(slots[i])
	}
	g.Wait()
}

func (br *BatchRunner) logPersistError(msg, runID string, err error) {
	br.logger.Error(msg, zap.String("run_id", runID), zap.Error(err))
	if br.multiLogger != nil {
		br.multiLogger.LogAppError(msg, zap.String("run_id", runID), zap.Error(err))
	}
}

// discoverDocuments lists the documents of an input path. A file is the only
// document; a folder contributes its immediate regular files, sorted by name.
func discoverDocuments(inputPath string) ([]domain.DocumentHandle, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, invalidInputMessage)
	}
	if !info.IsDir() {
		return []domain.DocumentHandle{domain.ClassifyDocument(inputPath)}, nil
	}

	entries, err := os.ReadDir(inputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, inputPath, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	docs := make([]domain.DocumentHandle, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		docs = append(docs, domain.ClassifyDocument(filepath.Join(inputPath, entry.Name())))
	}
	return docs, nil
}
