package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yourusername/filetube-go/internal/domain"
	"github.com/yourusername/filetube-go/internal/infrastructure"
	"go.uber.org/zap"
)

// DownloadManager negotiates and downloads single links
type DownloadManager struct {
	resolver domain.StreamResolver
	fetcher  domain.Fetcher
	paths    *infrastructure.PathAllocator
	config   *domain.DownloadConfig
	logger   *zap.Logger
}

// NewDownloadManager creates a new download manager
func NewDownloadManager(
	resolver domain.StreamResolver,
	fetcher domain.Fetcher,
	paths *infrastructure.PathAllocator,
	config *domain.DownloadConfig,
	logger *zap.Logger,
) *DownloadManager {
	return &DownloadManager{
		resolver: resolver,
		fetcher:  fetcher,
		paths:    paths,
		config:   config,
		logger:   logger,
	}
}

// Process resolves, negotiates and downloads one link. Every failure is
// returned as a failed outcome.
func (dm *DownloadManager) Process(ctx context.Context, link domain.ExtractedLink, request domain.QualityRequest, outputDir string, reporter domain.Reporter) (outcome domain.DownloadOutcome) {
	defer func() {
		if r := recover(); r != nil {
			dm.logger.Error("Recovered from panic while downloading",
				zap.String("url", link.URL),
				zap.Any("panic", r))
			outcome = domain.NewFailedOutcome(link.Source, link.URL, fmt.Errorf("internal error: %v", r))
		}
	}()

	if err := ctx.Err(); err != nil {
		return domain.NewFailedOutcome(link.Source, link.URL, err)
	}

	media, err := dm.resolver.Resolve(ctx, link.URL)
	if err != nil {
		return dm.fail(link, err)
	}

	variant, sel, err := SelectVariant(media.Variants, request)
	if err != nil {
		return dm.fail(link, fmt.Errorf("%w for %s", err, link.URL))
	}
	if sel.FellBack {
		dm.logger.Warn("Falling back to highest resolution",
			zap.String("url", link.URL),
			zap.String("chosen", sel.Chosen),
			zap.Error(fallbackError(sel, link.URL)))
		reporter.ResolutionFallback(link.URL, sel.Requested, sel.Chosen)
	}
	if variant.Title == "" {
		variant.Title = media.Title
	}

	dest, err := dm.paths.Reserve(outputDir, variant.Title, infrastructure.ExtensionForMime(variant.MimeType))
	if err != nil {
		return dm.fail(link, err)
	}
	// finished files are guarded by the on-disk check, not the reservation
	defer dm.paths.Release(dest)

	written, err := dm.fetchWithRetry(ctx, link, variant, dest, reporter)
	if err != nil {
		return dm.fail(link, err)
	}

	dm.logger.Info("Download completed",
		zap.String("url", link.URL),
		zap.String("title", variant.Title),
		zap.String("resolution", variant.Resolution),
		zap.String("file", dest),
		zap.Int64("bytes", written))

	return domain.NewSuccessOutcome(link, variant.Title, variant.Resolution, dest, written)
}

// fetchWithRetry retries transport failures up to MaxRetries times
func (dm *DownloadManager) fetchWithRetry(ctx context.Context, link domain.ExtractedLink, variant domain.StreamVariant, dest string, reporter domain.Reporter) (int64, error) {
	var lastErr error
	for attempt := 0; attempt <= dm.config.MaxRetries; attempt++ {
		if attempt > 0 {
			dm.logger.Info("Retrying download",
				zap.String("url", link.URL),
				zap.Int("attempt", attempt),
				zap.Int("max_retries", dm.config.MaxRetries))

			// Wait before retry
			select {
			case <-time.After(dm.config.RetryDelay):
			case <-ctx.Done():
				return 0, ctx.Err()
			}
		}

		written, err := dm.fetcher.Fetch(ctx, variant, dest, reporter.TransferStarted(link, variant))
		if err == nil {
			return written, nil
		}

		lastErr = err
		dm.logger.Warn("Download attempt failed",
			zap.String("url", link.URL),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if !errors.Is(err, domain.ErrTransport) || ctx.Err() != nil {
			break
		}
	}
	return 0, lastErr
}

func (dm *DownloadManager) fail(link domain.ExtractedLink, err error) domain.DownloadOutcome {
	dm.logger.Error("Download failed",
		zap.String("url", link.URL),
		zap.String("document", link.Source.Path),
		zap.String("kind", domain.ErrorKind(err)),
		zap.Error(err))
	return domain.NewFailedOutcome(link.Source, link.URL, err)
}
