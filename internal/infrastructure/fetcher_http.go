package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/yourusername/filetube-go/internal/domain"
	"go.uber.org/zap"
)

// HTTPFetcher streams stream variants to disk in fixed-size chunks
type HTTPFetcher struct {
	client      *http.Client
	chunkSize   int
	keepPartial bool
	logger      *zap.Logger
}

// NewHTTPFetcher creates a new fetcher from download configuration
func NewHTTPFetcher(config *domain.DownloadConfig, logger *zap.Logger) *HTTPFetcher {
	chunkSize := config.ChunkSize
	if chunkSize <= 0 {
		chunkSize = domain.DefaultChunkSize
	}
	return &HTTPFetcher{
		client:      &http.Client{Timeout: config.HTTPTimeout},
		chunkSize:   chunkSize,
		keepPartial: config.KeepPartial,
		logger:      logger,
	}
}

// Fetch downloads the variant to destPath. Bytes are written to destPath.part
// and moved into place only when the transfer completes.
func (f *HTTPFetcher) Fetch(ctx context.Context, variant domain.StreamVariant, destPath string, tracker domain.ProgressTracker) (int64, error) {
	if tracker == nil {
		tracker = domain.NopTracker{}
	}
	defer tracker.Finish()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, variant.Locator, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("%w: unexpected status %s", domain.ErrTransport, resp.Status)
	}

	tracker.Start(TransferTotal(variant, resp.ContentLength))

	partPath := destPath + partSuffix
	out, err := os.Create(partPath)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrIO, err)
	}

	written, copyErr := f.copyChunks(out, resp.Body, tracker)
	closeErr := out.Close()
	if copyErr == nil && closeErr != nil {
		copyErr = fmt.Errorf("%w: %w", domain.ErrTransport, closeErr)
	}
	if copyErr == nil && variant.SizeKnown() && written != variant.Size {
		f.logger.Debug("Transfer size differs from declared size",
			zap.String("file", destPath),
			zap.Int64("declared", variant.Size),
			zap.Int64("written", written))
	}

	if copyErr != nil {
		f.discardPartial(partPath)
		return written, copyErr
	}

	if err := os.Rename(partPath, destPath); err != nil {
		f.discardPartial(partPath)
		return written, fmt.Errorf("%w: %w", domain.ErrIO, err)
	}

	return written, nil
}

// copyChunks writes every non-empty chunk as soon as it is read
func (f *HTTPFetcher) copyChunks(dst io.Writer, src io.Reader, tracker domain.ProgressTracker) (int64, error) {
	buf := make([]byte, f.chunkSize)
	var written int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return written, fmt.Errorf("%w: write failed: %w", domain.ErrTransport, err)
			}
			written += int64(n)
			tracker.Add(n)
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return written, nil
			}
			return written, fmt.Errorf("%w: read failed after %d bytes: %w", domain.ErrTransport, written, readErr)
		}
	}
}

func (f *HTTPFetcher) discardPartial(partPath string) {
	if f.keepPartial {
		f.logger.Info("Keeping partial file", zap.String("file", partPath))
		return
	}
	if err := os.Remove(partPath); err != nil && !os.IsNotExist(err) {
		f.logger.Warn("Failed to remove partial file",
			zap.String("file", partPath),
			zap.Error(err))
	}
}

// TransferTotal picks the progress total for a transfer: the declared size,
// then the response length, else -1 for an indeterminate counter.
func TransferTotal(variant domain.StreamVariant, contentLength int64) int64 {
	if variant.SizeKnown() {
		return variant.Size
	}
	if contentLength > 0 {
		return contentLength
	}
	return -1
}
