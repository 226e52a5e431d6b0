package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/kkdai/youtube/v2"
	"github.com/yourusername/filetube-go/internal/domain"
	"go.uber.org/zap"
)

type streamLocator func(ctx context.Context, video *youtube.Video, format *youtube.Format) (string, error)

// YouTubeResolver resolves watch URLs into stream variants
type YouTubeResolver struct {
	client          *youtube.Client
	progressiveOnly bool
	logger          *zap.Logger
}

// NewYouTubeResolver creates a new resolver
func NewYouTubeResolver(config *domain.ResolverConfig, logger *zap.Logger) *YouTubeResolver {
	return &YouTubeResolver{
		client: &youtube.Client{
			HTTPClient: &http.Client{Timeout: config.RequestTimeout},
		},
		progressiveOnly: config.ProgressiveOnly,
		logger:          logger,
	}
}

// Resolve fetches video metadata and returns its downloadable variants in
// the order the platform lists them.
func (r *YouTubeResolver) Resolve(ctx context.Context, link string) (*domain.Media, error) {
	video, err := r.client.GetVideoContext(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrResolve, describeYouTubeError(err), err)
	}

	variants := variantsFromVideo(ctx, video, r.progressiveOnly, r.client.GetStreamURLContext, r.logger)
	r.logger.Debug("Resolved video",
		zap.String("url", link),
		zap.String("id", video.ID),
		zap.Int("formats", len(video.Formats)),
		zap.Int("variants", len(variants)))

	return &domain.Media{
		ID:       video.ID,
		Title:    video.Title,
		Author:   video.Author,
		Variants: variants,
	}, nil
}

// variantsFromVideo keeps formats that carry video, and audio too when
// progressiveOnly is set. Formats whose stream URL cannot be located are dropped.
func variantsFromVideo(ctx context.Context, video *youtube.Video, progressiveOnly bool, locate streamLocator, logger *zap.Logger) []domain.StreamVariant {
	variants := make([]domain.StreamVariant, 0, len(video.Formats))
	for i := range video.Formats {
		format := &video.Formats[i]
		if format.Height == 0 {
			continue
		}
		if progressiveOnly && format.AudioChannels == 0 {
			continue
		}

		locator, err := locate(ctx, video, format)
		if err != nil {
			logger.Debug("Skipping format without stream URL",
				zap.String("id", video.ID),
				zap.Int("itag", format.ItagNo),
				zap.Error(err))
			continue
		}

		variants = append(variants, domain.StreamVariant{
			Resolution: resolutionLabel(format),
			Size:       format.ContentLength,
			Locator:    locator,
			Title:      video.Title,
			MimeType:   format.MimeType,
			Itag:       format.ItagNo,
			HasAudio:   format.AudioChannels > 0,
		})
	}
	return variants
}

// resolutionLabel normalises "720p60" and "720p HDR" to "720p"
func resolutionLabel(format *youtube.Format) string {
	if rank := domain.ResolutionRank(format.QualityLabel); rank > 0 {
		return fmt.Sprintf("%dp", rank)
	}
	return fmt.Sprintf("%dp", format.Height)
}

func describeYouTubeError(err error) string {
	switch {
	case errors.Is(err, youtube.ErrLoginRequired),
		errors.Is(err, youtube.ErrVideoPrivate),
		errors.Is(err, youtube.ErrNotPlayableInEmbed):
		return "restricted content"
	case errors.Is(err, youtube.ErrInvalidCharactersInVideoID),
		errors.Is(err, youtube.ErrVideoIDMinLength):
		return "invalid video id"
	}

	var statusErr *youtube.ErrPlayabiltyStatus
	if errors.As(err, &statusErr) {
		return "video unavailable"
	}
	return "metadata request failed"
}
