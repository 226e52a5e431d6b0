package app

import (
	"sort"

	"github.com/yourusername/filetube-go/internal/domain"
	"github.com/yourusername/filetube-go/internal/infrastructure"
	"go.uber.org/zap"
)

// ExtractorRegistry dispatches documents to the extractor of their format
type ExtractorRegistry struct {
	extractors map[domain.DocumentFormat]domain.LinkExtractor
}

// NewExtractorRegistry creates a registry holding the given extractors
func NewExtractorRegistry(extractors ...domain.LinkExtractor) *ExtractorRegistry {
	r := &ExtractorRegistry{extractors: make(map[domain.DocumentFormat]domain.LinkExtractor)}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// NewDefaultExtractorRegistry registers an extractor for every supported format
func NewDefaultExtractorRegistry(logger *zap.Logger) *ExtractorRegistry {
	return NewExtractorRegistry(
		infrastructure.NewPDFExtractor(logger),
		infrastructure.NewTextExtractor(),
		infrastructure.NewCSVExtractor(),
		infrastructure.NewSpreadsheetExtractor(logger),
		infrastructure.NewHTMLExtractor(),
	)
}

// Register adds or replaces the extractor for its format
func (r *ExtractorRegistry) Register(e domain.LinkExtractor) {
	r.extractors[e.Format()] = e
}

// For returns the extractor for a format
func (r *ExtractorRegistry) For(format domain.DocumentFormat) (domain.LinkExtractor, bool) {
	if format == domain.FormatUnsupported {
		return nil, false
	}
	e, ok := r.extractors[format]
	return e, ok
}

// Formats lists the registered formats
func (r *ExtractorRegistry) Formats() []domain.DocumentFormat {
	formats := make([]domain.DocumentFormat, 0, len(r.extractors))
	for f := range r.extractors {
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}
