package infrastructure

import (
	"context"
	"fmt"
	"os"

	"github.com/yourusername/filetube-go/internal/domain"
)

// TextExtractor scans a plain text file in a single pass
type TextExtractor struct{}

// NewTextExtractor creates a new text extractor
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// Format returns the document format this extractor handles
func (e *TextExtractor) Format() domain.DocumentFormat {
	return domain.FormatText
}

// Extract reads the whole file and returns its links
func (e *TextExtractor) Extract(ctx context.Context, path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIO, err)
	}
	return domain.ExtractLinks(string(data)), nil
}
