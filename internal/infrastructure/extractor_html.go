package infrastructure

import (
	"context"
	"fmt"
	"os"

	"github.com/PuerkitoBio/goquery"
	"github.com/yourusername/filetube-go/internal/domain"
)

// HTMLExtractor extracts links from saved web pages
type HTMLExtractor struct{}

// NewHTMLExtractor creates a new HTML extractor
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{}
}

// Format returns the document format this extractor handles
func (e *HTMLExtractor) Format() domain.DocumentFormat {
	return domain.FormatHTML
}

// Extract returns anchor targets in document order, followed by links that
// appear in the visible text outside of anchors.
func (e *HTMLExtractor) Extract(ctx context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIO, err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDocumentOpen, err)
	}

	links := []string{}
	doc.Find("a[href]").Each(func(i int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		links = append(links, domain.ExtractLinks(href)...)
	})

	doc.Find("script, style, a").Remove()
	links = append(links, domain.ExtractLinks(doc.Find("body").Text())...)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return links, nil
}
