package domain

import (
	"path/filepath"
	"strings"
)

// DocumentFormat identifies the container format of an input document
type DocumentFormat string

const (
	FormatPDF         DocumentFormat = "pdf"
	FormatText        DocumentFormat = "text"
	FormatCSV         DocumentFormat = "csv"
	FormatSpreadsheet DocumentFormat = "spreadsheet"
	FormatHTML        DocumentFormat = "html"
	FormatUnsupported DocumentFormat = "unsupported"
)

var extensionFormats = map[string]DocumentFormat{
	".pdf":  FormatPDF,
	".txt":  FormatText,
	".csv":  FormatCSV,
	".xlsx": FormatSpreadsheet,
	".xlsm": FormatSpreadsheet,
	".html": FormatHTML,
	".htm":  FormatHTML,
}

// DocumentHandle is a classified input document
type DocumentHandle struct {
	Path   string         `json:"path"`
	Format DocumentFormat `json:"format"`
}

// ClassifyDocument detects the document format from its file extension
func ClassifyDocument(path string) DocumentHandle {
	format, ok := extensionFormats[strings.ToLower(filepath.Ext(path))]
	if !ok {
		format = FormatUnsupported
	}
	return DocumentHandle{Path: path, Format: format}
}

// Name returns the base name of the document
func (d DocumentHandle) Name() string {
	return filepath.Base(d.Path)
}

// Extension returns the lower-cased extension of the document, including the dot
func (d DocumentHandle) Extension() string {
	return strings.ToLower(filepath.Ext(d.Path))
}

// IsSupported reports whether an extractor exists for the document format
func (d DocumentHandle) IsSupported() bool {
	return d.Format != FormatUnsupported
}

// ExtractedLink is a video reference found in a document
type ExtractedLink struct {
	URL    string         `json:"url"`
	Source DocumentHandle `json:"source"`
	Index  int            `json:"index"`
}
