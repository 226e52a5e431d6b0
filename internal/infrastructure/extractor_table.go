package infrastructure

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"
	"github.com/yourusername/filetube-go/internal/domain"
	"go.uber.org/zap"
)

// scanColumns visits cells column by column, then row by row within a column
func scanColumns(ctx context.Context, columns [][]string) ([]string, error) {
	links := []string{}
	for _, column := range columns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, cell := range column {
			links = append(links, domain.ExtractLinks(cell)...)
		}
	}
	return links, nil
}

// CSVExtractor extracts links from comma separated tables
type CSVExtractor struct{}

// NewCSVExtractor creates a new CSV extractor
func NewCSVExtractor() *CSVExtractor {
	return &CSVExtractor{}
}

// Format returns the document format this extractor handles
func (e *CSVExtractor) Format() domain.DocumentFormat {
	return domain.FormatCSV
}

// Extract parses the table and scans it column-major. Rows shorter than the
// header are padded with empty cells; longer rows make the table malformed.
func (e *CSVExtractor) Extract(ctx context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIO, err)
	}
	defer f.Close()

	records, err := readCSV(f)
	if err != nil {
		return nil, err
	}

	return scanColumns(ctx, transpose(records))
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, fmt.Errorf("%w: %w", domain.ErrTableParse, parseErr)
			}
			return nil, fmt.Errorf("%w: %w", domain.ErrIO, err)
		}
		if len(records) > 0 && len(record) > len(records[0]) {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("%w: record on line %d: %d fields, header has %d",
				domain.ErrTableParse, line, len(record), len(records[0]))
		}
		records = append(records, record)
	}
}

// transpose turns rows into columns, padding short rows with empty cells
func transpose(rows [][]string) [][]string {
	if len(rows) == 0 {
		return nil
	}
	columns := make([][]string, len(rows[0]))
	for c := range columns {
		columns[c] = make([]string, len(rows))
		for r, row := range rows {
			if c < len(row) {
				columns[c][r] = row[c]
			}
		}
	}
	return columns
}

// SpreadsheetExtractor extracts links from XLSX workbooks
type SpreadsheetExtractor struct {
	logger *zap.Logger
}

// NewSpreadsheetExtractor creates a new spreadsheet extractor
func NewSpreadsheetExtractor(logger *zap.Logger) *SpreadsheetExtractor {
	return &SpreadsheetExtractor{logger: logger}
}

// Format returns the document format this extractor handles
func (e *SpreadsheetExtractor) Format() domain.DocumentFormat {
	return domain.FormatSpreadsheet
}

// Extract scans every sheet in workbook order, column-major within a sheet
func (e *SpreadsheetExtractor) Extract(ctx context.Context, path string) ([]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIO, err)
	}

	book, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTableParse, err)
	}
	defer func() {
		if err := book.Close(); err != nil {
			e.logger.Warn("Failed to close workbook", zap.String("file", path), zap.Error(err))
		}
	}()

	links := []string{}
	for _, sheet := range book.GetSheetList() {
		columns, err := book.GetCols(sheet)
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %q: %w", domain.ErrTableParse, sheet, err)
		}

		found, err := scanColumns(ctx, columns)
		if err != nil {
			return nil, err
		}
		e.logger.Debug("Scanned sheet",
			zap.String("file", path),
			zap.String("sheet", sheet),
			zap.Int("links", len(found)))
		links = append(links, found...)
	}

	return links, nil
}
