package domain

import (
	"context"
	"errors"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrUnsupportedFormat     = errors.New("unsupported file format")
	ErrDocumentOpen          = errors.New("cannot open document")
	ErrIO                    = errors.New("cannot read file")
	ErrTableParse            = errors.New("malformed table")
	ErrResolve               = errors.New("cannot resolve video")
	ErrNoStreamAvailable     = errors.New("no stream available")
	ErrResolutionUnavailable = errors.New("resolution not available")
	ErrTransport             = errors.New("transport error")
	ErrNotFound              = errors.New("not found")
)

// ErrorKind maps an error to the stable category stored on outcomes
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrDocumentOpen):
		return "document_open"
	case errors.Is(err, ErrIO):
		return "io"
	case errors.Is(err, ErrTableParse):
		return "table_parse"
	case errors.Is(err, ErrResolve):
		return "resolve"
	case errors.Is(err, ErrNoStreamAvailable):
		return "no_stream"
	case errors.Is(err, ErrResolutionUnavailable):
		return "resolution_unavailable"
	case errors.Is(err, ErrTransport):
		return "transport"
	default:
		return "unknown"
	}
}
