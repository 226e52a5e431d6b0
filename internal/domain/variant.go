package domain

import (
	"context"
	"strconv"
	"strings"
)

// StreamVariant is one fetchable rendition of a video reference
type StreamVariant struct {
	Resolution string `json:"resolution"`
	Size       int64  `json:"size"` // 0 when unknown
	Locator    string `json:"-"`
	Title      string `json:"title"`
	MimeType   string `json:"mime_type,omitempty"`
	Itag       int    `json:"itag,omitempty"`
	HasAudio   bool   `json:"has_audio"`
}

// Rank returns the numeric ordering key of the variant resolution
func (v StreamVariant) Rank() int {
	return ResolutionRank(v.Resolution)
}

// SizeKnown reports whether the variant declares its byte size
func (v StreamVariant) SizeKnown() bool {
	return v.Size > 0
}

// Media is a resolved video reference with its available variants
type Media struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Author   string          `json:"author,omitempty"`
	Variants []StreamVariant `json:"variants"`
}

// StreamResolver turns a video reference into fetchable variants
type StreamResolver interface {
	Resolve(ctx context.Context, link string) (*Media, error)
}

// ResolutionRank parses the leading pixel height of a resolution label.
// "1080p60" ranks 1080; labels without a leading number rank 0.
func ResolutionRank(label string) int {
	label = strings.TrimSpace(label)
	end := 0
	for end < len(label) && label[end] >= '0' && label[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(label[:end])
	if err != nil {
		return 0
	}
	return n
}
