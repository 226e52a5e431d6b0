package domain

import (
	"fmt"
	"strings"
)

// QualityHighest is the token requesting the best available resolution
const QualityHighest = "highest"

// QualityRequest selects which stream variant to download
type QualityRequest struct {
	Highest bool
	Label   string
}

// ParseQuality parses a quality token such as "highest" or "720p"
func ParseQuality(token string) (QualityRequest, error) {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return QualityRequest{}, fmt.Errorf("%w: quality must not be empty", ErrInvalidInput)
	}
	if token == QualityHighest {
		return QualityRequest{Highest: true}, nil
	}
	return QualityRequest{Label: token}, nil
}

// String returns the token form of the request
func (q QualityRequest) String() string {
	if q.Highest {
		return QualityHighest
	}
	return q.Label
}
