package app

import (
	"fmt"

	"github.com/yourusername/filetube-go/internal/domain"
)

// Selection describes how a variant was chosen
type Selection struct {
	Requested string
	Chosen    string
	FellBack  bool
}

// SelectVariant picks the variant matching the quality request. "highest"
// takes the first variant of maximum resolution. An explicit label takes the
// first exact match and falls back to the highest variant when none matches.
func SelectVariant(variants []domain.StreamVariant, request domain.QualityRequest) (domain.StreamVariant, Selection, error) {
	sel := Selection{Requested: request.String()}
	if len(variants) == 0 {
		return domain.StreamVariant{}, sel, domain.ErrNoStreamAvailable
	}

	if !request.Highest {
		for _, v := range variants {
			if v.Resolution == request.Label {
				sel.Chosen = v.Resolution
				return v, sel, nil
			}
		}
		sel.FellBack = true
	}

	best := highestVariant(variants)
	sel.Chosen = best.Resolution
	return best, sel, nil
}

// highestVariant returns the first variant with the maximum rank
func highestVariant(variants []domain.StreamVariant) domain.StreamVariant {
	best := variants[0]
	for _, v := range variants[1:] {
		if v.Rank() > best.Rank() {
			best = v
		}
	}
	return best
}

// fallbackError describes a resolution fallback for logs
func fallbackError(sel Selection, link string) error {
	return fmt.Errorf("%w: video with resolution %s not available for %s", domain.ErrResolutionUnavailable, sel.Requested, link)
}
