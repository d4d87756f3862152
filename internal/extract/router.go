package extract

import (
	"strings"

	"github.com/casechron/casechron/internal/chronology"
)

// DefaultMinCharsPerPage is the density threshold below which a segment is
// treated as scanned-image content. Tunable via config, not derived.
const DefaultMinCharsPerPage = 200.0

// Router decides, per segment, whether to extract from the text layer or
// from rendered page images.
type Router struct {
	// MinCharsPerPage is the text-density threshold. Segments whose
	// extracted text averages fewer characters per page route to vision.
	MinCharsPerPage float64
}

// NewRouter creates a router with the given threshold; <= 0 uses the default.
func NewRouter(minCharsPerPage float64) *Router {
	if minCharsPerPage <= 0 {
		minCharsPerPage = DefaultMinCharsPerPage
	}
	return &Router{MinCharsPerPage: minCharsPerPage}
}

// Route picks the strategy for a segment from its extracted text density.
// Pure and deterministic.
func (r *Router) Route(seg chronology.Segment, extractedText string) chronology.Strategy {
	pages := seg.PageCount()
	if pages <= 0 {
		return chronology.StrategyVision
	}
	charsPerPage := float64(len(strings.TrimSpace(extractedText))) / float64(pages)
	if charsPerPage < r.MinCharsPerPage {
		return chronology.StrategyVision
	}
	return chronology.StrategyText
}
