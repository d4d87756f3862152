package extract

import (
	"log/slog"

	"github.com/casechron/casechron/internal/chronology"
)

// CitationResolver maps each entry's segment-local page hint to a stable
// (exhibit, page) citation.
type CitationResolver struct {
	logger *slog.Logger
}

// NewCitationResolver creates a resolver.
func NewCitationResolver(logger *slog.Logger) *CitationResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &CitationResolver{logger: logger.With("component", "citations")}
}

// Resolve stamps a citation onto every entry in result. Out-of-range hints
// clamp to the nearest valid page within the segment and count as a
// non-fatal warning. Two entries citing the same page is legitimate and is
// not deduplicated.
func (r *CitationResolver) Resolve(seg chronology.Segment, result chronology.SegmentResult) chronology.SegmentResult {
	for i := range result.Entries {
		hint := result.Entries[i].SourceRef.Page
		page := clampPage(hint, seg)
		if hint != page {
			result.Warnings++
			r.logger.Debug("clamped out-of-range citation",
				"segment", seg.ID, "hint", hint, "page", page)
		}
		result.Entries[i].Citation = &chronology.Citation{
			ExhibitID: seg.ID,
			Page:      page,
		}
	}
	return result
}
