// Package chronology provides shared types used across the extraction pipeline.
// This package has no dependencies on other casechron packages to avoid import cycles.
package chronology

// Strategy indicates which extraction path processed a segment.
type Strategy string

const (
	// StrategyText extracts from the segment's machine-readable text layer.
	StrategyText Strategy = "text"
	// StrategyVision extracts from rendered page images via a vision model.
	StrategyVision Strategy = "vision"
)

// VisitType categorizes a chronology entry. Unknown values are passed
// through untouched; the sparse-detection policy only covers known types.
type VisitType string

const (
	VisitOfficeVisit     VisitType = "office_visit"
	VisitHospitalization VisitType = "hospitalization"
	VisitImaging         VisitType = "imaging"
	VisitLab             VisitType = "lab"
	VisitProcedure       VisitType = "procedure"
)

// Segment is one exhibit: a labeled, contiguous page range within a case file.
// Segments are produced by bookmark extraction and are immutable once built.
type Segment struct {
	ID         string // Exhibit identifier, e.g. "1F"
	Title      string // Bookmark title, e.g. "Progress Notes - Dr. Alvarez"
	StartPage  int    // First page, 1-indexed, inclusive
	EndPage    int    // Last page, inclusive
	SectionTag string // Section grouping tag, e.g. "F" for medical evidence
}

// PageCount returns the number of pages the segment spans.
func (s Segment) PageCount() int {
	if s.EndPage < s.StartPage {
		return 0
	}
	return s.EndPage - s.StartPage + 1
}

// ContainsPage reports whether page falls inside the segment's range.
func (s Segment) ContainsPage(page int) bool {
	return page >= s.StartPage && page <= s.EndPage
}

// Chunk is a bounded slice of a segment's extracted text, sent to the model
// in one call. Offsets are byte offsets into the segment text; concatenating
// Text over all chunks in Index order reproduces the input exactly.
type Chunk struct {
	SegmentID string
	Index     int
	Text      string
	CharStart int
	CharEnd   int
}

// SourceRef is the model-reported location hint for an entry, local to the
// segment the entry was extracted from.
type SourceRef struct {
	Page   int `json:"page"`   // Absolute page number as seen by the model
	Offset int `json:"offset"` // Approximate char offset within the chunk, -1 if unknown
}

// Citation is the resolved, stable (exhibit, page) reference for an entry.
// The page always falls within the originating segment's range.
type Citation struct {
	ExhibitID string `json:"exhibit_id"`
	Page      int    `json:"page"`
}

// Entry is one chronology event extracted from a segment.
//
// Lifecycle: created by the response parser, possibly replaced in place by the
// recovery pass (Recovered set, Sparse cleared on success), then stamped with a
// Citation by the resolver. Entries are never mutated after the pipeline
// returns them and never shared across segments.
type Entry struct {
	Date      string            `json:"date"` // ISO date or best-effort string from the record
	Provider  string            `json:"provider"`
	Facility  string            `json:"facility"`
	VisitType VisitType         `json:"visit_type"`
	Fields    map[string]string `json:"fields"`
	SourceRef SourceRef         `json:"source_ref"`
	Sparse    bool              `json:"sparse"`
	Recovered bool              `json:"recovered"`
	Citation  *Citation         `json:"citation,omitempty"`
}

// SegmentResult is the unit of work product for one segment.
type SegmentResult struct {
	SegmentID      string   `json:"segment_id"`
	Entries        []Entry  `json:"entries"`
	StrategyUsed   Strategy `json:"strategy_used"`
	PartialFailure bool     `json:"partial_failure"`
	FailedChunks   []int    `json:"failed_chunks,omitempty"`
	Warnings       int      `json:"warnings,omitempty"` // Non-fatal resolver warnings (clamped citations)
	Err            string   `json:"error,omitempty"`    // Set when the whole segment produced nothing
}

// RequiredFields returns the field names at least one of which must be
// populated for an entry of the given visit type to count as informative.
// Returns nil for unrecognized types, which are never considered sparse.
func RequiredFields(vt VisitType) []string {
	switch vt {
	case VisitOfficeVisit:
		return []string{"chief_complaint", "assessment"}
	case VisitHospitalization:
		return []string{"admission_reason", "discharge_summary"}
	case VisitImaging:
		return []string{"findings"}
	case VisitLab:
		return []string{"results"}
	case VisitProcedure:
		return []string{"procedure_name"}
	default:
		return nil
	}
}
