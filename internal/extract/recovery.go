package extract

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/casechron/casechron/internal/chronology"
	"github.com/casechron/casechron/internal/pdfport"
	"github.com/casechron/casechron/internal/prompts"
)

// DefaultMaxRecoveryPages caps the page span of one recovery vision call.
const DefaultMaxRecoveryPages = 4

// placeholders are field values that carry no information.
var placeholders = map[string]struct{}{
	"n/a": {}, "na": {}, "none": {}, "unknown": {}, "-": {}, "not documented": {},
}

// IsSparse reports whether an entry lacks every required field for its
// declared visit type. Entries of unrecognized visit types are never sparse.
func IsSparse(e chronology.Entry) bool {
	required := chronology.RequiredFields(e.VisitType)
	if required == nil {
		return false
	}
	for _, name := range required {
		v := strings.ToLower(strings.TrimSpace(e.Fields[name]))
		if v == "" {
			continue
		}
		if _, placeholder := placeholders[v]; !placeholder {
			return false
		}
	}
	return true
}

// RecoveryPass re-extracts sparse entries' pages through the vision
// strategy, at most once per entry.
type RecoveryPass struct {
	vision          *VisionStrategy
	maxPagesPerCall int
	logger          *slog.Logger
}

// NewRecoveryPass wires a recovery pass. maxPagesPerCall <= 0 uses the default.
func NewRecoveryPass(vision *VisionStrategy, maxPagesPerCall int, logger *slog.Logger) *RecoveryPass {
	if maxPagesPerCall <= 0 {
		maxPagesPerCall = DefaultMaxRecoveryPages
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RecoveryPass{
		vision:          vision,
		maxPagesPerCall: maxPagesPerCall,
		logger:          logger.With("component", "recovery"),
	}
}

// Recover flags sparse entries in result, re-extracts their pages via
// vision, and replaces each sparse entry with its best-matching recovered
// counterpart when that counterpart is itself informative.
//
// Lifecycle per entry: a successful replacement sets Recovered and clears
// Sparse; a failed or still-sparse recovery leaves Sparse set and Recovered
// false. No entry is ever recovered twice, even if its replacement is
// sparse.
func (rp *RecoveryPass) Recover(ctx context.Context, seg chronology.Segment, result chronology.SegmentResult) chronology.SegmentResult {
	var sparseIdx []int
	for i := range result.Entries {
		if result.Entries[i].Recovered {
			continue
		}
		if IsSparse(result.Entries[i]) {
			result.Entries[i].Sparse = true
			sparseIdx = append(sparseIdx, i)
		}
	}
	if len(sparseIdx) == 0 {
		return result
	}

	log := rp.logger.With("segment", seg.ID)
	log.Info("recovering sparse entries", "count", len(sparseIdx))

	pages := make([]int, 0, len(sparseIdx))
	seen := make(map[int]struct{})
	for _, i := range sparseIdx {
		p := clampPage(result.Entries[i].SourceRef.Page, seg)
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			pages = append(pages, p)
		}
	}
	sort.Ints(pages)

	// One vision call per contiguous run of pages, bounded per call.
	var candidates []chronology.Entry
	for _, pr := range coalescePages(pages, rp.maxPagesPerCall) {
		sub := rp.vision.ExtractRange(ctx, seg, pr, prompts.KeyRecovery)
		if sub.PartialFailure {
			log.Warn("recovery vision call failed", "start", pr.Start, "end", pr.End, "error", sub.Err)
			continue
		}
		candidates = append(candidates, sub.Entries...)
	}

	used := make([]bool, len(candidates))
	recovered := 0
	for _, i := range sparseIdx {
		entry := result.Entries[i]
		page := clampPage(entry.SourceRef.Page, seg)

		best := -1
		for c := range candidates {
			if used[c] || IsSparse(candidates[c]) {
				continue
			}
			if clampPage(candidates[c].SourceRef.Page, seg) != page {
				continue
			}
			if best < 0 || candidates[c].Date == entry.Date {
				best = c
			}
			if candidates[c].Date == entry.Date {
				break
			}
		}
		if best < 0 {
			continue
		}

		used[best] = true
		replacement := candidates[best]
		replacement.Recovered = true
		replacement.Sparse = false
		result.Entries[i] = replacement
		recovered++
	}

	log.Info("recovery pass complete", "sparse", len(sparseIdx), "recovered", recovered)
	return result
}

// clampPage forces a page hint into the segment's range. Hints of 0 or less
// (model could not see a page number) map to the segment start.
func clampPage(page int, seg chronology.Segment) int {
	if page < seg.StartPage {
		return seg.StartPage
	}
	if page > seg.EndPage {
		return seg.EndPage
	}
	return page
}

// coalescePages groups sorted distinct pages into contiguous ranges of at
// most maxPages pages each.
func coalescePages(pages []int, maxPages int) []pdfport.PageRange {
	var ranges []pdfport.PageRange
	for _, p := range pages {
		n := len(ranges)
		if n > 0 && p == ranges[n-1].End+1 && ranges[n-1].Pages() < maxPages {
			ranges[n-1].End = p
			continue
		}
		ranges = append(ranges, pdfport.PageRange{Start: p, End: p})
	}
	return ranges
}
