// Package bookmarks builds exhibit segments from a case file's PDF outline.
//
// Case files arrive with one top-level bookmark per exhibit ("1F: Office
// Treatment Records"). Each bookmark becomes one Segment covering a
// contiguous page range; gaps between bookmarks extend the preceding
// segment so every page belongs to exactly one exhibit.
package bookmarks

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/casechron/casechron/internal/chronology"
)

// exhibitRe matches exhibit-style bookmark titles: "1F", "Exhibit 12A: ...",
// "3F - Progress Notes".
var exhibitRe = regexp.MustCompile(`^(?:Exhibit\s+)?(\d+)([A-Z])\b[\s:.-]*(.*)$`)

// Extract reads the PDF outline and returns one segment per top-level
// bookmark, in document order. pageCount bounds the final segment.
func Extract(path string, pageCount int, logger *slog.Logger) ([]chronology.Segment, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "bookmarks")

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	bms, err := api.Bookmarks(f, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read bookmarks: %w", err)
	}
	if len(bms) == 0 {
		// No outline: the whole file is a single unlabeled exhibit.
		log.Warn("no bookmarks found, treating file as one segment", "pages", pageCount)
		return []chronology.Segment{{
			ID:        "EX-1",
			Title:     "Entire File",
			StartPage: 1,
			EndPage:   pageCount,
		}}, nil
	}

	segments := make([]chronology.Segment, 0, len(bms))
	for i, bm := range bms {
		start := bm.PageFrom
		if start < 1 {
			start = 1
		}

		// End at the page before the next bookmark, or the document end.
		end := pageCount
		if i+1 < len(bms) && bms[i+1].PageFrom > start {
			end = bms[i+1].PageFrom - 1
		}
		if bm.PageThru >= start && bm.PageThru < end {
			end = bm.PageThru
		}
		if end > pageCount {
			end = pageCount
		}

		id, tag, title := parseTitle(bm.Title, i)
		segments = append(segments, chronology.Segment{
			ID:         id,
			Title:      title,
			StartPage:  start,
			EndPage:    end,
			SectionTag: tag,
		})
	}

	log.Info("extracted segments", "count", len(segments))
	return segments, nil
}

// parseTitle splits an exhibit bookmark title into id, section tag, and
// human title. Falls back to a positional id when the title has no exhibit
// marker.
func parseTitle(raw string, index int) (id, tag, title string) {
	raw = strings.TrimSpace(raw)
	if m := exhibitRe.FindStringSubmatch(raw); m != nil {
		id = m[1] + m[2]
		tag = m[2]
		title = strings.TrimSpace(m[3])
		if title == "" {
			title = raw
		}
		return id, tag, title
	}
	return fmt.Sprintf("EX-%d", index+1), "", raw
}
