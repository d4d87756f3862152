package extract

import (
	"strings"

	"github.com/casechron/casechron/internal/chronology"
)

// DefaultMaxChunkChars is the default per-chunk character budget.
const DefaultMaxChunkChars = 40000

// SplitChunks splits text into ordered, paragraph-aware chunks of at most
// maxChars characters. Chunks break only at paragraph boundaries
// (blank-line-delimited); consecutive paragraphs are packed greedily. A
// single paragraph longer than maxChars becomes its own oversized chunk
// rather than being truncated.
//
// Concatenating the chunks in index order reproduces text exactly: each
// paragraph span carries its trailing newline run, so no characters are
// lost or duplicated at boundaries.
func SplitChunks(segmentID, text string, maxChars int) []chronology.Chunk {
	if text == "" {
		return nil
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChunkChars
	}

	spans := paragraphSpans(text)

	var chunks []chronology.Chunk
	start := spans[0][0]
	end := start

	flush := func() {
		if end > start {
			chunks = append(chunks, chronology.Chunk{
				SegmentID: segmentID,
				Index:     len(chunks),
				Text:      text[start:end],
				CharStart: start,
				CharEnd:   end,
			})
		}
		start = end
	}

	for _, span := range spans {
		// Would adding this paragraph overflow the budget?
		if span[1]-start > maxChars && end > start {
			flush()
		}
		end = span[1]

		// An oversized paragraph ships alone.
		if end-start > maxChars {
			flush()
		}
	}
	flush()

	return chunks
}

// paragraphSpans returns [start, end) byte spans covering text with no gaps.
// A paragraph extends through its trailing run of blank lines so that
// concatenation is lossless.
func paragraphSpans(text string) [][2]int {
	var spans [][2]int
	start := 0
	i := 0
	for i < len(text) {
		j := strings.Index(text[i:], "\n\n")
		if j < 0 {
			break
		}
		end := i + j + 1
		for end < len(text) && text[end] == '\n' {
			end++
		}
		spans = append(spans, [2]int{start, end})
		start = end
		i = end
	}
	if start < len(text) || len(spans) == 0 {
		spans = append(spans, [2]int{start, len(text)})
	}
	return spans
}
