package extract

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/casechron/casechron/internal/chronology"
)

// entrySchema validates one parsed entry before it enters the pipeline.
// Lenient on purpose: only a date is required, everything else is recovered
// or flagged downstream.
const entrySchema = `{
	"type": "object",
	"required": ["date"],
	"properties": {
		"date": {"type": "string"},
		"provider": {"type": "string"},
		"facility": {"type": "string"},
		"visit_type": {"type": "string"},
		"fields": {"type": "object"},
		"source_ref": {
			"type": "object",
			"properties": {
				"page": {"type": "integer"},
				"offset": {"type": "integer"}
			}
		}
	}
}`

// Parser turns raw model replies into entries, repairing truncated or
// fence-wrapped JSON along the way.
//
// A non-nil error marks the reply unusable after repair; it signals a chunk
// failure to the caller and never aborts sibling chunks.
type Parser struct {
	logger *slog.Logger
	schema *jsonschema.Schema
}

// NewParser creates a parser. The entry schema is compiled once here.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{
		logger: logger.With("component", "parser"),
		schema: jsonschema.MustCompileString("entry.json", entrySchema),
	}
}

// entryJSON is the wire shape of one entry in a model reply.
type entryJSON struct {
	Date      string         `json:"date"`
	Provider  string         `json:"provider"`
	Facility  string         `json:"facility"`
	VisitType string         `json:"visit_type"`
	Fields    map[string]any `json:"fields"`
	SourceRef struct {
		Page   int `json:"page"`
		Offset int `json:"offset"`
	} `json:"source_ref"`
}

// Parse parses a model reply into entries. repaired reports whether the
// repair path ran. The returned error means the reply was unusable even
// after repair; callers record it as a failed chunk.
func (p *Parser) Parse(raw string) (entries []chronology.Entry, repaired bool, err error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, false, fmt.Errorf("empty model reply")
	}

	// Primary path: strict parse, with fence stripping and array extraction
	// as cheap candidates before structural repair.
	candidates := []string{trimmed}
	if stripped := stripCodeFences(trimmed); stripped != "" && stripped != trimmed {
		candidates = append(candidates, stripped)
	}
	if extracted := extractArrayCandidate(trimmed); extracted != "" && extracted != trimmed {
		candidates = append(candidates, extracted)
	}

	for i, candidate := range candidates {
		if out, ok := p.parseStrict(candidate); ok {
			return out, i > 0, nil
		}
	}

	// Repair path: trim the trailing incomplete element and re-parse.
	base := extractArrayCandidate(trimmed)
	if base == "" {
		base = trimmed
	}
	if fixed, ok := trimToLastCompleteElement(base); ok {
		if out, ok := p.parseStrict(fixed); ok {
			p.logger.Warn("repaired truncated model reply", "kept_entries", len(out))
			return out, true, nil
		}
	}

	return nil, true, fmt.Errorf("unparsable model reply after repair")
}

// parseStrict attempts a strict JSON-array parse of candidate, validating
// and converting each element. Elements failing schema validation are
// dropped, not fatal.
func (p *Parser) parseStrict(candidate string) ([]chronology.Entry, bool) {
	var rawEntries []json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &rawEntries); err != nil {
		return nil, false
	}

	entries := make([]chronology.Entry, 0, len(rawEntries))
	for i, re := range rawEntries {
		var doc any
		if err := json.Unmarshal(re, &doc); err != nil {
			return nil, false
		}
		if err := p.schema.Validate(doc); err != nil {
			p.logger.Warn("dropping entry failing schema validation", "index", i, "error", err)
			continue
		}

		var ej entryJSON
		if err := json.Unmarshal(re, &ej); err != nil {
			p.logger.Warn("dropping unmappable entry", "index", i, "error", err)
			continue
		}
		entries = append(entries, convertEntry(ej))
	}
	return entries, true
}

// convertEntry maps a wire entry to the domain type.
func convertEntry(ej entryJSON) chronology.Entry {
	fields := make(map[string]string, len(ej.Fields))
	for k, v := range ej.Fields {
		switch s := v.(type) {
		case string:
			fields[k] = s
		case nil:
			// skip
		default:
			fields[k] = fmt.Sprintf("%v", v)
		}
	}

	vt := chronology.VisitType(ej.VisitType)
	if ej.VisitType == "" {
		vt = "other"
	}

	return chronology.Entry{
		Date:      ej.Date,
		Provider:  ej.Provider,
		Facility:  ej.Facility,
		VisitType: vt,
		Fields:    fields,
		SourceRef: chronology.SourceRef{Page: ej.SourceRef.Page, Offset: ej.SourceRef.Offset},
	}
}

// stripCodeFences removes a surrounding markdown code fence, if present.
func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return ""
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return ""
	}

	// Drop first fence line.
	lines = lines[1:]
	// Drop trailing fence if present.
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// extractArrayCandidate returns the substring from the first '[' through the
// end of content (through the last ']' when one exists). This isolates the
// JSON array from any surrounding prose, keeping a truncated tail intact for
// the repair pass.
func extractArrayCandidate(content string) string {
	start := strings.Index(content, "[")
	if start < 0 {
		return ""
	}
	end := strings.LastIndex(content, "]")
	if end > start {
		return strings.TrimSpace(content[start : end+1])
	}
	return strings.TrimSpace(content[start:])
}

// trimToLastCompleteElement cuts a truncated JSON array after the last
// well-formed top-level element and closes it. s must begin with '['.
func trimToLastCompleteElement(s string) (string, bool) {
	if !strings.HasPrefix(s, "[") {
		return "", false
	}

	depth := 0
	inStr := false
	esc := false
	last := -1

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inStr {
			switch {
			case esc:
				esc = false
			case c == '\\':
				esc = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			// Back at the array's own level means one element just closed.
			if depth == 1 {
				last = i
			}
		}
	}

	if last < 0 {
		return "", false
	}
	return s[:last+1] + "]", true
}
