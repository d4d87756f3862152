package extract

import (
	"testing"
)

const validReply = `[
	{"date": "2019-03-04", "provider": "Dr. Alvarez", "visit_type": "office_visit",
	 "fields": {"chief_complaint": "back pain", "assessment": "lumbar strain"},
	 "source_ref": {"page": 12, "offset": -1}},
	{"date": "2019-04-18", "provider": "Dr. Alvarez", "visit_type": "lab",
	 "fields": {"results": "CBC within normal limits"},
	 "source_ref": {"page": 14, "offset": -1}}
]`

func TestParser_Strict(t *testing.T) {
	p := NewParser(nil)

	entries, repaired, err := p.Parse(validReply)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if repaired {
		t.Error("repaired = true for a clean reply")
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Date != "2019-03-04" {
		t.Errorf("date = %q", entries[0].Date)
	}
	if entries[0].Fields["chief_complaint"] != "back pain" {
		t.Errorf("chief_complaint = %q", entries[0].Fields["chief_complaint"])
	}
	if entries[1].SourceRef.Page != 14 {
		t.Errorf("page = %d, want 14", entries[1].SourceRef.Page)
	}
}

func TestParser_CodeFences(t *testing.T) {
	p := NewParser(nil)

	entries, repaired, err := p.Parse("```json\n" + validReply + "\n```")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !repaired {
		t.Error("repaired = false, want true for fenced reply")
	}
	if len(entries) != 2 {
		t.Errorf("entries = %d, want 2", len(entries))
	}
}

func TestParser_SurroundingProse(t *testing.T) {
	p := NewParser(nil)

	raw := "Here are the extracted events:\n" + validReply + "\nLet me know if you need more."
	entries, _, err := p.Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("entries = %d, want 2", len(entries))
	}
}

// TestParser_TruncatedRepair verifies the repair path keeps the complete
// leading elements and drops the truncated tail.
func TestParser_TruncatedRepair(t *testing.T) {
	p := NewParser(nil)

	raw := `[{"date": "2020-01-01", "visit_type": "imaging", "fields": {"findings": "no acute process"}},
		{"date": "2020-02-02", "visit_type": "lab", "fields": {"results": "A1c 7.2"}},
		{"date": "2020-03-03", "visit_type": "office_vis`

	entries, repaired, err := p.Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !repaired {
		t.Error("repaired = false, want true")
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[1].Date != "2020-02-02" {
		t.Errorf("second entry date = %q", entries[1].Date)
	}
}

// TestParser_TruncatedMidString covers truncation inside a quoted value
// containing braces.
func TestParser_TruncatedMidString(t *testing.T) {
	p := NewParser(nil)

	raw := `[{"date": "2021-05-05", "fields": {"results": "glucose {high}"}}, {"date": "2021-06-06", "fields": {"results": "trunc`
	entries, _, err := p.Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Fields["results"] != "glucose {high}" {
		t.Errorf("results = %q", entries[0].Fields["results"])
	}
}

// TestParser_Unusable verifies a hopeless reply returns an error and no
// entries rather than panicking or aborting anything.
func TestParser_Unusable(t *testing.T) {
	p := NewParser(nil)

	for _, raw := range []string{
		"",
		"   ",
		"I could not find any medical events in this document.",
		`[{"date": "2020-01-01"`,
	} {
		entries, _, err := p.Parse(raw)
		if err == nil {
			t.Errorf("Parse(%q) error = nil, want error", raw)
		}
		if len(entries) != 0 {
			t.Errorf("Parse(%q) entries = %d, want 0", raw, len(entries))
		}
	}
}

// TestParser_SchemaDropsInvalid verifies entries without a date are dropped
// while valid siblings survive.
func TestParser_SchemaDropsInvalid(t *testing.T) {
	p := NewParser(nil)

	raw := `[{"provider": "Dr. No Date"}, {"date": "2018-09-09", "visit_type": "procedure", "fields": {"procedure_name": "colonoscopy"}}]`
	entries, _, err := p.Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].VisitType != "procedure" {
		t.Errorf("visit_type = %q", entries[0].VisitType)
	}
}

// TestParser_FieldCoercion verifies non-string field values are stringified.
func TestParser_FieldCoercion(t *testing.T) {
	p := NewParser(nil)

	raw := `[{"date": "2022-01-01", "fields": {"results": 7.2, "plan": null}}]`
	entries, _, err := p.Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if entries[0].Fields["results"] != "7.2" {
		t.Errorf("results = %q, want %q", entries[0].Fields["results"], "7.2")
	}
	if _, ok := entries[0].Fields["plan"]; ok {
		t.Error("null field should be omitted")
	}
}

func TestParser_EmptyArray(t *testing.T) {
	p := NewParser(nil)

	entries, repaired, err := p.Parse("[]")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if repaired {
		t.Error("repaired = true for empty array")
	}
	if len(entries) != 0 {
		t.Errorf("entries = %d, want 0", len(entries))
	}
}
