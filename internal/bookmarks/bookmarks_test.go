package bookmarks

import "testing"

func TestParseTitle(t *testing.T) {
	tests := []struct {
		raw   string
		id    string
		tag   string
		title string
	}{
		{"1F: Office Treatment Records", "1F", "F", "Office Treatment Records"},
		{"Exhibit 12A: Disability Report", "12A", "A", "Disability Report"},
		{"3F - Progress Notes", "3F", "F", "Progress Notes"},
		{"7D", "7D", "D", "7D"},
		{"2F Hospital Records - Mercy General", "2F", "F", "Hospital Records - Mercy General"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			id, tag, title := parseTitle(tt.raw, 0)
			if id != tt.id || tag != tt.tag || title != tt.title {
				t.Errorf("parseTitle(%q) = (%q, %q, %q), want (%q, %q, %q)",
					tt.raw, id, tag, title, tt.id, tt.tag, tt.title)
			}
		})
	}
}

func TestParseTitle_Fallback(t *testing.T) {
	for i, raw := range []string{"Cover Letter", "Medical Records", ""} {
		id, tag, title := parseTitle(raw, i)
		wantID := []string{"EX-1", "EX-2", "EX-3"}[i]
		if id != wantID {
			t.Errorf("parseTitle(%q) id = %q, want %q", raw, id, wantID)
		}
		if tag != "" {
			t.Errorf("parseTitle(%q) tag = %q, want empty", raw, tag)
		}
		if title != raw {
			t.Errorf("parseTitle(%q) title = %q", raw, title)
		}
	}
}

// Titles like "10 Main St" have a digit run but no section letter and must
// not be mistaken for exhibits.
func TestParseTitle_DigitsWithoutSection(t *testing.T) {
	id, tag, _ := parseTitle("10 Main Street Clinic", 4)
	if id != "EX-5" || tag != "" {
		t.Errorf("parseTitle() = (%q, %q), want fallback", id, tag)
	}
}
