package extract

import (
	"strings"
	"testing"

	"github.com/casechron/casechron/internal/chronology"
)

func TestRouter_Route(t *testing.T) {
	r := NewRouter(200)
	seg := chronology.Segment{ID: "1F", StartPage: 1, EndPage: 10}

	tests := []struct {
		name string
		text string
		want chronology.Strategy
	}{
		{"dense text", strings.Repeat("a", 5000), chronology.StrategyText},
		{"exactly at threshold", strings.Repeat("a", 2000), chronology.StrategyText},
		{"just under threshold", strings.Repeat("a", 1999), chronology.StrategyVision},
		{"empty text layer", "", chronology.StrategyVision},
		{"whitespace only", strings.Repeat(" \n", 3000), chronology.StrategyVision},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Route(seg, tt.text); got != tt.want {
				t.Errorf("Route() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRouter_ZeroPages(t *testing.T) {
	r := NewRouter(200)
	seg := chronology.Segment{ID: "bad", StartPage: 5, EndPage: 4}
	if got := r.Route(seg, "plenty of text"); got != chronology.StrategyVision {
		t.Errorf("Route() = %v, want vision for empty page range", got)
	}
}

func TestRouter_DefaultThreshold(t *testing.T) {
	r := NewRouter(0)
	if r.MinCharsPerPage != DefaultMinCharsPerPage {
		t.Errorf("MinCharsPerPage = %v, want default", r.MinCharsPerPage)
	}
}
