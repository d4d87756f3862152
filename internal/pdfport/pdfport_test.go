package pdfport

import "testing"

func TestPageRange_Pages(t *testing.T) {
	tests := []struct {
		pr   PageRange
		want int
	}{
		{PageRange{Start: 1, End: 4}, 4},
		{PageRange{Start: 7, End: 7}, 1},
		{PageRange{Start: 5, End: 4}, 0},
	}
	for _, tt := range tests {
		if got := tt.pr.Pages(); got != tt.want {
			t.Errorf("Pages(%d-%d) = %d, want %d", tt.pr.Start, tt.pr.End, got, tt.want)
		}
	}
}
