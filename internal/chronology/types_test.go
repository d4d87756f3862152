package chronology

import "testing"

func TestSegment_PageCount(t *testing.T) {
	tests := []struct {
		seg  Segment
		want int
	}{
		{Segment{StartPage: 1, EndPage: 10}, 10},
		{Segment{StartPage: 5, EndPage: 5}, 1},
		{Segment{StartPage: 6, EndPage: 5}, 0},
	}
	for _, tt := range tests {
		if got := tt.seg.PageCount(); got != tt.want {
			t.Errorf("PageCount(%d-%d) = %d, want %d", tt.seg.StartPage, tt.seg.EndPage, got, tt.want)
		}
	}
}

func TestSegment_ContainsPage(t *testing.T) {
	seg := Segment{StartPage: 10, EndPage: 20}
	for page, want := range map[int]bool{9: false, 10: true, 15: true, 20: true, 21: false} {
		if got := seg.ContainsPage(page); got != want {
			t.Errorf("ContainsPage(%d) = %v, want %v", page, got, want)
		}
	}
}

func TestRequiredFields(t *testing.T) {
	for _, vt := range []VisitType{VisitOfficeVisit, VisitHospitalization, VisitImaging, VisitLab, VisitProcedure} {
		if len(RequiredFields(vt)) == 0 {
			t.Errorf("RequiredFields(%s) is empty", vt)
		}
	}
	if RequiredFields("other") != nil {
		t.Error("RequiredFields for an unknown type should be nil")
	}
}
