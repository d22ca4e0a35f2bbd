package pagination

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name              string
		page, perPage     int32
		wantPage, wantPer int32
	}{
		{"defaults", 0, 0, 1, DefaultPerPage},
		{"negative page", -3, 10, 1, 10},
		{"over max", 2, 500, 2, MaxPerPage},
		{"in range", 4, 50, 4, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, pp := Normalize(tt.page, tt.perPage)
			if p != tt.wantPage || pp != tt.wantPer {
				t.Errorf("Normalize(%d, %d) = (%d, %d), want (%d, %d)",
					tt.page, tt.perPage, p, pp, tt.wantPage, tt.wantPer)
			}
		})
	}
}

func TestNew(t *testing.T) {
	p := New(2, 20, 41)
	if p.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", p.TotalPages)
	}
	if p.Total != 41 || p.Page != 2 || p.PerPage != 20 {
		t.Errorf("unexpected page: %+v", p)
	}

	empty := New(1, 20, 0)
	if empty.TotalPages != 0 || empty.Total != 0 {
		t.Errorf("empty listing should be zero-filled, got %+v", empty)
	}
}

func TestOffset(t *testing.T) {
	if got := Offset(1, 20); got != 0 {
		t.Errorf("Offset(1, 20) = %d, want 0", got)
	}
	if got := Offset(3, 25); got != 50 {
		t.Errorf("Offset(3, 25) = %d, want 50", got)
	}
}
