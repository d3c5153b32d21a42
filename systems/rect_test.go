package systems

import "testing"

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want bool
	}{
		{"identical", RectXYWH(0, 0, 10, 10), RectXYWH(0, 0, 10, 10), true},
		{"partial", RectXYWH(0, 0, 10, 10), RectXYWH(5, 5, 10, 10), true},
		{"contained", RectXYWH(0, 0, 100, 100), RectXYWH(40, 40, 10, 10), true},
		{"touching right edge", RectXYWH(0, 0, 10, 10), RectXYWH(10, 0, 10, 10), false},
		{"touching bottom edge", RectXYWH(0, 0, 10, 10), RectXYWH(0, 10, 10, 10), false},
		{"separate horizontally", RectXYWH(0, 0, 10, 10), RectXYWH(20, 0, 10, 10), false},
		{"separate vertically", RectXYWH(0, 0, 10, 10), RectXYWH(0, 30, 10, 10), false},
		{"zero area inside", RectXYWH(0, 0, 10, 10), RectXYWH(5, 5, 0, 0), false},
		{"bird against top pipe", RectXYWH(230, 100, 30, 30), Rect{Left: 240, Top: -1e6, Right: 320, Bottom: 120}, true},
		{"bird inside gap", RectXYWH(230, 150, 30, 30), Rect{Left: 240, Top: -1e6, Right: 320, Bottom: 120}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.a, tt.b); got != tt.want {
				t.Errorf("Overlaps(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := Overlaps(tt.b, tt.a); got != tt.want {
				t.Errorf("Overlaps is not symmetric for %v and %v", tt.a, tt.b)
			}
		})
	}
}

func TestRectXYWH(t *testing.T) {
	r := RectXYWH(230, 350, 30, 30)
	if r.Left != 230 || r.Top != 350 || r.Right != 260 || r.Bottom != 380 {
		t.Errorf("RectXYWH = %+v", r)
	}
	if r.Width() != 30 || r.Height() != 30 {
		t.Errorf("size = %vx%v, want 30x30", r.Width(), r.Height())
	}
}
