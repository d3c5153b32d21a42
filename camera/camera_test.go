package camera

import (
	"math"
	"testing"

	"github.com/pthm-cable/flap/systems"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 0.01
}

func TestNew(t *testing.T) {
	cam := New(600, 800, 600, 800)

	// Should be centered on world
	if cam.X != 300 || cam.Y != 400 {
		t.Errorf("expected camera at (300, 400), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != 1.0 || cam.Scale() != 1.0 {
		t.Errorf("expected zoom and scale 1.0, got %f, %f", cam.Zoom, cam.Scale())
	}
}

func TestFitLetterboxes(t *testing.T) {
	// Wide window: height limits the scale
	cam := New(1200, 400, 600, 800)
	if !near(cam.Scale(), 0.5) {
		t.Fatalf("expected scale 0.5, got %f", cam.Scale())
	}

	// Playfield corners land centered horizontally
	sx, sy := cam.WorldToScreen(0, 0)
	if !near(sx, 450) || !near(sy, 0) {
		t.Errorf("top-left at (%f, %f), want (450, 0)", sx, sy)
	}
	sx, sy = cam.WorldToScreen(600, 800)
	if !near(sx, 750) || !near(sy, 400) {
		t.Errorf("bottom-right at (%f, %f), want (750, 400)", sx, sy)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1280, 720, 600, 800)
	cam.SetZoom(2)
	cam.Pan(50, -30)

	testCases := []struct{ sx, sy float32 }{
		{640, 360},
		{100, 100},
		{1200, 600},
	}

	for _, tc := range testCases {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wy)
		if !near(sx, tc.sx) || !near(sy, tc.sy) {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestRectToScreen(t *testing.T) {
	cam := New(300, 400, 600, 800)
	x, y, w, h := cam.RectToScreen(systems.RectXYWH(230, 350, 30, 30))
	if !near(x, 115) || !near(y, 175) || !near(w, 15) || !near(h, 15) {
		t.Errorf("got (%f, %f, %f, %f)", x, y, w, h)
	}
}

func TestPanClampsToPlayfield(t *testing.T) {
	cam := New(600, 800, 600, 800)

	// Whole playfield visible: panning has no effect
	cam.Pan(500, 500)
	if cam.X != 300 || cam.Y != 400 {
		t.Errorf("fitted view moved to (%f, %f)", cam.X, cam.Y)
	}

	cam.SetZoom(2)
	cam.Pan(10000, -10000)
	minX, minY, maxX, _ := cam.VisibleWorldBounds()
	if !near(maxX, 600) || !near(minY, 0) {
		t.Errorf("view escaped the playfield: x<=%f y>=%f", maxX, minY)
	}
	if minX < 0 {
		t.Errorf("minX = %f", minX)
	}
}

func TestZoomClamping(t *testing.T) {
	cam := New(600, 800, 600, 800)

	cam.SetZoom(100)
	if cam.Zoom != cam.MaxZoom {
		t.Errorf("expected zoom clamped to max %f, got %f", cam.MaxZoom, cam.Zoom)
	}

	cam.SetZoom(0.01)
	if cam.Zoom != cam.MinZoom {
		t.Errorf("expected zoom clamped to min %f, got %f", cam.MinZoom, cam.Zoom)
	}

	cam.ZoomBy(2)
	if !near(cam.Zoom, 2) {
		t.Errorf("ZoomBy(2) gave %f", cam.Zoom)
	}
}

func TestResizeRefits(t *testing.T) {
	cam := New(600, 800, 600, 800)
	cam.Resize(300, 400)
	if !near(cam.Scale(), 0.5) {
		t.Errorf("expected scale 0.5 after resize, got %f", cam.Scale())
	}
}

func TestIsVisible(t *testing.T) {
	cam := New(600, 800, 600, 800)
	cam.SetZoom(2)
	cam.Pan(-10000, -10000) // top-left quarter

	if !cam.IsVisible(systems.RectXYWH(10, 10, 20, 20)) {
		t.Error("expected top-left rect visible")
	}
	if cam.IsVisible(systems.RectXYWH(500, 700, 20, 20)) {
		t.Error("expected bottom-right rect hidden")
	}
}

func TestReset(t *testing.T) {
	cam := New(600, 800, 600, 800)
	cam.SetZoom(3)
	cam.Pan(100, 100)
	cam.Reset()

	if cam.X != 300 || cam.Y != 400 || cam.Zoom != 1.0 {
		t.Errorf("expected reset to (300, 400, 1.0), got (%f, %f, %f)", cam.X, cam.Y, cam.Zoom)
	}
}
