// Package systems contains the world-level pieces of the simulation:
// collision geometry and the obstacle field.
package systems

// Rect is an axis-aligned rectangle in screen coordinates (y grows downward).
type Rect struct {
	Left, Top, Right, Bottom float64
}

// RectXYWH builds a Rect from its top-left corner and size.
func RectXYWH(x, y, w, h float64) Rect {
	return Rect{Left: x, Top: y, Right: x + w, Bottom: y + h}
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns the vertical extent.
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// Overlaps reports whether two rectangles share interior area.
// Edges that only touch do not count as overlapping.
func Overlaps(a, b Rect) bool {
	return a.Left < b.Right && a.Right > b.Left && a.Top < b.Bottom && a.Bottom > b.Top
}
