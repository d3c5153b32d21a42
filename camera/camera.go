// Package camera provides a 2D camera system for viewport control.
package camera

import "github.com/pthm-cable/flap/systems"

// Camera controls the viewport into the playfield.
// The playfield is bounded; the view never scrolls past its edges.
type Camera struct {
	// Position is the camera center in world coordinates
	X, Y float32

	// Zoom level relative to the fitted view (1.0 = whole playfield visible)
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// World dimensions
	WorldW, WorldH float32

	// Zoom constraints
	MinZoom, MaxZoom float32

	// fit is the scale that shows the whole playfield in the viewport
	fit float32
}

// New creates a camera that fits the whole playfield in the viewport.
func New(viewportW, viewportH, worldW, worldH float32) *Camera {
	c := &Camera{
		X:         worldW / 2,
		Y:         worldH / 2,
		Zoom:      1.0,
		ViewportW: viewportW,
		ViewportH: viewportH,
		WorldW:    worldW,
		WorldH:    worldH,
		MinZoom:   1.0,
		MaxZoom:   4.0,
	}
	c.fit = fitScale(viewportW, viewportH, worldW, worldH)
	return c
}

func fitScale(vw, vh, ww, wh float32) float32 {
	if ww <= 0 || wh <= 0 {
		return 1
	}
	return min(vw/ww, vh/wh)
}

// Scale returns screen pixels per world unit.
func (c *Camera) Scale() float32 {
	return c.fit * c.Zoom
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	s := c.Scale()
	sx = c.ViewportW/2 + (wx-c.X)*s
	sy = c.ViewportH/2 + (wy-c.Y)*s
	return sx, sy
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	s := c.Scale()
	wx = c.X + (sx-c.ViewportW/2)/s
	wy = c.Y + (sy-c.ViewportH/2)/s
	return wx, wy
}

// RectToScreen converts a world rectangle to screen x, y, width and height.
func (c *Camera) RectToScreen(r systems.Rect) (x, y, w, h float32) {
	x, y = c.WorldToScreen(float32(r.Left), float32(r.Top))
	s := c.Scale()
	return x, y, float32(r.Width()) * s, float32(r.Height()) * s
}

// IsVisible returns true if a world rectangle overlaps the viewport.
func (c *Camera) IsVisible(r systems.Rect) bool {
	minX, minY, maxX, maxY := c.VisibleWorldBounds()
	return float32(r.Right) > minX && float32(r.Left) < maxX &&
		float32(r.Bottom) > minY && float32(r.Top) < maxY
}

// Resize updates viewport dimensions and refits the playfield.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.fit = fitScale(viewportW, viewportH, c.WorldW, c.WorldH)
	c.clampCenter()
}

// Pan moves the camera by the given delta in screen pixels.
func (c *Camera) Pan(dx, dy float32) {
	s := c.Scale()
	c.X += dx / s
	c.Y += dy / s
	c.clampCenter()
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
	c.clampCenter()
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset returns the camera to the fitted view.
func (c *Camera) Reset() {
	c.X = c.WorldW / 2
	c.Y = c.WorldH / 2
	c.Zoom = 1.0
}

// VisibleWorldBounds returns the world-coordinate bounds of the visible area.
func (c *Camera) VisibleWorldBounds() (minX, minY, maxX, maxY float32) {
	s := c.Scale()
	halfW := c.ViewportW / (2 * s)
	halfH := c.ViewportH / (2 * s)
	return c.X - halfW, c.Y - halfH, c.X + halfW, c.Y + halfH
}

// clampCenter keeps the view inside the playfield on each axis where the
// playfield is larger than the view, and centered where it is smaller.
func (c *Camera) clampCenter() {
	s := c.Scale()
	c.X = clampAxis(c.X, c.ViewportW/(2*s), c.WorldW)
	c.Y = clampAxis(c.Y, c.ViewportH/(2*s), c.WorldH)
}

func clampAxis(center, half, size float32) float32 {
	if 2*half >= size {
		return size / 2
	}
	return clamp(center, half, size-half)
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
