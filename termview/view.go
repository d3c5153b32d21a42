package termview

import (
	"fmt"

	"github.com/pthm-cable/flap/game"
	"github.com/pthm-cable/flap/systems"
)

// hudRows is reserved above the playfield for the status line.
const hudRows = 1

// View draws snapshots onto a canvas sized to a terminal.
type View struct {
	canvas *Canvas
	cw     *ChunkWriter
}

// NewView creates a view for a cols x rows terminal.
func NewView(cw *ChunkWriter, cols, rows int, snap game.FrameSnapshot) *View {
	return &View{
		canvas: NewCanvas(cols, max(rows-hudRows, 1), snap.Width, snap.Height),
		cw:     cw,
	}
}

// Resize adapts the view to a new terminal size.
func (v *View) Resize(cols, rows int) {
	v.canvas.Resize(cols, max(rows-hudRows, 1))
}

// Canvas exposes the drawing buffer.
func (v *View) Canvas() *Canvas { return v.canvas }

// Draw renders one frame and flushes it.
func (v *View) Draw(snap game.FrameSnapshot, status string) error {
	Paint(v.canvas, snap)

	v.cw.WriteAt(1, 1, "\033[2K"+HUD(snap))
	if status != "" {
		v.cw.WriteString("  " + status)
	}
	v.canvas.Render(v.cw, hudRows)
	return v.cw.Flush()
}

// Paint clears c and fills it with the pipes and live birds of snap.
func Paint(c *Canvas, snap game.FrameSnapshot) {
	c.Clear()
	for _, p := range snap.Pipes {
		fill(c, p.Top, LayerPipe)
		fill(c, p.Bottom, LayerPipe)
	}
	for _, b := range snap.Birds {
		layer := LayerBird
		if b.Sightings > 1 {
			layer = LayerVeteran
		}
		fill(c, b.Box, layer)
	}
}

func fill(c *Canvas, r systems.Rect, layer Layer) {
	c.FillRect(r.Left, r.Top, r.Right, r.Bottom, layer)
}

// HUD formats the status line of a snapshot.
func HUD(snap game.FrameSnapshot) string {
	return fmt.Sprintf("Score: %d  Gen: %d  Alive: %d  Tick: %d",
		snap.Score, snap.Generation, snap.Alive, snap.Tick)
}
