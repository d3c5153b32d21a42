// Package renderer draws the playfield with raylib.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flap/camera"
	"github.com/pthm-cable/flap/game"
	"github.com/pthm-cable/flap/systems"
)

// SceneOptions selects optional layers.
type SceneOptions struct {
	TintByHistory  bool // Shade birds by how many generations their controller has entered
	GuideLines     bool // Lines from each bird to the reference gap edges
	CollisionBoxes bool

	// BirdColor overrides the bird fill (species colors). Nil or !ok falls back.
	BirdColor func(id int) (rl.Color, bool)
}

// SceneRenderer draws pipes and birds from a frame snapshot.
type SceneRenderer struct {
	Sky       rl.Color
	Pipe      rl.Color
	PipeEdge  rl.Color
	Bird      rl.Color
	Veteran   rl.Color
	GuideLine rl.Color
}

// NewSceneRenderer creates a renderer with the default palette.
func NewSceneRenderer() *SceneRenderer {
	return &SceneRenderer{
		Sky:       rl.Color{R: 112, G: 197, B: 206, A: 255},
		Pipe:      rl.Color{R: 94, G: 176, B: 62, A: 255},
		PipeEdge:  rl.Color{R: 52, G: 110, B: 36, A: 255},
		Bird:      rl.Color{R: 250, G: 205, B: 60, A: 255},
		Veteran:   rl.Color{R: 220, G: 70, B: 50, A: 255},
		GuideLine: rl.Color{R: 230, G: 40, B: 40, A: 200},
	}
}

// Draw renders one frame of the playfield.
func (s *SceneRenderer) Draw(snap game.FrameSnapshot, cam *camera.Camera, opts SceneOptions) {
	// Playfield background; the letterbox stays the clear color
	x, y := cam.WorldToScreen(0, 0)
	scale := cam.Scale()
	rl.DrawRectangleV(rl.Vector2{X: x, Y: y},
		rl.Vector2{X: float32(snap.Width) * scale, Y: float32(snap.Height) * scale}, s.Sky)

	for _, p := range snap.Pipes {
		if cam.IsVisible(p.Top) {
			s.drawPipe(cam, p.Top)
		}
		if cam.IsVisible(p.Bottom) {
			s.drawPipe(cam, p.Bottom)
		}
	}

	if opts.GuideLines && snap.Reference >= 0 && snap.Reference < len(snap.Pipes) {
		ref := snap.Pipes[snap.Reference]
		gapX := float32(ref.Top.Left+ref.Top.Right) / 2
		for _, b := range snap.Birds {
			bx := float32(b.Box.Left+b.Box.Right) / 2
			by := float32(b.Box.Top+b.Box.Bottom) / 2
			s.drawLine(cam, bx, by, gapX, float32(ref.Top.Bottom))
			s.drawLine(cam, bx, by, gapX, float32(ref.Bottom.Top))
		}
	}

	for _, b := range snap.Birds {
		if !cam.IsVisible(b.Box) {
			continue
		}
		color := s.Bird
		if opts.TintByHistory {
			color = HistoryTint(s.Bird, s.Veteran, b.Sightings)
		}
		if opts.BirdColor != nil {
			if c, ok := opts.BirdColor(b.ID); ok {
				color = c
			}
		}

		bx, by, bw, bh := cam.RectToScreen(b.Box)
		rec := rl.Rectangle{X: bx, Y: by, Width: bw, Height: bh}
		rl.DrawRectangleRounded(rec, 0.4, 6, color)
		if opts.CollisionBoxes {
			rl.DrawRectangleLinesEx(rec, 1, rl.Black)
		}
	}
}

func (s *SceneRenderer) drawPipe(cam *camera.Camera, r systems.Rect) {
	x, y, w, h := cam.RectToScreen(r)
	rec := rl.Rectangle{X: x, Y: y, Width: w, Height: h}
	rl.DrawRectangleRec(rec, s.Pipe)
	rl.DrawRectangleLinesEx(rec, 2, s.PipeEdge)
}

func (s *SceneRenderer) drawLine(cam *camera.Camera, x1, y1, x2, y2 float32) {
	sx1, sy1 := cam.WorldToScreen(x1, y1)
	sx2, sy2 := cam.WorldToScreen(x2, y2)
	rl.DrawLineEx(rl.Vector2{X: sx1, Y: sy1}, rl.Vector2{X: sx2, Y: sy2}, 2, s.GuideLine)
}

// HistoryTint blends from base toward veteran as sightings grow, saturating
// after ten generations. A first-generation controller keeps the base color.
func HistoryTint(base, veteran rl.Color, sightings int) rl.Color {
	t := float32(min(max(sightings-1, 0), 10)) / 10
	lerp := func(a, b uint8) uint8 {
		return uint8(float32(a) + (float32(b)-float32(a))*t)
	}
	return rl.Color{
		R: lerp(base.R, veteran.R),
		G: lerp(base.G, veteran.G),
		B: lerp(base.B, veteran.B),
		A: base.A,
	}
}
