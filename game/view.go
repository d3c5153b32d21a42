package game

import (
	"github.com/pthm-cable/flap/systems"
)

// BirdView is one live bird as a renderer sees it.
type BirdView struct {
	ID        int
	Box       systems.Rect
	Sightings int // Generations this controller id has entered, for tinting
}

// PipeView is one pipe's collision rectangles.
type PipeView struct {
	Top    systems.Rect
	Bottom systems.Rect
	Passed bool
}

// FrameSnapshot is a read-only copy of the world for rendering.
type FrameSnapshot struct {
	Width, Height float64
	Birds         []BirdView
	Pipes         []PipeView
	Reference     int // Pipe the birds are steering for
	Score         int
	Generation    int
	Alive         int
	Tick          int
}

// Observer receives a snapshot after every tick.
type Observer func(FrameSnapshot)

// Snapshot copies the current world state. It never mutates the game.
func (g *Game) Snapshot() FrameSnapshot {
	snap := FrameSnapshot{
		Width:      g.cfg.Playfield.Width,
		Height:     g.cfg.Playfield.Height,
		Reference:  g.reference,
		Score:      g.score,
		Generation: g.generation,
		Alive:      len(g.active),
		Tick:       g.tick,
	}

	if g.birdFilter != nil {
		snap.Birds = make([]BirdView, 0, len(g.active))
		query := g.birdFilter.Query()
		for query.Next() {
			bird, _, agent := query.Get()
			if !bird.Alive {
				continue
			}
			snap.Birds = append(snap.Birds, BirdView{
				ID:        agent.ID,
				Box:       bird.BoundingBox(g.phys),
				Sightings: g.sightings[agent.ID],
			})
		}
	}

	snap.Pipes = make([]PipeView, g.pipes.Len())
	for i := range snap.Pipes {
		snap.Pipes[i] = PipeView{
			Top:    g.pipes.TopRect(i),
			Bottom: g.pipes.BottomRect(i),
			Passed: g.pipes.At(i).Passed,
		}
	}

	return snap
}
