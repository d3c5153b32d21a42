package components

import (
	"github.com/pthm-cable/flap/config"
	"github.com/pthm-cable/flap/systems"
)

// Physics holds the kinematic constants shared by every bird.
type Physics struct {
	Gravity              float64
	JumpImpulse          float64 // Negative moves up
	TerminalDisplacement float64 // Cap on downward displacement per tick
	RiseBoost            float64 // Extra lift applied while moving up
	Width, Height        float64 // Collision box
}

// PhysicsFromConfig reads the bird physics from the loaded config.
func PhysicsFromConfig(cfg *config.Config) Physics {
	return Physics{
		Gravity:              cfg.Physics.Gravity,
		JumpImpulse:          cfg.Physics.JumpImpulse,
		TerminalDisplacement: cfg.Physics.TerminalDisplacement,
		RiseBoost:            cfg.Physics.RiseBoost,
		Width:                cfg.Bird.Width,
		Height:               cfg.Bird.Height,
	}
}

// Bird is the physical body of one agent.
// X never changes; the world scrolls past it.
type Bird struct {
	X, Y      float64
	VelY      float64
	TickCount int // Ticks since the last jump
	Alive     bool
}

// NewBird places a live bird at rest at (x, y).
func NewBird(x, y float64) Bird {
	return Bird{X: x, Y: y, Alive: true}
}

// Jump applies the upward impulse and restarts the displacement clock.
func (b *Bird) Jump(p Physics) {
	b.VelY = p.JumpImpulse
	b.TickCount = 0
}

// Step advances the bird one tick along its ballistic arc.
// Positions outside the playfield are left for the caller to judge.
func (b *Bird) Step(p Physics) {
	b.TickCount++
	t := float64(b.TickCount)

	d := b.VelY*t + 0.5*p.Gravity*t*t
	if d >= p.TerminalDisplacement {
		d = p.TerminalDisplacement
	}
	if d < 0 {
		d -= p.RiseBoost
	}

	b.Y += d
}

// BoundingBox returns the bird's collision rectangle.
func (b *Bird) BoundingBox(p Physics) systems.Rect {
	return systems.RectXYWH(b.X, b.Y, p.Width, p.Height)
}

// OutOfBounds reports whether the bird has left the playfield vertically.
func (b *Bird) OutOfBounds(p Physics, floor float64) bool {
	return b.Y < 0 || b.Y+p.Height > floor
}
