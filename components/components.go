// Package components defines ECS components for the simulation.
package components

// Cause records why an agent left the episode.
type Cause uint8

const (
	CauseNone        Cause = iota // Still flying
	CauseCollision                // Hit a pipe
	CauseOutOfBounds              // Left the playfield vertically
)

func (c Cause) String() string {
	switch c {
	case CauseCollision:
		return "collision"
	case CauseOutOfBounds:
		return "out_of_bounds"
	default:
		return "none"
	}
}

// Fitness is the running score of one agent for the current generation.
// It survives the bird's elimination and is read back at generation end.
type Fitness struct {
	Value       float64
	Ticks       int // Ticks the survival bonus was paid
	PipesPassed int // Pass bonuses received
	Penalties   int // Collision penalties applied
}

// Agent ties an entity back to its caller-supplied identity.
type Agent struct {
	ID     int
	Index  int // Position in the entrant list
	Cause  Cause
	DiedAt int // Tick of elimination, -1 while alive
	Jumps  int
	Faults int // Controller faults absorbed
}
