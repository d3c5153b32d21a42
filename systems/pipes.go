package systems

import (
	"math/rand"

	"github.com/pthm-cable/flap/config"
)

// Mode selects which declared pipe velocity applies.
type Mode uint8

const (
	ModeTraining Mode = iota // Whole population, training velocity
	ModeReplay               // Single stored champion, replay velocity
)

func (m Mode) String() string {
	if m == ModeReplay {
		return "replay"
	}
	return "training"
}

// Pipe is one obstacle: a top and bottom column separated by a vertical gap.
// Width and gap height are owned by the PipeField.
type Pipe struct {
	X      float64 // Left edge
	GapTop float64 // Bottom edge of the top column
	Passed bool    // Set once when the flock clears the pipe
}

// PipeParams holds the geometry and motion shared by every pipe in a field.
type PipeParams struct {
	Width     float64
	GapHeight float64
	GapMin    int // Gap top is drawn from [GapMin, GapMax)
	GapMax    int
	FirstX    float64 // Position of the pipe present at episode start
	SpawnX    float64 // Position of every later pipe (right boundary)
	Length    float64 // Visible length of each column beyond the gap
	Velocity  float64 // Pixels moved left per tick
}

// PipeParamsFromConfig builds the pipe parameters for the given mode.
func PipeParamsFromConfig(cfg *config.Config, mode Mode) PipeParams {
	v := cfg.Pipes.Velocity
	if mode == ModeReplay {
		v = cfg.Pipes.ReplayVelocity
	}
	return PipeParams{
		Width:     cfg.Pipes.Width,
		GapHeight: cfg.Pipes.GapHeight,
		GapMin:    cfg.Pipes.GapMin,
		GapMax:    cfg.Pipes.GapMax,
		FirstX:    cfg.Pipes.FirstX,
		SpawnX:    cfg.Playfield.Width,
		Length:    cfg.Playfield.Height,
		Velocity:  v,
	}
}

// PipeField is the ordered set of live pipes plus the RNG that places their gaps.
// Pipes are kept in spawn order, so index 0 is always the leftmost.
type PipeField struct {
	params PipeParams
	rng    *rand.Rand
	pipes  []Pipe
}

// NewPipeField creates a field seeded with seed and places the first pipe.
func NewPipeField(params PipeParams, seed int64) *PipeField {
	f := &PipeField{
		params: params,
		pipes:  make([]Pipe, 0, 4),
	}
	f.Reset(seed)
	return f
}

// Reset clears every pipe, reseeds the gap RNG and places the first pipe at FirstX.
func (f *PipeField) Reset(seed int64) {
	f.rng = rand.New(rand.NewSource(seed))
	f.pipes = f.pipes[:0]
	f.Spawn(f.params.FirstX)
}

// Params returns the field's geometry.
func (f *PipeField) Params() PipeParams {
	return f.params
}

// Spawn appends a new unpassed pipe at x with a random gap.
func (f *PipeField) Spawn(x float64) {
	span := f.params.GapMax - f.params.GapMin
	gapTop := f.params.GapMin
	if span > 0 {
		gapTop += f.rng.Intn(span)
	}
	f.pipes = append(f.pipes, Pipe{X: x, GapTop: float64(gapTop)})
}

// SpawnNext appends a pipe at the right boundary.
func (f *PipeField) SpawnNext() {
	f.Spawn(f.params.SpawnX)
}

// Step moves every pipe left by the field velocity.
func (f *PipeField) Step() {
	for i := range f.pipes {
		f.pipes[i].X -= f.params.Velocity
	}
}

// Retire drops pipes whose right edge has left the screen and returns how many went.
func (f *PipeField) Retire() int {
	kept := f.pipes[:0]
	for _, p := range f.pipes {
		if p.X+f.params.Width < 0 {
			continue
		}
		kept = append(kept, p)
	}
	removed := len(f.pipes) - len(kept)
	f.pipes = kept
	return removed
}

// MarkPassed sets the passed flag on pipe i. It reports false if the pipe
// was already passed, so the transition happens at most once.
func (f *PipeField) MarkPassed(i int) bool {
	if f.pipes[i].Passed {
		return false
	}
	f.pipes[i].Passed = true
	return true
}

// Front returns the index of the leftmost unpassed pipe, or -1.
func (f *PipeField) Front() int {
	for i := range f.pipes {
		if !f.pipes[i].Passed {
			return i
		}
	}
	return -1
}

// Len returns the number of live pipes.
func (f *PipeField) Len() int {
	return len(f.pipes)
}

// At returns a copy of pipe i.
func (f *PipeField) At(i int) Pipe {
	return f.pipes[i]
}

// Pipes returns a copy of the live pipes in spawn order.
func (f *PipeField) Pipes() []Pipe {
	out := make([]Pipe, len(f.pipes))
	copy(out, f.pipes)
	return out
}

// RightEdge returns the x coordinate of pipe i's right edge.
func (f *PipeField) RightEdge(i int) float64 {
	return f.pipes[i].X + f.params.Width
}

// GapBottom returns the top edge of pipe i's bottom column.
func (f *PipeField) GapBottom(i int) float64 {
	return f.pipes[i].GapTop + f.params.GapHeight
}

// TopRect returns the collision box of pipe i's upper column.
func (f *PipeField) TopRect(i int) Rect {
	p := f.pipes[i]
	return Rect{Left: p.X, Top: p.GapTop - f.params.Length, Right: p.X + f.params.Width, Bottom: p.GapTop}
}

// BottomRect returns the collision box of pipe i's lower column.
func (f *PipeField) BottomRect(i int) Rect {
	p := f.pipes[i]
	top := p.GapTop + f.params.GapHeight
	return Rect{Left: p.X, Top: top, Right: p.X + f.params.Width, Bottom: top + f.params.Length}
}

// Collides reports whether box overlaps either column of pipe i.
func (f *PipeField) Collides(i int, box Rect) bool {
	return Overlaps(box, f.TopRect(i)) || Overlaps(box, f.BottomRect(i))
}
