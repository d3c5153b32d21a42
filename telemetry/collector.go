package telemetry

// Collector accumulates events within one generation and produces GenerationStats.
type Collector struct {
	runID string

	// Event counters for the current generation
	jumps       int
	faults      int
	collisions  int
	outOfBounds int
	pipesPassed int
}

// NewCollector creates a new stats collector. runID tags every flushed record.
func NewCollector(runID string) *Collector {
	return &Collector{runID: runID}
}

// Record routes an event to its counter.
func (c *Collector) Record(ev Event) {
	switch ev.Type {
	case EventJump:
		c.RecordJump()
	case EventFault:
		c.RecordFault()
	case EventCollision:
		c.RecordCollision()
	case EventOutOfBounds:
		c.RecordOutOfBounds()
	case EventPipePassed:
		c.RecordPipePassed()
	}
}

// RecordJump records a jump.
func (c *Collector) RecordJump() {
	c.jumps++
}

// RecordFault records a controller fault.
func (c *Collector) RecordFault() {
	c.faults++
}

// RecordCollision records a pipe collision.
func (c *Collector) RecordCollision() {
	c.collisions++
}

// RecordOutOfBounds records an out-of-bounds elimination.
func (c *Collector) RecordOutOfBounds() {
	c.outOfBounds++
}

// RecordPipePassed records a pipe being passed.
func (c *Collector) RecordPipePassed() {
	c.pipesPassed++
}

// Faults returns the faults recorded so far in this generation.
func (c *Collector) Faults() int {
	return c.faults
}

// GenerationSummary is the harness-side state the collector cannot see.
type GenerationSummary struct {
	Generation int
	Ticks      int
	Score      int
	Outcome    string
	PipeSeed   int64
	Survivors  int
	Fitness    []float64 // In entrant order
	IDs        []int     // Parallel to Fitness
}

// Flush produces GenerationStats and resets counters for the next generation.
func (c *Collector) Flush(sum GenerationSummary) GenerationStats {
	fs := ComputeFitnessStats(sum.Fitness)

	// First agent in entrant order holding the max
	bestID := -1
	for i, f := range sum.Fitness {
		if f == fs.Max && i < len(sum.IDs) {
			bestID = sum.IDs[i]
			break
		}
	}

	stats := GenerationStats{
		RunID:      c.runID,
		Generation: sum.Generation,
		Ticks:      sum.Ticks,
		Score:      sum.Score,
		Outcome:    sum.Outcome,
		PipeSeed:   sum.PipeSeed,

		Agents:    len(sum.Fitness),
		Survivors: sum.Survivors,

		Jumps:       c.jumps,
		Faults:      c.faults,
		Collisions:  c.collisions,
		OutOfBounds: c.outOfBounds,
		PipesPassed: c.pipesPassed,

		FitnessMean: fs.Mean,
		FitnessStd:  fs.Std,
		FitnessMax:  fs.Max,
		FitnessP10:  fs.P10,
		FitnessP50:  fs.P50,
		FitnessP90:  fs.P90,

		BestID: bestID,
	}

	// Reset for next generation
	c.jumps = 0
	c.faults = 0
	c.collisions = 0
	c.outOfBounds = 0
	c.pipesPassed = 0

	return stats
}
