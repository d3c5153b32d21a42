package game

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/flap/components"
	"github.com/pthm-cable/flap/config"
	"github.com/pthm-cable/flap/systems"
	"github.com/pthm-cable/flap/telemetry"
)

// ErrInvalidConfiguration is returned before any tick runs when the config or
// the entrant set cannot produce a valid episode. It is the same sentinel that
// config.Validate wraps.
var ErrInvalidConfiguration = config.ErrInvalid

// ErrGenerationRunning is returned by Begin while a generation is in progress.
var ErrGenerationRunning = errors.New("generation already running")

// Outcome is how a generation ended.
type Outcome uint8

const (
	OutcomeNone      Outcome = iota // Generation still running or never started
	OutcomeExtinct                  // Every agent was eliminated
	OutcomeChampion                 // Score reached the success threshold with a survivor
	OutcomeTickLimit                // sim.max_ticks reached
	OutcomeCancelled                // Context cancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeExtinct:
		return "extinct"
	case OutcomeChampion:
		return "champion"
	case OutcomeTickLimit:
		return "tick_limit"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "none"
	}
}

type runState uint8

const (
	stateIdle runState = iota
	stateRunning
	stateDone
)

// AgentFitness is the final record of one entrant.
type AgentFitness struct {
	ID          int
	Fitness     float64
	Ticks       int
	PipesPassed int
	Penalties   int
	Jumps       int
	Faults      int
	Cause       components.Cause
	DiedAt      int // -1 if the agent survived the generation
}

// Result is what a generation hands back to the population search.
type Result struct {
	Generation int
	Outcome    Outcome
	Score      int
	Ticks      int
	PipeSeed   int64

	// Fitness and Entrants are in entrant order.
	Fitness  []AgentFitness
	Entrants []Entrant

	// Champion is the first surviving entrant when Outcome is OutcomeChampion.
	Champion      *Entrant
	ChampionIndex int
}

// Options holds runtime settings that are not part of the YAML config.
type Options struct {
	Seed        int64 // Overrides sim.seed when non-zero
	Mode        systems.Mode
	OutputDir   string // CSV telemetry directory; empty disables
	SnapshotDir string // Bookmark snapshot directory; empty disables
	LogStats    bool
	Observer    Observer
}

// Game runs generations of birds against a shared pipe field.
type Game struct {
	cfg     *config.Config
	phys    components.Physics
	rng     *rand.Rand
	rngSeed int64
	mode    systems.Mode
	runID   string

	pipes *systems.PipeField

	// ECS storage, rebuilt every generation
	world       *ecs.World
	birdMapper  *ecs.Map3[components.Bird, components.Fitness, components.Agent]
	birdFilter  *ecs.Filter3[components.Bird, components.Fitness, components.Agent]
	roster      []ecs.Entity // Entrant order
	entrants    []Entrant
	active      []int // Roster indices still alive, in entrant order
	observation [ObservationSize]float64

	// Generation state
	state      runState
	outcome    Outcome
	generation int
	tick       int
	score      int
	pipeSeed   int64
	reference  int
	champion   int

	// Controller-id sighting counts across generations (display tints)
	sightings map[int]int

	parallel *parallelState

	// Telemetry
	perfCollector *telemetry.PerfCollector
	collector     *telemetry.Collector
	lifetime      *telemetry.LifetimeTracker
	bookmarks     *telemetry.BookmarkDetector
	hallOfFame    *telemetry.HallOfFame
	outputManager *telemetry.OutputManager
	snapshotDir   string
	logStats      bool
	observer      Observer
}

// NewGame validates the config and prepares a game ready for Begin.
func NewGame(cfg *config.Config, opts Options) (*Game, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", ErrInvalidConfiguration)
	}
	cfg = cfg.Clone()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	seed := opts.Seed
	if seed == 0 {
		seed = cfg.Sim.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	g := &Game{
		cfg:           cfg,
		phys:          components.PhysicsFromConfig(cfg),
		rng:           rand.New(rand.NewSource(seed)),
		rngSeed:       seed,
		mode:          opts.Mode,
		runID:         uuid.NewString(),
		sightings:     make(map[int]int),
		champion:      -1,
		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		lifetime:      telemetry.NewLifetimeTracker(),
		bookmarks:     telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistorySize),
		snapshotDir:   opts.SnapshotDir,
		logStats:      opts.LogStats,
		observer:      opts.Observer,
	}
	g.collector = telemetry.NewCollector(g.runID)
	g.pipes = systems.NewPipeField(systems.PipeParamsFromConfig(cfg, opts.Mode), 0)

	if cfg.HallOfFame.Enabled {
		g.hallOfFame = telemetry.NewHallOfFame(cfg.HallOfFame.Size)
	}
	if cfg.Sim.ParallelDecisions {
		g.parallel = newParallelState()
	}

	outputDir := opts.OutputDir
	if outputDir != "" && opts.Mode == systems.ModeReplay {
		// Replays log beside the training run instead of over it
		outputDir = filepath.Join(outputDir, "replay")
	}
	om, err := telemetry.NewOutputManager(outputDir)
	if err != nil {
		return nil, fmt.Errorf("creating output manager: %w", err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}
	g.outputManager = om

	slog.Info("game created",
		"run_id", g.runID,
		"seed", seed,
		"mode", opts.Mode.String(),
		"parallel", cfg.Sim.ParallelDecisions,
	)

	return g, nil
}

// Begin starts a new generation with the given entrants.
func (g *Game) Begin(entrants []Entrant) error {
	if g.state == stateRunning {
		return ErrGenerationRunning
	}
	if err := validateEntrants(entrants); err != nil {
		return err
	}

	g.world = ecs.NewWorld()
	g.birdMapper = ecs.NewMap3[components.Bird, components.Fitness, components.Agent](g.world)
	g.birdFilter = ecs.NewFilter3[components.Bird, components.Fitness, components.Agent](g.world)

	g.entrants = append(g.entrants[:0], entrants...)
	g.roster = g.roster[:0]
	g.active = g.active[:0]
	g.lifetime.Reset()

	for i, e := range entrants {
		bird := components.NewBird(g.cfg.Bird.X, g.cfg.Bird.Y)
		fit := components.Fitness{}
		agent := components.Agent{ID: e.ID, Index: i, DiedAt: -1}

		g.roster = append(g.roster, g.birdMapper.NewEntity(&bird, &fit, &agent))
		g.active = append(g.active, i)
		g.lifetime.Register(e.ID, g.generation)
		g.sightings[e.ID]++
	}

	g.pipeSeed = g.rng.Int63()
	g.pipes.Reset(g.pipeSeed)

	g.tick = 0
	g.score = 0
	g.reference = 0
	g.champion = -1
	g.outcome = OutcomeNone
	g.state = stateRunning

	return nil
}

func validateEntrants(entrants []Entrant) error {
	if len(entrants) == 0 {
		return fmt.Errorf("%w: no entrants", ErrInvalidConfiguration)
	}
	seen := make(map[int]struct{}, len(entrants))
	for i, e := range entrants {
		if e.Controller == nil {
			return fmt.Errorf("%w: entrant %d (id %d) has no controller", ErrInvalidConfiguration, i, e.ID)
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("%w: duplicate entrant id %d", ErrInvalidConfiguration, e.ID)
		}
		seen[e.ID] = struct{}{}
	}
	return nil
}

// Step advances the running generation by one tick.
// Returns false once the generation is over; call Finish to collect the result.
func (g *Game) Step() bool {
	if g.state != stateRunning {
		return false
	}

	g.perfCollector.StartTick()
	g.tick++

	g.decideAll()
	g.stepWorld()

	g.perfCollector.StartPhase(telemetry.PhaseCompact)
	g.compactActive()

	g.checkOutcome()

	if g.observer != nil {
		g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
		g.observer(g.Snapshot())
	}
	g.perfCollector.EndTick()

	return g.state == stateRunning
}

// checkOutcome moves the generation to Done when an end condition holds.
func (g *Game) checkOutcome() {
	threshold := g.cfg.Sim.SuccessThreshold
	switch {
	case threshold > 0 && g.score >= threshold && len(g.active) > 0:
		g.champion = g.active[0]
		g.end(OutcomeChampion)
	case len(g.active) == 0:
		g.end(OutcomeExtinct)
	case g.cfg.Sim.MaxTicks > 0 && g.tick >= g.cfg.Sim.MaxTicks:
		g.end(OutcomeTickLimit)
	}
}

func (g *Game) end(outcome Outcome) {
	g.outcome = outcome
	g.state = stateDone
}

// Cancel ends the running generation early. Fitness accumulated so far is kept.
func (g *Game) Cancel() {
	if g.state == stateRunning {
		g.end(OutcomeCancelled)
	}
}

// Finish collects the result of the finished generation, flushes telemetry and
// advances the generation index. It returns nil if no generation was started.
func (g *Game) Finish() *Result {
	if g.state == stateIdle {
		return nil
	}
	if g.state == stateRunning {
		g.Cancel()
	}

	res := &Result{
		Generation:    g.generation,
		Outcome:       g.outcome,
		Score:         g.score,
		Ticks:         g.tick,
		PipeSeed:      g.pipeSeed,
		Fitness:       make([]AgentFitness, len(g.roster)),
		Entrants:      append([]Entrant(nil), g.entrants...),
		ChampionIndex: g.champion,
	}

	for i, e := range g.roster {
		_, fit, agent := g.birdMapper.Get(e)
		res.Fitness[i] = AgentFitness{
			ID:          agent.ID,
			Fitness:     fit.Value,
			Ticks:       fit.Ticks,
			PipesPassed: fit.PipesPassed,
			Penalties:   fit.Penalties,
			Jumps:       agent.Jumps,
			Faults:      agent.Faults,
			Cause:       agent.Cause,
			DiedAt:      agent.DiedAt,
		}
		g.lifetime.UpdateFitness(agent.ID, fit.Value)
	}

	if g.champion >= 0 {
		champ := g.entrants[g.champion]
		res.Champion = &champ
	}

	g.flushGeneration(res)

	g.generation++
	g.state = stateIdle

	return res
}

// Close stops worker goroutines and closes telemetry files.
func (g *Game) Close() error {
	if g.parallel != nil {
		g.parallel.stopWorkers()
	}
	if err := g.outputManager.WriteHallOfFame(g.hallOfFame); err != nil {
		slog.Error("failed to write hall of fame", "error", err)
	}
	return g.outputManager.Close()
}

// Config returns the validated config the game runs with.
func (g *Game) Config() *config.Config { return g.cfg }

// Mode returns whether the game runs training or replay pipes.
func (g *Game) Mode() systems.Mode { return g.mode }

// RunID identifies this game in telemetry output.
func (g *Game) RunID() string { return g.runID }

// Generation returns the index of the current (or next) generation.
func (g *Game) Generation() int { return g.generation }

// Tick returns the number of ticks run in the current generation.
func (g *Game) Tick() int { return g.tick }

// Score returns the pipes cleared in the current generation.
func (g *Game) Score() int { return g.score }

// Alive returns the number of birds still in play.
func (g *Game) Alive() int { return len(g.active) }

// Running reports whether a generation is in progress.
func (g *Game) Running() bool { return g.state == stateRunning }

// Outcome returns the outcome of the current generation, OutcomeNone while running.
func (g *Game) Outcome() Outcome { return g.outcome }

// HallOfFame returns the run's champion archive, nil when disabled.
func (g *Game) HallOfFame() *telemetry.HallOfFame { return g.hallOfFame }

// Sightings returns how many generations the controller id has entered.
func (g *Game) Sightings(id int) int { return g.sightings[id] }

// PerfStats returns tick timing over the rolling perf window.
func (g *Game) PerfStats() telemetry.PerfStats { return g.perfCollector.Stats() }

// RecordFrame marks a rendered frame for FPS accounting.
func (g *Game) RecordFrame() { g.perfCollector.RecordFrame() }
