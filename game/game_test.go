package game

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/flap/components"
	"github.com/pthm-cable/flap/config"
	"github.com/pthm-cable/flap/systems"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Sim.Seed = 1
	return cfg
}

// openSkyConfig has a gap covering the whole playfield so pipes can never be hit.
func openSkyConfig() *config.Config {
	cfg := testConfig()
	cfg.Pipes.GapMin = 0
	cfg.Pipes.GapMax = 1
	cfg.Pipes.GapHeight = 2000
	return cfg
}

func newTestGame(t *testing.T, cfg *config.Config) *Game {
	t.Helper()
	g, err := NewGame(cfg, Options{Seed: 7})
	if err != nil {
		t.Fatalf("NewGame failed: %v", err)
	}
	t.Cleanup(func() { g.Close() })
	return g
}

func constant(v float64) Controller {
	return ControllerFunc(func([]float64) ([]float64, error) {
		return []float64{v}, nil
	})
}

// hover jumps whenever the bird sinks below y=400, keeping it roughly in [300, 420].
func hover() Controller {
	return ControllerFunc(func(in []float64) ([]float64, error) {
		if in[0] > 400 {
			return []float64{1}, nil
		}
		return []float64{0}, nil
	})
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestNeverJumpFallsOutOfBounds(t *testing.T) {
	g := newTestGame(t, testConfig())

	res, err := g.RunGeneration(context.Background(), []Entrant{{ID: 1, Controller: constant(0)}})
	if err != nil {
		t.Fatalf("RunGeneration failed: %v", err)
	}

	if res.Outcome != OutcomeExtinct {
		t.Errorf("outcome = %v, want extinct", res.Outcome)
	}
	if res.Ticks != 28 {
		t.Errorf("ticks = %d, want 28", res.Ticks)
	}
	if res.Score != 0 {
		t.Errorf("score = %d, want 0", res.Score)
	}

	af := res.Fitness[0]
	if af.Cause != components.CauseOutOfBounds || af.DiedAt != 28 {
		t.Errorf("cause/diedAt = %v/%d, want out_of_bounds/28", af.Cause, af.DiedAt)
	}
	if !approx(af.Fitness, 0.1*float64(res.Ticks)) {
		t.Errorf("fitness = %v, want %v", af.Fitness, 0.1*float64(res.Ticks))
	}
}

func TestAlwaysJumpLeavesTop(t *testing.T) {
	g := newTestGame(t, testConfig())

	res, err := g.RunGeneration(context.Background(), []Entrant{{ID: 1, Controller: constant(1)}})
	if err != nil {
		t.Fatalf("RunGeneration failed: %v", err)
	}

	af := res.Fitness[0]
	if af.DiedAt != 32 || af.Cause != components.CauseOutOfBounds {
		t.Errorf("diedAt/cause = %d/%v, want 32/out_of_bounds", af.DiedAt, af.Cause)
	}
	if af.Jumps != 32 {
		t.Errorf("jumps = %d, want 32", af.Jumps)
	}
	if !approx(af.Fitness, 3.2) {
		t.Errorf("fitness = %v, want 3.2", af.Fitness)
	}
}

func TestChampionAtThreshold(t *testing.T) {
	g := newTestGame(t, openSkyConfig())

	entrants := []Entrant{
		{ID: 10, Controller: constant(0)},
		{ID: 11, Controller: hover()},
		{ID: 12, Controller: hover()},
	}

	res, err := g.RunGeneration(context.Background(), entrants)
	if err != nil {
		t.Fatalf("RunGeneration failed: %v", err)
	}

	if res.Outcome != OutcomeChampion {
		t.Fatalf("outcome = %v, want champion", res.Outcome)
	}
	if res.Score != 20 {
		t.Errorf("score = %d, want exactly 20", res.Score)
	}
	// First pass at tick 111, then one every 91 ticks
	if res.Ticks != 111+91*19 {
		t.Errorf("ticks = %d, want %d", res.Ticks, 111+91*19)
	}
	if res.Champion == nil || res.Champion.ID != 11 || res.ChampionIndex != 1 {
		t.Errorf("champion = %+v (index %d), want first survivor id 11", res.Champion, res.ChampionIndex)
	}

	want := 0.1*float64(res.Ticks) + 5*20
	if !approx(res.Fitness[1].Fitness, want) {
		t.Errorf("champion fitness = %v, want %v", res.Fitness[1].Fitness, want)
	}
	if res.Fitness[1].PipesPassed != 20 {
		t.Errorf("pipes passed = %d, want 20", res.Fitness[1].PipesPassed)
	}

	// Eliminated long before the first pass: no pass bonus under the tick policy
	if !approx(res.Fitness[0].Fitness, 2.8) {
		t.Errorf("faller fitness = %v, want 2.8", res.Fitness[0].Fitness)
	}
	if res.Fitness[2].DiedAt != -1 {
		t.Errorf("second hoverer should survive, diedAt = %d", res.Fitness[2].DiedAt)
	}
}

func TestCohortPolicyPaysEliminated(t *testing.T) {
	cfg := openSkyConfig()
	cfg.Fitness.PassBonusPolicy = "cohort"
	g := newTestGame(t, cfg)

	res, err := g.RunGeneration(context.Background(), []Entrant{
		{ID: 1, Controller: constant(0)},
		{ID: 2, Controller: hover()},
	})
	if err != nil {
		t.Fatalf("RunGeneration failed: %v", err)
	}
	if !approx(res.Fitness[0].Fitness, 2.8+5*20) {
		t.Errorf("faller fitness = %v, want %v", res.Fitness[0].Fitness, 2.8+5*20)
	}
}

func TestScoreIncrementsOncePerPipe(t *testing.T) {
	cfg := openSkyConfig()
	cfg.Sim.MaxTicks = 400

	var scores []int
	g, err := NewGame(cfg, Options{Seed: 3, Observer: func(s FrameSnapshot) {
		scores = append(scores, s.Score)
	}})
	if err != nil {
		t.Fatalf("NewGame failed: %v", err)
	}
	defer g.Close()

	res, err := g.RunGeneration(context.Background(), []Entrant{{ID: 1, Controller: hover()}})
	if err != nil {
		t.Fatalf("RunGeneration failed: %v", err)
	}
	if res.Outcome != OutcomeTickLimit || res.Ticks != 400 {
		t.Fatalf("outcome/ticks = %v/%d, want tick_limit/400", res.Outcome, res.Ticks)
	}

	for i := 1; i < len(scores); i++ {
		if d := scores[i] - scores[i-1]; d < 0 || d > 1 {
			t.Fatalf("score jumped by %d at tick %d", d, i+1)
		}
	}
	// scores[i] is the score after tick i+1
	if scores[109] != 0 || scores[110] != 1 {
		t.Errorf("first pass at wrong tick: score@110=%d score@111=%d", scores[109], scores[110])
	}
	if scores[201] != 2 {
		t.Errorf("score@202 = %d, want 2", scores[201])
	}
	if res.Fitness[0].PipesPassed != res.Score {
		t.Errorf("pipes passed %d != score %d", res.Fitness[0].PipesPassed, res.Score)
	}
}

func TestCollisionPenalty(t *testing.T) {
	cfg := testConfig()
	cfg.Pipes.GapMin = 0
	cfg.Pipes.GapMax = 1
	cfg.Pipes.GapHeight = 10 // Gap far above the hover band
	g := newTestGame(t, cfg)

	res, err := g.RunGeneration(context.Background(), []Entrant{{ID: 1, Controller: hover()}})
	if err != nil {
		t.Fatalf("RunGeneration failed: %v", err)
	}

	af := res.Fitness[0]
	if af.Cause != components.CauseCollision || af.DiedAt != 89 {
		t.Fatalf("cause/diedAt = %v/%d, want collision/89", af.Cause, af.DiedAt)
	}
	if af.Penalties != 1 {
		t.Errorf("penalties = %d, want 1", af.Penalties)
	}
	if !approx(af.Fitness, 0.1*89-1) {
		t.Errorf("fitness = %v, want %v", af.Fitness, 0.1*89-1)
	}
}

func TestControllerFaultsNeverJump(t *testing.T) {
	faulty := []Controller{
		ControllerFunc(func([]float64) ([]float64, error) { return nil, errors.New("boom") }),
		ControllerFunc(func([]float64) ([]float64, error) { panic("bad weights") }),
		ControllerFunc(func([]float64) ([]float64, error) { return []float64{}, nil }),
		ControllerFunc(func([]float64) ([]float64, error) { return []float64{math.NaN()}, nil }),
		ControllerFunc(func([]float64) ([]float64, error) { return []float64{math.Inf(1)}, nil }),
	}

	entrants := make([]Entrant, len(faulty))
	for i, c := range faulty {
		entrants[i] = Entrant{ID: i, Controller: c}
	}

	g := newTestGame(t, testConfig())
	res, err := g.RunGeneration(context.Background(), entrants)
	if err != nil {
		t.Fatalf("faults must not fail the generation: %v", err)
	}

	for i, af := range res.Fitness {
		if af.Jumps != 0 {
			t.Errorf("entrant %d jumped %d times", i, af.Jumps)
		}
		if af.DiedAt != 28 || af.Faults != 28 {
			t.Errorf("entrant %d diedAt/faults = %d/%d, want 28/28", i, af.DiedAt, af.Faults)
		}
	}
}

func TestInvalidConfiguration(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero gap", func(c *config.Config) { c.Pipes.GapHeight = 0 }},
		{"zero pipe width", func(c *config.Config) { c.Pipes.Width = 0 }},
		{"zero velocity", func(c *config.Config) { c.Pipes.Velocity = 0 }},
		{"inverted gap range", func(c *config.Config) { c.Pipes.GapMin, c.Pipes.GapMax = 450, 50 }},
		{"bad policy", func(c *config.Config) { c.Fitness.PassBonusPolicy = "everyone" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)
			_, err := NewGame(cfg, Options{})
			if !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("err = %v, want ErrInvalidConfiguration", err)
			}
		})
	}
}

func TestInvalidEntrants(t *testing.T) {
	tests := []struct {
		name     string
		entrants []Entrant
	}{
		{"empty", nil},
		{"nil controller", []Entrant{{ID: 1}}},
		{"duplicate id", []Entrant{{ID: 1, Controller: constant(0)}, {ID: 1, Controller: constant(0)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGame(t, testConfig())
			res, err := g.RunGeneration(context.Background(), tt.entrants)
			if !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("err = %v, want ErrInvalidConfiguration", err)
			}
			if res != nil || g.Tick() != 0 {
				t.Error("no tick may run on invalid input")
			}
		})
	}
}

func TestCancellation(t *testing.T) {
	t.Run("before start", func(t *testing.T) {
		g := newTestGame(t, testConfig())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		res, err := g.RunGeneration(ctx, []Entrant{{ID: 1, Controller: hover()}})
		if err != nil {
			t.Fatalf("cancellation is not an error: %v", err)
		}
		if res.Outcome != OutcomeCancelled || res.Ticks != 0 {
			t.Errorf("outcome/ticks = %v/%d", res.Outcome, res.Ticks)
		}
	})

	t.Run("mid generation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		g, err := NewGame(openSkyConfig(), Options{Seed: 1, Observer: func(s FrameSnapshot) {
			if s.Tick == 10 {
				cancel()
			}
		}})
		if err != nil {
			t.Fatal(err)
		}
		defer g.Close()

		res, err := g.RunGeneration(ctx, []Entrant{{ID: 1, Controller: hover()}})
		if err != nil {
			t.Fatal(err)
		}
		if res.Outcome != OutcomeCancelled || res.Ticks != 10 {
			t.Errorf("outcome/ticks = %v/%d, want cancelled/10", res.Outcome, res.Ticks)
		}
		if !approx(res.Fitness[0].Fitness, 1.0) {
			t.Errorf("partial fitness = %v, want 1.0", res.Fitness[0].Fitness)
		}
	})
}

// gapSeeker jumps when the bird is below the middle of the reference gap.
func gapSeeker(offset float64) Controller {
	return ControllerFunc(func(in []float64) ([]float64, error) {
		mid := (in[1]+in[2])/2 + offset
		if in[0] > mid {
			return []float64{1}, nil
		}
		return []float64{0}, nil
	})
}

func seekerEntrants(n int) []Entrant {
	entrants := make([]Entrant, n)
	for i := range entrants {
		entrants[i] = Entrant{ID: i + 1, Controller: gapSeeker(float64(i%9-4) * 10)}
	}
	return entrants
}

func runSeekers(t *testing.T, cfg *config.Config, seed int64, generations int) []*Result {
	t.Helper()
	g, err := NewGame(cfg, Options{Seed: seed})
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()

	var results []*Result
	for i := 0; i < generations; i++ {
		res, err := g.RunGeneration(context.Background(), seekerEntrants(40))
		if err != nil {
			t.Fatal(err)
		}
		results = append(results, res)
	}
	return results
}

func sameResults(t *testing.T, a, b []*Result) {
	t.Helper()
	for i := range a {
		if a[i].PipeSeed != b[i].PipeSeed || a[i].Ticks != b[i].Ticks || a[i].Score != b[i].Score || a[i].Outcome != b[i].Outcome {
			t.Fatalf("generation %d differs: %+v vs %+v", i, a[i], b[i])
		}
		for j := range a[i].Fitness {
			if a[i].Fitness[j] != b[i].Fitness[j] {
				t.Fatalf("generation %d agent %d differs: %+v vs %+v", i, j, a[i].Fitness[j], b[i].Fitness[j])
			}
		}
	}
}

func TestDeterminism(t *testing.T) {
	cfg := testConfig()
	cfg.Sim.MaxTicks = 3000

	a := runSeekers(t, cfg, 99, 3)
	b := runSeekers(t, cfg, 99, 3)
	sameResults(t, a, b)

	c := runSeekers(t, cfg, 100, 1)
	if c[0].PipeSeed == a[0].PipeSeed {
		t.Error("different seeds should draw different pipe seeds")
	}
}

func TestParallelMatchesSerial(t *testing.T) {
	cfg := testConfig()
	cfg.Sim.MaxTicks = 3000

	serial := runSeekers(t, cfg, 5, 2)

	pcfg := testConfig()
	pcfg.Sim.MaxTicks = 3000
	pcfg.Sim.ParallelDecisions = true
	pcfg.Sim.ParallelThreshold = 1
	parallel := runSeekers(t, pcfg, 5, 2)

	sameResults(t, serial, parallel)
}

func TestEliminationIsMonotonic(t *testing.T) {
	cfg := testConfig()
	cfg.Sim.MaxTicks = 2000

	last := -1
	g, err := NewGame(cfg, Options{Seed: 11, Observer: func(s FrameSnapshot) {
		if last >= 0 && s.Alive > last {
			t.Errorf("alive count rose from %d to %d at tick %d", last, s.Alive, s.Tick)
		}
		if len(s.Birds) != s.Alive {
			t.Errorf("snapshot has %d birds, alive = %d", len(s.Birds), s.Alive)
		}
		last = s.Alive
	}})
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()

	res, err := g.RunGeneration(context.Background(), seekerEntrants(30))
	if err != nil {
		t.Fatal(err)
	}
	for _, af := range res.Fitness {
		if (af.DiedAt < 0) != (af.Cause == components.CauseNone) {
			t.Errorf("agent %d: diedAt %d with cause %v", af.ID, af.DiedAt, af.Cause)
		}
	}
}

func TestStepAPI(t *testing.T) {
	g := newTestGame(t, testConfig())

	if g.Finish() != nil {
		t.Error("Finish before Begin should be nil")
	}
	if g.Step() {
		t.Error("Step before Begin should be false")
	}

	entrants := []Entrant{{ID: 4, Controller: constant(0)}}
	if err := g.Begin(entrants); err != nil {
		t.Fatal(err)
	}
	if err := g.Begin(entrants); !errors.Is(err, ErrGenerationRunning) {
		t.Errorf("second Begin err = %v, want ErrGenerationRunning", err)
	}

	steps := 0
	for g.Step() {
		steps++
	}
	if steps != 27 || g.Tick() != 28 {
		t.Errorf("steps/tick = %d/%d, want 27/28", steps, g.Tick())
	}

	res := g.Finish()
	if res == nil || res.Generation != 0 {
		t.Fatalf("Finish = %+v", res)
	}
	if g.Generation() != 1 {
		t.Errorf("generation = %d, want 1", g.Generation())
	}
	if g.Finish() != nil {
		t.Error("second Finish should be nil")
	}

	if err := g.Begin(entrants); err != nil {
		t.Fatal(err)
	}
	if g.Sightings(4) != 2 {
		t.Errorf("sightings = %d, want 2", g.Sightings(4))
	}
}

func TestRunStopsOnChampion(t *testing.T) {
	g := newTestGame(t, openSkyConfig())

	calls := 0
	res, err := g.Run(context.Background(), func(prev *Result) ([]Entrant, bool) {
		calls++
		return []Entrant{{ID: calls, Controller: hover()}}, calls < 5
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeChampion || calls != 1 {
		t.Errorf("outcome/calls = %v/%d, want champion/1", res.Outcome, calls)
	}
}

func TestOutputAndHallOfFame(t *testing.T) {
	dir := t.TempDir()
	cfg := openSkyConfig()

	g, err := NewGame(cfg, Options{Seed: 2, OutputDir: dir, SnapshotDir: filepath.Join(dir, "snapshots")})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := g.RunGeneration(context.Background(), []Entrant{
		{ID: 1, Controller: constant(0)},
		{ID: 2, Controller: hover()},
	}); err != nil {
		t.Fatal(err)
	}

	hof := g.HallOfFame()
	if hof == nil || hof.Len() != 1 || hof.Top().ControllerID != 2 {
		t.Fatalf("hall of fame = %+v", hof.Entries())
	}

	if err := g.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "generations.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "champion") {
		t.Errorf("generations.csv missing champion row:\n%s", data)
	}

	matches, _ := filepath.Glob(filepath.Join(dir, "snapshots", "snapshot_gen0_champion.json"))
	if len(matches) != 1 {
		t.Error("expected champion snapshot")
	}
	if _, err := os.Stat(filepath.Join(dir, "hall_of_fame.json")); err != nil {
		t.Errorf("hall_of_fame.json missing: %v", err)
	}
}

func TestPassBonusPolicies(t *testing.T) {
	tests := []struct {
		policy string
		want   []int // PipesPassed per entrant
	}{
		{"tick", []int{1, 1, 0}},
		{"cohort", []int{1, 1, 1}},
		{"survivors", []int{1, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.policy, func(t *testing.T) {
			cfg := testConfig()
			cfg.Fitness.PassBonusPolicy = tt.policy
			g := newTestGame(t, cfg)

			if err := g.Begin([]Entrant{
				{ID: 1, Controller: constant(0)},
				{ID: 2, Controller: constant(0)},
				{ID: 3, Controller: constant(0)},
			}); err != nil {
				t.Fatal(err)
			}

			// Entrant 3 dies on an earlier tick, entrant 2 on the passing tick
			g.tick = 4
			g.eliminate(2, components.CauseOutOfBounds)
			g.compactActive()
			g.tick = 5
			g.eliminate(1, components.CauseCollision)

			g.awardPassBonus()

			for i, want := range tt.want {
				_, fit, _ := g.birdMapper.Get(g.roster[i])
				if fit.PipesPassed != want {
					t.Errorf("entrant %d pipes passed = %d, want %d", i, fit.PipesPassed, want)
				}
			}
		})
	}
}

func TestReferencePipeSwitch(t *testing.T) {
	g := newTestGame(t, openSkyConfig())
	if err := g.Begin([]Entrant{{ID: 1, Controller: hover()}}); err != nil {
		t.Fatal(err)
	}

	for g.Tick() < 111 {
		g.Step()
	}
	// Pipe 0 just passed and a new pipe spawned at the right edge
	if g.pipes.Len() != 2 {
		t.Fatalf("pipes = %d, want 2", g.pipes.Len())
	}
	if ref := g.referencePipe(); ref != 1 {
		t.Errorf("reference = %d, want 1 once pipe 0 is behind the bird", ref)
	}
}

func TestJumperOutlivesFallerInOneEpisode(t *testing.T) {
	cfg := testConfig()
	cfg.Pipes.GapMin = 300 // Gap 300..500, centered on the 800px playfield
	cfg.Pipes.GapMax = 301
	g := newTestGame(t, cfg)

	if err := g.Begin([]Entrant{
		{ID: 1, Controller: constant(0)},
		{ID: 2, Controller: constant(1)},
	}); err != nil {
		t.Fatal(err)
	}
	g.pipes.Spawn(1000)
	if g.pipes.Len() != 2 || g.pipes.At(0).X != 700 || g.pipes.At(1).GapTop != 300 {
		t.Fatalf("pipes = %+v", g.pipes.Pipes())
	}

	for g.Step() {
	}
	res := g.Finish()

	never, jump := res.Fitness[0], res.Fitness[1]
	if never.DiedAt != 28 || jump.DiedAt != 32 {
		t.Errorf("never/jump diedAt = %d/%d, want 28/32", never.DiedAt, jump.DiedAt)
	}
	if never.DiedAt >= jump.DiedAt {
		t.Error("faller outlived the jumper")
	}
	if res.Score != 0 || res.Outcome != OutcomeExtinct {
		t.Errorf("score/outcome = %d/%v, want 0/extinct", res.Score, res.Outcome)
	}
}

func TestReplayOutputKeepsTrainingLog(t *testing.T) {
	dir := t.TempDir()

	train, err := NewGame(testConfig(), Options{Seed: 2, OutputDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := train.RunGeneration(context.Background(), []Entrant{{ID: 1, Controller: constant(0)}}); err != nil {
			t.Fatal(err)
		}
	}

	replay, err := NewGame(testConfig(), Options{Seed: 2, OutputDir: dir, Mode: systems.ModeReplay})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := replay.RunGeneration(context.Background(), []Entrant{{ID: 1, Controller: constant(1)}}); err != nil {
		t.Fatal(err)
	}

	if err := train.Close(); err != nil {
		t.Fatal(err)
	}
	if err := replay.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "generations.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if rows := strings.Count(strings.TrimSpace(string(data)), "\n"); rows != 3 {
		t.Errorf("training generations.csv has %d rows, want 3:\n%s", rows, data)
	}

	data, err = os.ReadFile(filepath.Join(dir, "replay", "generations.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if rows := strings.Count(strings.TrimSpace(string(data)), "\n"); rows != 1 {
		t.Errorf("replay generations.csv has %d rows, want 1:\n%s", rows, data)
	}
	if _, err := os.Stat(filepath.Join(dir, "replay", "hall_of_fame.json")); err != nil {
		t.Errorf("replay hall_of_fame.json missing: %v", err)
	}
}
