package game

import (
	"log/slog"

	"github.com/pthm-cable/flap/components"
	"github.com/pthm-cable/flap/telemetry"
)

// referencePipe picks the pipe the birds are steering for: the first one, or the
// second once the lead bird is past the first pipe's right edge.
func (g *Game) referencePipe() int {
	if g.pipes.Len() > 1 && len(g.active) > 0 {
		bird, _, _ := g.birdMapper.Get(g.roster[g.active[0]])
		if bird.X > g.pipes.RightEdge(0) {
			return 1
		}
	}
	return 0
}

// observe fills dst with the observation for one bird.
func (g *Game) observe(bird *components.Bird, dst []float64) {
	dst[0] = bird.Y
	if g.reference < g.pipes.Len() {
		dst[1] = g.pipes.At(g.reference).GapTop
		dst[2] = g.pipes.GapBottom(g.reference)
	} else {
		dst[1], dst[2] = 0, 0
	}
}

// decideAll pays the survival bonus and runs every alive controller.
func (g *Game) decideAll() {
	g.perfCollector.StartPhase(telemetry.PhaseDecide)
	g.reference = g.referencePipe()

	if g.parallel != nil && len(g.active) >= g.cfg.Sim.ParallelThreshold {
		g.decideParallel()
		return
	}

	inputs := g.observation[:]
	for _, idx := range g.active {
		bird, fit, _ := g.birdMapper.Get(g.roster[idx])
		g.paySurvival(fit)

		g.observe(bird, inputs)
		out, err := decide(g.entrants[idx].Controller, inputs)
		g.applyDecision(idx, out, err)
	}
}

func (g *Game) paySurvival(fit *components.Fitness) {
	fit.Value += g.cfg.Fitness.SurvivalBonus
	fit.Ticks++
}

// applyDecision jumps the bird when the output clears the threshold.
// A fault counts against the agent and leaves the bird falling.
func (g *Game) applyDecision(idx int, out float64, err error) {
	bird, _, agent := g.birdMapper.Get(g.roster[idx])

	if err != nil {
		agent.Faults++
		g.emit(telemetry.NewFaultEvent(g.tick, agent.ID))
		slog.Warn("controller fault",
			"agent", agent.ID,
			"generation", g.generation,
			"tick", g.tick,
			"error", err,
		)
		return
	}

	if out > g.cfg.Sim.JumpThreshold {
		bird.Jump(g.phys)
		agent.Jumps++
		g.emit(telemetry.NewJumpEvent(g.tick, agent.ID))
	}
}

// stepWorld runs one tick of the world in fixed phase order. A bird eliminated
// in one phase is skipped by every later phase of the same tick.
func (g *Game) stepWorld() {
	pc := g.perfCollector

	// 1. Bird physics
	pc.StartPhase(telemetry.PhasePhysics)
	for _, idx := range g.active {
		bird, _, _ := g.birdMapper.Get(g.roster[idx])
		bird.Step(g.phys)
	}

	// 2. Pipe motion
	pc.StartPhase(telemetry.PhasePipes)
	g.pipes.Step()

	// 3. Collisions
	pc.StartPhase(telemetry.PhaseCollision)
	for i := 0; i < g.pipes.Len(); i++ {
		for _, idx := range g.active {
			bird, _, _ := g.birdMapper.Get(g.roster[idx])
			if !bird.Alive {
				continue
			}
			if g.pipes.Collides(i, bird.BoundingBox(g.phys)) {
				g.eliminate(idx, components.CauseCollision)
			}
		}
	}

	// 4. Retire off-screen pipes
	pc.StartPhase(telemetry.PhaseRetire)
	g.pipes.Retire()

	// 5. Scoring
	pc.StartPhase(telemetry.PhaseScoring)
	g.scorePass()

	// 6. Vertical bounds
	pc.StartPhase(telemetry.PhaseBounds)
	floor := g.cfg.Playfield.Height
	for _, idx := range g.active {
		bird, _, _ := g.birdMapper.Get(g.roster[idx])
		if bird.Alive && bird.OutOfBounds(g.phys, floor) {
			g.eliminate(idx, components.CauseOutOfBounds)
		}
	}
}

// scorePass resolves the foremost unpassed pipe once any live bird is past it.
func (g *Game) scorePass() {
	front := g.pipes.Front()
	if front < 0 {
		return
	}

	edge := g.pipes.RightEdge(front)
	cleared := false
	for _, idx := range g.active {
		bird, _, _ := g.birdMapper.Get(g.roster[idx])
		if bird.Alive && bird.X > edge {
			cleared = true
			break
		}
	}
	if !cleared || !g.pipes.MarkPassed(front) {
		return
	}

	g.score++
	g.awardPassBonus()
	g.pipes.SpawnNext()
	g.emit(telemetry.NewPipePassedEvent(g.tick))
}

// awardPassBonus pays the pass bonus according to fitness.pass_bonus_policy:
//
//	tick      every bird that started this tick, including ones eliminated during it
//	cohort    every entrant of the generation
//	survivors only birds still alive
func (g *Game) awardPassBonus() {
	bonus := g.cfg.Fitness.PassBonus

	pay := func(fit *components.Fitness) {
		fit.Value += bonus
		fit.PipesPassed++
	}

	switch g.cfg.Fitness.PassBonusPolicy {
	case "cohort":
		for _, e := range g.roster {
			_, fit, _ := g.birdMapper.Get(e)
			pay(fit)
		}
	case "survivors":
		for _, idx := range g.active {
			bird, fit, _ := g.birdMapper.Get(g.roster[idx])
			if bird.Alive {
				pay(fit)
			}
		}
	default:
		for _, idx := range g.active {
			_, fit, _ := g.birdMapper.Get(g.roster[idx])
			pay(fit)
		}
	}
}

// eliminate marks a bird dead. The collision penalty lands on the same tick.
func (g *Game) eliminate(idx int, cause components.Cause) {
	bird, fit, agent := g.birdMapper.Get(g.roster[idx])
	bird.Alive = false
	agent.Cause = cause
	agent.DiedAt = g.tick

	switch cause {
	case components.CauseCollision:
		fit.Value -= g.cfg.Fitness.CollisionPenalty
		fit.Penalties++
		g.emit(telemetry.NewCollisionEvent(g.tick, agent.ID))
	case components.CauseOutOfBounds:
		g.emit(telemetry.NewOutOfBoundsEvent(g.tick, agent.ID))
	}
}

// compactActive drops eliminated birds from the active set, keeping entrant order.
func (g *Game) compactActive() {
	n := 0
	for _, idx := range g.active {
		bird, _, _ := g.birdMapper.Get(g.roster[idx])
		if bird.Alive {
			g.active[n] = idx
			n++
		}
	}
	g.active = g.active[:n]
}

func (g *Game) emit(ev telemetry.Event) {
	g.collector.Record(ev)
	g.lifetime.Record(ev)
}
