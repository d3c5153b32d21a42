package game

import (
	"encoding/json"
	"log/slog"

	"github.com/pthm-cable/flap/telemetry"
)

// flushGeneration writes the generation record, checks bookmarks and archives
// the best controller.
func (g *Game) flushGeneration(res *Result) {
	fitness := make([]float64, len(res.Fitness))
	ids := make([]int, len(res.Fitness))
	survivors := 0
	for i, af := range res.Fitness {
		fitness[i] = af.Fitness
		ids[i] = af.ID
		if af.DiedAt < 0 {
			survivors++
		}
	}

	stats := g.collector.Flush(telemetry.GenerationSummary{
		Generation: res.Generation,
		Ticks:      res.Ticks,
		Score:      res.Score,
		Outcome:    res.Outcome.String(),
		PipeSeed:   res.PipeSeed,
		Survivors:  survivors,
		Fitness:    fitness,
		IDs:        ids,
	})
	perfStats := g.perfCollector.Stats()

	logEvery := g.cfg.Telemetry.LogEvery
	if g.logStats && (logEvery <= 1 || res.Generation%logEvery == 0) {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := g.outputManager.WriteGeneration(stats); err != nil {
		slog.Error("failed to write generation", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, res.Generation); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	g.considerForHall(res, stats.BestID)

	for _, bm := range g.bookmarks.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if err := g.outputManager.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
		if g.snapshotDir != "" {
			g.saveSnapshot(&bm)
		}
	}
}

// considerForHall offers the champion, or else the fittest entrant, to the hall of fame.
func (g *Game) considerForHall(res *Result, bestID int) {
	if g.hallOfFame == nil || len(res.Fitness) == 0 {
		return
	}

	idx := res.ChampionIndex
	if idx < 0 {
		for i, af := range res.Fitness {
			if af.ID == bestID {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return
	}

	entrant := g.entrants[idx]
	g.hallOfFame.Consider(telemetry.HallEntry{
		ControllerID: entrant.ID,
		Generation:   res.Generation,
		Fitness:      res.Fitness[idx].Fitness,
		Score:        res.Score,
		Kind:         controllerKind(entrant.Controller),
		Snapshot:     encodeController(entrant.Controller),
	})
}

// encodeController returns the controller's own JSON encoding, or nil when it has none.
func encodeController(c Controller) json.RawMessage {
	m, ok := c.(json.Marshaler)
	if !ok {
		return nil
	}
	data, err := m.MarshalJSON()
	if err != nil {
		slog.Warn("failed to encode controller", "error", err)
		return nil
	}
	return data
}

// saveSnapshot creates and saves a snapshot to disk.
func (g *Game) saveSnapshot(bookmark *telemetry.Bookmark) {
	snapshot := g.createSnapshot(bookmark)

	path, err := telemetry.SaveSnapshot(snapshot, g.snapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}

	slog.Info("snapshot saved", "path", path, "generation", g.generation)
}

// createSnapshot builds a snapshot of the generation that just ended.
func (g *Game) createSnapshot(bookmark *telemetry.Bookmark) *telemetry.Snapshot {
	snapshot := &telemetry.Snapshot{
		Version:    telemetry.SnapshotVersion,
		RunID:      g.runID,
		RNGSeed:    g.rngSeed,
		PipeSeed:   g.pipeSeed,
		Generation: g.generation,
		Tick:       g.tick,
		Score:      g.score,
		Bookmark:   bookmark,
	}

	for _, p := range g.pipes.Pipes() {
		snapshot.Pipes = append(snapshot.Pipes, telemetry.PipeState{X: p.X, GapTop: p.GapTop, Passed: p.Passed})
	}

	for i, e := range g.roster {
		bird, fit, agent := g.birdMapper.Get(e)

		var lifetime *telemetry.LifetimeStatsJSON
		if ls := g.lifetime.Get(agent.ID); ls != nil {
			lifetime = ls.ToJSON()
		}

		snapshot.Agents = append(snapshot.Agents, telemetry.AgentState{
			ID:         agent.ID,
			Y:          bird.Y,
			VelY:       bird.VelY,
			TickCount:  bird.TickCount,
			Alive:      bird.Alive,
			Fitness:    fit.Value,
			Controller: encodeController(g.entrants[i].Controller),
			Lifetime:   lifetime,
		})
	}

	return snapshot
}
