package evolve

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/pthm-cable/flap/game"
	"github.com/pthm-cable/flap/store"
)

// Trainer feeds a population to a game generation by generation and saves the
// best controller when training ends.
type Trainer struct {
	pop         *Population
	st          store.Store
	runID       string
	generations int // 0 = until a champion or cancellation
	played      int
	err         error
}

// NewTrainer creates a trainer. st may be nil to skip saving.
func NewTrainer(pop *Population, st store.Store, runID string, generations int) *Trainer {
	return &Trainer{pop: pop, st: st, runID: runID, generations: generations}
}

// Next advances the population past prev and returns the next generation.
// It matches the callback of game.Run and game.Session.
func (t *Trainer) Next(prev *game.Result) ([]game.Entrant, bool) {
	if prev != nil {
		if t.generations > 0 && t.played >= t.generations {
			return nil, false
		}
		if err := t.pop.Advance(prev); err != nil {
			t.err = err
			return nil, false
		}
	}
	t.played++
	return t.pop.Entrants(), true
}

// Played returns the number of generations handed out.
func (t *Trainer) Played() int { return t.played }

// Err returns the population error that stopped training, if any.
func (t *Trainer) Err() error { return t.err }

// Finish logs the final result and saves its champion, or its fittest
// controller when none qualified. Cancelled runs are not saved.
func (t *Trainer) Finish(ctx context.Context, res *game.Result) error {
	if t.err != nil {
		return t.err
	}
	if res == nil {
		return nil
	}

	slog.Info("training finished",
		"run_id", t.runID,
		"generations", humanize.Comma(int64(t.played)),
		"outcome", res.Outcome.String(),
		"score", res.Score,
	)

	if t.st == nil || res.Outcome == game.OutcomeCancelled {
		return nil
	}
	return saveBest(ctx, t.st, t.runID, res)
}

// Train evolves pop on g for up to generations generations (0 = until a
// champion or cancellation). The champion, or the fittest controller of the
// final generation when none qualified, is saved to st when st is non-nil.
func Train(ctx context.Context, g *game.Game, pop *Population, st store.Store, generations int) (*game.Result, error) {
	t := NewTrainer(pop, st, g.RunID(), generations)

	res, err := g.Run(ctx, t.Next)
	if err != nil {
		return res, err
	}
	return res, t.Finish(ctx, res)
}

// saveBest stores the champion of res, or its fittest entrant.
func saveBest(ctx context.Context, st store.Store, runID string, res *game.Result) error {
	idx := res.ChampionIndex
	var entrant game.Entrant
	if res.Champion != nil {
		entrant = *res.Champion
	} else {
		idx = fittest(res)
		if idx < 0 {
			return nil
		}
		entrant = res.Entrants[idx]
	}

	m, ok := entrant.Controller.(json.Marshaler)
	if !ok {
		return fmt.Errorf("controller %d cannot be encoded", entrant.ID)
	}
	data, err := m.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encoding controller %d: %w", entrant.ID, err)
	}

	kind := "unknown"
	if k, ok := entrant.Controller.(interface{ Kind() string }); ok {
		kind = k.Kind()
	}

	rec := store.NewChampion(runID, res.Generation, kind, res.Fitness[idx].Fitness, data)
	rec.Score = res.Score
	rec.Ticks = res.Ticks
	rec.PipeSeed = res.PipeSeed
	if err := st.SaveChampion(ctx, rec); err != nil {
		return fmt.Errorf("saving champion: %w", err)
	}

	slog.Info("champion saved",
		"id", rec.ID,
		"controller_id", entrant.ID,
		"fitness", humanize.FormatFloat("#,###.##", rec.Fitness),
		"qualified", res.Champion != nil,
	)
	return nil
}

func fittest(res *game.Result) int {
	best := -1
	for i, f := range res.Fitness {
		if best < 0 || f.Fitness > res.Fitness[best].Fitness {
			best = i
		}
	}
	return best
}
