package game

import (
	"context"
)

// RunGeneration plays one full generation: every entrant starts at the spawn
// point and the episode runs until extinction, a champion, the tick limit or
// cancellation. Cancellation is not an error; the partial result is returned
// with OutcomeCancelled.
func (g *Game) RunGeneration(ctx context.Context, entrants []Entrant) (*Result, error) {
	if err := g.Begin(entrants); err != nil {
		return nil, err
	}

	for {
		if ctx.Err() != nil {
			g.Cancel()
			break
		}
		if !g.Step() {
			break
		}
	}

	return g.Finish(), nil
}

// Run plays generations until the callback returns false, the context is
// cancelled or a generation produces a champion. next supplies the entrants of
// each generation given the previous result (nil for the first).
func (g *Game) Run(ctx context.Context, next func(prev *Result) ([]Entrant, bool)) (*Result, error) {
	var prev *Result
	for {
		entrants, ok := next(prev)
		if !ok {
			return prev, nil
		}

		res, err := g.RunGeneration(ctx, entrants)
		if err != nil {
			return prev, err
		}
		prev = res

		if res.Outcome == OutcomeChampion || res.Outcome == OutcomeCancelled {
			return res, nil
		}
	}
}
