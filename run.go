package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flap/config"
	"github.com/pthm-cable/flap/evolve"
	"github.com/pthm-cable/flap/game"
	"github.com/pthm-cable/flap/neural"
	"github.com/pthm-cable/flap/store"
	"github.com/pthm-cable/flap/systems"
	"github.com/pthm-cable/flap/viewer"
)

// errNoChampion is returned by -replay when the store is empty.
var errNoChampion = errors.New("no stored champion to replay")

// runHeadless trains, or replays the stored champion, without a window.
func runHeadless(ctx context.Context, cfg *config.Config, st store.Store, opts runOptions) error {
	if opts.replay {
		champ, err := loadChampion(ctx, st)
		if err != nil {
			return err
		}
		g, entrants, err := replayGame(cfg, opts, champ)
		if err != nil {
			return err
		}
		defer g.Close()

		played := 0
		res, err := g.Run(ctx, func(prev *game.Result) ([]game.Entrant, bool) {
			if prev != nil {
				logReplay(champ, prev)
			}
			if opts.generations > 0 && played >= opts.generations {
				return nil, false
			}
			played++
			return entrants, true
		})
		if err == nil && res != nil && res.Outcome == game.OutcomeChampion {
			logReplay(champ, res)
		}
		return err
	}

	g, err := game.NewGame(cfg, opts.game)
	if err != nil {
		return err
	}
	defer g.Close()

	pop, err := newPopulation(g, opts.game.Seed)
	if err != nil {
		return err
	}

	slog.Info("starting headless training",
		"run_id", g.RunID(),
		"population", pop.Len(),
		"generations", opts.generations,
	)
	res, err := evolve.Train(ctx, g, pop, st, opts.generations)
	if err != nil {
		return err
	}
	if res != nil {
		slog.Info("headless training done",
			"generation", res.Generation,
			"outcome", res.Outcome.String(),
			"score", res.Score,
		)
	}
	return nil
}

// runWindowed opens a raylib window. A training session is followed by a
// replay of the best stored champion on a loop.
func runWindowed(ctx context.Context, cfg *config.Config, st store.Store, opts runOptions) error {
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), cfg.Screen.Title)
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	var app *viewer.App
	var sess *game.Session
	var pop *evolve.Population

	replaySession := func() (*game.Session, error) {
		champ, err := loadChampion(ctx, st)
		if err != nil {
			return nil, err
		}
		g, entrants, err := replayGame(cfg, opts, champ)
		if err != nil {
			return nil, err
		}
		s := &game.Session{
			Game: g,
			Next: func(prev *game.Result) ([]game.Entrant, bool) {
				if prev != nil {
					logReplay(champ, prev)
				}
				return entrants, true
			},
		}
		// A champion ends the session; start it over so the replay loops
		s.Done = func(last *game.Result) (*game.Session, error) {
			if last != nil {
				logReplay(champ, last)
			}
			return s, nil
		}
		return s, nil
	}

	if opts.replay {
		s, err := replaySession()
		if err != nil {
			return err
		}
		sess = s
	} else {
		g, err := game.NewGame(cfg, opts.game)
		if err != nil {
			return err
		}
		pop, err = newPopulation(g, opts.game.Seed)
		if err != nil {
			g.Close()
			return err
		}
		trainer := evolve.NewTrainer(pop, st, g.RunID(), opts.generations)
		sess = &game.Session{
			Game: g,
			Next: trainer.Next,
			Done: func(last *game.Result) (*game.Session, error) {
				if err := trainer.Finish(ctx, last); err != nil {
					return nil, err
				}
				app.SetPopulation(nil)
				next, err := replaySession()
				if errors.Is(err, errNoChampion) {
					return nil, nil
				}
				return next, err
			},
		}
	}

	app = viewer.New(cfg, game.NewDriver(sess), pop)
	defer app.Close()

	for !rl.WindowShouldClose() && ctx.Err() == nil && !app.Done() {
		app.Update()
		app.Draw()
	}
	return app.Err()
}

func newPopulation(g *game.Game, seed int64) (*evolve.Population, error) {
	if seed == 0 {
		seed = g.Config().Sim.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return evolve.New(g.Config(), rand.New(rand.NewSource(seed)), g.HallOfFame())
}

func loadChampion(ctx context.Context, st store.Store) (store.Champion, error) {
	champ, ok, err := store.Best(ctx, st)
	if err != nil {
		return store.Champion{}, fmt.Errorf("loading champion: %w", err)
	}
	if !ok {
		return store.Champion{}, errNoChampion
	}
	return champ, nil
}

// replayGame builds a replay-mode game with the champion as its only entrant.
func replayGame(cfg *config.Config, opts runOptions, champ store.Champion) (*game.Game, []game.Entrant, error) {
	ctrl, err := neural.Decode(champ.Controller)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding champion %s: %w", champ.ID, err)
	}
	gopts := opts.game
	gopts.Mode = systems.ModeReplay
	g, err := game.NewGame(cfg, gopts)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("replaying champion",
		"champion", champ.ID,
		"kind", champ.Kind,
		"fitness", champ.Fitness,
		"trained_score", champ.Score,
	)
	return g, []game.Entrant{{ID: 1, Controller: ctrl}}, nil
}

func logReplay(champ store.Champion, res *game.Result) {
	slog.Info("replay finished",
		"champion", champ.ID,
		"generation", res.Generation,
		"outcome", res.Outcome.String(),
		"score", res.Score,
		"ticks", res.Ticks,
	)
}
