package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/pthm-cable/flap/config"
	"github.com/pthm-cable/flap/evolve"
	"github.com/pthm-cable/flap/game"
	"github.com/pthm-cable/flap/neural"
	"github.com/pthm-cable/flap/store"
	"github.com/pthm-cable/flap/systems"
	"github.com/pthm-cable/flap/termview"
)

// spectate shows the best stored champion on repeat, or a live training run
// when the store holds none. It returns when the player stops.
func spectate(ctx context.Context, cfg *config.Config, st store.Store, player *termview.Player) error {
	champ, ok, err := store.Best(ctx, st)
	if err != nil {
		return fmt.Errorf("loading champion: %w", err)
	}
	if ok {
		return replay(ctx, cfg, champ, player)
	}
	return train(ctx, cfg, player)
}

// replay plays one champion generation after another, each on a new pipe field.
func replay(ctx context.Context, cfg *config.Config, champ store.Champion, player *termview.Player) error {
	ctrl, err := neural.Decode(champ.Controller)
	if err != nil {
		return fmt.Errorf("decoding champion %s: %w", champ.ID, err)
	}

	g, err := game.NewGame(cfg, game.Options{Mode: systems.ModeReplay})
	if err != nil {
		return err
	}
	defer g.Close()

	entrants := []game.Entrant{{ID: 1, Controller: ctrl}}
	for {
		res, err := playGeneration(ctx, g, entrants, player)
		if err != nil {
			return err
		}
		slog.Info("replay finished",
			"champion", champ.ID,
			"outcome", res.Outcome.String(),
			"score", res.Score,
		)
	}
}

// train runs an evolving population so there is always something to watch.
func train(ctx context.Context, cfg *config.Config, player *termview.Player) error {
	g, err := game.NewGame(cfg, game.Options{})
	if err != nil {
		return err
	}
	defer g.Close()

	seed := cfg.Sim.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	pop, err := evolve.New(g.Config(), rand.New(rand.NewSource(seed)), g.HallOfFame())
	if err != nil {
		return err
	}

	for {
		res, err := playGeneration(ctx, g, pop.Entrants(), player)
		if err != nil {
			return err
		}
		if err := pop.Advance(res); err != nil {
			return err
		}
	}
}

// playGeneration runs one generation through the player. A generation the
// player abandons is still finished so the game can start the next one.
func playGeneration(ctx context.Context, g *game.Game, entrants []game.Entrant, player *termview.Player) (*game.Result, error) {
	if err := g.Begin(entrants); err != nil {
		return nil, err
	}
	err := player.Play(ctx, g)
	return g.Finish(), err
}

// sizeTracker tracks terminal size from SSH window change events.
type sizeTracker struct {
	mu     sync.RWMutex
	width  int
	height int
}

func newSizeTracker(width, height int) *sizeTracker {
	return &sizeTracker{width: width, height: height}
}

func (s *sizeTracker) update(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
	s.height = height
}

func (s *sizeTracker) getSize() (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height, nil
}

var _ termview.TermSizeFunc = (*sizeTracker)(nil).getSize
