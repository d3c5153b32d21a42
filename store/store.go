// Package store persists champion controllers across runs.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// ErrNotInitialized is returned by stores used before Init.
var ErrNotInitialized = errors.New("store is not initialized")

// Champion is one persisted controller together with how it performed.
type Champion struct {
	ID         string          `json:"id"`
	RunID      string          `json:"run_id"`
	Generation int             `json:"generation"`
	Kind       string          `json:"kind"`
	Fitness    float64         `json:"fitness"`
	Score      int             `json:"score"`
	Ticks      int             `json:"ticks"`
	PipeSeed   int64           `json:"pipe_seed"`
	CreatedAt  time.Time       `json:"created_at"`
	Controller json.RawMessage `json:"controller"`
}

// NewChampion stamps a record with a fresh ID and creation time.
func NewChampion(runID string, generation int, kind string, fitness float64, controller json.RawMessage) Champion {
	return Champion{
		ID:         uuid.NewString(),
		RunID:      runID,
		Generation: generation,
		Kind:       kind,
		Fitness:    fitness,
		CreatedAt:  time.Now().UTC(),
		Controller: controller,
	}
}

// Store is a champion repository. Init must be called before use.
type Store interface {
	Init(ctx context.Context) error
	SaveChampion(ctx context.Context, c Champion) error
	GetChampion(ctx context.Context, id string) (Champion, bool, error)
	// ListChampions returns up to limit champions, fittest first.
	// A non-positive limit returns all of them.
	ListChampions(ctx context.Context, limit int) ([]Champion, error)
	Close() error
}

// NewStore builds a store backend by name.
func NewStore(kind, path string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(path), nil
	case "sqlite":
		return NewSQLiteStore(path), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

// Best returns the fittest stored champion.
func Best(ctx context.Context, s Store) (Champion, bool, error) {
	list, err := s.ListChampions(ctx, 1)
	if err != nil || len(list) == 0 {
		return Champion{}, false, err
	}
	return list[0], true, nil
}

func validate(c Champion) error {
	if c.ID == "" {
		return errors.New("champion id is required")
	}
	if len(c.Controller) == 0 {
		return fmt.Errorf("champion %s has no controller", c.ID)
	}
	return nil
}

// rank orders fittest first, then newest, then by ID.
func rank(list []Champion, limit int) []Champion {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Fitness != list[j].Fitness {
			return list[i].Fitness > list[j].Fitness
		}
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list
}
