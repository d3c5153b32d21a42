package store

import (
	"context"
	"sync"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	champions   map[string]Champion
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.champions = make(map[string]Champion)
	return nil
}

func (s *MemoryStore) SaveChampion(_ context.Context, c Champion) error {
	if err := validate(c); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.champions[c.ID] = c
	return nil
}

func (s *MemoryStore) GetChampion(_ context.Context, id string) (Champion, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return Champion{}, false, ErrNotInitialized
	}
	c, ok := s.champions[id]
	return c, ok, nil
}

func (s *MemoryStore) ListChampions(_ context.Context, limit int) ([]Champion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}
	list := make([]Champion, 0, len(s.champions))
	for _, c := range s.champions {
		list = append(list, c)
	}
	return rank(list, limit), nil
}

func (s *MemoryStore) Close() error { return nil }
