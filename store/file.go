package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore keeps one JSON file per champion in a directory.
type FileStore struct {
	dir string

	mu          sync.RWMutex
	initialized bool
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dir == "" {
		return errors.New("file store directory is required")
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}
	s.initialized = true
	return nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, "champion_"+id+".json")
}

func (s *FileStore) SaveChampion(_ context.Context, c Champion) error {
	if err := validate(c); err != nil {
		return err
	}
	if !fileSafeID(c.ID) {
		return fmt.Errorf("champion id %q is not a valid file name", c.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling champion: %w", err)
	}

	// Write then rename so readers never see a partial file
	tmp := s.path(c.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing champion: %w", err)
	}
	return os.Rename(tmp, s.path(c.ID))
}

func (s *FileStore) GetChampion(_ context.Context, id string) (Champion, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return Champion{}, false, ErrNotInitialized
	}

	if !fileSafeID(id) {
		return Champion{}, false, nil
	}

	c, err := readChampion(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return Champion{}, false, nil
	}
	if err != nil {
		return Champion{}, false, err
	}
	return c, true, nil
}

func (s *FileStore) ListChampions(_ context.Context, limit int) ([]Champion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}

	matches, err := filepath.Glob(filepath.Join(s.dir, "champion_*.json"))
	if err != nil {
		return nil, err
	}

	list := make([]Champion, 0, len(matches))
	for _, path := range matches {
		c, err := readChampion(path)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return rank(list, limit), nil
}

func (s *FileStore) Close() error { return nil }

// fileSafeID reports whether id maps to a file inside the store directory.
func fileSafeID(id string) bool {
	return !strings.ContainsAny(id, `/\`)
}

func readChampion(path string) (Champion, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Champion{}, err
	}
	var c Champion
	if err := json.Unmarshal(data, &c); err != nil {
		return Champion{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return c, nil
}
