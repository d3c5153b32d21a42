package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveChampion(ctx context.Context, c Champion) error {
	if err := validate(c); err != nil {
		return err
	}
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO champions (id, run_id, generation, kind, fitness, score, ticks, pipe_seed, created_at, controller)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			run_id = excluded.run_id,
			generation = excluded.generation,
			kind = excluded.kind,
			fitness = excluded.fitness,
			score = excluded.score,
			ticks = excluded.ticks,
			pipe_seed = excluded.pipe_seed,
			created_at = excluded.created_at,
			controller = excluded.controller
	`, c.ID, c.RunID, c.Generation, c.Kind, c.Fitness, c.Score, c.Ticks, c.PipeSeed,
		c.CreatedAt.UTC().Format(timeLayout), []byte(c.Controller))
	return err
}

func (s *SQLiteStore) GetChampion(ctx context.Context, id string) (Champion, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Champion{}, false, err
	}

	row := db.QueryRowContext(ctx, `SELECT `+championColumns+` FROM champions WHERE id = ?`, id)
	c, err := scanChampion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Champion{}, false, nil
		}
		return Champion{}, false, err
	}
	return c, true, nil
}

func (s *SQLiteStore) ListChampions(ctx context.Context, limit int) ([]Champion, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	rows, err := db.QueryContext(ctx, `
		SELECT `+championColumns+` FROM champions
		ORDER BY fitness DESC, created_at DESC, id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Champion
	for rows.Next() {
		c, err := scanChampion(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

// timeLayout has a fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const championColumns = `id, run_id, generation, kind, fitness, score, ticks, pipe_seed, created_at, controller`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChampion(row rowScanner) (Champion, error) {
	var (
		c          Champion
		createdAt  string
		controller []byte
	)
	if err := row.Scan(&c.ID, &c.RunID, &c.Generation, &c.Kind, &c.Fitness, &c.Score,
		&c.Ticks, &c.PipeSeed, &createdAt, &controller); err != nil {
		return Champion{}, err
	}
	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return Champion{}, fmt.Errorf("champion %s: bad created_at: %w", c.ID, err)
	}
	c.CreatedAt = t
	c.Controller = controller
	return c, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS champions (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			kind TEXT NOT NULL,
			fitness REAL NOT NULL,
			score INTEGER NOT NULL,
			ticks INTEGER NOT NULL,
			pipe_seed INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			controller BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS champions_fitness ON champions (fitness DESC);
	`)
	return err
}
