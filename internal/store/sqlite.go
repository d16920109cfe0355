package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
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

	if dir := filepath.Dir(s.path); dir != "." && s.path != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
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

func createTables(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			env_id TEXT NOT NULL,
			seed INTEGER NOT NULL,
			started_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS generations (
			run_id TEXT NOT NULL REFERENCES runs(id),
			generation INTEGER NOT NULL,
			best_fitness REAL NOT NULL,
			PRIMARY KEY (run_id, generation)
		)`,
		`CREATE TABLE IF NOT EXISTS champions (
			run_id TEXT PRIMARY KEY REFERENCES runs(id),
			generation INTEGER NOT NULL,
			fitness REAL NOT NULL,
			topology TEXT NOT NULL,
			genome BLOB NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) CreateRun(ctx context.Context, run Run) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, env_id, seed, started_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			env_id = excluded.env_id,
			seed = excluded.seed,
			started_at = excluded.started_at
	`, run.ID, run.EnvID, run.Seed, run.StartedAt.UTC().Format(time.RFC3339Nano))
	return err
}

func (s *SQLiteStore) Runs(ctx context.Context, envID string) ([]Run, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, env_id, seed, started_at FROM runs
		WHERE ? = '' OR env_id = ?
		ORDER BY started_at, id
	`, envID, envID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r       Run
			started string
		)
		if err := rows.Scan(&r.ID, &r.EnvID, &r.Seed, &started); err != nil {
			return nil, err
		}
		r.StartedAt, err = time.Parse(time.RFC3339Nano, started)
		if err != nil {
			return nil, fmt.Errorf("decode run %s start time: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AppendRecord(ctx context.Context, runID string, rec GenerationRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	if err := s.requireRun(ctx, db, runID); err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO generations (run_id, generation, best_fitness)
		VALUES (?, ?, ?)
		ON CONFLICT(run_id, generation) DO UPDATE SET
			best_fitness = excluded.best_fitness
	`, runID, rec.Generation, rec.BestFitness)
	return err
}

func (s *SQLiteStore) Records(ctx context.Context, runID string) ([]GenerationRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT generation, best_fitness FROM generations
		WHERE run_id = ? ORDER BY generation
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GenerationRecord
	for rows.Next() {
		var rec GenerationRecord
		if err := rows.Scan(&rec.Generation, &rec.BestFitness); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveChampion(ctx context.Context, runID string, champion Champion) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	if err := s.requireRun(ctx, db, runID); err != nil {
		return err
	}
	topology, err := json.Marshal(champion.Topology)
	if err != nil {
		return err
	}
	genome, err := json.Marshal(champion.Genome)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO champions (run_id, generation, fitness, topology, genome)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			generation = excluded.generation,
			fitness = excluded.fitness,
			topology = excluded.topology,
			genome = excluded.genome
	`, runID, champion.Generation, champion.Fitness, string(topology), genome)
	return err
}

func (s *SQLiteStore) Champion(ctx context.Context, runID string) (Champion, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Champion{}, false, err
	}

	var (
		c        Champion
		topology string
		genome   []byte
	)
	err = db.QueryRowContext(ctx, `
		SELECT generation, fitness, topology, genome FROM champions WHERE run_id = ?
	`, runID).Scan(&c.Generation, &c.Fitness, &topology, &genome)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Champion{}, false, nil
		}
		return Champion{}, false, err
	}
	if err := json.Unmarshal([]byte(topology), &c.Topology); err != nil {
		return Champion{}, false, fmt.Errorf("decode champion topology %s: %w", runID, err)
	}
	if err := json.Unmarshal(genome, &c.Genome); err != nil {
		return Champion{}, false, fmt.Errorf("decode champion genome %s: %w", runID, err)
	}
	return c, true, nil
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
		return nil, errors.New("sqlite store is not initialized")
	}
	return s.db, nil
}

func (s *SQLiteStore) requireRun(ctx context.Context, db *sql.DB, runID string) error {
	var one int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, runID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return err
}
