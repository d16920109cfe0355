// Package store persists run metadata, per-generation records and champion
// genomes.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrRunNotFound is returned when appending to a run that was never created.
var ErrRunNotFound = errors.New("run not found")

// Run identifies one (environment, seed) run.
type Run struct {
	ID        string
	EnvID     string
	Seed      int64
	StartedAt time.Time
}

// GenerationRecord is a persisted generation row.
type GenerationRecord struct {
	Generation  int
	BestFitness float64
}

// Champion is the persisted best genome of a run.
type Champion struct {
	Generation int
	Fitness    float64
	Topology   []int
	Genome     []float64
}

// Store defines persistence operations for runs.
type Store interface {
	Init(ctx context.Context) error
	CreateRun(ctx context.Context, run Run) error
	Runs(ctx context.Context, envID string) ([]Run, error)
	AppendRecord(ctx context.Context, runID string, rec GenerationRecord) error
	Records(ctx context.Context, runID string) ([]GenerationRecord, error)
	SaveChampion(ctx context.Context, runID string, champion Champion) error
	Champion(ctx context.Context, runID string) (Champion, bool, error)
}

// NewStore builds the backend named by kind.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(sqlitePath), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

// CloseIfSupported closes stores that hold resources.
func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
