package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"neuroevo/internal/trainer"
)

// Sink adapts a Store to the trainer's run output. A run row is created on
// the first record of each (environment, seed) pair.
type Sink struct {
	Store Store

	mu   sync.Mutex
	runs map[sinkKey]string
}

type sinkKey struct {
	env  string
	seed int64
}

// NewSink wraps store.
func NewSink(store Store) *Sink {
	return &Sink{Store: store, runs: make(map[sinkKey]string)}
}

// RunID returns the id assigned to (envID, seed), if a record was seen.
func (s *Sink) RunID(envID string, seed int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.runs[sinkKey{envID, seed}]
	return id, ok
}

func (s *Sink) Record(ctx context.Context, rec trainer.Record) error {
	runID, err := s.runID(ctx, rec.EnvID, rec.Seed)
	if err != nil {
		return err
	}
	return s.Store.AppendRecord(ctx, runID, GenerationRecord{
		Generation:  rec.Generation,
		BestFitness: rec.BestFitness,
	})
}

func (s *Sink) Finish(ctx context.Context, res trainer.Result) error {
	runID, err := s.runID(ctx, res.EnvID, res.Seed)
	if err != nil {
		return err
	}
	return s.Store.SaveChampion(ctx, runID, Champion{
		Generation: res.ChampionGeneration,
		Fitness:    res.ChampionFitness,
		Topology:   []int(res.Topology),
		Genome:     []float64(res.Champion),
	})
}

func (s *Sink) runID(ctx context.Context, envID string, seed int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sinkKey{envID, seed}
	if id, ok := s.runs[key]; ok {
		return id, nil
	}
	run := Run{
		ID:        uuid.NewString(),
		EnvID:     envID,
		Seed:      seed,
		StartedAt: time.Now().UTC(),
	}
	if err := s.Store.CreateRun(ctx, run); err != nil {
		return "", err
	}
	s.runs[key] = run.ID
	return run.ID, nil
}
