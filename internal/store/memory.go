package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
)

// MemoryStore keeps everything in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	runs      map[string]Run
	records   map[string][]GenerationRecord
	champions map[string]Champion
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs:      make(map[string]Run),
		records:   make(map[string][]GenerationRecord),
		champions: make(map[string]Champion),
	}
}

func (s *MemoryStore) Init(context.Context) error {
	return nil
}

func (s *MemoryStore) CreateRun(_ context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) Runs(_ context.Context, envID string) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Run
	for _, r := range s.runs {
		if envID == "" || r.EnvID == envID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.Before(out[j].StartedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) AppendRecord(_ context.Context, runID string, rec GenerationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[runID]; !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	s.records[runID] = append(s.records[runID], rec)
	return nil
}

func (s *MemoryStore) Records(_ context.Context, runID string) ([]GenerationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records[runID]), nil
}

func (s *MemoryStore) SaveChampion(_ context.Context, runID string, champion Champion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[runID]; !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	champion.Topology = slices.Clone(champion.Topology)
	champion.Genome = slices.Clone(champion.Genome)
	s.champions[runID] = champion
	return nil
}

func (s *MemoryStore) Champion(_ context.Context, runID string) (Champion, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.champions[runID]
	if !ok {
		return Champion{}, false, nil
	}
	c.Topology = slices.Clone(c.Topology)
	c.Genome = slices.Clone(c.Genome)
	return c, true, nil
}
