package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"neuroevo/internal/trainer"
)

// Champion is the saved best genome of a run.
type Champion struct {
	EnvID      string    `json:"env_id"`
	Seed       int64     `json:"seed"`
	Generation int       `json:"generation"`
	Fitness    float64   `json:"fitness"`
	Topology   []int     `json:"topology"`
	Genome     []float64 `json:"genome"`
}

// ChampionFromResult extracts the champion of a finished run.
func ChampionFromResult(res trainer.Result) Champion {
	return Champion{
		EnvID:      res.EnvID,
		Seed:       res.Seed,
		Generation: res.ChampionGeneration,
		Fitness:    res.ChampionFitness,
		Topology:   append([]int(nil), res.Topology...),
		Genome:     append([]float64(nil), res.Champion...),
	}
}

// SaveChampion saves the champion genome to a file
func SaveChampion(path string, c Champion) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadChampion loads a champion genome from a file
func LoadChampion(path string) (Champion, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Champion{}, err
	}
	var c Champion
	if err := json.Unmarshal(data, &c); err != nil {
		return Champion{}, fmt.Errorf("decode champion %s: %w", path, err)
	}
	return c, nil
}

// ChampionSink writes each finished run's champion to
// <dir>/<env>/champion_seed<seed>.json.
type ChampionSink struct {
	Dir string
}

// Path returns where the champion of (envID, seed) is written.
func (s ChampionSink) Path(envID string, seed int64) string {
	return filepath.Join(s.Dir, envID, fmt.Sprintf("champion_seed%d.json", seed))
}

func (s ChampionSink) Record(context.Context, trainer.Record) error {
	return nil
}

func (s ChampionSink) Finish(_ context.Context, res trainer.Result) error {
	return SaveChampion(s.Path(res.EnvID, res.Seed), ChampionFromResult(res))
}
