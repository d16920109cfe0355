package env

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Replay stores the action trace of a single episode so it can be replayed
// deterministically against the same environment and seed.
type Replay struct {
	EnvID   string   `json:"env_id"`
	Seed    int64    `json:"seed"`
	Actions []Action `json:"actions"`
	Return  float64  `json:"return"`
}

// NewReplay creates an empty trace for envID reset with seed.
func NewReplay(envID string, seed int64) *Replay {
	return &Replay{
		EnvID:   envID,
		Seed:    seed,
		Actions: make([]Action, 0, 256),
	}
}

// Record appends an action and the reward it earned.
func (r *Replay) Record(action Action, reward float64) {
	r.Actions = append(r.Actions, action)
	r.Return += reward
}

// Save writes the replay to path as indented JSON.
func (r *Replay) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadReplay loads a replay from a file.
func LoadReplay(path string) (*Replay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Replay
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Playback resets e with the recorded seed and re-applies every action,
// returning the total reward collected.
func (r *Replay) Playback(e Environment) (float64, error) {
	if _, _, err := e.Reset(Seed(r.Seed)); err != nil {
		return 0, err
	}
	total := 0.0
	for _, a := range r.Actions {
		step, err := e.Step(a)
		if err != nil {
			return total, err
		}
		total += step.Reward
		if step.Done() {
			break
		}
	}
	return total, nil
}
