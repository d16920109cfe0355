// Package env defines the boundary between the evolution core and the control
// tasks it is evaluated on, plus a couple of small reference tasks.
package env

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownEnv is returned by Make for an unregistered environment id.
var ErrUnknownEnv = errors.New("unknown environment")

// Info carries optional diagnostics alongside an observation.
type Info map[string]any

// Space describes an observation or action space. Continuous spaces carry
// per-dimension bounds in Low and High, each of length Dim.
type Space struct {
	Discrete bool
	N        int // action count for discrete spaces
	Dim      int // vector length for continuous spaces
	Low      []float64
	High     []float64
}

// Size is the number of network inputs or outputs the space maps to.
func (s Space) Size() int {
	if s.Discrete {
		return s.N
	}
	return s.Dim
}

// Action is either a discrete index or a continuous vector, depending on the
// action space it is sent to.
type Action struct {
	Index  int       `json:"index"`
	Values []float64 `json:"values,omitempty"`
}

// Step is the outcome of a single environment transition.
type Step struct {
	Observation []float64
	Reward      float64
	Terminated  bool
	Truncated   bool
	Info        Info
}

// Done reports whether the episode is over.
func (s Step) Done() bool {
	return s.Terminated || s.Truncated
}

// Environment is a resettable episodic control task.
type Environment interface {
	// Reset starts a new episode. A nil seed keeps the current random stream.
	Reset(seed *int64) ([]float64, Info, error)
	Step(action Action) (Step, error)
	ObservationSpace() Space
	ActionSpace() Space
	Close() error
}

// Factory builds a fresh environment seeded with seed.
type Factory func(id string, seed int64) (Environment, error)

var registry = map[string]func(seed int64) Environment{
	CartPoleID: func(seed int64) Environment { return NewCartPole(seed) },
	PendulumID: func(seed int64) Environment { return NewPendulum(seed) },
}

// Make builds the registered environment id seeded with seed.
func Make(id string, seed int64) (Environment, error) {
	ctor, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s (registered: %s)", ErrUnknownEnv, id, strings.Join(IDs(), ", "))
	}
	return ctor(seed), nil
}

// IDs lists registered environment ids in sorted order.
func IDs() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Seed returns a pointer to seed, for Reset calls.
func Seed(seed int64) *int64 {
	return &seed
}
