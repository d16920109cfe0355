package eval

import (
	"context"
	"errors"
	"fmt"

	"neuroevo/internal/env"
)

// ErrInvalidEpisodes is returned when asked to evaluate fewer than one episode.
var ErrInvalidEpisodes = errors.New("episode count must be at least 1")

// Policy maps an observation to an action.
type Policy interface {
	Act(obs []float64, discrete bool) (env.Action, error)
}

// Evaluator rolls a policy out in an environment and reduces the episodic
// returns to a fitness. It owns only the episode loop; the environment does
// the simulation. An Evaluator shares its environment across calls and is not
// safe for concurrent use.
type Evaluator struct {
	env      env.Environment
	seed     *int64
	discrete bool
}

// New binds an evaluator to environment. When seed is non-nil, episode ep is
// reset with seed+ep so every genome sees the same sequence of start states.
func New(environment env.Environment, seed *int64) *Evaluator {
	var s *int64
	if seed != nil {
		v := *seed
		s = &v
	}
	return &Evaluator{
		env:      environment,
		seed:     s,
		discrete: environment.ActionSpace().Discrete,
	}
}

// Evaluate runs episodes episodes and returns the average return. The context
// is checked before each episode; an episode already underway always runs to
// termination or truncation.
func (e *Evaluator) Evaluate(ctx context.Context, policy Policy, episodes int) (float64, error) {
	if episodes < 1 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidEpisodes, episodes)
	}

	total := 0.0
	for ep := 0; ep < episodes; ep++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		episode, err := e.Rollout(policy, e.episodeSeed(ep), nil)
		if err != nil {
			return 0, fmt.Errorf("episode %d: %w", ep, err)
		}
		total += episode.Return
	}
	return total / float64(episodes), nil
}

// Episode is the outcome of a single rollout.
type Episode struct {
	Return float64
	Steps  int
}

// Rollout plays one episode from a reset with seed (nil leaves the
// environment's random stream as is). If trace is non-nil every action and its
// reward are recorded into it.
func (e *Evaluator) Rollout(policy Policy, seed *int64, trace *env.Replay) (Episode, error) {
	obs, _, err := e.env.Reset(seed)
	if err != nil {
		return Episode{}, fmt.Errorf("reset: %w", err)
	}

	var episode Episode
	for {
		action, err := policy.Act(obs, e.discrete)
		if err != nil {
			return episode, fmt.Errorf("act: %w", err)
		}
		step, err := e.env.Step(action)
		if err != nil {
			return episode, fmt.Errorf("step: %w", err)
		}
		if trace != nil {
			trace.Record(action, step.Reward)
		}
		episode.Return += step.Reward
		episode.Steps++
		if step.Done() {
			return episode, nil
		}
		obs = step.Observation
	}
}

func (e *Evaluator) episodeSeed(ep int) *int64 {
	if e.seed == nil {
		return nil
	}
	s := *e.seed + int64(ep)
	return &s
}
