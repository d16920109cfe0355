package eval

import (
	"context"
	"errors"
	"testing"

	"neuroevo/internal/env"
)

// scriptedEnv pays the action index as reward and ends after length steps.
type scriptedEnv struct {
	length   int
	discrete bool
	steps    int
	seeds    []*int64
	failAt   int
}

func (s *scriptedEnv) Reset(seed *int64) ([]float64, env.Info, error) {
	s.seeds = append(s.seeds, seed)
	s.steps = 0
	return []float64{0}, env.Info{}, nil
}

func (s *scriptedEnv) Step(a env.Action) (env.Step, error) {
	s.steps++
	if s.failAt > 0 && s.steps == s.failAt {
		return env.Step{}, errors.New("backend unreachable")
	}
	reward := float64(a.Index)
	if !s.discrete {
		reward = a.Values[0]
	}
	return env.Step{
		Observation: []float64{float64(s.steps)},
		Reward:      reward,
		Truncated:   s.steps >= s.length,
	}, nil
}

func (s *scriptedEnv) ObservationSpace() env.Space { return env.Space{Dim: 1} }
func (s *scriptedEnv) ActionSpace() env.Space {
	if s.discrete {
		return env.Space{Discrete: true, N: 3}
	}
	return env.Space{Dim: 1}
}
func (s *scriptedEnv) Close() error { return nil }

type constPolicy struct {
	index     int
	value     float64
	discretes []bool
}

func (p *constPolicy) Act(_ []float64, discrete bool) (env.Action, error) {
	p.discretes = append(p.discretes, discrete)
	if discrete {
		return env.Action{Index: p.index}, nil
	}
	return env.Action{Values: []float64{p.value}}, nil
}

func TestEvaluateAveragesReturns(t *testing.T) {
	e := &scriptedEnv{length: 5, discrete: true}
	ev := New(e, nil)

	got, err := ev.Evaluate(context.Background(), &constPolicy{index: 2}, 3)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got != 10 {
		t.Fatalf("average return = %v, want 10", got)
	}
	if len(e.seeds) != 3 {
		t.Fatalf("expected 3 resets, got %d", len(e.seeds))
	}
	for _, s := range e.seeds {
		if s != nil {
			t.Fatal("unseeded evaluator passed a reset seed")
		}
	}
}

func TestEvaluatePassesDiscreteness(t *testing.T) {
	e := &scriptedEnv{length: 2, discrete: false}
	p := &constPolicy{value: 0.5}
	got, err := New(e, nil).Evaluate(context.Background(), p, 1)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got != 1 {
		t.Fatalf("return = %v, want 1", got)
	}
	for _, d := range p.discretes {
		if d {
			t.Fatal("continuous env was asked for discrete actions")
		}
	}
}

func TestEvaluateSeedsEachEpisode(t *testing.T) {
	e := &scriptedEnv{length: 1, discrete: true}
	seed := int64(100)
	if _, err := New(e, &seed).Evaluate(context.Background(), &constPolicy{}, 3); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	for i, s := range e.seeds {
		if s == nil || *s != 100+int64(i) {
			t.Fatalf("episode %d reset seed = %v, want %d", i, s, 100+i)
		}
	}
}

func TestEvaluateInvalidEpisodes(t *testing.T) {
	ev := New(&scriptedEnv{length: 1, discrete: true}, nil)
	if _, err := ev.Evaluate(context.Background(), &constPolicy{}, 0); !errors.Is(err, ErrInvalidEpisodes) {
		t.Fatalf("expected ErrInvalidEpisodes, got %v", err)
	}
}

func TestEvaluatePropagatesEnvErrors(t *testing.T) {
	ev := New(&scriptedEnv{length: 10, discrete: true, failAt: 3}, nil)
	if _, err := ev.Evaluate(context.Background(), &constPolicy{}, 2); err == nil {
		t.Fatal("expected environment error to propagate")
	}
}

func TestEvaluateHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ev := New(&scriptedEnv{length: 1, discrete: true}, nil)
	if _, err := ev.Evaluate(ctx, &constPolicy{}, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRolloutRecordsTrace(t *testing.T) {
	ev := New(&scriptedEnv{length: 4, discrete: true}, nil)
	trace := env.NewReplay("scripted", 0)
	ep, err := ev.Rollout(&constPolicy{index: 1}, env.Seed(0), trace)
	if err != nil {
		t.Fatalf("rollout: %v", err)
	}
	if ep.Steps != 4 || ep.Return != 4 {
		t.Fatalf("episode = %+v, want 4 steps and return 4", ep)
	}
	if len(trace.Actions) != 4 || trace.Return != 4 {
		t.Fatalf("trace has %d actions and return %v", len(trace.Actions), trace.Return)
	}
}
