package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"neuroevo/internal/ga"
)

const sample = `
logging:
  level: debug
store:
  kind: sqlite
  path: runs/test.db
default:
  ga_params:
    pop_size: 20
    mutation_sigma: 0.2
    elitism: false
  net_arch: [8]
  seeds: [1, 2, 3]
  generations: 30
  episodes_per_eval: 2
experiments:
  - env: CartPole-v1
  - env: Pendulum-v1
    net_arch: [32, 32]
    ga_params:
      pop_size: 40
      elitism: true
      elitism_frac: 0.1
`

func TestParseMergesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Dir != "logs" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.Store.Kind != "sqlite" || cfg.Store.Path != "runs/test.db" {
		t.Fatalf("unexpected store config: %+v", cfg.Store)
	}
	if cfg.ArtifactsDir != "artifacts" {
		t.Fatalf("artifacts dir = %q, want default", cfg.ArtifactsDir)
	}
	if len(cfg.Experiments) != 2 {
		t.Fatalf("got %d experiments, want 2", len(cfg.Experiments))
	}

	cart := cfg.Experiments[0]
	if cart.EnvID != "CartPole-v1" || cart.GA.PopSize != 20 || cart.GA.Elitism {
		t.Fatalf("cart-pole experiment not merged: %+v", cart)
	}
	if cart.GA.MutationSigma != 0.2 || cart.GA.CrossoverRate != 0.9 || cart.GA.TournamentSize != 3 {
		t.Fatalf("missing GA keys should take stock defaults: %+v", cart.GA)
	}
	if len(cart.Seeds) != 3 || cart.Generations != 30 || cart.EpisodesPerEval != 2 {
		t.Fatalf("run settings not inherited: %+v", cart)
	}

	pend := cfg.Experiments[1]
	if pend.GA.PopSize != 40 || !pend.GA.Elitism || pend.GA.ElitismFrac != 0.1 {
		t.Fatalf("override not applied: %+v", pend.GA)
	}
	if pend.GA.MutationSigma != 0.2 {
		t.Fatalf("nested default lost in merge: %+v", pend.GA)
	}
	if len(pend.NetArch) != 2 || pend.NetArch[0] != 32 {
		t.Fatalf("net_arch override = %v", pend.NetArch)
	}
}

func TestParseRequiresEnv(t *testing.T) {
	_, err := Parse([]byte("experiments:\n  - generations: 3\n"))
	if !errors.Is(err, ErrInvalidExperiment) {
		t.Fatalf("expected ErrInvalidExperiment, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "experiments.yaml")
	if err := os.WriteFile(path, []byte(sample), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := cfg.Filter([]string{"Pendulum-v1"}); len(got) != 1 || got[0].EnvID != "Pendulum-v1" {
		t.Fatalf("filter = %+v", got)
	}
	if got := cfg.Filter(nil); len(got) != 2 {
		t.Fatalf("empty filter kept %d experiments, want 2", len(got))
	}
}

func TestDeepMergeDoesNotTouchInputs(t *testing.T) {
	base := map[string]any{"a": map[string]any{"x": 1, "y": 2}, "b": 1}
	over := map[string]any{"a": map[string]any{"y": 3}, "c": 4}
	got := deepMerge(base, over)

	inner := got["a"].(map[string]any)
	if inner["x"] != 1 || inner["y"] != 3 || got["b"] != 1 || got["c"] != 4 {
		t.Fatalf("unexpected merge: %v", got)
	}
	if base["a"].(map[string]any)["y"] != 2 {
		t.Fatal("base map was modified")
	}
}

func TestExperimentValidate(t *testing.T) {
	valid := DefaultExperiment()
	valid.EnvID = "CartPole-v1"
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid experiment rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Experiment)
	}{
		{"missing env", func(e *Experiment) { e.EnvID = "" }},
		{"zero generations", func(e *Experiment) { e.Generations = 0 }},
		{"zero episodes", func(e *Experiment) { e.EpisodesPerEval = 0 }},
		{"no seeds", func(e *Experiment) { e.Seeds = nil }},
		{"bad hidden width", func(e *Experiment) { e.NetArch = []int{8, 0} }},
		{"bad tournament", func(e *Experiment) { e.GA.TournamentSize = 500 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp := valid
			exp.NetArch = append([]int(nil), valid.NetArch...)
			tt.mutate(&exp)
			if err := exp.Validate(); !errors.Is(err, ErrInvalidExperiment) {
				t.Fatalf("expected ErrInvalidExperiment, got %v", err)
			}
		})
	}

	bad := valid
	bad.GA.MutationRate = -1
	if err := bad.Validate(); !errors.Is(err, ga.ErrInvalidConfig) {
		t.Fatalf("GA errors should stay matchable, got %v", err)
	}
}
