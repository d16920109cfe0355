package ga

import (
	"errors"
	"math/rand"
	"testing"
)

func newTestEngine(t *testing.T, cfg Config, seed int64) *Engine {
	t.Helper()
	e, err := NewEngine(cfg, rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

func sameGenome(a, b Genome) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestConfigValidate(t *testing.T) {
	base := DefaultConfig(10, 5)
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero population", func(c *Config) { c.PopSize = 0 }},
		{"zero genome length", func(c *Config) { c.GenomeLength = 0 }},
		{"tournament too small", func(c *Config) { c.TournamentSize = 0 }},
		{"tournament larger than population", func(c *Config) { c.TournamentSize = 11 }},
		{"negative crossover rate", func(c *Config) { c.CrossoverRate = -0.1 }},
		{"crossover rate above one", func(c *Config) { c.CrossoverRate = 1.5 }},
		{"negative mutation rate", func(c *Config) { c.MutationRate = -1 }},
		{"negative sigma", func(c *Config) { c.MutationSigma = -0.1 }},
		{"elitism fraction above one", func(c *Config) { c.ElitismFraction = 1.1 }},
		{"negative elitism fraction", func(c *Config) { c.ElitismFraction = -0.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			if _, err := NewEngine(cfg, rand.New(rand.NewSource(1))); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}

	if err := base.Validate(); err != nil {
		t.Fatalf("default config rejected: %v", err)
	}
}

func TestEliteCount(t *testing.T) {
	tests := []struct {
		elitism  bool
		fraction float64
		pop      int
		want     int
	}{
		{true, 0.05, 10, 1},
		{true, 0.2, 10, 2},
		{true, 0.25, 10, 2},
		{true, 1, 10, 10},
		{true, 0, 10, 0},
		{false, 0.5, 10, 0},
	}
	for _, tt := range tests {
		cfg := DefaultConfig(tt.pop, 3)
		cfg.Elitism = tt.elitism
		cfg.ElitismFraction = tt.fraction
		if got := cfg.EliteCount(); got != tt.want {
			t.Fatalf("EliteCount(elitism=%v, f=%v, pop=%d) = %d, want %d", tt.elitism, tt.fraction, tt.pop, got, tt.want)
		}
	}
}

func TestInitPopulationBounds(t *testing.T) {
	e := newTestEngine(t, DefaultConfig(20, 15), 1)
	pop := e.InitPopulation()
	if len(pop) != 20 {
		t.Fatalf("population size %d, want 20", len(pop))
	}
	for i, g := range pop {
		if len(g) != 15 {
			t.Fatalf("genome %d length %d, want 15", i, len(g))
		}
		for _, v := range g {
			if v < -1 || v > 1 {
				t.Fatalf("gene %v outside [-1, 1]", v)
			}
		}
	}
}

func TestEngineIsReproducible(t *testing.T) {
	cfg := DefaultConfig(12, 6)
	run := func() Population {
		e := newTestEngine(t, cfg, 99)
		pop := e.InitPopulation()
		fitness := make([]float64, len(pop))
		for i := range fitness {
			fitness[i] = float64(i % 4)
		}
		next, err := e.Step(pop, fitness)
		if err != nil {
			t.Fatalf("step: %v", err)
		}
		return next
	}

	a, b := run(), run()
	for i := range a {
		if !sameGenome(a[i], b[i]) {
			t.Fatalf("genome %d differs between identically seeded runs", i)
		}
	}
}

func TestStepPopulationSize(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for _, popSize := range []int{1, 2, 3, 7, 10, 11} {
		for _, frac := range []float64{0, 0.05, 0.3, 1} {
			for _, elitism := range []bool{true, false} {
				cfg := DefaultConfig(popSize, 4)
				cfg.TournamentSize = 1 + rng.Intn(popSize)
				cfg.Elitism = elitism
				cfg.ElitismFraction = frac
				e := newTestEngine(t, cfg, int64(popSize))

				pop := e.InitPopulation()
				fitness := make([]float64, popSize)
				for i := range fitness {
					fitness[i] = rng.NormFloat64()
				}
				next, err := e.Step(pop, fitness)
				if err != nil {
					t.Fatalf("step: %v", err)
				}
				if len(next) != popSize {
					t.Fatalf("pop=%d elitism=%v frac=%v: next size %d", popSize, elitism, frac, len(next))
				}
				for _, g := range next {
					if len(g) != 4 {
						t.Fatalf("genome length %d, want 4", len(g))
					}
				}
			}
		}
	}
}

func TestStepPreservesElites(t *testing.T) {
	cfg := DefaultConfig(10, 8)
	cfg.ElitismFraction = 0.3
	cfg.MutationRate = 1
	cfg.MutationSigma = 1
	e := newTestEngine(t, cfg, 3)

	pop := e.InitPopulation()
	fitness := []float64{5, 1, 9, 3, 9, 0, 2, 7, 4, 6}

	next, err := e.Step(pop, fitness)
	if err != nil {
		t.Fatalf("step: %v", err)
	}

	// Top three by fitness, ties to the lower index: 2, 4, 7.
	for i, idx := range []int{2, 4, 7} {
		if !sameGenome(next[i], pop[idx]) {
			t.Fatalf("slot %d does not hold elite %d", i, idx)
		}
	}
}

func TestStepDoesNotMutateInputs(t *testing.T) {
	cfg := DefaultConfig(6, 5)
	cfg.MutationRate = 1
	e := newTestEngine(t, cfg, 4)
	pop := e.InitPopulation()
	fitness := []float64{1, 2, 3, 4, 5, 6}

	snapshot := make(Population, len(pop))
	for i, g := range pop {
		snapshot[i] = g.Clone()
	}
	fitSnap := append([]float64(nil), fitness...)

	next, err := e.Step(pop, fitness)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	for i := range pop {
		if !sameGenome(pop[i], snapshot[i]) {
			t.Fatalf("input genome %d was modified", i)
		}
		if fitness[i] != fitSnap[i] {
			t.Fatalf("fitness %d was modified", i)
		}
	}
	// Elites must be copies, not shared slices.
	next[0][0] += 100
	if pop[5][0] == next[0][0] {
		t.Fatal("elite aliases the input genome")
	}
}

func TestStepInvalidFitnessLength(t *testing.T) {
	e := newTestEngine(t, DefaultConfig(5, 3), 1)
	pop := e.InitPopulation()
	if _, err := e.Step(pop, []float64{1, 2, 3}); !errors.Is(err, ErrInvalidFitnessLength) {
		t.Fatalf("expected ErrInvalidFitnessLength, got %v", err)
	}
	if _, err := e.Step(pop[:4], []float64{1, 2, 3, 4, 5}); !errors.Is(err, ErrInvalidFitnessLength) {
		t.Fatalf("expected ErrInvalidFitnessLength for short population, got %v", err)
	}
}

func TestFullTournamentBreedsFromTheBest(t *testing.T) {
	// pop 10, tournament 10, no elitism, no crossover or mutation noise: every
	// child is a copy of the single fittest individual.
	cfg := DefaultConfig(10, 4)
	cfg.TournamentSize = 10
	cfg.Elitism = false
	cfg.CrossoverRate = 1
	cfg.MutationRate = 0
	e := newTestEngine(t, cfg, 8)

	pop := e.InitPopulation()
	fitness := []float64{0, 1, 2, 3, 10, 4, 5, 6, 7, 8}

	next, err := e.Step(pop, fitness)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	for i, g := range next {
		if !sameGenome(g, pop[4]) {
			t.Fatalf("child %d is not a copy of the fittest genome", i)
		}
	}
}

func TestBestAndRank(t *testing.T) {
	idx, v := Best([]float64{1, 5, 5, 2})
	if idx != 1 || v != 5 {
		t.Fatalf("Best = (%d, %v), want (1, 5)", idx, v)
	}
	if idx, _ := Best(nil); idx != -1 {
		t.Fatalf("Best(nil) index = %d, want -1", idx)
	}

	got := RankByFitness([]float64{1, 5, 5, 2})
	want := []int{1, 2, 3, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("RankByFitness = %v, want %v", got, want)
		}
	}
}

func TestStepOddSlotsDropsLastChild(t *testing.T) {
	// pop 6 with one elite leaves 5 open slots: three pairs are bred and the
	// sixth child is discarded.
	cfg := DefaultConfig(6, 5)
	cfg.ElitismFraction = 0.2
	cfg.MutationRate = 0.5
	cfg.TournamentSize = 2
	if cfg.EliteCount() != 1 {
		t.Fatalf("elite count %d, want 1", cfg.EliteCount())
	}
	fitness := []float64{3, 8, 1, 5, 8, 2}

	e := newTestEngine(t, cfg, 21)
	pop := e.InitPopulation()
	next, err := e.Step(pop, fitness)
	if err != nil {
		t.Fatalf("step: %v", err)
	}

	ref := newTestEngine(t, cfg, 21)
	refPop := ref.InitPopulation()
	want := Population{refPop[1].Clone()}
	var children Population
	for len(want)+len(children) < cfg.PopSize {
		a := ref.tournament(fitness)
		b := ref.tournament(fitness)
		c1, c2 := ref.Crossover(refPop[a], refPop[b])
		children = append(children, ref.Mutate(c1), ref.Mutate(c2))
	}
	if len(children) != 6 {
		t.Fatalf("reference bred %d children, want 6", len(children))
	}
	want = append(want, children[:5]...)

	for i := range want {
		if !sameGenome(next[i], want[i]) {
			t.Fatalf("slot %d differs from the reference breeding order", i)
		}
	}
	if sameGenome(next[5], children[5]) && !sameGenome(children[4], children[5]) {
		t.Fatal("last slot holds the surplus child")
	}
}
