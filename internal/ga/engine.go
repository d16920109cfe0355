package ga

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

var (
	// ErrInvalidConfig reports hyperparameters rejected at construction.
	ErrInvalidConfig = errors.New("invalid GA config")
	// ErrInvalidFitnessLength reports a fitness vector or population whose
	// size differs from the configured population size.
	ErrInvalidFitnessLength = errors.New("fitness length does not match population size")
)

// Genome is a flat vector of network parameters.
type Genome []float64

// Clone makes a copy of a genome.
func (g Genome) Clone() Genome {
	return append(Genome(nil), g...)
}

// Population is an ordered set of equally sized genomes.
type Population []Genome

// Config holds the GA hyperparameters. PopSize and GenomeLength are fixed for
// the lifetime of an Engine.
type Config struct {
	PopSize         int
	GenomeLength    int
	CrossoverRate   float64
	MutationRate    float64
	MutationSigma   float64
	TournamentSize  int
	Elitism         bool
	ElitismFraction float64
}

// DefaultConfig returns the stock hyperparameters for the given sizes.
func DefaultConfig(popSize, genomeLength int) Config {
	return Config{
		PopSize:         popSize,
		GenomeLength:    genomeLength,
		CrossoverRate:   0.9,
		MutationRate:    0.05,
		MutationSigma:   0.1,
		TournamentSize:  3,
		Elitism:         true,
		ElitismFraction: 0.05,
	}
}

// Validate rejects configurations no Engine can run with.
func (c Config) Validate() error {
	switch {
	case c.PopSize <= 0:
		return fmt.Errorf("%w: pop_size must be positive, got %d", ErrInvalidConfig, c.PopSize)
	case c.GenomeLength <= 0:
		return fmt.Errorf("%w: genome length must be positive, got %d", ErrInvalidConfig, c.GenomeLength)
	case c.TournamentSize < 1 || c.TournamentSize > c.PopSize:
		return fmt.Errorf("%w: tournament_size must be in [1, %d], got %d", ErrInvalidConfig, c.PopSize, c.TournamentSize)
	case !isProbability(c.CrossoverRate):
		return fmt.Errorf("%w: crossover_rate must be in [0, 1], got %v", ErrInvalidConfig, c.CrossoverRate)
	case !isProbability(c.MutationRate):
		return fmt.Errorf("%w: mutation_rate must be in [0, 1], got %v", ErrInvalidConfig, c.MutationRate)
	case c.MutationSigma < 0 || math.IsNaN(c.MutationSigma) || math.IsInf(c.MutationSigma, 0):
		return fmt.Errorf("%w: mutation_sigma must be a non-negative number, got %v", ErrInvalidConfig, c.MutationSigma)
	case !isProbability(c.ElitismFraction):
		return fmt.Errorf("%w: elitism_frac must be in [0, 1], got %v", ErrInvalidConfig, c.ElitismFraction)
	}
	return nil
}

func isProbability(p float64) bool {
	return p >= 0 && p <= 1
}

// EliteCount is the number of individuals carried over unchanged by Step.
func (c Config) EliteCount() int {
	if !c.Elitism || c.ElitismFraction <= 0 {
		return 0
	}
	n := int(math.Floor(c.ElitismFraction * float64(c.PopSize)))
	return min(max(1, n), c.PopSize)
}

// Engine advances a population one generation at a time. It owns its random
// source exclusively: given the same seed and call order, every draw is
// reproducible. An Engine is not safe for concurrent use.
type Engine struct {
	cfg Config
	rng *rand.Rand
}

// NewEngine validates cfg and binds it to rng.
func NewEngine(cfg Config, rng *rand.Rand) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: random source is required", ErrInvalidConfig)
	}
	return &Engine{cfg: cfg, rng: rng}, nil
}

// InitPopulation draws every gene independently and uniformly from [-1, 1].
func (e *Engine) InitPopulation() Population {
	pop := make(Population, e.cfg.PopSize)
	for i := range pop {
		g := make(Genome, e.cfg.GenomeLength)
		for j := range g {
			g[j] = e.rng.Float64()*2 - 1
		}
		pop[i] = g
	}
	return pop
}

// Step builds the next generation from pop and its fitness. Elites (if
// enabled) are copied first, ranked by fitness with ties going to the lower
// index. The remaining slots are filled with pairs of mutated children of
// tournament-selected parents; when the slot count is odd the last child
// produced is dropped. pop and fitness are left untouched.
func (e *Engine) Step(pop Population, fitness []float64) (Population, error) {
	if len(fitness) != e.cfg.PopSize {
		return nil, fmt.Errorf("%w: got %d fitness values for pop_size %d", ErrInvalidFitnessLength, len(fitness), e.cfg.PopSize)
	}
	if len(pop) != e.cfg.PopSize {
		return nil, fmt.Errorf("%w: got %d genomes for pop_size %d", ErrInvalidFitnessLength, len(pop), e.cfg.PopSize)
	}

	next := make(Population, 0, e.cfg.PopSize)
	for _, idx := range RankByFitness(fitness)[:e.cfg.EliteCount()] {
		next = append(next, pop[idx].Clone())
	}

	for len(next) < e.cfg.PopSize {
		a := e.tournament(fitness)
		b := e.tournament(fitness)
		c1, c2 := e.Crossover(pop[a], pop[b])
		next = append(next, e.Mutate(c1), e.Mutate(c2))
	}
	// An odd number of open slots leaves one surplus child.
	return next[:e.cfg.PopSize], nil
}

// RankByFitness returns population indices ordered by descending fitness,
// ties broken by the lower index.
func RankByFitness(fitness []float64) []int {
	order := make([]int, len(fitness))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return fitness[order[i]] > fitness[order[j]]
	})
	return order
}

// Best returns the index and value of the highest fitness, preferring the
// lowest index on ties. It returns -1 for an empty vector.
func Best(fitness []float64) (int, float64) {
	if len(fitness) == 0 {
		return -1, math.Inf(-1)
	}
	best := 0
	for i := 1; i < len(fitness); i++ {
		if fitness[i] > fitness[best] {
			best = i
		}
	}
	return best, fitness[best]
}
