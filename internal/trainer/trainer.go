// Package trainer drives the evolution loop: for every seed of an experiment
// it evaluates each generation's genomes in an environment and breeds the
// next generation from their fitness.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"neuroevo/internal/config"
	"neuroevo/internal/env"
	"neuroevo/internal/eval"
	"neuroevo/internal/ga"
	"neuroevo/internal/nn"
)

// Record is the per-generation output of a run.
type Record struct {
	EnvID       string
	Seed        int64
	Generation  int
	BestFitness float64
}

// Result summarises one completed (environment, seed) run.
type Result struct {
	EnvID    string
	Seed     int64
	Topology nn.Topology
	Records  []Record

	// Champion is the best genome seen in any generation of the run.
	Champion           ga.Genome
	ChampionFitness    float64
	ChampionGeneration int
}

// Sink receives run output. Record is called once per generation, after the
// whole generation has been evaluated; Finish once per successful run.
type Sink interface {
	Record(ctx context.Context, rec Record) error
	Finish(ctx context.Context, res Result) error
}

// Runner executes experiments.
type Runner struct {
	Envs   env.Factory // defaults to env.Make
	Sinks  []Sink
	Logger *slog.Logger
}

// Run executes every seed of exp in order. A seed whose run fails is logged
// and skipped; the remaining seeds still run and the failures are returned
// joined together.
func (r *Runner) Run(ctx context.Context, exp config.Experiment) ([]Result, error) {
	if err := exp.Validate(); err != nil {
		return nil, err
	}

	var (
		results []Result
		errs    []error
	)
	for _, seed := range exp.Seeds {
		res, err := r.RunSeed(ctx, exp, seed)
		if err != nil {
			r.logger().Error("seed run aborted", "env", exp.EnvID, "seed", seed, "err", err)
			errs = append(errs, fmt.Errorf("%s seed %d: %w", exp.EnvID, seed, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

// RunSeed evolves a population for exp.Generations generations against a
// fresh environment seeded with seed. The GA engine's random source is seeded
// with the same value, so a run is reproducible end to end. A failure to
// close the environment is joined into the returned error.
func (r *Runner) RunSeed(ctx context.Context, exp config.Experiment, seed int64) (_ Result, err error) {
	environment, err := r.envs()(exp.EnvID, seed)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if cerr := environment.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close environment: %w", cerr))
		}
	}()

	topology := make(nn.Topology, 0, len(exp.NetArch)+2)
	topology = append(topology, environment.ObservationSpace().Size())
	topology = append(topology, exp.NetArch...)
	topology = append(topology, environment.ActionSpace().Size())

	net, err := nn.NewFeedForward(topology)
	if err != nil {
		return Result{}, err
	}
	engine, err := ga.NewEngine(exp.EngineConfig(net.ParamCount()), rand.New(rand.NewSource(seed)))
	if err != nil {
		return Result{}, err
	}
	evaluator := eval.New(environment, &seed)

	log := r.logger().With("env", exp.EnvID, "seed", seed)
	log.Info("run started", "topology", []int(topology), "genome_length", net.ParamCount(), "pop_size", exp.GA.PopSize)

	res := Result{
		EnvID:              exp.EnvID,
		Seed:               seed,
		Topology:           topology,
		ChampionGeneration: -1,
	}

	pop := engine.InitPopulation()
	for gen := 0; gen < exp.Generations; gen++ {
		fitness, err := evaluatePopulation(ctx, net, evaluator, pop, exp.EpisodesPerEval)
		if err != nil {
			return res, fmt.Errorf("generation %d: %w", gen, err)
		}

		bestIdx, best := ga.Best(fitness)
		rec := Record{EnvID: exp.EnvID, Seed: seed, Generation: gen, BestFitness: best}
		for _, s := range r.Sinks {
			if err := s.Record(ctx, rec); err != nil {
				return res, fmt.Errorf("record generation %d: %w", gen, err)
			}
		}
		res.Records = append(res.Records, rec)

		if res.ChampionGeneration < 0 || best > res.ChampionFitness {
			res.Champion = pop[bestIdx].Clone()
			res.ChampionFitness = best
			res.ChampionGeneration = gen
		}

		if gen%10 == 0 || gen == exp.Generations-1 {
			log.Info("generation", "gen", gen, "best", best)
		} else {
			log.Debug("generation", "gen", gen, "best", best)
		}

		pop, err = engine.Step(pop, fitness)
		if err != nil {
			return res, err
		}
	}

	for _, s := range r.Sinks {
		if err := s.Finish(ctx, res); err != nil {
			return res, fmt.Errorf("finish run: %w", err)
		}
	}
	log.Info("run finished", "champion_fitness", res.ChampionFitness, "champion_generation", res.ChampionGeneration)
	return res, nil
}

// evaluatePopulation decodes and evaluates every genome in order, reusing net.
// fitness[i] always belongs to pop[i].
func evaluatePopulation(ctx context.Context, net *nn.FeedForward, evaluator *eval.Evaluator, pop ga.Population, episodes int) ([]float64, error) {
	fitness := make([]float64, len(pop))
	for i, genome := range pop {
		if err := net.Decode(genome); err != nil {
			return nil, fmt.Errorf("decode genome %d: %w", i, err)
		}
		f, err := evaluator.Evaluate(ctx, net, episodes)
		if err != nil {
			return nil, fmt.Errorf("evaluate genome %d: %w", i, err)
		}
		fitness[i] = f
	}
	return fitness, nil
}

func (r *Runner) envs() env.Factory {
	if r.Envs != nil {
		return r.Envs
	}
	return env.Make
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
