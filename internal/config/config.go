// Package config loads experiment definitions from YAML. A file holds a
// default block and a list of experiments; each experiment is deep-merged
// over the defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"neuroevo/internal/ga"
)

// ErrInvalidExperiment reports an experiment that cannot be run.
var ErrInvalidExperiment = errors.New("invalid experiment")

// Config is the root configuration structure
type Config struct {
	Logging      LogConfig    `yaml:"logging"`
	Store        StoreConfig  `yaml:"store"`
	ArtifactsDir string       `yaml:"artifacts_dir"`
	Experiments  []Experiment `yaml:"-"`
}

// LogConfig defines logging parameters
type LogConfig struct {
	Level string `yaml:"level"` // info|debug
	Dir   string `yaml:"dir"`   // per-seed CSV result logs go under <dir>/<env>/
}

// StoreConfig selects where run records and champions are persisted.
type StoreConfig struct {
	Kind string `yaml:"kind"` // memory|sqlite
	Path string `yaml:"path"`
}

// Experiment is one environment's fully merged settings.
type Experiment struct {
	EnvID           string   `yaml:"env"`
	GA              GAConfig `yaml:"ga_params"`
	NetArch         []int    `yaml:"net_arch"`
	Seeds           []int64  `yaml:"seeds"`
	Generations     int      `yaml:"generations"`
	EpisodesPerEval int      `yaml:"episodes_per_eval"`
}

// GAConfig defines genetic algorithm parameters
type GAConfig struct {
	PopSize        int     `yaml:"pop_size"`
	CrossoverRate  float64 `yaml:"crossover_rate"`
	MutationRate   float64 `yaml:"mutation_rate"`
	MutationSigma  float64 `yaml:"mutation_sigma"`
	TournamentSize int     `yaml:"tournament_size"`
	Elitism        bool    `yaml:"elitism"`
	ElitismFrac    float64 `yaml:"elitism_frac"`
}

type file struct {
	Logging      LogConfig        `yaml:"logging"`
	Store        StoreConfig      `yaml:"store"`
	ArtifactsDir string           `yaml:"artifacts_dir"`
	Default      map[string]any   `yaml:"default"`
	Experiments  []map[string]any `yaml:"experiments"`
}

// Load reads a YAML config file and returns a Config
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML document into a Config, merging every experiment over
// the default block.
func Parse(data []byte) (*Config, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &Config{
		Logging:      f.Logging,
		Store:        f.Store,
		ArtifactsDir: f.ArtifactsDir,
	}
	applyDefaults(cfg)

	for i, raw := range f.Experiments {
		if _, ok := raw["env"]; !ok {
			return nil, fmt.Errorf("%w: experiment %d has no env key", ErrInvalidExperiment, i)
		}
		exp, err := decodeExperiment(deepMerge(f.Default, raw))
		if err != nil {
			return nil, fmt.Errorf("experiment %d: %w", i, err)
		}
		cfg.Experiments = append(cfg.Experiments, exp)
	}
	return cfg, nil
}

// decodeExperiment re-encodes a merged map and decodes it over the stock
// defaults, so only keys present in the file override them.
func decodeExperiment(merged map[string]any) (Experiment, error) {
	data, err := yaml.Marshal(merged)
	if err != nil {
		return Experiment{}, err
	}
	exp := DefaultExperiment()
	if err := yaml.Unmarshal(data, &exp); err != nil {
		return Experiment{}, err
	}
	return exp, nil
}

// deepMerge merges override into base recursively; override wins except where
// both sides hold maps, which are merged key by key.
func deepMerge(base, override map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		bm, bok := merged[k].(map[string]any)
		om, ook := v.(map[string]any)
		if bok && ook {
			merged[k] = deepMerge(bm, om)
			continue
		}
		merged[k] = v
	}
	return merged
}

// DefaultExperiment holds the values used for keys missing from the file.
func DefaultExperiment() Experiment {
	stock := ga.DefaultConfig(50, 1)
	return Experiment{
		GA: GAConfig{
			PopSize:        stock.PopSize,
			CrossoverRate:  stock.CrossoverRate,
			MutationRate:   stock.MutationRate,
			MutationSigma:  stock.MutationSigma,
			TournamentSize: stock.TournamentSize,
			Elitism:        stock.Elitism,
			ElitismFrac:    stock.ElitismFraction,
		},
		NetArch:         []int{16},
		Seeds:           []int64{0},
		Generations:     100,
		EpisodesPerEval: 1,
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Dir == "" {
		cfg.Logging.Dir = "logs"
	}
	if cfg.Store.Kind == "" {
		cfg.Store.Kind = "memory"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "runs.db"
	}
	if cfg.ArtifactsDir == "" {
		cfg.ArtifactsDir = "artifacts"
	}
}

// Filter keeps the experiments whose env id is listed. An empty list keeps
// everything.
func (c *Config) Filter(envs []string) []Experiment {
	if len(envs) == 0 {
		return c.Experiments
	}
	var out []Experiment
	for _, exp := range c.Experiments {
		if slices.Contains(envs, exp.EnvID) {
			out = append(out, exp)
		}
	}
	return out
}

// EngineConfig builds the engine configuration for a genome of genomeLength genes.
func (e Experiment) EngineConfig(genomeLength int) ga.Config {
	return ga.Config{
		PopSize:         e.GA.PopSize,
		GenomeLength:    genomeLength,
		CrossoverRate:   e.GA.CrossoverRate,
		MutationRate:    e.GA.MutationRate,
		MutationSigma:   e.GA.MutationSigma,
		TournamentSize:  e.GA.TournamentSize,
		Elitism:         e.GA.Elitism,
		ElitismFraction: e.GA.ElitismFrac,
	}
}

// Validate checks the experiment before any environment is built.
func (e Experiment) Validate() error {
	switch {
	case e.EnvID == "":
		return fmt.Errorf("%w: env is required", ErrInvalidExperiment)
	case e.Generations < 1:
		return fmt.Errorf("%w: generations must be at least 1, got %d", ErrInvalidExperiment, e.Generations)
	case e.EpisodesPerEval < 1:
		return fmt.Errorf("%w: episodes_per_eval must be at least 1, got %d", ErrInvalidExperiment, e.EpisodesPerEval)
	case len(e.Seeds) == 0:
		return fmt.Errorf("%w: at least one seed is required", ErrInvalidExperiment)
	}
	for i, w := range e.NetArch {
		if w < 1 {
			return fmt.Errorf("%w: net_arch[%d] must be positive, got %d", ErrInvalidExperiment, i, w)
		}
	}
	if err := e.EngineConfig(1).Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidExperiment, err)
	}
	return nil
}
