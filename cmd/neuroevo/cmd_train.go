package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"neuroevo/internal/config"
	"neuroevo/internal/env"
	"neuroevo/internal/logging"
	"neuroevo/internal/store"
	"neuroevo/internal/trainer"
)

func newTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Run the experiments of a config file",
		Long: `Evolve a policy for every experiment (and every seed of it) in the config
file. Per-seed progress goes to <logging.dir>/<env>/seed<seed>.csv and each
run's champion to <artifacts_dir>/<env>/champion_seed<seed>.json.

Registered environments: ` + strings.Join(env.IDs(), ", "),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			envs, _ := cmd.Flags().GetStringSlice("envs")
			generations, _ := cmd.Flags().GetInt("generations")
			ctx := cmd.Context()

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			log := commandLogger(cmd, cfg.Logging.Level)

			experiments := cfg.Filter(envs)
			if len(experiments) == 0 {
				return fmt.Errorf("no experiments selected from %s", configPath)
			}

			st, err := store.NewStore(cfg.Store.Kind, cfg.Store.Path)
			if err != nil {
				return err
			}
			if err := st.Init(ctx); err != nil {
				return fmt.Errorf("init store: %w", err)
			}
			defer store.CloseIfSupported(st)

			results := logging.NewCSVLog(cfg.Logging.Dir)
			defer results.Close()

			runs := store.NewSink(st)
			runner := &trainer.Runner{
				Sinks: []trainer.Sink{
					results,
					logging.ChampionSink{Dir: cfg.ArtifactsDir},
					runs,
				},
				Logger: log,
			}

			out := cmd.OutOrStdout()
			var errs []error
			for _, exp := range experiments {
				if generations > 0 {
					exp.Generations = generations
				}
				start := time.Now()
				finished, err := runner.Run(ctx, exp)
				if err != nil {
					errs = append(errs, err)
				}
				evaluated := 0
				for _, res := range finished {
					evaluated += len(res.Records) * exp.GA.PopSize
					runID, _ := runs.RunID(res.EnvID, res.Seed)
					fmt.Fprintf(out, "%s seed %d: champion %.2f (generation %d) run=%s\n",
						res.EnvID, res.Seed, res.ChampionFitness, res.ChampionGeneration, runID)
				}
				fmt.Fprintf(out, "%s: %d/%d seeds finished, %s genomes evaluated in %s\n",
					exp.EnvID, len(finished), len(exp.Seeds), humanize.Comma(int64(evaluated)),
					time.Since(start).Round(time.Millisecond))
				if ctx.Err() != nil {
					break
				}
			}
			return errors.Join(errs...)
		},
	}

	cmd.Flags().StringP("config", "c", "experiments.yaml", "Experiment config file")
	cmd.Flags().StringSliceP("envs", "e", nil, "Only run experiments for these environment ids")
	cmd.Flags().Int("generations", 0, "Override the generation count of every experiment")
	return cmd
}
