package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"neuroevo/internal/config"
	"neuroevo/internal/logging"
	"neuroevo/internal/store"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List training runs kept in the run store",
		Long: `List the runs recorded by train in the configured store. With --run, print
that run's per-generation best fitness and its champion; add --champion-out
to export the champion as a JSON file play can load.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			envID, _ := cmd.Flags().GetString("env")
			runID, _ := cmd.Flags().GetString("run")
			championOut, _ := cmd.Flags().GetString("champion-out")
			ctx := cmd.Context()

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			st, err := openRunStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.CloseIfSupported(st)

			if runID == "" {
				return listRuns(cmd, st, envID)
			}
			return showRun(cmd, st, runID, championOut)
		},
	}

	cmd.Flags().StringP("config", "c", "experiments.yaml", "Experiment config file naming the store")
	cmd.Flags().StringP("env", "e", "", "Only list runs of this environment id")
	cmd.Flags().String("run", "", "Show the records and champion of this run id")
	cmd.Flags().String("champion-out", "", "With --run, write the run's champion to this JSON file")
	return cmd
}

// openRunStore opens the configured store for reading. The memory backend
// keeps nothing between invocations, so it is rejected.
func openRunStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.Store.Kind == "" || cfg.Store.Kind == "memory" {
		return nil, fmt.Errorf("store kind %q keeps no runs between invocations; configure store.kind: sqlite", cfg.Store.Kind)
	}
	st, err := store.NewStore(cfg.Store.Kind, cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Init(ctx); err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	return st, nil
}

func listRuns(cmd *cobra.Command, st store.Store, envID string) error {
	ctx := cmd.Context()
	runs, err := st.Runs(ctx, envID)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d runs:\n", len(runs))
	for _, run := range runs {
		records, err := st.Records(ctx, run.ID)
		if err != nil {
			return err
		}
		champion := "-"
		if c, ok, err := st.Champion(ctx, run.ID); err != nil {
			return err
		} else if ok {
			champion = fmt.Sprintf("%.2f", c.Fitness)
		}
		fmt.Fprintf(out, "  %s  %s seed %d, %d generations, champion %s, started %s\n",
			run.ID, run.EnvID, run.Seed, len(records), champion, humanize.Time(run.StartedAt))
	}
	return nil
}

func showRun(cmd *cobra.Command, st store.Store, runID, championOut string) error {
	ctx := cmd.Context()
	run, err := findRun(ctx, st, runID)
	if err != nil {
		return err
	}
	records, err := st.Records(ctx, run.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s: %s seed %d, started %s\n", run.ID, run.EnvID, run.Seed, humanize.Time(run.StartedAt))
	for _, rec := range records {
		fmt.Fprintf(out, "generation %d: best %.2f\n", rec.Generation, rec.BestFitness)
	}

	champion, err := championFromStore(ctx, st, run)
	if err != nil {
		fmt.Fprintln(out, "no champion saved")
		if championOut != "" {
			return err
		}
		return nil
	}
	fmt.Fprintf(out, "champion: fitness %.2f at generation %d, %s genes\n",
		champion.Fitness, champion.Generation, humanize.Comma(int64(len(champion.Genome))))
	if championOut != "" {
		if err := logging.SaveChampion(championOut, champion); err != nil {
			return err
		}
		fmt.Fprintf(out, "champion written to %s\n", championOut)
	}
	return nil
}

func findRun(ctx context.Context, st store.Store, runID string) (store.Run, error) {
	runs, err := st.Runs(ctx, "")
	if err != nil {
		return store.Run{}, err
	}
	for _, run := range runs {
		if run.ID == runID {
			return run, nil
		}
	}
	return store.Run{}, fmt.Errorf("%w: %s", store.ErrRunNotFound, runID)
}

// championFromStore converts a stored champion into the artifact play loads.
func championFromStore(ctx context.Context, st store.Store, run store.Run) (logging.Champion, error) {
	c, ok, err := st.Champion(ctx, run.ID)
	if err != nil {
		return logging.Champion{}, err
	}
	if !ok {
		return logging.Champion{}, fmt.Errorf("run %s has no saved champion", run.ID)
	}
	return logging.Champion{
		EnvID:      run.EnvID,
		Seed:       run.Seed,
		Generation: c.Generation,
		Fitness:    c.Fitness,
		Topology:   c.Topology,
		Genome:     c.Genome,
	}, nil
}
