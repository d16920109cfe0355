package main

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"neuroevo/internal/config"
	"neuroevo/internal/env"
	"neuroevo/internal/eval"
	"neuroevo/internal/logging"
	"neuroevo/internal/nn"
	"neuroevo/internal/store"
)

func newPlayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Replay a saved champion and report its returns",
		Long: `Run a champion for a number of episodes and report its returns. The
champion comes from a JSON file (--champion) or from the run store (--run,
with the store named by --config). With --replay, re-apply a recorded
action trace instead and check it reproduces the recorded return.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			championPath, _ := cmd.Flags().GetString("champion")
			runID, _ := cmd.Flags().GetString("run")
			configPath, _ := cmd.Flags().GetString("config")
			replayPath, _ := cmd.Flags().GetString("replay")
			episodes, _ := cmd.Flags().GetInt("episodes")
			seed, _ := cmd.Flags().GetInt64("seed")
			replayOut, _ := cmd.Flags().GetString("replay-out")
			log := commandLogger(cmd, "info")

			if replayPath != "" {
				return playReplay(cmd, replayPath)
			}
			if episodes < 1 {
				return fmt.Errorf("--episodes must be at least 1, got %d", episodes)
			}

			var champion logging.Champion
			switch {
			case championPath != "" && runID != "":
				return fmt.Errorf("--champion and --run are mutually exclusive")
			case championPath != "":
				c, err := logging.LoadChampion(championPath)
				if err != nil {
					return err
				}
				champion = c
			case runID != "":
				cfg, err := config.Load(configPath)
				if err != nil {
					return err
				}
				st, err := openRunStore(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				defer store.CloseIfSupported(st)
				run, err := findRun(cmd.Context(), st, runID)
				if err != nil {
					return err
				}
				if champion, err = championFromStore(cmd.Context(), st, run); err != nil {
					return err
				}
			default:
				return fmt.Errorf("one of --champion, --run or --replay is required")
			}

			environment, err := env.Make(champion.EnvID, seed)
			if err != nil {
				return err
			}
			defer environment.Close()

			net, err := nn.NewFeedForward(champion.Topology)
			if err != nil {
				return err
			}
			if err := net.Decode(champion.Genome); err != nil {
				return err
			}
			evaluator := eval.New(environment, nil)

			out := cmd.OutOrStdout()
			returns := make([]float64, 0, episodes)
			var best *env.Replay
			for ep := 0; ep < episodes; ep++ {
				epSeed := seed + int64(ep)
				trace := env.NewReplay(champion.EnvID, epSeed)
				episode, err := evaluator.Rollout(net, env.Seed(epSeed), trace)
				if err != nil {
					return fmt.Errorf("episode %d: %w", ep, err)
				}
				log.Debug("episode", "ep", ep, "return", episode.Return, "steps", episode.Steps)
				fmt.Fprintf(out, "episode %d: return %.2f in %d steps\n", ep, episode.Return, episode.Steps)
				returns = append(returns, episode.Return)
				if best == nil || trace.Return > best.Return {
					best = trace
				}
			}

			stats := env.Summarize(returns)
			fmt.Fprintf(out, "%s champion (seed %d, generation %d, fitness %.2f)\n",
				champion.EnvID, champion.Seed, champion.Generation, champion.Fitness)
			fmt.Fprintf(out, "mean %.2f ± %.2f, min %.2f, max %.2f over %d episodes\n",
				stats.Mean, stats.Std, stats.Min, stats.Max, stats.NumEpisodes)

			if replayOut != "" {
				if err := best.Save(replayOut); err != nil {
					return fmt.Errorf("save replay: %w", err)
				}
				log.Info("saved replay", "path", replayOut, "return", best.Return)
			}
			return nil
		},
	}

	cmd.Flags().String("champion", "", "Champion JSON written by train")
	cmd.Flags().String("run", "", "Load the champion of this run id from the run store")
	cmd.Flags().StringP("config", "c", "experiments.yaml", "Experiment config file naming the store, used with --run")
	cmd.Flags().String("replay", "", "Re-apply the action trace in this replay file")
	cmd.Flags().Int("episodes", 5, "Number of episodes to play")
	cmd.Flags().Int64("seed", 0, "Seed of the first episode; episode i uses seed+i")
	cmd.Flags().String("replay-out", "", "Write the best episode's action trace to this file")
	return cmd
}

// playReplay resets the replay's environment with its recorded seed, applies
// every recorded action and fails if the return differs from the recording.
func playReplay(cmd *cobra.Command, path string) error {
	replay, err := env.LoadReplay(path)
	if err != nil {
		return fmt.Errorf("load replay: %w", err)
	}
	environment, err := env.Make(replay.EnvID, replay.Seed)
	if err != nil {
		return err
	}
	defer environment.Close()

	total, err := replay.Playback(environment)
	if err != nil {
		return fmt.Errorf("playback: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s seed %d: replayed %d actions, return %.2f (recorded %.2f)\n",
		replay.EnvID, replay.Seed, len(replay.Actions), total, replay.Return)
	if math.Abs(total-replay.Return) > 1e-9 {
		return fmt.Errorf("replay diverged: return %v, recorded %v", total, replay.Return)
	}
	return nil
}
