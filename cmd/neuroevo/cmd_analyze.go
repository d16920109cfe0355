package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"neuroevo/internal/analysis"
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Aggregate result logs into learning curves",
		Long: `Read every <input-dir>/<env>/*.csv result log, average best fitness per
generation across seeds and write <output-dir>/<env>/<env>.png plus
<output-dir>/<env>/<env>_stats.csv.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputDir, _ := cmd.Flags().GetString("input-dir")
			outputDir, _ := cmd.Flags().GetString("output-dir")
			log := commandLogger(cmd, "info")

			reports, err := analysis.Run(inputDir, outputDir, log)
			if err != nil {
				return err
			}
			if len(reports) == 0 {
				return fmt.Errorf("no result logs found under %s", inputDir)
			}
			for _, rep := range reports {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s, %s\n", rep.EnvID, rep.PlotPath, rep.StatsPath)
			}
			return nil
		},
	}

	cmd.Flags().String("input-dir", "logs", "Directory holding <env>/seed<seed>.csv result logs")
	cmd.Flags().String("output-dir", "results", "Directory to write plots and stats to")
	return cmd
}
