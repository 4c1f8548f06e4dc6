package main

import (
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the synthetic datasets only",
	Long: `Generate all raw datasets, the coverage-over-time traces, the summary
statistics, and the coverage heatmap without running the statistical
analysis. Useful for inspecting the data before committing to a full run.`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	registerOverrideFlags(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	p, err := buildPipeline()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	return p.Generate(ctx)
}
