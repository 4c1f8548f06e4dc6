package main

import (
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the statistical analysis against existing datasets",
	Long: `Load previously generated raw datasets from the data directory and run
the statistical analysis: normality screening, pairwise Mann-Whitney U
tests with Bonferroni correction, Cliff's delta effect sizes, and the
setup-time reuse contrast.`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	registerOverrideFlags(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	p, err := buildPipeline()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	return p.Analyze(ctx)
}
