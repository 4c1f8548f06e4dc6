package main

import (
	"fmt"

	"github.com/smata-project/evalgen/pkg/config"
	"github.com/smata-project/evalgen/pkg/store"
	"github.com/spf13/cobra"
)

var showRecords bool

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List cataloged pipeline runs",
	Long: `List the pipeline runs recorded in the run catalog, newest last.
Requires the store to be enabled in the configuration.`,
	RunE: listRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().BoolVar(&showRecords, "records", false,
		"Also print the analysis records of the latest run")
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.Store == nil || !cfg.Store.Enabled {
		return fmt.Errorf("run catalog is not enabled in the configuration")
	}

	catalog := store.NewStore(log, cfg.Store)

	ctx, cancel := signalContext()
	defer cancel()

	if err := catalog.Start(ctx); err != nil {
		return fmt.Errorf("starting run catalog: %w", err)
	}

	defer func() {
		if err := catalog.Stop(); err != nil {
			log.WithError(err).Warn("Failed to stop run catalog")
		}
	}()

	runs, err := catalog.ListPipelineRuns(ctx)
	if err != nil {
		return fmt.Errorf("listing pipeline runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("no runs recorded")

		return nil
	}

	for _, run := range runs {
		fmt.Printf("#%d  %s  seed=%d  records=%d  traces=%d  config=%s  %s\n",
			run.ID, run.CreatedAt.Format("2006-01-02 15:04:05"),
			run.Seed, run.RunRecords, run.TracePoints,
			run.ConfigHash, run.Status)
	}

	if !showRecords {
		return nil
	}

	latest, err := catalog.LatestPipelineRun(ctx)
	if err != nil {
		return fmt.Errorf("getting latest pipeline run: %w", err)
	}

	records, err := catalog.ListAnalysisRecords(ctx, latest.ID)
	if err != nil {
		return fmt.Errorf("listing analysis records: %w", err)
	}

	fmt.Printf("\nanalysis records for run #%d:\n", latest.ID)

	for _, rec := range records {
		sig := "n.s."
		if rec.Significant {
			sig = "significant"
		}

		fmt.Printf("  %s: %s vs %s  U=%.1f  p=%.4g  d=%+.3f  %s\n",
			rec.Metric, rec.ApproachA, rec.ApproachB,
			rec.UStatistic, rec.PValue, rec.EffectSize, sig)
	}

	return nil
}
