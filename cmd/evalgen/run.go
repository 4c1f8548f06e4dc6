package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/smata-project/evalgen/pkg/config"
	"github.com/smata-project/evalgen/pkg/pipeline"
	"github.com/spf13/cobra"
)

var (
	seedOverride    uint64
	runsOverride    int
	dataDirOverride string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate datasets and run the statistical analysis",
	Long: `Run the full pipeline: generate all synthetic datasets, run the
statistical analysis over them, and write the raw and processed artifacts
to the data directory.`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)
	registerOverrideFlags(runCmd)
}

func registerOverrideFlags(cmd *cobra.Command) {
	cmd.Flags().Uint64Var(&seedOverride, "seed", 0,
		"Override the master seed (0 keeps the configured seed)")
	cmd.Flags().IntVar(&runsOverride, "runs", 0,
		"Override the runs per combination (0 keeps the configured count)")
	cmd.Flags().StringVar(&dataDirOverride, "data-dir", "",
		"Override the output data directory")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	p, err := buildPipeline()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	return p.Run(ctx)
}

// buildPipeline loads configuration, applies CLI overrides, and constructs
// the pipeline.
func buildPipeline() (*pipeline.Pipeline, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if seedOverride != 0 {
		cfg.Generator.Seed = seedOverride
	}

	if runsOverride != 0 {
		cfg.Generator.Runs = runsOverride
	}

	if dataDirOverride != "" {
		cfg.Generator.DataDir = dataDirOverride
	}

	return pipeline.New(log, cfg)
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
	}()

	return ctx, cancel
}
