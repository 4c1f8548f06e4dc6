// Package pipeline orchestrates the full evaluation flow: schema registry
// -> synthetic data generation -> statistical analysis -> summary
// aggregation -> artifact writing, with optional run cataloging and remote
// upload. Stages run sequentially; within the generation and analysis
// stages, per-metric work fans out concurrently and merges
// deterministically.
package pipeline

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/smata-project/evalgen/pkg/analysis"
	"github.com/smata-project/evalgen/pkg/artifact"
	"github.com/smata-project/evalgen/pkg/config"
	"github.com/smata-project/evalgen/pkg/fsutil"
	"github.com/smata-project/evalgen/pkg/generator"
	"github.com/smata-project/evalgen/pkg/report"
	"github.com/smata-project/evalgen/pkg/schema"
	"github.com/smata-project/evalgen/pkg/store"
	"github.com/smata-project/evalgen/pkg/summary"
	"github.com/smata-project/evalgen/pkg/upload"
)

// Pipeline wires the evaluation components together.
type Pipeline struct {
	log      logrus.FieldLogger
	cfg      *config.Config
	reg      *schema.Registry
	gen      *generator.Generator
	engine   *analysis.Engine
	agg      *summary.Aggregator
	writer   *artifact.Writer
	owner    *fsutil.OwnerConfig
	catalog  store.Store
	uploader upload.Uploader
}

// New builds a pipeline from the configuration. Configuration errors are
// detected here, before any artifact is written.
func New(log logrus.FieldLogger, cfg *config.Config) (*Pipeline, error) {
	reg := schema.NewRegistry(cfg.Generator.Runs)

	if err := cfg.Validate(reg); err != nil {
		return nil, err
	}

	owner, err := fsutil.ParseOwner(cfg.Generator.DataOwner)
	if err != nil {
		return nil, fmt.Errorf("parsing data_owner: %w", err)
	}

	p := &Pipeline{
		log:    log.WithField("component", "pipeline"),
		cfg:    cfg,
		reg:    reg,
		gen:    generator.New(log, cfg, reg),
		engine: analysis.New(log, cfg.Analysis),
		agg:    summary.New(reg),
		writer: artifact.NewWriter(log, cfg.Generator.DataDir, owner),
		owner:  owner,
	}

	if cfg.Store != nil && cfg.Store.Enabled {
		p.catalog = store.NewStore(log, cfg.Store)
	}

	if cfg.Upload != nil && cfg.Upload.Enabled {
		p.uploader, err = upload.NewS3Uploader(log, cfg.Upload)
		if err != nil {
			return nil, fmt.Errorf("creating S3 uploader: %w", err)
		}
	}

	return p, nil
}

// Registry returns the pipeline's schema registry.
func (p *Pipeline) Registry() *schema.Registry {
	return p.reg
}

// Run executes the full pipeline. If the run catalog is enabled, the run is
// recorded with its final status; a failed generation still leaves a failed
// manifest behind.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.catalog != nil {
		if err := p.catalog.Start(ctx); err != nil {
			return fmt.Errorf("starting run catalog: %w", err)
		}

		defer func() {
			if err := p.catalog.Stop(); err != nil {
				p.log.WithError(err).Warn("Failed to stop run catalog")
			}
		}()
	}

	datasets, traces, err := p.generate(ctx)
	if err != nil {
		p.recordRun(ctx, nil, nil, 0, store.StatusFailed)

		return err
	}

	results, err := p.engine.Analyze(ctx, datasets)
	if err != nil {
		p.recordRun(ctx, datasets, nil, len(traces), store.StatusFailed)

		return fmt.Errorf("running analysis: %w", err)
	}

	if err := p.writeAll(datasets, traces, results); err != nil {
		p.recordRun(ctx, datasets, results, len(traces), store.StatusFailed)

		return err
	}

	p.recordRun(ctx, datasets, results, len(traces), store.StatusCompleted)

	if p.uploader != nil {
		if err := p.uploader.Preflight(ctx); err != nil {
			return fmt.Errorf("upload preflight failed: %w", err)
		}

		if err := p.uploader.Upload(ctx, p.cfg.Generator.DataDir); err != nil {
			return fmt.Errorf("uploading artifacts: %w", err)
		}
	}

	p.log.Info("Pipeline completed")

	return nil
}

// Generate runs only the synthetic data stage, writing the raw datasets,
// coverage traces, summary statistics, and heatmap.
func (p *Pipeline) Generate(ctx context.Context) error {
	datasets, traces, err := p.generate(ctx)
	if err != nil {
		return err
	}

	if err := p.writer.EnsureDirs(); err != nil {
		return err
	}

	for _, ds := range datasets {
		if err := p.writer.WriteRawDataset(ds); err != nil {
			return err
		}
	}

	if err := p.writer.WriteTraces(traces); err != nil {
		return err
	}

	table := p.agg.Summarize(datasets)
	if err := p.writer.WriteSummary(table); err != nil {
		return err
	}

	coverage, err := p.coverageDataset(datasets)
	if err != nil {
		return err
	}

	heatmap, err := p.agg.Heatmap(coverage)
	if err != nil {
		return fmt.Errorf("building heatmap: %w", err)
	}

	return p.writer.WriteHeatmap(heatmap, p.reg)
}

// Analyze runs only the statistical stage against previously generated raw
// datasets on disk.
func (p *Pipeline) Analyze(ctx context.Context) error {
	metrics := p.reg.Metrics()
	datasets := make([]schema.Dataset, 0, len(metrics))

	for _, metric := range metrics {
		ds, err := p.writer.ReadRawDataset(metric)
		if err != nil {
			return fmt.Errorf("loading dataset: %w", err)
		}

		datasets = append(datasets, ds)
	}

	results, err := p.engine.Analyze(ctx, datasets)
	if err != nil {
		return fmt.Errorf("running analysis: %w", err)
	}

	if err := p.writer.EnsureDirs(); err != nil {
		return err
	}

	if err := p.writer.WriteAnalysis(results); err != nil {
		return err
	}

	table := p.agg.Summarize(datasets)

	return report.Write(p.cfg.Generator.DataDir, p.reg, table, results, p.owner)
}

// generate produces and validates all datasets plus the coverage traces.
func (p *Pipeline) generate(ctx context.Context) ([]schema.Dataset, []schema.TracePoint, error) {
	datasets, err := p.gen.Datasets(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("generating datasets: %w", err)
	}

	for _, ds := range datasets {
		if err := p.reg.ValidateDataset(ds); err != nil {
			return nil, nil, fmt.Errorf("validating dataset: %w", err)
		}
	}

	coverage, err := p.coverageDataset(datasets)
	if err != nil {
		return nil, nil, err
	}

	traces, err := p.gen.CoverageTraces(coverage)
	if err != nil {
		return nil, nil, fmt.Errorf("generating coverage traces: %w", err)
	}

	return datasets, traces, nil
}

// writeAll persists every artifact of a full run.
func (p *Pipeline) writeAll(
	datasets []schema.Dataset,
	traces []schema.TracePoint,
	results *analysis.Results,
) error {
	if err := p.writer.EnsureDirs(); err != nil {
		return err
	}

	for _, ds := range datasets {
		if err := p.writer.WriteRawDataset(ds); err != nil {
			return err
		}
	}

	if err := p.writer.WriteTraces(traces); err != nil {
		return err
	}

	table := p.agg.Summarize(datasets)
	if err := p.writer.WriteSummary(table); err != nil {
		return err
	}

	if err := p.writer.WriteAnalysis(results); err != nil {
		return err
	}

	coverage, err := p.coverageDataset(datasets)
	if err != nil {
		return err
	}

	heatmap, err := p.agg.Heatmap(coverage)
	if err != nil {
		return fmt.Errorf("building heatmap: %w", err)
	}

	if err := p.writer.WriteHeatmap(heatmap, p.reg); err != nil {
		return err
	}

	return report.Write(p.cfg.Generator.DataDir, p.reg, table, results, p.owner)
}

// coverageDataset finds the coverage dataset among the generated ones.
func (p *Pipeline) coverageDataset(datasets []schema.Dataset) (schema.Dataset, error) {
	for _, ds := range datasets {
		if ds.Metric.Name == schema.MetricCoverage {
			return ds, nil
		}
	}

	return schema.Dataset{}, &schema.ConfigurationError{
		Key:    string(schema.MetricCoverage),
		Reason: "dataset not generated",
	}
}

// recordRun writes the run manifest and analysis records to the catalog, if
// enabled. Catalog failures are logged, not fatal: the artifacts on disk
// remain the source of truth.
func (p *Pipeline) recordRun(
	ctx context.Context,
	datasets []schema.Dataset,
	results *analysis.Results,
	tracePoints int,
	status string,
) {
	if p.catalog == nil {
		return
	}

	hash, err := p.cfg.Hash()
	if err != nil {
		p.log.WithError(err).Warn("Failed to hash configuration")
	}

	var records int
	for _, ds := range datasets {
		records += len(ds.Records)
	}

	run := &store.PipelineRun{
		ConfigHash:  hash,
		Status:      status,
		Seed:        p.cfg.Generator.Seed,
		RunRecords:  records,
		TracePoints: tracePoints,
		Metrics:     len(datasets),
	}

	if err := p.catalog.CreatePipelineRun(ctx, run); err != nil {
		p.log.WithError(err).Warn("Failed to record pipeline run")

		return
	}

	if results == nil {
		return
	}

	analysisRecords := make([]store.AnalysisRecord, 0, len(results.Pairs))

	for _, pair := range results.Pairs {
		analysisRecords = append(analysisRecords, store.AnalysisRecord{
			PipelineRunID: run.ID,
			Metric:        pair.Metric,
			ApproachA:     pair.ApproachA,
			ApproachB:     pair.ApproachB,
			UStatistic:    pair.UStatistic,
			PValue:        pair.PValue,
			Significant:   pair.CorrectedSignificant,
			EffectSize:    pair.EffectSize,
		})
	}

	if err := p.catalog.CreateAnalysisRecords(ctx, analysisRecords); err != nil {
		p.log.WithError(err).Warn("Failed to record analysis results")
	}
}
