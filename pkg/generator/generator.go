// Package generator produces the synthetic evaluation datasets: one run
// record per (app, approach, metric, run) combination, sampled from the
// configured target distributions, plus coverage progression traces.
// Generation is deterministic: the sampler seeds every draw from its
// combination key, so regenerating with the same configuration yields
// byte-identical artifacts regardless of scheduling.
package generator

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/smata-project/evalgen/pkg/config"
	"github.com/smata-project/evalgen/pkg/sampler"
	"github.com/smata-project/evalgen/pkg/schema"
	"golang.org/x/sync/errgroup"
)

// GenerationError indicates a sampled value violated its metric's declared
// range after clamping. Fatal for the combination it names.
type GenerationError struct {
	App      string
	Approach schema.Approach
	Metric   schema.Metric
	Run      int
	Value    float64
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf(
		"generation error for app=%s approach=%s metric=%s run=%d: value %.4f outside declared range",
		e.App, e.Approach, e.Metric, e.Run, e.Value,
	)
}

// Generator orchestrates the sampler across the registry's combinations.
type Generator struct {
	log     logrus.FieldLogger
	cfg     *config.Config
	reg     *schema.Registry
	sampler *sampler.Sampler
}

// New creates a generator. The configuration must already be validated
// against the registry.
func New(log logrus.FieldLogger, cfg *config.Config, reg *schema.Registry) *Generator {
	return &Generator{
		log:     log.WithField("component", "generator"),
		cfg:     cfg,
		reg:     reg,
		sampler: sampler.New(cfg.Generator.Seed),
	}
}

// Datasets generates one dataset per registry metric. Metrics are generated
// concurrently; per-combination seeding makes the outputs independent of
// execution order.
func (g *Generator) Datasets(ctx context.Context) ([]schema.Dataset, error) {
	metrics := g.reg.Metrics()
	datasets := make([]schema.Dataset, len(metrics))

	eg, _ := errgroup.WithContext(ctx)

	for i := range metrics {
		eg.Go(func() error {
			ds, err := g.generateMetric(metrics[i])
			if err != nil {
				return err
			}

			datasets[i] = ds

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return datasets, nil
}

// generateMetric emits exactly the configured run count for every
// (app, approach) combination of one metric, in catalog order.
func (g *Generator) generateMetric(metric schema.MetricInfo) (schema.Dataset, error) {
	mc, ok := g.cfg.Metrics[string(metric.Name)]
	if !ok {
		return schema.Dataset{}, &schema.ConfigurationError{
			Key:    string(metric.Name),
			Reason: "no target parameters configured",
		}
	}

	ds := schema.Dataset{
		Metric:  metric,
		Records: make([]schema.RunRecord, 0, g.reg.ExpectedRows(metric)),
	}

	for _, app := range g.reg.Apps() {
		for _, approach := range metric.Approaches {
			params, ok := mc.Params[string(approach)]
			if !ok {
				return schema.Dataset{}, &schema.ConfigurationError{
					Key:    fmt.Sprintf("%s/%s", metric.Name, approach),
					Reason: "no target parameters configured",
				}
			}

			mean, std := adjustParams(params, mc, app, approach)

			for run := 0; run < g.reg.Runs(); run++ {
				key := sampler.Key{
					App:      app.Name,
					Approach: string(approach),
					Metric:   string(metric.Name),
					Run:      run,
				}

				value := g.sampler.Sample(key, mean, std, metric.Min, metric.Max)

				if !metric.ValueInRange(value) {
					return schema.Dataset{}, &GenerationError{
						App:      app.Name,
						Approach: approach,
						Metric:   metric.Name,
						Run:      run,
						Value:    value,
					}
				}

				ds.Records = append(ds.Records, schema.RunRecord{
					App:      app.Name,
					Approach: approach,
					Run:      run,
					Value:    value,
				})
			}
		}
	}

	g.log.WithFields(logrus.Fields{
		"metric":  metric.Name,
		"records": len(ds.Records),
	}).Debug("Generated dataset")

	return ds, nil
}

// adjustParams applies the metric's calibrated per-app adjustments: a mean
// shift for apps with authentication flows and a std scale by complexity.
func adjustParams(
	params config.ApproachParams,
	mc config.MetricConfig,
	app schema.App,
	approach schema.Approach,
) (mean, std float64) {
	mean, std = params.Mean, params.Std

	if app.HasAuth {
		mean += mc.AuthAdjust[string(approach)]
	}

	if scale, ok := mc.ComplexityStdScale[app.Complexity]; ok {
		std *= scale
	}

	return mean, std
}
