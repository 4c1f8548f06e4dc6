package generator

import (
	"fmt"
	"math"

	"github.com/smata-project/evalgen/pkg/sampler"
	"github.com/smata-project/evalgen/pkg/schema"
)

// traceMetricLabel seeds trace jitter independently of the scalar coverage
// draw for the same combination.
const traceMetricLabel = "coverage_trace"

// CoverageTraces simulates per-run coverage growth over fixed time buckets.
// Each trace is a cumulative, monotonically non-decreasing curve with a
// diminishing-returns shape: bucket increments follow an exponential
// saturation curve with seeded jitter, rescaled so the final bucket equals
// the run's scalar coverage value exactly.
func (g *Generator) CoverageTraces(coverage schema.Dataset) ([]schema.TracePoint, error) {
	if coverage.Metric.Name != schema.MetricCoverage {
		return nil, fmt.Errorf("coverage traces require the %s dataset, got %s",
			schema.MetricCoverage, coverage.Metric.Name)
	}

	session := g.cfg.Generator.SessionMinutes
	bucket := g.cfg.Generator.BucketMinutes
	buckets := session/bucket + 1

	points := make([]schema.TracePoint, 0, len(coverage.Records)*buckets)

	for _, rec := range coverage.Records {
		rate, ok := g.cfg.Generator.GrowthRates[string(rec.Approach)]
		if !ok {
			return nil, &schema.ConfigurationError{
				Key:    fmt.Sprintf("growth_rates/%s", rec.Approach),
				Reason: "no coverage growth rate configured",
			}
		}

		trace := g.traceFor(rec, rate, session, bucket)
		points = append(points, trace...)
	}

	return points, nil
}

// traceFor builds one run's trace. The increment share of bucket t is
// F(t) - F(t-dt) with F(t) = 1 - exp(-rate*t), jittered multiplicatively
// and floored at zero, then the whole curve is rescaled to end at the run's
// final coverage value.
func (g *Generator) traceFor(rec schema.RunRecord, rate float64, session, bucket int) []schema.TracePoint {
	rnd := g.sampler.Source(sampler.Key{
		App:      rec.App,
		Approach: string(rec.Approach),
		Metric:   traceMetricLabel,
		Run:      rec.Run,
	})

	saturation := func(t int) float64 {
		return 1 - math.Exp(-rate*float64(t))
	}

	buckets := session/bucket + 1
	increments := make([]float64, 0, buckets-1)

	var total float64

	for t := bucket; t <= session; t += bucket {
		share := saturation(t) - saturation(t-bucket)

		jitter := 1 + g.cfg.Generator.TraceJitter*rnd.NormFloat64()
		if jitter < 0 {
			jitter = 0
		}

		share *= jitter
		increments = append(increments, share)
		total += share
	}

	// Degenerate jitter draw: fall back to the unjittered shape.
	if total <= 0 {
		total = 0

		for i := range increments {
			t := (i + 1) * bucket
			increments[i] = saturation(t) - saturation(t-bucket)
			total += increments[i]
		}
	}

	points := make([]schema.TracePoint, 0, buckets)
	points = append(points, schema.TracePoint{
		App:      rec.App,
		Approach: rec.Approach,
		Run:      rec.Run,
		TimeMin:  0,
		Coverage: 0,
	})

	cumulative := 0.0

	for i, inc := range increments {
		cumulative += inc * rec.Value / total

		points = append(points, schema.TracePoint{
			App:      rec.App,
			Approach: rec.Approach,
			Run:      rec.Run,
			TimeMin:  (i + 1) * bucket,
			Coverage: cumulative,
		})
	}

	return points
}
