package generator

import (
	"context"
	"testing"

	"github.com/smata-project/evalgen/pkg/config"
	"github.com/smata-project/evalgen/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateCoverage(t *testing.T) (*Generator, schema.Dataset) {
	t.Helper()

	gen, _ := testGenerator(t, config.Default())

	datasets, err := gen.Datasets(context.Background())
	require.NoError(t, err)

	return gen, datasets[0]
}

func TestCoverageTraces_Shape(t *testing.T) {
	gen, coverage := generateCoverage(t)

	points, err := gen.CoverageTraces(coverage)
	require.NoError(t, err)

	// 400 runs x 13 buckets (t=0 through t=60 in 5-minute steps).
	assert.Len(t, points, 5200)
}

func TestCoverageTraces_Invariants(t *testing.T) {
	gen, coverage := generateCoverage(t)

	points, err := gen.CoverageTraces(coverage)
	require.NoError(t, err)

	scalar := make(map[schema.RecordKey]float64, len(coverage.Records))
	for _, rec := range coverage.Records {
		scalar[schema.RecordKey{App: rec.App, Approach: rec.Approach, Run: rec.Run}] = rec.Value
	}

	const buckets = 13

	require.Zero(t, len(points)%buckets)

	for start := 0; start < len(points); start += buckets {
		trace := points[start : start+buckets]
		key := schema.RecordKey{App: trace[0].App, Approach: trace[0].Approach, Run: trace[0].Run}

		// Starts at zero coverage at t=0.
		assert.Equal(t, 0, trace[0].TimeMin)
		assert.Equal(t, 0.0, trace[0].Coverage)

		for i := 1; i < buckets; i++ {
			assert.Equal(t, key.App, trace[i].App)
			assert.Equal(t, i*5, trace[i].TimeMin)

			// Cumulative coverage never decreases.
			assert.GreaterOrEqual(t, trace[i].Coverage, trace[i-1].Coverage)
		}

		// The final bucket matches the run's scalar coverage exactly.
		assert.InDelta(t, scalar[key], trace[buckets-1].Coverage, 1e-9)
	}
}

func TestCoverageTraces_Deterministic(t *testing.T) {
	gen, coverage := generateCoverage(t)

	a, err := gen.CoverageTraces(coverage)
	require.NoError(t, err)

	b, err := gen.CoverageTraces(coverage)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestCoverageTraces_RejectsWrongMetric(t *testing.T) {
	gen, reg := testGenerator(t, config.Default())

	info, err := reg.Metric(schema.MetricDetection)
	require.NoError(t, err)

	_, err = gen.CoverageTraces(schema.Dataset{Metric: info})
	assert.Error(t, err)
}

func TestCoverageTraces_MissingGrowthRate(t *testing.T) {
	cfg := config.Default()
	gen, reg := testGenerator(t, cfg)

	delete(cfg.Generator.GrowthRates, string(schema.ApproachMonkey))

	info, err := reg.Metric(schema.MetricCoverage)
	require.NoError(t, err)

	ds := schema.Dataset{
		Metric: info,
		Records: []schema.RunRecord{
			{App: "AnyMemo", Approach: schema.ApproachMonkey, Run: 0, Value: 40},
		},
	}

	_, err = gen.CoverageTraces(ds)
	require.Error(t, err)

	var cfgErr *schema.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestCoverageTraces_MonkeySaturatesEarlier(t *testing.T) {
	// Monkey's growth rate (0.12) saturates faster than SMATA's (0.06), so
	// at mid-session monkey must have realized a larger share of its final
	// coverage on average.
	gen, coverage := generateCoverage(t)

	points, err := gen.CoverageTraces(coverage)
	require.NoError(t, err)

	shareAt := func(approach schema.Approach, timeMin int) float64 {
		final := make(map[schema.RecordKey]float64)
		mid := make(map[schema.RecordKey]float64)

		for _, pt := range points {
			if pt.Approach != approach {
				continue
			}

			key := schema.RecordKey{App: pt.App, Approach: pt.Approach, Run: pt.Run}

			switch pt.TimeMin {
			case timeMin:
				mid[key] = pt.Coverage
			case 60:
				final[key] = pt.Coverage
			}
		}

		var sum float64
		var n int

		for key, f := range final {
			if f > 0 {
				sum += mid[key] / f
				n++
			}
		}

		require.NotZero(t, n)

		return sum / float64(n)
	}

	assert.Greater(t, shareAt(schema.ApproachMonkey, 30), shareAt(schema.ApproachSMATA, 30))
}
