// Package summary computes descriptive statistics over generated datasets:
// per-app and cross-app aggregates, plus the coverage heatmap matrix used by
// downstream figure generation.
package summary

import (
	"fmt"

	"github.com/smata-project/evalgen/pkg/schema"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// AggregateScope is the scope key for cross-app aggregate statistics.
const AggregateScope = "aggregate"

// Stat is one mean/std/count cell of the summary table.
type Stat struct {
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Count int     `json:"count"`
}

// Table maps scope -> approach -> metric -> stat. Scopes are the app names
// plus AggregateScope.
type Table map[string]map[string]map[string]Stat

// Aggregator computes summary statistics against the registry's shape.
type Aggregator struct {
	reg *schema.Registry
}

// New creates an aggregator.
func New(reg *schema.Registry) *Aggregator {
	return &Aggregator{reg: reg}
}

// Summarize builds the full summary table. Per-app cells are computed over
// that combination's run records; aggregate cells are the unweighted mean of
// per-app means with the std taken across apps.
func (a *Aggregator) Summarize(datasets []schema.Dataset) Table {
	table := make(Table)

	set := func(scope, approach, metric string, s Stat) {
		if table[scope] == nil {
			table[scope] = make(map[string]map[string]Stat)
		}

		if table[scope][approach] == nil {
			table[scope][approach] = make(map[string]Stat)
		}

		table[scope][approach][metric] = s
	}

	for _, ds := range datasets {
		byCombo := make(map[schema.RecordKey][]float64)

		for _, rec := range ds.Records {
			key := schema.RecordKey{App: rec.App, Approach: rec.Approach}
			byCombo[key] = append(byCombo[key], rec.Value)
		}

		for _, approach := range ds.Metric.Approaches {
			appMeans := make([]float64, 0, len(a.reg.Apps()))

			for _, app := range a.reg.Apps() {
				values := byCombo[schema.RecordKey{App: app.Name, Approach: approach}]
				if len(values) == 0 {
					continue
				}

				mean, std := stat.MeanStdDev(values, nil)
				set(app.Name, string(approach), string(ds.Metric.Name), Stat{
					Mean:  mean,
					Std:   std,
					Count: len(values),
				})

				appMeans = append(appMeans, mean)
			}

			if len(appMeans) == 0 {
				continue
			}

			aggMean, aggStd := stat.MeanStdDev(appMeans, nil)
			set(AggregateScope, string(approach), string(ds.Metric.Name), Stat{
				Mean:  aggMean,
				Std:   aggStd,
				Count: len(appMeans),
			})
		}
	}

	return table
}

// Heatmap builds the apps-by-approaches matrix of mean coverage. The shape
// is an invariant: one row per catalog app, one column per canonical
// approach (10x4).
func (a *Aggregator) Heatmap(coverage schema.Dataset) (*mat.Dense, error) {
	if coverage.Metric.Name != schema.MetricCoverage {
		return nil, fmt.Errorf("heatmap requires the %s dataset, got %s",
			schema.MetricCoverage, coverage.Metric.Name)
	}

	apps := a.reg.Apps()
	approaches := schema.CanonicalApproaches()

	byCombo := make(map[schema.RecordKey][]float64)

	for _, rec := range coverage.Records {
		key := schema.RecordKey{App: rec.App, Approach: rec.Approach}
		byCombo[key] = append(byCombo[key], rec.Value)
	}

	m := mat.NewDense(len(apps), len(approaches), nil)

	for i, app := range apps {
		for j, approach := range approaches {
			values := byCombo[schema.RecordKey{App: app.Name, Approach: approach}]
			if len(values) == 0 {
				return nil, fmt.Errorf("no coverage records for app=%s approach=%s", app.Name, approach)
			}

			m.Set(i, j, stat.Mean(values, nil))
		}
	}

	return m, nil
}
