// Package analysis validates generated datasets: per-group normality
// checks, pairwise Mann-Whitney U tests with Bonferroni correction over the
// SMATA-vs-baseline family, and Cliff's delta effect sizes.
package analysis

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/smata-project/evalgen/pkg/config"
	"github.com/smata-project/evalgen/pkg/schema"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// PairResult is the outcome of one pairwise comparison for one metric.
type PairResult struct {
	Metric    string `json:"metric"`
	ApproachA string `json:"approach_a"`
	ApproachB string `json:"approach_b"`

	// NormalityP holds the Shapiro-Wilk p-value per approach group.
	// Descriptive only: the hypothesis test below is non-parametric and
	// does not depend on this outcome.
	NormalityP map[string]float64 `json:"normality_p"`

	UStatistic float64 `json:"u_statistic"`
	PValue     float64 `json:"p_value"`

	// Tracked marks the three SMATA-vs-baseline comparisons that the
	// Bonferroni-corrected threshold applies to. Untracked pairs are
	// reported but never flagged significant, a deliberate protocol
	// scope decision rather than a universal correction.
	Tracked              bool    `json:"tracked"`
	CorrectedAlpha       float64 `json:"corrected_alpha"`
	CorrectedSignificant bool    `json:"corrected_significant"`

	EffectSize      float64 `json:"effect_size"`
	EffectMagnitude string  `json:"effect_magnitude"`

	MeanA float64 `json:"mean_a"`
	MeanB float64 `json:"mean_b"`
}

// SkippedMetric records a metric excluded from pairwise analysis, with the
// reason, so the omission is explicit in the output.
type SkippedMetric struct {
	Metric string `json:"metric"`
	Reason string `json:"reason"`
}

// ReuseContrast is the supplemental setup-time comparison between the
// SMATA artifact-reuse variant and the ad-hoc baseline.
type ReuseContrast struct {
	UStatistic      float64 `json:"u_statistic"`
	PValue          float64 `json:"p_value"`
	EffectSize      float64 `json:"effect_size"`
	EffectMagnitude string  `json:"effect_magnitude"`
	ReductionPct    float64 `json:"reduction_pct"`
}

// Results aggregates all analysis output for serialization.
type Results struct {
	Pairs          []PairResult    `json:"pairs"`
	Skipped        []SkippedMetric `json:"skipped"`
	SetupTimeReuse *ReuseContrast  `json:"smata_reuse_vs_adhoc,omitempty"`
}

// Engine runs the statistical analysis. All computation is pure; the engine
// carries only configuration and a logger.
type Engine struct {
	log logrus.FieldLogger
	cfg config.AnalysisConfig
}

// New creates an analysis engine.
func New(log logrus.FieldLogger, cfg config.AnalysisConfig) *Engine {
	return &Engine{
		log: log.WithField("component", "analysis"),
		cfg: cfg,
	}
}

// Analyze runs the per-metric analysis over all datasets. Metrics are
// processed concurrently; results are merged in dataset order so the output
// is deterministic regardless of scheduling.
func (e *Engine) Analyze(ctx context.Context, datasets []schema.Dataset) (*Results, error) {
	type metricOutcome struct {
		pairs   []PairResult
		skipped *SkippedMetric
		reuse   *ReuseContrast
	}

	outcomes := make([]metricOutcome, len(datasets))

	g, _ := errgroup.WithContext(ctx)

	for i := range datasets {
		g.Go(func() error {
			ds := datasets[i]

			pairs, skipped := e.analyzeMetric(ds)
			outcomes[i] = metricOutcome{pairs: pairs, skipped: skipped}

			if ds.Metric.Name == schema.MetricSetupTime {
				outcomes[i].reuse = e.analyzeSetupReuse(ds)
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := &Results{
		Pairs:   make([]PairResult, 0, len(datasets)*6),
		Skipped: make([]SkippedMetric, 0),
	}

	for _, o := range outcomes {
		results.Pairs = append(results.Pairs, o.pairs...)

		if o.skipped != nil {
			results.Skipped = append(results.Skipped, *o.skipped)
		}

		if o.reuse != nil {
			results.SetupTimeReuse = o.reuse
		}
	}

	return results, nil
}

// analyzeMetric compares every unordered pair of canonical approaches for
// one metric. A metric with fewer than two non-empty groups is skipped.
func (e *Engine) analyzeMetric(ds schema.Dataset) ([]PairResult, *SkippedMetric) {
	groups := ds.GroupByApproach()

	present := make([]schema.Approach, 0, 4)

	for _, approach := range schema.CanonicalApproaches() {
		if len(groups[approach]) > 0 {
			present = append(present, approach)
		}
	}

	if len(present) < 2 {
		e.log.WithFields(logrus.Fields{
			"metric": ds.Metric.Name,
			"groups": len(present),
		}).Warn("Skipping metric: fewer than 2 non-empty approach groups")

		return nil, &SkippedMetric{
			Metric: string(ds.Metric.Name),
			Reason: "fewer than 2 non-empty approach groups",
		}
	}

	normality := make(map[string]float64, len(present))

	for _, approach := range present {
		_, p, err := shapiroWilk(groups[approach])
		if err != nil {
			e.log.WithError(err).WithFields(logrus.Fields{
				"metric":   ds.Metric.Name,
				"approach": approach,
			}).Warn("Normality test unavailable")

			continue
		}

		normality[string(approach)] = p
	}

	pairs := make([]PairResult, 0, len(present)*(len(present)-1)/2)

	for i := 0; i < len(present); i++ {
		for j := i + 1; j < len(present); j++ {
			a, b := present[i], present[j]
			pairs = append(pairs, e.comparePair(ds.Metric, a, b, groups[a], groups[b], normality))
		}
	}

	return pairs, nil
}

// comparePair runs the hypothesis test and effect size for one pair.
func (e *Engine) comparePair(
	metric schema.MetricInfo,
	a, b schema.Approach,
	valuesA, valuesB []float64,
	normality map[string]float64,
) PairResult {
	u, p := mannWhitneyU(valuesA, valuesB)
	delta := cliffsDelta(valuesA, valuesB)

	tracked := isTrackedPair(a, b)
	corrected := e.cfg.CorrectedAlpha()

	pairNormality := make(map[string]float64, 2)

	for _, approach := range []schema.Approach{a, b} {
		if pv, ok := normality[string(approach)]; ok {
			pairNormality[string(approach)] = pv
		}
	}

	return PairResult{
		Metric:               string(metric.Name),
		ApproachA:            string(a),
		ApproachB:            string(b),
		NormalityP:           pairNormality,
		UStatistic:           u,
		PValue:               p,
		Tracked:              tracked,
		CorrectedAlpha:       corrected,
		CorrectedSignificant: tracked && p < corrected,
		EffectSize:           delta,
		EffectMagnitude:      effectMagnitude(delta),
		MeanA:                stat.Mean(valuesA, nil),
		MeanB:                stat.Mean(valuesB, nil),
	}
}

// analyzeSetupReuse computes the supplemental smata_reuse vs adhoc
// setup-time contrast when both groups are populated.
func (e *Engine) analyzeSetupReuse(ds schema.Dataset) *ReuseContrast {
	groups := ds.GroupByApproach()

	reuse := groups[schema.ApproachSMATAReuse]
	adhoc := groups[schema.ApproachAdHoc]

	if len(reuse) == 0 || len(adhoc) == 0 {
		return nil
	}

	u, p := mannWhitneyU(reuse, adhoc)
	delta := cliffsDelta(reuse, adhoc)

	meanReuse := stat.Mean(reuse, nil)
	meanAdhoc := stat.Mean(adhoc, nil)

	return &ReuseContrast{
		UStatistic:      u,
		PValue:          p,
		EffectSize:      delta,
		EffectMagnitude: effectMagnitude(delta),
		ReductionPct:    (1 - meanReuse/meanAdhoc) * 100,
	}
}

// isTrackedPair reports whether the pair is one of the three
// SMATA-vs-baseline comparisons covered by the corrected threshold.
func isTrackedPair(a, b schema.Approach) bool {
	if a == schema.ApproachSMATA {
		return b.IsBaseline()
	}

	if b == schema.ApproachSMATA {
		return a.IsBaseline()
	}

	return false
}

// SortPairs orders pair results by metric name, then by approach pair, for
// deterministic serialization independent of analysis scheduling.
func SortPairs(pairs []PairResult) {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Metric != pairs[j].Metric {
			return pairs[i].Metric < pairs[j].Metric
		}

		if pairs[i].ApproachA != pairs[j].ApproachA {
			return pairs[i].ApproachA < pairs[j].ApproachA
		}

		return pairs[i].ApproachB < pairs[j].ApproachB
	})
}
