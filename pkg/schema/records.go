package schema

import "fmt"

// RunRecord is one sampled observation for an (app, approach, metric, run)
// combination.
type RunRecord struct {
	App      string
	Approach Approach
	Run      int
	Value    float64
}

// RecordKey uniquely identifies a run record within a metric's dataset.
type RecordKey struct {
	App      string
	Approach Approach
	Run      int
}

// String renders the key with its metric for error reporting.
func (k RecordKey) String(metric string) string {
	return fmt.Sprintf("app=%s approach=%s metric=%s run=%d", k.App, k.Approach, metric, k.Run)
}

// Dataset is the full set of run records for a single metric.
type Dataset struct {
	Metric  MetricInfo
	Records []RunRecord
}

// GroupByApproach splits the dataset's values per approach group, preserving
// run order within each group.
func (d Dataset) GroupByApproach() map[Approach][]float64 {
	groups := make(map[Approach][]float64, len(d.Metric.Approaches))

	for _, rec := range d.Records {
		groups[rec.Approach] = append(groups[rec.Approach], rec.Value)
	}

	return groups
}

// TracePoint is one sample of a cumulative coverage progression curve.
type TracePoint struct {
	App      string
	Approach Approach
	Run      int
	TimeMin  int
	Coverage float64
}
