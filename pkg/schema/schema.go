// Package schema is the single source of truth for the shape of the
// evaluation: the benchmark app catalog, the approach and metric
// enumerations, and the expected run counts. Every other component
// validates its inputs and outputs against this registry.
package schema

import "fmt"

// Approach is one of the testing strategies under comparison.
type Approach string

const (
	ApproachMonkey    Approach = "monkey"
	ApproachDynodroid Approach = "dynodroid"
	ApproachAdHoc     Approach = "adhoc"
	ApproachSMATA     Approach = "smata"

	// ApproachSMATAReuse is the artifact-reuse variant of SMATA. It only
	// participates in the setup-time dataset and is excluded from the
	// canonical pairwise comparison family.
	ApproachSMATAReuse Approach = "smata_reuse"
)

// CanonicalApproaches returns the four approaches compared pairwise in the
// statistical analysis, in their fixed output order.
func CanonicalApproaches() []Approach {
	return []Approach{ApproachMonkey, ApproachDynodroid, ApproachAdHoc, ApproachSMATA}
}

// IsBaseline reports whether the approach is one of the three baselines
// compared against SMATA in the corrected significance protocol.
func (a Approach) IsBaseline() bool {
	switch a {
	case ApproachMonkey, ApproachDynodroid, ApproachAdHoc:
		return true
	default:
		return false
	}
}

// Metric identifies one of the evaluation measurements.
type Metric string

const (
	MetricCoverage        Metric = "coverage_pct"
	MetricDetection       Metric = "detection_pct"
	MetricReproducibility Metric = "reproducibility_pct"
	MetricDebugTime       Metric = "debug_time_min"
	MetricSetupTime       Metric = "setup_time_hours"
)

// MetricInfo describes a metric's valid range, output file stem, and the
// approach groups it is generated for.
type MetricInfo struct {
	Name       Metric
	Min        float64
	Max        float64
	FileStem   string
	Approaches []Approach
}

// ValueInRange reports whether v lies within the metric's valid range.
func (m MetricInfo) ValueInRange(v float64) bool {
	return v >= m.Min && v <= m.Max
}

// App is one entry of the benchmark application catalog.
type App struct {
	Name       string
	Domain     string
	LOC        int
	Complexity string
	HasAuth    bool
	Available  bool
}

// Registry holds the immutable evaluation shape. It is constructed once at
// startup and shared read-only across all pipeline stages.
type Registry struct {
	apps    []App
	metrics []MetricInfo
	runs    int
}

// DefaultRuns is the number of repetitions per (app, approach) combination.
const DefaultRuns = 10

// benchmarkApps is the fixed ten-app catalog used in the evaluation.
var benchmarkApps = []App{
	{Name: "AnyMemo", Domain: "education", LOC: 12000, Complexity: "medium", HasAuth: false, Available: true},
	{Name: "K-9 Mail", Domain: "communication", LOC: 45000, Complexity: "high", HasAuth: true, Available: true},
	{Name: "WordPress", Domain: "productivity", LOC: 38000, Complexity: "high", HasAuth: true, Available: true},
	{Name: "Aard Dictionary", Domain: "reference", LOC: 5000, Complexity: "low", HasAuth: false, Available: true},
	{Name: "ConnectBot", Domain: "connectivity", LOC: 18000, Complexity: "medium", HasAuth: true, Available: true},
	{Name: "Tomdroid", Domain: "productivity", LOC: 8000, Complexity: "low", HasAuth: false, Available: true},
	{Name: "OI Notepad", Domain: "productivity", LOC: 6000, Complexity: "low", HasAuth: false, Available: true},
	{Name: "Tippy Tipper", Domain: "finance", LOC: 2000, Complexity: "low", HasAuth: false, Available: true},
	{Name: "Book Catalogue", Domain: "media", LOC: 15000, Complexity: "medium", HasAuth: false, Available: true},
	{Name: "OpenSudoku", Domain: "games", LOC: 7000, Complexity: "low", HasAuth: false, Available: true},
}

// NewRegistry builds the registry with the given run count per combination.
// Passing 0 uses DefaultRuns.
func NewRegistry(runs int) *Registry {
	if runs <= 0 {
		runs = DefaultRuns
	}

	canonical := CanonicalApproaches()
	setup := append(append([]Approach{}, canonical...), ApproachSMATAReuse)

	return &Registry{
		apps: benchmarkApps,
		runs: runs,
		metrics: []MetricInfo{
			{Name: MetricCoverage, Min: 0, Max: 100, FileStem: "coverage", Approaches: canonical},
			{Name: MetricDetection, Min: 0, Max: 100, FileStem: "detection", Approaches: canonical},
			{Name: MetricReproducibility, Min: 0, Max: 100, FileStem: "reproducibility", Approaches: canonical},
			{Name: MetricDebugTime, Min: 5, Max: 200, FileStem: "debug_time", Approaches: canonical},
			{Name: MetricSetupTime, Min: 0.2, Max: 40, FileStem: "setup_time", Approaches: setup},
		},
	}
}

// Apps returns the benchmark app catalog in its fixed order.
func (r *Registry) Apps() []App {
	return r.apps
}

// Metrics returns all metric descriptors in their fixed output order.
func (r *Registry) Metrics() []MetricInfo {
	return r.metrics
}

// Metric returns the descriptor for the named metric.
func (r *Registry) Metric(name Metric) (MetricInfo, error) {
	for _, m := range r.metrics {
		if m.Name == name {
			return m, nil
		}
	}

	return MetricInfo{}, &ConfigurationError{
		Key:    string(name),
		Reason: "unknown metric",
	}
}

// Runs returns the configured repetitions per (app, approach) combination.
func (r *Registry) Runs() int {
	return r.runs
}

// ExpectedRows returns the number of run records a metric's dataset must
// contain.
func (r *Registry) ExpectedRows(m MetricInfo) int {
	return len(r.apps) * len(m.Approaches) * r.runs
}

// ValidateDataset checks a dataset's shape and value ranges against the
// registry: exactly one record per (app, approach, run), every value within
// the metric's declared range.
func (r *Registry) ValidateDataset(ds Dataset) error {
	if want, got := r.ExpectedRows(ds.Metric), len(ds.Records); want != got {
		return &ConfigurationError{
			Key:    string(ds.Metric.Name),
			Reason: fmt.Sprintf("expected %d records, got %d", want, got),
		}
	}

	seen := make(map[RecordKey]struct{}, len(ds.Records))

	for _, rec := range ds.Records {
		key := RecordKey{App: rec.App, Approach: rec.Approach, Run: rec.Run}
		if _, dup := seen[key]; dup {
			return &ConfigurationError{
				Key:    key.String(string(ds.Metric.Name)),
				Reason: "duplicate record",
			}
		}

		seen[key] = struct{}{}

		if !ds.Metric.ValueInRange(rec.Value) {
			return &ConfigurationError{
				Key: key.String(string(ds.Metric.Name)),
				Reason: fmt.Sprintf("value %.4f outside range [%.4f, %.4f]",
					rec.Value, ds.Metric.Min, ds.Metric.Max),
			}
		}
	}

	return nil
}
