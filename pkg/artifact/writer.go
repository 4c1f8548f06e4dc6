// Package artifact serializes datasets and analysis results to the
// persisted file formats consumed by downstream reporting: raw per-metric
// CSVs, the coverage progression CSV, summary and analysis JSON, and the
// coverage heatmap. All writes are atomic so no partial artifact is ever
// observable.
package artifact

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/smata-project/evalgen/pkg/analysis"
	"github.com/smata-project/evalgen/pkg/fsutil"
	"github.com/smata-project/evalgen/pkg/schema"
	"github.com/smata-project/evalgen/pkg/summary"
	"gonum.org/v1/gonum/mat"
)

const (
	rawDirName       = "raw"
	processedDirName = "processed"

	summaryFileName  = "summary_statistics.json"
	analysisFileName = "statistical_results.json"
	heatmapFileName  = "coverage_heatmap.csv"
	tracesFileName   = "coverage_over_time.csv"
)

// Writer persists pipeline output under a data directory.
type Writer struct {
	log   logrus.FieldLogger
	dir   string
	owner *fsutil.OwnerConfig
}

// NewWriter creates a writer rooted at dir.
func NewWriter(log logrus.FieldLogger, dir string, owner *fsutil.OwnerConfig) *Writer {
	return &Writer{
		log:   log.WithField("component", "artifact"),
		dir:   dir,
		owner: owner,
	}
}

// EnsureDirs creates the raw and processed output directories.
func (w *Writer) EnsureDirs() error {
	for _, sub := range []string{rawDirName, processedDirName} {
		if err := fsutil.MkdirAll(filepath.Join(w.dir, sub), 0755, w.owner); err != nil {
			return fmt.Errorf("creating %s directory: %w", sub, err)
		}
	}

	return nil
}

// RawDatasetPath returns the raw CSV path for a metric.
func (w *Writer) RawDatasetPath(metric schema.MetricInfo) string {
	return filepath.Join(w.dir, rawDirName, metric.FileStem+"_data.csv")
}

// WriteRawDataset writes one metric's run records as CSV with columns
// app, approach, run_index, value.
func (w *Writer) WriteRawDataset(ds schema.Dataset) error {
	var buf bytes.Buffer

	cw := csv.NewWriter(&buf)

	if err := cw.Write([]string{"app", "approach", "run_index", "value"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, rec := range ds.Records {
		row := []string{
			rec.App,
			string(rec.Approach),
			strconv.Itoa(rec.Run),
			formatValue(rec.Value),
		}

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}

	path := w.RawDatasetPath(ds.Metric)
	if err := fsutil.WriteFileAtomic(path, buf.Bytes(), 0644, w.owner); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}

	w.log.WithFields(logrus.Fields{
		"metric": ds.Metric.Name,
		"rows":   len(ds.Records),
	}).Info("Wrote raw dataset")

	return nil
}

// WriteTraces writes the coverage progression samples.
func (w *Writer) WriteTraces(points []schema.TracePoint) error {
	var buf bytes.Buffer

	cw := csv.NewWriter(&buf)

	header := []string{"app", "approach", "run_index", "time_bucket_minutes", "cumulative_coverage_pct"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, pt := range points {
		row := []string{
			pt.App,
			string(pt.Approach),
			strconv.Itoa(pt.Run),
			strconv.Itoa(pt.TimeMin),
			formatValue(pt.Coverage),
		}

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing trace point: %w", err)
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}

	path := filepath.Join(w.dir, rawDirName, tracesFileName)
	if err := fsutil.WriteFileAtomic(path, buf.Bytes(), 0644, w.owner); err != nil {
		return fmt.Errorf("writing %s: %w", tracesFileName, err)
	}

	w.log.WithField("rows", len(points)).Info("Wrote coverage traces")

	return nil
}

// WriteSummary writes the summary statistics table as nested JSON:
// scope -> approach -> metric -> {mean, std, count}.
func (w *Writer) WriteSummary(table summary.Table) error {
	rounded := make(summary.Table, len(table))

	for scope, byApproach := range table {
		rounded[scope] = make(map[string]map[string]summary.Stat, len(byApproach))

		for approach, byMetric := range byApproach {
			rounded[scope][approach] = make(map[string]summary.Stat, len(byMetric))

			for metric, s := range byMetric {
				rounded[scope][approach][metric] = summary.Stat{
					Mean:  round4(s.Mean),
					Std:   round4(s.Std),
					Count: s.Count,
				}
			}
		}
	}

	return w.writeJSON(summaryFileName, rounded)
}

// WriteAnalysis writes the statistical results. Pairs are sorted by metric
// and approach pair so the file is byte-identical across runs regardless of
// analysis scheduling.
func (w *Writer) WriteAnalysis(results *analysis.Results) error {
	analysis.SortPairs(results.Pairs)

	for i := range results.Pairs {
		pr := &results.Pairs[i]
		pr.UStatistic = round4(pr.UStatistic)
		pr.EffectSize = round4(pr.EffectSize)
		pr.MeanA = round4(pr.MeanA)
		pr.MeanB = round4(pr.MeanB)

		for k, v := range pr.NormalityP {
			pr.NormalityP[k] = round4(v)
		}
	}

	if results.SetupTimeReuse != nil {
		results.SetupTimeReuse.UStatistic = round4(results.SetupTimeReuse.UStatistic)
		results.SetupTimeReuse.EffectSize = round4(results.SetupTimeReuse.EffectSize)
		results.SetupTimeReuse.ReductionPct = round4(results.SetupTimeReuse.ReductionPct)
	}

	return w.writeJSON(analysisFileName, results)
}

// WriteHeatmap writes the apps-by-approaches mean coverage matrix with a
// header row of approach names and one row per app.
func (w *Writer) WriteHeatmap(m *mat.Dense, reg *schema.Registry) error {
	apps := reg.Apps()
	approaches := schema.CanonicalApproaches()

	rows, cols := m.Dims()
	if rows != len(apps) || cols != len(approaches) {
		return fmt.Errorf("heatmap shape %dx%d does not match %d apps x %d approaches",
			rows, cols, len(apps), len(approaches))
	}

	var buf bytes.Buffer

	cw := csv.NewWriter(&buf)

	header := make([]string, 0, cols+1)
	header = append(header, "app")

	for _, approach := range approaches {
		header = append(header, string(approach))
	}

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, app := range apps {
		row := make([]string, 0, cols+1)
		row = append(row, app.Name)

		for j := 0; j < cols; j++ {
			row = append(row, formatValue(m.At(i, j)))
		}

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing heatmap row: %w", err)
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}

	path := filepath.Join(w.dir, processedDirName, heatmapFileName)
	if err := fsutil.WriteFileAtomic(path, buf.Bytes(), 0644, w.owner); err != nil {
		return fmt.Errorf("writing %s: %w", heatmapFileName, err)
	}

	return nil
}

// writeJSON marshals v with indentation and writes it atomically under the
// processed directory.
func (w *Writer) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", name, err)
	}

	data = append(data, '\n')

	path := filepath.Join(w.dir, processedDirName, name)
	if err := fsutil.WriteFileAtomic(path, data, 0644, w.owner); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}

	w.log.WithField("file", name).Info("Wrote processed artifact")

	return nil
}

// formatValue renders a numeric field with 4-digit fixed-point precision,
// enough to round-trip through the tolerance checks downstream.
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
