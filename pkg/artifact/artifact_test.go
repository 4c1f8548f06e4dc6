package artifact

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/smata-project/evalgen/pkg/analysis"
	"github.com/smata-project/evalgen/pkg/schema"
	"github.com/smata-project/evalgen/pkg/summary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func testWriter(t *testing.T) (*Writer, string) {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	dir := t.TempDir()
	w := NewWriter(log, dir, nil)
	require.NoError(t, w.EnsureDirs())

	return w, dir
}

func smallDataset(t *testing.T) schema.Dataset {
	t.Helper()

	info, err := schema.NewRegistry(0).Metric(schema.MetricCoverage)
	require.NoError(t, err)

	return schema.Dataset{
		Metric: info,
		Records: []schema.RunRecord{
			{App: "AnyMemo", Approach: schema.ApproachMonkey, Run: 0, Value: 40.123456},
			{App: "AnyMemo", Approach: schema.ApproachMonkey, Run: 1, Value: 42.5},
			{App: "K-9 Mail", Approach: schema.ApproachSMATA, Run: 0, Value: 71.0},
		},
	}
}

func TestWriteRawDataset_RoundTrip(t *testing.T) {
	w, dir := testWriter(t)
	ds := smallDataset(t)

	require.NoError(t, w.WriteRawDataset(ds))

	path := filepath.Join(dir, "raw", "coverage_data.csv")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "app,approach,run_index,value", lines[0])
	assert.Equal(t, "AnyMemo,monkey,0,40.1235", lines[1])

	back, err := w.ReadRawDataset(ds.Metric)
	require.NoError(t, err)
	require.Len(t, back.Records, 3)

	assert.Equal(t, ds.Records[1].App, back.Records[1].App)
	assert.Equal(t, ds.Records[1].Approach, back.Records[1].Approach)
	assert.Equal(t, ds.Records[1].Run, back.Records[1].Run)

	// Values round-trip at 4-decimal precision.
	assert.InDelta(t, ds.Records[0].Value, back.Records[0].Value, 0.00005)
}

func TestWriteRawDataset_Rewrite(t *testing.T) {
	w, dir := testWriter(t)
	ds := smallDataset(t)

	require.NoError(t, w.WriteRawDataset(ds))

	path := filepath.Join(dir, "raw", "coverage_data.csv")
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, w.WriteRawDataset(ds))

	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, first, second, "rewriting the same dataset must be byte-identical")

	// Atomic writes leave no temp files behind.
	entries, err := os.ReadDir(filepath.Join(dir, "raw"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestReadRawDataset_Errors(t *testing.T) {
	w, dir := testWriter(t)

	info, err := schema.NewRegistry(0).Metric(schema.MetricCoverage)
	require.NoError(t, err)

	t.Run("missing file", func(t *testing.T) {
		_, err := w.ReadRawDataset(info)
		assert.Error(t, err)
	})

	t.Run("bad header", func(t *testing.T) {
		path := filepath.Join(dir, "raw", "coverage_data.csv")
		require.NoError(t, os.WriteFile(path, []byte("a,b,c,d\n"), 0o644))

		_, err := w.ReadRawDataset(info)
		assert.Error(t, err)
	})

	t.Run("bad value", func(t *testing.T) {
		path := filepath.Join(dir, "raw", "coverage_data.csv")
		content := "app,approach,run_index,value\nAnyMemo,monkey,0,notanumber\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		_, err := w.ReadRawDataset(info)
		assert.Error(t, err)
	})
}

func TestWriteTraces(t *testing.T) {
	w, dir := testWriter(t)

	points := []schema.TracePoint{
		{App: "AnyMemo", Approach: schema.ApproachSMATA, Run: 0, TimeMin: 0, Coverage: 0},
		{App: "AnyMemo", Approach: schema.ApproachSMATA, Run: 0, TimeMin: 5, Coverage: 12.34567},
	}

	require.NoError(t, w.WriteTraces(points))

	data, err := os.ReadFile(filepath.Join(dir, "raw", "coverage_over_time.csv"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "app,approach,run_index,time_bucket_minutes,cumulative_coverage_pct", lines[0])
	assert.Equal(t, "AnyMemo,smata,0,5,12.3457", lines[2])
}

func TestWriteSummary_RoundsValues(t *testing.T) {
	w, dir := testWriter(t)

	table := summary.Table{
		"aggregate": {
			"smata": {
				"coverage_pct": summary.Stat{Mean: 68.691234567, Std: 6.198765432, Count: 10},
			},
		},
	}

	require.NoError(t, w.WriteSummary(table))

	data, err := os.ReadFile(filepath.Join(dir, "processed", "summary_statistics.json"))
	require.NoError(t, err)

	var back summary.Table
	require.NoError(t, json.Unmarshal(data, &back))

	cell := back["aggregate"]["smata"]["coverage_pct"]
	assert.Equal(t, 68.6912, cell.Mean)
	assert.Equal(t, 6.1988, cell.Std)
	assert.Equal(t, 10, cell.Count)
}

func TestWriteAnalysis_SortedAndRounded(t *testing.T) {
	w, dir := testWriter(t)

	results := &analysis.Results{
		Pairs: []analysis.PairResult{
			{
				Metric: "detection_pct", ApproachA: "monkey", ApproachB: "smata",
				UStatistic: 3.00001, PValue: 0.00012345,
			},
			{
				Metric: "coverage_pct", ApproachA: "monkey", ApproachB: "smata",
				UStatistic: 1.123456789, PValue: 0.5,
				NormalityP: map[string]float64{"monkey": 0.123456789},
			},
		},
	}

	require.NoError(t, w.WriteAnalysis(results))

	data, err := os.ReadFile(filepath.Join(dir, "processed", "statistical_results.json"))
	require.NoError(t, err)

	var back analysis.Results
	require.NoError(t, json.Unmarshal(data, &back))
	require.Len(t, back.Pairs, 2)

	// Sorted by metric name regardless of input order.
	assert.Equal(t, "coverage_pct", back.Pairs[0].Metric)
	assert.Equal(t, 1.1235, back.Pairs[0].UStatistic)
	assert.Equal(t, 0.1235, back.Pairs[0].NormalityP["monkey"])

	// P-values are preserved unrounded.
	assert.Equal(t, 0.00012345, back.Pairs[1].PValue)
}

func TestWriteHeatmap(t *testing.T) {
	w, dir := testWriter(t)
	reg := schema.NewRegistry(0)

	apps := len(reg.Apps())
	approaches := len(schema.CanonicalApproaches())

	m := mat.NewDense(apps, approaches, nil)
	for i := 0; i < apps; i++ {
		for j := 0; j < approaches; j++ {
			m.Set(i, j, float64(i*10+j))
		}
	}

	require.NoError(t, w.WriteHeatmap(m, reg))

	f, err := os.Open(filepath.Join(dir, "processed", "coverage_heatmap.csv"))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, apps+1)

	assert.Equal(t, []string{"app", "monkey", "dynodroid", "adhoc", "smata"}, rows[0])
	assert.Equal(t, "AnyMemo", rows[1][0])
	assert.Equal(t, "0.0000", rows[1][1])
	assert.Equal(t, "93.0000", rows[10][4])
}

func TestWriteHeatmap_RejectsWrongShape(t *testing.T) {
	w, _ := testWriter(t)
	reg := schema.NewRegistry(0)

	assert.Error(t, w.WriteHeatmap(mat.NewDense(3, 4, nil), reg))
	assert.Error(t, w.WriteHeatmap(mat.NewDense(10, 5, nil), reg))
}
