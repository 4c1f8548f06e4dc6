package artifact

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/smata-project/evalgen/pkg/schema"
)

// ReadRawDataset loads a metric's run records back from its raw CSV, so the
// analysis stage can run against previously generated data.
func (w *Writer) ReadRawDataset(metric schema.MetricInfo) (schema.Dataset, error) {
	path := w.RawDatasetPath(metric)

	f, err := os.Open(path)
	if err != nil {
		return schema.Dataset{}, fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer func() { _ = f.Close() }()

	cr := csv.NewReader(f)

	rows, err := cr.ReadAll()
	if err != nil {
		return schema.Dataset{}, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}

	if len(rows) == 0 {
		return schema.Dataset{}, fmt.Errorf("%s: empty file", filepath.Base(path))
	}

	header := rows[0]
	if len(header) != 4 || header[0] != "app" || header[1] != "approach" ||
		header[2] != "run_index" || header[3] != "value" {
		return schema.Dataset{}, fmt.Errorf("%s: unexpected header %v", filepath.Base(path), header)
	}

	ds := schema.Dataset{
		Metric:  metric,
		Records: make([]schema.RunRecord, 0, len(rows)-1),
	}

	for i, row := range rows[1:] {
		run, err := strconv.Atoi(row[2])
		if err != nil {
			return schema.Dataset{}, fmt.Errorf("%s row %d: parsing run_index: %w",
				filepath.Base(path), i+2, err)
		}

		value, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return schema.Dataset{}, fmt.Errorf("%s row %d: parsing value: %w",
				filepath.Base(path), i+2, err)
		}

		ds.Records = append(ds.Records, schema.RunRecord{
			App:      row[0],
			Approach: schema.Approach(row[1]),
			Run:      run,
			Value:    value,
		})
	}

	return ds, nil
}
