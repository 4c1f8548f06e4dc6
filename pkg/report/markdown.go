// Package report renders a human-readable markdown summary of the
// evaluation: aggregate descriptive statistics per approach and the
// pairwise test outcomes.
package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/smata-project/evalgen/pkg/analysis"
	"github.com/smata-project/evalgen/pkg/fsutil"
	"github.com/smata-project/evalgen/pkg/schema"
	"github.com/smata-project/evalgen/pkg/summary"
)

// FileName is the report file name under the processed directory.
const FileName = "analysis_report.md"

// Write renders the report and writes it atomically under dataDir/processed.
func Write(
	dataDir string,
	reg *schema.Registry,
	table summary.Table,
	results *analysis.Results,
	owner *fsutil.OwnerConfig,
) error {
	content := Build(reg, table, results)

	path := filepath.Join(dataDir, "processed", FileName)
	if err := fsutil.WriteFileAtomic(path, []byte(content), 0644, owner); err != nil {
		return fmt.Errorf("writing %s: %w", FileName, err)
	}

	return nil
}

// Build renders the markdown report.
func Build(reg *schema.Registry, table summary.Table, results *analysis.Results) string {
	var sb strings.Builder

	sb.Grow(4096)

	sb.WriteString("# Evaluation Summary\n\n")

	writeAggregates(&sb, reg, table)
	writePairwise(&sb, results)
	writeSkipped(&sb, results)
	writeReuse(&sb, results)

	return sb.String()
}

func writeAggregates(sb *strings.Builder, reg *schema.Registry, table summary.Table) {
	agg, ok := table[summary.AggregateScope]
	if !ok {
		return
	}

	sb.WriteString("## Aggregate Statistics (across apps)\n\n")
	sb.WriteString("| Metric | Approach | Mean | Std |\n")
	sb.WriteString("|---|---|---|---|\n")

	for _, metric := range reg.Metrics() {
		for _, approach := range metric.Approaches {
			stats, ok := agg[string(approach)][string(metric.Name)]
			if !ok {
				continue
			}

			fmt.Fprintf(sb, "| %s | %s | %.2f | %.2f |\n",
				metric.Name, approach, stats.Mean, stats.Std)
		}
	}

	sb.WriteByte('\n')
}

func writePairwise(sb *strings.Builder, results *analysis.Results) {
	if len(results.Pairs) == 0 {
		return
	}

	sb.WriteString("## Pairwise Comparisons (Mann-Whitney U, Bonferroni-corrected)\n\n")
	sb.WriteString("| Metric | Comparison | U | p | Cliff's d | Magnitude | Significant |\n")
	sb.WriteString("|---|---|---|---|---|---|---|\n")

	for _, pair := range results.Pairs {
		sig := "n.s."
		if pair.CorrectedSignificant {
			sig = "yes"
		} else if !pair.Tracked {
			sig = "untracked"
		}

		fmt.Fprintf(sb, "| %s | %s vs %s | %.1f | %s | %+.3f | %s | %s |\n",
			pair.Metric, pair.ApproachA, pair.ApproachB,
			pair.UStatistic, formatP(pair.PValue),
			pair.EffectSize, pair.EffectMagnitude, sig)
	}

	sb.WriteByte('\n')
}

func writeSkipped(sb *strings.Builder, results *analysis.Results) {
	if len(results.Skipped) == 0 {
		return
	}

	sb.WriteString("## Skipped Metrics\n\n")

	for _, skipped := range results.Skipped {
		fmt.Fprintf(sb, "- `%s`: %s\n", skipped.Metric, skipped.Reason)
	}

	sb.WriteByte('\n')
}

func writeReuse(sb *strings.Builder, results *analysis.Results) {
	reuse := results.SetupTimeReuse
	if reuse == nil {
		return
	}

	sb.WriteString("## Setup Time: smata_reuse vs adhoc\n\n")
	sb.WriteString("| U | p | Cliff's d | Magnitude | Reduction |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	fmt.Fprintf(sb, "| %.1f | %s | %+.3f | %s | %.1f%% |\n",
		reuse.UStatistic, formatP(reuse.PValue),
		reuse.EffectSize, reuse.EffectMagnitude, reuse.ReductionPct)
	sb.WriteByte('\n')
}

// formatP renders small p-values in scientific notation, matching the
// convention used in the published tables.
func formatP(p float64) string {
	if p < 0.001 {
		return fmt.Sprintf("%.2e", p)
	}

	return fmt.Sprintf("%.4f", p)
}
