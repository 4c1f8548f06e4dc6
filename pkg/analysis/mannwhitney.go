package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// ranks assigns 1-based ranks to values, averaging ranks across ties.
func ranks(values []float64) []float64 {
	n := len(values)

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	sort.Slice(idx, func(a, b int) bool {
		return values[idx[a]] < values[idx[b]]
	})

	out := make([]float64, n)

	for i := 0; i < n; {
		j := i
		for j+1 < n && values[idx[j+1]] == values[idx[i]] {
			j++
		}

		// Average rank for the tie group spanning sorted positions i..j.
		avg := float64(i+j+2) / 2

		for k := i; k <= j; k++ {
			out[idx[k]] = avg
		}

		i = j + 1
	}

	return out
}

// tieCorrection returns sum(t^3 - t) over all tie groups in values.
func tieCorrection(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var total float64

	for i := 0; i < len(sorted); {
		j := i
		for j+1 < len(sorted) && sorted[j+1] == sorted[i] {
			j++
		}

		t := float64(j - i + 1)
		total += t*t*t - t

		i = j + 1
	}

	return total
}

// mannWhitneyU computes the two-sided Mann-Whitney U test of x against y,
// returning the U statistic for x and the p-value under the null hypothesis
// that both samples come from the same distribution. The p-value uses the
// normal approximation with tie-corrected variance and a 0.5 continuity
// correction.
func mannWhitneyU(x, y []float64) (u, p float64) {
	n1, n2 := len(x), len(y)
	if n1 == 0 || n2 == 0 {
		return 0, math.NaN()
	}

	combined := make([]float64, 0, n1+n2)
	combined = append(combined, x...)
	combined = append(combined, y...)

	allRanks := ranks(combined)

	var r1 float64
	for i := 0; i < n1; i++ {
		r1 += allRanks[i]
	}

	u = r1 - float64(n1*(n1+1))/2

	nf1, nf2 := float64(n1), float64(n2)
	n := nf1 + nf2
	mu := nf1 * nf2 / 2

	variance := nf1 * nf2 / 12 * ((n + 1) - tieCorrection(combined)/(n*(n-1)))
	if variance <= 0 {
		// Every observation tied: no evidence against the null.
		return u, 1
	}

	diff := u - mu

	var cc float64

	switch {
	case diff > 0:
		cc = -0.5
	case diff < 0:
		cc = 0.5
	}

	z := (diff + cc) / math.Sqrt(variance)

	p = 2 * distuv.UnitNormal.Survival(math.Abs(z))
	if p > 1 {
		p = 1
	}

	return u, p
}
