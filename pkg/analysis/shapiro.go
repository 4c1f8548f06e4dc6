package analysis

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// shapiroWilk computes the Shapiro-Wilk W statistic and an approximate
// p-value for the null hypothesis that the sample is normally distributed,
// using Royston's AS R94 approximation. Valid for 3 <= n <= 5000.
//
// The result is descriptive only in this pipeline: the pairwise hypothesis
// test is non-parametric and runs regardless of the normality outcome.
func shapiroWilk(sample []float64) (w, p float64, err error) {
	n := len(sample)
	if n < 3 {
		return 0, 0, fmt.Errorf("shapiro-wilk requires at least 3 observations, got %d", n)
	}

	if n > 5000 {
		return 0, 0, fmt.Errorf("shapiro-wilk approximation is unreliable for n > 5000, got %d", n)
	}

	x := make([]float64, n)
	copy(x, sample)
	sort.Float64s(x)

	if x[n-1] == x[0] {
		// Zero range: degenerate sample, treat as no evidence against
		// normality rather than failing the whole metric.
		return 1, 1, nil
	}

	// Expected values of normal order statistics (Blom approximation).
	m := make([]float64, n)

	var ssq float64

	for i := 0; i < n; i++ {
		m[i] = distuv.UnitNormal.Quantile((float64(i+1) - 0.375) / (float64(n) + 0.25))
		ssq += m[i] * m[i]
	}

	a := make([]float64, n)
	u := 1 / math.Sqrt(float64(n))

	if n == 3 {
		a[0] = -math.Sqrt(0.5)
		a[2] = math.Sqrt(0.5)
	} else if n <= 5 {
		an := m[n-1]/math.Sqrt(ssq) + polyTail1(u)
		phi := (ssq - 2*m[n-1]*m[n-1]) / (1 - 2*an*an)

		a[n-1] = an
		a[0] = -an

		for i := 1; i < n-1; i++ {
			a[i] = m[i] / math.Sqrt(phi)
		}
	} else {
		an := m[n-1]/math.Sqrt(ssq) + polyTail1(u)
		an1 := m[n-2]/math.Sqrt(ssq) + polyTail2(u)
		phi := (ssq - 2*m[n-1]*m[n-1] - 2*m[n-2]*m[n-2]) /
			(1 - 2*an*an - 2*an1*an1)

		a[n-1] = an
		a[n-2] = an1
		a[0] = -an
		a[1] = -an1

		for i := 2; i < n-2; i++ {
			a[i] = m[i] / math.Sqrt(phi)
		}
	}

	var mean float64
	for _, v := range x {
		mean += v
	}
	mean /= float64(n)

	var num, den float64

	for i := 0; i < n; i++ {
		num += a[i] * x[i]
		den += (x[i] - mean) * (x[i] - mean)
	}

	w = num * num / den
	if w > 1 {
		w = 1
	}

	return w, shapiroPValue(w, n), nil
}

// shapiroPValue maps a W statistic to an approximate p-value using
// Royston's normalizing transformations.
func shapiroPValue(w float64, n int) float64 {
	switch {
	case n == 3:
		p := 6 / math.Pi * (math.Asin(math.Sqrt(w)) - math.Asin(math.Sqrt(0.75)))

		return clampUnit(p)
	case n <= 11:
		nf := float64(n)
		gamma := -2.273 + 0.459*nf

		arg := gamma - math.Log(1-w)
		if arg <= 0 {
			return 0
		}

		mu := 0.5440 - 0.39978*nf + 0.025054*nf*nf - 0.0006714*nf*nf*nf
		sigma := math.Exp(1.3822 - 0.77857*nf + 0.062767*nf*nf - 0.0020322*nf*nf*nf)
		z := (-math.Log(arg) - mu) / sigma

		return clampUnit(distuv.UnitNormal.Survival(z))
	default:
		ln := math.Log(float64(n))
		mu := -1.5861 - 0.31082*ln - 0.083751*ln*ln + 0.0038915*ln*ln*ln
		sigma := math.Exp(-0.4803 - 0.082676*ln + 0.0030302*ln*ln)
		z := (math.Log(1-w) - mu) / sigma

		return clampUnit(distuv.UnitNormal.Survival(z))
	}
}

// polyTail1 is Royston's polynomial correction for the largest weight.
func polyTail1(u float64) float64 {
	return u * (0.221157 + u*(-0.147981+u*(-2.071190+u*(4.434685+u*-2.706056))))
}

// polyTail2 is Royston's polynomial correction for the second largest weight.
func polyTail2(u float64) float64 {
	return u * (0.042981 + u*(-0.293762+u*(-1.752461+u*(5.682633+u*-3.582633))))
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}

	if v > 1 {
		return 1
	}

	return v
}
