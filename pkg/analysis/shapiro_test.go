package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"
)

func TestShapiroWilk_SampleSizeBounds(t *testing.T) {
	_, _, err := shapiroWilk([]float64{1, 2})
	assert.Error(t, err)

	big := make([]float64, 5001)
	for i := range big {
		big[i] = float64(i)
	}

	_, _, err = shapiroWilk(big)
	assert.Error(t, err)
}

func TestShapiroWilk_ZeroRange(t *testing.T) {
	w, p, err := shapiroWilk([]float64{7, 7, 7, 7, 7})

	require.NoError(t, err)
	assert.Equal(t, 1.0, w)
	assert.Equal(t, 1.0, p)
}

func TestShapiroWilk_NormalShapedSample(t *testing.T) {
	// Normal quantiles at evenly spaced probabilities form an essentially
	// perfect normal sample, so W must be close to 1 and the test must not
	// reject.
	const n = 20

	sample := make([]float64, n)
	for i := range sample {
		sample[i] = distuv.UnitNormal.Quantile((float64(i) + 0.5) / n)
	}

	w, p, err := shapiroWilk(sample)

	require.NoError(t, err)
	assert.Greater(t, w, 0.95)
	assert.Greater(t, p, 0.1)
}

func TestShapiroWilk_SkewedSampleRejected(t *testing.T) {
	// Exponentially growing values are heavily right-skewed.
	sample := make([]float64, 20)
	for i := range sample {
		sample[i] = math.Pow(2, float64(i))
	}

	w, p, err := shapiroWilk(sample)

	require.NoError(t, err)
	assert.Less(t, w, 0.8)
	assert.Less(t, p, 0.01)
}

func TestShapiroWilk_SmallSamples(t *testing.T) {
	// Exercise the n==3 and 4<=n<=11 p-value branches; the p-value must stay
	// in [0, 1].
	tests := [][]float64{
		{1, 2, 3},
		{1, 2, 3, 4},
		{2.1, 1.8, 2.5, 2.2, 1.9, 2.4, 2.0, 2.3},
	}

	for _, sample := range tests {
		w, p, err := shapiroWilk(sample)

		require.NoError(t, err)
		assert.GreaterOrEqual(t, w, 0.0)
		assert.LessOrEqual(t, w, 1.0)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
}

func TestShapiroWilk_OrderInvariant(t *testing.T) {
	a := []float64{3.4, 1.2, 5.6, 2.8, 4.1, 3.9, 2.2, 4.8}
	b := []float64{5.6, 4.8, 4.1, 3.9, 3.4, 2.8, 2.2, 1.2}

	wa, pa, err := shapiroWilk(a)
	require.NoError(t, err)

	wb, pb, err := shapiroWilk(b)
	require.NoError(t, err)

	assert.Equal(t, wa, wb)
	assert.Equal(t, pa, pb)
}
