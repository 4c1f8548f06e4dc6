package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRanks(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected []float64
	}{
		{
			name:     "no ties",
			values:   []float64{30, 10, 20},
			expected: []float64{3, 1, 2},
		},
		{
			name:     "tie group gets average rank",
			values:   []float64{10, 20, 20, 30},
			expected: []float64{1, 2.5, 2.5, 4},
		},
		{
			name:     "all tied",
			values:   []float64{5, 5, 5},
			expected: []float64{2, 2, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ranks(tt.values))
		})
	}
}

func TestTieCorrection(t *testing.T) {
	// Two tie groups of size 2: 2*(8-2) = 12.
	assert.Equal(t, 12.0, tieCorrection([]float64{1, 1, 2, 2, 3}))

	// No ties.
	assert.Equal(t, 0.0, tieCorrection([]float64{1, 2, 3}))
}

func TestMannWhitneyU_FullySeparated(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	y := []float64{11, 12, 13, 14, 15, 16, 17, 18, 19, 20}

	u, p := mannWhitneyU(x, y)

	// Every y exceeds every x: U for x is 0.
	assert.Equal(t, 0.0, u)
	assert.Less(t, p, 0.001)

	// Swapping the samples flips U to n1*n2 but keeps the two-sided p.
	uSwap, pSwap := mannWhitneyU(y, x)
	assert.Equal(t, 100.0, uSwap)
	assert.InDelta(t, p, pSwap, 1e-12)
}

func TestMannWhitneyU_IdenticalSamples(t *testing.T) {
	x := []float64{5, 5, 5, 5}

	u, p := mannWhitneyU(x, x)

	// All observations tied: U sits at its expectation, no evidence.
	assert.Equal(t, 8.0, u)
	assert.Equal(t, 1.0, p)
}

func TestMannWhitneyU_KnownSmallExample(t *testing.T) {
	x := []float64{1, 4, 5}
	y := []float64{2, 3, 6}

	u, p := mannWhitneyU(x, y)

	// Ranks of x in the combined sample: 1, 4, 5 -> R1 = 10, U = 10 - 6 = 4.
	assert.Equal(t, 4.0, u)

	// U is near its expectation of 4.5; the test must not reject.
	assert.Greater(t, p, 0.5)
	assert.LessOrEqual(t, p, 1.0)
}

func TestMannWhitneyU_EmptySample(t *testing.T) {
	u, p := mannWhitneyU(nil, []float64{1, 2})

	require.Equal(t, 0.0, u)
	assert.True(t, math.IsNaN(p))
}

func TestMannWhitneyU_Symmetry(t *testing.T) {
	x := []float64{3.1, 4.5, 2.2, 6.6, 5.0}
	y := []float64{4.0, 4.4, 7.2, 1.9}

	ux, px := mannWhitneyU(x, y)
	uy, py := mannWhitneyU(y, x)

	// U_x + U_y = n1 * n2.
	assert.InDelta(t, 20.0, ux+uy, 1e-12)
	assert.InDelta(t, px, py, 1e-12)
}
