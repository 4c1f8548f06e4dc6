package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCliffsDelta(t *testing.T) {
	tests := []struct {
		name     string
		x, y     []float64
		expected float64
	}{
		{
			name:     "x fully dominates",
			x:        []float64{10, 11, 12},
			y:        []float64{1, 2, 3},
			expected: 1,
		},
		{
			name:     "y fully dominates",
			x:        []float64{1, 2, 3},
			y:        []float64{10, 11, 12},
			expected: -1,
		},
		{
			name:     "identical samples",
			x:        []float64{5, 5, 5},
			y:        []float64{5, 5, 5},
			expected: 0,
		},
		{
			name:     "partial overlap",
			x:        []float64{1, 3},
			y:        []float64{2, 4},
			expected: -0.5,
		},
		{
			name:     "empty sample",
			x:        nil,
			y:        []float64{1},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, cliffsDelta(tt.x, tt.y), 1e-12)
		})
	}
}

func TestEffectMagnitude(t *testing.T) {
	tests := []struct {
		delta    float64
		expected string
	}{
		{0, "negligible"},
		{0.1, "negligible"},
		{-0.146, "negligible"},
		{0.147, "small"},
		{-0.2, "small"},
		{0.33, "medium"},
		{-0.4, "medium"},
		{0.474, "large"},
		{-1, "large"},
		{1, "large"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, effectMagnitude(tt.delta), "delta=%v", tt.delta)
	}
}
