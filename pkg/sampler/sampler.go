// Package sampler draws bounded pseudo-random samples from a normal
// distribution. Every draw is seeded from its combination key, so datasets
// are reproducible and generation order never affects the output.
package sampler

import (
	"fmt"
	"hash/fnv"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Key identifies one draw. The seed is derived from the full key, making
// every (app, approach, metric, run) combination an independent stream.
type Key struct {
	App      string
	Approach string
	Metric   string
	Run      int
}

// Sampler produces clamped normal samples with deterministic per-key
// seeding.
type Sampler struct {
	base uint64
}

// New creates a sampler with the given base seed.
func New(baseSeed uint64) *Sampler {
	return &Sampler{base: baseSeed}
}

// seed derives the per-combination seed from the base seed and key.
func (s *Sampler) seed(key Key) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d|%s|%s|%s|%d", s.base, key.App, key.Approach, key.Metric, key.Run)

	return h.Sum64()
}

// Source returns a seeded random source for the key, for callers that need
// a multi-draw sequence (e.g. trace jitter).
func (s *Sampler) Source(key Key) *rand.Rand {
	return rand.New(rand.NewSource(s.seed(key)))
}

// Sample draws one value from Normal(mean, std) and clamps it to [lo, hi].
// Clamping rather than re-drawing keeps the sample moments close to the
// targets when the bounds are tight (percentages near 0 or 100).
func (s *Sampler) Sample(key Key, mean, std, lo, hi float64) float64 {
	dist := distuv.Normal{
		Mu:    mean,
		Sigma: std,
		Src:   rand.NewSource(s.seed(key)),
	}

	return clamp(dist.Rand(), lo, hi)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}
