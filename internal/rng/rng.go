// Package rng provides splittable, reproducible random streams for the
// generation pipeline. A single job seed expands deterministically into one
// independent stream per worker; output must not depend on worker count.
package rng

import (
	"math/rand/v2"
)

// Stream is a per-worker random source. It wraps math/rand/v2's PCG
// generator, seeded deterministically from a job seed and a worker index so
// that the same (jobSeed, workerIndex) pair always reproduces the same
// sequence regardless of how many workers ran concurrently.
type Stream struct {
	r *rand.Rand
}

// New derives the stream for workerIndex out of a job's root seed. Each
// worker gets a distinct 128-bit PCG seed computed by mixing the job seed
// with the worker index (splitmix-style constants), so streams never
// overlap and never depend on draw order between workers.
func New(jobSeed int64, workerIndex int) *Stream {
	hi, lo := splitSeed(uint64(jobSeed), uint64(workerIndex))
	src := rand.NewPCG(hi, lo)
	return &Stream{r: rand.New(src)}
}

// splitSeed mixes a base seed and an index into two 64-bit words using a
// SplitMix64-style avalanche, giving well-distributed, non-overlapping PCG
// seeds per worker index.
func splitSeed(base, index uint64) (uint64, uint64) {
	mix := func(z uint64) uint64 {
		z += 0x9E3779B97F4A7C15
		z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
		z = (z ^ (z >> 27)) * 0x94D049BB133111EB
		z = z ^ (z >> 31)
		return z
	}
	hi := mix(base ^ (index * 0x9E3779B97F4A7C15))
	lo := mix(hi ^ index)
	return hi, lo
}

// Float64 returns a pseudo-random number in [0,1).
func (s *Stream) Float64() float64 { return s.r.Float64() }

// IntN returns a pseudo-random number in [0,n).
func (s *Stream) IntN(n int) int { return s.r.IntN(n) }

// UniformFloat returns a pseudo-random number in [min,max).
func (s *Stream) UniformFloat(min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + s.r.Float64()*(max-min)
}

// UniformInt returns a pseudo-random integer in [min,max].
func (s *Stream) UniformInt(min, max int) int {
	if max <= min {
		return min
	}
	return min + s.r.IntN(max-min+1)
}

// Bool returns true with the given probability.
func (s *Stream) Bool(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return s.r.Float64() < p
}

// Categorical draws an index in [0,len(weights)) proportional to weights.
// Negative or all-zero weights are treated as invalid and the function
// returns -1 so callers can surface a SIMULATION_INVARIANT error instead of
// silently picking an arbitrary bucket.
func (s *Stream) Categorical(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}
	target := s.r.Float64() * total
	cum := 0.0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		cum += w
		if target < cum {
			return i
		}
	}
	// Floating-point rounding may leave target just past cum on the last
	// positive-weight bucket; fall back to it rather than returning -1.
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return i
		}
	}
	return -1
}
