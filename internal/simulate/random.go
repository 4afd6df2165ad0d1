// Package simulate produces the synthetic plant telemetry shown on the
// dashboard. Every widget is an independent task that owns its state and
// perturbs it by a bounded random delta on its own interval.
package simulate

import (
	"math"
	"math/rand"
	"time"
)

// Rand is the random source a widget draws from. *rand.Rand satisfies it.
// A Rand is owned by a single task and need not be safe for concurrent use.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// NewRand returns a seeded source. A zero seed uses the current time.
func NewRand(seed int64) Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Uniform returns a value in [lo, hi).
func Uniform(r Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Perturb moves v by a uniform delta in [-delta, delta) and clamps the
// result to [lo, hi].
func Perturb(r Rand, v, delta, lo, hi float64) float64 {
	return Clamp(v+Uniform(r, -delta, delta), lo, hi)
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
