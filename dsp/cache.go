package dsp

import (
	"math"
	"sync"
)

// twiddleCache holds precomputed per-size twiddle tables, process-wide and
// append-only, per spec.md §5's shared-resource model.
var twiddleCache sync.Map // map[int][]complex128

// twiddles returns the cached twiddle table for size n, computing and
// storing it on first use. twiddles()[k] = exp(-2*pi*i*k/n) for k in
// [0, n/2).
func twiddles(n int) []complex128 {
	if v, ok := twiddleCache.Load(n); ok {
		return v.([]complex128)
	}
	half := n / 2
	tw := make([]complex128, half)
	for k := 0; k < half; k++ {
		theta := -2 * math.Pi * float64(k) / float64(n)
		s, c := math.Sincos(theta)
		tw[k] = complex(c, s)
	}
	actual, _ := twiddleCache.LoadOrStore(n, tw)
	return actual.([]complex128)
}

// windowCache holds precomputed window coefficients, keyed by (kind, n).
var windowCache sync.Map // map[windowKey][]float64

type windowKey struct {
	kind string
	n    int
}

func cachedWindow(kind string, n int, compute func(int) []float64) []float64 {
	key := windowKey{kind, n}
	if v, ok := windowCache.Load(key); ok {
		return v.([]float64)
	}
	w := compute(n)
	actual, _ := windowCache.LoadOrStore(key, w)
	return actual.([]float64)
}
