package dsp

import (
	"github.com/mjibson/go-dsp/window"
)

// WindowFunc applies a symmetric window of length len(i) to both i and q in
// place.
type WindowFunc func(i, q []float32) error

// ApplyHann multiplies i and q in place by the standard symmetric Hann
// window of length len(i).
func ApplyHann(i, q []float32) error { return applyWindow("hann", window.Hann, i, q) }

// ApplyHamming multiplies i and q in place by the standard symmetric
// Hamming window of length len(i).
func ApplyHamming(i, q []float32) error { return applyWindow("hamming", window.Hamming, i, q) }

// ApplyBlackman multiplies i and q in place by the standard symmetric
// Blackman window of length len(i).
func ApplyBlackman(i, q []float32) error { return applyWindow("blackman", window.Blackman, i, q) }

func applyWindow(kind string, gen func(int) []float64, i, q []float32) error {
	if len(i) != len(q) {
		return ErrLengthMismatch
	}
	n := len(i)
	w := cachedWindow(kind, n, gen)
	for k := 0; k < n; k++ {
		i[k] *= float32(w[k])
		q[k] *= float32(w[k])
	}
	return nil
}
