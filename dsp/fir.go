/*
DESCRIPTION
  fir.go provides windowed-sinc FIR low-pass design and symmetric
  convolution, generalizing the lowpass branch of
  ausocean/av/codec/pcm/filters.go's newLoHiFilter (sinc * window) from a
  single real-valued PCM stream to a complex I/Q stream, with the Hamming
  window spec.md §4.1 specifies rather than that file's FlatTop choice.
*/

package dsp

import (
	"math"

	"github.com/mjibson/go-dsp/window"
	"github.com/pkg/errors"
)

// maxTaps is the cap on FIR tap count, per spec.md §4.1.
const maxTaps = 511

// minTaps is the floor on FIR tap count, per spec.md §4.1.
const minTaps = 21

// DesignLowpass designs a windowed-sinc low-pass FIR filter for cutoff
// frequency fc (Hz) at sample rate fs (Hz). Tap count is
// max(21, ceil(5*fs/fc)), rounded up to the next odd integer and capped at
// 511. Coefficients are normalized so DC gain is unity.
func DesignLowpass(fc, fs float64) ([]float64, error) {
	if fc <= 0 || fc >= fs/2 {
		return nil, errors.New("dsp: cutoff frequency out of bounds")
	}

	taps := int(math.Ceil(5 * fs / fc))
	if taps < minTaps {
		taps = minTaps
	}
	if taps%2 == 0 {
		taps++
	}
	if taps > maxTaps {
		taps = maxTaps
	}

	w := cachedWindow("hamming-fir", taps, window.Hamming)
	coeffs := make([]float64, taps)
	mid := float64(taps-1) / 2
	fd := fc / fs

	var sum float64
	for n := 0; n < taps; n++ {
		x := float64(n) - mid
		var s float64
		if x == 0 {
			s = 2 * fd
		} else {
			s = math.Sin(2*math.Pi*fd*x) / (math.Pi * x)
		}
		coeffs[n] = s * w[n]
		sum += coeffs[n]
	}

	// Normalize so DC gain (sum of coefficients) is unity.
	if sum != 0 {
		for n := range coeffs {
			coeffs[n] /= sum
		}
	}
	return coeffs, nil
}

// ApplyFIR convolves i and q with coeffs, applying the same real-valued
// coefficients to each component. The boundary is zero-padded and the
// output length equals the input length.
func ApplyFIR(i, q []float32, coeffs []float64) (oi, oq []float32, err error) {
	if len(i) != len(q) {
		return nil, nil, ErrLengthMismatch
	}
	oi = convolveSame(i, coeffs)
	oq = convolveSame(q, coeffs)
	return oi, oq, nil
}

// convolveSame performs symmetric convolution of x with h, zero-padding the
// boundary so that len(out) == len(x).
func convolveSame(x []float32, h []float64) []float32 {
	n := len(x)
	taps := len(h)
	half := taps / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		var acc float64
		for k := 0; k < taps; k++ {
			xi := i + k - half
			if xi < 0 || xi >= n {
				continue
			}
			acc += float64(x[xi]) * h[k]
		}
		out[i] = float32(acc)
	}
	return out
}
