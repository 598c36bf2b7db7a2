/*
NAME
  dsp.go

DESCRIPTION
  dsp.go provides the fixed performance-critical primitives used by the
  channelizer and scanner: FFT, windowing, waveform extraction, spectrograms,
  FM discrimination, frequency shifting, FIR design/application and
  decimation. These are pure functions; the only shared state is the
  twiddle-factor and window-coefficient caches, which are process-wide and
  append-only (see cache.go).

AUTHOR
  (adapted for the sdr module)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package dsp provides the fixed-point and floating-point signal processing
// primitives used by the channelizer and spectrum scanner: FFT, windowing,
// amplitude/phase extraction, FM discrimination, frequency shift, FIR
// low-pass design/application and decimation.
package dsp

import (
	"math"
	"math/cmplx"

	"github.com/pkg/errors"
)

// dbEpsilon avoids log(0) in the magnitude-to-dB conversion.
const dbEpsilon = 1e-12

// Errors returned by the DSP primitives. Per spec, primitives fail only on
// invalid sizes or NaN inputs; they never fail on numerical edge cases.
var (
	ErrNotPowerOfTwo  = errors.New("dsp: fft size is not a power of two >= 2")
	ErrShortInput     = errors.New("dsp: input shorter than requested size")
	ErrLengthMismatch = errors.New("dsp: I and Q arrays must be the same length")
	ErrInvalidDecim   = errors.New("dsp: decimation factor must be >= 1")
)

// IsPowerOfTwo reports whether n is a power of two and at least 2.
func IsPowerOfTwo(n int) bool {
	return n >= 2 && n&(n-1) == 0
}

// FFT computes the FFT-shifted dB magnitude spectrum of the first n complex
// samples of (i, q). DC sits at index n/2, and index 0 is the most-negative
// frequency bin. n must be a power of two >= 2 and both slices must contain
// at least n samples.
//
// FFT dispatches through the process-wide accelerator registry (see
// accelerator.go): an accelerated implementation is tried first if one is
// registered and enabled, falling back permanently to the scalar path for
// that variant if its output is found to be degenerate.
func FFT(i, q []float32, n int) ([]float32, error) {
	if !IsPowerOfTwo(n) {
		return nil, ErrNotPowerOfTwo
	}
	if len(i) < n || len(q) < n {
		return nil, ErrShortInput
	}
	if len(i) != len(q) {
		return nil, ErrLengthMismatch
	}

	c := make([]complex128, n)
	for k := 0; k < n; k++ {
		c[k] = complex(float64(i[k]), float64(q[k]))
	}

	out, err := computeWithAccelerator(c, n)
	if err != nil {
		return nil, err
	}
	return magnitudeSpectrum(out, n), nil
}

// radix2 performs a power-of-two, radix-2 Cooley-Tukey FFT of c (len(c) == n)
// into a new slice, leaving c unchanged, using the twiddle table cached for n.
func radix2(c []complex128, n int) []complex128 {
	out := make([]complex128, n)
	copy(out, c)
	bitReverse(out)

	tw := twiddles(n)
	for size := 2; size <= n; size <<= 1 {
		half := size / 2
		step := n / size
		for start := 0; start < n; start += size {
			for k := 0; k < half; k++ {
				t := tw[k*step] * out[start+k+half]
				u := out[start+k]
				out[start+k] = u + t
				out[start+k+half] = u - t
			}
		}
	}
	return out
}

func bitReverse(c []complex128) {
	n := len(c)
	for i, j := 1, 0; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j &^= bit
		}
		j |= bit
		if i < j {
			c[i], c[j] = c[j], c[i]
		}
	}
}

// magnitudeSpectrum converts the raw FFT output to an FFT-shifted dB
// magnitude spectrum, per the data-model invariant in spec.md §3.
func magnitudeSpectrum(c []complex128, n int) []float32 {
	out := make([]float32, n)
	half := n / 2
	for k := 0; k < n; k++ {
		mag := cmplx.Abs(c[k])
		db := 20 * math.Log10(mag+dbEpsilon)
		// FFT-shift: bin k maps to (k+half) mod n in shifted order, so that
		// shifted index n/2 carries DC (bin 0 of the raw transform).
		shifted := (k + half) % n
		out[shifted] = float32(db)
	}
	return out
}

// Waveform extracts parallel amplitude and phase arrays from I/Q samples.
// amplitude[k] = sqrt(I[k]^2 + Q[k]^2); phase[k] = atan2(Q[k], I[k]).
func Waveform(i, q []float32) (amplitude, phase []float32, err error) {
	if len(i) != len(q) {
		return nil, nil, ErrLengthMismatch
	}
	amplitude = make([]float32, len(i))
	phase = make([]float32, len(i))
	for k := range i {
		amplitude[k] = float32(math.Hypot(float64(i[k]), float64(q[k])))
		phase[k] = float32(math.Atan2(float64(q[k]), float64(i[k])))
	}
	return amplitude, phase, nil
}

// Spectrogram applies FFT to successive, non-overlapping rows of n samples
// from (i, q), producing floor(len/n) row-major rows of dB magnitude.
func Spectrogram(i, q []float32, n int) ([][]float32, error) {
	if !IsPowerOfTwo(n) {
		return nil, ErrNotPowerOfTwo
	}
	if len(i) != len(q) {
		return nil, ErrLengthMismatch
	}
	rows := len(i) / n
	out := make([][]float32, rows)
	for r := 0; r < rows; r++ {
		row, err := FFT(i[r*n:(r+1)*n], q[r*n:(r+1)*n], n)
		if err != nil {
			return nil, errors.Wrapf(err, "spectrogram: row %d", r)
		}
		out[r] = row
	}
	return out, nil
}

// FMDiscriminate computes one real output per sample equal to the unwrapped
// instantaneous phase difference between consecutive samples, normalized to
// [-1, 1] by dividing by pi. The initial previous phase is zero.
func FMDiscriminate(i, q []float32) ([]float32, error) {
	if len(i) != len(q) {
		return nil, ErrLengthMismatch
	}
	out := make([]float32, len(i))
	var prevPhase float64
	for k := range i {
		phase := math.Atan2(float64(q[k]), float64(i[k]))
		diff := phase - prevPhase
		// Unwrap into (-pi, pi].
		for diff > math.Pi {
			diff -= 2 * math.Pi
		}
		for diff <= -math.Pi {
			diff += 2 * math.Pi
		}
		out[k] = float32(diff / math.Pi)
		prevPhase = phase
	}
	return out, nil
}

// FreqShift multiplies the I/Q stream by exp(-j*2*pi*f*n/fs), accumulating
// phase modulo 2*pi to bound numerical drift over long streams. It returns
// new shifted I/Q slices of the same length.
func FreqShift(i, q []float32, f, fs float64) (si, sq []float32, err error) {
	if len(i) != len(q) {
		return nil, nil, ErrLengthMismatch
	}
	si = make([]float32, len(i))
	sq = make([]float32, len(i))
	step := 2 * math.Pi * f / fs
	var phase float64
	for k := range i {
		s, c := math.Sincos(-phase)
		ii, qq := float64(i[k]), float64(q[k])
		si[k] = float32(ii*c - qq*s)
		sq[k] = float32(ii*s + qq*c)

		phase += step
		if phase > 2*math.Pi {
			phase = math.Mod(phase, 2*math.Pi)
		} else if phase < -2*math.Pi {
			phase = -math.Mod(-phase, 2*math.Pi)
		}
	}
	return si, sq, nil
}

// Decimate keeps every mth complex sample from (i, q). No anti-alias
// filtering is performed; the caller is responsible for band-limiting
// before calling Decimate.
func Decimate(i, q []float32, m int) (di, dq []float32, err error) {
	if m < 1 {
		return nil, nil, ErrInvalidDecim
	}
	if len(i) != len(q) {
		return nil, nil, ErrLengthMismatch
	}
	n := (len(i) + m - 1) / m
	di = make([]float32, 0, n)
	dq = make([]float32, 0, n)
	for k := 0; k < len(i); k += m {
		di = append(di, i[k])
		dq = append(dq, q[k])
	}
	return di, dq, nil
}

// RemoveDC subtracts the mean of i and q in place, removing a DC bias
// introduced by front-end hardware.
func RemoveDC(i, q []float32) {
	if len(i) == 0 {
		return
	}
	var sumI, sumQ float64
	for k := range i {
		sumI += float64(i[k])
		sumQ += float64(q[k])
	}
	meanI := float32(sumI / float64(len(i)))
	meanQ := float32(sumQ / float64(len(q)))
	for k := range i {
		i[k] -= meanI
		q[k] -= meanQ
	}
}
