/*
NAME
  dsp_test.go

DESCRIPTION
  Tests for the DSP primitives, table-driven in the teacher's style
  (mpegts_test.go) plus property-based tests using pgregory.net/rapid for
  the universally-quantified properties in spec.md §8.
*/

package dsp

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"pgregory.net/rapid"
)

// TestFFTLengthAndFinite checks that for all power-of-two N >= 2, FFT output
// has length N and contains only finite numbers. The DC-at-N/2 placement is
// covered by TestFFTPureTone.
func TestFFTLengthAndFinite(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		exp := rapid.IntRange(1, 10).Draw(rt, "exp")
		n := 1 << exp

		i := make([]float32, n)
		q := make([]float32, n)
		for k := range i {
			i[k] = float32(rapid.Float64Range(-1, 1).Draw(rt, "i"))
			q[k] = float32(rapid.Float64Range(-1, 1).Draw(rt, "q"))
		}

		out, err := FFT(i, q, n)
		if err != nil {
			rt.Fatalf("unexpected error: %v", err)
		}
		if len(out) != n {
			rt.Fatalf("expected length %d, got %d", n, len(out))
		}
		for _, v := range out {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				rt.Fatalf("non-finite magnitude in output: %v", v)
			}
		}
	})
}

func TestFFTInvalidSize(t *testing.T) {
	cases := []struct {
		name string
		n    int
		ilen int
	}{
		{"not power of two", 6, 6},
		{"too small", 1, 1},
		{"short input", 8, 4},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			i := make([]float32, c.ilen)
			q := make([]float32, c.ilen)
			_, err := FFT(i, q, c.n)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

// TestFFTPureTone checks that a pure tone produces a peak at the expected
// bin after FFT-shifting.
func TestFFTPureTone(t *testing.T) {
	const n = 1024
	const fs = 2_000_000.0
	const toneFreq = 200_000.0 // Hz, positive offset from DC.

	i := make([]float32, n)
	q := make([]float32, n)
	for k := 0; k < n; k++ {
		phase := 2 * math.Pi * toneFreq * float64(k) / fs
		i[k] = float32(math.Cos(phase))
		q[k] = float32(math.Sin(phase))
	}

	out, err := FFT(i, q, n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Find the peak bin.
	peak := 0
	for k := 1; k < n; k++ {
		if out[k] > out[peak] {
			peak = k
		}
	}

	expectedBin := n/2 + int(toneFreq*n/fs)
	if diff := peak - expectedBin; diff < -1 || diff > 1 {
		t.Fatalf("expected peak within 1 bin of %d, got %d", expectedBin, peak)
	}
}

func TestWaveform(t *testing.T) {
	i := []float32{1, 0, -1, 0}
	q := []float32{0, 1, 0, -1}
	amp, phase, err := Waveform(i, q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float32{1, 1, 1, 1}
	if diff := cmp.Diff(want, amp, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("amplitude mismatch (-want +got):\n%s", diff)
	}
	if len(phase) != len(i) {
		t.Fatalf("expected phase length %d, got %d", len(i), len(phase))
	}
}

func TestFMDiscriminateInitialPhaseZero(t *testing.T) {
	// A single sample at phase pi/2 should discriminate against an initial
	// previous phase of zero.
	i := []float32{0}
	q := []float32{1}
	out, err := FMDiscriminate(i, q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := float32(0.5) // (pi/2) / pi
	if math.Abs(float64(out[0]-want)) > 1e-6 {
		t.Errorf("got %v, want %v", out[0], want)
	}
}

func TestDecimate(t *testing.T) {
	i := []float32{0, 1, 2, 3, 4, 5}
	q := []float32{0, 1, 2, 3, 4, 5}
	di, dq, err := Decimate(i, q, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float32{0, 2, 4}
	if diff := cmp.Diff(want, di); diff != "" {
		t.Errorf("decimated I mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, dq); diff != "" {
		t.Errorf("decimated Q mismatch (-want +got):\n%s", diff)
	}
}

func TestDecimateInvalidFactor(t *testing.T) {
	_, _, err := Decimate([]float32{1}, []float32{1}, 0)
	if err == nil {
		t.Fatal("expected error for decimation factor 0")
	}
}

func TestDesignLowpassUnityDCGain(t *testing.T) {
	coeffs, err := DesignLowpass(1000, 8000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var sum float64
	for _, c := range coeffs {
		sum += c
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("expected unity DC gain, got %v", sum)
	}
	if len(coeffs)%2 == 0 {
		t.Errorf("expected odd tap count, got %d", len(coeffs))
	}
}

func TestApplyFIRPreservesLength(t *testing.T) {
	coeffs, err := DesignLowpass(1000, 8000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	i := make([]float32, 100)
	q := make([]float32, 100)
	for k := range i {
		i[k] = 1
	}
	oi, oq, err := ApplyFIR(i, q, coeffs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(oi) != len(i) || len(oq) != len(q) {
		t.Errorf("ApplyFIR changed length: got %d/%d, want %d", len(oi), len(oq), len(i))
	}
}

func TestAcceleratorFallbackOnDegenerate(t *testing.T) {
	defer ResetAcceleratorForTest()
	ResetAcceleratorWarning("degenerate-test")

	var warned int
	SetAcceleratorLogger(func(variant, msg string) { warned++ })
	defer SetAcceleratorLogger(nil)

	RegisterAccelerator(degenerateAccelerator{})
	SetAcceleratorForTest("degenerate-test")

	n := 8
	i := make([]float32, n)
	q := make([]float32, n)
	for k := range i {
		i[k] = float32(k)
	}

	out1, err := FFT(i, q, n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out2, err := FFT(i, q, n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(out1, out2); diff != "" {
		t.Errorf("expected consistent fallback output (-first +second):\n%s", diff)
	}
	if warned != 1 {
		t.Errorf("expected exactly one warning emitted, got %d", warned)
	}
}

type degenerateAccelerator struct{}

func (degenerateAccelerator) Name() string { return "degenerate-test" }
func (degenerateAccelerator) FFT(c []complex128, n int) ([]complex128, error) {
	return make([]complex128, n), nil // all-zero: degenerate.
}
