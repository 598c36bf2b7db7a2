/*
DESCRIPTION
  accelerator.go implements the runtime accelerator capability registry
  described in spec.md §9: each primitive names the capability it needs (here,
  "fft"), a registry of named implementations is probed, and a degenerate
  output (constant, all-zero or non-finite) triggers a one-time warning and a
  permanent fallback to the scalar path for that variant, until reset.

  The scalar path is our own radix-2 implementation (dsp.go). The scalar
  *reference* used by the validation pass is gonum.org/v1/gonum/dsp/fourier,
  matching the teacher's existing use of gonum elsewhere in the pack
  (cmd/rv/probe.go uses gonum/stat) and giving the validation pass an
  independently-implemented oracle rather than comparing our own code against
  itself.
*/

package dsp

import (
	"math"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Accelerator computes a forward FFT of size n over c (len(c) == n) and
// returns the complex coefficients in natural (unshifted) order.
type Accelerator interface {
	Name() string
	FFT(c []complex128, n int) ([]complex128, error)
}

type scalarAccelerator struct{}

func (scalarAccelerator) Name() string { return "scalar" }
func (scalarAccelerator) FFT(c []complex128, n int) ([]complex128, error) {
	return radix2(c, n), nil
}

var registryMu sync.Mutex
var registry = map[string]Accelerator{"scalar": scalarAccelerator{}}
var activeVariant = "scalar"
var warnedVariant = map[string]bool{}
var fallbackVariant = map[string]bool{}

// RegisterAccelerator adds or replaces an accelerator implementation under
// name. The "scalar" name is reserved and always present.
func RegisterAccelerator(a Accelerator) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[a.Name()] = a
}

// SetAcceleratorForTest selects the active accelerator variant by name,
// bypassing normal capability probing. Exposed for tests, per spec.md §9.
func SetAcceleratorForTest(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	activeVariant = name
}

// ResetAcceleratorForTest restores the scalar accelerator as active and
// clears fallback state for all variants.
func ResetAcceleratorForTest() {
	registryMu.Lock()
	defer registryMu.Unlock()
	activeVariant = "scalar"
	fallbackVariant = map[string]bool{}
}

// ResetAcceleratorWarning clears the one-warning-per-variant-per-process
// latch, allowing a fresh warning to be emitted next time degeneracy is
// detected for that variant.
func ResetAcceleratorWarning(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(warnedVariant, name)
}

// accelWarningLog receives the one-time degeneracy warnings. nil by default;
// set via SetAcceleratorLogger so callers that care can observe it, without
// forcing a logger dependency on every FFT call.
var accelWarningLog func(variant string, msg string)

// SetAcceleratorLogger installs a callback invoked (at most once per variant
// per process, until reset) when an accelerated FFT variant is detected to
// produce degenerate output.
func SetAcceleratorLogger(f func(variant string, msg string)) {
	registryMu.Lock()
	defer registryMu.Unlock()
	accelWarningLog = f
}

// Runtime toggles, process-wide and persistable per spec.md §6.
var (
	AccelerationEnabled  = true
	AccelerationValidate = false
)

// validateSampleRate is the fraction of FFT calls diverted through the
// validation pass when AccelerationValidate is set.
const validateSampleRate = 0.05

func computeWithAccelerator(c []complex128, n int) ([]complex128, error) {
	registryMu.Lock()
	variant := activeVariant
	disabled := fallbackVariant[variant]
	registryMu.Unlock()

	if !AccelerationEnabled || variant == "scalar" || disabled {
		return radix2(c, n), nil
	}

	registryMu.Lock()
	accel := registry[variant]
	registryMu.Unlock()

	out, err := accel.FFT(c, n)
	if err != nil || isDegenerate(out) {
		warnDegenerate(variant)
		return radix2(c, n), nil
	}

	if AccelerationValidate && rand.Float64() < validateSampleRate {
		ref := referenceFFT(c, n)
		if diverges(out, ref) {
			warnDegenerate(variant)
			return radix2(c, n), nil
		}
	}

	return out, nil
}

// referenceFFT computes the forward FFT with gonum's fourier package, used
// as an independent oracle for the validation pass.
func referenceFFT(c []complex128, n int) []complex128 {
	fft := fourier.NewCmplxFFT(n)
	return fft.Coefficients(nil, c)
}

func diverges(got, want []complex128) bool {
	if len(got) != len(want) {
		return true
	}
	const tol = 1e-3
	for k := range got {
		if math.Abs(real(got[k])-real(want[k])) > tol*math.Max(1, math.Abs(real(want[k]))) {
			return true
		}
		if math.Abs(imag(got[k])-imag(want[k])) > tol*math.Max(1, math.Abs(imag(want[k]))) {
			return true
		}
	}
	return false
}

// isDegenerate reports whether an accelerated FFT output is constant,
// all-zero, or contains a non-finite value, per spec.md §4.1.
func isDegenerate(out []complex128) bool {
	if len(out) == 0 {
		return true
	}
	allZero := true
	first := out[0]
	constant := true
	for _, v := range out {
		if !isFinite(v) {
			return true
		}
		if v != 0 {
			allZero = false
		}
		if v != first {
			constant = false
		}
	}
	return allZero || constant
}

func isFinite(v complex128) bool {
	return !math.IsNaN(real(v)) && !math.IsInf(real(v), 0) &&
		!math.IsNaN(imag(v)) && !math.IsInf(imag(v), 0)
}

func warnDegenerate(variant string) {
	registryMu.Lock()
	already := warnedVariant[variant]
	warnedVariant[variant] = true
	fallbackVariant[variant] = true
	logFn := accelWarningLog
	registryMu.Unlock()

	if !already && logFn != nil {
		logFn(variant, "accelerated FFT variant produced degenerate output; falling back to scalar path")
	}
}
