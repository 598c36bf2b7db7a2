/*
NAME
  scanner.go

DESCRIPTION
  scanner locates candidate carrier peaks in a wideband magnitude spectrum:
  noise-floor estimation via percentile (gonum.org/v1/gonum/stat, mirroring
  cmd/rv/probe.go's use of gonum/stat), adaptive or fixed thresholding,
  strict local-maxima detection, and peak merging by separation and valley
  depth. The scanner is stateless across calls.

AUTHOR
  Scott Barnard <scott@ausocean.org>

LICENSE
  This software is Copyright (C) 2024 the Australian Ocean Laboratory (AusOcean).

  It is free software: you can redistribute it and/or modify them
  under the terms of the GNU General Public License as published by the
  Free Software Foundation, either version 3 of the License, or (at your
  option) any later version.

  It is distributed in the hope that it will be useful, but WITHOUT ANY
  WARRANTY; without even the implied warranty of MERCHANTABILITY or
  FITNESS FOR A PARTICULAR PURPOSE. See the GNU General Public License
  for more details.

  You should have received a copy of the GNU General Public License
  in gpl.txt. If not, see http://www.gnu.org/licenses.
*/

// Package scanner locates candidate carrier peaks on a wideband magnitude
// spectrum.
package scanner

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ausocean/sdr/dsp"
)

// Peak is one detected carrier.
type Peak struct {
	FrequencyHz float64
	PowerDb     float32
}

// Config controls scanning behaviour. Zero values are replaced by the
// documented defaults in Scan.
type Config struct {
	// ThresholdDb is the fixed absolute dB threshold used when
	// AutoThreshold is false. Default -70.
	ThresholdDb float64

	// AutoThreshold selects noise-floor-relative thresholding
	// (noise floor + ThresholdDbOffset) instead of a fixed ThresholdDb.
	AutoThreshold bool

	// ThresholdDbOffset is added to the noise floor when AutoThreshold is
	// set. Default 18.
	ThresholdDbOffset float64

	// MinSeparationHz is the minimum frequency separation below which two
	// peaks are always merged. Default 100_000.
	MinSeparationHz float64

	// MinValleyDepthDb is the floor for the adaptive valley-depth
	// requirement between two peaks above MinSeparationHz apart. Default 6.
	MinValleyDepthDb float64

	// MaxStations caps the number of returned peaks, strongest first.
	// Default 60.
	MaxStations int
}

const (
	defaultThresholdDb      = -70
	defaultThresholdOffset  = 18
	defaultMinSeparationHz  = 100_000
	defaultMinValleyDepthDb = 6
	defaultMaxStations      = 60
	defaultValleyClamp      = 24
	noiseFloorQuantile      = 0.10
)

func (c Config) thresholdOffset() float64 {
	if c.ThresholdDbOffset == 0 {
		return defaultThresholdOffset
	}
	return c.ThresholdDbOffset
}

func (c Config) fixedThreshold() float64 {
	if c.ThresholdDb == 0 {
		return defaultThresholdDb
	}
	return c.ThresholdDb
}

func (c Config) minSeparationHz() float64 {
	if c.MinSeparationHz == 0 {
		return defaultMinSeparationHz
	}
	return c.MinSeparationHz
}

func (c Config) minValleyDepthDb() float64 {
	if c.MinValleyDepthDb == 0 {
		return defaultMinValleyDepthDb
	}
	return c.MinValleyDepthDb
}

func (c Config) maxStations() int {
	if c.MaxStations == 0 {
		return defaultMaxStations
	}
	return c.MaxStations
}

// Scan computes the magnitude spectrum of the given wideband I/Q (exactly n
// samples, n a power of two) captured at center frequency fc and sample rate
// fs, and returns candidate carrier peaks sorted by power descending.
func Scan(i, q []float32, fs, fc float64, n int, cfg Config) ([]Peak, error) {
	spectrum, err := dsp.FFT(i, q, n)
	if err != nil {
		return nil, err
	}

	noiseFloor := estimateNoiseFloor(spectrum)

	var threshold float64
	if cfg.AutoThreshold {
		threshold = noiseFloor + cfg.thresholdOffset()
	} else {
		threshold = cfg.fixedThreshold()
	}

	maxDb := -math.MaxFloat64
	for _, v := range spectrum {
		if float64(v) > maxDb {
			maxDb = float64(v)
		}
	}
	snr := maxDb - noiseFloor

	raw := localMaxima(spectrum, threshold)
	peaks := make([]Peak, len(raw))
	half := n / 2
	for idx, bin := range raw {
		peaks[idx] = Peak{
			FrequencyHz: fc + float64(bin-half)*fs/float64(n),
			PowerDb:     spectrum[bin],
		}
	}

	sort.Slice(peaks, func(a, b int) bool { return peaks[a].FrequencyHz < peaks[b].FrequencyHz })
	merged := mergePeaks(peaks, spectrum, fs, fc, n, snr, cfg)

	sort.Slice(merged, func(a, b int) bool { return merged[a].PowerDb > merged[b].PowerDb })
	if len(merged) > cfg.maxStations() {
		merged = merged[:cfg.maxStations()]
	}
	return merged, nil
}

// estimateNoiseFloor returns the 10th-percentile dB value of the spectrum.
func estimateNoiseFloor(spectrum []float32) float64 {
	sorted := make([]float64, len(spectrum))
	for k, v := range spectrum {
		sorted[k] = float64(v)
	}
	sort.Float64s(sorted)
	return stat.Quantile(noiseFloorQuantile, stat.Empirical, sorted, nil)
}

// localMaxima returns bin indices that are strictly greater than both
// neighbors and above threshold. Edge bins (0 and n-1) are never local
// maxima since they lack two neighbors.
func localMaxima(spectrum []float32, threshold float64) []int {
	var bins []int
	for k := 1; k < len(spectrum)-1; k++ {
		v := float64(spectrum[k])
		if v <= threshold {
			continue
		}
		if spectrum[k] > spectrum[k-1] && spectrum[k] > spectrum[k+1] {
			bins = append(bins, k)
		}
	}
	return bins
}

// mergePeaks walks frequency-ordered peaks pairwise, merging by separation
// and valley-depth rules.
func mergePeaks(peaks []Peak, spectrum []float32, fs, fc float64, n int, snr float64, cfg Config) []Peak {
	if len(peaks) <= 1 {
		return peaks
	}

	adaptiveMinValley := clamp(cfg.minValleyDepthDb(), cfg.minValleyDepthDb()+math.Floor(snr/6), defaultValleyClamp)

	out := []Peak{peaks[0]}
	for k := 1; k < len(peaks); k++ {
		last := out[len(out)-1]
		cur := peaks[k]
		sep := math.Abs(cur.FrequencyHz - last.FrequencyHz)

		if sep < cfg.minSeparationHz() {
			out[len(out)-1] = strongerPeak(last, cur)
			continue
		}

		valleyDb := minBetween(spectrum, fs, fc, n, last.FrequencyHz, cur.FrequencyHz)
		weaker := math.Min(float64(last.PowerDb), float64(cur.PowerDb))
		if weaker-valleyDb >= adaptiveMinValley {
			out = append(out, cur)
		} else {
			out[len(out)-1] = strongerPeak(last, cur)
		}
	}
	return out
}

func strongerPeak(a, b Peak) Peak {
	if a.PowerDb >= b.PowerDb {
		return a
	}
	return b
}

// minBetween returns the minimum dB value of the spectrum in the bin range
// between frequencies fa and fb (exclusive of neither endpoint bin).
func minBetween(spectrum []float32, fs, fc float64, n int, fa, fb float64) float64 {
	half := n / 2
	binA := int(math.Round((fa-fc)*float64(n)/fs)) + half
	binB := int(math.Round((fb-fc)*float64(n)/fs)) + half
	if binA > binB {
		binA, binB = binB, binA
	}
	if binA < 0 {
		binA = 0
	}
	if binB >= len(spectrum) {
		binB = len(spectrum) - 1
	}
	min := math.MaxFloat64
	for k := binA; k <= binB; k++ {
		if float64(spectrum[k]) < min {
			min = float64(spectrum[k])
		}
	}
	return min
}

func clamp(lo, v, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
