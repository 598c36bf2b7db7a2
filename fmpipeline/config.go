/*
NAME
  config.go

DESCRIPTION
  config.go defines the multi-station FM pipeline's configuration surface,
  mirroring ausocean/av/revid/config.Config's style: plain exported fields
  with doc comments, a Validate method, and a LogInvalidField helper that
  defaults and logs rather than failing outright.

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

package fmpipeline

import (
	"github.com/pkg/errors"

	"github.com/ausocean/sdr/scanner"
)

// Default configuration values, per the configuration surface.
const (
	DefaultChannelBandwidth     = 200_000.0
	DefaultScanFFTSize          = 8192
	DefaultScanThresholdDb      = -70.0
	DefaultScanMaxStations      = 60
	DefaultScanIntervalMs       = 1000
	DefaultStaleChannelTimeoutMs = 5000
	DefaultMinSeparationHz      = 100_000.0
	DefaultMinValleyDepthDb     = 6.0
	DefaultScanThresholdDbOffset = 18.0
)

// Config is the full configuration surface of the multi-station FM
// pipeline.
type Config struct {
	// SampleRate is the wideband capture sample rate, in Hz. Required.
	SampleRate float64

	// CenterFrequency is the wideband capture center frequency, in Hz.
	// Required.
	CenterFrequency float64

	// Bandwidth is the wideband capture bandwidth, in Hz.
	Bandwidth float64

	// EnableRDS creates a downstream RDS decoder for each added channel
	// when true.
	EnableRDS bool

	// ChannelBandwidth is the target per-channel bandwidth, in Hz.
	ChannelBandwidth float64

	// ScanFFTSize is the FFT size used for spectrum scanning; must be a
	// power of two.
	ScanFFTSize int

	// ScanThresholdDb is the fixed absolute dB threshold used when
	// ScanAutoThreshold is false.
	ScanThresholdDb float64

	// ScanMaxStations caps the number of channels a single scan can
	// surface.
	ScanMaxStations int

	// ScanIntervalMs is the minimum time between successive scans.
	ScanIntervalMs int

	// StaleChannelTimeoutMs is how long a channel may go un-refreshed
	// before it is evicted.
	StaleChannelTimeoutMs int

	// MinSeparationHz is the minimum frequency separation below which two
	// scanned peaks are merged.
	MinSeparationHz float64

	// MinValleyDepthDb is the floor for the adaptive valley-depth
	// requirement between two scanned peaks.
	MinValleyDepthDb float64

	// UseWorkerFFT is carried in the configuration surface and its YAML
	// form. This package has no worker pool; scan FFTs always run
	// synchronously on the caller's goroutine.
	UseWorkerFFT bool

	// ScanAutoThreshold selects noise-floor-relative thresholding.
	ScanAutoThreshold bool

	// ScanThresholdDbOffset is added to the noise floor when
	// ScanAutoThreshold is set.
	ScanThresholdDbOffset float64

	// UsePFBChannelizer selects the polyphase filter bank channelizer
	// over the windowed-DFT fallback.
	UsePFBChannelizer bool

	// Log receives validation and lifecycle diagnostics. Defaults to a
	// no-op logger when nil.
	Log Logger
}

// DefaultConfig returns a Config populated with the documented defaults,
// requiring the caller to still set SampleRate, CenterFrequency, and
// Bandwidth.
func DefaultConfig() Config {
	return Config{
		EnableRDS:             true,
		ChannelBandwidth:      DefaultChannelBandwidth,
		ScanFFTSize:           DefaultScanFFTSize,
		ScanThresholdDb:       DefaultScanThresholdDb,
		ScanMaxStations:       DefaultScanMaxStations,
		ScanIntervalMs:        DefaultScanIntervalMs,
		StaleChannelTimeoutMs: DefaultStaleChannelTimeoutMs,
		MinSeparationHz:       DefaultMinSeparationHz,
		MinValleyDepthDb:      DefaultMinValleyDepthDb,
		UseWorkerFFT:          true,
		ScanAutoThreshold:     true,
		ScanThresholdDbOffset: DefaultScanThresholdDbOffset,
		UsePFBChannelizer:     true,
	}
}

// Validate checks required fields and fills in defaults for zero-valued
// optional fields via LogInvalidField, matching revid/config.Config's
// Validate pattern.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return errors.New("fmpipeline: SampleRate must be positive")
	}
	if c.Bandwidth <= 0 {
		return errors.New("fmpipeline: Bandwidth must be positive")
	}

	if c.ChannelBandwidth <= 0 {
		c.LogInvalidField("ChannelBandwidth", DefaultChannelBandwidth)
		c.ChannelBandwidth = DefaultChannelBandwidth
	}
	if c.ScanFFTSize <= 0 || !isPowerOfTwo(c.ScanFFTSize) {
		c.LogInvalidField("ScanFFTSize", DefaultScanFFTSize)
		c.ScanFFTSize = DefaultScanFFTSize
	}
	if c.ScanMaxStations <= 0 {
		c.LogInvalidField("ScanMaxStations", DefaultScanMaxStations)
		c.ScanMaxStations = DefaultScanMaxStations
	}
	if c.ScanIntervalMs <= 0 {
		c.LogInvalidField("ScanIntervalMs", DefaultScanIntervalMs)
		c.ScanIntervalMs = DefaultScanIntervalMs
	}
	if c.StaleChannelTimeoutMs <= 0 {
		c.LogInvalidField("StaleChannelTimeoutMs", DefaultStaleChannelTimeoutMs)
		c.StaleChannelTimeoutMs = DefaultStaleChannelTimeoutMs
	}
	if c.MinSeparationHz <= 0 {
		c.LogInvalidField("MinSeparationHz", DefaultMinSeparationHz)
		c.MinSeparationHz = DefaultMinSeparationHz
	}
	if c.MinValleyDepthDb <= 0 {
		c.LogInvalidField("MinValleyDepthDb", DefaultMinValleyDepthDb)
		c.MinValleyDepthDb = DefaultMinValleyDepthDb
	}
	if c.ScanThresholdDbOffset <= 0 {
		c.LogInvalidField("ScanThresholdDbOffset", DefaultScanThresholdDbOffset)
		c.ScanThresholdDbOffset = DefaultScanThresholdDbOffset
	}
	return nil
}

// LogInvalidField logs that field was invalid and has been reset to def,
// rather than failing validation outright.
func (c *Config) LogInvalidField(name string, def interface{}) {
	c.logger().Warning("invalid config field, using default", "field", name, "default", def)
}

func (c *Config) logger() Logger {
	if c.Log == nil {
		return noopLogger{}
	}
	return c.Log
}

func isPowerOfTwo(n int) bool { return n >= 2 && n&(n-1) == 0 }

// scannerConfig projects the pipeline Config onto scanner.Config.
func (c Config) scannerConfig() scanner.Config {
	return scanner.Config{
		ThresholdDb:       c.ScanThresholdDb,
		AutoThreshold:     c.ScanAutoThreshold,
		ThresholdDbOffset: c.ScanThresholdDbOffset,
		MinSeparationHz:   c.MinSeparationHz,
		MinValleyDepthDb:  c.MinValleyDepthDb,
		MaxStations:       c.ScanMaxStations,
	}
}
