/*
NAME
  channelizer.go

DESCRIPTION
  channelizer splits a wideband I/Q capture into per-channel decimated
  baseband streams, generalizing the single-stream band-select filters of
  ausocean/av/codec/pcm/filters.go (SelectiveFrequencyFilter) to many
  simultaneous channels. Two variants are available: a polyphase filter
  bank (preferred) and a windowed-DFT fallback, selected by Config.UsePFB
  with automatic runtime fallback on PFB error.

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

// Package channelizer splits a wideband I/Q stream into decimated per-channel
// baseband streams.
package channelizer

import (
	"math"

	"github.com/pkg/errors"

	"github.com/ausocean/sdr/dsp"
)

// Logger is the subset of github.com/ausocean/utils/logging.Logger used by
// this package, kept narrow so callers can inject the ambient logger without
// this package importing the concrete type.
type Logger interface {
	Debug(msg string, params ...interface{})
	Warning(msg string, params ...interface{})
	Error(msg string, params ...interface{})
}

// noopLogger discards all log calls; used when no logger is supplied.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{})   {}
func (noopLogger) Warning(string, ...interface{}) {}
func (noopLogger) Error(string, ...interface{})   {}

// Request describes one requested output channel: a center frequency, in Hz,
// absolute (not offset from the capture center).
type Request struct {
	FrequencyHz float64
}

// Result is the decimated baseband I/Q stream for one requested channel, at
// rate FsOut = fs/M.
type Result struct {
	FrequencyHz float64
	I, Q        []float32
	FsOut       float64
}

// Config controls channelizer behaviour.
type Config struct {
	// UsePFB selects the polyphase filter bank path (default, preferred).
	// When false, the windowed-DFT fallback is used directly.
	UsePFB bool

	// TapsPerPhase controls the PFB prototype filter's sidelobe rejection.
	// Default 8 when <= 0.
	TapsPerPhase int

	// Log receives diagnostic messages, including PFB->DFT fallback
	// notices. Defaults to a no-op logger.
	Log Logger
}

const defaultTapsPerPhase = 8

func (c *Config) logger() Logger {
	if c.Log == nil {
		return noopLogger{}
	}
	return c.Log
}

func (c *Config) tapsPerPhase() int {
	if c.TapsPerPhase <= 0 {
		return defaultTapsPerPhase
	}
	return c.TapsPerPhase
}

// Channelize splits the wideband I/Q stream i, q (sample rate fs, capture
// center frequency fc) into one decimated baseband stream per requested
// channel at target channel bandwidth cbw. Requests whose offset from fc
// exceeds ±fs/2 are silently skipped, per the channelizer's edge-case rule.
func Channelize(i, q []float32, fs, fc, cbw float64, reqs []Request, cfg Config) ([]Result, error) {
	if len(i) != len(q) {
		return nil, dsp.ErrLengthMismatch
	}
	if cbw <= 0 || cbw >= fs {
		return nil, errors.New("channelizer: invalid channel bandwidth")
	}

	m := int(math.Round(fs / cbw))
	if m < 1 {
		m = 1
	}

	var in []Request
	for _, r := range reqs {
		offset := r.FrequencyHz - fc
		if math.Abs(offset) > fs/2 {
			continue // silently skip out-of-range requests.
		}
		in = append(in, r)
	}
	if len(in) == 0 {
		return nil, nil
	}

	if cfg.UsePFB {
		out, err := polyphaseChannelize(i, q, fs, fc, cbw, m, in, cfg.tapsPerPhase())
		if err == nil {
			return out, nil
		}
		cfg.logger().Warning("PFB channelizer failed, falling back to windowed-DFT", "error", err.Error())
	}
	return windowedDFTChannelize(i, q, fs, fc, m, in)
}

// mixDown complex-mixes x by -offset Hz at sample rate fs, returning a new
// slice the same length as x.
func mixDown(xi, xq []float32, offset, fs float64) (mi, mq []float32) {
	n := len(xi)
	mi = make([]float32, n)
	mq = make([]float32, n)
	var phase float64
	step := 2 * math.Pi * offset / fs
	for k := 0; k < n; k++ {
		s, c := math.Sincos(-phase)
		mi[k] = float32(float64(xi[k])*c - float64(xq[k])*s)
		mq[k] = float32(float64(xi[k])*s + float64(xq[k])*c)
		phase = math.Mod(phase+step, 2*math.Pi)
	}
	return mi, mq
}

// decimateSimple keeps every mth sample, matching dsp.Decimate's semantics.
func decimateSimple(i, q []float32, m int) ([]float32, []float32) {
	di, dq, err := dsp.Decimate(i, q, m)
	if err != nil {
		// m is always >= 1 here by construction, so this cannot occur; this
		// path exists only to avoid a silent empty result on a future
		// regression.
		return nil, nil
	}
	return di, dq
}
