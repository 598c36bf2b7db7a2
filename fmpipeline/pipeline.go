/*
NAME
  pipeline.go

DESCRIPTION
  pipeline.go implements the multi-station FM pipeline: it composes the
  channelizer and scanner packages, maintains the live channel set, and
  demodulates each channel on every call to ProcessWidebandSamples in the
  mandated scan -> evict -> channelize -> demod -> downstream order. Scan
  throttling and channel staleness are both measured against the same
  injectable clock, grounding ausocean/av/revid/pipeline.go's
  handleErrors/reset style of owning a long-lived processing loop, and
  golang.org/x/time/rate is used for the scan-interval gate itself.

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

// Package fmpipeline composes the channelizer and scanner packages into a
// multi-station FM demodulation pipeline.
package fmpipeline

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ausocean/sdr/channelizer"
	"github.com/ausocean/sdr/dsp"
	"github.com/ausocean/sdr/scanner"
)

// Decoder is the optional downstream decoder attached to a channel, e.g. an
// RDS decoder consuming demodulated baseband.
type Decoder interface {
	// Feed processes one block of demodulated samples and returns the
	// latest structured output, which may be nil if nothing new decoded.
	Feed(demod []float32) (interface{}, error)

	// Stats returns a snapshot of decoder statistics.
	Stats() interface{}
}

// Channel is one live FM channel record.
type Channel struct {
	FrequencyHz float64
	Strength    float64 // normalized [0,1]
	LastSeen    time.Time
	Decoder     Decoder
}

// ChannelOutput is returned per channel from ProcessWidebandSamples.
type ChannelOutput struct {
	Data  interface{}
	Stats interface{}
}

// Pipeline owns the live channel set for one capture instance. Not safe for
// concurrent use by multiple callers, per the single-owner scheduling model.
type Pipeline struct {
	cfg Config

	mu       sync.Mutex
	channels map[float64]*Channel

	limiter *rate.Limiter
	clock   func() time.Time

	// NewDecoder constructs a downstream decoder for a newly added channel
	// when EnableRDS is set. When nil, channels are created without a
	// decoder and their outputs carry nil Data and Stats.
	NewDecoder func(baseRate float64) Decoder
}

// New constructs a Pipeline from cfg, which must already pass Validate.
func New(cfg Config) *Pipeline {
	interval := time.Duration(cfg.ScanIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = time.Duration(DefaultScanIntervalMs) * time.Millisecond
	}
	return &Pipeline{
		cfg:      cfg,
		channels: make(map[float64]*Channel),
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		clock:    time.Now,
	}
}

func (p *Pipeline) logger() Logger {
	if p.cfg.Log == nil {
		return noopLogger{}
	}
	return p.cfg.Log
}

// baseRate returns the per-channel baseband sample rate fs/m, where m is the
// channelizer decimation factor round(fs/cbw) for the pipeline's configured
// sample rate and channel bandwidth.
func (p *Pipeline) baseRate() float64 {
	m := math.Round(p.cfg.SampleRate / p.cfg.ChannelBandwidth)
	if m < 1 {
		m = 1
	}
	return p.cfg.SampleRate / m
}

// AddChannel inserts a channel at frequency f with the given initial
// strength if absent, creating its downstream decoder when RDS is enabled.
func (p *Pipeline) AddChannel(f, strength float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.addChannelLocked(f, strength)
}

func (p *Pipeline) addChannelLocked(f, strength float64) *Channel {
	if ch, ok := p.channels[f]; ok {
		return ch
	}
	var dec Decoder
	if p.cfg.EnableRDS && p.NewDecoder != nil {
		dec = p.NewDecoder(p.baseRate())
	}
	ch := &Channel{FrequencyHz: f, Strength: strength, LastSeen: p.clock(), Decoder: dec}
	p.channels[f] = ch
	return ch
}

// RemoveChannel drops the channel at f, if present.
func (p *Pipeline) RemoveChannel(f float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.channels, f)
}

// ClearChannels drops every channel.
func (p *Pipeline) ClearChannels() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels = make(map[float64]*Channel)
}

// GetChannels returns a snapshot of all live channels.
func (p *Pipeline) GetChannels() []Channel {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Channel, 0, len(p.channels))
	for _, ch := range p.channels {
		out = append(out, *ch)
	}
	return out
}

// GetChannel returns a snapshot of the channel at f, if present.
func (p *Pipeline) GetChannel(f float64) (Channel, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch, ok := p.channels[f]
	if !ok {
		return Channel{}, false
	}
	return *ch, true
}

// findWithinTolerance returns the frequency key of an existing channel
// within tol of f, or (0, false) if none exists. Must be called with p.mu
// held.
func (p *Pipeline) findWithinToleranceLocked(f, tol float64) (float64, bool) {
	for key := range p.channels {
		if abs(key-f) <= tol {
			return key, true
		}
	}
	return 0, false
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// ProcessWidebandSamples runs one pass of scan -> evict -> channelize ->
// demod -> downstream over the given wideband I/Q block, in that order.
func (p *Pipeline) ProcessWidebandSamples(i, q []float32) (map[float64]ChannelOutput, error) {
	now := p.clock()

	if err := p.maybeScan(i, q, now); err != nil {
		return nil, err
	}

	p.evictStale(now)

	p.mu.Lock()
	reqs := make([]channelizer.Request, 0, len(p.channels))
	for f := range p.channels {
		reqs = append(reqs, channelizer.Request{FrequencyHz: f})
	}
	p.mu.Unlock()

	if len(reqs) == 0 {
		return map[float64]ChannelOutput{}, nil
	}

	results, err := channelizer.Channelize(i, q, p.cfg.SampleRate, p.cfg.CenterFrequency, p.cfg.ChannelBandwidth, reqs,
		channelizer.Config{UsePFB: p.cfg.UsePFBChannelizer, Log: p.cfg.Log})
	if err != nil {
		return nil, err
	}

	out := make(map[float64]ChannelOutput, len(results))
	for _, r := range results {
		if len(r.I) == 0 {
			continue
		}
		demod, err := dsp.FMDiscriminate(r.I, r.Q)
		if err != nil {
			p.logger().Warning("FM discriminate failed", "frequency", r.FrequencyHz, "error", err.Error())
			continue
		}

		p.mu.Lock()
		ch, ok := p.channels[r.FrequencyHz]
		p.mu.Unlock()
		if !ok {
			continue
		}

		var data, stats interface{}
		if ch.Decoder != nil {
			data, err = ch.Decoder.Feed(demod)
			if err != nil {
				p.logger().Warning("downstream decode failed", "frequency", r.FrequencyHz, "error", err.Error())
			}
			stats = ch.Decoder.Stats()
		}
		out[r.FrequencyHz] = ChannelOutput{Data: data, Stats: stats}
	}
	return out, nil
}

// maybeScan runs the spectrum scan if the scan interval has elapsed,
// refreshing or inserting channels for each detected peak.
func (p *Pipeline) maybeScan(i, q []float32, now time.Time) error {
	if !p.limiter.AllowN(now, 1) {
		return nil
	}
	if len(i) < p.cfg.ScanFFTSize {
		return nil
	}

	peaks, err := scanner.Scan(i, q, p.cfg.SampleRate, p.cfg.CenterFrequency, p.cfg.ScanFFTSize, p.cfg.scannerConfig())
	if err != nil {
		return err
	}

	tol := min(p.cfg.ChannelBandwidth/2, p.cfg.MinSeparationHz)

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, peak := range peaks {
		key, found := p.findWithinToleranceLocked(peak.FrequencyHz, tol)
		if found {
			ch := p.channels[key]
			ch.Strength = normalizeStrength(peak.PowerDb)
			ch.LastSeen = now
			continue
		}
		ch := p.addChannelLocked(peak.FrequencyHz, normalizeStrength(peak.PowerDb))
		ch.LastSeen = now
	}
	return nil
}

// evictStale drops channels whose LastSeen predates now by more than the
// configured staleness timeout.
func (p *Pipeline) evictStale(now time.Time) {
	timeout := time.Duration(p.cfg.StaleChannelTimeoutMs) * time.Millisecond
	p.mu.Lock()
	defer p.mu.Unlock()
	for f, ch := range p.channels {
		if now.Sub(ch.LastSeen) > timeout {
			delete(p.channels, f)
		}
	}
}

// normalizeStrength maps a dB power value onto [0,1] using a fixed dynamic
// range; values below -100dB clamp to 0, values at or above 0dB clamp to 1.
func normalizeStrength(db float32) float64 {
	const floor = -100.0
	v := (float64(db) - floor) / -floor
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
