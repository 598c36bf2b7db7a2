/*
NAME
  frontend.go

DESCRIPTION
  frontend.go wires pes.Assembler and pes.IsKeyframe to a Decoder,
  enforcing the unconfigured/configured/closed lifecycle and the exact
  failure strings of §4.6's Scenario S7, and reports frame counts and
  decode latency via github.com/prometheus/client_golang.

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

package videofront

import (
	"sync"
	"time"

	"github.com/ausocean/sdr/pes"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors a FrontEnd reports through.
// Callers register Metrics once with a prometheus.Registerer and pass it
// to NewFrontEnd so multiple front ends (e.g. one per channel) can share
// a single set of label-partitioned collectors.
type Metrics struct {
	framesDecoded *prometheus.CounterVec
	framesDropped *prometheus.CounterVec
	decodeSeconds *prometheus.HistogramVec
}

// NewMetrics constructs a Metrics and registers it with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		framesDecoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sdr",
			Subsystem: "videofront",
			Name:      "frames_decoded_total",
			Help:      "Total video frames successfully decoded.",
		}, []string{"stream"}),
		framesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sdr",
			Subsystem: "videofront",
			Name:      "frames_dropped_total",
			Help:      "Total video frames dropped due to decode errors.",
		}, []string{"stream"}),
		decodeSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sdr",
			Subsystem: "videofront",
			Name:      "decode_duration_seconds",
			Help:      "Per-frame decode duration.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stream"}),
	}
	reg.MustRegister(m.framesDecoded, m.framesDropped, m.decodeSeconds)
	return m
}

// FrameFunc receives each successfully decoded frame.
type FrameFunc func(Decoded)

// FrontEnd reassembles PES packets for one elementary stream, detects
// keyframes, and drives a Decoder through its configure/decode/close
// lifecycle, per §4.6.
type FrontEnd struct {
	mu       sync.Mutex
	dec      Decoder
	asm      *pes.Assembler
	codec    StreamType
	pesCodec pes.Codec
	state    DecoderState
	metrics  *Metrics
	stream   string // metrics label, e.g. the PID in hex or a channel name.
	onFrame  FrameFunc
}

// NewFrontEnd returns a FrontEnd for dec, reporting frame metrics under
// the given stream label. metrics may be nil to disable reporting.
func NewFrontEnd(dec Decoder, stream string, metrics *Metrics, onFrame FrameFunc) *FrontEnd {
	return &FrontEnd{
		dec:     dec,
		asm:     pes.NewAssembler(),
		state:   StateUnconfigured,
		metrics: metrics,
		stream:  stream,
		onFrame: onFrame,
	}
}

// Configure initializes the underlying decoder for the given codec and
// frame dimensions. It fails with ErrUnsupportedStreamType for a non-video
// codec, ErrConfigNotSupported if the decoder rejects the configuration,
// and ErrAlreadyConfigured if called while already configured, matching
// Scenario S7 exactly.
func (f *FrontEnd) Configure(cfg DecoderConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if cfg.Codec != StreamTypeH264Video && cfg.Codec != StreamTypeMPEG2Video {
		return ErrUnsupportedStreamType
	}
	if f.state == StateConfigured {
		return ErrAlreadyConfigured
	}
	if f.state == StateClosed {
		return ErrClosed
	}
	if !f.dec.IsConfigSupported(cfg) {
		return ErrConfigNotSupported
	}
	if err := f.dec.Configure(cfg); err != nil {
		return err
	}

	f.codec = cfg.Codec
	if cfg.Codec == StreamTypeH264Video {
		f.pesCodec = pes.CodecH264
	} else {
		f.pesCodec = pes.CodecMPEG2Video
	}
	f.state = StateConfigured
	return nil
}

// Write feeds one transport-stream payload chunk for the configured
// stream's PID. start indicates payload-unit-start (a new PES packet may
// begin here). Completed PES packets are detected, keyframe-tagged, and
// handed to the decoder; decoded frames are reported via onFrame and via
// Prometheus metrics.
func (f *FrontEnd) Write(chunk []byte, start bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateConfigured {
		return ErrClosed
	}
	pkt, err := f.asm.Write(chunk, start)
	if err != nil {
		f.dropLocked()
		return nil
	}
	if pkt == nil {
		return nil
	}
	return f.decodeLocked(pkt)
}

// Flush finalizes any buffered PES packet and decodes it, e.g. at end of
// stream.
func (f *FrontEnd) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateConfigured {
		return nil
	}
	pkt, err := f.asm.Flush()
	if err != nil || pkt == nil {
		return f.dec.Flush()
	}
	if err := f.decodeLocked(pkt); err != nil {
		return err
	}
	return f.dec.Flush()
}

func (f *FrontEnd) decodeLocked(pkt *pes.Packet) error {
	keyframe := pes.IsKeyframe(pkt.Payload, f.pesCodec)
	start := time.Now()
	err := f.dec.Decode(pkt.Payload, keyframe)
	elapsed := time.Since(start)

	if err != nil {
		f.dropLocked()
		return err
	}
	if f.metrics != nil {
		f.metrics.framesDecoded.WithLabelValues(f.stream).Inc()
		f.metrics.decodeSeconds.WithLabelValues(f.stream).Observe(elapsed.Seconds())
	}
	if f.onFrame != nil {
		f.onFrame(Decoded{Data: pkt.Payload, PTS: pkt.Header.PTS, Keyframe: keyframe, DecodeDur: elapsed})
	}
	return nil
}

func (f *FrontEnd) dropLocked() {
	if f.metrics != nil {
		f.metrics.framesDropped.WithLabelValues(f.stream).Inc()
	}
}

// Reset returns the decoder to the unconfigured state without closing it,
// discarding any buffered PES data.
func (f *FrontEnd) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == StateClosed {
		return ErrClosed
	}
	if err := f.dec.Reset(); err != nil {
		return err
	}
	f.asm = pes.NewAssembler()
	f.state = StateUnconfigured
	return nil
}

// Close releases the decoder permanently; no further calls are valid.
func (f *FrontEnd) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == StateClosed {
		return nil
	}
	f.state = StateClosed
	return f.dec.Close()
}

// State reports the current decoder lifecycle state.
func (f *FrontEnd) State() DecoderState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}
