/*
NAME
  iqrec.go

DESCRIPTION
  iqrec.go implements the I/Q recording container: a metadata header
  followed by the sample array, in either JSON or a compact binary form
  selected by Format. The header/body separation and small versioned
  header mirror container/mts/meta.go's majVer/minVer byte, generalized
  from a TSV key-value blob to a typed recording header.

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

// Package iqrec reads and writes I/Q sample recordings: a metadata header
// (version, timestamp, center frequency, sample rate, sample count,
// duration, optional signal type and device name) followed by the
// interleaved I/Q sample array, per spec.md §6.
package iqrec

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/pkg/errors"
)

// Format selects the on-disk encoding of a recording.
type Format int

const (
	// FormatJSON encodes the header and samples as JSON (the default).
	FormatJSON Format = iota
	// FormatBinary encodes a fixed binary header followed by raw
	// little-endian float32 I/Q pairs.
	FormatBinary
)

// version is the container format version written into every recording.
const version = "1.0"

// binaryMagic identifies a FormatBinary recording.
var binaryMagic = [4]byte{'I', 'Q', 'R', '1'}

var (
	// ErrMissingMetadata is returned when a required header field is absent.
	ErrMissingMetadata = errors.New("iqrec: missing or malformed metadata")
	// ErrMissingSamples is returned when the sample array is absent or its
	// length does not match the declared sample count.
	ErrMissingSamples = errors.New("iqrec: missing or malformed samples")
	// ErrBadMagic is returned when a binary recording lacks the expected
	// magic prefix.
	ErrBadMagic = errors.New("iqrec: not a recognized binary recording")
)

// Header is the recording's metadata.
type Header struct {
	Version       string    `json:"version"`
	Timestamp     time.Time `json:"timestamp"`
	CenterFreqHz  float64   `json:"centerFrequencyHz"`
	SampleRateHz  float64   `json:"sampleRateHz"`
	SampleCount   int       `json:"sampleCount"`
	DurationSecs  float64   `json:"durationSeconds"`
	SignalType    string    `json:"signalType,omitempty"`
	DeviceName    string    `json:"deviceName,omitempty"`
}

// Recording is an I/Q sample recording: a header plus parallel I and Q
// sample slices of equal length.
type Recording struct {
	Header Header
	I      []float32
	Q      []float32
}

// New builds a Recording from center frequency, sample rate, and I/Q
// samples, deriving SampleCount and DurationSecs, and stamping Timestamp
// with now.
func New(centerFreqHz, sampleRateHz float64, i, q []float32, now time.Time) (*Recording, error) {
	if len(i) != len(q) {
		return nil, errors.Errorf("iqrec: I and Q lengths differ (%d vs %d)", len(i), len(q))
	}
	n := len(i)
	var duration float64
	if sampleRateHz > 0 {
		duration = float64(n) / sampleRateHz
	}
	return &Recording{
		Header: Header{
			Version:      version,
			Timestamp:    now,
			CenterFreqHz: centerFreqHz,
			SampleRateHz: sampleRateHz,
			SampleCount:  n,
			DurationSecs: duration,
		},
		I: i,
		Q: q,
	}, nil
}

// validate checks that a decoded header and samples are internally
// consistent, returning descriptive errors per spec.md §6.
func (r *Recording) validate() error {
	if r.Header.Version == "" {
		return errors.Wrap(ErrMissingMetadata, "empty version")
	}
	if r.Header.SampleRateHz <= 0 {
		return errors.Wrap(ErrMissingMetadata, "non-positive sample rate")
	}
	if len(r.I) != len(r.Q) {
		return errors.Wrapf(ErrMissingSamples, "I/Q length mismatch (%d vs %d)", len(r.I), len(r.Q))
	}
	if r.Header.SampleCount != 0 && r.Header.SampleCount != len(r.I) {
		return errors.Wrapf(ErrMissingSamples, "declared sample count %d does not match %d samples", r.Header.SampleCount, len(r.I))
	}
	return nil
}

// putFloat32 and getFloat32 round-trip a float32 through its
// little-endian 4-byte binary representation for the binary format.
func putFloat32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

func getFloat32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}
