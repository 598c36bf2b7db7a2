/*
NAME
  decoder.go

DESCRIPTION
  decoder.go defines the external video decoder contract: states
  {unconfigured, configured, closed} and the capability set configure/
  decode/flush/reset/close/isConfigSupported, per §4.6. videofront.FrontEnd
  owns one Decoder and enforces the lifecycle transitions against it.

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

// Package videofront assembles PES fragments, detects keyframes, and feeds
// encoded chunks to an external video decoder with a strict lifecycle.
package videofront

import (
	"time"

	"github.com/pkg/errors"
)

// StreamType enumerates the codecs the front-end can configure a decoder
// for, collapsing the source's duck-typed stream type string into an
// explicit sum type, per §9.
type StreamType int

const (
	StreamTypeUnknown StreamType = iota
	StreamTypeH264Video
	StreamTypeMPEG2Video
)

func (s StreamType) String() string {
	switch s {
	case StreamTypeH264Video:
		return "h264"
	case StreamTypeMPEG2Video:
		return "mpeg2video"
	default:
		return "unknown"
	}
}

// DecoderState is the decoder lifecycle state, per §4.6.
type DecoderState int

const (
	StateUnconfigured DecoderState = iota
	StateConfigured
	StateClosed
)

// DecoderConfig is passed to Decoder.Configure.
type DecoderConfig struct {
	Codec  StreamType
	Width  int
	Height int
}

// Decoded is one decoded frame, opaque to this package.
type Decoded struct {
	Data      []byte
	PTS       uint64
	Keyframe  bool
	DecodeDur time.Duration
}

// Decoder is the external video decoder capability set, per §4.6. An
// implementation decodes encoded elementary-stream chunks into frames
// delivered via the caller-supplied callback passed to FrontEnd.
type Decoder interface {
	Configure(cfg DecoderConfig) error
	Decode(chunk []byte, keyframe bool) error
	Flush() error
	Reset() error
	Close() error
	IsConfigSupported(cfg DecoderConfig) bool
}

var (
	// ErrUnsupportedStreamType is returned by Configure for a non-video
	// stream type.
	ErrUnsupportedStreamType = errors.New("videofront: unsupported stream type")

	// ErrConfigNotSupported is returned when the decoder's capability
	// check rejects a configuration.
	ErrConfigNotSupported = errors.New("videofront: configuration not supported")

	// ErrAlreadyConfigured is returned by Configure when called twice
	// without an intervening reset/close.
	ErrAlreadyConfigured = errors.New("videofront: cannot initialize decoder in configured state")

	// ErrClosed indicates an operation attempted after Close.
	ErrClosed = errors.New("videofront: decoder is closed")
)
