/*
NAME
  header.go

DESCRIPTION
  header.go parses a PES packet header, grounded directly on
  tonalfitness/ivsmeta's PESHeader: byte 6 flags, byte 7 PTS/DTS flag bits,
  byte 8 header data length, and 33-bit PTS/DTS extraction carried in
  64-bit unsigned arithmetic so that values at or above 2^31 never
  overflow (the bug the source's 5-byte field packing, copied naively into
  a narrower integer, would otherwise introduce).

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

// Package pes reassembles PES (Packetized Elementary Stream) packets from
// video elementary stream payload bytes, extracting 33-bit PTS/DTS values
// in 64-bit unsigned arithmetic.
package pes

import "github.com/pkg/errors"

// StartCodePrefix is the 3-byte prefix marking the start of a PES packet.
var StartCodePrefix = [3]byte{0x00, 0x00, 0x01}

// ErrTooShort is returned when fewer bytes than the minimum PES header are
// available.
var ErrTooShort = errors.New("pes: packet shorter than minimum header")

// ErrBadStartCode is returned when the 3-byte start code prefix is absent.
var ErrBadStartCode = errors.New("pes: missing 00 00 01 start code")

// Header is a parsed PES packet header.
type Header struct {
	StreamID         uint8
	PacketLength     uint16 // 0 means unbounded (common for video).
	DataAlignment    bool
	PTSDTSIndicator  uint8 // 0b00 none, 0b10 PTS only, 0b11 PTS+DTS.
	PTS              uint64
	DTS              uint64
	HeaderDataLength uint8
	DataStartIndex   int // offset into the original buffer where ES payload begins.
}

// minHeaderLen is byte 0..8 (start code, stream id, length, flags, header
// data length) -- the fixed prefix present whenever PTS/DTS flags exist.
const minHeaderLen = 9

// ParseHeader parses a PES header from b, which must begin with the 3-byte
// start code prefix followed by the stream id byte.
func ParseHeader(b []byte) (*Header, error) {
	if len(b) < minHeaderLen {
		return nil, ErrTooShort
	}
	if b[0] != StartCodePrefix[0] || b[1] != StartCodePrefix[1] || b[2] != StartCodePrefix[2] {
		return nil, ErrBadStartCode
	}

	h := &Header{StreamID: b[3]}
	h.PacketLength = uint16(b[4])<<8 | uint16(b[5])

	if !optionalFieldsPresent(h.StreamID) {
		h.DataStartIndex = 6
		return h, nil
	}

	flags1 := b[6]
	flags2 := b[7]
	h.DataAlignment = flags1&0x04 != 0
	h.PTSDTSIndicator = (flags2 >> 6) & 0x03
	h.HeaderDataLength = b[8]

	cursor := 9
	switch h.PTSDTSIndicator {
	case 0x02: // PTS only.
		if len(b) < cursor+5 {
			return nil, ErrTooShort
		}
		h.PTS = extractTimestamp(b[cursor : cursor+5])
		cursor += 5
	case 0x03: // PTS + DTS.
		if len(b) < cursor+10 {
			return nil, ErrTooShort
		}
		h.PTS = extractTimestamp(b[cursor : cursor+5])
		h.DTS = extractTimestamp(b[cursor+5 : cursor+10])
		cursor += 10
	}

	h.DataStartIndex = 9 + int(h.HeaderDataLength)
	if h.DataStartIndex > len(b) {
		h.DataStartIndex = len(b)
	}
	return h, nil
}

// extractTimestamp decodes a 33-bit PTS/DTS value from 5 bytes per §4.6:
//
//	PTS = ((b0&0x0E)<<29) | (b1<<22) | ((b2&0xFE)<<14) | (b3<<7) | ((b4&0xFE)>>1)
//
// computed entirely in 64-bit unsigned arithmetic so no value in the valid
// 33-bit range (up to 2^33-1) is ever coerced to a signed 32-bit integer.
func extractTimestamp(b []byte) uint64 {
	return uint64(b[0]&0x0E)<<29 |
		uint64(b[1])<<22 |
		uint64(b[2]&0xFE)<<14 |
		uint64(b[3])<<7 |
		uint64(b[4]&0xFE)>>1
}

// optionalFieldsPresent reports whether the stream id carries the optional
// PES header fields (flags, PTS/DTS). Padding and most system streams
// (program_stream_map, private_stream_2, ECM, EMM, padding, etc.) do not.
func optionalFieldsPresent(streamID uint8) bool {
	switch streamID {
	case 0xBC, 0xBE, 0xBF, 0xF0, 0xF1, 0xFF, 0xF2, 0xF8:
		return false
	default:
		return true
	}
}
