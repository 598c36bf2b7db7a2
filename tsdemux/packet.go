/*
NAME
  packet.go

DESCRIPTION
  packet.go parses one 188-byte MPEG-2 transport stream packet, generalizing
  ausocean/av/container/mts.Packet's bit-layout to the decode direction: a
  Packet here is always derived by parsing wire bytes, never assembled for
  encoding.

     188 bytes
    +-------------------------------------------------------------+
    | sync(8) | TEI(1) PUSI(1) prio(1) PID(13) | SC(2) AFC(2) CC(4)| ...
    +-------------------------------------------------------------+
    byte 0      byte 1-2                          byte 3            byte 4..

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

// Package tsdemux parses MPEG-2 Transport Stream byte streams into PAT/PMT
// and ATSC PSIP tables, tracking continuity and error conditions.
package tsdemux

import "github.com/pkg/errors"

// PacketSize is the fixed length of one transport stream packet.
const PacketSize = 188

// SyncByte is the required first byte of every transport stream packet.
const SyncByte = 0x47

// Reserved PIDs, per §6.
const (
	PATPID  = 0x0000
	PSIPPID = 0x1FFB
	NullPID = 0x1FFF
)

// ErrShortPacket is returned when fewer than PacketSize bytes are available.
var ErrShortPacket = errors.New("tsdemux: packet shorter than 188 bytes")

// ErrBadSync is returned when the first byte is not SyncByte.
var ErrBadSync = errors.New("tsdemux: first byte is not the sync byte")

// Packet is one parsed transport stream packet.
type Packet struct {
	TEI                    bool
	PUSI                   bool
	Priority               bool
	PID                    uint16
	ScramblingControl      uint8
	AdaptationFieldControl uint8
	ContinuityCounter      uint8
	HasAdaptationField     bool
	HasPayload             bool
	PCR                    uint64 // 42-bit value (33-bit base*300 + 9-bit extension); valid only if PCRPresent.
	PCRPresent             bool
	Payload                []byte // payload bytes, or adaptation-field-trimmed remainder.
}

// ParsePacket parses exactly PacketSize bytes of b as one transport stream
// packet. Per spec.md §8's universal property, any 188-byte block whose
// first byte is SyncByte yields a non-nil record and a nil error; any
// other first byte yields (nil, ErrBadSync).
func ParsePacket(b []byte) (*Packet, error) {
	if len(b) < PacketSize {
		return nil, ErrShortPacket
	}
	b = b[:PacketSize]
	if b[0] != SyncByte {
		return nil, ErrBadSync
	}

	p := &Packet{
		TEI:                    b[1]&0x80 != 0,
		PUSI:                   b[1]&0x40 != 0,
		Priority:               b[1]&0x20 != 0,
		PID:                    uint16(b[1]&0x1F)<<8 | uint16(b[2]),
		ScramblingControl:      (b[3] >> 6) & 0x03,
		AdaptationFieldControl: (b[3] >> 4) & 0x03,
		ContinuityCounter:      b[3] & 0x0F,
	}
	p.HasAdaptationField = p.AdaptationFieldControl == 0x02 || p.AdaptationFieldControl == 0x03
	p.HasPayload = p.AdaptationFieldControl == 0x01 || p.AdaptationFieldControl == 0x03

	cursor := 4
	if p.HasAdaptationField {
		if cursor >= len(b) {
			return p, nil
		}
		afLen := int(b[cursor])
		cursor++
		afEnd := cursor + afLen
		if afLen > 0 && afEnd <= len(b) {
			pcrFlag := b[cursor]&0x10 != 0
			if pcrFlag && cursor+7 <= len(b) {
				base := uint64(b[cursor+1])<<25 | uint64(b[cursor+2])<<17 | uint64(b[cursor+3])<<9 | uint64(b[cursor+4])<<1 | uint64(b[cursor+5]>>7)
				ext := uint64(b[cursor+5]&0x01)<<8 | uint64(b[cursor+6])
				p.PCR = base*300 + ext
				p.PCRPresent = true
			}
		}
		if afEnd > len(b) {
			afEnd = len(b)
		}
		cursor = afEnd
	}

	if p.HasPayload && cursor < len(b) {
		p.Payload = b[cursor:]
	}
	return p, nil
}
