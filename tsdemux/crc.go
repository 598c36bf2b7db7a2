/*
NAME
  crc.go

DESCRIPTION
  crc.go computes the MPEG-2 variant of CRC32 (reflected IEEE polynomial)
  over a PSI/PSIP section, generalizing
  ausocean/av/container/mts/psi/crc.go's encode-direction AddCRC/UpdateCrc
  helpers to the decode direction: sections carry a trailing CRC32, which
  these helpers can extract and recompute. The parser neither records nor
  validates it.

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

package tsdemux

import (
	"encoding/binary"
	"hash/crc32"
	"math/bits"
	"sync"
)

var mpeg2CRCTable = sync.OnceValue(func() *crc32.Table {
	return makeReflectedTable(bits.Reverse32(crc32.IEEE))
})

func makeReflectedTable(poly uint32) *crc32.Table {
	var t crc32.Table
	for i := range t {
		crc := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if crc&0x80000000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return &t
}

// computeSectionCRC recomputes the MPEG-2 CRC32 over b (excluding any
// trailing 4-byte CRC field already present). The parser does not call it
// and never rejects a section on CRC mismatch.
func computeSectionCRC(b []byte) uint32 {
	crc := uint32(0xffffffff)
	tab := mpeg2CRCTable()
	for _, v := range b {
		crc = tab[byte(crc>>24)^v] ^ (crc << 8)
	}
	return crc
}

// sectionCRC extracts the trailing 4-byte CRC field of a section, per
// §3/§4.5's length-prefixed, bounds-checked section layout. Returns false
// when b is too short to carry a CRC.
func sectionCRC(b []byte) (uint32, bool) {
	if len(b) < 4 {
		return 0, false
	}
	return binary.BigEndian.Uint32(b[len(b)-4:]), true
}
