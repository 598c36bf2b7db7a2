/*
NAME
  pat.go

DESCRIPTION
  pat.go parses the Program Association Table, grounding its bit layout on
  ausocean/av/container/mts/psi.PAT's encode-direction struct and
  mpegts.go's FindPat, generalized to the decode direction with the atomic
  replace semantics §4.5 requires: the PMT_PID->program map is rebuilt from
  scratch on every accepted PAT, program 0 excluded.
*/

package tsdemux

// PAT is a parsed Program Association Table.
type PAT struct {
	TransportStreamID uint16
	Programs          map[uint16]uint16 // program_number -> PMT PID, program 0 excluded.
}

// parsePAT parses a PAT section (pointer byte already stripped) of the form
// table_id(8) section_syntax(1) reserved... section_length(12)
// transport_stream_id(16) reserved(2) version(5) current_next(1)
// section_number(8) last_section_number(8) { program_number(16)
// reserved(3) PID(13) }* CRC32(32).
func parsePAT(section []byte) (*PAT, bool) {
	if len(section) < 8 {
		return nil, false
	}
	sectionLength := int(section[1]&0x0F)<<8 | int(section[2])
	end := 3 + sectionLength
	if end > len(section) {
		end = len(section)
	}
	if end < 8 {
		return nil, false
	}

	pat := &PAT{
		TransportStreamID: uint16(section[3])<<8 | uint16(section[4]),
		Programs:          make(map[uint16]uint16),
	}

	// Program loop runs from byte 8 to end-4 (CRC32).
	cursor := 8
	loopEnd := end - 4
	for cursor+4 <= loopEnd && cursor+4 <= len(section) {
		programNumber := uint16(section[cursor])<<8 | uint16(section[cursor+1])
		pid := uint16(section[cursor+2]&0x1F)<<8 | uint16(section[cursor+3])
		cursor += 4
		if programNumber == 0 {
			continue // network PID, excluded from the user-visible map.
		}
		pat.Programs[programNumber] = pid
	}
	return pat, true
}
