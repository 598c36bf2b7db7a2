/*
NAME
  pmt.go

DESCRIPTION
  pmt.go parses Program Map Table sections, grounding the bit layout on
  ausocean/av/container/mts/psi.PMT and StreamSpecificData, generalized to
  the decode direction with bounds-checked descriptor parsing per §4.5.
*/

package tsdemux

// Descriptor is one length-prefixed (tag, data) descriptor.
type Descriptor struct {
	Tag  uint8
	Data []byte
}

// ElementaryStream is one entry in a PMT's stream loop.
type ElementaryStream struct {
	StreamType  uint8
	PID         uint16
	Descriptors []Descriptor
}

// PMT is a parsed Program Map Table.
type PMT struct {
	ProgramNumber      uint16
	PCRPID             uint16
	ProgramDescriptors []Descriptor
	Streams            []ElementaryStream
}

// parseDescriptors reads length-prefixed descriptors from b until exhausted.
// Each malformed trailing descriptor (insufficient bytes for its declared
// length) is dropped rather than causing a parse failure.
func parseDescriptors(b []byte) []Descriptor {
	var out []Descriptor
	cursor := 0
	for cursor+2 <= len(b) {
		tag := b[cursor]
		length := int(b[cursor+1])
		cursor += 2
		if cursor+length > len(b) {
			break
		}
		out = append(out, Descriptor{Tag: tag, Data: b[cursor : cursor+length]})
		cursor += length
	}
	return out
}

// parsePMT parses a PMT section (pointer byte already stripped) of the form
// table_id(8) section_syntax... section_length(12) program_number(16)
// reserved version current_next section_number last_section_number
// reserved(3) PCR_PID(13) reserved(4) program_info_length(12)
// {descriptors} { stream_type(8) reserved(3) elementary_PID(13) reserved(4)
// ES_info_length(12) {descriptors} }* CRC32(32).
func parsePMT(section []byte) (*PMT, bool) {
	if len(section) < 12 {
		return nil, false
	}
	sectionLength := int(section[1]&0x0F)<<8 | int(section[2])
	end := 3 + sectionLength
	if end > len(section) {
		end = len(section)
	}
	if end < 12 {
		return nil, false
	}

	pmt := &PMT{
		ProgramNumber: uint16(section[3])<<8 | uint16(section[4]),
		PCRPID:        uint16(section[8]&0x1F)<<8 | uint16(section[9]),
	}

	programInfoLength := int(section[10]&0x0F)<<8 | int(section[11])
	cursor := 12
	progDescEnd := cursor + programInfoLength
	if progDescEnd > end-4 {
		progDescEnd = end - 4
	}
	if progDescEnd > len(section) {
		progDescEnd = len(section)
	}
	if progDescEnd >= cursor {
		pmt.ProgramDescriptors = parseDescriptors(section[cursor:progDescEnd])
	}
	cursor = progDescEnd

	loopEnd := end - 4
	for cursor+5 <= loopEnd && cursor+5 <= len(section) {
		streamType := section[cursor]
		pid := uint16(section[cursor+1]&0x1F)<<8 | uint16(section[cursor+2])
		esInfoLength := int(section[cursor+3]&0x0F)<<8 | int(section[cursor+4])
		cursor += 5

		esEnd := cursor + esInfoLength
		if esEnd > loopEnd {
			esEnd = loopEnd
		}
		if esEnd > len(section) {
			esEnd = len(section)
		}

		var descs []Descriptor
		if esEnd >= cursor {
			descs = parseDescriptors(section[cursor:esEnd])
		}
		pmt.Streams = append(pmt.Streams, ElementaryStream{
			StreamType:  streamType,
			PID:         pid,
			Descriptors: descs,
		})
		cursor = esEnd
	}
	return pmt, true
}

// Video and audio stream_type values recognized for getVideoPIDs/getAudioPIDs.
const (
	StreamTypeMPEG2Video = 0x02
	StreamTypeH264       = 0x1B
	StreamTypeMPEG1Audio = 0x03
	StreamTypeMPEG2Audio = 0x04
	StreamTypeAC3Audio   = 0x81
	StreamTypeAACAudio   = 0x0F
)

func isVideoStreamType(t uint8) bool {
	switch t {
	case StreamTypeMPEG2Video, StreamTypeH264:
		return true
	default:
		return false
	}
}

func isAudioStreamType(t uint8) bool {
	switch t {
	case StreamTypeMPEG1Audio, StreamTypeMPEG2Audio, StreamTypeAC3Audio, StreamTypeAACAudio:
		return true
	default:
		return false
	}
}
