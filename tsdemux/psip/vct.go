/*
NAME
  vct.go

DESCRIPTION
  vct.go parses ATSC Virtual Channel Table (TVCT/CVCT) sections. Each
  channel's short_name field is 14 bytes = 7 UTF-16BE code units, decoded
  with trailing zero code units trimmed, per §4.5.
*/

package psip

import "unicode/utf16"

// VCTChannel is one virtual channel entry.
type VCTChannel struct {
	ShortName     string
	MajorNumber   uint16
	MinorNumber   uint16
	ProgramNumber uint16
	SourceID      uint16
}

// VCT is a parsed Virtual Channel Table (TVCT 0xC8 or CVCT 0xC9).
type VCT struct {
	TableID  uint8
	Channels []VCTChannel
}

// ParseVCT parses a VCT section (pointer byte already stripped). Layout:
// table_id(8) ... section_length(12) transport_stream_id(16) ...
// protocol_version(8) num_channels_in_section(8) { short_name(7*16)
// major(10) minor(10) modulation(8) carrier_frequency(32) channel_TSID(16)
// program_number(16) ... source_id(16) ... descriptors_length(12)
// {descriptors} }* additional_descriptors_length(12) {descriptors} CRC32(32).
func ParseVCT(tableID uint8, section []byte) (*VCT, bool) {
	if len(section) < 10 {
		return nil, false
	}
	sectionLength := int(section[1]&0x0F)<<8 | int(section[2])
	end := 3 + sectionLength
	if end > len(section) {
		end = len(section)
	}
	if len(section) < 10 {
		return nil, false
	}
	numChannels := int(section[9])

	vct := &VCT{TableID: tableID}
	cursor := 10
	for i := 0; i < numChannels; i++ {
		if cursor+32 > len(section) {
			break
		}
		shortName := decodeShortName(section[cursor : cursor+14])
		major := uint16(section[cursor+14]&0x0F)<<6 | uint16(section[cursor+15]>>2)
		minor := uint16(section[cursor+15]&0x03)<<8 | uint16(section[cursor+16])
		programNumber := uint16(section[cursor+24])<<8 | uint16(section[cursor+25])
		sourceID := uint16(section[cursor+28])<<8 | uint16(section[cursor+29])
		descLength := int(section[cursor+30]&0x03)<<8 | int(section[cursor+31])
		cursor += 32

		descEnd := cursor + descLength
		if descEnd > end-4 {
			descEnd = end - 4
		}
		if descEnd > len(section) {
			descEnd = len(section)
		}
		cursor = descEnd

		vct.Channels = append(vct.Channels, VCTChannel{
			ShortName:     shortName,
			MajorNumber:   major,
			MinorNumber:   minor,
			ProgramNumber: programNumber,
			SourceID:      sourceID,
		})
	}
	return vct, true
}

// decodeShortName decodes 14 bytes as 7 UTF-16BE code units, trimming
// trailing zero code units.
func decodeShortName(b []byte) string {
	units := make([]uint16, 0, 7)
	for i := 0; i < 7 && 2*i+1 < len(b); i++ {
		u := uint16(b[2*i])<<8 | uint16(b[2*i+1])
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return string(utf16.Decode(units))
}
