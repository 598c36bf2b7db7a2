/*
NAME
  mgt.go

DESCRIPTION
  mgt.go parses the ATSC Master Guide Table: a list of (table_type, PID,
  version, number_bytes, descriptors) entries locating the other PSIP
  tables.
*/

package psip

// MGTEntry is one table-location entry.
type MGTEntry struct {
	TableType        uint16
	PID              uint16
	VersionNumber    uint8
	NumberBytes      uint32
	TableTypeVersion uint8
}

// MGT is a parsed Master Guide Table.
type MGT struct {
	Entries []MGTEntry
}

// ParseMGT parses an MGT section (pointer byte already stripped):
// table_id(8) ... section_length(12) ... protocol_version(8)
// tables_defined(16) { table_type(16) reserved(3) PID(13) reserved(3)
// version_number(5) number_bytes(32) reserved(4) table_type_descriptors_length(12)
// {descriptors} }* reserved(4) descriptors_length(12) {descriptors} CRC32(32).
func ParseMGT(section []byte) (*MGT, bool) {
	if len(section) < 10 {
		return nil, false
	}
	sectionLength := int(section[1]&0x0F)<<8 | int(section[2])
	end := 3 + sectionLength
	if end > len(section) {
		end = len(section)
	}

	// bytes 3-4: table_id_extension(16); byte 5: reserved(2) version(5)
	// current_next(1); bytes 6-7: section_number(8) last_section_number(8);
	// byte 8: protocol_version(8); bytes 9-10: tables_defined(16).
	if len(section) < 11 {
		return nil, false
	}
	tablesDefined := int(section[9])<<8 | int(section[10])

	mgt := &MGT{}
	cursor := 11
	for i := 0; i < tablesDefined; i++ {
		if cursor+11 > len(section) {
			break
		}
		tableType := uint16(section[cursor])<<8 | uint16(section[cursor+1])
		pid := uint16(section[cursor+2]&0x1F)<<8 | uint16(section[cursor+3])
		version := section[cursor+4] & 0x1F
		numberBytes := uint32(section[cursor+5])<<24 | uint32(section[cursor+6])<<16 |
			uint32(section[cursor+7])<<8 | uint32(section[cursor+8])
		descLength := int(section[cursor+9]&0x0F)<<8 | int(section[cursor+10])
		cursor += 11

		descEnd := cursor + descLength
		if descEnd > end-4 {
			descEnd = end - 4
		}
		if descEnd > len(section) {
			descEnd = len(section)
		}
		cursor = descEnd

		mgt.Entries = append(mgt.Entries, MGTEntry{
			TableType:     tableType,
			PID:           pid,
			VersionNumber: version,
			NumberBytes:   numberBytes,
		})
	}
	return mgt, true
}
