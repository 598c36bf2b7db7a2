/*
NAME
  eit.go

DESCRIPTION
  eit.go parses ATSC Event Information Table sections: events carry a GPS
  start time, a 20-bit duration, a multilingual title, and per-event
  descriptors, keyed by source_id per §4.5/§4.7.
*/

package psip

// EITEvent is one scheduled event.
type EITEvent struct {
	EventID     uint16
	StartTime   uint32 // GPS seconds since 1980-01-06T00:00:00Z.
	DurationSec uint32 // 20-bit value.
	Title       MultipleStringStructure
}

// EIT is a parsed Event Information Table for one source_id.
type EIT struct {
	SourceID uint16
	Events   []EITEvent
}

// ParseEIT parses an EIT section (pointer byte already stripped). Layout:
// table_id(8) ... section_length(12) source_id(16) ... protocol_version(8)
// num_events_in_section(8) { event_id(14, top 2 bits reserved) start_time(32)
// reserved(2) length_in_seconds(20) title_length(8) {title MSS}
// descriptors_length(12) {descriptors} }* CRC32(32).
func ParseEIT(section []byte) (*EIT, bool) {
	if len(section) < 11 {
		return nil, false
	}
	sectionLength := int(section[1]&0x0F)<<8 | int(section[2])
	end := 3 + sectionLength
	if end > len(section) {
		end = len(section)
	}

	eit := &EIT{SourceID: uint16(section[3])<<8 | uint16(section[4])}
	numEvents := int(section[9])

	cursor := 10
	for i := 0; i < numEvents; i++ {
		if cursor+10 > len(section) {
			break
		}
		eventID := uint16(section[cursor]&0x3F)<<8 | uint16(section[cursor+1])
		startTime := uint32(section[cursor+2])<<24 | uint32(section[cursor+3])<<16 |
			uint32(section[cursor+4])<<8 | uint32(section[cursor+5])
		duration := uint32(section[cursor+6]&0x0F)<<16 | uint32(section[cursor+7])<<8 | uint32(section[cursor+8])
		titleLength := int(section[cursor+9])
		cursor += 10

		titleEnd := cursor + titleLength
		if titleEnd > len(section) {
			titleEnd = len(section)
		}
		var title MultipleStringStructure
		if titleEnd > cursor {
			title = ParseMSS(section[cursor:titleEnd])
		}
		cursor = titleEnd

		if cursor+2 > len(section) {
			break
		}
		descLength := int(section[cursor]&0x0F)<<8 | int(section[cursor+1])
		cursor += 2
		descEnd := cursor + descLength
		if descEnd > end-4 {
			descEnd = end - 4
		}
		if descEnd > len(section) {
			descEnd = len(section)
		}
		cursor = descEnd

		eit.Events = append(eit.Events, EITEvent{
			EventID:     eventID,
			StartTime:   startTime,
			DurationSec: duration,
			Title:       title,
		})
	}
	return eit, true
}
