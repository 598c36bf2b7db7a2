/*
NAME
  mss.go

DESCRIPTION
  mss.go decodes the ATSC MultipleStringStructure used by VCT short names,
  EIT titles, and ETT extended text, grounding its versioned,
  map-like-selection style on
  ausocean/av/container/mts/meta.Data's header/body decode pattern
  generalized from a custom metadata blob to ATSC's language-keyed text
  segments (§4.7).
*/

// Package psip decodes ATSC PSIP tables (MGT, VCT, EIT, ETT) and their
// shared MultipleStringStructure text encoding.
package psip

import (
	"sync"
	"unicode/utf16"
)

// huffmanWarningLog receives a one-time-per-process notice the first time a
// Huffman-compressed segment is encountered and dropped, mirroring the
// dsp package's one-warning-per-variant accelerator degeneracy latch, per
// spec.md §9. nil by default.
var huffmanWarningLog func(msg string)

var (
	huffmanWarnMu   sync.Mutex
	huffmanWarnSeen bool
)

// SetHuffmanWarningLogger installs a callback invoked at most once per
// process (until reset) when a Huffman-compressed MSS segment is dropped.
func SetHuffmanWarningLogger(f func(msg string)) {
	huffmanWarnMu.Lock()
	defer huffmanWarnMu.Unlock()
	huffmanWarningLog = f
}

// ResetHuffmanWarningForTest clears the one-time Huffman warning latch.
// Exposed for tests, per spec.md §9.
func ResetHuffmanWarningForTest() {
	huffmanWarnMu.Lock()
	defer huffmanWarnMu.Unlock()
	huffmanWarnSeen = false
}

func warnHuffmanOnce() {
	huffmanWarnMu.Lock()
	defer huffmanWarnMu.Unlock()
	if huffmanWarnSeen {
		return
	}
	huffmanWarnSeen = true
	if huffmanWarningLog != nil {
		huffmanWarningLog("Huffman-compressed PSIP text segment dropped: decoding not implemented")
	}
}

// Segment is one compressed/encoded text segment within a language block.
type Segment struct {
	CompressionType uint8
	Mode            uint8
	Bytes           []byte
}

// LanguageBlock is one ISO-639 language's ordered list of segments.
type LanguageBlock struct {
	Language string // 3-char ISO 639 code.
	Segments []Segment
}

// MultipleStringStructure is an ordered list of language blocks.
type MultipleStringStructure struct {
	Blocks []LanguageBlock
}

// ParseMSS parses a MultipleStringStructure from b:
// number_strings(8) { ISO_639_language_code(24) number_segments(8)
// { compression_type(8) mode(8) number_bytes(8) compressed_string(n) }* }*.
// Malformed trailing data is dropped rather than causing a parse failure.
func ParseMSS(b []byte) MultipleStringStructure {
	var mss MultipleStringStructure
	if len(b) < 1 {
		return mss
	}
	numStrings := int(b[0])
	cursor := 1

	for s := 0; s < numStrings; s++ {
		if cursor+4 > len(b) {
			break
		}
		lang := string(b[cursor : cursor+3])
		numSegments := int(b[cursor+3])
		cursor += 4

		block := LanguageBlock{Language: lang}
		for seg := 0; seg < numSegments; seg++ {
			if cursor+3 > len(b) {
				break
			}
			compression := b[cursor]
			mode := b[cursor+1]
			numBytes := int(b[cursor+2])
			cursor += 3
			if cursor+numBytes > len(b) {
				break
			}
			block.Segments = append(block.Segments, Segment{
				CompressionType: compression,
				Mode:            mode,
				Bytes:           b[cursor : cursor+numBytes],
			})
			cursor += numBytes
		}
		mss.Blocks = append(mss.Blocks, block)
	}
	return mss
}

// Decode selects the requested language's text if present, else the first
// block, and decodes its segments: compression 0x00 is passthrough,
// 0x01/0x02 (Huffman) are recognized but return empty, mode 0x00 is
// UTF-16BE, mode 0x3F is UTF-8, other modes return empty.
func (m MultipleStringStructure) Decode(language string) string {
	if len(m.Blocks) == 0 {
		return ""
	}
	block := m.Blocks[0]
	for _, b := range m.Blocks {
		if b.Language == language {
			block = b
			break
		}
	}

	var out string
	for _, seg := range block.Segments {
		out += decodeSegment(seg)
	}
	return out
}

func decodeSegment(seg Segment) string {
	if seg.CompressionType != 0x00 {
		warnHuffmanOnce()
		return "" // Huffman compression recognized but not implemented.
	}
	switch seg.Mode {
	case 0x00:
		return decodeUTF16BE(seg.Bytes)
	case 0x3F:
		return string(seg.Bytes)
	default:
		return ""
	}
}

func decodeUTF16BE(b []byte) string {
	n := len(b) / 2
	units := make([]uint16, 0, n)
	for i := 0; i < n; i++ {
		units = append(units, uint16(b[2*i])<<8|uint16(b[2*i+1]))
	}
	return string(utf16.Decode(units))
}
