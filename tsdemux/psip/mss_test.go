package psip

import "testing"

func TestParseMSSAndDecodeUTF16(t *testing.T) {
	// One language block "eng", one segment, compression 0, mode 0 (UTF-16BE),
	// text "Hi".
	text := []byte{0x00, 'H', 0x00, 'i'}
	b := []byte{0x01, 'e', 'n', 'g', 0x01, 0x00, 0x00, byte(len(text))}
	b = append(b, text...)

	mss := ParseMSS(b)
	if len(mss.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(mss.Blocks))
	}
	got := mss.Decode("eng")
	if got != "Hi" {
		t.Errorf("expected %q, got %q", "Hi", got)
	}
}

func TestDecodeFallsBackToFirstBlock(t *testing.T) {
	text := []byte("hola")
	b := []byte{0x01, 's', 'p', 'a', 0x01, 0x00, 0x3F, byte(len(text))}
	b = append(b, text...)

	mss := ParseMSS(b)
	got := mss.Decode("eng") // not present; falls back to first (only) block.
	if got != "hola" {
		t.Errorf("expected fallback decode %q, got %q", "hola", got)
	}
}

func TestDecodeHuffmanReturnsEmpty(t *testing.T) {
	b := []byte{0x01, 'e', 'n', 'g', 0x01, 0x01, 0x00, 0x02, 0xAB, 0xCD}
	mss := ParseMSS(b)
	if got := mss.Decode("eng"); got != "" {
		t.Errorf("expected empty string for Huffman compression, got %q", got)
	}
}

func TestDecodeHuffmanWarnsOnce(t *testing.T) {
	ResetHuffmanWarningForTest()
	var warnings []string
	SetHuffmanWarningLogger(func(msg string) { warnings = append(warnings, msg) })
	defer SetHuffmanWarningLogger(nil)

	b := []byte{0x01, 'e', 'n', 'g', 0x01, 0x01, 0x00, 0x02, 0xAB, 0xCD}
	mss := ParseMSS(b)
	mss.Decode("eng")
	mss.Decode("eng")

	if len(warnings) != 1 {
		t.Fatalf("expected exactly 1 warning, got %d: %v", len(warnings), warnings)
	}
}

func TestGPSToUnixMs(t *testing.T) {
	got := GPSToUnixMs(0)
	want := int64(315964800000)
	if got != want {
		t.Errorf("expected %d, got %d", want, got)
	}
}
