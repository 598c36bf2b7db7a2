package videofront

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// mockDecoder is a test-only Decoder that records calls and can be told to
// reject a configuration.
type mockDecoder struct {
	supported    bool
	configured   bool
	closed       bool
	decodedLen   int
	lastKeyframe bool
	configureErr error
}

func (m *mockDecoder) Configure(cfg DecoderConfig) error {
	if m.configureErr != nil {
		return m.configureErr
	}
	m.configured = true
	return nil
}

func (m *mockDecoder) Decode(chunk []byte, keyframe bool) error {
	m.decodedLen += len(chunk)
	m.lastKeyframe = keyframe
	return nil
}

func (m *mockDecoder) Flush() error { return nil }

func (m *mockDecoder) Reset() error {
	m.configured = false
	return nil
}

func (m *mockDecoder) Close() error {
	m.closed = true
	return nil
}

func (m *mockDecoder) IsConfigSupported(cfg DecoderConfig) bool { return m.supported }

func TestFrontEndConfigureRejectsNonVideo(t *testing.T) {
	dec := &mockDecoder{supported: true}
	fe := NewFrontEnd(dec, "test", nil, nil)

	err := fe.Configure(DecoderConfig{Codec: StreamTypeUnknown})
	if err != ErrUnsupportedStreamType {
		t.Fatalf("expected ErrUnsupportedStreamType, got %v", err)
	}
}

func TestFrontEndConfigureRejectsUnsupportedCapability(t *testing.T) {
	dec := &mockDecoder{supported: false}
	fe := NewFrontEnd(dec, "test", nil, nil)

	err := fe.Configure(DecoderConfig{Codec: StreamTypeH264Video, Width: 1920, Height: 1080})
	if err != ErrConfigNotSupported {
		t.Fatalf("expected ErrConfigNotSupported, got %v", err)
	}
}

// TestFrontEndDoubleConfigureFails grounds Scenario S7: initializing an
// already-configured decoder fails with the exact lifecycle error.
func TestFrontEndDoubleConfigureFails(t *testing.T) {
	dec := &mockDecoder{supported: true}
	fe := NewFrontEnd(dec, "test", nil, nil)

	if err := fe.Configure(DecoderConfig{Codec: StreamTypeH264Video, Width: 640, Height: 480}); err != nil {
		t.Fatalf("unexpected error on first configure: %v", err)
	}
	err := fe.Configure(DecoderConfig{Codec: StreamTypeH264Video, Width: 640, Height: 480})
	if err != ErrAlreadyConfigured {
		t.Fatalf("expected ErrAlreadyConfigured, got %v", err)
	}
}

func TestFrontEndResetAllowsReconfigure(t *testing.T) {
	dec := &mockDecoder{supported: true}
	fe := NewFrontEnd(dec, "test", nil, nil)

	if err := fe.Configure(DecoderConfig{Codec: StreamTypeH264Video}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := fe.Reset(); err != nil {
		t.Fatalf("unexpected reset error: %v", err)
	}
	if fe.State() != StateUnconfigured {
		t.Fatalf("expected unconfigured state after reset, got %v", fe.State())
	}
	if err := fe.Configure(DecoderConfig{Codec: StreamTypeMPEG2Video}); err != nil {
		t.Fatalf("expected reconfigure to succeed, got %v", err)
	}
}

func TestFrontEndWriteAfterCloseFails(t *testing.T) {
	dec := &mockDecoder{supported: true}
	fe := NewFrontEnd(dec, "test", nil, nil)
	if err := fe.Configure(DecoderConfig{Codec: StreamTypeH264Video}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := fe.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if !dec.closed {
		t.Fatal("expected underlying decoder to be closed")
	}
	if err := fe.Write([]byte{0x00, 0x00, 0x01, 0xE0, 0, 0, 0, 0, 0}, true); err != ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

// TestFrontEndDecodesKeyframe drives two PES packets (an IDR, detected on
// completion of the first when the second one's start code arrives) through
// a configured FrontEnd and checks keyframe tagging and metrics counters.
func TestFrontEndDecodesKeyframe(t *testing.T) {
	dec := &mockDecoder{supported: true}
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	var frames []Decoded
	fe := NewFrontEnd(dec, "pid-0101", m, func(d Decoded) { frames = append(frames, d) })

	if err := fe.Configure(DecoderConfig{Codec: StreamTypeH264Video, Width: 1280, Height: 720}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	header := []byte{0x00, 0x00, 0x01, 0xE0, 0x00, 0x00, 0x00, 0x00, 0x00}
	idrPayload := []byte{0x00, 0x00, 0x00, 0x01, 0x65, 0xAB, 0xCD}

	if err := fe.Write(header, true); err != nil {
		t.Fatalf("unexpected error buffering header: %v", err)
	}
	if err := fe.Write(idrPayload, false); err != nil {
		t.Fatalf("unexpected error buffering payload: %v", err)
	}
	// Next packet's start code triggers finalization and decode of the first.
	if err := fe.Write(header, true); err != nil {
		t.Fatalf("unexpected error on next start: %v", err)
	}

	if len(frames) != 1 {
		t.Fatalf("expected 1 decoded frame, got %d", len(frames))
	}
	if !frames[0].Keyframe {
		t.Error("expected frame to be tagged as keyframe")
	}
	if !dec.lastKeyframe {
		t.Error("expected decoder to receive keyframe flag")
	}

	count := testutil.ToFloat64(m.framesDecoded.WithLabelValues("pid-0101"))
	if count != 1 {
		t.Errorf("expected frames_decoded_total=1, got %v", count)
	}
}
