package channelizer

import (
	"math"
	"testing"
)

func makeTone(n int, freq, fs float64) (i, q []float32) {
	i = make([]float32, n)
	q = make([]float32, n)
	for k := 0; k < n; k++ {
		phase := 2 * math.Pi * freq * float64(k) / fs
		i[k] = float32(math.Cos(phase))
		q[k] = float32(math.Sin(phase))
	}
	return i, q
}

func TestChannelizeOutOfRangeSkipped(t *testing.T) {
	const fs = 2_000_000.0
	i, q := makeTone(4096, 0, fs)
	reqs := []Request{
		{FrequencyHz: 100_000_000}, // fc = 100e6, offset 0: in range.
		{FrequencyHz: 103_000_000}, // offset 3 MHz > fs/2: out of range.
	}
	out, err := Channelize(i, q, fs, 100_000_000, 200_000, reqs, Config{UsePFB: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 in-range channel, got %d", len(out))
	}
	if out[0].FrequencyHz != 100_000_000 {
		t.Errorf("unexpected channel frequency: %v", out[0].FrequencyHz)
	}
}

func TestChannelizeDecimationRate(t *testing.T) {
	const fs = 2_000_000.0
	const cbw = 200_000.0
	i, q := makeTone(8192, 0, fs)
	out, err := Channelize(i, q, fs, 100_000_000, cbw, []Request{{FrequencyHz: 100_000_000}}, Config{UsePFB: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 channel, got %d", len(out))
	}
	wantM := int(math.Round(fs / cbw))
	if out[0].FsOut != fs/float64(wantM) {
		t.Errorf("expected FsOut %v, got %v", fs/float64(wantM), out[0].FsOut)
	}
	wantLen := (len(i) + wantM - 1) / wantM // Decimate keeps samples 0, M, 2M, ...
	if len(out[0].I) != wantLen || len(out[0].Q) != wantLen {
		t.Errorf("expected decimated length %d, got I=%d Q=%d", wantLen, len(out[0].I), len(out[0].Q))
	}
}

func TestChannelizeBandwidthNearFs(t *testing.T) {
	const fs = 2_000_000.0
	i, q := makeTone(4096, 0, fs)
	var warned bool
	logger := &recordingLogger{onWarning: func() { warned = true }}
	// A bandwidth just under fs passes Channelize's own check and collapses m
	// to 1. The prototype cutoff (fs-1)/2 is still below fs/2, so the design
	// succeeds and the PFB path handles the request without falling back to
	// the windowed-DFT path.
	_, err := Channelize(i, q, fs, 100_000_000, fs-1, []Request{{FrequencyHz: 100_000_000}}, Config{UsePFB: true, Log: logger})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if warned {
		t.Error("expected the PFB path to succeed without a fallback warning")
	}
}

func TestChannelizeLengthMismatch(t *testing.T) {
	_, err := Channelize([]float32{1}, []float32{1, 2}, 1000, 0, 100, nil, Config{})
	if err == nil {
		t.Fatal("expected error for mismatched lengths")
	}
}

type recordingLogger struct {
	onWarning func()
}

func (recordingLogger) Debug(string, ...interface{}) {}
func (r recordingLogger) Warning(msg string, params ...interface{}) {
	if r.onWarning != nil {
		r.onWarning()
	}
}
func (recordingLogger) Error(string, ...interface{}) {}
