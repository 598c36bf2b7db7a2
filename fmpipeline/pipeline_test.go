package fmpipeline

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
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

func TestConfigValidateDefaults(t *testing.T) {
	cfg := Config{SampleRate: 2_000_000, Bandwidth: 2_000_000}
	require.NoError(t, cfg.Validate())
	require.Equal(t, DefaultScanFFTSize, cfg.ScanFFTSize)
	require.Equal(t, DefaultChannelBandwidth, cfg.ChannelBandwidth)
}

func TestConfigValidateRequiresSampleRate(t *testing.T) {
	cfg := Config{Bandwidth: 1000}
	require.Error(t, cfg.Validate())
}

func TestPipelineAddRemoveChannel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleRate = 2_000_000
	cfg.CenterFrequency = 100_000_000
	cfg.Bandwidth = 2_000_000
	require.NoError(t, cfg.Validate())

	p := New(cfg)
	p.AddChannel(100_000_000, 0.5)
	ch, ok := p.GetChannel(100_000_000)
	require.True(t, ok)
	require.Equal(t, 0.5, ch.Strength)

	p.RemoveChannel(100_000_000)
	_, ok = p.GetChannel(100_000_000)
	require.False(t, ok)
}

func TestPipelineClearChannels(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleRate = 2_000_000
	cfg.CenterFrequency = 100_000_000
	cfg.Bandwidth = 2_000_000
	p := New(cfg)
	p.AddChannel(100_000_000, 0.5)
	p.AddChannel(100_200_000, 0.3)
	p.ClearChannels()
	require.Empty(t, p.GetChannels())
}

func TestProcessWidebandSamplesOrdering(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleRate = 2_000_000
	cfg.CenterFrequency = 100_000_000
	cfg.Bandwidth = 2_000_000
	cfg.ScanFFTSize = 4096
	cfg.ScanThresholdDb = -200
	cfg.EnableRDS = false
	require.NoError(t, cfg.Validate())

	p := New(cfg)
	fixed := time.Unix(0, 0)
	p.clock = func() time.Time { return fixed }

	i, q := makeTone(4096, 0, cfg.SampleRate)
	out, err := p.ProcessWidebandSamples(i, q)
	require.NoError(t, err)

	require.NotEmpty(t, p.GetChannels(), "expected scan to discover the tone as a channel")
	require.Contains(t, out, 100_000_000.0)
}

func TestProcessWidebandSamplesEvictsStale(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleRate = 2_000_000
	cfg.CenterFrequency = 100_000_000
	cfg.Bandwidth = 2_000_000
	cfg.StaleChannelTimeoutMs = 100
	require.NoError(t, cfg.Validate())

	p := New(cfg)
	base := time.Unix(0, 0)
	p.clock = func() time.Time { return base }
	p.AddChannel(50_000_000, 0.1) // far outside scan range, won't be refreshed by scan.

	i, q := make([]float32, 4096), make([]float32, 4096)
	_, err := p.ProcessWidebandSamples(i, q)
	require.NoError(t, err)
	require.Len(t, p.GetChannels(), 1)

	p.clock = func() time.Time { return base.Add(200 * time.Millisecond) }
	_, err = p.ProcessWidebandSamples(i, q)
	require.NoError(t, err)
	_, ok := p.GetChannel(50_000_000)
	require.False(t, ok, "expected stale channel to be evicted")
}

func TestConfigYAMLRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleRate = 2_000_000
	cfg.CenterFrequency = 100_000_000
	cfg.Bandwidth = 2_000_000

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, cfg.SampleRate, loaded.SampleRate)
	require.Equal(t, cfg.ScanFFTSize, loaded.ScanFFTSize)
	require.Equal(t, cfg.UsePFBChannelizer, loaded.UsePFBChannelizer)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
