package fmpipeline

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// yamlConfig mirrors Config's fields with yaml tags; Config itself carries a
// Log field that isn't serializable, so the YAML form is kept separate, the
// way samoyed keeps its on-disk device config distinct from runtime state.
type yamlConfig struct {
	SampleRate            float64 `yaml:"sampleRate"`
	CenterFrequency       float64 `yaml:"centerFrequency"`
	Bandwidth             float64 `yaml:"bandwidth"`
	EnableRDS             bool    `yaml:"enableRDS"`
	ChannelBandwidth      float64 `yaml:"channelBandwidth"`
	ScanFFTSize           int     `yaml:"scanFFTSize"`
	ScanThresholdDb       float64 `yaml:"scanThresholdDb"`
	ScanMaxStations       int     `yaml:"scanMaxStations"`
	ScanIntervalMs        int     `yaml:"scanIntervalMs"`
	StaleChannelTimeoutMs int     `yaml:"staleChannelTimeoutMs"`
	MinSeparationHz       float64 `yaml:"minSeparationHz"`
	MinValleyDepthDb      float64 `yaml:"minValleyDepthDb"`
	UseWorkerFFT          bool    `yaml:"useWorkerFFT"`
	ScanAutoThreshold     bool    `yaml:"scanAutoThreshold"`
	ScanThresholdDbOffset float64 `yaml:"scanThresholdDbOffset"`
	UsePFBChannelizer     bool    `yaml:"usePFBChannelizer"`
}

func (c Config) toYAML() yamlConfig {
	return yamlConfig{
		SampleRate:            c.SampleRate,
		CenterFrequency:       c.CenterFrequency,
		Bandwidth:             c.Bandwidth,
		EnableRDS:             c.EnableRDS,
		ChannelBandwidth:      c.ChannelBandwidth,
		ScanFFTSize:           c.ScanFFTSize,
		ScanThresholdDb:       c.ScanThresholdDb,
		ScanMaxStations:       c.ScanMaxStations,
		ScanIntervalMs:        c.ScanIntervalMs,
		StaleChannelTimeoutMs: c.StaleChannelTimeoutMs,
		MinSeparationHz:       c.MinSeparationHz,
		MinValleyDepthDb:      c.MinValleyDepthDb,
		UseWorkerFFT:          c.UseWorkerFFT,
		ScanAutoThreshold:     c.ScanAutoThreshold,
		ScanThresholdDbOffset: c.ScanThresholdDbOffset,
		UsePFBChannelizer:     c.UsePFBChannelizer,
	}
}

func (y yamlConfig) toConfig() Config {
	return Config{
		SampleRate:            y.SampleRate,
		CenterFrequency:       y.CenterFrequency,
		Bandwidth:             y.Bandwidth,
		EnableRDS:             y.EnableRDS,
		ChannelBandwidth:      y.ChannelBandwidth,
		ScanFFTSize:           y.ScanFFTSize,
		ScanThresholdDb:       y.ScanThresholdDb,
		ScanMaxStations:       y.ScanMaxStations,
		ScanIntervalMs:        y.ScanIntervalMs,
		StaleChannelTimeoutMs: y.StaleChannelTimeoutMs,
		MinSeparationHz:       y.MinSeparationHz,
		MinValleyDepthDb:      y.MinValleyDepthDb,
		UseWorkerFFT:          y.UseWorkerFFT,
		ScanAutoThreshold:     y.ScanAutoThreshold,
		ScanThresholdDbOffset: y.ScanThresholdDbOffset,
		UsePFBChannelizer:     y.UsePFBChannelizer,
	}
}

// LoadConfig reads a YAML configuration file at path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "fmpipeline: read config")
	}
	var y yamlConfig
	if err := yaml.Unmarshal(data, &y); err != nil {
		return Config{}, errors.Wrap(err, "fmpipeline: parse config")
	}
	return y.toConfig(), nil
}

// SaveConfig writes cfg as YAML to path.
func SaveConfig(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg.toYAML())
	if err != nil {
		return errors.Wrap(err, "fmpipeline: marshal config")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "fmpipeline: write config")
	}
	return nil
}
