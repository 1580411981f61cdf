// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	applog "tuner/internal/log"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`     // Shorthand for log_level: debug.
	LogLevel  string          `yaml:"log_level"` // "debug", "info", "warn" or "error".
	Audio     AudioConfig     `yaml:"audio"`
	Pitch     PitchConfig     `yaml:"pitch"`
	Recording RecordingConfig `yaml:"recording"`
	Transport TransportConfig `yaml:"transport"`
}

// AudioConfig holds settings related to audio input.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index (-1 for default).
	SampleRate      float64 `yaml:"sample_rate"`       // Hz; the detector follows it, samples are never resampled.
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames per PortAudio callback.
	LowLatency      bool    `yaml:"low_latency"`       // Request the device's low input latency.
	InputChannels   int     `yaml:"input_channels"`    // Channels captured; only the first is analysed.
}

// PitchConfig holds the detection range and the reading post-processing.
type PitchConfig struct {
	MinFreq         float64 `yaml:"min_freq"`         // Lowest detectable fundamental (Hz).
	MaxFreq         float64 `yaml:"max_freq"`         // Highest detectable fundamental (Hz).
	GateThreshold   float64 `yaml:"gate_threshold"`   // RMS level under which windows are skipped.
	StabilityWindow int     `yaml:"stability_window"` // Recent estimates kept by the tracker.
	StableCents     float64 `yaml:"stable_cents"`     // Max spread (cents) of a stable reading.
}

// RecordingConfig holds settings related to audio recording functionality.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`    // Record the input stream to WAV.
	OutputDir string `yaml:"output_dir"` // Directory for recordings.
	BitDepth  int    `yaml:"bit_depth"`  // 16, 24 or 32.
}

// TransportConfig holds the outputs readings are sent to.
type TransportConfig struct {
	UDPEnabled       bool          `yaml:"udp_enabled"`
	UDPTargetAddress string        `yaml:"udp_target_address"` // e.g. "127.0.0.1:9090".
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`

	WebSocketEnabled bool   `yaml:"websocket_enabled"`
	WebSocketAddress string `yaml:"websocket_address"` // Listen address for /ws.

	MIDIEnabled bool   `yaml:"midi_enabled"`
	MIDIPort    string `yaml:"midi_port"`    // Output port name; empty picks the first.
	MIDIChannel uint8  `yaml:"midi_channel"` // 0-15.

	SerialEnabled bool   `yaml:"serial_enabled"`
	SerialPort    string `yaml:"serial_port"` // e.g. "/dev/ttyUSB0".
	SerialBaud    int    `yaml:"serial_baud"`
}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches default locations ("config.yaml"). If no file is found, it uses built-in
// defaults. After loading defaults or from file, it applies environment variable
// overrides and validates the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = discover()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		applog.Debugf("configuration: loaded %s", path)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func discover() string {
	candidates := []string{"config.yaml"}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, dir+"/tuner/config.yaml")
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// Validate checks every section and derives the detector layout once, so a
// configuration that passes can always build a detector.
func (c *Config) Validate() error {
	if c.LogLevel != "" {
		if _, ok := applog.ParseLevel(c.LogLevel); !ok {
			return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
		}
	}

	a := c.Audio
	if a.InputDevice < MinDeviceID {
		return fmt.Errorf("%w: audio.input_device %d below %d", ErrInvalidConfig, a.InputDevice, MinDeviceID)
	}
	if a.SampleRate < MinSampleRate || a.SampleRate > MaxSampleRate {
		return fmt.Errorf("%w: audio.sample_rate %g outside [%d, %d]", ErrInvalidConfig, a.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if a.FramesPerBuffer <= 0 || a.FramesPerBuffer > MaxBufferFrames {
		return fmt.Errorf("%w: audio.frames_per_buffer %d outside [1, %d]", ErrInvalidConfig, a.FramesPerBuffer, MaxBufferFrames)
	}
	if a.InputChannels < 1 {
		return fmt.Errorf("%w: audio.input_channels must be at least 1", ErrInvalidConfig)
	}

	p := c.Pitch
	if _, err := c.PitchParams(); err != nil {
		return fmt.Errorf("%w: pitch: %w", ErrInvalidConfig, err)
	}
	if p.GateThreshold < 0 {
		return fmt.Errorf("%w: pitch.gate_threshold must not be negative", ErrInvalidConfig)
	}
	if p.StabilityWindow < 1 {
		return fmt.Errorf("%w: pitch.stability_window must be at least 1", ErrInvalidConfig)
	}
	if p.StableCents <= 0 {
		return fmt.Errorf("%w: pitch.stable_cents must be positive", ErrInvalidConfig)
	}

	if c.Recording.Enabled {
		switch c.Recording.BitDepth {
		case 16, 24, 32:
		default:
			return fmt.Errorf("%w: recording.bit_depth %d not one of 16, 24, 32", ErrInvalidConfig, c.Recording.BitDepth)
		}
		if c.Recording.OutputDir == "" {
			return fmt.Errorf("%w: recording.output_dir must be set when recording", ErrInvalidConfig)
		}
	}

	t := c.Transport
	if t.UDPEnabled {
		if _, _, err := net.SplitHostPort(t.UDPTargetAddress); err != nil {
			return fmt.Errorf("%w: transport.udp_target_address %q: %w", ErrInvalidConfig, t.UDPTargetAddress, err)
		}
		if t.UDPSendInterval <= 0 {
			return fmt.Errorf("%w: transport.udp_send_interval must be positive", ErrInvalidConfig)
		}
	}
	if t.WebSocketEnabled {
		if _, _, err := net.SplitHostPort(t.WebSocketAddress); err != nil {
			return fmt.Errorf("%w: transport.websocket_address %q: %w", ErrInvalidConfig, t.WebSocketAddress, err)
		}
	}
	if t.MIDIEnabled && t.MIDIChannel > MaxMIDIChannel {
		return fmt.Errorf("%w: transport.midi_channel %d above %d", ErrInvalidConfig, t.MIDIChannel, MaxMIDIChannel)
	}
	if t.SerialEnabled {
		if t.SerialPort == "" {
			return fmt.Errorf("%w: transport.serial_port must be set", ErrInvalidConfig)
		}
		if t.SerialBaud <= 0 {
			return fmt.Errorf("%w: transport.serial_baud must be positive", ErrInvalidConfig)
		}
	}

	return nil
}

// Level resolves the effective log level; debug wins over log_level.
func (c *Config) Level() applog.LogLevel {
	if c.Debug {
		return applog.LevelDebug
	}
	level, _ := applog.ParseLevel(c.LogLevel)
	return level
}

// applyEnvOverrides reads ENV_* variables. Unparseable values are ignored.
func (cfg *Config) applyEnvOverrides() {
	// ENV_DEBUG
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
			applog.Debugf("configuration: overriding debug from env: %v", bVal)
		}
	}
	// ENV_LOG_LEVEL
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		cfg.LogLevel = val
		applog.Debugf("configuration: overriding log_level from env: %s", val)
	}

	// ENV_INPUT_DEVICE
	if val, ok := os.LookupEnv("ENV_INPUT_DEVICE"); ok {
		if iVal, err := strconv.Atoi(val); err == nil {
			cfg.Audio.InputDevice = iVal
			applog.Debugf("configuration: overriding audio.input_device from env: %d", iVal)
		}
	}
	// ENV_SAMPLE_RATE
	if val, ok := os.LookupEnv("ENV_SAMPLE_RATE"); ok {
		if fVal, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Audio.SampleRate = fVal
			applog.Debugf("configuration: overriding audio.sample_rate from env: %g", fVal)
		}
	}

	// ENV_UDP_ENABLED
	if val, ok := os.LookupEnv("ENV_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.UDPEnabled = bVal
			applog.Debugf("configuration: overriding transport.udp_enabled from env: %v", bVal)
		}
	}
	// ENV_UDP_TARGET_ADDRESS
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		cfg.Transport.UDPTargetAddress = val
		applog.Debugf("configuration: overriding transport.udp_target_address from env: %s", val)
	}
	// ENV_UDP_SEND_INTERVAL
	if val, ok := os.LookupEnv("ENV_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			cfg.Transport.UDPSendInterval = dur
			applog.Debugf("configuration: overriding transport.udp_send_interval from env: %s", dur)
		}
	}

	// ENV_SERIAL_PORT
	if val, ok := os.LookupEnv("ENV_SERIAL_PORT"); ok {
		cfg.Transport.SerialPort = val
		applog.Debugf("configuration: overriding transport.serial_port from env: %s", val)
	}
}
