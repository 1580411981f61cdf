package config

import (
	"time"

	"tuner/internal/pitch"
)

// Boundaries and defaults for the tuner configuration.
const (
	DefaultDeviceID        = MinDeviceID // System default input
	DefaultFramesPerBuffer = 512         // Balanced latency/performance
	DefaultSampleRate      = pitch.DefaultSampleRate
	DefaultInputChannels   = 1
	DefaultLogLevel        = "info"

	DefaultMinFreq         = pitch.DefaultMinFreq
	DefaultMaxFreq         = pitch.DefaultMaxFreq
	DefaultGateThreshold   = 0.01 // RMS below this is treated as silence
	DefaultStabilityWindow = 5    // Readings averaged by the tracker
	DefaultStableCents     = 5.0  // Spread under which a note counts as held

	DefaultOutputDir = "./recordings"
	DefaultBitDepth  = 16

	DefaultUDPTargetAddress = "127.0.0.1:9090"
	DefaultUDPSendInterval  = 33 * time.Millisecond // ~30Hz
	DefaultWebSocketAddress = "127.0.0.1:8080"
	DefaultMIDIChannel      = 0
	DefaultSerialBaud       = 115200

	// Hardware and processing limits
	MinDeviceID     = -1     // -1 represents system default device
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MaxBufferFrames = 8192   // Maximum frames per buffer (power of 2)
	MaxMIDIChannel  = 15
)

// Default returns the built-in configuration used when no file is found.
func Default() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			InputChannels:   DefaultInputChannels,
		},
		Pitch: PitchConfig{
			MinFreq:         DefaultMinFreq,
			MaxFreq:         DefaultMaxFreq,
			GateThreshold:   DefaultGateThreshold,
			StabilityWindow: DefaultStabilityWindow,
			StableCents:     DefaultStableCents,
		},
		Recording: RecordingConfig{
			OutputDir: DefaultOutputDir,
			BitDepth:  DefaultBitDepth,
		},
		Transport: TransportConfig{
			UDPTargetAddress: DefaultUDPTargetAddress,
			UDPSendInterval:  DefaultUDPSendInterval,
			WebSocketAddress: DefaultWebSocketAddress,
			MIDIChannel:      DefaultMIDIChannel,
			SerialBaud:       DefaultSerialBaud,
		},
	}
}

// PitchParams derives the detector layout from the pitch range and the
// audio sample rate.
func (c *Config) PitchParams() (pitch.Params, error) {
	return pitch.NewParams(c.Pitch.MinFreq, c.Pitch.MaxFreq, c.Audio.SampleRate)
}
