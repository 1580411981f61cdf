// SPDX-License-Identifier: MIT
/*
Package audio captures live input for the tuner:
- float32 capture using PortAudio, first channel taken as mono
- non-overlapping analysis windows sized by the pitch detector
- RMS noise gate in front of the analysis
- WAV recording with atomic state management

Thread Safety:
- Uses atomic operations for state management
- Pre-allocates buffers to avoid GC in hot path
- Locks OS thread during audio processing
*/
package audio

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"

	"tuner/internal/config"
	applog "tuner/internal/log"
	"tuner/internal/pitch"
)

// WindowProcessor consumes complete analysis windows. Process runs on the
// audio thread and must not retain the window.
type WindowProcessor interface {
	Process(window []float32)
}

// Stats counts windows since the engine was created.
type Stats struct {
	Windows uint64 // complete windows
	Gated   uint64 // windows rejected by the gate
}

type Engine struct {
	// Core configuration and state.
	config   *config.Config
	params   pitch.Params
	channels int

	// Audio input handling.
	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream

	// Analysis path.
	mono      []float32 // First channel of an interleaved callback buffer
	windower  *Windower
	gate      *Gate
	processor WindowProcessor
	windows   atomic.Uint64
	gated     atomic.Uint64

	// Recording state and buffers. recMu guards the encoder between the
	// callback and StartRecording/StopRecording.
	isRecording int32 // Atomic flag for thread-safe state
	recMu       sync.Mutex
	outputFile  *os.File
	wavEncoder  *wav.Encoder
	sampleBuf   *audio.IntBuffer // Reusable buffer for format conversion
	sampleScale float64
}

// NewEngine resolves the configured input device and prepares buffers for
// the detector layout derived from cfg. PortAudio must be initialized.
func NewEngine(cfg *config.Config, processor WindowProcessor) (*Engine, error) {
	inputDevice, err := InputDevice(cfg.Audio.InputDevice)
	if err != nil {
		return nil, err
	}

	e, err := newEngine(cfg, inputDevice.MaxInputChannels, processor)
	if err != nil {
		return nil, err
	}
	e.inputDevice = inputDevice

	if cfg.Audio.LowLatency {
		e.inputLatency = inputDevice.DefaultLowInputLatency
	} else {
		e.inputLatency = inputDevice.DefaultHighInputLatency
	}

	applog.WithFields(applog.Fields{
		"device":   inputDevice.Name,
		"channels": e.channels,
		"window":   e.params.BufferSize,
		"latency":  e.inputLatency,
	}).Info("Input engine ready")

	return e, nil
}

// newEngine builds everything except the device binding. deviceChannels
// caps the configured channel count; zero means no cap.
func newEngine(cfg *config.Config, deviceChannels int, processor WindowProcessor) (*Engine, error) {
	params, err := cfg.PitchParams()
	if err != nil {
		return nil, fmt.Errorf("audio: %w", err)
	}

	channels := cfg.Audio.InputChannels
	if deviceChannels > 0 && channels > deviceChannels {
		channels = deviceChannels
	}

	e := &Engine{
		config:    cfg,
		params:    params,
		channels:  channels,
		mono:      make([]float32, cfg.Audio.FramesPerBuffer),
		gate:      NewGate(cfg.Pitch.GateThreshold, params.BufferSize),
		processor: processor,
	}
	e.windower = NewWindower(params.BufferSize, e.handleWindow)
	return e, nil
}

// Params returns the detector layout the engine windows for.
func (e *Engine) Params() pitch.Params {
	return e.params
}

// Stats returns window counters.
func (e *Engine) Stats() Stats {
	return Stats{Windows: e.windows.Load(), Gated: e.gated.Load()}
}

func (e *Engine) StartInputStream() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: e.channels,
			Device:   e.inputDevice,
			Latency:  e.inputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: e.config.Audio.FramesPerBuffer,
		SampleRate:      e.config.Audio.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, e.processInputStream)
	if err != nil {
		return fmt.Errorf("failed to open input stream: %w", err)
	}
	e.inputStream = stream

	if err := e.inputStream.Start(); err != nil {
		e.inputStream.Close()
		e.inputStream = nil
		return fmt.Errorf("failed to start input stream: %w", err)
	}

	return nil
}

func (e *Engine) StopInputStream() error {
	if e.inputStream != nil {
		if err := e.inputStream.Stop(); err != nil {
			return err
		}

		if err := e.inputStream.Close(); err != nil {
			return err
		}

		e.inputStream = nil
	}
	e.windower.Reset()

	return nil
}

// processInputStream is the audio callback.
// Performance Critical:
// - Runs in a dedicated OS thread (LockOSThread)
// - Uses pre-allocated buffers only
// - No dynamic allocations in the hot path
func (e *Engine) processInputStream(in []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	// The callback never waits: a buffer that arrives while recording is
	// being started or stopped is not written.
	if atomic.LoadInt32(&e.isRecording) == 1 && e.recMu.TryLock() {
		if e.wavEncoder != nil {
			e.writeRecording(in)
		}
		e.recMu.Unlock()
	}

	e.windower.Write(e.firstChannel(in))
}

// firstChannel de-interleaves channel 0 without allocating.
func (e *Engine) firstChannel(in []float32) []float32 {
	if e.channels <= 1 {
		return in
	}
	frames := len(in) / e.channels
	if frames > len(e.mono) {
		frames = len(e.mono)
	}
	for i := range frames {
		e.mono[i] = in[i*e.channels]
	}
	return e.mono[:frames]
}

func (e *Engine) handleWindow(window []float32) {
	e.windows.Add(1)
	if !e.gate.Open(window) {
		e.gated.Add(1)
		return
	}
	if e.processor != nil {
		e.processor.Process(window)
	}
}
