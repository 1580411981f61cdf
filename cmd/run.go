package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"tuner/internal/analysis"
	"tuner/internal/audio"
	"tuner/internal/config"
	applog "tuner/internal/log"
	"tuner/internal/transport"
	"tuner/internal/transport/udp"
)

func listHostDevices(w io.Writer) error {
	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()
	return audio.ListDevices(w)
}

// buildSinks opens every enabled transport. Optional hardware outputs that
// fail to open are logged and skipped; the tuner still runs without them.
func buildSinks(cfg *config.Config) *transport.Multi {
	sinks := transport.NewMulti(transport.NewLoggingTransport(false))
	t := cfg.Transport

	if t.WebSocketEnabled {
		sinks.Add(transport.NewWebSocketTransport(t.WebSocketAddress))
	}
	if t.MIDIEnabled {
		midiOut, err := transport.NewMIDITransport(t.MIDIPort, t.MIDIChannel)
		if err != nil {
			applog.Warnf("MIDI output disabled: %v", err)
		} else {
			sinks.Add(midiOut)
		}
	}
	if t.SerialEnabled {
		serialOut, err := transport.NewSerialTransport(t.SerialPort, t.SerialBaud)
		if err != nil {
			applog.Warnf("Serial output disabled: %v", err)
		} else {
			sinks.Add(serialOut)
		}
	}
	return sinks
}

// run drives the live tuner until ctx is cancelled.
//
// Startup (cold path): PortAudio, transports, processor, engine.
// Capture (hot path): PortAudio callbacks feed windows to the detector.
// Shutdown (cold path): stop capture first, then drain readings, then
// close the outputs they flow into.
func run(ctx context.Context, cfg *config.Config, recordPath string) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	params, err := cfg.PitchParams()
	if err != nil {
		return err
	}

	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()

	sinks := buildSinks(cfg)
	defer func() { err = errors.Join(err, sinks.Close()) }()

	tracker := analysis.NewTracker(cfg.Pitch.StabilityWindow, cfg.Pitch.StableCents)
	processor := analysis.NewPitchProcessor(params, tracker, sinks)
	defer processor.Close()

	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewUDPSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			return err
		}
		defer sender.Close()

		publisher, err := udp.NewUDPPublisher(cfg.Transport.UDPSendInterval, sender, processor)
		if err != nil {
			return err
		}
		publisher.Start()
		defer publisher.Close()
	}

	engine, err := audio.NewEngine(cfg, processor)
	if err != nil {
		return err
	}
	if cfg.Pitch.GateThreshold > 0 {
		engine.SetGateThreshold(cfg.Pitch.GateThreshold)
		engine.EnableGate()
		applog.Infof("Noise gate at RMS %.4f", engine.GetGateThreshold())
	} else {
		engine.DisableGate()
	}

	// CRITICAL: Start of real-time audio processing
	if err := engine.StartInputStream(); err != nil {
		return err
	}

	if recordPath != "" {
		if err := os.MkdirAll(filepath.Dir(recordPath), 0o755); err != nil {
			engine.Close()
			return fmt.Errorf("creating recording directory: %w", err)
		}
		if err := engine.StartRecording(recordPath); err != nil {
			engine.Close()
			return err
		}
	}

	applog.Infof("Tuning with %s. Press Ctrl+C to stop.", params)
	<-ctx.Done()

	if recordPath != "" {
		applog.Infof("Recording saved to: %s", recordPath)
	}
	if err := engine.Close(); err != nil {
		applog.Errorf("Error closing audio engine: %v", err)
	}

	s := engine.Stats()
	applog.WithFields(applog.Fields{
		"windows": s.Windows,
		"gated":   s.Gated,
	}).Info("Input engine stopped")
	return nil
}
