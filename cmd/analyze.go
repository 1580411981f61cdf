package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mjibson/go-dsp/wav"
	"github.com/spf13/cobra"

	"tuner/internal/analysis"
	"tuner/internal/audio"
	"tuner/internal/config"
	applog "tuner/internal/log"
	"tuner/internal/pitch"
)

const wavFormatPCM = 1

func newAnalyzeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze FILE.wav",
		Short: "Print the pitch of every analysis window of a WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			_, err = analyzeWAV(f, cfg, cmd.OutOrStdout())
			return err
		},
	}
}

// analyzeWAV runs the live pipeline offline: the first channel is cut
// into consecutive windows at the file's own sample rate, gated, detected
// and tracked. One line is printed per window that yields a reading.
func analyzeWAV(r io.Reader, cfg *config.Config, out io.Writer) ([]analysis.Reading, error) {
	w, err := wav.New(r)
	if err != nil {
		return nil, fmt.Errorf("reading WAV header: %w", err)
	}
	channels := int(w.NumChannels)
	if channels < 1 {
		return nil, fmt.Errorf("WAV file has no channels")
	}

	// ReadFloats maps PCM to [0, 1]; float data is already centred.
	recentre := w.AudioFormat == wavFormatPCM

	rate := float64(w.SampleRate)
	params, err := pitch.NewParams(cfg.Pitch.MinFreq, cfg.Pitch.MaxFreq, rate)
	if err != nil {
		return nil, fmt.Errorf("pitch range at %g Hz: %w", rate, err)
	}
	applog.Debugf("Analyzing %d channel(s) with %s", channels, params)

	var (
		detector = pitch.NewDetector(params)
		tracker  = analysis.NewTracker(cfg.Pitch.StabilityWindow, cfg.Pitch.StableCents)
		gate     = audio.NewGate(cfg.Pitch.GateThreshold, params.BufferSize)
		start    = time.Unix(0, 0)
		readings []analysis.Reading
		index    int
	)
	if cfg.Pitch.GateThreshold <= 0 {
		gate.Disable()
	}

	fmt.Fprintf(out, "%-9s %-5s %7s %10s  %s\n", "time", "note", "cents", "freq", "stable")
	windower := audio.NewWindower(params.BufferSize, func(window []float32) {
		offset := time.Duration(float64(index*params.BufferSize) / rate * float64(time.Second))
		index++

		if !gate.Open(window) {
			tracker.Reset()
			return
		}
		freq, ok := detector.EstimatePitch(window)
		if !ok {
			return
		}
		if c := detector.LastCorrelation(); c.BestLag > 0 && c.BestLag < len(c.Scores) {
			applog.Debugf("Window %d: best lag %d, score %d of %d", index-1, c.BestLag, c.Scores[c.BestLag], c.MaxScore)
		}
		reading, ok := tracker.Add(start.Add(offset), freq)
		if !ok {
			return
		}
		readings = append(readings, reading)

		stable := ""
		if reading.Stable {
			stable = "yes"
		}
		fmt.Fprintf(out, "%8.3fs %-5s %+7.1f %7.2f Hz  %s\n",
			offset.Seconds(), fmt.Sprintf("%s%d", reading.Note, reading.Octave),
			reading.Cents, reading.Frequency, stable)
	})

	frame := make([]float32, params.BufferSize)
	remaining := w.Samples
	for remaining > 0 {
		n := min(remaining, params.BufferSize*channels)
		samples, err := w.ReadFloats(n)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			applog.Warnf("WAV data ends %d samples early", remaining)
			break
		}
		if err != nil {
			return readings, fmt.Errorf("reading WAV samples: %w", err)
		}
		remaining -= n

		frames := len(samples) / channels
		for i := 0; i < frames; i++ {
			frame[i] = samples[i*channels]
			if recentre {
				frame[i] = 2*frame[i] - 1
			}
		}
		windower.Write(frame[:frames])
	}

	if n := windower.Buffered(); n > 0 {
		applog.Debugf("Ignoring %d trailing samples shorter than a window", n)
	}
	applog.Infof("Analyzed %d window(s), %d with a pitch", index, len(readings))
	return readings, nil
}
