package cmd

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"tuner/internal/config"
	"tuner/internal/pitch"
	"tuner/pkg/utils"
)

const testRate = 44100

// writeTestWAV encodes 16-bit PCM channels (one slice each) to a temp file.
func writeTestWAV(t *testing.T, channels ...[]float32) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	frames := len(channels[0])
	data := make([]int, 0, frames*len(channels))
	for i := 0; i < frames; i++ {
		for _, ch := range channels {
			data = append(data, int(math.Round(float64(ch[i])*math.MaxInt16)))
		}
	}

	enc := wav.NewEncoder(f, testRate, 16, len(channels), 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: len(channels), SampleRate: testRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func analyzeFile(t *testing.T, path string) ([]string, int) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var out bytes.Buffer
	readings, err := analyzeWAV(f, config.Default(), &out)
	if err != nil {
		t.Fatalf("analyzeWAV() error = %v", err)
	}

	var notes []string
	for _, r := range readings {
		notes = append(notes, r.Note)
		if math.Abs(r.Frequency-220)/220 > 0.01 {
			t.Errorf("reading at %v = %.2f Hz, want 220 Hz within 1%%", r.Time, r.Frequency)
		}
	}
	if !strings.HasPrefix(out.String(), "time") || !strings.Contains(out.String(), "A3") {
		t.Errorf("output = %q", out.String())
	}
	return notes, len(readings)
}

func TestAnalyzeWAVSine(t *testing.T) {
	window := pitch.DefaultParams().BufferSize
	tone := utils.Scale(utils.GenerateSineWave(20*window, testRate, 220), 0.5)
	signal := append(tone, make([]float32, 4*window)...)

	notes, n := analyzeFile(t, writeTestWAV(t, signal))

	// Silence is gated; every tone window yields A.
	if n < 18 || n > 20 {
		t.Errorf("got %d readings, want 18-20", n)
	}
	for i, note := range notes {
		if note != "A" {
			t.Errorf("reading %d note = %q, want A", i, note)
		}
	}
}

func TestAnalyzeWAVUsesFirstChannel(t *testing.T) {
	window := pitch.DefaultParams().BufferSize
	left := utils.Scale(utils.GenerateSineWave(8*window, testRate, 220), 0.5)
	right := utils.Scale(utils.GenerateSineWave(8*window, testRate, 330), 0.5)

	notes, n := analyzeFile(t, writeTestWAV(t, left, right))
	if n == 0 {
		t.Fatal("no readings from the first channel")
	}
	for _, note := range notes {
		if note != "A" {
			t.Errorf("note = %q, want A from the first channel", note)
		}
	}
}

func TestAnalyzeWAVRejectsGarbage(t *testing.T) {
	var out bytes.Buffer
	if _, err := analyzeWAV(strings.NewReader("not a wav file at all"), config.Default(), &out); err == nil {
		t.Error("expected a header error")
	}
}
