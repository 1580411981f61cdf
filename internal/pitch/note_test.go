// SPDX-License-Identifier: MIT
package pitch

import (
	"math"
	"testing"
)

func TestFreqToNote(t *testing.T) {
	tests := []struct {
		desc  string
		freq  float64
		name  string
		cents float64
	}{
		{"Concert A", 440, "A", 0},
		{"One semitone up", 440 * math.Exp2(1.0/12), "A#", 0},
		{"Sharp A", 445, "A", 19.56},
		{"Flat A", 435, "A", 19.79},
		{"Middle C", 261.6256, "C", 0},
		{"Low E", 82.41, "E", 0.07},
		{"Quarter tone above E", 82.4069 * math.Exp2(0.4/12), "E", 40},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			name, cents := FreqToNote(tt.freq)
			if name != tt.name {
				t.Errorf("FreqToNote(%g) name = %q, want %q", tt.freq, name, tt.name)
			}
			if cents < 0 || math.Abs(cents-tt.cents) > 0.05 {
				t.Errorf("FreqToNote(%g) cents = %.3f, want %.2f", tt.freq, cents, tt.cents)
			}
		})
	}
}

func TestFreqToNoteInvalid(t *testing.T) {
	for _, freq := range []float64{0, -440, math.NaN(), math.Inf(1), math.Inf(-1)} {
		if name, cents := FreqToNote(freq); name != "" || cents != 0 {
			t.Errorf("FreqToNote(%g) = (%q, %g), want (\"\", 0)", freq, name, cents)
		}
	}
}

func TestNoteFor(t *testing.T) {
	tests := []struct {
		desc   string
		freq   float64
		name   string
		octave int
		midi   int
		sign   int
	}{
		{"Sharp A4", 445, "A", 4, 69, 1},
		{"Flat A4", 435, "A", 4, 69, -1},
		{"A3", 220, "A", 3, 57, 0},
		{"B3 rounds to B3", 246.94, "B", 3, 59, -1},
		{"C4 starts the octave", 261.63, "C", 4, 60, 1},
		{"MIDI zero", FrequencyOf(0), "C", -1, 0, 0},
		{"Below MIDI zero", FrequencyOf(-9), "D#", -2, -9, 0},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			n, ok := NoteFor(tt.freq)
			if !ok {
				t.Fatalf("NoteFor(%g) reported no note", tt.freq)
			}
			if n.Name != tt.name || n.Octave != tt.octave || n.MIDI != tt.midi {
				t.Errorf("NoteFor(%g) = %s%d (MIDI %d), want %s%d (MIDI %d)",
					tt.freq, n.Name, n.Octave, n.MIDI, tt.name, tt.octave, tt.midi)
			}
			switch {
			case tt.sign > 0 && !(n.Cents > 0),
				tt.sign < 0 && !(n.Cents < 0),
				tt.sign == 0 && math.Abs(n.Cents) > 1e-6:
				t.Errorf("NoteFor(%g) cents = %g, want sign %d", tt.freq, n.Cents, tt.sign)
			}
			if n.Cents < -50 || n.Cents > 50 {
				t.Errorf("NoteFor(%g) cents = %g, outside [-50, 50]", tt.freq, n.Cents)
			}
			if n.Frequency != tt.freq {
				t.Errorf("NoteFor(%g) frequency = %g", tt.freq, n.Frequency)
			}
		})
	}
}

func TestFrequencyOf(t *testing.T) {
	tests := []struct {
		midi int
		want float64
	}{
		{69, 440},
		{57, 220},
		{81, 880},
		{60, 261.6256},
		{40, 82.4069},
	}

	for _, tt := range tests {
		if got := FrequencyOf(tt.midi); math.Abs(got-tt.want) > 1e-3 {
			t.Errorf("FrequencyOf(%d) = %.4f, want %.4f", tt.midi, got, tt.want)
		}
	}
}
