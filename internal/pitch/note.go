// SPDX-License-Identifier: MIT
package pitch

import "math"

// Equal temperament reference: A4 = 440 Hz = MIDI note 69.
const (
	referenceFreq = 440.0
	referenceMIDI = 69
)

// NoteNames lists the 12 pitch classes starting at C.
var NoteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Note is a frequency placed on the equal-tempered scale.
type Note struct {
	Name      string  `json:"note"`
	Octave    int     `json:"octave"`
	MIDI      int     `json:"midi"`
	Cents     float64 `json:"cents"` // signed, in [-50, 50]
	Frequency float64 `json:"frequency"`
}

// FreqToNote returns the nearest pitch class and the distance from it in
// cents. The distance is always non-negative. A non-positive or non-finite
// frequency yields ("", 0).
func FreqToNote(freq float64) (string, float64) {
	n, ok := NoteFor(freq)
	if !ok {
		return "", 0
	}
	return n.Name, math.Abs(n.Cents)
}

// NoteFor places freq on the scale, keeping the sign of the deviation.
func NoteFor(freq float64) (Note, bool) {
	if !(freq > 0) || math.IsInf(freq, 0) {
		return Note{}, false
	}

	continuous := 12*math.Log2(freq/referenceFreq) + referenceMIDI
	nearest := math.Round(continuous)
	midi := int(nearest)

	class := midi % 12
	if class < 0 {
		class += 12
	}

	return Note{
		Name:      NoteNames[class],
		Octave:    floorDiv(midi, 12) - 1,
		MIDI:      midi,
		Cents:     100 * (continuous - nearest),
		Frequency: freq,
	}, true
}

// FrequencyOf returns the equal-tempered frequency of a MIDI note.
func FrequencyOf(midi int) float64 {
	return referenceFreq * math.Exp2(float64(midi-referenceMIDI)/12)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
