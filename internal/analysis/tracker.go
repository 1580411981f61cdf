// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"tuner/internal/pitch"
	"tuner/pkg/circular"
)

// Tracker smooths successive estimates of the same note. It keeps the last
// N estimates as continuous MIDI note numbers; a change of nearest note
// starts a new history.
type Tracker struct {
	history     *circular.Buffer[float64]
	scratch     []float64
	stableCents float64

	midi    int
	hasNote bool
}

// NewTracker keeps window estimates and calls a full window stable when its
// standard deviation is at most stableCents.
func NewTracker(window int, stableCents float64) *Tracker {
	window = max(1, window)
	return &Tracker{
		history:     circular.New[float64](window),
		scratch:     make([]float64, 0, window),
		stableCents: stableCents,
	}
}

// Add records an estimate taken at the given time. It reports false for a
// frequency that cannot be placed on the scale.
func (t *Tracker) Add(at time.Time, freq float64) (Reading, bool) {
	note, ok := pitch.NoteFor(freq)
	if !ok {
		return Reading{}, false
	}
	_, deviation := pitch.FreqToNote(freq)

	if !t.hasNote || note.MIDI != t.midi {
		t.history.Reset()
		t.midi = note.MIDI
		t.hasNote = true
	}
	t.history.Push(float64(note.MIDI) + note.Cents/100)

	t.scratch = t.history.AppendTo(t.scratch[:0])
	mean := stat.Mean(t.scratch, nil)
	var spread float64
	if len(t.scratch) > 1 {
		spread = 100 * stat.StdDev(t.scratch, nil)
	}

	return Reading{
		Time:      at,
		Frequency: freq,
		Smoothed:  pitch.FrequencyOf(0) * math.Exp2(mean/12),
		Note:      note.Name,
		Octave:    note.Octave,
		MIDI:      note.MIDI,
		Cents:     note.Cents,
		Deviation: deviation,
		Stable:    t.history.Len() == t.history.Cap() && spread <= t.stableCents,
		Spread:    spread,
	}, true
}

// Reset forgets the current note.
func (t *Tracker) Reset() {
	t.history.Reset()
	t.hasNote = false
}

// Len returns the number of estimates in the current history.
func (t *Tracker) Len() int {
	return t.history.Len()
}
