// SPDX-License-Identifier: MIT
package pitch

// Detector runs complete detection cycles over fixed-size windows. Its
// edge detector, bitstream and score table are reset at the start of every
// cycle, so each call is independent of the previous one. A Detector is not
// safe for concurrent use; give each goroutine its own.
type Detector struct {
	params Params
	zc     ZeroCrossing
	bits   *Bitstream
	scores []uint32

	last Correlation
}

// NewDetector pre-allocates the buffers of one detection cycle.
func NewDetector(p Params) *Detector {
	return &Detector{
		params: p,
		bits:   NewBitstream(p),
		scores: make([]uint32, p.HalfBuffer),
	}
}

// Params returns the layout the detector was built for.
func (d *Detector) Params() Params {
	return d.params
}

// WindowSize is the number of samples EstimatePitch consumes.
func (d *Detector) WindowSize() int {
	return d.params.BufferSize
}

// EstimatePitch returns the fundamental frequency of window[:WindowSize()].
// It reports false for windows that are too short, silent or constant,
// or whose refined period cannot be measured inside the window.
func (d *Detector) EstimatePitch(window []float32) (float64, bool) {
	lag, ok := d.EstimateLag(window)
	if !ok {
		return 0, false
	}
	return Refine(d.params, window, lag)
}

// EstimateLag runs the integer part of a cycle: binarize, autocorrelate
// from MinPeriod and correct octave errors.
func (d *Detector) EstimateLag(window []float32) (int, bool) {
	if len(window) < d.params.BufferSize {
		return 0, false
	}

	d.zc.Reset()
	d.bits.Clear()
	d.bits.Fill(window, &d.zc)

	d.last = d.bits.Autocorrelate(d.params.MinPeriod, d.scores)

	// Every lag matched perfectly: the stream never changes level.
	if d.last.MaxScore == 0 {
		return 0, false
	}
	return CorrectHarmonics(d.params, d.last), true
}

// LastCorrelation exposes the sweep of the most recent cycle. Its score
// table is overwritten by the next cycle.
func (d *Detector) LastCorrelation() Correlation {
	return d.last
}
