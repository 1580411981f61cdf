// SPDX-License-Identifier: MIT
package pitch

// Refine turns an integer lag into a frequency with sub-sample precision.
// It measures the distance between the first rising zero crossing of the
// window and the first rising zero crossing at or after lag-1, each located
// by linear interpolation between the last non-positive and the first
// positive sample. It reports false when no such crossings exist inside the
// window or the lag lies outside it.
func Refine(p Params, window []float32, lag int) (float64, bool) {
	if lag < 1 || lag >= p.BufferSize || len(window) < p.BufferSize {
		return 0, false
	}
	window = window[:p.BufferSize]

	start, dx1, ok := risingEdge(window, 0)
	if !ok {
		return 0, false
	}
	next, dx2, ok := risingEdge(window, lag-1)
	if !ok {
		return 0, false
	}

	period := float64(next-start) + (dx2 - dx1)
	if !(period > 0) {
		return 0, false
	}
	return p.LagToFrequency(period), true
}

// risingEdge scans forward from 'from' while samples are non-positive. It
// returns the index of the first positive sample and the fraction of a
// sample, measured from the preceding sample, where the signal crosses zero.
// The preceding level starts at zero, so a window that is already positive
// at 'from' reports a fraction of 0.
func risingEdge(window []float32, from int) (int, float64, bool) {
	var prev float64
	for i := from; i < len(window); i++ {
		cur := float64(window[i])
		if cur > 0 {
			return i, -prev / (cur - prev), true
		}
		prev = cur
	}
	return 0, 0, false
}
