// SPDX-License-Identifier: MIT
package audio

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Gate rejects windows whose RMS level is at or below a threshold, so
// background noise is not reported as a pitch. The threshold is a linear
// amplitude in [0, 1] relative to full scale.
type Gate struct {
	enabled   bool
	threshold float64
	scratch   []float64
}

// NewGate creates an enabled gate sized for windows of size samples.
func NewGate(threshold float64, size int) *Gate {
	g := &Gate{enabled: true, scratch: make([]float64, size)}
	g.SetThreshold(threshold)
	return g
}

// SetThreshold clamps threshold to [0, 1].
func (g *Gate) SetThreshold(threshold float64) {
	g.threshold = max(0, min(1, threshold))
}

// Threshold returns the current threshold.
func (g *Gate) Threshold() float64 {
	return g.threshold
}

// Enable turns level checking on.
func (g *Gate) Enable() { g.enabled = true }

// Disable lets every window through.
func (g *Gate) Disable() { g.enabled = false }

// Enabled reports whether windows are checked.
func (g *Gate) Enabled() bool { return g.enabled }

// RMS returns the root mean square level of window.
func (g *Gate) RMS(window []float32) float64 {
	if len(window) == 0 {
		return 0
	}
	if cap(g.scratch) < len(window) {
		g.scratch = make([]float64, len(window))
	}
	x := g.scratch[:len(window)]
	for i, s := range window {
		x[i] = float64(s)
	}
	return floats.Norm(x, 2) / math.Sqrt(float64(len(x)))
}

// Open reports whether window should be analysed.
func (g *Gate) Open(window []float32) bool {
	return !g.enabled || g.RMS(window) > g.threshold
}

func (e *Engine) EnableGate() {
	e.gate.Enable()
}

func (e *Engine) DisableGate() {
	e.gate.Disable()
}

// SetGateThreshold adjusts the noise gate threshold.
// The value is in the range of 0.0-1.0 where 0=always open, 1=always closed.
func (e *Engine) SetGateThreshold(threshold float64) {
	e.gate.SetThreshold(threshold)
}

// GetGateThreshold returns the current noise gate threshold as a float64.
// The value is in the range of 0.0-1.0 where 0=always open, 1=always closed.
func (e *Engine) GetGateThreshold() float64 {
	return e.gate.Threshold()
}
