// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"math"
	"testing"

	"tuner/pkg/utils"
)

func TestGateRMS(t *testing.T) {
	g := NewGate(0, 16)

	tests := []struct {
		desc   string
		window []float32
		want   float64
	}{
		{"Silence", utils.GenerateConstant(1024, 0), 0},
		{"DC", utils.GenerateConstant(1024, -0.5), 0.5},
		{"Full scale sine", utils.GenerateSineWave(4410, testSampleRate, 100), 1 / math.Sqrt2},
		{"Empty", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := g.RMS(tt.window); math.Abs(got-tt.want) > 1e-3 {
				t.Errorf("RMS() = %.4f, want %.4f", got, tt.want)
			}
		})
	}
}

func TestGateThresholdBoundaries(t *testing.T) {
	tests := []struct {
		input    float64
		expected float64
	}{
		{-0.1, 0.0}, // Below min
		{0.0, 0.0},  // Minimum
		{0.5, 0.5},  // Middle
		{1.0, 1.0},  // Maximum
		{1.5, 1.0},  // Above max
	}

	e := newTestEngine(t, 1, testFrameSize, nil)
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%.1f", tt.input), func(t *testing.T) {
			e.SetGateThreshold(tt.input)
			if got := e.GetGateThreshold(); got != tt.expected {
				t.Errorf("GetGateThreshold() = %.3f, want %.3f", got, tt.expected)
			}
		})
	}
}

func TestGateOpen(t *testing.T) {
	quiet := utils.Scale(utils.GenerateSineWave(2048, testSampleRate, 220), 0.001)
	loud := utils.GenerateSineWave(2048, testSampleRate, 220)

	tests := []struct {
		desc      string
		window    []float32
		enabled   bool
		threshold float64
		open      bool
	}{
		{"Gate disabled/Quiet signal", quiet, false, 0.1, true},
		{"Gate disabled/Loud signal", loud, false, 0.1, true},
		{"Gate enabled/Quiet signal/Low threshold", quiet, true, 0.0001, true},
		{"Gate enabled/Quiet signal/Mid threshold", quiet, true, 0.1, false},
		{"Gate enabled/Loud signal/Mid threshold", loud, true, 0.1, true},
		{"Gate enabled/Loud signal/High threshold", loud, true, 0.999, false},
		{"Gate enabled/Silence/Zero threshold", utils.GenerateConstant(2048, 0), true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			g := NewGate(tt.threshold, len(tt.window))
			if !tt.enabled {
				g.Disable()
			}
			if got := g.Open(tt.window); got != tt.open {
				t.Errorf("Open() = %v, want %v (rms %.4f, threshold %.4f)", got, tt.open, g.RMS(tt.window), tt.threshold)
			}
		})
	}
}

func TestGateEnableToggle(t *testing.T) {
	e := newTestEngine(t, 1, testFrameSize, nil)

	if !e.gate.Enabled() {
		t.Error("Gate should be enabled initially")
	}
	e.DisableGate()
	e.DisableGate()
	if e.gate.Enabled() {
		t.Error("Gate should remain disabled after multiple DisableGate()")
	}
	e.EnableGate()
	if !e.gate.Enabled() {
		t.Error("Gate should be enabled after EnableGate()")
	}
}

func TestGateNoAllocsHotPath(t *testing.T) {
	g := NewGate(0.01, 2048)
	window := utils.GenerateSineWave(2048, testSampleRate, 220)

	allocs := testing.AllocsPerRun(100, func() {
		g.Open(window)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in gate hot path, got %.1f", allocs)
	}
}

func BenchmarkGateHotPath(b *testing.B) {
	g := NewGate(0.01, 2048)
	window := utils.GenerateSineWave(2048, testSampleRate, 220)

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		g.Open(window)
	}
}
