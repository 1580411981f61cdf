// SPDX-License-Identifier: MIT
package bitint

import (
	"fmt"
	"math/bits"
	"testing"
)

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct {
		n        int
		expected int
	}{
		{-10, 1},     // Negative number
		{0, 1},       // Zero
		{1, 1},       // One
		{8, 8},       // Already power of two
		{10, 16},     // Not power of two
		{1000, 1024}, // Large number
		{1764, 2048}, // Two periods of 50 Hz at 44.1 kHz
		{1920, 2048}, // Two periods of 50 Hz at 48 kHz
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d→%d", tt.n, tt.expected), func(t *testing.T) {
			result := NextPowerOfTwo(tt.n)
			if result != tt.expected {
				t.Errorf("NextPowerOfTwo(%d) = %d, expected %d", tt.n, result, tt.expected)
			}
		})
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	tests := []struct {
		n        int
		expected bool
	}{
		{-2, false},     // Negative number
		{0, false},      // Zero
		{1, true},       // One
		{8, true},       // Power of two
		{10, false},     // Not power of two
		{1 << 20, true}, // Large power of two
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d→%t", tt.n, tt.expected), func(t *testing.T) {
			result := IsPowerOfTwo(tt.n)
			if result != tt.expected {
				t.Errorf("IsPowerOfTwo(%d) = %v, expected %v", tt.n, result, tt.expected)
			}
		})
	}
}

func TestDistance32(t *testing.T) {
	tests := []struct {
		a, b     uint32
		expected uint32
	}{
		{0, 0, 0},
		{0xFFFFFFFF, 0, 32},
		{0b1010, 0b0101, 4},
		{0xF0F0F0F0, 0xF0F0F0F1, 1},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%#x^%#x", tt.a, tt.b), func(t *testing.T) {
			if got := Distance32(tt.a, tt.b); got != tt.expected {
				t.Errorf("Distance32(%#x, %#x) = %d, expected %d", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestFunnel32(t *testing.T) {
	lo := uint32(0x89ABCDEF)
	hi := uint32(0x01234567)
	pair := uint64(hi)<<32 | uint64(lo)

	for shift := uint(1); shift < 32; shift++ {
		want := uint32(pair >> shift)
		if got := Funnel32(lo, hi, shift); got != want {
			t.Errorf("Funnel32(shift=%d) = %#x, expected %#x", shift, got, want)
		}
	}
}

func TestFunnel32MatchesBitByBit(t *testing.T) {
	lo := uint32(0xDEADBEEF)
	hi := uint32(0x0BADF00D)
	const shift = 7

	got := Funnel32(lo, hi, shift)
	for i := 0; i < 32; i++ {
		src := i + shift
		var bit uint32
		if src < 32 {
			bit = (lo >> src) & 1
		} else {
			bit = (hi >> (src - 32)) & 1
		}
		if (got>>i)&1 != bit {
			t.Fatalf("bit %d = %d, expected %d", i, (got>>i)&1, bit)
		}
	}
	if bits.OnesCount32(got) == 0 {
		t.Error("expected a non-empty funnel result")
	}
}

func BenchmarkNextPowerOfTwo(b *testing.B) {
	var i int
	b.ReportAllocs()
	for b.Loop() {
		NextPowerOfTwo(i % 10000)
		i++
	}
}

func BenchmarkDistance32(b *testing.B) {
	var i uint32
	b.ReportAllocs()
	for b.Loop() {
		_ = Distance32(i, Funnel32(i, ^i, 13))
		i++
	}
}
