// SPDX-License-Identifier: MIT
/*
Package pitch estimates the fundamental frequency of a monophonic signal with
bitstream autocorrelation:

  - samples are binarized by a hysteresis zero-crossing detector
  - the bits are packed 32 to a word
  - XOR + popcount of the stream against lag-shifted copies of itself scores
    every candidate period
  - the best lag is demoted to its smallest strongly self-similar sub-period
  - the period is refined to sub-sample precision from the float signal's
    rising zero crossings

A Detector owns all buffers of one detection cycle and performs no
allocations after construction.
*/
package pitch

import (
	"errors"
	"fmt"

	"tuner/pkg/bitint"
)

// BitsPerWord is the width of one packed bitstream word.
const BitsPerWord = 32

// Default tunables: the human-musical range at CD sample rate.
const (
	DefaultMinFreq    = 50.0
	DefaultMaxFreq    = 500.0
	DefaultSampleRate = 44100.0
)

var (
	ErrInvalidRange = errors.New("pitch: frequency range must satisfy 0 < min_freq < max_freq")
	ErrNyquist      = errors.New("pitch: sample rate must exceed twice max_freq")
	ErrInvariant    = errors.New("pitch: derived buffer layout violates period/buffer ordering")
)

// Params holds the constants derived once from the three tunables. It is a
// plain value: derive it at startup and pass it to every component.
type Params struct {
	MinFreq       float64
	MaxFreq       float64
	SampleRate    float64
	BitsPerWord   int
	MinPeriod     int // shortest admissible lag, in samples
	MaxPeriod     int // longest admissible lag, in samples
	BufferSize    int // samples per detection window
	WordCount     int
	HalfWordCount int // whole words compared per lag
	HalfBuffer    int // exclusive upper bound of the lag search
}

// NewParams derives and validates the detection layout.
func NewParams(minFreq, maxFreq, sampleRate float64) (Params, error) {
	if !(minFreq > 0) || !(minFreq < maxFreq) {
		return Params{}, fmt.Errorf("%w (got %g..%g Hz)", ErrInvalidRange, minFreq, maxFreq)
	}
	if !(sampleRate > 2*maxFreq) {
		return Params{}, fmt.Errorf("%w (got %g Hz for max %g Hz)", ErrNyquist, sampleRate, maxFreq)
	}

	p := Params{
		MinFreq:     minFreq,
		MaxFreq:     maxFreq,
		SampleRate:  sampleRate,
		BitsPerWord: BitsPerWord,
		MinPeriod:   int(sampleRate / maxFreq),
		MaxPeriod:   int(sampleRate / minFreq),
	}
	p.BufferSize = bitint.NextPowerOfTwo(2 * p.MaxPeriod)
	p.WordCount = p.BufferSize / BitsPerWord
	p.HalfWordCount = p.WordCount/2 - 1
	p.HalfBuffer = p.BufferSize / 2

	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// DefaultParams returns the 50–500 Hz layout at 44.1 kHz.
func DefaultParams() Params {
	p, err := NewParams(DefaultMinFreq, DefaultMaxFreq, DefaultSampleRate)
	if err != nil {
		panic(err) // constant inputs
	}
	return p
}

// Validate checks the ordering invariants of the derived layout.
func (p Params) Validate() error {
	switch {
	case p.MinPeriod < 1:
		return fmt.Errorf("%w: min period %d < 1", ErrInvariant, p.MinPeriod)
	case !(p.MinPeriod < p.MaxPeriod && p.MaxPeriod < p.HalfBuffer && p.HalfBuffer < p.BufferSize):
		return fmt.Errorf("%w: need %d < %d < %d < %d", ErrInvariant,
			p.MinPeriod, p.MaxPeriod, p.HalfBuffer, p.BufferSize)
	case !bitint.IsPowerOfTwo(p.BufferSize) || p.BufferSize%BitsPerWord != 0:
		return fmt.Errorf("%w: buffer size %d is not a power of two multiple of %d",
			ErrInvariant, p.BufferSize, BitsPerWord)
	case p.HalfWordCount < 1:
		return fmt.Errorf("%w: buffer of %d samples is too short to correlate", ErrInvariant, p.BufferSize)
	}
	return nil
}

// LagToFrequency converts a period in samples to Hz.
func (p Params) LagToFrequency(lag float64) float64 {
	return p.SampleRate / lag
}

// String summarises the layout for startup logs.
func (p Params) String() string {
	return fmt.Sprintf("range=%g-%gHz rate=%gHz periods=%d-%d window=%d words=%d",
		p.MinFreq, p.MaxFreq, p.SampleRate, p.MinPeriod, p.MaxPeriod, p.BufferSize, p.WordCount)
}
