// SPDX-License-Identifier: MIT
package pitch

import (
	"math"

	"tuner/pkg/bitint"
)

// Bitstream packs one detection window, one bit per sample.
// Bit i lives at bit i%32 of word i/32.
type Bitstream struct {
	params Params
	words  []uint32
}

// Correlation is the outcome of one autocorrelation sweep.
type Correlation struct {
	MaxScore uint32   // largest dissimilarity seen, anchors relative thresholds
	BestLag  int      // lag with the smallest dissimilarity, first one wins ties
	Scores   []uint32 // dissimilarity indexed by lag, zero below the start lag
}

// NewBitstream allocates a zeroed bitstream for the given layout.
func NewBitstream(p Params) *Bitstream {
	return &Bitstream{
		params: p,
		words:  make([]uint32, p.WordCount),
	}
}

// Len returns the number of addressable bits.
func (b *Bitstream) Len() int {
	return b.params.BufferSize
}

// Set writes bit i. i must be below Len().
func (b *Bitstream) Set(i int, v bool) {
	w := &b.words[i/BitsPerWord]
	mask := uint32(1) << (i % BitsPerWord)

	// All ones or all zeros; XOR-ing the masked difference flips only bit i
	// when it disagrees with v.
	var id uint32
	if v {
		id = math.MaxUint32
	}
	*w ^= (id ^ *w) & mask
}

// Get reads bit i. i must be below Len().
func (b *Bitstream) Get(i int) bool {
	mask := uint32(1) << (i % BitsPerWord)
	return b.words[i/BitsPerWord]&mask != 0
}

// Clear zeroes every word.
func (b *Bitstream) Clear() {
	clear(b.words)
}

// Fill binarizes window[:Len()] through zc. The window must hold at least
// Len() samples.
func (b *Bitstream) Fill(window []float32, zc *ZeroCrossing) {
	for i, s := range window[:b.params.BufferSize] {
		b.Set(i, zc.Run(s))
	}
}

// Autocorrelate scores every lag in [startLag, HalfBuffer) by the Hamming
// distance between the stream and itself shifted left by lag bits, over
// HalfWordCount words. scores is reused when it has room for HalfBuffer
// entries, otherwise a new table is allocated.
func (b *Bitstream) Autocorrelate(startLag int, scores []uint32) Correlation {
	p := b.params
	if cap(scores) < p.HalfBuffer {
		scores = make([]uint32, p.HalfBuffer)
	}
	scores = scores[:p.HalfBuffer]
	clear(scores)

	var (
		maxScore uint32
		minScore uint32 = math.MaxUint32
		bestLag  int
		index    = startLag / BitsPerWord
		shift    = uint(startLag % BitsPerWord)
		words    = b.words
	)

	for lag := startLag; lag < p.HalfBuffer; lag++ {
		var count uint32
		p2 := index
		if shift == 0 {
			for p1 := 0; p1 < p.HalfWordCount; p1++ {
				count += bitint.Distance32(words[p1], words[p2])
				p2++
			}
		} else {
			for p1 := 0; p1 < p.HalfWordCount; p1++ {
				v := bitint.Funnel32(words[p2], words[p2+1], shift)
				p2++
				count += bitint.Distance32(words[p1], v)
			}
		}

		shift++
		if shift == BitsPerWord {
			shift = 0
			index++
		}

		scores[lag] = count
		maxScore = max(maxScore, count)
		if count < minScore {
			minScore = count
			bestLag = lag
		}
	}

	return Correlation{MaxScore: maxScore, BestLag: bestLag, Scores: scores}
}
