// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"time"
)

// Reading is one reported pitch: the window's estimate placed on the scale,
// together with how steady recent estimates of the same note have been.
type Reading struct {
	Time      time.Time `json:"time"`
	Frequency float64   `json:"frequency"` // Hz, this window
	Smoothed  float64   `json:"smoothed"`  // Hz, mean over the stability window
	Note      string    `json:"note"`
	Octave    int       `json:"octave"`
	MIDI      int       `json:"midi"`
	Cents     float64   `json:"cents"`     // signed deviation of Frequency from Note
	Deviation float64   `json:"deviation"` // unsigned distance from Note, in cents
	Stable    bool      `json:"stable"` // window full and Spread within tolerance
	Spread    float64   `json:"spread"` // standard deviation in cents
}

// String renders the reading as "A4 +3.1c 440.8 Hz".
func (r Reading) String() string {
	s := fmt.Sprintf("%s%d %+.1fc %.1f Hz", r.Note, r.Octave, r.Cents, r.Frequency)
	if r.Stable {
		s += " (stable)"
	}
	return s
}
