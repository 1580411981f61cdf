// SPDX-License-Identifier: MIT
package pitch

// Hysteresis thresholds: a sample must drop below fallThreshold to clear the
// level and rise above riseThreshold to set it.
const (
	fallThreshold = -0.1
	riseThreshold = 0.0
)

// ZeroCrossing is a Schmitt-trigger classifier turning samples into levels.
type ZeroCrossing struct {
	level bool
}

// Run feeds one sample and returns the updated level.
func (z *ZeroCrossing) Run(s float32) bool {
	if s < fallThreshold {
		z.level = false
	}
	if s > riseThreshold {
		z.level = true
	}
	return z.level
}

// Reset returns the detector to the low level.
func (z *ZeroCrossing) Reset() {
	z.level = false
}
