// SPDX-License-Identifier: MIT
package pitch

// subThresholdRatio is the fraction of the sweep's worst score below which a
// lag counts as a strong match.
const subThresholdRatio = 0.15

// CorrectHarmonics guards against octave errors. The best lag often lands on
// a multiple of the true period because every multiple of a period is itself
// self-similar. Divisors are tried from the largest (BestLag/MinPeriod) down
// to 1 and the first one whose multiples k*(BestLag/d), k = 1..d-1, all
// score below the threshold gives the corrected lag BestLag/d. The d-th
// multiple is BestLag itself and is not rescored. Without such a divisor
// BestLag is returned unchanged.
func CorrectHarmonics(p Params, c Correlation) int {
	if c.BestLag < p.MinPeriod || c.BestLag >= len(c.Scores) {
		return c.BestLag
	}

	threshold := subThresholdRatio * float64(c.MaxScore)
	best := float64(c.BestLag)

	for div := c.BestLag / p.MinPeriod; div >= 1; div-- {
		sub := best / float64(div)
		if allStrong(c.Scores, sub, div, threshold) {
			return int(sub)
		}
	}
	return c.BestLag
}

func allStrong(scores []uint32, sub float64, div int, threshold float64) bool {
	for k := 1; k < div; k++ {
		lag := int(float64(k) * sub)
		if lag >= len(scores) || !(float64(scores[lag]) < threshold) {
			return false
		}
	}
	return true
}
