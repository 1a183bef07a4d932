package pwm

import "math"

func validDuty(duty float64) bool {
	// NaN fails both comparisons.
	return duty >= 0 && duty <= 1
}

// ratioFor returns the largest ratio not exceeding period*duty.
func ratioFor(period uint32, duty float64) uint32 {
	return uint32(math.Floor(float64(period) * duty))
}

// dutyFor converts a raw ratio back into a duty cycle. It reports false when
// period is zero.
func dutyFor(ratio, period uint32) (float64, bool) {
	if period == 0 {
		return 0, false
	}
	return float64(ratio) / float64(period), true
}
