// Package ratecurve computes the linearly decaying reward rate for plays.
package ratecurve

// Rate returns the reward rate in basis points at time now.
//
// The rate is maxRate up to and including decayStart, minRate from deadline on,
// and in between falls linearly. The per-second slope is divided before it is
// multiplied, so a window longer than the rate spread stays flat at minRate:
//
//	((maxRate - minRate) / (deadline - decayStart)) * (deadline - now) + minRate
func Rate(now, decayStart, deadline, minRate, maxRate uint64) uint64 {
	if now <= decayStart {
		return maxRate
	}
	if now >= deadline {
		return minRate
	}
	// deadline > now > decayStart, so the window is non-empty here.
	if maxRate <= minRate {
		return minRate
	}

	slope := (maxRate - minRate) / (deadline - decayStart)
	return slope*(deadline-now) + minRate
}
