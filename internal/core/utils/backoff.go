package utils

import (
	"math"
	"time"
)

// DelayFunc returns the wait before retry number attempt (zero-based).
type DelayFunc func(attempt int) time.Duration

func FixedDelay(delay time.Duration) DelayFunc {
	return func(attempt int) time.Duration {
		return delay
	}
}

func ExponentialDelay(delay time.Duration, maxDelay time.Duration) DelayFunc {
	if delay <= 0 {
		return FixedDelay(0)
	}

	// Pre-calculate max shifts to prevent overflow
	logDelay := math.Floor(math.Log2(float64(delay)))
	var maxShifts uint
	if logDelay < 62 {
		maxShifts = 62 - uint(logDelay)
	}

	return func(attempt int) time.Duration {
		if attempt <= 0 {
			return min(delay, maxDelay)
		}

		n := min(uint(attempt), maxShifts)

		return min(delay<<n, maxDelay)
	}
}
