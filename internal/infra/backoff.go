package infra

import (
	"time"
)

const (
	baseDelay = 1 * time.Second
	maxDelay  = 30 * time.Second
)

// CalculateBackoff returns the exponential backoff duration for a given
// retry count: baseDelay * 2^retryCount, capped at maxDelay.
// A negative retryCount returns baseDelay.
func CalculateBackoff(retryCount int) time.Duration {
	if retryCount < 0 {
		return baseDelay
	}

	// 2^30s already exceeds any sane cap; guard the shift.
	if retryCount > 30 {
		return maxDelay
	}

	backoff := baseDelay * time.Duration(1<<retryCount)
	if backoff > maxDelay {
		return maxDelay
	}

	return backoff
}
