package failure

import "time"

// MaxAttempts bounds the automatic retry loop: attempts 0..3 may run,
// attempt 4 never does.
const MaxAttempts = 4

// Backoff returns the delay before the attempt following a retryable
// failure at the given zero-based attempt. The observed delay sequence for
// attempts 0..3 is 0,1,2,4 units (the first attempt runs immediately on
// enqueue).
func Backoff(attempt int, unit time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	return unit * (1 << attempt)
}

// ShouldRetry reports whether a job that just failed its zero-based
// attempt with the given classification gets another automatic attempt.
func ShouldRetry(c Classification, attempt int) bool {
	return c.Retryable && attempt < MaxAttempts-1
}
