package valueobjects

import "time"

// RetryPolicy is an exponential-backoff retry budget (§4.4).
// It is a pure value type: computing a delay never sleeps or blocks: the
// caller is handed the delay and decides when to re-admit the work.
type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Exponential  bool
}

// DefaultRetryPolicy is the engine-wide default: {3, 1s, 10s, 2.0}.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   3,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Exponential:  true,
	}
}

// AggressiveRetryPolicy is {5, 500ms, 5s, 1.5}.
func AggressiveRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   5,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   1.5,
		Exponential:  true,
	}
}

// ConservativeRetryPolicy is {2, 2s, 20s, 3.0}.
func ConservativeRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   2,
		InitialDelay: 2 * time.Second,
		MaxDelay:     20 * time.Second,
		Multiplier:   3.0,
		Exponential:  true,
	}
}

// DelayForAttempt returns the backoff delay for the n-th attempt (0-indexed).
// Exponential policies saturate at MaxDelay; non-exponential policies always
// return InitialDelay.
func (p RetryPolicy) DelayForAttempt(n int) time.Duration {
	if !p.Exponential {
		return p.InitialDelay
	}
	delay := float64(p.InitialDelay)
	for i := 0; i < n; i++ {
		delay *= p.Multiplier
		if delay >= float64(p.MaxDelay) {
			return p.MaxDelay
		}
	}
	if delay > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(delay)
}

// CanRetry reports whether another attempt is permitted given retryCount
// attempts already made.
func (p RetryPolicy) CanRetry(retryCount int) bool {
	return retryCount < p.MaxRetries
}
