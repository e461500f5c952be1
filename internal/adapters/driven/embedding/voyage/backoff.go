package voyage

import "time"

// Retry policy defaults.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 500 * time.Millisecond
	DefaultMaxDelay    = 8 * time.Second
)

// Policy is a deterministic exponential backoff schedule. It holds no
// state; callers pass the attempt number and decide how to wait, which
// keeps the schedule trivially testable.
type Policy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int

	// BaseDelay is the wait before the first retry. Each subsequent
	// retry doubles it.
	BaseDelay time.Duration

	// MaxDelay caps the doubling.
	MaxDelay time.Duration
}

// DefaultPolicy returns the standard retry schedule.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
	}
}

// Next returns the delay before retrying after the given failed attempt
// (0-based). ok is false once the attempt budget is exhausted.
func (p Policy) Next(attempt int) (delay time.Duration, ok bool) {
	if attempt < 0 || attempt >= p.MaxAttempts-1 {
		return 0, false
	}

	delay = p.BaseDelay << uint(attempt)
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay, true
}
