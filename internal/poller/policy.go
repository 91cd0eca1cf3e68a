package poller

import "time"

// Policy is the adaptive interval state of the poller. The interval starts
// at Fast, drops to Slow once Failures exceeds Threshold and returns to Fast
// on the next success.
type Policy struct {
	Fast      time.Duration
	Slow      time.Duration
	Threshold int

	Interval time.Duration
	Failures int
}

// NewPolicy returns a policy running at the fast interval.
func NewPolicy(fast, slow time.Duration, threshold int) Policy {
	return Policy{
		Fast:      fast,
		Slow:      slow,
		Threshold: threshold,
		Interval:  fast,
	}
}

// Failure records a failed cycle. It reports whether the interval changed.
func (p *Policy) Failure() bool {
	p.Failures++
	if p.Failures > p.Threshold && p.Interval != p.Slow {
		p.Interval = p.Slow
		return true
	}
	return false
}

// Success records an answered cycle. It reports whether the interval changed.
func (p *Policy) Success() bool {
	p.Failures = 0
	if p.Interval != p.Fast {
		p.Interval = p.Fast
		return true
	}
	return false
}
