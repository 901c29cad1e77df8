package stream

import (
	"math/rand"
	"time"
)

// BackoffPolicy defines reconnect behavior after an abnormal close.
type BackoffPolicy struct {
	// InitialDelay is the delay before the first reconnect attempt.
	InitialDelay time.Duration `yaml:"initial_delay"`

	// MaxDelay caps the exponential growth.
	MaxDelay time.Duration `yaml:"max_delay"`

	// Factor multiplies the delay per attempt.
	Factor float64 `yaml:"factor"`

	// Jitter is the random variation applied to every delay, as a fraction
	// (0.2 means +/-20%). Jitter avoids synchronized reconnect storms.
	Jitter float64 `yaml:"jitter"`

	// MaxAttempts is the reconnect ceiling. Beyond it the connection error is
	// terminal and requires explicit reactivation.
	MaxAttempts int `yaml:"max_attempts"`
}

// DefaultBackoffPolicy returns the standard reconnect policy:
// 1s doubling to a 30s cap, +/-20% jitter, ten attempts.
func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Factor:       2.0,
		Jitter:       0.2,
		MaxAttempts:  10,
	}
}

// base computes the un-jittered delay for a zero-based attempt number.
func (p BackoffPolicy) base(attempt int) time.Duration {
	d := p.InitialDelay
	for i := 0; i < attempt; i++ {
		d = time.Duration(float64(d) * p.Factor)
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Delay returns the jittered delay to schedule before reconnect attempt
// number attempt (zero-based).
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	d := p.base(attempt)
	if p.Jitter <= 0 {
		return d
	}
	// Uniform in [1-jitter, 1+jitter].
	scale := 1 + p.Jitter*(2*rand.Float64()-1)
	return time.Duration(float64(d) * scale)
}

// Exhausted reports whether the zero-based attempt number is past the ceiling.
func (p BackoffPolicy) Exhausted(attempt int) bool {
	return attempt >= p.MaxAttempts
}

// Bounds returns the minimum and maximum delay that Delay may produce for the
// given attempt. Useful for observability and tests.
func (p BackoffPolicy) Bounds(attempt int) (min, max time.Duration) {
	d := p.base(attempt)
	if p.Jitter <= 0 {
		return d, d
	}
	min = time.Duration(float64(d) * (1 - p.Jitter))
	max = time.Duration(float64(d) * (1 + p.Jitter))
	return min, max
}
