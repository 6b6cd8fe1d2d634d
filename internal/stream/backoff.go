package stream

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultMaxAttempts = 5
	defaultBaseDelay   = time.Second
	defaultMaxDelay    = 10 * time.Second
)

// Policy bounds reconnection: the n-th consecutive retry waits
// min(BaseDelay * 2^n, MaxDelay), and at most MaxAttempts retries follow
// one successful open.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultPolicy returns 5 attempts, 1s base, 10s cap.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: defaultMaxAttempts,
		BaseDelay:   defaultBaseDelay,
		MaxDelay:    defaultMaxDelay,
	}
}

func (p Policy) normalized() Policy {
	def := DefaultPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = def.BaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}
	return p
}

// newBackOff returns a jitter-free exponential schedule starting at the
// first retry (BaseDelay*2) and stopping after MaxAttempts.
func (p Policy) newBackOff() backoff.BackOff {
	p = p.normalized()

	first := 2 * p.BaseDelay
	if first > p.MaxDelay {
		first = p.MaxDelay
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = first
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxInterval = p.MaxDelay
	exp.MaxElapsedTime = 0
	exp.Reset()

	return backoff.WithMaxRetries(exp, uint64(p.MaxAttempts))
}
