package retry

import (
	"fmt"
	"math/rand/v2"
	"time"

	"git.home.luguber.info/inful/jenkinsrest/internal/config"
)

// MaxJitter bounds the jitter fraction. Up to one third, doubling delays
// with symmetric jitter can never shrink from one retry to the next.
const MaxJitter = 1.0 / 3

// Policy encapsulates retry/backoff settings for transient failures.
// It is immutable after construction.
type Policy struct {
	Mode       config.RetryBackoffMode // fixed|linear|exponential
	Initial    time.Duration           // base delay
	Max        time.Duration           // cap for growth
	MaxRetries int                     // maximum retry attempts after the first failure
	Jitter     float64                 // symmetric fraction, 0 disables

	random func() float64
	now    func() time.Time
}

// DefaultPolicy returns the default policy (exponential, 200ms initial, 5s cap, 3 retries, ±20% jitter).
func DefaultPolicy() Policy {
	return Policy{
		Mode:       config.RetryBackoffExponential,
		Initial:    200 * time.Millisecond,
		Max:        5 * time.Second,
		MaxRetries: 3,
		Jitter:     0.2,
	}
}

// NewPolicy builds a policy from raw config fields; zero/invalid values fall back to defaults.
func NewPolicy(mode config.RetryBackoffMode, initial, maxDuration time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDuration > 0 {
		p.Max = maxDuration
	}
	if mode != "" {
		switch mode {
		case config.RetryBackoffFixed, config.RetryBackoffLinear, config.RetryBackoffExponential:
			p.Mode = mode
		default:
			// unknown -> keep default
		}
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// FromConfig builds the policy described by the client configuration.
func FromConfig(c config.ClientConfig) Policy {
	p := NewPolicy(c.BackoffMode, c.BaseBackoff, c.MaxBackoff, c.Retries())
	if !c.JitterEnabled() {
		p = p.WithJitter(0)
	}
	return p
}

// WithJitter returns a copy using fraction f, clamped to [0, MaxJitter].
func (p Policy) WithJitter(f float64) Policy {
	switch {
	case f < 0:
		f = 0
	case f > MaxJitter:
		f = MaxJitter
	}
	p.Jitter = f
	return p
}

// WithRandom returns a copy drawing jitter from f, which must return values in [0,1).
func (p Policy) WithRandom(f func() float64) Policy {
	p.random = f
	return p
}

// WithClock returns a copy that reads the current time from now.
func (p Policy) WithClock(now func() time.Time) Policy {
	p.now = now
	return p
}

// Delay returns the backoff delay for the given retry attempt number (1-based: first retry => 1).
func (p Policy) Delay(retryCount int) time.Duration {
	if retryCount <= 0 {
		return 0
	}
	switch p.Mode {
	case config.RetryBackoffFixed:
		return p.Initial
	case config.RetryBackoffExponential:
		if retryCount > 32 {
			return p.Max
		}
		d := p.Initial * (1 << (retryCount - 1))
		if d > p.Max || d <= 0 {
			return p.Max
		}
		return d
	default: // linear
		d := time.Duration(retryCount) * p.Initial
		if d > p.Max {
			return p.Max
		}
		return d
	}
}

// JitteredDelay applies symmetric jitter to Delay(retryCount). The result
// is clamped between the previous retry's upper bound and the cap, so the
// sequence is non-decreasing in every mode and never exceeds Max.
func (p Policy) JitteredDelay(retryCount int) time.Duration {
	base := p.Delay(retryCount)
	j := p.jitter()
	if base <= 0 || j == 0 {
		return base
	}

	lo := p.upper(retryCount-1, j)
	hi := max(lo, p.upper(retryCount, j))

	r := p.rand()
	d := time.Duration(float64(base) * (1 - j + 2*j*r))
	return min(max(d, lo), hi)
}

func (p Policy) upper(retryCount int, j float64) time.Duration {
	if retryCount <= 0 {
		return 0
	}
	return capBackoff(time.Duration(float64(p.Delay(retryCount))*(1+j)), p.Max)
}

func (p Policy) jitter() float64 {
	return min(max(p.Jitter, 0), MaxJitter)
}

func (p Policy) rand() float64 {
	if p.random != nil {
		return p.random()
	}
	return rand.Float64()
}

func (p Policy) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

// Validate ensures invariants; returns error if policy impossible to apply.
func (p Policy) Validate() error {
	if p.Initial <= 0 {
		return fmt.Errorf("initial must be >0")
	}
	if p.Max <= 0 {
		return fmt.Errorf("max must be >0")
	}
	if p.Initial > p.Max {
		return fmt.Errorf("initial %s exceeds max %s", p.Initial, p.Max)
	}
	if p.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if p.Jitter < 0 || p.Jitter > MaxJitter {
		return fmt.Errorf("jitter must be within [0, %.3f]", MaxJitter)
	}
	return nil
}

func capBackoff(d, maxDelay time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if maxDelay > 0 && d > maxDelay {
		return maxDelay
	}
	return d
}
