// Package backoff computes retry delays for the recovery cascade.
package backoff

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Policy holds the backoff parameters. The zero value is not usable; start
// from DefaultPolicy.
type Policy struct {
	Base       time.Duration `yaml:"base"`
	Multiplier float64       `yaml:"multiplier"`
	MaxDelay   time.Duration `yaml:"max_delay"`
	Jitter     bool          `yaml:"jitter"`
}

// UnmarshalYAML accepts durations in time.ParseDuration form ("500ms", "2s")
// so config files stay readable.
func (p *Policy) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw struct {
		Base       string  `yaml:"base"`
		Multiplier float64 `yaml:"multiplier"`
		MaxDelay   string  `yaml:"max_delay"`
		Jitter     bool    `yaml:"jitter"`
	}
	if err := unmarshal(&raw); err != nil {
		return err
	}

	p.Multiplier = raw.Multiplier
	p.Jitter = raw.Jitter
	if raw.Base != "" {
		d, err := time.ParseDuration(raw.Base)
		if err != nil {
			return fmt.Errorf("invalid backoff base: %w", err)
		}
		p.Base = d
	}
	if raw.MaxDelay != "" {
		d, err := time.ParseDuration(raw.MaxDelay)
		if err != nil {
			return fmt.Errorf("invalid backoff max_delay: %w", err)
		}
		p.MaxDelay = d
	}
	return nil
}

// DefaultPolicy returns 1s, 2s, 4s, ... capped at 60s, no jitter.
func DefaultPolicy() Policy {
	return Policy{
		Base:       1 * time.Second,
		Multiplier: 2.0,
		MaxDelay:   60 * time.Second,
		Jitter:     false,
	}
}

// Delay computes the wait before retrying attempt+1, where attempt is 1-based:
// min(base * multiplier^(attempt-1), maxDelay). With jitter enabled the result
// is perturbed by up to ±25%, floored at zero. Pure apart from the jitter
// randomness; the caller performs the actual wait.
func Delay(attempt int, p Policy) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(p.Base) * math.Pow(p.Multiplier, float64(attempt-1))
	if d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	if p.Jitter {
		// Uniform in [-0.25, +0.25].
		d += d * (rand.Float64()*0.5 - 0.25)
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}
