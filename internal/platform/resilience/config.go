package resilience

import (
	"fmt"
	"time"
)

const (
	defaultFailureThreshold = 5
	defaultOpenTimeout      = 15 * time.Second
	defaultHalfOpenMaxReq   = 1
)

// CircuitBreakerConfig tunes one breaker. Zero values fall back to the
// defaults above when the breaker is built.
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMaxReq   int
}

// Validate rejects negative settings. Zero is accepted and means "use the default".
func (c CircuitBreakerConfig) Validate() error {
	if c.FailureThreshold < 0 {
		return fmt.Errorf("circuit breaker failure threshold must be >= 0, got=%d", c.FailureThreshold)
	}
	if c.OpenTimeout < 0 {
		return fmt.Errorf("circuit breaker open timeout must be >= 0, got=%s", c.OpenTimeout)
	}
	if c.HalfOpenMaxReq < 0 {
		return fmt.Errorf("circuit breaker half-open requests must be >= 0, got=%d", c.HalfOpenMaxReq)
	}
	return nil
}

func (c CircuitBreakerConfig) withDefaults() CircuitBreakerConfig {
	if c.FailureThreshold < 1 {
		c.FailureThreshold = defaultFailureThreshold
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = defaultOpenTimeout
	}
	if c.HalfOpenMaxReq < 1 {
		c.HalfOpenMaxReq = defaultHalfOpenMaxReq
	}
	return c
}
