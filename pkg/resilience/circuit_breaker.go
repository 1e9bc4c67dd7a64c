package resilience

import (
	"errors"
	"sync"
	"time"
)

// RateLimitError reports an HTTP 429 from a speech endpoint.
type RateLimitError struct {
	Endpoint string
	Message  string
}

func (e RateLimitError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "rate limit"
	}
	if e.Endpoint == "" {
		return msg
	}
	return e.Endpoint + ": " + msg
}

// IsRateLimit returns true when the error is a RateLimitError.
func IsRateLimit(err error) bool {
	var rl RateLimitError
	return errors.As(err, &rl)
}

// CircuitBreaker stops dial attempts after consecutive rate-limit
// rejections, so a throttled endpoint is not hammered with fresh
// handshakes during the cooldown.
type CircuitBreaker struct {
	mu        sync.Mutex
	failures  int
	threshold int
	openUntil time.Time
	cooldown  time.Duration
}

// NewCircuitBreaker opens after threshold consecutive rate-limit
// errors and stays open for cooldown. Non-positive arguments fall
// back to 3 failures and a 30 second cooldown.
func NewCircuitBreaker(threshold int, cooldown time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 3
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &CircuitBreaker{threshold: threshold, cooldown: cooldown}
}

func (c *CircuitBreaker) Allow() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !time.Now().Before(c.openUntil)
}

func (c *CircuitBreaker) OnSuccess() {
	c.mu.Lock()
	c.failures = 0
	c.openUntil = time.Time{}
	c.mu.Unlock()
}

// OnError counts rate-limit errors only; transport and protocol
// failures never open the circuit.
func (c *CircuitBreaker) OnError(err error) {
	if !IsRateLimit(err) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures++
	if c.failures >= c.threshold {
		c.openUntil = time.Now().Add(c.cooldown)
	}
}
