package amqp

import (
	"errors"
	"sync"
	"time"
)

// Circuit breaker states
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// breaker opens after threshold consecutive failures and lets one trial
// through once cooldown has passed. A failed trial reopens it.
type breaker struct {
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	mu          sync.Mutex
	state       int32
	failures    int
	lastFailure time.Time
}

func newBreaker(threshold int, cooldown time.Duration) *breaker {
	return &breaker{threshold: threshold, cooldown: cooldown, now: time.Now}
}

// allow reports whether a call may proceed, moving an expired open breaker to
// half-open.
func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateOpen {
		return true
	}
	if b.now().Sub(b.lastFailure) > b.cooldown {
		b.state = StateHalfOpen
		return true
	}
	return false
}

func (b *breaker) failure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	b.lastFailure = b.now()
	if b.failures >= b.threshold || b.state == StateHalfOpen {
		b.state = StateOpen
	}
}

func (b *breaker) success() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.state = StateClosed
}

func (b *breaker) current() int32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
