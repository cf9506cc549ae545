package circuit

import (
	"errors"
	"sync"
	"time"

	"roshi/internal/logger"
)

// ErrOpen is returned by Do while the breaker rejects calls.
var ErrOpen = errors.New("circuit open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}

// CircuitBreaker opens after threshold consecutive failures. Once timeout has
// elapsed it goes half-open and admits calls again; the first recorded result
// closes or reopens it.
type CircuitBreaker struct {
	mu            sync.Mutex
	notifyMu      sync.Mutex
	state         State
	failures      int
	threshold     int
	timeout       time.Duration
	lastFailure   time.Time
	name          string
	nowFn         func() time.Time
	onStateChange func(name string, from, to State)
}

func NewCircuitBreaker(name string, threshold int, timeout time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 1
	}
	return &CircuitBreaker{
		name:      name,
		threshold: threshold,
		timeout:   timeout,
		state:     StateClosed,
		nowFn:     time.Now,
	}
}

// SetStateChangeHandler registers handler to run synchronously, in transition
// order, after each state change. handler must not call Allow or Record*.
func (cb *CircuitBreaker) SetStateChangeHandler(handler func(name string, from, to State)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.onStateChange = handler
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	allowed := true
	changed := false
	from := cb.state
	if cb.state == StateOpen {
		allowed = cb.nowFn().Sub(cb.lastFailure) > cb.timeout
		if allowed {
			changed = cb.transition(StateHalfOpen)
		}
	}
	cb.unlockAndNotify(changed, from)
	return allowed
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	changed := false
	from := cb.state
	switch cb.state {
	case StateHalfOpen:
		cb.failures = 0
		changed = cb.transition(StateClosed)
	case StateClosed:
		cb.failures = 0
	}
	cb.unlockAndNotify(changed, from)
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	cb.failures++
	cb.lastFailure = cb.nowFn()
	changed := false
	from := cb.state
	switch cb.state {
	case StateClosed:
		if cb.failures >= cb.threshold {
			changed = cb.transition(StateOpen)
		}
	case StateHalfOpen:
		changed = cb.transition(StateOpen)
	}
	cb.unlockAndNotify(changed, from)
}

// Do runs fn when the breaker allows it and records the outcome. Errors for
// which ignore returns true (e.g. "no data for symbol") do not count as
// upstream failures.
func (cb *CircuitBreaker) Do(fn func() error, ignore func(error) bool) error {
	if !cb.Allow() {
		return ErrOpen
	}
	err := fn()
	switch {
	case err == nil:
		cb.RecordSuccess()
	case ignore != nil && ignore(err):
		cb.RecordSuccess()
	default:
		cb.RecordFailure()
	}
	return err
}

// transition must be called with mu held.
func (cb *CircuitBreaker) transition(to State) bool {
	from := cb.state
	cb.state = to
	logger.Warnf("CircuitBreaker %s state change: %s -> %s (failures=%d/%d, timeout=%s)",
		cb.name, from, to, cb.failures, cb.threshold, cb.timeout)
	return from != to
}

// unlockAndNotify releases mu and runs the handler outside it. notifyMu is
// taken before mu is released so handlers see transitions in order.
func (cb *CircuitBreaker) unlockAndNotify(changed bool, from State) {
	handler := cb.onStateChange
	if !changed || handler == nil {
		cb.mu.Unlock()
		return
	}
	to := cb.state
	cb.notifyMu.Lock()
	cb.mu.Unlock()
	defer cb.notifyMu.Unlock()
	handler(cb.name, from, to)
}
