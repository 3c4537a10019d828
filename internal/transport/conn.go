package transport

import (
	"context"
	"sync"
)

// ConnState is the state of a long-lived connection.
type ConnState int

const (
	// Disconnected means no connection exists and no attempt is running.
	Disconnected ConnState = iota
	// Connecting means the first connection attempt is in progress.
	Connecting
	// Connected means the connection is established.
	Connected
	// Reconnecting means the connection dropped and a bounded reconnect
	// loop is running.
	Reconnecting
)

func (s ConnState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// StateChange is one observed transition of a Reconnector.
type StateChange struct {
	From    ConnState
	To      ConnState
	Attempt int
	Err     error
}

// DialFunc establishes a connection and blocks for its lifetime. It must
// call ready exactly once when the connection is up, then return nil on
// clean shutdown or an error when the connection fails or drops.
type DialFunc func(ctx context.Context, ready func()) error

// Reconnector drives a long-lived connection through an explicit state
// machine (Disconnected, Connecting, Connected, Reconnecting) with
// bounded reconnect attempts and backoff taken from a Policy. The
// attempt counter resets only on a successful (re)connection.
type Reconnector struct {
	dial   DialFunc
	policy Policy

	mu       sync.RWMutex
	state    ConnState
	attempts int
	lastErr  error
	events   chan StateChange
}

// NewReconnector creates a reconnector. policy.MaxAttempts bounds the
// consecutive failed connection attempts before giving up.
func NewReconnector(dial DialFunc, policy Policy) *Reconnector {
	return &Reconnector{
		dial:   dial,
		policy: policy,
		state:  Disconnected,
		events: make(chan StateChange, 16),
	}
}

// State returns the current connection state.
func (r *Reconnector) State() ConnState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Attempts returns the number of consecutive failed connection attempts
// since the last successful connection.
func (r *Reconnector) Attempts() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.attempts
}

// Events returns the stream of state changes. The channel is buffered;
// if a consumer falls behind, events are dropped rather than blocking
// the connection loop.
func (r *Reconnector) Events() <-chan StateChange {
	return r.events
}

func (r *Reconnector) transition(to ConnState, attempt int, err error) {
	r.mu.Lock()
	from := r.state
	r.state = to
	r.mu.Unlock()

	if from == to {
		return
	}
	select {
	case r.events <- StateChange{From: from, To: to, Attempt: attempt, Err: err}:
	default:
		// Drop rather than block.
	}
}

// Run drives the connection until the context is canceled, the dial
// returns cleanly from an established connection, or the reconnect
// budget is exhausted. It returns nil in the first two cases and a
// terminal *Error in the last.
func (r *Reconnector) Run(ctx context.Context) error {
	if err := r.policy.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	r.attempts = 0
	r.lastErr = nil
	r.mu.Unlock()

	everConnected := false

	for {
		r.mu.Lock()
		r.attempts++
		attempt := r.attempts
		r.mu.Unlock()

		if attempt > r.policy.MaxAttempts {
			lastErr := r.lastError()
			r.transition(Disconnected, attempt-1, lastErr)
			return &Error{Op: "connect", Attempts: attempt - 1, Err: lastErr}
		}

		if everConnected || attempt > 1 {
			r.transition(Reconnecting, attempt, r.lastError())
			delayAttempt := attempt
			if delayAttempt < 2 {
				delayAttempt = 2
			}
			if err := sleep(ctx, r.policy.Delay(delayAttempt)); err != nil {
				r.transition(Disconnected, attempt, nil)
				return nil
			}
		} else {
			r.transition(Connecting, attempt, nil)
		}

		connectedThisDial := false
		err := r.dial(ctx, func() {
			connectedThisDial = true
			everConnected = true
			r.mu.Lock()
			r.attempts = 0
			r.lastErr = nil
			r.mu.Unlock()
			r.transition(Connected, attempt, nil)
		})

		if ctx.Err() != nil {
			r.transition(Disconnected, attempt, nil)
			return nil
		}
		if err == nil && connectedThisDial {
			// Clean shutdown of an established connection.
			r.transition(Disconnected, attempt, nil)
			return nil
		}

		r.mu.Lock()
		r.lastErr = err
		r.mu.Unlock()
	}
}

func (r *Reconnector) lastError() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastErr
}
