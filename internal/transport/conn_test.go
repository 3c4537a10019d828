package transport

import (
	"context"
	"errors"
	"testing"
	"time"
)

func connPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		BaseDelay:      time.Millisecond,
		JitterFraction: 0,
		Timeout:        time.Second,
	}
}

func collectStates(r *Reconnector, done <-chan struct{}) []ConnState {
	var states []ConnState
	for {
		select {
		case ev := <-r.Events():
			states = append(states, ev.To)
		case <-done:
			// Drain anything left.
			for {
				select {
				case ev := <-r.Events():
					states = append(states, ev.To)
				default:
					return states
				}
			}
		}
	}
}

func TestReconnectorCleanLifecycle(t *testing.T) {
	release := make(chan struct{})
	dial := func(ctx context.Context, ready func()) error {
		ready()
		<-release
		return nil
	}

	r := NewReconnector(dial, connPolicy())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := r.Run(context.Background()); err != nil {
			t.Errorf("Run() error = %v", err)
		}
	}()

	waitForState(t, r, Connected)
	if r.Attempts() != 0 {
		t.Errorf("Attempts() = %d after successful connect, want 0", r.Attempts())
	}

	close(release)
	<-done
	if r.State() != Disconnected {
		t.Errorf("State() = %v after clean shutdown, want Disconnected", r.State())
	}
}

func TestReconnectorExhaustsBudget(t *testing.T) {
	calls := 0
	dial := func(ctx context.Context, ready func()) error {
		calls++
		return errors.New("connection refused")
	}

	r := NewReconnector(dial, connPolicy())
	err := r.Run(context.Background())

	var terr *Error
	if !errors.As(err, &terr) {
		t.Fatalf("Run() error = %T, want *Error", err)
	}
	if terr.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", terr.Attempts)
	}
	if calls != 3 {
		t.Errorf("dial calls = %d, want 3", calls)
	}
	if r.State() != Disconnected {
		t.Errorf("State() = %v, want Disconnected", r.State())
	}
}

func TestReconnectorRecoversAfterDrop(t *testing.T) {
	calls := 0
	release := make(chan struct{})
	dial := func(ctx context.Context, ready func()) error {
		calls++
		if calls == 1 {
			ready()
			return errors.New("connection reset") // drop after connecting
		}
		ready()
		<-release
		return nil
	}

	r := NewReconnector(dial, connPolicy())
	done := make(chan struct{})
	var runErr error
	go func() {
		defer close(done)
		runErr = r.Run(context.Background())
	}()

	// Wait for the second, stable connection.
	deadline := time.After(5 * time.Second)
	for calls < 2 || r.State() != Connected {
		select {
		case <-deadline:
			t.Fatalf("never reconnected: calls=%d state=%v", calls, r.State())
		case <-time.After(time.Millisecond):
		}
	}

	if r.Attempts() != 0 {
		t.Errorf("Attempts() = %d after successful reconnect, want 0", r.Attempts())
	}

	close(release)
	<-done
	if runErr != nil {
		t.Errorf("Run() error = %v", runErr)
	}

	states := collectStates(r, done)
	if !containsTransition(states, Reconnecting) {
		t.Errorf("states %v missing Reconnecting", states)
	}
}

func TestReconnectorContextCancel(t *testing.T) {
	dial := func(ctx context.Context, ready func()) error {
		ready()
		<-ctx.Done()
		return ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := NewReconnector(dial, connPolicy())

	done := make(chan struct{})
	var runErr error
	go func() {
		defer close(done)
		runErr = r.Run(ctx)
	}()

	waitForState(t, r, Connected)
	cancel()
	<-done

	if runErr != nil {
		t.Errorf("Run() error = %v, want nil on cancellation", runErr)
	}
	if r.State() != Disconnected {
		t.Errorf("State() = %v, want Disconnected", r.State())
	}
}

func TestConnStateString(t *testing.T) {
	tests := []struct {
		state ConnState
		want  string
	}{
		{Disconnected, "disconnected"},
		{Connecting, "connecting"},
		{Connected, "connected"},
		{Reconnecting, "reconnecting"},
		{ConnState(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func waitForState(t *testing.T, r *Reconnector, want ConnState) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for r.State() != want {
		select {
		case <-deadline:
			t.Fatalf("state = %v, never reached %v", r.State(), want)
		case <-time.After(time.Millisecond):
		}
	}
}

func containsTransition(states []ConnState, want ConnState) bool {
	for _, s := range states {
		if s == want {
			return true
		}
	}
	return false
}
