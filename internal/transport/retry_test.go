package transport

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fatalErr is a non-retryable failure, like an authorization rejection.
type fatalErr struct{}

func (fatalErr) Error() string   { return "authorization failed" }
func (fatalErr) Temporary() bool { return false }

// flakyErr is a retryable failure, like a 503 from the remote.
type flakyErr struct{}

func (flakyErr) Error() string   { return "remote unavailable" }
func (flakyErr) Temporary() bool { return true }

func testPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		BaseDelay:      time.Millisecond,
		JitterFraction: 0,
		Timeout:        time.Second,
	}
}

func TestExecuteSuccessFirstAttempt(t *testing.T) {
	calls := 0
	result, err := Execute(context.Background(), "upload", testPolicy(), func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result != "ok" {
		t.Errorf("result = %q, want %q", result, "ok")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestExecuteRetriesThenSucceeds(t *testing.T) {
	// Fails maxAttempts-1 times, then succeeds: final success with
	// attempt count == maxAttempts and two backoff delays observed.
	calls := 0
	var delays []time.Duration

	p := testPolicy()
	p.OnRetry = func(attempt int, delay time.Duration) {
		delays = append(delays, delay)
	}

	result, err := Execute(context.Background(), "upload", p, func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, flakyErr{}
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result != 42 {
		t.Errorf("result = %d, want 42", result)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if len(delays) != 2 {
		t.Errorf("observed %d delays, want 2", len(delays))
	}
}

func TestExecuteExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Execute(context.Background(), "download", testPolicy(), func(ctx context.Context) (int, error) {
		calls++
		return 0, flakyErr{}
	})

	var terr *Error
	if !errors.As(err, &terr) {
		t.Fatalf("Execute() error = %T, want *Error", err)
	}
	if terr.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", terr.Attempts)
	}
	if !terr.Retryable {
		t.Error("Retryable = false for exhausted transient failure")
	}
	if !errors.Is(terr.Err, flakyErr{}) {
		t.Errorf("last cause = %v, want flakyErr", terr.Err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestExecuteFailsFastOnNonRetryable(t *testing.T) {
	calls := 0
	delayed := false

	p := testPolicy()
	p.OnRetry = func(int, time.Duration) { delayed = true }

	_, err := Execute(context.Background(), "upload", p, func(ctx context.Context) (int, error) {
		calls++
		return 0, fatalErr{}
	})

	var terr *Error
	if !errors.As(err, &terr) {
		t.Fatalf("Execute() error = %T, want *Error", err)
	}
	if terr.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", terr.Attempts)
	}
	if terr.Retryable {
		t.Error("Retryable = true for auth-class failure")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if delayed {
		t.Error("backoff delay invoked for fail-fast error")
	}
}

func TestExecuteAttemptTimeout(t *testing.T) {
	p := testPolicy()
	p.MaxAttempts = 2
	p.Timeout = 20 * time.Millisecond

	start := time.Now()
	_, err := Execute(context.Background(), "probe", p, func(ctx context.Context) (int, error) {
		<-ctx.Done() // hang until the attempt deadline
		time.Sleep(time.Hour)
		return 0, nil
	})
	elapsed := time.Since(start)

	var terr *Error
	if !errors.As(err, &terr) {
		t.Fatalf("Execute() error = %T, want *Error", err)
	}
	var tout *TimeoutError
	if !errors.As(terr.Err, &tout) {
		t.Fatalf("last cause = %T, want *TimeoutError", terr.Err)
	}
	if terr.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", terr.Attempts)
	}
	// Caller must be unblocked near the deadline, not after time.Hour.
	if elapsed > time.Second {
		t.Errorf("Execute() blocked for %v", elapsed)
	}
}

func TestExecuteParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Execute(ctx, "upload", testPolicy(), func(ctx context.Context) (int, error) {
		return 0, flakyErr{}
	})
	if err == nil {
		t.Fatal("Execute() with canceled context succeeded")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled in chain", err)
	}
}

func TestExecuteInvalidPolicy(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Policy)
	}{
		{"zero attempts", func(p *Policy) { p.MaxAttempts = 0 }},
		{"negative jitter", func(p *Policy) { p.JitterFraction = -0.1 }},
		{"jitter of one", func(p *Policy) { p.JitterFraction = 1.0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testPolicy()
			tt.mod(&p)
			_, err := Execute(context.Background(), "op", p, func(ctx context.Context) (int, error) {
				return 0, nil
			})
			if err == nil {
				t.Error("Execute() with invalid policy succeeded")
			}
		})
	}
}

func TestDelayBounds(t *testing.T) {
	p := Policy{
		MaxAttempts:    5,
		BaseDelay:      1000 * time.Millisecond,
		JitterFraction: 0.3,
		Timeout:        time.Second,
	}

	bounds := []struct {
		attempt  int
		min, max time.Duration
	}{
		{2, 700 * time.Millisecond, 1300 * time.Millisecond},
		{3, 1400 * time.Millisecond, 2600 * time.Millisecond},
		{4, 2800 * time.Millisecond, 5200 * time.Millisecond},
	}

	for _, b := range bounds {
		for i := 0; i < 200; i++ {
			d := p.Delay(b.attempt)
			if d < b.min || d > b.max {
				t.Fatalf("Delay(%d) = %v, want within [%v, %v]", b.attempt, d, b.min, b.max)
			}
		}
	}
}

func TestDelayNoJitterExact(t *testing.T) {
	p := Policy{MaxAttempts: 4, BaseDelay: time.Second}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 0},
		{2, time.Second},
		{3, 2 * time.Second},
		{4, 4 * time.Second},
	}
	for _, tt := range tests {
		if got := p.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestDefaultRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"timeout", &TimeoutError{Op: "upload", Timeout: time.Second}, true},
		{"network", &NetworkError{Err: errors.New("connection refused")}, true},
		{"temporary remote", flakyErr{}, true},
		{"auth", fatalErr{}, false},
		{"deadline", context.DeadlineExceeded, true},
		{"plain error", errors.New("malformed request"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultRetryable(tt.err); got != tt.want {
				t.Errorf("DefaultRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
