package transport

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// Policy configures retry behavior for one class of operations. Policies
// are configuration: build one per operation class and reuse it.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Must be at least 1.
	MaxAttempts int
	// BaseDelay is the delay before the first retry. Subsequent retries
	// double it.
	BaseDelay time.Duration
	// JitterFraction randomizes each delay by up to this fraction in
	// either direction. Must be in [0, 1).
	JitterFraction float64
	// Timeout is the hard per-attempt deadline.
	Timeout time.Duration
	// Retryable classifies an attempt failure. Nil means
	// DefaultRetryable.
	Retryable func(error) bool
	// OnRetry, if set, is called before each backoff sleep with the
	// upcoming attempt number and the chosen delay. Callers use it to
	// surface "retrying" feedback.
	OnRetry func(attempt int, delay time.Duration)
}

// DefaultPolicy returns the baseline policy: 3 attempts, 1s base delay,
// 20% jitter, 30s per-attempt timeout.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		BaseDelay:      time.Second,
		JitterFraction: 0.2,
		Timeout:        30 * time.Second,
	}
}

// DefaultRetryable treats timeouts, connectivity failures and errors
// self-reporting as temporary (rate-limit, remote-unavailable) as
// retryable. Everything else — auth failures, malformed requests,
// not-found, payload-too-large — fails fast.
func DefaultRetryable(err error) bool {
	var tmp temporary
	if errors.As(err, &tmp) {
		return tmp.Temporary()
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func (p Policy) validate() error {
	if p.MaxAttempts < 1 {
		return errors.New("transport: MaxAttempts must be at least 1")
	}
	if p.JitterFraction < 0 || p.JitterFraction >= 1 {
		return errors.New("transport: JitterFraction must be in [0, 1)")
	}
	return nil
}

// Delay returns the backoff delay before the given attempt (attempt 2 is
// the first retry):
//
//	delay = BaseDelay × 2^(attempt-2) × (1 + U(-jitter, +jitter))
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 2 {
		return 0
	}

	delay := float64(p.BaseDelay) * math.Pow(2, float64(attempt-2))
	if p.JitterFraction > 0 {
		delay *= 1 + (rand.Float64()*2-1)*p.JitterFraction
	}
	return time.Duration(delay)
}

// Execute runs op under the policy. Exactly one attempt is in flight at
// any time. Each attempt gets its own deadline derived from
// Policy.Timeout; an attempt that misses the deadline is recorded as a
// TimeoutError and, being retryable, consumes an attempt like any other
// transient failure.
//
// On success the result is returned as-is. On a non-retryable failure or
// on exhaustion, a single *Error is returned carrying the operation
// name, the last cause and the attempt count.
func Execute[T any](ctx context.Context, op string, p Policy, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if err := p.validate(); err != nil {
		return zero, err
	}
	if p.Retryable == nil {
		p.Retryable = DefaultRetryable
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := p.Delay(attempt)
			if p.OnRetry != nil {
				p.OnRetry(attempt, delay)
			}
			if err := sleep(ctx, delay); err != nil {
				return zero, &Error{Op: op, Attempts: attempt - 1, Err: err}
			}
		}

		result, err := runAttempt(ctx, op, p.Timeout, fn)
		if err == nil {
			return result, nil
		}
		lastErr = err

		// A canceled parent context is terminal regardless of
		// classification.
		if ctx.Err() != nil {
			return zero, &Error{Op: op, Attempts: attempt, Err: ctx.Err()}
		}
		if !p.Retryable(err) {
			return zero, &Error{Op: op, Attempts: attempt, Err: err}
		}
	}

	return zero, &Error{Op: op, Attempts: p.MaxAttempts, Retryable: true, Err: lastErr}
}

// runAttempt races fn against the per-attempt deadline. If the deadline
// wins, the attempt goroutine is abandoned; its eventual result is
// discarded via the buffered channel.
func runAttempt[T any](ctx context.Context, op string, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	attemptCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type outcome struct {
		result T
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		result, err := fn(attemptCtx)
		done <- outcome{result: result, err: err}
	}()

	select {
	case o := <-done:
		return o.result, o.err
	case <-attemptCtx.Done():
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		return zero, &TimeoutError{Op: op, Timeout: timeout}
	}
}

// sleep waits for the delay or until the context is done.
func sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
