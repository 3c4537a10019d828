package transport

import (
	"fmt"
	"time"
)

// Error is the single terminal error surfaced by Execute. It carries the
// operation name, the total number of attempts made and the last
// underlying cause; intermediate attempt failures are never exposed
// individually.
type Error struct {
	Op        string
	Attempts  int
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("%s failed after %d attempts: %v", e.Op, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

// Unwrap returns the last underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// TimeoutError records an attempt that lost the race against its
// deadline. The operation is abandoned from the caller's perspective;
// any side effect already committed remotely is not rolled back.
type TimeoutError struct {
	Op      string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %v", e.Op, e.Timeout)
}

// Temporary marks timeouts as retryable for DefaultRetryable.
func (e *TimeoutError) Temporary() bool { return true }

// NetworkError represents a connectivity-level failure (DNS, connection
// refused, reset). Always retryable.
type NetworkError struct {
	Err error
	URL string
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Temporary marks connectivity failures as retryable.
func (e *NetworkError) Temporary() bool { return true }

// temporary is implemented by errors that know whether they are
// transient. Remote status errors implement it to distinguish
// rate-limit/unavailable signals from auth and validation failures.
type temporary interface {
	Temporary() bool
}
