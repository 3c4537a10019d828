// Package transport provides the retry, backoff and timeout engine that
// every network-facing operation in the SDK runs through, plus a state
// machine for long-lived connections.
//
// [Execute] wraps a single logical operation: each attempt races the
// operation against a per-attempt deadline, transient failures are
// retried with exponential backoff and jitter, and exhaustion surfaces
// one terminal [*Error] carrying the operation name, the last cause and
// the total attempt count. Non-retryable failures short-circuit on the
// attempt that produced them.
//
// Cancellation is deadline-driven: hitting the per-attempt timeout
// unblocks the caller, but does not guarantee the remote side abandons
// the in-flight request.
package transport
