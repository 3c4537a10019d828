package store

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAddress is returned when a content address fails format
	// validation. No network call is made.
	ErrInvalidAddress = errors.New("invalid content address")

	// ErrUploadFailed is returned when the blob could not be stored.
	ErrUploadFailed = errors.New("upload failed")

	// ErrVerificationFailed is returned when the blob was stored but the
	// accessibility probe never saw it resolve: "stored but not yet
	// retrievable", as opposed to "not stored".
	ErrVerificationFailed = errors.New("uploaded content not yet retrievable")

	// ErrDownloadFailed is returned when a blob could not be fetched.
	ErrDownloadFailed = errors.New("download failed")
)

// StatusError represents a non-2xx response from the add endpoint or the
// gateway.
type StatusError struct {
	URL        string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("remote error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("remote error %d", e.StatusCode)
}

// Temporary classifies the status for the retry engine: request timeout,
// rate limiting and server-side failures are transient; auth failures,
// malformed requests, not-found and payload-too-large are not.
func (e *StatusError) Temporary() bool {
	switch e.StatusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// ParseError is returned when a remote response does not match the
// closed set of expected shapes. Responses are never best-effort
// scraped: an unexpected shape is rejected outright.
type ParseError struct {
	Op     string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: unexpected response shape: %s", e.Op, e.Reason)
}
