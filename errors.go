package chronovault

import (
	"errors"
	"fmt"

	"github.com/chronovault/client-go/internal/crypto"
	"github.com/chronovault/client-go/internal/store"
	"github.com/chronovault/client-go/internal/transport"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrInvalidAddress is returned when a content address fails format
	// validation before any network call.
	ErrInvalidAddress = errors.New("invalid content address")

	// ErrInvalidRecipientKey is returned when a recipient public key is
	// malformed, non-canonical or a known weak point.
	ErrInvalidRecipientKey = errors.New("invalid recipient key")

	// ErrWeakPassphrase is returned when a passphrase does not meet the
	// minimum length requirement.
	ErrWeakPassphrase = errors.New("passphrase too weak")

	// ErrInvalidPassphrase is returned when a passphrase fails to unwrap a
	// key or decode an artifact. Wrong passphrase and corrupted data are
	// deliberately indistinguishable.
	ErrInvalidPassphrase = errors.New("invalid passphrase")

	// ErrUnwrapFailed is returned when key unwrapping with a capability
	// fails for any reason.
	ErrUnwrapFailed = errors.New("key unwrap failed")

	// ErrIntegrityCheckFailed is returned when downloaded content does not
	// match its recorded digest. The content is never decrypted.
	ErrIntegrityCheckFailed = errors.New("integrity check failed")

	// ErrMessageTooLarge is returned when a plaintext exceeds the maximum
	// message size.
	ErrMessageTooLarge = errors.New("message too large")

	// ErrUploadFailed is returned when a blob could not be stored.
	ErrUploadFailed = errors.New("upload failed")

	// ErrContentNotRetrievable is returned when a blob was stored but the
	// accessibility probe never saw it resolve on the gateway.
	ErrContentNotRetrievable = errors.New("uploaded content not yet retrievable")

	// ErrDownloadFailed is returned when a blob could not be fetched.
	ErrDownloadFailed = errors.New("download failed")

	// ErrArtifactExpired is returned when a redeem artifact is past its
	// expiry time.
	ErrArtifactExpired = errors.New("redeem artifact has expired")
)

// ChronoVaultError is implemented by all SDK errors.
type ChronoVaultError interface {
	error
	ChronoVaultError() // marker method
}

// ValidationError reports input that was rejected before any cryptographic
// or network work started.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("validation failed: %s: %v", e.Field, e.Err)
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *ValidationError) Is(target error) bool {
	switch target {
	case ErrInvalidAddress:
		return errors.Is(e.Err, store.ErrInvalidAddress)
	case ErrInvalidRecipientKey:
		return errors.Is(e.Err, crypto.ErrInvalidCurvePoint) || errors.Is(e.Err, crypto.ErrUnsupportedCurve)
	case ErrWeakPassphrase:
		return errors.Is(e.Err, crypto.ErrWeakPassphrase)
	}
	return false
}

// ChronoVaultError implements the ChronoVaultError interface.
func (e *ValidationError) ChronoVaultError() {}

// CryptographicError reports a failure inside a cryptographic operation:
// key generation, wrapping, unwrapping or decryption.
type CryptographicError struct {
	Op  string // "encrypt", "decrypt", "wrap", "unwrap", "keygen"
	Err error
}

func (e *CryptographicError) Error() string {
	return fmt.Sprintf("cryptographic failure in %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *CryptographicError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *CryptographicError) Is(target error) bool {
	switch target {
	case ErrUnwrapFailed:
		return errors.Is(e.Err, crypto.ErrUnwrapFailure)
	case ErrInvalidPassphrase:
		return errors.Is(e.Err, crypto.ErrInvalidPassphrase)
	}
	return false
}

// ChronoVaultError implements the ChronoVaultError interface.
func (e *CryptographicError) ChronoVaultError() {}

// IntegrityError reports a digest mismatch on downloaded content. The
// mismatching content is discarded without being decrypted.
type IntegrityError struct {
	Address  string
	Expected string
	Actual   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity check failed for %s: digest %s, expected %s", e.Address, e.Actual, e.Expected)
}

// Is implements errors.Is for sentinel error matching.
func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrityCheckFailed
}

// ChronoVaultError implements the ChronoVaultError interface.
func (e *IntegrityError) ChronoVaultError() {}

// TransportError is the terminal error of a retried network operation. It
// carries the operation name, the total number of attempts made and the
// last underlying cause; intermediate failures are never surfaced.
type TransportError struct {
	Op        string
	Attempts  int
	Retryable bool
	Err       error
}

func (e *TransportError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("%s failed after %d attempts: %v", e.Op, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *TransportError) Is(target error) bool {
	switch target {
	case ErrUploadFailed:
		return errors.Is(e.Err, store.ErrUploadFailed)
	case ErrContentNotRetrievable:
		return errors.Is(e.Err, store.ErrVerificationFailed)
	case ErrDownloadFailed:
		return errors.Is(e.Err, store.ErrDownloadFailed)
	}
	return false
}

// ChronoVaultError implements the ChronoVaultError interface.
func (e *TransportError) ChronoVaultError() {}

// CapacityError is returned when a message exceeds the size limit.
type CapacityError struct {
	Size  int64
	Limit int64
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("message of %d bytes exceeds limit of %d", e.Size, e.Limit)
}

// Is implements errors.Is for sentinel error matching.
func (e *CapacityError) Is(target error) bool {
	return target == ErrMessageTooLarge
}

// ChronoVaultError implements the ChronoVaultError interface.
func (e *CapacityError) ChronoVaultError() {}

// ParseError is returned when remote or artifact data does not match the
// closed set of expected shapes. Unexpected shapes are rejected outright,
// never best-effort scraped.
type ParseError struct {
	Op     string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: unexpected data shape: %s", e.Op, e.Reason)
}

// ChronoVaultError implements the ChronoVaultError interface.
func (e *ParseError) ChronoVaultError() {}

// wrapError converts internal errors to public errors.
// This ensures that errors.Is() checks work with public sentinel errors.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var perr *store.ParseError
	if errors.As(err, &perr) {
		return &ParseError{Op: perr.Op, Reason: perr.Reason}
	}

	var terr *transport.Error
	if errors.As(err, &terr) {
		return &TransportError{
			Op:        terr.Op,
			Attempts:  terr.Attempts,
			Retryable: terr.Retryable,
			Err:       err,
		}
	}

	switch {
	case errors.Is(err, store.ErrInvalidAddress):
		return &ValidationError{Field: "address", Err: err}
	case errors.Is(err, crypto.ErrInvalidCurvePoint), errors.Is(err, crypto.ErrUnsupportedCurve):
		return &ValidationError{Field: "recipient", Err: err}
	case errors.Is(err, crypto.ErrWeakPassphrase):
		return &ValidationError{Field: "passphrase", Err: err}
	case errors.Is(err, crypto.ErrPlaintextTooLarge):
		return &CapacityError{Limit: crypto.MaxPlaintextSize}
	case errors.Is(err, crypto.ErrUnwrapFailure),
		errors.Is(err, crypto.ErrInvalidPassphrase),
		errors.Is(err, crypto.ErrSuiteMismatch),
		errors.Is(err, crypto.ErrInvalidWrappedKey):
		return &CryptographicError{Op: "unwrap", Err: err}
	case errors.Is(err, crypto.ErrIntegrity):
		return &CryptographicError{Op: "decrypt", Err: err}
	case errors.Is(err, crypto.ErrKeyGeneration):
		return &CryptographicError{Op: "keygen", Err: err}
	}

	return err
}
