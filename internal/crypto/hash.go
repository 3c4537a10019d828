package crypto

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// Digest is a SHA-256 content-integrity digest. Digests are computed over
// ciphertext bytes, never over plaintext, so a downloader can validate
// transport integrity before attempting decryption.
type Digest [DigestSize]byte

// ComputeDigest hashes the given bytes with SHA-256.
func ComputeDigest(data []byte) Digest {
	return Digest(sha256.Sum256(data))
}

// VerifyDigest reports whether data hashes to expected. The comparison is
// constant-time.
func VerifyDigest(data []byte, expected Digest) bool {
	actual := ComputeDigest(data)
	return subtle.ConstantTimeCompare(actual[:], expected[:]) == 1
}

// Hex returns the lowercase hex encoding of the digest, the form recorded
// on the metadata ledger.
func (d Digest) Hex() string {
	return hex.EncodeToString(d[:])
}

// ParseDigestHex parses a hex-encoded SHA-256 digest.
func ParseDigestHex(s string) (Digest, error) {
	var d Digest
	raw, err := hex.DecodeString(s)
	if err != nil {
		return d, fmt.Errorf("invalid digest encoding: %w", err)
	}
	if len(raw) != DigestSize {
		return d, fmt.Errorf("invalid digest size: got %d, want %d", len(raw), DigestSize)
	}
	copy(d[:], raw)
	return d, nil
}
