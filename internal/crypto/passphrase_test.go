package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func TestPassphraseWrapRoundTrip(t *testing.T) {
	key, _ := GenerateKey()

	wrapped, err := WrapKeyWithPassphrase(key, "sunset over harbor")
	if err != nil {
		t.Fatalf("WrapKeyWithPassphrase() error = %v", err)
	}
	if wrapped.Method != WrapMethodPassphrase {
		t.Errorf("Method = %q, want %q", wrapped.Method, WrapMethodPassphrase)
	}
	if len(wrapped.Salt) != SaltSize {
		t.Errorf("salt size = %d, want %d", len(wrapped.Salt), SaltSize)
	}
	if len(wrapped.Ephemeral) != 0 {
		t.Error("passphrase wrap carries an ephemeral key")
	}

	got, err := UnwrapKeyWithPassphrase(wrapped, "sunset over harbor")
	if err != nil {
		t.Fatalf("UnwrapKeyWithPassphrase() error = %v", err)
	}
	if !bytes.Equal(got, key) {
		t.Error("unwrapped key differs from original")
	}
}

func TestPassphraseWrapWrongPassphrase(t *testing.T) {
	key, _ := GenerateKey()
	wrapped, err := WrapKeyWithPassphrase(key, "sunset over harbor")
	if err != nil {
		t.Fatalf("WrapKeyWithPassphrase() error = %v", err)
	}

	_, err = UnwrapKeyWithPassphrase(wrapped, "sunrise over harbor")
	if !errors.Is(err, ErrInvalidPassphrase) {
		t.Errorf("UnwrapKeyWithPassphrase() error = %v, want ErrInvalidPassphrase", err)
	}
}

func TestPassphraseWrapCorruptedData(t *testing.T) {
	key, _ := GenerateKey()
	wrapped, err := WrapKeyWithPassphrase(key, "sunset over harbor")
	if err != nil {
		t.Fatalf("WrapKeyWithPassphrase() error = %v", err)
	}
	wrapped.Ciphertext[0] ^= 0x01

	// Corruption and a wrong passphrase must be indistinguishable.
	_, err = UnwrapKeyWithPassphrase(wrapped, "sunset over harbor")
	if !errors.Is(err, ErrInvalidPassphrase) {
		t.Errorf("UnwrapKeyWithPassphrase() error = %v, want ErrInvalidPassphrase", err)
	}
}

func TestWrapRejectsWeakPassphrase(t *testing.T) {
	key, _ := GenerateKey()

	tests := []string{"", "short", "1234567"}
	for _, pw := range tests {
		if _, err := WrapKeyWithPassphrase(key, pw); !errors.Is(err, ErrWeakPassphrase) {
			t.Errorf("WrapKeyWithPassphrase(%q) error = %v, want ErrWeakPassphrase", pw, err)
		}
	}

	// Exactly the minimum length is accepted.
	if _, err := WrapKeyWithPassphrase(key, "12345678"); err != nil {
		t.Errorf("WrapKeyWithPassphrase() at minimum length error = %v", err)
	}
}

func TestPassphraseSaltFreshPerWrap(t *testing.T) {
	key, _ := GenerateKey()

	a, _ := WrapKeyWithPassphrase(key, "sunset over harbor")
	b, _ := WrapKeyWithPassphrase(key, "sunset over harbor")
	if bytes.Equal(a.Salt, b.Salt) {
		t.Error("salt reused across wraps")
	}
}

func TestSealOpenWithPassphrase(t *testing.T) {
	plaintext := []byte(`{"keyBlobAddress":"Qm...","unlockTimestamp":1735689600}`)

	blob, err := SealWithPassphrase(plaintext, "redeem me later")
	if err != nil {
		t.Fatalf("SealWithPassphrase() error = %v", err)
	}

	// Wire layout: [16-byte salt][12-byte nonce][ciphertext || tag].
	if len(blob) != SaltSize+NonceSize+len(plaintext)+TagSize {
		t.Errorf("blob size = %d, want %d", len(blob), SaltSize+NonceSize+len(plaintext)+TagSize)
	}

	got, err := OpenWithPassphrase(blob, "redeem me later")
	if err != nil {
		t.Fatalf("OpenWithPassphrase() error = %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Error("round trip mismatch")
	}

	if _, err := OpenWithPassphrase(blob, "wrong passphrase"); !errors.Is(err, ErrInvalidPassphrase) {
		t.Errorf("OpenWithPassphrase() error = %v, want ErrInvalidPassphrase", err)
	}
}

func TestOpenWithPassphraseTruncated(t *testing.T) {
	if _, err := OpenWithPassphrase(make([]byte, SaltSize+NonceSize), "any passphrase"); !errors.Is(err, ErrInvalidPassphrase) {
		t.Errorf("OpenWithPassphrase() of truncated blob error = %v, want ErrInvalidPassphrase", err)
	}
}
