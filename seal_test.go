package chronovault

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
)

func TestSealAndOpenMessage(t *testing.T) {
	fs := newFakeStore(t)
	client := newTestClient(t, fs)
	ctx := context.Background()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	recipient, err := ConvertSigningKey(pub, CurveEd25519)
	if err != nil {
		t.Fatalf("ConvertSigningKey() error = %v", err)
	}

	plaintext := []byte("the vault opens at dawn")

	var percents []int
	result, err := client.SealMessage(ctx, plaintext, recipient, WithProgress(func(p int) {
		percents = append(percents, p)
	}))
	if err != nil {
		t.Fatalf("SealMessage() error = %v", err)
	}

	if result.MessageBlob.Address == result.KeyBlob.Address {
		t.Error("message and key blobs share an address")
	}
	if result.DigestHex != result.Digest.Hex() {
		t.Errorf("DigestHex = %q, want %q", result.DigestHex, result.Digest.Hex())
	}
	if result.WrappedKey == nil || len(result.WrappedKey.Ephemeral) == 0 {
		t.Error("result is missing the wrapped key metadata")
	}
	if len(percents) == 0 || percents[len(percents)-1] != 100 {
		t.Errorf("progress = %v, want final 100", percents)
	}

	// Stored message blob must not contain the plaintext.
	fs.mu.Lock()
	stored := fs.blobs[result.MessageBlob.Address]
	fs.mu.Unlock()
	if bytes.Contains(stored, plaintext) {
		t.Error("stored blob contains plaintext")
	}

	capability, err := NewEd25519Capability(priv)
	if err != nil {
		t.Fatalf("NewEd25519Capability() error = %v", err)
	}
	got, err := client.OpenMessage(ctx, result.MessageBlob.Address, result.KeyBlob.Address, result.Digest, capability)
	if err != nil {
		t.Fatalf("OpenMessage() error = %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("OpenMessage() = %q, want %q", got, plaintext)
	}
}

func TestSealAndOpenMessageRistretto(t *testing.T) {
	fs := newFakeStore(t)
	client := newTestClient(t, fs)
	ctx := context.Background()

	recipient, capability, err := GenerateExchangeKeyPair(SuiteRistretto255)
	if err != nil {
		t.Fatalf("GenerateExchangeKeyPair() error = %v", err)
	}

	plaintext := []byte("ristretto sealed")
	result, err := client.SealMessage(ctx, plaintext, recipient)
	if err != nil {
		t.Fatalf("SealMessage() error = %v", err)
	}

	got, err := client.OpenMessage(ctx, result.MessageBlob.Address, result.KeyBlob.Address, result.Digest, capability)
	if err != nil {
		t.Fatalf("OpenMessage() error = %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("OpenMessage() = %q, want %q", got, plaintext)
	}
}

func TestOpenMessageWrongCapability(t *testing.T) {
	fs := newFakeStore(t)
	client := newTestClient(t, fs)
	ctx := context.Background()

	recipient, _, err := GenerateExchangeKeyPair(SuiteX25519)
	if err != nil {
		t.Fatal(err)
	}
	result, err := client.SealMessage(ctx, []byte("for someone else"), recipient)
	if err != nil {
		t.Fatalf("SealMessage() error = %v", err)
	}

	_, intruder, err := GenerateExchangeKeyPair(SuiteX25519)
	if err != nil {
		t.Fatal(err)
	}
	_, err = client.OpenMessage(ctx, result.MessageBlob.Address, result.KeyBlob.Address, result.Digest, intruder)
	if !errors.Is(err, ErrUnwrapFailed) {
		t.Errorf("OpenMessage() error = %v, want ErrUnwrapFailed", err)
	}
}

func TestOpenMessageTamperedBlob(t *testing.T) {
	fs := newFakeStore(t)
	client := newTestClient(t, fs)
	ctx := context.Background()

	recipient, capability, err := GenerateExchangeKeyPair(SuiteX25519)
	if err != nil {
		t.Fatal(err)
	}
	result, err := client.SealMessage(ctx, []byte("tamper me"), recipient)
	if err != nil {
		t.Fatalf("SealMessage() error = %v", err)
	}

	fs.corrupt(result.MessageBlob.Address)

	plaintext, err := client.OpenMessage(ctx, result.MessageBlob.Address, result.KeyBlob.Address, result.Digest, capability)
	if plaintext != nil {
		t.Error("plaintext returned for tampered blob")
	}
	if !errors.Is(err, ErrIntegrityCheckFailed) {
		t.Fatalf("OpenMessage() error = %v, want ErrIntegrityCheckFailed", err)
	}

	var ierr *IntegrityError
	if !errors.As(err, &ierr) {
		t.Fatalf("no *IntegrityError in chain: %v", err)
	}
	if ierr.Expected == ierr.Actual {
		t.Error("integrity error reports identical digests")
	}
}

func TestSealMessageTooLarge(t *testing.T) {
	fs := newFakeStore(t)
	client := newTestClient(t, fs)

	recipient, _, err := GenerateExchangeKeyPair(SuiteX25519)
	if err != nil {
		t.Fatal(err)
	}

	oversized := make([]byte, MaxMessageSize+1)
	_, err = client.SealMessage(context.Background(), oversized, recipient)
	if !errors.Is(err, ErrMessageTooLarge) {
		t.Fatalf("SealMessage() error = %v, want ErrMessageTooLarge", err)
	}

	var cerr *CapacityError
	if !errors.As(err, &cerr) {
		t.Fatalf("no *CapacityError in chain: %v", err)
	}
	if cerr.Size != int64(MaxMessageSize)+1 {
		t.Errorf("Size = %d", cerr.Size)
	}
}

func TestSealMessageInvalidRecipient(t *testing.T) {
	fs := newFakeStore(t)
	client := newTestClient(t, fs)

	weak := &ExchangePublicKey{Suite: SuiteX25519, Bytes: make([]byte, 32)}
	_, err := client.SealMessage(context.Background(), []byte("hello"), weak)
	if !errors.Is(err, ErrInvalidRecipientKey) {
		t.Errorf("SealMessage() error = %v, want ErrInvalidRecipientKey", err)
	}
}

func TestConvertSigningKeyRejectsGarbage(t *testing.T) {
	_, err := ConvertSigningKey(make([]byte, 31), CurveEd25519)
	if !errors.Is(err, ErrInvalidRecipientKey) {
		t.Errorf("ConvertSigningKey() error = %v, want ErrInvalidRecipientKey", err)
	}

	_, err = ConvertSigningKey(make([]byte, 32), "p256")
	if !errors.Is(err, ErrInvalidRecipientKey) {
		t.Errorf("ConvertSigningKey() error = %v, want ErrInvalidRecipientKey", err)
	}
}
