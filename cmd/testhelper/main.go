// Command testhelper exercises the SDK from the command line for
// cross-SDK compatibility tests. Each command reads from stdin/args and
// writes a single JSON document to stdout.
//
// Configuration comes from CHRONOVAULT_API_URL and, optionally,
// CHRONOVAULT_GATEWAY (a path-style gateway base for local nodes), loaded
// from the environment or a .env file.
package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"

	chronovault "github.com/chronovault/client-go"
)

func main() {
	if len(os.Args) < 2 {
		fatal("usage: testhelper <keygen|seal|open|seal-redeemable|redeem> [args]")
	}

	// Load .env if present; the environment wins over the file.
	_ = godotenv.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	switch os.Args[1] {
	case "keygen":
		keygen()
	case "seal":
		seal(ctx, newClient())
	case "open":
		open(ctx, newClient())
	case "seal-redeemable":
		sealRedeemable(ctx, newClient())
	case "redeem":
		redeem(ctx, newClient())
	default:
		fatal("unknown command: %s", os.Args[1])
	}
}

func newClient() *chronovault.Client {
	opts := []chronovault.Option{}
	if url := os.Getenv("CHRONOVAULT_API_URL"); url != "" {
		opts = append(opts, chronovault.WithAPIURL(url))
	}
	if gateway := os.Getenv("CHRONOVAULT_GATEWAY"); gateway != "" {
		opts = append(opts, chronovault.WithGatewayEndpoint(gateway))
	}

	client, err := chronovault.New(opts...)
	if err != nil {
		fatal("create client: %v", err)
	}
	return client
}

// keygen prints a fresh Ed25519 keypair in hex.
func keygen() {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		fatal("generate key: %v", err)
	}
	emit(map[string]string{
		"publicKey":  hex.EncodeToString(pub),
		"privateKey": hex.EncodeToString(priv),
	})
}

// seal reads plaintext from stdin and seals it to the Ed25519 public key
// given as a hex argument.
func seal(ctx context.Context, client *chronovault.Client) {
	if len(os.Args) < 3 {
		fatal("usage: testhelper seal <ed25519-pub-hex> < plaintext")
	}
	pub, err := hex.DecodeString(os.Args[2])
	if err != nil {
		fatal("decode public key: %v", err)
	}
	recipient, err := chronovault.ConvertSigningKey(pub, chronovault.CurveEd25519)
	if err != nil {
		fatal("convert key: %v", err)
	}

	plaintext, err := io.ReadAll(os.Stdin)
	if err != nil {
		fatal("read stdin: %v", err)
	}

	result, err := client.SealMessage(ctx, plaintext, recipient)
	if err != nil {
		fatal("seal: %v", err)
	}
	emit(result)
}

// open downloads and decrypts a sealed message using the Ed25519 private
// key given as a hex argument.
func open(ctx context.Context, client *chronovault.Client) {
	if len(os.Args) < 6 {
		fatal("usage: testhelper open <message-addr> <key-addr> <digest-hex> <ed25519-priv-hex>")
	}
	digest, err := chronovault.ParseDigestHex(os.Args[4])
	if err != nil {
		fatal("parse digest: %v", err)
	}
	priv, err := hex.DecodeString(os.Args[5])
	if err != nil {
		fatal("decode private key: %v", err)
	}
	capability, err := chronovault.NewEd25519Capability(priv)
	if err != nil {
		fatal("build capability: %v", err)
	}

	plaintext, err := client.OpenMessage(ctx, os.Args[2], os.Args[3], digest, capability)
	if err != nil {
		fatal("open: %v", err)
	}
	os.Stdout.Write(plaintext)
}

// sealRedeemable reads plaintext from stdin and produces an encoded
// redeem artifact for the passphrase argument.
func sealRedeemable(ctx context.Context, client *chronovault.Client) {
	if len(os.Args) < 3 {
		fatal("usage: testhelper seal-redeemable <passphrase> [unlock-rfc3339] < plaintext")
	}
	passphrase := os.Args[2]

	unlockAt := time.Now()
	if len(os.Args) > 3 {
		parsed, err := time.Parse(time.RFC3339, os.Args[3])
		if err != nil {
			fatal("parse unlock time: %v", err)
		}
		unlockAt = parsed
	}
	expiresAt := unlockAt.Add(30 * 24 * time.Hour)

	plaintext, err := io.ReadAll(os.Stdin)
	if err != nil {
		fatal("read stdin: %v", err)
	}

	result, err := client.SealRedeemable(ctx, plaintext, passphrase, unlockAt, expiresAt, "")
	if err != nil {
		fatal("seal redeemable: %v", err)
	}
	emit(map[string]any{
		"artifact":    hex.EncodeToString(result.Encoded),
		"messageBlob": result.MessageBlob,
		"keyBlob":     result.KeyBlob,
		"digest":      result.Digest.Hex(),
	})
}

// redeem claims a message from a hex-encoded artifact.
func redeem(ctx context.Context, client *chronovault.Client) {
	if len(os.Args) < 4 {
		fatal("usage: testhelper redeem <artifact-hex> <passphrase>")
	}
	encoded, err := hex.DecodeString(os.Args[2])
	if err != nil {
		fatal("decode artifact: %v", err)
	}

	plaintext, err := client.RedeemMessage(ctx, encoded, os.Args[3])
	if err != nil {
		fatal("redeem: %v", err)
	}
	os.Stdout.Write(plaintext)
}

func emit(v any) {
	if err := json.NewEncoder(os.Stdout).Encode(v); err != nil {
		fatal("encode output: %v", err)
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
