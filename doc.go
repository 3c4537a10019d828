// Package chronovault provides a Go client SDK for ChronoVault, a system
// for sealing messages that become readable at a future point in time.
//
// The SDK runs the client-side pipeline: a fresh AES-256-GCM key per
// message, a SHA-256 integrity digest over the encrypted blob, key
// wrapping to a recipient wallet key (Ed25519 or Sr25519) or under a
// passphrase, and placement of both blobs on a content-addressed store.
// Recording the result on a ledger and releasing keys at unlock time are
// outside the SDK.
//
// Basic usage:
//
//	client, err := chronovault.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	recipient, err := chronovault.ConvertSigningKey(walletPub, chronovault.CurveEd25519)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := client.SealMessage(ctx, []byte("see you in 2030"), recipient)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("message blob:", result.MessageBlob.Address)
//	fmt.Println("key blob:", result.KeyBlob.Address)
//	fmt.Println("digest:", result.DigestHex)
package chronovault
