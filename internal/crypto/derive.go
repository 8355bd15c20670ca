// Package crypto holds the hub's key material: everything is derived from a
// single master secret so operators configure one value and rotation replaces
// the whole family at once.
package crypto

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Usage strings bind each derived key to one purpose. Reusing a usage for a
// second purpose would silently share key material, so they are constants.
const (
	// UsageTokenSeed derives the Ed25519 seed for peer tokens.
	UsageTokenSeed = "webinsight/v1/token-seed"

	// UsageDownloadMAC derives the HMAC key for signed download URLs.
	UsageDownloadMAC = "webinsight/v1/download-mac"
)

// DeriveKey expands the master secret into a purpose-bound key of the given
// length using HKDF-SHA256. The same (secret, usage, length) always yields
// the same key.
func DeriveKey(masterSecret []byte, usage string, length int) ([]byte, error) {
	if len(masterSecret) == 0 {
		return nil, fmt.Errorf("master secret is empty")
	}
	if usage == "" {
		return nil, fmt.Errorf("usage is empty")
	}
	r := hkdf.New(sha256.New, masterSecret, nil, []byte(usage))
	key := make([]byte, length)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive %q: %w", usage, err)
	}
	return key, nil
}
