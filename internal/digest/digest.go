// Package digest computes content digests used as asset identity.
//
// The digest is SHA-256 over the raw file bytes, rendered as lowercase hex.
// It serves dedup and identity only; it is not an access-control mechanism.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// HexLength is the length of a digest in hex characters.
const HexLength = sha256.Size * 2

// Reader computes the digest of everything readable from r. The stream is
// consumed incrementally, so arbitrarily large files are hashed without
// buffering more than the hash block size.
func Reader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hashing stream: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Bytes computes the digest of b.
func Bytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
