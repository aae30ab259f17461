// Package hashing computes the SHA-256 fingerprints anchored on chain.
// Digests are always rendered as 64 lowercase hex characters.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"os"

	"github.com/DeBrosOfficial/filevault/pkg/errors"
)

// HexLen is the length of a rendered digest.
const HexLen = sha256.Size * 2

// Hasher wraps incremental SHA-256 hashing.
type Hasher struct {
	h hash.Hash
}

// New creates a new hasher.
func New() *Hasher {
	return &Hasher{h: sha256.New()}
}

// Write adds data to the hash state.
func (h *Hasher) Write(p []byte) (int, error) { return h.h.Write(p) }

// Sum returns the raw 32-byte digest.
func (h *Hasher) Sum() []byte { return h.h.Sum(nil) }

// SumHex returns the lowercase hex digest.
func (h *Hasher) SumHex() string { return hex.EncodeToString(h.Sum()) }

// Bytes returns the digest of b.
func Bytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Reader streams r to EOF and returns its digest. Read failures come back
// as hash errors.
func Reader(r io.Reader) (string, error) {
	return digest("", r)
}

// File returns the digest of the file at path.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.NewHashError(path, err)
	}
	defer f.Close()
	return digest(path, f)
}

func digest(path string, r io.Reader) (string, error) {
	h := New()
	if _, err := io.Copy(h, r); err != nil {
		return "", errors.NewHashError(path, err)
	}
	return h.SumHex(), nil
}

// Valid reports whether s has the shape of a rendered digest. Only used to
// warn about hand-edited input; submission never depends on it.
func Valid(s string) bool {
	if len(s) != HexLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f') {
			return false
		}
	}
	return true
}
