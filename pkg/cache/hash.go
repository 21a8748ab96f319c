package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hash computes the SHA-256 of data as a 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Key builds a cache key of the form "kind:hash(parts)". Parts are joined
// with a NUL byte so ("ab", "c") and ("a", "bc") differ.
func Key(kind string, parts ...string) string {
	return kind + ":" + Hash([]byte(strings.Join(parts, "\x00")))
}
