package utils

import (
	"crypto/hmac"
	"crypto/sha256"
)

// SecretEqual compares a presented secret with the expected one in constant
// time. Both sides are hashed first so the comparison does not leak length.
// An empty expected secret never matches.
func SecretEqual(given, expected string) bool {
	if expected == "" {
		return false
	}
	a := sha256.Sum256([]byte(given))
	b := sha256.Sum256([]byte(expected))
	return hmac.Equal(a[:], b[:])
}
