package colmap

import (
	"crypto/subtle"

	"golang.org/x/crypto/sha3"
)

// HashSize is the length of a content hash in bytes.
const HashSize = 32

// ContentHash returns the SHA3-256 digest of b.
func ContentHash(b []byte) []byte {
	sum := sha3.Sum256(b)
	return sum[:]
}

// VerifyHash reports whether b hashes to want.
func VerifyHash(b, want []byte) bool {
	if len(want) != HashSize {
		return false
	}
	return subtle.ConstantTimeCompare(ContentHash(b), want) == 1
}
