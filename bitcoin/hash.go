package bitcoin

import (
	"crypto/sha256"
)

// Sha256 returns the SHA256 digest of the input.
func Sha256(b []byte) []byte {
	result := sha256.Sum256(b)
	return result[:]
}

// DoubleSha256 performs a double SHA256 hash on the bytes, the digest used
// throughout the block format for block hashes, transaction ids and merkle
// nodes.
func DoubleSha256(b []byte) []byte {
	return Sha256(Sha256(b))
}
