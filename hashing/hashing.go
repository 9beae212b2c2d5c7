// Package hashing provides the Blake2b helpers used to check the on-chain
// Blake2b utility and to derive history digests from arbitrary content.
package hashing

import (
	"golang.org/x/crypto/blake2b"

	"github.com/0glabs/storage-ops/history"
)

// Blake2b returns the Blake2b-512 hash of the concatenation of parts. The
// on-chain utility returns the same value as two 32-byte words.
func Blake2b(parts ...[]byte) [blake2b.Size]byte {
	h, _ := blake2b.New512(nil) // Only fails for oversized keys.
	for _, p := range parts {
		h.Write(p)
	}
	var out [blake2b.Size]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Blake2bPair hashes exactly two 32-byte words.
func Blake2bPair(a, b [32]byte) [blake2b.Size]byte {
	return Blake2b(a[:], b[:])
}

// Blake2bTriple hashes exactly three 32-byte words.
func Blake2bTriple(a, b, c [32]byte) [blake2b.Size]byte {
	return Blake2b(a[:], b[:], c[:])
}

// Blake2bFive hashes exactly five 32-byte words.
func Blake2bFive(a, b, c, d, e [32]byte) [blake2b.Size]byte {
	return Blake2b(a[:], b[:], c[:], d[:], e[:])
}

// Split returns the two 32-byte words of a Blake2b-512 hash, in the order
// the contract returns them.
func Split(sum [blake2b.Size]byte) (hi, lo [32]byte) {
	copy(hi[:], sum[:32])
	copy(lo[:], sum[32:])
	return hi, lo
}

// Digest returns the Blake2b-256 hash of the concatenation of parts.
func Digest(parts ...[]byte) history.Digest {
	h, _ := blake2b.New256(nil)
	for _, p := range parts {
		h.Write(p)
	}
	var d history.Digest
	copy(d[:], h.Sum(nil))
	return d
}
