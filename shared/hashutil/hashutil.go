// Package hashutil exposes the hash_eth2 primitive the epoch-transition
// core treats as an external collaborator (spec.md section 6).
package hashutil

import "golang.org/x/crypto/sha3"

// Hash defines a function that returns the SHA3-256 hash (FIPS 202, not
// legacy Keccak-256) of the data passed in.
func Hash(data []byte) [32]byte {
	var h [32]byte
	res := sha3.Sum256(data)
	copy(h[:], res[:])
	return h
}

// MerkleRoot computes a simple binary merkle root over a list of 32-byte
// leaves, duplicating the last node of any odd-length level. Nothing in
// this repository calls it.
func MerkleRoot(leaves [][]byte) []byte {
	if len(leaves) == 0 {
		return make([]byte, 32)
	}
	level := make([][]byte, len(leaves))
	copy(level, leaves)
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([][]byte, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			combined := append(append([]byte{}, level[i]...), level[i+1]...)
			h := Hash(combined)
			next = append(next, h[:])
		}
		level = next
	}
	return level[0]
}
