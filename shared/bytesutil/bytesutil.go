// Package bytesutil holds small byte-slice helpers used by the winning-root
// tie-break and the active-index-root hashing.
package bytesutil

import (
	"bytes"
	"encoding/binary"
)

// LowerThan returns true if a is lexicographically smaller than b when
// compared as raw big-endian byte strings. An empty b is treated as
// "unset" -- any non-empty a is considered lower than it, so the first
// candidate root always wins the initial comparison in the winning-root
// selector.
func LowerThan(a, b []byte) bool {
	if len(b) == 0 {
		return len(a) > 0
	}
	return bytes.Compare(a, b) < 0
}

// ToBytes8 returns the little-endian byte representation of v, zero-padded
// (or truncated) to 8 bytes.
func ToBytes8(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

// FromBytes8 decodes the little-endian uint64 encoded in the first 8
// bytes of b. A b shorter than 8 bytes is zero-padded at the high end
// before decoding, so []byte{1} decodes to 1.
func FromBytes8(b []byte) uint64 {
	if len(b) < 8 {
		padded := make([]byte, 8)
		copy(padded, b)
		b = padded
	}
	return binary.LittleEndian.Uint64(b[:8])
}
