// Package sliceutil implements set algebra over uint64 slices, used to
// union and difference validator-index sets when aggregating attesters
// (spec.md section 4.2) and when computing "active but did not
// participate" sets for the reward/penalty engine (spec.md section 4.7).
package sliceutil

// UnionUint64 of two uint64 slices with time complexity of approximately
// O(n) leveraging a map to check for element existence off by a constant
// factor of underlying map efficiency. The result preserves the order
// elements were first seen across a then b.
func UnionUint64(a, b []uint64) []uint64 {
	set := make([]uint64, 0, len(a)+len(b))
	m := make(map[uint64]bool, len(a)+len(b))

	for _, v := range a {
		if !m[v] {
			m[v] = true
			set = append(set, v)
		}
	}
	for _, v := range b {
		if !m[v] {
			m[v] = true
			set = append(set, v)
		}
	}
	return set
}

// NotUint64 returns the elements of b that are not present in a.
func NotUint64(a, b []uint64) []uint64 {
	set := make([]uint64, 0, len(b))
	m := make(map[uint64]bool, len(a))
	for _, v := range a {
		m[v] = true
	}
	for _, v := range b {
		if !m[v] {
			set = append(set, v)
		}
	}
	return set
}

// IsInUint64 returns true if a is present in b.
func IsInUint64(a uint64, b []uint64) bool {
	for _, v := range b {
		if v == a {
			return true
		}
	}
	return false
}
