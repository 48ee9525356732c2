// Package mixedradix implements a mixed-base digit vector supporting
// ordinary increment and the "intelligent skip" operation used to walk
// a probability-descending enumeration without visiting every digit
// combination below a cutoff.
package mixedradix

import "fmt"

// Number is a mixed-radix digit vector. Digits are stored
// most-significant first; place 0 is the leftmost (most significant)
// position and the last place is least significant, matching
// spec.md §4.3 ("least-significant at the last position").
type Number struct {
	digits []uint64
	bases  []uint64
}

// New constructs a Number with the given bases, all digits at zero.
// It panics if any base is zero (spec.md §8: "MixedRadixNumber with
// any base equal to zero is rejected at construction").
func New(bases []uint64) *Number {
	for i, b := range bases {
		if b == 0 {
			panic(fmt.Sprintf("mixedradix: base at place %d is zero", i))
		}
	}
	n := &Number{
		digits: make([]uint64, len(bases)),
		bases:  append([]uint64(nil), bases...),
	}
	return n
}

// Len returns the number of places.
func (n *Number) Len() int {
	return len(n.bases)
}

// Clear resets every digit to zero.
func (n *Number) Clear() {
	for i := range n.digits {
		n.digits[i] = 0
	}
}

// GetPlace returns the digit at place i.
func (n *Number) GetPlace(i int) uint64 {
	return n.digits[i]
}

// SetPlace sets the digit at place i.
func (n *Number) SetPlace(i int, v uint64) {
	n.digits[i] = v
}

// Base returns the base at place i.
func (n *Number) Base(i int) uint64 {
	return n.bases[i]
}

// DeepCopy returns an independent copy of n.
func (n *Number) DeepCopy() *Number {
	cp := &Number{
		digits: append([]uint64(nil), n.digits...),
		bases:  append([]uint64(nil), n.bases...),
	}
	return cp
}

// Increment adds one to the number, rippling from the least
// significant (last) place leftward. It returns false if the
// increment overflows the most significant digit (the number wraps to
// all zero and the caller should stop enumerating).
func (n *Number) Increment() bool {
	for i := len(n.digits) - 1; i >= 0; i-- {
		n.digits[i]++
		if n.digits[i] < n.bases[i] {
			return true
		}
		n.digits[i] = 0
	}
	return false
}

// IntelligentSkip zeroes every digit from the right up to and
// including the first non-zero digit, then carries a single increment
// into the place just to the left of that digit (rippling further left
// on overflow exactly like Increment). Assuming each place indexes
// terminal groups in descending-probability order, an increment
// confined to the low (rightward) digits can never raise the pattern's
// probability above its current value, so skip "flushes" those digits
// and jumps straight to the next candidate whose probability may equal
// or exceed the current one, instead of visiting every low-order
// combination in between.
func (n *Number) IntelligentSkip() bool {
	firstNonZero := -1
	for i := len(n.digits) - 1; i >= 0; i-- {
		if n.digits[i] != 0 {
			firstNonZero = i
			n.digits[i] = 0
			break
		}
		n.digits[i] = 0
	}

	start := len(n.digits) - 1
	if firstNonZero >= 0 {
		start = firstNonZero - 1
	}
	for i := start; i >= 0; i-- {
		n.digits[i]++
		if n.digits[i] < n.bases[i] {
			return true
		}
		n.digits[i] = 0
	}
	return false
}
