// Package bigcount provides a non-negative counter that starts in
// native uint64 mode and promotes to arbitrary precision on overflow.
package bigcount

import "math/big"

// BigCount is a tagged native/big-int counter. The zero value is a
// valid native BigCount holding 0.
//
// Most structures and patterns fit comfortably in a uint64; promotion
// is lazy so the common case never touches the allocator.
type BigCount struct {
	big   *big.Int
	value uint64
}

// promoted reports whether c has switched to arbitrary precision.
func (c *BigCount) promoted() bool {
	return c.big != nil
}

// FromUint64 returns a native BigCount holding v.
func FromUint64(v uint64) BigCount {
	return BigCount{value: v}
}

// FromBigInt returns a promoted BigCount holding a copy of v.
func FromBigInt(v *big.Int) BigCount {
	return BigCount{big: new(big.Int).Set(v)}
}

// ToBig writes the value of c into dest, whichever mode c is in; c
// itself is left unchanged.
func (c BigCount) ToBig(dest *big.Int) {
	if c.promoted() {
		dest.Set(c.big)
		return
	}
	dest.SetUint64(c.value)
}

// Uint64 returns the value as a uint64. It panics if c is promoted and
// does not fit — callers that might hold arbitrarily large counts must
// use ToBig instead.
func (c BigCount) Uint64() uint64 {
	if !c.promoted() {
		return c.value
	}
	if !c.big.IsUint64() {
		panic("bigcount: value does not fit in uint64")
	}
	return c.big.Uint64()
}

// IsPromoted reports whether c has been promoted to arbitrary precision.
func (c BigCount) IsPromoted() bool {
	return c.promoted()
}

// Add computes dest = a + b where b is a native addend, promoting dest
// to arbitrary precision if the native addition would overflow.
func Add(dest *BigCount, a BigCount, b uint64) {
	if a.promoted() {
		if dest.big == nil {
			dest.big = new(big.Int)
		}
		dest.big.Add(a.big, new(big.Int).SetUint64(b))
		dest.value = 0
		return
	}
	sum := a.value + b
	if sum < a.value { // overflow
		total := new(big.Int).SetUint64(a.value)
		total.Add(total, new(big.Int).SetUint64(b))
		dest.big = total
		dest.value = 0
		return
	}
	dest.big = nil
	dest.value = sum
}

// Mul computes dest = a * b where b is a native multiplicand,
// promoting dest to arbitrary precision if the native multiplication
// would overflow.
func Mul(dest *BigCount, a BigCount, b uint64) {
	if a.promoted() {
		if dest.big == nil {
			dest.big = new(big.Int)
		}
		dest.big.Mul(a.big, new(big.Int).SetUint64(b))
		dest.value = 0
		return
	}
	if a.value == 0 || b == 0 {
		dest.big = nil
		dest.value = 0
		return
	}
	product := a.value * b
	if product/b != a.value { // overflow
		total := new(big.Int).SetUint64(a.value)
		total.Mul(total, new(big.Int).SetUint64(b))
		dest.big = total
		dest.value = 0
		return
	}
	dest.big = nil
	dest.value = product
}

// Cmp compares a and b. When the two are in different modes it orders
// them by mode alone — a promoted value compares greater than a native
// one regardless of magnitude — instead of paying for a big.Int
// comparison. That agrees with magnitude for values promoted by an
// overflowing Add or Mul; a value built with FromBigInt is promoted
// whatever its size, so Cmp does not order it by magnitude against a
// native value.
func Cmp(a, b BigCount) int {
	switch {
	case a.promoted() && b.promoted():
		return a.big.Cmp(b.big)
	case a.promoted():
		return 1
	case b.promoted():
		return -1
	default:
		switch {
		case a.value < b.value:
			return -1
		case a.value > b.value:
			return 1
		default:
			return 0
		}
	}
}
