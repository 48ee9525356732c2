// Package terminal implements the TerminalGroup abstraction shared by
// seen terminals (read from a training corpus) and unseen terminals
// (synthesized from a character-class mask) — spec.md §4.4.
package terminal

import (
	"bytes"
	"math/big"

	"github.com/aledsdavies/pcfgcalc/core/bigcount"
	"github.com/aledsdavies/pcfgcalc/core/lookup"
)

// Group is the common contract implemented by SeenGroup and
// UnseenGroup.
type Group interface {
	// CountStrings returns the group's cardinality.
	CountStrings() bigcount.BigCount
	// Probability returns the per-string probability shared by every
	// member of the group.
	Probability() float64
	// FirstString returns the first terminal the group would emit,
	// with any out-representation uppercasing applied.
	FirstString() []byte
	// Lookup resolves a candidate terminal within this group.
	Lookup(candidate []byte) lookup.Data
	// IndexInGroup returns the candidate's 0-based index within the
	// group's iteration order, or (nil, false) if absent.
	IndexInGroup(candidate []byte) (*big.Int, bool)
	// Iterator returns a fresh, restarted cursor over the group.
	Iterator() Iterator
}

// Iterator is an externally-driven, single-consumer, non-sharable
// cursor over a Group's terminals — it must not outlive its parent
// group.
type Iterator interface {
	Restart()
	Increment() bool
	IsEnd() bool
	Current() []byte
}

// matchOutRepresentation uppercases the bytes of s at every position
// where outRepr has 'U', leaving the rest untouched. It returns s
// unmodified (same backing array) when outRepr has no 'U' at all,
// since that is the common case and copying is wasted work.
func matchOutRepresentation(s []byte, outRepr string) []byte {
	hasUpper := false
	for i := 0; i < len(outRepr) && i < len(s); i++ {
		if outRepr[i] == 'U' {
			hasUpper = true
			break
		}
	}
	if !hasUpper {
		return s
	}
	out := bytes.ToLower(append([]byte(nil), s...))
	for i := 0; i < len(outRepr) && i < len(out); i++ {
		if outRepr[i] == 'U' {
			out[i] = toUpperByte(out[i])
		}
	}
	return out
}

func toUpperByte(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}
