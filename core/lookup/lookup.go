// Package lookup defines the result type shared by every layer of the
// grammar engine that can answer "does this string parse, and if so
// what is its probability and rank" — terminal groups, nonterminals,
// pattern managers, structures and the grammar itself all return (or
// enrich) the same Data value as a query descends and then bubbles
// back up.
package lookup

import "math/big"

// Status is a bitset of parse outcomes. A caller typically reports a
// failing Status as a negative pseudo-rank equal to its numeric value
// (spec.md §7).
type Status uint32

const (
	// CanParse indicates the string was fully resolved to a pattern.
	CanParse Status = 1 << iota
	// BeyondCutoff indicates the string parses but its probability
	// falls below the caller's requested cutoff.
	BeyondCutoff
	// StructureNotFound indicates no structure's representation
	// matches the string's character-class decomposition.
	StructureNotFound
	// TerminalNotFound indicates a nonterminal's terminal groups have
	// no entry for the substring assigned to that position.
	TerminalNotFound
	// TerminalCollision indicates an unseen-group candidate is in fact
	// a seen terminal under a different group.
	TerminalCollision
	// TerminalCantBeGenerated indicates a substring cannot match any
	// generator mask (wrong length or a character outside every class).
	TerminalCantBeGenerated
	// UnexpectedFailure indicates an internal inconsistency.
	UnexpectedFailure
)

// Has reports whether flag is set in s.
func (s Status) Has(flag Status) bool {
	return s&flag != 0
}

func (s Status) String() string {
	switch {
	case s.Has(CanParse):
		return "CanParse"
	case s.Has(TerminalCollision):
		return "TerminalCollision"
	case s.Has(UnexpectedFailure):
		return "UnexpectedFailure"
	case s.Has(TerminalCantBeGenerated):
		return "TerminalCantBeGenerated"
	case s.Has(TerminalNotFound):
		return "TerminalNotFound"
	case s.Has(StructureNotFound):
		return "StructureNotFound"
	case s.Has(BeyondCutoff):
		return "BeyondCutoff"
	default:
		return "Unknown"
	}
}

// Data is the result of a lookup at any layer: a terminal group
// resolving one substring, or a structure/grammar resolving a whole
// password.
type Data struct {
	Status                Status
	Probability           float64
	Index                 *big.Int
	FirstStringOfPattern  []byte
	SourceIDs             map[string]struct{}
}

// Fail builds a Data value reporting a failed parse with no index.
func Fail(status Status) Data {
	return Data{Status: status}
}

// UnionSourceIDs merges b's source ids into a (a is mutated and
// returned); a nil a allocates a fresh map.
func UnionSourceIDs(a map[string]struct{}, b map[string]struct{}) map[string]struct{} {
	if a == nil {
		a = make(map[string]struct{}, len(b))
	}
	for id := range b {
		a[id] = struct{}{}
	}
	return a
}

// SourceIDSet builds a source-id set from a slice, as parsed off a
// comma-separated field in a structures/terminals file line.
func SourceIDSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
