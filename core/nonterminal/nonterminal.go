// Package nonterminal implements Nonterminal and its deduplicating
// Collection (spec.md §4.5).
package nonterminal

import (
	"math/big"
	"math/rand/v2"

	"github.com/aledsdavies/pcfgcalc/core/bigcount"
	"github.com/aledsdavies/pcfgcalc/core/lookup"
	"github.com/aledsdavies/pcfgcalc/core/terminal"
)

// cardinalityFloat converts a group's (possibly arbitrary-precision)
// cardinality to a float64 for mass-weighted sampling, where exactness
// beyond float64 precision is immaterial.
func cardinalityFloat(c bigcount.BigCount) float64 {
	var b big.Int
	c.ToBig(&b)
	f, _ := new(big.Float).SetInt(&b).Float64()
	return f
}

// Nonterminal is an equivalence class of terminal groups sharing a
// representation key (e.g. "L3"). Groups are stored in
// descending-probability order.
type Nonterminal struct {
	// Repr is the representation used to address the terminals file
	// (any 'U' already normalised to 'L' — terminals are always stored
	// lowercase).
	Repr string
	// OutRepr is the representation as it appears in the owning
	// structure, which may still carry 'U' positions for uppercasing
	// at emit time.
	OutRepr string
	Groups  []terminal.Group

	// groupMass[i] = Groups[i].Probability() * cardinality, used for
	// mass-proportional sampling.
	groupMass []float64
	totalMass float64
}

// New builds a Nonterminal from its ordered groups (descending
// probability, as produced by the loader).
func New(repr, outRepr string, groups []terminal.Group) *Nonterminal {
	nt := &Nonterminal{Repr: repr, OutRepr: outRepr, Groups: groups}
	nt.groupMass = make([]float64, len(groups))
	for i, g := range groups {
		mass := g.Probability() * cardinalityFloat(g.CountStrings())
		nt.groupMass[i] = mass
		nt.totalMass += mass
	}
	return nt
}

// Lookup iterates every group in order, returning the first match. If
// none match it returns TerminalNotFound.
func (nt *Nonterminal) Lookup(candidate []byte) (result lookup.Data, groupIndex int) {
	for i, g := range nt.Groups {
		res := g.Lookup(candidate)
		if res.Status.Has(lookup.CanParse) {
			return res, i
		}
	}
	return lookup.Fail(lookup.TerminalNotFound), -1
}

// CountStringsOfGroup returns the cardinality of the group at index i.
func (nt *Nonterminal) CountStringsOfGroup(i int) bigcount.BigCount {
	return nt.Groups[i].CountStrings()
}

// TotalCount returns the sum of every group's cardinality: the total
// number of terminals this nonterminal can produce.
func (nt *Nonterminal) TotalCount() bigcount.BigCount {
	total := bigcount.FromUint64(0)
	for _, g := range nt.Groups {
		card := g.CountStrings()
		var next bigcount.BigCount
		if card.IsPromoted() || total.IsPromoted() {
			var cardBig, totalBig big.Int
			card.ToBig(&cardBig)
			total.ToBig(&totalBig)
			totalBig.Add(&totalBig, &cardBig)
			next = bigcount.FromBigInt(&totalBig)
		} else {
			bigcount.Add(&next, total, card.Uint64())
		}
		total = next
	}
	return total
}

// RandomTerminalGroup samples a group index proportional to
// probability * cardinality mass.
func (nt *Nonterminal) RandomTerminalGroup(rng *rand.Rand) int {
	if nt.totalMass <= 0 {
		return 0
	}
	target := rng.Float64() * nt.totalMass
	var cum float64
	for i, mass := range nt.groupMass {
		cum += mass
		if target < cum {
			return i
		}
	}
	return len(nt.Groups) - 1
}

// RandomStringOfGroup samples a terminal uniformly within group i.
func (nt *Nonterminal) RandomStringOfGroup(i int, rng *rand.Rand) []byte {
	g := nt.Groups[i]
	card := cardinalityFloat(g.CountStrings())
	if card <= 1 {
		return g.FirstString()
	}
	target := int64(rng.Float64() * card)
	it := g.Iterator()
	for k := int64(0); k < target; k++ {
		if !it.Increment() {
			break
		}
	}
	return it.Current()
}
