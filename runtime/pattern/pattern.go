// Package pattern implements PatternManager — iteration over a
// Structure's patterns under mixed-radix pattern compaction, including
// canonicalization and multiset-permutation ranking (spec.md §4.6).
package pattern

import (
	"bytes"
	"container/heap"
	"math/big"
	"sort"

	"github.com/aledsdavies/pcfgcalc/core/bigcount"
	"github.com/aledsdavies/pcfgcalc/core/lookup"
	"github.com/aledsdavies/pcfgcalc/core/mixedradix"
	"github.com/aledsdavies/pcfgcalc/core/nonterminal"
	"github.com/aledsdavies/pcfgcalc/core/terminal"
)

// StructureBreak is the byte (0x01) that separates terminals in an
// emitted string (spec.md §6).
const StructureBreak = 0x01

// factorialTable holds n! for n in [0,20]; 20! is the largest factorial
// that fits in a uint64. The table is stored as *big.Int to keep
// callers uniform.
var factorialTable [21]*big.Int

func init() {
	factorialTable[0] = big.NewInt(1)
	for i := 1; i <= 20; i++ {
		factorialTable[i] = new(big.Int).Mul(factorialTable[i-1], big.NewInt(int64(i)))
	}
}

func factorial(n int) *big.Int {
	if n >= 0 && n <= 20 {
		return new(big.Int).Set(factorialTable[n])
	}
	result := new(big.Int).Set(factorialTable[20])
	for i := 21; i <= n; i++ {
		result.Mul(result, big.NewInt(int64(i)))
	}
	return result
}

// Manager iterates the patterns of a single Structure: one position
// per nonterminal occurrence, with repeated nonterminals collapsed
// into permutation groups.
type Manager struct {
	nts     []*nonterminal.Nonterminal
	counter *mixedradix.Number

	// groupOf[i] is the 1-based permutation-group id of position i, or
	// 0 if position i's nonterminal occurs only once in the structure.
	groupOf []int
	// groupPositions[id] lists every position sharing group id, in
	// ascending (left-to-right) structure order.
	groupPositions map[int][]int
	// groupIDs lists every repeating group id in ascending (first
	// occurrence) order — the combination order for permutation rank.
	groupIDs []int
}

// New builds a Manager over a structure's ordered nonterminal
// references.
func New(nts []*nonterminal.Nonterminal) *Manager {
	bases := make([]uint64, len(nts))
	for i, nt := range nts {
		bases[i] = uint64(len(nt.Groups))
	}

	m := &Manager{
		nts:            nts,
		counter:        mixedradix.New(bases),
		groupOf:        make([]int, len(nts)),
		groupPositions: make(map[int][]int),
	}

	nextID := 1
	// Count occurrences first, then assign group ids only to
	// nonterminals that actually repeat, in first-occurrence order.
	occurrences := make(map[*nonterminal.Nonterminal]int)
	for _, nt := range nts {
		occurrences[nt]++
	}
	assigned := make(map[*nonterminal.Nonterminal]int)
	for i, nt := range nts {
		if occurrences[nt] <= 1 {
			m.groupOf[i] = 0
			continue
		}
		id, ok := assigned[nt]
		if !ok {
			id = nextID
			nextID++
			assigned[nt] = id
			m.groupIDs = append(m.groupIDs, id)
		}
		m.groupOf[i] = id
		m.groupPositions[id] = append(m.groupPositions[id], i)
	}

	return m
}

// Reset zeroes the underlying counter.
func (m *Manager) Reset() {
	m.counter.Clear()
}

// Increment advances to the next pattern in raw mixed-radix order.
func (m *Manager) Increment() bool {
	return m.counter.Increment()
}

// IntelligentSkip jumps past every remaining pattern that cannot beat
// the current one's probability.
func (m *Manager) IntelligentSkip() bool {
	return m.counter.IntelligentSkip()
}

// SetPlace sets the digit (terminal-group index) at position i.
func (m *Manager) SetPlace(i int, v uint64) {
	m.counter.SetPlace(i, v)
}

// digits returns the current pattern's digit vector.
func (m *Manager) digits() []uint64 {
	out := make([]uint64, len(m.nts))
	for i := range m.nts {
		out[i] = m.counter.GetPlace(i)
	}
	return out
}

// PatternProbability computes baseProbability * ∏ group probabilities
// for the current (not canonicalized) digit assignment, in position
// order.
func (m *Manager) PatternProbability(baseProbability float64) float64 {
	p := baseProbability
	for i, nt := range m.nts {
		p *= nt.Groups[m.counter.GetPlace(i)].Probability()
	}
	return p
}

// CountStrings returns ∏ groups[i].CountStrings(digit[i]) for the
// current pattern.
func (m *Manager) CountStrings() bigcount.BigCount {
	total := bigcount.FromUint64(1)
	for i, nt := range m.nts {
		card := nt.CountStringsOfGroup(int(m.counter.GetPlace(i)))
		var next bigcount.BigCount
		if card.IsPromoted() {
			var cardBig, totalBig big.Int
			card.ToBig(&cardBig)
			total.ToBig(&totalBig)
			totalBig.Mul(&totalBig, &cardBig)
			next = bigcount.FromBigInt(&totalBig)
		} else {
			bigcount.Mul(&next, total, card.Uint64())
		}
		total = next
	}
	return total
}

// IsCanonical reports whether the current pattern is the canonical
// representative of its permutation equivalence class: for every
// repeating group, digits must be non-decreasing in left-to-right
// position order (spec.md §4.6 "is_first_permutation").
func (m *Manager) IsCanonical() bool {
	lastSeen := make(map[int]uint64, len(m.groupIDs))
	for i, gid := range m.groupOf {
		if gid == 0 {
			continue
		}
		d := m.counter.GetPlace(i)
		if last, ok := lastSeen[gid]; ok && d < last {
			return false
		}
		lastSeen[gid] = d
	}
	return true
}

// canonicalDigits returns a copy of the current digit vector with each
// permutation group's digits sorted ascending via a min-heap refill
// (spec.md §4.6 "Canonicalisation"), without mutating the manager's
// own counter state.
func (m *Manager) canonicalDigits() []uint64 {
	out := m.digits()
	for _, gid := range m.groupIDs {
		positions := m.groupPositions[gid]
		h := &digitHeap{}
		for _, pos := range positions {
			heap.Push(h, out[pos])
		}
		for _, pos := range positions {
			out[pos] = heap.Pop(h).(uint64)
		}
	}
	return out
}

// digitHeap is a min-heap of uint64 digits.
type digitHeap []uint64

func (h digitHeap) Len() int            { return len(h) }
func (h digitHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h digitHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *digitHeap) Push(x interface{}) { *h = append(*h, x.(uint64)) }
func (h *digitHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// GetCanonicalizedFirstStringOfPattern returns the first string that
// the canonical representative of the current pattern's equivalence
// class would emit: each position's canonical-order group's first
// string, joined by the structure break byte.
func (m *Manager) GetCanonicalizedFirstStringOfPattern() []byte {
	digits := m.canonicalDigits()
	parts := make([][]byte, len(m.nts))
	for i, nt := range m.nts {
		parts[i] = nt.Groups[digits[i]].FirstString()
	}
	return bytes.Join(parts, []byte{StructureBreak})
}

// GetCanonicalizedPatternProbability computes the pattern's
// probability using the canonical digit order, left to right, so the
// floating-point product is bitwise-identical regardless of which
// member of the equivalence class was actually visited.
func (m *Manager) GetCanonicalizedPatternProbability(baseProbability float64) float64 {
	digits := m.canonicalDigits()
	p := baseProbability
	for i, nt := range m.nts {
		p *= nt.Groups[digits[i]].Probability()
	}
	return p
}

// PermutationCount returns the number of permutations equivalent to
// the current (canonical) pattern: the product, over every repeating
// group, of the multiset-permutation count of that group's digits.
func (m *Manager) PermutationCount() *big.Int {
	total := big.NewInt(1)
	digits := m.digits()
	for _, gid := range m.groupIDs {
		groupDigits := make([]uint64, len(m.groupPositions[gid]))
		for i, pos := range m.groupPositions[gid] {
			groupDigits[i] = digits[pos]
		}
		total.Mul(total, multisetPermutationCount(groupDigits))
	}
	return total
}

func multisetPermutationCount(digits []uint64) *big.Int {
	mult := make(map[uint64]int, len(digits))
	for _, d := range digits {
		mult[d]++
	}
	result := factorial(len(digits))
	for _, m := range mult {
		result.Div(result, factorial(m))
	}
	return result
}

// PermutationRank returns the rank of the current pattern's exact
// digit arrangement among all permutations of its multiset, combined
// across every repeating group as a mixed-radix number with bases
// equal to each group's multiset-permutation count (spec.md §4.6
// "Permutation rank").
func (m *Manager) PermutationRank() *big.Int {
	digits := m.digits()
	rank := big.NewInt(0)
	for _, gid := range m.groupIDs {
		groupDigits := make([]uint64, len(m.groupPositions[gid]))
		for i, pos := range m.groupPositions[gid] {
			groupDigits[i] = digits[pos]
		}
		groupRank, groupP := rankWithinGroup(groupDigits)
		rank.Mul(rank, groupP)
		rank.Add(rank, groupRank)
	}
	return rank
}

// rankWithinGroup implements the magic-formula permutation rank of
// spec.md §4.6: walk the group's digits left to right, tracking a
// shrinking multiplicity table and a shrinking permutation count.
func rankWithinGroup(digits []uint64) (rank *big.Int, totalPerms *big.Int) {
	mult := make(map[uint64]int, len(digits))
	distinct := make([]uint64, 0, len(digits))
	for _, d := range digits {
		if mult[d] == 0 {
			distinct = append(distinct, d)
		}
		mult[d]++
	}
	sort.Slice(distinct, func(i, j int) bool { return distinct[i] < distinct[j] })

	totalPerms = multisetPermutationCount(digits)
	currentPerms := new(big.Int).Set(totalPerms)
	rank = big.NewInt(0)
	size := len(digits)

	for _, d := range digits {
		weak := 0
		for _, dv := range distinct {
			if dv < d {
				weak += mult[dv]
			}
		}
		if weak > 0 && size > 0 {
			term := new(big.Int).Mul(currentPerms, big.NewInt(int64(weak)))
			term.Div(term, big.NewInt(int64(size)))
			rank.Add(rank, term)
		}

		m := mult[d]
		if size > 0 {
			currentPerms.Mul(currentPerms, big.NewInt(int64(m)))
			currentPerms.Div(currentPerms, big.NewInt(int64(size)))
		}
		mult[d]--
		size--
	}

	return rank, totalPerms
}

// LookupAndSetPattern resolves one terminal per position against that
// position's Nonterminal, sets the manager's counter to the resolved
// pattern, and computes the string's global rank within the structure
// (spec.md §4.6 "lookup_and_set_pattern"). baseProbability is the
// owning Structure's base probability. On any per-position parse
// failure it returns immediately with that failure's Status and a nil
// Index.
func (m *Manager) LookupAndSetPattern(terminals [][]byte, baseProbability float64) lookup.Data {
	groupIdx := make([]int, len(m.nts))
	perPos := make([]lookup.Data, len(m.nts))
	sourceIDs := make(map[string]struct{})

	for i, nt := range m.nts {
		res, gi := nt.Lookup(terminals[i])
		if !res.Status.Has(lookup.CanParse) {
			return lookup.Fail(res.Status)
		}
		perPos[i] = res
		groupIdx[i] = gi
		sourceIDs = lookup.UnionSourceIDs(sourceIDs, res.SourceIDs)
	}

	for i, gi := range groupIdx {
		m.counter.SetPlace(i, uint64(gi))
	}

	// rank-in-pattern: Horner over each position's in-group index,
	// most significant (position 0) first.
	rankInPattern := big.NewInt(0)
	for i := range m.nts {
		base := m.nts[i].CountStringsOfGroup(groupIdx[i])
		var baseBig big.Int
		base.ToBig(&baseBig)
		rankInPattern.Mul(rankInPattern, &baseBig)
		rankInPattern.Add(rankInPattern, perPos[i].Index)
	}

	var stringsInPattern big.Int
	m.CountStrings().ToBig(&stringsInPattern)

	permRank := m.PermutationRank()
	finalRank := new(big.Int).Mul(permRank, &stringsInPattern)
	finalRank.Add(finalRank, rankInPattern)

	return lookup.Data{
		Status:               lookup.CanParse,
		Probability:          m.GetCanonicalizedPatternProbability(baseProbability),
		Index:                finalRank,
		FirstStringOfPattern: m.GetCanonicalizedFirstStringOfPattern(),
		SourceIDs:            sourceIDs,
	}
}

// StringIterators returns one freshly restarted group iterator per
// position of the current pattern, for Structure's nested-iteration
// string expansion (spec.md §4.7 generate_strings).
func (m *Manager) StringIterators() []terminal.Iterator {
	iters := make([]terminal.Iterator, len(m.nts))
	for i, nt := range m.nts {
		iters[i] = nt.Groups[m.counter.GetPlace(i)].Iterator()
	}
	return iters
}
