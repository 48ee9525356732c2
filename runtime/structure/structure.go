// Package structure implements Structure: one ordered sequence of
// nonterminal references sharing a base probability, plus the pattern-
// and string-generation, lookup, and sampling operations defined over
// it (spec.md §4.7).
package structure

import (
	"bytes"
	"math/big"
	"math/rand/v2"

	"github.com/aledsdavies/pcfgcalc/core/bigcount"
	"github.com/aledsdavies/pcfgcalc/core/lookup"
	"github.com/aledsdavies/pcfgcalc/core/nonterminal"
	"github.com/aledsdavies/pcfgcalc/runtime/pattern"
)

// LookupSummer is the subset of Grammar's behaviour Structure needs for
// accurate string generation: summing probability across every
// structure that can parse a candidate string (spec.md §4.7,
// "accurate" mode re-queries the owning grammar to fold in duplicate
// parses from other structures).
type LookupSummer interface {
	LookupSum(s []byte) lookup.Data
}

// Structure is one production in a grammar: a representation like
// "L3ED2ES1", the base probability assigned to it by training, and the
// resolved Nonterminal for each of its runs, in left-to-right order.
type Structure struct {
	Repr            string
	Runs            []Run
	BaseProbability float64
	SourceIDs       map[string]struct{}
	Nonterminals    []*nonterminal.Nonterminal
}

// New builds a Structure from its already-parsed runs and resolved
// nonterminal references. Callers (runtime/loader) are responsible for
// resolving each run to a Nonterminal via a shared Collection.
func New(repr string, runs []Run, baseProbability float64, sourceIDs map[string]struct{}, nts []*nonterminal.Nonterminal) *Structure {
	return &Structure{
		Repr:            repr,
		Runs:            runs,
		BaseProbability: baseProbability,
		SourceIDs:       sourceIDs,
		Nonterminals:    nts,
	}
}

// CountStrings returns the total number of strings this structure can
// produce: the product, over every nonterminal reference, of that
// nonterminal's total terminal count (spec.md §4.7).
func (s *Structure) CountStrings() bigcount.BigCount {
	total := bigcount.FromUint64(1)
	for _, nt := range s.Nonterminals {
		card := nt.TotalCount()
		var next bigcount.BigCount
		if card.IsPromoted() || total.IsPromoted() {
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

// GeneratePattern is one canonical pattern emitted by GeneratePatterns.
type GeneratePattern struct {
	Probability float64
	Count       *big.Int
	FirstString []byte
}

// GeneratePatterns walks the patterns of this structure in the pattern
// counter's mixed-radix order (not sorted by probability), emitting the
// canonical representative of each
// permutation-equivalence class whose probability meets cutoff, and
// intelligently skipping every pattern that cannot (spec.md §4.7).
func (s *Structure) GeneratePatterns(cutoff float64, emit func(GeneratePattern)) {
	pm := pattern.New(s.Nonterminals)
	pm.Reset()
	for {
		var ok bool
		if pm.PatternProbability(s.BaseProbability) < cutoff {
			ok = pm.IntelligentSkip()
		} else {
			if pm.IsCanonical() {
				var countStrings big.Int
				pm.CountStrings().ToBig(&countStrings)
				total := new(big.Int).Mul(&countStrings, pm.PermutationCount())
				emit(GeneratePattern{
					Probability: pm.GetCanonicalizedPatternProbability(s.BaseProbability),
					Count:       total,
					FirstString: pm.GetCanonicalizedFirstStringOfPattern(),
				})
			}
			ok = pm.Increment()
		}
		if !ok {
			break
		}
	}
}

// GenerateStrings walks every pattern of this structure as
// GeneratePatterns does, but for each canonical pattern whose
// probability meets cutoff it additionally expands every concrete
// string in that pattern via nested per-position iteration (spec.md
// §4.7). In accurate mode, each candidate is re-queried against g and
// only emitted once, from the structure whose canonical first string
// matches the lookup's — every other structure sharing the same string
// skips it.
func (s *Structure) GenerateStrings(cutoff float64, accurate bool, g LookupSummer, emit func(prob float64, str []byte)) {
	pm := pattern.New(s.Nonterminals)
	pm.Reset()
	for {
		var ok bool
		if pm.PatternProbability(s.BaseProbability) < cutoff {
			ok = pm.IntelligentSkip()
		} else {
			if pm.IsCanonical() {
				canonicalFirst := pm.GetCanonicalizedFirstStringOfPattern()
				canonicalProb := pm.GetCanonicalizedPatternProbability(s.BaseProbability)
				s.expandPattern(pm, func(str []byte) {
					if !accurate {
						emit(canonicalProb, str)
						return
					}
					res := g.LookupSum(str)
					if bytes.Equal(res.FirstStringOfPattern, canonicalFirst) {
						emit(res.Probability, str)
					}
				})
			}
			ok = pm.Increment()
		}
		if !ok {
			break
		}
	}
}

// expandPattern enumerates every concrete string of the pattern
// manager's current pattern by nested per-position iteration: the
// rightmost position advances fastest, rippling a carry leftward on
// exhaustion (spec.md §4.7).
func (s *Structure) expandPattern(pm *pattern.Manager, onString func(str []byte)) {
	iters := pm.StringIterators()
	n := len(iters)
	if n == 0 {
		return
	}
	for {
		parts := make([][]byte, n)
		for i, it := range iters {
			parts[i] = it.Current()
		}
		onString(bytes.Join(parts, []byte{StructureBreakByte}))

		i := n - 1
		for i >= 0 {
			if iters[i].Increment() {
				break
			}
			iters[i].Restart()
			i--
		}
		if i < 0 {
			break
		}
	}
}

// GenerateRandomStrings draws n strings by sampling each nonterminal
// position independently, mass-weighted by group probability and
// cardinality (spec.md §4.7 "generate_random_strings").
func (s *Structure) GenerateRandomStrings(n int, rng *rand.Rand, emit func(prob float64, str []byte)) {
	for i := 0; i < n; i++ {
		prob := s.BaseProbability
		parts := make([][]byte, len(s.Nonterminals))
		for pos, nt := range s.Nonterminals {
			gi := nt.RandomTerminalGroup(rng)
			parts[pos] = nt.RandomStringOfGroup(gi, rng)
			prob *= nt.Groups[gi].Probability()
		}
		emit(prob, bytes.Join(parts, []byte{StructureBreakByte}))
	}
}

// Lookup resolves a candidate password against this structure: s is
// first stripped of any literal structure-break bytes, converted to
// its character-class representation, and matched run by run. A
// length or category mismatch against this structure's runs returns
// StructureNotFound without consulting any nonterminal.
func (s *Structure) Lookup(candidate []byte) lookup.Data {
	stripped := stripBreaks(candidate)
	repr := ConvertStringToRepresentation(stripped)

	terminals := make([][]byte, len(s.Runs))
	pos := 0
	for i, run := range s.Runs {
		if pos+run.Length > len(repr) {
			return lookup.Fail(lookup.StructureNotFound)
		}
		for j := 0; j < run.Length; j++ {
			if repr[pos+j] != run.Category {
				return lookup.Fail(lookup.StructureNotFound)
			}
		}
		terminals[i] = stripped[pos : pos+run.Length]
		pos += run.Length
	}
	if pos != len(repr) {
		return lookup.Fail(lookup.StructureNotFound)
	}

	pm := pattern.New(s.Nonterminals)
	res := pm.LookupAndSetPattern(terminals, s.BaseProbability)
	if res.Status.Has(lookup.CanParse) {
		res.SourceIDs = lookup.UnionSourceIDs(res.SourceIDs, s.SourceIDs)
	}
	return res
}

// CountParses returns 1 if candidate parses under this structure, 0
// otherwise (spec.md §4.7 "count_parses").
func (s *Structure) CountParses(candidate []byte) int {
	if s.Lookup(candidate).Status.Has(lookup.CanParse) {
		return 1
	}
	return 0
}

func stripBreaks(s []byte) []byte {
	out := make([]byte, 0, len(s))
	for _, b := range s {
		if b != StructureBreakByte {
			out = append(out, b)
		}
	}
	return out
}
