// Package grammar implements Grammar: the full set of structures
// loaded for a calculation, and the operations that reduce across them
// — total string count, pattern/string generation, lookup, and random
// sampling (spec.md §4.8).
package grammar

import (
	"log/slog"
	"math/big"
	"math/rand/v2"

	"github.com/aledsdavies/pcfgcalc/core/bigcount"
	"github.com/aledsdavies/pcfgcalc/core/lookup"
	"github.com/aledsdavies/pcfgcalc/runtime/structure"
)

// Grammar is the top-level entry point for every calculator operation:
// an ordered set of structures, each with its own base probability.
type Grammar struct {
	Structures []*structure.Structure

	// cumulative[i] is the sum of base probabilities of
	// Structures[0..i], used for mass-proportional structure selection
	// during random sampling.
	cumulative []float64
	totalMass  float64
}

// New builds a Grammar from its already-loaded structures, in the
// order they were declared.
func New(structures []*structure.Structure) *Grammar {
	g := &Grammar{Structures: structures, cumulative: make([]float64, len(structures))}
	var sum float64
	for i, s := range structures {
		sum += s.BaseProbability
		g.cumulative[i] = sum
	}
	g.totalMass = sum
	return g
}

// CountStrings returns the total number of strings the grammar can
// produce: the sum, over every structure, of that structure's own
// count_strings (spec.md §4.8).
func (g *Grammar) CountStrings() bigcount.BigCount {
	total := bigcount.FromUint64(0)
	for _, s := range g.Structures {
		card := s.CountStrings()
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

// GeneratePatterns delegates to every structure in declaration order.
func (g *Grammar) GeneratePatterns(cutoff float64, emit func(structure.GeneratePattern)) {
	for _, s := range g.Structures {
		s.GeneratePatterns(cutoff, emit)
	}
}

// GenerateStrings delegates to every structure in declaration order. In
// accurate mode each structure re-queries the grammar itself to fold in
// probability mass contributed by every other structure that can also
// produce the same string (spec.md §4.7/§4.8).
func (g *Grammar) GenerateStrings(cutoff float64, accurate bool, emit func(prob float64, str []byte)) {
	for _, s := range g.Structures {
		s.GenerateStrings(cutoff, accurate, g, emit)
	}
}

// pickStructure selects a structure proportional to its base
// probability mass. Returns nil if the grammar holds no structures or
// no structure carries any probability mass.
func (g *Grammar) pickStructure(rng *rand.Rand) *structure.Structure {
	if len(g.Structures) == 0 || g.totalMass <= 0 {
		return nil
	}
	target := rng.Float64() * g.totalMass
	for i, c := range g.cumulative {
		if target < c {
			return g.Structures[i]
		}
	}
	return g.Structures[len(g.Structures)-1]
}

// GenerateRandomStrings draws n strings, each from a structure chosen
// proportional to base probability mass, logging progress every
// max(1, n/100) draws (spec.md §4.8, §9).
func (g *Grammar) GenerateRandomStrings(n int, rng *rand.Rand, logger *slog.Logger, emit func(prob float64, str []byte)) {
	cadence := n / 100
	if cadence < 1 {
		cadence = 1
	}
	for i := 0; i < n; i++ {
		s := g.pickStructure(rng)
		if s == nil {
			return
		}
		s.GenerateRandomStrings(1, rng, emit)
		if logger != nil && (i+1)%cadence == 0 {
			logger.Debug("generated random strings", "done", i+1, "total", n)
		}
	}
}

// Lookup resolves candidate against every structure and returns the
// single best result: any parseable result beats any non-parseable
// one; among parseable results the highest probability wins, ties
// broken by which structure was declared first; among non-parseable
// results the highest-numbered Status wins (spec.md §7).
func (g *Grammar) Lookup(candidate []byte) lookup.Data {
	var best lookup.Data
	haveBest := false
	for _, s := range g.Structures {
		res := s.Lookup(candidate)
		if !haveBest {
			best = res
			haveBest = true
			continue
		}
		if better(res, best) {
			best = res
		}
	}
	if !haveBest {
		return lookup.Fail(lookup.StructureNotFound)
	}
	return best
}

func better(a, b lookup.Data) bool {
	aParses := a.Status.Has(lookup.CanParse)
	bParses := b.Status.Has(lookup.CanParse)
	if aParses != bParses {
		return aParses
	}
	if aParses {
		return a.Probability > b.Probability
	}
	return uint32(a.Status) > uint32(b.Status)
}

// LookupSum sums probability across every structure that can parse
// candidate, reporting the rank and canonical first string of the
// single highest-probability parseable structure (spec.md §4.7
// "accurate" mode, §4.8 "lookup_sum").
func (g *Grammar) LookupSum(candidate []byte) lookup.Data {
	var best lookup.Data
	haveBest := false
	var sum float64
	sourceIDs := make(map[string]struct{})

	for _, s := range g.Structures {
		res := s.Lookup(candidate)
		if !res.Status.Has(lookup.CanParse) {
			continue
		}
		sum += res.Probability
		sourceIDs = lookup.UnionSourceIDs(sourceIDs, res.SourceIDs)
		if !haveBest || res.Probability > best.Probability {
			best = res
			haveBest = true
		}
	}

	if !haveBest {
		return lookup.Fail(lookup.StructureNotFound)
	}
	return lookup.Data{
		Status:               lookup.CanParse,
		Probability:          sum,
		Index:                best.Index,
		FirstStringOfPattern: best.FirstStringOfPattern,
		SourceIDs:            sourceIDs,
	}
}

// CountParses returns the total number of structures under which
// candidate parses (spec.md §4.8 "count_parses").
func (g *Grammar) CountParses(candidate []byte) int {
	total := 0
	for _, s := range g.Structures {
		total += s.CountParses(candidate)
	}
	return total
}
