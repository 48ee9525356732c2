package grammar

import (
	"math/rand/v2"
	"testing"

	"github.com/aledsdavies/pcfgcalc/core/lookup"
	"github.com/aledsdavies/pcfgcalc/core/nonterminal"
	"github.com/aledsdavies/pcfgcalc/core/terminal"
	"github.com/aledsdavies/pcfgcalc/runtime/structure"
)

func buildStructure(repr string, terminals []string, probability float64) *structure.Structure {
	entries := make([]terminal.Entry, len(terminals))
	for i, s := range terminals {
		entries[i] = terminal.Entry{Text: []byte(s)}
	}
	group := terminal.NewSeenGroup(entries, 1.0/float64(len(terminals)), repr)
	nt := nonterminal.New(repr, repr, []terminal.Group{group})
	runs, err := structure.ParseRepresentation(repr)
	if err != nil {
		panic(err)
	}
	return structure.New(repr, runs, probability, nil, []*nonterminal.Nonterminal{nt})
}

func TestCountStringsSumsStructures(t *testing.T) {
	s1 := buildStructure("L3", []string{"cat", "dog"}, 0.6)
	s2 := buildStructure("D3", []string{"123", "456", "789"}, 0.4)
	g := New([]*structure.Structure{s1, s2})

	count := g.CountStrings()
	if count.Uint64() != 5 {
		t.Fatalf("expected count_strings=5, got %d", count.Uint64())
	}
}

func TestLookupPicksHigherProbabilityStructure(t *testing.T) {
	s1 := buildStructure("L3", []string{"cat", "dog"}, 0.6)
	s2 := buildStructure("D3", []string{"123"}, 0.4)
	s3 := buildStructure("L3", []string{"cat"}, 0.1)
	g := New([]*structure.Structure{s3, s1, s2})

	res := g.Lookup([]byte("cat"))
	if !res.Status.Has(lookup.CanParse) {
		t.Fatalf("expected cat to parse")
	}
	if want := 0.6 * 0.5; res.Probability != want {
		t.Fatalf("expected the higher-probability structure's %v, got %v", want, res.Probability)
	}
	if res := g.Lookup([]byte("xyz")); res.Status.Has(lookup.CanParse) {
		t.Fatalf("expected xyz not to parse under either structure")
	}
}

func TestLookupSumCombinesSharedStrings(t *testing.T) {
	s1 := buildStructure("L3", []string{"cat"}, 0.5)
	s2 := buildStructure("L3", []string{"cat"}, 0.3)
	g := New([]*structure.Structure{s1, s2})

	res := g.LookupSum([]byte("cat"))
	if !res.Status.Has(lookup.CanParse) {
		t.Fatalf("expected cat to parse")
	}
	if res.Probability != 0.8 {
		t.Fatalf("expected summed probability 0.8, got %v", res.Probability)
	}
}

func TestCountParsesSumsAcrossStructures(t *testing.T) {
	s1 := buildStructure("L3", []string{"cat"}, 0.5)
	s2 := buildStructure("L3", []string{"cat"}, 0.3)
	g := New([]*structure.Structure{s1, s2})

	if g.CountParses([]byte("cat")) != 2 {
		t.Fatalf("expected count_parses=2")
	}
	if g.CountParses([]byte("zzz")) != 0 {
		t.Fatalf("expected count_parses=0 for unknown string")
	}
}

func TestGenerateRandomStringsStaysWithinGrammar(t *testing.T) {
	s1 := buildStructure("L3", []string{"cat", "dog"}, 0.6)
	s2 := buildStructure("D3", []string{"123", "456"}, 0.4)
	g := New([]*structure.Structure{s1, s2})
	rng := rand.New(rand.NewPCG(1, 2))

	seen := map[string]bool{"cat": true, "dog": true, "123": true, "456": true}
	count := 0
	g.GenerateRandomStrings(20, rng, nil, func(prob float64, str []byte) {
		count++
		if !seen[string(str)] {
			t.Fatalf("unexpected sampled string %q", str)
		}
		if prob <= 0 {
			t.Fatalf("expected positive probability, got %v", prob)
		}
	})
	if count != 20 {
		t.Fatalf("expected 20 samples, got %d", count)
	}
}
