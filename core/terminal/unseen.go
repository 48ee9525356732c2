package terminal

import (
	"math/big"

	"github.com/aledsdavies/pcfgcalc/core/bigcount"
	"github.com/aledsdavies/pcfgcalc/core/bitarray"
	"github.com/aledsdavies/pcfgcalc/core/lookup"
)

// RegionSize is the window size R used when walking the unseen-index
// space, spec.md §4.2/§4.4.2: 2^30 elements per window.
var RegionSize = big.NewInt(1 << 30)

// UnseenGroup synthesizes terminals that match a generator mask but
// were never observed in training (spec.md §4.4.2). Its mass is spread
// uniformly over every string the mask can produce that isn't already
// a seen terminal of the host nonterminal.
type UnseenGroup struct {
	mask      []Class
	outRepr   string
	totalMass float64
	seen      [][]byte // every seen terminal of the host nonterminal, lowercase

	total          *big.Int // T = product of class sizes
	unseenCount    *big.Int // U = T - seen terminals matching mask
	perStringProb  float64
	placeValues    []*big.Int // suffix products, placeValues[i] = product of class sizes for positions > i
}

// NewUnseenGroup builds an UnseenGroup. seen is every seen terminal of
// the host nonterminal (not just terminals the size of mask — shorter
// or longer ones simply never match and are ignored). It returns
// ok=false if the mask's entire space is already exhausted by seen
// terminals (spec.md §8: loader must reject this as fatal).
func NewUnseenGroup(mask []Class, outRepr string, totalMass float64, seen [][]byte) (*UnseenGroup, bool) {
	total := big.NewInt(1)
	placeValues := make([]*big.Int, len(mask))
	for i := len(mask) - 1; i >= 0; i-- {
		if i == len(mask)-1 {
			placeValues[i] = big.NewInt(1)
		} else {
			placeValues[i] = new(big.Int).Mul(placeValues[i+1], big.NewInt(int64(ClassSize(mask[i+1]))))
		}
		total.Mul(total, big.NewInt(int64(ClassSize(mask[i]))))
	}

	g := &UnseenGroup{
		mask:        mask,
		outRepr:     outRepr,
		totalMass:   totalMass,
		seen:        seen,
		total:       total,
		placeValues: placeValues,
	}

	matching := big.NewInt(0)
	for _, s := range seen {
		if MatchesMask(mask, s) {
			matching.Add(matching, big.NewInt(1))
		}
	}
	unseen := new(big.Int).Sub(total, matching)
	if unseen.Sign() <= 0 {
		return nil, false
	}
	g.unseenCount = unseen
	uf, _ := new(big.Float).SetInt(unseen).Float64()
	g.perStringProb = totalMass / uf
	return g, true
}

// TerminalIndex maps a |mask|-length terminal to its position in
// [0, T) — position 0 of the terminal is the most significant digit.
func (g *UnseenGroup) TerminalIndex(t []byte) *big.Int {
	idx := new(big.Int)
	for i, c := range g.mask {
		d, _ := ClassDigitOf(c, t[i])
		idx.Mul(idx, big.NewInt(int64(ClassSize(c))))
		idx.Add(idx, big.NewInt(int64(d)))
	}
	return idx
}

// Generate is the inverse of TerminalIndex: the unique terminal at
// position i in [0, T).
func (g *UnseenGroup) Generate(i *big.Int) []byte {
	rem := new(big.Int).Set(i)
	out := make([]byte, len(g.mask))
	for pos, c := range g.mask {
		place := g.placeValues[pos]
		q, r := new(big.Int), new(big.Int)
		q.QuoRem(rem, place, r)
		out[pos] = ClassChar(c, int(q.Int64()))
		rem = r
	}
	return out
}

func (g *UnseenGroup) CountStrings() bigcount.BigCount {
	return bigcount.FromBigInt(g.unseenCount)
}

func (g *UnseenGroup) Probability() float64 {
	return g.perStringProb
}

func (g *UnseenGroup) FirstString() []byte {
	it := g.Iterator()
	return matchOutRepresentation(it.Current(), g.outRepr)
}

// Lookup implements spec.md §4.4.2's lookup algorithm: validate length
// and class membership, compute the terminal's space index, then walk
// every seen terminal once to both count how many precede it (for the
// group-local rank) and detect a seen/unseen collision.
func (g *UnseenGroup) Lookup(candidate []byte) lookup.Data {
	if !MatchesMask(g.mask, candidate) {
		return lookup.Fail(lookup.TerminalNotFound | lookup.TerminalCantBeGenerated)
	}
	idx := g.TerminalIndex(candidate)

	lower := int64(0)
	for _, s := range g.seen {
		if len(s) != len(g.mask) {
			continue
		}
		sIdx := g.TerminalIndex(s)
		switch sIdx.Cmp(idx) {
		case -1:
			lower++
		case 0:
			return lookup.Fail(lookup.TerminalNotFound | lookup.TerminalCollision)
		}
	}

	groupIndex := new(big.Int).Sub(idx, big.NewInt(lower))
	return lookup.Data{
		Status:      lookup.CanParse,
		Probability: g.perStringProb,
		Index:       groupIndex,
		SourceIDs:   lookup.SourceIDSet([]string{"UNSEEN"}),
	}
}

func (g *UnseenGroup) IndexInGroup(candidate []byte) (*big.Int, bool) {
	res := g.Lookup(candidate)
	if !res.Status.Has(lookup.CanParse) {
		return nil, false
	}
	return res.Index, true
}

func (g *UnseenGroup) Iterator() Iterator {
	it := &unseenIterator{group: g}
	it.Restart()
	return it
}

// unseenIterator walks the unseen index space in windows of RegionSize
// elements, marking seen-terminal indices that fall inside the current
// window in a BitArray and yielding generated terminals for every
// unmarked bit (spec.md §4.4.2).
type unseenIterator struct {
	group       *UnseenGroup
	regionStart *big.Int
	windowSize  int
	bits        bitarray.BitArray
	cursor      int
	ended       bool
	current     []byte
}

func (it *unseenIterator) Restart() {
	it.regionStart = big.NewInt(0)
	it.ended = false
	it.loadWindow()
	it.advance(0)
}

func (it *unseenIterator) loadWindow() {
	remaining := new(big.Int).Sub(it.group.total, it.regionStart)
	size := RegionSize
	if remaining.Cmp(size) < 0 {
		size = remaining
	}
	it.windowSize = int(size.Int64())
	it.bits.Clear(it.windowSize)

	windowEnd := new(big.Int).Add(it.regionStart, size)
	for _, s := range it.group.seen {
		if len(s) != len(it.group.mask) {
			continue
		}
		sIdx := it.group.TerminalIndex(s)
		if sIdx.Cmp(it.regionStart) >= 0 && sIdx.Cmp(windowEnd) < 0 {
			offset := new(big.Int).Sub(sIdx, it.regionStart)
			it.bits.Mark(int(offset.Int64()))
		}
	}
}

func (it *unseenIterator) advance(from int) {
	for {
		k := it.bits.FindNextOpen(from)
		if k < it.windowSize {
			it.cursor = k
			pos := new(big.Int).Add(it.regionStart, big.NewInt(int64(k)))
			it.current = it.group.Generate(pos)
			return
		}
		it.regionStart.Add(it.regionStart, big.NewInt(int64(it.windowSize)))
		if it.regionStart.Cmp(it.group.total) >= 0 {
			it.ended = true
			return
		}
		it.loadWindow()
		from = 0
	}
}

func (it *unseenIterator) Increment() bool {
	if it.ended {
		return false
	}
	it.advance(it.cursor + 1)
	return !it.ended
}

func (it *unseenIterator) IsEnd() bool {
	return it.ended
}

func (it *unseenIterator) Current() []byte {
	return matchOutRepresentation(it.current, it.group.outRepr)
}
