package terminal

import (
	"bytes"
	"math/big"

	"github.com/aledsdavies/pcfgcalc/core/bigcount"
	"github.com/aledsdavies/pcfgcalc/core/lookup"
)

// Entry is one parsed line of a seen terminal block: a lowercase
// terminal text and its training source ids. The loader gives each
// Entry its own copy of the text; entries do not share the buffer the
// terminals file was read into.
type Entry struct {
	Text      []byte
	SourceIDs map[string]struct{}
}

// SeenGroup is a contiguous run of equal-probability terminals parsed
// out of a nonterminal's terminals file (spec.md §4.4.1). Groups are
// typically small, since they share one probability, so lookup is
// linear.
type SeenGroup struct {
	terminals   []Entry
	probability float64
	outRepr     string
}

// NewSeenGroup builds a SeenGroup from its parsed lines in file order.
func NewSeenGroup(terminals []Entry, probability float64, outRepr string) *SeenGroup {
	return &SeenGroup{terminals: terminals, probability: probability, outRepr: outRepr}
}

func (g *SeenGroup) CountStrings() bigcount.BigCount {
	return bigcount.FromUint64(uint64(len(g.terminals)))
}

func (g *SeenGroup) Probability() float64 {
	return g.probability
}

func (g *SeenGroup) FirstString() []byte {
	return matchOutRepresentation(g.terminals[0].Text, g.outRepr)
}

func (g *SeenGroup) Lookup(candidate []byte) lookup.Data {
	lower := bytes.ToLower(candidate)
	for i, t := range g.terminals {
		if bytes.Equal(t.Text, lower) {
			return lookup.Data{
				Status:      lookup.CanParse,
				Probability: g.probability,
				Index:       big.NewInt(int64(i)),
				SourceIDs:   t.SourceIDs,
			}
		}
	}
	return lookup.Fail(lookup.TerminalNotFound)
}

func (g *SeenGroup) IndexInGroup(candidate []byte) (*big.Int, bool) {
	lower := bytes.ToLower(candidate)
	for i, t := range g.terminals {
		if bytes.Equal(t.Text, lower) {
			return big.NewInt(int64(i)), true
		}
	}
	return nil, false
}

func (g *SeenGroup) Iterator() Iterator {
	it := &seenIterator{group: g}
	it.Restart()
	return it
}

type seenIterator struct {
	group *SeenGroup
	pos   int
}

func (it *seenIterator) Restart() {
	it.pos = 0
}

func (it *seenIterator) Increment() bool {
	it.pos++
	return it.pos < len(it.group.terminals)
}

func (it *seenIterator) IsEnd() bool {
	return it.pos >= len(it.group.terminals)
}

func (it *seenIterator) Current() []byte {
	return matchOutRepresentation(it.group.terminals[it.pos].Text, it.group.outRepr)
}
