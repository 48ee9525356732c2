package nonterminal

// Collection is a deduplicating store of Nonterminals keyed by
// representation: first insert wins (spec.md §3/§4.5). It owns every
// Nonterminal it holds.
type Collection struct {
	byRepr map[string]*Nonterminal
	order  []string
}

// NewCollection returns an empty Collection.
func NewCollection() *Collection {
	return &Collection{byRepr: make(map[string]*Nonterminal)}
}

// GetOrInsert returns the Nonterminal already registered under repr,
// or registers and returns the Nonterminal built by build if repr is
// new. build is only called when repr has not been seen before.
func (c *Collection) GetOrInsert(repr string, build func() (*Nonterminal, error)) (*Nonterminal, error) {
	if existing, ok := c.byRepr[repr]; ok {
		return existing, nil
	}
	nt, err := build()
	if err != nil {
		return nil, err
	}
	c.byRepr[repr] = nt
	c.order = append(c.order, repr)
	return nt, nil
}

// Get returns the Nonterminal registered under repr, if any.
func (c *Collection) Get(repr string) (*Nonterminal, bool) {
	nt, ok := c.byRepr[repr]
	return nt, ok
}

// Len returns the number of distinct Nonterminals held.
func (c *Collection) Len() int {
	return len(c.order)
}
