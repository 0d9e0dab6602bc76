package organism

import "github.com/vk/evosimgo/internal/layout"

// Population is a named, ordered set of organisms sharing one frozen layout.
type Population struct {
	name   string
	layout *layout.Layout
	orgs   []*Org
}

// NewPopulation builds a population of the given size, each organism starting
// at the layout's defaults.
func NewPopulation(name string, l *layout.Layout, size int) *Population {
	p := &Population{name: name, layout: l}
	for i := 0; i < size; i++ {
		p.orgs = append(p.orgs, New(l))
	}
	return p
}

// Name returns the population's configured name.
func (p *Population) Name() string { return p.name }

// Layout returns the frozen layout every organism in this population uses.
func (p *Population) Layout() *layout.Layout { return p.layout }

// Len returns the number of organisms.
func (p *Population) Len() int { return len(p.orgs) }

// At returns the organism at the given position.
func (p *Population) At(i int) *Org { return p.orgs[i] }

// Append adds an organism at the end of the population.
func (p *Population) Append(o *Org) { p.orgs = append(p.orgs, o) }

// Replace swaps in a new organism at the given position.
func (p *Population) Replace(i int, o *Org) { p.orgs[i] = o }

// Collect returns an ordered view over the whole population.
func (p *Population) Collect() Collection {
	return Collection{layout: p.layout, orgs: p.orgs}
}

// Collection is an ordered, iterable view over organism references: a whole
// population or any filtered subset of one. The zero Collection is empty.
type Collection struct {
	layout *layout.Layout
	orgs   []*Org
}

// Collect builds a collection over explicit organism references.
func Collect(l *layout.Layout, orgs ...*Org) Collection {
	return Collection{layout: l, orgs: orgs}
}

// Layout returns the layout the collection's organisms share. Empty
// collections may carry a nil layout.
func (c Collection) Layout() *layout.Layout { return c.layout }

// Len returns the number of organisms in the collection.
func (c Collection) Len() int { return len(c.orgs) }

// IsEmpty reports whether the collection holds no organisms.
func (c Collection) IsEmpty() bool { return len(c.orgs) == 0 }

// At returns the organism at the given position in iteration order.
func (c Collection) At(i int) *Org { return c.orgs[i] }

// Orgs returns the backing references in iteration order.
func (c Collection) Orgs() []*Org { return c.orgs }

// Filter returns the sub-collection of organisms the predicate keeps,
// preserving iteration order.
func (c Collection) Filter(keep func(*Org) bool) Collection {
	out := Collection{layout: c.layout}
	for _, o := range c.orgs {
		if keep(o) {
			out.orgs = append(out.orgs, o)
		}
	}
	return out
}

// Single returns a one-organism collection positioned at index i.
func (c Collection) Single(i int) Collection {
	return Collection{layout: c.layout, orgs: []*Org{c.orgs[i]}}
}
