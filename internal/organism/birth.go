package organism

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/evosimgo/internal/layout"
	"github.com/vk/evosimgo/internal/trait"
)

// Offspring builds a new organism from the given parents, computing each
// trait per its inheritance policy. With no parents every trait starts at its
// default, same as New. Entries flagged ResetParent also reset each parent's
// copy through the archive-aware reset path.
func Offspring(l *layout.Layout, parents ...*Org) *Org {
	child := New(l)
	if len(parents) == 0 {
		return child
	}
	for _, e := range l.Entries() {
		if e.Derived {
			continue
		}
		if v, ok := inherited(e, parents); ok {
			child.Set(e, v)
		}
		if e.ResetParent {
			for _, parent := range parents {
				parent.Reset(e)
			}
		}
	}
	return child
}

// inherited computes the child value for one entry, or reports false when the
// policy leaves the default in place.
func inherited(e *layout.Entry, parents []*Org) (cty.Value, bool) {
	switch e.Init {
	case trait.InitParent:
		return parents[0].Get(e), true
	case trait.InitAverage:
		sum := 0.0
		for _, p := range parents {
			f, err := p.Number(e)
			if err != nil {
				return cty.NilVal, false
			}
			sum += f
		}
		return numericAs(e.Type, sum/float64(len(parents))), true
	case trait.InitMinimum:
		return foldParents(e, parents, func(best, f float64) bool { return f < best })
	case trait.InitMaximum:
		return foldParents(e, parents, func(best, f float64) bool { return f > best })
	default:
		return cty.NilVal, false
	}
}

func foldParents(e *layout.Entry, parents []*Org, better func(best, f float64) bool) (cty.Value, bool) {
	best, err := parents[0].Number(e)
	if err != nil {
		return cty.NilVal, false
	}
	for _, p := range parents[1:] {
		f, err := p.Number(e)
		if err != nil {
			return cty.NilVal, false
		}
		if better(best, f) {
			best = f
		}
	}
	return numericAs(e.Type, best), true
}

// numericAs folds a computed float back into the entry's declared type.
func numericAs(t cty.Type, f float64) cty.Value {
	if t.Equals(cty.Bool) {
		return cty.BoolVal(f != 0)
	}
	return cty.NumberFloatVal(f)
}
