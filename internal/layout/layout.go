// Package layout merges the trait registries of every module into one frozen,
// per-population mapping from trait names to value types and storage slots.
// The merge runs to completion and collects every violation so a user sees
// all configuration problems in a single pass.
package layout

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/evosimgo/internal/trait"
)

// Entry is one resolved trait in a frozen layout.
type Entry struct {
	Name string
	Type cty.Type
	Slot int

	// Access is the effective mode after merging: Owned when exactly one
	// module owns the name, Shared otherwise. Private entries keep Private.
	Access  trait.Access
	Private bool
	// Owner is the declaring module for private entries and the owning (or
	// first providing) module for public ones.
	Owner string

	Default    cty.Value
	HasDefault bool

	Init        trait.Init
	ResetParent bool
	Archive     trait.Archive

	// Derived marks archive companion entries (last_, archive_, sequence_).
	Derived bool

	// Companion slots materialized for the archive policy; -1 when absent.
	LastSlot     int
	HistorySlot  int
	SequenceSlot int
}

// IsNumeric reports whether the entry's values take part in arithmetic.
func (e *Entry) IsNumeric() bool { return trait.IsNumeric(e.Type) }

// Layout is the frozen result of a successful merge. It is read-only for the
// remainder of the run: trait values change, trait names and slots do not.
type Layout struct {
	entries []*Entry
	public  map[string]*Entry
	private map[string]map[string]*Entry
}

// NumSlots returns the number of storage slots an organism must carry.
func (l *Layout) NumSlots() int { return len(l.entries) }

// Entries returns every entry in slot order, companions included.
func (l *Layout) Entries() []*Entry { return l.entries }

// Lookup resolves a name in the shared namespace. Private traits are scoped
// to their declaring module and never resolve here; this is the view the
// query engine compiles equations against.
func (l *Layout) Lookup(name string) (*Entry, bool) {
	e, ok := l.public[name]
	return e, ok
}

// Has reports whether a name resolves in the shared namespace.
func (l *Layout) Has(name string) bool {
	_, ok := l.public[name]
	return ok
}

// IsNumeric reports whether a shared-namespace name resolves to a numeric
// entry. Unknown names report false.
func (l *Layout) IsNumeric(name string) bool {
	e, ok := l.public[name]
	return ok && e.IsNumeric()
}

// LookupFor resolves a name as seen by one module: the module's own private
// traits shadow the shared namespace; other modules' private traits stay
// invisible.
func (l *Layout) LookupFor(module, name string) (*Entry, bool) {
	if priv, ok := l.private[module]; ok {
		if e, ok := priv[name]; ok {
			return e, true
		}
	}
	return l.Lookup(name)
}
