package layout

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/evosimgo/internal/trait"
)

// decl pairs a trait spec with its declaring module for the merge.
type decl struct {
	module string
	spec   *trait.Spec
}

// Build merges every module's registry into one frozen layout. It runs to
// completion and returns either a layout or the full list of violations;
// never both. Registries must be frozen before the build, and the returned
// layout is read-only: no trait names are added after this point.
func Build(regs []*trait.Registry) (*Layout, []error) {
	var errs []error

	// Surface every module-local declaration problem first.
	for _, reg := range regs {
		for _, msg := range reg.Errors() {
			errs = append(errs, &ModuleError{Module: reg.Owner(), Msg: msg})
		}
	}

	// Group shared-namespace declarations by name, keeping first-seen order
	// so slot assignment is deterministic across runs.
	var order []string
	byName := make(map[string][]decl)
	var privates []decl
	for _, reg := range regs {
		for _, s := range reg.Specs() {
			d := decl{module: reg.Owner(), spec: s}
			switch s.Access() {
			case trait.AccessPrivate:
				privates = append(privates, d)
			case trait.AccessUnknown:
				errs = append(errs, &ModuleError{
					Module: reg.Owner(),
					Msg:    fmt.Sprintf("trait %q declared with unknown access mode", s.Name()),
				})
			default:
				if _, ok := byName[s.Name()]; !ok {
					order = append(order, s.Name())
				}
				byName[s.Name()] = append(byName[s.Name()], d)
			}
		}
	}

	var entries []*Entry
	for _, name := range order {
		entry, entryErrs := resolve(name, byName[name])
		errs = append(errs, entryErrs...)
		if entry != nil {
			entries = append(entries, entry)
		}
	}

	var privEntries []*Entry
	for _, d := range privates {
		s := d.spec
		if !s.HasDefault() {
			errs = append(errs, &ModuleError{
				Module: d.module,
				Msg:    fmt.Sprintf("private trait %q has no default value", s.Name()),
			})
			continue
		}
		privEntries = append(privEntries, &Entry{
			Name:        s.Name(),
			Type:        s.Type(),
			Access:      trait.AccessPrivate,
			Private:     true,
			Owner:       d.module,
			Default:     s.Default(),
			HasDefault:  true,
			Init:        s.Init(),
			ResetParent: s.ResetParent(),
			Archive:     s.Archive(),
		})
	}

	// Archive companions live in the same namespace as declared traits; a
	// collision would make the companion unaddressable.
	names := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		names[e.Name] = struct{}{}
	}
	for _, e := range append(entries, privEntries...) {
		for _, companion := range companionNames(e) {
			if _, taken := names[companion]; taken && !e.Private {
				errs = append(errs, &AccessConflictError{
					Trait:   companion,
					Modules: []string{e.Owner},
					Reason:  "archive companion name collides with a declared trait",
				})
			}
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	l := &Layout{
		public:  make(map[string]*Entry),
		private: make(map[string]map[string]*Entry),
	}
	for _, e := range entries {
		l.place(e)
	}
	for _, e := range privEntries {
		l.place(e)
	}
	return l, nil
}

// resolve merges all declarations of one shared-namespace name into a single
// entry, collecting every violated invariant along the way.
func resolve(name string, decls []decl) (*Entry, []error) {
	var errs []error
	var owners, providers, requireds []decl
	modules := make([]string, 0, len(decls))
	for _, d := range decls {
		modules = append(modules, d.module)
		switch d.spec.Access() {
		case trait.AccessOwned:
			owners = append(owners, d)
			providers = append(providers, d)
		case trait.AccessShared:
			providers = append(providers, d)
		case trait.AccessRequired:
			requireds = append(requireds, d)
		}
	}

	if len(owners) > 1 {
		errs = append(errs, &AccessConflictError{
			Trait:   name,
			Modules: declModules(owners),
			Reason:  "declared Owned by more than one module",
		})
	}
	if len(owners) > 0 && len(providers) > len(owners) {
		errs = append(errs, &AccessConflictError{
			Trait:   name,
			Modules: modules,
			Reason:  "declared Owned by one module and Shared by another",
		})
	}

	if len(providers) == 0 {
		errs = append(errs, &UnsatisfiedRequiredTraitError{
			Trait:   name,
			Modules: declModules(requireds),
			Reason:  "no module declares an Owned or Shared provider",
		})
		return nil, errs
	}

	// All providers must agree on the erased value type.
	entryType := providers[0].spec.Type()
	for _, d := range providers[1:] {
		if !d.spec.Type().Equals(entryType) {
			errs = append(errs, &AccessConflictError{
				Trait:   name,
				Modules: declModules(providers),
				Reason: fmt.Sprintf("declared with conflicting types %s and %s",
					entryType.FriendlyName(), d.spec.Type().FriendlyName()),
			})
			break
		}
	}

	// A requiring module must find a provider of the exact type it expects.
	for _, d := range requireds {
		if !d.spec.Type().Equals(entryType) {
			errs = append(errs, &UnsatisfiedRequiredTraitError{
				Trait:   name,
				Modules: []string{d.module},
				Reason: fmt.Sprintf("no provider of the required type %s (provided as %s)",
					d.spec.Type().FriendlyName(), entryType.FriendlyName()),
			})
		}
	}

	// Exactly one default value must emerge. Owned traits need their own;
	// Shared declarers may split declaration and provision, but disagreeing
	// defaults are a conflict, not a race for first place.
	var def cty.Value
	hasDefault := false
	for _, d := range providers {
		if !d.spec.HasDefault() {
			if d.spec.Access() == trait.AccessOwned {
				errs = append(errs, &ModuleError{
					Module: d.module,
					Msg:    fmt.Sprintf("owned trait %q has no default value", name),
				})
			}
			continue
		}
		v := d.spec.Default()
		if hasDefault && !v.RawEquals(def) {
			errs = append(errs, &AccessConflictError{
				Trait:   name,
				Modules: declModules(providers),
				Reason:  "declared with disagreeing default values",
			})
			continue
		}
		def = v
		hasDefault = true
	}
	if !hasDefault && len(owners) == 0 {
		errs = append(errs, &ModuleError{
			Module: providers[0].module,
			Msg:    fmt.Sprintf("shared trait %q has no default value from any declaring module", name),
		})
	}

	// Non-default lifecycle policies must agree across declarers; a single
	// non-default policy wins over Default.
	init := trait.InitDefault
	archive := trait.ArchiveNone
	resetParent := false
	for _, d := range decls {
		if p := d.spec.Init(); p != trait.InitDefault {
			if init != trait.InitDefault && init != p {
				errs = append(errs, &AccessConflictError{
					Trait:   name,
					Modules: modules,
					Reason:  "declared with conflicting inheritance policies",
				})
			}
			init = p
		}
		if p := d.spec.Archive(); p != trait.ArchiveNone {
			if archive != trait.ArchiveNone && archive != p {
				errs = append(errs, &AccessConflictError{
					Trait:   name,
					Modules: modules,
					Reason:  "declared with conflicting archive policies",
				})
			}
			archive = p
		}
		if d.spec.ResetParent() {
			resetParent = true
		}
	}

	access := trait.AccessShared
	owner := providers[0].module
	if len(owners) == 1 && len(providers) == 1 {
		access = trait.AccessOwned
		owner = owners[0].module
	}

	return &Entry{
		Name:        name,
		Type:        entryType,
		Access:      access,
		Owner:       owner,
		Default:     def,
		HasDefault:  hasDefault,
		Init:        init,
		ResetParent: resetParent,
		Archive:     archive,
	}, errs
}

// companionNames lists the derived entry names an archive policy creates.
func companionNames(e *Entry) []string {
	switch e.Archive {
	case trait.ArchiveLastReset:
		return []string{"last_" + e.Name}
	case trait.ArchiveAllResets:
		return []string{"archive_" + e.Name}
	case trait.ArchiveAllChanges:
		return []string{"sequence_" + e.Name}
	default:
		return nil
	}
}

// place assigns the next slot to an entry, materializes its archive
// companions, and indexes everything by name.
func (l *Layout) place(e *Entry) {
	e.Slot = len(l.entries)
	e.LastSlot, e.HistorySlot, e.SequenceSlot = -1, -1, -1
	l.entries = append(l.entries, e)
	l.index(e)

	switch e.Archive {
	case trait.ArchiveLastReset:
		// Null until the first reset; the companion records the value at
		// the most recent reset, and no reset has happened yet.
		c := l.companion(e, "last_"+e.Name, e.Type, cty.NilVal, false)
		e.LastSlot = c.Slot
	case trait.ArchiveAllResets:
		c := l.companion(e, "archive_"+e.Name, cty.List(e.Type), cty.ListValEmpty(e.Type), true)
		e.HistorySlot = c.Slot
	case trait.ArchiveAllChanges:
		c := l.companion(e, "sequence_"+e.Name, cty.List(e.Type), cty.ListValEmpty(e.Type), true)
		e.SequenceSlot = c.Slot
	}
}

func (l *Layout) companion(base *Entry, name string, typ cty.Type, def cty.Value, hasDefault bool) *Entry {
	c := &Entry{
		Name:         name,
		Type:         typ,
		Slot:         len(l.entries),
		Access:       base.Access,
		Private:      base.Private,
		Owner:        base.Owner,
		Default:      def,
		HasDefault:   hasDefault,
		Derived:      true,
		LastSlot:     -1,
		HistorySlot:  -1,
		SequenceSlot: -1,
	}
	l.entries = append(l.entries, c)
	l.index(c)
	return c
}

func (l *Layout) index(e *Entry) {
	if e.Private {
		priv, ok := l.private[e.Owner]
		if !ok {
			priv = make(map[string]*Entry)
			l.private[e.Owner] = priv
		}
		priv[e.Name] = e
		return
	}
	l.public[e.Name] = e
}

func declModules(decls []decl) []string {
	out := make([]string, 0, len(decls))
	for _, d := range decls {
		out = append(out, d.module)
	}
	return out
}
