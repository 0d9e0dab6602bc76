package trait

import "github.com/zclconf/go-cty/cty"

// Spec is one declared trait. It is created by Registry.Declare during a
// module's setup phase and configured through its fluent setters; once the
// owning registry freezes, further mutation is rejected and recorded as a
// module error.
type Spec struct {
	reg  *Registry
	name string
	desc string
	typ  cty.Type

	access      Access
	def         cty.Value
	hasDefault  bool
	init        Init
	resetParent bool
	archive     Archive
	frozen      bool
}

// Name returns the trait's name, unique within its registry.
func (s *Spec) Name() string { return s.name }

// Desc returns the human-readable description given at declaration.
func (s *Spec) Desc() string { return s.desc }

// Type returns the trait's erased value type.
func (s *Spec) Type() cty.Type { return s.typ }

// Access returns the declared access mode.
func (s *Spec) Access() Access { return s.access }

// Init returns the inheritance policy applied on birth.
func (s *Spec) Init() Init { return s.init }

// Archive returns the history-retention policy.
func (s *Spec) Archive() Archive { return s.archive }

// ResetParent reports whether the parent is also reset on birth.
func (s *Spec) ResetParent() bool { return s.resetParent }

// HasDefault reports whether a usable default value exists, independent of
// the trait's erased type.
func (s *Spec) HasDefault() bool { return s.hasDefault }

// Default returns the declared default value, or cty.NilVal if none exists.
func (s *Spec) Default() cty.Value {
	if !s.hasDefault {
		return cty.NilVal
	}
	return s.def
}

// mutable gates every setter on the setup phase.
func (s *Spec) mutable(op string) bool {
	if s.frozen {
		s.reg.errorf("trait %q in module %q: %s after setup phase ended", s.name, s.reg.owner, op)
		return false
	}
	return true
}

// requireNumeric records a module error when an ordering/averaging policy is
// declared on a non-numeric value type.
func (s *Spec) requireNumeric(op string) bool {
	if !IsNumeric(s.typ) {
		s.reg.errorf("trait %q in module %q: cannot %s for non-numeric type %s",
			s.name, s.reg.owner, op, s.typ.FriendlyName())
		return false
	}
	return true
}

// SetDefault sets the value a newly built organism starts with. The value
// must match the trait's declared type, and Required traits may never carry
// one (they must be provided externally).
func (s *Spec) SetDefault(v cty.Value) *Spec {
	if !s.mutable("SetDefault") {
		return s
	}
	if s.access == AccessRequired {
		s.reg.errorf("trait %q in module %q: required traits cannot carry a default value", s.name, s.reg.owner)
		return s
	}
	if !v.Type().Equals(s.typ) {
		s.reg.errorf("trait %q in module %q: default of type %s does not match declared type %s",
			s.name, s.reg.owner, v.Type().FriendlyName(), s.typ.FriendlyName())
		return s
	}
	s.def = v
	s.hasDefault = true
	return s
}

// SetInheritParent makes offspring copy this trait from their first parent.
func (s *Spec) SetInheritParent() *Spec {
	if s.mutable("SetInheritParent") {
		s.init = InitParent
	}
	return s
}

// SetInheritAverage makes offspring start at the average of all parents.
func (s *Spec) SetInheritAverage() *Spec {
	if s.mutable("SetInheritAverage") && s.requireNumeric("inherit the average") {
		s.init = InitAverage
	}
	return s
}

// SetInheritMinimum makes offspring start at the lowest parent value.
func (s *Spec) SetInheritMinimum() *Spec {
	if s.mutable("SetInheritMinimum") && s.requireNumeric("inherit the minimum") {
		s.init = InitMinimum
	}
	return s
}

// SetInheritMaximum makes offspring start at the highest parent value.
func (s *Spec) SetInheritMaximum() *Spec {
	if s.mutable("SetInheritMaximum") && s.requireNumeric("inherit the maximum") {
		s.init = InitMaximum
	}
	return s
}

// SetParentReset makes a birth also reset the parent's copy of this trait.
func (s *Spec) SetParentReset() *Spec {
	if s.mutable("SetParentReset") {
		s.resetParent = true
	}
	return s
}

// SetArchiveLast stores the outgoing value in "last_<name>" on each reset.
func (s *Spec) SetArchiveLast() *Spec {
	if s.mutable("SetArchiveLast") {
		s.archive = ArchiveLastReset
	}
	return s
}

// SetArchiveAll appends the outgoing value to "archive_<name>" on each reset.
func (s *Spec) SetArchiveAll() *Spec {
	if s.mutable("SetArchiveAll") {
		s.archive = ArchiveAllResets
	}
	return s
}

// SetArchiveChanges appends every written value to "sequence_<name>".
func (s *Spec) SetArchiveChanges() *Spec {
	if s.mutable("SetArchiveChanges") {
		s.archive = ArchiveAllChanges
	}
	return s
}
