package layout

import (
	"fmt"
	"strings"
)

// ModuleError carries a problem recorded by a single module during its setup
// phase, surfaced when the layout is built.
type ModuleError struct {
	Module string
	Msg    string
}

func (e *ModuleError) Error() string {
	return fmt.Sprintf("module %q: %s", e.Module, e.Msg)
}

// AccessConflictError reports an ownership or type violation between the
// declarations of two or more modules for the same trait name.
type AccessConflictError struct {
	Trait   string
	Modules []string
	Reason  string
}

func (e *AccessConflictError) Error() string {
	return fmt.Sprintf("trait %q: %s (declared by %s)",
		e.Trait, e.Reason, strings.Join(e.Modules, ", "))
}

// UnsatisfiedRequiredTraitError reports a Required trait with no Owned or
// Shared provider of a matching type anywhere in the merged configuration.
type UnsatisfiedRequiredTraitError struct {
	Trait   string
	Modules []string
	Reason  string
}

func (e *UnsatisfiedRequiredTraitError) Error() string {
	return fmt.Sprintf("trait %q: %s (required by %s)",
		e.Trait, e.Reason, strings.Join(e.Modules, ", "))
}
