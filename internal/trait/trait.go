// Package trait implements the per-module trait contract: the declaration of
// a named, dynamically typed organism attribute together with the access
// rights, default value, inheritance policy, and archive policy the declaring
// module holds over it.
package trait

import (
	"github.com/zclconf/go-cty/cty"
)

// Access is the read/write contract a module holds over a trait.
type Access int

const (
	// AccessUnknown means no access level was given; always a configuration problem.
	AccessUnknown Access = iota
	// AccessOwned traits are written only by the declaring module; others may read.
	AccessOwned
	// AccessShared traits may be written by the declaring module and by others.
	AccessShared
	// AccessRequired traits are read by the declaring module; another module must provide them.
	AccessRequired
	// AccessPrivate traits are visible to the declaring module alone.
	AccessPrivate
)

// String returns the lowercase keyword for the access mode.
func (a Access) String() string {
	switch a {
	case AccessOwned:
		return "owned"
	case AccessShared:
		return "shared"
	case AccessRequired:
		return "required"
	case AccessPrivate:
		return "private"
	default:
		return "unknown"
	}
}

// Init describes how a trait value is produced for a newly born organism.
type Init int

const (
	// InitDefault resets the trait to its declared default value.
	InitDefault Init = iota
	// InitParent copies the value from the first parent.
	InitParent
	// InitAverage averages the value across all parents.
	InitAverage
	// InitMinimum takes the lowest value across all parents.
	InitMinimum
	// InitMaximum takes the highest value across all parents.
	InitMaximum
)

// String returns the lowercase keyword for the inheritance policy.
func (i Init) String() string {
	switch i {
	case InitParent:
		return "parent"
	case InitAverage:
		return "average"
	case InitMinimum:
		return "minimum"
	case InitMaximum:
		return "maximum"
	default:
		return "default"
	}
}

// Archive describes which historical values of a trait are retained.
type Archive int

const (
	// ArchiveNone keeps no history.
	ArchiveNone Archive = iota
	// ArchiveLastReset stores the value at the most recent reset in "last_<name>".
	ArchiveLastReset
	// ArchiveAllResets appends the value at every reset to "archive_<name>".
	ArchiveAllResets
	// ArchiveAllChanges appends every written value to "sequence_<name>".
	ArchiveAllChanges
)

// IsNumeric reports whether values of the given type can take part in
// arithmetic. Booleans count as numeric: equations treat them as 0/1.
func IsNumeric(t cty.Type) bool {
	return t.Equals(cty.Number) || t.Equals(cty.Bool)
}
