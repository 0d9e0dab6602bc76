package query

import "fmt"

// UnknownTraitReferenceError reports an equation referencing a name absent
// from the layout's shared namespace.
type UnknownTraitReferenceError struct {
	Trait    string
	Equation string
}

func (e *UnknownTraitReferenceError) Error() string {
	return fmt.Sprintf("equation %q references unknown trait %q", e.Equation, e.Trait)
}

// UnknownAggregationModeError reports a mode keyword the resolver does not
// recognize, or one that cannot apply to the underlying value type.
type UnknownAggregationModeError struct {
	Mode   string
	Reason string
}

func (e *UnknownAggregationModeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unknown trait filter %q: %s", e.Mode, e.Reason)
	}
	return fmt.Sprintf("unknown trait filter %q", e.Mode)
}

// IndexOutOfRangeError reports a literal-index mode outside the collection.
type IndexOutOfRangeError struct {
	Index int
	Size  int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("index %d is out of range for a collection of %d organisms", e.Index, e.Size)
}
