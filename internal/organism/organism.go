// Package organism provides the concrete per-organism trait value store the
// query engine reads: organisms carry one dynamically typed value per layout
// slot, populations hold ordered organisms sharing one layout, and
// collections are ordered views used for aggregation and filtering.
package organism

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/vk/evosimgo/internal/layout"
)

// Org is one organism: an identity plus one value per layout entry.
type Org struct {
	id     uuid.UUID
	values []cty.Value
}

// New builds an organism with every trait at its layout default.
func New(l *layout.Layout) *Org {
	values := make([]cty.Value, l.NumSlots())
	for _, e := range l.Entries() {
		values[e.Slot] = defaultFor(e)
	}
	return &Org{id: uuid.New(), values: values}
}

func defaultFor(e *layout.Entry) cty.Value {
	if e.HasDefault {
		return e.Default
	}
	return cty.NullVal(e.Type)
}

// ID returns the organism's unique identity.
func (o *Org) ID() uuid.UUID { return o.id }

// Get returns the current value for a layout entry.
func (o *Org) Get(e *layout.Entry) cty.Value { return o.values[e.Slot] }

// Set writes a new value for a layout entry. Under the AllChanges archive
// policy the written value is also appended to the sequence companion.
func (o *Org) Set(e *layout.Entry, v cty.Value) {
	o.values[e.Slot] = v
	if e.SequenceSlot >= 0 {
		o.values[e.SequenceSlot] = appendToList(o.values[e.SequenceSlot], e.Type, v)
	}
}

// Reset archives the outgoing value per the entry's policy, then returns the
// trait to its default. The final write goes through Set so an AllChanges
// sequence still observes it.
func (o *Org) Reset(e *layout.Entry) {
	old := o.values[e.Slot]
	switch {
	case e.LastSlot >= 0:
		o.values[e.LastSlot] = old
	case e.HistorySlot >= 0:
		o.values[e.HistorySlot] = appendToList(o.values[e.HistorySlot], e.Type, old)
	}
	o.Set(e, defaultFor(e))
}

// Number returns the numeric form of an entry's current value.
func (o *Org) Number(e *layout.Entry) (float64, error) {
	return NumberOf(o.values[e.Slot])
}

// Render returns the textual form of an entry's current value.
func (o *Org) Render(e *layout.Entry) string {
	return RenderValue(o.values[e.Slot])
}

func appendToList(list cty.Value, elemType cty.Type, v cty.Value) cty.Value {
	var elems []cty.Value
	if list != cty.NilVal && !list.IsNull() {
		elems = list.AsValueSlice()
	}
	elems = append(elems, v)
	return cty.ListVal(elems)
}

// NumberOf converts a trait value to its numeric form; booleans count as 0/1.
func NumberOf(v cty.Value) (float64, error) {
	if v == cty.NilVal || v.IsNull() {
		return 0, fmt.Errorf("cannot read a number from a null trait value")
	}
	switch {
	case v.Type().Equals(cty.Bool):
		if v.True() {
			return 1, nil
		}
		return 0, nil
	case v.Type().Equals(cty.Number):
		f, _ := v.AsBigFloat().Float64()
		return f, nil
	default:
		conv, err := convert.Convert(v, cty.Number)
		if err != nil {
			return 0, fmt.Errorf("trait value of type %s is not numeric: %w", v.Type().FriendlyName(), err)
		}
		f, _ := conv.AsBigFloat().Float64()
		return f, nil
	}
}

// RenderValue returns the textual form of a trait value. Numbers render in
// their minimal form ("2", not "2.0"); compound values render as JSON.
func RenderValue(v cty.Value) string {
	if v == cty.NilVal || v.IsNull() {
		return ""
	}
	switch {
	case v.Type().Equals(cty.String):
		return v.AsString()
	case v.Type().Equals(cty.Number):
		f, _ := v.AsBigFloat().Float64()
		return strconv.FormatFloat(f, 'g', -1, 64)
	case v.Type().Equals(cty.Bool):
		return strconv.FormatBool(v.True())
	default:
		b, err := ctyjson.Marshal(v, v.Type())
		if err != nil {
			return ""
		}
		return string(b)
	}
}
