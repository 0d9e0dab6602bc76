package query

import (
	"context"
	"strconv"

	"github.com/hashicorp/hcl/v2/hclsyntax"

	"github.com/vk/evosimgo/internal/ctxlog"
	"github.com/vk/evosimgo/internal/layout"
	"github.com/vk/evosimgo/internal/organism"
)

// Builder is the query façade: it preprocesses a raw trait-or-equation
// string, picks the per-organism representation, compiles the equation
// against a layout, and composes the result with the reducer for the
// requested aggregation mode. Misconfiguration discovered here or at query
// time is reported through the context's logger and a caller-supplied
// default is returned; the run continues.
type Builder struct {
	eval Evaluator
}

// NewBuilder wires the façade to the embedded script evaluator used for
// ${...} expansion.
func NewBuilder(eval Evaluator) *Builder {
	return &Builder{eval: eval}
}

// Preprocess runs the macro pass with the builder's evaluator.
func (b *Builder) Preprocess(ctx context.Context, text string) string {
	return Preprocess(ctx, text, b.eval)
}

// Summary builds the single collection-to-value function for a raw
// trait-or-equation string and a mode string. A bare identifier naming a
// non-numeric trait keeps its textual form, rendered as a quoted literal;
// everything else compiles as a numeric equation.
func (b *Builder) Summary(ctx context.Context, l *layout.Layout, traitFun, mode string) (CollectFunc, error) {
	traitFun = b.Preprocess(ctx, traitFun)
	m, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}

	if hclsyntax.ValidIdentifier(traitFun) {
		if e, ok := l.Lookup(traitFun); ok && !e.IsNumeric() {
			get := func(o *organism.Org) string { return strconv.Quote(o.Render(e)) }
			return BuildStringCollect(l, m, get)
		}
	}

	get, err := CompileEquation(l, traitFun)
	if err != nil {
		return nil, err
	}
	return BuildNumericCollect(l, m, get)
}

// Number applies a trait equation and mode to a collection, yielding a
// numeric result. Empty collections return def without invoking the reducer.
func (b *Builder) Number(ctx context.Context, c organism.Collection, traitFun, mode string, def float64) float64 {
	if c.IsEmpty() {
		return def
	}
	fn, err := b.Summary(ctx, c.Layout(), traitFun, mode)
	if err != nil {
		b.report(ctx, err, traitFun, mode)
		return def
	}
	v, err := fn(c)
	if err != nil {
		b.report(ctx, err, traitFun, mode)
		return def
	}
	f, err := organism.NumberOf(v)
	if err != nil {
		b.report(ctx, err, traitFun, mode)
		return def
	}
	return f
}

// Text applies a trait equation and mode to a collection, yielding the
// textual result. Empty collections return def without invoking the reducer.
func (b *Builder) Text(ctx context.Context, c organism.Collection, traitFun, mode, def string) string {
	if c.IsEmpty() {
		return def
	}
	fn, err := b.Summary(ctx, c.Layout(), traitFun, mode)
	if err != nil {
		b.report(ctx, err, traitFun, mode)
		return def
	}
	v, err := fn(c)
	if err != nil {
		b.report(ctx, err, traitFun, mode)
		return def
	}
	return organism.RenderValue(v)
}

// Filter returns the sub-collection of organisms for which the
// boolean-valued equation is true (non-zero), order preserved.
func (b *Builder) Filter(ctx context.Context, c organism.Collection, equation string) organism.Collection {
	if c.IsEmpty() {
		return c
	}
	eq := b.Preprocess(ctx, equation)
	fn, err := CompileEquation(c.Layout(), eq)
	if err != nil {
		b.report(ctx, err, equation, "")
		return organism.Collect(c.Layout())
	}
	return c.Filter(func(o *organism.Org) bool {
		v, err := fn(o)
		if err != nil {
			b.report(ctx, err, equation, "")
			return false
		}
		return v != 0
	})
}

// FindMin returns a single-organism sub-collection positioned at the index
// of the smallest equation value.
func (b *Builder) FindMin(ctx context.Context, c organism.Collection, equation string) organism.Collection {
	return b.findExtreme(ctx, c, equation, "min_id")
}

// FindMax returns a single-organism sub-collection positioned at the index
// of the largest equation value.
func (b *Builder) FindMax(ctx context.Context, c organism.Collection, equation string) organism.Collection {
	return b.findExtreme(ctx, c, equation, "max_id")
}

func (b *Builder) findExtreme(ctx context.Context, c organism.Collection, equation, mode string) organism.Collection {
	if c.IsEmpty() {
		return c
	}
	idx := b.Number(ctx, c, equation, mode, 0)
	return c.Single(int(idx))
}

func (b *Builder) report(ctx context.Context, err error, traitFun, mode string) {
	ctxlog.FromContext(ctx).Error("trait query misconfigured",
		"equation", traitFun, "mode", mode, "err", err)
}
