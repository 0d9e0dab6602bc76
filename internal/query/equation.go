package query

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/evosimgo/internal/layout"
	"github.com/vk/evosimgo/internal/organism"
)

// NumFunc evaluates a compiled equation for one organism.
type NumFunc func(*organism.Org) (float64, error)

// StrFunc renders a per-organism textual value.
type StrFunc func(*organism.Org) string

// CompileEquation turns a (already preprocessed) numeric expression into a
// per-organism function bound to one layout. Every referenced root name must
// resolve in the layout's shared namespace. The returned function carries no
// mutable state and is safe to reuse within one layout generation.
func CompileEquation(l *layout.Layout, equation string) (NumFunc, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(equation), "equation", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing equation %q: %s", equation, diags.Error())
	}

	var entries []*layout.Entry
	seen := make(map[string]struct{})
	for _, traversal := range expr.Variables() {
		name := traversal.RootName()
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		entry, ok := l.Lookup(name)
		if !ok {
			return nil, &UnknownTraitReferenceError{Trait: name, Equation: equation}
		}
		entries = append(entries, entry)
	}

	return func(o *organism.Org) (float64, error) {
		vars := make(map[string]cty.Value, len(entries))
		for _, e := range entries {
			vars[e.Name] = o.Get(e)
		}
		v, diags := expr.Value(&hcl.EvalContext{Variables: vars})
		if diags.HasErrors() {
			return 0, fmt.Errorf("evaluating equation %q: %s", equation, diags.Error())
		}
		return organism.NumberOf(v)
	}, nil
}

// EquationTraits returns the unique trait names an equation references,
// whether or not they resolve in any layout.
func EquationTraits(equation string) ([]string, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(equation), "equation", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing equation %q: %s", equation, diags.Error())
	}
	var names []string
	seen := make(map[string]struct{})
	for _, traversal := range expr.Variables() {
		name := traversal.RootName()
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names, nil
}
