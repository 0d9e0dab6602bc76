// Package script is the embedded expression layer configuration scripts talk
// to: it evaluates one HCL expression at a time against the live populations,
// exposing the per-collection query operations as functions and implementing
// the evaluator callback the macro preprocessor relies on.
package script

import (
	"context"
	"fmt"
	"reflect"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/vk/evosimgo/internal/organism"
	"github.com/vk/evosimgo/internal/query"
)

// collectionType is the capsule carrying organism collections through script
// values, so FILTER results feed straight into CALC_* calls.
var collectionType = cty.Capsule("org_list", reflect.TypeOf(organism.Collection{}))

// Engine evaluates configuration-script expressions. It is single-threaded
// like the rest of the core: populations are registered during setup and
// expressions run between update phases.
type Engine struct {
	builder *query.Builder
	pops    map[string]*organism.Population
	globals map[string]func() cty.Value
}

// NewEngine builds an engine wired to its own query façade.
func NewEngine() *Engine {
	e := &Engine{
		pops:    make(map[string]*organism.Population),
		globals: make(map[string]func() cty.Value),
	}
	e.builder = query.NewBuilder(e)
	return e
}

// Builder returns the query façade bound to this engine's evaluator.
func (e *Engine) Builder() *query.Builder { return e.builder }

// RegisterPopulation exposes a population as a script variable under its
// name. The collection view is taken fresh on every evaluation, so scripts
// always see the live organisms.
func (e *Engine) RegisterPopulation(p *organism.Population) {
	e.pops[p.Name()] = p
}

// RegisterGlobal exposes a read-only script variable computed on demand,
// e.g. the current update number.
func (e *Engine) RegisterGlobal(name string, get func() cty.Value) {
	e.globals[name] = get
}

// Execute evaluates one expression and renders the result textually. It is
// the query.Evaluator the preprocessor calls back into for ${...} spans.
func (e *Engine) Execute(ctx context.Context, src string) (string, error) {
	v, err := e.Eval(ctx, src)
	if err != nil {
		return "", err
	}
	return organism.RenderValue(v), nil
}

// Eval evaluates one expression to its dynamic value.
func (e *Engine) Eval(ctx context.Context, src string) (cty.Value, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), "script", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return cty.NilVal, fmt.Errorf("parsing expression %q: %s", src, diags.Error())
	}
	v, diags := expr.Value(&hcl.EvalContext{
		Variables: e.variables(),
		Functions: e.functions(ctx),
	})
	if diags.HasErrors() {
		return cty.NilVal, fmt.Errorf("evaluating expression %q: %s", src, diags.Error())
	}
	return v, nil
}

func (e *Engine) variables() map[string]cty.Value {
	vars := make(map[string]cty.Value, len(e.pops)+len(e.globals))
	for name, p := range e.pops {
		c := p.Collect()
		vars[name] = cty.CapsuleVal(collectionType, &c)
	}
	for name, get := range e.globals {
		vars[name] = get()
	}
	return vars
}

// functions exposes the query operation family. Functions are rebuilt per
// evaluation so query diagnostics reach the context's logger.
func (e *Engine) functions(ctx context.Context) map[string]function.Function {
	return map[string]function.Function{
		"TRAIT":         e.textFunc(ctx, "", ""),
		"CALC_MODE":     e.textFunc(ctx, "mode", ""),
		"CALC_RICHNESS": e.numberFunc(ctx, "richness"),
		"CALC_MEAN":     e.numberFunc(ctx, "mean"),
		"CALC_MIN":      e.numberFunc(ctx, "min"),
		"CALC_MAX":      e.numberFunc(ctx, "max"),
		"ID_MIN":        e.numberFunc(ctx, "min_id"),
		"ID_MAX":        e.numberFunc(ctx, "max_id"),
		"CALC_MEDIAN":   e.numberFunc(ctx, "median"),
		"CALC_VARIANCE": e.numberFunc(ctx, "variance"),
		"CALC_STDDEV":   e.numberFunc(ctx, "stddev"),
		"CALC_SUM":      e.numberFunc(ctx, "sum"),
		"CALC_ENTROPY":  e.numberFunc(ctx, "entropy"),
		"FIND_MIN": e.collectionFunc(func(c organism.Collection, eq string) organism.Collection {
			return e.builder.FindMin(ctx, c, eq)
		}),
		"FIND_MAX": e.collectionFunc(func(c organism.Collection, eq string) organism.Collection {
			return e.builder.FindMax(ctx, c, eq)
		}),
		"FILTER": e.collectionFunc(func(c organism.Collection, eq string) organism.Collection {
			return e.builder.Filter(ctx, c, eq)
		}),
		"SIZE": function.New(&function.Spec{
			Params: []function.Parameter{{Name: "collection", Type: collectionType}},
			Type:   function.StaticReturnType(cty.Number),
			Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
				c := args[0].EncapsulatedValue().(*organism.Collection)
				return cty.NumberIntVal(int64(c.Len())), nil
			},
		}),
		"GET_UPDATE": function.New(&function.Spec{
			Params: nil,
			Type:   function.StaticReturnType(cty.Number),
			Impl: func(_ []cty.Value, _ cty.Type) (cty.Value, error) {
				if get, ok := e.globals["update"]; ok {
					return get(), nil
				}
				return cty.Zero, nil
			},
		}),
		"PP": function.New(&function.Spec{
			Params: []function.Parameter{{Name: "text", Type: cty.String}},
			Type:   function.StaticReturnType(cty.String),
			Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
				return cty.StringVal(e.builder.Preprocess(ctx, args[0].AsString())), nil
			},
		}),
	}
}

// queryParams is the common (collection, equation) signature.
var queryParams = []function.Parameter{
	{Name: "collection", Type: collectionType},
	{Name: "equation", Type: cty.String},
}

func (e *Engine) numberFunc(ctx context.Context, mode string) function.Function {
	return function.New(&function.Spec{
		Params: queryParams,
		Type:   function.StaticReturnType(cty.Number),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			c := args[0].EncapsulatedValue().(*organism.Collection)
			return cty.NumberFloatVal(e.builder.Number(ctx, *c, args[1].AsString(), mode, 0)), nil
		},
	})
}

func (e *Engine) textFunc(ctx context.Context, mode, def string) function.Function {
	return function.New(&function.Spec{
		Params: queryParams,
		Type:   function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			c := args[0].EncapsulatedValue().(*organism.Collection)
			return cty.StringVal(e.builder.Text(ctx, *c, args[1].AsString(), mode, def)), nil
		},
	})
}

func (e *Engine) collectionFunc(apply func(organism.Collection, string) organism.Collection) function.Function {
	return function.New(&function.Spec{
		Params: queryParams,
		Type:   function.StaticReturnType(collectionType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			c := args[0].EncapsulatedValue().(*organism.Collection)
			out := apply(*c, args[1].AsString())
			return cty.CapsuleVal(collectionType, &out), nil
		},
	})
}
