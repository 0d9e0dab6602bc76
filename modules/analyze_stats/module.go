// Package analyze_stats provides the module that logs summary statistics of
// a numeric trait on every update.
package analyze_stats

import (
	"context"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/evosimgo/internal/ctxlog"
	"github.com/vk/evosimgo/internal/query"
	"github.com/vk/evosimgo/internal/sim"
)

// Plugin implements the sim.Plugin interface for this package.
type Plugin struct{}

// Register registers the module type with the engine.
func (p *Plugin) Register(r *sim.Registry) {
	r.RegisterType("analyze_stats", New)
}

// Module watches one numeric trait that some other module must provide.
type Module struct {
	sim.Base

	trait   string
	builder *query.Builder
}

// New builds an analyze_stats instance from its config block arguments.
func New(name, popName string, args map[string]cty.Value) (sim.Module, error) {
	traitName, err := sim.ArgString(args, "trait", "fitness")
	if err != nil {
		return nil, err
	}
	m := &Module{
		Base:    sim.NewBase(name, popName),
		trait:   traitName,
		builder: query.NewBuilder(nil),
	}
	m.SetAnalyze()
	return m, nil
}

// Setup declares the watched trait as required.
func (m *Module) Setup(ctx context.Context) error {
	m.AddRequiredTrait(m.trait, "Numeric trait to summarize.", cty.Number)
	return nil
}

// OnUpdate logs mean, min, max, and variance of the watched trait.
func (m *Module) OnUpdate(ctx context.Context, w *sim.World) error {
	pop, err := w.Population(m.PopName())
	if err != nil {
		return err
	}
	c := pop.Collect()
	ctxlog.FromContext(ctx).Info("Trait summary.",
		"module", m.Name(),
		"update", w.Update,
		"trait", m.trait,
		"mean", m.builder.Number(ctx, c, m.trait, "mean", 0),
		"min", m.builder.Number(ctx, c, m.trait, "min", 0),
		"max", m.builder.Number(ctx, c, m.trait, "max", 0),
		"variance", m.builder.Number(ctx, c, m.trait, "variance", 0),
	)
	return nil
}
