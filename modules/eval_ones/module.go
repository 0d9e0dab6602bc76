// Package eval_ones provides the classic max-ones fitness evaluator: an
// organism's fitness is the count of '1' runes in its genome.
package eval_ones

import (
	"context"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/evosimgo/internal/sim"
)

// Plugin implements the sim.Plugin interface for this package.
type Plugin struct{}

// Register registers the module type with the engine.
func (p *Plugin) Register(r *sim.Registry) {
	r.RegisterType("eval_ones", New)
}

// Module reads genomes and owns the fitness trait.
type Module struct {
	sim.Base
}

// New builds an eval_ones instance from its config block arguments.
func New(name, popName string, args map[string]cty.Value) (sim.Module, error) {
	m := &Module{Base: sim.NewBase(name, popName)}
	m.SetEvaluate()
	return m, nil
}

// Setup declares the genome requirement and the fitness trait. The previous
// value of fitness stays queryable as last_fitness after divide resets.
func (m *Module) Setup(ctx context.Context) error {
	m.AddRequiredTrait("genome", "Bitstring genome to score.", cty.String)
	m.AddOwnedTrait("fitness", "Count of ones in the genome.",
		cty.NumberIntVal(0)).
		SetArchiveLast()
	return nil
}

// OnUpdate scores every organism.
func (m *Module) OnUpdate(ctx context.Context, w *sim.World) error {
	pop, err := w.Population(m.PopName())
	if err != nil {
		return err
	}
	genome, ok := pop.Layout().Lookup("genome")
	if !ok {
		return nil
	}
	fitness, _ := pop.Layout().LookupFor(m.Name(), "fitness")

	for i := 0; i < pop.Len(); i++ {
		org := pop.At(i)
		ones := strings.Count(org.Get(genome).AsString(), "1")
		org.Set(fitness, cty.NumberIntVal(int64(ones)))
	}
	return nil
}
