// Package select_truncate provides truncation selection: the top fraction of
// the population by fitness survives, and the remaining slots are refilled
// with offspring of randomly drawn survivors.
package select_truncate

import (
	"context"
	"sort"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/evosimgo/internal/organism"
	"github.com/vk/evosimgo/internal/sim"
)

// Plugin implements the sim.Plugin interface for this package.
type Plugin struct{}

// Register registers the module type with the engine.
func (p *Plugin) Register(r *sim.Registry) {
	r.RegisterType("select_truncate", New)
}

// Module requires a fitness trait and keeps a private tally of how often
// each organism has been drawn as a parent.
type Module struct {
	sim.Base

	keepRatio float64
}

// New builds a select_truncate instance from its config block arguments.
func New(name, popName string, args map[string]cty.Value) (sim.Module, error) {
	ratio, err := sim.ArgNumber(args, "keep_ratio", 0.5)
	if err != nil {
		return nil, err
	}
	m := &Module{
		Base:      sim.NewBase(name, popName),
		keepRatio: ratio,
	}
	m.SetSelect()
	return m, nil
}

// Setup declares the fitness requirement and the private selection tally.
func (m *Module) Setup(ctx context.Context) error {
	if m.keepRatio <= 0 || m.keepRatio > 1 {
		m.AddError("keep_ratio must be in (0,1], got %g", m.keepRatio)
	}
	m.AddRequiredTrait("fitness", "Score used to rank organisms.", cty.Number)
	m.AddPrivateTrait("times_selected", "How often this organism has been a parent.",
		cty.NumberIntVal(0))
	return nil
}

// OnUpdate ranks the population by fitness, truncates to the keep fraction,
// and refills the freed slots with single-parent offspring of survivors.
func (m *Module) OnUpdate(ctx context.Context, w *sim.World) error {
	pop, err := w.Population(m.PopName())
	if err != nil {
		return err
	}
	fitness, ok := pop.Layout().Lookup("fitness")
	if !ok {
		return nil
	}
	tally, _ := pop.Layout().LookupFor(m.Name(), "times_selected")

	type ranked struct {
		org   *organism.Org
		score float64
	}
	all := make([]ranked, 0, pop.Len())
	for i := 0; i < pop.Len(); i++ {
		org := pop.At(i)
		f, err := org.Number(fitness)
		if err != nil {
			return err
		}
		all = append(all, ranked{org: org, score: f})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].score > all[j].score })

	keep := int(float64(len(all)) * m.keepRatio)
	if keep < 1 {
		keep = 1
	}
	if keep >= len(all) {
		return nil
	}

	for i := 0; i < keep; i++ {
		pop.Replace(i, all[i].org)
	}
	for i := keep; i < len(all); i++ {
		parent := all[w.Rand.Intn(keep)].org
		count, err := parent.Number(tally)
		if err == nil {
			parent.Set(tally, cty.NumberIntVal(int64(count)+1))
		}
		pop.Replace(i, organism.Offspring(pop.Layout(), parent))
	}
	return nil
}
