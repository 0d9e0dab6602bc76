// Package gen_random provides the module that seeds each organism with a
// random bitstring genome and applies per-bit mutation on every later update.
package gen_random

import (
	"context"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/evosimgo/internal/ctxlog"
	"github.com/vk/evosimgo/internal/sim"
)

// Plugin implements the sim.Plugin interface for this package.
type Plugin struct{}

// Register registers the module type with the engine.
func (p *Plugin) Register(r *sim.Registry) {
	r.RegisterType("gen_random", New)
}

// Module owns the genome trait: a string of '0' and '1' runes.
type Module struct {
	sim.Base

	bits         int
	mutationRate float64
}

// New builds a gen_random instance from its config block arguments.
func New(name, popName string, args map[string]cty.Value) (sim.Module, error) {
	bits, err := sim.ArgInt(args, "bits", 32)
	if err != nil {
		return nil, err
	}
	rate, err := sim.ArgNumber(args, "mutation_rate", 0.01)
	if err != nil {
		return nil, err
	}
	m := &Module{
		Base:         sim.NewBase(name, popName),
		bits:         bits,
		mutationRate: rate,
	}
	m.SetPlacement()
	return m, nil
}

// Setup declares the genome trait. Offspring copy the first parent's genome
// and pick up mutations on the next update.
func (m *Module) Setup(ctx context.Context) error {
	if m.bits <= 0 {
		m.AddError("bits must be positive, got %d", m.bits)
	}
	if m.mutationRate < 0 || m.mutationRate > 1 {
		m.AddError("mutation_rate must be in [0,1], got %g", m.mutationRate)
	}
	width := m.bits
	if width < 0 {
		width = 0
	}
	m.AddOwnedTrait("genome", "Bitstring genome.",
		cty.StringVal(strings.Repeat("0", width))).
		SetInheritParent()
	return nil
}

// OnUpdate randomizes every genome on the first update and mutates each bit
// independently afterwards.
func (m *Module) OnUpdate(ctx context.Context, w *sim.World) error {
	pop, err := w.Population(m.PopName())
	if err != nil {
		return err
	}
	entry, ok := pop.Layout().LookupFor(m.Name(), "genome")
	if !ok {
		return nil
	}

	for i := 0; i < pop.Len(); i++ {
		org := pop.At(i)
		if w.Update == 1 {
			org.Set(entry, cty.StringVal(m.randomGenome(w)))
			continue
		}
		bits := []byte(org.Get(entry).AsString())
		changed := false
		for j := range bits {
			if w.Rand.Float64() < m.mutationRate {
				bits[j] ^= '0' ^ '1'
				changed = true
			}
		}
		if changed {
			org.Set(entry, cty.StringVal(string(bits)))
		}
	}
	if w.Update == 1 {
		ctxlog.FromContext(ctx).Debug("Genomes randomized.",
			"module", m.Name(), "population", pop.Name(), "bits", m.bits)
	}
	return nil
}

func (m *Module) randomGenome(w *sim.World) string {
	var sb strings.Builder
	sb.Grow(m.bits)
	for i := 0; i < m.bits; i++ {
		if w.Rand.Intn(2) == 1 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
