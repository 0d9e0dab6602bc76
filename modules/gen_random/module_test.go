package gen_random

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/evosimgo/internal/layout"
	"github.com/vk/evosimgo/internal/organism"
	"github.com/vk/evosimgo/internal/sim"
	"github.com/vk/evosimgo/internal/trait"
)

func newGenWorld(t *testing.T, args map[string]cty.Value) (sim.Module, *organism.Population, *sim.World) {
	t.Helper()
	mod, err := New("g", "main", args)
	require.NoError(t, err)
	require.NoError(t, mod.Setup(context.Background()))
	mod.Traits().Freeze()

	l, errs := layout.Build([]*trait.Registry{mod.Traits()})
	require.Empty(t, errs)

	pop := organism.NewPopulation("main", l, 5)
	w := sim.NewWorld(3, map[string]*organism.Population{"main": pop})
	return mod, pop, w
}

func TestGenRandom_FirstUpdateRandomizes(t *testing.T) {
	t.Parallel()

	mod, pop, w := newGenWorld(t, map[string]cty.Value{
		"bits": cty.NumberIntVal(64),
	})
	genome, ok := pop.Layout().LookupFor("g", "genome")
	require.True(t, ok)

	w.Update = 1
	require.NoError(t, mod.OnUpdate(context.Background(), w))

	seen := map[string]bool{}
	for i := 0; i < pop.Len(); i++ {
		g := pop.At(i).Get(genome).AsString()
		assert.Len(t, g, 64)
		assert.Equal(t, "", strings.Trim(g, "01"))
		seen[g] = true
	}
	// 64 random bits will not collide across five draws.
	assert.Len(t, seen, 5)
}

func TestGenRandom_MutationChangesBits(t *testing.T) {
	t.Parallel()

	mod, pop, w := newGenWorld(t, map[string]cty.Value{
		"bits":          cty.NumberIntVal(64),
		"mutation_rate": cty.NumberFloatVal(1),
	})
	genome, _ := pop.Layout().LookupFor("g", "genome")

	w.Update = 1
	require.NoError(t, mod.OnUpdate(context.Background(), w))
	before := pop.At(0).Get(genome).AsString()

	// Rate 1 flips every bit deterministically.
	w.Update = 2
	require.NoError(t, mod.OnUpdate(context.Background(), w))
	after := pop.At(0).Get(genome).AsString()
	for i := range before {
		assert.NotEqual(t, before[i], after[i])
	}
}

func TestGenRandom_BadArgsReported(t *testing.T) {
	t.Parallel()

	mod, err := New("g", "main", map[string]cty.Value{
		"bits":          cty.NumberIntVal(0),
		"mutation_rate": cty.NumberFloatVal(2),
	})
	require.NoError(t, err)
	require.NoError(t, mod.Setup(context.Background()))
	assert.Len(t, mod.Errors(), 2)
}
