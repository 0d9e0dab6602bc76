package select_truncate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/evosimgo/internal/layout"
	"github.com/vk/evosimgo/internal/organism"
	"github.com/vk/evosimgo/internal/sim"
	"github.com/vk/evosimgo/internal/trait"
)

func setupSelection(t *testing.T, keepRatio cty.Value) (sim.Module, *organism.Population, *layout.Layout) {
	t.Helper()
	ctx := context.Background()

	args := map[string]cty.Value{}
	if keepRatio != cty.NilVal {
		args["keep_ratio"] = keepRatio
	}
	mod, err := New("sel", "main", args)
	require.NoError(t, err)
	require.NoError(t, mod.Setup(ctx))

	eval := trait.NewRegistry("eval")
	eval.Declare(trait.AccessOwned, "fitness", "", cty.Number).
		SetDefault(cty.NumberIntVal(0))

	regs := []*trait.Registry{mod.Traits(), eval}
	for _, r := range regs {
		r.Freeze()
	}
	l, errs := layout.Build(regs)
	require.Empty(t, errs)

	return mod, organism.NewPopulation("main", l, 4), l
}

func TestSelectTruncate_RefillsFromSurvivors(t *testing.T) {
	t.Parallel()

	mod, pop, l := setupSelection(t, cty.NumberFloatVal(0.5))
	fitness, _ := l.Lookup("fitness")
	for i, f := range []int64{10, 40, 30, 20} {
		pop.At(i).Set(fitness, cty.NumberIntVal(f))
	}
	survivors := map[*organism.Org]bool{pop.At(1): true, pop.At(2): true}

	w := sim.NewWorld(7, map[string]*organism.Population{"main": pop})
	w.Update = 1
	require.NoError(t, mod.OnUpdate(context.Background(), w))

	require.Equal(t, 4, pop.Len())

	// The two fittest organisms survive in rank order.
	assert.True(t, survivors[pop.At(0)])
	assert.True(t, survivors[pop.At(1)])
	f0, _ := pop.At(0).Number(fitness)
	assert.Equal(t, 40.0, f0)

	// The refilled slots hold fresh offspring at the default fitness.
	for i := 2; i < 4; i++ {
		assert.False(t, survivors[pop.At(i)])
		f, err := pop.At(i).Number(fitness)
		require.NoError(t, err)
		assert.Equal(t, 0.0, f)
	}
}

func TestSelectTruncate_TalliesParents(t *testing.T) {
	t.Parallel()

	mod, pop, l := setupSelection(t, cty.NumberFloatVal(0.25))
	fitness, _ := l.Lookup("fitness")
	for i, f := range []int64{1, 99, 2, 3} {
		pop.At(i).Set(fitness, cty.NumberIntVal(f))
	}
	best := pop.At(1)

	w := sim.NewWorld(7, map[string]*organism.Population{"main": pop})
	w.Update = 1
	require.NoError(t, mod.OnUpdate(context.Background(), w))

	// With a single survivor, every refill drew the same parent.
	tally, ok := l.LookupFor("sel", "times_selected")
	require.True(t, ok)
	n, err := best.Number(tally)
	require.NoError(t, err)
	assert.Equal(t, 3.0, n)

	// The private tally is invisible to the shared namespace.
	_, ok = l.Lookup("times_selected")
	assert.False(t, ok)
}

func TestSelectTruncate_InvalidRatioReported(t *testing.T) {
	t.Parallel()

	mod, err := New("sel", "main", map[string]cty.Value{
		"keep_ratio": cty.NumberFloatVal(1.5),
	})
	require.NoError(t, err)
	require.NoError(t, mod.Setup(context.Background()))
	require.NotEmpty(t, mod.Errors())
	assert.Contains(t, mod.Errors()[0], "keep_ratio")
}
