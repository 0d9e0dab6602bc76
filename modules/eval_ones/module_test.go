package eval_ones

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

func TestEvalOnes_ScoresPopulation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mod, err := New("scorer", "main", nil)
	require.NoError(t, err)
	require.NoError(t, mod.Setup(ctx))

	// A second module provides the genome this one requires.
	gen := trait.NewRegistry("gen")
	gen.Declare(trait.AccessOwned, "genome", "", cty.String).
		SetDefault(cty.StringVal("0000"))

	regs := []*trait.Registry{mod.Traits(), gen}
	for _, r := range regs {
		r.Freeze()
	}
	l, errs := layout.Build(regs)
	require.Empty(t, errs)

	pop := organism.NewPopulation("main", l, 3)
	genome, _ := l.Lookup("genome")
	pop.At(0).Set(genome, cty.StringVal("1101"))
	pop.At(1).Set(genome, cty.StringVal("0000"))
	pop.At(2).Set(genome, cty.StringVal("1111"))

	w := sim.NewWorld(1, map[string]*organism.Population{"main": pop})
	w.Update = 1
	require.NoError(t, mod.OnUpdate(ctx, w))

	fitness, ok := l.Lookup("fitness")
	require.True(t, ok)
	for i, want := range []float64{3, 0, 4} {
		f, err := pop.At(i).Number(fitness)
		require.NoError(t, err)
		assert.Equal(t, want, f)
	}
}

func TestEvalOnes_ArchivesLastFitness(t *testing.T) {
	t.Parallel()

	mod, err := New("scorer", "main", nil)
	require.NoError(t, err)
	require.NoError(t, mod.Setup(context.Background()))

	spec, ok := mod.Traits().Lookup("fitness")
	require.True(t, ok)
	assert.Equal(t, trait.ArchiveLastReset, spec.Archive())
}
