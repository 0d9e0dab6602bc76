package analyze_db

import (
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/evosimgo/internal/layout"
	"github.com/vk/evosimgo/internal/organism"
	"github.com/vk/evosimgo/internal/sim"
	"github.com/vk/evosimgo/internal/trait"
)

func setupRecorder(t *testing.T, path string) (sim.Module, *organism.Population, *layout.Layout) {
	t.Helper()
	ctx := context.Background()

	mod, err := New("db", "main", map[string]cty.Value{
		"path": cty.StringVal(path),
	})
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

func TestAnalyzeDB_RecordsRows(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "run.db")
	mod, pop, l := setupRecorder(t, path)
	fitness, _ := l.Lookup("fitness")
	for i, f := range []int64{10, 20, 30, 40} {
		pop.At(i).Set(fitness, cty.NumberIntVal(f))
	}

	w := sim.NewWorld(1, map[string]*organism.Population{"main": pop})
	for _, u := range []int{1, 2} {
		w.Update = u
		require.NoError(t, mod.OnUpdate(ctx, w))
	}

	closer, ok := mod.(io.Closer)
	require.True(t, ok)
	require.NoError(t, closer.Close())

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM trait_stats`).Scan(&count))
	assert.Equal(t, 2, count)

	var mean, min, max, variance float64
	var size int
	require.NoError(t, db.QueryRowContext(ctx, `
		SELECT size, mean, min, max, variance
		FROM trait_stats WHERE update_num = 2 AND population = 'main' AND trait = 'fitness'
	`).Scan(&size, &mean, &min, &max, &variance))
	assert.Equal(t, 4, size)
	assert.Equal(t, 25.0, mean)
	assert.Equal(t, 10.0, min)
	assert.Equal(t, 40.0, max)
	assert.Equal(t, 125.0, variance)
}

func TestAnalyzeDB_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "run.db")
	mod, pop, _ := setupRecorder(t, path)

	w := sim.NewWorld(1, map[string]*organism.Population{"main": pop})
	w.Update = 1
	require.NoError(t, mod.OnUpdate(context.Background(), w))

	closer := mod.(io.Closer)
	require.NoError(t, closer.Close())
	require.NoError(t, closer.Close())
}

func TestAnalyzeDB_EmptyPathReported(t *testing.T) {
	t.Parallel()

	mod, err := New("db", "main", map[string]cty.Value{
		"path": cty.StringVal(""),
	})
	require.NoError(t, err)
	require.NoError(t, mod.Setup(context.Background()))

	require.Len(t, mod.Errors(), 1)
	assert.Contains(t, mod.Errors()[0], "path must not be empty")
}
