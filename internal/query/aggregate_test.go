package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/evosimgo/internal/layout"
	"github.com/vk/evosimgo/internal/organism"
	"github.com/vk/evosimgo/internal/trait"
)

// queryLayout builds the fixture layout shared by the query tests: numeric
// fitness and energy, and a string color.
func queryLayout(t *testing.T) *layout.Layout {
	t.Helper()
	r := trait.NewRegistry("m")
	r.Declare(trait.AccessOwned, "fitness", "", cty.Number).SetDefault(cty.NumberIntVal(0))
	r.Declare(trait.AccessOwned, "energy", "", cty.Number).SetDefault(cty.NumberIntVal(0))
	r.Declare(trait.AccessOwned, "color", "", cty.String).SetDefault(cty.StringVal(""))
	r.Freeze()
	l, errs := layout.Build([]*trait.Registry{r})
	require.Empty(t, errs)
	return l
}

// fill builds a collection whose organisms carry the given fitness values.
func fill(t *testing.T, l *layout.Layout, fitness []float64) organism.Collection {
	t.Helper()
	e, ok := l.Lookup("fitness")
	require.True(t, ok)
	orgs := make([]*organism.Org, len(fitness))
	for i, f := range fitness {
		o := organism.New(l)
		o.Set(e, cty.NumberFloatVal(f))
		orgs[i] = o
	}
	return organism.Collect(l, orgs...)
}

func fitnessOf(l *layout.Layout) NumFunc {
	e, _ := l.Lookup("fitness")
	return func(o *organism.Org) (float64, error) { return o.Number(e) }
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		mode    string
		want    Mode
		wantErr bool
	}{
		{name: "empty is first", mode: "", want: Mode{Kind: ModeFirst}},
		{name: "literal index", mode: "3", want: Mode{Kind: ModeIndex, Index: 3}},
		{name: "compare value", mode: ">5", want: Mode{Kind: ModeCountValue, Op: OpGt, Value: 5}},
		{name: "compare value with space", mode: "<= 2.5", want: Mode{Kind: ModeCountValue, Op: OpLe, Value: 2.5}},
		{name: "compare trait", mode: "==energy", want: Mode{Kind: ModeCountTrait, Op: OpEq, Trait: "energy"}},
		{name: "unique", mode: "unique", want: Mode{Kind: ModeUnique}},
		{name: "richness alias", mode: "richness", want: Mode{Kind: ModeUnique}},
		{name: "dominant alias", mode: "mode", want: Mode{Kind: ModeDominant}},
		{name: "case insensitive", mode: "MEAN", want: Mode{Kind: ModeMean}},
		{name: "ave alias", mode: "ave", want: Mode{Kind: ModeMean}},
		{name: "total alias", mode: "total", want: Mode{Kind: ModeSum}},
		{name: "extremal index", mode: "max_id", want: Mode{Kind: ModeMaxID}},
		{name: "mutual information", mode: ":energy", want: Mode{Kind: ModeMutualInfo, Trait: "energy"}},
		{name: "negative index rejected", mode: "-1", wantErr: true},
		{name: "gibberish rejected", mode: "wibble", wantErr: true},
		{name: "comparison trait parses", mode: "> much", want: Mode{Kind: ModeCountTrait, Op: OpGt, Trait: "much"}},
		{name: "comparison with gibberish", mode: "> 1 2", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := ParseMode(tc.mode)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			m.Raw = ""
			assert.Equal(t, tc.want, m)
		})
	}
}

func TestBuildNumericCollect(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		mode    string
		fitness []float64
		want    float64
	}{
		{name: "first", mode: "", fitness: []float64{4, 9}, want: 4},
		{name: "index", mode: "1", fitness: []float64{4, 9}, want: 9},
		{name: "count above", mode: ">5", fitness: []float64{1, 6, 7, 3}, want: 2},
		{name: "unique", mode: "unique", fitness: []float64{3, 1, 3, 2}, want: 3},
		{name: "dominant", mode: "mode", fitness: []float64{3, 1, 3, 2, 3, 1}, want: 3},
		{name: "dominant tie goes to first to peak", mode: "mode", fitness: []float64{1, 2, 2, 1}, want: 2},
		{name: "min", mode: "min", fitness: []float64{5, 2, 8}, want: 2},
		{name: "max", mode: "max", fitness: []float64{5, 2, 8}, want: 8},
		{name: "min_id", mode: "min_id", fitness: []float64{5, 2, 8}, want: 1},
		{name: "max_id first occurrence wins", mode: "max_id", fitness: []float64{5, 9, 9, 2}, want: 1},
		{name: "mean", mode: "mean", fitness: []float64{1, 2, 3, 4}, want: 2.5},
		{name: "median even", mode: "median", fitness: []float64{4, 1, 3, 2}, want: 2.5},
		{name: "median odd", mode: "median", fitness: []float64{3, 1, 2}, want: 2},
		{name: "variance uses population denominator", mode: "variance", fitness: []float64{2, 4, 4, 4, 5, 5, 7, 9}, want: 4},
		{name: "stddev", mode: "stddev", fitness: []float64{2, 4, 4, 4, 5, 5, 7, 9}, want: 2},
		{name: "sum", mode: "sum", fitness: []float64{1, 2, 3}, want: 6},
		{name: "entropy of uniform pair", mode: "entropy", fitness: []float64{0, 1, 0, 1}, want: 1},
		{name: "entropy of constant", mode: "entropy", fitness: []float64{7, 7, 7}, want: 0},
	}

	l := queryLayout(t)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := ParseMode(tc.mode)
			require.NoError(t, err)
			fn, err := BuildNumericCollect(l, m, fitnessOf(l))
			require.NoError(t, err)

			v, err := fn(fill(t, l, tc.fitness))
			require.NoError(t, err)
			f, err := organism.NumberOf(v)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, f, 1e-9)
		})
	}
}

func TestBuildNumericCollect_IndexOutOfRange(t *testing.T) {
	t.Parallel()

	l := queryLayout(t)
	m, err := ParseMode("5")
	require.NoError(t, err)
	fn, err := BuildNumericCollect(l, m, fitnessOf(l))
	require.NoError(t, err)

	_, err = fn(fill(t, l, []float64{1, 2}))
	var oor *IndexOutOfRangeError
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, 5, oor.Index)
	assert.Equal(t, 2, oor.Size)
}

func TestBuildNumericCollect_EmptyCollectionExtremes(t *testing.T) {
	t.Parallel()

	l := queryLayout(t)
	for _, mode := range []string{"", "min", "max", "min_id", "max_id"} {
		m, err := ParseMode(mode)
		require.NoError(t, err)
		fn, err := BuildNumericCollect(l, m, fitnessOf(l))
		require.NoError(t, err)

		_, err = fn(fill(t, l, nil))
		assert.Error(t, err, "mode %q", mode)
	}
}

func TestBuildNumericCollect_CountTrait(t *testing.T) {
	t.Parallel()

	l := queryLayout(t)
	fit, _ := l.Lookup("fitness")
	energy, _ := l.Lookup("energy")

	orgs := make([]*organism.Org, 4)
	for i, pair := range [][2]float64{{5, 3}, {2, 2}, {1, 4}, {9, 9}} {
		o := organism.New(l)
		o.Set(fit, cty.NumberFloatVal(pair[0]))
		o.Set(energy, cty.NumberFloatVal(pair[1]))
		orgs[i] = o
	}
	c := organism.Collect(l, orgs...)

	m, err := ParseMode(">energy")
	require.NoError(t, err)
	fn, err := BuildNumericCollect(l, m, fitnessOf(l))
	require.NoError(t, err)

	v, err := fn(c)
	require.NoError(t, err)
	f, _ := organism.NumberOf(v)
	assert.Equal(t, 1.0, f)
}

func TestBuildNumericCollect_UnknownPartner(t *testing.T) {
	t.Parallel()

	l := queryLayout(t)
	m, err := ParseMode(">nope")
	require.NoError(t, err)
	_, err = BuildNumericCollect(l, m, fitnessOf(l))
	var unknown *UnknownTraitReferenceError
	assert.ErrorAs(t, err, &unknown)
}

func TestBuildStringCollect(t *testing.T) {
	t.Parallel()

	l := queryLayout(t)
	color, _ := l.Lookup("color")
	colors := []string{"red", "blue", "red", "green"}
	orgs := make([]*organism.Org, len(colors))
	for i, s := range colors {
		o := organism.New(l)
		o.Set(color, cty.StringVal(s))
		orgs[i] = o
	}
	c := organism.Collect(l, orgs...)
	get := func(o *organism.Org) string { return o.Render(color) }

	testCases := []struct {
		name string
		mode string
		want cty.Value
	}{
		{name: "first", mode: "", want: cty.StringVal("red")},
		{name: "dominant", mode: "mode", want: cty.StringVal("red")},
		{name: "unique", mode: "unique", want: cty.NumberFloatVal(3)},
		{name: "lexicographic min", mode: "min", want: cty.StringVal("blue")},
		{name: "lexicographic max", mode: "max", want: cty.StringVal("red")},
		{name: "min_id", mode: "min_id", want: cty.NumberFloatVal(1)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := ParseMode(tc.mode)
			require.NoError(t, err)
			fn, err := BuildStringCollect(l, m, get)
			require.NoError(t, err)
			v, err := fn(c)
			require.NoError(t, err)
			assert.Equal(t, tc.want, v)
		})
	}

	// Entropy over two "red", one "blue", one "green".
	m, err := ParseMode("entropy")
	require.NoError(t, err)
	fn, err := BuildStringCollect(l, m, get)
	require.NoError(t, err)
	v, err := fn(c)
	require.NoError(t, err)
	f, _ := organism.NumberOf(v)
	assert.InDelta(t, 1.5, f, 1e-9)
}

func TestBuildStringCollect_ArithmeticModesRejected(t *testing.T) {
	t.Parallel()

	l := queryLayout(t)
	get := func(o *organism.Org) string { return "" }
	for _, mode := range []string{"mean", "sum", "variance", "stddev", "median", ">5"} {
		m, err := ParseMode(mode)
		require.NoError(t, err)
		_, err = BuildStringCollect(l, m, get)
		var unknown *UnknownAggregationModeError
		assert.ErrorAs(t, err, &unknown, "mode %q", mode)
	}
}

func TestMutualInformation(t *testing.T) {
	t.Parallel()

	l := queryLayout(t)
	fit, _ := l.Lookup("fitness")
	energy, _ := l.Lookup("energy")

	build := func(pairs [][2]float64) organism.Collection {
		orgs := make([]*organism.Org, len(pairs))
		for i, pair := range pairs {
			o := organism.New(l)
			o.Set(fit, cty.NumberFloatVal(pair[0]))
			o.Set(energy, cty.NumberFloatVal(pair[1]))
			orgs[i] = o
		}
		return organism.Collect(l, orgs...)
	}

	m, err := ParseMode(":energy")
	require.NoError(t, err)
	fn, err := BuildNumericCollect(l, m, fitnessOf(l))
	require.NoError(t, err)

	// Perfectly correlated binary traits share one full bit.
	v, err := fn(build([][2]float64{{0, 0}, {1, 1}, {0, 0}, {1, 1}}))
	require.NoError(t, err)
	f, _ := organism.NumberOf(v)
	assert.InDelta(t, 1.0, f, 1e-9)

	// Independent traits share nothing.
	v, err = fn(build([][2]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}}))
	require.NoError(t, err)
	f, _ = organism.NumberOf(v)
	assert.InDelta(t, 0.0, f, 1e-9)
}

func TestSatisfies(t *testing.T) {
	t.Parallel()

	assert.True(t, satisfies(OpEq, 2, 2))
	assert.True(t, satisfies(OpNe, 2, 3))
	assert.True(t, satisfies(OpLt, 2, 3))
	assert.True(t, satisfies(OpGe, 3, 3))
	assert.False(t, satisfies(OpGt, 2, 3))
	assert.False(t, satisfies(CompareOp("?"), 1, 1))
}

func TestVarianceEdgeCases(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, variance([]float64{5}))
	assert.Equal(t, 0.0, variance(nil))
}
