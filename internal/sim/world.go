package sim

import (
	"fmt"
	"math/rand"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/evosimgo/internal/organism"
)

// World is the per-run state handed to modules on every update: the current
// update number, the shared random source, and the named populations.
type World struct {
	Update int
	Rand   *rand.Rand

	pops map[string]*organism.Population
}

// NewWorld builds a world over the given populations, seeded for
// reproducible runs.
func NewWorld(seed int64, pops map[string]*organism.Population) *World {
	return &World{
		Rand: rand.New(rand.NewSource(seed)),
		pops: pops,
	}
}

// Population returns the named population.
func (w *World) Population(name string) (*organism.Population, error) {
	p, ok := w.pops[name]
	if !ok {
		return nil, fmt.Errorf("unknown population %q", name)
	}
	return p, nil
}

// Populations returns the population map; callers must not mutate it.
func (w *World) Populations() map[string]*organism.Population {
	return w.pops
}

// ArgNumber extracts a numeric argument, falling back to def when absent.
func ArgNumber(args map[string]cty.Value, key string, def float64) (float64, error) {
	v, ok := args[key]
	if !ok {
		return def, nil
	}
	v, err := convert.Convert(v, cty.Number)
	if err != nil {
		return 0, fmt.Errorf("argument %q: %w", key, err)
	}
	f, _ := v.AsBigFloat().Float64()
	return f, nil
}

// ArgInt extracts an integer argument, falling back to def when absent.
func ArgInt(args map[string]cty.Value, key string, def int) (int, error) {
	f, err := ArgNumber(args, key, float64(def))
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// ArgString extracts a string argument, falling back to def when absent.
func ArgString(args map[string]cty.Value, key, def string) (string, error) {
	v, ok := args[key]
	if !ok {
		return def, nil
	}
	v, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", fmt.Errorf("argument %q: %w", key, err)
	}
	return v.AsString(), nil
}

// ArgBool extracts a boolean argument, falling back to def when absent.
func ArgBool(args map[string]cty.Value, key string, def bool) (bool, error) {
	v, ok := args[key]
	if !ok {
		return def, nil
	}
	v, err := convert.Convert(v, cty.Bool)
	if err != nil {
		return false, fmt.Errorf("argument %q: %w", key, err)
	}
	return v.True(), nil
}
