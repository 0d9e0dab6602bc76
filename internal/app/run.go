package app

import (
	"context"
	"fmt"
	"io"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/evosimgo/internal/ctxlog"
	"github.com/vk/evosimgo/internal/layout"
	"github.com/vk/evosimgo/internal/organism"
	"github.com/vk/evosimgo/internal/script"
	"github.com/vk/evosimgo/internal/sim"
	"github.com/vk/evosimgo/internal/trait"
)

// Run executes the full lifecycle: module setup, layout validation,
// population creation, the start event, and the update loop.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	for _, mod := range a.modules {
		if err := mod.Setup(ctx); err != nil {
			return fmt.Errorf("module %q setup failed: %w", mod.Name(), err)
		}
	}
	a.logger.Debug("Module setup complete, trait declarations frozen.")

	regsByPop := make(map[string][]*trait.Registry)
	for _, mod := range a.modules {
		mod.Traits().Freeze()
		regsByPop[mod.PopName()] = append(regsByPop[mod.PopName()], mod.Traits())
	}

	layouts, err := a.buildLayouts(regsByPop)
	if err != nil {
		return err
	}

	pops := make(map[string]*organism.Population, len(a.config.Populations))
	for _, p := range a.config.Populations {
		pops[p.Name] = organism.NewPopulation(p.Name, layouts[p.Name], p.Size)
		a.logger.Info("Population created.",
			"name", p.Name,
			"size", p.Size,
			"slots", layouts[p.Name].NumSlots(),
		)
	}

	world := sim.NewWorld(a.config.RandomSeed, pops)
	engine := script.NewEngine()
	for _, p := range pops {
		engine.RegisterPopulation(p)
	}
	engine.RegisterGlobal("update", func() cty.Value {
		return cty.NumberIntVal(int64(world.Update))
	})
	engine.RegisterGlobal("random_seed", func() cty.Value {
		return cty.NumberIntVal(a.config.RandomSeed)
	})

	defer a.closeModules()

	a.runEvent(ctx, engine, "start")

	a.logger.Info("🚀 Starting run.", "updates", a.config.Updates, "seed", a.config.RandomSeed)
	for u := 1; u <= a.config.Updates; u++ {
		world.Update = u
		for _, mod := range a.modules {
			if err := mod.OnUpdate(ctx, world); err != nil {
				return fmt.Errorf("update %d: module %q failed: %w", u, mod.Name(), err)
			}
		}
		a.runEvent(ctx, engine, "update")
	}
	a.logger.Info("🏁 Run finished.", "updates", a.config.Updates)

	a.logger.Debug("App.Run method finished.")
	return nil
}

// closeModules releases resources held by modules that own any, such as
// database handles.
func (a *App) closeModules() {
	for _, mod := range a.modules {
		if closer, ok := mod.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				a.logger.Warn("Module close failed.", "module", mod.Name(), "error", err)
			}
		}
	}
}

// buildLayouts merges each population's trait declarations. Every problem
// across every population is reported before refusing to run, so one fix
// cycle surfaces the full picture.
func (a *App) buildLayouts(regsByPop map[string][]*trait.Registry) (map[string]*layout.Layout, error) {
	layouts := make(map[string]*layout.Layout, len(a.config.Populations))
	total := 0
	for _, p := range a.config.Populations {
		l, errs := layout.Build(regsByPop[p.Name])
		if len(errs) > 0 {
			for _, err := range errs {
				a.logger.Error("Trait configuration problem.", "population", p.Name, "error", err)
			}
			total += len(errs)
			continue
		}
		layouts[p.Name] = l
	}
	if total > 0 {
		return nil, fmt.Errorf("trait validation failed with %d problem(s)", total)
	}
	return layouts, nil
}

// runEvent executes every statement of the named event in order. Statement
// errors are reported and skipped; a script typo should not kill a long run.
func (a *App) runEvent(ctx context.Context, engine *script.Engine, name string) {
	logger := ctxlog.FromContext(ctx)
	event := a.config.Event(name)
	if event == nil {
		return
	}
	for _, stmt := range event.Run {
		out, err := engine.Execute(ctx, stmt)
		if err != nil {
			logger.Error("Event statement failed.", "event", name, "statement", stmt, "error", err)
			continue
		}
		if out != "" {
			logger.Info(out, "event", name)
		}
	}
}
