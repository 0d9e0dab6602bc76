// Package sim defines the module contract of the platform: how an
// independently developed simulation module declares the traits it needs,
// which population it operates on, and when it runs within the synchronous
// update cycle.
package sim

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/evosimgo/internal/trait"
)

// Module is the contract every simulation module fulfills. Setup runs during
// the registration phase, strictly before any layout freezes; OnUpdate runs
// once per update cycle in configuration order.
type Module interface {
	Name() string
	PopName() string
	Traits() *trait.Registry
	Errors() []string
	Setup(ctx context.Context) error
	OnUpdate(ctx context.Context, w *World) error
}

// Base carries the bookkeeping shared by every module: its instance name,
// the population it is bound to, its trait registry, and the accumulated
// error list. Concrete modules embed it and use the declaration helpers.
type Base struct {
	name    string
	popName string
	traits  *trait.Registry

	isEvaluate  bool
	isSelect    bool
	isPlacement bool
	isAnalyze   bool
}

// NewBase builds the shared state for a named module instance bound to one
// population.
func NewBase(name, popName string) Base {
	return Base{
		name:    name,
		popName: popName,
		traits:  trait.NewRegistry(name),
	}
}

// Name returns the module's unique instance name.
func (b *Base) Name() string { return b.name }

// PopName returns the name of the population this module operates on.
func (b *Base) PopName() string { return b.popName }

// Traits returns the module's trait registry for the merge step.
func (b *Base) Traits() *trait.Registry { return b.traits }

// Errors returns every configuration problem this module recorded.
func (b *Base) Errors() []string { return b.traits.Errors() }

// AddError records a module-level configuration problem; it is surfaced at
// validation time rather than aborting at the point of detection.
func (b *Base) AddError(format string, args ...any) {
	b.traits.AddError(fmt.Sprintf(format, args...))
}

// IsEvaluate reports whether this module performs evaluation on organisms.
func (b *Base) IsEvaluate() bool { return b.isEvaluate }

// IsSelect reports whether this module selects organisms to reproduce.
func (b *Base) IsSelect() bool { return b.isSelect }

// IsPlacement reports whether this module handles offspring placement.
func (b *Base) IsPlacement() bool { return b.isPlacement }

// IsAnalyze reports whether this module records or evaluates data.
func (b *Base) IsAnalyze() bool { return b.isAnalyze }

// SetEvaluate marks the module as an evaluator.
func (b *Base) SetEvaluate() *Base { b.isEvaluate = true; return b }

// SetSelect marks the module as a selector.
func (b *Base) SetSelect() *Base { b.isSelect = true; return b }

// SetPlacement marks the module as a placement module.
func (b *Base) SetPlacement() *Base { b.isPlacement = true; return b }

// SetAnalyze marks the module as an analyzer.
func (b *Base) SetAnalyze() *Base { b.isAnalyze = true; return b }

// AddTrait declares a trait with an explicit access mode and value type.
func (b *Base) AddTrait(access trait.Access, name, desc string, typ cty.Type) *trait.Spec {
	return b.traits.Declare(access, name, desc, typ)
}

// AddOwnedTrait declares a trait this module alone writes; other modules may
// read it. The value type is inferred from the mandatory default.
func (b *Base) AddOwnedTrait(name, desc string, def cty.Value) *trait.Spec {
	return b.traits.Declare(trait.AccessOwned, name, desc, def.Type()).SetDefault(def)
}

// AddPrivateTrait declares a trait visible to this module alone.
func (b *Base) AddPrivateTrait(name, desc string, def cty.Value) *trait.Spec {
	return b.traits.Declare(trait.AccessPrivate, name, desc, def.Type()).SetDefault(def)
}

// AddSharedTrait declares a trait this module and others may write. At least
// one declaring module must supply a default; use SetDefault to provide one.
func (b *Base) AddSharedTrait(name, desc string, typ cty.Type) *trait.Spec {
	return b.traits.Declare(trait.AccessShared, name, desc, typ)
}

// AddRequiredTrait declares a trait this module reads but another module
// must provide.
func (b *Base) AddRequiredTrait(name, desc string, typ cty.Type) *trait.Spec {
	return b.traits.Declare(trait.AccessRequired, name, desc, typ)
}
