// Package hclconf loads run configurations from HCL files into the
// format-agnostic config model.
package hclconf

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/evosimgo/internal/config"
	"github.com/vk/evosimgo/internal/ctxlog"
)

// Load reads one HCL file and translates it into the config model. Module
// arguments are evaluated immediately; they may use literals and simple
// expressions but not cross-block references.
func Load(ctx context.Context, path string) (*config.Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(ctx, src, path)
}

// Parse translates raw HCL source into the config model. The filename is
// used only for diagnostics.
func Parse(ctx context.Context, src []byte, filename string) (*config.Config, error) {
	logger := ctxlog.FromContext(ctx)

	file, diags := hclsyntax.ParseConfig(src, filename, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %w", filename, diags)
	}

	var root rootConfig
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("decoding %s: %w", filename, diags)
	}

	cfg := &config.Config{Updates: 0}
	if root.Settings != nil {
		if root.Settings.RandomSeed != nil {
			cfg.RandomSeed = *root.Settings.RandomSeed
		}
		if root.Settings.Updates != nil {
			cfg.Updates = *root.Settings.Updates
		}
	}

	for _, p := range root.Populations {
		cfg.Populations = append(cfg.Populations, config.Population{
			Name: p.Name,
			Size: p.Size,
		})
	}

	for _, m := range root.Modules {
		args, err := decodeArguments(m.Remain)
		if err != nil {
			return nil, fmt.Errorf("module %q %q: %w", m.Type, m.Name, err)
		}
		cfg.Modules = append(cfg.Modules, config.ModuleBlock{
			Type:       m.Type,
			Name:       m.Name,
			Population: m.Population,
			Arguments:  args,
		})
	}

	for _, e := range root.Events {
		cfg.Events = append(cfg.Events, config.Event{Name: e.Name, Run: e.Run})
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", filename, err)
	}

	logger.Debug("Loaded configuration.",
		"path", filename,
		"populations", len(cfg.Populations),
		"modules", len(cfg.Modules),
		"events", len(cfg.Events),
	)
	return cfg, nil
}

// decodeArguments evaluates every leftover attribute of a module block to a
// concrete value.
func decodeArguments(body hcl.Body) (map[string]cty.Value, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("reading arguments: %w", diags)
	}
	args := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		v, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("evaluating argument %q: %w", name, diags)
		}
		args[name] = v
	}
	return args, nil
}
