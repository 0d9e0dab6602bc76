package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/evosimgo/internal/config"
	"github.com/vk/evosimgo/internal/ctxlog"
	"github.com/vk/evosimgo/internal/hclconf"
	"github.com/vk/evosimgo/internal/sim"
)

// AppConfig holds all the necessary configuration for an App instance to run.
type AppConfig struct {
	ConfigPath string
	Updates    int
	Seed       int64
	LogFormat  string
	LogLevel   string
}

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	types   *sim.Registry
	config  *config.Config
	modules []sim.Module
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger, the run
// configuration loaded, and every configured module instantiated. Command
// line overrides for updates and seed take precedence over the config file.
func NewApp(outW io.Writer, appConfig *AppConfig, plugins ...sim.Plugin) (*App, error) {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	cfg, err := hclconf.Load(ctx, appConfig.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if appConfig.Updates >= 0 {
		cfg.Updates = appConfig.Updates
	}
	if appConfig.Seed != 0 {
		cfg.RandomSeed = appConfig.Seed
	}

	types := sim.NewRegistry()
	if len(plugins) == 0 {
		plugins = corePlugins
	}
	for _, p := range plugins {
		p.Register(types)
	}
	logger.Debug("Module types registered.", "types", types.Types())

	modules := make([]sim.Module, 0, len(cfg.Modules))
	for _, mb := range cfg.Modules {
		mod, err := types.New(mb.Type, mb.Name, mb.Population, mb.Arguments)
		if err != nil {
			return nil, fmt.Errorf("failed to build module %q: %w", mb.Name, err)
		}
		modules = append(modules, mod)
	}
	logger.Debug("All configured modules instantiated.", "count", len(modules))

	return &App{
		outW:    outW,
		logger:  logger,
		types:   types,
		config:  cfg,
		modules: modules,
	}, nil
}

// Config returns the loaded run configuration. This is primarily for testing.
func (a *App) Config() *config.Config {
	return a.config
}

// Modules returns the instantiated module list in configuration order.
func (a *App) Modules() []sim.Module {
	return a.modules
}
