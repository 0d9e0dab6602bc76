package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.hcl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestApp_EndToEndRun(t *testing.T) {
	t.Parallel()

	src := `
		settings {
			random_seed = 42
			updates     = 5
		}

		population "main" {
			size = 20
		}

		module "gen_random" "genomes" {
			population    = "main"
			bits          = 16
			mutation_rate = 0.05
		}

		module "eval_ones" "scorer" {
			population = "main"
		}

		module "select_truncate" "selection" {
			population = "main"
			keep_ratio = 0.5
		}

		module "analyze_stats" "stats" {
			population = "main"
			trait      = "fitness"
		}

		event "start" {
			run = ["PP(\"run started\")"]
		}

		event "update" {
			run = ["CALC_MEAN(main, \"fitness\")"]
		}
	`

	var out bytes.Buffer
	a, err := NewApp(&out, &AppConfig{
		ConfigPath: writeConfig(t, src),
		Updates:    -1,
		LogLevel:   "error",
		LogFormat:  "text",
	})
	require.NoError(t, err)
	require.Len(t, a.Modules(), 4)
	assert.Equal(t, 5, a.Config().Updates)

	require.NoError(t, a.Run(context.Background()))
}

func TestApp_OverridesFromFlags(t *testing.T) {
	t.Parallel()

	src := `
		settings {
			random_seed = 1
			updates     = 100
		}
		population "main" {
			size = 5
		}
		module "gen_random" "g" {
			population = "main"
		}
	`
	var out bytes.Buffer
	a, err := NewApp(&out, &AppConfig{
		ConfigPath: writeConfig(t, src),
		Updates:    2,
		Seed:       9,
		LogLevel:   "error",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, a.Config().Updates)
	assert.Equal(t, int64(9), a.Config().RandomSeed)
	require.NoError(t, a.Run(context.Background()))
}

func TestApp_UnknownModuleType(t *testing.T) {
	t.Parallel()

	src := `
		population "main" {
			size = 5
		}
		module "warp_drive" "w" {
			population = "main"
		}
	`
	var out bytes.Buffer
	_, err := NewApp(&out, &AppConfig{
		ConfigPath: writeConfig(t, src),
		Updates:    -1,
		LogLevel:   "error",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown module type")
}

func TestApp_TraitValidationRefusesRun(t *testing.T) {
	t.Parallel()

	// select_truncate requires a fitness no module provides.
	src := `
		population "main" {
			size = 5
		}
		module "select_truncate" "s" {
			population = "main"
		}
	`
	var out bytes.Buffer
	a, err := NewApp(&out, &AppConfig{
		ConfigPath: writeConfig(t, src),
		Updates:    -1,
		LogLevel:   "error",
	})
	require.NoError(t, err)

	err = a.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trait validation failed")
}

func TestApp_ModuleSetupErrorsSurfaceTogether(t *testing.T) {
	t.Parallel()

	// Both the bad argument and the missing provider must appear in one
	// validation pass.
	src := `
		population "main" {
			size = 5
		}
		module "gen_random" "g" {
			population = "main"
			bits       = -3
		}
		module "select_truncate" "s" {
			population = "main"
		}
	`
	var out bytes.Buffer
	a, err := NewApp(&out, &AppConfig{
		ConfigPath: writeConfig(t, src),
		Updates:    -1,
		LogLevel:   "error",
	})
	require.NoError(t, err)

	err = a.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 problem(s)")
	logged := out.String()
	assert.Contains(t, logged, "bits must be positive")
	assert.Contains(t, logged, "fitness")
}
