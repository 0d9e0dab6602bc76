// Package analyze_db provides the module that records per-update trait
// statistics into a SQLite database for offline analysis.
package analyze_db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/zclconf/go-cty/cty"
	_ "modernc.org/sqlite"

	"github.com/vk/evosimgo/internal/ctxlog"
	"github.com/vk/evosimgo/internal/query"
	"github.com/vk/evosimgo/internal/sim"
)

// Plugin implements the sim.Plugin interface for this package.
type Plugin struct{}

// Register registers the module type with the engine.
func (p *Plugin) Register(r *sim.Registry) {
	r.RegisterType("analyze_db", New)
}

// Module appends one row per update with the summary statistics of a
// numeric trait. The database handle opens lazily on first use and is
// closed by the application at the end of the run.
type Module struct {
	sim.Base

	path    string
	trait   string
	builder *query.Builder
	db      *sql.DB
}

// New builds an analyze_db instance from its config block arguments.
func New(name, popName string, args map[string]cty.Value) (sim.Module, error) {
	path, err := sim.ArgString(args, "path", "run.db")
	if err != nil {
		return nil, err
	}
	traitName, err := sim.ArgString(args, "trait", "fitness")
	if err != nil {
		return nil, err
	}
	m := &Module{
		Base:    sim.NewBase(name, popName),
		path:    path,
		trait:   traitName,
		builder: query.NewBuilder(nil),
	}
	m.SetAnalyze()
	return m, nil
}

// Setup declares the recorded trait as required.
func (m *Module) Setup(ctx context.Context) error {
	if m.path == "" {
		m.AddError("path must not be empty")
	}
	m.AddRequiredTrait(m.trait, "Numeric trait to record.", cty.Number)
	return nil
}

// OnUpdate inserts one statistics row for the current update.
func (m *Module) OnUpdate(ctx context.Context, w *sim.World) error {
	pop, err := w.Population(m.PopName())
	if err != nil {
		return err
	}
	db, err := m.getDB(ctx)
	if err != nil {
		return err
	}

	c := pop.Collect()
	_, err = db.ExecContext(ctx, `
		INSERT INTO trait_stats (update_num, population, trait, size, mean, min, max, variance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		w.Update,
		pop.Name(),
		m.trait,
		c.Len(),
		m.builder.Number(ctx, c, m.trait, "mean", 0),
		m.builder.Number(ctx, c, m.trait, "min", 0),
		m.builder.Number(ctx, c, m.trait, "max", 0),
		m.builder.Number(ctx, c, m.trait, "variance", 0),
	)
	return err
}

// Close releases the database handle.
func (m *Module) Close() error {
	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	return err
}

func (m *Module) getDB(ctx context.Context) (*sql.DB, error) {
	if m.db != nil {
		return m.db, nil
	}
	if m.path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", m.path)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	ctxlog.FromContext(ctx).Debug("Statistics database opened.",
		"module", m.Name(), "path", m.path)
	m.db = db
	return m.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS trait_stats (
			update_num INTEGER NOT NULL,
			population TEXT NOT NULL,
			trait      TEXT NOT NULL,
			size       INTEGER NOT NULL,
			mean       REAL NOT NULL,
			min        REAL NOT NULL,
			max        REAL NOT NULL,
			variance   REAL NOT NULL
		)
	`)
	return err
}
