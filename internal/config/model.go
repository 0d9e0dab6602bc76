// Package config defines the format-agnostic model of a run configuration.
// The hclconf package is the concrete loader that produces these structures
// from HCL files; the app package consumes them.
package config

import "github.com/zclconf/go-cty/cty"

// Population describes one named population and its starting size.
type Population struct {
	Name string
	Size int
}

// ModuleBlock describes one configured module instance: its type, its
// unique instance name, the population it operates on, and its raw
// arguments.
type ModuleBlock struct {
	Type       string
	Name       string
	Population string
	Arguments  map[string]cty.Value
}

// Event is a named list of script statements. The "start" event runs once
// before the first update; the "update" event runs after every update.
type Event struct {
	Name string
	Run  []string
}

// Config is the complete model of one run.
type Config struct {
	RandomSeed  int64
	Updates     int
	Populations []Population
	Modules     []ModuleBlock
	Events      []Event
}

// Event returns the named event, or nil when the config does not define it.
func (c *Config) Event(name string) *Event {
	for i := range c.Events {
		if c.Events[i].Name == name {
			return &c.Events[i]
		}
	}
	return nil
}
