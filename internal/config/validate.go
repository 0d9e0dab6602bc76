package config

import "fmt"

// Validate checks basic structural integrity before any module is built:
// unique names, positive sizes, and module/population references that
// resolve. Deeper validation (trait compatibility) happens at layout time.
func (c *Config) Validate() error {
	if c.Updates < 0 {
		return fmt.Errorf("updates must not be negative, got %d", c.Updates)
	}

	pops := make(map[string]bool, len(c.Populations))
	for _, p := range c.Populations {
		if p.Name == "" {
			return fmt.Errorf("population with empty name")
		}
		if pops[p.Name] {
			return fmt.Errorf("duplicate population %q", p.Name)
		}
		if p.Size <= 0 {
			return fmt.Errorf("population %q: size must be positive, got %d", p.Name, p.Size)
		}
		pops[p.Name] = true
	}

	mods := make(map[string]bool, len(c.Modules))
	for _, m := range c.Modules {
		if mods[m.Name] {
			return fmt.Errorf("duplicate module instance %q", m.Name)
		}
		mods[m.Name] = true
		if !pops[m.Population] {
			return fmt.Errorf("module %q: unknown population %q", m.Name, m.Population)
		}
	}

	events := make(map[string]bool, len(c.Events))
	for _, e := range c.Events {
		if events[e.Name] {
			return fmt.Errorf("duplicate event %q", e.Name)
		}
		events[e.Name] = true
	}
	return nil
}
