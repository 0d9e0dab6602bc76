package hclconf

import "github.com/hashicorp/hcl/v2"

// settingsBlock carries the run-wide knobs.
type settingsBlock struct {
	RandomSeed *int64 `hcl:"random_seed,optional"`
	Updates    *int   `hcl:"updates,optional"`
}

// populationBlock is one `population "name" { size = N }` block.
type populationBlock struct {
	Name string `hcl:"name,label"`
	Size int    `hcl:"size"`
}

// moduleBlock is one `module "type" "name" { ... }` block. Everything
// beyond the population binding is a module-specific argument, captured in
// the remain body and decoded attribute by attribute.
type moduleBlock struct {
	Type       string   `hcl:"module_type,label"`
	Name       string   `hcl:"instance_name,label"`
	Population string   `hcl:"population"`
	Remain     hcl.Body `hcl:",remain"`
}

// eventBlock is one `event "name" { run = [...] }` block.
type eventBlock struct {
	Name string   `hcl:"name,label"`
	Run  []string `hcl:"run"`
}

// rootConfig is the top-level file structure.
type rootConfig struct {
	Settings    *settingsBlock    `hcl:"settings,block"`
	Populations []populationBlock `hcl:"population,block"`
	Modules     []moduleBlock     `hcl:"module,block"`
	Events      []eventBlock      `hcl:"event,block"`
}
