package app

import (
	"github.com/vk/evosimgo/internal/sim"
	"github.com/vk/evosimgo/modules/analyze_db"
	"github.com/vk/evosimgo/modules/analyze_stats"
	"github.com/vk/evosimgo/modules/eval_ones"
	"github.com/vk/evosimgo/modules/gen_random"
	"github.com/vk/evosimgo/modules/select_truncate"
)

// corePlugins is the definitive list of all module types compiled into the
// evosimgo binary.
var corePlugins = []sim.Plugin{
	&gen_random.Plugin{},
	&eval_ones.Plugin{},
	&select_truncate.Plugin{},
	&analyze_stats.Plugin{},
	&analyze_db.Plugin{},
}
