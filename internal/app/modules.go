package app

import (
	"github.com/vk/optree/internal/plugin"
	"github.com/vk/optree/internal/registry"
)

// coreModules is the definitive list of all plugin modules that are compiled
// into the optree binary.
var coreModules = []registry.Module{
	&plugin.Module{},
}
