package plugin

import (
	"github.com/vk/optree/internal/optree"
	"github.com/vk/optree/internal/registry"
)

// Names of the registered plugins.
const (
	NameArbitrary          = "arbitrary"
	NameFIFO               = "fifo"
	NameSyntheticArbitrary = "synthetic-arbitrary"
	NameSyntheticFIFO      = "synthetic-fifo"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers one factory per discipline and curve source pairing.
func (m *Module) Register(r *registry.Registry) {
	for _, def := range []struct {
		name       string
		discipline Discipline
		curves     CurveSource
	}{
		{NameArbitrary, Arbitrary, NetworkCurves},
		{NameFIFO, FIFO, NetworkCurves},
		{NameSyntheticArbitrary, Arbitrary, SyntheticArbitrary},
		{NameSyntheticFIFO, FIFO, SyntheticFIFO},
	} {
		def := def
		r.RegisterPlugin(def.name, func() optree.Plugin {
			return New(def.name, def.discipline, def.curves)
		})
	}
}
