package grid

import (
	"github.com/san-kum/heatsim/internal/config"
)

// FromConfig builds every grid of a heat sink. Geometry consistency beyond
// node counts and extents is checked by the coupler.
func FromConfig(cfg *config.Config) (Set, error) {
	fluid, err := NewLine(cfg.Grid.FluidNodes, cfg.Geometry.Length)
	if err != nil {
		return Set{}, err
	}
	plate, err := NewCartesian(cfg.Grid.PlateNx, cfg.Grid.PlateNy, cfg.Geometry.Length, cfg.Geometry.BaseThickness)
	if err != nil {
		return Set{}, err
	}
	fins := make([]Polar, len(cfg.Geometry.FinCenters))
	for k, xc := range cfg.Geometry.FinCenters {
		fins[k], err = NewPolar(cfg.Grid.FinNr, cfg.Grid.FinNtheta, cfg.Geometry.FinRadius, xc, cfg.Geometry.BaseThickness)
		if err != nil {
			return Set{}, err
		}
	}
	return Set{Fluid: fluid, Plate: plate, Fins: fins}, nil
}
