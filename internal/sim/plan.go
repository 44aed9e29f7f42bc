package sim

import (
	"math"

	"github.com/san-kum/heatsim/internal/config"
	"github.com/san-kum/heatsim/internal/grid"
	"github.com/san-kum/heatsim/internal/thermal"
)

// SafetyFactor scales every stability-limited step size.
const SafetyFactor = 0.8

// Plan holds the step sizes of a run. The fin step divides the plate step
// exactly, so fin sub-steps land on plate step boundaries.
type Plan struct {
	PlateDt        float64 `json:"plate_dt"`
	FinDt          float64 `json:"fin_dt"`
	FinDtMax       float64 `json:"fin_dt_max"`
	SubSteps       int     `json:"sub_steps"`
	Steps          int     `json:"steps"`
	DiffusionLimit float64 `json:"diffusion_limit"`
	AdvectionLimit float64 `json:"advection_limit"`
}

// NewPlan derives the plate and fin step sizes from the stability limits.
// A positive plateDt overrides the derived plate step; the solvers still
// enforce their bounds.
func NewPlan(cfg *config.Config, grids grid.Set, maxTime, plateDt float64) (Plan, error) {
	if !(maxTime > 0) || math.IsInf(maxTime, 0) {
		return Plan{}, thermal.ConfigError("max time must be positive and finite, got %g", maxTime)
	}
	if len(grids.Fins) == 0 {
		return Plan{}, thermal.ConfigError("at least one fin grid is required")
	}
	alpha := cfg.Solid.Diffusivity
	dx, dy := grids.Plate.X.Spacing, grids.Plate.Y.Spacing

	p := Plan{
		DiffusionLimit: 0.5 / (alpha * (1/(dx*dx) + 1/(dy*dy))),
		AdvectionLimit: grids.Fluid.X.Spacing / cfg.Operation.Velocity,
	}
	p.PlateDt = SafetyFactor * math.Min(p.DiffusionLimit, p.AdvectionLimit)
	if plateDt > 0 {
		p.PlateDt = plateDt
	}

	p.FinDtMax = math.Inf(1)
	for _, fin := range grids.Fins {
		dr, dth := fin.R.Spacing, fin.Theta.Spacing
		limit := SafetyFactor * 0.5 / (alpha * (1/(dr*dr) + 1/((dr*dth)*(dr*dth))))
		p.FinDtMax = math.Min(p.FinDtMax, limit)
	}

	p.SubSteps = int(math.Ceil(p.PlateDt / p.FinDtMax))
	if p.SubSteps < 1 {
		p.SubSteps = 1
	}
	p.FinDt = p.PlateDt / float64(p.SubSteps)
	p.Steps = int(math.Ceil(maxTime / p.PlateDt))
	return p, nil
}
