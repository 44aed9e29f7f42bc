package config

import (
	"fmt"
	"math"
	"os"
	"slices"

	"github.com/san-kum/heatsim/internal/thermal"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMaterial  = "aluminum"
	DefaultMaxTime   = 30.0
	DefaultEpsilon   = 1e-3
	DefaultSaveEvery = 100

	// DiffusivityTolerance bounds |α - k/(ρ·cp)| / α.
	DiffusivityTolerance = 1e-3

	// ResidualThreshold marks an energy-balance residual as suspicious.
	ResidualThreshold = 0.4
)

type Config struct {
	Material  string          `yaml:"material"`
	Geometry  GeometryConfig  `yaml:"geometry"`
	Operation OperationConfig `yaml:"operation"`
	Water     FluidProperties `yaml:"water"`
	Solid     SolidProperties `yaml:"solid"`
	Grid      GridConfig      `yaml:"grid"`
	Run       RunConfig       `yaml:"run"`
}

// GeometryConfig holds heat-sink dimensions [m].
type GeometryConfig struct {
	Length         float64   `yaml:"length"`
	Width          float64   `yaml:"width"`
	BaseThickness  float64   `yaml:"base_thickness"`
	WaterThickness float64   `yaml:"water_thickness"`
	FinRadius      float64   `yaml:"fin_radius"`
	FinCenters     []float64 `yaml:"fin_centers"`
}

// OperationConfig holds operating conditions. Temperatures are in K,
// heat-transfer coefficients in W/m²K.
type OperationConfig struct {
	Velocity    float64 `yaml:"velocity"`
	InletTemp   float64 `yaml:"inlet_temp"`
	AmbientTemp float64 `yaml:"ambient_temp"`
	InitialTemp float64 `yaml:"initial_temp"`
	HWater      float64 `yaml:"h_water"`
	HAir        float64 `yaml:"h_air"`
}

type FluidProperties struct {
	Conductivity float64 `yaml:"k"`
	Density      float64 `yaml:"rho"`
	SpecificHeat float64 `yaml:"cp"`
}

type SolidProperties struct {
	Name         string  `yaml:"name"`
	Conductivity float64 `yaml:"k"`
	Density      float64 `yaml:"rho"`
	SpecificHeat float64 `yaml:"cp"`
	Diffusivity  float64 `yaml:"alpha"`
}

type GridConfig struct {
	FluidNodes int `yaml:"fluid_nodes"`
	PlateNx    int `yaml:"plate_nx"`
	PlateNy    int `yaml:"plate_ny"`
	FinNr      int `yaml:"fin_nr"`
	FinNtheta  int `yaml:"fin_ntheta"`
}

// RunConfig holds the parameters of one time-marching run.
type RunConfig struct {
	MaxTime           float64 `yaml:"max_time"`
	Epsilon           float64 `yaml:"epsilon"`
	SaveEvery         int     `yaml:"save_every"`
	EnergyBalance     bool    `yaml:"energy_balance"`
	CheckCoupling     bool    `yaml:"check_coupling"`
	MismatchTolerance float64 `yaml:"mismatch_tolerance"`
	// PlateDt overrides the computed plate step when positive.
	PlateDt float64 `yaml:"plate_dt,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Material: DefaultMaterial,
		Geometry: GeometryConfig{
			Length:         0.03,
			Width:          0.10,
			BaseThickness:  0.01,
			WaterThickness: 0.003,
			FinRadius:      0.004,
			FinCenters:     []float64{0.005, 0.015, 0.025},
		},
		Operation: OperationConfig{
			Velocity:    0.111,
			InletTemp:   353.15,
			AmbientTemp: 296.15,
			InitialTemp: 296.15,
			HWater:      600,
			HAir:        10,
		},
		Water: FluidProperties{
			Conductivity: 0.563,
			Density:      980.5,
			SpecificHeat: 4180,
		},
		Solid: Materials[DefaultMaterial],
		Grid: GridConfig{
			FluidNodes: 60,
			PlateNx:    60,
			PlateNy:    20,
			FinNr:      10,
			FinNtheta:  20,
		},
		Run: RunPresets["default"],
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// WithMaterial returns a copy of c using the named solid preset.
func (c *Config) WithMaterial(name string) (*Config, error) {
	solid, ok := GetMaterial(name)
	if !ok {
		return nil, thermal.ConfigError("unknown material %q (available: %v)", name, ListMaterials())
	}
	out := c.Clone()
	out.Material = canonicalMaterial(name)
	out.Solid = solid
	return out, nil
}

func (c *Config) Clone() *Config {
	out := *c
	out.Geometry.FinCenters = append([]float64(nil), c.Geometry.FinCenters...)
	return &out
}

// FlowArea is the channel cross-section W·e_water [m²].
func (c *Config) FlowArea() float64 {
	return c.Geometry.Width * c.Geometry.WaterThickness
}

// MassFlow is ρ_w·u·A_c [kg/s].
func (c *Config) MassFlow() float64 {
	return c.Water.Density * c.Operation.Velocity * c.FlowArea()
}

// HeatDissipated is the heat the coolant gives up between inlet and outlet,
// ṁ·cp·(T_in - T_out) [W].
func (c *Config) HeatDissipated(outlet float64) float64 {
	return c.MassFlow() * c.Water.SpecificHeat * (c.Operation.InletTemp - outlet)
}

// VolumeFlow is u·A_c [m³/s].
func (c *Config) VolumeFlow() float64 {
	return c.Operation.Velocity * c.FlowArea()
}

// CouplingRate is γ = h_water/(ρ_w·cp_w·e_water) [1/s].
func (c *Config) CouplingRate() float64 {
	return c.Operation.HWater / (c.Water.Density * c.Water.SpecificHeat * c.Geometry.WaterThickness)
}

// FinAirArea is the curved surface of one semicircular fin, π·R·W [m²].
func (c *Config) FinAirArea() float64 {
	return math.Pi * c.Geometry.FinRadius * c.Geometry.Width
}

// PlateAirArea is L·W [m²].
func (c *Config) PlateAirArea() float64 {
	return c.Geometry.Length * c.Geometry.Width
}

// Validate rejects non-physical values and inconsistent geometry.
func (c *Config) Validate() error {
	g, op := c.Geometry, c.Operation

	positive := []struct {
		name  string
		value float64
	}{
		{"geometry.length", g.Length},
		{"geometry.width", g.Width},
		{"geometry.base_thickness", g.BaseThickness},
		{"geometry.water_thickness", g.WaterThickness},
		{"geometry.fin_radius", g.FinRadius},
		{"operation.velocity", op.Velocity},
		{"operation.inlet_temp", op.InletTemp},
		{"operation.ambient_temp", op.AmbientTemp},
		{"operation.initial_temp", op.InitialTemp},
		{"water.k", c.Water.Conductivity},
		{"water.rho", c.Water.Density},
		{"water.cp", c.Water.SpecificHeat},
		{"solid.k", c.Solid.Conductivity},
		{"solid.rho", c.Solid.Density},
		{"solid.cp", c.Solid.SpecificHeat},
		{"solid.alpha", c.Solid.Diffusivity},
		{"run.max_time", c.Run.MaxTime},
		{"run.epsilon", c.Run.Epsilon},
	}
	for _, p := range positive {
		if !(p.value > 0) || math.IsInf(p.value, 0) {
			return thermal.ConfigError("%s must be positive and finite, got %g", p.name, p.value)
		}
	}
	if op.HWater < 0 || op.HAir < 0 {
		return thermal.ConfigError("heat-transfer coefficients must be non-negative")
	}
	if c.Run.SaveEvery < 1 {
		return thermal.ConfigError("run.save_every must be >= 1, got %d", c.Run.SaveEvery)
	}
	if c.Run.PlateDt < 0 {
		return thermal.ConfigError("run.plate_dt must be >= 0, got %g", c.Run.PlateDt)
	}
	if c.Run.CheckCoupling && c.Run.MismatchTolerance <= 0 {
		return thermal.ConfigError("run.mismatch_tolerance must be positive when coupling checks are enabled")
	}

	expected := c.Solid.Conductivity / (c.Solid.Density * c.Solid.SpecificHeat)
	if rel := math.Abs(c.Solid.Diffusivity-expected) / c.Solid.Diffusivity; rel > DiffusivityTolerance {
		return thermal.ConfigError("solid.alpha %.4g differs from k/(rho*cp) = %.4g by %.2g%%", c.Solid.Diffusivity, expected, rel*100)
	}

	if len(g.FinCenters) == 0 {
		return thermal.ConfigError("at least one fin is required")
	}
	for k, xc := range g.FinCenters {
		if xc-g.FinRadius < 0 || xc+g.FinRadius > g.Length {
			return thermal.ConfigError("fin %d at x=%g with radius %g extends outside the plate [0, %g]", k, xc, g.FinRadius, g.Length)
		}
	}
	centers := slices.Sorted(slices.Values(g.FinCenters))
	for k := 1; k < len(centers); k++ {
		if centers[k]-centers[k-1] < 2*g.FinRadius {
			return thermal.ConfigError("fins at x=%g and x=%g overlap", centers[k-1], centers[k])
		}
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf("%s, %d fins, t_max=%gs, eps=%g K/s", c.Solid.Name, len(c.Geometry.FinCenters), c.Run.MaxTime, c.Run.Epsilon)
}
