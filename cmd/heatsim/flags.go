package main

import (
	"github.com/san-kum/heatsim/internal/config"
	"github.com/san-kum/heatsim/internal/thermal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("config", "", "YAML configuration file")
	f.String("material", config.DefaultMaterial, "solid material (aluminum, steel)")
	f.String("preset", "", "run preset (quick, default, complete)")
	f.Float64("time", config.DefaultMaxTime, "maximum simulated time [s]")
	f.Float64("epsilon", config.DefaultEpsilon, "convergence threshold on max |dT/dt| [K/s]")
	f.Int("save-every", config.DefaultSaveEvery, "snapshot cadence in plate steps")
	f.Float64("plate-dt", 0, "override the plate time step [s]")
	f.Bool("no-energy", false, "skip the energy-balance check")
	f.Bool("check-coupling", true, "check interface temperature continuity")
}

// resolveConfig layers a configuration from defaults, an optional YAML file,
// material and run presets, then individual overrides. Flags and HEATSIM_*
// environment variables are read through v. The returned name records which
// run preset the configuration came from.
func resolveConfig(v *viper.Viper) (*config.Config, string, error) {
	cfg := config.DefaultConfig()
	preset := "default"

	if path := v.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, "", err
		}
		cfg, preset = loaded, "custom"
	}

	if v.IsSet("material") {
		withMaterial, err := cfg.WithMaterial(v.GetString("material"))
		if err != nil {
			return nil, "", err
		}
		cfg = withMaterial
	}

	if name := v.GetString("preset"); name != "" {
		rc, ok := config.GetRunPreset(name)
		if !ok {
			return nil, "", thermal.ConfigError("unknown run preset %q (available: %v)", name, config.ListRunPresets())
		}
		cfg.Run, preset = rc, name
	}

	if v.IsSet("time") {
		cfg.Run.MaxTime = v.GetFloat64("time")
	}
	if v.IsSet("epsilon") {
		cfg.Run.Epsilon = v.GetFloat64("epsilon")
	}
	if v.IsSet("save-every") {
		cfg.Run.SaveEvery = v.GetInt("save-every")
	}
	if v.IsSet("plate-dt") {
		cfg.Run.PlateDt = v.GetFloat64("plate-dt")
	}
	if v.IsSet("no-energy") {
		cfg.Run.EnergyBalance = !v.GetBool("no-energy")
	}
	if v.IsSet("check-coupling") {
		cfg.Run.CheckCoupling = v.GetBool("check-coupling")
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, preset, nil
}
