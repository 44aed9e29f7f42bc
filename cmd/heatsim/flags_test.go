package main

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/san-kum/heatsim/internal/config"
	"github.com/san-kum/heatsim/internal/thermal"
	"github.com/spf13/viper"
)

func TestResolveConfigDefaults(t *testing.T) {
	cfg, preset, err := resolveConfig(viper.New())
	if err != nil {
		t.Fatal(err)
	}
	if preset != "default" {
		t.Errorf("expected preset default, got %s", preset)
	}
	if cfg.Material != config.DefaultMaterial {
		t.Errorf("expected material %s, got %s", config.DefaultMaterial, cfg.Material)
	}
	if cfg.Run != config.RunPresets["default"] {
		t.Errorf("expected default run config, got %+v", cfg.Run)
	}
}

func TestResolveConfigOverrides(t *testing.T) {
	v := viper.New()
	v.Set("material", "steel")
	v.Set("preset", "quick")
	v.Set("time", 2.5)
	v.Set("save-every", 7)
	v.Set("no-energy", true)

	cfg, preset, err := resolveConfig(v)
	if err != nil {
		t.Fatal(err)
	}
	if preset != "quick" {
		t.Errorf("expected preset quick, got %s", preset)
	}
	if cfg.Solid.Diffusivity != 4.05e-6 {
		t.Errorf("expected steel, got %+v", cfg.Solid)
	}
	if cfg.Run.MaxTime != 2.5 {
		t.Errorf("expected max time 2.5, got %g", cfg.Run.MaxTime)
	}
	if cfg.Run.SaveEvery != 7 {
		t.Errorf("expected save cadence 7, got %d", cfg.Run.SaveEvery)
	}
	if cfg.Run.EnergyBalance {
		t.Error("expected energy balance disabled")
	}
	if cfg.Run.Epsilon != config.RunPresets["quick"].Epsilon {
		t.Errorf("expected preset epsilon, got %g", cfg.Run.Epsilon)
	}
}

func TestResolveConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heatsim.yaml")
	base, err := config.DefaultConfig().WithMaterial("steel")
	if err != nil {
		t.Fatal(err)
	}
	base.Run.MaxTime = 12
	base.Grid.PlateNy = 16
	if err := config.Save(path, base); err != nil {
		t.Fatal(err)
	}

	v := viper.New()
	v.Set("config", path)
	cfg, preset, err := resolveConfig(v)
	if err != nil {
		t.Fatal(err)
	}
	if preset != "custom" {
		t.Errorf("expected preset custom, got %s", preset)
	}
	if cfg.Material != "steel" || cfg.Run.MaxTime != 12 || cfg.Grid.PlateNy != 16 {
		t.Errorf("file values not applied: material=%s time=%g ny=%d", cfg.Material, cfg.Run.MaxTime, cfg.Grid.PlateNy)
	}
}

func TestResolveConfigRejects(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"unknown material", "material", "copper"},
		{"unknown preset", "preset", "overnight"},
		{"zero cadence", "save-every", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.val)
			_, _, err := resolveConfig(v)
			if !errors.Is(err, thermal.ErrConfig) {
				t.Errorf("expected ErrConfig, got %v", err)
			}
		})
	}
}

func TestResolveConfigMissingFile(t *testing.T) {
	v := viper.New()
	v.Set("config", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, _, err := resolveConfig(v); err == nil {
		t.Error("expected error for missing config file")
	}
}
