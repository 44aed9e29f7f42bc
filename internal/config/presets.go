package config

import "sort"

// Materials are the supported solid presets.
var Materials = map[string]SolidProperties{
	"aluminum": {
		Name: "Aluminum 6061", Conductivity: 167, Density: 2700, SpecificHeat: 900, Diffusivity: 6.87e-5,
	},
	"steel": {
		Name: "Stainless steel 304", Conductivity: 16.2, Density: 8000, SpecificHeat: 500, Diffusivity: 4.05e-6,
	},
}

var materialAliases = map[string]string{
	"al": "aluminum",
	"ss": "steel",
}

// RunPresets are the named run modes.
var RunPresets = map[string]RunConfig{
	"quick": {
		MaxTime: 5, Epsilon: DefaultEpsilon, SaveEvery: DefaultSaveEvery, EnergyBalance: true,
		CheckCoupling: true, MismatchTolerance: 1.0,
	},
	"default": {
		MaxTime: DefaultMaxTime, Epsilon: DefaultEpsilon, SaveEvery: DefaultSaveEvery, EnergyBalance: true,
		CheckCoupling: true, MismatchTolerance: 1.0,
	},
	"complete": {
		MaxTime: 60, Epsilon: DefaultEpsilon, SaveEvery: DefaultSaveEvery, EnergyBalance: true,
		CheckCoupling: true, MismatchTolerance: 1.0,
	},
}

// GetMaterial resolves a material name or alias.
func GetMaterial(name string) (SolidProperties, bool) {
	m, ok := Materials[canonicalMaterial(name)]
	return m, ok
}

func canonicalMaterial(name string) string {
	if canonical, ok := materialAliases[name]; ok {
		return canonical
	}
	return name
}

func ListMaterials() []string {
	names := make([]string, 0, len(Materials))
	for name := range Materials {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func GetRunPreset(name string) (RunConfig, bool) {
	rc, ok := RunPresets[name]
	return rc, ok
}

func ListRunPresets() []string {
	names := make([]string, 0, len(RunPresets))
	for name := range RunPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
