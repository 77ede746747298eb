package config

import (
	"fmt"
	"sort"
)

// DefaultPreset is used when neither a preset nor components are given.
const DefaultPreset = "default"

// Built-in detectors. Component names match the efficiency store keys.
var presets = map[string][]ComponentSpec{
	// Reference Watchman detector.
	"default": {
		{Name: "WaterVolume", Mass: 6300000, Format: "Bq/kg", Isotopes: []IsotopeRate{
			{"222Rn", 1e-6},
		}},
		{Name: "GD", Mass: 12600, Format: "Bq/kg", Isotopes: []IsotopeRate{
			{"238U", 4.96e-5},
			{"235U", 2.31e-6},
			{"232Th", 2.48e-5},
		}},
		{Name: "PMT", Mass: 4580.8, Format: "ppm", Isotopes: []IsotopeRate{
			{"238U", 0.064},
			{"232Th", 0.172},
			{"40K", 36},
		}},
		{Name: "VETO", Mass: 458.08, Format: "ppm", Isotopes: []IsotopeRate{
			{"238U", 0.341},
			{"232Th", 1.33},
			{"40K", 260},
		}},
		{Name: "TANK", Mass: 257706, Format: "ppm", Isotopes: []IsotopeRate{
			{"238U", 9.49e-3},
			{"232Th", 4.19e-3},
			{"40K", 1.75},
			{"137Cs", 2.47e-11},
			{"60Co", 1.79e-12},
		}},
	},
	// 16 m water tank with PMTs at 5.7 m.
	"16m": {
		{Name: "LIQUID", Mass: 3209257.833, Format: "Bq/kg", Isotopes: []IsotopeRate{
			{"238U", 1.0e-6},
			{"232Th", 1.0e-7},
			{"40K", 4e-6},
		}},
		{Name: "GD", Mass: 6418.52, Format: "Bq/kg", Isotopes: []IsotopeRate{
			{"238U", 4.96e-5},
			{"232Th", 2.48e-5},
			{"235U", 2.31e-6},
		}},
		{Name: "PMT", Mass: 2553.6, Format: "ppm", Isotopes: []IsotopeRate{
			{"238U", 0.064},
			{"232Th", 0.172},
			{"40K", 85.5},
		}},
		{Name: "PSUP", Mass: 33241.06, Format: "ppm", Isotopes: steel()},
		{Name: "TANK", Mass: 481322.0, Format: "ppm", Isotopes: steel()},
		{Name: "IBEAM", Mass: 320652.73, Format: "ppm", Isotopes: steel()},
	},
}

// steel is the shared structural steel assay.
func steel() []IsotopeRate {
	return []IsotopeRate{
		{"238U", 9.49e-3},
		{"232Th", 4.19e-3},
		{"40K", 1.75},
		{"235U", 8.38e-5},
		{"137Cs", 2.47e-11},
		{"60Co", 1.79e-12},
	}
}

// Preset returns a copy of a built-in detector layout.
func Preset(name string) ([]ComponentSpec, error) {
	specs, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %v)", ErrUnknownPreset, name, PresetNames())
	}
	out := make([]ComponentSpec, len(specs))
	for i, s := range specs {
		s.Isotopes = append([]IsotopeRate(nil), s.Isotopes...)
		out[i] = s
	}
	return out, nil
}

// PresetNames lists the built-in layouts in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
