package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchmakers/cleanwatch/pkg/budget"
	"github.com/watchmakers/cleanwatch/pkg/component"
	"github.com/watchmakers/cleanwatch/pkg/efficiency"
)

const storeYAML = `
histograms:
  - component: PMT
    isotope: K40
    fiducial_edges: [0, 3]
    energy_edges: [0, 20]
    values:
      - [0.01]
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvPrefix+"_CONFIG", "")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	c, err := Load("")
	require.NoError(t, err)

	d := budget.DefaultParams()
	assert.Equal(t, d, c.Params())
	assert.Equal(t, efficiency.Cuts{Prompt: 8, Delayed: 19, Fiducial: 1.9}, c.Cuts())
	assert.Equal(t, DefaultPreset, c.Preset)
	assert.Empty(t, c.Components)
	assert.Empty(t, c.Efficiency.Store)
}

func TestLoad_FileAndEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	store := writeFile(t, dir, "eff.yaml", storeYAML)
	cfg := writeFile(t, dir, "cleanwatch.yaml", `
signal: 0.6
sigma: 3
efficiency:
  store: `+store+`
components:
  - name: PMT
    mass: 10
    format: ppm
    isotopes:
      - name: 40K
        rate: 36
      - name: U238
        rate: 0.064
`)

	t.Setenv(EnvPrefix+"_SIGNAL", "0.7")
	t.Setenv(EnvPrefix+"_FAST_NEUTRONS", "0")

	c, err := Load(cfg)
	require.NoError(t, err)
	assert.Equal(t, 0.7, c.Signal, "env wins over file")
	assert.Equal(t, 3.0, c.Sigma)
	assert.Zero(t, c.FastNeutrons)
	assert.Equal(t, store, c.Efficiency.Store)
	require.Len(t, c.Components, 1)
	assert.Equal(t, []IsotopeRate{{"40K", 36}, {"U238", 0.064}}, c.Components[0].Isotopes)

	d, err := c.Build(nil)
	require.NoError(t, err)
	require.Len(t, d.Components, 1)
	pmt := d.Components[0]
	assert.Equal(t, []string{"K40", "U238"}, pmt.Isotopes())
	assert.Equal(t, component.Concentration, pmt.Format())
	assert.InDelta(t, 0.01, pmt.Efficiency("K40", "K40").Prompt, 1e-12)
	// no U238 histograms in the store
	assert.Zero(t, pmt.Efficiency("U238", "214Bi").Prompt)
	assert.Equal(t, 0.7, d.Engine.Params().Signal)
}

func TestLoad_ConfigFromEnv(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "c.yaml", "preset: 16m\n")
	t.Setenv(EnvPrefix+"_CONFIG", cfg)

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "16m", c.Preset)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cases := map[string]string{
		"preset":    "preset: nope\n",
		"format":    "components:\n  - name: X\n    mass: 1\n    format: furlongs\n",
		"mass":      "components:\n  - name: X\n    mass: -1\n    format: ppm\n",
		"name":      "components:\n  - mass: 1\n    format: ppm\n",
		"signal":    "signal: -1\n",
		"eff":       "efficiency:\n  prompt: 2\n",
		"timecut":   "ibd_time_cut: 0\n",
		"malformed": "signal: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, dir, name+".yaml", body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestPresets(t *testing.T) {
	assert.Equal(t, []string{"16m", "default"}, PresetNames())

	for _, name := range PresetNames() {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			c, err := Load("")
			require.NoError(t, err)
			c.Preset = name

			d, err := c.Build(nil)
			require.NoError(t, err)
			assert.NotEmpty(t, d.Components)
			for _, comp := range d.Components {
				assert.NotEmpty(t, comp.Isotopes(), comp.Name())
				assert.Greater(t, comp.TotalPromptSingles(), 0.0, comp.Name())
			}
			tot := d.Engine.TotalAccidentals(d.Components)
			t.Logf("%s: %d components, %.4e accidentals/day", name, len(d.Components), tot)
		})
	}

	specs, err := Preset("default")
	require.NoError(t, err)
	require.Len(t, specs, 5)
	assert.Equal(t, "WaterVolume", specs[0].Name)

	// copies are independent
	specs[0].Isotopes[0].Rate = 42
	again, _ := Preset("default")
	assert.Equal(t, 1e-6, again[0].Isotopes[0].Rate)

	_, err = Preset("nope")
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

func TestDetector_Component(t *testing.T) {
	clearEnv(t)
	c, err := Load("")
	require.NoError(t, err)
	d, err := c.Build(nil)
	require.NoError(t, err)

	gd, ok := d.Component("gd")
	require.True(t, ok)
	assert.Equal(t, "GD", gd.Name())

	_, ok = d.Component("ROCK")
	assert.False(t, ok)
}

func TestLayout_ExplicitWins(t *testing.T) {
	c := &Config{Preset: "16m", Components: []ComponentSpec{{Name: "A", Format: "Bq/kg"}}}
	specs, err := c.Layout()
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "A", specs[0].Name)
}
