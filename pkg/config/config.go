package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/watchmakers/cleanwatch/pkg/budget"
	"github.com/watchmakers/cleanwatch/pkg/component"
	"github.com/watchmakers/cleanwatch/pkg/efficiency"
)

// EnvPrefix prefixes every environment override, e.g. CLEANWATCH_SIGNAL or
// CLEANWATCH_EFFICIENCY_STORE.
const EnvPrefix = "CLEANWATCH"

// Config is the full run configuration: selection cuts, sensitivity
// parameters, the efficiency source and the detector layout.
//
// Units:
//   - PromptCut, DelayedCut: energy cuts (efficiency histogram y axis)
//   - FiducialCut: metres
//   - IBDTimeCut: seconds; IBDSpaceCut: metres
//   - Signal: IBD events per day; T3Sigma: days
//   - Radionuclides, FastNeutrons: events per day
type Config struct {
	PromptCut     float64 `mapstructure:"prompt_cut" yaml:"prompt_cut" validate:"gte=0"`
	DelayedCut    float64 `mapstructure:"delayed_cut" yaml:"delayed_cut" validate:"gte=0"`
	FiducialCut   float64 `mapstructure:"fiducial_cut" yaml:"fiducial_cut" validate:"gte=0"`
	IBDTimeCut    float64 `mapstructure:"ibd_time_cut" yaml:"ibd_time_cut" validate:"gt=0"`
	IBDSpaceCut   float64 `mapstructure:"ibd_space_cut" yaml:"ibd_space_cut" validate:"gt=0"`
	Signal        float64 `mapstructure:"signal" yaml:"signal" validate:"gt=0"`
	T3Sigma       float64 `mapstructure:"t3sigma" yaml:"t3sigma" validate:"gt=0"`
	Ronoff        float64 `mapstructure:"ronoff" yaml:"ronoff" validate:"gt=0"`
	Radionuclides float64 `mapstructure:"radionuclides" yaml:"radionuclides" validate:"gte=0"`
	FastNeutrons  float64 `mapstructure:"fast_neutrons" yaml:"fast_neutrons" validate:"gte=0"`
	Sigma         float64 `mapstructure:"sigma" yaml:"sigma" validate:"gt=0"`
	WRRatio       float64 `mapstructure:"wr_ratio" yaml:"wr_ratio" validate:"gte=0"`

	Efficiency EfficiencyConfig `mapstructure:"efficiency" yaml:"efficiency"`

	// Preset names a built-in detector; it is ignored when Components is
	// not empty.
	Preset     string          `mapstructure:"preset" yaml:"preset" validate:"omitempty,preset"`
	Components []ComponentSpec `mapstructure:"components" yaml:"components,omitempty" validate:"dive"`
}

// EfficiencyConfig selects the efficiency source. Store is the path of a
// YAML histogram store; when empty every lookup returns the constant
// Prompt/Delayed pair.
type EfficiencyConfig struct {
	Store   string  `mapstructure:"store" yaml:"store,omitempty"`
	Prompt  float64 `mapstructure:"prompt" yaml:"prompt" validate:"gte=0,lte=1"`
	Delayed float64 `mapstructure:"delayed" yaml:"delayed" validate:"gte=0,lte=1"`
}

// ComponentSpec declares one detector component. Isotope order is kept.
type ComponentSpec struct {
	Name     string        `mapstructure:"name" yaml:"name" validate:"required"`
	Mass     float64       `mapstructure:"mass" yaml:"mass" validate:"gte=0"`
	Format   string        `mapstructure:"format" yaml:"format" validate:"required,ratefmt"`
	Isotopes []IsotopeRate `mapstructure:"isotopes" yaml:"isotopes" validate:"dive"`
}

// IsotopeRate is a raw rate in the owning component's format.
type IsotopeRate struct {
	Name string  `mapstructure:"name" yaml:"name" validate:"required"`
	Rate float64 `mapstructure:"rate" yaml:"rate"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()

	_ = validate.RegisterValidation("ratefmt", func(fl validator.FieldLevel) bool {
		_, err := component.ParseRateFormat(fl.Field().String())
		return err == nil
	})
	_ = validate.RegisterValidation("preset", func(fl validator.FieldLevel) bool {
		_, ok := presets[fl.Field().String()]
		return ok
	})
}

// Load reads the configuration from defaults, an optional YAML file and
// CLEANWATCH_* environment variables, in increasing priority. path wins
// over CLEANWATCH_CONFIG; a missing default file is not an error but an
// explicitly named one is.
func Load(path string) (*Config, error) {
	v := viper.New()

	// default values
	d := budget.DefaultParams()
	v.SetDefault("prompt_cut", 8.0)
	v.SetDefault("delayed_cut", 19.0)
	v.SetDefault("fiducial_cut", 1.9)
	v.SetDefault("ibd_time_cut", d.TimeCut)
	v.SetDefault("ibd_space_cut", d.SpaceCut)
	v.SetDefault("signal", d.Signal)
	v.SetDefault("t3sigma", d.Days)
	v.SetDefault("ronoff", d.Ronoff)
	v.SetDefault("radionuclides", d.Radionuclides)
	v.SetDefault("fast_neutrons", d.FastNeutrons)
	v.SetDefault("sigma", d.Sigma)
	v.SetDefault("wr_ratio", d.WRRatio)
	v.SetDefault("efficiency.store", "")
	v.SetDefault("efficiency.prompt", 1e-3)
	v.SetDefault("efficiency.delayed", 1e-3)
	v.SetDefault("preset", DefaultPreset)

	v.SetConfigType("yaml")

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the struct tags, including rate formats and the preset
// name.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Params maps the configuration onto the budget engine's parameters.
func (c *Config) Params() budget.Params {
	return budget.Params{
		Signal:        c.Signal,
		Days:          c.T3Sigma,
		Sigma:         c.Sigma,
		Ronoff:        c.Ronoff,
		Radionuclides: c.Radionuclides,
		FastNeutrons:  c.FastNeutrons,
		WRRatio:       c.WRRatio,
		TimeCut:       c.IBDTimeCut,
		SpaceCut:      c.IBDSpaceCut,
	}
}

// Cuts returns the selection cuts efficiencies are evaluated at.
func (c *Config) Cuts() efficiency.Cuts {
	return efficiency.Cuts{Prompt: c.PromptCut, Delayed: c.DelayedCut, Fiducial: c.FiducialCut}
}

// Provider opens the efficiency store, or falls back to the constant pair.
func (c *Config) Provider() (efficiency.Provider, error) {
	if c.Efficiency.Store == "" {
		slog.Warn("no efficiency store configured, using constant efficiencies",
			"prompt", c.Efficiency.Prompt, "delayed", c.Efficiency.Delayed)
		return efficiency.Constant(c.Efficiency.Prompt, c.Efficiency.Delayed), nil
	}
	s, err := efficiency.Open(c.Efficiency.Store)
	if err != nil {
		return nil, err
	}
	slog.Debug("efficiency store loaded", "path", c.Efficiency.Store, "histograms", s.Len())
	return s, nil
}

// Layout returns the component specs in effect: the explicit list when
// present, the preset otherwise.
func (c *Config) Layout() ([]ComponentSpec, error) {
	if len(c.Components) > 0 {
		return c.Components, nil
	}
	return Preset(c.Preset)
}
