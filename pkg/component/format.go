package component

import (
	"fmt"
	"strings"

	"github.com/watchmakers/cleanwatch/pkg/isotope"
)

// RateFormat is the unit a component's raw isotope rates are given in.
type RateFormat int

const (
	// ActivityDensity rates are Bq/kg.
	ActivityDensity RateFormat = iota + 1
	// Concentration rates are parts per million by mass.
	Concentration
)

func (f RateFormat) String() string {
	switch f {
	case ActivityDensity:
		return "Bq/kg"
	case Concentration:
		return "ppm"
	default:
		return fmt.Sprintf("RateFormat(%d)", int(f))
	}
}

// Valid reports whether f is one of the known formats.
func (f RateFormat) Valid() bool {
	return f == ActivityDensity || f == Concentration
}

// ParseRateFormat accepts "Bq/kg" or "ppm" (case-insensitive) and the
// long names "activity_density" and "concentration".
func ParseRateFormat(s string) (RateFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bq/kg", "activity_density", "activitydensity":
		return ActivityDensity, nil
	case "ppm", "concentration":
		return Concentration, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownRateFormat, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f RateFormat) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRateFormat, int(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *RateFormat) UnmarshalText(b []byte) error {
	v, err := ParseRateFormat(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// conversion returns the factor turning a raw rate into absolute activity
// (Bq) for a component of the given mass:
//   - ActivityDensity: mass
//   - Concentration: mass * 1e-6 * molar activity
func (f RateFormat) conversion(mass float64, iso *isotope.Isotope) (float64, error) {
	switch f {
	case ActivityDensity:
		return mass, nil
	case Concentration:
		return mass * 1e-6 * iso.MolarActivity, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownRateFormat, f)
	}
}
