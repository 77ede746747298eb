package types

import "fmt"

// SecondsPerDay converts per-second rates into the per-day figures the
// sensitivity model works in.
const SecondsPerDay = 60 * 60 * 24

// Rate is a float64 wrapper representing an event rate in Hz.
type Rate float64

// Humanized returns the rate in the fixed scientific notation used by
// the text reports, e.g. "5.0000e+02 Hz".
func (r Rate) Humanized() string {
	return fmt.Sprintf("%.4e Hz", float64(r))
}

// PerDay returns the number of events per day.
func (r Rate) PerDay() float64 { return float64(r) * SecondsPerDay }

// FromPerDay converts a per-day count back into a Rate.
func FromPerDay(v float64) Rate { return Rate(v / SecondsPerDay) }
