package budget

import (
	"errors"
	"fmt"
)

var (
	// ErrInfeasible indicates that the significance target cannot be reached
	// within the requested time at the requested signal rate.
	ErrInfeasible = errors.New("budget: target significance unreachable")

	// ErrNoAccidentals indicates a detector with no accidental background, so
	// there is nothing to rescale.
	ErrNoAccidentals = errors.New("budget: total accidentals is zero")

	// ErrDegenerateGradients indicates that no isotope moves the background
	// ratio, so gradient weights cannot be normalised.
	ErrDegenerateGradients = errors.New("budget: gradient norm is zero")

	// ErrUnknownMethod indicates an apportionment method other than 'e' or 'c'.
	ErrUnknownMethod = errors.New("budget: unknown method")
)

// InfeasibleError carries the parameters that made the target unreachable.
type InfeasibleError struct {
	Signal float64
	Days   float64
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("cannot detect within %g days at signal rate of %g per day", e.Days, e.Signal)
}

// Is makes errors.Is(err, ErrInfeasible) hold.
func (e *InfeasibleError) Is(target error) bool { return target == ErrInfeasible }
