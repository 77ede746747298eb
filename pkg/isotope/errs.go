package isotope

import "errors"

// ErrUnknownIsotope indicates a name that is not in the registry.
var ErrUnknownIsotope = errors.New("isotope: unknown isotope")
