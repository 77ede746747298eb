package component

import "errors"

var (
	// ErrUnknownRateFormat indicates a rate format other than Bq/kg or ppm.
	ErrUnknownRateFormat = errors.New("component: rate format not recognised")

	// ErrNotRegistered indicates an isotope that was never added to the
	// component.
	ErrNotRegistered = errors.New("component: isotope not registered")

	// ErrNoEnv indicates a component constructed without registry or
	// efficiency provider.
	ErrNoEnv = errors.New("component: missing registry or efficiency provider")
)
