package util

import (
	"errors"
	"math"
)

// ErrComplex is returned when a power would only have a complex result.
var ErrComplex = errors.New("util: complex result")

// SafeDiv divides n by d and yields 0 when d is exactly zero.
// Small but non-zero denominators are honoured; efficiencies of order
// 1e-12 are legitimate inputs.
func SafeDiv(n, d float64) float64 {
	if d == 0 {
		return 0
	}
	return n / d
}

// RealPow returns a**b, failing with ErrComplex when a is negative and b is
// not an integer.
func RealPow(a, b float64) (float64, error) {
	if a < 0 && b != math.Trunc(b) {
		return 0, ErrComplex
	}
	return math.Pow(a, b), nil
}

// Clamp01 limits x to [0,1]; NaN maps to 0.
func Clamp01(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
