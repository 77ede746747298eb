package util

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeDiv(t *testing.T) {
	assert.Equal(t, 0.0, SafeDiv(10, 0), "zero denominator yields zero")
	assert.InDelta(t, 2.5, SafeDiv(5, 2), 1e-12)
	// tiny denominators are real values, not noise
	assert.InDelta(t, 2e12, SafeDiv(2, 1e-12), 1)
	assert.Equal(t, 0.0, SafeDiv(0, 0))
}

func TestRealPow(t *testing.T) {
	v, err := RealPow(4, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, v, 1e-12)

	v, err = RealPow(0, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)

	// integer exponents of negative bases stay real
	v, err = RealPow(-2, 3)
	require.NoError(t, err)
	assert.InDelta(t, -8.0, v, 1e-12)

	_, err = RealPow(-1e-17, 0.5)
	require.ErrorIs(t, err, ErrComplex)
}

func TestClamp01(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.25, 0.25},
		{1, 1},
		{1.5, 1},
		{math.NaN(), 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Clamp01(tc.in), "in=%v", tc.in)
	}
}
