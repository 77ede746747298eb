package types

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRate_Humanized(t *testing.T) {
	cases := []struct {
		in   Rate
		want string
	}{
		{Rate(0), "0.0000e+00 Hz"},
		{Rate(500), "5.0000e+02 Hz"},
		{Rate(1250), "1.2500e+03 Hz"},
		{Rate(1.23456e-9), "1.2346e-09 Hz"},
	}
	for i, tc := range cases {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			require.Equal(t, tc.want, tc.in.Humanized())
		})
	}
}

func TestRate_PerDay(t *testing.T) {
	assert.InDelta(t, 86400.0, Rate(1).PerDay(), 1e-9)
	assert.InDelta(t, 1.25*86400.0, Rate(1.25).PerDay(), 1e-9)

	// round trip
	r := Rate(3.7e-4)
	assert.InDelta(t, float64(r), float64(FromPerDay(r.PerDay())), 1e-15)
}
