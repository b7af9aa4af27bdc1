package shared_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/spacetraders-fleet/internal/domain/shared"
)

func TestFlightMode_FuelCost(t *testing.T) {
	// Cruise burns one unit per distance unit, rounded up
	assert.Equal(t, 40, shared.FlightModeCruise.FuelCost(40))
	assert.Equal(t, 41, shared.FlightModeCruise.FuelCost(40.2))

	// Drift always burns a single unit
	assert.Equal(t, 1, shared.FlightModeDrift.FuelCost(500))
	assert.Equal(t, 1, shared.FlightModeDrift.FuelCost(0))

	// Burn doubles the cruise cost
	assert.Equal(t, 80, shared.FlightModeBurn.FuelCost(40))
	assert.Equal(t, 82, shared.FlightModeBurn.FuelCost(40.2))

	// Even a zero-distance hop consumes one unit
	assert.Equal(t, 1, shared.FlightModeCruise.FuelCost(0))
	assert.Equal(t, 2, shared.FlightModeBurn.FuelCost(0))
}

func TestFlightMode_TravelTime(t *testing.T) {
	// round(15 + 40*25/30) = round(48.33) = 48
	assert.Equal(t, 48, shared.FlightModeCruise.TravelTime(40, 30))

	// Drift is ten times slower than cruise
	assert.Equal(t, 348, shared.FlightModeDrift.TravelTime(40, 30))

	// Burn is twice as fast as cruise
	assert.Equal(t, 32, shared.FlightModeBurn.TravelTime(40, 30))

	// Zero distance still pays the 15 s departure overhead
	assert.Equal(t, 15, shared.FlightModeCruise.TravelTime(0, 30))

	// Engine speed is clamped to at least 1
	assert.Equal(t, 1015, shared.FlightModeCruise.TravelTime(40, 0))
}

func TestParseFlightMode(t *testing.T) {
	mode, err := shared.ParseFlightMode("DRIFT")
	require.NoError(t, err)
	assert.Equal(t, shared.FlightModeDrift, mode)

	mode, err = shared.ParseFlightMode("BURN")
	require.NoError(t, err)
	assert.Equal(t, shared.FlightModeBurn, mode)

	_, err = shared.ParseFlightMode("WARP")
	assert.Error(t, err)
}

func TestIsValidFlightModeName(t *testing.T) {
	assert.True(t, shared.IsValidFlightModeName("CRUISE"))
	assert.True(t, shared.IsValidFlightModeName("STEALTH"))
	assert.False(t, shared.IsValidFlightModeName("cruise"))
	assert.False(t, shared.IsValidFlightModeName(""))
}
