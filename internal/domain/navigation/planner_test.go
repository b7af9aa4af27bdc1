package navigation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/spacetraders-fleet/internal/domain/navigation"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/shared"
)

func TestPlanMultihop_WithRefuelStop(t *testing.T) {
	// Arrange: C is 80 units out, tank holds 50, B sits halfway
	coords := map[string]navigation.Point{
		"A": {X: 0, Y: 0},
		"B": {X: 40, Y: 0},
		"C": {X: 80, Y: 0},
	}
	fuelWps := map[string]bool{"B": true}

	// Act
	plan := navigation.PlanMultihop(coords, fuelWps, "A", "C", 50, 30, shared.FlightModeCruise)

	// Assert
	require.True(t, plan.Feasible)
	require.Len(t, plan.Segments, 2)
	assert.Equal(t, "A", plan.Segments[0].Origin)
	assert.Equal(t, "B", plan.Segments[0].Destination)
	assert.Equal(t, "B", plan.Segments[1].Origin)
	assert.Equal(t, "C", plan.Segments[1].Destination)
	assert.Equal(t, 80, plan.TotalFuel)

	// Each 40-unit leg takes round(15 + 40*25/30) = 48 s, plus one refuel stop
	assert.Equal(t, 48+48+30, plan.TotalSeconds)
	assert.Equal(t, 1, plan.NumStops())
}

func TestPlanMultihop_DirectWhenTankSuffices(t *testing.T) {
	coords := map[string]navigation.Point{
		"A": {X: 0, Y: 0},
		"B": {X: 40, Y: 0},
		"C": {X: 80, Y: 0},
	}
	fuelWps := map[string]bool{"B": true}

	plan := navigation.PlanMultihop(coords, fuelWps, "A", "C", 100, 30, shared.FlightModeCruise)

	require.True(t, plan.Feasible)
	require.Len(t, plan.Segments, 1)
	assert.Equal(t, 80, plan.TotalFuel)
	assert.Equal(t, 0, plan.NumStops())
	assert.True(t, plan.IsDirect())
}

func TestPlanMultihop_SameOriginAndDestination(t *testing.T) {
	plan := navigation.PlanMultihop(nil, nil, "A", "A", 10, 30, shared.FlightModeCruise)

	require.True(t, plan.Feasible)
	assert.Empty(t, plan.Segments)
	assert.Zero(t, plan.TotalFuel)
	assert.Zero(t, plan.TotalSeconds)
}

func TestPlanMultihop_InfeasibleWithoutForwardProgress(t *testing.T) {
	// The only fuel waypoint sits behind the origin, so no hop improves
	// the remaining distance
	coords := map[string]navigation.Point{
		"A": {X: 0, Y: 0},
		"B": {X: -40, Y: 0},
		"C": {X: 80, Y: 0},
	}
	fuelWps := map[string]bool{"B": true}

	plan := navigation.PlanMultihop(coords, fuelWps, "A", "C", 50, 30, shared.FlightModeCruise)

	require.False(t, plan.Feasible)
	assert.Contains(t, plan.Reason, "no reachable fuel waypoint")
}

func TestPlanMultihop_UnknownCoordinates(t *testing.T) {
	coords := map[string]navigation.Point{"A": {X: 0, Y: 0}}

	plan := navigation.PlanMultihop(coords, nil, "A", "NOWHERE", 50, 30, shared.FlightModeCruise)

	require.False(t, plan.Feasible)
	assert.Contains(t, plan.Reason, "NOWHERE")
}

func TestPlanMultihop_ChainsMultipleStops(t *testing.T) {
	// 120 units split across two fuel stops, tank of 50
	coords := map[string]navigation.Point{
		"A": {X: 0, Y: 0},
		"B": {X: 40, Y: 0},
		"C": {X: 80, Y: 0},
		"D": {X: 120, Y: 0},
	}
	fuelWps := map[string]bool{"B": true, "C": true}

	plan := navigation.PlanMultihop(coords, fuelWps, "A", "D", 50, 30, shared.FlightModeCruise)

	require.True(t, plan.Feasible)
	require.Len(t, plan.Segments, 3)
	assert.Equal(t, 120, plan.TotalFuel)
	assert.Equal(t, 2, plan.NumStops())
	assert.Equal(t, 48*3+30*2, plan.TotalSeconds)
}

func TestUsableFuel(t *testing.T) {
	// 20% of capacity is reserved
	assert.Equal(t, 30, navigation.UsableFuel(50, 100))
	assert.Equal(t, 80, navigation.UsableFuel(100, 100))

	// Below the reserve nothing is usable
	assert.Equal(t, 0, navigation.UsableFuel(15, 100))
}

func TestBestFlightMode(t *testing.T) {
	// Plenty of fuel: cruise
	assert.Equal(t, shared.FlightModeCruise, navigation.BestFlightMode(100, 100, 40))

	// Not enough for cruise after reserve: drift
	assert.Equal(t, shared.FlightModeDrift, navigation.BestFlightMode(30, 100, 40))
}

func TestEstimateFuelOneWay(t *testing.T) {
	coords := map[string]navigation.Point{
		"A": {X: 0, Y: 0},
		"B": {X: 3, Y: 4},
	}

	assert.Equal(t, 0, navigation.EstimateFuelOneWay(coords, "A", "A"))
	assert.Equal(t, 5, navigation.EstimateFuelOneWay(coords, "A", "B"))
	assert.Equal(t, navigation.UnknownFuelEstimate, navigation.EstimateFuelOneWay(coords, "A", "Z"))
	assert.Equal(t, 10, navigation.EstimateFuelRoundTrip(coords, "A", "B"))
}

func TestFuelWaypointSet(t *testing.T) {
	market, _ := shared.NewWaypoint("X1-GZ7-A1", 0, 0)
	market.Traits = []string{"MARKETPLACE"}
	barren, _ := shared.NewWaypoint("X1-GZ7-B2", 10, 0)

	set := navigation.FuelWaypointSet([]*shared.Waypoint{market, barren})

	assert.True(t, set["X1-GZ7-A1"])
	assert.False(t, set["X1-GZ7-B2"])
}
