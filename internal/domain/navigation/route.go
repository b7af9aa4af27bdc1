package navigation

import (
	"fmt"

	"github.com/andrescamacho/spacetraders-fleet/internal/domain/shared"
)

// Point is a waypoint position in system coordinates
type Point struct {
	X float64
	Y float64
}

// RouteSegment represents an immutable leg of a route
type RouteSegment struct {
	Origin        string
	Destination   string
	Distance      float64
	FlightMode    shared.FlightMode
	FuelCost      int
	TravelSeconds int
}

func (s RouteSegment) String() string {
	return fmt.Sprintf("%s -> %s (%.1fu, %d fuel, %s, %ds)",
		s.Origin, s.Destination, s.Distance, s.FuelCost, s.FlightMode, s.TravelSeconds)
}

// RoutePlan is a complete route with fuel analysis.
//
// Segments are independent legs: the ship is assumed to refuel to full at
// every intermediate stop, so TotalFuel is the sum over legs and a single
// leg never exceeds tank capacity.
type RoutePlan struct {
	Segments     []RouteSegment
	TotalFuel    int
	TotalSeconds int
	Feasible     bool
	Reason       string
}

// NumStops returns the number of intermediate refueling stops (0 for direct routes)
func (p *RoutePlan) NumStops() int {
	if !p.Feasible || len(p.Segments) == 0 {
		return 0
	}
	return len(p.Segments) - 1
}

// IsDirect reports whether the plan is a single leg with no refuel stops
func (p *RoutePlan) IsDirect() bool {
	return p.Feasible && len(p.Segments) == 1
}

// TotalMinutes returns the plan duration in minutes
func (p *RoutePlan) TotalMinutes() float64 {
	return float64(p.TotalSeconds) / 60.0
}

func (p *RoutePlan) String() string {
	if !p.Feasible {
		return fmt.Sprintf("RoutePlan(infeasible: %s)", p.Reason)
	}
	return fmt.Sprintf("RoutePlan(%d legs, %d fuel, %ds)",
		len(p.Segments), p.TotalFuel, p.TotalSeconds)
}
