package navigation

import (
	"fmt"
	"math"
	"sort"

	"github.com/andrescamacho/spacetraders-fleet/internal/domain/shared"
)

const (
	// FuelReserveFraction of tank capacity is withheld from direct route
	// planning so ships never strand themselves on estimate drift.
	FuelReserveFraction = 0.20

	// RefuelStopOverheadSeconds is charged per intermediate stop
	// (dock + refuel + orbit).
	RefuelStopOverheadSeconds = 30

	// UnknownFuelEstimate stands in for legs between waypoints with no
	// known coordinates. Large enough to lose any route comparison.
	UnknownFuelEstimate = 9999
)

// Distance is the Euclidean distance between two points
func Distance(a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// UsableFuel returns fuel available after withholding the reserve
func UsableFuel(current, capacity int) int {
	reserve := int(math.Ceil(float64(capacity) * FuelReserveFraction))
	usable := current - reserve
	if usable < 0 {
		return 0
	}
	return usable
}

// CanReach reports whether a ship with the given fuel state covers the
// distance in one leg with the reserve intact
func CanReach(current, capacity int, distance float64, mode shared.FlightMode) bool {
	return mode.FuelCost(distance) <= UsableFuel(current, capacity)
}

// BestFlightMode picks the fastest mode the ship can afford for a leg.
// DRIFT costs one unit regardless of distance, so it is always the fallback.
func BestFlightMode(current, capacity int, distance float64) shared.FlightMode {
	if shared.FlightModeCruise.FuelCost(distance) <= UsableFuel(current, capacity) {
		return shared.FlightModeCruise
	}
	return shared.FlightModeDrift
}

// PlanSegment plans a single leg between two known positions
func PlanSegment(from, to Point, origin, destination string, speed int, mode shared.FlightMode) RouteSegment {
	dist := Distance(from, to)
	return RouteSegment{
		Origin:        origin,
		Destination:   destination,
		Distance:      dist,
		FlightMode:    mode,
		FuelCost:      mode.FuelCost(dist),
		TravelSeconds: mode.TravelTime(dist, speed),
	}
}

// EstimateFuelOneWay estimates the fuel for a one-way CRUISE leg between two
// waypoints by symbol. Same waypoint costs nothing; unknown coordinates
// return UnknownFuelEstimate.
func EstimateFuelOneWay(coords map[string]Point, from, to string) int {
	if from == to {
		return 0
	}
	a, okA := coords[from]
	b, okB := coords[to]
	if !okA || !okB {
		return UnknownFuelEstimate
	}
	return int(math.Ceil(Distance(a, b)))
}

// EstimateFuelRoundTrip estimates fuel for there-and-back between two waypoints
func EstimateFuelRoundTrip(coords map[string]Point, from, to string) int {
	return 2 * EstimateFuelOneWay(coords, from, to)
}

// FuelWaypointSet collects the symbols of waypoints where a ship can refuel
// (any waypoint with a marketplace sells fuel)
func FuelWaypointSet(waypoints []*shared.Waypoint) map[string]bool {
	set := make(map[string]bool, len(waypoints))
	for _, wp := range waypoints {
		if wp.HasMarketplace() {
			set[wp.Symbol] = true
		}
	}
	return set
}

// PlanMultihop plans a route from origin to destination with refueling stops.
//
// Greedy forward-progress: starting with a full tank, if the destination is
// not reachable on one tank, hop to the unvisited fuel waypoint that is
// reachable and strictly reduces the remaining distance to the destination.
// No such waypoint means the route is infeasible. The loop is bounded by
// |fuelWaypoints|+1 hops. The caller supplies the capacity to plan against;
// the planner itself withholds no reserve.
func PlanMultihop(
	coords map[string]Point,
	fuelWaypoints map[string]bool,
	origin, destination string,
	fuelCapacity, speed int,
	mode shared.FlightMode,
) RoutePlan {
	if origin == destination {
		return RoutePlan{Feasible: true}
	}

	if _, ok := coords[origin]; !ok {
		return RoutePlan{Feasible: false, Reason: fmt.Sprintf("unknown coordinates for %s", origin)}
	}
	dest, ok := coords[destination]
	if !ok {
		return RoutePlan{Feasible: false, Reason: fmt.Sprintf("unknown coordinates for %s", destination)}
	}

	// Sorted candidate list keeps tie-breaking deterministic
	candidates := make([]string, 0, len(fuelWaypoints))
	for sym := range fuelWaypoints {
		candidates = append(candidates, sym)
	}
	sort.Strings(candidates)

	current := origin
	visited := map[string]bool{origin: true}
	var segments []RouteSegment

	maxHops := len(fuelWaypoints) + 1
	for hop := 0; hop < maxHops; hop++ {
		pos := coords[current]
		distToDest := Distance(pos, dest)

		if mode.FuelCost(distToDest) <= fuelCapacity {
			segments = append(segments, PlanSegment(pos, dest, current, destination, speed, mode))
			totalFuel, totalSeconds := 0, 0
			for _, seg := range segments {
				totalFuel += seg.FuelCost
				totalSeconds += seg.TravelSeconds
			}
			totalSeconds += (len(segments) - 1) * RefuelStopOverheadSeconds
			return RoutePlan{
				Segments:     segments,
				TotalFuel:    totalFuel,
				TotalSeconds: totalSeconds,
				Feasible:     true,
			}
		}

		// Pick the reachable fuel stop that makes the most forward progress
		bestWp := ""
		bestRemaining := distToDest
		for _, sym := range candidates {
			if visited[sym] {
				continue
			}
			wpPos, ok := coords[sym]
			if !ok {
				continue
			}
			if mode.FuelCost(Distance(pos, wpPos)) > fuelCapacity {
				continue
			}
			remaining := Distance(wpPos, dest)
			if remaining < bestRemaining {
				bestRemaining = remaining
				bestWp = sym
			}
		}

		if bestWp == "" {
			return RoutePlan{
				Feasible: false,
				Reason:   fmt.Sprintf("no reachable fuel waypoint makes progress from %s toward %s", current, destination),
			}
		}

		segments = append(segments, PlanSegment(pos, coords[bestWp], current, bestWp, speed, mode))
		visited[bestWp] = true
		current = bestWp
	}

	return RoutePlan{
		Feasible: false,
		Reason:   fmt.Sprintf("exceeded max hops (%d)", maxHops),
	}
}
