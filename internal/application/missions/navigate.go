// Package missions contains the per-ship mission loops the commander can
// assign: trade, scan, contract, and gate_build. Missions run as goroutines
// owned by a ShipAgent, share state through fleet.Deps, and report through
// fleet events. Every blocking wait goes through FleetState.Sleep so a
// shutdown interrupts it.
package missions

import (
	"context"
	"fmt"
	"time"

	"github.com/andrescamacho/spacetraders-fleet/internal/application/common"
	"github.com/andrescamacho/spacetraders-fleet/internal/application/fleet"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/navigation"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/ports"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/shared"
)

const (
	// arrivalPadding absorbs small clock skew between us and the server
	arrivalPadding = 2 * time.Second

	// maxArrivalWait caps a single transit wait; longer legs re-read the
	// route and wait again
	maxArrivalWait = time.Hour

	arrivalHeartbeat = 60 * time.Second
	arrivalPollDelay = 10 * time.Second
	maxArrivalPolls  = 12
)

func isInTransit(ship *ports.ShipData) bool {
	return ship.Nav.Status == string(navigation.NavStatusInTransit)
}

func isDocked(ship *ports.ShipData) bool {
	return ship.Nav.Status == string(navigation.NavStatusDocked)
}

// awaitArrival blocks until the ship is out of transit and returns its fresh
// state. Safe to call on ships that are not moving.
func awaitArrival(ctx context.Context, deps *fleet.Deps, shipSymbol string) (*ports.ShipData, error) {
	ship, err := deps.API.GetShip(ctx, shipSymbol)
	if err != nil {
		return nil, fmt.Errorf("reading state of %s: %w", shipSymbol, err)
	}
	for isInTransit(ship) {
		ship, err = waitForArrival(ctx, deps, ship)
		if err != nil {
			return nil, err
		}
	}
	return ship, nil
}

// waitForArrival waits out one slice of a transit: sleep until the route's
// arrival time plus padding, capped at maxArrivalWait, then poll the ship a
// bounded number of times. Returns the latest ship state; after a capped
// slice the ship may still be in transit and the caller re-enters.
func waitForArrival(ctx context.Context, deps *fleet.Deps, ship *ports.ShipData) (*ports.ShipData, error) {
	logger := common.LoggerFromContext(ctx)

	wait := arrivalPadding
	if arrival, err := time.Parse(time.RFC3339, ship.Nav.Route.Arrival); err == nil {
		wait = arrival.Sub(deps.State.Clock().Now()) + arrivalPadding
	}
	if wait < 0 {
		wait = 0
	}
	capped := wait > maxArrivalWait
	if capped {
		wait = maxArrivalWait
	}

	dest := ship.Nav.Route.Destination
	if err := transitSleep(ctx, deps, logger, dest, wait); err != nil {
		return nil, err
	}

	fresh, err := deps.API.GetShip(ctx, ship.Symbol)
	if err != nil {
		return nil, fmt.Errorf("polling arrival of %s: %w", ship.Symbol, err)
	}
	if capped || !isInTransit(fresh) {
		return fresh, nil
	}

	// Our clock and the server's disagree a little; poll it out
	for poll := 0; poll < maxArrivalPolls; poll++ {
		if err := deps.State.Sleep(ctx, arrivalPollDelay); err != nil {
			return nil, err
		}
		fresh, err = deps.API.GetShip(ctx, ship.Symbol)
		if err != nil {
			return nil, fmt.Errorf("polling arrival of %s: %w", ship.Symbol, err)
		}
		if !isInTransit(fresh) {
			return fresh, nil
		}
	}
	return nil, fmt.Errorf("%s still in transit to %s after %d polls", ship.Symbol, dest, maxArrivalPolls)
}

// transitSleep sleeps in heartbeat-sized chunks so long waits leave a trace
// in the logs and shutdown still interrupts promptly.
func transitSleep(ctx context.Context, deps *fleet.Deps, logger common.MissionLogger, dest string, wait time.Duration) error {
	for wait > 0 {
		chunk := wait
		if chunk > arrivalHeartbeat {
			chunk = arrivalHeartbeat
		}
		if err := deps.State.Sleep(ctx, chunk); err != nil {
			return err
		}
		wait -= chunk
		if wait > 0 {
			logger.Info("in transit to %s, %s left", dest, wait.Round(time.Second))
		}
	}
	return nil
}

// navigateShip flies one direct leg: orbit if docked, set the flight mode if
// it differs, navigate, and wait out the transit. No-ops when the ship is
// already at the destination.
func navigateShip(ctx context.Context, deps *fleet.Deps, shipSymbol, destination string, mode shared.FlightMode) (*ports.ShipData, error) {
	logger := common.LoggerFromContext(ctx)

	ship, err := awaitArrival(ctx, deps, shipSymbol)
	if err != nil {
		return nil, err
	}
	if ship.Nav.WaypointSymbol == destination {
		return ship, nil
	}

	if isDocked(ship) {
		if err := deps.API.OrbitShip(ctx, shipSymbol); err != nil {
			return nil, fmt.Errorf("orbiting %s: %w", shipSymbol, err)
		}
	}
	if ship.Nav.FlightMode != mode.Name() {
		if err := deps.API.SetFlightMode(ctx, shipSymbol, mode.Name()); err != nil {
			return nil, fmt.Errorf("setting %s flight mode to %s: %w", shipSymbol, mode.Name(), err)
		}
	}

	result, err := deps.API.NavigateShip(ctx, shipSymbol, destination)
	if err != nil {
		return nil, fmt.Errorf("navigating %s to %s: %w", shipSymbol, destination, err)
	}
	logger.Info("departing %s for %s (%s, %d fuel)",
		ship.Nav.WaypointSymbol, destination, mode.Name(), result.FuelConsumed)

	ship, err = awaitArrival(ctx, deps, shipSymbol)
	if err != nil {
		return nil, err
	}
	logger.Info("arrived at %s with %d/%d fuel", destination, ship.Fuel.Current, ship.Fuel.Capacity)
	return ship, nil
}

// navigateMultihop flies a planned route leg by leg, docking and refueling
// at every intermediate stop.
func navigateMultihop(ctx context.Context, deps *fleet.Deps, shipSymbol string, plan navigation.RoutePlan) (*ports.ShipData, error) {
	logger := common.LoggerFromContext(ctx)
	if !plan.Feasible {
		return nil, shared.NewRouteInfeasibleError(shipSymbol, "", plan.Reason)
	}
	if len(plan.Segments) == 0 {
		return awaitArrival(ctx, deps, shipSymbol)
	}
	if stops := plan.NumStops(); stops > 0 {
		logger.Info("routing to %s through %d refuel stop(s), %d fuel total",
			plan.Segments[len(plan.Segments)-1].Destination, stops, plan.TotalFuel)
	}

	var ship *ports.ShipData
	var err error
	for i, seg := range plan.Segments {
		ship, err = navigateShip(ctx, deps, shipSymbol, seg.Destination, seg.FlightMode)
		if err != nil {
			return nil, err
		}
		if i < len(plan.Segments)-1 {
			if err := ensureDocked(ctx, deps, ship); err != nil {
				return nil, err
			}
			tryRefuel(ctx, deps, shipSymbol)
		}
	}
	return ship, nil
}

// smartNavigate flies the ship to destination, going direct when one tank
// covers the leg and through refuel stops otherwise.
func smartNavigate(ctx context.Context, deps *fleet.Deps, ship *ports.ShipData, system *fleet.SystemState, destination string) (*ports.ShipData, error) {
	if ship.Nav.WaypointSymbol == destination && !isInTransit(ship) {
		return ship, nil
	}

	from, okFrom := system.Coords[ship.Nav.WaypointSymbol]
	to, okTo := system.Coords[destination]
	if !okFrom || !okTo {
		// No coordinates cached; attempt the direct hop and let the API
		// arbitrate
		return navigateShip(ctx, deps, ship.Symbol, destination, shared.FlightModeCruise)
	}
	dist := navigation.Distance(from, to)

	if !navigation.CanReach(ship.Fuel.Current, ship.Fuel.Capacity, dist, shared.FlightModeCruise) {
		// A top-up may make the hop direct, and the multi-hop planner
		// assumes full-tank legs anyway
		tryRefuel(ctx, deps, ship.Symbol)
		fresh, err := deps.API.GetShip(ctx, ship.Symbol)
		if err != nil {
			return nil, fmt.Errorf("reading state of %s: %w", ship.Symbol, err)
		}
		ship = fresh
	}

	mode := navigation.BestFlightMode(ship.Fuel.Current, ship.Fuel.Capacity, dist)
	if mode == shared.FlightModeCruise {
		return navigateShip(ctx, deps, ship.Symbol, destination, mode)
	}

	plan := navigation.PlanMultihop(system.Coords, system.FuelWaypoints(),
		ship.Nav.WaypointSymbol, destination, ship.Fuel.Capacity, ship.EngineSpeed, shared.FlightModeCruise)
	if plan.Feasible {
		return navigateMultihop(ctx, deps, ship.Symbol, plan)
	}

	if navigation.CanReach(ship.Fuel.Current, ship.Fuel.Capacity, dist, shared.FlightModeDrift) {
		return navigateShip(ctx, deps, ship.Symbol, destination, shared.FlightModeDrift)
	}
	return nil, shared.NewRouteInfeasibleError(ship.Nav.WaypointSymbol, destination, plan.Reason)
}

// ensureDocked docks the ship if it is not already docked, updating the
// local nav state on success.
func ensureDocked(ctx context.Context, deps *fleet.Deps, ship *ports.ShipData) error {
	if isDocked(ship) {
		return nil
	}
	if err := deps.API.DockShip(ctx, ship.Symbol); err != nil {
		return fmt.Errorf("docking %s: %w", ship.Symbol, err)
	}
	ship.Nav.Status = string(navigation.NavStatusDocked)
	return nil
}

// tryRefuel tops up the tank when the ship sits at a market that sells fuel.
// Refueling is opportunistic: every failure is logged and swallowed, because
// the mission can usually continue on the fuel it has. Some markets accept
// the refuel call but deliver nothing; that silent failure is detected by
// comparing fuel levels.
func tryRefuel(ctx context.Context, deps *fleet.Deps, shipSymbol string) {
	logger := common.LoggerFromContext(ctx)

	ship, err := deps.API.GetShip(ctx, shipSymbol)
	if err != nil {
		logger.Warn("refuel skipped, cannot read ship state: %v", err)
		return
	}
	if ship.Fuel.Capacity == 0 || ship.Fuel.Current >= ship.Fuel.Capacity {
		return
	}
	if err := ensureDocked(ctx, deps, ship); err != nil {
		logger.Warn("refuel skipped: %v", err)
		return
	}

	before := ship.Fuel.Current
	result, err := deps.API.RefuelShip(ctx, shipSymbol, false)
	if err != nil {
		if apiErr, ok := ports.AsAPIError(err); ok {
			logger.Warn("refuel at %s rejected: %s", ship.Nav.WaypointSymbol, apiErr.Message)
			return
		}
		logger.Warn("refuel at %s failed: %v", ship.Nav.WaypointSymbol, err)
		return
	}
	if result.FuelCurrent <= before {
		logger.Warn("refuel at %s added no fuel", ship.Nav.WaypointSymbol)
		return
	}
	if result.AgentCredits > 0 {
		deps.State.UpdateCredits(result.AgentCredits)
	}
	logger.Info("refueled %d units for %d credits (%d/%d)",
		result.Units, result.TotalPrice, result.FuelCurrent, result.FuelCapacity)
}
