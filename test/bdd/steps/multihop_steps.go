package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/spacetraders-fleet/internal/domain/navigation"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/shared"
)

type multihopContext struct {
	coords        map[string]navigation.Point
	fuelWaypoints map[string]bool
	fuelCapacity  int
	engineSpeed   int
	plan          navigation.RoutePlan
}

func (mhc *multihopContext) reset() {
	mhc.coords = make(map[string]navigation.Point)
	mhc.fuelWaypoints = make(map[string]bool)
	mhc.fuelCapacity = 0
	mhc.engineSpeed = 0
	mhc.plan = navigation.RoutePlan{}
}

// Given steps

func (mhc *multihopContext) theFollowingWaypoints(table *godog.Table) error {
	for i, row := range table.Rows {
		if i == 0 {
			continue // Skip header
		}

		symbol := cellValue(table, row, "symbol")
		var x, y float64
		fmt.Sscanf(cellValue(table, row, "x"), "%f", &x)
		fmt.Sscanf(cellValue(table, row, "y"), "%f", &y)

		mhc.coords[symbol] = navigation.Point{X: x, Y: y}
		if strings.TrimSpace(cellValue(table, row, "fuel")) == "yes" {
			mhc.fuelWaypoints[symbol] = true
		}
	}
	return nil
}

func (mhc *multihopContext) aShipWithFuelCapacityAndEngineSpeed(capacity, speed int) error {
	mhc.fuelCapacity = capacity
	mhc.engineSpeed = speed
	return nil
}

// When steps

func (mhc *multihopContext) aRouteIsPlannedFromTo(modeName, origin, destination string) error {
	mode, err := shared.ParseFlightMode(modeName)
	if err != nil {
		return err
	}
	mhc.plan = navigation.PlanMultihop(mhc.coords, mhc.fuelWaypoints, origin, destination, mhc.fuelCapacity, mhc.engineSpeed, mode)
	return nil
}

// Then steps

func (mhc *multihopContext) theRouteShouldBeFeasible() error {
	if !mhc.plan.Feasible {
		return fmt.Errorf("expected a feasible route, got infeasible: %s", mhc.plan.Reason)
	}
	return nil
}

func (mhc *multihopContext) theRouteShouldBeInfeasible() error {
	if mhc.plan.Feasible {
		return fmt.Errorf("expected an infeasible route, got %d segments", len(mhc.plan.Segments))
	}
	return nil
}

func (mhc *multihopContext) theRouteShouldHaveSegments(count int) error {
	if len(mhc.plan.Segments) != count {
		return fmt.Errorf("expected %d segments, got %d: %v", count, len(mhc.plan.Segments), mhc.plan.Segments)
	}
	return nil
}

func (mhc *multihopContext) segmentShouldRunFromToUsingFuel(index int, origin, destination string, fuel int) error {
	if index < 1 || index > len(mhc.plan.Segments) {
		return fmt.Errorf("segment %d out of range, route has %d segments", index, len(mhc.plan.Segments))
	}
	seg := mhc.plan.Segments[index-1]
	if seg.Origin != origin || seg.Destination != destination {
		return fmt.Errorf("expected segment %d to run %s -> %s, got %s -> %s", index, origin, destination, seg.Origin, seg.Destination)
	}
	if seg.FuelCost != fuel {
		return fmt.Errorf("expected segment %d to use %d fuel, got %d", index, fuel, seg.FuelCost)
	}
	return nil
}

func (mhc *multihopContext) theRouteShouldUseFuelInTotal(fuel int) error {
	if mhc.plan.TotalFuel != fuel {
		return fmt.Errorf("expected total fuel %d, got %d", fuel, mhc.plan.TotalFuel)
	}
	return nil
}

func (mhc *multihopContext) theRouteShouldTakeSeconds(seconds int) error {
	if mhc.plan.TotalSeconds != seconds {
		return fmt.Errorf("expected total travel time %ds, got %ds", seconds, mhc.plan.TotalSeconds)
	}
	return nil
}

func (mhc *multihopContext) theInfeasibilityReasonShouldMention(fragment string) error {
	if !strings.Contains(mhc.plan.Reason, fragment) {
		return fmt.Errorf("expected reason to mention %q, got %q", fragment, mhc.plan.Reason)
	}
	return nil
}

func InitializeMultihopScenario(ctx *godog.ScenarioContext) {
	mhc := &multihopContext{}

	ctx.Before(func(ctx context.Context, scenario *godog.Scenario) (context.Context, error) {
		mhc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^the following waypoints:$`, mhc.theFollowingWaypoints)
	ctx.Step(`^a ship with fuel capacity (\d+) and engine speed (\d+)$`, mhc.aShipWithFuelCapacityAndEngineSpeed)

	// When steps
	ctx.Step(`^a ([A-Z]+) route is planned from ([A-Z0-9-]+) to ([A-Z0-9-]+)$`, mhc.aRouteIsPlannedFromTo)

	// Then steps
	ctx.Step(`^the route should be feasible$`, mhc.theRouteShouldBeFeasible)
	ctx.Step(`^the route should be infeasible$`, mhc.theRouteShouldBeInfeasible)
	ctx.Step(`^the route should have (\d+) segments$`, mhc.theRouteShouldHaveSegments)
	ctx.Step(`^segment (\d+) should run from ([A-Z0-9-]+) to ([A-Z0-9-]+) using (\d+) fuel$`, mhc.segmentShouldRunFromToUsingFuel)
	ctx.Step(`^the route should use (\d+) fuel in total$`, mhc.theRouteShouldUseFuelInTotal)
	ctx.Step(`^the route should take (\d+) seconds$`, mhc.theRouteShouldTakeSeconds)
	ctx.Step(`^the infeasibility reason should mention "([^"]*)"$`, mhc.theInfeasibilityReasonShouldMention)
}
