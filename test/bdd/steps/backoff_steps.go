package steps

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/spacetraders-fleet/internal/adapters/persistence"
	"github.com/andrescamacho/spacetraders-fleet/internal/application/fleet"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/contract"
	domainFleet "github.com/andrescamacho/spacetraders-fleet/internal/domain/fleet"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/market"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/ports"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/shared"
	"github.com/andrescamacho/spacetraders-fleet/test/helpers"
)

const backoffHauler = "BDD-HAULER-1"

type backoffContext struct {
	api      *helpers.MockAPIClient
	state    *fleet.FleetState
	deps     *fleet.Deps
	registry *fleet.MissionRegistry
	clock    *shared.MockClock
	cfg      fleet.CommanderConfig

	attempts atomic.Int32
	holding  chan string
	done     <-chan error
	runErr   error

	// shutdownRequested records that the scenario had to stop the commander
	// itself; a parked fleet ends the run without it.
	shutdownRequested bool
}

func (bc *backoffContext) reset() error {
	if err := helpers.TruncateAllTables(); err != nil {
		return err
	}

	bc.clock = shared.NewMockClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	markets := persistence.NewMarketStore(helpers.SharedTestDB, bc.clock)
	ops := persistence.NewOperationsStore(helpers.SharedTestDB, bc.clock)

	bc.api = helpers.NewMockAPIClient()
	bc.api.UseClock(bc.clock)
	bc.state = fleet.NewFleetState(markets, bc.clock)
	bc.deps = &fleet.Deps{
		API:       bc.api,
		State:     bc.state,
		Markets:   markets,
		Ops:       ops,
		Contracts: contract.NewState(),
		Clock:     bc.clock,
	}
	bc.registry = fleet.NewMissionRegistry()
	bc.cfg = fleet.CommanderConfig{
		EventTimeout: 20 * time.Millisecond,
		StopGrace:    time.Second,
	}

	bc.attempts.Store(0)
	bc.holding = make(chan string, 8)
	bc.done = nil
	bc.runErr = nil
	bc.shutdownRequested = false
	return nil
}

// Given steps

func (bc *backoffContext) aFleetOfOneHaulerWithAProfitableTradeRoute() error {
	bc.api.SetAgent("BDD_FLEET", 175_000)
	bc.api.AddWaypoint(&ports.WaypointData{Symbol: "X1-B1-A1", SystemSymbol: "X1-B1", Type: "MOON", X: 0, Y: 0, Traits: []string{"MARKETPLACE"}})
	bc.api.AddWaypoint(&ports.WaypointData{Symbol: "X1-B1-B2", SystemSymbol: "X1-B1", Type: "PLANET", X: 30, Y: 0, Traits: []string{"MARKETPLACE"}})
	bc.api.AddShip(&ports.ShipData{
		Symbol: backoffHauler,
		Nav:    ports.NavData{SystemSymbol: "X1-B1", WaypointSymbol: "X1-B1-A1", Status: "DOCKED", FlightMode: "CRUISE"},
		Fuel:   ports.FuelData{Current: 400, Capacity: 400},
		Cargo:  &shared.Cargo{Capacity: 40},
	})

	ctx := context.Background()
	if err := bc.deps.Markets.UpdateMarket(ctx, "X1-B1-A1", "X1-B1", []market.GoodPriceData{
		{Symbol: "FUEL", Type: market.TradeTypeExport, Supply: market.SupplyHigh, PurchasePrice: 40, SellPrice: 38, TradeVolume: 40},
	}); err != nil {
		return err
	}
	return bc.deps.Markets.UpdateMarket(ctx, "X1-B1-B2", "X1-B1", []market.GoodPriceData{
		{Symbol: "FUEL", Type: market.TradeTypeImport, Supply: market.SupplyModerate, PurchasePrice: 70, SellPrice: 65, TradeVolume: 40},
	})
}

func (bc *backoffContext) theTradeMissionAlwaysCrashes() error {
	bc.registry.Register(domainFleet.MissionTrade, func(ctx context.Context, deps *fleet.Deps, ship *ports.ShipData, params map[string]any) error {
		bc.attempts.Add(1)
		return errors.New("nav sensor failure")
	})
	return nil
}

func (bc *backoffContext) theTradeMissionCrashesOnceAndThenHolds() error {
	bc.registry.Register(domainFleet.MissionTrade, func(ctx context.Context, deps *fleet.Deps, ship *ports.ShipData, params map[string]any) error {
		if bc.attempts.Add(1) == 1 {
			return errors.New("nav sensor failure")
		}
		bc.holding <- ship.Symbol
		<-ctx.Done()
		return ctx.Err()
	})
	return nil
}

func (bc *backoffContext) aRestartBudgetOf(budget int) error {
	bc.cfg.MaxRestarts = budget
	return nil
}

// When steps

func (bc *backoffContext) start() {
	strategy := domainFleet.NewStrategy(domainFleet.DefaultCapitalPolicy())
	meta := domainFleet.NewRegistry(nil, nil)
	commander := fleet.NewCommander(bc.deps, bc.registry, strategy, meta, bc.cfg)

	done := make(chan error, 1)
	go func() {
		done <- commander.Run(context.Background())
	}()
	bc.done = done
}

func (bc *backoffContext) theCommanderRunsUntilItHasNoMissionsLeft() error {
	bc.start()
	select {
	case bc.runErr = <-bc.done:
		return bc.runErr
	case <-time.After(5 * time.Second):
		return fmt.Errorf("commander did not run out of missions in time, %d attempts so far", bc.attempts.Load())
	}
}

func (bc *backoffContext) theCommanderRunsUntilTheMissionHolds() error {
	bc.start()
	select {
	case <-bc.holding:
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("mission never reached its holding state, %d attempts so far", bc.attempts.Load())
	}
}

// Then steps

func (bc *backoffContext) theMissionShouldHaveBeenAttemptedTimes(expected int) error {
	got := int(bc.attempts.Load())
	if got != expected {
		return fmt.Errorf("expected %d mission attempts, got %d", expected, got)
	}
	return nil
}

func (bc *backoffContext) theRestartDelaysShouldHaveBeen(list string) error {
	var expected []time.Duration
	for _, field := range strings.Split(list, ",") {
		seconds, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return fmt.Errorf("bad delay %q in step: %w", field, err)
		}
		expected = append(expected, time.Duration(seconds)*time.Second)
	}

	got := bc.clock.SleepCalls()
	if len(got) != len(expected) {
		return fmt.Errorf("expected %d restart delays %v, got %v", len(expected), expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			return fmt.Errorf("expected delay %d to be %s, got %s (full schedule %v)", i+1, expected[i], got[i], got)
		}
	}
	return nil
}

func (bc *backoffContext) theCommanderShouldHaveParkedTheShip() error {
	if bc.shutdownRequested {
		return fmt.Errorf("commander had to be shut down manually, the ship was never parked")
	}
	if bc.runErr != nil {
		return fmt.Errorf("commander returned an error: %v", bc.runErr)
	}
	return nil
}

func (bc *backoffContext) theCommanderShouldShutDownCleanly() error {
	bc.shutdownRequested = true
	bc.state.Shutdown()
	select {
	case err := <-bc.done:
		if err != nil {
			return fmt.Errorf("commander returned an error on shutdown: %v", err)
		}
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("commander did not stop after shutdown")
	}
}

func InitializeBackoffScenario(ctx *godog.ScenarioContext) {
	bc := &backoffContext{}

	ctx.Before(func(ctx context.Context, scenario *godog.Scenario) (context.Context, error) {
		return ctx, bc.reset()
	})

	// Given steps
	ctx.Step(`^a fleet of one hauler with a profitable trade route$`, bc.aFleetOfOneHaulerWithAProfitableTradeRoute)
	ctx.Step(`^the hauler's trade mission always crashes$`, bc.theTradeMissionAlwaysCrashes)
	ctx.Step(`^the hauler's trade mission crashes once and then holds$`, bc.theTradeMissionCrashesOnceAndThenHolds)
	ctx.Step(`^a restart budget of (\d+)$`, bc.aRestartBudgetOf)

	// When steps
	ctx.Step(`^the commander runs until it has no missions left$`, bc.theCommanderRunsUntilItHasNoMissionsLeft)
	ctx.Step(`^the commander runs until the mission holds$`, bc.theCommanderRunsUntilTheMissionHolds)

	// Then steps
	ctx.Step(`^the mission should have been attempted (\d+) times$`, bc.theMissionShouldHaveBeenAttemptedTimes)
	ctx.Step(`^the restart delays should have been ([0-9, ]+) seconds$`, bc.theRestartDelaysShouldHaveBeen)
	ctx.Step(`^the commander should have parked the ship$`, bc.theCommanderShouldHaveParkedTheShip)
	ctx.Step(`^the commander should shut down cleanly$`, bc.theCommanderShouldShutDownCleanly)
}
