package fleet_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/spacetraders-fleet/internal/adapters/persistence"
	"github.com/andrescamacho/spacetraders-fleet/internal/application/fleet"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/contract"
	domainFleet "github.com/andrescamacho/spacetraders-fleet/internal/domain/fleet"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/market"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/ports"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/shared"
	"github.com/andrescamacho/spacetraders-fleet/test/helpers"
)

type commanderFixture struct {
	api      *helpers.MockAPIClient
	state    *fleet.FleetState
	markets  *persistence.MarketStoreGORM
	ops      *persistence.OperationsStoreGORM
	deps     *fleet.Deps
	registry *fleet.MissionRegistry
	clock    *shared.MockClock
	cfg      fleet.CommanderConfig
}

func newCommanderFixture(t *testing.T) *commanderFixture {
	t.Helper()

	clock := shared.NewMockClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	db := helpers.NewTestDB(t)
	markets := persistence.NewMarketStore(db, clock)
	ops := persistence.NewOperationsStore(db, clock)

	api := helpers.NewMockAPIClient()
	api.UseClock(clock)
	api.SetAgent("FLEET_TEST", 175_000)
	api.AddWaypoint(&ports.WaypointData{Symbol: "X1-T1-A1", SystemSymbol: "X1-T1", Type: "MOON", X: 0, Y: 0, Traits: []string{"MARKETPLACE"}})
	api.AddWaypoint(&ports.WaypointData{Symbol: "X1-T1-B2", SystemSymbol: "X1-T1", Type: "PLANET", X: 30, Y: 0, Traits: []string{"MARKETPLACE"}})

	state := fleet.NewFleetState(markets, clock)
	deps := &fleet.Deps{
		API:       api,
		State:     state,
		Markets:   markets,
		Ops:       ops,
		Contracts: contract.NewState(),
		Clock:     clock,
	}

	return &commanderFixture{
		api:      api,
		state:    state,
		markets:  markets,
		ops:      ops,
		deps:     deps,
		registry: fleet.NewMissionRegistry(),
		clock:    clock,
		cfg: fleet.CommanderConfig{
			EventTimeout: 20 * time.Millisecond,
			StopGrace:    time.Second,
		},
	}
}

func (f *commanderFixture) addHauler(symbol string) {
	f.api.AddShip(&ports.ShipData{
		Symbol: symbol,
		Nav:    ports.NavData{SystemSymbol: "X1-T1", WaypointSymbol: "X1-T1-A1", Status: "DOCKED", FlightMode: "CRUISE"},
		Fuel:   ports.FuelData{Current: 400, Capacity: 400},
		Cargo:  &shared.Cargo{Capacity: 40},
	})
}

func (f *commanderFixture) addProbe(symbol string) {
	f.api.AddShip(&ports.ShipData{
		Symbol: symbol,
		Nav:    ports.NavData{SystemSymbol: "X1-T1", WaypointSymbol: "X1-T1-B2", Status: "IN_ORBIT", FlightMode: "CRUISE"},
		Cargo:  &shared.Cargo{},
	})
}

// seedProfitableRoute caches a FUEL export at A1 and a FUEL import at B2 so
// the strategy sees tradeable routes.
func (f *commanderFixture) seedProfitableRoute(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.markets.UpdateMarket(ctx, "X1-T1-A1", "X1-T1", []market.GoodPriceData{
		{Symbol: "FUEL", Type: market.TradeTypeExport, Supply: market.SupplyHigh, PurchasePrice: 40, SellPrice: 38, TradeVolume: 40},
	}))
	require.NoError(t, f.markets.UpdateMarket(ctx, "X1-T1-B2", "X1-T1", []market.GoodPriceData{
		{Symbol: "FUEL", Type: market.TradeTypeImport, Supply: market.SupplyModerate, PurchasePrice: 70, SellPrice: 65, TradeVolume: 40},
	}))
}

// blockUntilCancelled signals on started, then holds until the commander
// cancels the mission.
func blockUntilCancelled(started chan string) fleet.MissionFunc {
	return func(ctx context.Context, deps *fleet.Deps, ship *ports.ShipData, params map[string]any) error {
		started <- ship.Symbol
		<-ctx.Done()
		return ctx.Err()
	}
}

func (f *commanderFixture) run(t *testing.T) <-chan error {
	t.Helper()
	strategy := domainFleet.NewStrategy(domainFleet.DefaultCapitalPolicy())
	meta := domainFleet.NewRegistry(nil, nil)
	commander := fleet.NewCommander(f.deps, f.registry, strategy, meta, f.cfg)

	done := make(chan error, 1)
	go func() {
		done <- commander.Run(context.Background())
	}()
	return done
}

func waitStarted(t *testing.T, started chan string, want int) map[string]bool {
	t.Helper()
	got := map[string]bool{}
	for i := 0; i < want; i++ {
		select {
		case symbol := <-started:
			got[symbol] = true
		case <-time.After(3 * time.Second):
			t.Fatalf("only %d of %d missions started", i, want)
		}
	}
	return got
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("commander did not finish in time")
		return nil
	}
}

func TestCommanderLaunchesInitialPlan(t *testing.T) {
	f := newCommanderFixture(t)
	f.addHauler("SHIP-A")
	f.addProbe("PROBE-1")
	f.seedProfitableRoute(t)

	started := make(chan string, 2)
	f.registry.Register(domainFleet.MissionTrade, blockUntilCancelled(started))
	f.registry.Register(domainFleet.MissionScan, blockUntilCancelled(started))

	done := f.run(t)
	launched := waitStarted(t, started, 2)
	assert.True(t, launched["SHIP-A"], "hauler should trade")
	assert.True(t, launched["PROBE-1"], "probe should scan")

	// The startup snapshot is on the books before any mission acts.
	snapshots, err := f.ops.ListSnapshots(context.Background(), 10)
	require.NoError(t, err)
	require.NotEmpty(t, snapshots)
	assert.Equal(t, 175_000, snapshots[0].Credits)
	assert.Equal(t, 2, snapshots[0].ShipCount)

	f.state.Shutdown()
	assert.NoError(t, waitDone(t, done))
}

func TestCommanderRelaunchesCrashedMissionAfterBackoff(t *testing.T) {
	f := newCommanderFixture(t)
	f.addHauler("SHIP-A")
	f.seedProfitableRoute(t)

	var attempts atomic.Int32
	started := make(chan string, 4)
	f.registry.Register(domainFleet.MissionTrade, func(ctx context.Context, deps *fleet.Deps, ship *ports.ShipData, params map[string]any) error {
		if attempts.Add(1) == 1 {
			return errors.New("nav sensor failure")
		}
		started <- ship.Symbol
		<-ctx.Done()
		return ctx.Err()
	})

	done := f.run(t)
	waitStarted(t, started, 1)

	assert.Equal(t, int32(2), attempts.Load(), "mission should run, crash, and run again")
	assert.Contains(t, f.clock.SleepCalls(), 10*time.Second, "first restart waits the first backoff step")

	f.state.Shutdown()
	assert.NoError(t, waitDone(t, done))
}

func TestCommanderParksShipAfterRestartBudget(t *testing.T) {
	f := newCommanderFixture(t)
	f.addHauler("SHIP-A")
	f.seedProfitableRoute(t)
	f.cfg.MaxRestarts = 2

	var attempts atomic.Int32
	f.registry.Register(domainFleet.MissionTrade, func(ctx context.Context, deps *fleet.Deps, ship *ports.ShipData, params map[string]any) error {
		attempts.Add(1)
		return errors.New("hull breach")
	})

	done := f.run(t)

	// Initial launch plus two relaunches, then the ship is parked and the
	// commander runs out of work.
	assert.NoError(t, waitDone(t, done))
	assert.Equal(t, int32(3), attempts.Load())

	sleeps := f.clock.SleepCalls()
	assert.Contains(t, sleeps, 10*time.Second)
	assert.Contains(t, sleeps, 30*time.Second)
}

func TestCommanderIdlesFleetWhenCreditsCollapse(t *testing.T) {
	f := newCommanderFixture(t)
	f.addHauler("SHIP-A")
	f.seedProfitableRoute(t)

	started := make(chan string, 1)
	var cancelled atomic.Bool
	f.registry.Register(domainFleet.MissionTrade, func(ctx context.Context, deps *fleet.Deps, ship *ports.ShipData, params map[string]any) error {
		started <- ship.Symbol
		<-ctx.Done()
		cancelled.Store(true)
		return ctx.Err()
	})

	done := f.run(t)
	waitStarted(t, started, 1)

	// Credits fall below the idle threshold; the next strategic event makes
	// the commander pull every cargo ship off the board.
	f.state.UpdateCredits(10_000)
	f.state.Emit(domainFleet.NewEvent(domainFleet.EventCapitalLow, "SHIP-A", map[string]any{"credits": 10_000}))

	assert.NoError(t, waitDone(t, done))
	assert.True(t, cancelled.Load(), "trade mission should have been cancelled")
}

func TestCommanderAssignsGateBuildWithCapitalFloor(t *testing.T) {
	f := newCommanderFixture(t)
	f.addHauler("SHIP-A")
	f.seedProfitableRoute(t)
	f.api.SetAgent("FLEET_TEST", 400_000)
	f.api.AddWaypoint(&ports.WaypointData{Symbol: "X1-T1-G9", SystemSymbol: "X1-T1", Type: "JUMP_GATE", X: 60, Y: 0, IsUnderConstruction: true})
	f.api.SetConstruction("X1-T1-G9", &ports.ConstructionData{
		Symbol:    "X1-T1-G9",
		Materials: []ports.ConstructionMaterial{{TradeSymbol: "FAB_MATS", Required: 100, Fulfilled: 30}},
	})

	params := make(chan map[string]any, 1)
	f.registry.Register(domainFleet.MissionGateBuild, func(ctx context.Context, deps *fleet.Deps, ship *ports.ShipData, p map[string]any) error {
		params <- p
		<-ctx.Done()
		return ctx.Err()
	})

	done := f.run(t)

	select {
	case p := <-params:
		assert.Equal(t, 300_000, p["capital_floor"])
	case <-time.After(3 * time.Second):
		t.Fatal("gate build mission never started")
	}

	f.state.Shutdown()
	assert.NoError(t, waitDone(t, done))
}

func TestCommanderSnapshotsPeriodically(t *testing.T) {
	f := newCommanderFixture(t)
	f.addProbe("PROBE-1")
	f.cfg.SnapshotEvery = 2
	f.cfg.EventTimeout = 10 * time.Millisecond

	started := make(chan string, 1)
	f.registry.Register(domainFleet.MissionScan, blockUntilCancelled(started))

	done := f.run(t)
	waitStarted(t, started, 1)

	require.Eventually(t, func() bool {
		snapshots, err := f.ops.ListSnapshots(context.Background(), 10)
		return err == nil && len(snapshots) >= 3
	}, 3*time.Second, 20*time.Millisecond, "loop cycles should keep snapshotting")

	f.state.Shutdown()
	assert.NoError(t, waitDone(t, done))
}
