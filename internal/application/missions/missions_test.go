package missions_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/spacetraders-fleet/internal/adapters/persistence"
	"github.com/andrescamacho/spacetraders-fleet/internal/application/common"
	"github.com/andrescamacho/spacetraders-fleet/internal/application/fleet"
	"github.com/andrescamacho/spacetraders-fleet/internal/application/missions"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/contract"
	domainFleet "github.com/andrescamacho/spacetraders-fleet/internal/domain/fleet"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/market"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/ports"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/shared"
	"github.com/andrescamacho/spacetraders-fleet/test/helpers"
)

const testSystem = "X1-MS1"

// missionFixture wires a mission against the mock universe, a real SQLite
// price cache, and a mock clock, the same shape the commander builds at
// startup. The mock clock makes every backoff and transit wait instant.
type missionFixture struct {
	api     *helpers.MockAPIClient
	clock   *shared.MockClock
	state   *fleet.FleetState
	markets *persistence.MarketStoreGORM
	ops     *persistence.OperationsStoreGORM
	deps    *fleet.Deps
}

func newMissionFixture(t *testing.T) *missionFixture {
	t.Helper()

	clock := shared.NewMockClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	db := helpers.NewTestDB(t)
	markets := persistence.NewMarketStore(db, clock)
	ops := persistence.NewOperationsStore(db, clock)

	api := helpers.NewMockAPIClient()
	api.UseClock(clock)
	api.SetAgent("MISSION_TEST", 100_000)

	state := fleet.NewFleetState(markets, clock)
	state.SetAgentSnapshot(100_000, 1)

	return &missionFixture{
		api:     api,
		clock:   clock,
		state:   state,
		markets: markets,
		ops:     ops,
		deps: &fleet.Deps{
			API:       api,
			State:     state,
			Markets:   markets,
			Ops:       ops,
			Contracts: contract.NewState(),
			Clock:     clock,
		},
	}
}

func (f *missionFixture) addMarketWaypoint(symbol string, x, y float64) {
	f.api.AddWaypoint(&ports.WaypointData{
		Symbol:       symbol,
		SystemSymbol: testSystem,
		Type:         "PLANET",
		X:            x,
		Y:            y,
		Traits:       []string{"MARKETPLACE"},
	})
}

func (f *missionFixture) addGateWaypoint(symbol string, x, y float64) {
	f.api.AddWaypoint(&ports.WaypointData{
		Symbol:              symbol,
		SystemSymbol:        testSystem,
		Type:                "JUMP_GATE",
		X:                   x,
		Y:                   y,
		IsUnderConstruction: true,
	})
}

func (f *missionFixture) addHauler(symbol, waypoint string) *ports.ShipData {
	ship := &ports.ShipData{
		Symbol:      symbol,
		Nav:         ports.NavData{SystemSymbol: testSystem, WaypointSymbol: waypoint, Status: "IN_ORBIT", FlightMode: "CRUISE"},
		Fuel:        ports.FuelData{Current: 400, Capacity: 400},
		Cargo:       &shared.Cargo{Capacity: 40},
		EngineSpeed: 30,
	}
	f.api.AddShip(ship)
	return ship
}

func (f *missionFixture) addProbe(symbol, waypoint string) *ports.ShipData {
	ship := &ports.ShipData{
		Symbol:      symbol,
		Nav:         ports.NavData{SystemSymbol: testSystem, WaypointSymbol: waypoint, Status: "IN_ORBIT", FlightMode: "CRUISE"},
		Fuel:        ports.FuelData{Current: 100, Capacity: 100},
		Cargo:       &shared.Cargo{},
		EngineSpeed: 3,
	}
	f.api.AddShip(ship)
	return ship
}

// cachePrices seeds the shared price store, the intel missions plan against
func (f *missionFixture) cachePrices(t *testing.T, waypoint string, goods ...market.GoodPriceData) {
	t.Helper()
	require.NoError(t, f.markets.UpdateMarket(context.Background(), waypoint, testSystem, goods))
}

// run launches a mission the way a ship agent would and returns its exit
func (f *missionFixture) run(mission fleet.MissionFunc, shipSymbol string, params map[string]any) <-chan error {
	done := make(chan error, 1)
	go func() {
		ship, err := f.api.GetShip(context.Background(), shipSymbol)
		if err != nil {
			done <- err
			return
		}
		ctx := common.WithLogger(context.Background(), common.NewShipLogger(shipSymbol))
		done <- mission(ctx, f.deps, ship, params)
	}()
	return done
}

// waitEvent drains the fleet bus until an event of the wanted type shows up
func (f *missionFixture) waitEvent(t *testing.T, kind domainFleet.EventType, timeout time.Duration) domainFleet.FleetEvent {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case ev := <-f.state.Events():
			if ev.Type == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("no %s event within %s", kind, timeout)
			return domainFleet.FleetEvent{}
		}
	}
}

func waitExit(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("mission did not finish in time")
		return nil
	}
}

func TestNewRegistryCoversEveryActiveMission(t *testing.T) {
	registry := missions.NewRegistry()

	assert.Equal(t, []domainFleet.MissionKind{
		domainFleet.MissionContract,
		domainFleet.MissionGateBuild,
		domainFleet.MissionScan,
		domainFleet.MissionTrade,
	}, registry.Kinds())

	_, ok := registry.Get(domainFleet.MissionIdle)
	assert.False(t, ok, "idle ships get no mission loop")
}
