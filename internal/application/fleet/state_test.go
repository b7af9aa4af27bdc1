package fleet_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/spacetraders-fleet/internal/adapters/persistence"
	"github.com/andrescamacho/spacetraders-fleet/internal/application/fleet"
	domainFleet "github.com/andrescamacho/spacetraders-fleet/internal/domain/fleet"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/market"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/ports"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/shared"
	"github.com/andrescamacho/spacetraders-fleet/test/helpers"
)

func testWaypoints() []*ports.WaypointData {
	return []*ports.WaypointData{
		{Symbol: "X1-T1-B2", SystemSymbol: "X1-T1", Type: "PLANET", X: 10, Y: 0, Traits: []string{"MARKETPLACE", "SHIPYARD"}},
		{Symbol: "X1-T1-A1", SystemSymbol: "X1-T1", Type: "MOON", X: 0, Y: 0, Traits: []string{"MARKETPLACE"}},
		{Symbol: "X1-T1-C3", SystemSymbol: "X1-T1", Type: "ASTEROID", X: 40, Y: 30},
		{Symbol: "X1-T1-G9", SystemSymbol: "X1-T1", Type: "JUMP_GATE", X: 100, Y: 0, IsUnderConstruction: true},
	}
}

func TestSystemStateIntel(t *testing.T) {
	system := fleet.NewSystemState("X1-T1", testWaypoints())

	assert.Equal(t, "X1-T1", system.Symbol)
	assert.Equal(t, []string{"X1-T1-A1", "X1-T1-B2"}, system.MarketWaypoints)
	assert.Equal(t, []string{"X1-T1-B2"}, system.ShipyardWaypoints)
	assert.Equal(t, "X1-T1-G9", system.GateWaypoint)

	wp, ok := system.Waypoint("X1-T1-B2")
	require.True(t, ok)
	assert.True(t, wp.HasMarketplace())
	assert.Equal(t, 10.0, wp.X)

	_, ok = system.Waypoint("X1-T1-NOPE")
	assert.False(t, ok)

	fuel := system.FuelWaypoints()
	assert.True(t, fuel["X1-T1-A1"])
	assert.True(t, fuel["X1-T1-B2"])
	assert.False(t, fuel["X1-T1-C3"])

	assert.Equal(t, 40.0, system.Coords["X1-T1-C3"].X)
	assert.Equal(t, 30.0, system.Coords["X1-T1-C3"].Y)
}

func TestSystemStateFinishedGateIgnored(t *testing.T) {
	system := fleet.NewSystemState("X1-T1", []*ports.WaypointData{
		{Symbol: "X1-T1-G9", SystemSymbol: "X1-T1", Type: "JUMP_GATE", IsUnderConstruction: false},
	})

	assert.Empty(t, system.GateWaypoint)
}

func TestEnsureSystemFetchesOnce(t *testing.T) {
	api := helpers.NewMockAPIClient()
	for _, wp := range testWaypoints() {
		api.AddWaypoint(wp)
	}
	state := fleet.NewFleetState(nil, shared.NewMockClock(time.Time{}))

	first, err := state.EnsureSystem(context.Background(), api, "X1-T1")
	require.NoError(t, err)
	second, err := state.EnsureSystem(context.Background(), api, "X1-T1")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, api.Calls("ListWaypoints"))

	cached, ok := state.GetSystem("X1-T1")
	require.True(t, ok)
	assert.Same(t, first, cached)
}

func TestEnsureSystemFromWaypointsExistingWins(t *testing.T) {
	state := fleet.NewFleetState(nil, shared.NewMockClock(time.Time{}))

	first := state.EnsureSystemFromWaypoints("X1-T1", testWaypoints())
	second := state.EnsureSystemFromWaypoints("X1-T1", nil)

	assert.Same(t, first, second)
	assert.NotEmpty(t, second.MarketWaypoints)
}

func TestClaimReleaseExclude(t *testing.T) {
	ctx := context.Background()
	state := fleet.NewFleetState(nil, shared.NewMockClock(time.Time{}))

	ironRoute := market.RouteKey{Good: "IRON", Source: "X1-T1-A1", Destination: "X1-T1-B2"}
	fuelRoute := market.RouteKey{Good: "FUEL", Source: "X1-T1-B2", Destination: "X1-T1-A1"}

	state.ClaimRoute(ctx, "X1-T1", "SHIP-A", ironRoute)
	state.ClaimRoute(ctx, "X1-T1", "SHIP-B", fuelRoute)

	excluded := state.ExcludedRoutes(ctx, "X1-T1", "SHIP-A")
	assert.False(t, excluded[ironRoute], "a ship does not exclude its own claim")
	assert.True(t, excluded[fuelRoute])

	// A new claim replaces the old one.
	copperRoute := market.RouteKey{Good: "COPPER", Source: "X1-T1-A1", Destination: "X1-T1-B2"}
	state.ClaimRoute(ctx, "X1-T1", "SHIP-B", copperRoute)
	excluded = state.ExcludedRoutes(ctx, "X1-T1", "SHIP-A")
	assert.False(t, excluded[fuelRoute])
	assert.True(t, excluded[copperRoute])

	// Claims are scoped per system.
	assert.Empty(t, state.ExcludedRoutes(ctx, "X1-T2", "SHIP-A"))

	state.ReleaseRoute(ctx, "X1-T1", "SHIP-B")
	assert.Empty(t, state.ExcludedRoutes(ctx, "X1-T1", "SHIP-A"))
}

func TestExcludedRoutesMergesPersistedClaims(t *testing.T) {
	ctx := context.Background()
	clock := shared.NewMockClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	store := persistence.NewMarketStore(helpers.NewTestDB(t), clock)
	state := fleet.NewFleetState(store, clock)

	// A claim persisted by another process.
	foreign := market.RouteKey{Good: "GOLD", Source: "X1-T1-A1", Destination: "X1-T1-B2"}
	require.NoError(t, store.ClaimRoute(ctx, "OTHER-PROC-1", foreign))

	mine := market.RouteKey{Good: "IRON", Source: "X1-T1-B2", Destination: "X1-T1-A1"}
	state.ClaimRoute(ctx, "X1-T1", "SHIP-A", mine)

	excluded := state.ExcludedRoutes(ctx, "X1-T1", "SHIP-A")
	assert.True(t, excluded[foreign])
	assert.False(t, excluded[mine], "own claim stays available even when persisted")
}

func TestEmitNeverBlocks(t *testing.T) {
	state := fleet.NewFleetState(nil, shared.NewMockClock(time.Time{}))

	// Far more events than the queue holds; the excess is dropped.
	for i := 0; i < 500; i++ {
		state.Emit(domainFleet.NewEvent(domainFleet.EventTradeCompleted, "SHIP-A", nil))
	}

	drained := 0
	for {
		select {
		case <-state.Events():
			drained++
		default:
			assert.Greater(t, drained, 0)
			assert.Less(t, drained, 500)
			return
		}
	}
}

func TestSleep(t *testing.T) {
	t.Run("zero duration returns immediately", func(t *testing.T) {
		state := fleet.NewFleetState(nil, shared.NewRealClock())
		assert.NoError(t, state.Sleep(context.Background(), 0))
	})

	t.Run("shutdown interrupts", func(t *testing.T) {
		state := fleet.NewFleetState(nil, shared.NewRealClock())
		state.Shutdown()
		err := state.Sleep(context.Background(), time.Hour)
		assert.ErrorIs(t, err, fleet.ErrShutdown)
	})

	t.Run("context cancellation interrupts", func(t *testing.T) {
		state := fleet.NewFleetState(nil, shared.NewRealClock())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := state.Sleep(ctx, time.Hour)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("mock clock elapses instantly", func(t *testing.T) {
		clock := shared.NewMockClock(time.Time{})
		state := fleet.NewFleetState(nil, clock)
		assert.NoError(t, state.Sleep(context.Background(), 5*time.Minute))
		assert.Contains(t, clock.SleepCalls(), 5*time.Minute)
	})
}

func TestShutdownIsIdempotent(t *testing.T) {
	state := fleet.NewFleetState(nil, shared.NewMockClock(time.Time{}))

	assert.False(t, state.ShuttingDown())
	state.Shutdown()
	state.Shutdown()
	assert.True(t, state.ShuttingDown())

	select {
	case <-state.Done():
	default:
		t.Fatal("Done channel should be closed after Shutdown")
	}
}

func TestAgentSnapshotAndCredits(t *testing.T) {
	state := fleet.NewFleetState(nil, shared.NewMockClock(time.Time{}))

	state.SetAgentSnapshot(125_000, 4)
	credits, ships := state.AgentSnapshot()
	assert.Equal(t, 125_000, credits)
	assert.Equal(t, 4, ships)

	state.UpdateCredits(90_000)
	credits, ships = state.AgentSnapshot()
	assert.Equal(t, 90_000, credits)
	assert.Equal(t, 4, ships, "UpdateCredits keeps the ship count")
	assert.Equal(t, 90_000, state.Credits())
}
