package missions_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/spacetraders-fleet/internal/application/fleet"
	"github.com/andrescamacho/spacetraders-fleet/internal/application/missions"
	domainFleet "github.com/andrescamacho/spacetraders-fleet/internal/domain/fleet"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/ports"
)

func seedScanMarkets(f *missionFixture, waypoints ...string) {
	for _, wp := range waypoints {
		f.api.SetMarket(wp, []ports.TradeGoodData{
			{Symbol: "FUEL", Type: "EXCHANGE", Supply: "MODERATE", PurchasePrice: 72, SellPrice: 70, TradeVolume: 10},
		})
	}
}

func TestScanToursMarketsNearestFirst(t *testing.T) {
	f := newMissionFixture(t)
	f.addMarketWaypoint("X1-MS1-A1", 0, 0)
	f.addMarketWaypoint("X1-MS1-B2", 3, 4)
	f.addMarketWaypoint("X1-MS1-C3", 30, 0)
	// No marketplace trait, the tour must skip it
	f.api.AddWaypoint(&ports.WaypointData{Symbol: "X1-MS1-R4", SystemSymbol: testSystem, Type: "ASTEROID", X: 10, Y: 10})
	seedScanMarkets(f, "X1-MS1-A1", "X1-MS1-B2", "X1-MS1-C3")

	f.addProbe("PROBE-1", "X1-MS1-A1")
	done := f.run(missions.Scan, "PROBE-1", nil)

	require.Eventually(t, func() bool {
		return len(f.api.MarketCalls()) >= 3
	}, 3*time.Second, 10*time.Millisecond, "probe should visit every market")

	scans := f.api.MarketCalls()
	assert.Equal(t, []string{"X1-MS1-A1", "X1-MS1-B2", "X1-MS1-C3"}, scans[:3],
		"tour should greedily pick the closest unvisited market")

	// The starting waypoint is scanned in place, only two hops are flown
	nav := f.api.NavigationCalls()
	require.GreaterOrEqual(t, len(nav), 2)
	assert.Equal(t, []string{"X1-MS1-B2", "X1-MS1-C3"}, nav[:2])
	assert.Equal(t, "DRIFT", f.api.Ship("PROBE-1").Nav.FlightMode)

	// The cache now covers every visited market
	prices, err := f.markets.ListSystemPrices(context.Background(), testSystem)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(prices), 3)

	f.state.Shutdown()
	assert.ErrorIs(t, waitExit(t, done), fleet.ErrShutdown)

	ev := f.waitEvent(t, domainFleet.EventScanComplete, time.Second)
	assert.GreaterOrEqual(t, ev.Data["visited"], 3)
}

func TestScanRevisitsMarketsOnceStale(t *testing.T) {
	f := newMissionFixture(t)
	f.addMarketWaypoint("X1-MS1-A1", 0, 0)
	f.addMarketWaypoint("X1-MS1-B2", 3, 4)
	seedScanMarkets(f, "X1-MS1-A1", "X1-MS1-B2")
	f.deps.ScanMaxAge = 10 * time.Minute

	f.addProbe("PROBE-1", "X1-MS1-A1")
	done := f.run(missions.Scan, "PROBE-1", nil)

	// First sweep covers both markets; the idle naps then age the cache
	// past the limit and force a second sweep.
	require.Eventually(t, func() bool {
		return len(f.api.MarketCalls()) >= 4
	}, 3*time.Second, 10*time.Millisecond, "stale markets should be rescanned")

	var idled bool
	for _, d := range f.clock.SleepCalls() {
		if d == 5*time.Minute {
			idled = true
		}
	}
	assert.True(t, idled, "probe should nap between staleness sweeps")

	f.state.Shutdown()
	assert.ErrorIs(t, waitExit(t, done), fleet.ErrShutdown)

	ev := f.waitEvent(t, domainFleet.EventScanComplete, time.Second)
	assert.GreaterOrEqual(t, ev.Data["visited"], 4)
}

func TestScanFailsInSystemWithoutMarkets(t *testing.T) {
	f := newMissionFixture(t)
	f.api.AddWaypoint(&ports.WaypointData{Symbol: "X1-MS1-R4", SystemSymbol: testSystem, Type: "ASTEROID", X: 0, Y: 0})

	f.addProbe("PROBE-1", "X1-MS1-R4")
	done := f.run(missions.Scan, "PROBE-1", nil)

	err := waitExit(t, done)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no marketplaces")
	assert.Zero(t, f.api.Calls("GetMarket"))
}
