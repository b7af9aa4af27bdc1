package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/spacetraders-fleet/internal/adapters/persistence"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/fleet"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/shared"
	"github.com/andrescamacho/spacetraders-fleet/test/helpers"
)

func newOperationsStore(t *testing.T) (*persistence.OperationsStoreGORM, *shared.MockClock) {
	t.Helper()
	db := helpers.NewTestDB(t)
	clock := shared.NewMockClock(storeEpoch)
	return persistence.NewOperationsStore(db, clock), clock
}

func TestOperationsStore_RecordAndListTrades(t *testing.T) {
	store, clock := newOperationsStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordTrade(ctx, fleet.TradeRecord{
		Ship: "SHIP-1", Side: fleet.TradeSideBuy, Good: "IRON",
		Units: 10, PricePerUnit: 40, TotalPrice: 400,
		Waypoint: "X1-A1-SRC", AgentCredits: 99600, Mission: fleet.MissionTrade,
	}))
	clock.Advance(time.Minute)
	require.NoError(t, store.RecordTrade(ctx, fleet.TradeRecord{
		Ship: "SHIP-2", Side: fleet.TradeSideSell, Good: "COPPER",
		Units: 5, PricePerUnit: 90, TotalPrice: 450,
		Waypoint: "X1-A1-DST", AgentCredits: 100050, Mission: fleet.MissionContract,
	}))
	clock.Advance(time.Minute)
	require.NoError(t, store.RecordTrade(ctx, fleet.TradeRecord{
		Ship: "SHIP-1", Side: fleet.TradeSideSell, Good: "IRON",
		Units: 10, PricePerUnit: 65, TotalPrice: 650,
		Waypoint: "X1-A1-DST", AgentCredits: 100700, Mission: fleet.MissionTrade,
	}))

	// Newest first
	all, err := store.ListTrades(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "IRON", all[0].Good)
	assert.Equal(t, fleet.TradeSideSell, all[0].Side)
	assert.True(t, all[0].At.Equal(storeEpoch.Add(2*time.Minute)))
	assert.Equal(t, "COPPER", all[1].Good)

	// Scoped to one ship
	ship1, err := store.ListTrades(ctx, "SHIP-1", 0)
	require.NoError(t, err)
	require.Len(t, ship1, 2)
	assert.Equal(t, fleet.TradeSideSell, ship1[0].Side)
	assert.Equal(t, fleet.TradeSideBuy, ship1[1].Side)

	// Limited
	latest, err := store.ListTrades(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, 650, latest[0].TotalPrice)
	assert.Equal(t, fleet.MissionTrade, latest[0].Mission)
	assert.Equal(t, 100700, latest[0].AgentCredits)
}

func TestOperationsStore_TradeTotals(t *testing.T) {
	store, _ := newOperationsStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordTrade(ctx, fleet.TradeRecord{
		Ship: "SHIP-1", Side: fleet.TradeSideBuy, Good: "IRON",
		Units: 10, PricePerUnit: 40, TotalPrice: 400, Mission: fleet.MissionTrade,
	}))
	require.NoError(t, store.RecordTrade(ctx, fleet.TradeRecord{
		Ship: "SHIP-1", Side: fleet.TradeSideSell, Good: "IRON",
		Units: 10, PricePerUnit: 65, TotalPrice: 650, Mission: fleet.MissionTrade,
	}))
	require.NoError(t, store.RecordTrade(ctx, fleet.TradeRecord{
		Ship: "SHIP-2", Side: fleet.TradeSideBuy, Good: "FAB_MATS",
		Units: 20, PricePerUnit: 100, TotalPrice: 2000, Mission: fleet.MissionGateBuild,
	}))

	totals, err := store.TradeTotals(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, totals.Trades)
	assert.Equal(t, 2400, totals.Bought)
	assert.Equal(t, 650, totals.Sold)
	assert.Equal(t, -1750, totals.Net())

	trading, err := store.TradeTotals(ctx, fleet.MissionTrade)
	require.NoError(t, err)
	assert.Equal(t, 2, trading.Trades)
	assert.Equal(t, 400, trading.Bought)
	assert.Equal(t, 650, trading.Sold)
	assert.Equal(t, 250, trading.Net())
}

func TestOperationsStore_TradeTotalsEmptyLog(t *testing.T) {
	store, _ := newOperationsStore(t)

	totals, err := store.TradeTotals(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 0, totals.Trades)
	assert.Equal(t, 0, totals.Net())
}

func TestOperationsStore_Snapshots(t *testing.T) {
	store, clock := newOperationsStore(t)
	ctx := context.Background()

	require.NoError(t, store.SnapshotAgent(ctx, 100000, 4))
	clock.Advance(10 * time.Minute)
	require.NoError(t, store.SnapshotAgent(ctx, 104500, 5))

	snapshots, err := store.ListSnapshots(ctx, 0)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, 104500, snapshots[0].Credits)
	assert.Equal(t, 5, snapshots[0].ShipCount)
	assert.True(t, snapshots[0].At.Equal(storeEpoch.Add(10*time.Minute)))
	assert.Equal(t, 100000, snapshots[1].Credits)

	latest, err := store.ListSnapshots(ctx, 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, 104500, latest[0].Credits)
}

func TestOperationsStore_RecordExtraction(t *testing.T) {
	db := helpers.NewTestDB(t)
	store := persistence.NewOperationsStore(db, shared.NewMockClock(storeEpoch))
	ctx := context.Background()

	require.NoError(t, store.RecordExtraction(ctx, "MINER-1", "X1-A1-AST", "IRON_ORE", 12))
	require.NoError(t, store.RecordExtraction(ctx, "MINER-1", "X1-A1-AST", "COPPER_ORE", 7))

	var count int64
	require.NoError(t, db.Model(&persistence.ExtractionLogModel{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	var record persistence.ExtractionLogModel
	require.NoError(t, db.Where("good_symbol = ?", "IRON_ORE").First(&record).Error)
	assert.Equal(t, "MINER-1", record.ShipSymbol)
	assert.Equal(t, "X1-A1-AST", record.WaypointSymbol)
	assert.Equal(t, 12, record.Units)
	assert.True(t, record.CreatedAt.Equal(storeEpoch))
}
