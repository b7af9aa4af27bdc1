package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/spacetraders-fleet/internal/adapters/persistence"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/market"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/shared"
	"github.com/andrescamacho/spacetraders-fleet/test/helpers"
)

var storeEpoch = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newMarketStore(t *testing.T) (*persistence.MarketStoreGORM, *shared.MockClock) {
	t.Helper()
	db := helpers.NewTestDB(t)
	clock := shared.NewMockClock(storeEpoch)
	return persistence.NewMarketStore(db, clock), clock
}

func fuelMarket(purchase, sell int) []market.GoodPriceData {
	return []market.GoodPriceData{
		{
			Symbol:        "FUEL",
			Type:          market.TradeTypeExchange,
			Supply:        market.SupplyModerate,
			PurchasePrice: purchase,
			SellPrice:     sell,
			TradeVolume:   100,
		},
	}
}

func TestMarketStore_UpdateAndGetPrices(t *testing.T) {
	store, _ := newMarketStore(t)
	ctx := context.Background()

	goods := []market.GoodPriceData{
		{Symbol: "IRON", Type: market.TradeTypeExport, Supply: market.SupplyHigh, Activity: market.ActivityStrong, PurchasePrice: 40, SellPrice: 35, TradeVolume: 60},
		{Symbol: "ALUMINUM", Type: market.TradeTypeImport, Supply: market.SupplyScarce, Activity: market.ActivityWeak, PurchasePrice: 120, SellPrice: 110, TradeVolume: 20},
	}
	require.NoError(t, store.UpdateMarket(ctx, "X1-A1-M1", "X1-A1", goods))

	prices, err := store.GetPrices(ctx, "X1-A1-M1")
	require.NoError(t, err)
	require.Len(t, prices, 2)

	// Ordered by good symbol
	assert.Equal(t, "ALUMINUM", prices[0].Good)
	assert.Equal(t, "IRON", prices[1].Good)

	iron := prices[1]
	assert.Equal(t, "X1-A1-M1", iron.WaypointSymbol)
	assert.Equal(t, "X1-A1", iron.SystemSymbol)
	assert.Equal(t, market.TradeTypeExport, iron.Type)
	assert.Equal(t, market.SupplyHigh, iron.Supply)
	assert.Equal(t, market.ActivityStrong, iron.Activity)
	assert.Equal(t, 40, iron.PurchasePrice)
	assert.Equal(t, 35, iron.SellPrice)
	assert.Equal(t, 60, iron.TradeVolume)
	assert.True(t, iron.UpdatedAt.Equal(storeEpoch))
}

func TestMarketStore_UpdateReplacesOldPrices(t *testing.T) {
	store, clock := newMarketStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpdateMarket(ctx, "X1-A1-M1", "X1-A1", []market.GoodPriceData{
		{Symbol: "IRON", Type: market.TradeTypeExport, PurchasePrice: 40, SellPrice: 35},
		{Symbol: "COPPER", Type: market.TradeTypeExport, PurchasePrice: 55, SellPrice: 50},
	}))

	// A later scan no longer lists COPPER
	clock.Advance(10 * time.Minute)
	require.NoError(t, store.UpdateMarket(ctx, "X1-A1-M1", "X1-A1", []market.GoodPriceData{
		{Symbol: "IRON", Type: market.TradeTypeExport, PurchasePrice: 42, SellPrice: 37},
	}))

	prices, err := store.GetPrices(ctx, "X1-A1-M1")
	require.NoError(t, err)
	require.Len(t, prices, 1)
	assert.Equal(t, "IRON", prices[0].Good)
	assert.Equal(t, 42, prices[0].PurchasePrice)
	assert.True(t, prices[0].UpdatedAt.Equal(storeEpoch.Add(10*time.Minute)))
}

func TestMarketStore_GetPricesUnknownWaypoint(t *testing.T) {
	store, _ := newMarketStore(t)

	prices, err := store.GetPrices(context.Background(), "X1-Z9-M9")
	require.NoError(t, err)
	assert.Empty(t, prices)
}

func TestMarketStore_ListMarkets(t *testing.T) {
	store, _ := newMarketStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpdateMarket(ctx, "X1-A1-M1", "X1-A1", fuelMarket(70, 65)))
	require.NoError(t, store.UpdateMarket(ctx, "X1-A1-M2", "X1-A1", fuelMarket(72, 66)))
	require.NoError(t, store.UpdateMarket(ctx, "X1-B2-M1", "X1-B2", fuelMarket(80, 75)))

	all, err := store.ListMarkets(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"X1-A1-M1", "X1-A1-M2", "X1-B2-M1"}, all)

	scoped, err := store.ListMarkets(ctx, "X1-A1")
	require.NoError(t, err)
	assert.Equal(t, []string{"X1-A1-M1", "X1-A1-M2"}, scoped)
}

func TestMarketStore_ListSystemPrices(t *testing.T) {
	store, _ := newMarketStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpdateMarket(ctx, "X1-A1-M2", "X1-A1", fuelMarket(72, 66)))
	require.NoError(t, store.UpdateMarket(ctx, "X1-A1-M1", "X1-A1", fuelMarket(70, 65)))
	require.NoError(t, store.UpdateMarket(ctx, "X1-B2-M1", "X1-B2", fuelMarket(80, 75)))

	prices, err := store.ListSystemPrices(ctx, "X1-A1")
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.Equal(t, "X1-A1-M1", prices[0].WaypointSymbol)
	assert.Equal(t, "X1-A1-M2", prices[1].WaypointSymbol)
}

func TestMarketStore_StaleMarkets(t *testing.T) {
	store, clock := newMarketStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpdateMarket(ctx, "X1-A1-OLD", "X1-A1", fuelMarket(70, 65)))

	clock.Advance(2 * time.Hour)
	require.NoError(t, store.UpdateMarket(ctx, "X1-A1-NEW", "X1-A1", fuelMarket(71, 64)))

	stale, err := store.StaleMarkets(ctx, 90*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, []string{"X1-A1-OLD"}, stale)

	// Re-scanning the old market makes everything fresh again
	require.NoError(t, store.UpdateMarket(ctx, "X1-A1-OLD", "X1-A1", fuelMarket(69, 66)))
	stale, err = store.StaleMarkets(ctx, 90*time.Minute)
	require.NoError(t, err)
	assert.Empty(t, stale)
}

func TestMarketStore_FindBestBuyAndSell(t *testing.T) {
	store, _ := newMarketStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpdateMarket(ctx, "X1-A1-M1", "X1-A1", fuelMarket(70, 60)))
	require.NoError(t, store.UpdateMarket(ctx, "X1-A1-M2", "X1-A1", fuelMarket(55, 80)))
	require.NoError(t, store.UpdateMarket(ctx, "X1-A1-M3", "X1-A1", fuelMarket(90, 75)))

	buy, err := store.FindBestBuy(ctx, "FUEL", "X1-A1")
	require.NoError(t, err)
	require.NotNil(t, buy)
	assert.Equal(t, "X1-A1-M2", buy.WaypointSymbol)
	assert.Equal(t, 55, buy.PurchasePrice)

	sell, err := store.FindBestSell(ctx, "FUEL", "X1-A1")
	require.NoError(t, err)
	require.NotNil(t, sell)
	assert.Equal(t, "X1-A1-M2", sell.WaypointSymbol)
	assert.Equal(t, 80, sell.SellPrice)
}

func TestMarketStore_FindBestBuyScopedToSystem(t *testing.T) {
	store, _ := newMarketStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpdateMarket(ctx, "X1-A1-M1", "X1-A1", fuelMarket(70, 60)))
	require.NoError(t, store.UpdateMarket(ctx, "X1-B2-M1", "X1-B2", fuelMarket(40, 35)))

	// Cheaper market exists, but in another system
	buy, err := store.FindBestBuy(ctx, "FUEL", "X1-A1")
	require.NoError(t, err)
	require.NotNil(t, buy)
	assert.Equal(t, "X1-A1-M1", buy.WaypointSymbol)
}

func TestMarketStore_FindBestBuyUnknownGood(t *testing.T) {
	store, _ := newMarketStore(t)

	buy, err := store.FindBestBuy(context.Background(), "ANTIMATTER", "X1-A1")
	require.NoError(t, err)
	assert.Nil(t, buy)
}

func TestMarketStore_HasProfitableRoutes(t *testing.T) {
	store, _ := newMarketStore(t)
	ctx := context.Background()

	// Exporter sells IRON for 40, importer pays 65
	require.NoError(t, store.UpdateMarket(ctx, "X1-A1-SRC", "X1-A1", []market.GoodPriceData{
		{Symbol: "IRON", Type: market.TradeTypeExport, PurchasePrice: 40, SellPrice: 35},
	}))
	require.NoError(t, store.UpdateMarket(ctx, "X1-A1-DST", "X1-A1", []market.GoodPriceData{
		{Symbol: "IRON", Type: market.TradeTypeImport, PurchasePrice: 70, SellPrice: 65},
	}))

	ok, err := store.HasProfitableRoutes(ctx, "X1-A1")
	require.NoError(t, err)
	assert.True(t, ok)

	// A different system sees none of it
	ok, err = store.HasProfitableRoutes(ctx, "X1-B2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMarketStore_HasProfitableRoutesNegativeSpread(t *testing.T) {
	store, _ := newMarketStore(t)
	ctx := context.Background()

	// Importer pays less than the exporter charges
	require.NoError(t, store.UpdateMarket(ctx, "X1-A1-SRC", "X1-A1", []market.GoodPriceData{
		{Symbol: "IRON", Type: market.TradeTypeExport, PurchasePrice: 40, SellPrice: 35},
	}))
	require.NoError(t, store.UpdateMarket(ctx, "X1-A1-DST", "X1-A1", []market.GoodPriceData{
		{Symbol: "IRON", Type: market.TradeTypeImport, PurchasePrice: 38, SellPrice: 33},
	}))

	ok, err := store.HasProfitableRoutes(ctx, "X1-A1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMarketStore_ClaimAndListRoutes(t *testing.T) {
	store, _ := newMarketStore(t)
	ctx := context.Background()

	routeA := market.RouteKey{Good: "IRON", Source: "X1-A1-SRC", Destination: "X1-A1-DST"}
	routeB := market.RouteKey{Good: "COPPER", Source: "X1-A1-M3", Destination: "X1-A1-M4"}

	require.NoError(t, store.ClaimRoute(ctx, "SHIP-1", routeA))
	require.NoError(t, store.ClaimRoute(ctx, "SHIP-2", routeB))

	// A ship never sees its own claim
	claimed, err := store.ClaimedRoutes(ctx, "SHIP-1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []market.RouteKey{routeB}, claimed)
}

func TestMarketStore_ReclaimReplacesRoute(t *testing.T) {
	store, _ := newMarketStore(t)
	ctx := context.Background()

	require.NoError(t, store.ClaimRoute(ctx, "SHIP-1", market.RouteKey{Good: "IRON", Source: "A", Destination: "B"}))
	require.NoError(t, store.ClaimRoute(ctx, "SHIP-1", market.RouteKey{Good: "COPPER", Source: "C", Destination: "D"}))

	claimed, err := store.ClaimedRoutes(ctx, "OTHER", time.Hour)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, "COPPER", claimed[0].Good)
}

func TestMarketStore_ReleaseRoute(t *testing.T) {
	store, _ := newMarketStore(t)
	ctx := context.Background()

	require.NoError(t, store.ClaimRoute(ctx, "SHIP-1", market.RouteKey{Good: "IRON", Source: "A", Destination: "B"}))
	require.NoError(t, store.ReleaseRoute(ctx, "SHIP-1"))

	claimed, err := store.ClaimedRoutes(ctx, "OTHER", time.Hour)
	require.NoError(t, err)
	assert.Empty(t, claimed)

	// Releasing twice is harmless
	require.NoError(t, store.ReleaseRoute(ctx, "SHIP-1"))
}

func TestMarketStore_StaleClaimsExpire(t *testing.T) {
	store, clock := newMarketStore(t)
	ctx := context.Background()

	require.NoError(t, store.ClaimRoute(ctx, "SHIP-1", market.RouteKey{Good: "IRON", Source: "A", Destination: "B"}))

	clock.Advance(20 * time.Minute)
	require.NoError(t, store.ClaimRoute(ctx, "SHIP-2", market.RouteKey{Good: "COPPER", Source: "C", Destination: "D"}))

	// SHIP-1's claim is older than the cutoff and gets pruned
	claimed, err := store.ClaimedRoutes(ctx, "SHIP-3", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, []market.RouteKey{{Good: "COPPER", Source: "C", Destination: "D"}}, claimed)
}
