package missions

import (
	"context"
	"fmt"

	"github.com/andrescamacho/spacetraders-fleet/internal/adapters/metrics"
	"github.com/andrescamacho/spacetraders-fleet/internal/application/common"
	"github.com/andrescamacho/spacetraders-fleet/internal/application/fleet"
	domainFleet "github.com/andrescamacho/spacetraders-fleet/internal/domain/fleet"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/market"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/ports"
)

// refreshMarket fetches live market data and writes the prices through to
// the shared store. Trade goods are only visible with a ship present, so an
// empty snapshot is returned as-is without touching the cache.
func refreshMarket(ctx context.Context, deps *fleet.Deps, systemSymbol, waypointSymbol string) (*ports.MarketData, error) {
	data, err := deps.API.GetMarket(ctx, systemSymbol, waypointSymbol)
	if err != nil {
		return nil, fmt.Errorf("fetching market %s: %w", waypointSymbol, err)
	}
	if len(data.TradeGoods) == 0 {
		return data, nil
	}

	goods := make([]market.GoodPriceData, 0, len(data.TradeGoods))
	for _, g := range data.TradeGoods {
		goods = append(goods, market.GoodPriceData{
			Symbol:        g.Symbol,
			Type:          g.Type,
			Supply:        g.Supply,
			Activity:      g.Activity,
			PurchasePrice: g.PurchasePrice,
			SellPrice:     g.SellPrice,
			TradeVolume:   g.TradeVolume,
		})
	}
	if err := deps.Markets.UpdateMarket(ctx, waypointSymbol, systemSymbol, goods); err != nil {
		common.LoggerFromContext(ctx).Warn("price write-through for %s failed: %v", waypointSymbol, err)
	}
	return data, nil
}

// liveGood finds one good in a live market snapshot, nil when the market
// does not trade it.
func liveGood(data *ports.MarketData, symbol string) *ports.TradeGoodData {
	for i := range data.TradeGoods {
		if data.TradeGoods[i].Symbol == symbol {
			return &data.TradeGoods[i]
		}
	}
	return nil
}

// purchaseOutcome sums up a batched buy.
type purchaseOutcome struct {
	Units int
	Spent int

	// Drained is set when the market stopped filling batches before the
	// target was reached
	Drained bool
}

// purchaseBatches buys up to want units of a good in batches bounded by the
// market's trade volume, keeping agent credits above creditFloor. The ship
// must be docked at the market. Cargo and credit state are refreshed from
// every transaction; each buy lands in the operations log.
func purchaseBatches(ctx context.Context, deps *fleet.Deps, ship *ports.ShipData, mission domainFleet.MissionKind, good string, want, batchSize, unitPrice, creditFloor int) (purchaseOutcome, error) {
	logger := common.LoggerFromContext(ctx)
	out := purchaseOutcome{}
	if batchSize <= 0 || unitPrice <= 0 {
		out.Drained = true
		return out, nil
	}

	for out.Units < want {
		batch := min(batchSize, want-out.Units)
		if ship.Cargo != nil {
			batch = min(batch, ship.Cargo.FreeCapacity())
		}
		if affordable := (deps.State.Credits() - creditFloor) / unitPrice; batch > affordable {
			batch = affordable
		}
		if batch <= 0 {
			break
		}

		result, err := deps.API.PurchaseCargo(ctx, ship.Symbol, good, batch)
		if err != nil {
			if apiErr, ok := ports.AsAPIError(err); ok {
				logger.Warn("buy of %d %s rejected: %s", batch, good, apiErr.Message)
				out.Drained = true
				break
			}
			return out, fmt.Errorf("buying %d %s: %w", batch, good, err)
		}
		if result.Units == 0 {
			out.Drained = true
			break
		}

		out.Units += result.Units
		out.Spent += result.TotalPrice
		unitPrice = result.PricePerUnit
		if result.Cargo != nil {
			ship.Cargo = result.Cargo
		}
		deps.State.UpdateCredits(result.AgentCredits)
		recordTrade(ctx, deps, domainFleet.TradeRecord{
			Ship:         ship.Symbol,
			Side:         domainFleet.TradeSideBuy,
			Good:         good,
			Units:        result.Units,
			PricePerUnit: result.PricePerUnit,
			TotalPrice:   result.TotalPrice,
			Waypoint:     ship.Nav.WaypointSymbol,
			AgentCredits: result.AgentCredits,
			Mission:      mission,
		})
		logger.Info("bought %d %s @ %d (%d credits)", result.Units, good, result.PricePerUnit, result.TotalPrice)
	}
	return out, nil
}

// sellOutcome sums up a batched sale.
type sellOutcome struct {
	Units   int
	Revenue int
}

// sellBatches sells up to units of a good in batches bounded by the
// market's trade volume. The ship must be docked. A market that stops
// accepting mid-sale ends the sale early with what was sold so far; the
// leftover stays in cargo for the caller to deal with.
func sellBatches(ctx context.Context, deps *fleet.Deps, ship *ports.ShipData, mission domainFleet.MissionKind, good string, units, batchSize int) (sellOutcome, error) {
	logger := common.LoggerFromContext(ctx)
	out := sellOutcome{}
	if batchSize <= 0 {
		batchSize = units
	}

	for out.Units < units {
		batch := min(batchSize, units-out.Units)
		if batch <= 0 {
			break
		}

		result, err := deps.API.SellCargo(ctx, ship.Symbol, good, batch)
		if err != nil {
			if apiErr, ok := ports.AsAPIError(err); ok {
				logger.Warn("sale of %d %s rejected: %s", batch, good, apiErr.Message)
				break
			}
			return out, fmt.Errorf("selling %d %s: %w", batch, good, err)
		}
		if result.Units == 0 {
			break
		}

		out.Units += result.Units
		out.Revenue += result.TotalPrice
		if result.Cargo != nil {
			ship.Cargo = result.Cargo
		}
		deps.State.UpdateCredits(result.AgentCredits)
		recordTrade(ctx, deps, domainFleet.TradeRecord{
			Ship:         ship.Symbol,
			Side:         domainFleet.TradeSideSell,
			Good:         good,
			Units:        result.Units,
			PricePerUnit: result.PricePerUnit,
			TotalPrice:   result.TotalPrice,
			Waypoint:     ship.Nav.WaypointSymbol,
			AgentCredits: result.AgentCredits,
			Mission:      mission,
		})
		logger.Info("sold %d %s @ %d (%d credits)", result.Units, good, result.PricePerUnit, result.TotalPrice)
	}
	return out, nil
}

// recordTrade appends to the operations log. A failing log never stops a
// mission, the transaction already happened.
func recordTrade(ctx context.Context, deps *fleet.Deps, rec domainFleet.TradeRecord) {
	metrics.RecordTradeSide(rec.Side)
	if deps.Ops == nil {
		return
	}
	if err := deps.Ops.RecordTrade(ctx, rec); err != nil {
		common.LoggerFromContext(ctx).Warn("trade log write failed: %v", err)
	}
}
