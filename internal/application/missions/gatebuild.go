package missions

import (
	"context"
	"fmt"
	"time"

	"github.com/andrescamacho/spacetraders-fleet/internal/application/common"
	"github.com/andrescamacho/spacetraders-fleet/internal/application/fleet"
	domainFleet "github.com/andrescamacho/spacetraders-fleet/internal/domain/fleet"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/market"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/ports"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/shared"
)

const (
	// gateCapitalSleep paces re-checks while credits sit under the floor
	gateCapitalSleep = 60 * time.Second

	// gateRetrySleep paces retries when no material can be sourced right now
	gateRetrySleep = 60 * time.Second
)

// GateBuild hauls construction materials to the system's jump gate until the
// site reports complete. Supply runs only spend credits above the
// capital_floor param so the rest of the fleet keeps its working capital.
func GateBuild(ctx context.Context, deps *fleet.Deps, ship *ports.ShipData, params map[string]any) error {
	logger := common.LoggerFromContext(ctx)
	symbol := ship.Symbol
	floor := capitalFloor(params)

	ship, err := awaitArrival(ctx, deps, symbol)
	if err != nil {
		return err
	}
	system, err := deps.State.EnsureSystem(ctx, deps.API, ship.Nav.SystemSymbol)
	if err != nil {
		return fmt.Errorf("loading system intel for %s: %w", ship.Nav.SystemSymbol, err)
	}
	gate := system.GateWaypoint
	if gate == "" {
		return shared.NewMissionError(symbol, string(domainFleet.MissionGateBuild),
			"no jump gate under construction in "+system.Symbol)
	}

	// A previous run may have crashed with materials already aboard
	if ship.Cargo != nil && !ship.Cargo.IsEmpty() && ship.Nav.WaypointSymbol == gate {
		site, err := deps.API.GetConstruction(ctx, system.Symbol, gate)
		if err != nil {
			return fmt.Errorf("checking construction at %s: %w", gate, err)
		}
		if !site.IsComplete {
			logger.Info("recovering: delivering the %s already aboard", ship.Cargo)
			site, err = deliverMaterials(ctx, deps, ship, system, gate, site)
			if err != nil {
				return err
			}
			if site.IsComplete {
				emitGateComplete(deps, symbol, gate)
				return nil
			}
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if deps.State.ShuttingDown() {
			return fleet.ErrShutdown
		}

		site, err := deps.API.GetConstruction(ctx, system.Symbol, gate)
		if err != nil {
			return fmt.Errorf("checking construction at %s: %w", gate, err)
		}
		if site.IsComplete {
			logger.Info("gate %s is complete", gate)
			emitGateComplete(deps, symbol, gate)
			return nil
		}

		if credits := deps.State.Credits(); credits < floor {
			logger.Info("credits %d under the %d floor, waiting", credits, floor)
			deps.State.Emit(domainFleet.NewEvent(domainFleet.EventCapitalLow, symbol, map[string]any{
				"credits": credits,
			}))
			if err := deps.State.Sleep(ctx, gateCapitalSleep); err != nil {
				return err
			}
			continue
		}

		material, price := pickGateMaterial(ctx, deps, system, site)
		if material == "" {
			logger.Warn("no cached source for any needed material, waiting for the probes")
			if err := deps.State.Sleep(ctx, gateRetrySleep); err != nil {
				return err
			}
			continue
		}

		ship, err = deps.API.GetShip(ctx, symbol)
		if err != nil {
			return fmt.Errorf("reading state of %s: %w", symbol, err)
		}
		load := materialRemaining(site, material)
		if ship.Cargo != nil {
			load = min(load, ship.Cargo.FreeCapacity())
		}
		if price.PurchasePrice > 0 {
			load = min(load, (deps.State.Credits()-floor)/price.PurchasePrice)
		}
		if load <= 0 {
			if err := deps.State.Sleep(ctx, gateRetrySleep); err != nil {
				return err
			}
			continue
		}
		logger.Info("hauling %d %s from %s (%d per unit)", load, material, price.WaypointSymbol, price.PurchasePrice)

		ship, err = smartNavigate(ctx, deps, ship, system, price.WaypointSymbol)
		if err != nil {
			return err
		}
		if err := ensureDocked(ctx, deps, ship); err != nil {
			return err
		}
		tryRefuel(ctx, deps, symbol)
		data, err := refreshMarket(ctx, deps, system.Symbol, price.WaypointSymbol)
		if err != nil {
			return err
		}

		unitPrice := price.PurchasePrice
		volume := price.TradeVolume
		if live := liveGood(data, material); live != nil && live.PurchasePrice > 0 {
			unitPrice = live.PurchasePrice
			volume = live.TradeVolume
		}
		out, err := purchaseBatches(ctx, deps, ship, domainFleet.MissionGateBuild, material, load, volume, unitPrice, floor)
		if err != nil {
			return err
		}
		if out.Units == 0 {
			logger.Warn("%s had no %s to sell, retrying later", price.WaypointSymbol, material)
			if err := deps.State.Sleep(ctx, gateRetrySleep); err != nil {
				return err
			}
			continue
		}

		site, err = deliverMaterials(ctx, deps, ship, system, gate, site)
		if err != nil {
			return err
		}
		tryRefuel(ctx, deps, symbol)
		if site.IsComplete {
			emitGateComplete(deps, symbol, gate)
			return nil
		}
	}
}

// deliverMaterials flies to the gate and supplies every held good the site
// still needs, clamped to what it needs.
func deliverMaterials(ctx context.Context, deps *fleet.Deps, ship *ports.ShipData, system *fleet.SystemState, gate string, site *ports.ConstructionData) (*ports.ConstructionData, error) {
	logger := common.LoggerFromContext(ctx)

	ship, err := smartNavigate(ctx, deps, ship, system, gate)
	if err != nil {
		return site, err
	}
	if err := ensureDocked(ctx, deps, ship); err != nil {
		return site, err
	}

	for _, item := range append([]shared.CargoItem(nil), ship.Cargo.Inventory...) {
		needed := materialRemaining(site, item.Symbol)
		if needed == 0 {
			continue
		}
		units := min(item.Units, needed)

		result, err := deps.API.SupplyConstruction(ctx, system.Symbol, gate, ship.Symbol, item.Symbol, units)
		if err != nil {
			return site, fmt.Errorf("supplying %d %s: %w", units, item.Symbol, err)
		}
		if result.Cargo != nil {
			ship.Cargo = result.Cargo
		}
		if result.Construction != nil {
			site = result.Construction
		}

		remaining := materialRemaining(site, item.Symbol)
		logger.Info("delivered %d %s to the gate, %d still needed", units, item.Symbol, remaining)
		deps.State.Emit(domainFleet.NewEvent(domainFleet.EventGateDelivery, ship.Symbol, map[string]any{
			"material":  item.Symbol,
			"units":     units,
			"remaining": remaining,
		}))
	}
	return site, nil
}

// pickGateMaterial returns the cheapest still-needed material that has a
// cached source, preferring the configured source waypoint for a material
// when one is set.
func pickGateMaterial(ctx context.Context, deps *fleet.Deps, system *fleet.SystemState, site *ports.ConstructionData) (string, *market.GoodPrice) {
	bestMaterial := ""
	var bestPrice *market.GoodPrice

	for _, m := range site.Materials {
		if m.Remaining() == 0 {
			continue
		}
		price := sourcePrice(ctx, deps, system, m.TradeSymbol)
		if price == nil || price.PurchasePrice <= 0 {
			continue
		}
		if bestPrice == nil || price.PurchasePrice < bestPrice.PurchasePrice {
			bestMaterial = m.TradeSymbol
			bestPrice = price
		}
	}
	return bestMaterial, bestPrice
}

func sourcePrice(ctx context.Context, deps *fleet.Deps, system *fleet.SystemState, good string) *market.GoodPrice {
	if wp := deps.GateSources[good]; wp != "" {
		prices, err := deps.Markets.GetPrices(ctx, wp)
		if err == nil {
			for i := range prices {
				if prices[i].Good == good && prices[i].PurchasePrice > 0 {
					return &prices[i]
				}
			}
		}
	}
	price, err := deps.Markets.FindBestBuy(ctx, good, system.Symbol)
	if err != nil {
		return nil
	}
	return price
}

func materialRemaining(site *ports.ConstructionData, good string) int {
	for _, m := range site.Materials {
		if m.TradeSymbol == good {
			return m.Remaining()
		}
	}
	return 0
}

func emitGateComplete(deps *fleet.Deps, shipSymbol, gate string) {
	deps.State.Emit(domainFleet.NewEvent(domainFleet.EventGateComplete, shipSymbol, map[string]any{
		"waypoint": gate,
	}))
}

func capitalFloor(params map[string]any) int {
	if v, ok := params["capital_floor"]; ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		}
	}
	return domainFleet.DefaultCapitalPolicy().GateFloor
}
