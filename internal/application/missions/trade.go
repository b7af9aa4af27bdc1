package missions

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/andrescamacho/spacetraders-fleet/internal/application/common"
	"github.com/andrescamacho/spacetraders-fleet/internal/application/fleet"
	domainFleet "github.com/andrescamacho/spacetraders-fleet/internal/domain/fleet"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/market"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/navigation"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/ports"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/shared"
)

const (
	// tradeLoopsPerCycle is how many trips a trader attempts before taking
	// a cycle-level breath
	tradeLoopsPerCycle = 3

	// failedRouteTTL is how long a route that went dry stays blacklisted
	failedRouteTTL = 30 * time.Minute

	releaseTimeout = 5 * time.Second
)

// tradeDryBackoff paces retries while no profitable route exists. The
// streak index caps at the last entry.
var tradeDryBackoff = []time.Duration{
	5 * time.Minute,
	10 * time.Minute,
	20 * time.Minute,
	30 * time.Minute,
}

// Trade is the freight loop: find the best cached buy-low-sell-high route in
// the ship's system, claim it so no other trader piles on, run it, repeat.
// Runs until shutdown.
func Trade(ctx context.Context, deps *fleet.Deps, ship *ports.ShipData, params map[string]any) error {
	logger := common.LoggerFromContext(ctx)
	symbol := ship.Symbol

	ship, err := awaitArrival(ctx, deps, symbol)
	if err != nil {
		return err
	}
	systemSymbol := ship.Nav.SystemSymbol
	system, err := deps.State.EnsureSystem(ctx, deps.API, systemSymbol)
	if err != nil {
		return fmt.Errorf("loading system intel for %s: %w", systemSymbol, err)
	}

	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		deps.State.ReleaseRoute(releaseCtx, systemSymbol, symbol)
	}()

	failed := newRouteBlacklist(deps.State.Clock())
	dryStreak := 0

	for {
		traded := false
		for loop := 0; loop < tradeLoopsPerCycle; loop++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if deps.State.ShuttingDown() {
				return fleet.ErrShutdown
			}
			failed.Prune()

			ship, err = deps.API.GetShip(ctx, symbol)
			if err != nil {
				return fmt.Errorf("reading state of %s: %w", symbol, err)
			}

			// Leftovers from a crashed or interrupted run get sold
			// before planning new work
			if ship.Cargo != nil && !ship.Cargo.IsEmpty() {
				if err := sellExistingCargo(ctx, deps, ship, system); err != nil {
					return err
				}
				continue
			}

			route, profit, err := runBestRoute(ctx, deps, ship, system, failed)
			if err != nil {
				return err
			}
			if route == nil {
				deps.State.Emit(domainFleet.NewEvent(domainFleet.EventTradeDry, symbol, map[string]any{
					"system": systemSymbol,
				}))
				dryStreak++
				if err := dryBackoff(ctx, deps, logger, dryStreak); err != nil {
					return err
				}
				continue
			}

			traded = true
			dryStreak = 0
			logger.Info("trip done: %s %s->%s, %+d credits", route.Good, route.Source, route.Destination, profit)
			deps.State.Emit(domainFleet.NewEvent(domainFleet.EventTradeCompleted, symbol, map[string]any{
				"good":    route.Good,
				"profit":  profit,
				"credits": deps.State.Credits(),
			}))
		}

		if traded {
			dryStreak = 0
			continue
		}
		dryStreak++
		if err := dryBackoff(ctx, deps, logger, dryStreak); err != nil {
			return err
		}
	}
}

// runBestRoute plans against the price cache and executes the best
// candidate. Routes that turn out dry at the source are blacklisted and the
// next candidate is tried. Returns nil when no candidate worked out.
func runBestRoute(ctx context.Context, deps *fleet.Deps, ship *ports.ShipData, system *fleet.SystemState, failed *routeBlacklist) (*market.TradeRoute, int, error) {
	logger := common.LoggerFromContext(ctx)

	routes, err := planRoutes(ctx, deps, ship, system, failed)
	if err != nil {
		return nil, 0, err
	}
	if len(routes) == 0 {
		return nil, 0, nil
	}
	logger.Info("%d candidate routes, best: %s", len(routes), &routes[0])

	for i := range routes {
		route := &routes[i]
		profit, dry, err := executeRoute(ctx, deps, ship, system, route)
		if err != nil {
			return nil, 0, err
		}
		if dry {
			failed.Add(route.Key())
			logger.Warn("route %s went dry, trying next", route)
			ship, err = deps.API.GetShip(ctx, ship.Symbol)
			if err != nil {
				return nil, 0, fmt.Errorf("reading state of %s: %w", ship.Symbol, err)
			}
			continue
		}
		return route, profit, nil
	}
	return nil, 0, nil
}

func planRoutes(ctx context.Context, deps *fleet.Deps, ship *ports.ShipData, system *fleet.SystemState, failed *routeBlacklist) ([]market.TradeRoute, error) {
	prices, err := deps.Markets.ListSystemPrices(ctx, system.Symbol)
	if err != nil {
		return nil, fmt.Errorf("listing cached prices for %s: %w", system.Symbol, err)
	}
	excluded := deps.State.ExcludedRoutes(ctx, system.Symbol, ship.Symbol)
	failed.MergeInto(excluded)

	capacity := 0
	if ship.Cargo != nil {
		capacity = ship.Cargo.Capacity
	}
	return market.FindBestRoutes(prices, market.RouteQuery{
		ShipWaypoint:  ship.Nav.WaypointSymbol,
		CargoCapacity: capacity,
		FuelCapacity:  ship.Fuel.Capacity,
		EngineSpeed:   ship.EngineSpeed,
		Credits:       deps.State.Credits(),
		Coords:        system.Coords,
		FuelWaypoints: system.FuelWaypoints(),
		Excluded:      excluded,
	}), nil
}

// executeRoute runs one trip. dry=true means the source market would not
// fill even one batch and the route should be blacklisted.
func executeRoute(ctx context.Context, deps *fleet.Deps, ship *ports.ShipData, system *fleet.SystemState, route *market.TradeRoute) (profit int, dry bool, err error) {
	deps.State.ClaimRoute(ctx, system.Symbol, ship.Symbol, route.Key())

	ship, err = smartNavigate(ctx, deps, ship, system, route.Source)
	if err != nil {
		return 0, false, err
	}
	if err := ensureDocked(ctx, deps, ship); err != nil {
		return 0, false, err
	}
	srcMarket, err := refreshMarket(ctx, deps, system.Symbol, route.Source)
	if err != nil {
		return 0, false, err
	}
	tryRefuel(ctx, deps, ship.Symbol)

	src := liveGood(srcMarket, route.Good)
	if src == nil || src.PurchasePrice <= 0 {
		return 0, true, nil
	}

	capacity := 0
	if ship.Cargo != nil {
		capacity = ship.Cargo.Capacity
	}
	want := market.SafeSellVolume(route.DestSupply, route.DestActivity, route.DestTradeVolume, capacity)
	bought, err := purchaseBatches(ctx, deps, ship, domainFleet.MissionTrade, route.Good, want, src.TradeVolume, src.PurchasePrice, 0)
	if err != nil {
		return 0, false, err
	}
	if bought.Units == 0 {
		return 0, true, nil
	}

	ship, err = smartNavigate(ctx, deps, ship, system, route.Destination)
	if err != nil {
		return 0, false, err
	}
	if err := ensureDocked(ctx, deps, ship); err != nil {
		return 0, false, err
	}
	dstMarket, err := refreshMarket(ctx, deps, system.Symbol, route.Destination)
	if err != nil {
		return 0, false, err
	}

	batch := route.DestTradeVolume
	if dst := liveGood(dstMarket, route.Good); dst != nil && dst.TradeVolume > 0 {
		batch = dst.TradeVolume
	}
	sold, err := sellBatches(ctx, deps, ship, domainFleet.MissionTrade, route.Good, bought.Units, batch)
	if err != nil {
		return 0, false, err
	}
	tryRefuel(ctx, deps, ship.Symbol)

	return sold.Revenue - bought.Spent, false, nil
}

// sellExistingCargo liquidates whatever is in the hold at the cached market
// with the best revenue per minute. Goods no cached market buys are
// jettisoned, cargo space is worth more than they are.
func sellExistingCargo(ctx context.Context, deps *fleet.Deps, ship *ports.ShipData, system *fleet.SystemState) error {
	logger := common.LoggerFromContext(ctx)

	for ship.Cargo != nil && !ship.Cargo.IsEmpty() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if deps.State.ShuttingDown() {
			return fleet.ErrShutdown
		}

		prices, err := deps.Markets.ListSystemPrices(ctx, system.Symbol)
		if err != nil {
			return fmt.Errorf("listing cached prices for %s: %w", system.Symbol, err)
		}

		dest := bestLiquidationMarket(ship, system, prices)
		if dest == "" {
			logger.Warn("no cached buyer for %s, jettisoning", ship.Cargo)
			return jettisonAll(ctx, deps, ship)
		}
		logger.Info("selling off %s at %s", ship.Cargo, dest)

		before := ship.Cargo.Units
		ship, err = smartNavigate(ctx, deps, ship, system, dest)
		if err != nil {
			return err
		}
		if err := ensureDocked(ctx, deps, ship); err != nil {
			return err
		}
		data, err := refreshMarket(ctx, deps, system.Symbol, dest)
		if err != nil {
			return err
		}

		for _, item := range append([]shared.CargoItem(nil), ship.Cargo.Inventory...) {
			good := liveGood(data, item.Symbol)
			if good == nil || good.SellPrice <= 0 {
				continue
			}
			if _, err := sellBatches(ctx, deps, ship, domainFleet.MissionTrade, item.Symbol, item.Units, good.TradeVolume); err != nil {
				return err
			}
		}
		tryRefuel(ctx, deps, ship.Symbol)

		// Nothing moved: the cache promised a buyer the live market
		// denies. Dump the rest instead of orbiting it forever.
		if ship.Cargo != nil && ship.Cargo.Units == before {
			logger.Warn("%s would not take any of %s, jettisoning", dest, ship.Cargo)
			return jettisonAll(ctx, deps, ship)
		}
	}
	return nil
}

func jettisonAll(ctx context.Context, deps *fleet.Deps, ship *ports.ShipData) error {
	for _, item := range append([]shared.CargoItem(nil), ship.Cargo.Inventory...) {
		cargo, err := deps.API.JettisonCargo(ctx, ship.Symbol, item.Symbol, item.Units)
		if err != nil {
			return fmt.Errorf("jettisoning %d %s: %w", item.Units, item.Symbol, err)
		}
		if cargo != nil {
			ship.Cargo = cargo
		}
	}
	return nil
}

// bestLiquidationMarket scores every cached market by the revenue the
// current cargo would fetch there per minute of round-trip travel.
func bestLiquidationMarket(ship *ports.ShipData, system *fleet.SystemState, prices []market.GoodPrice) string {
	offers := make(map[string]map[string]int)
	for _, p := range prices {
		if p.SellPrice <= 0 {
			continue
		}
		if offers[p.WaypointSymbol] == nil {
			offers[p.WaypointSymbol] = make(map[string]int)
		}
		if p.SellPrice > offers[p.WaypointSymbol][p.Good] {
			offers[p.WaypointSymbol][p.Good] = p.SellPrice
		}
	}

	waypoints := make([]string, 0, len(offers))
	for wp := range offers {
		waypoints = append(waypoints, wp)
	}
	sort.Strings(waypoints)

	from, haveFrom := system.Coords[ship.Nav.WaypointSymbol]
	best := ""
	bestScore := 0.0
	for _, wp := range waypoints {
		revenue := 0
		for _, item := range ship.Cargo.Inventory {
			revenue += offers[wp][item.Symbol] * item.Units
		}
		if revenue <= 0 {
			continue
		}

		seconds := market.TradeOverheadSeconds
		if to, ok := system.Coords[wp]; ok && haveFrom {
			dist := navigation.Distance(from, to)
			seconds += 2 * shared.FlightModeCruise.TravelTime(dist, ship.EngineSpeed)
		}
		score := float64(revenue) / (float64(seconds) / 60.0)
		if score > bestScore {
			bestScore = score
			best = wp
		}
	}
	return best
}

func dryBackoff(ctx context.Context, deps *fleet.Deps, logger common.MissionLogger, streak int) error {
	idx := streak - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(tradeDryBackoff) {
		idx = len(tradeDryBackoff) - 1
	}
	delay := tradeDryBackoff[idx]
	logger.Info("no viable trade, backing off %s", delay)
	return deps.State.Sleep(ctx, delay)
}

// routeBlacklist tracks routes that recently went dry so planning skips
// them until the TTL passes.
type routeBlacklist struct {
	clock   shared.Clock
	entries map[market.RouteKey]time.Time
}

func newRouteBlacklist(clock shared.Clock) *routeBlacklist {
	return &routeBlacklist{clock: clock, entries: make(map[market.RouteKey]time.Time)}
}

func (b *routeBlacklist) Add(key market.RouteKey) {
	b.entries[key] = b.clock.Now()
}

func (b *routeBlacklist) Prune() {
	cutoff := b.clock.Now().Add(-failedRouteTTL)
	for key, at := range b.entries {
		if at.Before(cutoff) {
			delete(b.entries, key)
		}
	}
}

func (b *routeBlacklist) MergeInto(excluded map[market.RouteKey]bool) {
	for key := range b.entries {
		excluded[key] = true
	}
}
