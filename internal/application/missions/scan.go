package missions

import (
	"context"
	"errors"
	"fmt"
	"math"
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
	// scanIdleSleep is the nap between staleness sweeps when every market
	// is fresh
	scanIdleSleep = 5 * time.Minute

	// defaultScanMaxAge applies when the config leaves the probe refresh
	// age unset
	defaultScanMaxAge = 90 * time.Minute
)

// Scan keeps the price cache fresh. The probe tours every marketplace in its
// system nearest-neighbor first; once the cache is warm, later cycles only
// visit markets whose prices have gone stale. Probes fly DRIFT since they
// are solar and a scan has no deadline. Several probes can share a system,
// the store's timestamps keep them from duplicating work.
func Scan(ctx context.Context, deps *fleet.Deps, ship *ports.ShipData, params map[string]any) (retErr error) {
	logger := common.LoggerFromContext(ctx)
	symbol := ship.Symbol
	visited := 0

	defer func() {
		if errors.Is(retErr, fleet.ErrShutdown) || errors.Is(retErr, context.Canceled) {
			deps.State.Emit(domainFleet.NewEvent(domainFleet.EventScanComplete, symbol, map[string]any{
				"visited": visited,
			}))
		}
	}()

	ship, err := awaitArrival(ctx, deps, symbol)
	if err != nil {
		return err
	}
	system, err := deps.State.EnsureSystem(ctx, deps.API, ship.Nav.SystemSymbol)
	if err != nil {
		return fmt.Errorf("loading system intel for %s: %w", ship.Nav.SystemSymbol, err)
	}
	if len(system.MarketWaypoints) == 0 {
		return shared.NewMissionError(symbol, string(domainFleet.MissionScan), "system "+system.Symbol+" has no marketplaces")
	}

	maxAge := deps.ScanMaxAge
	if maxAge <= 0 {
		maxAge = defaultScanMaxAge
	}

	firstCycle := true
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if deps.State.ShuttingDown() {
			return fleet.ErrShutdown
		}

		targets := system.MarketWaypoints
		if !firstCycle {
			targets = staleTargets(ctx, deps, system.MarketWaypoints, maxAge)
		}
		if len(targets) == 0 {
			logger.Info("all %d markets fresh, idling %s", len(system.MarketWaypoints), scanIdleSleep)
			if err := deps.State.Sleep(ctx, scanIdleSleep); err != nil {
				return err
			}
			continue
		}

		tour := nearestNeighborTour(system, ship.Nav.WaypointSymbol, targets)
		logger.Info("scan cycle: %d stops", len(tour))

		for _, stop := range tour {
			if err := ctx.Err(); err != nil {
				return err
			}
			if deps.State.ShuttingDown() {
				return fleet.ErrShutdown
			}

			// Another probe may have beaten us here
			if !firstCycle && !marketIsStale(ctx, deps, stop, maxAge) {
				logger.Info("skipping %s, already fresh", stop)
				continue
			}

			ship, err = navigateShip(ctx, deps, symbol, stop, shared.FlightModeDrift)
			if err != nil {
				return err
			}
			if err := ensureDocked(ctx, deps, ship); err != nil {
				return err
			}
			data, err := refreshMarket(ctx, deps, system.Symbol, stop)
			if err != nil {
				return err
			}
			visited++
			logger.Info("scanned %s (%d goods)", stop, len(data.TradeGoods))
		}
		firstCycle = false
	}
}

// staleTargets filters the system's markets down to the ones the cache no
// longer covers.
func staleTargets(ctx context.Context, deps *fleet.Deps, waypoints []string, maxAge time.Duration) []string {
	stale := make([]string, 0, len(waypoints))
	for _, wp := range waypoints {
		if marketIsStale(ctx, deps, wp, maxAge) {
			stale = append(stale, wp)
		}
	}
	return stale
}

// marketIsStale reports whether a market needs a visit. Never-scanned and
// unreadable both count as stale, a visit can only improve either.
func marketIsStale(ctx context.Context, deps *fleet.Deps, waypointSymbol string, maxAge time.Duration) bool {
	prices, err := deps.Markets.GetPrices(ctx, waypointSymbol)
	if err != nil || len(prices) == 0 {
		return true
	}
	age, ok := market.OldestAge(prices, deps.State.Clock().Now())
	return !ok || age > maxAge
}

// nearestNeighborTour orders stops by repeatedly picking the closest
// unvisited one. Not optimal, but within a few percent for the waypoint
// counts a system has, and it never doubles back across the map.
func nearestNeighborTour(system *fleet.SystemState, from string, stops []string) []string {
	remaining := append([]string(nil), stops...)
	sort.Strings(remaining)

	tour := make([]string, 0, len(remaining))
	pos, havePos := system.Coords[from]
	for len(remaining) > 0 {
		next := 0
		if havePos {
			bestDist := math.Inf(1)
			for i, wp := range remaining {
				p, ok := system.Coords[wp]
				if !ok {
					continue
				}
				if d := navigation.Distance(pos, p); d < bestDist {
					bestDist = d
					next = i
				}
			}
		}
		stop := remaining[next]
		remaining = append(remaining[:next], remaining[next+1:]...)
		tour = append(tour, stop)
		if p, ok := system.Coords[stop]; ok {
			pos = p
			havePos = true
		}
	}
	return tour
}
