package market

import (
	"sort"

	"github.com/andrescamacho/spacetraders-fleet/internal/domain/navigation"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/shared"
)

const (
	// FuelPriceCredits is the flat per-unit fuel price, consistent across markets
	FuelPriceCredits = 72

	// TradeOverheadSeconds per trip: dock + buy batches + dock + sell batches + refuel
	TradeOverheadSeconds = 30
)

// RouteQuery carries the ship and world context for route planning
type RouteQuery struct {
	ShipWaypoint  string
	CargoCapacity int
	FuelCapacity  int
	EngineSpeed   int
	Credits       int
	Coords        map[string]navigation.Point
	FuelWaypoints map[string]bool
	Excluded      map[RouteKey]bool
}

// FindBestRoutes scans a price snapshot for profitable trade routes.
//
// Compares every EXPORT good at every market against every IMPORT of the
// same good at every other market, accounting for fuel cost, deadhead, and
// travel time. Legs beyond direct fuel range are planned through refuel
// stops; routes with no feasible path are dropped, as are routes claimed by
// other ships, blacklisted routes, and routes whose single batch costs more
// than the available credits. Results are ranked by profit per minute.
func FindBestRoutes(prices []GoodPrice, q RouteQuery) []TradeRoute {
	exports := make(map[string][]GoodPrice)
	imports := make(map[string][]GoodPrice)
	for _, p := range prices {
		switch p.Type {
		case TradeTypeExport:
			exports[p.Good] = append(exports[p.Good], p)
		case TradeTypeImport:
			imports[p.Good] = append(imports[p.Good], p)
		}
	}

	goods := make([]string, 0, len(exports))
	for good := range exports {
		goods = append(goods, good)
	}
	sort.Strings(goods)

	var routes []TradeRoute
	for _, good := range goods {
		for _, src := range exports[good] {
			for _, dst := range imports[good] {
				if route, ok := scoreRoute(good, src, dst, q); ok {
					routes = append(routes, route)
				}
			}
		}
	}

	sort.SliceStable(routes, func(i, j int) bool {
		return routes[i].ProfitPerMinute > routes[j].ProfitPerMinute
	})
	return routes
}

func scoreRoute(good string, src, dst GoodPrice, q RouteQuery) (TradeRoute, bool) {
	if src.WaypointSymbol == dst.WaypointSymbol {
		return TradeRoute{}, false
	}
	key := RouteKey{Good: good, Source: src.WaypointSymbol, Destination: dst.WaypointSymbol}
	if q.Excluded[key] {
		return TradeRoute{}, false
	}

	profitPerUnit := dst.SellPrice - src.PurchasePrice
	if profitPerUnit <= 0 {
		return TradeRoute{}, false
	}

	// Skip routes we cannot afford even one batch of
	if src.PurchasePrice*src.TradeVolume > q.Credits {
		return TradeRoute{}, false
	}

	deadheadFuel := navigation.EstimateFuelOneWay(q.Coords, q.ShipWaypoint, src.WaypointSymbol)
	legFuel := navigation.EstimateFuelOneWay(q.Coords, src.WaypointSymbol, dst.WaypointSymbol)

	deadheadSeconds := 0
	if deadheadFuel > 0 && deadheadFuel != navigation.UnknownFuelEstimate {
		deadheadSeconds = cruiseSeconds(q.Coords, q.ShipWaypoint, src.WaypointSymbol, q.EngineSpeed)
	}
	legSeconds := cruiseSeconds(q.Coords, src.WaypointSymbol, dst.WaypointSymbol, q.EngineSpeed)

	// Legs beyond one tank go through the refueling planner
	if deadheadFuel > q.FuelCapacity {
		plan := planLeg(q, q.ShipWaypoint, src.WaypointSymbol)
		if !plan.Feasible {
			return TradeRoute{}, false
		}
		deadheadFuel = plan.TotalFuel
		deadheadSeconds = plan.TotalSeconds
	}
	if legFuel > q.FuelCapacity {
		plan := planLeg(q, src.WaypointSymbol, dst.WaypointSymbol)
		if !plan.Feasible {
			return TradeRoute{}, false
		}
		legFuel = plan.TotalFuel
		legSeconds = plan.TotalSeconds
	}

	legFuelCredits := legFuel * 2 * FuelPriceCredits // trading legs run round trips
	deadheadFuelCredits := deadheadFuel * FuelPriceCredits

	safeUnits := SafeSellVolume(dst.Supply, dst.Activity, dst.TradeVolume, q.CargoCapacity)
	net := profitPerUnit*safeUnits - legFuelCredits - deadheadFuelCredits
	if net <= 0 {
		return TradeRoute{}, false
	}

	tripSeconds := deadheadSeconds + legSeconds + TradeOverheadSeconds
	ppm := 0.0
	if tripSeconds > 0 {
		ppm = float64(net) / float64(tripSeconds) * 60
	}

	return TradeRoute{
		Good:                good,
		Source:              src.WaypointSymbol,
		Destination:         dst.WaypointSymbol,
		BuyPrice:            src.PurchasePrice,
		SellPrice:           dst.SellPrice,
		TradeVolume:         src.TradeVolume,
		ProfitPerUnit:       profitPerUnit,
		DeadheadFuelCredits: deadheadFuelCredits,
		LegFuelCredits:      legFuelCredits,
		DestSupply:          dst.Supply,
		DestActivity:        dst.Activity,
		DestTradeVolume:     dst.TradeVolume,
		TripSeconds:         tripSeconds,
		NetProfit:           net,
		ProfitPerMinute:     ppm,
	}, true
}

func planLeg(q RouteQuery, from, to string) navigation.RoutePlan {
	if len(q.FuelWaypoints) == 0 {
		return navigation.RoutePlan{Feasible: false, Reason: "no fuel waypoints"}
	}
	return navigation.PlanMultihop(q.Coords, q.FuelWaypoints, from, to, q.FuelCapacity, q.EngineSpeed, shared.FlightModeCruise)
}

func cruiseSeconds(coords map[string]navigation.Point, from, to string, speed int) int {
	a, okA := coords[from]
	b, okB := coords[to]
	if !okA || !okB {
		return 0
	}
	dist := navigation.Distance(a, b)
	if dist == 0 {
		return 0
	}
	return shared.FlightModeCruise.TravelTime(dist, speed)
}
