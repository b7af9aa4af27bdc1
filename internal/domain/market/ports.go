package market

import (
	"context"
	"time"
)

// GoodPriceData is a live market observation to write through to the cache
type GoodPriceData struct {
	Symbol        string
	Type          string
	Supply        string
	Activity      string
	PurchasePrice int
	SellPrice     int
	TradeVolume   int
}

// PriceStore is the shared market price cache. Probes write through on
// every scan; traders and contractors plan from it. All ships share one
// store, so route claims live here too.
type PriceStore interface {
	// UpdateMarket replaces the cached prices for one waypoint
	UpdateMarket(ctx context.Context, waypointSymbol, systemSymbol string, goods []GoodPriceData) error

	// GetPrices returns the cached prices at one waypoint
	GetPrices(ctx context.Context, waypointSymbol string) ([]GoodPrice, error)

	// ListMarkets returns every cached market waypoint, optionally scoped
	// to a system (empty string means no scope)
	ListMarkets(ctx context.Context, systemSymbol string) ([]string, error)

	// ListSystemPrices returns every cached price in a system (planner input)
	ListSystemPrices(ctx context.Context, systemSymbol string) ([]GoodPrice, error)

	// StaleMarkets returns cached market waypoints whose oldest price is
	// older than maxAge
	StaleMarkets(ctx context.Context, maxAge time.Duration) ([]string, error)

	// FindBestBuy returns the cheapest place to buy a good, or nil when
	// no market sells it
	FindBestBuy(ctx context.Context, good, systemSymbol string) (*GoodPrice, error)

	// FindBestSell returns the best-paying place to sell a good, or nil
	// when no market buys it
	FindBestSell(ctx context.Context, good, systemSymbol string) (*GoodPrice, error)

	// HasProfitableRoutes reports whether any good has an exporter and an
	// importer in the system with a positive price spread
	HasProfitableRoutes(ctx context.Context, systemSymbol string) (bool, error)

	// ClaimRoute records that a ship is working a route. One claim per
	// ship: a new claim replaces the old one.
	ClaimRoute(ctx context.Context, shipSymbol string, key RouteKey) error

	// ReleaseRoute drops a ship's claim, if any
	ReleaseRoute(ctx context.Context, shipSymbol string) error

	// ClaimedRoutes returns routes claimed by other ships. Claims older
	// than maxAge are ignored (crashed ships expire off the board).
	ClaimedRoutes(ctx context.Context, excludeShip string, maxAge time.Duration) ([]RouteKey, error)
}
