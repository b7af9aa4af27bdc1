package market

import "fmt"

// RouteKey identifies a trade route for claims and blacklists
type RouteKey struct {
	Good        string
	Source      string
	Destination string
}

func (k RouteKey) String() string {
	return fmt.Sprintf("%s %s->%s", k.Good, k.Source, k.Destination)
}

// TradeRoute is a scored trade route: buy a good at the source market,
// sell it at the destination market.
type TradeRoute struct {
	Good          string
	Source        string
	Destination   string
	BuyPrice      int // what the ship pays per unit at the source
	SellPrice     int // what the ship receives per unit at the destination
	TradeVolume   int // max units per transaction at the source
	ProfitPerUnit int

	// Fuel costs in credits at the flat fuel price. LegFuelCredits covers
	// the trading leg both ways since the ship usually returns for more.
	DeadheadFuelCredits int
	LegFuelCredits      int

	DestSupply      string
	DestActivity    string
	DestTradeVolume int

	TripSeconds     int     // deadhead + leg + trade overhead
	NetProfit       int     // volume-capped gross minus all fuel
	ProfitPerMinute float64 // net profit / trip minutes, the ranking score
}

// Key returns the route's claim/blacklist key
func (r *TradeRoute) Key() RouteKey {
	return RouteKey{Good: r.Good, Source: r.Source, Destination: r.Destination}
}

func (r *TradeRoute) String() string {
	return fmt.Sprintf("%s %s->%s net=%+d %.0f/min",
		r.Good, r.Source, r.Destination, r.NetProfit, r.ProfitPerMinute)
}
