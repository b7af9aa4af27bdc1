package market

import "time"

// Supply levels reported by markets, from tightest to loosest
const (
	SupplyScarce   = "SCARCE"
	SupplyLimited  = "LIMITED"
	SupplyModerate = "MODERATE"
	SupplyHigh     = "HIGH"
	SupplyAbundant = "ABUNDANT"
)

// Activity levels reported by markets
const (
	ActivityWeak       = "WEAK"
	ActivityGrowing    = "GROWING"
	ActivityStrong     = "STRONG"
	ActivityRestricted = "RESTRICTED"
)

// Trade good types: whether the market produces, consumes, or merely trades a good
const (
	TradeTypeExport   = "EXPORT"
	TradeTypeImport   = "IMPORT"
	TradeTypeExchange = "EXCHANGE"
)

// GoodPrice is a cached price record for one good at one market.
// Prices follow the ship's perspective: a ship pays PurchasePrice when
// buying from the market and receives SellPrice when selling to it.
type GoodPrice struct {
	WaypointSymbol string
	SystemSymbol   string
	Good           string
	Type           string // EXPORT, IMPORT, or EXCHANGE
	Supply         string
	Activity       string
	PurchasePrice  int
	SellPrice      int
	TradeVolume    int
	UpdatedAt      time.Time
}

// IsExport reports whether the market produces this good
func (p *GoodPrice) IsExport() bool {
	return p.Type == TradeTypeExport
}

// IsImport reports whether the market consumes this good
func (p *GoodPrice) IsImport() bool {
	return p.Type == TradeTypeImport
}

// Age returns how old the record is relative to now
func (p *GoodPrice) Age(now time.Time) time.Duration {
	return now.Sub(p.UpdatedAt)
}

// OldestAge returns the age of the stalest record in a market snapshot.
// Returns false when the snapshot is empty (market never scanned).
func OldestAge(prices []GoodPrice, now time.Time) (time.Duration, bool) {
	if len(prices) == 0 {
		return 0, false
	}
	oldest := prices[0].Age(now)
	for _, p := range prices[1:] {
		if age := p.Age(now); age > oldest {
			oldest = age
		}
	}
	return oldest, true
}
