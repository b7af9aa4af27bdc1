package fleet

import (
	"context"
	"time"
)

// Trade sides recorded in the operations log
const (
	TradeSideBuy  = "BUY"
	TradeSideSell = "SELL"
)

// TradeRecord is one market transaction. At is assigned by the store.
type TradeRecord struct {
	Ship         string
	Side         string
	Good         string
	Units        int
	PricePerUnit int
	TotalPrice   int
	Waypoint     string
	AgentCredits int
	Mission      MissionKind
	At           time.Time
}

// AgentSnapshot is one point on the credits curve
type AgentSnapshot struct {
	Credits   int
	ShipCount int
	At        time.Time
}

// TradeTotals aggregates the trade log for P&L reporting
type TradeTotals struct {
	Trades int
	Bought int // credits spent buying
	Sold   int // credits received selling
}

// Net returns realized profit: credits received minus credits spent
func (t TradeTotals) Net() int {
	return t.Sold - t.Bought
}

// OperationsLog is the append-only record of what the fleet actually did:
// every buy, sell, extraction, and periodic agent snapshot. Missions write;
// the dashboard CLI reads.
type OperationsLog interface {
	RecordTrade(ctx context.Context, rec TradeRecord) error
	RecordExtraction(ctx context.Context, shipSymbol, waypointSymbol, goodSymbol string, units int) error
	SnapshotAgent(ctx context.Context, credits, shipCount int) error

	// ListTrades returns recent trades, newest first, optionally scoped to
	// one ship (empty string means all ships)
	ListTrades(ctx context.Context, shipSymbol string, limit int) ([]TradeRecord, error)

	// ListSnapshots returns recent agent snapshots, newest first
	ListSnapshots(ctx context.Context, limit int) ([]AgentSnapshot, error)

	// TradeTotals aggregates the log, optionally scoped to one mission
	// (empty string means all missions)
	TradeTotals(ctx context.Context, mission MissionKind) (*TradeTotals, error)
}
