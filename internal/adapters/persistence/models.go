package persistence

import (
	"time"
)

// MarketPriceModel represents the market_prices table
// Database schema: one row per (waypoint, good) combination, replaced
// wholesale on every probe scan. Primary key is (waypoint_symbol, good_symbol).
type MarketPriceModel struct {
	WaypointSymbol string    `gorm:"column:waypoint_symbol;primaryKey;size:255;not null"`
	GoodSymbol     string    `gorm:"column:good_symbol;primaryKey;size:100;not null"`
	SystemSymbol   string    `gorm:"column:system_symbol;not null;index"`
	TradeType      string    `gorm:"column:trade_type;size:50"` // EXPORT, IMPORT, or EXCHANGE
	Supply         string    `gorm:"column:supply;size:50"`
	Activity       string    `gorm:"column:activity;size:50"`
	PurchasePrice  int       `gorm:"column:purchase_price;not null"`
	SellPrice      int       `gorm:"column:sell_price;not null"`
	TradeVolume    int       `gorm:"column:trade_volume;not null;default:0"`
	UpdatedAt      time.Time `gorm:"column:updated_at;not null;index"`
}

func (MarketPriceModel) TableName() string {
	return "market_prices"
}

// RouteClaimModel represents the route_claims table: one row per ship.
// Rows older than the claim TTL belong to crashed ships and are ignored.
type RouteClaimModel struct {
	ShipSymbol     string    `gorm:"column:ship_symbol;primaryKey;not null"`
	GoodSymbol     string    `gorm:"column:good_symbol;not null"`
	SourceWaypoint string    `gorm:"column:source_waypoint;not null"`
	DestWaypoint   string    `gorm:"column:dest_waypoint;not null"`
	ClaimedAt      time.Time `gorm:"column:claimed_at;not null"`
}

func (RouteClaimModel) TableName() string {
	return "route_claims"
}

// TradeLogModel represents the trade_log table (append-only P&L record)
type TradeLogModel struct {
	ID             int       `gorm:"column:id;primaryKey;autoIncrement"`
	ShipSymbol     string    `gorm:"column:ship_symbol;not null;index"`
	Side           string    `gorm:"column:side;not null"` // BUY or SELL
	GoodSymbol     string    `gorm:"column:good_symbol;not null"`
	Units          int       `gorm:"column:units;not null"`
	PricePerUnit   int       `gorm:"column:price_per_unit;not null"`
	TotalPrice     int       `gorm:"column:total_price;not null"`
	WaypointSymbol string    `gorm:"column:waypoint_symbol;not null"`
	AgentCredits   int       `gorm:"column:agent_credits;not null"`
	Mission        string    `gorm:"column:mission"` // trade, contract, gate_build
	CreatedAt      time.Time `gorm:"column:created_at;not null;index"`
}

func (TradeLogModel) TableName() string {
	return "trade_log"
}

// ExtractionLogModel represents the extraction_log table
type ExtractionLogModel struct {
	ID             int       `gorm:"column:id;primaryKey;autoIncrement"`
	ShipSymbol     string    `gorm:"column:ship_symbol;not null;index"`
	WaypointSymbol string    `gorm:"column:waypoint_symbol;not null"`
	GoodSymbol     string    `gorm:"column:good_symbol;not null"`
	Units          int       `gorm:"column:units;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;not null"`
}

func (ExtractionLogModel) TableName() string {
	return "extraction_log"
}

// AgentSnapshotModel represents the agent_snapshots table, the credits
// curve the commander samples every few cycles
type AgentSnapshotModel struct {
	ID        int       `gorm:"column:id;primaryKey;autoIncrement"`
	Credits   int       `gorm:"column:credits;not null"`
	ShipCount int       `gorm:"column:ship_count;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null;index"`
}

func (AgentSnapshotModel) TableName() string {
	return "agent_snapshots"
}
