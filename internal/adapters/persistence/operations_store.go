package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/andrescamacho/spacetraders-fleet/internal/domain/fleet"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/shared"
)

// OperationsStoreGORM implements fleet.OperationsLog using GORM
type OperationsStoreGORM struct {
	db    *gorm.DB
	clock shared.Clock
}

// NewOperationsStore creates a GORM-based operations log. A nil clock
// selects the real clock.
func NewOperationsStore(db *gorm.DB, clock shared.Clock) *OperationsStoreGORM {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &OperationsStoreGORM{db: db, clock: clock}
}

var _ fleet.OperationsLog = (*OperationsStoreGORM)(nil)

// RecordTrade appends one buy or sell to the trade log
func (s *OperationsStoreGORM) RecordTrade(ctx context.Context, rec fleet.TradeRecord) error {
	model := TradeLogModel{
		ShipSymbol:     rec.Ship,
		Side:           rec.Side,
		GoodSymbol:     rec.Good,
		Units:          rec.Units,
		PricePerUnit:   rec.PricePerUnit,
		TotalPrice:     rec.TotalPrice,
		WaypointSymbol: rec.Waypoint,
		AgentCredits:   rec.AgentCredits,
		Mission:        string(rec.Mission),
		CreatedAt:      s.clock.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("failed to record trade: %w", err)
	}
	return nil
}

// RecordExtraction appends one mining yield to the extraction log
func (s *OperationsStoreGORM) RecordExtraction(ctx context.Context, shipSymbol, waypointSymbol, goodSymbol string, units int) error {
	model := ExtractionLogModel{
		ShipSymbol:     shipSymbol,
		WaypointSymbol: waypointSymbol,
		GoodSymbol:     goodSymbol,
		Units:          units,
		CreatedAt:      s.clock.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("failed to record extraction: %w", err)
	}
	return nil
}

// SnapshotAgent appends one point on the agent credits curve
func (s *OperationsStoreGORM) SnapshotAgent(ctx context.Context, credits, shipCount int) error {
	model := AgentSnapshotModel{
		Credits:   credits,
		ShipCount: shipCount,
		CreatedAt: s.clock.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("failed to snapshot agent: %w", err)
	}
	return nil
}

// ListTrades returns recent trades, newest first
func (s *OperationsStoreGORM) ListTrades(ctx context.Context, shipSymbol string, limit int) ([]fleet.TradeRecord, error) {
	query := s.db.WithContext(ctx).Model(&TradeLogModel{})
	if shipSymbol != "" {
		query = query.Where("ship_symbol = ?", shipSymbol)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []TradeLogModel
	if err := query.Order("created_at DESC, id DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}

	trades := make([]fleet.TradeRecord, len(records))
	for i, record := range records {
		trades[i] = fleet.TradeRecord{
			Ship:         record.ShipSymbol,
			Side:         record.Side,
			Good:         record.GoodSymbol,
			Units:        record.Units,
			PricePerUnit: record.PricePerUnit,
			TotalPrice:   record.TotalPrice,
			Waypoint:     record.WaypointSymbol,
			AgentCredits: record.AgentCredits,
			Mission:      fleet.MissionKind(record.Mission),
			At:           record.CreatedAt,
		}
	}
	return trades, nil
}

// ListSnapshots returns recent agent snapshots, newest first
func (s *OperationsStoreGORM) ListSnapshots(ctx context.Context, limit int) ([]fleet.AgentSnapshot, error) {
	query := s.db.WithContext(ctx).Model(&AgentSnapshotModel{})
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []AgentSnapshotModel
	if err := query.Order("created_at DESC, id DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	snapshots := make([]fleet.AgentSnapshot, len(records))
	for i, record := range records {
		snapshots[i] = fleet.AgentSnapshot{
			Credits:   record.Credits,
			ShipCount: record.ShipCount,
			At:        record.CreatedAt,
		}
	}
	return snapshots, nil
}

// TradeTotals aggregates the trade log into buy/sell totals
func (s *OperationsStoreGORM) TradeTotals(ctx context.Context, mission fleet.MissionKind) (*fleet.TradeTotals, error) {
	query := s.db.WithContext(ctx).
		Table("trade_log").
		Select(
			"COUNT(*) AS trades, "+
				"COALESCE(SUM(CASE WHEN side = ? THEN total_price ELSE 0 END), 0) AS bought, "+
				"COALESCE(SUM(CASE WHEN side = ? THEN total_price ELSE 0 END), 0) AS sold",
			fleet.TradeSideBuy, fleet.TradeSideSell,
		)
	if mission != "" {
		query = query.Where("mission = ?", string(mission))
	}

	var row struct {
		Trades int
		Bought int
		Sold   int
	}
	if err := query.Scan(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate trades: %w", err)
	}

	return &fleet.TradeTotals{
		Trades: row.Trades,
		Bought: row.Bought,
		Sold:   row.Sold,
	}, nil
}
