package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/andrescamacho/spacetraders-fleet/internal/domain/market"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/shared"
)

// MarketStoreGORM implements market.PriceStore using GORM
type MarketStoreGORM struct {
	db    *gorm.DB
	clock shared.Clock
}

// NewMarketStore creates a GORM-based price store. A nil clock selects the
// real clock.
func NewMarketStore(db *gorm.DB, clock shared.Clock) *MarketStoreGORM {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &MarketStoreGORM{db: db, clock: clock}
}

var _ market.PriceStore = (*MarketStoreGORM)(nil)

func (m MarketPriceModel) toDomain() market.GoodPrice {
	return market.GoodPrice{
		WaypointSymbol: m.WaypointSymbol,
		SystemSymbol:   m.SystemSymbol,
		Good:           m.GoodSymbol,
		Type:           m.TradeType,
		Supply:         m.Supply,
		Activity:       m.Activity,
		PurchasePrice:  m.PurchasePrice,
		SellPrice:      m.SellPrice,
		TradeVolume:    m.TradeVolume,
		UpdatedAt:      m.UpdatedAt,
	}
}

// UpdateMarket replaces the cached prices for one waypoint.
// Delete-then-insert in one transaction: goods vanish from markets, so a
// row-by-row upsert would leave ghosts behind.
func (s *MarketStoreGORM) UpdateMarket(ctx context.Context, waypointSymbol, systemSymbol string, goods []market.GoodPriceData) error {
	now := s.clock.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("waypoint_symbol = ?", waypointSymbol).
			Delete(&MarketPriceModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete old market prices: %w", err)
		}

		if len(goods) == 0 {
			return nil
		}

		records := make([]MarketPriceModel, len(goods))
		for i, good := range goods {
			records[i] = MarketPriceModel{
				WaypointSymbol: waypointSymbol,
				GoodSymbol:     good.Symbol,
				SystemSymbol:   systemSymbol,
				TradeType:      good.Type,
				Supply:         good.Supply,
				Activity:       good.Activity,
				PurchasePrice:  good.PurchasePrice,
				SellPrice:      good.SellPrice,
				TradeVolume:    good.TradeVolume,
				UpdatedAt:      now,
			}
		}
		if err := tx.Create(&records).Error; err != nil {
			return fmt.Errorf("failed to insert market prices: %w", err)
		}
		return nil
	})
}

// GetPrices returns the cached prices at one waypoint
func (s *MarketStoreGORM) GetPrices(ctx context.Context, waypointSymbol string) ([]market.GoodPrice, error) {
	var records []MarketPriceModel
	err := s.db.WithContext(ctx).
		Where("waypoint_symbol = ?", waypointSymbol).
		Order("good_symbol ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get prices: %w", err)
	}

	prices := make([]market.GoodPrice, len(records))
	for i, record := range records {
		prices[i] = record.toDomain()
	}
	return prices, nil
}

// ListMarkets returns every cached market waypoint, optionally scoped to a system
func (s *MarketStoreGORM) ListMarkets(ctx context.Context, systemSymbol string) ([]string, error) {
	query := s.db.WithContext(ctx).Model(&MarketPriceModel{})
	if systemSymbol != "" {
		query = query.Where("system_symbol = ?", systemSymbol)
	}

	var waypoints []string
	err := query.Distinct("waypoint_symbol").
		Order("waypoint_symbol ASC").
		Pluck("waypoint_symbol", &waypoints).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list markets: %w", err)
	}
	return waypoints, nil
}

// ListSystemPrices returns every cached price in a system (planner input)
func (s *MarketStoreGORM) ListSystemPrices(ctx context.Context, systemSymbol string) ([]market.GoodPrice, error) {
	var records []MarketPriceModel
	err := s.db.WithContext(ctx).
		Where("system_symbol = ?", systemSymbol).
		Order("waypoint_symbol ASC, good_symbol ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list system prices: %w", err)
	}

	prices := make([]market.GoodPrice, len(records))
	for i, record := range records {
		prices[i] = record.toDomain()
	}
	return prices, nil
}

// StaleMarkets returns cached market waypoints whose oldest record predates
// the staleness cutoff
func (s *MarketStoreGORM) StaleMarkets(ctx context.Context, maxAge time.Duration) ([]string, error) {
	cutoff := s.clock.Now().Add(-maxAge)

	var waypoints []string
	err := s.db.WithContext(ctx).
		Model(&MarketPriceModel{}).
		Select("waypoint_symbol").
		Group("waypoint_symbol").
		Having("MIN(updated_at) < ?", cutoff).
		Order("waypoint_symbol ASC").
		Pluck("waypoint_symbol", &waypoints).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find stale markets: %w", err)
	}
	return waypoints, nil
}

// FindBestBuy returns the cheapest place to buy a good, or nil when no
// cached market sells it
func (s *MarketStoreGORM) FindBestBuy(ctx context.Context, good, systemSymbol string) (*market.GoodPrice, error) {
	return s.findBest(ctx, good, systemSymbol, "purchase_price ASC")
}

// FindBestSell returns the best-paying place to sell a good, or nil when
// no cached market buys it
func (s *MarketStoreGORM) FindBestSell(ctx context.Context, good, systemSymbol string) (*market.GoodPrice, error) {
	return s.findBest(ctx, good, systemSymbol, "sell_price DESC")
}

func (s *MarketStoreGORM) findBest(ctx context.Context, good, systemSymbol, order string) (*market.GoodPrice, error) {
	query := s.db.WithContext(ctx).Where("good_symbol = ?", good)
	if systemSymbol != "" {
		query = query.Where("system_symbol = ?", systemSymbol)
	}

	var records []MarketPriceModel
	if err := query.Order(order).Limit(1).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to find best market for %s: %w", good, err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	price := records[0].toDomain()
	return &price, nil
}

// HasProfitableRoutes reports whether any good has an exporter and an
// importer in the system with a positive price spread
func (s *MarketStoreGORM) HasProfitableRoutes(ctx context.Context, systemSymbol string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Table("market_prices AS src").
		Joins("JOIN market_prices AS dst ON dst.good_symbol = src.good_symbol").
		Where("src.system_symbol = ? AND dst.system_symbol = ?", systemSymbol, systemSymbol).
		Where("src.trade_type = ? AND dst.trade_type = ?", market.TradeTypeExport, market.TradeTypeImport).
		Where("dst.sell_price > src.purchase_price").
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check for profitable routes: %w", err)
	}
	return count > 0, nil
}

// ClaimRoute records that a ship is working a route; a new claim replaces
// the ship's old one
func (s *MarketStoreGORM) ClaimRoute(ctx context.Context, shipSymbol string, key market.RouteKey) error {
	claim := RouteClaimModel{
		ShipSymbol:     shipSymbol,
		GoodSymbol:     key.Good,
		SourceWaypoint: key.Source,
		DestWaypoint:   key.Destination,
		ClaimedAt:      s.clock.Now(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ship_symbol"}},
		UpdateAll: true,
	}).Create(&claim).Error
	if err != nil {
		return fmt.Errorf("failed to claim route: %w", err)
	}
	return nil
}

// ReleaseRoute drops a ship's claim, if any
func (s *MarketStoreGORM) ReleaseRoute(ctx context.Context, shipSymbol string) error {
	err := s.db.WithContext(ctx).
		Where("ship_symbol = ?", shipSymbol).
		Delete(&RouteClaimModel{}).Error
	if err != nil {
		return fmt.Errorf("failed to release route: %w", err)
	}
	return nil
}

// ClaimedRoutes returns routes claimed by other ships. Stale claims are
// pruned here rather than ignored, so crashed ships expire off the board.
func (s *MarketStoreGORM) ClaimedRoutes(ctx context.Context, excludeShip string, maxAge time.Duration) ([]market.RouteKey, error) {
	cutoff := s.clock.Now().Add(-maxAge)

	if err := s.db.WithContext(ctx).
		Where("claimed_at < ?", cutoff).
		Delete(&RouteClaimModel{}).Error; err != nil {
		return nil, fmt.Errorf("failed to prune stale claims: %w", err)
	}

	var records []RouteClaimModel
	err := s.db.WithContext(ctx).
		Where("ship_symbol <> ?", excludeShip).
		Order("ship_symbol ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list claimed routes: %w", err)
	}

	routes := make([]market.RouteKey, len(records))
	for i, record := range records {
		routes[i] = market.RouteKey{
			Good:        record.GoodSymbol,
			Source:      record.SourceWaypoint,
			Destination: record.DestWaypoint,
		}
	}
	return routes, nil
}
