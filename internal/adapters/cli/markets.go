package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/spacetraders-fleet/internal/adapters/persistence"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/market"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/shared"
	"github.com/andrescamacho/spacetraders-fleet/internal/infrastructure/database"
)

// NewMarketsCommand creates the markets command that prints cached prices
func NewMarketsCommand() *cobra.Command {
	var (
		systemSymbol   string
		waypointSymbol string
		goodSymbol     string
	)

	cmd := &cobra.Command{
		Use:   "markets",
		Short: "Show cached market prices",
		Long: `Print the market prices the fleet's probes have cached, newest scan first.

Prices come from the local operations database, not the API, so this works
while the commander is running and costs no request budget.

Examples:
  fleet markets --system X1-GZ7
  fleet markets --waypoint X1-GZ7-A1
  fleet markets --system X1-GZ7 --good FUEL`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if systemSymbol == "" && waypointSymbol == "" {
				return fmt.Errorf("one of --system or --waypoint is required")
			}

			db, err := openDatabase()
			if err != nil {
				return err
			}
			defer database.Close(db)

			store := persistence.NewMarketStore(db, shared.NewRealClock())

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			var prices []market.GoodPrice
			if waypointSymbol != "" {
				prices, err = store.GetPrices(ctx, strings.ToUpper(waypointSymbol))
			} else {
				prices, err = store.ListSystemPrices(ctx, strings.ToUpper(systemSymbol))
			}
			if err != nil {
				return fmt.Errorf("failed to read market prices: %w", err)
			}

			if goodSymbol != "" {
				filtered := prices[:0]
				for _, p := range prices {
					if p.Good == strings.ToUpper(goodSymbol) {
						filtered = append(filtered, p)
					}
				}
				prices = filtered
			}

			if len(prices) == 0 {
				fmt.Println("No cached prices match; run the commander so probes can scan")
				return nil
			}

			fmt.Printf("%-14s %-22s %-9s %-9s %-8s %8s %8s %6s %5s\n",
				"WAYPOINT", "GOOD", "TYPE", "SUPPLY", "ACTIVITY", "BUY", "SELL", "VOL", "AGE")
			markets := map[string]bool{}
			for _, p := range prices {
				markets[p.WaypointSymbol] = true
				fmt.Printf("%-14s %-22s %-9s %-9s %-8s %8d %8d %6d %5s\n",
					p.WaypointSymbol, p.Good, p.Type, p.Supply, p.Activity,
					p.PurchasePrice, p.SellPrice, p.TradeVolume, formatAge(p.UpdatedAt))
			}
			fmt.Printf("\n%d goods across %d markets\n", len(prices), len(markets))

			return nil
		},
	}

	cmd.Flags().StringVar(&systemSymbol, "system", "", "System symbol, e.g. X1-GZ7")
	cmd.Flags().StringVar(&waypointSymbol, "waypoint", "", "Single waypoint symbol, e.g. X1-GZ7-A1")
	cmd.Flags().StringVar(&goodSymbol, "good", "", "Only show rows for this trade good")

	return cmd
}
