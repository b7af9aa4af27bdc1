package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/spacetraders-fleet/internal/adapters/persistence"
	domainFleet "github.com/andrescamacho/spacetraders-fleet/internal/domain/fleet"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/shared"
	"github.com/andrescamacho/spacetraders-fleet/internal/infrastructure/database"
)

// NewTradesCommand creates the trades command that prints the trade log
func NewTradesCommand() *cobra.Command {
	var (
		shipSymbol string
		mission    string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "trades",
		Short: "Show the trade log",
		Long: `Print recent market transactions from the operations database, newest
first. With --mission, print the profit summary for one mission kind
instead of the row-by-row log.

Examples:
  fleet trades
  fleet trades --ship BADGER-3 --limit 50
  fleet trades --mission trade
  fleet trades --mission contract`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}

			var missionKind domainFleet.MissionKind
			if mission != "" {
				kind, err := domainFleet.ParseMissionKind(strings.ToLower(mission))
				if err != nil {
					return err
				}
				missionKind = kind
			}

			db, err := openDatabase()
			if err != nil {
				return err
			}
			defer database.Close(db)

			store := persistence.NewOperationsStore(db, shared.NewRealClock())

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if missionKind != "" {
				totals, err := store.TradeTotals(ctx, missionKind)
				if err != nil {
					return fmt.Errorf("failed to read trade totals: %w", err)
				}
				fmt.Printf("Mission %s: %d trades\n", missionKind, totals.Trades)
				fmt.Printf("  Bought: %10d\n", totals.Bought)
				fmt.Printf("  Sold:   %10d\n", totals.Sold)
				fmt.Printf("  Net:    %10d\n", totals.Net())
				return nil
			}

			trades, err := store.ListTrades(ctx, strings.ToUpper(shipSymbol), limit)
			if err != nil {
				return fmt.Errorf("failed to read trade log: %w", err)
			}
			if len(trades) == 0 {
				fmt.Println("No trades recorded yet")
				return nil
			}

			fmt.Printf("%-19s %-12s %-4s %-22s %6s %8s %10s %-14s %-9s\n",
				"WHEN", "SHIP", "SIDE", "GOOD", "UNITS", "UNIT", "TOTAL", "WAYPOINT", "MISSION")
			for _, t := range trades {
				fmt.Printf("%-19s %-12s %-4s %-22s %6d %8d %10d %-14s %-9s\n",
					formatTimestamp(t.At), t.Ship, t.Side, t.Good,
					t.Units, t.PricePerUnit, t.TotalPrice, t.Waypoint, t.Mission)
			}
			fmt.Printf("\n%d trades\n", len(trades))

			return nil
		},
	}

	cmd.Flags().StringVar(&shipSymbol, "ship", "", "Only show trades by this ship")
	cmd.Flags().StringVar(&mission, "mission", "", "Show profit totals for one mission kind (trade, contract, gate_build)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum rows to print")

	return cmd
}
