package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/spacetraders-fleet/internal/adapters/persistence"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/shared"
	"github.com/andrescamacho/spacetraders-fleet/internal/infrastructure/database"
)

// NewSnapshotsCommand creates the snapshots command that prints the credits
// curve
func NewSnapshotsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Show agent credit snapshots",
		Long: `Print periodic agent snapshots from the operations database, newest
first. The commander writes one every few event cycles, so the column of
credit deltas reads as the fleet's earning rate.

Examples:
  fleet snapshots
  fleet snapshots --limit 100`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}

			db, err := openDatabase()
			if err != nil {
				return err
			}
			defer database.Close(db)

			store := persistence.NewOperationsStore(db, shared.NewRealClock())

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			snapshots, err := store.ListSnapshots(ctx, limit)
			if err != nil {
				return fmt.Errorf("failed to read snapshots: %w", err)
			}
			if len(snapshots) == 0 {
				fmt.Println("No snapshots recorded yet")
				return nil
			}

			fmt.Printf("%-19s %12s %10s %6s\n", "WHEN", "CREDITS", "DELTA", "SHIPS")
			for i, snap := range snapshots {
				delta := "-"
				if i+1 < len(snapshots) {
					delta = fmt.Sprintf("%+d", snap.Credits-snapshots[i+1].Credits)
				}
				fmt.Printf("%-19s %12d %10s %6d\n",
					formatTimestamp(snap.At), snap.Credits, delta, snap.ShipCount)
			}

			first := snapshots[len(snapshots)-1]
			last := snapshots[0]
			fmt.Printf("\n%d snapshots, %+d credits since %s\n",
				len(snapshots), last.Credits-first.Credits, formatTimestamp(first.At))

			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum rows to print")

	return cmd
}
