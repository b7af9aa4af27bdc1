package helpers

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/andrescamacho/spacetraders-fleet/internal/infrastructure/database"
)

// SharedTestDB is the singleton database used by the BDD suite. Scenario
// steps cannot take a *testing.T, so TestMain opens one database up front
// and every scenario truncates instead of reopening.
var SharedTestDB *gorm.DB

// InitializeSharedTestDB creates and migrates the shared test database.
// Called once in TestMain before running any scenarios.
func InitializeSharedTestDB() error {
	db, err := database.NewTestConnection()
	if err != nil {
		return fmt.Errorf("failed to open shared test database: %w", err)
	}

	SharedTestDB = db
	return nil
}

// TruncateAllTables clears every table so scenarios stay isolated
func TruncateAllTables() error {
	if SharedTestDB == nil {
		return fmt.Errorf("shared test database not initialized")
	}

	tables := []string{
		"market_prices",
		"route_claims",
		"trade_log",
		"extraction_log",
		"agent_snapshots",
	}

	for _, table := range tables {
		if err := SharedTestDB.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}

	return nil
}

// CloseSharedTestDB closes the shared database connection
func CloseSharedTestDB() error {
	if SharedTestDB == nil {
		return nil
	}
	return database.Close(SharedTestDB)
}
