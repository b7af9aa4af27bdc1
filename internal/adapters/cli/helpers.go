package cli

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/andrescamacho/spacetraders-fleet/internal/infrastructure/config"
	"github.com/andrescamacho/spacetraders-fleet/internal/infrastructure/database"
)

// openDatabase opens the operations database for the read-path commands.
// Read paths work with config defaults, so a missing config file is fine;
// migration makes a fresh database print empty tables instead of erroring.
func openDatabase() (*gorm.DB, error) {
	cfg := config.LoadConfigOrDefault(configPath)

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		database.Close(db)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// formatAge renders how long ago a record was written, coarsely
func formatAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	age := time.Since(t)
	switch {
	case age < time.Minute:
		return fmt.Sprintf("%ds", int(age.Seconds()))
	case age < time.Hour:
		return fmt.Sprintf("%dm", int(age.Minutes()))
	case age < 48*time.Hour:
		return fmt.Sprintf("%dh", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd", int(age.Hours()/24))
	}
}

// formatTimestamp renders a record time in local clock time
func formatTimestamp(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}
