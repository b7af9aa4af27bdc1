package config

import (
	"strings"
	"time"
)

// AgentConfig identifies the agent the commander plays as
type AgentConfig struct {
	// Callsign is the agent symbol, e.g. BADGER
	Callsign string `mapstructure:"callsign"`

	// Faction used when registering a new agent
	Faction string `mapstructure:"faction"`
}

// CommanderConfig tunes the fleet commander loop
type CommanderConfig struct {
	// EventTimeout bounds each wait for a mission event
	EventTimeout time.Duration `mapstructure:"event_timeout" validate:"required"`

	// MaxRestarts a crashing mission gets before its ship is parked
	MaxRestarts int `mapstructure:"max_restarts" validate:"min=1"`

	// SnapshotEvery counts commander cycles between agent snapshots
	SnapshotEvery int `mapstructure:"snapshot_every" validate:"min=1"`

	// SkipShips lists hulls the commander must leave alone
	SkipShips []string `mapstructure:"skip_ships"`

	// Ships carries operator metadata keyed by ship symbol
	Ships map[string]ShipConfig `mapstructure:"ships" validate:"omitempty,dive"`

	// ScanMaxAge is how stale a market may get before probes revisit it
	ScanMaxAge time.Duration `mapstructure:"scan_max_age"`

	// GateSources pins a construction material to an export waypoint,
	// e.g. FAB_MATS: X1-AB1-C3. Unpinned materials use the cheapest
	// cached source.
	GateSources map[string]string `mapstructure:"gate_sources"`
}

// ShipConfig is per-ship operator metadata
type ShipConfig struct {
	// Name is the nickname used in log prefixes
	Name string `mapstructure:"name"`

	// Category overrides automatic hull classification
	Category string `mapstructure:"category" validate:"omitempty,oneof=probe ship sentinel disabled"`
}

// Names returns the symbol to nickname map the ship registry is built from.
// Viper lowercases map keys; the registry normalizes them back.
func (c *CommanderConfig) Names() map[string]string {
	names := make(map[string]string, len(c.Ships))
	for symbol, ship := range c.Ships {
		if ship.Name != "" {
			names[symbol] = ship.Name
		}
	}
	return names
}

// Categories returns the symbol to category-override map.
func (c *CommanderConfig) Categories() map[string]string {
	categories := make(map[string]string, len(c.Ships))
	for symbol, ship := range c.Ships {
		if ship.Category != "" {
			categories[symbol] = ship.Category
		}
	}
	return categories
}

// SkipSet returns SkipShips as a lookup set keyed the way the API spells
// ship symbols.
func (c *CommanderConfig) SkipSet() map[string]bool {
	skip := make(map[string]bool, len(c.SkipShips))
	for _, symbol := range c.SkipShips {
		skip[strings.ToUpper(symbol)] = true
	}
	return skip
}

// GateSourceMap returns gate_sources keyed by upper-case good symbol, the
// spelling the game uses, regardless of how the config file spelled them.
func (c *CommanderConfig) GateSourceMap() map[string]string {
	sources := make(map[string]string, len(c.GateSources))
	for good, waypoint := range c.GateSources {
		sources[strings.ToUpper(good)] = strings.ToUpper(waypoint)
	}
	return sources
}

// CapitalConfig sets the credit thresholds the strategy decides with
type CapitalConfig struct {
	// GateFloor is the working capital kept liquid while building the gate
	GateFloor int `mapstructure:"gate_floor" validate:"min=0"`

	// TradeMin is the minimum balance before trade missions launch
	TradeMin int `mapstructure:"trade_min" validate:"min=0"`

	// IdleThreshold parks cargo ships when the balance drops under it
	IdleThreshold int `mapstructure:"idle_threshold" validate:"min=0"`
}
