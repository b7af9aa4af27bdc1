package shared

import (
	"fmt"
	"math"
	"strings"
)

// TraitMarketplace marks waypoints that buy and sell goods (and sell fuel).
const (
	TraitMarketplace = "MARKETPLACE"
	TraitShipyard    = "SHIPYARD"
)

// Waypoint represents an immutable location in space
type Waypoint struct {
	Symbol       string   `json:"symbol"`
	X            float64  `json:"x"`
	Y            float64  `json:"y"`
	SystemSymbol string   `json:"systemSymbol"`
	Type         string   `json:"type"`
	Traits       []string `json:"traits,omitempty"`
}

// NewWaypoint creates a new waypoint with validation
func NewWaypoint(symbol string, x, y float64) (*Waypoint, error) {
	if symbol == "" {
		return nil, NewValidationError("symbol", "cannot be empty")
	}

	return &Waypoint{
		Symbol:       symbol,
		X:            x,
		Y:            y,
		SystemSymbol: ExtractSystemSymbol(symbol),
		Traits:       []string{},
	}, nil
}

// HasTrait reports whether the waypoint carries the named trait
func (w *Waypoint) HasTrait(trait string) bool {
	for _, t := range w.Traits {
		if t == trait {
			return true
		}
	}
	return false
}

// HasMarketplace reports whether goods (including fuel) can be traded here
func (w *Waypoint) HasMarketplace() bool {
	return w.HasTrait(TraitMarketplace)
}

// DistanceTo calculates Euclidean distance to another waypoint
func (w *Waypoint) DistanceTo(other *Waypoint) float64 {
	dx := other.X - w.X
	dy := other.Y - w.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// FindNearestWaypoint returns the nearest waypoint from a list and its distance.
// Returns nil and 0 if targets list is empty.
func FindNearestWaypoint(from *Waypoint, targets []*Waypoint) (*Waypoint, float64) {
	if len(targets) == 0 {
		return nil, 0
	}

	nearest := targets[0]
	minDistance := from.DistanceTo(targets[0])

	for _, target := range targets[1:] {
		distance := from.DistanceTo(target)
		if distance < minDistance {
			minDistance = distance
			nearest = target
		}
	}

	return nearest, minDistance
}

func (w *Waypoint) String() string {
	return fmt.Sprintf("Waypoint(%s)", w.Symbol)
}

// ExtractSystemSymbol extracts the system symbol from a waypoint symbol.
// Waypoint symbols have the form SECTOR-SYSTEM-LOCATION; the system symbol
// is the first two segments. Example: "X1-AB12-C3D4" -> "X1-AB12".
// Inputs with fewer than three segments are returned unchanged.
func ExtractSystemSymbol(waypointSymbol string) string {
	parts := strings.Split(waypointSymbol, "-")
	if len(parts) < 3 {
		return waypointSymbol
	}
	return parts[0] + "-" + parts[1]
}
