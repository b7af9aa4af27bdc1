package fleet

import "strings"

// ShipCategory classifies what work a hull can do.
type ShipCategory string

const (
	// CategoryProbe marks solar-powered scouts: zero cargo, zero fuel.
	CategoryProbe ShipCategory = "probe"
	// CategoryShip marks general cargo haulers eligible for trade,
	// contract and gate-build work.
	CategoryShip ShipCategory = "ship"
	// CategorySentinel marks hulls managed outside the commander
	// (mining drones, surveyors). The strategy always parks them.
	CategorySentinel ShipCategory = "sentinel"
	// CategoryDisabled marks hulls the operator has taken out of rotation.
	CategoryDisabled ShipCategory = "disabled"
)

var validCategories = map[ShipCategory]bool{
	CategoryProbe:    true,
	CategoryShip:     true,
	CategorySentinel: true,
	CategoryDisabled: true,
}

// IsValid reports whether the category is one of the known values.
func (c ShipCategory) IsValid() bool {
	return validCategories[c]
}

// ShipCapability is the flat view of a ship the strategy decides over.
type ShipCapability struct {
	Symbol         string
	CargoCapacity  int
	FuelCapacity   int
	Category       ShipCategory
	CurrentMission MissionKind
}

// Registry holds operator-maintained ship metadata: nicknames for logs and
// category overrides for hulls the live API data cannot classify.
type Registry struct {
	names      map[string]string
	categories map[string]ShipCategory
}

// NewRegistry builds a registry from config maps. Nil maps are fine.
func NewRegistry(names map[string]string, categories map[string]string) *Registry {
	r := &Registry{
		names:      make(map[string]string, len(names)),
		categories: make(map[string]ShipCategory, len(categories)),
	}
	for symbol, name := range names {
		r.names[strings.ToUpper(symbol)] = name
	}
	for symbol, cat := range categories {
		category := ShipCategory(strings.ToLower(cat))
		if category.IsValid() {
			r.categories[strings.ToUpper(symbol)] = category
		}
	}
	return r
}

// Name returns the nickname for a ship, or the symbol if none is registered.
func (r *Registry) Name(symbol string) string {
	if r == nil {
		return symbol
	}
	if name, ok := r.names[strings.ToUpper(symbol)]; ok {
		return name
	}
	return symbol
}

// Categorize resolves a ship's category: an operator override wins, otherwise
// hulls with no cargo hold and no fuel tank are probes, everything else is a
// regular ship.
func (r *Registry) Categorize(symbol string, cargoCapacity, fuelCapacity int) ShipCategory {
	if r != nil {
		if cat, ok := r.categories[strings.ToUpper(symbol)]; ok {
			return cat
		}
	}
	if cargoCapacity == 0 && fuelCapacity == 0 {
		return CategoryProbe
	}
	return CategoryShip
}
