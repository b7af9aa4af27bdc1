package fleet

import "sort"

// CapitalPolicy holds the credit thresholds that gate capital-intensive
// assignments.
type CapitalPolicy struct {
	GateFloor     int
	TradeMin      int
	IdleThreshold int
}

// DefaultCapitalPolicy returns the standard thresholds.
func DefaultCapitalPolicy() CapitalPolicy {
	return CapitalPolicy{
		GateFloor:     300_000,
		TradeMin:      50_000,
		IdleThreshold: 30_000,
	}
}

// WorldSnapshot is everything the strategy needs to decide. It is assembled
// by the commander from live API data and store queries; the strategy itself
// performs no I/O.
type WorldSnapshot struct {
	Credits               int
	Ships                 []ShipCapability
	CurrentAssignments    map[string]MissionKind
	HasActiveContract     bool
	ContractProfitable    bool
	GateNeedsSupplies     bool
	MarketRoutesAvailable bool
	SkipShips             map[string]bool
	Overrides             map[string]string
}

// Strategy evaluates world state and produces a FleetPlan.
//
// Business Rules (in priority order):
// 1. Skip-listed, overridden, disabled and sentinel ships are settled first.
// 2. Probes always scan.
// 3. Below the idle threshold every cargo ship parks.
// 4. Gate building gets the largest hauler when credits allow.
// 5. A profitable contract gets up to two ships.
// 6. Remaining haulers trade when routes exist and credits allow, else idle.
type Strategy struct {
	capital CapitalPolicy
}

// NewStrategy creates a strategy with the given capital policy.
func NewStrategy(capital CapitalPolicy) *Strategy {
	return &Strategy{capital: capital}
}

// Capital returns the policy the strategy decides with.
func (s *Strategy) Capital() CapitalPolicy {
	return s.capital
}

// Evaluate decides what each ship should do. Pure: same snapshot in, same
// plan out. Every ship in the snapshot receives exactly one assignment.
func (s *Strategy) Evaluate(world WorldSnapshot) FleetPlan {
	plan := NewFleetPlan()

	var probes []ShipCapability
	var cargoShips []ShipCapability

	for _, ship := range world.Ships {
		if world.SkipShips[ship.Symbol] {
			plan.Assign(ship.Symbol, MissionIdle, nil)
			continue
		}

		// Manual override takes absolute priority. An unparseable
		// override parks the ship rather than guessing.
		if raw, ok := world.Overrides[ship.Symbol]; ok {
			mission, err := ParseMissionKind(raw)
			if err != nil {
				mission = MissionIdle
			}
			plan.Assign(ship.Symbol, mission, nil)
			continue
		}

		switch ship.Category {
		case CategoryDisabled, CategorySentinel:
			plan.Assign(ship.Symbol, MissionIdle, nil)
		case CategoryProbe:
			probes = append(probes, ship)
		case CategoryShip:
			cargoShips = append(cargoShips, ship)
		default:
			plan.Assign(ship.Symbol, MissionIdle, nil)
		}
	}

	for _, probe := range probes {
		plan.Assign(probe.Symbol, MissionScan, nil)
	}

	if world.Credits < s.capital.IdleThreshold {
		for _, ship := range cargoShips {
			plan.Assign(ship.Symbol, MissionIdle, nil)
		}
		return plan
	}

	// Biggest hauler first.
	sort.SliceStable(cargoShips, func(i, j int) bool {
		return cargoShips[i].CargoCapacity > cargoShips[j].CargoCapacity
	})
	unassigned := cargoShips

	if world.GateNeedsSupplies && world.Credits >= s.capital.GateFloor && len(unassigned) > 0 {
		gateShip := unassigned[0]
		unassigned = unassigned[1:]
		plan.Assign(gateShip.Symbol, MissionGateBuild, map[string]any{
			"capital_floor": s.capital.GateFloor,
		})
	}

	const maxContractShips = 2
	if world.HasActiveContract && world.ContractProfitable {
		n := maxContractShips
		if len(unassigned) < n {
			n = len(unassigned)
		}
		for _, ship := range unassigned[:n] {
			plan.Assign(ship.Symbol, MissionContract, nil)
		}
		unassigned = unassigned[n:]
	}

	if world.MarketRoutesAvailable && world.Credits >= s.capital.TradeMin {
		for _, ship := range unassigned {
			plan.Assign(ship.Symbol, MissionTrade, nil)
		}
		unassigned = nil
	}

	for _, ship := range unassigned {
		plan.Assign(ship.Symbol, MissionIdle, nil)
	}

	return plan
}
