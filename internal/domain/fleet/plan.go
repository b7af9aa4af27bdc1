package fleet

// ShipAssignment pairs a ship with the mission it should run and the
// parameters the mission entry point receives.
type ShipAssignment struct {
	Mission MissionKind
	Params  map[string]any
}

// FleetPlan maps every known ship symbol to its assignment.
type FleetPlan struct {
	Assignments map[string]ShipAssignment
}

// NewFleetPlan creates an empty plan.
func NewFleetPlan() FleetPlan {
	return FleetPlan{Assignments: make(map[string]ShipAssignment)}
}

// Assign records an assignment for a ship.
func (p FleetPlan) Assign(ship string, mission MissionKind, params map[string]any) {
	p.Assignments[ship] = ShipAssignment{Mission: mission, Params: params}
}

// Get returns the assignment for a ship, defaulting to IDLE when absent.
func (p FleetPlan) Get(ship string) ShipAssignment {
	if a, ok := p.Assignments[ship]; ok {
		return a
	}
	return ShipAssignment{Mission: MissionIdle}
}

// ChangesFrom returns only the assignments whose mission differs from the
// current one. Parameter-only differences do not count as changes: a mission
// already in flight keeps the parameters it launched with.
func (p FleetPlan) ChangesFrom(current map[string]MissionKind) map[string]ShipAssignment {
	changes := make(map[string]ShipAssignment)
	for ship, assignment := range p.Assignments {
		if current[ship] != assignment.Mission {
			changes[ship] = assignment
		}
	}
	return changes
}
