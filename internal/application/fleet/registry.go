package fleet

import (
	"context"
	"sort"
	"time"

	"github.com/andrescamacho/spacetraders-fleet/internal/domain/contract"
	domainFleet "github.com/andrescamacho/spacetraders-fleet/internal/domain/fleet"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/market"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/ports"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/shared"
)

// Deps bundles everything a mission touches: the shared API client, the
// shared state, the stores, and the fleet-wide contract board. One value is
// built at startup and handed to every agent.
type Deps struct {
	API       ports.APIClient
	State     *FleetState
	Markets   market.PriceStore
	Ops       domainFleet.OperationsLog
	Contracts *contract.State
	Clock     shared.Clock

	// ScanMaxAge is how old a market snapshot may get before probes
	// re-visit it
	ScanMaxAge time.Duration

	// GateSources maps construction materials to the waypoint that
	// exports them
	GateSources map[string]string
}

// MissionFunc is a mission entry point. It runs until the mission is done,
// the context is cancelled, or it fails; the agent translates the return
// into fleet events.
type MissionFunc func(ctx context.Context, deps *Deps, ship *ports.ShipData, params map[string]any) error

// MissionRegistry maps mission kinds to their entry points. IDLE is
// deliberately never registered: an idle ship gets no goroutine at all.
type MissionRegistry struct {
	missions map[domainFleet.MissionKind]MissionFunc
}

// NewMissionRegistry creates an empty registry
func NewMissionRegistry() *MissionRegistry {
	return &MissionRegistry{
		missions: make(map[domainFleet.MissionKind]MissionFunc),
	}
}

// Register binds a mission kind to its entry point
func (r *MissionRegistry) Register(kind domainFleet.MissionKind, fn MissionFunc) {
	r.missions[kind] = fn
}

// Get returns the entry point for a mission kind
func (r *MissionRegistry) Get(kind domainFleet.MissionKind) (MissionFunc, bool) {
	fn, ok := r.missions[kind]
	return fn, ok
}

// Kinds lists the registered mission kinds, sorted
func (r *MissionRegistry) Kinds() []domainFleet.MissionKind {
	kinds := make([]domainFleet.MissionKind, 0, len(r.missions))
	for kind := range r.missions {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
