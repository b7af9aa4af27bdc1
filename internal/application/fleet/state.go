package fleet

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/andrescamacho/spacetraders-fleet/internal/adapters/metrics"
	domainFleet "github.com/andrescamacho/spacetraders-fleet/internal/domain/fleet"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/market"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/navigation"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/ports"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/shared"
)

const (
	// defaultEventBuffer bounds the event queue. Emit never blocks; events
	// past the buffer are dropped with a warning.
	defaultEventBuffer = 128

	// claimTTL is how long a persisted route claim stays visible to other
	// processes before it is considered abandoned.
	claimTTL = 15 * time.Minute
)

// ErrShutdown is returned by Sleep when the fleet is shutting down
var ErrShutdown = errors.New("fleet is shutting down")

// SystemState is the cached intel for one system. Immutable once built;
// missions may hold the pointer freely.
type SystemState struct {
	Symbol            string
	Waypoints         map[string]*shared.Waypoint
	Coords            map[string]navigation.Point
	MarketWaypoints   []string
	ShipyardWaypoints []string

	// GateWaypoint is the under-construction jump gate, if the system has one
	GateWaypoint string
}

// NewSystemState builds system intel from a waypoint listing
func NewSystemState(symbol string, waypoints []*ports.WaypointData) *SystemState {
	state := &SystemState{
		Symbol:    symbol,
		Waypoints: make(map[string]*shared.Waypoint, len(waypoints)),
		Coords:    make(map[string]navigation.Point, len(waypoints)),
	}

	for _, wp := range waypoints {
		waypoint := &shared.Waypoint{
			Symbol:       wp.Symbol,
			X:            wp.X,
			Y:            wp.Y,
			SystemSymbol: wp.SystemSymbol,
			Type:         wp.Type,
			Traits:       wp.Traits,
		}
		state.Waypoints[wp.Symbol] = waypoint
		state.Coords[wp.Symbol] = navigation.Point{X: wp.X, Y: wp.Y}

		if waypoint.HasTrait(shared.TraitMarketplace) {
			state.MarketWaypoints = append(state.MarketWaypoints, wp.Symbol)
		}
		if waypoint.HasTrait(shared.TraitShipyard) {
			state.ShipyardWaypoints = append(state.ShipyardWaypoints, wp.Symbol)
		}
		if wp.Type == "JUMP_GATE" && wp.IsUnderConstruction {
			state.GateWaypoint = wp.Symbol
		}
	}

	sort.Strings(state.MarketWaypoints)
	sort.Strings(state.ShipyardWaypoints)
	return state
}

// Waypoint returns one waypoint by symbol
func (s *SystemState) Waypoint(symbol string) (*shared.Waypoint, bool) {
	wp, ok := s.Waypoints[symbol]
	return wp, ok
}

// FuelWaypoints returns the refuel candidates for the multi-hop planner
func (s *SystemState) FuelWaypoints() map[string]bool {
	set := make(map[string]bool, len(s.MarketWaypoints))
	for _, symbol := range s.MarketWaypoints {
		set[symbol] = true
	}
	return set
}

// FleetState is the shared in-process state every mission runs against:
// system intel, route claims, the event queue, the shutdown broadcast, and
// the last agent snapshot.
//
// All methods are safe for concurrent use from mission goroutines.
type FleetState struct {
	store market.PriceStore
	clock shared.Clock

	mu      sync.RWMutex
	systems map[string]*SystemState
	claims  map[string]map[string]market.RouteKey // system -> ship -> route
	credits int
	ships   int

	events       chan domainFleet.FleetEvent
	shutdown     chan struct{}
	shutdownOnce sync.Once

	flight singleflight.Group
}

// NewFleetState creates the shared state. The store receives claim
// write-throughs and may be nil in tests; a nil clock selects the real one.
func NewFleetState(store market.PriceStore, clock shared.Clock) *FleetState {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &FleetState{
		store:    store,
		clock:    clock,
		systems:  make(map[string]*SystemState),
		claims:   make(map[string]map[string]market.RouteKey),
		events:   make(chan domainFleet.FleetEvent, defaultEventBuffer),
		shutdown: make(chan struct{}),
	}
}

// Clock returns the clock shared across the fleet
func (s *FleetState) Clock() shared.Clock {
	return s.clock
}

// GetSystem returns cached intel for a system
func (s *FleetState) GetSystem(symbol string) (*SystemState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sys, ok := s.systems[symbol]
	return sys, ok
}

// EnsureSystemFromWaypoints caches intel built from an already-fetched
// waypoint listing. An existing entry wins: intel is cached for the process
// lifetime.
func (s *FleetState) EnsureSystemFromWaypoints(symbol string, waypoints []*ports.WaypointData) *SystemState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sys, ok := s.systems[symbol]; ok {
		return sys
	}
	sys := NewSystemState(symbol, waypoints)
	s.systems[symbol] = sys
	return sys
}

// EnsureSystem returns cached intel for a system, loading waypoints through
// the API on first use. Concurrent callers for the same system collapse
// into a single API fetch.
func (s *FleetState) EnsureSystem(ctx context.Context, api ports.APIClient, symbol string) (*SystemState, error) {
	if sys, ok := s.GetSystem(symbol); ok {
		return sys, nil
	}

	v, err, _ := s.flight.Do(symbol, func() (interface{}, error) {
		if sys, ok := s.GetSystem(symbol); ok {
			return sys, nil
		}
		waypoints, err := api.ListWaypoints(ctx, symbol)
		if err != nil {
			return nil, fmt.Errorf("failed to load system %s: %w", symbol, err)
		}
		return s.EnsureSystemFromWaypoints(symbol, waypoints), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*SystemState), nil
}

// ClaimRoute records that a ship is working a trade route. A ship holds at
// most one claim per system; a new claim overwrites the old one. The claim
// is also written through to the market store so other processes see it.
func (s *FleetState) ClaimRoute(ctx context.Context, systemSymbol, shipSymbol string, route market.RouteKey) {
	s.mu.Lock()
	if s.claims[systemSymbol] == nil {
		s.claims[systemSymbol] = make(map[string]market.RouteKey)
	}
	s.claims[systemSymbol][shipSymbol] = route
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.ClaimRoute(ctx, shipSymbol, route); err != nil {
			log.Printf("fleet state: claim write-through failed for %s: %v", shipSymbol, err)
		}
	}
}

// ReleaseRoute drops a ship's claim in a system
func (s *FleetState) ReleaseRoute(ctx context.Context, systemSymbol, shipSymbol string) {
	s.mu.Lock()
	if ships, ok := s.claims[systemSymbol]; ok {
		delete(ships, shipSymbol)
	}
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.ReleaseRoute(ctx, shipSymbol); err != nil {
			log.Printf("fleet state: claim release failed for %s: %v", shipSymbol, err)
		}
	}
}

// ExcludedRoutes returns the routes other ships have claimed in a system.
// In-memory claims are authoritative for this process; persisted claims
// from other processes are merged in best-effort.
func (s *FleetState) ExcludedRoutes(ctx context.Context, systemSymbol, excludeShip string) map[market.RouteKey]bool {
	excluded := make(map[market.RouteKey]bool)

	s.mu.RLock()
	for ship, route := range s.claims[systemSymbol] {
		if ship != excludeShip {
			excluded[route] = true
		}
	}
	s.mu.RUnlock()

	if s.store != nil {
		persisted, err := s.store.ClaimedRoutes(ctx, excludeShip, claimTTL)
		if err != nil {
			log.Printf("fleet state: reading persisted claims failed: %v", err)
		} else {
			for _, route := range persisted {
				excluded[route] = true
			}
		}
	}

	return excluded
}

// Emit queues an event for the commander without blocking. When the queue
// is full the event is dropped: the commander re-reads world state on every
// strategic wake-up, so a lost event delays re-planning at worst.
func (s *FleetState) Emit(event domainFleet.FleetEvent) {
	select {
	case s.events <- event:
		metrics.RecordEvent(string(event.Type))
	default:
		log.Printf("fleet state: event queue full, dropping %s from %s", event.Type, event.Ship)
	}
}

// Events is the commander's receive side of the event queue
func (s *FleetState) Events() <-chan domainFleet.FleetEvent {
	return s.events
}

// Shutdown broadcasts shutdown to every mission. Safe to call more than once.
func (s *FleetState) Shutdown() {
	s.shutdownOnce.Do(func() {
		close(s.shutdown)
	})
}

// Done returns a channel closed when shutdown has been requested
func (s *FleetState) Done() <-chan struct{} {
	return s.shutdown
}

// ShuttingDown reports whether shutdown has been requested
func (s *FleetState) ShuttingDown() bool {
	select {
	case <-s.shutdown:
		return true
	default:
		return false
	}
}

// Sleep waits for d, returning early with an error when the context is
// cancelled or the fleet shuts down. Missions use it for every idle wait so
// shutdown never has to wait out a backoff.
func (s *FleetState) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	woke := make(chan struct{})
	go func() {
		s.clock.Sleep(d)
		close(woke)
	}()

	select {
	case <-woke:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.shutdown:
		return ErrShutdown
	}
}

// SetAgentSnapshot caches the latest agent credits and ship count
func (s *FleetState) SetAgentSnapshot(credits, shipCount int) {
	s.mu.Lock()
	s.credits = credits
	s.ships = shipCount
	s.mu.Unlock()

	metrics.SetAgentCredits(credits)
}

// UpdateCredits caches a new credit balance, keeping the ship count.
// Missions call this with the agent balance the API returns on every
// transaction, so the commander plans against live numbers.
func (s *FleetState) UpdateCredits(credits int) {
	s.mu.Lock()
	s.credits = credits
	s.mu.Unlock()

	metrics.SetAgentCredits(credits)
}

// AgentSnapshot returns the last cached agent credits and ship count
func (s *FleetState) AgentSnapshot() (credits, shipCount int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credits, s.ships
}

// Credits returns the last cached agent credits
func (s *FleetState) Credits() int {
	credits, _ := s.AgentSnapshot()
	return credits
}
