package fleet

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/andrescamacho/spacetraders-fleet/internal/adapters/metrics"
	domainContract "github.com/andrescamacho/spacetraders-fleet/internal/domain/contract"
	domainFleet "github.com/andrescamacho/spacetraders-fleet/internal/domain/fleet"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/ports"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/shared"
)

// Commander loop defaults
const (
	DefaultEventTimeout  = 30 * time.Second
	DefaultMaxRestarts   = 5
	DefaultStopGrace     = 5 * time.Second
	DefaultSnapshotEvery = 10
)

// restartBackoff maps the current restart count to the pause before the
// next relaunch. Counts past the end reuse the last entry.
var restartBackoff = []time.Duration{
	10 * time.Second,
	30 * time.Second,
	60 * time.Second,
	120 * time.Second,
	300 * time.Second,
}

// CommanderConfig tunes the event loop. Zero values take the defaults.
type CommanderConfig struct {
	EventTimeout  time.Duration
	MaxRestarts   int
	StopGrace     time.Duration
	SnapshotEvery int

	// SkipShips stay idle no matter what the strategy would assign
	SkipShips map[string]bool

	// Overrides pin a ship to a mission name, e.g. from --assign flags
	Overrides map[string]string
}

func (c *CommanderConfig) applyDefaults() {
	if c.EventTimeout <= 0 {
		c.EventTimeout = DefaultEventTimeout
	}
	if c.MaxRestarts <= 0 {
		c.MaxRestarts = DefaultMaxRestarts
	}
	if c.StopGrace <= 0 {
		c.StopGrace = DefaultStopGrace
	}
	if c.SnapshotEvery <= 0 {
		c.SnapshotEvery = DefaultSnapshotEvery
	}
	if c.SkipShips == nil {
		c.SkipShips = map[string]bool{}
	}
	if c.Overrides == nil {
		c.Overrides = map[string]string{}
	}
}

// Commander owns the fleet: it discovers ships, asks the strategy what each
// one should do, runs one ShipAgent per working ship, and reacts to the
// event stream those missions produce. It is the only component that assigns
// missions; mission code never reassigns itself.
//
// All Commander state is confined to the goroutine that calls Run. Missions
// talk back exclusively through the FleetState event queue.
type Commander struct {
	deps     *Deps
	registry *MissionRegistry
	strategy *domainFleet.Strategy
	meta     *domainFleet.Registry
	cfg      CommanderConfig

	agents      map[string]*ShipAgent
	assignments map[string]domainFleet.MissionKind
	ships       map[string]*ports.ShipData
	crashes     map[string]int

	// parked holds ships that burned through their restart budget; they
	// stay idle until the operator restarts the commander.
	parked map[string]bool

	// gateDone caches systems whose jump gate construction has finished,
	// so replans stop polling the construction site.
	gateDone map[string]bool

	cycles int

	// replanPending keeps re-evaluation alive across cycles when a ship
	// refresh fails mid-replan.
	replanPending bool
}

// NewCommander wires a commander from its collaborators.
func NewCommander(deps *Deps, registry *MissionRegistry, strategy *domainFleet.Strategy, meta *domainFleet.Registry, cfg CommanderConfig) *Commander {
	cfg.applyDefaults()
	return &Commander{
		deps:        deps,
		registry:    registry,
		strategy:    strategy,
		meta:        meta,
		cfg:         cfg,
		agents:      map[string]*ShipAgent{},
		assignments: map[string]domainFleet.MissionKind{},
		ships:       map[string]*ports.ShipData{},
		crashes:     map[string]int{},
		parked:      map[string]bool{},
		gateDone:    map[string]bool{},
	}
}

// Run discovers the fleet, launches the initial plan, and processes mission
// events until ctx is cancelled, shutdown is signalled, or every mission has
// ended. It always winds down cleanly before returning.
func (c *Commander) Run(ctx context.Context) error {
	ships, err := c.deps.API.ListShips(ctx)
	if err != nil {
		return fmt.Errorf("discovering fleet: %w", err)
	}
	if len(ships) == 0 {
		return errors.New("agent has no ships")
	}
	c.rememberShips(ctx, ships)

	agent, err := c.deps.API.GetAgent(ctx)
	if err != nil {
		return fmt.Errorf("fetching agent: %w", err)
	}
	c.deps.State.SetAgentSnapshot(agent.Credits, len(ships))
	if err := c.deps.Ops.SnapshotAgent(ctx, agent.Credits, len(ships)); err != nil {
		log.Printf("commander: startup snapshot failed: %v", err)
	}

	plan := c.strategy.Evaluate(c.buildWorld(ctx))
	c.applyPlan(ctx, plan)
	c.banner(agent)

	c.loop(ctx)
	c.windDown()
	return nil
}

// loop is the event loop: wait for a batch of events, handle crashes and
// endings, snapshot periodically, and replan after strategic events.
func (c *Commander) loop(ctx context.Context) {
	for {
		if ctx.Err() != nil || c.deps.State.ShuttingDown() {
			return
		}
		if len(c.agents) == 0 && !c.replanPending {
			log.Printf("commander: all missions ended")
			return
		}

		batch := c.collectEvents(ctx)
		c.cycles++

		strategic := c.replanPending
		for _, event := range batch {
			if c.handleEvent(ctx, event) {
				strategic = true
			}
			if ctx.Err() != nil || c.deps.State.ShuttingDown() {
				return
			}
		}

		if c.cycles%c.cfg.SnapshotEvery == 0 {
			credits, shipCount := c.deps.State.AgentSnapshot()
			if err := c.deps.Ops.SnapshotAgent(ctx, credits, shipCount); err != nil {
				log.Printf("commander: snapshot failed: %v", err)
			}
		}

		if strategic {
			c.replanPending = !c.replan(ctx)
		}
	}
}

// collectEvents waits up to EventTimeout for one event, then drains whatever
// else is already queued. A timeout returns an empty batch.
func (c *Commander) collectEvents(ctx context.Context) []domainFleet.FleetEvent {
	var batch []domainFleet.FleetEvent

	timer := time.NewTimer(c.cfg.EventTimeout)
	defer timer.Stop()

	select {
	case event := <-c.deps.State.Events():
		batch = append(batch, event)
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return nil
	case <-c.deps.State.Done():
		return nil
	}

	for {
		select {
		case event := <-c.deps.State.Events():
			batch = append(batch, event)
		default:
			return batch
		}
	}
}

// handleEvent reacts to one event and reports whether it should trigger a
// strategy re-evaluation.
func (c *Commander) handleEvent(ctx context.Context, event domainFleet.FleetEvent) bool {
	switch event.Type {
	case domainFleet.EventMissionCrashed:
		c.handleCrash(ctx, event)
	case domainFleet.EventMissionEnded:
		log.Printf("commander: %s finished %s", c.meta.Name(event.Ship), c.assignments[event.Ship])
		delete(c.agents, event.Ship)
		c.assignments[event.Ship] = domainFleet.MissionIdle
	case domainFleet.EventGateComplete:
		if ship, ok := c.ships[event.Ship]; ok {
			c.gateDone[ship.Nav.SystemSymbol] = true
		}
		log.Printf("commander: gate construction complete, reported by %s", c.meta.Name(event.Ship))
	default:
		log.Printf("commander: event %s from %s", event.Type, c.meta.Name(event.Ship))
	}
	return event.Type.IsStrategic()
}

// handleCrash restarts a crashed mission after backoff, or parks the ship
// once its restart budget is spent. Parked ships stay idle for the rest of
// the run: a mission that keeps dying needs an operator, not a sixth try.
func (c *Commander) handleCrash(ctx context.Context, event domainFleet.FleetEvent) {
	c.crashes[event.Ship]++

	agent, ok := c.agents[event.Ship]
	if !ok || agent.Running() {
		// Already reassigned since this crash; nothing to restart.
		return
	}

	if agent.RestartCount() >= c.cfg.MaxRestarts {
		log.Printf("commander: %s crashed %d times running %s, parking it",
			c.meta.Name(event.Ship), agent.RestartCount()+1, agent.Mission())
		delete(c.agents, event.Ship)
		c.assignments[event.Ship] = domainFleet.MissionIdle
		c.parked[event.Ship] = true
		return
	}

	delay := restartBackoff[min(agent.RestartCount(), len(restartBackoff)-1)]
	log.Printf("commander: %s crashed running %s (%v), restarting in %s",
		c.meta.Name(event.Ship), agent.Mission(), event.Data["error"], delay)

	if err := c.deps.State.Sleep(ctx, delay); err != nil {
		return
	}

	ship, ok := c.ships[event.Ship]
	if !ok {
		return
	}
	metrics.RecordMissionRestart(event.Ship)
	agent.Relaunch(ctx, c.deps, c.registry, ship)
}

// replan refreshes the fleet from the API, re-evaluates the strategy, and
// applies whatever changed. Returns false when the refresh failed and the
// replan should be retried next cycle.
func (c *Commander) replan(ctx context.Context) bool {
	ships, err := c.deps.API.ListShips(ctx)
	if err != nil {
		log.Printf("commander: ship refresh failed, keeping current plan: %v", err)
		return false
	}
	c.rememberShips(ctx, ships)

	plan := c.strategy.Evaluate(c.buildWorld(ctx))
	c.applyPlan(ctx, plan)
	return true
}

// applyPlan stops and relaunches every ship whose mission changed. Ships
// keeping their mission keep their running task and restart count.
func (c *Commander) applyPlan(ctx context.Context, plan domainFleet.FleetPlan) {
	changes := plan.ChangesFrom(c.assignments)
	for _, symbol := range sortedKeys(changes) {
		c.reassign(ctx, symbol, changes[symbol])
	}
}

// reassign swaps one ship onto a new mission: stop the old task with grace,
// then launch the new one with a fresh restart count.
func (c *Commander) reassign(ctx context.Context, symbol string, assignment domainFleet.ShipAssignment) {
	if agent, ok := c.agents[symbol]; ok {
		if !agent.Stop(c.cfg.StopGrace) {
			log.Printf("commander: %s did not stop within %s, abandoning run %s",
				c.meta.Name(symbol), c.cfg.StopGrace, agent.RunID())
		}
		delete(c.agents, symbol)
	}

	c.assignments[symbol] = assignment.Mission
	if assignment.Mission == domainFleet.MissionIdle {
		return
	}

	ship, ok := c.ships[symbol]
	if !ok {
		log.Printf("commander: no ship data for %s, leaving it idle", symbol)
		c.assignments[symbol] = domainFleet.MissionIdle
		return
	}

	agent := NewShipAgent(symbol, c.meta.Name(symbol), assignment.Mission, assignment.Params)
	if agent.Launch(ctx, c.deps, c.registry, ship) {
		c.agents[symbol] = agent
	} else {
		c.assignments[symbol] = domainFleet.MissionIdle
	}
}

// windDown cancels every running mission, waits for them with grace, writes
// a final snapshot, and prints the end-of-run report.
func (c *Commander) windDown() {
	c.deps.State.Shutdown()

	running := 0
	for _, agent := range c.agents {
		if agent.Running() {
			running++
		}
	}
	log.Printf("commander: shutting down, %d missions active", running)

	for _, agent := range c.agents {
		agent.Cancel()
	}
	for _, symbol := range sortedKeys(c.agents) {
		if !c.agents[symbol].Stop(c.cfg.StopGrace) {
			log.Printf("commander: %s mission did not stop in time", c.meta.Name(symbol))
		}
	}

	// The run context is gone by now; give the final write its own deadline.
	snapCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	credits, shipCount := c.deps.State.AgentSnapshot()
	if err := c.deps.Ops.SnapshotAgent(snapCtx, credits, shipCount); err != nil {
		log.Printf("commander: final snapshot failed: %v", err)
	}

	log.Printf("commander: done, %d credits across %d ships", credits, shipCount)
	for _, symbol := range sortedKeys(c.assignments) {
		log.Printf("commander:   %-14s %-10s crashes=%d",
			c.meta.Name(symbol), c.assignments[symbol], c.crashes[symbol])
	}
}

// banner prints the startup summary with one line per ship.
func (c *Commander) banner(agent *ports.AgentData) {
	log.Printf("commander: running as %s with %d credits and %d ships",
		agent.Symbol, agent.Credits, len(c.ships))
	for _, symbol := range sortedKeys(c.ships) {
		mission := c.assignments[symbol]
		marker := " "
		if c.cfg.SkipShips[symbol] {
			marker = "s"
		}
		log.Printf("commander: %s %-14s %-10s at %s",
			marker, c.meta.Name(symbol), mission, c.ships[symbol].Nav.WaypointSymbol)
	}
}

// rememberShips replaces the ship cache and makes sure intel for every
// occupied system is loaded.
func (c *Commander) rememberShips(ctx context.Context, ships []*ports.ShipData) {
	c.ships = make(map[string]*ports.ShipData, len(ships))
	for _, ship := range ships {
		c.ships[ship.Symbol] = ship
	}
	for _, systemSymbol := range c.shipSystems() {
		if _, err := c.deps.State.EnsureSystem(ctx, c.deps.API, systemSymbol); err != nil {
			log.Printf("commander: loading system %s failed: %v", systemSymbol, err)
		}
	}
}

// shipSystems returns the sorted set of systems any known ship occupies.
func (c *Commander) shipSystems() []string {
	seen := map[string]bool{}
	for _, ship := range c.ships {
		if ship.Nav.SystemSymbol != "" {
			seen[ship.Nav.SystemSymbol] = true
		}
	}
	return sortedKeys(seen)
}

// buildWorld assembles the strategy input from cached ship data, the shared
// contract state, construction status, and the market store.
func (c *Commander) buildWorld(ctx context.Context) domainFleet.WorldSnapshot {
	credits, _ := c.deps.State.AgentSnapshot()

	symbols := sortedKeys(c.ships)
	capabilities := make([]domainFleet.ShipCapability, 0, len(symbols))
	for _, symbol := range symbols {
		ship := c.ships[symbol]
		cargoCapacity := 0
		if ship.Cargo != nil {
			cargoCapacity = ship.Cargo.Capacity
		}
		capabilities = append(capabilities, domainFleet.ShipCapability{
			Symbol:         symbol,
			CargoCapacity:  cargoCapacity,
			FuelCapacity:   ship.Fuel.Capacity,
			Category:       c.meta.Categorize(symbol, cargoCapacity, ship.Fuel.Capacity),
			CurrentMission: c.assignments[symbol],
		})
	}

	skip := make(map[string]bool, len(c.cfg.SkipShips)+len(c.parked))
	for symbol := range c.cfg.SkipShips {
		skip[symbol] = true
	}
	for symbol := range c.parked {
		skip[symbol] = true
	}

	hasContract, contractProfitable := c.contractFlags(ctx)

	return domainFleet.WorldSnapshot{
		Credits:               credits,
		Ships:                 capabilities,
		CurrentAssignments:    c.assignments,
		HasActiveContract:     hasContract,
		ContractProfitable:    contractProfitable,
		GateNeedsSupplies:     c.gateNeedsSupplies(ctx),
		MarketRoutesAvailable: c.routesAvailable(ctx),
		SkipShips:             skip,
		Overrides:             c.cfg.Overrides,
	}
}

// contractFlags reports whether a workable contract exists and whether it
// pays more than supplying it would cost at cached prices.
func (c *Commander) contractFlags(ctx context.Context) (active, profitable bool) {
	current := c.deps.Contracts.Current()
	if current == nil || !current.Active(c.deps.State.Clock().Now()) {
		return false, false
	}

	bestBuys := map[string]int{}
	for _, delivery := range current.Terms.Deliveries {
		if delivery.UnitsRemaining() == 0 {
			continue
		}
		systemSymbol := shared.ExtractSystemSymbol(delivery.DestinationSymbol)
		best, err := c.deps.Markets.FindBestBuy(ctx, delivery.TradeSymbol, systemSymbol)
		if err != nil {
			log.Printf("commander: best-buy lookup for %s failed: %v", delivery.TradeSymbol, err)
			continue
		}
		if best != nil {
			bestBuys[delivery.TradeSymbol] = best.PurchasePrice
		}
	}

	eval := domainContract.EvaluateProfitability(current, bestBuys)
	return true, eval.Profitable
}

// gateNeedsSupplies polls construction status for every known system with an
// unfinished jump gate.
func (c *Commander) gateNeedsSupplies(ctx context.Context) bool {
	for _, systemSymbol := range c.shipSystems() {
		system, ok := c.deps.State.GetSystem(systemSymbol)
		if !ok || system.GateWaypoint == "" || c.gateDone[systemSymbol] {
			continue
		}
		construction, err := c.deps.API.GetConstruction(ctx, systemSymbol, system.GateWaypoint)
		if err != nil {
			log.Printf("commander: construction check for %s failed: %v", system.GateWaypoint, err)
			continue
		}
		if construction.IsComplete {
			c.gateDone[systemSymbol] = true
			continue
		}
		return true
	}
	return false
}

// routesAvailable asks the market store whether any occupied system has at
// least one profitable cached route.
func (c *Commander) routesAvailable(ctx context.Context) bool {
	for _, systemSymbol := range c.shipSystems() {
		ok, err := c.deps.Markets.HasProfitableRoutes(ctx, systemSymbol)
		if err != nil {
			log.Printf("commander: route check for %s failed: %v", systemSymbol, err)
			continue
		}
		if ok {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
