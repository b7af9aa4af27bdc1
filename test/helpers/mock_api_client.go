package helpers

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/andrescamacho/spacetraders-fleet/internal/domain/contract"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/navigation"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/ports"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/shared"
)

// MockAPIClient is a stateful test double for ports.APIClient. It simulates
// a tiny universe: ships move instantly, markets hold configured goods, and
// credits flow on every transaction. Tests seed it with Add*/Set* helpers,
// break it with FailWith/FailOnce, and assert on the recorded calls.
type MockAPIClient struct {
	mu sync.RWMutex

	clock shared.Clock

	agent        *ports.AgentData
	ships        map[string]*ports.ShipData
	waypoints    map[string][]*ports.WaypointData // system -> waypoints
	markets      map[string]*ports.MarketData     // waypoint -> market
	shipyards    map[string]*ports.ShipyardData
	contracts    map[string]*contract.Contract
	construction map[string]*ports.ConstructionData // waypoint -> site

	// Call tracking
	calls       map[string]int
	marketCalls []string // waypoints queried via GetMarket, in order
	navCalls    []string // destinations navigated to, in order
	purchases   []TradeCall
	sales       []TradeCall
	jettisons   []TradeCall
	deliveries  []TradeCall
	supplies    []TradeCall

	// Error injection, keyed by method name
	failures     map[string]error
	oneShotFails map[string]error

	// refuelNoop makes RefuelShip report success without adding fuel,
	// simulating the silent failures the navigation helpers detect
	refuelNoop bool

	negotiateFunc func(shipSymbol string) (*contract.Contract, error)
	purchaseFunc  func(shipSymbol, goodSymbol string, units int) (*ports.PurchaseResult, error)
}

// TradeCall records one cargo transaction for assertions
type TradeCall struct {
	Ship     string
	Good     string
	Units    int
	Waypoint string
}

var _ ports.APIClient = (*MockAPIClient)(nil)

// NewMockAPIClient creates an empty mock universe
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{
		clock:        shared.NewRealClock(),
		agent:        &ports.AgentData{Symbol: "TEST_AGENT", Credits: 100_000},
		ships:        map[string]*ports.ShipData{},
		waypoints:    map[string][]*ports.WaypointData{},
		markets:      map[string]*ports.MarketData{},
		shipyards:    map[string]*ports.ShipyardData{},
		contracts:    map[string]*contract.Contract{},
		construction: map[string]*ports.ConstructionData{},
		calls:        map[string]int{},
		failures:     map[string]error{},
		oneShotFails: map[string]error{},
	}
}

// UseClock swaps the clock that stamps arrival times
func (m *MockAPIClient) UseClock(clock shared.Clock) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock = clock
}

// SetAgent seeds the agent identity and starting credits
func (m *MockAPIClient) SetAgent(symbol string, credits int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.agent.Symbol = symbol
	m.agent.Credits = credits
}

// SetHeadquarters sets the agent's home waypoint
func (m *MockAPIClient) SetHeadquarters(waypointSymbol string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.agent.Headquarters = waypointSymbol
}

// Credits returns the current agent balance
func (m *MockAPIClient) Credits() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.agent.Credits
}

// AddShip seeds a ship. The mock keeps the pointer: tests may tweak the ship
// directly between calls to arrange scenarios.
func (m *MockAPIClient) AddShip(ship *ports.ShipData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ships[ship.Symbol] = ship
}

// Ship returns the live ship record for arrangement and assertions
func (m *MockAPIClient) Ship(symbol string) *ports.ShipData {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ships[symbol]
}

// AddWaypoint seeds a waypoint under its system
func (m *MockAPIClient) AddWaypoint(wp *ports.WaypointData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	system := wp.SystemSymbol
	if system == "" {
		system = shared.ExtractSystemSymbol(wp.Symbol)
		wp.SystemSymbol = system
	}
	m.waypoints[system] = append(m.waypoints[system], wp)
}

// SetMarket seeds the market at a waypoint
func (m *MockAPIClient) SetMarket(waypointSymbol string, goods []ports.TradeGoodData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markets[waypointSymbol] = &ports.MarketData{Symbol: waypointSymbol, TradeGoods: goods}
}

// SetShipyard seeds the shipyard at a waypoint
func (m *MockAPIClient) SetShipyard(waypointSymbol string, data *ports.ShipyardData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shipyards[waypointSymbol] = data
}

// AddContract seeds a contract
func (m *MockAPIClient) AddContract(c *contract.Contract) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contracts[c.ID] = c
}

// SetConstruction seeds a construction site at a waypoint
func (m *MockAPIClient) SetConstruction(waypointSymbol string, site *ports.ConstructionData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.construction[waypointSymbol] = site
}

// SetNegotiateFunc overrides contract negotiation
func (m *MockAPIClient) SetNegotiateFunc(fn func(shipSymbol string) (*contract.Contract, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.negotiateFunc = fn
}

// SetPurchaseFunc overrides cargo purchases, e.g. to simulate zero-unit buys
func (m *MockAPIClient) SetPurchaseFunc(fn func(shipSymbol, goodSymbol string, units int) (*ports.PurchaseResult, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purchaseFunc = fn
}

// SetRefuelNoop makes refuels succeed without adding fuel
func (m *MockAPIClient) SetRefuelNoop(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refuelNoop = on
}

// FailWith makes every call to the named method return err until cleared
func (m *MockAPIClient) FailWith(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, method)
		return
	}
	m.failures[method] = err
}

// FailOnce makes the next call to the named method return err
func (m *MockAPIClient) FailOnce(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.oneShotFails[method] = err
}

// Calls returns how many times the named method was invoked
func (m *MockAPIClient) Calls(method string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[method]
}

// MarketCalls returns the waypoints GetMarket was asked about, in order
func (m *MockAPIClient) MarketCalls() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string{}, m.marketCalls...)
}

// NavigationCalls returns the destinations NavigateShip was given, in order
func (m *MockAPIClient) NavigationCalls() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string{}, m.navCalls...)
}

// Purchases returns every recorded cargo purchase
func (m *MockAPIClient) Purchases() []TradeCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]TradeCall{}, m.purchases...)
}

// Sales returns every recorded cargo sale
func (m *MockAPIClient) Sales() []TradeCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]TradeCall{}, m.sales...)
}

// Jettisons returns every recorded jettison
func (m *MockAPIClient) Jettisons() []TradeCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]TradeCall{}, m.jettisons...)
}

// Deliveries returns every recorded contract delivery
func (m *MockAPIClient) Deliveries() []TradeCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]TradeCall{}, m.deliveries...)
}

// Supplies returns every recorded construction supply run
func (m *MockAPIClient) Supplies() []TradeCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]TradeCall{}, m.supplies...)
}

// begin records a call and returns any injected failure. Callers must hold
// the write lock.
func (m *MockAPIClient) begin(method string) error {
	m.calls[method]++
	if err, ok := m.oneShotFails[method]; ok {
		delete(m.oneShotFails, method)
		return err
	}
	if err, ok := m.failures[method]; ok {
		return err
	}
	return nil
}

func cloneCargo(c *shared.Cargo) *shared.Cargo {
	if c == nil {
		return nil
	}
	out := &shared.Cargo{Capacity: c.Capacity, Units: c.Units}
	out.Inventory = append(out.Inventory, c.Inventory...)
	return out
}

func cloneShip(s *ports.ShipData) *ports.ShipData {
	out := *s
	out.Cargo = cloneCargo(s.Cargo)
	return &out
}

func cloneContract(c *contract.Contract) *contract.Contract {
	out := *c
	out.Terms.Deliveries = append([]contract.Delivery{}, c.Terms.Deliveries...)
	return &out
}

func cloneConstruction(site *ports.ConstructionData) *ports.ConstructionData {
	out := *site
	out.Materials = append([]ports.ConstructionMaterial{}, site.Materials...)
	return &out
}

// addCargo mutates a ship's hold. Negative units remove.
func addCargo(ship *ports.ShipData, good string, units int) {
	cargo := ship.Cargo
	if cargo == nil {
		cargo = &shared.Cargo{}
		ship.Cargo = cargo
	}
	for i := range cargo.Inventory {
		if cargo.Inventory[i].Symbol == good {
			cargo.Inventory[i].Units += units
			cargo.Units += units
			if cargo.Inventory[i].Units <= 0 {
				cargo.Inventory = append(cargo.Inventory[:i], cargo.Inventory[i+1:]...)
			}
			return
		}
	}
	if units > 0 {
		cargo.Inventory = append(cargo.Inventory, shared.CargoItem{Symbol: good, Units: units})
		cargo.Units += units
	}
}

func (m *MockAPIClient) findWaypoint(symbol string) *ports.WaypointData {
	for _, wps := range m.waypoints {
		for _, wp := range wps {
			if wp.Symbol == symbol {
				return wp
			}
		}
	}
	return nil
}

func (m *MockAPIClient) marketGood(waypointSymbol, good string) (*ports.TradeGoodData, error) {
	mkt, ok := m.markets[waypointSymbol]
	if !ok {
		return nil, fmt.Errorf("no market at %s", waypointSymbol)
	}
	for i := range mkt.TradeGoods {
		if mkt.TradeGoods[i].Symbol == good {
			return &mkt.TradeGoods[i], nil
		}
	}
	return nil, fmt.Errorf("market %s does not trade %s", waypointSymbol, good)
}

// Agent operations

func (m *MockAPIClient) GetAgent(ctx context.Context) (*ports.AgentData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("GetAgent"); err != nil {
		return nil, err
	}
	out := *m.agent
	out.ShipCount = len(m.ships)
	return &out, nil
}

// Ship operations

func (m *MockAPIClient) ListShips(ctx context.Context) ([]*ports.ShipData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("ListShips"); err != nil {
		return nil, err
	}
	symbols := make([]string, 0, len(m.ships))
	for symbol := range m.ships {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	out := make([]*ports.ShipData, 0, len(symbols))
	for _, symbol := range symbols {
		out = append(out, cloneShip(m.ships[symbol]))
	}
	return out, nil
}

func (m *MockAPIClient) GetShip(ctx context.Context, shipSymbol string) (*ports.ShipData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("GetShip"); err != nil {
		return nil, err
	}
	ship, ok := m.ships[shipSymbol]
	if !ok {
		return nil, fmt.Errorf("ship not found: %s", shipSymbol)
	}
	return cloneShip(ship), nil
}

func (m *MockAPIClient) OrbitShip(ctx context.Context, shipSymbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("OrbitShip"); err != nil {
		return err
	}
	if ship, ok := m.ships[shipSymbol]; ok {
		ship.Nav.Status = "IN_ORBIT"
	}
	return nil
}

func (m *MockAPIClient) DockShip(ctx context.Context, shipSymbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("DockShip"); err != nil {
		return err
	}
	if ship, ok := m.ships[shipSymbol]; ok {
		ship.Nav.Status = "DOCKED"
	}
	return nil
}

// NavigateShip moves the ship instantly: fuel is charged for the leg, the
// arrival timestamp is already in the past, and the ship ends up in orbit at
// the destination.
func (m *MockAPIClient) NavigateShip(ctx context.Context, shipSymbol, waypointSymbol string) (*ports.NavigationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("NavigateShip"); err != nil {
		return nil, err
	}
	ship, ok := m.ships[shipSymbol]
	if !ok {
		return nil, fmt.Errorf("ship not found: %s", shipSymbol)
	}

	fuelCost := 1
	origin := m.findWaypoint(ship.Nav.WaypointSymbol)
	dest := m.findWaypoint(waypointSymbol)
	if origin != nil && dest != nil {
		mode, err := shared.ParseFlightMode(ship.Nav.FlightMode)
		if err != nil {
			mode = shared.FlightModeCruise
		}
		dist := navigation.Distance(
			navigation.Point{X: origin.X, Y: origin.Y},
			navigation.Point{X: dest.X, Y: dest.Y},
		)
		fuelCost = mode.FuelCost(dist)
	}
	if ship.Fuel.Current < fuelCost {
		return nil, fmt.Errorf("insufficient fuel: need %d, have %d", fuelCost, ship.Fuel.Current)
	}

	ship.Fuel.Current -= fuelCost
	now := m.clock.Now().UTC().Format(time.RFC3339)
	ship.Nav.Route = ports.RouteData{
		Origin:        ship.Nav.WaypointSymbol,
		Destination:   waypointSymbol,
		DepartureTime: now,
		Arrival:       now,
	}
	ship.Nav.WaypointSymbol = waypointSymbol
	if dest != nil {
		ship.Nav.SystemSymbol = dest.SystemSymbol
	}
	ship.Nav.Status = "IN_ORBIT"
	m.navCalls = append(m.navCalls, waypointSymbol)

	return &ports.NavigationResult{Nav: ship.Nav, FuelConsumed: fuelCost}, nil
}

func (m *MockAPIClient) SetFlightMode(ctx context.Context, shipSymbol, flightMode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("SetFlightMode"); err != nil {
		return err
	}
	if ship, ok := m.ships[shipSymbol]; ok {
		ship.Nav.FlightMode = flightMode
	}
	return nil
}

func (m *MockAPIClient) RefuelShip(ctx context.Context, shipSymbol string, fromCargo bool) (*ports.RefuelResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("RefuelShip"); err != nil {
		return nil, err
	}
	ship, ok := m.ships[shipSymbol]
	if !ok {
		return nil, fmt.Errorf("ship not found: %s", shipSymbol)
	}

	if m.refuelNoop {
		return &ports.RefuelResult{
			FuelCurrent:  ship.Fuel.Current,
			FuelCapacity: ship.Fuel.Capacity,
			AgentCredits: m.agent.Credits,
		}, nil
	}

	units := ship.Fuel.Capacity - ship.Fuel.Current
	total := units * 72
	ship.Fuel.Current = ship.Fuel.Capacity
	m.agent.Credits -= total
	return &ports.RefuelResult{
		FuelCurrent:  ship.Fuel.Current,
		FuelCapacity: ship.Fuel.Capacity,
		Units:        units,
		TotalPrice:   total,
		AgentCredits: m.agent.Credits,
	}, nil
}

func (m *MockAPIClient) GetCooldown(ctx context.Context, shipSymbol string) (*ports.CooldownData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("GetCooldown"); err != nil {
		return nil, err
	}
	return &ports.CooldownData{ShipSymbol: shipSymbol}, nil
}

// Cargo operations

func (m *MockAPIClient) GetCargo(ctx context.Context, shipSymbol string) (*shared.Cargo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("GetCargo"); err != nil {
		return nil, err
	}
	ship, ok := m.ships[shipSymbol]
	if !ok {
		return nil, fmt.Errorf("ship not found: %s", shipSymbol)
	}
	return cloneCargo(ship.Cargo), nil
}

func (m *MockAPIClient) PurchaseCargo(ctx context.Context, shipSymbol, goodSymbol string, units int) (*ports.PurchaseResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("PurchaseCargo"); err != nil {
		return nil, err
	}
	if m.purchaseFunc != nil {
		return m.purchaseFunc(shipSymbol, goodSymbol, units)
	}
	ship, ok := m.ships[shipSymbol]
	if !ok {
		return nil, fmt.Errorf("ship not found: %s", shipSymbol)
	}
	good, err := m.marketGood(ship.Nav.WaypointSymbol, goodSymbol)
	if err != nil {
		return nil, err
	}

	total := good.PurchasePrice * units
	m.agent.Credits -= total
	addCargo(ship, goodSymbol, units)
	m.purchases = append(m.purchases, TradeCall{
		Ship: shipSymbol, Good: goodSymbol, Units: units, Waypoint: ship.Nav.WaypointSymbol,
	})
	return &ports.PurchaseResult{
		Good:         goodSymbol,
		Units:        units,
		PricePerUnit: good.PurchasePrice,
		TotalPrice:   total,
		AgentCredits: m.agent.Credits,
		Cargo:        cloneCargo(ship.Cargo),
	}, nil
}

func (m *MockAPIClient) SellCargo(ctx context.Context, shipSymbol, goodSymbol string, units int) (*ports.SellResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("SellCargo"); err != nil {
		return nil, err
	}
	ship, ok := m.ships[shipSymbol]
	if !ok {
		return nil, fmt.Errorf("ship not found: %s", shipSymbol)
	}
	if ship.Cargo.ItemUnits(goodSymbol) < units {
		return nil, fmt.Errorf("ship %s holds %d %s, cannot sell %d",
			shipSymbol, ship.Cargo.ItemUnits(goodSymbol), goodSymbol, units)
	}
	good, err := m.marketGood(ship.Nav.WaypointSymbol, goodSymbol)
	if err != nil {
		return nil, err
	}

	total := good.SellPrice * units
	m.agent.Credits += total
	addCargo(ship, goodSymbol, -units)
	m.sales = append(m.sales, TradeCall{
		Ship: shipSymbol, Good: goodSymbol, Units: units, Waypoint: ship.Nav.WaypointSymbol,
	})
	return &ports.SellResult{
		Good:         goodSymbol,
		Units:        units,
		PricePerUnit: good.SellPrice,
		TotalPrice:   total,
		AgentCredits: m.agent.Credits,
		Cargo:        cloneCargo(ship.Cargo),
	}, nil
}

func (m *MockAPIClient) JettisonCargo(ctx context.Context, shipSymbol, goodSymbol string, units int) (*shared.Cargo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("JettisonCargo"); err != nil {
		return nil, err
	}
	ship, ok := m.ships[shipSymbol]
	if !ok {
		return nil, fmt.Errorf("ship not found: %s", shipSymbol)
	}
	addCargo(ship, goodSymbol, -units)
	m.jettisons = append(m.jettisons, TradeCall{
		Ship: shipSymbol, Good: goodSymbol, Units: units, Waypoint: ship.Nav.WaypointSymbol,
	})
	return cloneCargo(ship.Cargo), nil
}

func (m *MockAPIClient) TransferCargo(ctx context.Context, fromShip, toShip, goodSymbol string, units int) (*shared.Cargo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("TransferCargo"); err != nil {
		return nil, err
	}
	src, ok := m.ships[fromShip]
	if !ok {
		return nil, fmt.Errorf("ship not found: %s", fromShip)
	}
	dst, ok := m.ships[toShip]
	if !ok {
		return nil, fmt.Errorf("ship not found: %s", toShip)
	}
	addCargo(src, goodSymbol, -units)
	addCargo(dst, goodSymbol, units)
	return cloneCargo(src.Cargo), nil
}

// Mining operations

func (m *MockAPIClient) ExtractResources(ctx context.Context, shipSymbol string) (*ports.ExtractionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("ExtractResources"); err != nil {
		return nil, err
	}
	ship, ok := m.ships[shipSymbol]
	if !ok {
		return nil, fmt.Errorf("ship not found: %s", shipSymbol)
	}
	addCargo(ship, "IRON_ORE", 10)
	return &ports.ExtractionResult{
		ShipSymbol:  shipSymbol,
		YieldSymbol: "IRON_ORE",
		YieldUnits:  10,
		Cargo:       cloneCargo(ship.Cargo),
	}, nil
}

func (m *MockAPIClient) CreateSurvey(ctx context.Context, shipSymbol string) (*ports.SurveyResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("CreateSurvey"); err != nil {
		return nil, err
	}
	return &ports.SurveyResult{}, nil
}

// System operations

func (m *MockAPIClient) GetSystem(ctx context.Context, systemSymbol string) (*ports.SystemData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("GetSystem"); err != nil {
		return nil, err
	}
	return &ports.SystemData{Symbol: systemSymbol}, nil
}

func (m *MockAPIClient) ListWaypoints(ctx context.Context, systemSymbol string) ([]*ports.WaypointData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("ListWaypoints"); err != nil {
		return nil, err
	}
	wps := m.waypoints[systemSymbol]
	out := make([]*ports.WaypointData, 0, len(wps))
	for _, wp := range wps {
		copied := *wp
		out = append(out, &copied)
	}
	return out, nil
}

func (m *MockAPIClient) GetWaypoint(ctx context.Context, systemSymbol, waypointSymbol string) (*ports.WaypointData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("GetWaypoint"); err != nil {
		return nil, err
	}
	if wp := m.findWaypoint(waypointSymbol); wp != nil {
		copied := *wp
		return &copied, nil
	}
	return nil, fmt.Errorf("waypoint not found: %s", waypointSymbol)
}

func (m *MockAPIClient) GetMarket(ctx context.Context, systemSymbol, waypointSymbol string) (*ports.MarketData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("GetMarket"); err != nil {
		return nil, err
	}
	m.marketCalls = append(m.marketCalls, waypointSymbol)
	if mkt, ok := m.markets[waypointSymbol]; ok {
		copied := *mkt
		copied.TradeGoods = append([]ports.TradeGoodData{}, mkt.TradeGoods...)
		return &copied, nil
	}
	return &ports.MarketData{Symbol: waypointSymbol}, nil
}

func (m *MockAPIClient) GetShipyard(ctx context.Context, systemSymbol, waypointSymbol string) (*ports.ShipyardData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("GetShipyard"); err != nil {
		return nil, err
	}
	if yard, ok := m.shipyards[waypointSymbol]; ok {
		return yard, nil
	}
	return &ports.ShipyardData{Symbol: waypointSymbol}, nil
}

// Contract operations

func (m *MockAPIClient) ListContracts(ctx context.Context) ([]*contract.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("ListContracts"); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(m.contracts))
	for id := range m.contracts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*contract.Contract, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneContract(m.contracts[id]))
	}
	return out, nil
}

func (m *MockAPIClient) GetContract(ctx context.Context, contractID string) (*contract.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("GetContract"); err != nil {
		return nil, err
	}
	c, ok := m.contracts[contractID]
	if !ok {
		return nil, fmt.Errorf("contract not found: %s", contractID)
	}
	return cloneContract(c), nil
}

func (m *MockAPIClient) NegotiateContract(ctx context.Context, shipSymbol string) (*contract.Contract, error) {
	m.mu.Lock()
	err := m.begin("NegotiateContract")
	fn := m.negotiateFunc
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, fmt.Errorf("no negotiate behavior configured")
	}

	// fn runs unlocked so it may call back into the mock, e.g. to seed the
	// contract another process just won
	c, err := fn(shipSymbol)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.contracts[c.ID] = c
	m.mu.Unlock()
	return cloneContract(c), nil
}

func (m *MockAPIClient) AcceptContract(ctx context.Context, contractID string) (*ports.AcceptResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("AcceptContract"); err != nil {
		return nil, err
	}
	c, ok := m.contracts[contractID]
	if !ok {
		return nil, fmt.Errorf("contract not found: %s", contractID)
	}
	c.Accepted = true
	m.agent.Credits += c.Terms.Payment.OnAccepted
	return &ports.AcceptResult{Contract: cloneContract(c), AgentCredits: m.agent.Credits}, nil
}

func (m *MockAPIClient) DeliverContract(ctx context.Context, contractID, shipSymbol, tradeSymbol string, units int) (*ports.DeliverResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("DeliverContract"); err != nil {
		return nil, err
	}
	c, ok := m.contracts[contractID]
	if !ok {
		return nil, fmt.Errorf("contract not found: %s", contractID)
	}
	ship, ok := m.ships[shipSymbol]
	if !ok {
		return nil, fmt.Errorf("ship not found: %s", shipSymbol)
	}

	delivered := false
	for i := range c.Terms.Deliveries {
		d := &c.Terms.Deliveries[i]
		if d.TradeSymbol != tradeSymbol {
			continue
		}
		if units > d.UnitsRemaining() {
			units = d.UnitsRemaining()
		}
		d.UnitsFulfilled += units
		delivered = true
		break
	}
	if !delivered {
		return nil, fmt.Errorf("contract %s has no delivery line for %s", contractID, tradeSymbol)
	}

	addCargo(ship, tradeSymbol, -units)
	m.deliveries = append(m.deliveries, TradeCall{
		Ship: shipSymbol, Good: tradeSymbol, Units: units, Waypoint: ship.Nav.WaypointSymbol,
	})
	return &ports.DeliverResult{Contract: cloneContract(c), Cargo: cloneCargo(ship.Cargo)}, nil
}

func (m *MockAPIClient) FulfillContract(ctx context.Context, contractID string) (*ports.FulfillResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("FulfillContract"); err != nil {
		return nil, err
	}
	c, ok := m.contracts[contractID]
	if !ok {
		return nil, fmt.Errorf("contract not found: %s", contractID)
	}
	c.Fulfilled = true
	m.agent.Credits += c.Terms.Payment.OnFulfilled
	return &ports.FulfillResult{Contract: cloneContract(c), AgentCredits: m.agent.Credits}, nil
}

// Construction operations

func (m *MockAPIClient) GetConstruction(ctx context.Context, systemSymbol, waypointSymbol string) (*ports.ConstructionData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("GetConstruction"); err != nil {
		return nil, err
	}
	site, ok := m.construction[waypointSymbol]
	if !ok {
		return nil, fmt.Errorf("no construction site at %s", waypointSymbol)
	}
	return cloneConstruction(site), nil
}

func (m *MockAPIClient) SupplyConstruction(ctx context.Context, systemSymbol, waypointSymbol, shipSymbol, tradeSymbol string, units int) (*ports.SupplyResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("SupplyConstruction"); err != nil {
		return nil, err
	}
	site, ok := m.construction[waypointSymbol]
	if !ok {
		return nil, fmt.Errorf("no construction site at %s", waypointSymbol)
	}
	ship, ok := m.ships[shipSymbol]
	if !ok {
		return nil, fmt.Errorf("ship not found: %s", shipSymbol)
	}

	supplied := false
	for i := range site.Materials {
		mat := &site.Materials[i]
		if mat.TradeSymbol != tradeSymbol {
			continue
		}
		if units > mat.Remaining() {
			units = mat.Remaining()
		}
		mat.Fulfilled += units
		supplied = true
		break
	}
	if !supplied {
		return nil, fmt.Errorf("site %s does not need %s", waypointSymbol, tradeSymbol)
	}

	complete := true
	for _, mat := range site.Materials {
		if mat.Remaining() > 0 {
			complete = false
			break
		}
	}
	site.IsComplete = complete

	addCargo(ship, tradeSymbol, -units)
	m.supplies = append(m.supplies, TradeCall{
		Ship: shipSymbol, Good: tradeSymbol, Units: units, Waypoint: waypointSymbol,
	})
	return &ports.SupplyResult{Construction: cloneConstruction(site), Cargo: cloneCargo(ship.Cargo)}, nil
}
