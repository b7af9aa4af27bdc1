package ports

import (
	"context"

	"github.com/andrescamacho/spacetraders-fleet/internal/domain/contract"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/shared"
)

// APIClient defines the domain's interface for interacting with the SpaceTraders API.
//
// This interface is defined in the domain layer (not infrastructure) to follow
// the Dependency Inversion Principle and hexagonal architecture:
//
//	┌─────────────────────────┐
//	│  Application Layer      │
//	│  (missions/commander)   │
//	└───────────┬─────────────┘
//	            │ depends on
//	            ↓
//	┌─────────────────────────┐
//	│  Domain Ports           │  ← This interface
//	│  (interfaces)           │
//	└───────────┬─────────────┘
//	            ↑
//	            │ implements
//	┌─────────────────────────┐
//	│  Infrastructure Layer   │
//	│  (adapters)             │
//	└─────────────────────────┘
//
// The concrete adapter owns authentication, rate limiting, retries, and
// pagination; callers see complete result sets and typed errors. List
// operations fetch every page before returning.
type APIClient interface {
	// Agent operations
	GetAgent(ctx context.Context) (*AgentData, error)

	// Ship operations
	ListShips(ctx context.Context) ([]*ShipData, error)
	GetShip(ctx context.Context, shipSymbol string) (*ShipData, error)
	OrbitShip(ctx context.Context, shipSymbol string) error
	DockShip(ctx context.Context, shipSymbol string) error
	NavigateShip(ctx context.Context, shipSymbol, waypointSymbol string) (*NavigationResult, error)
	SetFlightMode(ctx context.Context, shipSymbol, flightMode string) error
	RefuelShip(ctx context.Context, shipSymbol string, fromCargo bool) (*RefuelResult, error)
	GetCooldown(ctx context.Context, shipSymbol string) (*CooldownData, error)

	// Cargo operations
	GetCargo(ctx context.Context, shipSymbol string) (*shared.Cargo, error)
	PurchaseCargo(ctx context.Context, shipSymbol, goodSymbol string, units int) (*PurchaseResult, error)
	SellCargo(ctx context.Context, shipSymbol, goodSymbol string, units int) (*SellResult, error)
	JettisonCargo(ctx context.Context, shipSymbol, goodSymbol string, units int) (*shared.Cargo, error)
	TransferCargo(ctx context.Context, fromShip, toShip, goodSymbol string, units int) (*shared.Cargo, error)

	// Mining operations
	ExtractResources(ctx context.Context, shipSymbol string) (*ExtractionResult, error)
	CreateSurvey(ctx context.Context, shipSymbol string) (*SurveyResult, error)

	// System operations
	GetSystem(ctx context.Context, systemSymbol string) (*SystemData, error)
	ListWaypoints(ctx context.Context, systemSymbol string) ([]*WaypointData, error)
	GetWaypoint(ctx context.Context, systemSymbol, waypointSymbol string) (*WaypointData, error)
	GetMarket(ctx context.Context, systemSymbol, waypointSymbol string) (*MarketData, error)
	GetShipyard(ctx context.Context, systemSymbol, waypointSymbol string) (*ShipyardData, error)

	// Contract operations
	ListContracts(ctx context.Context) ([]*contract.Contract, error)
	GetContract(ctx context.Context, contractID string) (*contract.Contract, error)
	NegotiateContract(ctx context.Context, shipSymbol string) (*contract.Contract, error)
	AcceptContract(ctx context.Context, contractID string) (*AcceptResult, error)
	DeliverContract(ctx context.Context, contractID, shipSymbol, tradeSymbol string, units int) (*DeliverResult, error)
	FulfillContract(ctx context.Context, contractID string) (*FulfillResult, error)

	// Construction operations
	GetConstruction(ctx context.Context, systemSymbol, waypointSymbol string) (*ConstructionData, error)
	SupplyConstruction(ctx context.Context, systemSymbol, waypointSymbol, shipSymbol, tradeSymbol string, units int) (*SupplyResult, error)
}

// Agent DTOs

type AgentData struct {
	AccountID       string
	Symbol          string
	Headquarters    string
	Credits         int
	StartingFaction string
	ShipCount       int
}

// Ship DTOs

type ShipData struct {
	Symbol      string
	Role        string
	Nav         NavData
	Fuel        FuelData
	Cargo       *shared.Cargo
	EngineSpeed int
}

type NavData struct {
	SystemSymbol   string
	WaypointSymbol string
	Status         string // DOCKED, IN_ORBIT, IN_TRANSIT
	FlightMode     string
	Route          RouteData
}

type RouteData struct {
	Origin        string
	Destination   string
	DepartureTime string
	Arrival       string // RFC3339
}

type FuelData struct {
	Current  int
	Capacity int
}

type NavigationResult struct {
	Nav          NavData
	FuelConsumed int
}

type RefuelResult struct {
	FuelCurrent  int
	FuelCapacity int
	Units        int
	TotalPrice   int
	AgentCredits int
}

type CooldownData struct {
	ShipSymbol       string
	TotalSeconds     int
	RemainingSeconds int
	Expiration       string
}

// Cargo DTOs

type PurchaseResult struct {
	Good         string
	Units        int
	PricePerUnit int
	TotalPrice   int
	AgentCredits int
	Cargo        *shared.Cargo
}

type SellResult struct {
	Good         string
	Units        int
	PricePerUnit int
	TotalPrice   int
	AgentCredits int
	Cargo        *shared.Cargo
}

// Mining DTOs

type ExtractionResult struct {
	ShipSymbol  string
	YieldSymbol string
	YieldUnits  int
	Cooldown    CooldownData
	Cargo       *shared.Cargo
}

type SurveyResult struct {
	Surveys  []SurveyData
	Cooldown CooldownData
}

type SurveyData struct {
	Signature  string
	Symbol     string
	Deposits   []string
	Expiration string
	Size       string
}

// System DTOs

type SystemData struct {
	Symbol       string
	SectorSymbol string
	Type         string
	X            float64
	Y            float64
}

type WaypointData struct {
	Symbol              string
	Type                string
	SystemSymbol        string
	X                   float64
	Y                   float64
	Orbits              string
	Orbitals            []string
	Traits              []string
	Faction             string
	IsUnderConstruction bool
}

type MarketData struct {
	Symbol     string
	Exports    []string
	Imports    []string
	Exchange   []string
	TradeGoods []TradeGoodData
}

type TradeGoodData struct {
	Symbol        string
	Type          string
	TradeVolume   int
	Supply        string
	Activity      string
	PurchasePrice int
	SellPrice     int
}

type ShipyardData struct {
	Symbol           string
	ShipTypes        []string
	Ships            []ShipListingData
	ModificationsFee int
}

type ShipListingData struct {
	Type          string
	Name          string
	Supply        string
	PurchasePrice int
}

// Contract DTOs

type AcceptResult struct {
	Contract     *contract.Contract
	AgentCredits int
}

type DeliverResult struct {
	Contract *contract.Contract
	Cargo    *shared.Cargo
}

type FulfillResult struct {
	Contract     *contract.Contract
	AgentCredits int
}

// Construction DTOs

type ConstructionData struct {
	Symbol     string
	Materials  []ConstructionMaterial
	IsComplete bool
}

type ConstructionMaterial struct {
	TradeSymbol string
	Required    int
	Fulfilled   int
}

// Remaining returns how many units the site still needs of this material
func (m ConstructionMaterial) Remaining() int {
	remaining := m.Required - m.Fulfilled
	if remaining < 0 {
		return 0
	}
	return remaining
}

type SupplyResult struct {
	Construction *ConstructionData
	Cargo        *shared.Cargo
}
