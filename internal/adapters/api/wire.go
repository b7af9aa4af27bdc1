package api

import (
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/contract"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/ports"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/shared"
)

// Wire payloads mirror the upstream JSON envelope (camelCase fields).
// Each payload knows how to convert itself into the domain DTO the
// ports.APIClient interface promises, so the response shape of the API
// never leaks past this package.

type metaPayload struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type agentPayload struct {
	AccountID       string `json:"accountId"`
	Symbol          string `json:"symbol"`
	Headquarters    string `json:"headquarters"`
	Credits         int    `json:"credits"`
	StartingFaction string `json:"startingFaction"`
	ShipCount       int    `json:"shipCount"`
}

func (p agentPayload) toDomain() *ports.AgentData {
	return &ports.AgentData{
		AccountID:       p.AccountID,
		Symbol:          p.Symbol,
		Headquarters:    p.Headquarters,
		Credits:         p.Credits,
		StartingFaction: p.StartingFaction,
		ShipCount:       p.ShipCount,
	}
}

type shipPayload struct {
	Symbol       string `json:"symbol"`
	Registration struct {
		Role string `json:"role"`
	} `json:"registration"`
	Nav    navPayload   `json:"nav"`
	Fuel   fuelPayload  `json:"fuel"`
	Cargo  cargoPayload `json:"cargo"`
	Engine struct {
		Speed int `json:"speed"`
	} `json:"engine"`
}

func (p shipPayload) toDomain() *ports.ShipData {
	return &ports.ShipData{
		Symbol:      p.Symbol,
		Role:        p.Registration.Role,
		Nav:         p.Nav.toDomain(),
		Fuel:        ports.FuelData{Current: p.Fuel.Current, Capacity: p.Fuel.Capacity},
		Cargo:       p.Cargo.toDomain(),
		EngineSpeed: p.Engine.Speed,
	}
}

type navPayload struct {
	SystemSymbol   string `json:"systemSymbol"`
	WaypointSymbol string `json:"waypointSymbol"`
	Status         string `json:"status"`
	FlightMode     string `json:"flightMode"`
	Route          struct {
		Origin struct {
			Symbol string `json:"symbol"`
		} `json:"origin"`
		Destination struct {
			Symbol string `json:"symbol"`
		} `json:"destination"`
		DepartureTime string `json:"departureTime"`
		Arrival       string `json:"arrival"`
	} `json:"route"`
}

func (p navPayload) toDomain() ports.NavData {
	return ports.NavData{
		SystemSymbol:   p.SystemSymbol,
		WaypointSymbol: p.WaypointSymbol,
		Status:         p.Status,
		FlightMode:     p.FlightMode,
		Route: ports.RouteData{
			Origin:        p.Route.Origin.Symbol,
			Destination:   p.Route.Destination.Symbol,
			DepartureTime: p.Route.DepartureTime,
			Arrival:       p.Route.Arrival,
		},
	}
}

type fuelPayload struct {
	Current  int `json:"current"`
	Capacity int `json:"capacity"`
	Consumed struct {
		Amount int `json:"amount"`
	} `json:"consumed"`
}

type cargoPayload struct {
	Capacity  int `json:"capacity"`
	Units     int `json:"units"`
	Inventory []struct {
		Symbol string `json:"symbol"`
		Name   string `json:"name"`
		Units  int    `json:"units"`
	} `json:"inventory"`
}

func (p cargoPayload) toDomain() *shared.Cargo {
	inventory := make([]shared.CargoItem, len(p.Inventory))
	for i, item := range p.Inventory {
		inventory[i] = shared.CargoItem{
			Symbol: item.Symbol,
			Name:   item.Name,
			Units:  item.Units,
		}
	}
	return &shared.Cargo{
		Capacity:  p.Capacity,
		Units:     p.Units,
		Inventory: inventory,
	}
}

type cooldownPayload struct {
	ShipSymbol       string `json:"shipSymbol"`
	TotalSeconds     int    `json:"totalSeconds"`
	RemainingSeconds int    `json:"remainingSeconds"`
	Expiration       string `json:"expiration"`
}

func (p cooldownPayload) toDomain() ports.CooldownData {
	return ports.CooldownData{
		ShipSymbol:       p.ShipSymbol,
		TotalSeconds:     p.TotalSeconds,
		RemainingSeconds: p.RemainingSeconds,
		Expiration:       p.Expiration,
	}
}

type transactionPayload struct {
	WaypointSymbol string `json:"waypointSymbol"`
	ShipSymbol     string `json:"shipSymbol"`
	TradeSymbol    string `json:"tradeSymbol"`
	Type           string `json:"type"`
	Units          int    `json:"units"`
	PricePerUnit   int    `json:"pricePerUnit"`
	TotalPrice     int    `json:"totalPrice"`
	Timestamp      string `json:"timestamp"`
}

type waypointPayload struct {
	Symbol       string  `json:"symbol"`
	Type         string  `json:"type"`
	SystemSymbol string  `json:"systemSymbol"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Orbits       string  `json:"orbits"`
	Orbitals     []struct {
		Symbol string `json:"symbol"`
	} `json:"orbitals"`
	Traits []struct {
		Symbol string `json:"symbol"`
	} `json:"traits"`
	Faction struct {
		Symbol string `json:"symbol"`
	} `json:"faction"`
	IsUnderConstruction bool `json:"isUnderConstruction"`
}

func (p waypointPayload) toDomain() *ports.WaypointData {
	orbitals := make([]string, len(p.Orbitals))
	for i, o := range p.Orbitals {
		orbitals[i] = o.Symbol
	}
	traits := make([]string, len(p.Traits))
	for i, t := range p.Traits {
		traits[i] = t.Symbol
	}
	return &ports.WaypointData{
		Symbol:              p.Symbol,
		Type:                p.Type,
		SystemSymbol:        p.SystemSymbol,
		X:                   p.X,
		Y:                   p.Y,
		Orbits:              p.Orbits,
		Orbitals:            orbitals,
		Traits:              traits,
		Faction:             p.Faction.Symbol,
		IsUnderConstruction: p.IsUnderConstruction,
	}
}

type tradeGoodRefPayload struct {
	Symbol string `json:"symbol"`
}

type marketPayload struct {
	Symbol     string                `json:"symbol"`
	Exports    []tradeGoodRefPayload `json:"exports"`
	Imports    []tradeGoodRefPayload `json:"imports"`
	Exchange   []tradeGoodRefPayload `json:"exchange"`
	TradeGoods []struct {
		Symbol        string `json:"symbol"`
		Type          string `json:"type"`
		TradeVolume   int    `json:"tradeVolume"`
		Supply        string `json:"supply"`
		Activity      string `json:"activity"`
		PurchasePrice int    `json:"purchasePrice"`
		SellPrice     int    `json:"sellPrice"`
	} `json:"tradeGoods"`
}

func (p marketPayload) toDomain() *ports.MarketData {
	symbols := func(refs []tradeGoodRefPayload) []string {
		out := make([]string, len(refs))
		for i, r := range refs {
			out[i] = r.Symbol
		}
		return out
	}
	goods := make([]ports.TradeGoodData, len(p.TradeGoods))
	for i, g := range p.TradeGoods {
		goods[i] = ports.TradeGoodData{
			Symbol:        g.Symbol,
			Type:          g.Type,
			TradeVolume:   g.TradeVolume,
			Supply:        g.Supply,
			Activity:      g.Activity,
			PurchasePrice: g.PurchasePrice,
			SellPrice:     g.SellPrice,
		}
	}
	return &ports.MarketData{
		Symbol:     p.Symbol,
		Exports:    symbols(p.Exports),
		Imports:    symbols(p.Imports),
		Exchange:   symbols(p.Exchange),
		TradeGoods: goods,
	}
}

type shipyardPayload struct {
	Symbol    string `json:"symbol"`
	ShipTypes []struct {
		Type string `json:"type"`
	} `json:"shipTypes"`
	Ships []struct {
		Type          string `json:"type"`
		Name          string `json:"name"`
		Supply        string `json:"supply"`
		PurchasePrice int    `json:"purchasePrice"`
	} `json:"ships"`
	ModificationsFee int `json:"modificationsFee"`
}

func (p shipyardPayload) toDomain() *ports.ShipyardData {
	types := make([]string, len(p.ShipTypes))
	for i, t := range p.ShipTypes {
		types[i] = t.Type
	}
	ships := make([]ports.ShipListingData, len(p.Ships))
	for i, s := range p.Ships {
		ships[i] = ports.ShipListingData{
			Type:          s.Type,
			Name:          s.Name,
			Supply:        s.Supply,
			PurchasePrice: s.PurchasePrice,
		}
	}
	return &ports.ShipyardData{
		Symbol:           p.Symbol,
		ShipTypes:        types,
		Ships:            ships,
		ModificationsFee: p.ModificationsFee,
	}
}

type contractPayload struct {
	ID            string `json:"id"`
	FactionSymbol string `json:"factionSymbol"`
	Type          string `json:"type"`
	Terms         struct {
		Deadline string `json:"deadline"`
		Payment  struct {
			OnAccepted  int `json:"onAccepted"`
			OnFulfilled int `json:"onFulfilled"`
		} `json:"payment"`
		Deliver []struct {
			TradeSymbol       string `json:"tradeSymbol"`
			DestinationSymbol string `json:"destinationSymbol"`
			UnitsRequired     int    `json:"unitsRequired"`
			UnitsFulfilled    int    `json:"unitsFulfilled"`
		} `json:"deliver"`
	} `json:"terms"`
	Accepted         bool   `json:"accepted"`
	Fulfilled        bool   `json:"fulfilled"`
	DeadlineToAccept string `json:"deadlineToAccept"`
}

func (p contractPayload) toDomain() *contract.Contract {
	deliveries := make([]contract.Delivery, len(p.Terms.Deliver))
	for i, d := range p.Terms.Deliver {
		deliveries[i] = contract.Delivery{
			TradeSymbol:       d.TradeSymbol,
			DestinationSymbol: d.DestinationSymbol,
			UnitsRequired:     d.UnitsRequired,
			UnitsFulfilled:    d.UnitsFulfilled,
		}
	}
	return &contract.Contract{
		ID:            p.ID,
		FactionSymbol: p.FactionSymbol,
		Type:          p.Type,
		Terms: contract.Terms{
			Payment: contract.Payment{
				OnAccepted:  p.Terms.Payment.OnAccepted,
				OnFulfilled: p.Terms.Payment.OnFulfilled,
			},
			Deliveries:       deliveries,
			DeadlineToAccept: p.DeadlineToAccept,
			Deadline:         p.Terms.Deadline,
		},
		Accepted:  p.Accepted,
		Fulfilled: p.Fulfilled,
	}
}

type constructionPayload struct {
	Symbol    string `json:"symbol"`
	Materials []struct {
		TradeSymbol string `json:"tradeSymbol"`
		Required    int    `json:"required"`
		Fulfilled   int    `json:"fulfilled"`
	} `json:"materials"`
	IsComplete bool `json:"isComplete"`
}

func (p constructionPayload) toDomain() *ports.ConstructionData {
	materials := make([]ports.ConstructionMaterial, len(p.Materials))
	for i, m := range p.Materials {
		materials[i] = ports.ConstructionMaterial{
			TradeSymbol: m.TradeSymbol,
			Required:    m.Required,
			Fulfilled:   m.Fulfilled,
		}
	}
	return &ports.ConstructionData{
		Symbol:     p.Symbol,
		Materials:  materials,
		IsComplete: p.IsComplete,
	}
}
