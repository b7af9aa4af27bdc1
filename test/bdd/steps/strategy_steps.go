package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"

	domainFleet "github.com/andrescamacho/spacetraders-fleet/internal/domain/fleet"
)

type strategyContext struct {
	world domainFleet.WorldSnapshot
	meta  *domainFleet.Registry
	plan  domainFleet.FleetPlan
}

func (sc *strategyContext) reset() {
	sc.world = domainFleet.WorldSnapshot{
		CurrentAssignments: map[string]domainFleet.MissionKind{},
		SkipShips:          map[string]bool{},
		Overrides:          map[string]string{},
	}
	sc.meta = domainFleet.NewRegistry(nil, nil)
	sc.plan = domainFleet.NewFleetPlan()
}

// Given steps

func (sc *strategyContext) theAgentHasCredits(credits int) error {
	sc.world.Credits = credits
	return nil
}

func (sc *strategyContext) theFollowingShips(table *godog.Table) error {
	for i, row := range table.Rows {
		if i == 0 {
			continue // Skip header
		}

		symbol := cellValue(table, row, "symbol")
		var cargo, fuel int
		fmt.Sscanf(cellValue(table, row, "cargo"), "%d", &cargo)
		fmt.Sscanf(cellValue(table, row, "fuel"), "%d", &fuel)

		category := domainFleet.ShipCategory(strings.TrimSpace(cellValue(table, row, "category")))
		if category == "" {
			category = sc.meta.Categorize(symbol, cargo, fuel)
		}
		if !category.IsValid() {
			return fmt.Errorf("unknown ship category %q for %s", category, symbol)
		}

		sc.world.Ships = append(sc.world.Ships, domainFleet.ShipCapability{
			Symbol:        symbol,
			CargoCapacity: cargo,
			FuelCapacity:  fuel,
			Category:      category,
		})
	}
	return nil
}

func (sc *strategyContext) profitableMarketRoutesAreAvailable() error {
	sc.world.MarketRoutesAvailable = true
	return nil
}

func (sc *strategyContext) theJumpGateNeedsSupplies() error {
	sc.world.GateNeedsSupplies = true
	return nil
}

func (sc *strategyContext) aProfitableContractIsActive() error {
	sc.world.HasActiveContract = true
	sc.world.ContractProfitable = true
	return nil
}

func (sc *strategyContext) anUnprofitableContractIsActive() error {
	sc.world.HasActiveContract = true
	sc.world.ContractProfitable = false
	return nil
}

func (sc *strategyContext) shipIsOverriddenTo(symbol, mission string) error {
	sc.world.Overrides[symbol] = mission
	return nil
}

func (sc *strategyContext) shipIsOnTheSkipList(symbol string) error {
	sc.world.SkipShips[symbol] = true
	return nil
}

// When steps

func (sc *strategyContext) theStrategyEvaluatesTheFleet() error {
	strategy := domainFleet.NewStrategy(domainFleet.DefaultCapitalPolicy())
	sc.plan = strategy.Evaluate(sc.world)
	return nil
}

// Then steps

func (sc *strategyContext) thePlanShouldAssignTo(mission, symbol string) error {
	want, err := domainFleet.ParseMissionKind(mission)
	if err != nil {
		return err
	}
	got := sc.plan.Get(symbol).Mission
	if got != want {
		return fmt.Errorf("expected %s to be assigned %s, got %s", symbol, want, got)
	}
	return nil
}

func (sc *strategyContext) thePlanShouldAssignToACargoShip(mission string, cargo int) error {
	want, err := domainFleet.ParseMissionKind(mission)
	if err != nil {
		return err
	}
	for _, ship := range sc.world.Ships {
		if ship.CargoCapacity == cargo && sc.plan.Get(ship.Symbol).Mission == want {
			return nil
		}
	}
	return fmt.Errorf("no %d-cargo ship was assigned %s", cargo, want)
}

func (sc *strategyContext) shipsShouldBeAssigned(count int, mission string) error {
	want, err := domainFleet.ParseMissionKind(mission)
	if err != nil {
		return err
	}
	got := 0
	for _, assignment := range sc.plan.Assignments {
		if assignment.Mission == want {
			got++
		}
	}
	if got != count {
		return fmt.Errorf("expected %d ships assigned %s, got %d", count, want, got)
	}
	return nil
}

// everyRemainingHaulerShouldBeAssignedTrade checks that no eligible hauler
// was left idle: each cargo ship either got gate or contract work or trades.
func (sc *strategyContext) everyRemainingHaulerShouldBeAssignedTrade() error {
	for _, ship := range sc.world.Ships {
		if ship.Category != domainFleet.CategoryShip {
			continue
		}
		if sc.world.SkipShips[ship.Symbol] {
			continue
		}
		if _, ok := sc.world.Overrides[ship.Symbol]; ok {
			continue
		}
		got := sc.plan.Get(ship.Symbol).Mission
		if got == domainFleet.MissionGateBuild || got == domainFleet.MissionContract {
			continue
		}
		if got != domainFleet.MissionTrade {
			return fmt.Errorf("expected hauler %s to trade, got %s", ship.Symbol, got)
		}
	}
	return nil
}

func (sc *strategyContext) thePlanShouldCoverExactlyTheShipsInTheSnapshot() error {
	if len(sc.plan.Assignments) != len(sc.world.Ships) {
		return fmt.Errorf("expected %d assignments, got %d", len(sc.world.Ships), len(sc.plan.Assignments))
	}
	for _, ship := range sc.world.Ships {
		if _, ok := sc.plan.Assignments[ship.Symbol]; !ok {
			return fmt.Errorf("ship %s received no assignment", ship.Symbol)
		}
	}
	return nil
}

func InitializeStrategyScenario(ctx *godog.ScenarioContext) {
	sc := &strategyContext{}

	ctx.Before(func(ctx context.Context, scenario *godog.Scenario) (context.Context, error) {
		sc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^the agent has (\d+) credits$`, sc.theAgentHasCredits)
	ctx.Step(`^the following ships:$`, sc.theFollowingShips)
	ctx.Step(`^profitable market routes are available$`, sc.profitableMarketRoutesAreAvailable)
	ctx.Step(`^the jump gate needs supplies$`, sc.theJumpGateNeedsSupplies)
	ctx.Step(`^a profitable contract is active$`, sc.aProfitableContractIsActive)
	ctx.Step(`^an unprofitable contract is active$`, sc.anUnprofitableContractIsActive)
	ctx.Step(`^ship ([A-Z0-9-]+) is overridden to ([a-z_]+)$`, sc.shipIsOverriddenTo)
	ctx.Step(`^ship ([A-Z0-9-]+) is on the skip list$`, sc.shipIsOnTheSkipList)

	// When steps
	ctx.Step(`^the strategy evaluates the fleet$`, sc.theStrategyEvaluatesTheFleet)

	// Then steps
	ctx.Step(`^the plan should assign ([a-z_]+) to ([A-Z0-9-]+)$`, sc.thePlanShouldAssignTo)
	ctx.Step(`^the plan should assign ([a-z_]+) to an (\d+)-cargo ship$`, sc.thePlanShouldAssignToACargoShip)
	ctx.Step(`^(\d+) ships should be assigned ([a-z_]+)$`, sc.shipsShouldBeAssigned)
	ctx.Step(`^every remaining hauler should be assigned trade$`, sc.everyRemainingHaulerShouldBeAssignedTrade)
	ctx.Step(`^the plan should cover exactly the ships in the snapshot$`, sc.thePlanShouldCoverExactlyTheShipsInTheSnapshot)
}
