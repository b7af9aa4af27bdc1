package fleet_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/spacetraders-fleet/internal/domain/fleet"
)

func hauler(symbol string, cargo int) fleet.ShipCapability {
	return fleet.ShipCapability{
		Symbol:        symbol,
		CargoCapacity: cargo,
		FuelCapacity:  400,
		Category:      fleet.CategoryShip,
	}
}

func probe(symbol string) fleet.ShipCapability {
	return fleet.ShipCapability{
		Symbol:   symbol,
		Category: fleet.CategoryProbe,
	}
}

func TestEvaluate_AssignsTradeAndScan(t *testing.T) {
	strategy := fleet.NewStrategy(fleet.DefaultCapitalPolicy())

	plan := strategy.Evaluate(fleet.WorldSnapshot{
		Credits:               250_000,
		Ships:                 []fleet.ShipCapability{hauler("S-1", 80), hauler("S-2", 40), probe("P-1")},
		MarketRoutesAvailable: true,
	})

	require.Len(t, plan.Assignments, 3)
	assert.Equal(t, fleet.MissionTrade, plan.Get("S-1").Mission)
	assert.Equal(t, fleet.MissionTrade, plan.Get("S-2").Mission)
	assert.Equal(t, fleet.MissionScan, plan.Get("P-1").Mission)
}

func TestEvaluate_GateBuildGoesToLargestHauler(t *testing.T) {
	strategy := fleet.NewStrategy(fleet.DefaultCapitalPolicy())

	plan := strategy.Evaluate(fleet.WorldSnapshot{
		Credits:               500_000,
		Ships:                 []fleet.ShipCapability{hauler("S-1", 40), hauler("S-2", 80), hauler("S-3", 80)},
		HasActiveContract:     true,
		ContractProfitable:    true,
		GateNeedsSupplies:     true,
		MarketRoutesAvailable: true,
	})

	require.Len(t, plan.Assignments, 3)

	// Largest first; S-2 precedes S-3 on equal cargo (stable sort)
	gate := plan.Get("S-2")
	assert.Equal(t, fleet.MissionGateBuild, gate.Mission)
	assert.Equal(t, 300_000, gate.Params["capital_floor"])

	assert.Equal(t, fleet.MissionContract, plan.Get("S-3").Mission)
	assert.Equal(t, fleet.MissionContract, plan.Get("S-1").Mission)
}

func TestEvaluate_LowCreditsParksCargoShips(t *testing.T) {
	strategy := fleet.NewStrategy(fleet.DefaultCapitalPolicy())

	plan := strategy.Evaluate(fleet.WorldSnapshot{
		Credits:               10_000,
		Ships:                 []fleet.ShipCapability{hauler("S-1", 80), probe("P-1")},
		HasActiveContract:     true,
		ContractProfitable:    true,
		GateNeedsSupplies:     true,
		MarketRoutesAvailable: true,
	})

	assert.Equal(t, fleet.MissionIdle, plan.Get("S-1").Mission)
	assert.Equal(t, fleet.MissionScan, plan.Get("P-1").Mission)
}

func TestEvaluate_ContractCappedAtTwoShips(t *testing.T) {
	strategy := fleet.NewStrategy(fleet.DefaultCapitalPolicy())

	plan := strategy.Evaluate(fleet.WorldSnapshot{
		Credits:               100_000,
		Ships:                 []fleet.ShipCapability{hauler("S-1", 80), hauler("S-2", 60), hauler("S-3", 40)},
		HasActiveContract:     true,
		ContractProfitable:    true,
		MarketRoutesAvailable: true,
	})

	contracts := 0
	for _, a := range plan.Assignments {
		if a.Mission == fleet.MissionContract {
			contracts++
		}
	}
	assert.Equal(t, 2, contracts)
	assert.Equal(t, fleet.MissionTrade, plan.Get("S-3").Mission)
}

func TestEvaluate_UnprofitableContractSkipped(t *testing.T) {
	strategy := fleet.NewStrategy(fleet.DefaultCapitalPolicy())

	plan := strategy.Evaluate(fleet.WorldSnapshot{
		Credits:               100_000,
		Ships:                 []fleet.ShipCapability{hauler("S-1", 80)},
		HasActiveContract:     true,
		ContractProfitable:    false,
		MarketRoutesAvailable: true,
	})

	assert.Equal(t, fleet.MissionTrade, plan.Get("S-1").Mission)
}

func TestEvaluate_NoRoutesParksHaulers(t *testing.T) {
	strategy := fleet.NewStrategy(fleet.DefaultCapitalPolicy())

	plan := strategy.Evaluate(fleet.WorldSnapshot{
		Credits: 250_000,
		Ships:   []fleet.ShipCapability{hauler("S-1", 80)},
	})

	assert.Equal(t, fleet.MissionIdle, plan.Get("S-1").Mission)
}

func TestEvaluate_TradeMinGatesTrading(t *testing.T) {
	strategy := fleet.NewStrategy(fleet.DefaultCapitalPolicy())

	plan := strategy.Evaluate(fleet.WorldSnapshot{
		Credits:               40_000, // above idle threshold, below trade min
		Ships:                 []fleet.ShipCapability{hauler("S-1", 80)},
		MarketRoutesAvailable: true,
	})

	assert.Equal(t, fleet.MissionIdle, plan.Get("S-1").Mission)
}

func TestEvaluate_OverridesAndSkips(t *testing.T) {
	strategy := fleet.NewStrategy(fleet.DefaultCapitalPolicy())

	plan := strategy.Evaluate(fleet.WorldSnapshot{
		Credits: 250_000,
		Ships: []fleet.ShipCapability{
			hauler("S-1", 80),
			hauler("S-2", 40),
			hauler("S-3", 40),
			{Symbol: "D-1", Category: fleet.CategorySentinel},
		},
		MarketRoutesAvailable: true,
		SkipShips:             map[string]bool{"S-2": true},
		Overrides: map[string]string{
			"S-1": "contract",
			"S-3": "bogus",
		},
	})

	assert.Equal(t, fleet.MissionContract, plan.Get("S-1").Mission)
	assert.Equal(t, fleet.MissionIdle, plan.Get("S-2").Mission)
	assert.Equal(t, fleet.MissionIdle, plan.Get("S-3").Mission)
	assert.Equal(t, fleet.MissionIdle, plan.Get("D-1").Mission)
}

func TestChangesFrom_ReturnsOnlyDiffs(t *testing.T) {
	plan := fleet.NewFleetPlan()
	plan.Assign("S-1", fleet.MissionTrade, nil)
	plan.Assign("S-2", fleet.MissionContract, nil)
	plan.Assign("P-1", fleet.MissionScan, nil)

	changes := plan.ChangesFrom(map[string]fleet.MissionKind{
		"S-1": fleet.MissionTrade,
		"S-2": fleet.MissionTrade,
		"P-1": fleet.MissionScan,
	})

	require.Len(t, changes, 1)
	assert.Equal(t, fleet.MissionContract, changes["S-2"].Mission)
}

func TestChangesFrom_UnknownShipCountsAsChange(t *testing.T) {
	plan := fleet.NewFleetPlan()
	plan.Assign("S-9", fleet.MissionTrade, nil)

	changes := plan.ChangesFrom(map[string]fleet.MissionKind{})

	require.Len(t, changes, 1)
	assert.Equal(t, fleet.MissionTrade, changes["S-9"].Mission)
}

func TestStrategicEvents(t *testing.T) {
	assert.True(t, fleet.EventTradeCompleted.IsStrategic())
	assert.True(t, fleet.EventMissionCrashed.IsStrategic())
	assert.True(t, fleet.EventCapitalLow.IsStrategic())
	assert.False(t, fleet.EventContractDelivery.IsStrategic())
	assert.False(t, fleet.EventScanComplete.IsStrategic())
}

func TestRegistry_Categorize(t *testing.T) {
	registry := fleet.NewRegistry(
		map[string]string{"S-1": "Hauler"},
		map[string]string{"D-1": "sentinel", "S-9": "disabled"},
	)

	assert.Equal(t, "Hauler", registry.Name("S-1"))
	assert.Equal(t, "P-7", registry.Name("P-7"))

	assert.Equal(t, fleet.CategorySentinel, registry.Categorize("D-1", 15, 80))
	assert.Equal(t, fleet.CategoryDisabled, registry.Categorize("S-9", 40, 300))
	assert.Equal(t, fleet.CategoryProbe, registry.Categorize("P-7", 0, 0))
	assert.Equal(t, fleet.CategoryShip, registry.Categorize("S-2", 80, 600))
}
