package steps

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/spacetraders-fleet/internal/domain/market"
)

type safeSellContext struct {
	supply   string
	activity string
	volume   int
	capacity int
	units    int
}

func (ssc *safeSellContext) reset() {
	ssc.supply = ""
	ssc.activity = ""
	ssc.volume = 0
	ssc.capacity = 0
	ssc.units = 0
}

// Given steps

func (ssc *safeSellContext) aDestinationMarketWithSupplyAndActivity(supply, activity string) error {
	ssc.supply = supply
	ssc.activity = activity
	return nil
}

func (ssc *safeSellContext) theMarketTradeVolumeIs(volume int) error {
	ssc.volume = volume
	return nil
}

func (ssc *safeSellContext) theShipCargoCapacityIs(capacity int) error {
	ssc.capacity = capacity
	return nil
}

// When steps

func (ssc *safeSellContext) theSafeSellVolumeIsCalculated() error {
	ssc.units = market.SafeSellVolume(ssc.supply, ssc.activity, ssc.volume, ssc.capacity)
	return nil
}

// Then steps

func (ssc *safeSellContext) theSafeSellVolumeShouldBe(expected int) error {
	if ssc.units != expected {
		return fmt.Errorf("expected safe sell volume %d, got %d", expected, ssc.units)
	}
	return nil
}

func InitializeSafeSellScenario(ctx *godog.ScenarioContext) {
	ssc := &safeSellContext{}

	ctx.Before(func(ctx context.Context, scenario *godog.Scenario) (context.Context, error) {
		ssc.reset()
		return ctx, nil
	})

	ctx.Step(`^a destination market with supply ([A-Z_]+) and activity ([A-Z]+)$`, ssc.aDestinationMarketWithSupplyAndActivity)
	ctx.Step(`^the market trade volume is (\d+)$`, ssc.theMarketTradeVolumeIs)
	ctx.Step(`^the ship cargo capacity is (\d+)$`, ssc.theShipCargoCapacityIs)
	ctx.Step(`^the safe sell volume is calculated$`, ssc.theSafeSellVolumeIsCalculated)
	ctx.Step(`^the safe sell volume should be (\d+)$`, ssc.theSafeSellVolumeShouldBe)
}
