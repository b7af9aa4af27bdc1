package market

// Supply level to base multiplier for safe sell volume
// (units = trade_volume × multiplier). Conservative: LIMITED × 3.0 = 18
// units with volume 6; the price cliff hits around 20-24 empirically.
var supplyMultiplier = map[string]float64{
	SupplyScarce:   2.0,
	SupplyLimited:  3.0,
	SupplyModerate: 4.0,
	SupplyHigh:     5.0,
	SupplyAbundant: 6.0,
}

// SafeSellVolume estimates how many units a destination market can absorb
// without crashing its price. STRONG activity adds 1.0 to the multiplier
// since those markets recover faster. The result never exceeds cargo capacity.
func SafeSellVolume(destSupply, destActivity string, tradeVolume, cargoCapacity int) int {
	multiplier, ok := supplyMultiplier[destSupply]
	if !ok {
		multiplier = 3.0
	}
	if destActivity == ActivityStrong {
		multiplier += 1.0
	}
	units := int(float64(tradeVolume) * multiplier)
	if units > cargoCapacity {
		return cargoCapacity
	}
	return units
}
