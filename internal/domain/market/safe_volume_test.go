package market_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andrescamacho/spacetraders-fleet/internal/domain/market"
)

func TestSafeSellVolume(t *testing.T) {
	// LIMITED supply: 3x the trade volume
	assert.Equal(t, 18, market.SafeSellVolume("LIMITED", "WEAK", 6, 40))

	// STRONG activity adds 1.0 to the multiplier
	assert.Equal(t, 24, market.SafeSellVolume("LIMITED", "STRONG", 6, 40))

	// Result never exceeds cargo capacity
	assert.Equal(t, 25, market.SafeSellVolume("ABUNDANT", "STRONG", 100, 25))

	// Unknown supply falls back to the 3.0 multiplier
	assert.Equal(t, 18, market.SafeSellVolume("", "WEAK", 6, 40))
	assert.Equal(t, 18, market.SafeSellVolume("MYSTERY", "", 6, 40))

	// Scarce markets absorb the least
	assert.Equal(t, 12, market.SafeSellVolume("SCARCE", "WEAK", 6, 40))
}
