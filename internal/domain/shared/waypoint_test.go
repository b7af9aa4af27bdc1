package shared_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/spacetraders-fleet/internal/domain/shared"
)

func TestNewWaypoint(t *testing.T) {
	wp, err := shared.NewWaypoint("X1-GZ7-A1", 10.5, 20.3)
	require.NoError(t, err)
	assert.Equal(t, "X1-GZ7-A1", wp.Symbol)
	assert.Equal(t, "X1-GZ7", wp.SystemSymbol)

	_, err = shared.NewWaypoint("", 0, 0)
	assert.Error(t, err)
}

func TestWaypoint_DistanceTo(t *testing.T) {
	a, _ := shared.NewWaypoint("X1-GZ7-A1", 0, 0)
	b, _ := shared.NewWaypoint("X1-GZ7-B2", 3, 4)

	assert.InDelta(t, 5.0, a.DistanceTo(b), 1e-9)
	assert.InDelta(t, 5.0, b.DistanceTo(a), 1e-9)
	assert.Zero(t, a.DistanceTo(a))
}

func TestWaypoint_HasTrait(t *testing.T) {
	wp, _ := shared.NewWaypoint("X1-GZ7-A1", 0, 0)
	wp.Traits = []string{"MARKETPLACE", "SHIPYARD"}

	assert.True(t, wp.HasMarketplace())
	assert.True(t, wp.HasTrait(shared.TraitShipyard))
	assert.False(t, wp.HasTrait("STRIPPED"))
}

func TestFindNearestWaypoint(t *testing.T) {
	from, _ := shared.NewWaypoint("X1-GZ7-A1", 0, 0)
	near, _ := shared.NewWaypoint("X1-GZ7-B2", 1, 1)
	far, _ := shared.NewWaypoint("X1-GZ7-C3", 100, 100)

	nearest, dist := shared.FindNearestWaypoint(from, []*shared.Waypoint{far, near})
	require.NotNil(t, nearest)
	assert.Equal(t, "X1-GZ7-B2", nearest.Symbol)
	assert.InDelta(t, 1.4142, dist, 0.001)

	nearest, dist = shared.FindNearestWaypoint(from, nil)
	assert.Nil(t, nearest)
	assert.Zero(t, dist)
}

func TestExtractSystemSymbol(t *testing.T) {
	assert.Equal(t, "X1-GZ7", shared.ExtractSystemSymbol("X1-GZ7-A1"))
	assert.Equal(t, "X1-AB12", shared.ExtractSystemSymbol("X1-AB12-C3D4-EXTRA"))

	// Fewer than three segments: returned unchanged
	assert.Equal(t, "X1-GZ7", shared.ExtractSystemSymbol("X1-GZ7"))
	assert.Equal(t, "SOLO", shared.ExtractSystemSymbol("SOLO"))
}
