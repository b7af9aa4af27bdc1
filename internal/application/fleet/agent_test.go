package fleet_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/spacetraders-fleet/internal/application/fleet"
	domainFleet "github.com/andrescamacho/spacetraders-fleet/internal/domain/fleet"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/ports"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/shared"
)

func agentFixture(t *testing.T, mission fleet.MissionFunc) (*fleet.Deps, *fleet.MissionRegistry, *ports.ShipData) {
	t.Helper()
	state := fleet.NewFleetState(nil, shared.NewMockClock(time.Time{}))
	deps := &fleet.Deps{State: state}
	registry := fleet.NewMissionRegistry()
	if mission != nil {
		registry.Register(domainFleet.MissionTrade, mission)
	}
	return deps, registry, &ports.ShipData{Symbol: "SHIP-A"}
}

func waitForEvent(t *testing.T, state *fleet.FleetState) domainFleet.FleetEvent {
	t.Helper()
	select {
	case event := <-state.Events():
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a fleet event")
		return domainFleet.FleetEvent{}
	}
}

func TestAgentEmitsEndedOnCleanReturn(t *testing.T) {
	deps, registry, ship := agentFixture(t, func(ctx context.Context, deps *fleet.Deps, ship *ports.ShipData, params map[string]any) error {
		return nil
	})

	agent := fleet.NewShipAgent("SHIP-A", "hauler-one", domainFleet.MissionTrade, nil)
	require.True(t, agent.Launch(context.Background(), deps, registry, ship))
	<-agent.Done()

	event := waitForEvent(t, deps.State)
	assert.Equal(t, domainFleet.EventMissionEnded, event.Type)
	assert.Equal(t, "SHIP-A", event.Ship)
	assert.False(t, agent.Running())
}

func TestAgentEmitsCrashedOnError(t *testing.T) {
	deps, registry, ship := agentFixture(t, func(ctx context.Context, deps *fleet.Deps, ship *ports.ShipData, params map[string]any) error {
		return errors.New("engine exploded")
	})

	agent := fleet.NewShipAgent("SHIP-A", "hauler-one", domainFleet.MissionTrade, nil)
	require.True(t, agent.Launch(context.Background(), deps, registry, ship))
	<-agent.Done()

	event := waitForEvent(t, deps.State)
	assert.Equal(t, domainFleet.EventMissionCrashed, event.Type)
	assert.Equal(t, "SHIP-A", event.Ship)
	assert.Equal(t, "engine exploded", event.Data["error"])
	assert.NotEmpty(t, event.Data["error_type"])
}

func TestAgentCancellationEmitsNothing(t *testing.T) {
	deps, registry, ship := agentFixture(t, func(ctx context.Context, deps *fleet.Deps, ship *ports.ShipData, params map[string]any) error {
		<-ctx.Done()
		return ctx.Err()
	})

	agent := fleet.NewShipAgent("SHIP-A", "hauler-one", domainFleet.MissionTrade, nil)
	require.True(t, agent.Launch(context.Background(), deps, registry, ship))
	assert.True(t, agent.Running())

	require.True(t, agent.Stop(2*time.Second))
	assert.False(t, agent.Running())

	select {
	case event := <-deps.State.Events():
		t.Fatalf("cancelled mission should emit nothing, got %s", event.Type)
	default:
	}
}

func TestAgentShutdownReturnEmitsNothing(t *testing.T) {
	deps, registry, ship := agentFixture(t, func(ctx context.Context, deps *fleet.Deps, ship *ports.ShipData, params map[string]any) error {
		return fleet.ErrShutdown
	})

	agent := fleet.NewShipAgent("SHIP-A", "hauler-one", domainFleet.MissionTrade, nil)
	require.True(t, agent.Launch(context.Background(), deps, registry, ship))
	<-agent.Done()

	select {
	case event := <-deps.State.Events():
		t.Fatalf("shutdown return should emit nothing, got %s", event.Type)
	default:
	}
}

func TestAgentIdleMissionNeverLaunches(t *testing.T) {
	deps, registry, ship := agentFixture(t, nil)

	agent := fleet.NewShipAgent("SHIP-A", "hauler-one", domainFleet.MissionIdle, nil)
	assert.False(t, agent.Launch(context.Background(), deps, registry, ship))
	assert.False(t, agent.Running())

	// Done is already closed so waiters never hang on an idle agent.
	select {
	case <-agent.Done():
	default:
		t.Fatal("Done should be closed for an unlaunched agent")
	}
}

func TestAgentUnregisteredMissionNeverLaunches(t *testing.T) {
	deps, registry, ship := agentFixture(t, nil) // registry is empty

	agent := fleet.NewShipAgent("SHIP-A", "hauler-one", domainFleet.MissionTrade, nil)
	assert.False(t, agent.Launch(context.Background(), deps, registry, ship))
	assert.False(t, agent.Running())
}

func TestAgentRelaunchIncrementsRestartCount(t *testing.T) {
	deps, registry, ship := agentFixture(t, func(ctx context.Context, deps *fleet.Deps, ship *ports.ShipData, params map[string]any) error {
		return nil
	})

	agent := fleet.NewShipAgent("SHIP-A", "hauler-one", domainFleet.MissionTrade, nil)
	require.True(t, agent.Launch(context.Background(), deps, registry, ship))
	<-agent.Done()
	firstRun := agent.RunID()

	assert.Equal(t, 0, agent.RestartCount())
	require.True(t, agent.Relaunch(context.Background(), deps, registry, ship))
	<-agent.Done()

	assert.Equal(t, 1, agent.RestartCount())
	assert.NotEqual(t, firstRun, agent.RunID(), "every launch gets its own run ID")
}
