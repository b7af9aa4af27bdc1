package fleet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/andrescamacho/spacetraders-fleet/internal/application/common"
	domainFleet "github.com/andrescamacho/spacetraders-fleet/internal/domain/fleet"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/ports"
)

// ShipAgent runs one mission for one ship in a background goroutine and
// reports how it ended through fleet events.
//
// Agents are owned by the commander goroutine: all fields are written from
// there, and the mission goroutine only closes done and emits events.
type ShipAgent struct {
	symbol   string
	nickname string
	mission  domainFleet.MissionKind
	params   map[string]any

	restartCount int

	cancel context.CancelFunc
	done   chan struct{}
	runID  string
}

// NewShipAgent creates an agent for one ship and assignment
func NewShipAgent(symbol, nickname string, mission domainFleet.MissionKind, params map[string]any) *ShipAgent {
	done := make(chan struct{})
	close(done)
	return &ShipAgent{
		symbol:   symbol,
		nickname: nickname,
		mission:  mission,
		params:   params,
		cancel:   func() {},
		done:     done,
	}
}

// Symbol returns the ship symbol
func (a *ShipAgent) Symbol() string {
	return a.symbol
}

// Nickname returns the ship's log name
func (a *ShipAgent) Nickname() string {
	return a.nickname
}

// Mission returns the assigned mission kind
func (a *ShipAgent) Mission() domainFleet.MissionKind {
	return a.mission
}

// RestartCount returns how many times this assignment has been relaunched
// after a crash
func (a *ShipAgent) RestartCount() int {
	return a.restartCount
}

// RunID identifies the current launch in logs
func (a *ShipAgent) RunID() string {
	return a.runID
}

// Done returns a channel closed when the current run has finished
func (a *ShipAgent) Done() <-chan struct{} {
	return a.done
}

// Running reports whether the mission goroutine is still alive
func (a *ShipAgent) Running() bool {
	select {
	case <-a.done:
		return false
	default:
		return true
	}
}

// Launch starts the mission goroutine. IDLE and unregistered missions are
// a no-op: an idle ship gets no goroutine. Returns whether a run started.
func (a *ShipAgent) Launch(parent context.Context, deps *Deps, registry *MissionRegistry, ship *ports.ShipData) bool {
	fn, ok := registry.Get(a.mission)
	if !ok {
		return false
	}

	a.runID = uuid.NewString()[:8]
	ctx, cancel := context.WithCancel(parent)
	a.cancel = cancel

	logger := common.NewShipLogger(a.nickname)
	ctx = common.WithLogger(ctx, logger)

	done := make(chan struct{})
	a.done = done

	logger.Info("mission %s starting (run %s)", a.mission, a.runID)

	go func() {
		err := fn(ctx, deps, ship, a.params)

		// Close before emitting so a crash event never races its own
		// teardown: by the time the commander reads the event, Running()
		// already reports false and the relaunch is not skipped.
		close(done)

		switch {
		case ctx.Err() != nil || errors.Is(err, ErrShutdown):
			// Cancelled or shutting down: the commander already knows.
		case err != nil:
			logger.Error("mission %s crashed: %v", a.mission, err)
			deps.State.Emit(domainFleet.NewEvent(domainFleet.EventMissionCrashed, a.symbol, map[string]any{
				"error":      err.Error(),
				"error_type": fmt.Sprintf("%T", err),
			}))
		default:
			logger.Info("mission %s ended", a.mission)
			deps.State.Emit(domainFleet.NewEvent(domainFleet.EventMissionEnded, a.symbol, nil))
		}
	}()

	return true
}

// Relaunch bumps the restart count and starts the mission again
func (a *ShipAgent) Relaunch(parent context.Context, deps *Deps, registry *MissionRegistry, ship *ports.ShipData) bool {
	a.restartCount++
	return a.Launch(parent, deps, registry, ship)
}

// Cancel signals the mission goroutine to stop without waiting for it
func (a *ShipAgent) Cancel() {
	a.cancel()
}

// Stop cancels the current run and waits up to grace for the goroutine to
// finish. Reports whether it finished in time.
func (a *ShipAgent) Stop(grace time.Duration) bool {
	a.cancel()
	select {
	case <-a.done:
		return true
	case <-time.After(grace):
		return false
	}
}
