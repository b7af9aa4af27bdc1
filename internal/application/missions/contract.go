package missions

import (
	"context"
	"fmt"
	"time"

	"github.com/andrescamacho/spacetraders-fleet/internal/application/common"
	"github.com/andrescamacho/spacetraders-fleet/internal/application/fleet"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/contract"
	domainFleet "github.com/andrescamacho/spacetraders-fleet/internal/domain/fleet"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/ports"
)

const (
	// contractIdleSleep paces re-evaluation while the only contract on
	// offer is not worth working
	contractIdleSleep = 5 * time.Minute

	// contractRetrySleep paces retries after a recoverable API rejection
	// or a missing source market
	contractRetrySleep = 60 * time.Second
)

// Contract works faction procurement contracts. All contract ships share one
// board (deps.Contracts): one negotiates while the rest wait, then everyone
// delivers against the same contract. Each loop pass performs one step
// (negotiate, buy, deliver, or fulfill) so API rejections back off without
// losing progress.
func Contract(ctx context.Context, deps *fleet.Deps, ship *ports.ShipData, params map[string]any) error {
	logger := common.LoggerFromContext(ctx)
	symbol := ship.Symbol

	ship, err := awaitArrival(ctx, deps, symbol)
	if err != nil {
		return err
	}
	system, err := deps.State.EnsureSystem(ctx, deps.API, ship.Nav.SystemSymbol)
	if err != nil {
		return fmt.Errorf("loading system intel for %s: %w", ship.Nav.SystemSymbol, err)
	}
	deps.Contracts.SetStartCredits(deps.State.Credits())

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if deps.State.ShuttingDown() {
			return fleet.ErrShutdown
		}

		ship, err = deps.API.GetShip(ctx, symbol)
		if err != nil {
			return fmt.Errorf("reading state of %s: %w", symbol, err)
		}

		err = contractStep(ctx, deps, ship, system)
		if err == nil {
			continue
		}
		if ctx.Err() != nil || deps.State.ShuttingDown() {
			return err
		}
		if apiErr, ok := ports.AsAPIError(err); ok {
			// The API said no, not the network. Wait out whatever
			// glitch or cooldown caused it and try again.
			logger.Warn("contract step rejected (%d %s), retrying in %s", apiErr.Code, apiErr.Message, contractRetrySleep)
			if err := deps.State.Sleep(ctx, contractRetrySleep); err != nil {
				return err
			}
			continue
		}
		return err
	}
}

// contractStep advances the shared contract by one move.
func contractStep(ctx context.Context, deps *fleet.Deps, ship *ports.ShipData, system *fleet.SystemState) error {
	logger := common.LoggerFromContext(ctx)
	now := deps.State.Clock().Now()

	current := deps.Contracts.Current()
	if current != nil && !current.Active(now) {
		logger.Info("contract %s is no longer workable, dropping it", current.ID)
		deps.Contracts.ClearContract()
		current = nil
	}

	if current == nil {
		acquired, err := acquireContract(ctx, deps, ship, system)
		if err != nil {
			return err
		}
		current = acquired
	}

	if !current.Accepted {
		accepted, err := evaluateAndAccept(ctx, deps, system, current)
		if err != nil {
			return err
		}
		if accepted == nil {
			deps.State.Emit(domainFleet.NewEvent(domainFleet.EventTradeDry, ship.Symbol, map[string]any{
				"reason": "no_contract",
			}))
			return deps.State.Sleep(ctx, contractIdleSleep)
		}
		current = accepted
	}

	delivery := current.NextDelivery()
	if delivery == nil {
		return fulfillContract(ctx, deps, ship, current)
	}

	held := 0
	if ship.Cargo != nil {
		held = ship.Cargo.ItemUnits(delivery.TradeSymbol)
	}
	if held == 0 {
		bought, err := buyContractGood(ctx, deps, ship, system, delivery)
		if err != nil {
			return err
		}
		if bought == 0 {
			logger.Warn("no cached source for %s, waiting for the probes", delivery.TradeSymbol)
			return deps.State.Sleep(ctx, contractRetrySleep)
		}
		held = bought
	}

	return deliverContractGood(ctx, deps, ship, system, current, delivery, held)
}

// acquireContract returns the contract the fleet should work, negotiating a
// fresh one when the board and the API both come up empty. Negotiation is
// single-writer: whoever holds the mutex first flies to the agent's
// headquarters and negotiates while the rest block, then adopt the result.
func acquireContract(ctx context.Context, deps *fleet.Deps, ship *ports.ShipData, system *fleet.SystemState) (*contract.Contract, error) {
	logger := common.LoggerFromContext(ctx)
	now := deps.State.Clock().Now()

	return deps.Contracts.Negotiate(func(current *contract.Contract) (*contract.Contract, error) {
		if current != nil && current.Active(now) {
			return current, nil
		}

		// The API may hold a contract a previous run negotiated
		existing, err := deps.API.ListContracts(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing contracts: %w", err)
		}
		if c := pickWorkable(existing, now); c != nil {
			logger.Info("adopting contract %s from the books", c.ID)
			return c, nil
		}

		agent, err := deps.API.GetAgent(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading agent: %w", err)
		}
		ship, err = smartNavigate(ctx, deps, ship, system, agent.Headquarters)
		if err != nil {
			return nil, err
		}
		if err := ensureDocked(ctx, deps, ship); err != nil {
			return nil, err
		}

		negotiated, err := deps.API.NegotiateContract(ctx, ship.Symbol)
		if err != nil {
			if ports.IsAPIErrorCode(err, ports.ErrCodeExistingContract) {
				// Lost the one-open-contract race, adopt the winner
				again, listErr := deps.API.ListContracts(ctx)
				if listErr != nil {
					return nil, fmt.Errorf("listing contracts: %w", listErr)
				}
				if c := pickWorkable(again, now); c != nil {
					return c, nil
				}
			}
			return nil, err
		}
		logger.Info("negotiated contract %s: %d deliveries, %d credits",
			negotiated.ID, len(negotiated.Terms.Deliveries), negotiated.TotalPayment())
		return negotiated, nil
	})
}

// pickWorkable returns the first contract still worth considering: active,
// or negotiated but not yet accepted and not expired.
func pickWorkable(contracts []*contract.Contract, now time.Time) *contract.Contract {
	for _, c := range contracts {
		if c.Fulfilled || c.Expired(now) {
			continue
		}
		return c
	}
	return nil
}

// evaluateAndAccept accepts the contract when the cached best-buy prices say
// it pays more than its goods cost. Returns nil when it is not worth
// accepting; the contract stays on the board for later re-evaluation as
// probes refresh prices.
func evaluateAndAccept(ctx context.Context, deps *fleet.Deps, system *fleet.SystemState, c *contract.Contract) (*contract.Contract, error) {
	logger := common.LoggerFromContext(ctx)

	bestBuys := make(map[string]int)
	for _, d := range c.Terms.Deliveries {
		if d.UnitsRemaining() == 0 {
			continue
		}
		price, err := deps.Markets.FindBestBuy(ctx, d.TradeSymbol, system.Symbol)
		if err != nil {
			return nil, fmt.Errorf("pricing %s: %w", d.TradeSymbol, err)
		}
		if price != nil {
			bestBuys[d.TradeSymbol] = price.PurchasePrice
		}
	}

	eval := contract.EvaluateProfitability(c, bestBuys)
	if !eval.Profitable {
		logger.Info("contract %s not worth accepting: %s", c.ID, eval.Reason)
		return nil, nil
	}

	result, err := deps.API.AcceptContract(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("accepting contract %s: %w", c.ID, err)
	}
	deps.State.UpdateCredits(result.AgentCredits)
	deps.Contracts.SetContract(result.Contract)
	deps.Contracts.RecordRevenue(c.Terms.Payment.OnAccepted)
	logger.Info("accepted contract %s (%s), expecting %+d", c.ID, eval.Reason, eval.NetProfit)
	return result.Contract, nil
}

// buyContractGood fills the hold with the contract good from the cheapest
// cached source. Returns the units now held.
func buyContractGood(ctx context.Context, deps *fleet.Deps, ship *ports.ShipData, system *fleet.SystemState, delivery *contract.Delivery) (int, error) {
	src, err := deps.Markets.FindBestBuy(ctx, delivery.TradeSymbol, system.Symbol)
	if err != nil {
		return 0, fmt.Errorf("pricing %s: %w", delivery.TradeSymbol, err)
	}
	if src == nil {
		return 0, nil
	}

	ship, err = smartNavigate(ctx, deps, ship, system, src.WaypointSymbol)
	if err != nil {
		return 0, err
	}
	if err := ensureDocked(ctx, deps, ship); err != nil {
		return 0, err
	}
	data, err := refreshMarket(ctx, deps, system.Symbol, src.WaypointSymbol)
	if err != nil {
		return 0, err
	}
	tryRefuel(ctx, deps, ship.Symbol)

	price := src.PurchasePrice
	volume := src.TradeVolume
	if live := liveGood(data, delivery.TradeSymbol); live != nil && live.PurchasePrice > 0 {
		price = live.PurchasePrice
		volume = live.TradeVolume
	}

	want := delivery.UnitsRemaining()
	if ship.Cargo != nil {
		want = min(want, ship.Cargo.FreeCapacity())
	}
	out, err := purchaseBatches(ctx, deps, ship, domainFleet.MissionContract, delivery.TradeSymbol, want, volume, price, 0)
	if out.Spent > 0 {
		deps.Contracts.RecordCost(out.Spent)
	}
	if err != nil {
		return out.Units, err
	}
	return out.Units, nil
}

// deliverContractGood hauls held units to the delivery waypoint and hands
// them over, clamped to what the contract still needs.
func deliverContractGood(ctx context.Context, deps *fleet.Deps, ship *ports.ShipData, system *fleet.SystemState, c *contract.Contract, delivery *contract.Delivery, held int) error {
	logger := common.LoggerFromContext(ctx)

	ship, err := smartNavigate(ctx, deps, ship, system, delivery.DestinationSymbol)
	if err != nil {
		return err
	}
	if err := ensureDocked(ctx, deps, ship); err != nil {
		return err
	}

	units := min(held, delivery.UnitsRemaining())
	result, err := deps.API.DeliverContract(ctx, c.ID, ship.Symbol, delivery.TradeSymbol, units)
	if err != nil {
		return fmt.Errorf("delivering %d %s: %w", units, delivery.TradeSymbol, err)
	}
	if result.Cargo != nil {
		ship.Cargo = result.Cargo
	}
	deps.Contracts.SetContract(result.Contract)

	remaining := 0
	if d := result.Contract.NextDelivery(); d != nil {
		remaining = d.UnitsRemaining()
	}
	logger.Info("delivered %d %s to %s, %d to go", units, delivery.TradeSymbol, delivery.DestinationSymbol, remaining)
	deps.State.Emit(domainFleet.NewEvent(domainFleet.EventContractDelivery, ship.Symbol, map[string]any{
		"contract_id": c.ID,
		"good":        delivery.TradeSymbol,
		"units":       units,
		"remaining":   remaining,
	}))
	tryRefuel(ctx, deps, ship.Symbol)
	return nil
}

// fulfillContract collects the completion payment and clears the board.
func fulfillContract(ctx context.Context, deps *fleet.Deps, ship *ports.ShipData, c *contract.Contract) error {
	logger := common.LoggerFromContext(ctx)

	result, err := deps.API.FulfillContract(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("fulfilling contract %s: %w", c.ID, err)
	}
	deps.State.UpdateCredits(result.AgentCredits)
	deps.Contracts.RecordRevenue(c.Terms.Payment.OnFulfilled)
	deps.Contracts.MarkCompleted()
	deps.Contracts.ClearContract()

	totals := deps.Contracts.Totals()
	logger.Info("contract %s fulfilled for %d credits (%d contracts done, net %+d)",
		c.ID, c.Terms.Payment.OnFulfilled, totals.ContractsCompleted, totals.NetProfit())
	deps.State.Emit(domainFleet.NewEvent(domainFleet.EventContractFulfilled, ship.Symbol, map[string]any{
		"contract_id": c.ID,
		"payment":     c.Terms.Payment.OnFulfilled,
		"credits":     deps.State.Credits(),
	}))
	return nil
}
