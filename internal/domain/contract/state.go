package contract

import (
	"sync"
)

// Totals is a snapshot of the fleet's contract economics
type Totals struct {
	ContractsCompleted int
	TotalRevenue       int
	TotalCost          int
	StartCredits       int
}

// NetProfit returns revenue earned minus credits spent on supply runs
func (t Totals) NetProfit() int {
	return t.TotalRevenue - t.TotalCost
}

// State is the fleet-wide contract board shared by every contract ship.
//
// Business Rules:
//  1. At most one contract is worked at a time; all contract ships
//     deliver against the same contract.
//  2. Negotiating a new contract is single-writer: one ship negotiates
//     while the others wait, then every waiter re-checks the board
//     before negotiating itself.
//  3. Revenue, cost, and completion counts accumulate across contracts
//     for profit reporting.
type State struct {
	mu          sync.Mutex
	negotiating sync.Mutex

	contract     *Contract
	completed    int
	revenue      int
	cost         int
	startCredits int
	startSet     bool
}

func NewState() *State {
	return &State{}
}

// Current returns the contract on the board, or nil when none is held
func (s *State) Current() *Contract {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contract
}

// SetContract installs a contract on the board, replacing any previous one
func (s *State) SetContract(c *Contract) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contract = c
}

// ClearContract removes the contract from the board
func (s *State) ClearContract() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contract = nil
}

// Negotiate serializes contract acquisition across ships. fn runs while no
// other ship can negotiate; it receives the contract currently on the board
// (nil when none) so it can adopt an existing one instead of negotiating
// again. A non-nil returned contract is installed on the board.
func (s *State) Negotiate(fn func(current *Contract) (*Contract, error)) (*Contract, error) {
	s.negotiating.Lock()
	defer s.negotiating.Unlock()

	c, err := fn(s.Current())
	if err != nil {
		return nil, err
	}
	if c != nil {
		s.SetContract(c)
	}
	return c, nil
}

// RecordRevenue adds contract payments received
func (s *State) RecordRevenue(credits int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revenue += credits
}

// RecordCost adds credits spent buying contract goods
func (s *State) RecordCost(credits int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cost += credits
}

// MarkCompleted bumps the fulfilled-contract counter
func (s *State) MarkCompleted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed++
}

// SetStartCredits records the agent's credits when contract work began.
// Only the first call takes effect.
func (s *State) SetStartCredits(credits int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.startSet {
		s.startCredits = credits
		s.startSet = true
	}
}

// Totals returns a consistent snapshot of the accumulated economics
func (s *State) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Totals{
		ContractsCompleted: s.completed,
		TotalRevenue:       s.revenue,
		TotalCost:          s.cost,
		StartCredits:       s.startCredits,
	}
}
