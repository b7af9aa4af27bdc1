package contract

import (
	"time"
)

type Payment struct {
	OnAccepted  int
	OnFulfilled int
}

type Delivery struct {
	TradeSymbol       string
	DestinationSymbol string
	UnitsRequired     int
	UnitsFulfilled    int
}

// UnitsRemaining returns how many units are still owed for this delivery
func (d Delivery) UnitsRemaining() int {
	remaining := d.UnitsRequired - d.UnitsFulfilled
	if remaining < 0 {
		return 0
	}
	return remaining
}

type Terms struct {
	Payment          Payment
	Deliveries       []Delivery
	DeadlineToAccept string
	Deadline         string
}

// Contract mirrors the API's contract resource. The API response is
// authoritative: accept/deliver/fulfill calls return the updated contract
// and callers replace the whole record rather than patching fields.
type Contract struct {
	ID            string
	FactionSymbol string
	Type          string
	Terms         Terms
	Accepted      bool
	Fulfilled     bool
}

// TotalPayment returns the full payout for accepting and fulfilling
func (c *Contract) TotalPayment() int {
	return c.Terms.Payment.OnAccepted + c.Terms.Payment.OnFulfilled
}

// NextDelivery returns the first delivery with units still owed, or nil
// when every delivery is complete
func (c *Contract) NextDelivery() *Delivery {
	for i := range c.Terms.Deliveries {
		if c.Terms.Deliveries[i].UnitsRemaining() > 0 {
			return &c.Terms.Deliveries[i]
		}
	}
	return nil
}

// DeliveriesComplete reports whether every delivery has been filled
func (c *Contract) DeliveriesComplete() bool {
	return c.NextDelivery() == nil
}

// Expired reports whether the fulfillment deadline has passed.
// Unparseable deadlines are treated as open-ended.
func (c *Contract) Expired(now time.Time) bool {
	deadline, err := time.Parse(time.RFC3339, c.Terms.Deadline)
	if err != nil {
		return false
	}
	return now.After(deadline)
}

// Active reports whether the contract is still worth working: not yet
// fulfilled and not past its deadline
func (c *Contract) Active(now time.Time) bool {
	return !c.Fulfilled && !c.Expired(now)
}
