package contract

import (
	"fmt"
)

// Evaluation is the outcome of a contract profitability check
type Evaluation struct {
	Profitable bool
	Payment    int
	SupplyCost int
	NetProfit  int
	Reason     string
}

// EvaluateProfitability decides whether a contract is worth working.
//
// Payment is the full accept-plus-fulfill payout. Supply cost prices every
// remaining delivery unit at the cheapest cached market for that good; a
// good no cached market sells makes the contract unprofitable outright,
// since the cost cannot be bounded. The contract is profitable only when
// payment strictly exceeds supply cost. Fuel is deliberately ignored: it
// is small against contract payouts and the price cache cannot see it.
func EvaluateProfitability(c *Contract, bestBuyPrices map[string]int) Evaluation {
	payment := c.TotalPayment()

	supplyCost := 0
	for _, d := range c.Terms.Deliveries {
		remaining := d.UnitsRemaining()
		if remaining == 0 {
			continue
		}
		price, ok := bestBuyPrices[d.TradeSymbol]
		if !ok {
			return Evaluation{
				Profitable: false,
				Payment:    payment,
				Reason:     fmt.Sprintf("no market sells %s", d.TradeSymbol),
			}
		}
		supplyCost += price * remaining
	}

	net := payment - supplyCost
	return Evaluation{
		Profitable: net > 0,
		Payment:    payment,
		SupplyCost: supplyCost,
		NetProfit:  net,
		Reason:     fmt.Sprintf("payment=%d cost=%d profit=%d", payment, supplyCost, net),
	}
}
