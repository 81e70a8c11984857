package market

import "time"

// Quote is a two-sided price snapshot for one instrument.
type Quote struct {
	Symbol string
	Time   time.Time
	Bid    float64
	Ask    float64
}

func (q Quote) Mid() float64 {
	if q.Bid == 0 && q.Ask == 0 {
		return 0
	}
	return (q.Bid + q.Ask) / 2
}

func (q Quote) Spread() float64 {
	return q.Ask - q.Bid
}

// EntryPrice is the side of the book an order of the given direction
// executes against: buys lift the ask, sells hit the bid.
func (q Quote) EntryPrice(side Side) float64 {
	if side == Sell {
		return q.Bid
	}
	return q.Ask
}

// ExitPrice is the side a position of the given direction closes on.
// Longs close on the bid, shorts on the ask.
func (q Quote) ExitPrice(side Side) float64 {
	if side == Sell {
		return q.Ask
	}
	return q.Bid
}
