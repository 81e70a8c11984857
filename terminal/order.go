package terminal

import (
	"fmt"

	"github.com/avolkov/termlink/market"
)

// Kind selects the order type.
type Kind int

const (
	Market Kind = iota
	Stop        // pending, fills when price trades through the entry
	Limit       // pending, fills when price trades to or better than entry
)

func (k Kind) String() string {
	switch k {
	case Market:
		return "market"
	case Stop:
		return "stop"
	case Limit:
		return "limit"
	}
	return "unknown"
}

func (k Kind) Pending() bool { return k == Stop || k == Limit }

// OrderIntent is one order as handed to the terminal. Price is ignored
// for market orders. StopLoss and TakeProfit are absolute price levels;
// nil means not attached.
type OrderIntent struct {
	Symbol         string
	Side           market.Side
	Kind           Kind
	Volume         float64
	Price          float64
	StopLoss       *float64
	TakeProfit     *float64
	SlippagePoints int
	Comment        string
}

// OrderResult is the terminal's answer to a submission or close. Code
// carries the terminal's return code verbatim; Ticket is zero when the
// request did not produce one.
type OrderResult struct {
	Ticket  Ticket
	Code    int
	Price   float64
	Volume  float64
	Message string
}

func (r OrderResult) String() string {
	return fmt.Sprintf("ticket=%d code=%d price=%v volume=%v", r.Ticket, r.Code, r.Price, r.Volume)
}

// Return codes as reported by the terminal. The order layer treats
// anything outside the done/placed pair as a rejection.
const (
	CodeRequote       = 10004
	CodeRejected      = 10006
	CodePlaced        = 10008
	CodeDone          = 10009
	CodeInvalidVolume = 10014
	CodeInvalidPrice  = 10015
	CodeInvalidStops  = 10016
	CodeMarketClosed  = 10018
	CodeNoMoney       = 10019
)

// Accepted reports whether a return code means the terminal took the
// order (filled or resting).
func Accepted(code int) bool {
	return code == CodeDone || code == CodePlaced
}
