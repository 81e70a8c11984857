// Package terminal defines the contract between the trading layer and a
// remote trading terminal: instrument metadata, quotes, order submission
// and the small set of management calls the order machinery needs.
// Implementations live in terminal/bridge (remote) and terminal/sim
// (in-memory).
package terminal

import (
	"context"
	"time"

	"github.com/avolkov/termlink/market"
)

// Ticket identifies an order or the position it became. Zero means no
// ticket was assigned.
type Ticket int64

type Terminal interface {
	// InstrumentSpec returns trading constraints for the symbol,
	// selecting it on the terminal first if needed. Unknown or
	// unsyncable symbols fail with ErrInstrumentUnavailable.
	InstrumentSpec(ctx context.Context, symbol string) (market.InstrumentSpec, error)

	// Quote returns the latest two-sided price for the symbol.
	Quote(ctx context.Context, symbol string) (market.Quote, error)

	// SubmitOrder sends one order. The result carries the terminal's
	// verbatim return code; rejections surface as *RejectError.
	SubmitOrder(ctx context.Context, intent OrderIntent) (OrderResult, error)

	// CancelOrder deletes a working (unfilled) order.
	CancelOrder(ctx context.Context, ticket Ticket) error

	// ClosePosition closes up to volume lots of an open position.
	ClosePosition(ctx context.Context, ticket Ticket, volume float64) (OrderResult, error)

	// OpenTickets lists the tickets of all working orders. A ticket
	// that was filled or cancelled no longer appears.
	OpenTickets(ctx context.Context) ([]Ticket, error)

	// Account returns a balance snapshot for risk budgeting.
	Account(ctx context.Context) (AccountSummary, error)
}

type AccountSummary struct {
	ID         string
	Currency   string
	Balance    float64
	Equity     float64
	Margin     float64
	FreeMargin float64
	Time       time.Time
}
