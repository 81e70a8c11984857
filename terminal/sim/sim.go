// Package sim is an in-memory terminal.Terminal for tests, demos and
// strategy dry runs. It fills market orders instantly, rests pending
// orders until a quote crosses them, and triggers protective stops on
// open positions. Failures can be scripted per operation with FailNext
// and RejectNext.
package sim

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/avolkov/termlink/market"
	"github.com/avolkov/termlink/terminal"
)

// Terminal simulates a broker terminal. All state is guarded by one
// mutex; methods never hold it across calls out of the package.
type Terminal struct {
	mu        sync.Mutex
	account   terminal.AccountSummary
	specs     map[string]market.InstrumentSpec
	quotes    map[string]market.Quote
	orders    map[terminal.Ticket]*Order    // working (unfilled) orders
	positions map[terminal.Ticket]*Position // open positions
	closed    []ClosedPosition
	next      terminal.Ticket

	failures   map[Op][]error
	rejections []terminal.RejectError
}

// Order is a resting pending order.
type Order struct {
	Ticket     terminal.Ticket
	Symbol     string
	Side       market.Side
	Kind       terminal.Kind
	Volume     float64
	Price      float64
	StopLoss   *float64
	TakeProfit *float64
	Comment    string
	PlacedAt   time.Time
}

// Position is an open position. A filled pending order keeps its ticket.
type Position struct {
	Ticket     terminal.Ticket
	Symbol     string
	Side       market.Side
	Volume     float64
	EntryPrice float64
	StopLoss   *float64
	TakeProfit *float64
	OpenTime   time.Time
	Comment    string
}

// ClosedPosition records how a position ended.
type ClosedPosition struct {
	Position
	ClosePrice float64
	CloseTime  time.Time
	RealizedPL float64
	Reason     string
}

func New(account terminal.AccountSummary) *Terminal {
	return &Terminal{
		account:   account,
		specs:     make(map[string]market.InstrumentSpec),
		quotes:    make(map[string]market.Quote),
		orders:    make(map[terminal.Ticket]*Order),
		positions: make(map[terminal.Ticket]*Position),
		next:      1000,
		failures:  make(map[Op][]error),
	}
}

// RegisterInstrument makes a symbol tradable.
func (t *Terminal) RegisterInstrument(spec market.InstrumentSpec) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.specs[spec.Symbol] = spec
}

// SetQuote publishes a new quote and runs the fill pass: pending orders
// whose trigger price was crossed become positions, and positions whose
// stop-loss or take-profit was touched are closed. Longs are marked on
// the bid, shorts on the ask.
func (t *Terminal) SetQuote(q market.Quote) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if q.Time.IsZero() {
		q.Time = time.Now()
	}
	t.quotes[q.Symbol] = q
	t.account.Time = q.Time

	t.fillPendingLocked(q)
	t.triggerStopsLocked(q)
}

func (t *Terminal) InstrumentSpec(_ context.Context, symbol string) (market.InstrumentSpec, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.popFailureLocked(OpSpec); err != nil {
		return market.InstrumentSpec{}, err
	}
	spec, ok := t.specs[symbol]
	if !ok {
		return market.InstrumentSpec{}, fmt.Errorf("%s: %w", symbol, terminal.ErrInstrumentUnavailable)
	}
	return spec, nil
}

func (t *Terminal) Quote(_ context.Context, symbol string) (market.Quote, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.popFailureLocked(OpQuote); err != nil {
		return market.Quote{}, err
	}
	q, ok := t.quotes[symbol]
	if !ok {
		return market.Quote{}, fmt.Errorf("no quote for %s: %w", symbol, terminal.ErrInstrumentUnavailable)
	}
	return q, nil
}

func (t *Terminal) CancelOrder(_ context.Context, ticket terminal.Ticket) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.popFailureLocked(OpCancel); err != nil {
		return err
	}
	if _, ok := t.orders[ticket]; !ok {
		return fmt.Errorf("cancel %d: %w", ticket, terminal.ErrTicketNotFound)
	}
	delete(t.orders, ticket)
	return nil
}

func (t *Terminal) ClosePosition(_ context.Context, ticket terminal.Ticket, volume float64) (terminal.OrderResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.popFailureLocked(OpClose); err != nil {
		return terminal.OrderResult{}, err
	}
	pos, ok := t.positions[ticket]
	if !ok {
		return terminal.OrderResult{}, fmt.Errorf("close %d: %w", ticket, terminal.ErrTicketNotFound)
	}

	q, ok := t.quotes[pos.Symbol]
	if !ok {
		return terminal.OrderResult{}, fmt.Errorf("close %d: no quote for %s: %w", ticket, pos.Symbol, terminal.ErrInstrumentUnavailable)
	}
	price := q.ExitPrice(pos.Side)

	if volume <= 0 || volume >= pos.Volume {
		volume = pos.Volume
	}
	t.closePositionLocked(pos, volume, price, q.Time, "close")

	return terminal.OrderResult{
		Ticket: ticket,
		Code:   terminal.CodeDone,
		Price:  price,
		Volume: volume,
	}, nil
}

// OpenTickets lists working orders only. Filled and cancelled tickets
// are gone, which is the signal pair monitoring polls for.
func (t *Terminal) OpenTickets(_ context.Context) ([]terminal.Ticket, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.popFailureLocked(OpOpenTickets); err != nil {
		return nil, err
	}
	tickets := make([]terminal.Ticket, 0, len(t.orders))
	for tk := range t.orders {
		tickets = append(tickets, tk)
	}
	sort.Slice(tickets, func(i, j int) bool { return tickets[i] < tickets[j] })
	return tickets, nil
}

func (t *Terminal) Account(_ context.Context) (terminal.AccountSummary, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.account, nil
}

// OpenPosition returns a copy of an open position for inspection.
func (t *Terminal) OpenPosition(ticket terminal.Ticket) (Position, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	pos, ok := t.positions[ticket]
	if !ok {
		return Position{}, false
	}
	return *pos, true
}

// WorkingOrder returns a copy of a resting order for inspection.
func (t *Terminal) WorkingOrder(ticket terminal.Ticket) (Order, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ord, ok := t.orders[ticket]
	if !ok {
		return Order{}, false
	}
	return *ord, true
}

// Closed returns the close log in close order.
func (t *Terminal) Closed() []ClosedPosition {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]ClosedPosition, len(t.closed))
	copy(out, t.closed)
	return out
}

func (t *Terminal) nextTicketLocked() terminal.Ticket {
	t.next++
	return t.next
}
