package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/termlink/market"
	"github.com/avolkov/termlink/terminal"
)

func newTestTerminal(t *testing.T) *Terminal {
	t.Helper()

	sim := New(terminal.AccountSummary{ID: "sim-1", Currency: "USD", Balance: 10_000, Equity: 10_000})
	sim.RegisterInstrument(market.InstrumentSpec{
		Symbol:          "EURUSD",
		Digits:          5,
		Point:           0.00001,
		TickSize:        0.00001,
		TickValue:       1,
		VolumeMin:       0.01,
		VolumeMax:       100,
		VolumeStep:      0.01,
		StopLevelPoints: 100,
	})
	sim.SetQuote(market.Quote{Symbol: "EURUSD", Time: time.Unix(1_700_000_000, 0), Bid: 1.10000, Ask: 1.10020})
	return sim
}

func fp(v float64) *float64 { return &v }

func TestSubmitOrder_MarketFillsImmediately(t *testing.T) {
	t.Parallel()

	sim := newTestTerminal(t)

	res, err := sim.SubmitOrder(context.Background(), terminal.OrderIntent{
		Symbol: "EURUSD",
		Side:   market.Buy,
		Kind:   terminal.Market,
		Volume: 0.10,
	})
	require.NoError(t, err)
	assert.Equal(t, terminal.CodeDone, res.Code)
	assert.InDelta(t, 1.10020, res.Price, 1e-9, "buys fill on the ask")

	pos, ok := sim.OpenPosition(res.Ticket)
	require.True(t, ok)
	assert.Equal(t, market.Buy, pos.Side)

	// Market fills never appear as working orders.
	tickets, err := sim.OpenTickets(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tickets)
}

func TestSubmitOrder_PendingRestsUntilCrossed(t *testing.T) {
	t.Parallel()

	sim := newTestTerminal(t)

	res, err := sim.SubmitOrder(context.Background(), terminal.OrderIntent{
		Symbol: "EURUSD",
		Side:   market.Buy,
		Kind:   terminal.Stop,
		Volume: 0.10,
		Price:  1.10150,
	})
	require.NoError(t, err)
	assert.Equal(t, terminal.CodePlaced, res.Code)

	tickets, err := sim.OpenTickets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []terminal.Ticket{res.Ticket}, tickets)

	// Quote below the trigger: still resting.
	sim.SetQuote(market.Quote{Symbol: "EURUSD", Bid: 1.10100, Ask: 1.10120})
	tickets, _ = sim.OpenTickets(context.Background())
	assert.Len(t, tickets, 1)

	// Ask crosses the stop price: order fills and keeps its ticket.
	sim.SetQuote(market.Quote{Symbol: "EURUSD", Bid: 1.10140, Ask: 1.10160})
	tickets, _ = sim.OpenTickets(context.Background())
	assert.Empty(t, tickets)

	pos, ok := sim.OpenPosition(res.Ticket)
	require.True(t, ok, "filled pending keeps the same ticket")
	assert.InDelta(t, 1.10150, pos.EntryPrice, 1e-9)
}

func TestSubmitOrder_SellStopTriggersOnBid(t *testing.T) {
	t.Parallel()

	sim := newTestTerminal(t)

	res, err := sim.SubmitOrder(context.Background(), terminal.OrderIntent{
		Symbol: "EURUSD",
		Side:   market.Sell,
		Kind:   terminal.Stop,
		Volume: 0.10,
		Price:  1.09880,
	})
	require.NoError(t, err)

	sim.SetQuote(market.Quote{Symbol: "EURUSD", Bid: 1.09870, Ask: 1.09890})

	_, open := sim.WorkingOrder(res.Ticket)
	assert.False(t, open)
	pos, ok := sim.OpenPosition(res.Ticket)
	require.True(t, ok)
	assert.Equal(t, market.Sell, pos.Side)
}

func TestSubmitOrder_RejectsOffGridVolume(t *testing.T) {
	t.Parallel()

	sim := newTestTerminal(t)

	_, err := sim.SubmitOrder(context.Background(), terminal.OrderIntent{
		Symbol: "EURUSD",
		Side:   market.Buy,
		Kind:   terminal.Market,
		Volume: 0.015,
	})
	var rej *terminal.RejectError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, terminal.CodeInvalidVolume, rej.Code)
}

func TestSubmitOrder_RejectsPendingOnWrongSide(t *testing.T) {
	t.Parallel()

	sim := newTestTerminal(t)

	// A buy stop must rest above the ask plus the stop distance.
	_, err := sim.SubmitOrder(context.Background(), terminal.OrderIntent{
		Symbol: "EURUSD",
		Side:   market.Buy,
		Kind:   terminal.Stop,
		Volume: 0.10,
		Price:  1.10030,
	})
	var rej *terminal.RejectError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, terminal.CodeInvalidPrice, rej.Code)
}

func TestSubmitOrder_RejectsTightStops(t *testing.T) {
	t.Parallel()

	sim := newTestTerminal(t)

	_, err := sim.SubmitOrder(context.Background(), terminal.OrderIntent{
		Symbol:   "EURUSD",
		Side:     market.Buy,
		Kind:     terminal.Market,
		Volume:   0.10,
		StopLoss: fp(1.10000), // 20 points below ask, min distance is 100
	})
	var rej *terminal.RejectError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, terminal.CodeInvalidStops, rej.Code)
}

func TestStopLossTriggers(t *testing.T) {
	t.Parallel()

	sim := newTestTerminal(t)

	res, err := sim.SubmitOrder(context.Background(), terminal.OrderIntent{
		Symbol:   "EURUSD",
		Side:     market.Buy,
		Kind:     terminal.Market,
		Volume:   1,
		StopLoss: fp(1.09900),
	})
	require.NoError(t, err)

	// Bid touches the stop: long closes at the level.
	sim.SetQuote(market.Quote{Symbol: "EURUSD", Bid: 1.09900, Ask: 1.09920})

	_, stillOpen := sim.OpenPosition(res.Ticket)
	assert.False(t, stillOpen)

	closed := sim.Closed()
	require.Len(t, closed, 1)
	assert.Equal(t, "stop-loss", closed[0].Reason)
	assert.InDelta(t, 1.09900, closed[0].ClosePrice, 1e-9)
	// 120 points against a 1-lot long at 1 per tick.
	assert.InDelta(t, -120, closed[0].RealizedPL, 1e-6)
}

func TestClosePosition(t *testing.T) {
	t.Parallel()

	sim := newTestTerminal(t)

	res, err := sim.SubmitOrder(context.Background(), terminal.OrderIntent{
		Symbol: "EURUSD",
		Side:   market.Sell,
		Kind:   terminal.Market,
		Volume: 0.50,
	})
	require.NoError(t, err)

	out, err := sim.ClosePosition(context.Background(), res.Ticket, 0)
	require.NoError(t, err)
	assert.Equal(t, terminal.CodeDone, out.Code)
	assert.InDelta(t, 1.10020, out.Price, 1e-9, "shorts close on the ask")

	_, err = sim.ClosePosition(context.Background(), res.Ticket, 0)
	assert.ErrorIs(t, err, terminal.ErrTicketNotFound)
}

func TestCancelOrder(t *testing.T) {
	t.Parallel()

	sim := newTestTerminal(t)

	res, err := sim.SubmitOrder(context.Background(), terminal.OrderIntent{
		Symbol: "EURUSD",
		Side:   market.Sell,
		Kind:   terminal.Limit,
		Volume: 0.10,
		Price:  1.10150,
	})
	require.NoError(t, err)

	require.NoError(t, sim.CancelOrder(context.Background(), res.Ticket))
	assert.ErrorIs(t, sim.CancelOrder(context.Background(), res.Ticket), terminal.ErrTicketNotFound)
}

func TestFailureInjection(t *testing.T) {
	t.Parallel()

	sim := newTestTerminal(t)

	boom := &terminal.TransportError{Op: "poll", Err: errors.New("socket closed")}
	sim.FailNext(OpOpenTickets, boom)

	_, err := sim.OpenTickets(context.Background())
	assert.ErrorIs(t, err, boom)

	// One failure per call: the queue is drained.
	_, err = sim.OpenTickets(context.Background())
	assert.NoError(t, err)

	sim.RejectNext(terminal.CodeNoMoney, "not enough money")
	res, err := sim.SubmitOrder(context.Background(), terminal.OrderIntent{
		Symbol: "EURUSD", Side: market.Buy, Kind: terminal.Market, Volume: 0.01,
	})
	var rej *terminal.RejectError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, terminal.CodeNoMoney, rej.Code)
	assert.Equal(t, terminal.CodeNoMoney, res.Code)
}

func TestAccountBalanceTracksRealizedPL(t *testing.T) {
	t.Parallel()

	sim := newTestTerminal(t)

	res, err := sim.SubmitOrder(context.Background(), terminal.OrderIntent{
		Symbol: "EURUSD", Side: market.Buy, Kind: terminal.Market, Volume: 1,
	})
	require.NoError(t, err)

	// 80 points in favor, close on bid.
	sim.SetQuote(market.Quote{Symbol: "EURUSD", Bid: 1.10100, Ask: 1.10120})
	_, err = sim.ClosePosition(context.Background(), res.Ticket, 0)
	require.NoError(t, err)

	acct, err := sim.Account(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 10_080, acct.Balance, 1e-6)
}
