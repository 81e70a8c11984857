package sim

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/avolkov/termlink/market"
	"github.com/avolkov/termlink/terminal"
)

// SubmitOrder behaves like a strict broker: it re-checks volume bounds,
// pending entry side and stop distances, and rejects anything the
// preflight pipeline should have fixed. Accepted market orders fill
// immediately; accepted pending orders rest until a quote crosses them.
func (t *Terminal) SubmitOrder(_ context.Context, intent terminal.OrderIntent) (terminal.OrderResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.popFailureLocked(OpSubmit); err != nil {
		return terminal.OrderResult{}, err
	}
	if len(t.rejections) > 0 {
		rej := t.rejections[0]
		t.rejections = t.rejections[1:]
		return terminal.OrderResult{Code: rej.Code, Message: rej.Message}, &rej
	}

	spec, ok := t.specs[intent.Symbol]
	if !ok {
		return terminal.OrderResult{}, fmt.Errorf("%s: %w", intent.Symbol, terminal.ErrInstrumentUnavailable)
	}
	q, ok := t.quotes[intent.Symbol]
	if !ok {
		return terminal.OrderResult{}, fmt.Errorf("no quote for %s: %w", intent.Symbol, terminal.ErrInstrumentUnavailable)
	}

	if rej := checkVolume(spec, intent.Volume); rej != nil {
		return terminal.OrderResult{Code: rej.Code, Message: rej.Message}, rej
	}
	if intent.Kind.Pending() {
		if rej := checkPendingEntry(spec, q, intent); rej != nil {
			return terminal.OrderResult{Code: rej.Code, Message: rej.Message}, rej
		}
	}
	if rej := checkStops(spec, q, intent); rej != nil {
		return terminal.OrderResult{Code: rej.Code, Message: rej.Message}, rej
	}

	ticket := t.nextTicketLocked()

	if intent.Kind == terminal.Market {
		price := q.EntryPrice(intent.Side)
		t.positions[ticket] = &Position{
			Ticket:     ticket,
			Symbol:     intent.Symbol,
			Side:       intent.Side,
			Volume:     intent.Volume,
			EntryPrice: price,
			StopLoss:   copyLevel(intent.StopLoss),
			TakeProfit: copyLevel(intent.TakeProfit),
			OpenTime:   q.Time,
			Comment:    intent.Comment,
		}
		return terminal.OrderResult{
			Ticket: ticket,
			Code:   terminal.CodeDone,
			Price:  price,
			Volume: intent.Volume,
		}, nil
	}

	t.orders[ticket] = &Order{
		Ticket:     ticket,
		Symbol:     intent.Symbol,
		Side:       intent.Side,
		Kind:       intent.Kind,
		Volume:     intent.Volume,
		Price:      intent.Price,
		StopLoss:   copyLevel(intent.StopLoss),
		TakeProfit: copyLevel(intent.TakeProfit),
		Comment:    intent.Comment,
		PlacedAt:   q.Time,
	}
	return terminal.OrderResult{
		Ticket: ticket,
		Code:   terminal.CodePlaced,
		Price:  intent.Price,
		Volume: intent.Volume,
	}, nil
}

func checkVolume(spec market.InstrumentSpec, volume float64) *terminal.RejectError {
	if volume < spec.VolumeMin || volume > spec.VolumeMax {
		return &terminal.RejectError{
			Code:    terminal.CodeInvalidVolume,
			Message: fmt.Sprintf("volume %v outside [%v, %v]", volume, spec.VolumeMin, spec.VolumeMax),
		}
	}
	steps := (volume - spec.VolumeMin) / spec.VolumeStep
	if math.Abs(steps-math.Round(steps)) > 1e-6 {
		return &terminal.RejectError{
			Code:    terminal.CodeInvalidVolume,
			Message: fmt.Sprintf("volume %v off the %v step grid", volume, spec.VolumeStep),
		}
	}
	return nil
}

// checkPendingEntry enforces the entry price side for pending kinds:
// stops rest beyond the market, limits rest inside it.
func checkPendingEntry(spec market.InstrumentSpec, q market.Quote, intent terminal.OrderIntent) *terminal.RejectError {
	ref := q.EntryPrice(intent.Side)
	dist := spec.StopDistance()

	var ok bool
	switch {
	case intent.Kind == terminal.Stop && intent.Side == market.Buy:
		ok = intent.Price >= ref+dist
	case intent.Kind == terminal.Stop && intent.Side == market.Sell:
		ok = intent.Price <= ref-dist
	case intent.Kind == terminal.Limit && intent.Side == market.Buy:
		ok = intent.Price <= ref-dist
	case intent.Kind == terminal.Limit && intent.Side == market.Sell:
		ok = intent.Price >= ref+dist
	}
	if !ok {
		return &terminal.RejectError{
			Code:    terminal.CodeInvalidPrice,
			Message: fmt.Sprintf("%s %s entry %v invalid against %v", intent.Side, intent.Kind, intent.Price, ref),
		}
	}
	return nil
}

// checkStops enforces side and distance for protective levels the way a
// broker does, relative to the entry for pendings and the quote for
// market orders.
func checkStops(spec market.InstrumentSpec, q market.Quote, intent terminal.OrderIntent) *terminal.RejectError {
	ref := q.EntryPrice(intent.Side)
	if intent.Kind.Pending() {
		ref = intent.Price
	}
	dist := spec.StopDistance()

	bad := func(level float64, what string) *terminal.RejectError {
		return &terminal.RejectError{
			Code:    terminal.CodeInvalidStops,
			Message: fmt.Sprintf("%s %v invalid for %s at %v", what, level, intent.Side, ref),
		}
	}

	if sl := intent.StopLoss; sl != nil {
		if intent.Side == market.Buy && *sl > ref-dist {
			return bad(*sl, "stop-loss")
		}
		if intent.Side == market.Sell && *sl < ref+dist {
			return bad(*sl, "stop-loss")
		}
	}
	if tp := intent.TakeProfit; tp != nil {
		if intent.Side == market.Buy && *tp < ref+dist {
			return bad(*tp, "take-profit")
		}
		if intent.Side == market.Sell && *tp > ref-dist {
			return bad(*tp, "take-profit")
		}
	}
	return nil
}

// fillPendingLocked converts crossed pending orders into positions. The
// fill keeps the order's ticket, matching how retail terminals report a
// filled pending order.
func (t *Terminal) fillPendingLocked(q market.Quote) {
	for ticket, ord := range t.orders {
		if ord.Symbol != q.Symbol || !crossed(ord, q) {
			continue
		}
		delete(t.orders, ticket)
		t.positions[ticket] = &Position{
			Ticket:     ticket,
			Symbol:     ord.Symbol,
			Side:       ord.Side,
			Volume:     ord.Volume,
			EntryPrice: ord.Price,
			StopLoss:   ord.StopLoss,
			TakeProfit: ord.TakeProfit,
			OpenTime:   q.Time,
			Comment:    ord.Comment,
		}
	}
}

func crossed(ord *Order, q market.Quote) bool {
	switch {
	case ord.Kind == terminal.Stop && ord.Side == market.Buy:
		return q.Ask >= ord.Price
	case ord.Kind == terminal.Stop && ord.Side == market.Sell:
		return q.Bid <= ord.Price
	case ord.Kind == terminal.Limit && ord.Side == market.Buy:
		return q.Ask <= ord.Price
	case ord.Kind == terminal.Limit && ord.Side == market.Sell:
		return q.Bid >= ord.Price
	}
	return false
}

// triggerStopsLocked closes positions whose protective levels were hit.
// Longs are marked on the bid, shorts on the ask; fills happen at the
// level itself.
func (t *Terminal) triggerStopsLocked(q market.Quote) {
	for _, pos := range t.positions {
		if pos.Symbol != q.Symbol {
			continue
		}
		mark := q.ExitPrice(pos.Side)

		switch {
		case pos.StopLoss != nil && hitStop(pos.Side, mark, *pos.StopLoss):
			t.closePositionLocked(pos, pos.Volume, *pos.StopLoss, q.Time, "stop-loss")
		case pos.TakeProfit != nil && hitTake(pos.Side, mark, *pos.TakeProfit):
			t.closePositionLocked(pos, pos.Volume, *pos.TakeProfit, q.Time, "take-profit")
		}
	}
}

func hitStop(side market.Side, mark, sl float64) bool {
	if side == market.Buy {
		return mark <= sl
	}
	return mark >= sl
}

func hitTake(side market.Side, mark, tp float64) bool {
	if side == market.Buy {
		return mark >= tp
	}
	return mark <= tp
}

func (t *Terminal) closePositionLocked(pos *Position, volume, price float64, at time.Time, reason string) {
	pl := realizedPL(t.specs[pos.Symbol], *pos, volume, price)
	t.account.Balance += pl
	t.account.Equity = t.account.Balance

	record := ClosedPosition{
		Position:   *pos,
		ClosePrice: price,
		CloseTime:  at,
		RealizedPL: pl,
		Reason:     reason,
	}
	record.Volume = volume
	t.closed = append(t.closed, record)

	if volume >= pos.Volume {
		delete(t.positions, pos.Ticket)
		return
	}
	pos.Volume -= volume
}

// realizedPL converts a price move into account currency through the
// instrument's tick value.
func realizedPL(spec market.InstrumentSpec, pos Position, volume, exit float64) float64 {
	if spec.TickSize <= 0 {
		return 0
	}
	move := (exit - pos.EntryPrice) * pos.Side.Sign()
	return move / spec.TickSize * spec.TickValue * volume
}

func copyLevel(level *float64) *float64 {
	if level == nil {
		return nil
	}
	v := *level
	return &v
}
