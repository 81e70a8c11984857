// Package trade is the order placement pipeline: resolve the instrument,
// take a fresh quote, turn point offsets into absolute levels, validate
// and correct protective stops, snap the volume to the broker grid, then
// submit. Each call runs the pipeline once; a rejected order is returned
// to the caller verbatim and never resubmitted.
package trade

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/avolkov/termlink/id"
	"github.com/avolkov/termlink/instrument"
	"github.com/avolkov/termlink/journal"
	"github.com/avolkov/termlink/market"
	"github.com/avolkov/termlink/metrics"
	"github.com/avolkov/termlink/risk"
	"github.com/avolkov/termlink/stops"
	"github.com/avolkov/termlink/terminal"
)

var log = logrus.WithField("pkg", "trade")

// Trader drives one terminal. Safe for concurrent use; the instrument
// cache is shared across calls and must be reset after a reconnect.
type Trader struct {
	term     terminal.Terminal
	resolver *instrument.Resolver
	journal  journal.Journal
}

// New returns a Trader journaling to j. A nil journal disables
// persistence.
func New(term terminal.Terminal, j journal.Journal) *Trader {
	if j == nil {
		j = journal.Nop{}
	}
	return &Trader{
		term:     term,
		resolver: instrument.NewResolver(term),
		journal:  j,
	}
}

// Resolver exposes the instrument cache, for sharing with a pair engine
// and for reconnect invalidation.
func (t *Trader) Resolver() *instrument.Resolver { return t.resolver }

// MarketOrder describes an immediate-execution order. Protective levels
// are given as positive point distances from the entry side of the
// quote; zero means no level.
type MarketOrder struct {
	Symbol           string
	Side             market.Side
	Volume           float64
	StopLossPoints   float64
	TakeProfitPoints float64
	SlippagePoints   int
	Comment          string
}

// PendingOrder describes a resting order placed EntryOffsetPoints away
// from the market: stops rest beyond the current price, limits inside
// it. Protective levels are point distances from the entry price.
type PendingOrder struct {
	Symbol            string
	Side              market.Side
	Kind              terminal.Kind
	Volume            float64
	EntryOffsetPoints float64
	StopLossPoints    float64
	TakeProfitPoints  float64
	Comment           string
}

// PlaceMarket runs the full preflight pipeline and submits one market
// order. The terminal's result is returned verbatim alongside any error.
func (t *Trader) PlaceMarket(ctx context.Context, req MarketOrder) (terminal.OrderResult, error) {
	intent, err := t.PrepareMarket(ctx, req)
	if err != nil {
		return terminal.OrderResult{}, err
	}
	return t.submit(ctx, intent)
}

// PrepareMarket runs the preflight pipeline without submitting: resolve
// the spec, take a fresh quote, derive and validate levels, normalize the
// volume. Callers that own submission, like the pair engine, take the
// prepared intent from here.
func (t *Trader) PrepareMarket(ctx context.Context, req MarketOrder) (terminal.OrderIntent, error) {
	spec, err := t.resolver.Resolve(ctx, req.Symbol)
	if err != nil {
		return terminal.OrderIntent{}, err
	}
	q, err := t.term.Quote(ctx, req.Symbol)
	if err != nil {
		return terminal.OrderIntent{}, fmt.Errorf("quote %s: %w", req.Symbol, err)
	}

	entry := q.EntryPrice(req.Side)
	sl := levelFromOffset(spec, entry, req.Side, req.StopLossPoints, protectStop)
	tp := levelFromOffset(spec, entry, req.Side, req.TakeProfitPoints, protectTake)

	levels, err := stops.Validate(spec, req.Side, q, sl, tp)
	if err != nil {
		return terminal.OrderIntent{}, err
	}
	countClamps(spec.Symbol, levels)

	volume, err := market.NormalizeVolume(spec, req.Volume)
	if err != nil {
		return terminal.OrderIntent{}, err
	}

	return terminal.OrderIntent{
		Symbol:         req.Symbol,
		Side:           req.Side,
		Kind:           terminal.Market,
		Volume:         volume,
		StopLoss:       levels.StopLoss,
		TakeProfit:     levels.TakeProfit,
		SlippagePoints: req.SlippagePoints,
		Comment:        req.Comment,
	}, nil
}

// PlacePending places one stop or limit order. The entry is offset from
// the quote, clamped out to the broker's minimum distance if needed, and
// snapped to the tick grid before stops are derived from it.
func (t *Trader) PlacePending(ctx context.Context, req PendingOrder) (terminal.OrderResult, error) {
	intent, err := t.PreparePending(ctx, req)
	if err != nil {
		return terminal.OrderResult{}, err
	}
	return t.submit(ctx, intent)
}

// PreparePending is PlacePending's pipeline without the submission.
func (t *Trader) PreparePending(ctx context.Context, req PendingOrder) (terminal.OrderIntent, error) {
	if !req.Kind.Pending() {
		return terminal.OrderIntent{}, fmt.Errorf("prepare pending: kind %s is not a pending kind", req.Kind)
	}
	if req.EntryOffsetPoints <= 0 {
		return terminal.OrderIntent{}, fmt.Errorf("prepare pending: entry offset %v points", req.EntryOffsetPoints)
	}

	spec, err := t.resolver.Resolve(ctx, req.Symbol)
	if err != nil {
		return terminal.OrderIntent{}, err
	}
	q, err := t.term.Quote(ctx, req.Symbol)
	if err != nil {
		return terminal.OrderIntent{}, fmt.Errorf("quote %s: %w", req.Symbol, err)
	}

	entry, clamped := pendingEntry(spec, q, req.Side, req.Kind, req.EntryOffsetPoints)
	entry, err = market.NormalizePrice(spec, entry)
	if err != nil {
		return terminal.OrderIntent{}, err
	}
	if clamped {
		log.WithFields(logrus.Fields{
			"symbol": req.Symbol,
			"entry":  entry,
		}).Warn("pending entry clamped to minimum distance")
	}

	sl := levelFromOffset(spec, entry, req.Side, req.StopLossPoints, protectStop)
	tp := levelFromOffset(spec, entry, req.Side, req.TakeProfitPoints, protectTake)

	// Pending stops are measured from the entry, not the live quote.
	atEntry := market.Quote{Symbol: req.Symbol, Time: q.Time, Bid: entry, Ask: entry}
	levels, err := stops.Validate(spec, req.Side, atEntry, sl, tp)
	if err != nil {
		return terminal.OrderIntent{}, err
	}
	countClamps(spec.Symbol, levels)

	volume, err := market.NormalizeVolume(spec, req.Volume)
	if err != nil {
		return terminal.OrderIntent{}, err
	}

	return terminal.OrderIntent{
		Symbol:     req.Symbol,
		Side:       req.Side,
		Kind:       req.Kind,
		Volume:     volume,
		Price:      entry,
		StopLoss:   levels.StopLoss,
		TakeProfit: levels.TakeProfit,
		Comment:    req.Comment,
	}, nil
}

// VolumeForRisk resolves the symbol and sizes a position losing at most
// approximately riskMoney over a stopPoints move.
func (t *Trader) VolumeForRisk(ctx context.Context, symbol string, stopPoints, riskMoney float64) (float64, error) {
	spec, err := t.resolver.Resolve(ctx, symbol)
	if err != nil {
		return 0, err
	}
	return risk.VolumeForRisk(spec, stopPoints, riskMoney)
}

// VolumeForEquityRisk sizes against a fraction of current account
// equity, e.g. 0.01 risks one percent.
func (t *Trader) VolumeForEquityRisk(ctx context.Context, symbol string, stopPoints, fraction float64) (float64, error) {
	acct, err := t.term.Account(ctx)
	if err != nil {
		return 0, fmt.Errorf("account: %w", err)
	}
	budget := risk.AmountAtRisk(acct.Equity, fraction)
	if budget <= 0 {
		return 0, fmt.Errorf("%w: equity %v fraction %v", risk.ErrInvalidArgument, acct.Equity, fraction)
	}
	return t.VolumeForRisk(ctx, symbol, stopPoints, budget)
}

func (t *Trader) submit(ctx context.Context, intent terminal.OrderIntent) (terminal.OrderResult, error) {
	metrics.OrdersSubmitted.WithLabelValues(intent.Symbol, intent.Side.String(), intent.Kind.String()).Inc()

	res, err := t.term.SubmitOrder(ctx, intent)

	entry := log.WithFields(logrus.Fields{
		"symbol": intent.Symbol,
		"side":   intent.Side.String(),
		"kind":   intent.Kind.String(),
		"volume": intent.Volume,
		"ticket": res.Ticket,
		"code":   res.Code,
	})
	switch {
	case err == nil:
		entry.Info("order accepted")
	case isReject(err):
		metrics.OrdersRejected.WithLabelValues(intent.Symbol, strconv.Itoa(res.Code)).Inc()
		entry.WithError(err).Warn("order rejected")
	default:
		entry.WithError(err).Error("order submission failed")
	}

	if err == nil || isReject(err) {
		if jerr := t.journal.RecordOrder(orderRecord(intent, res)); jerr != nil {
			log.WithError(jerr).Error("journal order record failed")
		}
	}
	return res, err
}

func isReject(err error) bool {
	var rej *terminal.RejectError
	return errors.As(err, &rej)
}

func orderRecord(intent terminal.OrderIntent, res terminal.OrderResult) journal.OrderRecord {
	rec := journal.OrderRecord{
		ID:      id.New(),
		Time:    time.Now().UTC(),
		Symbol:  intent.Symbol,
		Side:    intent.Side.String(),
		Kind:    intent.Kind.String(),
		Ticket:  int64(res.Ticket),
		Code:    res.Code,
		Volume:  intent.Volume,
		Price:   res.Price,
		Comment: intent.Comment,
	}
	if intent.Kind.Pending() {
		rec.Price = intent.Price
	}
	if intent.StopLoss != nil {
		rec.StopLoss = *intent.StopLoss
	}
	if intent.TakeProfit != nil {
		rec.TakeProfit = *intent.TakeProfit
	}
	return rec
}

// protectStop and protectTake pick which way a protective offset points:
// stops sit against the position, takes with it.
const (
	protectStop = -1.0
	protectTake = +1.0
)

func levelFromOffset(spec market.InstrumentSpec, base float64, side market.Side, points, direction float64) *float64 {
	if points <= 0 {
		return nil
	}
	level := base + direction*side.Sign()*points*spec.Point
	return &level
}

// pendingEntry converts an entry offset into an absolute price: stops
// rest beyond the market in the trade direction, limits inside it. The
// entry is clamped outward when the offset lands inside the broker's
// minimum distance.
func pendingEntry(spec market.InstrumentSpec, q market.Quote, side market.Side, kind terminal.Kind, offsetPoints float64) (float64, bool) {
	ref := q.EntryPrice(side)
	offset := offsetPoints * spec.Point
	dist := spec.StopDistance()

	away := side.Sign()
	if kind == terminal.Limit {
		away = -away
	}

	entry := ref + away*offset
	if dist > 0 && offset < dist {
		return ref + away*dist, true
	}
	return entry, false
}

func countClamps(symbol string, levels stops.Levels) {
	if levels.ClampedStop {
		metrics.StopsClamped.WithLabelValues(symbol, "stop_loss").Inc()
		log.WithField("symbol", symbol).Warn("stop-loss clamped to minimum distance")
	}
	if levels.ClampedTake {
		metrics.StopsClamped.WithLabelValues(symbol, "take_profit").Inc()
		log.WithField("symbol", symbol).Warn("take-profit clamped to minimum distance")
	}
}
