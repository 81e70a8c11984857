package strategies

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/avolkov/termlink/journal"
	"github.com/avolkov/termlink/market"
	"github.com/avolkov/termlink/pair"
	"github.com/avolkov/termlink/terminal"
	"github.com/avolkov/termlink/trade"
)

var log = logrus.WithField("pkg", "strategies")

// Straddle brackets the market before an expected move: a buy stop above
// the ask and a sell stop below the bid, both OffsetPoints out, sized so
// either stop costs RiskFraction of equity. The first breakout fills one
// leg and the pair engine cancels the other; no breakout by the deadline
// cancels both.
type Straddle struct {
	Params
}

func NewStraddle(p Params) *Straddle {
	return &Straddle{Params: p}
}

func (s *Straddle) Run(ctx context.Context, term terminal.Terminal, j journal.Journal) (pair.Report, error) {
	trader := trade.New(term, j)

	volume, err := trader.VolumeForEquityRisk(ctx, s.Symbol, s.StopPoints, s.RiskFraction)
	if err != nil {
		return pair.Report{}, err
	}

	above, err := trader.PreparePending(ctx, trade.PendingOrder{
		Symbol:            s.Symbol,
		Side:              market.Buy,
		Kind:              terminal.Stop,
		Volume:            volume,
		EntryOffsetPoints: s.OffsetPoints,
		StopLossPoints:    s.StopPoints,
		TakeProfitPoints:  s.TakePoints,
		Comment:           "straddle upper",
	})
	if err != nil {
		return pair.Report{}, err
	}
	below, err := trader.PreparePending(ctx, trade.PendingOrder{
		Symbol:            s.Symbol,
		Side:              market.Sell,
		Kind:              terminal.Stop,
		Volume:            volume,
		EntryOffsetPoints: s.OffsetPoints,
		StopLossPoints:    s.StopPoints,
		TakeProfitPoints:  s.TakePoints,
		Comment:           "straddle lower",
	})
	if err != nil {
		return pair.Report{}, err
	}

	log.WithFields(logrus.Fields{
		"symbol": s.Symbol,
		"volume": volume,
		"upper":  above.Price,
		"lower":  below.Price,
	}).Info("straddle armed")

	run := pair.New(term, j, pair.Config{
		Symbol:       s.Symbol,
		PollInterval: s.PollInterval,
		Timeout:      s.Timeout,
	})
	return run.Run(ctx, above, below)
}
