package strategies

import (
	"context"

	"github.com/avolkov/termlink/journal"
	"github.com/avolkov/termlink/market"
	"github.com/avolkov/termlink/pair"
	"github.com/avolkov/termlink/terminal"
	"github.com/avolkov/termlink/trade"
)

// Hedge opens both sides at market in one pair run. Market legs fill on
// submission, so the pair resolves both-filled on its first poll and
// cleanup flattens the two positions once HoldFor has elapsed. Until
// then the legs ride their own protective levels.
type Hedge struct {
	Params
}

func NewHedge(p Params) *Hedge {
	return &Hedge{Params: p}
}

func (h *Hedge) Run(ctx context.Context, term terminal.Terminal, j journal.Journal) (pair.Report, error) {
	trader := trade.New(term, j)

	volume, err := trader.VolumeForEquityRisk(ctx, h.Symbol, h.StopPoints, h.RiskFraction)
	if err != nil {
		return pair.Report{}, err
	}

	long, err := trader.PrepareMarket(ctx, trade.MarketOrder{
		Symbol:           h.Symbol,
		Side:             market.Buy,
		Volume:           volume,
		StopLossPoints:   h.StopPoints,
		TakeProfitPoints: h.TakePoints,
		Comment:          "hedge long",
	})
	if err != nil {
		return pair.Report{}, err
	}
	short, err := trader.PrepareMarket(ctx, trade.MarketOrder{
		Symbol:           h.Symbol,
		Side:             market.Sell,
		Volume:           volume,
		StopLossPoints:   h.StopPoints,
		TakeProfitPoints: h.TakePoints,
		Comment:          "hedge short",
	})
	if err != nil {
		return pair.Report{}, err
	}

	run := pair.New(term, j, pair.Config{
		Symbol:       h.Symbol,
		PollInterval: h.PollInterval,
		Timeout:      h.Timeout,
		CloseFilled:  true,
		HoldFor:      h.HoldFor,
	})
	return run.Run(ctx, long, short)
}
