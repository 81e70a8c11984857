// Package strategies bundles small self-contained plays built on the
// pair engine. A strategy sizes its legs against account equity, prepares
// them through the trade pipeline, and hands them to a pair run; the
// pair's report is the strategy's result.
package strategies

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avolkov/termlink/journal"
	"github.com/avolkov/termlink/pair"
	"github.com/avolkov/termlink/terminal"
)

// Strategy is one run-to-completion play. Run blocks until the play
// resolves or ctx is cancelled; the report is meaningful either way.
type Strategy interface {
	Run(ctx context.Context, term terminal.Terminal, j journal.Journal) (pair.Report, error)
}

var registry = make(map[string]Strategy)

// Register makes a configured strategy retrievable by name.
func Register(name string, strat Strategy) {
	registry[name] = strat
}

// GetStrategy returns a registered strategy, or nil when the name is
// unknown.
func GetStrategy(name string) (strat Strategy) {
	var ok bool
	if strat, ok = registry[name]; !ok {
		return nil
	}
	return strat
}

// Params carries the knobs the bundled strategies share. A strategy
// ignores fields it has no use for.
type Params struct {
	Symbol string

	// RiskFraction is the share of account equity lost if a leg's stop
	// is hit, e.g. 0.01 for one percent.
	RiskFraction float64

	// StopPoints and TakePoints are protective distances from each
	// leg's entry. StopPoints also drives sizing.
	StopPoints float64
	TakePoints float64

	// OffsetPoints places the straddle's pending entries this far from
	// the quote.
	OffsetPoints float64

	PollInterval time.Duration
	Timeout      time.Duration

	// HoldFor delays the hedge unwind after both legs fill.
	HoldFor time.Duration
}

// StrategyByName builds a strategy from its name. Registered strategies
// take precedence over the built-in ones, so callers can plug their own
// plays in under any key.
func StrategyByName(name string, p Params) (Strategy, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if strat := GetStrategy(key); strat != nil {
		return strat, nil
	}

	switch key {
	case "straddle", "breakout":
		return NewStraddle(p), nil

	case "hedge", "market-hedge":
		return NewHedge(p), nil

	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: straddle, hedge)", name)
	}
}
