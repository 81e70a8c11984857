// Package stops validates and corrects protective stop levels against a
// live quote before an order is sent.
//
// Two failure classes are kept deliberately distinct: a level on the
// wrong side of the market signals inverted caller logic and is refused,
// while a level that is merely closer than the broker's minimum distance
// is pulled out to the boundary. Auto-flipping a wrong-side stop would
// turn a protective level into its opposite, so that is never done.
package stops

import (
	"errors"
	"fmt"

	"github.com/avolkov/termlink/market"
)

// ErrWrongSide marks a stop-loss or take-profit on the wrong side of the
// current price for the order's direction.
var ErrWrongSide = errors.New("stop level on wrong side of price")

// Levels is the validated pair of protective levels. Nil means the level
// was not requested. Clamped flags report that the corresponding input
// sat inside the broker's minimum distance and was moved to the boundary.
type Levels struct {
	StopLoss    *float64
	TakeProfit  *float64
	ClampedStop bool
	ClampedTake bool
}

// Validate checks sl and tp for a prospective order of the given side
// against quote. Buys are checked against the ask, sells against the
// bid. Wrong-side levels fail with ErrWrongSide; levels inside the
// spec's stop distance are clamped to it; valid levels pass through.
// All returned levels are snapped to the instrument's tick grid last,
// after any clamping. Nil inputs are returned as nil.
//
// A level exactly at the reference price has zero protective distance
// and counts as wrong-side. When the spec carries no stop distance the
// side check still applies.
func Validate(spec market.InstrumentSpec, side market.Side, quote market.Quote, sl, tp *float64) (Levels, error) {
	ref := quote.EntryPrice(side)
	dist := spec.StopDistance()

	var out Levels

	if sl != nil {
		level := *sl
		switch side {
		case market.Buy:
			if level >= ref {
				return Levels{}, fmt.Errorf("%w: buy stop-loss %v at or above ask %v", ErrWrongSide, level, ref)
			}
			if level > ref-dist {
				level = ref - dist
				out.ClampedStop = true
			}
		case market.Sell:
			if level <= ref {
				return Levels{}, fmt.Errorf("%w: sell stop-loss %v at or below bid %v", ErrWrongSide, level, ref)
			}
			if level < ref+dist {
				level = ref + dist
				out.ClampedStop = true
			}
		}
		norm, err := market.NormalizePrice(spec, level)
		if err != nil {
			return Levels{}, err
		}
		out.StopLoss = &norm
	}

	if tp != nil {
		level := *tp
		switch side {
		case market.Buy:
			if level <= ref {
				return Levels{}, fmt.Errorf("%w: buy take-profit %v at or below ask %v", ErrWrongSide, level, ref)
			}
			if level < ref+dist {
				level = ref + dist
				out.ClampedTake = true
			}
		case market.Sell:
			if level >= ref {
				return Levels{}, fmt.Errorf("%w: sell take-profit %v at or above bid %v", ErrWrongSide, level, ref)
			}
			if level > ref-dist {
				level = ref - dist
				out.ClampedTake = true
			}
		}
		norm, err := market.NormalizePrice(spec, level)
		if err != nil {
			return Levels{}, err
		}
		out.TakeProfit = &norm
	}

	return out, nil
}
