package market

import (
	"errors"
	"fmt"
)

// ErrInvalidSpec marks instrument constraints the trading layer cannot
// safely compute against (zero or negative grid parameters).
var ErrInvalidSpec = errors.New("invalid instrument spec")

// InstrumentSpec carries the broker-side trading constraints for one
// instrument: price grid, contract value and volume bounds. Values are
// quoted the way retail FX terminals report them, with sizes in lots.
type InstrumentSpec struct {
	Symbol    string
	Digits    int     // decimal places of a quoted price
	Point     float64 // smallest quoted price increment (10^-Digits)
	TickSize  float64 // price grid orders must land on
	TickValue float64 // account-currency value of one tick for one lot

	VolumeMin  float64
	VolumeMax  float64
	VolumeStep float64

	// StopLevelPoints is the broker's minimum distance, in points,
	// between the current price and any stop or entry level. Zero or
	// negative means the broker does not enforce a distance.
	StopLevelPoints float64
}

// Validate rejects specs whose grid parameters cannot be computed with.
// StopLevelPoints is deliberately not checked: brokers report zero there.
func (s InstrumentSpec) Validate() error {
	if s.Symbol == "" {
		return fmt.Errorf("%w: empty symbol", ErrInvalidSpec)
	}
	if s.Point <= 0 {
		return fmt.Errorf("%w: %s point %v", ErrInvalidSpec, s.Symbol, s.Point)
	}
	if s.TickSize <= 0 {
		return fmt.Errorf("%w: %s tick size %v", ErrInvalidSpec, s.Symbol, s.TickSize)
	}
	if s.TickValue <= 0 {
		return fmt.Errorf("%w: %s tick value %v", ErrInvalidSpec, s.Symbol, s.TickValue)
	}
	if s.VolumeStep <= 0 {
		return fmt.Errorf("%w: %s volume step %v", ErrInvalidSpec, s.Symbol, s.VolumeStep)
	}
	if s.VolumeMin <= 0 || s.VolumeMax < s.VolumeMin {
		return fmt.Errorf("%w: %s volume bounds [%v, %v]", ErrInvalidSpec, s.Symbol, s.VolumeMin, s.VolumeMax)
	}
	return nil
}

// StopDistance is the minimum price distance implied by StopLevelPoints,
// or zero when the broker enforces none.
func (s InstrumentSpec) StopDistance() float64 {
	if s.StopLevelPoints <= 0 {
		return 0
	}
	return s.StopLevelPoints * s.Point
}
