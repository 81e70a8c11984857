// Package risk converts a monetary risk budget and a stop distance into
// a broker-valid position size.
package risk

import (
	"errors"
	"fmt"

	"github.com/avolkov/termlink/market"
)

// ErrInvalidArgument marks sizing requests that cannot be computed:
// non-positive stop distance or risk budget.
var ErrInvalidArgument = errors.New("invalid risk argument")

// LossPerLot is the account-currency loss of one lot when price moves
// stopPoints points against the position:
//
//	lossPerLot = stopPoints * point / tickSize * tickValue
//
// For most FX symbols point == tickSize and this reduces to
// stopPoints * tickValue.
func LossPerLot(spec market.InstrumentSpec, stopPoints float64) (float64, error) {
	if err := spec.Validate(); err != nil {
		return 0, err
	}
	if stopPoints <= 0 {
		return 0, fmt.Errorf("%w: stop distance %v points", ErrInvalidArgument, stopPoints)
	}
	return stopPoints * spec.Point / spec.TickSize * spec.TickValue, nil
}

// VolumeForRisk returns the volume, snapped to the instrument's step
// grid, that loses approximately riskMoney if a stop stopPoints away is
// hit. Nearest-step snapping means the realized risk can land slightly
// above the budget; VolumeForRiskFloor never does.
func VolumeForRisk(spec market.InstrumentSpec, stopPoints, riskMoney float64) (float64, error) {
	return volumeForRisk(spec, stopPoints, riskMoney, market.NormalizeVolume)
}

// VolumeForRiskFloor sizes like VolumeForRisk but snaps the volume
// toward zero, keeping the realized risk at or under the budget for any
// volume above the tradable minimum.
func VolumeForRiskFloor(spec market.InstrumentSpec, stopPoints, riskMoney float64) (float64, error) {
	return volumeForRisk(spec, stopPoints, riskMoney, market.NormalizeVolumeDown)
}

func volumeForRisk(spec market.InstrumentSpec, stopPoints, riskMoney float64, normalize func(market.InstrumentSpec, float64) (float64, error)) (float64, error) {
	perLot, err := LossPerLot(spec, stopPoints)
	if err != nil {
		return 0, err
	}
	if riskMoney <= 0 {
		return 0, fmt.Errorf("%w: risk budget %v", ErrInvalidArgument, riskMoney)
	}
	return normalize(spec, riskMoney/perLot)
}

// AmountAtRisk is the account-currency budget for risking a fraction of
// equity, e.g. AmountAtRisk(10_000, 0.01) == 100.
func AmountAtRisk(equity, fraction float64) float64 {
	if equity <= 0 || fraction <= 0 {
		return 0
	}
	return equity * fraction
}
