package market

import (
	"fmt"
	"math"
)

// NormalizePrice snaps a raw price to the instrument's tick grid using
// nearest rounding. The result is an exact integer multiple of TickSize,
// so normalizing twice returns the same value.
func NormalizePrice(spec InstrumentSpec, price float64) (float64, error) {
	if spec.TickSize <= 0 {
		return 0, fmt.Errorf("%w: %s tick size %v", ErrInvalidSpec, spec.Symbol, spec.TickSize)
	}
	ticks := math.Round(price / spec.TickSize)
	return ticks * spec.TickSize, nil
}

// NormalizeVolume snaps a raw volume to the nearest step on the grid
// anchored at VolumeMin and clamps it into [VolumeMin, VolumeMax].
// Nearest rounding may round up, so the snapped volume can carry
// slightly more risk than the raw request; use NormalizeVolumeDown when
// the request is a hard ceiling.
func NormalizeVolume(spec InstrumentSpec, volume float64) (float64, error) {
	return normalizeVolume(spec, volume, math.Round)
}

// NormalizeVolumeDown snaps a raw volume to the step grid rounding
// toward zero, never returning more than requested (except the
// VolumeMin floor, which is the smallest tradable size).
func NormalizeVolumeDown(spec InstrumentSpec, volume float64) (float64, error) {
	return normalizeVolume(spec, volume, floorSteps)
}

// floorSteps floors with a hair of slack so a request sitting exactly on
// the grid is not knocked down a full step by division error.
func floorSteps(steps float64) float64 {
	return math.Floor(steps + 1e-9)
}

func normalizeVolume(spec InstrumentSpec, volume float64, snap func(float64) float64) (float64, error) {
	if err := spec.Validate(); err != nil {
		return 0, err
	}
	if volume <= spec.VolumeMin {
		return spec.VolumeMin, nil
	}
	maxSteps := floorSteps((spec.VolumeMax - spec.VolumeMin) / spec.VolumeStep)
	steps := snap((volume - spec.VolumeMin) / spec.VolumeStep)
	if steps > maxSteps {
		steps = maxSteps
	}
	return spec.VolumeMin + steps*spec.VolumeStep, nil
}
