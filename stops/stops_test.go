package stops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/termlink/market"
)

func testSpec() market.InstrumentSpec {
	return market.InstrumentSpec{
		Symbol:          "EURUSD",
		Digits:          5,
		Point:           0.00001,
		TickSize:        0.00001,
		TickValue:       1,
		VolumeMin:       0.01,
		VolumeMax:       100,
		VolumeStep:      0.01,
		StopLevelPoints: 100, // 0.00100 minimum distance
	}
}

func testQuote() market.Quote {
	return market.Quote{Symbol: "EURUSD", Bid: 1.10000, Ask: 1.10020}
}

func fp(v float64) *float64 { return &v }

func TestValidate_NilLevelsPassThrough(t *testing.T) {
	t.Parallel()

	out, err := Validate(testSpec(), market.Buy, testQuote(), nil, nil)
	require.NoError(t, err)
	assert.Nil(t, out.StopLoss)
	assert.Nil(t, out.TakeProfit)
	assert.False(t, out.ClampedStop)
	assert.False(t, out.ClampedTake)
}

func TestValidate_BuyValidLevelsUntouched(t *testing.T) {
	t.Parallel()

	// Ask 1.10020, distance 0.00100: SL ≤ 1.09920, TP ≥ 1.10120.
	out, err := Validate(testSpec(), market.Buy, testQuote(), fp(1.09900), fp(1.10200))
	require.NoError(t, err)
	require.NotNil(t, out.StopLoss)
	require.NotNil(t, out.TakeProfit)
	assert.InDelta(t, 1.09900, *out.StopLoss, 1e-9)
	assert.InDelta(t, 1.10200, *out.TakeProfit, 1e-9)
	assert.False(t, out.ClampedStop)
	assert.False(t, out.ClampedTake)
}

func TestValidate_BuyTooCloseClamps(t *testing.T) {
	t.Parallel()

	out, err := Validate(testSpec(), market.Buy, testQuote(), fp(1.10000), fp(1.10050))
	require.NoError(t, err)
	assert.InDelta(t, 1.09920, *out.StopLoss, 1e-9, "stop pulled down to ask minus distance")
	assert.InDelta(t, 1.10120, *out.TakeProfit, 1e-9, "take pushed up to ask plus distance")
	assert.True(t, out.ClampedStop)
	assert.True(t, out.ClampedTake)
}

func TestValidate_BuyWrongSideFails(t *testing.T) {
	t.Parallel()

	_, err := Validate(testSpec(), market.Buy, testQuote(), fp(1.10100), nil)
	assert.ErrorIs(t, err, ErrWrongSide, "stop-loss above ask on a buy")

	_, err = Validate(testSpec(), market.Buy, testQuote(), nil, fp(1.09900))
	assert.ErrorIs(t, err, ErrWrongSide, "take-profit below ask on a buy")

	// Exactly at the reference price there is no protective distance.
	_, err = Validate(testSpec(), market.Buy, testQuote(), fp(1.10020), nil)
	assert.ErrorIs(t, err, ErrWrongSide)
}

func TestValidate_SellMirrors(t *testing.T) {
	t.Parallel()

	// Bid 1.10000: SL must clear 1.10100 above, TP 1.09900 below.
	out, err := Validate(testSpec(), market.Sell, testQuote(), fp(1.10150), fp(1.09800))
	require.NoError(t, err)
	assert.InDelta(t, 1.10150, *out.StopLoss, 1e-9)
	assert.InDelta(t, 1.09800, *out.TakeProfit, 1e-9)

	out, err = Validate(testSpec(), market.Sell, testQuote(), fp(1.10050), fp(1.09950))
	require.NoError(t, err)
	assert.InDelta(t, 1.10100, *out.StopLoss, 1e-9)
	assert.InDelta(t, 1.09900, *out.TakeProfit, 1e-9)
	assert.True(t, out.ClampedStop)
	assert.True(t, out.ClampedTake)

	_, err = Validate(testSpec(), market.Sell, testQuote(), fp(1.09900), nil)
	assert.ErrorIs(t, err, ErrWrongSide, "stop-loss below bid on a sell")

	_, err = Validate(testSpec(), market.Sell, testQuote(), nil, fp(1.10100))
	assert.ErrorIs(t, err, ErrWrongSide, "take-profit above bid on a sell")
}

func TestValidate_WrongSideNeverFlipped(t *testing.T) {
	t.Parallel()

	// A wrong-side error must carry no levels at all: nothing for the
	// caller to accidentally submit.
	out, err := Validate(testSpec(), market.Buy, testQuote(), fp(1.10100), nil)
	require.Error(t, err)
	assert.Nil(t, out.StopLoss)
	assert.Nil(t, out.TakeProfit)
}

func TestValidate_ZeroStopLevelKeepsSideCheck(t *testing.T) {
	t.Parallel()

	spec := testSpec()
	spec.StopLevelPoints = 0

	// One point away is fine without a distance requirement.
	out, err := Validate(spec, market.Buy, testQuote(), fp(1.10019), nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.10019, *out.StopLoss, 1e-9)
	assert.False(t, out.ClampedStop)

	// The side rule still applies.
	_, err = Validate(spec, market.Buy, testQuote(), fp(1.10020), nil)
	assert.ErrorIs(t, err, ErrWrongSide)
}

func TestValidate_OutputsOnTickGrid(t *testing.T) {
	t.Parallel()

	spec := testSpec()
	spec.TickSize = 0.00010

	out, err := Validate(spec, market.Buy, testQuote(), fp(1.09873), nil)
	require.NoError(t, err)

	ticks := *out.StopLoss / spec.TickSize
	assert.InDelta(t, float64(int64(ticks+0.5)), ticks, 1e-9, "validated level must land on the tick grid")
}
