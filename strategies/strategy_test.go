package strategies

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/termlink/journal"
	"github.com/avolkov/termlink/pair"
	"github.com/avolkov/termlink/terminal"
)

type mockStrategy struct {
	runs int
}

func (m *mockStrategy) Run(ctx context.Context, term terminal.Terminal, j journal.Journal) (pair.Report, error) {
	m.runs++
	return pair.Report{}, nil
}

func TestRegister(t *testing.T) {
	registry = make(map[string]Strategy)

	mock := &mockStrategy{}
	Register("test-strategy", mock)

	strat := GetStrategy("test-strategy")
	assert.NotNil(t, strat)
	assert.Equal(t, mock, strat)
}

func TestGetStrategy_NotFound(t *testing.T) {
	registry = make(map[string]Strategy)

	strat := GetStrategy("nonexistent")
	assert.Nil(t, strat)
}

func TestStrategyByName_Straddle(t *testing.T) {
	tests := []struct {
		name     string
		stratKey string
	}{
		{"straddle lowercase", "straddle"},
		{"breakout alias", "breakout"},
		{"STRADDLE uppercase", "STRADDLE"},
		{"Straddle mixed case", "Straddle"},
		{"straddle with spaces", "  straddle  "},
	}

	p := Params{
		Symbol:       "EURUSD",
		RiskFraction: 0.01,
		StopPoints:   200,
		TakePoints:   400,
		OffsetPoints: 150,
		PollInterval: time.Second,
		Timeout:      time.Minute,
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strat, err := StrategyByName(tt.stratKey, p)
			require.NoError(t, err)

			straddle, ok := strat.(*Straddle)
			require.True(t, ok, "expected *Straddle")
			assert.Equal(t, "EURUSD", straddle.Symbol)
			assert.Equal(t, 0.01, straddle.RiskFraction)
			assert.Equal(t, 150.0, straddle.OffsetPoints)
		})
	}
}

func TestStrategyByName_Hedge(t *testing.T) {
	tests := []struct {
		name     string
		stratKey string
	}{
		{"hedge", "hedge"},
		{"market-hedge alias", "market-hedge"},
		{"HEDGE uppercase", "HEDGE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strat, err := StrategyByName(tt.stratKey, Params{Symbol: "EURUSD", HoldFor: time.Minute})
			require.NoError(t, err)

			hedge, ok := strat.(*Hedge)
			require.True(t, ok, "expected *Hedge")
			assert.Equal(t, "EURUSD", hedge.Symbol)
			assert.Equal(t, time.Minute, hedge.HoldFor)
		})
	}
}

func TestStrategyByName_Unknown(t *testing.T) {
	_, err := StrategyByName("martingale", Params{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown strategy")
}

func TestStrategyByName_PrefersRegistered(t *testing.T) {
	registry = make(map[string]Strategy)
	t.Cleanup(func() { registry = make(map[string]Strategy) })

	mock := &mockStrategy{}
	Register("straddle", mock)

	strat, err := StrategyByName("STRADDLE", Params{})
	require.NoError(t, err)
	assert.Equal(t, Strategy(mock), strat, "registered strategy shadows the built-in")
}
