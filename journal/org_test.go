package journal

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatPairOrg(t *testing.T) {
	t.Parallel()

	opened := time.Date(2026, 3, 15, 10, 30, 45, 0, time.UTC)
	resolved := time.Date(2026, 3, 15, 10, 35, 12, 0, time.UTC)

	rec := PairRecord{
		ID:              "01HV3ZX8YJQW4R2T9ABCDEF123",
		Symbol:          "EURUSD",
		Resolution:      "one_filled",
		LegATicket:      1001,
		LegBTicket:      1002,
		KeptTicket:      1001,
		CancelledTicket: 1002,
		Volume:          0.5,
		OpenedAt:        opened,
		ResolvedAt:      resolved,
		Note:            "breakout session",
	}

	result := FormatPairOrg(rec)

	assert.Contains(t, result, "** Pair: EURUSD one_filled (01HV3ZX8)")
	assert.Contains(t, result, ":PROPERTIES:")
	assert.Contains(t, result, ":PAIR_ID: 01HV3ZX8YJQW4R2T9ABCDEF123")
	assert.Contains(t, result, ":RESOLUTION: one_filled")
	assert.Contains(t, result, ":LEG_A_TICKET: 1001")
	assert.Contains(t, result, ":KEPT_TICKET: 1001")
	assert.Contains(t, result, ":CANCELLED_TICKET: 1002")
	assert.Contains(t, result, ":VOLUME: 0.50")
	assert.Contains(t, result, ":OPENED_AT: 2026-03-15T10:30:45Z")
	assert.Contains(t, result, ":RESOLVED_AT: 2026-03-15T10:35:12Z")
	assert.Contains(t, result, ":NOTE: breakout session")
	assert.Contains(t, result, ":END:")
	assert.Contains(t, result, "*** Setup")
	assert.Contains(t, result, "*** Outcome")
	assert.Contains(t, result, "*** Review")
}

func TestFormatPairOrg_NoNote(t *testing.T) {
	t.Parallel()

	result := FormatPairOrg(PairRecord{ID: "p1", Symbol: "GBPUSD", Resolution: "timed_out"})
	assert.NotContains(t, result, ":NOTE:")
	assert.Contains(t, result, "** Pair: GBPUSD timed_out (p1)")
}

func TestFormatPairsOrg(t *testing.T) {
	t.Parallel()

	recs := []PairRecord{
		{ID: "pair-001", Symbol: "EURUSD", Resolution: "one_filled"},
		{ID: "pair-002", Symbol: "USDJPY", Resolution: "timed_out"},
	}

	result := FormatPairsOrg(recs)
	assert.Contains(t, result, "pair-001")
	assert.Contains(t, result, "pair-002")

	parts := strings.Split(result, "\n\n\n")
	assert.Len(t, parts, 2, "pairs separated by a blank line")

	assert.Empty(t, FormatPairsOrg(nil))
}

func TestShortID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"01HV3ZX8YJQW4R2T9ABCDEF123", "01HV3ZX8"},
		{"12345678", "12345678"},
		{"short", "short"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, shortID(tt.input))
	}
}
