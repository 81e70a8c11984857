package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatPairOrg renders a PairRecord as an Org-mode block suitable for
// pasting into a trading journal. Structured facts live in a PROPERTIES
// drawer for easy search; the narrative placeholders are left to fill in.
func FormatPairOrg(p PairRecord) string {
	heading := fmt.Sprintf("** Pair: %s %s (%s)", p.Symbol, p.Resolution, shortID(p.ID))
	opened := p.OpenedAt.UTC().Format(time.RFC3339)
	resolved := p.ResolvedAt.UTC().Format(time.RFC3339)

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":PAIR_ID: %s\n", p.ID))
	b.WriteString(fmt.Sprintf(":SYMBOL: %s\n", p.Symbol))
	b.WriteString(fmt.Sprintf(":RESOLUTION: %s\n", p.Resolution))
	b.WriteString(fmt.Sprintf(":LEG_A_TICKET: %d\n", p.LegATicket))
	b.WriteString(fmt.Sprintf(":LEG_B_TICKET: %d\n", p.LegBTicket))
	b.WriteString(fmt.Sprintf(":KEPT_TICKET: %d\n", p.KeptTicket))
	b.WriteString(fmt.Sprintf(":CANCELLED_TICKET: %d\n", p.CancelledTicket))
	b.WriteString(fmt.Sprintf(":VOLUME: %.2f\n", p.Volume))
	b.WriteString(fmt.Sprintf(":OPENED_AT: %s\n", opened))
	b.WriteString(fmt.Sprintf(":RESOLVED_AT: %s\n", resolved))
	if p.Note != "" {
		b.WriteString(fmt.Sprintf(":NOTE: %s\n", p.Note))
	}
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("*** Setup\n- \n\n")
	b.WriteString("*** Outcome\n- \n\n")
	b.WriteString("*** Review\n- \n")

	return b.String()
}

// FormatPairsOrg renders multiple pairs separated by blank lines.
func FormatPairsOrg(pairs []PairRecord) string {
	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatPairOrg(p))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
