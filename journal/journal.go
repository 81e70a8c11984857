// Package journal persists what was sent to the terminal and how paired
// runs ended. Sinks: SQLite for querying, CSV for spreadsheets, Nop for
// when persistence is switched off.
package journal

import "time"

// OrderRecord is one accepted or rejected submission. Side and Kind are
// stored as their string forms; zero StopLoss/TakeProfit means the level
// was not attached.
type OrderRecord struct {
	ID         string
	Time       time.Time
	Symbol     string
	Side       string
	Kind       string
	Ticket     int64
	Code       int
	Volume     float64
	Price      float64
	StopLoss   float64
	TakeProfit float64
	Comment    string
}

// PairRecord is the outcome of one paired-order run. KeptTicket and
// CancelledTicket are zero when the resolution produced none (both legs
// kept, or nothing to cancel).
type PairRecord struct {
	ID              string
	Symbol          string
	Resolution      string
	LegATicket      int64
	LegBTicket      int64
	KeptTicket      int64
	CancelledTicket int64
	Volume          float64
	OpenedAt        time.Time
	ResolvedAt      time.Time
	Note            string
}

type Journal interface {
	RecordOrder(OrderRecord) error
	RecordPair(PairRecord) error
	Close() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordOrder(OrderRecord) error { return nil }
func (Nop) RecordPair(PairRecord) error   { return nil }
func (Nop) Close() error                  { return nil }
