package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordOrder(r OrderRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO orders
		(id, time, symbol, side, kind, ticket, code, volume, price, stop_loss, take_profit, comment)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Time, r.Symbol, r.Side, r.Kind, r.Ticket, r.Code,
		r.Volume, r.Price, r.StopLoss, r.TakeProfit, r.Comment,
	)
	return err
}

func (j *SQLiteJournal) RecordPair(r PairRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO pairs
		(id, symbol, resolution, leg_a_ticket, leg_b_ticket, kept_ticket, cancelled_ticket, volume, opened_at, resolved_at, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Symbol, r.Resolution, r.LegATicket, r.LegBTicket,
		r.KeptTicket, r.CancelledTicket, r.Volume, r.OpenedAt, r.ResolvedAt, r.Note,
	)
	return err
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
