package journal

import (
	"database/sql"
	"fmt"
	"time"
)

// GetPair returns a single pair record by ID.
func (j *SQLiteJournal) GetPair(id string) (PairRecord, error) {
	var rec PairRecord

	row := j.db.QueryRow(`
		SELECT id, symbol, resolution, leg_a_ticket, leg_b_ticket, kept_ticket, cancelled_ticket, volume, opened_at, resolved_at, note
		FROM pairs
		WHERE id = ?`, id)

	err := row.Scan(
		&rec.ID,
		&rec.Symbol,
		&rec.Resolution,
		&rec.LegATicket,
		&rec.LegBTicket,
		&rec.KeptTicket,
		&rec.CancelledTicket,
		&rec.Volume,
		&rec.OpenedAt,
		&rec.ResolvedAt,
		&rec.Note,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return PairRecord{}, fmt.Errorf("pair %q not found", id)
		}
		return PairRecord{}, err
	}
	return rec, nil
}

// ListPairsResolvedBetween returns pairs whose resolved_at is within
// [start, end), oldest first.
func (j *SQLiteJournal) ListPairsResolvedBetween(start, end time.Time) ([]PairRecord, error) {
	rows, err := j.db.Query(`
		SELECT id, symbol, resolution, leg_a_ticket, leg_b_ticket, kept_ticket, cancelled_ticket, volume, opened_at, resolved_at, note
		FROM pairs
		WHERE resolved_at >= ? AND resolved_at < ?
		ORDER BY resolved_at ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PairRecord
	for rows.Next() {
		var rec PairRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.Symbol,
			&rec.Resolution,
			&rec.LegATicket,
			&rec.LegBTicket,
			&rec.KeptTicket,
			&rec.CancelledTicket,
			&rec.Volume,
			&rec.OpenedAt,
			&rec.ResolvedAt,
			&rec.Note,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListOrdersBetween returns orders submitted within [start, end),
// oldest first.
func (j *SQLiteJournal) ListOrdersBetween(start, end time.Time) ([]OrderRecord, error) {
	rows, err := j.db.Query(`
		SELECT id, time, symbol, side, kind, ticket, code, volume, price, stop_loss, take_profit, comment
		FROM orders
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderRecord
	for rows.Next() {
		var rec OrderRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.Time,
			&rec.Symbol,
			&rec.Side,
			&rec.Kind,
			&rec.Ticket,
			&rec.Code,
			&rec.Volume,
			&rec.Price,
			&rec.StopLoss,
			&rec.TakeProfit,
			&rec.Comment,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
