package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

type CSVJournal struct {
	orders *csv.Writer
	pairs  *csv.Writer
	of, pf *os.File
}

func NewCSV(ordersPath, pairsPath string) (*CSVJournal, error) {
	of, err := os.Create(ordersPath)
	if err != nil {
		return nil, err
	}
	pf, err := os.Create(pairsPath)
	if err != nil {
		of.Close()
		return nil, err
	}

	ow := csv.NewWriter(of)
	pw := csv.NewWriter(pf)

	if err := ow.Write([]string{"id", "time", "symbol", "side", "kind", "ticket", "code", "volume", "price", "stop_loss", "take_profit", "comment"}); err != nil {
		return nil, err
	}
	if err := pw.Write([]string{"id", "symbol", "resolution", "leg_a_ticket", "leg_b_ticket", "kept_ticket", "cancelled_ticket", "volume", "opened_at", "resolved_at", "note"}); err != nil {
		return nil, err
	}

	ow.Flush()
	if err := ow.Error(); err != nil {
		return nil, err
	}
	pw.Flush()
	if err := pw.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{ow, pw, of, pf}, nil
}

func (j *CSVJournal) RecordOrder(r OrderRecord) error {
	err := j.orders.Write([]string{
		r.ID,
		r.Time.Format(time.RFC3339),
		r.Symbol,
		r.Side,
		r.Kind,
		strconv.FormatInt(r.Ticket, 10),
		strconv.Itoa(r.Code),
		f(r.Volume),
		f(r.Price),
		f(r.StopLoss),
		f(r.TakeProfit),
		r.Comment,
	})
	if err != nil {
		return err
	}
	j.orders.Flush()
	return j.orders.Error()
}

func (j *CSVJournal) RecordPair(r PairRecord) error {
	err := j.pairs.Write([]string{
		r.ID,
		r.Symbol,
		r.Resolution,
		strconv.FormatInt(r.LegATicket, 10),
		strconv.FormatInt(r.LegBTicket, 10),
		strconv.FormatInt(r.KeptTicket, 10),
		strconv.FormatInt(r.CancelledTicket, 10),
		f(r.Volume),
		r.OpenedAt.Format(time.RFC3339),
		r.ResolvedAt.Format(time.RFC3339),
		r.Note,
	})
	if err != nil {
		return err
	}
	j.pairs.Flush()
	return j.pairs.Error()
}

func (j *CSVJournal) Close() error {
	j.orders.Flush()
	if err := j.orders.Error(); err != nil {
		return err
	}
	j.pairs.Flush()
	if err := j.pairs.Error(); err != nil {
		return err
	}

	if err := j.of.Close(); err != nil {
		return err
	}
	return j.pf.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
