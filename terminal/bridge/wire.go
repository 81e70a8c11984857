package bridge

import (
	"encoding/json"
	"time"

	"github.com/avolkov/termlink/market"
	"github.com/avolkov/termlink/terminal"
)

// Gateway method names.
const (
	methodInstrumentSpec = "instrument_spec"
	methodQuote          = "quote"
	methodSubmitOrder    = "submit_order"
	methodCancelOrder    = "cancel_order"
	methodClosePosition  = "close_position"
	methodOpenTickets    = "open_tickets"
	methodAccount        = "account"
)

// Gateway error codes carried in response.Error. Anything else is
// surfaced verbatim.
const (
	codeInstrumentUnavailable = 1001
	codeTicketNotFound        = 1002
)

// request is one frame sent to the gateway.
type request struct {
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// response is one frame received from the gateway, matched to its
// request by ID.
type response struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type symbolParams struct {
	Symbol string `json:"symbol"`
}

type ticketParams struct {
	Ticket int64 `json:"ticket"`
}

type closeParams struct {
	Ticket int64   `json:"ticket"`
	Volume float64 `json:"volume,omitempty"`
}

type specPayload struct {
	Symbol          string  `json:"symbol"`
	Digits          int     `json:"digits"`
	Point           float64 `json:"point"`
	TickSize        float64 `json:"tick_size"`
	TickValue       float64 `json:"tick_value"`
	VolumeMin       float64 `json:"volume_min"`
	VolumeMax       float64 `json:"volume_max"`
	VolumeStep      float64 `json:"volume_step"`
	StopLevelPoints float64 `json:"stop_level_points"`
}

func (p specPayload) spec() market.InstrumentSpec {
	return market.InstrumentSpec{
		Symbol:          p.Symbol,
		Digits:          p.Digits,
		Point:           p.Point,
		TickSize:        p.TickSize,
		TickValue:       p.TickValue,
		VolumeMin:       p.VolumeMin,
		VolumeMax:       p.VolumeMax,
		VolumeStep:      p.VolumeStep,
		StopLevelPoints: p.StopLevelPoints,
	}
}

type quotePayload struct {
	Symbol string    `json:"symbol"`
	Time   time.Time `json:"time"`
	Bid    float64   `json:"bid"`
	Ask    float64   `json:"ask"`
}

func (p quotePayload) quote() market.Quote {
	return market.Quote{Symbol: p.Symbol, Time: p.Time, Bid: p.Bid, Ask: p.Ask}
}

type intentParams struct {
	Symbol         string   `json:"symbol"`
	Side           string   `json:"side"`
	Kind           string   `json:"kind"`
	Volume         float64  `json:"volume"`
	Price          float64  `json:"price,omitempty"`
	StopLoss       *float64 `json:"stop_loss,omitempty"`
	TakeProfit     *float64 `json:"take_profit,omitempty"`
	SlippagePoints int      `json:"slippage_points,omitempty"`
	Comment        string   `json:"comment,omitempty"`
}

func intentParamsFrom(in terminal.OrderIntent) intentParams {
	return intentParams{
		Symbol:         in.Symbol,
		Side:           in.Side.String(),
		Kind:           in.Kind.String(),
		Volume:         in.Volume,
		Price:          in.Price,
		StopLoss:       in.StopLoss,
		TakeProfit:     in.TakeProfit,
		SlippagePoints: in.SlippagePoints,
		Comment:        in.Comment,
	}
}

type resultPayload struct {
	Ticket  int64   `json:"ticket"`
	Code    int     `json:"code"`
	Price   float64 `json:"price"`
	Volume  float64 `json:"volume"`
	Message string  `json:"message,omitempty"`
}

func (p resultPayload) result() terminal.OrderResult {
	return terminal.OrderResult{
		Ticket:  terminal.Ticket(p.Ticket),
		Code:    p.Code,
		Price:   p.Price,
		Volume:  p.Volume,
		Message: p.Message,
	}
}

type ticketsPayload struct {
	Tickets []int64 `json:"tickets"`
}

type accountPayload struct {
	ID         string    `json:"id"`
	Currency   string    `json:"currency"`
	Balance    float64   `json:"balance"`
	Equity     float64   `json:"equity"`
	Margin     float64   `json:"margin"`
	FreeMargin float64   `json:"free_margin"`
	Time       time.Time `json:"time"`
}

func (p accountPayload) account() terminal.AccountSummary {
	return terminal.AccountSummary{
		ID:         p.ID,
		Currency:   p.Currency,
		Balance:    p.Balance,
		Equity:     p.Equity,
		Margin:     p.Margin,
		FreeMargin: p.FreeMargin,
		Time:       p.Time,
	}
}
