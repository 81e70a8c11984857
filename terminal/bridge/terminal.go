package bridge

import (
	"context"

	"github.com/avolkov/termlink/market"
	"github.com/avolkov/termlink/terminal"
)

func (c *Client) InstrumentSpec(ctx context.Context, symbol string) (market.InstrumentSpec, error) {
	var p specPayload
	if err := c.call(ctx, methodInstrumentSpec, symbolParams{Symbol: symbol}, &p); err != nil {
		return market.InstrumentSpec{}, err
	}
	return p.spec(), nil
}

func (c *Client) Quote(ctx context.Context, symbol string) (market.Quote, error) {
	var p quotePayload
	if err := c.call(ctx, methodQuote, symbolParams{Symbol: symbol}, &p); err != nil {
		return market.Quote{}, err
	}
	return p.quote(), nil
}

// SubmitOrder sends the intent to the gateway. A response that is not a
// done or placed code comes back as the result plus a *RejectError, the
// same contract the in-memory terminal honors.
func (c *Client) SubmitOrder(ctx context.Context, intent terminal.OrderIntent) (terminal.OrderResult, error) {
	var p resultPayload
	if err := c.call(ctx, methodSubmitOrder, intentParamsFrom(intent), &p); err != nil {
		return terminal.OrderResult{}, err
	}
	res := p.result()
	if !terminal.Accepted(res.Code) {
		return res, &terminal.RejectError{Code: res.Code, Message: res.Message}
	}
	return res, nil
}

func (c *Client) CancelOrder(ctx context.Context, ticket terminal.Ticket) error {
	return c.call(ctx, methodCancelOrder, ticketParams{Ticket: int64(ticket)}, nil)
}

func (c *Client) ClosePosition(ctx context.Context, ticket terminal.Ticket, volume float64) (terminal.OrderResult, error) {
	var p resultPayload
	if err := c.call(ctx, methodClosePosition, closeParams{Ticket: int64(ticket), Volume: volume}, &p); err != nil {
		return terminal.OrderResult{}, err
	}
	res := p.result()
	if !terminal.Accepted(res.Code) {
		return res, &terminal.RejectError{Code: res.Code, Message: res.Message}
	}
	return res, nil
}

func (c *Client) OpenTickets(ctx context.Context) ([]terminal.Ticket, error) {
	var p ticketsPayload
	if err := c.call(ctx, methodOpenTickets, nil, &p); err != nil {
		return nil, err
	}
	tickets := make([]terminal.Ticket, 0, len(p.Tickets))
	for _, t := range p.Tickets {
		tickets = append(tickets, terminal.Ticket(t))
	}
	return tickets, nil
}

func (c *Client) Account(ctx context.Context) (terminal.AccountSummary, error) {
	var p accountPayload
	if err := c.call(ctx, methodAccount, nil, &p); err != nil {
		return terminal.AccountSummary{}, err
	}
	return p.account(), nil
}
