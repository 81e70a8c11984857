package pair

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/termlink/journal"
	"github.com/avolkov/termlink/market"
	"github.com/avolkov/termlink/terminal"
)

// fakeClock advances virtual time by the waited duration and fires
// immediately, so monitoring runs through its cycles without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	c.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

type submitOutcome struct {
	res terminal.OrderResult
	err error
}

// mockTerminal scripts submission outcomes, successive OpenTickets
// snapshots (the last one repeats) and per-call cancel/close errors.
type mockTerminal struct {
	mu         sync.Mutex
	submits    []terminal.OrderIntent
	outcomes   []submitOutcome
	openSeq    [][]terminal.Ticket
	openErrAt  map[int]error
	polls      int
	cancels    []terminal.Ticket
	cancelErrs []error
	closes     []terminal.Ticket
	closeErrs  []error
}

func (m *mockTerminal) InstrumentSpec(context.Context, string) (market.InstrumentSpec, error) {
	return market.InstrumentSpec{}, nil
}

func (m *mockTerminal) Quote(context.Context, string) (market.Quote, error) {
	return market.Quote{}, nil
}

func (m *mockTerminal) Account(context.Context) (terminal.AccountSummary, error) {
	return terminal.AccountSummary{}, nil
}

func (m *mockTerminal) SubmitOrder(_ context.Context, intent terminal.OrderIntent) (terminal.OrderResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submits = append(m.submits, intent)
	out := m.outcomes[0]
	m.outcomes = m.outcomes[1:]
	return out.res, out.err
}

func (m *mockTerminal) OpenTickets(context.Context) ([]terminal.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.polls
	m.polls++
	if err, ok := m.openErrAt[i]; ok {
		return nil, err
	}
	if i >= len(m.openSeq) {
		i = len(m.openSeq) - 1
	}
	return m.openSeq[i], nil
}

func (m *mockTerminal) CancelOrder(_ context.Context, ticket terminal.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancels = append(m.cancels, ticket)
	if len(m.cancelErrs) > 0 {
		err := m.cancelErrs[0]
		m.cancelErrs = m.cancelErrs[1:]
		return err
	}
	return nil
}

func (m *mockTerminal) ClosePosition(_ context.Context, ticket terminal.Ticket, _ float64) (terminal.OrderResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes = append(m.closes, ticket)
	if len(m.closeErrs) > 0 {
		err := m.closeErrs[0]
		m.closeErrs = m.closeErrs[1:]
		if err != nil {
			return terminal.OrderResult{}, err
		}
	}
	return terminal.OrderResult{Ticket: ticket, Code: terminal.CodeDone}, nil
}

func accepted(ticket terminal.Ticket, code int) submitOutcome {
	return submitOutcome{res: terminal.OrderResult{Ticket: ticket, Code: code}}
}

func pendingLegs() (terminal.OrderIntent, terminal.OrderIntent) {
	buy := terminal.OrderIntent{Symbol: "EURUSD", Side: market.Buy, Kind: terminal.Stop, Volume: 0.10, Price: 1.10170}
	sell := terminal.OrderIntent{Symbol: "EURUSD", Side: market.Sell, Kind: terminal.Stop, Volume: 0.10, Price: 1.09850}
	return buy, sell
}

func newTestPair(term terminal.Terminal, cfg Config) *Pair {
	if cfg.Symbol == "" {
		cfg.Symbol = "EURUSD"
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Minute
	}
	return NewWithClock(term, journal.Nop{}, cfg, newFakeClock())
}

func TestRun_OneFilledCancelsOther(t *testing.T) {
	t.Parallel()

	term := &mockTerminal{
		outcomes: []submitOutcome{accepted(1001, terminal.CodePlaced), accepted(1002, terminal.CodePlaced)},
		openSeq: [][]terminal.Ticket{
			{1001, 1002}, // first poll: both resting
			{1002},       // leg A filled
		},
	}
	p := newTestPair(term, Config{})
	legA, legB := pendingLegs()

	report, err := p.Run(context.Background(), legA, legB)
	require.NoError(t, err)

	assert.Equal(t, ResolutionOneFilled, report.Resolution)
	assert.True(t, report.LegA.Filled)
	assert.True(t, report.LegB.Cancelled)
	assert.Equal(t, terminal.Ticket(1001), report.KeptTicket())
	assert.Equal(t, terminal.Ticket(1002), report.CancelledTicket())
	assert.Equal(t, []terminal.Ticket{1002}, term.cancels)
	assert.Equal(t, StateCleaned, p.State())
}

func TestRun_BothFilledOnFirstPoll(t *testing.T) {
	t.Parallel()

	// Market legs never enter the working set: the first snapshot
	// already shows both gone.
	term := &mockTerminal{
		outcomes: []submitOutcome{accepted(2001, terminal.CodeDone), accepted(2002, terminal.CodeDone)},
		openSeq:  [][]terminal.Ticket{{}},
	}
	p := newTestPair(term, Config{})

	report, err := p.Run(context.Background(),
		terminal.OrderIntent{Symbol: "EURUSD", Side: market.Buy, Kind: terminal.Market, Volume: 0.10},
		terminal.OrderIntent{Symbol: "EURUSD", Side: market.Sell, Kind: terminal.Market, Volume: 0.10},
	)
	require.NoError(t, err)

	assert.Equal(t, ResolutionBothFilled, report.Resolution)
	assert.True(t, report.LegA.Filled)
	assert.True(t, report.LegB.Filled)
	assert.Zero(t, report.KeptTicket(), "no single kept leg when both filled")
	assert.Empty(t, term.cancels)
	assert.Equal(t, 1, term.polls, "resolved on the first snapshot")
}

func TestRun_TimeoutCancelsBoth(t *testing.T) {
	t.Parallel()

	term := &mockTerminal{
		outcomes: []submitOutcome{accepted(1001, terminal.CodePlaced), accepted(1002, terminal.CodePlaced)},
		openSeq:  [][]terminal.Ticket{{1001, 1002}},
	}
	p := newTestPair(term, Config{PollInterval: 2 * time.Second, Timeout: 5 * time.Second})
	legA, legB := pendingLegs()

	report, err := p.Run(context.Background(), legA, legB)
	require.NoError(t, err)

	assert.Equal(t, ResolutionTimedOut, report.Resolution)
	assert.ElementsMatch(t, []terminal.Ticket{1001, 1002}, term.cancels)
	assert.True(t, report.LegA.Cancelled)
	assert.True(t, report.LegB.Cancelled)
	assert.Zero(t, report.KeptTicket())
	assert.Equal(t, StateCleaned, p.State())
}

func TestRun_LegBFailureRollsBackLegA(t *testing.T) {
	t.Parallel()

	rejection := &terminal.RejectError{Code: terminal.CodeNoMoney, Message: "not enough money"}
	term := &mockTerminal{
		outcomes: []submitOutcome{
			accepted(1001, terminal.CodePlaced),
			{res: terminal.OrderResult{Code: terminal.CodeNoMoney}, err: rejection},
		},
		openSeq: [][]terminal.Ticket{{}},
	}
	p := newTestPair(term, Config{})
	legA, legB := pendingLegs()

	report, err := p.Run(context.Background(), legA, legB)
	require.Error(t, err)
	assert.ErrorAs(t, err, new(*terminal.RejectError))

	assert.Equal(t, ResolutionFailed, report.Resolution)
	assert.Equal(t, []terminal.Ticket{1001}, term.cancels, "leg A rolled back")
	assert.True(t, report.LegA.Cancelled)
	assert.Zero(t, term.polls, "no monitoring after a failed submission")
}

func TestRun_LegAFailureStopsImmediately(t *testing.T) {
	t.Parallel()

	term := &mockTerminal{
		outcomes: []submitOutcome{
			{res: terminal.OrderResult{Code: terminal.CodeRejected}, err: &terminal.RejectError{Code: terminal.CodeRejected, Message: "rejected"}},
		},
	}
	p := newTestPair(term, Config{})
	legA, legB := pendingLegs()

	report, err := p.Run(context.Background(), legA, legB)
	require.Error(t, err)

	assert.Equal(t, ResolutionFailed, report.Resolution)
	assert.Len(t, term.submits, 1, "leg B never submitted")
	assert.Empty(t, term.cancels)
}

func TestRun_PollErrorsAreAbsorbed(t *testing.T) {
	t.Parallel()

	boom := &terminal.TransportError{Op: "poll", Err: errors.New("socket closed")}
	term := &mockTerminal{
		outcomes: []submitOutcome{accepted(1001, terminal.CodePlaced), accepted(1002, terminal.CodePlaced)},
		openErrAt: map[int]error{
			0: boom,
			1: boom,
		},
		openSeq: [][]terminal.Ticket{
			{1001, 1002},
			{1001, 1002},
			{1002}, // third poll: leg A filled
		},
	}
	p := newTestPair(term, Config{})
	legA, legB := pendingLegs()

	report, err := p.Run(context.Background(), legA, legB)
	require.NoError(t, err)

	assert.Equal(t, ResolutionOneFilled, report.Resolution)
	assert.Equal(t, 2, report.PollErrors)
}

func TestRun_CancelRetriesOnceThenSucceeds(t *testing.T) {
	t.Parallel()

	term := &mockTerminal{
		outcomes:   []submitOutcome{accepted(1001, terminal.CodePlaced), accepted(1002, terminal.CodePlaced)},
		openSeq:    [][]terminal.Ticket{{1001, 1002}, {1002}},
		cancelErrs: []error{&terminal.TransportError{Op: "cancel", Err: errors.New("timeout")}},
	}
	p := newTestPair(term, Config{})
	legA, legB := pendingLegs()

	report, err := p.Run(context.Background(), legA, legB)
	require.NoError(t, err)

	assert.Equal(t, ResolutionOneFilled, report.Resolution)
	assert.Equal(t, []terminal.Ticket{1002, 1002}, term.cancels, "one retry")
	assert.True(t, report.LegB.Cancelled)
}

func TestRun_CancelFailingTwiceIsIntegrityFailure(t *testing.T) {
	t.Parallel()

	boom := &terminal.TransportError{Op: "cancel", Err: errors.New("timeout")}
	term := &mockTerminal{
		outcomes:   []submitOutcome{accepted(1001, terminal.CodePlaced), accepted(1002, terminal.CodePlaced)},
		openSeq:    [][]terminal.Ticket{{1001, 1002}, {1002}},
		cancelErrs: []error{boom, boom},
	}
	p := newTestPair(term, Config{})
	legA, legB := pendingLegs()

	report, err := p.Run(context.Background(), legA, legB)
	require.ErrorIs(t, err, ErrPairIntegrity)

	assert.Equal(t, ResolutionFailed, report.Resolution)
	assert.Len(t, term.cancels, 2, "exactly one retry, then escalate")
	assert.Equal(t, StateResolved, p.State(), "machine halts before cleaned")
}

func TestRun_CancelFindsLegAlreadyFilled(t *testing.T) {
	t.Parallel()

	term := &mockTerminal{
		outcomes:   []submitOutcome{accepted(1001, terminal.CodePlaced), accepted(1002, terminal.CodePlaced)},
		openSeq:    [][]terminal.Ticket{{1001, 1002}, {1002}},
		cancelErrs: []error{terminal.ErrTicketNotFound},
	}
	p := newTestPair(term, Config{})
	legA, legB := pendingLegs()

	report, err := p.Run(context.Background(), legA, legB)
	require.NoError(t, err)

	// Leg B filled between the snapshot and the cancel: the report
	// tells the truth rather than claiming a cancel that never took.
	assert.Equal(t, ResolutionBothFilled, report.Resolution)
	assert.True(t, report.LegA.Filled)
	assert.True(t, report.LegB.Filled)
	assert.False(t, report.LegB.Cancelled)
}

func TestRun_CloseFilledAfterHold(t *testing.T) {
	t.Parallel()

	term := &mockTerminal{
		outcomes: []submitOutcome{accepted(2001, terminal.CodeDone), accepted(2002, terminal.CodeDone)},
		openSeq:  [][]terminal.Ticket{{}},
	}
	p := newTestPair(term, Config{CloseFilled: true, HoldFor: 30 * time.Second})

	report, err := p.Run(context.Background(),
		terminal.OrderIntent{Symbol: "EURUSD", Side: market.Buy, Kind: terminal.Market, Volume: 0.10},
		terminal.OrderIntent{Symbol: "EURUSD", Side: market.Sell, Kind: terminal.Market, Volume: 0.10},
	)
	require.NoError(t, err)

	assert.Equal(t, ResolutionBothFilled, report.Resolution)
	assert.ElementsMatch(t, []terminal.Ticket{2001, 2002}, term.closes)
	assert.True(t, report.LegA.Closed)
	assert.True(t, report.LegB.Closed)
	assert.Equal(t, StateCleaned, p.State())
}

func TestRun_CloseFailingTwiceIsIntegrityFailure(t *testing.T) {
	t.Parallel()

	boom := &terminal.TransportError{Op: "close", Err: errors.New("timeout")}
	term := &mockTerminal{
		outcomes:  []submitOutcome{accepted(2001, terminal.CodeDone), accepted(2002, terminal.CodeDone)},
		openSeq:   [][]terminal.Ticket{{}},
		closeErrs: []error{boom, boom},
	}
	p := newTestPair(term, Config{CloseFilled: true})

	_, err := p.Run(context.Background(),
		terminal.OrderIntent{Symbol: "EURUSD", Side: market.Buy, Kind: terminal.Market, Volume: 0.10},
		terminal.OrderIntent{Symbol: "EURUSD", Side: market.Sell, Kind: terminal.Market, Volume: 0.10},
	)
	require.ErrorIs(t, err, ErrPairIntegrity)
	assert.Len(t, term.closes, 2)
}

func TestRun_ExternalCancellationCleansUp(t *testing.T) {
	t.Parallel()

	term := &mockTerminal{
		outcomes: []submitOutcome{accepted(1001, terminal.CodePlaced), accepted(1002, terminal.CodePlaced)},
		openSeq:  [][]terminal.Ticket{{1001, 1002}},
	}
	p := newTestPair(term, Config{})
	legA, legB := pendingLegs()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := p.Run(ctx, legA, legB)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, ResolutionFailed, report.Resolution)
	assert.ElementsMatch(t, []terminal.Ticket{1001, 1002}, term.cancels)
	assert.True(t, report.LegA.Cancelled)
	assert.True(t, report.LegB.Cancelled)
}

func TestRun_OnlyRunsOnce(t *testing.T) {
	t.Parallel()

	term := &mockTerminal{
		outcomes: []submitOutcome{accepted(2001, terminal.CodeDone), accepted(2002, terminal.CodeDone)},
		openSeq:  [][]terminal.Ticket{{}},
	}
	p := newTestPair(term, Config{})
	legA, legB := pendingLegs()

	_, err := p.Run(context.Background(), legA, legB)
	require.NoError(t, err)

	_, err = p.Run(context.Background(), legA, legB)
	assert.Error(t, err)
	assert.Len(t, term.submits, 2, "second run must not touch the terminal")
}

func TestRun_ReportRecordedToJournal(t *testing.T) {
	t.Parallel()

	rec := &recordingJournal{}
	term := &mockTerminal{
		outcomes: []submitOutcome{accepted(1001, terminal.CodePlaced), accepted(1002, terminal.CodePlaced)},
		openSeq:  [][]terminal.Ticket{{1001, 1002}, {1002}},
	}
	cfg := Config{Symbol: "EURUSD", PollInterval: 2 * time.Second, Timeout: time.Minute}
	p := NewWithClock(term, rec, cfg, newFakeClock())
	legA, legB := pendingLegs()

	_, err := p.Run(context.Background(), legA, legB)
	require.NoError(t, err)

	require.Len(t, rec.pairs, 1)
	got := rec.pairs[0]
	assert.Equal(t, "one_filled", got.Resolution)
	assert.Equal(t, int64(1001), got.KeptTicket)
	assert.Equal(t, int64(1002), got.CancelledTicket)
	assert.NotEmpty(t, got.ID)
}

type recordingJournal struct {
	journal.Nop
	pairs []journal.PairRecord
}

func (r *recordingJournal) RecordPair(rec journal.PairRecord) error {
	r.pairs = append(r.pairs, rec)
	return nil
}
