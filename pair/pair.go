// Package pair places two opposing orders and guarantees that at most
// one survives. One leg filling cancels the other; neither filling by
// the deadline cancels both; a failed second submission rolls back the
// first. Every outcome is reported with tickets and kept/cancelled
// flags, and a cleanup that cannot be completed is surfaced as
// ErrPairIntegrity rather than swallowed.
package pair

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/avolkov/termlink/id"
	"github.com/avolkov/termlink/journal"
	"github.com/avolkov/termlink/metrics"
	"github.com/avolkov/termlink/terminal"
)

// ErrPairIntegrity marks a run whose legs could not be returned to a
// safe configuration: an order or position may be live on the terminal
// beyond the engine's control. It always wraps the underlying failure.
var ErrPairIntegrity = errors.New("pair integrity failure")

const (
	defaultPollInterval = 2 * time.Second
	defaultTimeout      = 5 * time.Minute
	cleanupGrace        = 10 * time.Second
)

// Config tunes one run.
type Config struct {
	Symbol string

	// PollInterval is the spacing between ticket polls. Cycles never
	// overlap: the next wait starts after the previous cycle finished.
	PollInterval time.Duration

	// Timeout bounds the monitoring phase. When it expires with both
	// legs still working, both are cancelled.
	Timeout time.Duration

	// CloseFilled closes positions born from filled legs during
	// cleanup, after HoldFor has elapsed. Left false, filled legs stay
	// open under their own protective levels.
	CloseFilled bool
	HoldFor     time.Duration
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return c
}

// Leg is one side of the pair as it progressed.
type Leg struct {
	Intent    terminal.OrderIntent
	Result    terminal.OrderResult
	Ticket    terminal.Ticket
	Filled    bool
	Cancelled bool
	Closed    bool
}

// Report is the full account of a run.
type Report struct {
	PairID     string
	Symbol     string
	Resolution Resolution
	LegA       Leg
	LegB       Leg
	OpenedAt   time.Time
	ResolvedAt time.Time
	PollErrors int
}

// KeptTicket returns the ticket of the surviving filled leg, or zero.
func (r Report) KeptTicket() terminal.Ticket {
	switch {
	case r.LegA.Filled && !r.LegB.Filled:
		return r.LegA.Ticket
	case r.LegB.Filled && !r.LegA.Filled:
		return r.LegB.Ticket
	}
	return 0
}

// CancelledTicket returns the ticket cancelled on resolution, or zero
// when nothing was cancelled or both were.
func (r Report) CancelledTicket() terminal.Ticket {
	switch {
	case r.LegA.Cancelled && !r.LegB.Cancelled:
		return r.LegA.Ticket
	case r.LegB.Cancelled && !r.LegA.Cancelled:
		return r.LegB.Ticket
	}
	return 0
}

// Pair runs one paired-order lifecycle. A Pair is single-use: construct,
// Run once, read the report.
type Pair struct {
	term    terminal.Terminal
	journal journal.Journal
	clock   Clock
	cfg     Config

	state  State
	report Report
	log    *logrus.Entry
}

// New returns a run-once pair engine. A nil journal disables
// persistence.
func New(term terminal.Terminal, j journal.Journal, cfg Config) *Pair {
	return NewWithClock(term, j, cfg, realClock{})
}

// NewWithClock is New with an injected time source.
func NewWithClock(term terminal.Terminal, j journal.Journal, cfg Config, clock Clock) *Pair {
	if j == nil {
		j = journal.Nop{}
	}
	cfg = cfg.withDefaults()
	pairID := id.New()
	return &Pair{
		term:    term,
		journal: j,
		clock:   clock,
		cfg:     cfg,
		state:   StateIdle,
		report: Report{
			PairID:     pairID,
			Symbol:     cfg.Symbol,
			Resolution: ResolutionPending,
		},
		log: logrus.WithFields(logrus.Fields{
			"pkg":     "pair",
			"pair_id": pairID,
			"symbol":  cfg.Symbol,
		}),
	}
}

// State returns the current lifecycle phase.
func (p *Pair) State() State { return p.state }

// Report returns the run's report so far; it is complete once Run has
// returned.
func (p *Pair) Report() Report { return p.report }

// Run submits legA then legB and monitors both until resolution,
// cleaning up according to the outcome. The returned Report is always
// meaningful, also on error. Cancelling ctx stops monitoring and
// triggers a bounded best-effort cleanup of whatever is still working.
func (p *Pair) Run(ctx context.Context, legA, legB terminal.OrderIntent) (Report, error) {
	if p.state != StateIdle {
		return p.report, fmt.Errorf("pair %s: already run", p.report.PairID)
	}
	p.report.OpenedAt = p.clock.Now()
	p.report.LegA.Intent = legA
	p.report.LegB.Intent = legB

	// Leg A first; its confirmation gates leg B.
	resA, err := p.term.SubmitOrder(ctx, legA)
	p.report.LegA.Result = resA
	p.report.LegA.Ticket = resA.Ticket
	if err != nil {
		p.markResolved(ResolutionFailed)
		p.record()
		return p.report, fmt.Errorf("pair %s: leg A: %w", p.report.PairID, err)
	}
	p.log.WithField("ticket", resA.Ticket).Info("leg A accepted")

	resB, err := p.term.SubmitOrder(ctx, legB)
	p.report.LegB.Result = resB
	p.report.LegB.Ticket = resB.Ticket
	if err != nil {
		// Roll the surviving leg back; a stuck single leg is exposure
		// the caller never asked for. The rollback runs on a detached
		// grace context in case the caller's context is what failed.
		p.log.WithError(err).Warn("leg B failed, rolling back leg A")
		graceCtx, cancel := context.WithTimeout(context.Background(), cleanupGrace)
		cerr := p.cancelLeg(graceCtx, &p.report.LegA)
		cancel()
		p.markResolved(ResolutionFailed)
		p.record()
		if cerr != nil {
			return p.report, fmt.Errorf("pair %s: leg B failed (%v), rollback of leg A failed: %w", p.report.PairID, err, cerr)
		}
		return p.report, fmt.Errorf("pair %s: leg B: %w", p.report.PairID, err)
	}
	p.log.WithField("ticket", resB.Ticket).Info("leg B accepted")
	p.transition(StateLegsSubmitted)

	v, err := p.monitor(ctx)
	if err != nil {
		return p.report, err
	}

	p.report.LegA.Filled = v.FilledA
	p.report.LegB.Filled = v.FilledB
	p.markResolved(v.Resolution)

	cleanupErr := p.cleanup(ctx, v)
	if cleanupErr != nil {
		p.report.Resolution = ResolutionFailed
	}
	p.record()
	if cleanupErr != nil {
		return p.report, cleanupErr
	}
	p.transition(StateCleaned)
	return p.report, nil
}

// monitor polls the working-order set until a snapshot resolves the
// pair. Poll failures are logged and absorbed; only resolution or the
// caller's context ends the loop.
func (p *Pair) monitor(ctx context.Context) (verdict, error) {
	p.transition(StateMonitoring)
	deadline := p.clock.Now().Add(p.cfg.Timeout)

	for {
		open, err := p.term.OpenTickets(ctx)
		if err != nil {
			p.report.PollErrors++
			metrics.PairPollErrors.Inc()
			p.log.WithError(err).Warn("ticket poll failed, will retry next cycle")
		} else {
			v := decide(snapshot{
				AOpen:    containsTicket(open, p.report.LegA.Ticket),
				BOpen:    containsTicket(open, p.report.LegB.Ticket),
				Now:      p.clock.Now(),
				Deadline: deadline,
			})
			if v.Resolution != ResolutionPending {
				return v, nil
			}
		}

		select {
		case <-ctx.Done():
			return verdict{}, p.abort(ctx.Err())
		case <-p.clock.After(p.cfg.PollInterval):
		}
	}
}

// abort handles external cancellation: both legs are cancelled on a
// detached grace context so the caller's dead context cannot block the
// rollback.
func (p *Pair) abort(cause error) error {
	p.log.WithError(cause).Warn("monitoring aborted, cancelling both legs")

	graceCtx, cancel := context.WithTimeout(context.Background(), cleanupGrace)
	defer cancel()

	errA := p.cancelLeg(graceCtx, &p.report.LegA)
	errB := p.cancelLeg(graceCtx, &p.report.LegB)

	p.markResolved(ResolutionFailed)
	p.record()
	if errA != nil || errB != nil {
		return fmt.Errorf("pair %s: aborted (%v), cleanup incomplete: %w", p.report.PairID, cause, errors.Join(errA, errB))
	}
	return fmt.Errorf("pair %s: aborted: %w", p.report.PairID, cause)
}

// cleanup cancels the legs the verdict marked and optionally closes the
// filled ones. Any step failing twice leaves the pair in an unsafe
// configuration and is escalated.
func (p *Pair) cleanup(ctx context.Context, v verdict) error {
	if v.CancelA {
		if err := p.cancelLeg(ctx, &p.report.LegA); err != nil {
			return err
		}
	}
	if v.CancelB {
		if err := p.cancelLeg(ctx, &p.report.LegB); err != nil {
			return err
		}
	}

	// A cancel that came back "not found" means the leg filled after
	// the snapshot. The report reflects what actually happened.
	p.reconcileResolution()

	if p.cfg.CloseFilled {
		if err := p.closeFilled(ctx); err != nil {
			return err
		}
	}
	return nil
}

// cancelLeg cancels a working order, retrying once. A missing ticket is
// not a failure: the order filled or was already removed, and the leg is
// marked filled so the report stays truthful.
func (p *Pair) cancelLeg(ctx context.Context, leg *Leg) error {
	if leg.Ticket == 0 || leg.Cancelled {
		return nil
	}
	err := p.term.CancelOrder(ctx, leg.Ticket)
	if errors.Is(err, terminal.ErrTicketNotFound) {
		p.log.WithField("ticket", leg.Ticket).Info("cancel found ticket gone, treating leg as filled")
		leg.Filled = true
		return nil
	}
	if err != nil {
		p.log.WithError(err).WithField("ticket", leg.Ticket).Warn("cancel failed, retrying once")
		err = p.term.CancelOrder(ctx, leg.Ticket)
		if errors.Is(err, terminal.ErrTicketNotFound) {
			leg.Filled = true
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: cancel ticket %d: %v", ErrPairIntegrity, leg.Ticket, err)
		}
	}
	leg.Cancelled = true
	p.log.WithField("ticket", leg.Ticket).Info("leg cancelled")
	return nil
}

// closeFilled closes positions created by filled legs after the
// configured hold. A cancelled caller context shortens the hold but
// still flattens, on the detached grace context.
func (p *Pair) closeFilled(ctx context.Context) error {
	if p.cfg.HoldFor > 0 {
		select {
		case <-ctx.Done():
			graceCtx, cancel := context.WithTimeout(context.Background(), cleanupGrace)
			defer cancel()
			ctx = graceCtx
		case <-p.clock.After(p.cfg.HoldFor):
		}
	}
	for _, leg := range []*Leg{&p.report.LegA, &p.report.LegB} {
		if !leg.Filled || leg.Closed {
			continue
		}
		if err := p.closeLeg(ctx, leg); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pair) closeLeg(ctx context.Context, leg *Leg) error {
	_, err := p.term.ClosePosition(ctx, leg.Ticket, 0)
	if errors.Is(err, terminal.ErrTicketNotFound) {
		// Already flat: its stop or take fired first.
		leg.Closed = true
		return nil
	}
	if err != nil {
		p.log.WithError(err).WithField("ticket", leg.Ticket).Warn("close failed, retrying once")
		_, err = p.term.ClosePosition(ctx, leg.Ticket, 0)
		if err != nil && !errors.Is(err, terminal.ErrTicketNotFound) {
			return fmt.Errorf("%w: close ticket %d: %v", ErrPairIntegrity, leg.Ticket, err)
		}
	}
	leg.Closed = true
	p.log.WithField("ticket", leg.Ticket).Info("leg closed")
	return nil
}

// reconcileResolution recomputes the resolution from the leg flags after
// cleanup discovered in-flight fills.
func (p *Pair) reconcileResolution() {
	a, b := p.report.LegA.Filled, p.report.LegB.Filled
	switch {
	case a && b:
		p.report.Resolution = ResolutionBothFilled
	case a || b:
		p.report.Resolution = ResolutionOneFilled
	}
}

// markResolved stamps the outcome and moves the machine to Resolved.
// Journal and metrics are written later, once cleanup has had its say.
func (p *Pair) markResolved(r Resolution) {
	p.report.Resolution = r
	p.report.ResolvedAt = p.clock.Now()
	p.transition(StateResolved)
}

// record writes the final report to metrics and the journal. Called
// exactly once per run, on every exit path.
func (p *Pair) record() {
	r := p.report
	metrics.PairsResolved.WithLabelValues(r.Symbol, string(r.Resolution)).Inc()
	metrics.PairDuration.Observe(r.ResolvedAt.Sub(r.OpenedAt).Seconds())

	p.log.WithFields(logrus.Fields{
		"resolution":  string(r.Resolution),
		"kept":        r.KeptTicket(),
		"cancelled":   r.CancelledTicket(),
		"poll_errors": r.PollErrors,
	}).Info("pair resolved")

	if err := p.journal.RecordPair(journal.PairRecord{
		ID:              r.PairID,
		Symbol:          r.Symbol,
		Resolution:      string(r.Resolution),
		LegATicket:      int64(r.LegA.Ticket),
		LegBTicket:      int64(r.LegB.Ticket),
		KeptTicket:      int64(r.KeptTicket()),
		CancelledTicket: int64(r.CancelledTicket()),
		Volume:          r.LegA.Intent.Volume,
		OpenedAt:        r.OpenedAt,
		ResolvedAt:      r.ResolvedAt,
	}); err != nil {
		p.log.WithError(err).Error("journal pair record failed")
	}
}

func containsTicket(tickets []terminal.Ticket, t terminal.Ticket) bool {
	for _, x := range tickets {
		if x == t {
			return true
		}
	}
	return false
}
