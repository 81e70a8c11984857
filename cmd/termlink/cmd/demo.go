package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/avolkov/termlink/journal"
	"github.com/avolkov/termlink/market"
	"github.com/avolkov/termlink/strategies"
	"github.com/avolkov/termlink/terminal"
	"github.com/avolkov/termlink/terminal/sim"
	"github.com/avolkov/termlink/trade"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run example order flows against the in-memory terminal",
	Long: `Run worked examples against the in-memory terminal to learn how the
order machinery behaves. Nothing touches a real gateway.

Available demos:
  straddle - Arm a pending-order straddle and break the market through one leg
  hedge    - Open a market hedge, hold it, and unwind both sides
  sizing   - Show risk-based volume sizing at different budgets

Examples:
  termlink demo straddle
  termlink demo sizing`,
}

var demoStraddleCmd = &cobra.Command{
	Use:   "straddle",
	Short: "Run a pending-order straddle demo",
	Long: `Demonstrates the paired-order lifecycle end to end.

Shows the workflow of:
  1. Sizing both legs from a fixed fraction of equity
  2. Arming a buy stop above the market and a sell stop below it
  3. Breaking the price through the upper leg
  4. Keeping the filled leg and cancelling the other`,
	RunE: runDemoStraddle,
}

var demoHedgeCmd = &cobra.Command{
	Use:   "hedge",
	Short: "Run a market hedge demo",
	Long: `Demonstrates an immediate two-sided market position.

Shows the workflow of:
  1. Opening a long and a short leg at the same time
  2. Holding the hedge for a configured window
  3. Unwinding both legs and settling the cost of the spread`,
	RunE: runDemoHedge,
}

var demoSizingCmd = &cobra.Command{
	Use:   "sizing",
	Short: "Run a risk sizing demo",
	Long: `Demonstrates volume sizing from account equity.

Shows how:
  - The risk budget is a fraction of current equity
  - The stop distance converts the budget into lots
  - Volumes snap down to the instrument's step so risk is never exceeded`,
	RunE: runDemoSizing,
}

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.AddCommand(demoStraddleCmd)
	demoCmd.AddCommand(demoHedgeCmd)
	demoCmd.AddCommand(demoSizingCmd)
}

// newDemoTerminal builds the in-memory terminal every demo trades
// against: one EURUSD account quoted 1.10000/1.10020.
func newDemoTerminal() *sim.Terminal {
	term := sim.New(terminal.AccountSummary{
		ID:       "DEMO-001",
		Currency: "USD",
		Balance:  10_000,
		Equity:   10_000,
	})
	term.RegisterInstrument(market.InstrumentSpec{
		Symbol:          "EURUSD",
		Digits:          5,
		Point:           0.00001,
		TickSize:        0.00001,
		TickValue:       1,
		VolumeMin:       0.01,
		VolumeMax:       100,
		VolumeStep:      0.01,
		StopLevelPoints: 100,
	})
	term.SetQuote(market.Quote{
		Symbol: "EURUSD",
		Time:   time.Now(),
		Bid:    1.10000,
		Ask:    1.10020,
	})
	return term
}

func runDemoStraddle(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	fmt.Println("=== Straddle Demo ===")
	fmt.Println()

	term := newDemoTerminal()
	fmt.Println("Account: DEMO-001 ($10000.00 USD)")
	fmt.Println("Market: EURUSD 1.10000 / 1.10020")
	fmt.Println()

	strat := strategies.NewStraddle(strategies.Params{
		Symbol:       "EURUSD",
		RiskFraction: 0.01,
		StopPoints:   200,
		TakePoints:   400,
		OffsetPoints: 150,
		PollInterval: 10 * time.Millisecond,
		Timeout:      5 * time.Second,
	})

	fmt.Println("Arming straddle: buy stop 150 points above, sell stop 150 below")
	fmt.Println("Risking 1.0% of equity over a 200-point stop")
	fmt.Println()

	// Break the market upward once the legs are resting.
	go func() {
		time.Sleep(150 * time.Millisecond)
		fmt.Println("Price breaks out: 1.10180 / 1.10200")
		term.SetQuote(market.Quote{
			Symbol: "EURUSD",
			Time:   time.Now(),
			Bid:    1.10180,
			Ask:    1.10200,
		})
	}()

	report, err := strat.Run(ctx, term, journal.Nop{})
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("✓ Pair %s resolved: %s\n", report.PairID, report.Resolution)
	if pos, ok := term.OpenPosition(report.KeptTicket()); ok {
		fmt.Printf("  Kept ticket %d: %s %.2f lots filled at %.5f\n",
			pos.Ticket, pos.Side, pos.Volume, pos.EntryPrice)
	}
	fmt.Printf("  Cancelled ticket: %d\n", report.CancelledTicket())

	acct, _ := term.Account(ctx)
	fmt.Printf("\nAccount after: Balance $%.2f, Equity $%.2f\n", acct.Balance, acct.Equity)
	return nil
}

func runDemoHedge(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	fmt.Println("=== Hedge Demo ===")
	fmt.Println()

	term := newDemoTerminal()
	fmt.Println("Account: DEMO-001 ($10000.00 USD)")
	fmt.Println("Market: EURUSD 1.10000 / 1.10020")
	fmt.Println()

	strat := strategies.NewHedge(strategies.Params{
		Symbol:       "EURUSD",
		RiskFraction: 0.01,
		StopPoints:   200,
		PollInterval: 10 * time.Millisecond,
		Timeout:      5 * time.Second,
		HoldFor:      300 * time.Millisecond,
	})

	fmt.Println("Opening both sides at market, holding 300ms, then unwinding")
	fmt.Println()

	report, err := strat.Run(ctx, term, journal.Nop{})
	if err != nil {
		return err
	}

	fmt.Printf("✓ Pair %s resolved: %s\n", report.PairID, report.Resolution)
	fmt.Println()
	fmt.Println("Closed legs:")
	for _, closed := range term.Closed() {
		fmt.Printf("  %s %.2f lots: in %.5f out %.5f, P/L $%.2f (%s)\n",
			closed.Side, closed.Volume, closed.EntryPrice, closed.ClosePrice,
			closed.RealizedPL, closed.Reason)
	}

	acct, _ := term.Account(ctx)
	fmt.Printf("\nAccount after: Balance $%.2f (the spread is the cost of the hedge)\n", acct.Balance)
	return nil
}

func runDemoSizing(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	fmt.Println("=== Risk Sizing Demo ===")
	fmt.Println()

	term := newDemoTerminal()
	trader := trade.New(term, journal.Nop{})

	fmt.Println("Account: DEMO-001 ($10000.00 USD equity)")
	fmt.Println("Instrument: EURUSD (tick value $1.00 per 0.00001 for 1 lot)")
	fmt.Println()

	fmt.Println("Volume for a 200-point stop:")
	for _, fraction := range []float64{0.005, 0.01, 0.02} {
		volume, err := trader.VolumeForEquityRisk(ctx, "EURUSD", 200, fraction)
		if err != nil {
			return err
		}
		fmt.Printf("  %.1f%% risk ($%.2f budget) -> %.2f lots\n",
			fraction*100, 10_000*fraction, volume)
	}

	fmt.Println()
	fmt.Println("Tighter 100-point stop doubles the volume for the same budget:")
	volume, err := trader.VolumeForEquityRisk(ctx, "EURUSD", 100, 0.01)
	if err != nil {
		return err
	}
	fmt.Printf("  1.0%% risk ($100.00 budget) -> %.2f lots\n", volume)
	fmt.Println()

	res, err := trader.PlaceMarket(ctx, trade.MarketOrder{
		Symbol:           "EURUSD",
		Side:             market.Buy,
		Volume:           volume,
		StopLossPoints:   100,
		TakeProfitPoints: 200,
		Comment:          "sizing demo",
	})
	if err != nil {
		return err
	}

	fmt.Printf("✓ Market order filled: ticket %d at %.5f\n", res.Ticket, res.Price)
	if pos, ok := term.OpenPosition(res.Ticket); ok {
		fmt.Printf("  Stop %.5f / Take %.5f\n", *pos.StopLoss, *pos.TakeProfit)
	}
	return nil
}
