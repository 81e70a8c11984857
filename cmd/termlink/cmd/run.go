package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/avolkov/termlink/config"
	"github.com/avolkov/termlink/journal"
	"github.com/avolkov/termlink/logger"
	"github.com/avolkov/termlink/metrics"
	"github.com/avolkov/termlink/strategies"
	"github.com/avolkov/termlink/terminal/bridge"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a strategy from a config file against the terminal gateway",
	Long: `Run a paired-order strategy using settings from a configuration file.

The config file names the strategy, the instrument, the risk budget and
the gateway endpoint. A .env file in the working directory, if present,
is loaded before the config so credentials can stay out of it.

Example:
  termlink run --config straddle.yaml`,
	RunE: runRun,
}

var runConfigPath string

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	// A missing .env is fine; the config may carry everything.
	_ = godotenv.Load()

	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dialTimeout, _ := cfg.Terminal.ParseDialTimeout()
	callTimeout, _ := cfg.Terminal.ParseCallTimeout()
	term, err := bridge.Dial(ctx, bridge.Config{
		Endpoint:    cfg.Terminal.Endpoint,
		Token:       cfg.Terminal.Token,
		DialTimeout: dialTimeout,
		CallTimeout: callTimeout,
	})
	if err != nil {
		return fmt.Errorf("dial terminal: %w", err)
	}
	defer term.Close()

	if cfg.Metrics.Listen != "" {
		go serveMetrics(cfg.Metrics.Listen)
	}

	pollInterval, _ := cfg.Pair.ParsePollInterval()
	timeout, _ := cfg.Pair.ParseTimeout()
	holdFor, _ := cfg.Pair.ParseHoldFor()

	strat, err := strategies.StrategyByName(cfg.Strategy.Name, strategies.Params{
		Symbol:       cfg.Strategy.Symbol,
		RiskFraction: cfg.Strategy.RiskFraction,
		StopPoints:   cfg.Strategy.StopPoints,
		TakePoints:   cfg.Strategy.TakePoints,
		OffsetPoints: cfg.Strategy.OffsetPoints,
		PollInterval: pollInterval,
		Timeout:      timeout,
		HoldFor:      holdFor,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Running %s on %s\n", cfg.Strategy.Name, cfg.Strategy.Symbol)
	fmt.Printf("  Gateway: %s\n", cfg.Terminal.Endpoint)
	fmt.Printf("  Risk: %.2f%% of equity, stop %.0f points\n",
		cfg.Strategy.RiskFraction*100, cfg.Strategy.StopPoints)
	fmt.Println()

	report, err := strat.Run(ctx, term, j)
	if err != nil {
		return fmt.Errorf("strategy run: %w", err)
	}

	fmt.Printf("Pair %s resolved: %s\n", report.PairID, report.Resolution)
	if kept := report.KeptTicket(); kept != 0 {
		fmt.Printf("  Kept ticket: %d\n", kept)
	}
	if cancelled := report.CancelledTicket(); cancelled != 0 {
		fmt.Printf("  Cancelled ticket: %d\n", cancelled)
	}
	if report.PollErrors > 0 {
		fmt.Printf("  Transient poll errors absorbed: %d\n", report.PollErrors)
	}
	return nil
}

func openJournal(cfg config.JournalConfig) (journal.Journal, error) {
	switch cfg.Kind {
	case "csv":
		return journal.NewCSV(cfg.OrdersFile, cfg.PairsFile)
	case "sqlite":
		return journal.NewSQLite(cfg.DBPath)
	default:
		return journal.Nop{}, nil
	}
}

func serveMetrics(listen string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	if err := http.ListenAndServe(listen, mux); err != nil {
		logrus.WithError(err).Warn("metrics listener stopped")
	}
}
