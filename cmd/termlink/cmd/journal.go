package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/avolkov/termlink/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query pair journal records",
	Long: `Query and display paired-order records from the SQLite journal.

Subcommands:
  pair   - Get details of a specific pair run by ID
  today  - List pairs resolved today
  day    - List pairs resolved on a specific day
  orders - List order submissions on a specific day

Examples:
  termlink journal pair <pair-id>
  termlink journal today
  termlink journal day 2026-03-02
  termlink journal orders 2026-03-02`,
}

var journalPairCmd = &cobra.Command{
	Use:   "pair <pair-id>",
	Short: "Get details of a specific pair run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalPair,
}

var journalTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "List pairs resolved today",
	Args:  cobra.NoArgs,
	RunE:  runJournalToday,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List pairs resolved on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var journalOrdersCmd = &cobra.Command{
	Use:   "orders <YYYY-MM-DD>",
	Short: "List order submissions on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalOrders,
}

var journalDBPath string

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalPairCmd)
	journalCmd.AddCommand(journalTodayCmd)
	journalCmd.AddCommand(journalDayCmd)
	journalCmd.AddCommand(journalOrdersCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./termlink.sqlite", "path to SQLite journal DB")
}

func runJournalPair(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	rec, err := j.GetPair(args[0])
	if err != nil {
		return fmt.Errorf("get pair: %w", err)
	}

	fmt.Println(journal.FormatPairOrg(rec))
	return nil
}

func runJournalToday(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	loc := time.Local
	start, end, err := dayBounds(loc, time.Now().In(loc).Format("2006-01-02"))
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	recs, err := j.ListPairsResolvedBetween(start, end)
	if err != nil {
		return fmt.Errorf("query pairs: %w", err)
	}

	fmt.Println(journal.FormatPairsOrg(recs))
	return nil
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	loc := time.Local
	start, end, err := dayBounds(loc, args[0])
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	recs, err := j.ListPairsResolvedBetween(start, end)
	if err != nil {
		return fmt.Errorf("query pairs: %w", err)
	}

	fmt.Println(journal.FormatPairsOrg(recs))
	return nil
}

func runJournalOrders(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	loc := time.Local
	start, end, err := dayBounds(loc, args[0])
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	recs, err := j.ListOrdersBetween(start, end)
	if err != nil {
		return fmt.Errorf("query orders: %w", err)
	}

	for _, r := range recs {
		fmt.Printf("%s  %-8s %-4s %-6s  vol=%.2f  price=%.5f  ticket=%d  code=%d\n",
			r.Time.In(loc).Format("15:04:05"), r.Symbol, r.Side, r.Kind,
			r.Volume, r.Price, r.Ticket, r.Code)
	}
	fmt.Printf("%d orders\n", len(recs))
	return nil
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	end := start.Add(24 * time.Hour)
	return start, end, nil
}
