package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chakrakan/lol-esports-predictions/internal/report"
)

// summaryCmd is the cobra command for displaying a high-level database overview.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a high-level overview of the database",
	Long: `Display what the database holds: tournaments, games and teams extracted,
the game date range, stored rating snapshots and the latest rating runs.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ov, err := db.GetOverview()
	if err != nil {
		return err
	}
	if ov.Matches == 0 {
		fmt.Fprintln(os.Stdout, "No games stored yet. Run 'lolrank extract <tournament>' to add some.")
		return nil
	}

	cHead.Fprintf(os.Stdout, "\n=== Database Summary ===\n\n")
	report.PrintOverview(os.Stdout, ov)

	ts, err := db.ListTournaments()
	if err != nil {
		return fmt.Errorf("list tournaments: %w", err)
	}
	fmt.Fprintf(os.Stdout, "\n--- Tournaments ---\n\n")
	report.PrintTournamentList(os.Stdout, ts)

	runs, err := db.ListRuns(5)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) > 0 {
		fmt.Fprintf(os.Stdout, "\n--- Recent Rating Runs ---\n\n")
		report.PrintRuns(os.Stdout, runs)
	}
	return nil
}
