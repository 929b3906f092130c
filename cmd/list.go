package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chakrakan/lol-esports-predictions/internal/report"
)

var listRuns int

var listCmd = &cobra.Command{
	Use:   "list [tournament]",
	Short: "List stored tournaments, or the games of one tournament",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

func init() {
	listCmd.Flags().IntVar(&listRuns, "runs", 0, "list the N most recent rating runs instead")
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if listRuns > 0 {
		runs, err := db.ListRuns(listRuns)
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}
		report.PrintRuns(os.Stdout, runs)
		return nil
	}

	if len(args) == 1 {
		t, err := db.GetTournament(args[0])
		if err != nil {
			return fmt.Errorf("get tournament: %w", err)
		}
		if t == nil {
			fmt.Fprintf(os.Stderr, "No stored tournament %q\n", args[0])
			return nil
		}
		ms, err := db.TournamentMatches(t.ID)
		if err != nil {
			return fmt.Errorf("load matches: %w", err)
		}
		report.PrintMatchList(os.Stdout, ms)
		return nil
	}

	ts, err := db.ListTournaments()
	if err != nil {
		return fmt.Errorf("list tournaments: %w", err)
	}
	if len(ts) == 0 {
		fmt.Fprintln(os.Stdout, "No tournaments stored yet. Run 'lolrank extract <tournament>' to add one.")
		return nil
	}
	report.PrintTournamentList(os.Stdout, ts)
	return nil
}
