package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chakrakan/lol-esports-predictions/internal/report"
)

var (
	trendScope  string
	trendLeague string
)

var trendCmd = &cobra.Command{
	Use:   "trend <team-id>",
	Short: "Stage-by-stage rating history for a team",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrend,
}

func init() {
	trendCmd.Flags().StringVar(&trendScope, "scope", "global", "snapshot scope: league or global")
	trendCmd.Flags().StringVar(&trendLeague, "league", "", "league id for league-scope history")
}

func runTrend(cmd *cobra.Command, args []string) error {
	if err := validScope(trendScope); err != nil {
		return err
	}
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	points, err := db.TeamHistory(trendScope, trendLeague, args[0])
	if err != nil {
		return fmt.Errorf("query history: %w", err)
	}
	if len(points) == 0 {
		fmt.Println("no snapshots found for team")
		return nil
	}
	report.PrintTrend(os.Stdout, points)
	return nil
}
