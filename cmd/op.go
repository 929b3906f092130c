package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chakrakan/lol-esports-predictions/internal/aggregator"
	"github.com/chakrakan/lol-esports-predictions/internal/report"
)

var (
	opAll      bool
	opFeatures bool
)

var opCmd = &cobra.Command{
	Use:   "op <tournament>",
	Short: "Show over-performing champions and team features for a stored tournament",
	Long: `A champion is flagged OP in a tournament when it was played in more than
20% of games, won more than 50% of them and was picked by more than 25% of
the participating teams (thresholds configurable under op_champions).`,
	Args: cobra.ExactArgs(1),
	RunE: runOP,
}

func init() {
	opCmd.Flags().BoolVar(&opAll, "all", false, "list every champion, not only flagged ones")
	opCmd.Flags().BoolVar(&opFeatures, "features", false, "also print per-team tournament features")
}

func runOP(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	t, err := db.GetTournament(args[0])
	if err != nil {
		return fmt.Errorf("get tournament: %w", err)
	}
	if t == nil {
		fmt.Fprintf(os.Stderr, "No stored tournament %q. Run 'lolrank extract %s' first.\n", args[0], args[0])
		return nil
	}
	matches, err := db.TournamentMatches(t.ID)
	if err != nil {
		return fmt.Errorf("load matches: %w", err)
	}

	op := aggregator.DetectOPChampions(matches, cfg.OP)
	cHead.Fprintf(os.Stdout, "\n%s\n", t.Slug)
	report.PrintOPTable(os.Stdout, op, opAll)

	if opFeatures {
		fmt.Fprintln(os.Stdout)
		report.PrintTeamFeatures(os.Stdout, aggregator.BuildTeamFeatures(matches, op), cfg.Extraction.Checkpoints)
	}
	return nil
}
