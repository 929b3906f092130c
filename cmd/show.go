package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/chakrakan/lol-esports-predictions/internal/aggregator"
	"github.com/chakrakan/lol-esports-predictions/internal/rating"
	"github.com/chakrakan/lol-esports-predictions/internal/report"
)

var showK bool

var showCmd = &cobra.Command{
	Use:   "show <game-id-prefix>",
	Short: "Show a stored match: draft, objectives, snapshots",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().BoolVarP(&showK, "k", "k", false, "itemise the K-factor this match contributes")
}

func runShow(cmd *cobra.Command, args []string) error {
	prefix := args[0]

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := db.GetMatchByPrefix(prefix)
	if err != nil {
		return fmt.Errorf("query match: %w", err)
	}
	if m == nil {
		fmt.Fprintf(os.Stderr, "No match found with id prefix %q\n", prefix)
		return nil
	}

	siblings, err := db.TournamentMatches(m.TournamentID)
	if err != nil {
		return fmt.Errorf("load tournament matches: %w", err)
	}
	op := aggregator.DetectOPChampions(siblings, cfg.OP)

	report.PrintMatchSummary(os.Stdout, m)
	report.PrintDraftTable(os.Stdout, m, op)
	fmt.Fprintln(os.Stdout)
	report.PrintObjectiveTable(os.Stdout, m)
	fmt.Fprintln(os.Stdout)
	report.PrintSnapshotTable(os.Stdout, m)

	if !showK {
		return nil
	}
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	kb, err := rating.NewEngine(cfg, cat, cat, slog.Default()).KFactor(m, op)
	if err != nil {
		return fmt.Errorf("k-factor: %w", err)
	}
	fmt.Fprintln(os.Stdout)
	report.PrintKBreakdown(os.Stdout, kb)
	return nil
}
