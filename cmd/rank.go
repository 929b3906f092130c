package cmd

import (
	"fmt"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/chakrakan/lol-esports-predictions/internal/model"
	"github.com/chakrakan/lol-esports-predictions/internal/ranking"
	"github.com/chakrakan/lol-esports-predictions/internal/report"
)

var (
	rankStage  string
	rankTop    int
	rankTeams  string
	rankScope  string
	rankLeague string
	rankJSON   bool
)

var rankCmd = &cobra.Command{
	Use:   "rank [tournament]",
	Short: "Query rankings from stored snapshots",
	Long: `With a tournament (id or slug): rank the teams that played in it by their
rating after its last stage, or after --stage.
With --teams: rank the listed team ids against each other.
Otherwise: the top --top teams of the latest snapshot.

Unknown tournaments or stages print an empty ranking.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRank,
}

func init() {
	rankCmd.Flags().StringVar(&rankStage, "stage", "", "stage name within the tournament")
	rankCmd.Flags().IntVarP(&rankTop, "top", "n", 20, "number of teams for the global ranking")
	rankCmd.Flags().StringVar(&rankTeams, "teams", "", "comma-separated team ids")
	rankCmd.Flags().StringVar(&rankScope, "scope", "global", "snapshot scope: league or global")
	rankCmd.Flags().StringVar(&rankLeague, "league", "", "league id for league-scope queries")
	rankCmd.Flags().BoolVar(&rankJSON, "json", false, "print JSON instead of a table")
}

func runRank(cmd *cobra.Command, args []string) error {
	if err := validScope(rankScope); err != nil {
		return err
	}
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	// Team codes are optional; rankings still work without reference data.
	var r *ranking.Ranker
	if cat, err := loadCatalog(); err == nil {
		r = ranking.New(db, cat, rankScope)
	} else {
		cMuted.Fprintf(os.Stderr, "[warn] %v; team codes omitted\n", err)
		r = ranking.New(db, nil, rankScope)
	}

	var entries []model.RankEntry
	switch {
	case len(args) == 1:
		entries, err = r.Tournament(args[0], rankStage)
	case rankTeams != "":
		entries, err = r.Teams(rankLeague, splitList(rankTeams))
	default:
		entries, err = r.Global(rankLeague, rankTop)
	}
	if err != nil {
		return err
	}

	if rankJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if entries == nil {
			entries = []model.RankEntry{}
		}
		return enc.Encode(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stdout, "(no rankings)")
		return nil
	}
	report.PrintRanking(os.Stdout, entries)
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
