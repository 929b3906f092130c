package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/chakrakan/lol-esports-predictions/internal/model"
	"github.com/chakrakan/lol-esports-predictions/internal/pipeline"
	"github.com/chakrakan/lol-esports-predictions/internal/ranking"
	"github.com/chakrakan/lol-esports-predictions/internal/rating"
	"github.com/chakrakan/lol-esports-predictions/internal/refdata"
	"github.com/chakrakan/lol-esports-predictions/internal/report"
	"github.com/chakrakan/lol-esports-predictions/internal/storage"
)

var (
	rateScope  string
	rateLeague string
	rateResume bool
	rateTop    int
)

var rateCmd = &cobra.Command{
	Use:   "rate",
	Short: "Run the Elo rating chain over stored tournaments",
	Long: `Fold every stored tournament, stage by stage in start-date order, into an
Elo rating and persist one snapshot per stage.

  --scope league   one chain per league (all leagues unless --league is set)
  --scope global   a single cross-league chain

A team whose home league has no region entry aborts the chain; the last
stored snapshot is reported and --resume continues from it once the region
table is fixed.`,
	Args: cobra.NoArgs,
	RunE: runRate,
}

func init() {
	rateCmd.Flags().StringVar(&rateScope, "scope", rating.ScopeGlobal, "league or global")
	rateCmd.Flags().StringVar(&rateLeague, "league", "", "restrict a league-scope run to one league (id, slug or name)")
	rateCmd.Flags().BoolVar(&rateResume, "resume", false, "continue from the latest stored snapshot instead of a cold start")
	rateCmd.Flags().IntVar(&rateTop, "top", 10, "teams to print after each chain")
}

func runRate(cmd *cobra.Command, args []string) error {
	if err := validScope(rateScope); err != nil {
		return err
	}
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	leagues := []string{""}
	if rateScope == rating.ScopeLeague {
		leagues, err = chainLeagues(db, cat)
		if err != nil {
			return err
		}
	}
	if len(leagues) == 0 {
		fmt.Fprintln(os.Stdout, "No stored tournaments. Run 'lolrank extract' first.")
		return nil
	}

	p := pipeline.New(nil, nil, cfg.Extraction.Workers, reg, slog.Default())
	engine := rating.NewEngine(cfg, cat, cat, slog.Default())
	engine.Observe(func(m *model.Match, kb rating.KBreakdown) {
		reg.MatchesRated.WithLabelValues(rateScope).Inc()
		reg.KFactor.Observe(kb.Total())
	})

	return rateAll(leagues, func(league string) error {
		return rateChain(cmd, db, cat, p, engine, league)
	})
}

// rateAll runs every league's chain. A failed chain ends only that league;
// the failures are joined into the returned error.
func rateAll(leagues []string, run func(league string) error) error {
	var errs []error
	for _, league := range leagues {
		if err := run(league); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// chainLeagues returns the leagues to rate in league scope.
func chainLeagues(db *storage.DB, cat *refdata.Catalog) ([]string, error) {
	if rateLeague != "" {
		id, err := resolveLeague(cat, rateLeague)
		if err != nil {
			return nil, err
		}
		return []string{id}, nil
	}
	ts, err := db.ListTournaments()
	if err != nil {
		return nil, fmt.Errorf("list tournaments: %w", err)
	}
	seen := make(map[string]bool)
	var out []string
	for _, t := range ts {
		if t.Games > 0 && !seen[t.LeagueID] {
			seen[t.LeagueID] = true
			out = append(out, t.LeagueID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func rateChain(cmd *cobra.Command, db *storage.DB, cat *refdata.Catalog, p *pipeline.Pipeline, engine *rating.Engine, league string) error {
	label := "global"
	if league != "" {
		label = league
		if l, ok := cat.League(league); ok {
			label = l.Name
		}
	}

	var resume *model.RatingSnapshot
	var err error
	if rateResume {
		resume, err = db.LatestSnapshot(rateScope, league)
		if err != nil {
			return fmt.Errorf("load resume point: %w", err)
		}
		if resume == nil {
			cWarn.Fprintf(os.Stderr, "[warn] %s: nothing to resume from, starting cold\n", label)
		}
	}
	if resume == nil {
		if err := db.ClearSnapshots(rateScope, league); err != nil {
			return fmt.Errorf("clear snapshots: %w", err)
		}
	}

	chain, err := p.LoadChain(cmd.Context(), db, rateScope, league, cfg.OP)
	if err != nil {
		return err
	}

	runID, err := db.StartRun(rateScope, league)
	if err != nil {
		return err
	}
	stages := 0
	var lastKey *model.SnapshotKey
	emit := func(s model.RatingSnapshot) error {
		if err := db.SaveSnapshot(runID, s); err != nil {
			return err
		}
		stages++
		key := s.Key
		lastKey = &key
		reg.StagesRated.WithLabelValues(rateScope).Inc()
		fmt.Fprintf(os.Stdout, "  %-36s %-24s %3d teams\n", s.Key.Slug, s.Key.StageName, len(s.Rows))
		return nil
	}

	cHead.Fprintf(os.Stdout, "\n%s chain: %d tournaments\n", label, len(chain.Tournaments))
	state, runErr := engine.Run(chain, resume, emit)
	reg.TeamsRated.Set(float64(len(state)))

	if runErr != nil {
		var ce *rating.ChainError
		var last *model.SnapshotKey
		if errors.As(runErr, &ce) {
			last = ce.LastCheckpoint
		}
		if err := db.FinishRun(runID, storage.RunFailed, stages, last, runErr); err != nil {
			slog.Error("record failed run", "run", runID, "err", err)
		}
		cErr.Fprintf(os.Stderr, "[error] %s: %v\n", label, runErr)
		if last != nil {
			fmt.Fprintf(os.Stderr, "Last stored snapshot: %s / %s. Fix the region table and re-run with --resume.\n", last.Slug, last.StageName)
		}
		return fmt.Errorf("%s chain aborted", label)
	}
	if err := db.FinishRun(runID, storage.RunDone, stages, lastKey, nil); err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	cOK.Fprintf(os.Stdout, "%s: %d stages rated, %d teams\n\n", label, stages, len(state))

	top, err := ranking.New(db, cat, rateScope).Global(league, rateTop)
	if err != nil {
		return err
	}
	report.PrintRanking(os.Stdout, top)
	return nil
}
