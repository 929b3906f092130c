package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/chakrakan/lol-esports-predictions/internal/extractor"
	"github.com/chakrakan/lol-esports-predictions/internal/model"
	"github.com/chakrakan/lol-esports-predictions/internal/pipeline"
	"github.com/chakrakan/lol-esports-predictions/internal/refdata"
)

var (
	extractGamesDir string
	extractLeague   string
	extractAll      bool
	extractWorkers  int
)

var extractCmd = &cobra.Command{
	Use:   "extract [tournament...]",
	Short: "Extract match features from game event logs into the database",
	Long: `Read every completed, mapped game of the selected tournaments from the
games directory (<platformGameId>.json, .json.gz or .json.zst), extract its
feature record and store it. Re-extracting a tournament replaces its games.

Tournaments are given by id or slug, or selected with --league / --all.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractGamesDir, "games", "", "event log directory (default <data>/games)")
	extractCmd.Flags().StringVar(&extractLeague, "league", "", "extract every tournament of this league (id, slug or name)")
	extractCmd.Flags().BoolVar(&extractAll, "all", false, "extract every tournament in the reference data")
	extractCmd.Flags().IntVarP(&extractWorkers, "workers", "w", 0, "concurrent games (default from config)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	tournaments, err := selectTournaments(cat, args)
	if err != nil {
		return err
	}
	if len(tournaments) == 0 {
		return fmt.Errorf("no tournaments selected: pass ids/slugs, --league or --all")
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	gamesDir := extractGamesDir
	if gamesDir == "" {
		gamesDir = filepath.Join(dataDir, "games")
	}
	workers := cfg.Extraction.Workers
	if extractWorkers > 0 {
		workers = extractWorkers
	}

	x := extractor.New(cfg.Extraction.Checkpoints, cat, slog.Default())
	p := pipeline.New(pipeline.DirLoader(gamesDir), x, workers, reg, slog.Default())

	var stored, skipped int
	for _, t := range tournaments {
		refs := cat.Games(t.ID)
		unmapped := cat.Unmapped(t.ID)
		if len(refs) == 0 {
			cMuted.Fprintf(os.Stderr, "[skip] %s: no completed mapped games\n", t.Slug)
			continue
		}

		res, err := p.Extract(cmd.Context(), refs)
		if err != nil {
			return fmt.Errorf("extract %s: %w", t.Slug, err)
		}
		for _, s := range res.Skipped {
			cWarn.Fprintf(os.Stderr, "[skip] %s %s: %v\n", t.Slug, s.GameID, s.Err)
		}
		skipped += len(res.Skipped)
		if len(res.Matches) == 0 {
			cWarn.Fprintf(os.Stderr, "[skip] %s: no game could be extracted\n", t.Slug)
			continue
		}

		if err := db.UpsertTournament(t); err != nil {
			cErr.Fprintf(os.Stderr, "[error] %s: store tournament: %v\n", t.Slug, err)
			continue
		}
		if err := db.ReplaceTournamentMatches(t.ID, res.Matches); err != nil {
			cErr.Fprintf(os.Stderr, "[error] %s: store matches: %v\n", t.Slug, err)
			continue
		}
		stored += len(res.Matches)
		fmt.Fprintf(os.Stdout, "%-36s %4d games", t.Slug, len(res.Matches))
		if n := len(res.Skipped); n > 0 {
			cWarn.Fprintf(os.Stdout, "  %d skipped", n)
		}
		if unmapped > 0 {
			cMuted.Fprintf(os.Stdout, "  %d unmapped", unmapped)
		}
		fmt.Fprintln(os.Stdout)
	}

	cOK.Fprintf(os.Stdout, "\nStored %d games from %d tournaments (%d skipped).\n", stored, len(tournaments), skipped)
	return nil
}

// selectTournaments resolves positional ids/slugs, or the --league / --all selection.
func selectTournaments(cat *refdata.Catalog, args []string) ([]model.Tournament, error) {
	if len(args) > 0 {
		var out []model.Tournament
		for _, a := range args {
			t, ok := cat.Tournament(a)
			if !ok {
				return nil, fmt.Errorf("unknown tournament %q", a)
			}
			out = append(out, t)
		}
		return out, nil
	}
	if extractLeague != "" {
		id, err := resolveLeague(cat, extractLeague)
		if err != nil {
			return nil, err
		}
		return cat.Tournaments(id), nil
	}
	if extractAll {
		return cat.Tournaments(""), nil
	}
	return nil, nil
}
