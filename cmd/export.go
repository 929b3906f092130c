package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/cobra"

	"github.com/chakrakan/lol-esports-predictions/internal/model"
)

var (
	exportScope  string
	exportLeague string
	exportOut    string
	exportGzip   bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every stored stage snapshot as a CSV file",
	Long: `Write one CSV per (league, tournament, stage) snapshot:

  <out>/<league-id or global>/<tournament-slug>_<stage>_ratings.csv

with columns rank,team_id,team_name,rating sorted by rating descending.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportScope, "scope", "global", "snapshot scope: league or global")
	exportCmd.Flags().StringVar(&exportLeague, "league", "", "only export this league's chain (league scope)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "ratings", "output directory")
	exportCmd.Flags().BoolVar(&exportGzip, "gzip", false, "gzip-compress each file")
}

func runExport(cmd *cobra.Command, args []string) error {
	if err := validScope(exportScope); err != nil {
		return err
	}
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	snaps, err := db.ListSnapshots(exportScope, exportLeague)
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}
	if len(snaps) == 0 {
		fmt.Fprintln(os.Stdout, "No snapshots stored. Run 'lolrank rate' first.")
		return nil
	}

	for _, s := range snaps {
		path, err := writeSnapshotCSV(exportOut, s, exportGzip)
		if err != nil {
			cErr.Fprintf(os.Stderr, "[error] %s / %s: %v\n", s.Key.Slug, s.Key.StageName, err)
			continue
		}
		cMuted.Fprintf(os.Stdout, "%s\n", path)
	}
	cOK.Fprintf(os.Stdout, "Wrote %d snapshots to %s\n", len(snaps), exportOut)
	return nil
}

func snapshotPath(dir string, s model.RatingSnapshot, gz bool) string {
	group := s.Key.LeagueID
	if group == "" {
		group = "global"
	}
	stage := strings.NewReplacer("/", "-", " ", "_").Replace(s.Key.StageName)
	name := fmt.Sprintf("%s_%s_ratings.csv", s.Key.Slug, stage)
	if gz {
		name += ".gz"
	}
	return filepath.Join(dir, group, name)
}

func writeSnapshotCSV(dir string, s model.RatingSnapshot, gz bool) (string, error) {
	path := snapshotPath(dir, s, gz)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var w io.Writer = f
	var zw *gzip.Writer
	if gz {
		zw = gzip.NewWriter(f)
		w = zw
	}

	cw := csv.NewWriter(w)
	cw.Write([]string{"rank", "team_id", "team_name", "rating"})
	for i, r := range s.Rows {
		cw.Write([]string{strconv.Itoa(i + 1), r.TeamID, r.TeamName, strconv.FormatFloat(r.Rating, 'f', 2, 64)})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", err
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			return "", err
		}
	}
	return path, f.Close()
}
