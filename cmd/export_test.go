package cmd

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chakrakan/lol-esports-predictions/internal/model"
)

func exportSnapshot(league string) model.RatingSnapshot {
	return model.RatingSnapshot{
		Key: model.SnapshotKey{Scope: "league", LeagueID: league, Slug: "lck_summer_2022", StageName: "Regular Season"},
		Rows: []model.RatingRow{
			{TeamID: "gen", TeamName: "Gen.G", Rating: 1612.456},
			{TeamID: "t1", TeamName: "T1", Rating: 1598},
		},
	}
}

func TestSnapshotPath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "L1", "lck_summer_2022_Regular_Season_ratings.csv"),
		snapshotPath("out", exportSnapshot("L1"), false))
	assert.Equal(t, filepath.Join("out", "global", "lck_summer_2022_Regular_Season_ratings.csv.gz"),
		snapshotPath("out", exportSnapshot(""), true))
}

func TestWriteSnapshotCSV(t *testing.T) {
	dir := t.TempDir()

	plain, err := writeSnapshotCSV(dir, exportSnapshot("L1"), false)
	require.NoError(t, err)
	f, err := os.Open(plain)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"rank", "team_id", "team_name", "rating"},
		{"1", "gen", "Gen.G", "1612.46"},
		{"2", "t1", "T1", "1598.00"},
	}, rows)

	gzPath, err := writeSnapshotCSV(dir, exportSnapshot(""), true)
	require.NoError(t, err)
	gf, err := os.Open(gzPath)
	require.NoError(t, err)
	defer gf.Close()
	zr, err := gzip.NewReader(gf)
	require.NoError(t, err)
	gzRows, err := csv.NewReader(zr).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, rows, gzRows)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"t1", "gen"}, splitList(" t1, ,gen ,"))
	assert.Nil(t, splitList(""))
}
