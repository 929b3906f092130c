package refdata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chakrakan/lol-esports-predictions/internal/model"
)

func game(id, state string, teams ...GameTeamFile) GameFile {
	return GameFile{ID: id, Number: 1, State: state, Teams: teams}
}

func side(id, s, outcome string) GameTeamFile {
	gt := GameTeamFile{ID: id, Side: s}
	gt.Result.Outcome = outcome
	return gt
}

func testCatalog() *Catalog {
	leagues := []League{
		{ID: "L1", Name: "LCK", Slug: "lck"},
		{ID: "L2", Name: "MSI", Slug: "msi"},
		{ID: "L3", Name: "LEC", Slug: "lec"},
	}
	teams := []Team{
		{ID: "t1", Name: "T1", Code: "T1"},
		{ID: "gen", Name: "Gen.G", Code: "GEN"},
		{ID: "g2", Name: "G2 Esports", Code: "G2"},
		{ID: "fix", Name: "Fixed", Code: "FIX", HomeLeague: "LCS"},
	}
	tournaments := []TournamentFile{
		{
			ID: "msi", LeagueID: "L2", Slug: "msi_2022", StartDate: "2022-05-10",
			Stages: []StageFile{{Name: "Groups", Sections: []SectionFile{{Name: "A", Matches: []MatchFile{
				{ID: "m3", State: "completed", Games: []GameFile{game("g3", "completed", side("g2", "blue", "win"), side("t1", "red", "loss"))}},
			}}}}},
		},
		{
			ID: "lck", LeagueID: "L1", Slug: "lck_spring_2022", StartDate: "2022-01-12",
			Stages: []StageFile{
				{Name: "Regular Season", Sections: []SectionFile{{Name: "RS", Matches: []MatchFile{
					{ID: "m1", State: "completed", Games: []GameFile{
						game("g1", "completed", side("t1", "", "loss"), side("gen", "", "win")),
						game("g1b", "unneeded"),
					}},
					{ID: "m2", State: "unstarted", Games: []GameFile{game("g2x", "completed")}},
				}}}},
				{Name: "Playoffs", Sections: []SectionFile{{Name: "Finals", Matches: []MatchFile{
					{ID: "m4", State: "completed", Games: []GameFile{
						game("g4", "completed", side("gen", "red", "win"), side("t1", "blue", "loss")),
						game("g5", "completed", side("t1", "blue", ""), side("gen", "red", "")),
					}},
				}}}},
			},
		},
		{
			ID: "lec", LeagueID: "L3", Slug: "lec_summer_2022", StartDate: "2022-06-17",
			Stages: []StageFile{{Name: "Regular Season", Sections: []SectionFile{{Matches: []MatchFile{
				{ID: "m5", State: "completed", Games: []GameFile{game("g6", "completed", side("g2", "blue", "win"), side("fix", "red", "loss"))}},
			}}}}},
		},
	}
	mappings := []Mapping{
		{EsportsGameID: "g1", PlatformGameID: "P1", TeamMapping: map[string]string{"100": "t1", "200": "gen"}},
		{EsportsGameID: "g3", PlatformGameID: "P3", TeamMapping: map[string]string{"100": "g2"}},
		{EsportsGameID: "g4", PlatformGameID: "P4"},
		{EsportsGameID: "g5", PlatformGameID: ""},
	}
	return New(leagues, teams, tournaments, mappings, []string{"MSI", "Worlds"})
}

func TestTournamentsSortedByStart(t *testing.T) {
	c := testCatalog()

	var slugs []string
	for _, tr := range c.Tournaments("") {
		slugs = append(slugs, tr.Slug)
	}
	assert.Equal(t, []string{"lck_spring_2022", "msi_2022", "lec_summer_2022"}, slugs)

	lck := c.Tournaments("L1")
	require.Len(t, lck, 1)
	assert.Equal(t, []string{"Regular Season", "Playoffs"}, lck[0].Stages)
	assert.Equal(t, 12, lck[0].StartDate.Day())

	bySlug, ok := c.Tournament("msi_2022")
	require.True(t, ok)
	assert.Equal(t, "msi", bySlug.ID)
	_, ok = c.Tournament("nope")
	assert.False(t, ok)
}

func TestHomeLeagueDerivation(t *testing.T) {
	c := testCatalog()

	r, ok := c.HomeRegion("t1")
	require.True(t, ok)
	assert.Equal(t, "LCK", r)

	// g2 appears at MSI first; international leagues never assign a home.
	r, ok = c.HomeRegion("g2")
	require.True(t, ok)
	assert.Equal(t, "LEC", r)

	r, _ = c.HomeRegion("fix")
	assert.Equal(t, "LCS", r, "explicit home league kept")

	_, ok = c.HomeRegion("nobody")
	assert.False(t, ok)
	assert.Equal(t, "Unknown", c.TeamName("nobody"))
	assert.Equal(t, "Gen.G", c.TeamName("gen"))
}

func TestGamesAndUnmapped(t *testing.T) {
	c := testCatalog()

	refs := c.Games("lck")
	require.Len(t, refs, 2)

	g1 := refs[0]
	assert.Equal(t, "P1", g1.PlatformGameID)
	assert.Equal(t, "LCK", g1.LeagueName)
	assert.Equal(t, "Regular Season", g1.StageName)
	assert.Equal(t, 0, g1.StageIndex)
	assert.Equal(t, "t1", g1.MappingBlue)
	assert.Equal(t, "gen", g1.MappingRed)
	assert.Equal(t, "t1", g1.TournamentBlue, "unlabelled first team is blue")
	assert.Equal(t, model.SideRed, g1.TournamentWinner)

	g4 := refs[1]
	assert.Equal(t, 1, g4.StageIndex)
	assert.Empty(t, g4.MappingBlue)
	assert.Equal(t, "t1", g4.TournamentBlue)
	assert.Equal(t, "gen", g4.TournamentRed)
	assert.Equal(t, model.SideRed, g4.TournamentWinner)

	assert.Equal(t, 1, c.Unmapped("lck"), "g5 has an empty platform id")
	assert.Equal(t, 1, c.Unmapped("lec"))
	assert.Nil(t, c.Games("missing"))
	assert.Zero(t, c.Unmapped("missing"))
}

func TestLeagueByName(t *testing.T) {
	c := testCatalog()

	l, ok := c.LeagueByName("lck")
	require.True(t, ok)
	assert.Equal(t, "L1", l.ID)

	l, ok = c.LeagueByName("Msi")
	require.True(t, ok)
	assert.Equal(t, "L2", l.ID)

	_, ok = c.LeagueByName("LPL")
	assert.False(t, ok)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		leaguesFile:     `[{"id":"L1","name":"LCK","slug":"lck","region":"KOREA"}]`,
		teamsFile:       `[{"team_id":"t1","name":"T1","acronym":"T1"},{"team_id":"gen","name":"Gen.G","acronym":"GEN"}]`,
		tournamentsFile: `[{"id":"lck","leagueId":"L1","slug":"lck_spring_2022","startDate":"2022-01-12","stages":[{"name":"Regular Season","sections":[{"name":"RS","matches":[{"id":"m1","state":"completed","games":[{"id":"g1","number":1,"state":"completed","teams":[{"id":"t1","side":"blue","result":{"outcome":"win"}},{"id":"gen","side":"red","result":{"outcome":"loss"}}]}]}]}]}]}]`,
		mappingsFile:    `[{"esportsGameId":"g1","platformGameId":"ESPORTSTMNT01_1","teamMapping":{"100":"t1","200":"gen"}}]`,
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}

	c, err := Load(dir, nil)
	require.NoError(t, err)
	refs := c.Games("lck")
	require.Len(t, refs, 1)
	assert.Equal(t, model.SideBlue, refs[0].TournamentWinner)
	r, _ := c.HomeRegion("gen")
	assert.Equal(t, "LCK", r)

	require.NoError(t, os.Remove(filepath.Join(dir, mappingsFile)))
	_, err = Load(dir, nil)
	assert.ErrorContains(t, err, mappingsFile)
}
