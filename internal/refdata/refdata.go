// Package refdata loads the league, team, tournament and game-mapping reference
// files into an immutable Catalog that is passed into extraction and rating.
package refdata

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/chakrakan/lol-esports-predictions/internal/model"
)

const (
	leaguesFile     = "leagues.json"
	teamsFile       = "teams.json"
	tournamentsFile = "tournaments.json"
	mappingsFile    = "mapping_data.json"

	stateCompleted = "completed"
	outcomeWin     = "win"
)

// League is a competitive league. Name doubles as the region key for ratings.
type League struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Region string `json:"region"`
}

// Team is one organisation. HomeLeague is a league name.
type Team struct {
	ID         string `json:"team_id"`
	Name       string `json:"name"`
	Code       string `json:"acronym"`
	HomeLeague string `json:"home_league,omitempty"`
}

// Mapping ties a tournament game id to its event log and authoritative sides.
type Mapping struct {
	EsportsGameID  string            `json:"esportsGameId"`
	PlatformGameID string            `json:"platformGameId"`
	TeamMapping    map[string]string `json:"teamMapping"`
}

// Blue returns the mapped blue-side team id, possibly empty.
func (m Mapping) Blue() string { return m.TeamMapping["100"] }

// Red returns the mapped red-side team id, possibly empty.
func (m Mapping) Red() string { return m.TeamMapping["200"] }

// TournamentFile mirrors one element of tournaments.json.
type TournamentFile struct {
	ID        string      `json:"id"`
	LeagueID  string      `json:"leagueId"`
	Slug      string      `json:"slug"`
	Name      string      `json:"name"`
	StartDate string      `json:"startDate"`
	EndDate   string      `json:"endDate"`
	Stages    []StageFile `json:"stages"`
}

type StageFile struct {
	Name     string        `json:"name"`
	Slug     string        `json:"slug"`
	Sections []SectionFile `json:"sections"`
}

type SectionFile struct {
	Name    string      `json:"name"`
	Matches []MatchFile `json:"matches"`
}

type MatchFile struct {
	ID    string     `json:"id"`
	State string     `json:"state"`
	Games []GameFile `json:"games"`
}

type GameFile struct {
	ID     string         `json:"id"`
	Number int            `json:"number"`
	State  string         `json:"state"`
	Teams  []GameTeamFile `json:"teams"`
}

type GameTeamFile struct {
	ID     string `json:"id"`
	Side   string `json:"side"`
	Result struct {
		Outcome string `json:"outcome"`
	} `json:"result"`
}

// GameRef is everything the extractor needs about a game besides its events.
type GameRef struct {
	LeagueID       string
	LeagueName     string
	TournamentID   string
	TournamentSlug string
	StageName      string
	StageIndex     int
	SectionName    string
	GameID         string
	GameNumber     int
	PlatformGameID string

	// Authoritative side mapping; either side may be empty in the source data.
	MappingBlue, MappingRed string
	// Sides and outcome as declared by the tournament schedule.
	TournamentBlue, TournamentRed string
	TournamentWinner              model.Side
}

// Catalog is the read-only reference context. Safe for concurrent use.
type Catalog struct {
	leagues     map[string]League
	teams       map[string]Team
	tournaments []TournamentFile // ascending start date
	byID        map[string]int
	bySlug      map[string]int
	mappings    map[string]Mapping
}

// Load reads the four reference files from dir. Teams without an explicit
// home league get the first non-international league they played in.
func Load(dir string, international []string) (*Catalog, error) {
	var (
		leagues     []League
		teams       []Team
		tournaments []TournamentFile
		mappings    []Mapping
	)
	for _, f := range []struct {
		name string
		dst  any
	}{
		{leaguesFile, &leagues},
		{teamsFile, &teams},
		{tournamentsFile, &tournaments},
		{mappingsFile, &mappings},
	} {
		if err := readJSON(filepath.Join(dir, f.name), f.dst); err != nil {
			return nil, err
		}
	}
	return New(leagues, teams, tournaments, mappings, international), nil
}

func readJSON(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// New builds a Catalog from already-decoded reference data.
func New(leagues []League, teams []Team, tournaments []TournamentFile, mappings []Mapping, international []string) *Catalog {
	c := &Catalog{
		leagues:  make(map[string]League, len(leagues)),
		teams:    make(map[string]Team, len(teams)),
		byID:     make(map[string]int, len(tournaments)),
		bySlug:   make(map[string]int, len(tournaments)),
		mappings: make(map[string]Mapping, len(mappings)),
	}
	for _, l := range leagues {
		c.leagues[l.ID] = l
	}
	for _, t := range teams {
		c.teams[t.ID] = t
	}
	for _, m := range mappings {
		c.mappings[m.EsportsGameID] = m
	}

	c.tournaments = append([]TournamentFile(nil), tournaments...)
	sort.SliceStable(c.tournaments, func(i, j int) bool {
		return c.tournaments[i].StartDate < c.tournaments[j].StartDate
	})
	for i, t := range c.tournaments {
		c.byID[t.ID] = i
		c.bySlug[t.Slug] = i
	}

	c.deriveHomeLeagues(international)
	return c
}

// deriveHomeLeagues walks tournaments in date order and assigns each team the
// first domestic league it appears in.
func (c *Catalog) deriveHomeLeagues(international []string) {
	intl := make(map[string]bool, len(international))
	for _, name := range international {
		intl[name] = true
	}
	for _, t := range c.tournaments {
		league, ok := c.leagues[t.LeagueID]
		if !ok || intl[league.Name] {
			continue
		}
		for _, g := range c.completedGames(t) {
			for _, gt := range g.game.Teams {
				team, ok := c.teams[gt.ID]
				if !ok || team.HomeLeague != "" {
					continue
				}
				team.HomeLeague = league.Name
				c.teams[gt.ID] = team
			}
		}
	}
}

type scheduledGame struct {
	stageName   string
	stageIndex  int
	sectionName string
	game        GameFile
}

func (c *Catalog) completedGames(t TournamentFile) []scheduledGame {
	var out []scheduledGame
	for si, stage := range t.Stages {
		for _, section := range stage.Sections {
			for _, match := range section.Matches {
				if match.State != stateCompleted {
					continue
				}
				for _, g := range match.Games {
					if g.State != stateCompleted {
						continue
					}
					out = append(out, scheduledGame{stage.Name, si, section.Name, g})
				}
			}
		}
	}
	return out
}

// League returns the league with id.
func (c *Catalog) League(id string) (League, bool) {
	l, ok := c.leagues[id]
	return l, ok
}

// LeagueByName resolves a league by display name or slug, ignoring case.
func (c *Catalog) LeagueByName(name string) (League, bool) {
	for _, l := range c.leagues {
		if strings.EqualFold(l.Name, name) || strings.EqualFold(l.Slug, name) {
			return l, true
		}
	}
	return League{}, false
}

// Team returns the team with id.
func (c *Catalog) Team(id string) (Team, bool) {
	t, ok := c.teams[id]
	return t, ok
}

// TeamName returns the team's display name or "Unknown".
func (c *Catalog) TeamName(id string) string {
	if t, ok := c.teams[id]; ok && t.Name != "" {
		return t.Name
	}
	return "Unknown"
}

// HomeRegion returns the region key (home league name) of a team.
func (c *Catalog) HomeRegion(teamID string) (string, bool) {
	t, ok := c.teams[teamID]
	if !ok || t.HomeLeague == "" {
		return "", false
	}
	return t.HomeLeague, true
}

// Tournaments returns tournaments in ascending start-date order. An empty
// leagueID returns every league's tournaments.
func (c *Catalog) Tournaments(leagueID string) []model.Tournament {
	var out []model.Tournament
	for _, t := range c.tournaments {
		if leagueID != "" && t.LeagueID != leagueID {
			continue
		}
		out = append(out, toModel(t))
	}
	return out
}

// Tournament looks a tournament up by id or slug.
func (c *Catalog) Tournament(idOrSlug string) (model.Tournament, bool) {
	i, ok := c.byID[idOrSlug]
	if !ok {
		i, ok = c.bySlug[idOrSlug]
	}
	if !ok {
		return model.Tournament{}, false
	}
	return toModel(c.tournaments[i]), true
}

func toModel(t TournamentFile) model.Tournament {
	mt := model.Tournament{
		ID:        t.ID,
		LeagueID:  t.LeagueID,
		Slug:      t.Slug,
		Name:      t.Name,
		StartDate: parseDate(t.StartDate),
		EndDate:   parseDate(t.EndDate),
	}
	for _, s := range t.Stages {
		mt.Stages = append(mt.Stages, s.Name)
	}
	return mt
}

func parseDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Games returns the completed games of a tournament in schedule order. Games
// with no platform mapping are left out and counted in Unmapped.
func (c *Catalog) Games(tournamentID string) []GameRef {
	i, ok := c.byID[tournamentID]
	if !ok {
		return nil
	}
	t := c.tournaments[i]
	league := c.leagues[t.LeagueID]

	var refs []GameRef
	for _, sg := range c.completedGames(t) {
		m, ok := c.mappings[sg.game.ID]
		if !ok || m.PlatformGameID == "" {
			continue
		}
		ref := GameRef{
			LeagueID:       t.LeagueID,
			LeagueName:     league.Name,
			TournamentID:   t.ID,
			TournamentSlug: t.Slug,
			StageName:      sg.stageName,
			StageIndex:     sg.stageIndex,
			SectionName:    sg.sectionName,
			GameID:         sg.game.ID,
			GameNumber:     sg.game.Number,
			PlatformGameID: m.PlatformGameID,
			MappingBlue:    m.Blue(),
			MappingRed:     m.Red(),
		}
		ref.TournamentBlue, ref.TournamentRed, ref.TournamentWinner = scheduleSides(sg.game.Teams)
		refs = append(refs, ref)
	}
	return refs
}

// Unmapped counts completed games of a tournament that have no event log mapping.
func (c *Catalog) Unmapped(tournamentID string) int {
	i, ok := c.byID[tournamentID]
	if !ok {
		return 0
	}
	n := 0
	for _, sg := range c.completedGames(c.tournaments[i]) {
		if m, ok := c.mappings[sg.game.ID]; !ok || m.PlatformGameID == "" {
			n++
		}
	}
	return n
}

// scheduleSides reads the schedule's view of a game. When side labels are
// absent the first listed team is taken as blue.
func scheduleSides(teams []GameTeamFile) (blue, red string, winner model.Side) {
	for i, gt := range teams {
		side := model.SideBlue
		switch gt.Side {
		case "blue":
		case "red":
			side = model.SideRed
		default:
			if i > 0 {
				side = model.SideRed
			}
		}
		if side == model.SideBlue {
			blue = gt.ID
		} else {
			red = gt.ID
		}
		if gt.Result.Outcome == outcomeWin {
			winner = side
		}
	}
	return blue, red, winner
}
