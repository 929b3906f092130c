// Package ranking answers ranking queries over stored stage snapshots.
package ranking

import (
	"fmt"

	"github.com/chakrakan/lol-esports-predictions/internal/model"
	"github.com/chakrakan/lol-esports-predictions/internal/refdata"
)

// Store is the read side of the snapshot store.
type Store interface {
	GetTournament(idOrSlug string) (*model.Tournament, error)
	GetSnapshot(scope, tournamentID, stage string) (*model.RatingSnapshot, error)
	LatestSnapshot(scope, leagueID string) (*model.RatingSnapshot, error)
	TournamentTeams(tournamentID string, stageIndex int) ([]string, error)
}

// Teams resolves team codes for output rows.
type Teams interface {
	Team(id string) (refdata.Team, bool)
}

// Ranker reads rankings for one rating scope.
type Ranker struct {
	store Store
	teams Teams
	scope string
}

func New(store Store, teams Teams, scope string) *Ranker {
	return &Ranker{store: store, teams: teams, scope: scope}
}

// Tournament ranks the teams that played in a tournament, or in one of its
// stages, by their rating after that stage. With no stage the tournament's
// last rated stage is used. Unknown tournaments and stages yield no rows.
func (r *Ranker) Tournament(idOrSlug, stage string) ([]model.RankEntry, error) {
	t, err := r.store.GetTournament(idOrSlug)
	if err != nil {
		return nil, fmt.Errorf("get tournament: %w", err)
	}
	if t == nil {
		return nil, nil
	}
	snap, err := r.store.GetSnapshot(r.scope, t.ID, stage)
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	if snap == nil {
		return nil, nil
	}
	stageIndex := -1
	if stage != "" {
		stageIndex = snap.Key.StageIndex
	}
	played, err := r.store.TournamentTeams(t.ID, stageIndex)
	if err != nil {
		return nil, fmt.Errorf("tournament teams: %w", err)
	}
	return r.entries(snap.Rows, setOf(played), 0), nil
}

// Global returns the top n teams of the chain's latest snapshot; n <= 0 returns all.
func (r *Ranker) Global(leagueID string, n int) ([]model.RankEntry, error) {
	snap, err := r.store.LatestSnapshot(r.scope, leagueID)
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	if snap == nil {
		return nil, nil
	}
	return r.entries(snap.Rows, nil, n), nil
}

// Teams ranks a subset of teams against each other using the latest snapshot.
// Ids absent from the snapshot are skipped.
func (r *Ranker) Teams(leagueID string, ids []string) ([]model.RankEntry, error) {
	snap, err := r.store.LatestSnapshot(r.scope, leagueID)
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	if snap == nil || len(ids) == 0 {
		return nil, nil
	}
	return r.entries(snap.Rows, setOf(ids), 0), nil
}

// entries numbers rows in snapshot order. Rows are already sorted descending.
func (r *Ranker) entries(rows []model.RatingRow, keep map[string]bool, limit int) []model.RankEntry {
	var out []model.RankEntry
	for _, row := range rows {
		if keep != nil && !keep[row.TeamID] {
			continue
		}
		if limit > 0 && len(out) == limit {
			break
		}
		e := model.RankEntry{
			Rank:     len(out) + 1,
			TeamID:   row.TeamID,
			TeamName: row.TeamName,
			Rating:   row.Rating,
		}
		if r.teams != nil {
			if t, ok := r.teams.Team(row.TeamID); ok {
				e.TeamCode = t.Code
			}
		}
		out = append(out, e)
	}
	return out
}

func setOf(ids []string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}
