// Package rating folds ordered match sequences into per-team Elo ratings.
package rating

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/chakrakan/lol-esports-predictions/internal/model"
)

// Chain scopes.
const (
	ScopeLeague = "league"
	ScopeGlobal = "global"
)

// State maps team id to rating. It is owned by a single chain pass.
type State map[string]float64

// FromSnapshot rebuilds a State from stored rows.
func FromSnapshot(s *model.RatingSnapshot) State {
	st := make(State, len(s.Rows))
	for _, r := range s.Rows {
		st[r.TeamID] = r.Rating
	}
	return st
}

// Clone returns an independent copy.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Rows returns the state sorted by rating descending, ties by team id.
func (s State) Rows(names TeamNames) []model.RatingRow {
	rows := make([]model.RatingRow, 0, len(s))
	for id, r := range s {
		row := model.RatingRow{TeamID: id, Rating: r}
		if names != nil {
			row.TeamName = names.TeamName(id)
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Rating != rows[j].Rating {
			return rows[i].Rating > rows[j].Rating
		}
		return rows[i].TeamID < rows[j].TeamID
	})
	return rows
}

// Expected is the logistic expected score of own against opp.
func Expected(own, opp float64) float64 {
	return 1 / (1 + math.Pow(10, (opp-own)/400))
}

// UpdateElo moves both ratings toward the realised 1/0 outcome by k.
func UpdateElo(winner, loser, k float64) (newWinner, newLoser float64) {
	newWinner = winner + k*(1-Expected(winner, loser))
	newLoser = loser + k*(0-Expected(loser, winner))
	return newWinner, newLoser
}

// ConfigurationGapError reports a team the engine cannot seed or weight.
type ConfigurationGapError struct {
	TeamID string
	Reason string
}

func (e *ConfigurationGapError) Error() string {
	return fmt.Sprintf("configuration gap for team %s: %s", e.TeamID, e.Reason)
}

// ChainError aborts a rating chain. LastCheckpoint is the last snapshot
// emitted before the failure, nil if none was.
type ChainError struct {
	LastCheckpoint *model.SnapshotKey
	Err            error
}

func (e *ChainError) Error() string {
	if e.LastCheckpoint == nil {
		return fmt.Sprintf("rating chain aborted before the first stage: %v", e.Err)
	}
	k := e.LastCheckpoint
	return fmt.Sprintf("rating chain aborted after %s / %s: %v", k.Slug, k.StageName, e.Err)
}

func (e *ChainError) Unwrap() error { return e.Err }

// IsConfigurationGap reports whether err stems from missing team metadata.
func IsConfigurationGap(err error) bool {
	var gap *ConfigurationGapError
	return errors.As(err, &gap)
}
