package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chakrakan/lol-esports-predictions/internal/config"
	"github.com/chakrakan/lol-esports-predictions/internal/metrics"
	"github.com/chakrakan/lol-esports-predictions/internal/model"
	"github.com/chakrakan/lol-esports-predictions/internal/refdata"
)

// stubExtractor echoes the ref into a Match, failing for configured games.
type stubExtractor struct {
	fail map[string]error
}

func (s stubExtractor) Extract(set *model.ClassifiedEventSet, ref refdata.GameRef) (*model.Match, error) {
	if err := s.fail[ref.GameID]; err != nil {
		return nil, err
	}
	return &model.Match{GameID: ref.GameID, TournamentID: ref.TournamentID, Winner: model.SideBlue}, nil
}

func refs(n int) []refdata.GameRef {
	out := make([]refdata.GameRef, n)
	for i := range out {
		out[i] = refdata.GameRef{
			GameID:         fmt.Sprintf("g%02d", i),
			PlatformGameID: fmt.Sprintf("ESPORTSTMNT01:%02d", i),
			TournamentID:   "t1",
			TournamentSlug: "lck_spring_2022",
		}
	}
	return out
}

// slowLoader finishes later games first to shake out ordering bugs.
func slowLoader(n int) LoadFunc {
	return func(id string) (*model.ClassifiedEventSet, error) {
		var i int
		fmt.Sscanf(id, "ESPORTSTMNT01:%d", &i)
		time.Sleep(time.Duration(n-i) * time.Millisecond)
		return &model.ClassifiedEventSet{}, nil
	}
}

func TestExtractPreservesInputOrder(t *testing.T) {
	m := metrics.New()
	p := New(slowLoader(20), stubExtractor{}, 8, m, nil)

	res, err := p.Extract(context.Background(), refs(20))
	require.NoError(t, err)
	require.Len(t, res.Matches, 20)
	for i, got := range res.Matches {
		assert.Equal(t, fmt.Sprintf("g%02d", i), got.GameID)
	}
	assert.Empty(t, res.Skipped)
	assert.Equal(t, 20.0, testutil.ToFloat64(m.GamesExtracted.WithLabelValues("lck_spring_2022")))
}

func TestExtractSkipsFailedGames(t *testing.T) {
	m := metrics.New()
	x := stubExtractor{fail: map[string]error{
		"g01": fmt.Errorf("game g01: %w", model.ErrMissingRequiredFact),
		"g03": fmt.Errorf("game g03: %w", model.ErrMissingSnapshotData),
		"g05": errors.New("draft has 11 participants"),
	}}
	load := func(id string) (*model.ClassifiedEventSet, error) {
		if id == "ESPORTSTMNT01:04" {
			return nil, fmt.Errorf("event log for %s: %w", id, os.ErrNotExist)
		}
		return &model.ClassifiedEventSet{}, nil
	}
	p := New(load, x, 3, m, nil)

	res, err := p.Extract(context.Background(), refs(6))
	require.NoError(t, err)
	assert.Len(t, res.Matches, 2)
	require.Len(t, res.Skipped, 4)
	assert.Equal(t, "g01", res.Skipped[0].GameID)
	assert.Equal(t, metrics.ReasonMissingFact, res.Skipped[0].Reason)
	assert.Equal(t, metrics.ReasonMissingSnapshots, res.Skipped[1].Reason)
	assert.Equal(t, metrics.ReasonEventLog, res.Skipped[2].Reason)
	assert.True(t, errors.Is(res.Skipped[2].Err, os.ErrNotExist))
	assert.Equal(t, metrics.ReasonOther, res.Skipped[3].Reason)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.GamesSkipped.WithLabelValues(metrics.ReasonMissingFact)))
}

func TestExtractCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := New(slowLoader(5), stubExtractor{}, 2, nil, nil)

	_, err := p.Extract(ctx, refs(5))
	assert.ErrorIs(t, err, context.Canceled)
}

func opMatch(id, tournament, champ string, winner model.Side) model.Match {
	m := model.Match{GameID: id, TournamentID: tournament, BlueTeamID: "A", RedTeamID: "B", Winner: winner}
	for i := range m.Draft {
		side := model.SideBlue
		if i >= 5 {
			side = model.SideRed
		}
		m.Draft[i] = model.DraftSlot{Slot: i + 1, Side: side, Role: model.Roles[i%5], Champion: fmt.Sprintf("filler-%d-%s", i, id)}
	}
	m.Draft[2].Champion = champ
	return m
}

type fakeChainStore struct {
	ts  []model.Tournament
	byT map[string][]model.Match
}

func (f fakeChainStore) ChainTournaments(leagueID string) ([]model.Tournament, error) {
	return f.ts, nil
}

func (f fakeChainStore) MatchesByTournament(ids []string) (map[string][]model.Match, error) {
	return f.byT, nil
}

func TestLoadChainAttachesOPTables(t *testing.T) {
	store := fakeChainStore{
		ts: []model.Tournament{{ID: "spring", Slug: "lck_spring_2022"}, {ID: "summer", Slug: "lck_summer_2022"}},
		byT: map[string][]model.Match{
			"spring": {
				opMatch("s1", "spring", "Ahri", model.SideBlue),
				opMatch("s2", "spring", "Ahri", model.SideBlue),
			},
			"summer": {
				opMatch("u1", "summer", "Azir", model.SideRed),
				opMatch("u2", "summer", "Azir", model.SideRed),
			},
		},
	}
	p := New(nil, nil, 4, nil, nil)

	chain, err := p.LoadChain(context.Background(), store, "league", "lck", config.Default().OP)
	require.NoError(t, err)
	assert.Equal(t, "league", chain.Scope)
	assert.Equal(t, "lck", chain.LeagueID)
	require.Len(t, chain.Tournaments, 2)
	assert.Equal(t, "spring", chain.Tournaments[0].Tournament.ID)

	// Ahri wins every spring game on blue; Azir loses every summer game on blue.
	assert.True(t, chain.Tournaments[0].OP.IsOP("Ahri"))
	assert.False(t, chain.Tournaments[1].OP.IsOP("Azir"))
	assert.Equal(t, "summer", chain.Tournaments[1].OP.TournamentID)
}
