package rating

import (
	"fmt"
	"log/slog"

	"github.com/chakrakan/lol-esports-predictions/internal/config"
	"github.com/chakrakan/lol-esports-predictions/internal/model"
)

// Regions resolves a team's home region key.
type Regions interface {
	HomeRegion(teamID string) (string, bool)
}

// TeamNames resolves display names for snapshot rows.
type TeamNames interface {
	TeamName(id string) string
}

// Engine applies matches to a State. It holds no rating state of its own.
type Engine struct {
	cfg     *config.Config
	regions Regions
	names   TeamNames
	log     *slog.Logger
	observe func(m *model.Match, kb KBreakdown)
}

func NewEngine(cfg *config.Config, regions Regions, names TeamNames, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{cfg: cfg, regions: regions, names: names, log: log}
}

// Observe registers fn to receive every applied match with its K.
func (e *Engine) Observe(fn func(m *model.Match, kb KBreakdown)) { e.observe = fn }

// Region returns the configured region of a team's home league.
func (e *Engine) Region(teamID string) (config.RegionConf, error) {
	home, ok := e.regions.HomeRegion(teamID)
	if !ok {
		return config.RegionConf{}, &ConfigurationGapError{TeamID: teamID, Reason: "no home league"}
	}
	rc, ok := e.cfg.Regions[home]
	if !ok {
		return config.RegionConf{}, &ConfigurationGapError{TeamID: teamID, Reason: fmt.Sprintf("league %q has no region entry", home)}
	}
	return rc, nil
}

// Seed inserts every team of matches missing from st at its home region's
// base rating. Teams already present are left untouched.
func (e *Engine) Seed(st State, matches []model.Match) error {
	for i := range matches {
		for _, id := range []string{matches[i].BlueTeamID, matches[i].RedTeamID} {
			if _, ok := st[id]; ok {
				continue
			}
			rc, err := e.Region(id)
			if err != nil {
				return err
			}
			st[id] = rc.BaseRating
		}
	}
	return nil
}

// KFactor returns the itemised K for m.
func (e *Engine) KFactor(m *model.Match, op *model.OPChampionStats) (KBreakdown, error) {
	loser := m.TeamID(m.Winner.Opponent())
	rc, err := e.Region(loser)
	if err != nil {
		return KBreakdown{}, err
	}
	return kFactor(&e.cfg.Rating, m, rc.Weight, op), nil
}

// ApplyMatch performs one Elo update. Both teams must already be in st.
func (e *Engine) ApplyMatch(st State, m *model.Match, op *model.OPChampionStats) error {
	if !m.Winner.Valid() {
		return fmt.Errorf("game %s: winner %d is not a side: %w", m.GameID, m.Winner, model.ErrMissingRequiredFact)
	}
	winnerID := m.TeamID(m.Winner)
	loserID := m.TeamID(m.Winner.Opponent())
	w, okW := st[winnerID]
	l, okL := st[loserID]
	if !okW || !okL {
		return fmt.Errorf("game %s: team not seeded before update", m.GameID)
	}

	kb, err := e.KFactor(m, op)
	if err != nil {
		return err
	}
	st[winnerID], st[loserID] = UpdateElo(w, l, kb.Total())
	if e.observe != nil {
		e.observe(m, kb)
	}
	return nil
}

// RunStage seeds newcomers and applies matches in the given order.
func (e *Engine) RunStage(st State, matches []model.Match, op *model.OPChampionStats) error {
	if err := e.Seed(st, matches); err != nil {
		return err
	}
	for i := range matches {
		if err := e.ApplyMatch(st, &matches[i], op); err != nil {
			return err
		}
	}
	return nil
}

// TournamentRun is one tournament of a chain. Matches must already be ordered
// by stage, date and game number; the engine does not re-sort.
type TournamentRun struct {
	Tournament model.Tournament
	Matches    []model.Match
	OP         *model.OPChampionStats
}

// Chain is an ordered sequence of tournaments rated as one fold.
type Chain struct {
	Scope       string
	LeagueID    string // empty for the global scope
	Tournaments []TournamentRun
}

// EmitFunc receives each stage snapshot as soon as the stage completes.
type EmitFunc func(model.RatingSnapshot) error

// Run folds the chain into a final State, emitting one snapshot per stage.
// With a non-nil resume the fold starts from that snapshot and skips every
// stage up to and including it.
func (e *Engine) Run(chain Chain, resume *model.RatingSnapshot, emit EmitFunc) (State, error) {
	st := State{}
	seq := 0
	var last *model.SnapshotKey
	skipping := false

	if resume != nil {
		st = FromSnapshot(resume)
		seq = resume.Seq + 1
		key := resume.Key
		last = &key
		skipping = true
	}

	fail := func(err error) (State, error) {
		return st, &ChainError{LastCheckpoint: last, Err: err}
	}

	for _, tr := range chain.Tournaments {
		if skipping && tr.Tournament.ID != resume.Key.TournamentID {
			continue
		}

		for _, stage := range splitStages(tr.Matches) {
			if skipping {
				if stage.index <= resume.Key.StageIndex {
					continue
				}
				skipping = false
			}
			if err := e.RunStage(st, stage.matches, tr.OP); err != nil {
				return fail(fmt.Errorf("%s / %s: %w", tr.Tournament.Slug, stage.name, err))
			}

			snap := model.RatingSnapshot{
				Key: model.SnapshotKey{
					Scope:        chain.Scope,
					LeagueID:     chain.LeagueID,
					TournamentID: tr.Tournament.ID,
					Slug:         tr.Tournament.Slug,
					StageName:    stage.name,
					StageIndex:   stage.index,
				},
				Seq:  seq,
				Rows: st.Rows(e.names),
			}
			if emit != nil {
				if err := emit(snap); err != nil {
					return fail(fmt.Errorf("emit %s / %s: %w", tr.Tournament.Slug, stage.name, err))
				}
			}
			seq++
			key := snap.Key
			last = &key
			e.log.Debug("stage rated", "tournament", tr.Tournament.Slug, "stage", stage.name, "matches", len(stage.matches), "teams", len(st))
		}
		// The resume point was the tournament's last stage.
		skipping = false
	}

	if skipping {
		return fail(fmt.Errorf("resume tournament %s not in chain", resume.Key.TournamentID))
	}
	return st, nil
}

type stageMatches struct {
	name    string
	index   int
	matches []model.Match
}

// splitStages cuts an ordered match list at stage boundaries.
func splitStages(ms []model.Match) []stageMatches {
	var out []stageMatches
	for i := 0; i < len(ms); {
		j := i
		for j < len(ms) && ms[j].StageIndex == ms[i].StageIndex && ms[j].StageName == ms[i].StageName {
			j++
		}
		out = append(out, stageMatches{name: ms[i].StageName, index: ms[i].StageIndex, matches: ms[i:j]})
		i = j
	}
	return out
}
