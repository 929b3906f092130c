// Package pipeline runs extraction concurrently and assembles rating chains
// from the store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chakrakan/lol-esports-predictions/internal/aggregator"
	"github.com/chakrakan/lol-esports-predictions/internal/config"
	"github.com/chakrakan/lol-esports-predictions/internal/metrics"
	"github.com/chakrakan/lol-esports-predictions/internal/model"
	"github.com/chakrakan/lol-esports-predictions/internal/parser"
	"github.com/chakrakan/lol-esports-predictions/internal/rating"
	"github.com/chakrakan/lol-esports-predictions/internal/refdata"
)

// LoadFunc returns the classified events of one game.
type LoadFunc func(platformGameID string) (*model.ClassifiedEventSet, error)

// DirLoader reads event logs from dir.
func DirLoader(dir string) LoadFunc {
	return func(platformGameID string) (*model.ClassifiedEventSet, error) {
		return parser.ParseEventLog(dir, platformGameID)
	}
}

// Extractor builds one Match from a game's events.
type Extractor interface {
	Extract(set *model.ClassifiedEventSet, ref refdata.GameRef) (*model.Match, error)
}

// Skip records a game left out of the result.
type Skip struct {
	GameID string
	Reason string
	Err    error
}

// Result holds extracted matches in input order and the skipped games.
type Result struct {
	Matches []model.Match
	Skipped []Skip
}

type Pipeline struct {
	load    LoadFunc
	x       Extractor
	workers int
	m       *metrics.Metrics
	log     *slog.Logger
}

func New(load LoadFunc, x Extractor, workers int, m *metrics.Metrics, log *slog.Logger) *Pipeline {
	if workers <= 0 {
		workers = 1
	}
	if m == nil {
		m = metrics.New()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{load: load, x: x, workers: workers, m: m, log: log}
}

// Extract processes refs with up to workers goroutines. A failing game is
// skipped and logged; only cancellation of ctx fails the whole call.
func (p *Pipeline) Extract(ctx context.Context, refs []refdata.GameRef) (*Result, error) {
	type slot struct {
		match *model.Match
		err   error
	}
	slots := make([]slot, len(refs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := range refs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			m, err := p.extractOne(refs[i])
			p.m.ExtractLatency.Observe(float64(time.Since(start).Microseconds()) / 1000)
			slots[i] = slot{match: m, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{}
	for i, s := range slots {
		ref := refs[i]
		if s.err != nil {
			reason := skipReason(s.err)
			p.m.GamesSkipped.WithLabelValues(reason).Inc()
			p.log.Warn("game skipped", "game", ref.GameID, "tournament", ref.TournamentSlug, "reason", reason, "err", s.err)
			res.Skipped = append(res.Skipped, Skip{GameID: ref.GameID, Reason: reason, Err: s.err})
			continue
		}
		p.m.GamesExtracted.WithLabelValues(ref.TournamentSlug).Inc()
		res.Matches = append(res.Matches, *s.match)
	}
	return res, nil
}

// errEventLog marks failures to read or decode a game's event log.
var errEventLog = errors.New("event log")

func (p *Pipeline) extractOne(ref refdata.GameRef) (*model.Match, error) {
	set, err := p.load(ref.PlatformGameID)
	if err != nil {
		return nil, fmt.Errorf("game %s: %w: %w", ref.GameID, errEventLog, err)
	}
	return p.x.Extract(set, ref)
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, model.ErrMissingRequiredFact):
		return metrics.ReasonMissingFact
	case errors.Is(err, model.ErrMissingSnapshotData):
		return metrics.ReasonMissingSnapshots
	case errors.Is(err, errEventLog):
		return metrics.ReasonEventLog
	default:
		return metrics.ReasonOther
	}
}

// DetectAll runs OP detection for every tournament concurrently.
func (p *Pipeline) DetectAll(ctx context.Context, byTournament map[string][]model.Match, th config.OPConf) (map[string]*model.OPChampionStats, error) {
	out := make(map[string]*model.OPChampionStats, len(byTournament))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for id, ms := range byTournament {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			op := aggregator.DetectOPChampions(ms, th)
			op.TournamentID = id
			mu.Lock()
			out[id] = op
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ChainStore is the read side needed to assemble a chain.
type ChainStore interface {
	ChainTournaments(leagueID string) ([]model.Tournament, error)
	MatchesByTournament(tournamentIDs []string) (map[string][]model.Match, error)
}

// LoadChain reads a chain's tournaments in start-date order with their
// matches and OP tables. An empty leagueID builds the cross-league chain.
func (p *Pipeline) LoadChain(ctx context.Context, store ChainStore, scope, leagueID string, th config.OPConf) (rating.Chain, error) {
	chain := rating.Chain{Scope: scope, LeagueID: leagueID}

	ts, err := store.ChainTournaments(leagueID)
	if err != nil {
		return chain, fmt.Errorf("chain tournaments: %w", err)
	}
	ids := make([]string, len(ts))
	for i, t := range ts {
		ids[i] = t.ID
	}
	byT, err := store.MatchesByTournament(ids)
	if err != nil {
		return chain, fmt.Errorf("load matches: %w", err)
	}
	ops, err := p.DetectAll(ctx, byT, th)
	if err != nil {
		return chain, err
	}

	for _, t := range ts {
		chain.Tournaments = append(chain.Tournaments, rating.TournamentRun{
			Tournament: t,
			Matches:    byT[t.ID],
			OP:         ops[t.ID],
		})
	}
	return chain, nil
}
