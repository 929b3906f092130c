package aggregator

import (
	"sort"

	"github.com/chakrakan/lol-esports-predictions/internal/config"
	"github.com/chakrakan/lol-esports-predictions/internal/model"
)

// DetectOPChampions computes per-champion pick/win statistics for one
// tournament's matches and flags the champions above every threshold. The
// result depends only on the match set.
func DetectOPChampions(matches []model.Match, th config.OPConf) *model.OPChampionStats {
	out := &model.OPChampionStats{
		TotalGames: len(matches),
		Champions:  make(map[string]*model.ChampionStat),
		OP:         make(map[string]bool),
	}
	if len(matches) == 0 {
		return out
	}
	out.TournamentID = matches[0].TournamentID

	// ---- Pass 1: role-scoped pick tables, one per draft slot. ----

	type roleEntry struct {
		played, won int
		teams       map[string]struct{}
	}
	var roleTables [10]map[string]*roleEntry
	for i := range roleTables {
		roleTables[i] = make(map[string]*roleEntry)
	}
	teams := make(map[string]struct{})

	for i := range matches {
		m := &matches[i]
		teams[m.BlueTeamID] = struct{}{}
		teams[m.RedTeamID] = struct{}{}
		for slot, d := range m.Draft {
			if d.Champion == "" {
				continue
			}
			e := roleTables[slot][d.Champion]
			if e == nil {
				e = &roleEntry{teams: make(map[string]struct{})}
				roleTables[slot][d.Champion] = e
			}
			e.played++
			if d.Side == m.Winner {
				e.won++
			}
			if id := m.TeamID(d.Side); id != "" {
				e.teams[id] = struct{}{}
			}
		}
	}
	delete(teams, "")
	out.TeamCount = len(teams)

	// ---- Pass 2: merge role tables into the champion table. ----

	for _, table := range roleTables {
		for champ, e := range table {
			cs := out.Champions[champ]
			if cs == nil {
				cs = &model.ChampionStat{Champion: champ, Teams: make(map[string]struct{})}
				out.Champions[champ] = cs
			}
			cs.Played += e.played
			cs.Won += e.won
			for id := range e.teams {
				cs.Teams[id] = struct{}{}
			}
		}
	}

	// ---- Pass 3: threshold filter. ----

	pickMin := th.PickShare * float64(out.TotalGames)
	teamMin := th.TeamShare * float64(out.TeamCount)
	for champ, cs := range out.Champions {
		if float64(cs.Played) > pickMin && cs.WinRate() > th.WinRate && float64(len(cs.Teams)) > teamMin {
			out.OP[champ] = true
		}
	}
	return out
}

// OPPicks counts the flagged champions drafted by side in m.
func OPPicks(m *model.Match, side model.Side, op *model.OPChampionStats) int {
	n := 0
	for _, c := range m.Champions(side) {
		if op.IsOP(c) {
			n++
		}
	}
	return n
}

// Team performance classes.
const (
	ClassDominant     = "Dominant"
	ClassIntermediate = "Intermediate"
	ClassWeaker       = "Weaker/Passive"
)

// TeamFeatures summarises one team's tournament.
type TeamFeatures struct {
	TeamID   string
	TeamName string
	Wins     int
	Losses   int
	OPPicks  int

	AvgGoldDiff  map[int]float64 // mean gold lead per snapshot checkpoint
	MedianWinSec float64         // 0 without wins
	Class        string
}

func (f *TeamFeatures) Games() int { return f.Wins + f.Losses }

// WinRate is a percentage.
func (f *TeamFeatures) WinRate() float64 {
	if f.Games() == 0 {
		return 0
	}
	return float64(f.Wins) / float64(f.Games()) * 100
}

// BuildTeamFeatures computes per-team tournament features, sorted by wins
// descending then name.
func BuildTeamFeatures(matches []model.Match, op *model.OPChampionStats) []TeamFeatures {
	byTeam := make(map[string]*TeamFeatures)
	goldSums := make(map[string]map[int]float64)
	goldCounts := make(map[string]map[int]int)
	winDurations := make(map[string][]float64)

	get := func(id, name string) *TeamFeatures {
		f := byTeam[id]
		if f == nil {
			f = &TeamFeatures{TeamID: id, TeamName: name, AvgGoldDiff: make(map[int]float64)}
			byTeam[id] = f
			goldSums[id] = make(map[int]float64)
			goldCounts[id] = make(map[int]int)
		}
		return f
	}

	for i := range matches {
		m := &matches[i]
		for _, side := range []model.Side{model.SideBlue, model.SideRed} {
			id := m.TeamID(side)
			f := get(id, m.TeamName(side))
			if side == m.Winner {
				f.Wins++
				winDurations[id] = append(winDurations[id], m.DurationSec)
			} else {
				f.Losses++
			}
			f.OPPicks += OPPicks(m, side, op)
			for _, s := range m.Snapshots {
				diff := s.Team(side).TotalGold - s.Team(side.Opponent()).TotalGold
				goldSums[id][s.Checkpoint] += float64(diff)
				goldCounts[id][s.Checkpoint]++
			}
		}
	}

	out := make([]TeamFeatures, 0, len(byTeam))
	for id, f := range byTeam {
		for cp, sum := range goldSums[id] {
			f.AvgGoldDiff[cp] = sum / float64(goldCounts[id][cp])
		}
		f.MedianWinSec = median(winDurations[id])
		out = append(out, *f)
	}
	classify(out)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].TeamName < out[j].TeamName
	})
	return out
}

// classify marks top-quartile winners with faster-than-average wins as
// dominant and bottom-quartile teams with slower wins as weaker.
func classify(fs []TeamFeatures) {
	if len(fs) == 0 {
		return
	}
	wins := make([]float64, len(fs))
	var durSum float64
	var durN int
	for i, f := range fs {
		wins[i] = float64(f.Wins)
		if f.MedianWinSec > 0 {
			durSum += f.MedianWinSec
			durN++
		}
	}
	sort.Float64s(wins)
	top, bottom := quantile(wins, 0.75), quantile(wins, 0.25)
	avgDur := 0.0
	if durN > 0 {
		avgDur = durSum / float64(durN)
	}

	for i := range fs {
		f := &fs[i]
		f.Class = ClassIntermediate
		switch {
		case float64(f.Wins) >= top && f.MedianWinSec > 0 && f.MedianWinSec < avgDur:
			f.Class = ClassDominant
		case float64(f.Wins) <= bottom && f.MedianWinSec > avgDur:
			f.Class = ClassWeaker
		}
	}
}

// quantile linearly interpolates over sorted values.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	if lo+1 >= len(sorted) {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	s := append([]float64(nil), vals...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}
