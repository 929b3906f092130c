package rating

import (
	"math"

	"github.com/chakrakan/lol-esports-predictions/internal/aggregator"
	"github.com/chakrakan/lol-esports-predictions/internal/config"
	"github.com/chakrakan/lol-esports-predictions/internal/model"
)

// KBreakdown itemises the K-factor of one match.
type KBreakdown struct {
	Base        float64 // era or tournament K
	LoserWeight float64
	OPChampions float64
	GoldDiff    float64
	Objectives  float64 // first blood, turret, dragon, herald, baron
	KD          float64
	Vision      float64
	Damage      float64
	RedSide     float64
	Duration    float64
}

// Total is the K applied to the Elo update.
func (b KBreakdown) Total() float64 {
	return b.Base*b.LoserWeight + b.OPChampions + b.GoldDiff + b.Objectives +
		b.KD + b.Vision + b.Damage + b.RedSide + b.Duration
}

// kFactor assembles K for m. Only the loser's region weight scales the base,
// so upsets by weaker regions move ratings further.
func kFactor(rc *config.RatingConf, m *model.Match, loserWeight float64, op *model.OPChampionStats) KBreakdown {
	b := rc.Bonuses
	winner := m.Winner
	loser := winner.Opponent()

	kb := KBreakdown{
		Base:        rc.BaseKFor(m.Date, m.TournamentSlug),
		LoserWeight: loserWeight,
		OPChampions: b.OPChampion * float64(aggregator.OPPicks(m, winner, op)),
	}

	for _, first := range []struct {
		side  model.Side
		bonus float64
	}{
		{m.FirstBlood, b.FirstBlood},
		{m.FirstTurret, b.FirstTurret},
		{m.FirstDragon, b.FirstDragon},
		{m.FirstHerald, b.FirstHerald},
		{m.FirstBaron, b.FirstBaron},
	} {
		if first.side == winner {
			kb.Objectives += first.bonus
		}
	}

	if end := m.EndSnapshot(); end != nil {
		w, l := end.Team(winner), end.Team(loser)

		gold := absInt(w.TotalGold - l.TotalGold)
		switch {
		case gold > b.GoldDiffHigh:
			kb.GoldDiff = b.GoldDiffHighK
		case gold > b.GoldDiffLow:
			kb.GoldDiff = b.GoldDiffLowK
		}
		if w.KDRatio() > b.KDThreshold {
			kb.KD = b.KD
		}
		kb.Vision = math.Floor(math.Abs(w.VisionScore-l.VisionScore) / float64(b.VisionDivisor))
		kb.Damage = math.Floor(math.Abs(w.DamageToChampions-l.DamageToChampions) / float64(b.DamageDivisor))
	}

	if winner == model.SideRed {
		kb.RedSide = b.RedSideWin
	}
	switch {
	case m.DurationSec < b.ShortGameSec:
		kb.Duration = b.ShortGameK
	case m.DurationSec < b.MediumGameSec:
		kb.Duration = b.MediumGameK
	}
	return kb
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
