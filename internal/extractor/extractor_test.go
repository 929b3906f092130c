package extractor

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chakrakan/lol-esports-predictions/internal/model"
	"github.com/chakrakan/lol-esports-predictions/internal/refdata"
)

type teamNames map[string]string

func (t teamNames) TeamName(id string) string {
	if n, ok := t[id]; ok {
		return n
	}
	return "Unknown"
}

var testTeams = teamNames{"t-blue": "Blue Team", "t-red": "Red Team"}

func makeRef() refdata.GameRef {
	return refdata.GameRef{
		LeagueID:         "lg",
		TournamentID:     "tn",
		TournamentSlug:   "lck_spring_2023",
		StageName:        "Regular Season",
		GameID:           "g1",
		GameNumber:       1,
		PlatformGameID:   "ESPORTSTMNT01:1",
		MappingBlue:      "t-blue",
		MappingRed:       "t-red",
		TournamentBlue:   "t-blue",
		TournamentRed:    "t-red",
		TournamentWinner: model.SideBlue,
	}
}

func makeUpdate(ms int64, goldPerPlayer int) model.StatsUpdateEvent {
	u := model.StatsUpdateEvent{Base: model.Base{GameTime: ms}}
	for i := 1; i <= 10; i++ {
		side := model.SideBlue
		if i > 5 {
			side = model.SideRed
		}
		u.Participants = append(u.Participants, model.ParticipantSnapshot{
			ParticipantID: i,
			TeamID:        side,
			TotalGold:     goldPerPlayer,
			Level:         i,
			Stats: map[string]float64{
				statKills:        1,
				statVision:       2.5,
				statDmgChampions: 1000,
			},
		})
	}
	return u
}

func makeSet() *model.ClassifiedEventSet {
	info := &model.GameInfoEvent{
		Base:        model.Base{EventTime: time.Date(2023, 1, 18, 8, 0, 0, 0, time.UTC)},
		GameVersion: "13.1.486.4356",
	}
	for i := 1; i <= 10; i++ {
		side := model.SideBlue
		if i > 5 {
			side = model.SideRed
		}
		info.Participants = append(info.Participants, model.ParticipantInfo{
			ParticipantID: i, TeamID: side, Name: "p", ChampionName: "c",
		})
	}
	return &model.ClassifiedEventSet{
		GameInfo: info,
		GameEnd:  &model.GameEndEvent{Base: model.Base{GameTime: 1_800_000}, WinningTeam: model.SideBlue},
		ChampionKills: []model.ChampionKillEvent{
			{KillerTeamID: model.SideRed, VictimTeamID: model.SideBlue},
			{KillerTeamID: model.SideBlue, VictimTeamID: model.SideRed},
		},
		Snapshots: []model.StatsUpdateEvent{
			makeUpdate(60_000, 500),
			makeUpdate(299_000, 1000),
			makeUpdate(600_000, 2000),
			makeUpdate(905_000, 3000),
			makeUpdate(1_795_000, 9000),
		},
	}
}

func newExtractor(logOut *bytes.Buffer) *Extractor {
	var log *slog.Logger
	if logOut != nil {
		log = slog.New(slog.NewTextHandler(logOut, nil))
	}
	return New([]int{300, 600, 900}, testTeams, log)
}

func TestExtract_Basics(t *testing.T) {
	m, err := newExtractor(nil).Extract(makeSet(), makeRef())
	require.NoError(t, err)

	assert.Equal(t, "t-blue", m.BlueTeamID)
	assert.Equal(t, "Red Team", m.RedTeamName)
	assert.Equal(t, model.SideBlue, m.Winner)
	assert.Equal(t, model.SideRed, m.FirstBlood)
	assert.Equal(t, 1800.0, m.DurationSec)
	assert.Equal(t, "13.1.486.4356", m.Patch)
	assert.Equal(t, "top", m.Draft[0].Role)
	assert.Equal(t, "support", m.Draft[9].Role)
	assert.Equal(t, model.SideRed, m.Draft[5].Side)
	assert.Equal(t, 6, m.Draft[5].Slot)
}

func TestExtract_NoObjectivesUseSentinels(t *testing.T) {
	m, err := newExtractor(nil).Extract(makeSet(), makeRef())
	require.NoError(t, err)

	assert.Equal(t, model.SideNone, m.FirstDragon)
	assert.Equal(t, model.DragonUnknown, m.FirstDragonType)
	assert.Equal(t, model.SideNone, m.FirstBaron)
	assert.Equal(t, model.SideNone, m.FirstHerald)
	assert.Equal(t, model.SideNone, m.FirstElder)
	assert.Equal(t, model.SideNone, m.FirstTurret)
	assert.Equal(t, model.LaneNone, m.FirstTurretLane)
	assert.Equal(t, model.SideNone, m.DragonSoul)
}

func TestExtract_FirstTurretCreditsOpponent(t *testing.T) {
	set := makeSet()
	set.TurretsDestroyed = []model.BuildingDestroyedEvent{
		{BuildingType: "turret", TurretTier: "inner", Lane: "mid", TeamID: model.SideBlue},
		{BuildingType: "turret", TurretTier: "outer", Lane: "bot", TeamID: model.SideBlue},
		{BuildingType: "turret", TurretTier: "outer", Lane: "top", TeamID: model.SideRed},
	}
	m, err := newExtractor(nil).Extract(set, makeRef())
	require.NoError(t, err)
	assert.Equal(t, model.SideRed, m.FirstTurret)
	assert.Equal(t, model.LaneBot, m.FirstTurretLane)
}

func TestExtract_UnknownLane(t *testing.T) {
	set := makeSet()
	set.TurretsDestroyed = []model.BuildingDestroyedEvent{
		{BuildingType: "turret", TurretTier: "outer", Lane: "river", TeamID: model.SideRed},
	}
	m, err := newExtractor(nil).Extract(set, makeRef())
	require.NoError(t, err)
	assert.Equal(t, model.SideBlue, m.FirstTurret)
	assert.Equal(t, model.LaneUnknown, m.FirstTurretLane)
}

func TestExtract_DragonsAndSoul(t *testing.T) {
	set := makeSet()
	dragon := func(side model.Side, kind string) model.EpicMonsterKillEvent {
		return model.EpicMonsterKillEvent{MonsterType: "dragon", DragonType: kind, KillerTeamID: side}
	}
	set.DragonKills = []model.EpicMonsterKillEvent{
		dragon(model.SideRed, "fire"),
		dragon(model.SideBlue, "water"),
		dragon(model.SideBlue, "fire"),
		dragon(model.SideBlue, "water"),
		dragon(model.SideBlue, "fire"),
	}
	set.ElderKills = []model.EpicMonsterKillEvent{{MonsterType: "dragon", DragonType: "elder", KillerTeamID: model.SideRed}}

	m, err := newExtractor(nil).Extract(set, makeRef())
	require.NoError(t, err)
	assert.Equal(t, model.SideRed, m.FirstDragon)
	assert.Equal(t, model.DragonInfernal, m.FirstDragonType)
	assert.Equal(t, 4, m.BlueDragons)
	assert.Equal(t, 1, m.RedDragons)
	assert.Equal(t, model.SideBlue, m.DragonSoul)
	// water and fire tie 2-2; fire was taken last.
	assert.Equal(t, model.DragonInfernal, m.DragonSoulType)
	assert.Equal(t, model.SideRed, m.FirstElder)
}

func TestExtract_WinnerFallsBackToSchedule(t *testing.T) {
	set := makeSet()
	set.GameEnd = nil
	ref := makeRef()
	ref.TournamentWinner = model.SideRed

	m, err := newExtractor(nil).Extract(set, ref)
	require.NoError(t, err)
	assert.Equal(t, model.SideRed, m.Winner)
}

func TestExtract_WinnerConflictLogged(t *testing.T) {
	var logs bytes.Buffer
	ref := makeRef()
	ref.TournamentWinner = model.SideRed

	m, err := newExtractor(&logs).Extract(makeSet(), ref)
	require.NoError(t, err)
	assert.Equal(t, model.SideBlue, m.Winner)
	assert.Contains(t, logs.String(), "winner source conflict")
}

func TestExtract_NoWinnerAnywhere(t *testing.T) {
	set := makeSet()
	set.GameEnd.WinningTeam = model.SideNone
	ref := makeRef()
	ref.TournamentWinner = model.SideNone

	_, err := newExtractor(nil).Extract(set, ref)
	assert.ErrorIs(t, err, model.ErrMissingRequiredFact)
}

func TestExtract_MappingSideFallsBackToSchedule(t *testing.T) {
	ref := makeRef()
	ref.MappingRed = ""
	ref.TournamentRed = "t-red-sched"

	m, err := newExtractor(nil).Extract(makeSet(), ref)
	require.NoError(t, err)
	assert.Equal(t, "t-blue", m.BlueTeamID)
	assert.Equal(t, "t-red-sched", m.RedTeamID)
}

func TestExtract_NoSnapshots(t *testing.T) {
	set := makeSet()
	set.Snapshots = nil
	_, err := newExtractor(nil).Extract(set, makeRef())
	assert.ErrorIs(t, err, model.ErrMissingSnapshotData)
}

func TestExtract_SnapshotsAndTeamTotals(t *testing.T) {
	m, err := newExtractor(nil).Extract(makeSet(), makeRef())
	require.NoError(t, err)
	require.Len(t, m.Snapshots, 4)

	s300 := m.Snapshot(300)
	require.NotNil(t, s300)
	assert.Equal(t, int64(299_000), s300.GameTimeMs)
	assert.Equal(t, 5000, s300.Blue.TotalGold)
	assert.Equal(t, 5, s300.Red.Kills)
	assert.Equal(t, 12.5, s300.Red.VisionScore)
	assert.Equal(t, 1+2+3+4+5, s300.Blue.Level)

	assert.Equal(t, int64(905_000), m.Snapshot(900).GameTimeMs)
	end := m.EndSnapshot()
	require.NotNil(t, end)
	assert.Equal(t, int64(1_795_000), end.GameTimeMs)
	assert.Equal(t, 45000, end.Red.TotalGold)
}

func TestExtract_RepeatedParticipantKeepsTotalsConsistent(t *testing.T) {
	set := makeSet()
	u := makeUpdate(1_795_000, 1000)
	u.Participants[1].ParticipantID = 1
	u.Participants[1].TotalGold = 9999
	u.Participants[2].Stats[statDmgChampions] = 1000.6
	set.Snapshots = []model.StatsUpdateEvent{u}

	m, err := newExtractor(nil).Extract(set, makeRef())
	require.NoError(t, err)
	end := m.EndSnapshot()
	require.NotNil(t, end)

	var gold int
	var dmg float64
	for _, p := range end.Participants[:5] {
		gold += p.TotalGold
		dmg += p.DamageToChampions
	}
	assert.Equal(t, 1000, end.Participants[0].TotalGold, "first entry for a slot is kept")
	assert.Equal(t, gold, end.Blue.TotalGold)
	assert.Equal(t, 4000, end.Blue.TotalGold)
	assert.InDelta(t, dmg, end.Blue.DamageToChampions, 1e-9)
	assert.InDelta(t, 4000.6, end.Blue.DamageToChampions, 1e-9)
}

func TestExtract_ShortGameReusesNearestSnapshot(t *testing.T) {
	set := makeSet()
	set.Snapshots = []model.StatsUpdateEvent{makeUpdate(60_000, 500), makeUpdate(240_000, 900)}

	m, err := newExtractor(nil).Extract(set, makeRef())
	require.NoError(t, err)
	for _, cp := range []int{300, 600, 900} {
		assert.Equal(t, int64(240_000), m.Snapshot(cp).GameTimeMs, "checkpoint %d", cp)
	}
}

func TestNearest(t *testing.T) {
	updates := []model.StatsUpdateEvent{
		{Base: model.Base{GameTime: 1000}},
		{Base: model.Base{GameTime: 2000}},
		{Base: model.Base{GameTime: 4000}},
		{Base: model.Base{GameTime: 9000}},
	}
	tests := []struct {
		target int64
		want   int
	}{
		{0, 0},
		{1000, 0},
		{2000, 1},
		{2900, 1},
		{3000, 1}, // equidistant picks the earlier
		{3100, 2},
		{4000, 2},
		{6600, 3},
		{20000, 3},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, nearest(updates, tc.target), "target %d", tc.target)
	}
}
