package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chakrakan/lol-esports-predictions/internal/model"
)

const sampleLog = `[
 {"eventType":"game_info","eventTime":"2022-06-10T18:00:00.000Z","gameTime":0,
  "platformGameId":"ESPORTSTMNT01_1","gameVersion":"12.10.1",
  "participants":[
   {"participantID":1,"teamID":100,"summonerName":"T1 Zeus","championName":"Gwen"},
   {"participantID":6,"teamID":200,"playerName":"GEN Doran","championName":"Jayce"}]},
 {"eventType":"champion_kill","gameTime":"245000","killer":1,"victim":6,
  "killerTeamID":100,"victimTeamID":200,"assistants":[2,3]},
 {"eventType":"epic_monster_kill","gameTime":400000,"monsterType":"dragon","dragonType":"fire","killerTeamID":200},
 {"eventType":"stats_update","gameTime":300000,
  "participants":[{"participantID":1,"teamID":100,"riotIdGameName":"Zeus","level":9,"XP":4200,"totalGold":3100,
   "stats":[{"name":"MINIONS_KILLED","value":120}]}]},
 {"eventType":"queued_dragon_info","gameTime":410000},
 {"eventType":"game_end","gameTime":1900000,"winningTeam":100}
]`

func TestDecodeEvents(t *testing.T) {
	events, err := DecodeEvents(strings.NewReader(sampleLog))
	require.NoError(t, err)
	require.Len(t, events, 6)

	info, ok := events[0].(model.GameInfoEvent)
	require.True(t, ok)
	assert.Equal(t, "ESPORTSTMNT01_1", info.PlatformGameID)
	assert.Equal(t, "GEN Doran", info.Participants[1].Name)
	assert.Equal(t, model.SideRed, info.Participants[1].TeamID)
	assert.Equal(t, 2022, info.EventTime.Year())

	kill := events[1].(model.ChampionKillEvent)
	assert.EqualValues(t, 245000, kill.GameTimeMs(), "numeric strings decode")
	assert.Equal(t, []int{2, 3}, kill.Assistants)
	assert.Equal(t, 1, kill.Sequence)

	stats := events[3].(model.StatsUpdateEvent)
	assert.Equal(t, "Zeus", stats.Participants[0].Name)
	assert.Equal(t, 120.0, stats.Participants[0].Stats["MINIONS_KILLED"])

	unknown := events[4].(model.UnknownEvent)
	assert.Equal(t, "queued_dragon_info", unknown.Type)

	end := events[5].(model.GameEndEvent)
	assert.Equal(t, model.SideBlue, end.WinningTeam)
}

func TestDecodeEventsRejectsMalformed(t *testing.T) {
	_, err := DecodeEvents(strings.NewReader(`{"eventType":"game_info"}`))
	assert.Error(t, err, "top level must be an array")

	_, err = DecodeEvents(strings.NewReader(`[{"eventType":"champion_kill","killer":"abc"}]`))
	assert.ErrorContains(t, err, "event 0")
}

func TestClassify(t *testing.T) {
	base := func(ms int64) model.Base { return model.Base{GameTime: ms} }
	events := []model.RawEvent{
		model.GameInfoEvent{Base: base(0), PlatformGameID: "g1"},
		model.GameInfoEvent{Base: base(1), PlatformGameID: "ignored"},
		model.BuildingDestroyedEvent{Base: base(500), BuildingType: "turret", TurretTier: "outer"},
		model.BuildingDestroyedEvent{Base: base(600), BuildingType: "inhibitor"},
		model.ChampionKillEvent{Base: base(700), KillerTeamID: model.SideBlue},
		model.EpicMonsterKillEvent{Base: base(800), MonsterType: "dragon", DragonType: "ocean"},
		model.EpicMonsterKillEvent{Base: base(900), MonsterType: "dragon", DragonType: "elder"},
		model.EpicMonsterKillEvent{Base: base(950), MonsterType: "riftHerald"},
		model.EpicMonsterKillEvent{Base: base(990), MonsterType: "baron"},
		model.EpicMonsterKillEvent{Base: base(995), MonsterType: "scuttle"},
		model.StatsUpdateEvent{Base: base(1000)},
		model.UnknownEvent{Base: base(1100), Type: "ward_placed"},
		model.GameEndEvent{Base: base(1200), WinningTeam: model.SideRed},
	}

	set, err := Classify(events)
	require.NoError(t, err)
	assert.Equal(t, "g1", set.GameInfo.PlatformGameID, "first game_info wins")
	assert.Len(t, set.TurretsDestroyed, 1)
	assert.Len(t, set.ChampionKills, 1)
	assert.Len(t, set.DragonKills, 1)
	assert.Len(t, set.ElderKills, 1)
	assert.Len(t, set.HeraldKills, 1)
	assert.Len(t, set.BaronKills, 1)
	assert.Len(t, set.Snapshots, 1)
	assert.Equal(t, model.SideRed, set.GameEnd.WinningTeam)
	assert.Equal(t, 3, set.Dropped, "inhibitor, scuttle and unknown")
}

func TestClassifyMissingFacts(t *testing.T) {
	_, err := Classify([]model.RawEvent{model.ChampionKillEvent{}})
	assert.ErrorIs(t, err, model.ErrMissingRequiredFact)

	_, err = Classify([]model.RawEvent{model.GameInfoEvent{PlatformGameID: "g"}})
	assert.ErrorIs(t, err, model.ErrMissingRequiredFact)
}

func TestOpenEventLogCompressed(t *testing.T) {
	dir := t.TempDir()

	gz, err := os.Create(filepath.Join(dir, "gz_game.json.gz"))
	require.NoError(t, err)
	zw := gzip.NewWriter(gz)
	_, err = zw.Write([]byte(sampleLog))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, gz.Close())

	zs, err := os.Create(filepath.Join(dir, "zst_game.json.zst"))
	require.NoError(t, err)
	enc, err := zstd.NewWriter(zs)
	require.NoError(t, err)
	_, err = enc.Write([]byte(sampleLog))
	require.NoError(t, err)
	require.NoError(t, enc.Close())
	require.NoError(t, zs.Close())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "plain.json"), []byte(sampleLog), 0o644))

	for _, id := range []string{"gz_game", "zst_game", "plain"} {
		set, err := ParseEventLog(dir, id)
		require.NoError(t, err, id)
		assert.Equal(t, "ESPORTSTMNT01_1", set.GameInfo.PlatformGameID, id)
		assert.Len(t, set.ChampionKills, 1, id)
	}

	_, err = OpenEventLog(dir, "missing")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
