package model

import "time"

// RawEvent is one entry of a game's event log. The set of implementations is
// closed: only types in this package satisfy it.
type RawEvent interface {
	// GameTimeMs is the elapsed in-game time in milliseconds.
	GameTimeMs() int64
	rawEvent()
}

// Event type tags as they appear in the source logs.
const (
	TypeGameInfo          = "game_info"
	TypeBuildingDestroyed = "building_destroyed"
	TypeChampionKill      = "champion_kill"
	TypeEpicMonsterKill   = "epic_monster_kill"
	TypeStatsUpdate       = "stats_update"
	TypeGameEnd           = "game_end"
)

// Base carries the fields common to every event.
type Base struct {
	EventTime time.Time
	GameTime  int64 // ms
	Sequence  int   // position in the source log
}

func (b Base) GameTimeMs() int64 { return b.GameTime }

// ParticipantInfo is a roster entry from the game_info event.
type ParticipantInfo struct {
	ParticipantID int
	TeamID        Side
	Name          string
	ChampionName  string
}

type GameInfoEvent struct {
	Base
	PlatformGameID string
	GameVersion    string
	Participants   []ParticipantInfo
}

type BuildingDestroyedEvent struct {
	Base
	BuildingType string // "turret", "inhibitor", ...
	TurretTier   string // "outer", "inner", "base", "nexus"
	Lane         string
	TeamID       Side // owner of the destroyed building, not the attacker
	KillerTeamID Side
}

type ChampionKillEvent struct {
	Base
	KillerID     int
	VictimID     int
	KillerTeamID Side
	VictimTeamID Side
	Assistants   []int
}

type EpicMonsterKillEvent struct {
	Base
	MonsterType  string // "dragon", "baron", "riftHerald"
	DragonType   string // "fire", "water", ..., "elder"
	KillerTeamID Side
}

// ParticipantSnapshot is one participant's state inside a stats_update event.
type ParticipantSnapshot struct {
	ParticipantID int
	TeamID        Side
	Name          string
	ChampionName  string
	Level         int
	XP            int
	TotalGold     int
	Stats         map[string]float64
}

type StatsUpdateEvent struct {
	Base
	Participants []ParticipantSnapshot
}

type GameEndEvent struct {
	Base
	WinningTeam Side // SideNone when the log does not declare one
}

// UnknownEvent holds any event type the classifier does not consume.
type UnknownEvent struct {
	Base
	Type string
}

func (GameInfoEvent) rawEvent()          {}
func (BuildingDestroyedEvent) rawEvent() {}
func (ChampionKillEvent) rawEvent()      {}
func (EpicMonsterKillEvent) rawEvent()   {}
func (StatsUpdateEvent) rawEvent()       {}
func (GameEndEvent) rawEvent()           {}
func (UnknownEvent) rawEvent()           {}

// ClassifiedEventSet groups one game's events by category. Every slice keeps
// the order of the source log.
type ClassifiedEventSet struct {
	GameInfo         *GameInfoEvent
	GameEnd          *GameEndEvent // last game_end seen, nil if absent
	TurretsDestroyed []BuildingDestroyedEvent
	ChampionKills    []ChampionKillEvent
	DragonKills      []EpicMonsterKillEvent // elemental dragons only
	ElderKills       []EpicMonsterKillEvent
	BaronKills       []EpicMonsterKillEvent
	HeraldKills      []EpicMonsterKillEvent
	Snapshots        []StatsUpdateEvent
	Dropped          int
}
