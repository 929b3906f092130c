// Package parser decodes raw game event logs and classifies their events.
package parser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/chakrakan/lol-esports-predictions/internal/model"
)

// logExtensions are tried in order when locating a game's event log.
var logExtensions = []string{".json", ".json.gz", ".json.zst"}

// OpenEventLog opens the event log for platformGameID under dir, transparently
// decompressing gzip and zstd files.
func OpenEventLog(dir, platformGameID string) (io.ReadCloser, error) {
	for _, ext := range logExtensions {
		path := filepath.Join(dir, platformGameID+ext)
		f, err := os.Open(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("open event log: %w", err)
		}
		switch ext {
		case ".json.gz":
			zr, err := gzip.NewReader(f)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("gzip %s: %w", path, err)
			}
			return &stackedCloser{Reader: zr, closers: []io.Closer{zr, f}}, nil
		case ".json.zst":
			zr, err := zstd.NewReader(f)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("zstd %s: %w", path, err)
			}
			return &stackedCloser{Reader: zr, closers: []io.Closer{zr.IOReadCloser(), f}}, nil
		default:
			return f, nil
		}
	}
	return nil, fmt.Errorf("event log for %s: %w", platformGameID, os.ErrNotExist)
}

type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedCloser) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ParseEventLog opens, decodes and classifies one game's log.
func ParseEventLog(dir, platformGameID string) (*model.ClassifiedEventSet, error) {
	rc, err := OpenEventLog(dir, platformGameID)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	events, err := DecodeEvents(rc)
	if err != nil {
		return nil, err
	}
	return Classify(events)
}

// ---- wire format ----

// flexInt accepts a JSON number, a numeric string or null.
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" || string(b) == "NaN" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("not a number: %s", b)
	}
	*f = flexInt(v)
	return nil
}

type wireEnvelope struct {
	EventType string  `json:"eventType"`
	EventTime string  `json:"eventTime"`
	GameTime  flexInt `json:"gameTime"`
}

type wireParticipant struct {
	ParticipantID  flexInt `json:"participantID"`
	TeamID         flexInt `json:"teamID"`
	SummonerName   string  `json:"summonerName"`
	PlayerName     string  `json:"playerName"`
	RiotIDGameName string  `json:"riotIdGameName"`
	ChampionName   string  `json:"championName"`
	Level          flexInt `json:"level"`
	XP             flexInt `json:"XP"`
	TotalGold      flexInt `json:"totalGold"`
	Stats          []struct {
		Name  string  `json:"name"`
		Value float64 `json:"value"`
	} `json:"stats"`
}

// name prefers the standard field and falls back to the regional schemas.
func (p wireParticipant) name() string {
	switch {
	case p.SummonerName != "":
		return p.SummonerName
	case p.PlayerName != "":
		return p.PlayerName
	default:
		return p.RiotIDGameName
	}
}

type wireGameInfo struct {
	PlatformGameID string            `json:"platformGameId"`
	GameVersion    string            `json:"gameVersion"`
	Participants   []wireParticipant `json:"participants"`
}

type wireBuilding struct {
	BuildingType string  `json:"buildingType"`
	TurretTier   string  `json:"turretTier"`
	Lane         string  `json:"lane"`
	TeamID       flexInt `json:"teamID"`
	KillerTeamID flexInt `json:"killerTeamID"`
}

type wireChampionKill struct {
	Killer       flexInt   `json:"killer"`
	Victim       flexInt   `json:"victim"`
	KillerTeamID flexInt   `json:"killerTeamID"`
	VictimTeamID flexInt   `json:"victimTeamID"`
	Assistants   []flexInt `json:"assistants"`
}

type wireMonster struct {
	MonsterType  string  `json:"monsterType"`
	DragonType   string  `json:"dragonType"`
	KillerTeamID flexInt `json:"killerTeamID"`
}

type wireStatsUpdate struct {
	Participants []wireParticipant `json:"participants"`
}

type wireGameEnd struct {
	WinningTeam flexInt `json:"winningTeam"`
}

// DecodeEvents reads a JSON array of events into the typed union. Events of
// unknown type become UnknownEvent values; malformed known events are errors.
func DecodeEvents(r io.Reader) ([]model.RawEvent, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode event log: %w", err)
	}

	events := make([]model.RawEvent, 0, len(raw))
	for i, msg := range raw {
		ev, err := decodeEvent(i, msg)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

func decodeEvent(seq int, msg json.RawMessage) (model.RawEvent, error) {
	var env wireEnvelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return nil, err
	}
	base := model.Base{GameTime: int64(env.GameTime), Sequence: seq}
	if t, err := time.Parse(time.RFC3339Nano, env.EventTime); err == nil {
		base.EventTime = t
	}

	switch env.EventType {
	case model.TypeGameInfo:
		var w wireGameInfo
		if err := json.Unmarshal(msg, &w); err != nil {
			return nil, err
		}
		ev := model.GameInfoEvent{Base: base, PlatformGameID: w.PlatformGameID, GameVersion: w.GameVersion}
		for _, p := range w.Participants {
			ev.Participants = append(ev.Participants, model.ParticipantInfo{
				ParticipantID: int(p.ParticipantID),
				TeamID:        model.Side(p.TeamID),
				Name:          p.name(),
				ChampionName:  p.ChampionName,
			})
		}
		return ev, nil

	case model.TypeBuildingDestroyed:
		var w wireBuilding
		if err := json.Unmarshal(msg, &w); err != nil {
			return nil, err
		}
		return model.BuildingDestroyedEvent{
			Base:         base,
			BuildingType: w.BuildingType,
			TurretTier:   w.TurretTier,
			Lane:         w.Lane,
			TeamID:       model.Side(w.TeamID),
			KillerTeamID: model.Side(w.KillerTeamID),
		}, nil

	case model.TypeChampionKill:
		var w wireChampionKill
		if err := json.Unmarshal(msg, &w); err != nil {
			return nil, err
		}
		ev := model.ChampionKillEvent{
			Base:         base,
			KillerID:     int(w.Killer),
			VictimID:     int(w.Victim),
			KillerTeamID: model.Side(w.KillerTeamID),
			VictimTeamID: model.Side(w.VictimTeamID),
		}
		for _, a := range w.Assistants {
			ev.Assistants = append(ev.Assistants, int(a))
		}
		return ev, nil

	case model.TypeEpicMonsterKill:
		var w wireMonster
		if err := json.Unmarshal(msg, &w); err != nil {
			return nil, err
		}
		return model.EpicMonsterKillEvent{
			Base:         base,
			MonsterType:  w.MonsterType,
			DragonType:   w.DragonType,
			KillerTeamID: model.Side(w.KillerTeamID),
		}, nil

	case model.TypeStatsUpdate:
		var w wireStatsUpdate
		if err := json.Unmarshal(msg, &w); err != nil {
			return nil, err
		}
		ev := model.StatsUpdateEvent{Base: base}
		for _, p := range w.Participants {
			ps := model.ParticipantSnapshot{
				ParticipantID: int(p.ParticipantID),
				TeamID:        model.Side(p.TeamID),
				Name:          p.name(),
				ChampionName:  p.ChampionName,
				Level:         int(p.Level),
				XP:            int(p.XP),
				TotalGold:     int(p.TotalGold),
				Stats:         make(map[string]float64, len(p.Stats)),
			}
			for _, s := range p.Stats {
				ps.Stats[s.Name] = s.Value
			}
			ev.Participants = append(ev.Participants, ps)
		}
		return ev, nil

	case model.TypeGameEnd:
		var w wireGameEnd
		if err := json.Unmarshal(msg, &w); err != nil {
			return nil, err
		}
		return model.GameEndEvent{Base: base, WinningTeam: model.Side(w.WinningTeam)}, nil

	default:
		return model.UnknownEvent{Base: base, Type: env.EventType}, nil
	}
}
