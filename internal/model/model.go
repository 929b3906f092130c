package model

import (
	"sort"
	"strings"
	"time"
)

// Side identifies one of the two teams on the map. SideNone is the explicit
// "did not happen" value for first-objective facts.
type Side int

const (
	SideNone Side = 0
	SideBlue Side = 100
	SideRed  Side = 200
)

func (s Side) String() string {
	switch s {
	case SideBlue:
		return "blue"
	case SideRed:
		return "red"
	default:
		return "-"
	}
}

// Valid reports whether s is blue or red.
func (s Side) Valid() bool { return s == SideBlue || s == SideRed }

// Opponent returns the other side; SideNone maps to itself.
func (s Side) Opponent() Side {
	switch s {
	case SideBlue:
		return SideRed
	case SideRed:
		return SideBlue
	default:
		return SideNone
	}
}

// Lane of a destroyed turret.
type Lane int

const (
	LaneUnknown Lane = -1
	LaneNone    Lane = 0
	LaneTop     Lane = 1
	LaneMid     Lane = 2
	LaneBot     Lane = 3
)

var laneByName = map[string]Lane{
	"top":    LaneTop,
	"mid":    LaneMid,
	"middle": LaneMid,
	"bot":    LaneBot,
	"bottom": LaneBot,
}

// ParseLane maps a lane name onto its ordinal. Unrecognised names yield LaneUnknown.
func ParseLane(name string) Lane {
	if l, ok := laneByName[strings.ToLower(name)]; ok {
		return l
	}
	return LaneUnknown
}

func (l Lane) String() string {
	switch l {
	case LaneTop:
		return "top"
	case LaneMid:
		return "mid"
	case LaneBot:
		return "bot"
	case LaneNone:
		return "-"
	default:
		return "unknown"
	}
}

// DragonType ranks elemental drakes by in-game power tier.
type DragonType int

const (
	DragonUnknown  DragonType = 0
	DragonCloud    DragonType = 1
	DragonOcean    DragonType = 2
	DragonChemtech DragonType = 3
	DragonHextech  DragonType = 4
	DragonMountain DragonType = 5
	DragonInfernal DragonType = 6
)

var dragonByName = map[string]DragonType{
	"air":      DragonCloud,
	"cloud":    DragonCloud,
	"water":    DragonOcean,
	"ocean":    DragonOcean,
	"chemtech": DragonChemtech,
	"hextech":  DragonHextech,
	"earth":    DragonMountain,
	"mountain": DragonMountain,
	"fire":     DragonInfernal,
	"infernal": DragonInfernal,
}

// ParseDragonType resolves a drake name. Unseen names yield DragonUnknown.
func ParseDragonType(name string) DragonType {
	return dragonByName[strings.ToLower(name)]
}

func (d DragonType) String() string {
	switch d {
	case DragonCloud:
		return "cloud"
	case DragonOcean:
		return "ocean"
	case DragonChemtech:
		return "chemtech"
	case DragonHextech:
		return "hextech"
	case DragonMountain:
		return "mountain"
	case DragonInfernal:
		return "infernal"
	default:
		return "unknown"
	}
}

// Roles for the ten draft slots; slots 0-4 are blue, 5-9 red.
var Roles = [5]string{"top", "jungle", "mid", "adc", "support"}

// DraftSlot is one participant's pick.
type DraftSlot struct {
	Slot     int    `json:"slot"` // 1..10
	Side     Side   `json:"side"`
	Role     string `json:"role"`
	Player   string `json:"player"`
	Champion string `json:"champion"`
}

// Stats is the fixed set of statistics captured per participant and per team.
type Stats struct {
	TotalGold         int     `json:"total_gold"`
	Kills             int     `json:"kills"`
	Deaths            int     `json:"deaths"`
	Assists           int     `json:"assists"`
	DamageToChampions float64 `json:"damage_to_champions"`
	DamageToBuildings int     `json:"damage_to_buildings"`
	CrowdControlTime  float64 `json:"cc_time"`
	VisionScore       float64 `json:"vision_score"`
	MinionsKilled     int     `json:"minions_killed"`
	Level             int     `json:"level"`
	XP                int     `json:"xp"`
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.TotalGold += o.TotalGold
	s.Kills += o.Kills
	s.Deaths += o.Deaths
	s.Assists += o.Assists
	s.DamageToChampions += o.DamageToChampions
	s.DamageToBuildings += o.DamageToBuildings
	s.CrowdControlTime += o.CrowdControlTime
	s.VisionScore += o.VisionScore
	s.MinionsKilled += o.MinionsKilled
	s.Level += o.Level
	s.XP += o.XP
}

// KDRatio treats zero deaths as one.
func (s Stats) KDRatio() float64 {
	d := s.Deaths
	if d == 0 {
		d = 1
	}
	return float64(s.Kills) / float64(d)
}

// CheckpointGameEnd labels the final snapshot.
const CheckpointGameEnd = -1

// Snapshot holds statistics located at one checkpoint.
type Snapshot struct {
	Checkpoint   int       `json:"checkpoint"` // seconds, or CheckpointGameEnd
	GameTimeMs   int64     `json:"game_time_ms"`
	Participants [10]Stats `json:"participants"`
	Blue         Stats     `json:"blue"`
	Red          Stats     `json:"red"`
}

// Team returns the aggregate for a side.
func (s *Snapshot) Team(side Side) Stats {
	if side == SideRed {
		return s.Red
	}
	return s.Blue
}

// Match is the flat feature record for one game.
type Match struct {
	LeagueID       string
	TournamentID   string
	TournamentSlug string
	StageName      string
	StageIndex     int
	SectionName    string
	GameID         string
	PlatformGameID string
	GameNumber     int
	Date           time.Time
	DurationSec    float64
	Patch          string

	BlueTeamID   string
	BlueTeamName string
	RedTeamID    string
	RedTeamName  string
	Winner       Side

	Draft [10]DraftSlot

	FirstBlood      Side
	FirstTurret     Side
	FirstTurretLane Lane
	FirstDragon     Side
	FirstDragonType DragonType
	FirstHerald     Side
	FirstBaron      Side
	DragonSoul      Side
	DragonSoulType  DragonType
	FirstElder      Side

	BlueDragons, RedDragons int
	BlueBarons, RedBarons   int

	Snapshots []Snapshot
}

// TeamID returns the team id playing on side.
func (m *Match) TeamID(side Side) string {
	if side == SideRed {
		return m.RedTeamID
	}
	return m.BlueTeamID
}

// TeamName returns the team name playing on side.
func (m *Match) TeamName(side Side) string {
	if side == SideRed {
		return m.RedTeamName
	}
	return m.BlueTeamName
}

// Champions returns the five champions drafted by side.
func (m *Match) Champions(side Side) []string {
	out := make([]string, 0, 5)
	for _, d := range m.Draft {
		if d.Side == side {
			out = append(out, d.Champion)
		}
	}
	return out
}

// Snapshot returns the snapshot recorded for checkpoint, or nil.
func (m *Match) Snapshot(checkpoint int) *Snapshot {
	for i := range m.Snapshots {
		if m.Snapshots[i].Checkpoint == checkpoint {
			return &m.Snapshots[i]
		}
	}
	return nil
}

// EndSnapshot returns the game-end snapshot, or nil.
func (m *Match) EndSnapshot() *Snapshot { return m.Snapshot(CheckpointGameEnd) }

// SortMatches orders matches by stage index, date and game number.
func SortMatches(ms []Match) {
	sort.SliceStable(ms, func(i, j int) bool {
		if ms[i].StageIndex != ms[j].StageIndex {
			return ms[i].StageIndex < ms[j].StageIndex
		}
		if !ms[i].Date.Equal(ms[j].Date) {
			return ms[i].Date.Before(ms[j].Date)
		}
		return ms[i].GameNumber < ms[j].GameNumber
	})
}

// ChampionStat is a champion's record within one tournament.
type ChampionStat struct {
	Champion string
	Played   int
	Won      int
	Teams    map[string]struct{}
}

// WinRate is a percentage.
func (c *ChampionStat) WinRate() float64 {
	if c.Played == 0 {
		return 0
	}
	return float64(c.Won) / float64(c.Played) * 100
}

// OPChampionStats is the per-tournament champion table plus the flagged set.
type OPChampionStats struct {
	TournamentID string
	TotalGames   int
	TeamCount    int
	Champions    map[string]*ChampionStat
	OP           map[string]bool
}

// IsOP reports whether champion was flagged.
func (o *OPChampionStats) IsOP(champion string) bool {
	if o == nil {
		return false
	}
	return o.OP[champion]
}

// OPList returns the flagged champions sorted by name.
func (o *OPChampionStats) OPList() []string {
	if o == nil {
		return nil
	}
	out := make([]string, 0, len(o.OP))
	for c := range o.OP {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Tournament is the chain-ordering view of a tournament.
type Tournament struct {
	ID        string
	LeagueID  string
	Slug      string
	Name      string
	StartDate time.Time
	EndDate   time.Time
	Stages    []string // declared order
}

// RatingRow is one line of a stage snapshot.
type RatingRow struct {
	TeamID   string
	TeamName string
	Rating   float64
}

// SnapshotKey identifies one emitted stage snapshot.
type SnapshotKey struct {
	Scope        string
	LeagueID     string
	TournamentID string
	Slug         string
	StageName    string
	StageIndex   int
}

// RatingSnapshot is the persisted state of a stage, sorted descending by rating.
type RatingSnapshot struct {
	Key  SnapshotKey
	Seq  int // position in the chain
	Rows []RatingRow
}

// RankEntry is a ranking query row.
type RankEntry struct {
	Rank     int     `json:"rank"`
	TeamName string  `json:"team_name"`
	TeamID   string  `json:"team_id"`
	TeamCode string  `json:"team_code"`
	Rating   float64 `json:"rating"`
}
