// Package extractor turns one game's classified events into a flat Match record.
package extractor

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/chakrakan/lol-esports-predictions/internal/model"
	"github.com/chakrakan/lol-esports-predictions/internal/refdata"
)

// Statistic names carried by stats_update participants.
const (
	statKills        = "CHAMPIONS_KILLED"
	statDeaths       = "NUM_DEATHS"
	statAssists      = "ASSISTS"
	statDmgChampions = "TOTAL_DAMAGE_DEALT_TO_CHAMPIONS"
	statDmgBuildings = "TOTAL_DAMAGE_DEALT_TO_BUILDINGS"
	statCCTime       = "TOTAL_TIME_CROWD_CONTROL_DEALT_TO_CHAMPIONS"
	statVision       = "VISION_SCORE"
	statMinions      = "MINIONS_KILLED"

	turretOuter = "outer"
	soulDragons = 4
)

// TeamDirectory resolves team display names.
type TeamDirectory interface {
	TeamName(id string) string
}

// Extractor is stateless apart from its configuration and may be shared
// between goroutines.
type Extractor struct {
	checkpoints []int
	teams       TeamDirectory
	log         *slog.Logger
}

// New returns an Extractor sampling snapshots at the given second offsets.
func New(checkpoints []int, teams TeamDirectory, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{checkpoints: checkpoints, teams: teams, log: log}
}

// Extract builds the Match record for one game.
func (x *Extractor) Extract(set *model.ClassifiedEventSet, ref refdata.GameRef) (*model.Match, error) {
	if set == nil || set.GameInfo == nil {
		return nil, fmt.Errorf("game %s: no game_info: %w", ref.GameID, model.ErrMissingRequiredFact)
	}
	if len(set.Snapshots) == 0 {
		return nil, fmt.Errorf("game %s: %w", ref.GameID, model.ErrMissingSnapshotData)
	}

	m := &model.Match{
		LeagueID:       ref.LeagueID,
		TournamentID:   ref.TournamentID,
		TournamentSlug: ref.TournamentSlug,
		StageName:      ref.StageName,
		StageIndex:     ref.StageIndex,
		SectionName:    ref.SectionName,
		GameID:         ref.GameID,
		PlatformGameID: ref.PlatformGameID,
		GameNumber:     ref.GameNumber,
		Date:           set.GameInfo.EventTime,
		Patch:          set.GameInfo.GameVersion,
	}

	if err := x.resolveSides(m, set, ref); err != nil {
		return nil, err
	}

	fb, ok := firstBlood(set.ChampionKills)
	if !ok {
		return nil, fmt.Errorf("game %s: no kill credited to a side: %w", ref.GameID, model.ErrMissingRequiredFact)
	}
	m.FirstBlood = fb
	m.FirstTurret, m.FirstTurretLane = firstTurret(set.TurretsDestroyed)
	applyDragons(m, set.DragonKills)
	m.FirstElder = firstTaker(set.ElderKills)
	m.FirstHerald = firstTaker(set.HeraldKills)
	m.FirstBaron = firstTaker(set.BaronKills)
	m.BlueBarons, m.RedBarons = countBySide(set.BaronKills)

	m.Draft = draft(set.GameInfo.Participants)
	m.Snapshots = x.snapshots(set.Snapshots)
	m.DurationSec = duration(set)
	return m, nil
}

// resolveSides fills team ids, names and the winner. Mapping ids are
// authoritative; the schedule only fills a side the mapping left empty. The
// event-declared winner wins over the schedule outcome when present.
func (x *Extractor) resolveSides(m *model.Match, set *model.ClassifiedEventSet, ref refdata.GameRef) error {
	m.BlueTeamID = firstNonEmpty(ref.MappingBlue, ref.TournamentBlue)
	m.RedTeamID = firstNonEmpty(ref.MappingRed, ref.TournamentRed)
	if m.BlueTeamID == "" || m.RedTeamID == "" {
		return fmt.Errorf("game %s: team ids unresolved: %w", ref.GameID, model.ErrMissingRequiredFact)
	}
	if x.teams != nil {
		m.BlueTeamName = x.teams.TeamName(m.BlueTeamID)
		m.RedTeamName = x.teams.TeamName(m.RedTeamID)
	}

	var declared model.Side
	if set.GameEnd != nil && set.GameEnd.WinningTeam.Valid() {
		declared = set.GameEnd.WinningTeam
	}
	scheduled := ref.TournamentWinner
	if !scheduled.Valid() {
		scheduled = model.SideNone
	}

	switch {
	case declared != model.SideNone:
		m.Winner = declared
		if scheduled != model.SideNone && scheduled != declared {
			x.log.Warn("winner source conflict",
				"game", ref.GameID,
				"platform_game", ref.PlatformGameID,
				"event_winner", declared.String(),
				"schedule_winner", scheduled.String(),
			)
		}
	case scheduled != model.SideNone:
		m.Winner = scheduled
	default:
		return fmt.Errorf("game %s: no winner from events or schedule: %w", ref.GameID, model.ErrMissingRequiredFact)
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstBlood(kills []model.ChampionKillEvent) (model.Side, bool) {
	for _, k := range kills {
		if k.KillerTeamID.Valid() {
			return k.KillerTeamID, true
		}
	}
	return model.SideNone, false
}

// firstTurret credits the side that did NOT own the first outer turret lost.
func firstTurret(turrets []model.BuildingDestroyedEvent) (model.Side, model.Lane) {
	for _, t := range turrets {
		if !strings.EqualFold(t.TurretTier, turretOuter) {
			continue
		}
		credited := t.TeamID.Opponent()
		if credited == model.SideNone {
			credited = t.KillerTeamID
		}
		if !credited.Valid() {
			continue
		}
		return credited, model.ParseLane(t.Lane)
	}
	return model.SideNone, model.LaneNone
}

func firstTaker(kills []model.EpicMonsterKillEvent) model.Side {
	for _, k := range kills {
		if k.KillerTeamID.Valid() {
			return k.KillerTeamID
		}
	}
	return model.SideNone
}

func countBySide(kills []model.EpicMonsterKillEvent) (blue, red int) {
	for _, k := range kills {
		switch k.KillerTeamID {
		case model.SideBlue:
			blue++
		case model.SideRed:
			red++
		}
	}
	return blue, red
}

// applyDragons sets first dragon, counts and soul. The soul goes to the first
// side to reach four drakes; its type is that side's most frequent drake, ties
// going to the type taken most recently.
func applyDragons(m *model.Match, dragons []model.EpicMonsterKillEvent) {
	m.FirstDragon = model.SideNone
	m.FirstDragonType = model.DragonUnknown
	m.DragonSoul = model.SideNone
	m.DragonSoulType = model.DragonUnknown

	type tally struct {
		count int
		last  int
	}
	perSide := map[model.Side]map[model.DragonType]*tally{
		model.SideBlue: {},
		model.SideRed:  {},
	}
	taken := map[model.Side]int{}

	for i, d := range dragons {
		side := d.KillerTeamID
		if !side.Valid() {
			continue
		}
		dt := model.ParseDragonType(d.DragonType)
		if m.FirstDragon == model.SideNone {
			m.FirstDragon = side
			m.FirstDragonType = dt
		}
		taken[side]++
		t := perSide[side][dt]
		if t == nil {
			t = &tally{}
			perSide[side][dt] = t
		}
		t.count++
		t.last = i
		if m.DragonSoul == model.SideNone && taken[side] >= soulDragons {
			m.DragonSoul = side
		}
	}
	m.BlueDragons, m.RedDragons = taken[model.SideBlue], taken[model.SideRed]

	if m.DragonSoul == model.SideNone {
		return
	}
	best, bestCount, bestLast := model.DragonUnknown, -1, -1
	for dt, t := range perSide[m.DragonSoul] {
		if t.count > bestCount || (t.count == bestCount && t.last > bestLast) {
			best, bestCount, bestLast = dt, t.count, t.last
		}
	}
	m.DragonSoulType = best
}

// draft maps participants onto ten slots in source order. Slots 1-5 are blue.
func draft(participants []model.ParticipantInfo) [10]model.DraftSlot {
	var slots [10]model.DraftSlot
	for i := range slots {
		side := model.SideBlue
		if i >= 5 {
			side = model.SideRed
		}
		slots[i] = model.DraftSlot{Slot: i + 1, Side: side, Role: model.Roles[i%5]}
	}
	for i, p := range participants {
		if i >= len(slots) {
			break
		}
		if p.TeamID.Valid() {
			slots[i].Side = p.TeamID
		}
		slots[i].Player = p.Name
		slots[i].Champion = p.ChampionName
	}
	return slots
}

// snapshots samples the configured checkpoints plus game end.
func (x *Extractor) snapshots(updates []model.StatsUpdateEvent) []model.Snapshot {
	out := make([]model.Snapshot, 0, len(x.checkpoints)+1)
	for _, cp := range x.checkpoints {
		i := nearest(updates, int64(cp)*1000)
		out = append(out, buildSnapshot(cp, updates[i]))
	}
	out = append(out, buildSnapshot(model.CheckpointGameEnd, updates[len(updates)-1]))
	return out
}

// nearest returns the index of the update whose game time is closest to
// targetMs. updates must be non-empty and ascending by game time. Ties resolve
// to the earlier update.
func nearest(updates []model.StatsUpdateEvent, targetMs int64) int {
	i := sort.Search(len(updates), func(i int) bool {
		return updates[i].GameTime >= targetMs
	})
	switch {
	case i == 0:
		return 0
	case i == len(updates):
		return len(updates) - 1
	}
	if updates[i].GameTime-targetMs < targetMs-updates[i-1].GameTime {
		return i
	}
	return i - 1
}

func buildSnapshot(checkpoint int, u model.StatsUpdateEvent) model.Snapshot {
	s := model.Snapshot{Checkpoint: checkpoint, GameTimeMs: u.GameTime}
	var filled [10]bool
	for pos, p := range u.Participants {
		idx := p.ParticipantID - 1
		if idx < 0 || idx >= len(s.Participants) {
			idx = pos
		}
		// First entry for a slot wins; team totals stay the sum of stored slots.
		if idx >= len(s.Participants) || filled[idx] {
			continue
		}
		filled[idx] = true
		st := participantStats(p)
		s.Participants[idx] = st

		side := p.TeamID
		if !side.Valid() {
			side = model.SideBlue
			if idx >= 5 {
				side = model.SideRed
			}
		}
		if side == model.SideRed {
			s.Red.Add(st)
		} else {
			s.Blue.Add(st)
		}
	}
	return s
}

func participantStats(p model.ParticipantSnapshot) model.Stats {
	return model.Stats{
		TotalGold:         p.TotalGold,
		Kills:             int(p.Stats[statKills]),
		Deaths:            int(p.Stats[statDeaths]),
		Assists:           int(p.Stats[statAssists]),
		DamageToChampions: p.Stats[statDmgChampions],
		DamageToBuildings: int(p.Stats[statDmgBuildings]),
		CrowdControlTime:  p.Stats[statCCTime],
		VisionScore:       p.Stats[statVision],
		MinionsKilled:     int(p.Stats[statMinions]),
		Level:             p.Level,
		XP:                p.XP,
	}
}

// duration prefers the game_end clock and falls back to the last snapshot.
func duration(set *model.ClassifiedEventSet) float64 {
	ms := set.Snapshots[len(set.Snapshots)-1].GameTime
	if set.GameEnd != nil && set.GameEnd.GameTime > 0 {
		ms = set.GameEnd.GameTime
	}
	return float64(ms) / 1000
}
