package parser

import (
	"fmt"
	"strings"

	"github.com/chakrakan/lol-esports-predictions/internal/model"
)

// Monster species tags.
const (
	monsterDragon  = "dragon"
	monsterBaron   = "baron"
	monsterHerald  = "riftherald"
	dragonElder    = "elder"
	buildingTurret = "turret"
)

// Classify buckets a game's events in a single pass. Source order is trusted
// as chronological and preserved within every bucket.
func Classify(events []model.RawEvent) (*model.ClassifiedEventSet, error) {
	set := &model.ClassifiedEventSet{}

	for _, ev := range events {
		switch e := ev.(type) {
		case model.GameInfoEvent:
			if set.GameInfo == nil {
				info := e
				set.GameInfo = &info
			}
		case model.BuildingDestroyedEvent:
			if strings.EqualFold(e.BuildingType, buildingTurret) {
				set.TurretsDestroyed = append(set.TurretsDestroyed, e)
			} else {
				set.Dropped++
			}
		case model.ChampionKillEvent:
			set.ChampionKills = append(set.ChampionKills, e)
		case model.EpicMonsterKillEvent:
			classifyMonster(set, e)
		case model.StatsUpdateEvent:
			set.Snapshots = append(set.Snapshots, e)
		case model.GameEndEvent:
			end := e
			set.GameEnd = &end
		case model.UnknownEvent:
			set.Dropped++
		default:
			panic(fmt.Sprintf("parser: unhandled event type %T", ev))
		}
	}

	if set.GameInfo == nil {
		return set, fmt.Errorf("no game_info event: %w", model.ErrMissingRequiredFact)
	}
	if len(set.ChampionKills) == 0 {
		return set, fmt.Errorf("no champion kills, first blood undeterminable: %w", model.ErrMissingRequiredFact)
	}
	return set, nil
}

func classifyMonster(set *model.ClassifiedEventSet, e model.EpicMonsterKillEvent) {
	switch strings.ToLower(e.MonsterType) {
	case monsterDragon:
		if strings.EqualFold(e.DragonType, dragonElder) {
			set.ElderKills = append(set.ElderKills, e)
			return
		}
		set.DragonKills = append(set.DragonKills, e)
	case "elder_dragon", "elderdragon":
		set.ElderKills = append(set.ElderKills, e)
	case monsterBaron:
		set.BaronKills = append(set.BaronKills, e)
	case monsterHerald, "herald":
		set.HeraldKills = append(set.HeraldKills, e)
	default:
		set.Dropped++
	}
}
