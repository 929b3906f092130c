// Package config holds the tunable parameters of extraction and rating.
package config

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

// Config is the root of ratings.yaml.
type Config struct {
	Extraction ExtractionConf        `yaml:"extraction"`
	OP         OPConf                `yaml:"op_champions"`
	Rating     RatingConf            `yaml:"rating"`
	Regions    map[string]RegionConf `yaml:"regions"` // keyed by league name
}

type ExtractionConf struct {
	Checkpoints []int `yaml:"checkpoints"` // seconds
	Workers     int   `yaml:"workers"`
}

// OPConf thresholds are exclusive lower bounds.
type OPConf struct {
	PickShare float64 `yaml:"pick_share"` // of tournament games
	WinRate   float64 `yaml:"win_rate"`   // percent
	TeamShare float64 `yaml:"team_share"` // of participating teams
}

// Era selects a base K for games played strictly after From.
type Era struct {
	From string  `yaml:"from"`
	K    float64 `yaml:"k"`

	from time.Time
}

type RatingConf struct {
	BaseK                float64            `yaml:"base_k"` // before the first era
	Eras                 []Era              `yaml:"eras"`
	TournamentK          map[string]float64 `yaml:"tournament_k"` // slug -> K
	InternationalLeagues []string           `yaml:"international_leagues"`
	Bonuses              Bonuses            `yaml:"bonuses"`
}

type Bonuses struct {
	OPChampion    float64 `yaml:"op_champion"`
	GoldDiffHigh  int     `yaml:"gold_diff_high"`
	GoldDiffHighK float64 `yaml:"gold_diff_high_k"`
	GoldDiffLow   int     `yaml:"gold_diff_low"`
	GoldDiffLowK  float64 `yaml:"gold_diff_low_k"`
	FirstBlood    float64 `yaml:"first_blood"`
	FirstTurret   float64 `yaml:"first_turret"`
	FirstDragon   float64 `yaml:"first_dragon"`
	FirstHerald   float64 `yaml:"first_herald"`
	FirstBaron    float64 `yaml:"first_baron"`
	KDThreshold   float64 `yaml:"kd_threshold"`
	KD            float64 `yaml:"kd"`
	VisionDivisor int     `yaml:"vision_divisor"`
	DamageDivisor int     `yaml:"damage_divisor"`
	RedSideWin    float64 `yaml:"red_side_win"`
	ShortGameSec  float64 `yaml:"short_game_sec"`
	ShortGameK    float64 `yaml:"short_game_k"`
	MediumGameSec float64 `yaml:"medium_game_sec"`
	MediumGameK   float64 `yaml:"medium_game_k"`
}

type RegionConf struct {
	BaseRating float64 `yaml:"base_rating"`
	Weight     float64 `yaml:"weight"`
}

// Default returns the built-in parameter set.
func Default() *Config {
	return &Config{
		Extraction: ExtractionConf{
			Checkpoints: []int{300, 600, 900},
			Workers:     8,
		},
		OP: OPConf{PickShare: 0.20, WinRate: 50, TeamShare: 0.25},
		Rating: RatingConf{
			BaseK: 80,
			Eras: []Era{
				{From: "2022-05-10", K: 50}, // MSI 2022
				{From: "2022-09-29", K: 30}, // Worlds 2022
			},
			TournamentK: map[string]float64{
				"msi_2022":    60,
				"worlds_2022": 60,
				"msi_2023":    40,
			},
			InternationalLeagues: []string{"Worlds", "MSI"},
			Bonuses: Bonuses{
				OPChampion:    2,
				GoldDiffHigh:  10000,
				GoldDiffHighK: 8,
				GoldDiffLow:   5000,
				GoldDiffLowK:  4,
				FirstBlood:    2,
				FirstTurret:   2,
				FirstDragon:   3,
				FirstHerald:   2,
				FirstBaron:    4,
				KDThreshold:   1.5,
				KD:            5,
				VisionDivisor: 10,
				DamageDivisor: 10000,
				RedSideWin:    4,
				ShortGameSec:  1500,
				ShortGameK:    6,
				MediumGameSec: 1800,
				MediumGameK:   3,
			},
		},
		Regions: map[string]RegionConf{
			"LPL":   {BaseRating: 1500, Weight: 1.0},
			"LCK":   {BaseRating: 1500, Weight: 1.0},
			"LEC":   {BaseRating: 1400, Weight: 0.9},
			"LCS":   {BaseRating: 1350, Weight: 0.85},
			"PCS":   {BaseRating: 1250, Weight: 0.75},
			"VCS":   {BaseRating: 1250, Weight: 0.75},
			"CBLOL": {BaseRating: 1150, Weight: 0.65},
			"LJL":   {BaseRating: 1150, Weight: 0.65},
			"TCL":   {BaseRating: 1150, Weight: 0.65},
			"LLA":   {BaseRating: 1100, Weight: 0.6},
			"LCO":   {BaseRating: 1100, Weight: 0.6},
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if cfg.Extraction.Workers <= 0 {
		cfg.Extraction.Workers = 8
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the parameter set and resolves era dates.
func (c *Config) Validate() error {
	for i := range c.Rating.Eras {
		t, err := time.Parse(dateLayout, c.Rating.Eras[i].From)
		if err != nil {
			return fmt.Errorf("rating.eras[%d].from: %w", i, err)
		}
		c.Rating.Eras[i].from = t
	}
	sort.SliceStable(c.Rating.Eras, func(i, j int) bool {
		return c.Rating.Eras[i].from.Before(c.Rating.Eras[j].from)
	})
	if c.Rating.Bonuses.VisionDivisor <= 0 || c.Rating.Bonuses.DamageDivisor <= 0 {
		return fmt.Errorf("rating.bonuses: divisors must be positive")
	}
	for name, r := range c.Regions {
		if r.Weight <= 0 {
			return fmt.Errorf("regions.%s: weight must be positive", name)
		}
	}
	for _, cp := range c.Extraction.Checkpoints {
		if cp <= 0 {
			return fmt.Errorf("extraction.checkpoints: %d is not a positive second offset", cp)
		}
	}
	return nil
}

// BaseKFor returns the era K for a game played on date in tournament slug.
// Eras compare calendar days; tournament overrides win over the date table.
func (r *RatingConf) BaseKFor(date time.Time, slug string) float64 {
	if k, ok := r.TournamentK[slug]; ok {
		return k
	}
	y, m, d := date.UTC().Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	k := r.BaseK
	for _, e := range r.Eras {
		if e.from.IsZero() {
			e.from, _ = time.Parse(dateLayout, e.From)
		}
		if day.After(e.from) {
			k = e.K
		}
	}
	return k
}

// IsInternational reports whether league is a cross-region event.
func (r *RatingConf) IsInternational(league string) bool {
	for _, l := range r.InternationalLeagues {
		if l == league {
			return true
		}
	}
	return false
}
