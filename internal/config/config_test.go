package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func TestBaseKFor(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	r := &cfg.Rating

	tests := []struct {
		name string
		when string
		slug string
		want float64
	}{
		{"before first era", "2022-02-01T10:00:00Z", "lck_spring_2022", 80},
		{"era start day is not after", "2022-05-10T23:30:00Z", "lck_summer_2022", 80},
		{"day after era start", "2022-05-11T01:00:00Z", "lck_summer_2022", 50},
		{"second era", "2022-10-01T00:00:00Z", "lcs_2022", 30},
		{"slug override", "2022-10-01T00:00:00Z", "worlds_2022", 60},
		{"override before eras", "2022-05-10T12:00:00Z", "msi_2022", 60},
		{"msi 2023", "2023-05-02T00:00:00Z", "msi_2023", 40},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, r.BaseKFor(date(tc.when), tc.slug))
		})
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratings.yaml")
	body := `
extraction:
  checkpoints: [600, 1200]
  workers: 0
rating:
  eras:
    - {from: "2023-01-01", k: 20}
    - {from: "2022-06-01", k: 40}
regions:
  LPL: {base_rating: 1600, weight: 1.1}
  LVP: {base_rating: 1000, weight: 0.5}
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []int{600, 1200}, cfg.Extraction.Checkpoints)
	assert.Equal(t, 8, cfg.Extraction.Workers)
	assert.Equal(t, 1600.0, cfg.Regions["LPL"].BaseRating)
	assert.Equal(t, 0.5, cfg.Regions["LVP"].Weight)
	assert.Equal(t, 1.0, cfg.Regions["LCK"].Weight, "unlisted regions keep defaults")

	// eras are sorted on load
	assert.Equal(t, "2022-06-01", cfg.Rating.Eras[0].From)
	assert.Equal(t, 40.0, cfg.Rating.BaseKFor(date("2022-07-01T00:00:00Z"), "x"))
	assert.Equal(t, 20.0, cfg.Rating.BaseKFor(date("2023-03-01T00:00:00Z"), "x"))

	assert.True(t, cfg.Rating.IsInternational("MSI"))
	assert.False(t, cfg.Rating.IsInternational("LCK"))
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"bad_era.yaml":    "rating:\n  eras:\n    - {from: \"May 2022\", k: 10}\n",
		"bad_weight.yaml": "regions:\n  LCK: {base_rating: 1500, weight: 0}\n",
		"bad_cp.yaml":     "extraction:\n  checkpoints: [0]\n",
	}
	for name, body := range cases {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		_, err := Load(path)
		assert.Error(t, err, name)
	}

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "read config")
}
