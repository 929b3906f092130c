// Package metrics holds the pipeline counters. Each run owns its registry so
// repeated runs in one process (and tests) never collide.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Skip reasons.
const (
	ReasonMissingFact      = "missing_fact"
	ReasonMissingSnapshots = "missing_snapshots"
	ReasonEventLog         = "event_log"
	ReasonOther            = "other"
)

type Metrics struct {
	Registry *prometheus.Registry

	GamesExtracted *prometheus.CounterVec
	GamesSkipped   *prometheus.CounterVec
	ExtractLatency prometheus.Histogram

	StagesRated  *prometheus.CounterVec
	MatchesRated *prometheus.CounterVec
	TeamsRated   prometheus.Gauge
	KFactor      prometheus.Histogram
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,

		GamesExtracted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lolrank_games_extracted_total",
			Help: "Games turned into feature records, labelled by tournament slug.",
		}, []string{"tournament"}),

		GamesSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lolrank_games_skipped_total",
			Help: "Games dropped during extraction, labelled by reason.",
		}, []string{"reason"}),

		ExtractLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "lolrank_extract_duration_ms",
			Help:    "Per-game decode, classify and extract latency in milliseconds.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}),

		StagesRated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lolrank_stages_rated_total",
			Help: "Stage snapshots emitted, labelled by scope.",
		}, []string{"scope"}),

		MatchesRated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lolrank_matches_rated_total",
			Help: "Elo updates applied, labelled by scope.",
		}, []string{"scope"}),

		TeamsRated: f.NewGauge(prometheus.GaugeOpts{
			Name: "lolrank_teams_rated",
			Help: "Teams in the rating state after the last stage.",
		}),

		KFactor: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "lolrank_k_factor",
			Help:    "Distribution of applied K-factors.",
			Buckets: []float64{20, 30, 40, 50, 60, 70, 80, 100, 120},
		}),
	}
}

// WriteFile dumps the registry in text exposition format, for node_exporter's
// textfile collector.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
