package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/chakrakan/lol-esports-predictions/internal/config"
	"github.com/chakrakan/lol-esports-predictions/internal/metrics"
	"github.com/chakrakan/lol-esports-predictions/internal/rating"
	"github.com/chakrakan/lol-esports-predictions/internal/refdata"
	"github.com/chakrakan/lol-esports-predictions/internal/storage"
)

var (
	dbPath      string
	dataDir     string
	configPath  string
	metricsFile string
	verbose     bool

	cfg *config.Config
	reg = metrics.New()
)

var (
	cOK    = color.New(color.FgGreen)
	cWarn  = color.New(color.FgYellow)
	cErr   = color.New(color.FgRed, color.Bold)
	cMuted = color.New(color.Faint)
	cHead  = color.New(color.FgCyan, color.Bold)
)

var rootCmd = &cobra.Command{
	Use:   "lolrank",
	Short: "LoL esports match features and Elo power rankings",
	Long: `Extract per-game feature records from LoL esports event logs, detect
over-performing champions per tournament and fold every tournament stage into
an Elo rating chain that can be queried per tournament, league or globally.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: flushMetrics,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		cErr.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// A missing .env is normal; the process environment still applies.
	_ = godotenv.Load()

	defaultDB := envOr("LOLRANK_DB", filepath.Join(mustUserHome(), ".lolrank", "rankings.db"))
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "path to SQLite database (env LOLRANK_DB)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", envOr("LOLRANK_DATA", "esports-data"), "reference data directory with leagues/teams/tournaments/mapping_data JSON (env LOLRANK_DATA)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("LOLRANK_CONFIG"), "YAML file overriding rating and extraction parameters")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(opCmd)
	rootCmd.AddCommand(rateCmd)
	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(shellCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

func flushMetrics(cmd *cobra.Command, args []string) error {
	if metricsFile == "" {
		return nil
	}
	if err := reg.WriteFile(metricsFile); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func mustUserHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// openDB opens the store, creating its directory on first use.
func openDB() (*storage.DB, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return db, nil
}

func loadCatalog() (*refdata.Catalog, error) {
	cat, err := refdata.Load(dataDir, cfg.Rating.InternationalLeagues)
	if err != nil {
		return nil, fmt.Errorf("load reference data: %w", err)
	}
	return cat, nil
}

// resolveLeague accepts a league id, slug or name and returns its id.
func resolveLeague(cat *refdata.Catalog, s string) (string, error) {
	if s == "" {
		return "", nil
	}
	if l, ok := cat.League(s); ok {
		return l.ID, nil
	}
	if l, ok := cat.LeagueByName(s); ok {
		return l.ID, nil
	}
	return "", fmt.Errorf("unknown league %q", s)
}

func validScope(scope string) error {
	switch scope {
	case rating.ScopeLeague, rating.ScopeGlobal:
		return nil
	}
	return fmt.Errorf("scope must be %q or %q, got %q", rating.ScopeLeague, rating.ScopeGlobal, scope)
}
