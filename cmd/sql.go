package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chakrakan/lol-esports-predictions/internal/report"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the rankings database",
	Long: `Run an arbitrary SQL query against the rankings database and print results as a table.

Schema overview:
  tournaments(id, league_id, slug, name, start_date, end_date, stages JSON)
  matches(game_id, platform_game_id, league_id, tournament_id, tournament_slug,
    stage_name, stage_index, section_name, game_number, game_date, duration_sec, patch,
    blue_team_id, blue_team_name, red_team_id, red_team_name, winner (100/200),
    first_blood, first_turret, first_turret_lane, first_dragon, first_dragon_type,
    first_herald, first_baron, dragon_soul, dragon_soul_type, first_elder,
    blue_dragons, red_dragons, blue_barons, red_barons, draft JSON, snapshots JSON)
  rating_snapshots(scope, league_id, tournament_id, tournament_slug, stage_name,
    stage_index, seq, run_id, position, team_id, team_name, rating)
  rating_runs(id, scope, league_id, started_at, finished_at, status, stages,
    last_checkpoint, error)

Sides are stored as 100 (blue), 200 (red) and 0 (did not happen).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return nil
	}

	report.PrintRows(os.Stdout, cols, rows)
	fmt.Fprintf(os.Stdout, "\n(%d rows)\n", len(rows))
	return nil
}
