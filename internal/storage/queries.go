package storage

import (
	"database/sql"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/chakrakan/lol-esports-predictions/internal/model"
)

// UpsertTournament inserts or replaces a tournament record.
func (db *DB) UpsertTournament(t model.Tournament) error {
	stages, err := json.Marshal(t.Stages)
	if err != nil {
		return fmt.Errorf("encode stages: %w", err)
	}
	_, err = db.conn.Exec(`
		INSERT OR REPLACE INTO tournaments(id, league_id, slug, name, start_date, end_date, stages)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.LeagueID, t.Slug, t.Name, formatDate(t.StartDate), formatDate(t.EndDate), string(stages),
	)
	return err
}

// ReplaceTournamentMatches swaps a tournament's stored matches for ms in one
// transaction, so a re-extraction never leaves games from an earlier run.
func (db *DB) ReplaceTournamentMatches(tournamentID string, ms []model.Match) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM matches WHERE tournament_id = ?`, tournamentID); err != nil {
		return fmt.Errorf("clear matches: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO matches(
			game_id, platform_game_id, league_id, tournament_id, tournament_slug,
			stage_name, stage_index, section_name, game_number, game_date,
			duration_sec, patch,
			blue_team_id, blue_team_name, red_team_id, red_team_name, winner,
			first_blood, first_turret, first_turret_lane, first_dragon, first_dragon_type,
			first_herald, first_baron, dragon_soul, dragon_soul_type, first_elder,
			blue_dragons, red_dragons, blue_barons, red_barons,
			draft, snapshots
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range ms {
		m := &ms[i]
		draft, err := json.Marshal(m.Draft)
		if err != nil {
			return fmt.Errorf("encode draft for %s: %w", m.GameID, err)
		}
		snaps, err := json.Marshal(m.Snapshots)
		if err != nil {
			return fmt.Errorf("encode snapshots for %s: %w", m.GameID, err)
		}
		_, err = stmt.Exec(
			m.GameID, m.PlatformGameID, m.LeagueID, m.TournamentID, m.TournamentSlug,
			m.StageName, m.StageIndex, m.SectionName, m.GameNumber, formatTime(m.Date),
			m.DurationSec, m.Patch,
			m.BlueTeamID, m.BlueTeamName, m.RedTeamID, m.RedTeamName, int(m.Winner),
			int(m.FirstBlood), int(m.FirstTurret), int(m.FirstTurretLane), int(m.FirstDragon), int(m.FirstDragonType),
			int(m.FirstHerald), int(m.FirstBaron), int(m.DragonSoul), int(m.DragonSoulType), int(m.FirstElder),
			m.BlueDragons, m.RedDragons, m.BlueBarons, m.RedBarons,
			string(draft), string(snaps),
		)
		if err != nil {
			return fmt.Errorf("insert match %s: %w", m.GameID, err)
		}
	}
	return tx.Commit()
}

const matchColumns = `
	game_id, platform_game_id, league_id, tournament_id, tournament_slug,
	stage_name, stage_index, section_name, game_number, game_date,
	duration_sec, patch,
	blue_team_id, blue_team_name, red_team_id, red_team_name, winner,
	first_blood, first_turret, first_turret_lane, first_dragon, first_dragon_type,
	first_herald, first_baron, dragon_soul, dragon_soul_type, first_elder,
	blue_dragons, red_dragons, blue_barons, red_barons,
	draft, snapshots`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(r rowScanner) (model.Match, error) {
	var m model.Match
	var date, draft, snaps string
	var winner, fb, ft, ftLane, fd, fdType, fh, fbar, soul, soulType, elder int
	err := r.Scan(
		&m.GameID, &m.PlatformGameID, &m.LeagueID, &m.TournamentID, &m.TournamentSlug,
		&m.StageName, &m.StageIndex, &m.SectionName, &m.GameNumber, &date,
		&m.DurationSec, &m.Patch,
		&m.BlueTeamID, &m.BlueTeamName, &m.RedTeamID, &m.RedTeamName, &winner,
		&fb, &ft, &ftLane, &fd, &fdType,
		&fh, &fbar, &soul, &soulType, &elder,
		&m.BlueDragons, &m.RedDragons, &m.BlueBarons, &m.RedBarons,
		&draft, &snaps,
	)
	if err != nil {
		return m, err
	}
	m.Date = parseTime(date)
	m.Winner = model.Side(winner)
	m.FirstBlood = model.Side(fb)
	m.FirstTurret = model.Side(ft)
	m.FirstTurretLane = model.Lane(ftLane)
	m.FirstDragon = model.Side(fd)
	m.FirstDragonType = model.DragonType(fdType)
	m.FirstHerald = model.Side(fh)
	m.FirstBaron = model.Side(fbar)
	m.DragonSoul = model.Side(soul)
	m.DragonSoulType = model.DragonType(soulType)
	m.FirstElder = model.Side(elder)
	if err := json.Unmarshal([]byte(draft), &m.Draft); err != nil {
		return m, fmt.Errorf("decode draft for %s: %w", m.GameID, err)
	}
	if err := json.Unmarshal([]byte(snaps), &m.Snapshots); err != nil {
		return m, fmt.Errorf("decode snapshots for %s: %w", m.GameID, err)
	}
	return m, nil
}

// TournamentMatches returns a tournament's matches in rating order: stage
// index, then date, then game number.
func (db *DB) TournamentMatches(tournamentID string) ([]model.Match, error) {
	rows, err := db.conn.Query(`SELECT `+matchColumns+`
		FROM matches WHERE tournament_id = ?
		ORDER BY stage_index, game_date, game_number, game_id`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetMatchByPrefix finds the first match whose game id or platform id starts with prefix.
func (db *DB) GetMatchByPrefix(prefix string) (*model.Match, error) {
	row := db.conn.QueryRow(`SELECT `+matchColumns+`
		FROM matches WHERE game_id LIKE ? OR platform_game_id LIKE ?
		ORDER BY game_date LIMIT 1`, prefix+"%", prefix+"%")
	m, err := scanMatch(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ChainTournaments returns tournaments with stored matches in ascending start
// date order. An empty leagueID spans every league.
func (db *DB) ChainTournaments(leagueID string) ([]model.Tournament, error) {
	query := `
		SELECT t.id, t.league_id, t.slug, t.name, t.start_date, t.end_date, t.stages
		FROM tournaments t
		WHERE EXISTS (SELECT 1 FROM matches m WHERE m.tournament_id = t.id)`
	var args []any
	if leagueID != "" {
		query += ` AND t.league_id = ?`
		args = append(args, leagueID)
	}
	query += ` ORDER BY t.start_date, t.id`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Tournament
	for rows.Next() {
		t, err := scanTournament(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTournament(r rowScanner) (model.Tournament, error) {
	var t model.Tournament
	var start, end, stages string
	if err := r.Scan(&t.ID, &t.LeagueID, &t.Slug, &t.Name, &start, &end, &stages); err != nil {
		return t, err
	}
	t.StartDate = parseDate(start)
	t.EndDate = parseDate(end)
	if err := json.Unmarshal([]byte(stages), &t.Stages); err != nil {
		return t, fmt.Errorf("decode stages for %s: %w", t.ID, err)
	}
	return t, nil
}

// GetTournament looks a stored tournament up by id or slug; nil when absent.
func (db *DB) GetTournament(idOrSlug string) (*model.Tournament, error) {
	row := db.conn.QueryRow(`
		SELECT id, league_id, slug, name, start_date, end_date, stages
		FROM tournaments WHERE id = ? OR slug = ? LIMIT 1`, idOrSlug, idOrSlug)
	t, err := scanTournament(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// TournamentSummary is a tournament with its stored game and team counts.
type TournamentSummary struct {
	model.Tournament
	Games int
	Teams int
}

// ListTournaments returns every stored tournament ordered by start date.
func (db *DB) ListTournaments() ([]TournamentSummary, error) {
	rows, err := db.conn.Query(`
		WITH sides AS (
			SELECT tournament_id, blue_team_id AS team FROM matches
			UNION
			SELECT tournament_id, red_team_id FROM matches
		),
		team_counts AS (SELECT tournament_id, COUNT(1) AS n FROM sides GROUP BY tournament_id),
		game_counts AS (SELECT tournament_id, COUNT(1) AS n FROM matches GROUP BY tournament_id)
		SELECT t.id, t.league_id, t.slug, t.name, t.start_date, t.end_date, t.stages,
		       COALESCE(g.n, 0), COALESCE(c.n, 0)
		FROM tournaments t
		LEFT JOIN game_counts g ON g.tournament_id = t.id
		LEFT JOIN team_counts c ON c.tournament_id = t.id
		ORDER BY t.start_date, t.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TournamentSummary
	for rows.Next() {
		var s TournamentSummary
		var start, end, stages string
		if err := rows.Scan(&s.ID, &s.LeagueID, &s.Slug, &s.Name, &start, &end, &stages, &s.Games, &s.Teams); err != nil {
			return nil, err
		}
		s.StartDate = parseDate(start)
		s.EndDate = parseDate(end)
		if err := json.Unmarshal([]byte(stages), &s.Stages); err != nil {
			return nil, fmt.Errorf("decode stages for %s: %w", s.ID, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// TournamentTeams returns the distinct team ids that played in a tournament,
// or in the stage at stageIndex when stageIndex >= 0.
func (db *DB) TournamentTeams(tournamentID string, stageIndex int) ([]string, error) {
	query := `
		SELECT team FROM (
			SELECT blue_team_id AS team, stage_index FROM matches WHERE tournament_id = ?
			UNION ALL
			SELECT red_team_id, stage_index FROM matches WHERE tournament_id = ?)`
	args := []any{tournamentID, tournamentID}
	if stageIndex >= 0 {
		query += ` WHERE stage_index = ?`
		args = append(args, stageIndex)
	}
	query += ` GROUP BY team ORDER BY team`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// DeleteTournament removes a tournament and, by cascade, its matches.
// It returns the number of tournaments deleted.
func (db *DB) DeleteTournament(idOrSlug string) (int64, error) {
	res, err := db.conn.Exec(`DELETE FROM tournaments WHERE id = ? OR slug = ?`, idOrSlug, idOrSlug)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MatchesByTournament loads the matches of several tournaments in one query,
// keyed by tournament id and ordered as TournamentMatches orders them.
func (db *DB) MatchesByTournament(tournamentIDs []string) (map[string][]model.Match, error) {
	out := make(map[string][]model.Match, len(tournamentIDs))
	if len(tournamentIDs) == 0 {
		return out, nil
	}
	args := make([]any, len(tournamentIDs))
	for i, id := range tournamentIDs {
		args[i] = id
	}
	rows, err := db.conn.Query(`SELECT `+matchColumns+`
		FROM matches WHERE tournament_id IN (`+placeholders(len(args))+`)
		ORDER BY tournament_id, stage_index, game_date, game_number, game_id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out[m.TournamentID] = append(out[m.TournamentID], m)
	}
	return out, rows.Err()
}
