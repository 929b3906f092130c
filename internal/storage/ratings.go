package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chakrakan/lol-esports-predictions/internal/model"
)

// Rating run states.
const (
	RunRunning = "running"
	RunDone    = "done"
	RunFailed  = "failed"
)

// RatingRun records one invocation of a rating chain.
type RatingRun struct {
	ID             string
	Scope          string
	LeagueID       string
	StartedAt      time.Time
	FinishedAt     time.Time
	Status         string
	Stages         int
	LastCheckpoint string
	Error          string
}

// StartRun registers a new run and returns its id.
func (db *DB) StartRun(scope, leagueID string) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(`
		INSERT INTO rating_runs(id, scope, league_id, started_at, status)
		VALUES (?, ?, ?, ?, ?)`,
		id, scope, leagueID, formatTime(time.Now()), RunRunning,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// FinishRun closes a run. last may be nil when no stage completed.
func (db *DB) FinishRun(id, status string, stages int, last *model.SnapshotKey, runErr error) error {
	var lastStr, errStr string
	if last != nil {
		lastStr = last.Slug + " / " + last.StageName
	}
	if runErr != nil {
		errStr = runErr.Error()
	}
	_, err := db.conn.Exec(`
		UPDATE rating_runs SET finished_at = ?, status = ?, stages = ?, last_checkpoint = ?, error = ?
		WHERE id = ?`,
		formatTime(time.Now()), status, stages, lastStr, errStr, id,
	)
	return err
}

// ListRuns returns the most recent runs first.
func (db *DB) ListRuns(limit int) ([]RatingRun, error) {
	rows, err := db.conn.Query(`
		SELECT id, scope, league_id, started_at, finished_at, status, stages, last_checkpoint, error
		FROM rating_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RatingRun
	for rows.Next() {
		var r RatingRun
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Scope, &r.LeagueID, &started, &finished,
			&r.Status, &r.Stages, &r.LastCheckpoint, &r.Error); err != nil {
			return nil, err
		}
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveSnapshot replaces the stored rows of s.Key with s.Rows.
func (db *DB) SaveSnapshot(runID string, s model.RatingSnapshot) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	k := s.Key
	if _, err := tx.Exec(`
		DELETE FROM rating_snapshots
		WHERE scope = ? AND league_id = ? AND tournament_id = ? AND stage_index = ?`,
		k.Scope, k.LeagueID, k.TournamentID, k.StageIndex); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO rating_snapshots(
			scope, league_id, tournament_id, tournament_slug, stage_name, stage_index,
			seq, run_id, position, team_id, team_name, rating
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range s.Rows {
		if _, err := stmt.Exec(
			k.Scope, k.LeagueID, k.TournamentID, k.Slug, k.StageName, k.StageIndex,
			s.Seq, runID, i, r.TeamID, r.TeamName, r.Rating,
		); err != nil {
			return fmt.Errorf("insert snapshot row %s: %w", r.TeamID, err)
		}
	}
	return tx.Commit()
}

// ClearSnapshots removes every snapshot of a chain before a cold rerun.
func (db *DB) ClearSnapshots(scope, leagueID string) error {
	_, err := db.conn.Exec(`DELETE FROM rating_snapshots WHERE scope = ? AND league_id = ?`, scope, leagueID)
	return err
}

const snapshotColumns = `scope, league_id, tournament_id, tournament_slug, stage_name, stage_index, seq, team_id, team_name, rating`

// collectSnapshots groups rows ordered by (seq, position) into snapshots.
func collectSnapshots(rows *sql.Rows) ([]model.RatingSnapshot, error) {
	defer rows.Close()
	var out []model.RatingSnapshot
	for rows.Next() {
		var k model.SnapshotKey
		var seq int
		var r model.RatingRow
		if err := rows.Scan(&k.Scope, &k.LeagueID, &k.TournamentID, &k.Slug, &k.StageName, &k.StageIndex,
			&seq, &r.TeamID, &r.TeamName, &r.Rating); err != nil {
			return nil, err
		}
		if n := len(out); n == 0 || out[n-1].Key != k {
			out = append(out, model.RatingSnapshot{Key: k, Seq: seq})
		}
		last := &out[len(out)-1]
		last.Rows = append(last.Rows, r)
	}
	return out, rows.Err()
}

// GetSnapshot returns a tournament's snapshot for stage, or for its last rated
// stage when stage is empty. Stages sharing a name resolve to the later one.
// Nil when nothing matches.
func (db *DB) GetSnapshot(scope, tournamentID, stage string) (*model.RatingSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM rating_snapshots
		WHERE scope = ? AND tournament_id = ?`
	args := []any{scope, tournamentID}
	if stage != "" {
		query += ` AND stage_name = ?`
		args = append(args, stage)
	} else {
		query += ` AND seq = (SELECT MAX(seq) FROM rating_snapshots WHERE scope = ? AND tournament_id = ?)`
		args = append(args, scope, tournamentID)
	}
	query += ` ORDER BY seq, position`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	snaps, err := collectSnapshots(rows)
	if err != nil || len(snaps) == 0 {
		return nil, err
	}
	return &snaps[len(snaps)-1], nil
}

// LatestSnapshot returns the last snapshot emitted by a chain, nil if none.
func (db *DB) LatestSnapshot(scope, leagueID string) (*model.RatingSnapshot, error) {
	rows, err := db.conn.Query(`SELECT `+snapshotColumns+` FROM rating_snapshots
		WHERE scope = ? AND league_id = ?
		  AND seq = (SELECT MAX(seq) FROM rating_snapshots WHERE scope = ? AND league_id = ?)
		ORDER BY position`, scope, leagueID, scope, leagueID)
	if err != nil {
		return nil, err
	}
	snaps, err := collectSnapshots(rows)
	if err != nil || len(snaps) == 0 {
		return nil, err
	}
	return &snaps[0], nil
}

// ListSnapshots returns every snapshot of a scope in chain order. An empty
// leagueID returns all leagues of the scope.
func (db *DB) ListSnapshots(scope, leagueID string) ([]model.RatingSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM rating_snapshots WHERE scope = ?`
	args := []any{scope}
	if leagueID != "" {
		query += ` AND league_id = ?`
		args = append(args, leagueID)
	}
	query += ` ORDER BY league_id, seq, position`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	return collectSnapshots(rows)
}

// TrendPoint is a team's rating after one stage.
type TrendPoint struct {
	Seq        int
	Tournament string
	Stage      string
	Rating     float64
	Position   int // 0-based rank within the stage snapshot
	Teams      int
}

// TeamHistory returns a team's rating at every stage of a chain in order.
func (db *DB) TeamHistory(scope, leagueID, teamID string) ([]TrendPoint, error) {
	rows, err := db.conn.Query(`
		SELECT s.seq, s.tournament_slug, s.stage_name, s.rating, s.position,
		       (SELECT COUNT(1) FROM rating_snapshots x
		         WHERE x.scope = s.scope AND x.league_id = s.league_id
		           AND x.tournament_id = s.tournament_id AND x.stage_index = s.stage_index)
		FROM rating_snapshots s
		WHERE s.scope = ? AND s.league_id = ? AND s.team_id = ?
		ORDER BY s.seq`, scope, leagueID, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TrendPoint
	for rows.Next() {
		var p TrendPoint
		if err := rows.Scan(&p.Seq, &p.Tournament, &p.Stage, &p.Rating, &p.Position, &p.Teams); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
