package storage

import (
	"database/sql"
	"fmt"
)

// QueryRaw runs an arbitrary read query and returns every value rendered as text.
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out [][]string
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			if v.Valid {
				row[i] = v.String
			} else {
				row[i] = "NULL"
			}
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

// Overview summarises the database contents.
type Overview struct {
	Tournaments int
	Matches     int
	Teams       int
	Snapshots   int
	Runs        int
	FirstGame   string
	LastGame    string
}

// GetOverview counts stored records and the range of game dates.
func (db *DB) GetOverview() (Overview, error) {
	var o Overview
	var first, last sql.NullString
	err := db.conn.QueryRow(`
		SELECT
			(SELECT COUNT(1) FROM tournaments),
			(SELECT COUNT(1) FROM matches),
			(SELECT COUNT(1) FROM (SELECT blue_team_id FROM matches UNION SELECT red_team_id FROM matches)),
			(SELECT COUNT(1) FROM (SELECT DISTINCT scope, league_id, tournament_id, stage_name FROM rating_snapshots)),
			(SELECT COUNT(1) FROM rating_runs),
			(SELECT MIN(game_date) FROM matches),
			(SELECT MAX(game_date) FROM matches)`,
	).Scan(&o.Tournaments, &o.Matches, &o.Teams, &o.Snapshots, &o.Runs, &first, &last)
	if err != nil {
		return o, fmt.Errorf("overview: %w", err)
	}
	if first.Valid {
		o.FirstGame = formatDate(parseTime(first.String))
	}
	if last.Valid {
		o.LastGame = formatDate(parseTime(last.String))
	}
	return o, nil
}
