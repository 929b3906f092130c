package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/chakrakan/lol-esports-predictions/internal/aggregator"
	"github.com/chakrakan/lol-esports-predictions/internal/model"
	"github.com/chakrakan/lol-esports-predictions/internal/rating"
	"github.com/chakrakan/lol-esports-predictions/internal/storage"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
}

// PrintMatchSummary prints a one-line header for the match.
func PrintMatchSummary(w io.Writer, m *model.Match) {
	fmt.Fprintf(w, "\n%s  |  %s / %s  |  Game %d  |  %s  |  %s vs %s  |  Winner: %s (%s)  |  %s  |  Patch %s\n\n",
		m.GameID, m.TournamentSlug, m.StageName, m.GameNumber, m.Date.Format("2006-01-02"),
		m.BlueTeamName, m.RedTeamName, m.TeamName(m.Winner), m.Winner,
		clock(m.DurationSec), m.Patch)
}

func clock(sec float64) string {
	s := int(sec)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

// PrintDraftTable lists both drafts side by side by role. Champions flagged OP
// are marked with "*".
func PrintDraftTable(w io.Writer, m *model.Match, op *model.OPChampionStats) {
	table := newTable(w)
	table.Header("ROLE", "BLUE", "CHAMPION", "CHAMPION", "RED")

	mark := func(c string) string {
		if op.IsOP(c) {
			return c + "*"
		}
		return c
	}
	for i, role := range model.Roles {
		b, r := m.Draft[i], m.Draft[i+5]
		table.Append(role, b.Player, mark(b.Champion), mark(r.Champion), r.Player)
	}
	table.Render()
}

// PrintObjectiveTable prints the first-objective facts of a match.
func PrintObjectiveTable(w io.Writer, m *model.Match) {
	table := newTable(w)
	table.Header("OBJECTIVE", "SIDE", "TEAM", "DETAIL")

	team := func(s model.Side) string {
		if !s.Valid() {
			return "-"
		}
		return m.TeamName(s)
	}
	rows := []struct {
		name   string
		side   model.Side
		detail string
	}{
		{"first blood", m.FirstBlood, ""},
		{"first turret", m.FirstTurret, m.FirstTurretLane.String()},
		{"first dragon", m.FirstDragon, m.FirstDragonType.String()},
		{"first herald", m.FirstHerald, ""},
		{"first baron", m.FirstBaron, ""},
		{"dragon soul", m.DragonSoul, m.DragonSoulType.String()},
		{"first elder", m.FirstElder, ""},
	}
	for _, r := range rows {
		detail := r.detail
		if !r.side.Valid() {
			detail = ""
		}
		table.Append(r.name, r.side.String(), team(r.side), detail)
	}
	table.Append("dragons", "", fmt.Sprintf("%d - %d", m.BlueDragons, m.RedDragons), "")
	table.Append("barons", "", fmt.Sprintf("%d - %d", m.BlueBarons, m.RedBarons), "")
	table.Render()
}

// PrintSnapshotTable prints team totals at each checkpoint.
func PrintSnapshotTable(w io.Writer, m *model.Match) {
	table := newTable(w)
	table.Header("AT", "GOLD B", "GOLD R", "GOLD DIFF", "K B", "K R", "DMG B", "DMG R", "VIS B", "VIS R", "CS B", "CS R")

	for i := range m.Snapshots {
		s := &m.Snapshots[i]
		at := "end"
		if s.Checkpoint != model.CheckpointGameEnd {
			at = clock(float64(s.Checkpoint))
		}
		table.Append(
			at,
			strconv.Itoa(s.Blue.TotalGold),
			strconv.Itoa(s.Red.TotalGold),
			fmt.Sprintf("%+d", s.Blue.TotalGold-s.Red.TotalGold),
			strconv.Itoa(s.Blue.Kills),
			strconv.Itoa(s.Red.Kills),
			strconv.FormatFloat(s.Blue.DamageToChampions, 'f', 0, 64),
			strconv.FormatFloat(s.Red.DamageToChampions, 'f', 0, 64),
			fmt.Sprintf("%.0f", s.Blue.VisionScore),
			fmt.Sprintf("%.0f", s.Red.VisionScore),
			strconv.Itoa(s.Blue.MinionsKilled),
			strconv.Itoa(s.Red.MinionsKilled),
		)
	}
	table.Render()
}

// PrintKBreakdown itemises the K applied to one match.
func PrintKBreakdown(w io.Writer, kb rating.KBreakdown) {
	table := newTable(w)
	table.Header("TERM", "VALUE")
	table.Append("base K", fmt.Sprintf("%.0f", kb.Base))
	table.Append("x loser weight", fmt.Sprintf("%.2f", kb.LoserWeight))
	for _, t := range []struct {
		name string
		v    float64
	}{
		{"OP champions", kb.OPChampions},
		{"gold diff", kb.GoldDiff},
		{"objectives", kb.Objectives},
		{"K/D", kb.KD},
		{"vision", kb.Vision},
		{"damage", kb.Damage},
		{"red side", kb.RedSide},
		{"duration", kb.Duration},
	} {
		if t.v != 0 {
			table.Append("+ "+t.name, fmt.Sprintf("%.0f", t.v))
		}
	}
	table.Append("= K", fmt.Sprintf("%.2f", kb.Total()))
	table.Render()
}

// PrintOPTable prints champion pick statistics, most played first. Unless all
// is set only flagged champions are shown.
func PrintOPTable(w io.Writer, op *model.OPChampionStats, all bool) {
	fmt.Fprintf(w, "\n%d games  |  %d teams  |  %d OP champions\n\n", op.TotalGames, op.TeamCount, len(op.OP))

	champs := make([]*model.ChampionStat, 0, len(op.Champions))
	for _, c := range op.Champions {
		if all || op.IsOP(c.Champion) {
			champs = append(champs, c)
		}
	}
	sort.Slice(champs, func(i, j int) bool {
		if champs[i].Played != champs[j].Played {
			return champs[i].Played > champs[j].Played
		}
		return champs[i].Champion < champs[j].Champion
	})

	table := newTable(w)
	table.Header("CHAMPION", "PLAYED", "PICK%", "WON", "WR%", "TEAMS", "OP")
	for _, c := range champs {
		flag := ""
		if op.IsOP(c.Champion) {
			flag = "OP"
		}
		pick := 0.0
		if op.TotalGames > 0 {
			pick = float64(c.Played) / float64(op.TotalGames) * 100
		}
		table.Append(
			c.Champion,
			strconv.Itoa(c.Played),
			fmt.Sprintf("%.0f%%", pick),
			strconv.Itoa(c.Won),
			fmt.Sprintf("%.0f%%", c.WinRate()),
			strconv.Itoa(len(c.Teams)),
			flag,
		)
	}
	table.Render()
}

// PrintTeamFeatures prints per-team tournament features with the mean gold
// lead at each checkpoint.
func PrintTeamFeatures(w io.Writer, fs []aggregator.TeamFeatures, checkpoints []int) {
	table := newTable(w)
	header := []any{"TEAM", "W", "L", "WR%", "OP PICKS", "MED WIN"}
	for _, cp := range checkpoints {
		header = append(header, "GD@"+clock(float64(cp)))
	}
	header = append(header, "GD@END", "CLASS")
	table.Header(header...)

	for i := range fs {
		f := &fs[i]
		medWin := "-"
		if f.MedianWinSec > 0 {
			medWin = clock(f.MedianWinSec)
		}
		row := []any{
			f.TeamName,
			strconv.Itoa(f.Wins),
			strconv.Itoa(f.Losses),
			fmt.Sprintf("%.0f%%", f.WinRate()),
			strconv.Itoa(f.OPPicks),
			medWin,
		}
		for _, cp := range append(append([]int(nil), checkpoints...), model.CheckpointGameEnd) {
			gd, ok := f.AvgGoldDiff[cp]
			if !ok {
				row = append(row, "-")
				continue
			}
			row = append(row, fmt.Sprintf("%+.0f", gd))
		}
		row = append(row, f.Class)
		table.Append(row...)
	}
	table.Render()
}

// PrintRanking prints ranking rows.
func PrintRanking(w io.Writer, entries []model.RankEntry) {
	table := newTable(w)
	table.Header("#", "TEAM", "CODE", "RATING", "TEAM ID")
	for _, e := range entries {
		table.Append(strconv.Itoa(e.Rank), e.TeamName, e.TeamCode, fmt.Sprintf("%.1f", e.Rating), e.TeamID)
	}
	table.Render()
}

// PrintTrend prints a team's rating after each stage with the change since
// the previous stage.
func PrintTrend(w io.Writer, points []storage.TrendPoint) {
	table := newTable(w)
	table.Header("SEQ", "TOURNAMENT", "STAGE", "RATING", "DELTA", "POS")

	for i, p := range points {
		delta := "-"
		if i > 0 {
			delta = fmt.Sprintf("%+.1f", p.Rating-points[i-1].Rating)
		}
		table.Append(
			strconv.Itoa(p.Seq),
			p.Tournament,
			p.Stage,
			fmt.Sprintf("%.1f", p.Rating),
			delta,
			fmt.Sprintf("%d/%d", p.Position+1, p.Teams),
		)
	}
	table.Render()
}

// PrintTournamentList prints stored tournaments.
func PrintTournamentList(w io.Writer, ts []storage.TournamentSummary) {
	table := newTable(w)
	table.Header("SLUG", "LEAGUE", "START", "END", "STAGES", "GAMES", "TEAMS", "ID")
	for _, t := range ts {
		table.Append(
			t.Slug,
			t.LeagueID,
			t.StartDate.Format("2006-01-02"),
			t.EndDate.Format("2006-01-02"),
			strconv.Itoa(len(t.Stages)),
			strconv.Itoa(t.Games),
			strconv.Itoa(t.Teams),
			t.ID,
		)
	}
	table.Render()
}

// PrintMatchList prints one line per match.
func PrintMatchList(w io.Writer, ms []model.Match) {
	table := newTable(w)
	table.Header("STAGE", "DATE", "G", "BLUE", "RED", "WINNER", "DURATION", "GAME ID")
	for i := range ms {
		m := &ms[i]
		table.Append(
			m.StageName,
			m.Date.Format("2006-01-02"),
			strconv.Itoa(m.GameNumber),
			m.BlueTeamName,
			m.RedTeamName,
			m.TeamName(m.Winner),
			clock(m.DurationSec),
			m.GameID,
		)
	}
	table.Render()
}

// PrintRuns prints rating run history.
func PrintRuns(w io.Writer, runs []storage.RatingRun) {
	table := newTable(w)
	table.Header("STARTED", "SCOPE", "LEAGUE", "STATUS", "STAGES", "LAST CHECKPOINT", "ERROR")
	for _, r := range runs {
		league := r.LeagueID
		if league == "" {
			league = "-"
		}
		table.Append(
			r.StartedAt.Format("2006-01-02 15:04"),
			r.Scope,
			league,
			r.Status,
			strconv.Itoa(r.Stages),
			r.LastCheckpoint,
			r.Error,
		)
	}
	table.Render()
}

// PrintOverview prints database totals.
func PrintOverview(w io.Writer, o storage.Overview) {
	fmt.Fprintf(w, "Tournaments: %d\nMatches:     %d\nTeams:       %d\nSnapshots:   %d\nRating runs: %d\n",
		o.Tournaments, o.Matches, o.Teams, o.Snapshots, o.Runs)
	if o.FirstGame != "" {
		fmt.Fprintf(w, "Games from:  %s to %s\n", o.FirstGame, o.LastGame)
	}
}

// PrintRows prints an untyped result set, such as a raw SQL query.
func PrintRows(w io.Writer, cols []string, rows [][]string) {
	table := newTable(w)
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	table.Header(header...)
	for _, row := range rows {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = v
		}
		table.Append(cells...)
	}
	table.Render()
}
