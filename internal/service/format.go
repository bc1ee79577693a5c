package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/omarshaarawi/superliga/internal/models"
	"github.com/omarshaarawi/superliga/internal/slp"
)

const (
	topRows       = 20
	maxListedRows = 15
	maxTradeCards = 10
	digestTop     = 10
)

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// escape makes user supplied names safe inside legacy Telegram Markdown.
func escape(s string) string {
	return markdownEscaper.Replace(s)
}

func record(row models.TeamRow) string {
	return fmt.Sprintf("%d-%d-%d", row.Wins, row.Losses, row.Ties)
}

// GetStandings renders the overall ranking, or one league's table when
// league names a registered league.
func (s *SuperLigaService) GetStandings(ctx context.Context, league string) (string, error) {
	report, err := s.Latest(ctx)
	if err != nil {
		return "", fmt.Errorf("error fetching standings: %w", err)
	}

	rows := report.Rows
	title := "🏆 *SuperLiga Standings*"
	limit := topRows
	if league = strings.TrimSpace(league); league != "" {
		ref, ok := s.findLeague(league)
		if !ok {
			return fmt.Sprintf("🔍 No league found matching '%s'.", escape(league)), nil
		}
		rows = leagueRows(rows, ref.ID)
		title = fmt.Sprintf("🏆 *%s*", escape(ref.Name))
		limit = len(rows)
	}

	var sb strings.Builder
	sb.WriteString(title + "\n\n")
	for i, row := range rows {
		if i == limit {
			sb.WriteString(fmt.Sprintf("... and %d more\n", len(rows)-limit))
			break
		}
		sb.WriteString(fmt.Sprintf("%d. *%s* (%s)\n", i+1, escape(row.Team), escape(row.League)))
		sb.WriteString(fmt.Sprintf("   SLP: %d %s\n", row.SLP.Final, slp.Lookup(row.SLP.Final).Name))
		sb.WriteString(fmt.Sprintf("   Record: %s | PF: %.2f\n\n", record(row), row.PointsFor))
	}
	if len(rows) == 0 {
		sb.WriteString("No teams available.\n")
	}

	return sb.String(), nil
}

func leagueRows(rows []models.TeamRow, leagueID string) []models.TeamRow {
	var out []models.TeamRow
	for _, row := range rows {
		if row.LeagueID == leagueID {
			out = append(out, row)
		}
	}
	return out
}

func (s *SuperLigaService) findLeague(name string) (models.LeagueRef, bool) {
	if ref, ok := s.registry.Get(name); ok {
		return ref, true
	}
	leagues := s.registry.Leagues()
	names := make([]string, len(leagues))
	for i, l := range leagues {
		names[i] = l.Name
		if strings.EqualFold(l.Name, name) {
			return l, true
		}
	}

	ranks := fuzzy.RankFindFold(name, names)
	if len(ranks) == 0 {
		return models.LeagueRef{}, false
	}
	sort.Sort(ranks)
	return leagues[ranks[0].OriginalIndex], true
}

// FindTeams lists rows where any visible field contains text.
func (s *SuperLigaService) FindTeams(ctx context.Context, text string) (string, error) {
	rows, err := s.Standings(ctx, text)
	if err != nil {
		return "", fmt.Errorf("error searching teams: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Sprintf("🔍 No team found matching '%s'.", escape(text)), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔍 *%d teams matching '%s'*\n\n", len(rows), escape(text)))
	for i, row := range rows {
		if i == maxListedRows {
			sb.WriteString(fmt.Sprintf("... and %d more\n", len(rows)-maxListedRows))
			break
		}
		sb.WriteString(fmt.Sprintf("*%s* (%s) owned by %s\n", escape(row.Team), escape(row.League), escape(row.UserName)))
		sb.WriteString(fmt.Sprintf("   SLP: %d | Record: %s | Trades: %d | Waivers: %d\n", row.SLP.Final, record(row), row.Trades, row.Waivers))
	}

	return sb.String(), nil
}

// GetTeamSLP renders the week by week league points trace of the team that
// best matches name.
func (s *SuperLigaService) GetTeamSLP(ctx context.Context, name string) (string, error) {
	report, err := s.Latest(ctx)
	if err != nil {
		return "", fmt.Errorf("error fetching team: %w", err)
	}

	row, ok := findTeam(report.Rows, name)
	if !ok {
		return fmt.Sprintf("🔍 No team found matching '%s'.", escape(name)), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*%s* (%s)\n", escape(row.Team), escape(row.League)))
	sb.WriteString("━━━━━━━━━━━━━━━━\n")
	sb.WriteString(fmt.Sprintf("Seed: %d | Final: %d %s\n\n", row.SLP.Seed, row.SLP.Final, slp.Lookup(row.SLP.Final).Name))
	for _, entry := range row.SLP.Trace {
		if entry.Bye {
			sb.WriteString(fmt.Sprintf("W%d: %s | %d\n", entry.Week, models.ByeLabel, entry.ScoreAfter))
			continue
		}
		sb.WriteString(fmt.Sprintf("W%d: %.2f%s %+d | %d\n", entry.Week, entry.Points, entry.Result, entry.Delta, entry.ScoreAfter))
	}

	return sb.String(), nil
}

// findTeam prefers an exact team name, then the closest fuzzy match.
func findTeam(rows []models.TeamRow, name string) (models.TeamRow, bool) {
	name = strings.TrimSpace(name)
	if name == "" || len(rows) == 0 {
		return models.TeamRow{}, false
	}

	names := make([]string, len(rows))
	for i, row := range rows {
		if strings.EqualFold(row.Team, name) {
			return row, true
		}
		names[i] = row.Team
	}

	if ranks := fuzzy.RankFindFold(name, names); len(ranks) > 0 {
		sort.Sort(ranks)
		return rows[ranks[0].OriginalIndex], true
	}

	bestIdx, bestDistance := -1, len(name)/2+1
	for i, team := range names {
		distance := fuzzy.LevenshteinDistance(strings.ToLower(name), strings.ToLower(team))
		if distance < bestDistance {
			bestIdx, bestDistance = i, distance
		}
	}
	if bestIdx < 0 {
		return models.TeamRow{}, false
	}
	return rows[bestIdx], true
}

func (s *SuperLigaService) GetTrades(ctx context.Context) (string, error) {
	cards, err := s.Trades(ctx)
	if err != nil {
		return "", fmt.Errorf("error fetching trades: %w", err)
	}
	if len(cards) == 0 {
		return "🤝 No completed trades yet.", nil
	}

	var sb strings.Builder
	sb.WriteString("🤝 *Latest Trades*\n\n")
	for i, card := range cards {
		if i == maxTradeCards {
			sb.WriteString(fmt.Sprintf("... and %d more\n", len(cards)-maxTradeCards))
			break
		}
		sb.WriteString(fmt.Sprintf("*%s* %s\n", escape(card.LeagueName), card.Created.Format("02/01 15:04")))
		for _, side := range card.Sides {
			received := make([]string, len(side.Players))
			for j, p := range side.Players {
				received[j] = fmt.Sprintf("%s (%s)", escape(p.Name), p.Position)
			}
			if len(received) == 0 {
				received = append(received, "nothing")
			}
			sb.WriteString(fmt.Sprintf("   %s receives: %s\n", escape(side.RosterName), strings.Join(received, ", ")))
		}
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

// FormatDigest renders the weekly summary sent to the group chat.
func FormatDigest(report *models.Report) string {
	var sb strings.Builder
	if report.Week > 0 {
		sb.WriteString(fmt.Sprintf("📊 *SuperLiga Week %d Digest*\n\n", report.Week))
	} else {
		sb.WriteString("📊 *SuperLiga Digest*\n\n")
	}

	sb.WriteString("*Top teams*\n")
	for i, row := range report.Rows {
		if i == digestTop {
			break
		}
		sb.WriteString(fmt.Sprintf("%d. %s (%s) %d %s\n", i+1, escape(row.Team), escape(row.League), row.SLP.Final, slp.Lookup(row.SLP.Final).Name))
	}

	leaders := leagueLeaders(report.Rows)
	if len(leaders) > 0 {
		sb.WriteString("\n*League leaders*\n")
		for _, row := range leaders {
			sb.WriteString(fmt.Sprintf("%s: %s (%s)\n", escape(row.League), escape(row.Team), record(row)))
		}
	}

	if n := len(report.Failures); n > 0 {
		sb.WriteString(fmt.Sprintf("\n⚠️ %d of %d reads failed, some numbers may be incomplete.\n", n, report.Operations))
	}
	return sb.String()
}

// leagueLeaders picks the first row of each league. Rows are expected to be
// sorted already.
func leagueLeaders(rows []models.TeamRow) []models.TeamRow {
	seen := make(map[string]bool)
	var leaders []models.TeamRow
	for _, row := range rows {
		if seen[row.LeagueID] {
			continue
		}
		seen[row.LeagueID] = true
		leaders = append(leaders, row)
	}
	sort.SliceStable(leaders, func(i, j int) bool {
		return leaders[i].League < leaders[j].League
	})
	return leaders
}

// FormatRefresh summarizes a finished refresh for the chat.
func FormatRefresh(report *models.Report) string {
	return fmt.Sprintf("🔄 Refreshed %d teams in %s (%d/%d reads ok).",
		len(report.Rows),
		report.Duration.Round(100*time.Millisecond),
		report.Operations-len(report.Failures),
		report.Operations,
	)
}
