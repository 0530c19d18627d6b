package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/spinlytics/casino-analytics/internal/table"
	"github.com/spinlytics/casino-analytics/pkg/config"
)

// engagementQuery reports headline activity KPIs plus a daily active player
// series.
func engagementQuery() Query {
	return Query{
		Name:            "engagement",
		Description:     "daily active players and headline wagering KPIs",
		RequiredColumns: []string{"player_id", "session_start", "bet_amount"},
		Run:             runEngagement,
	}
}

func runEngagement(_ context.Context, tbl *table.Table, _ config.AnalyticsConfig, _ Params) ([]Result, error) {
	players := tbl.Column("player_id")
	starts := tbl.Column("session_start")
	bets := tbl.Column("bet_amount")

	uniquePlayers := map[string]struct{}{}
	dailyPlayers := map[string]map[string]struct{}{}
	totalWagered := 0.0
	betCount := 0

	for i := 0; i < tbl.NumRows(); i++ {
		if players.IsNull(i) {
			continue
		}
		id := players.String(i)
		uniquePlayers[id] = struct{}{}

		if !starts.IsNull(i) {
			day := starts.Time(i).UTC().Format("2006-01-02")
			if dailyPlayers[day] == nil {
				dailyPlayers[day] = map[string]struct{}{}
			}
			dailyPlayers[day][id] = struct{}{}
		}
		if !bets.IsNull(i) {
			if v, err := bets.Float(i); err == nil {
				totalWagered += v
				betCount++
			}
		}
	}

	rows := tbl.NumRows()
	results := []Result{
		newResult("engagement_players", nil, float64(len(uniquePlayers)), rows),
		newResult("engagement_bets", nil, float64(betCount), rows),
		newResult("engagement_total_wagered", nil, totalWagered, betCount),
	}
	if betCount > 0 {
		results = append(results, newResult("engagement_avg_bet", nil, totalWagered/float64(betCount), betCount))
	} else {
		results = append(results, newDegradedResult("engagement_avg_bet", nil, DegradedNoBets, 0))
	}

	days := make([]string, 0, len(dailyPlayers))
	for day := range dailyPlayers {
		days = append(days, day)
	}
	sort.Strings(days)
	for _, day := range days {
		results = append(results, newResult("engagement_dau",
			map[string]string{"day": day},
			float64(len(dailyPlayers[day])),
			len(dailyPlayers[day])))
	}
	return results, nil
}

// periodStart truncates a timestamp to the start of its cohort period.
func periodStart(t time.Time, period string) time.Time {
	t = t.UTC()
	switch period {
	case "day":
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case "month":
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		// week, anchored to Monday
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	}
}

// periodsBetween counts whole cohort periods from start to t.
func periodsBetween(start, t time.Time, period string) int {
	if t.Before(start) {
		return 0
	}
	switch period {
	case "day":
		return int(t.Sub(start).Hours() / 24)
	case "month":
		return (t.Year()-start.Year())*12 + int(t.Month()) - int(start.Month())
	default:
		return int(t.Sub(start).Hours() / (24 * 7))
	}
}
