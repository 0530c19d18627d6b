package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/spinlytics/casino-analytics/internal/table"
)

func TestEngagementHeadlineKPIs(t *testing.T) {
	tbl := buildSessions(t, []rowSpec{
		{player: "p1", session: "2024-01-15 10:00:00", bet: 10},
		{player: "p1", session: "2024-01-15 11:00:00", bet: 20},
		{player: "p2", session: "2024-01-15 12:00:00", bet: 5},
		{player: "p2", session: "2024-01-16 09:00:00", bet: 15},
	})

	r := NewRegistry(testConfig())
	results, err := r.Run(context.Background(), "engagement", tbl, Params{})
	if err != nil {
		t.Fatalf("running engagement: %v", err)
	}

	if got := valueOf(t, findResult(t, results, "engagement_players", nil)); got != 2 {
		t.Fatalf("expected 2 players, got %v", got)
	}
	if got := valueOf(t, findResult(t, results, "engagement_total_wagered", nil)); got != 50 {
		t.Fatalf("expected 50 wagered, got %v", got)
	}
	if got := valueOf(t, findResult(t, results, "engagement_avg_bet", nil)); got != 12.5 {
		t.Fatalf("expected avg bet 12.5, got %v", got)
	}
}

func TestEngagementNoBetsDegradesAvgBet(t *testing.T) {
	players := table.NewColumn("player_id", table.KindString)
	sessions := table.NewColumn("session_start", table.KindTimestamp)
	bets := table.NewColumn("bet_amount", table.KindDecimal)
	players.AppendString("p1")
	sessions.AppendTime(time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC))
	bets.AppendNull()
	tbl, err := table.New(players, sessions, bets)
	if err != nil {
		t.Fatalf("building table: %v", err)
	}

	r := NewRegistry(testConfig())
	results, err := r.Run(context.Background(), "engagement", tbl, Params{})
	if err != nil {
		t.Fatalf("running engagement: %v", err)
	}

	avg := findResult(t, results, "engagement_avg_bet", nil)
	if avg.Value.Valid {
		t.Fatalf("expected null avg bet, got %v", avg.Value.Decimal)
	}
	if avg.Degraded != DegradedNoBets {
		t.Fatalf("expected degradation reason %q, got %q", DegradedNoBets, avg.Degraded)
	}
}

func TestEngagementDAUSeries(t *testing.T) {
	tbl := buildSessions(t, []rowSpec{
		{player: "p1", session: "2024-01-15 10:00:00", bet: 10},
		{player: "p2", session: "2024-01-15 12:00:00", bet: 5},
		{player: "p2", session: "2024-01-16 09:00:00", bet: 15},
	})

	r := NewRegistry(testConfig())
	results, err := r.Run(context.Background(), "engagement", tbl, Params{})
	if err != nil {
		t.Fatalf("running engagement: %v", err)
	}

	day1 := findResult(t, results, "engagement_dau", map[string]string{"day": "2024-01-15"})
	if got := valueOf(t, day1); got != 2 {
		t.Fatalf("expected 2 active on day one, got %v", got)
	}
	day2 := findResult(t, results, "engagement_dau", map[string]string{"day": "2024-01-16"})
	if got := valueOf(t, day2); got != 1 {
		t.Fatalf("expected 1 active on day two, got %v", got)
	}
}

func TestPeriodStartWeekAnchorsMonday(t *testing.T) {
	// 2024-01-17 is a Wednesday.
	tbl := buildSessions(t, []rowSpec{{player: "p1", session: "2024-01-17 10:00:00", bet: 1}})
	starts := tbl.Column("session_start")

	got := periodStart(starts.Time(0), "week")
	if got.Format("2006-01-02") != "2024-01-15" {
		t.Fatalf("expected week start 2024-01-15, got %s", got.Format("2006-01-02"))
	}
}
