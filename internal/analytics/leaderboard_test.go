package analytics

import (
	"context"
	"testing"
)

func TestLeaderboardTopNByWagered(t *testing.T) {
	tbl := buildSessions(t, []rowSpec{
		{player: "p1", session: sessionDay(1), bet: 100},
		{player: "p2", session: sessionDay(1), bet: 50},
		{player: "p2", session: sessionDay(2), bet: 60},
		{player: "p3", session: sessionDay(1), bet: 5},
	})

	r := NewRegistry(testConfig())
	results, err := r.Run(context.Background(), "leaderboard", tbl, Params{TopN: 2})
	if err != nil {
		t.Fatalf("running leaderboard: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(results))
	}

	first := findResult(t, results, "leaderboard", map[string]string{"rank": "1"})
	if first.Group["player_id"] != "p2" || valueOf(t, first) != 110 {
		t.Fatalf("expected p2 at rank 1 with 110, got %v=%v", first.Group["player_id"], valueOf(t, first))
	}
	second := findResult(t, results, "leaderboard", map[string]string{"rank": "2"})
	if second.Group["player_id"] != "p1" {
		t.Fatalf("expected p1 at rank 2, got %v", second.Group["player_id"])
	}
}

func TestLeaderboardByNetProfit(t *testing.T) {
	tbl := buildSessions(t, []rowSpec{
		{player: "p1", session: sessionDay(1), bet: 100, win: 200},
		{player: "p2", session: sessionDay(1), bet: 10, win: 15},
	})

	r := NewRegistry(testConfig())
	results, err := r.Run(context.Background(), "leaderboard", tbl, Params{By: "net"})
	if err != nil {
		t.Fatalf("running leaderboard: %v", err)
	}

	first := findResult(t, results, "leaderboard", map[string]string{"rank": "1"})
	if first.Group["player_id"] != "p1" || valueOf(t, first) != 100 {
		t.Fatalf("expected p1 at rank 1 with net 100, got %v=%v", first.Group["player_id"], valueOf(t, first))
	}
	if first.Group["by"] != "net" {
		t.Fatalf("expected net ranking label, got %q", first.Group["by"])
	}
}

func TestLeaderboardStableTieOrder(t *testing.T) {
	tbl := buildSessions(t, []rowSpec{
		{player: "b", session: sessionDay(1), bet: 10},
		{player: "a", session: sessionDay(1), bet: 10},
	})

	r := NewRegistry(testConfig())
	results, err := r.Run(context.Background(), "leaderboard", tbl, Params{})
	if err != nil {
		t.Fatalf("running leaderboard: %v", err)
	}

	first := findResult(t, results, "leaderboard", map[string]string{"rank": "1"})
	if first.Group["player_id"] != "a" {
		t.Fatalf("expected tie broken by player id, got %v", first.Group["player_id"])
	}
}
