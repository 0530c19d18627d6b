package analytics

import (
	"context"
	"math"
	"testing"
)

func TestLTVObservedAndProjected(t *testing.T) {
	// p1 nets the house 10 per day over 10 days (first to last seen spans
	// 9 days, so the daily rate is 100/9).
	var rows []rowSpec
	for day := 1; day <= 10; day++ {
		rows = append(rows, rowSpec{
			player:  "p1",
			session: sessionDay(day),
			bet:     15,
			win:     5,
		})
	}

	r := NewRegistry(testConfig())
	results, err := r.Run(context.Background(), "ltv", buildSessions(t, rows), Params{HorizonDays: 90})
	if err != nil {
		t.Fatalf("running ltv: %v", err)
	}

	observed := valueOf(t, findResult(t, results, "ltv_observed", map[string]string{"player_id": "p1"}))
	if observed != 100 {
		t.Fatalf("expected observed net 100, got %v", observed)
	}

	projected := valueOf(t, findResult(t, results, "ltv_projected", map[string]string{"player_id": "p1"}))
	want := 100.0 / 9 * 90
	if math.Abs(projected-want) > 1e-3 {
		t.Fatalf("expected projection near %v, got %v", want, projected)
	}
}

func TestLTVSingleSessionUsesOneDayFloor(t *testing.T) {
	rows := []rowSpec{{player: "p1", session: sessionDay(1), bet: 20, win: 5}}

	r := NewRegistry(testConfig())
	results, err := r.Run(context.Background(), "ltv", buildSessions(t, rows), Params{HorizonDays: 30})
	if err != nil {
		t.Fatalf("running ltv: %v", err)
	}

	projected := valueOf(t, findResult(t, results, "ltv_projected", map[string]string{"player_id": "p1"}))
	if projected != 450 {
		t.Fatalf("expected 15*30 projection, got %v", projected)
	}
}

func TestLTVNegativeNetAllowed(t *testing.T) {
	rows := []rowSpec{{player: "lucky", session: sessionDay(1), bet: 5, win: 50}}

	r := NewRegistry(testConfig())
	results, err := r.Run(context.Background(), "ltv", buildSessions(t, rows), Params{})
	if err != nil {
		t.Fatalf("running ltv: %v", err)
	}

	observed := valueOf(t, findResult(t, results, "ltv_observed", map[string]string{"player_id": "lucky"}))
	if observed != -45 {
		t.Fatalf("expected observed net -45, got %v", observed)
	}
}
