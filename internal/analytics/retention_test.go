package analytics

import (
	"context"
	"testing"
)

func TestRetentionCohortFractions(t *testing.T) {
	// Two players sign up in the week of 2024-01-01; only p1 returns the
	// following week.
	tbl := buildSessions(t, []rowSpec{
		{player: "p1", signup: "2024-01-02", session: "2024-01-02 10:00:00", bet: 5},
		{player: "p2", signup: "2024-01-03", session: "2024-01-03 10:00:00", bet: 5},
		{player: "p1", signup: "2024-01-02", session: "2024-01-09 10:00:00", bet: 5},
	})

	r := NewRegistry(testConfig())
	results, err := r.Run(context.Background(), "retention", tbl, Params{Period: "week"})
	if err != nil {
		t.Fatalf("running retention: %v", err)
	}

	period0 := findResult(t, results, "retention", map[string]string{"cohort": "2024-01-01", "period": "0"})
	if got := valueOf(t, period0); got != 1 {
		t.Fatalf("expected full period-0 retention, got %v", got)
	}
	if period0.SampleSize != 2 {
		t.Fatalf("expected cohort size 2, got %d", period0.SampleSize)
	}

	period1 := findResult(t, results, "retention", map[string]string{"cohort": "2024-01-01", "period": "1"})
	if got := valueOf(t, period1); got != 0.5 {
		t.Fatalf("expected 0.5 period-1 retention, got %v", got)
	}
}

func TestRetentionNoSessionsNoDivisionError(t *testing.T) {
	// Signups with no session activity must yield zero retention, never a
	// division failure.
	tbl := buildSessions(t, []rowSpec{
		{player: "p1", signup: "2024-01-02", bet: 5},
		{player: "p2", signup: "2024-01-03", bet: 5},
	})

	r := NewRegistry(testConfig())
	results, err := r.Run(context.Background(), "retention", tbl, Params{Period: "week"})
	if err != nil {
		t.Fatalf("running retention: %v", err)
	}

	period0 := findResult(t, results, "retention", map[string]string{"cohort": "2024-01-01", "period": "0"})
	if got := valueOf(t, period0); got != 0 {
		t.Fatalf("expected zero retention without sessions, got %v", got)
	}
}

func TestRetentionEmptyTableNoResults(t *testing.T) {
	tbl := buildSessions(t, nil)

	r := NewRegistry(testConfig())
	results, err := r.Run(context.Background(), "retention", tbl, Params{})
	if err != nil {
		t.Fatalf("running retention: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results for empty table, got %d", len(results))
	}
}

func TestRetentionConfiguredPeriodDefault(t *testing.T) {
	// With no period in the params, the configured retention period decides
	// the cohort anchor: a 2024-01-20 signup lands in the 2024-01-01 monthly
	// cohort, not the weekly Monday one.
	tbl := buildSessions(t, []rowSpec{
		{player: "p1", signup: "2024-01-20", session: "2024-01-20 10:00:00", bet: 5},
	})

	cfg := testConfig()
	cfg.RetentionPeriod = "month"
	r := NewRegistry(cfg)

	results, err := r.Run(context.Background(), "retention", tbl, Params{})
	if err != nil {
		t.Fatalf("running retention: %v", err)
	}

	period0 := findResult(t, results, "retention", map[string]string{"cohort": "2024-01-01", "period": "0"})
	if got := valueOf(t, period0); got != 1 {
		t.Fatalf("expected monthly cohort retention 1, got %v", got)
	}
	for _, res := range results {
		if res.Group["cohort"] == "2024-01-15" {
			t.Fatalf("weekly cohort produced despite monthly config")
		}
	}
}

func TestRetentionParamsPeriodOverridesConfig(t *testing.T) {
	tbl := buildSessions(t, []rowSpec{
		{player: "p1", signup: "2024-01-20", session: "2024-01-20 10:00:00", bet: 5},
	})

	cfg := testConfig()
	cfg.RetentionPeriod = "month"
	r := NewRegistry(cfg)

	results, err := r.Run(context.Background(), "retention", tbl, Params{Period: "week"})
	if err != nil {
		t.Fatalf("running retention: %v", err)
	}

	period0 := findResult(t, results, "retention", map[string]string{"cohort": "2024-01-15", "period": "0"})
	if got := valueOf(t, period0); got != 1 {
		t.Fatalf("expected weekly cohort retention 1, got %v", got)
	}
}

func TestRetentionMonthlyCohorts(t *testing.T) {
	tbl := buildSessions(t, []rowSpec{
		{player: "p1", signup: "2024-01-20", session: "2024-02-10 10:00:00", bet: 5},
	})

	r := NewRegistry(testConfig())
	results, err := r.Run(context.Background(), "retention", tbl, Params{Period: "month"})
	if err != nil {
		t.Fatalf("running retention: %v", err)
	}

	period1 := findResult(t, results, "retention", map[string]string{"cohort": "2024-01-01", "period": "1"})
	if got := valueOf(t, period1); got != 1 {
		t.Fatalf("expected month-1 retention 1, got %v", got)
	}
}
