package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spinlytics/casino-analytics/internal/table"
	"github.com/spinlytics/casino-analytics/pkg/config"
	pkgerrors "github.com/spinlytics/casino-analytics/pkg/errors"
)

func testConfig() config.AnalyticsConfig {
	return config.AnalyticsConfig{
		MinSampleSize:  30,
		FraudVelocity:  0.4,
		FraudDeviceIP:  0.35,
		FraudWinStreak: 0.25,
	}
}

type rowSpec struct {
	player  string
	signup  string
	session string
	bet     float64
	win     float64
	device  string
	ip      string
	group   string
}

// buildSessions assembles a typed table in the shape the normalizer emits.
func buildSessions(t *testing.T, rows []rowSpec) *table.Table {
	t.Helper()

	players := table.NewColumn("player_id", table.KindString)
	signups := table.NewColumn("signup_date", table.KindTimestamp)
	sessions := table.NewColumn("session_start", table.KindTimestamp)
	bets := table.NewColumn("bet_amount", table.KindDecimal)
	wins := table.NewColumn("win_amount", table.KindDecimal)
	devices := table.NewColumn("device_id", table.KindString)
	ips := table.NewColumn("ip_address", table.KindString)
	groups := table.NewColumn("bonus_group", table.KindCategorical)

	parse := func(value string) time.Time {
		ts, err := time.Parse("2006-01-02 15:04:05", value)
		if err != nil {
			ts, err = time.Parse("2006-01-02", value)
		}
		if err != nil {
			t.Fatalf("bad timestamp %q: %v", value, err)
		}
		return ts.UTC()
	}

	for _, row := range rows {
		players.AppendString(row.player)
		if row.signup == "" {
			signups.AppendNull()
		} else {
			signups.AppendTime(parse(row.signup))
		}
		if row.session == "" {
			sessions.AppendNull()
		} else {
			sessions.AppendTime(parse(row.session))
		}
		bets.AppendDecimal(decimal.NewFromFloat(row.bet))
		wins.AppendDecimal(decimal.NewFromFloat(row.win))
		if row.device == "" {
			devices.AppendNull()
		} else {
			devices.AppendString(row.device)
		}
		if row.ip == "" {
			ips.AppendNull()
		} else {
			ips.AppendString(row.ip)
		}
		if row.group == "" {
			groups.AppendNull()
		} else {
			groups.AppendString(row.group)
		}
	}

	tbl, err := table.New(players, signups, sessions, bets, wins, devices, ips, groups)
	if err != nil {
		t.Fatalf("building table: %v", err)
	}
	return tbl
}

func findResult(t *testing.T, results []Result, metric string, group map[string]string) Result {
	t.Helper()
	for _, r := range results {
		if r.Metric != metric {
			continue
		}
		match := true
		for key, want := range group {
			if r.Group[key] != want {
				match = false
				break
			}
		}
		if match {
			return r
		}
	}
	t.Fatalf("no %s result matching %v in %v", metric, group, results)
	return Result{}
}

func valueOf(t *testing.T, r Result) float64 {
	t.Helper()
	if !r.Value.Valid {
		t.Fatalf("result %s has null value (degraded: %s)", r.Metric, r.Degraded)
	}
	f, _ := r.Value.Decimal.Float64()
	return f
}

func TestRegistryNamesSorted(t *testing.T) {
	r := NewRegistry(testConfig())

	names := r.Names()
	want := []string{"bonus_lift", "engagement", "fraud_score", "leaderboard", "ltv", "retention", "segmentation"}
	if len(names) != len(want) {
		t.Fatalf("expected %d metrics, got %v", len(want), names)
	}
	for i, name := range want {
		if names[i] != name {
			t.Fatalf("expected %s at %d, got %s", name, i, names[i])
		}
	}
}

func TestRegistryUnknownMetric(t *testing.T) {
	r := NewRegistry(testConfig())
	tbl := buildSessions(t, []rowSpec{{player: "p1", session: "2024-01-15 10:00:00", bet: 5}})

	_, err := r.Run(context.Background(), "nonexistent", tbl, Params{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRegistryMissingColumns(t *testing.T) {
	r := NewRegistry(testConfig())

	col := table.NewColumn("player_id", table.KindString)
	col.AppendString("p1")
	tbl, err := table.New(col)
	if err != nil {
		t.Fatalf("building table: %v", err)
	}

	_, err = r.Run(context.Background(), "engagement", tbl, Params{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeMissingColumns) {
		t.Fatalf("expected missing columns, got %v", err)
	}
	typed := pkgerrors.As(err)
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %T", typed.Details())
	}
	missing, ok := details["missing"].([]string)
	if !ok || len(missing) != 2 {
		t.Fatalf("expected 2 missing columns, got %v", details["missing"])
	}
}

func TestRegistryNilTable(t *testing.T) {
	r := NewRegistry(testConfig())

	_, err := r.Run(context.Background(), "engagement", nil, Params{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
