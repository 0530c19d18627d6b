package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/spinlytics/casino-analytics/internal/table"
	"github.com/spinlytics/casino-analytics/pkg/config"
)

// ltvQuery reports each player's cumulative net revenue and a linear
// projection over the configured horizon.
func ltvQuery() Query {
	return Query{
		Name:            "ltv",
		Description:     "per-player net revenue with a linear horizon projection",
		RequiredColumns: []string{"player_id", "session_start", "bet_amount", "win_amount"},
		Run:             runLTV,
	}
}

type ltvAccum struct {
	net                 float64
	firstSeen, lastSeen time.Time
	rows                int
}

func runLTV(_ context.Context, tbl *table.Table, _ config.AnalyticsConfig, p Params) ([]Result, error) {
	players := tbl.Column("player_id")
	starts := tbl.Column("session_start")
	bets := tbl.Column("bet_amount")
	wins := tbl.Column("win_amount")

	byPlayer := map[string]*ltvAccum{}
	for i := 0; i < tbl.NumRows(); i++ {
		if players.IsNull(i) {
			continue
		}
		id := players.String(i)
		acc := byPlayer[id]
		if acc == nil {
			acc = &ltvAccum{}
			byPlayer[id] = acc
		}
		acc.rows++

		if !starts.IsNull(i) {
			ts := starts.Time(i).UTC()
			if acc.firstSeen.IsZero() || ts.Before(acc.firstSeen) {
				acc.firstSeen = ts
			}
			if ts.After(acc.lastSeen) {
				acc.lastSeen = ts
			}
		}
		if !bets.IsNull(i) && !wins.IsNull(i) {
			bet, errB := bets.Float(i)
			win, errW := wins.Float(i)
			if errB == nil && errW == nil {
				acc.net += bet - win
			}
		}
	}

	ids := make([]string, 0, len(byPlayer))
	for id := range byPlayer {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	horizon := float64(p.horizonDays())
	results := make([]Result, 0, 2*len(ids))
	for _, id := range ids {
		acc := byPlayer[id]
		group := map[string]string{"player_id": id}
		results = append(results, newResult("ltv_observed", group, acc.net, acc.rows))

		observedDays := acc.lastSeen.Sub(acc.firstSeen).Hours() / 24
		if observedDays < 1 {
			observedDays = 1
		}
		projected := acc.net / observedDays * horizon
		results = append(results, newResult("ltv_projected", group, projected, acc.rows))
	}
	return results, nil
}
