package analytics

import (
	"context"
	"sort"
	"strconv"

	"github.com/spinlytics/casino-analytics/internal/table"
	"github.com/spinlytics/casino-analytics/pkg/config"
)

// leaderboardQuery ranks the top players by total wager or net profit.
func leaderboardQuery() Query {
	return Query{
		Name:            "leaderboard",
		Description:     "top players by total wagered or net profit",
		RequiredColumns: []string{"player_id", "bet_amount", "win_amount"},
		Run:             runLeaderboard,
	}
}

func runLeaderboard(_ context.Context, tbl *table.Table, _ config.AnalyticsConfig, p Params) ([]Result, error) {
	players := tbl.Column("player_id")
	bets := tbl.Column("bet_amount")
	wins := tbl.Column("win_amount")

	wagered := map[string]float64{}
	net := map[string]float64{}
	rows := map[string]int{}

	for i := 0; i < tbl.NumRows(); i++ {
		if players.IsNull(i) || bets.IsNull(i) {
			continue
		}
		bet, err := bets.Float(i)
		if err != nil {
			continue
		}
		id := players.String(i)
		wagered[id] += bet
		rows[id]++
		if !wins.IsNull(i) {
			if win, err := wins.Float(i); err == nil {
				net[id] += win - bet
			}
		}
	}

	values := wagered
	if p.By == "net" {
		values = net
	}

	ids := make([]string, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	// Ties break on player id so the ranking is stable across runs.
	sort.Slice(ids, func(i, j int) bool {
		if values[ids[i]] != values[ids[j]] {
			return values[ids[i]] > values[ids[j]]
		}
		return ids[i] < ids[j]
	})

	limit := p.topN()
	if limit > len(ids) {
		limit = len(ids)
	}

	results := make([]Result, 0, limit)
	for rank, id := range ids[:limit] {
		results = append(results, newResult("leaderboard",
			map[string]string{
				"player_id": id,
				"rank":      strconv.Itoa(rank + 1),
				"by":        p.byMetric(),
			},
			values[id],
			rows[id]))
	}
	return results, nil
}

func (p Params) byMetric() string {
	if p.By != "" {
		return p.By
	}
	return "wagered"
}
