package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spinlytics/casino-analytics/internal/table"
	"github.com/spinlytics/casino-analytics/pkg/config"
)

// segmentationQuery assigns each player a recency/frequency/monetary
// quartile score.
func segmentationQuery() Query {
	return Query{
		Name:            "segmentation",
		Description:     "RFM quartile segmentation per player",
		RequiredColumns: []string{"player_id", "session_start", "bet_amount"},
		Run:             runSegmentation,
	}
}

type rfm struct {
	lastSeen  time.Time
	frequency int
	monetary  float64
}

func runSegmentation(_ context.Context, tbl *table.Table, _ config.AnalyticsConfig, _ Params) ([]Result, error) {
	players := tbl.Column("player_id")
	starts := tbl.Column("session_start")
	bets := tbl.Column("bet_amount")

	byPlayer := map[string]*rfm{}
	var horizon time.Time
	for i := 0; i < tbl.NumRows(); i++ {
		if players.IsNull(i) {
			continue
		}
		id := players.String(i)
		entry := byPlayer[id]
		if entry == nil {
			entry = &rfm{}
			byPlayer[id] = entry
		}
		if !starts.IsNull(i) {
			ts := starts.Time(i).UTC()
			if ts.After(entry.lastSeen) {
				entry.lastSeen = ts
			}
			if ts.After(horizon) {
				horizon = ts
			}
			entry.frequency++
		}
		if !bets.IsNull(i) {
			if v, err := bets.Float(i); err == nil {
				entry.monetary += v
			}
		}
	}

	ids := make([]string, 0, len(byPlayer))
	for id := range byPlayer {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	recency := make([]float64, len(ids))
	frequency := make([]float64, len(ids))
	monetary := make([]float64, len(ids))
	for i, id := range ids {
		entry := byPlayer[id]
		recency[i] = horizon.Sub(entry.lastSeen).Hours() / 24
		frequency[i] = float64(entry.frequency)
		monetary[i] = entry.monetary
	}

	// Lower recency is better, so its quartile score is inverted.
	results := make([]Result, 0, len(ids))
	for i, id := range ids {
		r := 5 - quartile(recency[i], recency)
		f := quartile(frequency[i], frequency)
		m := quartile(monetary[i], monetary)
		results = append(results, newResult("segmentation",
			map[string]string{
				"player_id": id,
				"segment":   fmt.Sprintf("%d%d%d", r, f, m),
			},
			float64(r+f+m),
			byPlayer[id].frequency))
	}
	return results, nil
}

// quartile returns 1..4 for v's position within the population.
func quartile(v float64, population []float64) int {
	if len(population) == 0 {
		return 1
	}
	sorted := append([]float64{}, population...)
	sort.Float64s(sorted)

	n := len(sorted)
	q1 := sorted[n/4]
	q2 := sorted[n/2]
	q3 := sorted[(3*n)/4]
	switch {
	case v <= q1:
		return 1
	case v <= q2:
		return 2
	case v <= q3:
		return 3
	default:
		return 4
	}
}
